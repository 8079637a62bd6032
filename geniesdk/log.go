package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Structured logging, one *log.Logger per subsystem, the
 *		Go-native replacement for the teacher's hand-rolled leveled/
 *		colored console output (`src/log.go`, `src/textcolor.go`'s
 *		`text_color_set`/`dw_printf` pair).
 *
 *------------------------------------------------------------------*/

import (
	"os"

	"github.com/charmbracelet/log"
)

// newSubsystemLogger returns a logger prefixed with name, matching the
// teacher's one-global-per-concern style (g_daily_names, _text_color_level)
// translated to a per-subsystem *log.Logger instead of shared globals.
func newSubsystemLogger(name string) *log.Logger {
	return log.NewWithOptions(os.Stderr, log.Options{
		Prefix:          name,
		ReportTimestamp: true,
	})
}

var (
	utpLog      = newSubsystemLogger("utp")
	recorderLog = newSubsystemLogger("recorder")
	serviceLog  = newSubsystemLogger("service")
	sourceLog   = newSubsystemLogger("source")
)
