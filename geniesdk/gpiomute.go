package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	MuteIndicator (§4.8, supplemented feature): drives a GPIO
 *		output line in lockstep with Status.SpeakerMuted/Unmuted,
 *		grounded on `src/ptt.go`'s GPIO line control (there, keying a
 *		transmitter; here, lighting a physical mute LED) rewritten
 *		against the pure-Go `github.com/warthog618/go-gpiocdev`
 *		instead of ptt.go's cgo `libgpiod` binding. Optional: a
 *		Service with no mute LED wired up never constructs one.
 *
 *------------------------------------------------------------------*/

import (
	"github.com/warthog618/go-gpiocdev"
)

var gpioLog = newSubsystemLogger("gpiomute")

// MuteIndicator is a StatusListener that sets a GPIO line high when the
// speaker is muted and low when it's unmuted, mirroring ptt.go's
// active-high/active-low line control for a transmitter's PTT signal.
type MuteIndicator struct {
	line       *gpiocdev.Line
	activeHigh bool
}

// NewMuteIndicator requests offset on chip (e.g. "gpiochip0") as an
// output line, initially low. activeHigh false inverts the signal the
// same way ptt.go's PTT_ACTIVE_LOW option does.
func NewMuteIndicator(chip string, offset int, activeHigh bool) (*MuteIndicator, error) {
	line, err := gpiocdev.RequestLine(chip, offset, gpiocdev.AsOutput(0))
	if err != nil {
		return nil, newCoreError(ErrInternal, "NewMuteIndicator", err)
	}
	return &MuteIndicator{line: line, activeHigh: activeHigh}, nil
}

// OnStatus implements StatusListener: SpeakerMuted/Unmuted drive the
// line, every other status kind is ignored.
func (m *MuteIndicator) OnStatus(status Status) {
	switch status.Kind {
	case StatusSpeakerMuted:
		m.set(true)
	case StatusSpeakerUnmuted:
		m.set(false)
	}
}

func (m *MuteIndicator) set(muted bool) {
	v := 0
	if muted == m.activeHigh {
		v = 1
	}
	if err := m.line.SetValue(v); err != nil {
		gpioLog.Error("failed to set mute indicator line", "err", err)
	}
}

// Close releases the GPIO line.
func (m *MuteIndicator) Close() error {
	return m.line.Close()
}
