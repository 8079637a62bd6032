package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Startup configuration (§0 AMBIENT: YAML-backed config),
 *		grounded on `src/deviceid.go`'s `deviceid_init` pattern: a
 *		data file searched for across a small list of candidate
 *		locations, unmarshaled into typed Go structs once at
 *		startup. Here it covers device identity, the prebuilt-prompt
 *		URL table, boot volume bounds, and the cloud websocket
 *		endpoint rather than the MIC-E/tocalls tables.
 *
 *------------------------------------------------------------------*/

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// DeviceConfig holds the identity strings a VendorAdapter reports to the
// cloud, loaded from config rather than compiled in.
type DeviceConfig struct {
	BizType   string `yaml:"biz_type"`
	BizGroup  string `yaml:"biz_group"`
	BizSecret string `yaml:"biz_secret"`
	CACert    string `yaml:"ca_cert"`
	MacAddr   string `yaml:"mac_addr"`
	UUID      string `yaml:"uuid"`
}

// VolumeConfig overrides the §4.8 boot-time volume clamp.
type VolumeConfig struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Config is the top-level YAML document this package loads at startup.
type Config struct {
	Device       DeviceConfig             `yaml:"device"`
	Volume       VolumeConfig             `yaml:"volume"`
	PrebuiltURLs map[PrebuiltSound]string `yaml:"prebuilt_urls"`
	WebsocketURL string                   `yaml:"websocket_url"`
}

// defaultSearchLocations mirrors deviceid.go's search_locations list:
// current directory first, then a couple of conventional install paths.
var defaultSearchLocations = []string{
	"geniesdk.yaml",
	"config/geniesdk.yaml",
	"/etc/geniesdk/geniesdk.yaml",
}

// LoadConfig reads and parses the first candidate in locations (or
// defaultSearchLocations if empty) that exists. Returns DefaultConfig,
// not an error, if none exist — every field has a sane fallback.
func LoadConfig(locations ...string) (*Config, error) {
	if len(locations) == 0 {
		locations = defaultSearchLocations
	}

	var data []byte
	var found string
	for _, loc := range locations {
		b, err := os.ReadFile(loc)
		if err == nil {
			data = b
			found = loc
			break
		}
	}
	if found == "" {
		return DefaultConfig(), nil
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("geniesdk: parsing config %q: %w", found, err)
	}
	return cfg, nil
}

// DefaultConfig returns a Config usable with no file present at all: the
// §4.8 boot volume bounds and no prompt overrides.
func DefaultConfig() *Config {
	return &Config{
		Volume: VolumeConfig{Min: bootVolumeMin, Max: bootVolumeMax},
	}
}
