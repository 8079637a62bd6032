package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	VendorAdapter (§4.8), grounded on
 *		original_source/src/core/GenieService.h's GnService_Adapter_t
 *		(device identity getters) folded together with this port's
 *		SinkAdapter/RecordAdapter and volume/mute controls, which the
 *		original splits across separate per-subsystem adapter
 *		structs.
 *
 *------------------------------------------------------------------*/

import "sync"

// VendorAdapter is the single seam a concrete device plugs into: identity
// strings for cloud auth, and the audio sink/record backends plus
// speaker volume/mute control.
type VendorAdapter interface {
	BizType() string
	BizGroup() string
	BizSecret() string
	CACert() string
	MacAddr() string
	DeviceUUID() string
	AccessToken() string

	Sink() SinkAdapter
	Record() RecordAdapter

	SetSpeakerVolume(volume int) error
	GetSpeakerVolume() int
	SetSpeakerMuted(muted bool) error
	GetSpeakerMuted() bool
}

// ReferenceVendorAdapter is an in-memory VendorAdapter for tests and
// headless demo runs: null sink, silent recorder, static identity
// strings, volume/mute held in memory only.
type ReferenceVendorAdapter struct {
	sink   SinkAdapter
	record RecordAdapter

	volume int
	muted  bool
}

func NewReferenceVendorAdapter() *ReferenceVendorAdapter {
	return &ReferenceVendorAdapter{
		sink:   NewNullSink(),
		record: NewSilenceRecorder(),
		volume: 50,
	}
}

func (a *ReferenceVendorAdapter) BizType() string     { return "reference" }
func (a *ReferenceVendorAdapter) BizGroup() string    { return "reference" }
func (a *ReferenceVendorAdapter) BizSecret() string   { return "" }
func (a *ReferenceVendorAdapter) CACert() string      { return "" }
func (a *ReferenceVendorAdapter) MacAddr() string     { return "00:00:00:00:00:00" }
func (a *ReferenceVendorAdapter) DeviceUUID() string  { return "00000000-0000-0000-0000-000000000000" }
func (a *ReferenceVendorAdapter) AccessToken() string { return "" }

func (a *ReferenceVendorAdapter) Sink() SinkAdapter     { return a.sink }
func (a *ReferenceVendorAdapter) Record() RecordAdapter { return a.record }

func (a *ReferenceVendorAdapter) SetSpeakerVolume(volume int) error {
	a.volume = volume
	return nil
}
func (a *ReferenceVendorAdapter) GetSpeakerVolume() int { return a.volume }

func (a *ReferenceVendorAdapter) SetSpeakerMuted(muted bool) error {
	a.muted = muted
	return nil
}
func (a *ReferenceVendorAdapter) GetSpeakerMuted() bool { return a.muted }

// ConfigVendorAdapter is a VendorAdapter whose identity strings come from
// a loaded Config rather than being hardcoded, for use by a real device's
// main() once it has its own Sink/RecordAdapter to plug in.
type ConfigVendorAdapter struct {
	cfg    DeviceConfig
	sink   SinkAdapter
	record RecordAdapter

	mu     sync.Mutex
	volume int
	muted  bool
}

// NewConfigVendorAdapter builds a VendorAdapter around cfg's identity
// strings and the given sink/record backends (e.g. PortAudioSink/
// PortAudioRecorder in production, NullSink/SilenceRecorder in a
// headless demo).
func NewConfigVendorAdapter(cfg DeviceConfig, sink SinkAdapter, record RecordAdapter) *ConfigVendorAdapter {
	return &ConfigVendorAdapter{cfg: cfg, sink: sink, record: record, volume: bootVolumeMax}
}

func (a *ConfigVendorAdapter) BizType() string     { return a.cfg.BizType }
func (a *ConfigVendorAdapter) BizGroup() string    { return a.cfg.BizGroup }
func (a *ConfigVendorAdapter) BizSecret() string   { return a.cfg.BizSecret }
func (a *ConfigVendorAdapter) CACert() string      { return a.cfg.CACert }
func (a *ConfigVendorAdapter) MacAddr() string     { return a.cfg.MacAddr }
func (a *ConfigVendorAdapter) DeviceUUID() string  { return a.cfg.UUID }
func (a *ConfigVendorAdapter) AccessToken() string { return "" }

func (a *ConfigVendorAdapter) Sink() SinkAdapter     { return a.sink }
func (a *ConfigVendorAdapter) Record() RecordAdapter { return a.record }

func (a *ConfigVendorAdapter) SetSpeakerVolume(volume int) error {
	a.mu.Lock()
	a.volume = volume
	a.mu.Unlock()
	return nil
}

func (a *ConfigVendorAdapter) GetSpeakerVolume() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.volume
}

func (a *ConfigVendorAdapter) SetSpeakerMuted(muted bool) error {
	a.mu.Lock()
	a.muted = muted
	a.mu.Unlock()
	return nil
}

func (a *ConfigVendorAdapter) GetSpeakerMuted() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.muted
}
