package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Sdk (§1/§4.8): the public facade, grounded on
 *		original_source/src/GenieSdk.c's GenieSdk_Init/_Start/
 *		_Stop/_Register_CommandListener/_Register_StatusListener
 *		entry points, minus the C file's manual linked-list callback
 *		registration (replaced by Service's mutex-guarded slices).
 *
 *------------------------------------------------------------------*/

import "context"

// Sdk is the module's single entry point: construct one with New,
// Start it, and register whatever CommandListener/StatusListener the
// embedding application needs.
type Sdk struct {
	svc       *Service
	discovery *Discovery
}

// New builds an Sdk around adapter, wiring a fresh UtpManager/Recorder
// pair and the source registry every production deployment needs
// (prebuilt://, tts://, plus whatever SourceAdapters the caller adds to
// sources before calling New).
func New(adapter VendorAdapter, transport ServiceTransport, sources *SourceRegistry) *Sdk {
	prebuilt := NewPrebuiltSource()
	tts := NewTTSSource()
	sources.Register(prebuilt)
	sources.Register(tts)
	return &Sdk{svc: NewService(adapter, transport, sources, prebuilt, tts)}
}

// NewFromConfig is New plus applying cfg's boot volume bounds and any
// prebuilt-prompt URL overrides (§0 AMBIENT config).
func NewFromConfig(adapter VendorAdapter, transport ServiceTransport, sources *SourceRegistry, cfg *Config) *Sdk {
	sdk := New(adapter, transport, sources)
	if cfg == nil {
		return sdk
	}
	if cfg.Volume.Min != 0 || cfg.Volume.Max != 0 {
		sdk.svc.SetVolumeBounds(cfg.Volume.Min, cfg.Volume.Max)
	}
	for sound, url := range cfg.PrebuiltURLs {
		sdk.svc.SetPromptURL(sound, url)
	}
	return sdk
}

// SetDiscovery attaches a network-discoverability advertiser: Start will
// begin advertising once the transport is up, and Stop will withdraw it.
// Optional — a deployment with no pairing app has no reason to call this.
func (s *Sdk) SetDiscovery(d *Discovery) { s.discovery = d }

// Start clamps the boot volume (§4.8), opens the transport, and (if
// SetDiscovery was called) begins advertising on the local network.
func (s *Sdk) Start(ctx context.Context) error {
	if err := s.svc.Start(ctx); err != nil {
		return err
	}
	if s.discovery != nil {
		s.discovery.Start(ctx)
	}
	return nil
}

// Stop closes the transport, every worker goroutine the Sdk owns, and
// withdraws the network advertisement if one was started.
func (s *Sdk) Stop() error {
	if s.discovery != nil {
		s.discovery.Stop()
	}
	return s.svc.Stop()
}

// IsActive reports whether the transport connection is currently up.
func (s *Sdk) IsActive() bool { return s.svc.IsActive() }

// RegisterCommandListener subscribes l to every command the cloud sends
// down (other than SetVolume/SetMute, which the Sdk applies locally).
// The returned handle is passed to UnregisterCommandListener.
func (s *Sdk) RegisterCommandListener(l CommandListener) int {
	return s.svc.RegisterCommandListener(l)
}

func (s *Sdk) UnregisterCommandListener(id int) { s.svc.UnregisterCommandListener(id) }

// RegisterStatusListener subscribes l to every network/gateway/auth/mute
// transition the transport reports.
func (s *Sdk) RegisterStatusListener(l StatusListener) int {
	return s.svc.RegisterStatusListener(l)
}

func (s *Sdk) UnregisterStatusListener(id int) { s.svc.UnregisterStatusListener(id) }
