package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	Discovery (§4.8, supplemented feature): advertises this
 *		device on the local network for first-time pairing, grounded
 *		on `src/dns_sd.go`'s `dns_sd_announce` (announcing a
 *		"_kiss-tnc._tcp" service over `github.com/brutella/dnssd`)
 *		generalized from a packet-radio TNC to a speaker. Additive:
 *		no Sdk operation depends on a pairing app actually finding
 *		the device.
 *
 *------------------------------------------------------------------*/

import (
	"context"
	"sync"

	"github.com/brutella/dnssd"
)

const discoveryServiceType = "_geniesdk._tcp"

var discoveryLog = newSubsystemLogger("discovery")

// Discovery advertises one device over mDNS/DNS-SD so a companion app on
// the same network can find it without the user typing in an address.
type Discovery struct {
	name string
	port int

	mu     sync.Mutex
	cancel context.CancelFunc
}

// NewDiscovery builds a Discovery that will advertise name on port once
// Start is called. name should be unique per device (e.g. the device
// UUID's first segment); port is whatever local pairing service the
// embedding application runs, or 0 if pairing happens out of band.
func NewDiscovery(name string, port int) *Discovery {
	return &Discovery{name: name, port: port}
}

// Start registers the mDNS responder and begins answering queries in the
// background. Safe to call even if it was never going to be useful
// (e.g. no companion app exists yet) — failures are logged, not fatal.
func (d *Discovery) Start(ctx context.Context) {
	cfg := dnssd.Config{ //nolint:exhaustruct
		Name: d.name,
		Type: discoveryServiceType,
		Port: d.port,
	}

	sv, err := dnssd.NewService(cfg)
	if err != nil {
		discoveryLog.Error("failed to create dnssd service", "err", err)
		return
	}

	rp, err := dnssd.NewResponder()
	if err != nil {
		discoveryLog.Error("failed to create dnssd responder", "err", err)
		return
	}

	if _, err := rp.Add(sv); err != nil {
		discoveryLog.Error("failed to register dnssd service", "err", err)
		return
	}

	respondCtx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	discoveryLog.Info("advertising on local network", "name", d.name, "type", discoveryServiceType, "port", d.port)

	go func() {
		if err := rp.Respond(respondCtx); err != nil && respondCtx.Err() == nil {
			discoveryLog.Error("dnssd responder stopped", "err", err)
		}
	}()
}

// Stop withdraws the advertisement. Safe to call if Start never
// succeeded.
func (d *Discovery) Stop() {
	d.mu.Lock()
	cancel := d.cancel
	d.cancel = nil
	d.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}
