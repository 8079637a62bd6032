package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	ServiceTransport (§4.8 "through a CommandListener
 *		registration through which the transport injects decoded
 *		commands"): the cloud wire connection. Implementing the
 *		actual cloud protocol is out of scope (§1 Non-goals, "no
 *		server implementation"); this is the seam production glue
 *		plugs into, grounded on original_source's
 *		GnService_Register_CommandListener / _StatusListener /
 *		_TtsbinaryListener trio.
 *
 *------------------------------------------------------------------*/

import "context"

// ServiceTransport is the cloud-facing connection the Service coordinator
// drives. Start/Stop manage the underlying connection; the three Register
// calls let the core subscribe to what the transport decodes off the
// wire, and Callback returns the object the core publishes events to.
type ServiceTransport interface {
	Start(ctx context.Context) error
	Stop() error
	IsActive() bool

	Callback() ServiceCallback

	RegisterCommandListener(func(Command))
	RegisterStatusListener(func(Status))
	RegisterTTSListener(func(data []byte, final bool))
}
