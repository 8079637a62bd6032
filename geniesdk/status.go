package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	The status event taxonomy the transport reports into the
 *		core (§4.8 "Status handling"), grounded on
 *		original_source/src/GenieSdk.c's GenieSdk_StatusListener
 *		edge-tracking of network/gateway/authorized/mute state.
 *
 *------------------------------------------------------------------*/

// StatusKind names one environment transition the transport reports.
type StatusKind int

const (
	StatusNetworkConnected StatusKind = iota
	StatusNetworkDisconnected
	StatusGatewayConnected
	StatusGatewayDisconnected
	StatusAuthorized
	StatusUnauthorized
	StatusSpeakerMuted
	StatusSpeakerUnmuted
	StatusMicphoneWakeup
	StatusMicphoneStarted
	StatusMicphoneStopped
)

// Status is one decoded status transition.
type Status struct {
	Kind       StatusKind
	Wakeword   string // MicphoneWakeup
	DOA        int    // MicphoneWakeup: direction of arrival, degrees
	Confidence int    // MicphoneWakeup
}

// StatusListener receives every status transition the Service
// coordinator forwards externally, mirroring CommandListener's
// register/unregister shape.
type StatusListener interface {
	OnStatus(status Status)
}
