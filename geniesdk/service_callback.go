package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	ServiceCallback (§4.8), grounded on
 *		original_source/src/core/GenieService.h's GnService_Callback_t:
 *		the object the core invokes to publish events outward, kept
 *		distinct from CommandListener/StatusListener (cloud -> core)
 *		and from SdkCallback (vendor glue -> core, folded into the
 *		adapter/transport interfaces on this port's Go side).
 *
 *------------------------------------------------------------------*/

// ServiceCallback is implemented by whatever sits on the far side of the
// cloud transport (or, in tests, a recording stub) to receive every event
// the core publishes outward.
type ServiceCallback interface {
	OnNetworkConnected()
	OnNetworkDisconnected()
	OnMicphoneWakeup(word string, doa, confidence int)
	OnMicphoneSilence()
	OnMicphoneStreaming(format AudioFormat, buf []byte, final bool)
	OnSpeakerVolumeChanged(volume int)
	OnSpeakerMutedChanged(muted bool)
	OnPlayerStarted()
	OnPlayerPaused()
	OnPlayerResumed()
	OnPlayerNearlyFinished()
	OnPlayerFinished()
	OnPlayerStopped()
	OnPlayerFailed(err error)
	OnTextRecognize(text string)
	OnExpectSpeech()
}
