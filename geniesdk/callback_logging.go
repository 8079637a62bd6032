package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	LoggingCallback (§4.8): a ServiceCallback that logs every
 *		outward event instead of forwarding it anywhere, for a
 *		transport whose cloud side has no outbound wire format yet
 *		(see transport_websocket.go's envelope comment) or for a
 *		standalone demo run with no cloud connection at all.
 *
 *------------------------------------------------------------------*/

var callbackLog = newSubsystemLogger("callback")

// LoggingCallback implements ServiceCallback by logging each event,
// tagged with its arguments: microphone streaming at debug level, player
// failure at error level, and every other event at info level.
type LoggingCallback struct{}

func NewLoggingCallback() *LoggingCallback { return &LoggingCallback{} }

func (c *LoggingCallback) OnNetworkConnected()    { callbackLog.Info("network connected") }
func (c *LoggingCallback) OnNetworkDisconnected() { callbackLog.Info("network disconnected") }

func (c *LoggingCallback) OnMicphoneWakeup(word string, doa, confidence int) {
	callbackLog.Info("microphone wakeup", "word", word, "doa", doa, "confidence", confidence)
}
func (c *LoggingCallback) OnMicphoneSilence() { callbackLog.Info("microphone silence") }
func (c *LoggingCallback) OnMicphoneStreaming(format AudioFormat, buf []byte, final bool) {
	callbackLog.Debug("microphone streaming", "bytes", len(buf), "final", final)
}

func (c *LoggingCallback) OnSpeakerVolumeChanged(volume int) {
	callbackLog.Info("speaker volume changed", "volume", volume)
}
func (c *LoggingCallback) OnSpeakerMutedChanged(muted bool) {
	callbackLog.Info("speaker muted changed", "muted", muted)
}

func (c *LoggingCallback) OnPlayerStarted()        { callbackLog.Info("player started") }
func (c *LoggingCallback) OnPlayerPaused()         { callbackLog.Info("player paused") }
func (c *LoggingCallback) OnPlayerResumed()        { callbackLog.Info("player resumed") }
func (c *LoggingCallback) OnPlayerNearlyFinished() { callbackLog.Info("player nearly finished") }
func (c *LoggingCallback) OnPlayerFinished()       { callbackLog.Info("player finished") }
func (c *LoggingCallback) OnPlayerStopped()        { callbackLog.Info("player stopped") }
func (c *LoggingCallback) OnPlayerFailed(err error) {
	callbackLog.Error("player failed", "err", err)
}

func (c *LoggingCallback) OnTextRecognize(text string) {
	callbackLog.Info("text recognized", "text", text)
}
func (c *LoggingCallback) OnExpectSpeech() { callbackLog.Info("expect speech") }
