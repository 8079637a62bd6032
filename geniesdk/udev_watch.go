package geniesdk

/*------------------------------------------------------------------
 *
 * Purpose:	AudioDeviceWatcher (§4.4, supplemented feature): watches udev
 *		for sound-subsystem add/remove events, so a deployment backed
 *		by a USB audio peripheral can notice a hot-unplug instead of
 *		silently failing its next Sink/RecordAdapter call. Grounded on
 *		original_source's Alsa example adapter (`example/unix/adapter/
 *		alsa`), which assumes a fixed ALSA device and has no hotplug
 *		story at all — this is new coverage, not a straight port,
 *		built on `github.com/jochenvg/go-udev`, the pack's pure-Go
 *		udev binding.
 *
 *------------------------------------------------------------------*/

import (
	"context"

	"github.com/jochenvg/go-udev"
)

const audioWatchSubsystem = "sound"

var udevLog = newSubsystemLogger("udev")

// AudioDeviceWatcher reports udev add/remove events for the "sound"
// subsystem. It does nothing on its own — Watch's onChange callback is
// the caller's chance to react, e.g. by re-opening a PortAudioSink.
type AudioDeviceWatcher struct {
	u udev.Udev
}

func NewAudioDeviceWatcher() *AudioDeviceWatcher {
	return &AudioDeviceWatcher{}
}

// Watch starts a background udev monitor and calls onChange(action,
// syspath) for every sound-subsystem event until ctx is done. Returns
// once the monitor is registered; delivery happens on a goroutine.
func (w *AudioDeviceWatcher) Watch(ctx context.Context, onChange func(action, syspath string)) error {
	m := w.u.NewMonitorFromNetlink("udev")
	if err := m.FilterAddMatchSubsystem(audioWatchSubsystem); err != nil {
		return newCoreError(ErrInternal, "AudioDeviceWatcher.Watch", err)
	}

	deviceCh, errCh, err := m.DeviceChan(ctx)
	if err != nil {
		return newCoreError(ErrInternal, "AudioDeviceWatcher.Watch", err)
	}

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case d, ok := <-deviceCh:
				if !ok {
					return
				}
				onChange(d.Action(), d.Syspath())
			case err, ok := <-errCh:
				if !ok {
					continue
				}
				if err != nil {
					udevLog.Error("udev monitor error", "err", err)
				}
			}
		}
	}()

	return nil
}
