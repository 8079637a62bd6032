package main

/*------------------------------------------------------------------
 *
 * Purpose:	Standalone demo program for the geniesdk client runtime:
 *		loads geniesdk.yaml, wires a VendorAdapter and ServiceTransport
 *		(reference or real, by flag), starts the Sdk, and blocks
 *		until interrupted.
 *
 *---------------------------------------------------------------*/

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sepnic/geniesdk-go/geniesdk"
	"github.com/spf13/pflag"
)

func main() {
	var configFile = pflag.StringP("config-file", "c", "", "Path to geniesdk.yaml (searched in the usual locations if omitted).")
	var websocketURL = pflag.StringP("websocket-url", "w", "", "Cloud websocket URL. Overrides the config file. Falls back to an in-process loopback transport if empty.")
	var usePortAudio = pflag.BoolP("portaudio", "p", false, "Use the PortAudio sink/record backend instead of the silent reference one.")
	var discoveryPort = pflag.IntP("discovery-port", "d", 0, "Advertise this device over mDNS/DNS-SD on the given port. 0 disables advertising.")
	var muteGPIOChip = pflag.String("mute-gpio-chip", "", "GPIO chip (e.g. gpiochip0) driving a physical mute indicator. Empty disables it.")
	var muteGPIOLine = pflag.Int("mute-gpio-line", 0, "GPIO line offset on --mute-gpio-chip for the mute indicator.")
	var watchAudioDevices = pflag.Bool("watch-audio-devices", false, "Log udev add/remove events for sound hardware.")
	var help = pflag.BoolP("help", "h", false, "Display help text.")

	pflag.Usage = func() {
		fmt.Fprintf(os.Stderr, "geniesdk-demo - headless runner for the geniesdk client runtime.\n\n")
		fmt.Fprintf(os.Stderr, "Usage: geniesdk-demo [options]\n")
		pflag.PrintDefaults()
	}
	pflag.Parse()

	if *help {
		pflag.Usage()
		os.Exit(0)
	}

	var locations []string
	if *configFile != "" {
		locations = []string{*configFile}
	}
	cfg, err := geniesdk.LoadConfig(locations...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geniesdk-demo: loading config: %v\n", err)
		os.Exit(1)
	}
	if *websocketURL != "" {
		cfg.WebsocketURL = *websocketURL
	}

	adapter, err := buildVendorAdapter(cfg, *usePortAudio)
	if err != nil {
		fmt.Fprintf(os.Stderr, "geniesdk-demo: building vendor adapter: %v\n", err)
		os.Exit(1)
	}

	callback := geniesdk.NewLoggingCallback()
	transport := buildTransport(cfg, callback)

	sdk := geniesdk.NewFromConfig(adapter, transport, geniesdk.NewSourceRegistry(), cfg)

	sdk.RegisterCommandListener(loggingCommandListener{})
	sdk.RegisterStatusListener(loggingStatusListener{})

	if *discoveryPort > 0 {
		name := cfg.Device.UUID
		if name == "" {
			name = "geniesdk-demo"
		}
		sdk.SetDiscovery(geniesdk.NewDiscovery(name, *discoveryPort))
	}

	if *muteGPIOChip != "" {
		indicator, err := geniesdk.NewMuteIndicator(*muteGPIOChip, *muteGPIOLine, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "geniesdk-demo: mute indicator unavailable: %v\n", err)
		} else {
			defer indicator.Close()
			sdk.RegisterStatusListener(indicator)
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if *watchAudioDevices {
		watcher := geniesdk.NewAudioDeviceWatcher()
		if err := watcher.Watch(ctx, func(action, syspath string) {
			fmt.Printf("udev: %s %s\n", action, syspath)
		}); err != nil {
			fmt.Fprintf(os.Stderr, "geniesdk-demo: audio device watch unavailable: %v\n", err)
		}
	}

	if err := sdk.Start(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "geniesdk-demo: starting sdk: %v\n", err)
		os.Exit(1)
	}
	defer sdk.Stop()

	fmt.Printf("geniesdk-demo running, press Ctrl-C to exit.\n")
	<-ctx.Done()
	fmt.Printf("\ngeniesdk-demo shutting down.\n")
}

func buildVendorAdapter(cfg *geniesdk.Config, usePortAudio bool) (geniesdk.VendorAdapter, error) {
	if !usePortAudio {
		return geniesdk.NewReferenceVendorAdapter(), nil
	}

	sink, err := geniesdk.NewPortAudioSink()
	if err != nil {
		return nil, fmt.Errorf("opening portaudio sink: %w", err)
	}
	record, err := geniesdk.NewPortAudioRecorder()
	if err != nil {
		return nil, fmt.Errorf("opening portaudio recorder: %w", err)
	}
	return geniesdk.NewConfigVendorAdapter(cfg.Device, sink, record), nil
}

func buildTransport(cfg *geniesdk.Config, callback geniesdk.ServiceCallback) geniesdk.ServiceTransport {
	if cfg.WebsocketURL == "" {
		return geniesdk.NewLoopbackTransport()
	}
	return geniesdk.NewWebsocketTransport(cfg.WebsocketURL, callback)
}

type loggingCommandListener struct{}

func (loggingCommandListener) OnCommand(cmd geniesdk.Command) {
	fmt.Printf("command: domain=%v kind=%v\n", cmd.Domain, cmd.Kind)
}

type loggingStatusListener struct{}

func (loggingStatusListener) OnStatus(status geniesdk.Status) {
	fmt.Printf("status: kind=%v\n", status.Kind)
}
