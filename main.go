// ABOUTME: Entry point for the livepaper wallpaper audio runtime
// ABOUTME: Parses CLI flags, loads config and runs the audio subsystem
package main

import (
	"flag"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/livepaper/livepaper-go/internal/app"
	"github.com/livepaper/livepaper-go/internal/config"
	"github.com/livepaper/livepaper-go/internal/ui"
	"github.com/livepaper/livepaper-go/internal/version"
)

var (
	configPath   = flag.String("config", "", "Path to YAML config file")
	driverName   = flag.String("driver", "", "Audio driver: oto, malgo, portaudio, null (overrides config)")
	volume       = flag.Int("volume", -1, "Master volume 0-100 (overrides config)")
	silent       = flag.Bool("silent", false, "Mute all wallpaper audio")
	noTUI        = flag.Bool("no-tui", false, "Disable TUI, use streaming logs instead")
	logFile      = flag.String("log-file", "", "Log file path (overrides config)")
	monitorAddr  = flag.String("monitor", "", "Monitor WebSocket listen address, e.g. :8928 (overrides config)")
	monitorAudio = flag.String("monitor-audio", "", "Stream the mix to monitor listeners: opus, pcm (overrides config)")
)

func main() {
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
		cfg = loaded
	}
	applyFlags(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	useTUI := !*noTUI

	// Set up logging
	f, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		log.Fatalf("error opening log file: %v", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s %s (driver: %s)", version.Product, version.Version, cfg.Audio.Driver)

	runtime, err := app.New(cfg, log.Default())
	if err != nil {
		log.Fatalf("Failed to initialize audio: %v", err)
	}
	if err := runtime.Start(); err != nil {
		runtime.Close()
		log.Fatalf("Failed to start: %v", err)
	}

	var tuiProg *tea.Program
	var volumeCtrl *ui.VolumeControl

	if useTUI {
		volumeCtrl = ui.NewVolumeControl()
		tuiProg, err = ui.Run(volumeCtrl)
		if err != nil {
			log.Fatalf("Failed to start TUI: %v", err)
		}
		go func() {
			if _, err := tuiProg.Run(); err != nil {
				log.Printf("TUI error: %v", err)
			}
		}()
		go handleVolumeControl(runtime, volumeCtrl)
		go statusUpdateLoop(runtime, tuiProg)
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	if volumeCtrl != nil {
		select {
		case <-volumeCtrl.Quit:
			log.Printf("Received quit signal from TUI")
		case <-sigChan:
			log.Printf("Shutdown signal received")
		}
		tuiProg.Quit()
	} else {
		<-sigChan
		log.Printf("Shutdown signal received")
	}

	if err := runtime.Close(); err != nil {
		log.Printf("Error closing audio: %v", err)
	}

	log.Printf("Stopped")
}

// applyFlags lets command-line flags override file values
func applyFlags(cfg *config.Config) {
	if *driverName != "" {
		cfg.Audio.Driver = *driverName
	}
	if *volume >= 0 {
		cfg.Audio.Volume = min(*volume, 100)
	}
	if *silent {
		cfg.Audio.Muted = true
	}
	if *logFile != "" {
		cfg.Log.File = *logFile
	}
	if *monitorAddr != "" {
		cfg.Monitor.Addr = *monitorAddr
	}
	if *monitorAudio != "" {
		cfg.Monitor.Audio = *monitorAudio
	}
}

// handleVolumeControl processes volume changes from TUI
func handleVolumeControl(runtime *app.App, volumeCtrl *ui.VolumeControl) {
	for {
		select {
		case vol := <-volumeCtrl.Changes:
			runtime.SetVolume(vol.Volume)
			runtime.SetMuted(vol.Muted)
		case <-runtime.ApplicationContext().Done():
			return
		}
	}
}

// statusUpdateLoop periodically pushes runtime status to the TUI
func statusUpdateLoop(runtime *app.App, tuiProg *tea.Program) {
	ticker := time.NewTicker(500 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tuiProg.Send(ui.StatusMsg(runtime.Status()))
		case <-runtime.ApplicationContext().Done():
			return
		}
	}
}
