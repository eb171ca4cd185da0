// ABOUTME: Wallpaper audio runtime orchestration
// ABOUTME: Wires config, output driver, audio context, monitor and discovery
package app

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/livepaper/livepaper-go/internal/config"
	"github.com/livepaper/livepaper-go/internal/discovery"
	"github.com/livepaper/livepaper-go/internal/monitor"
	"github.com/livepaper/livepaper-go/internal/version"
	"github.com/livepaper/livepaper-go/pkg/application"
	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/driver"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
)

// openDriver creates the configured backend
var openDriver = driver.New

// App owns the audio subsystem of one renderer process
type App struct {
	cfg    *config.Config
	appCtx *application.Context
	mixer  *mixer.Context

	mu         sync.Mutex
	output     driver.Driver
	fallback   bool
	wallpapers []*Wallpaper
	closed     bool

	monitor   *monitor.Server
	discovery *discovery.Manager

	closeOnce sync.Once
}

// New opens the configured output device and binds an audio context to
// it. When the device cannot be opened or started the app continues on
// the null driver, so wallpapers render silently.
func New(cfg *config.Config, logger *log.Logger) (*App, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	format, err := cfg.Audio.Format()
	if err != nil {
		return nil, fmt.Errorf("invalid audio config: %w", err)
	}

	a := &App{cfg: cfg}
	a.appCtx = application.New(application.Config{
		Name:      version.Product,
		AssetsDir: cfg.Assets.Dir,
		Logger:    logger,
	})

	drv, err := openDriver(cfg.Audio.Driver, a.driverOptions(format))
	if err != nil {
		a.appCtx.Logf("Audio device %s unavailable: %v", cfg.Audio.Driver, err)
		return a.startSilent(format)
	}

	mix, err := mixer.NewContext(drv, a.appCtx)
	if err != nil {
		drv.Close()
		return nil, err
	}

	// OnError may fire as soon as Start runs, so failover must see both
	a.bind(drv, mix, false)
	a.applyLevels()

	if err := drv.Start(mix); err != nil {
		a.appCtx.Logf("Audio device %s failed to start: %v", drv.Name(), err)
		a.failover()
		if !a.Silent() {
			mix.Close()
			drv.Close()
			return nil, fmt.Errorf("audio device %s failed to start: %w", drv.Name(), err)
		}
		a.appCtx.Logf("Audio output disabled; wallpapers continue silently")
	}
	return a, nil
}

// startSilent binds the audio context to the null driver
func (a *App) startSilent(format audio.Format) (*App, error) {
	drv, err := driver.NewNull(a.driverOptions(format))
	if err != nil {
		return nil, err
	}

	mix, err := mixer.NewContext(drv, a.appCtx)
	if err != nil {
		drv.Close()
		return nil, err
	}
	a.bind(drv, mix, true)
	a.applyLevels()

	if err := drv.Start(mix); err != nil {
		mix.Close()
		drv.Close()
		return nil, err
	}
	a.appCtx.Logf("Audio output disabled; wallpapers continue silently")
	return a, nil
}

func (a *App) bind(drv driver.Driver, mix *mixer.Context, fallback bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.output = drv
	a.mixer = mix
	a.fallback = fallback
}

func (a *App) driverOptions(format audio.Format) driver.Options {
	return driver.Options{
		Format:   format,
		BufferMs: a.cfg.Audio.BufferMs,
		OnError: func(err error) {
			a.appCtx.ReportError(fmt.Errorf("audio device: %w", err))
			// the callback may run on the device thread; never close it from there
			go a.failover()
		},
	}
}

func (a *App) applyLevels() {
	a.mixer.SetVolume(a.cfg.Audio.Volume)
	a.mixer.SetMuted(a.cfg.Audio.Muted)
}

// failover replaces a failed device with the null driver. Registered
// streams keep being pulled at the same cadence and format.
func (a *App) failover() {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed || a.fallback || a.mixer == nil {
		return
	}

	failed := a.output
	null, err := driver.NewNull(driver.Options{
		Format:   a.mixer.Format(),
		BufferMs: a.cfg.Audio.BufferMs,
	})
	if err == nil {
		err = null.Start(a.mixer)
	}
	if err != nil {
		a.appCtx.ReportError(fmt.Errorf("null driver fallback failed: %w", err))
		return
	}

	a.output = null
	a.fallback = true
	a.appCtx.Logf("Audio device %s failed; continuing silently", failed.Name())

	if err := failed.Close(); err != nil {
		a.appCtx.Logf("Error closing failed device: %v", err)
	}
}

// Start plays the configured wallpapers and brings up the monitor
func (a *App) Start() error {
	for _, wc := range a.cfg.Wallpapers {
		if _, err := a.AddWallpaper(wc); err != nil {
			// one broken wallpaper must not silence the others
			a.appCtx.ReportError(fmt.Errorf("wallpaper %s: %w", wallpaperLabel(wc), err))
		}
	}

	if a.cfg.Monitor.Addr == "" {
		return nil
	}

	mon, err := monitor.New(monitor.Config{
		Addr: a.cfg.Monitor.Addr,
		Audio: monitor.AudioConfig{
			Codec:  a.cfg.Monitor.Audio,
			Format: a.mixer.Format(),
		},
	}, func() interface{} {
		return a.Status()
	}, a)
	if err != nil {
		return err
	}
	if err := mon.Start(); err != nil {
		mon.Stop()
		return err
	}
	a.monitor = mon
	if tap := mon.Tap(); tap != nil {
		a.mixer.SetTap(tap)
	}

	if a.cfg.Monitor.MDNS {
		disc := discovery.NewManager(discovery.Config{
			ServiceName: a.cfg.Monitor.Name,
			Port:        mon.Port(),
			Path:        mon.Path(),
		})
		if err := disc.Advertise(); err != nil {
			a.appCtx.ReportError(fmt.Errorf("mDNS advertisement: %w", err))
		} else {
			a.discovery = disc
		}
	}
	return nil
}

// ApplicationContext returns the context the audio subsystem runs under
func (a *App) ApplicationContext() *application.Context {
	return a.appCtx
}

// Mixer returns the audio context
func (a *App) Mixer() *mixer.Context {
	return a.mixer
}

// Output returns the driver currently pulling audio
func (a *App) Output() driver.Driver {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.output
}

// Silent reports whether the app fell back to the null driver
func (a *App) Silent() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.fallback
}

// SetVolume sets the master volume
func (a *App) SetVolume(volume int) {
	a.mixer.SetVolume(volume)
	log.Printf("Volume: %d%%", a.mixer.Volume())
}

// SetMuted sets the master mute state
func (a *App) SetMuted(muted bool) {
	a.mixer.SetMuted(muted)
	log.Printf("Muted: %v", muted)
}

// Close stops every wallpaper, the monitor and the output device
func (a *App) Close() error {
	var closeErr error

	a.closeOnce.Do(func() {
		a.mu.Lock()
		a.closed = true
		wallpapers := a.wallpapers
		a.wallpapers = nil
		output := a.output
		a.mu.Unlock()

		if a.discovery != nil {
			a.discovery.Stop()
		}
		if a.monitor != nil {
			a.mixer.SetTap(nil)
			a.monitor.Stop()
		}

		for _, w := range wallpapers {
			a.mixer.RemoveStream(w.handle)
			w.stop()
		}

		a.mixer.Close()
		closeErr = output.Close()
		a.appCtx.Shutdown()

		if errors.Is(closeErr, driver.ErrClosed) {
			closeErr = nil
		}
		a.appCtx.Logf("Audio runtime stopped")
	})

	return closeErr
}
