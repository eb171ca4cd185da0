// ABOUTME: Per-wallpaper audio pipelines registered with the audio context
// ABOUTME: Opens, conforms and pumps a soundtrack, or registers a tone directly
package app

import (
	"fmt"

	"github.com/livepaper/livepaper-go/internal/config"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
	"github.com/livepaper/livepaper-go/pkg/audio/stream"
)

// Wallpaper is one playing soundtrack
type Wallpaper struct {
	Name   string
	Origin string

	handle mixer.Handle
	queue  *stream.Queue
	pump   *stream.Pump
	tone   *stream.Tone
}

// Handle returns the audio context registration
func (w *Wallpaper) Handle() mixer.Handle {
	return w.handle
}

func (w *Wallpaper) stop() {
	if w.pump != nil {
		w.pump.Stop()
	}
	if w.queue != nil {
		w.queue.Close()
	}
	if w.tone != nil {
		w.tone.Close()
	}
}

// ended reports whether a non-looping soundtrack played out or its
// pipeline failed
func (w *Wallpaper) ended() bool {
	if w.queue != nil {
		return !w.queue.Alive()
	}
	return w.tone != nil && !w.tone.Alive()
}

// pruneEndedLocked drops wallpapers that finished on their own. The
// audio context already retired their streams; this releases the name.
func (a *App) pruneEndedLocked() {
	kept := a.wallpapers[:0]
	for _, w := range a.wallpapers {
		if !w.ended() {
			kept = append(kept, w)
			continue
		}
		a.mixer.RemoveStream(w.handle)
		w.stop()
		a.appCtx.Logf("Wallpaper %s finished", w.Name)
	}
	for i := len(kept); i < len(a.wallpapers); i++ {
		a.wallpapers[i] = nil
	}
	a.wallpapers = kept
}

func wallpaperLabel(wc config.WallpaperConfig) string {
	switch {
	case wc.Name != "":
		return wc.Name
	case wc.Path != "":
		return wc.Path
	default:
		return fmt.Sprintf("tone-%.0fHz", wc.Tone)
	}
}

// AddWallpaper starts the soundtrack described by wc
func (a *App) AddWallpaper(wc config.WallpaperConfig) (*Wallpaper, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return nil, mixer.ErrClosed
	}

	a.pruneEndedLocked()

	name := wallpaperLabel(wc)
	for _, w := range a.wallpapers {
		if w.Name == name {
			return nil, fmt.Errorf("wallpaper %s is already playing", name)
		}
	}

	var (
		w   *Wallpaper
		err error
	)
	if wc.Path != "" {
		w, err = a.openSoundtrack(name, wc)
	} else {
		w, err = a.openTone(name, wc)
	}
	if err != nil {
		return nil, err
	}

	if err := a.mixer.SetStreamVolume(w.handle, wc.Volume); err != nil {
		a.mixer.RemoveStream(w.handle)
		w.stop()
		return nil, err
	}

	a.wallpapers = append(a.wallpapers, w)
	a.appCtx.Logf("Wallpaper %s playing from %s", w.Name, w.Origin)
	return w, nil
}

// openSoundtrack decodes a file, conforms it and pumps it into a queue
func (a *App) openSoundtrack(name string, wc config.WallpaperConfig) (*Wallpaper, error) {
	path := a.appCtx.AssetPath(wc.Path)
	format := a.mixer.Format()

	src, err := stream.Open(path, wc.Loop)
	if err != nil {
		return nil, err
	}

	q := stream.NewQueue(name, format, stream.DefaultQueueMs)
	pump, err := stream.NewPump(stream.Conform(src, format), q)
	if err != nil {
		src.Close()
		return nil, err
	}

	h, err := a.mixer.AddStream(q)
	if err != nil {
		src.Close()
		return nil, err
	}
	pump.Start(a.appCtx.Context())

	return &Wallpaper{
		Name:   name,
		Origin: path,
		handle: h,
		queue:  q,
		pump:   pump,
	}, nil
}

// openTone registers a generated tone; it never blocks so it needs no pump
func (a *App) openTone(name string, wc config.WallpaperConfig) (*Wallpaper, error) {
	tone := stream.NewTone(a.mixer.Format(), wc.Tone, 0)

	h, err := a.mixer.AddStream(tone)
	if err != nil {
		return nil, err
	}

	return &Wallpaper{
		Name:   name,
		Origin: tone.Name(),
		handle: h,
		tone:   tone,
	}, nil
}

// RemoveWallpaper stops the named wallpaper; it reports whether it existed
func (a *App) RemoveWallpaper(name string) bool {
	a.mu.Lock()
	var found *Wallpaper
	for i, w := range a.wallpapers {
		if w.Name == name {
			found = w
			a.wallpapers = append(a.wallpapers[:i], a.wallpapers[i+1:]...)
			break
		}
	}
	a.mu.Unlock()

	if found == nil {
		return false
	}

	// detach first so no pass reads a stopping pipeline
	a.mixer.RemoveStream(found.handle)
	found.stop()
	a.appCtx.Logf("Wallpaper %s stopped", name)
	return true
}

// Wallpapers returns the names of the wallpapers still playing
func (a *App) Wallpapers() []string {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.pruneEndedLocked()

	names := make([]string, len(a.wallpapers))
	for i, w := range a.wallpapers {
		names[i] = w.Name
	}
	return names
}
