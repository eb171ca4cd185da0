// ABOUTME: Point-in-time status snapshot of the audio runtime
// ABOUTME: Shared by the status view and the monitor endpoint
package app

import (
	"github.com/livepaper/livepaper-go/internal/version"
)

// Status describes the runtime for display and monitoring
type Status struct {
	Product    string         `json:"product"`
	Version    string         `json:"version"`
	Driver     string         `json:"driver"`
	Silent     bool           `json:"silent"`
	Format     string         `json:"format"`
	SampleRate int            `json:"sample_rate"`
	Channels   int            `json:"channels"`
	Volume     int            `json:"volume"`
	Muted      bool           `json:"muted"`
	Streams    []StreamStatus `json:"streams"`
	Passes     int64          `json:"passes"`
	Underruns  int64          `json:"underruns"`
	Retired    int64          `json:"retired"`
	Exhausted  int64          `json:"exhausted"`
	Errors     int64          `json:"errors"`
	LastError  string         `json:"last_error,omitempty"`
}

// StreamStatus describes one registered stream
type StreamStatus struct {
	Handle    string `json:"handle"`
	Name      string `json:"name"`
	Volume    int    `json:"volume"`
	Underruns int64  `json:"underruns"`
}

// Status takes a snapshot of the runtime
func (a *App) Status() Status {
	output := a.Output()
	format := a.mixer.Format()
	stats := a.mixer.Stats()

	st := Status{
		Product:    version.Product,
		Version:    version.Version,
		Driver:     output.Name(),
		Silent:     a.Silent(),
		Format:     format.String(),
		SampleRate: a.mixer.SampleRate(),
		Channels:   a.mixer.Channels(),
		Volume:     a.mixer.Volume(),
		Muted:      a.mixer.Muted(),
		Passes:     stats.Passes,
		Underruns:  stats.Underruns,
		Retired:    stats.Retired,
		Exhausted:  stats.Exhausted,
		Errors:     a.appCtx.ErrorCount(),
	}
	if err := a.appCtx.LastError(); err != nil {
		st.LastError = err.Error()
	}

	for _, info := range a.mixer.Streams() {
		st.Streams = append(st.Streams, StreamStatus{
			Handle:    info.Handle.String(),
			Name:      info.Name,
			Volume:    info.Volume,
			Underruns: info.Underruns,
		})
	}
	return st
}
