// ABOUTME: Audio context coordinating one driver and many streams
// ABOUTME: Owns the copy-on-write registration set and runs mix passes
package mixer

import (
	"errors"
	"fmt"
	"io"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/livepaper/livepaper-go/pkg/application"
	"github.com/livepaper/livepaper-go/pkg/audio"
	"github.com/livepaper/livepaper-go/pkg/audio/driver"
)

// entry is one registration. The stream reference is non-owning.
type entry struct {
	handle  Handle
	name    string
	stream  Stream
	added   time.Time
	volume  atomic.Int32
	retired atomic.Bool

	underruns atomic.Int64

	// scratch is only touched by the mix pass
	scratch []int32
}

// registry is an immutable snapshot of the registration set
type registry struct {
	entries []*entry
}

func (r *registry) find(h Handle) int {
	for i, e := range r.entries {
		if e.handle == h {
			return i
		}
	}
	return -1
}

// without returns a new snapshot minus the given entries
func (r *registry) without(drop map[*entry]bool) *registry {
	next := &registry{entries: make([]*entry, 0, len(r.entries))}
	for _, e := range r.entries {
		if !drop[e] {
			next.entries = append(next.entries, e)
		}
	}
	return next
}

// StreamInfo describes a registered stream
type StreamInfo struct {
	Handle    Handle
	Name      string
	Volume    int
	Underruns int64
	Added     time.Time
}

// Stats contains mixing statistics. Retired counts every stream that
// left the mix; Exhausted is the subset that ended on its own.
type Stats struct {
	Active     int
	Registered int64
	Retired    int64
	Exhausted  int64
	Passes     int64
	Underruns  int64
}

// Context binds one driver to the set of streams it mixes. The driver is
// borrowed and must outlive the Context.
type Context struct {
	driver driver.Driver
	app    *application.Context
	format audio.Format

	// mu serializes writers; readers load the snapshot atomically
	mu      sync.Mutex
	streams atomic.Pointer[registry]
	closed  bool

	// mixMu guards accum against concurrent passes
	mixMu sync.Mutex
	accum []int64

	volume atomic.Int32
	muted  atomic.Bool
	tap    atomic.Pointer[Tap]

	registered atomic.Int64
	retired    atomic.Int64
	exhausted  atomic.Int64
	passes     atomic.Int64
	underruns  atomic.Int64
}

// NewContext creates an audio context bound to drv. app may be nil, in
// which case a default application context is used.
func NewContext(drv driver.Driver, app *application.Context) (*Context, error) {
	if drv == nil {
		return nil, fmt.Errorf("audio context requires a driver")
	}

	format := drv.Format()
	if err := format.Validate(); err != nil {
		return nil, fmt.Errorf("driver %s reported unusable format: %w", drv.Name(), err)
	}

	if app == nil {
		app = application.New(application.Config{})
	}

	c := &Context{
		driver: drv,
		app:    app,
		format: format,
	}
	c.streams.Store(&registry{})
	c.volume.Store(100)

	app.Logf("Audio context created: driver=%s format=%s", drv.Name(), format)
	return c, nil
}

// Format returns the format every stream must produce
func (c *Context) Format() audio.Format {
	return c.format
}

// SampleRate returns the driver sample rate
func (c *Context) SampleRate() int {
	return c.format.SampleRate
}

// Channels returns the driver channel count
func (c *Context) Channels() int {
	return c.format.Channels
}

// Driver returns the bound driver
func (c *Context) Driver() driver.Driver {
	return c.driver
}

// ApplicationContext returns the application context the audio subsystem
// was initialized under
func (c *Context) ApplicationContext() *application.Context {
	return c.app
}

// AddStream registers s for mixing. The stream is heard from the next mix
// pass on. Registering the same stream twice returns ErrDuplicateStream.
func (c *Context) AddStream(s Stream) (Handle, error) {
	if s == nil {
		return "", ErrNilStream
	}

	if got := s.Format(); got != c.format {
		return "", &FormatError{Want: c.format, Got: got}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return "", ErrClosed
	}

	current := c.streams.Load()
	for _, e := range current.entries {
		if sameStream(e.stream, s) {
			return "", fmt.Errorf("%w: %s", ErrDuplicateStream, e.name)
		}
	}

	h := newHandle()
	e := &entry{
		handle: h,
		name:   streamName(s, h),
		stream: s,
		added:  time.Now(),
	}
	e.volume.Store(100)

	next := &registry{entries: make([]*entry, len(current.entries), len(current.entries)+1)}
	copy(next.entries, current.entries)
	next.entries = append(next.entries, e)
	c.streams.Store(next)
	c.registered.Add(1)

	c.app.Logf("Audio context: added stream %s (%d active)", e.name, len(next.entries))
	return h, nil
}

// RemoveStream detaches a stream; it reports whether h was registered.
// Passes starting after the call never read the stream again.
func (c *Context) RemoveStream(h Handle) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	current := c.streams.Load()
	idx := current.find(h)
	if idx < 0 {
		return false
	}

	e := current.entries[idx]
	if !e.retired.Swap(true) {
		c.retired.Add(1)
	}
	c.streams.Store(current.without(map[*entry]bool{e: true}))

	c.app.Logf("Audio context: removed stream %s", e.name)
	return true
}

// retire drops streams that reported exhaustion during a pass
func (c *Context) retire(dead []*entry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	drop := make(map[*entry]bool, len(dead))
	for _, e := range dead {
		// RemoveStream may already have dropped it
		if e.retired.Swap(true) {
			continue
		}
		drop[e] = true
		c.retired.Add(1)
		c.exhausted.Add(1)
		c.app.Logf("Audio context: retired exhausted stream %s", e.name)
	}
	if len(drop) == 0 {
		return
	}
	c.streams.Store(c.streams.Load().without(drop))
}

// Mix runs one mix pass into dst and returns len(dst). Every stream in the
// snapshot taken at pass start contributes up to len(dst) samples; missing
// samples are silence. Called by drivers from their device cadence.
func (c *Context) Mix(dst []int32) int {
	c.mixMu.Lock()
	defer c.mixMu.Unlock()

	snapshot := c.streams.Load()

	if cap(c.accum) < len(dst) {
		c.accum = make([]int64, len(dst))
	}
	acc := c.accum[:len(dst)]
	for i := range acc {
		acc[i] = 0
	}

	var dead []*entry
	for _, e := range snapshot.entries {
		if e.retired.Load() {
			continue
		}
		if !e.stream.Alive() {
			dead = append(dead, e)
			continue
		}

		if cap(e.scratch) < len(dst) {
			e.scratch = make([]int32, len(dst))
		}
		buf := e.scratch[:len(dst)]

		n, err := e.stream.Read(buf)
		if n > len(buf) {
			n = len(buf)
		}
		if n < 0 {
			n = 0
		}
		accumulate(acc, buf[:n], e.volume.Load())

		if err != nil {
			if !errors.Is(err, io.EOF) && !errors.Is(err, ErrStreamClosed) {
				c.app.ReportError(fmt.Errorf("stream %s: %w", e.name, err))
			}
			dead = append(dead, e)
			continue
		}
		if n < len(buf) {
			e.underruns.Add(1)
			c.underruns.Add(1)
		}
	}

	multiplier := getVolumeMultiplier(int(c.volume.Load()), c.muted.Load())
	if multiplier == 1.0 {
		for i, v := range acc {
			dst[i] = audio.Clamp24(v)
		}
	} else {
		for i, v := range acc {
			dst[i] = audio.Clamp24(int64(float64(v) * multiplier))
		}
	}

	c.passes.Add(1)

	if t := c.tap.Load(); t != nil {
		(*t)(dst)
	}

	if len(dead) > 0 {
		c.retire(dead)
	}
	return len(dst)
}

// accumulate adds samples scaled by a 0-100 gain into acc
func accumulate(acc []int64, samples []int32, gain int32) {
	switch gain {
	case 0:
		return
	case 100:
		for i, s := range samples {
			acc[i] += int64(s)
		}
	default:
		g := int64(gain)
		for i, s := range samples {
			acc[i] += int64(s) * g / 100
		}
	}
}

// Tap observes every mixed block after master gain. It runs inside the
// mix pass on the device cadence, so it must not block or retain block.
type Tap func(block []int32)

// SetTap installs t as the output observer; nil removes it
func (c *Context) SetTap(t Tap) {
	if t == nil {
		c.tap.Store(nil)
		return
	}
	c.tap.Store(&t)
}

// SetVolume sets the master volume (0-100)
func (c *Context) SetVolume(volume int) {
	c.volume.Store(int32(clampVolume(volume)))
}

// Volume returns the master volume
func (c *Context) Volume() int {
	return int(c.volume.Load())
}

// SetMuted sets the master mute state
func (c *Context) SetMuted(muted bool) {
	c.muted.Store(muted)
}

// Muted returns the master mute state
func (c *Context) Muted() bool {
	return c.muted.Load()
}

// SetStreamVolume sets one stream's volume (0-100)
func (c *Context) SetStreamVolume(h Handle, volume int) error {
	snapshot := c.streams.Load()
	idx := snapshot.find(h)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrUnknownStream, h)
	}
	snapshot.entries[idx].volume.Store(int32(clampVolume(volume)))
	return nil
}

// Streams lists the registered streams
func (c *Context) Streams() []StreamInfo {
	snapshot := c.streams.Load()

	infos := make([]StreamInfo, 0, len(snapshot.entries))
	for _, e := range snapshot.entries {
		infos = append(infos, StreamInfo{
			Handle:    e.handle,
			Name:      e.name,
			Volume:    int(e.volume.Load()),
			Underruns: e.underruns.Load(),
			Added:     e.added,
		})
	}
	return infos
}

// Len returns the number of registered streams
func (c *Context) Len() int {
	return len(c.streams.Load().entries)
}

// Stats returns mixing statistics
func (c *Context) Stats() Stats {
	return Stats{
		Active:     c.Len(),
		Registered: c.registered.Load(),
		Retired:    c.retired.Load(),
		Exhausted:  c.exhausted.Load(),
		Passes:     c.passes.Load(),
		Underruns:  c.underruns.Load(),
	}
}

// Close detaches every stream and rejects further registrations. The
// driver is not closed; its owner does that.
func (c *Context) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return
	}
	c.closed = true

	for _, e := range c.streams.Load().entries {
		e.retired.Store(true)
	}
	c.streams.Store(&registry{})
	c.app.Logf("Audio context closed")
}

var _ driver.Source = (*Context)(nil)

// sameStream compares stream identity without panicking on
// non-comparable values. A comparable struct can still hold a slice or map
// behind an interface field, so the check is on the values, not the type.
func sameStream(a, b Stream) bool {
	if reflect.TypeOf(a) != reflect.TypeOf(b) {
		return false
	}
	if !reflect.ValueOf(a).Comparable() || !reflect.ValueOf(b).Comparable() {
		return false
	}
	return a == b
}

func clampVolume(volume int) int {
	if volume < 0 {
		return 0
	}
	if volume > 100 {
		return 100
	}
	return volume
}

// getVolumeMultiplier calculates volume multiplier
func getVolumeMultiplier(volume int, muted bool) float64 {
	if muted {
		return 0.0
	}
	return float64(volume) / 100.0
}
