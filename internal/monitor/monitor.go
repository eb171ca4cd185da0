// ABOUTME: WebSocket monitor endpoint exposing live mixer status
// ABOUTME: Pushes JSON snapshots, applies control commands and streams the mix
package monitor

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/livepaper/livepaper-go/pkg/audio/mixer"
)

// Controller receives commands sent by monitor clients
type Controller interface {
	SetVolume(volume int)
	SetMuted(muted bool)
}

// Config holds monitor configuration
type Config struct {
	Addr string
	// Path of the WebSocket endpoint (default: /monitor)
	Path string
	// Interval between status pushes (default: 500ms)
	Interval time.Duration
	// Audio enables streaming the mix to listening clients
	Audio AudioConfig
}

// client is one connected monitor
type client struct {
	conn      *websocket.Conn
	addr      string
	sendChan  chan interface{}
	listening atomic.Bool
}

// Server serves the monitor endpoint
type Server struct {
	config   Config
	snapshot func() interface{}
	control  Controller
	upgrader websocket.Upgrader
	mux      *http.ServeMux
	feed     *feed

	httpServer *http.Server
	listener   net.Listener

	mu      sync.Mutex
	clients map[*client]struct{}
	stopped bool
	wg      sync.WaitGroup
}

// New creates a monitor. control may be nil for a read-only monitor. An
// audio feed is started when config.Audio.Codec is set.
func New(config Config, snapshot func() interface{}, control Controller) (*Server, error) {
	if config.Path == "" {
		config.Path = "/monitor"
	}
	if config.Interval <= 0 {
		config.Interval = 500 * time.Millisecond
	}

	s := &Server{
		config:   config,
		snapshot: snapshot,
		control:  control,
		upgrader: websocket.Upgrader{
			// local dashboards only; non-browser clients send no Origin
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		mux:     http.NewServeMux(),
		clients: make(map[*client]struct{}),
	}

	if config.Audio.Codec != "" {
		f, err := newFeed(config.Audio)
		if err != nil {
			return nil, err
		}
		s.feed = f
		go f.run(s.broadcastAudio)
		log.Printf("Monitor audio feed: %s", f.start.CodecParams)
	}

	s.mux.HandleFunc(config.Path, s.handleWebSocket)
	s.mux.HandleFunc("/status", s.handleStatus)
	return s, nil
}

// Handler returns the HTTP handler serving the monitor
func (s *Server) Handler() http.Handler {
	return s.mux
}

// Tap returns the mixer tap feeding listening clients, or nil when the
// audio feed is disabled
func (s *Server) Tap() mixer.Tap {
	if s.feed == nil {
		return nil
	}
	return s.feed.tap
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.config.Addr)
	if err != nil {
		return fmt.Errorf("monitor listen failed: %w", err)
	}

	s.listener = ln
	s.httpServer = &http.Server{Handler: s.mux}

	log.Printf("Monitor listening on %s%s", ln.Addr(), s.config.Path)

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("Monitor server error: %v", err)
		}
	}()
	return nil
}

// Port returns the bound TCP port, or 0 before Start
func (s *Server) Port() int {
	if s.listener == nil {
		return 0
	}
	if addr, ok := s.listener.Addr().(*net.TCPAddr); ok {
		return addr.Port
	}
	return 0
}

// Path returns the WebSocket endpoint path
func (s *Server) Path() string {
	return s.config.Path
}

// Clients returns the number of connected monitors
func (s *Server) Clients() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.clients)
}

// Stop closes every connection, the audio feed and the HTTP server
func (s *Server) Stop() {
	s.mu.Lock()
	s.stopped = true
	for c := range s.clients {
		c.conn.Close()
	}
	s.mu.Unlock()

	if s.feed != nil {
		s.feed.stop()
	}

	if s.httpServer != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.httpServer.Shutdown(ctx); err != nil {
			log.Printf("Monitor shutdown error: %v", err)
		}
	}
	s.wg.Wait()
}

// handleStatus serves a single snapshot as JSON
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(Message{Type: TypeStatus, Payload: s.snapshot()}); err != nil {
		log.Printf("Monitor status encode failed: %v", err)
	}
}

// handleWebSocket upgrades and serves one monitor client
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Monitor upgrade error: %v", err)
		return
	}

	c := &client{
		conn:     conn,
		addr:     r.RemoteAddr,
		sendChan: make(chan interface{}, 100),
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		conn.Close()
		return
	}
	s.clients[c] = struct{}{}
	s.wg.Add(1)
	s.mu.Unlock()

	log.Printf("Monitor client connected from %s", c.addr)

	done := make(chan struct{})
	writerDone := make(chan struct{})
	go func() {
		defer close(writerDone)
		s.clientWriter(c, done)
	}()
	s.reader(c)
	close(done)
	<-writerDone

	s.mu.Lock()
	delete(s.clients, c)
	s.mu.Unlock()
	conn.Close()
	s.wg.Done()

	log.Printf("Monitor client %s disconnected", c.addr)
}

// clientWriter owns every write to the connection: queued messages,
// periodic status and keepalive pings
func (s *Server) clientWriter(c *client, done <-chan struct{}) {
	status := time.NewTicker(s.config.Interval)
	defer status.Stop()
	ping := time.NewTicker(30 * time.Second)
	defer ping.Stop()

	const writeDeadline = 10 * time.Second

	write := func(msg interface{}) bool {
		switch v := msg.(type) {
		case []byte:
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.BinaryMessage, v); err != nil {
				log.Printf("Monitor: error writing binary message: %v", err)
				return false
			}
		default:
			data, err := json.Marshal(v)
			if err != nil {
				log.Printf("Monitor marshal failed: %v", err)
				return true
			}
			c.conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return false
			}
		}
		return true
	}

	if !write(Message{Type: TypeStatus, Payload: s.snapshot()}) {
		return
	}
	for {
		select {
		case <-done:
			return
		case msg := <-c.sendChan:
			if !write(msg) {
				return
			}
		case <-status.C:
			if !write(Message{Type: TypeStatus, Payload: s.snapshot()}) {
				return
			}
		case <-ping.C:
			if err := c.conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				return
			}
		}
	}
}

// send queues msg for c without blocking
func (s *Server) send(c *client, msg interface{}) error {
	select {
	case c.sendChan <- msg:
		return nil
	default:
		return fmt.Errorf("client send buffer full")
	}
}

// broadcastAudio hands one chunk to every listening client. Slow
// clients lose chunks rather than stall the feed.
func (s *Server) broadcastAudio(chunk AudioChunk) {
	frame := marshalAudioChunk(chunk)

	s.mu.Lock()
	defer s.mu.Unlock()
	for c := range s.clients {
		if !c.listening.Load() {
			continue
		}
		s.send(c, frame)
	}
}

// reader applies commands until the connection closes
func (s *Server) reader(c *client) {
	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("Monitor read error: %v", err)
			}
			return
		}

		var cmd Command
		if err := json.Unmarshal(data, &cmd); err != nil {
			log.Printf("Monitor: ignoring malformed command: %v", err)
			continue
		}
		s.apply(c, cmd)
	}
}

func (s *Server) apply(c *client, cmd Command) {
	switch cmd.Type {
	case CommandVolume:
		if s.control != nil && cmd.Volume != nil {
			s.control.SetVolume(*cmd.Volume)
		}
	case CommandMute:
		if s.control != nil && cmd.Muted != nil {
			s.control.SetMuted(*cmd.Muted)
		}
	case CommandListen:
		s.setListening(c, cmd.Enabled == nil || *cmd.Enabled)
	default:
		log.Printf("Monitor: unknown command %q", cmd.Type)
	}
}

// setListening announces the feed format before any audio reaches c
func (s *Server) setListening(c *client, on bool) {
	if s.feed == nil {
		s.send(c, Message{Type: TypeError, Payload: "audio feed disabled"})
		return
	}

	if !on {
		if c.listening.Swap(false) {
			s.send(c, Message{Type: TypeStreamEnd})
		}
		return
	}

	// hold the lock so no chunk overtakes the start message
	s.mu.Lock()
	defer s.mu.Unlock()
	if c.listening.Load() {
		return
	}
	if err := s.send(c, Message{Type: TypeStreamStart, Payload: s.feed.start}); err != nil {
		log.Printf("Monitor: cannot start audio for %s: %v", c.addr, err)
		return
	}
	c.listening.Store(true)
	log.Printf("Monitor client %s listening", c.addr)
}
