// ABOUTME: WebSocket client for a running monitor endpoint
// ABOUTME: Receives status and encoded mix audio, sends control commands
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"

	"github.com/gorilla/websocket"
)

// Client is a connection to a monitor
type Client struct {
	conn *websocket.Conn
	mu   sync.Mutex // serializes writes

	// Message channels; all are closed when the connection ends
	Status      chan json.RawMessage
	StreamStart chan StreamStart
	AudioChunks chan AudioChunk
	Errors      chan string

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// Dial connects to the monitor at addr ("host:port") and path
func Dial(ctx context.Context, addr, path string) (*Client, error) {
	if path == "" {
		path = "/monitor"
	}
	u := url.URL{Scheme: "ws", Host: addr, Path: path}
	log.Printf("Connecting to monitor %s", u.String())

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("dial failed: %w", err)
	}

	cctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		conn:        conn,
		Status:      make(chan json.RawMessage, 10),
		StreamStart: make(chan StreamStart, 1),
		AudioChunks: make(chan AudioChunk, 100),
		Errors:      make(chan string, 10),
		ctx:         cctx,
		cancel:      cancel,
		done:        make(chan struct{}),
	}

	go c.readMessages()
	return c, nil
}

// SetVolume asks the monitored player to change master volume
func (c *Client) SetVolume(volume int) error {
	return c.sendCommand(Command{Type: CommandVolume, Volume: &volume})
}

// SetMuted asks the monitored player to change master mute
func (c *Client) SetMuted(muted bool) error {
	return c.sendCommand(Command{Type: CommandMute, Muted: &muted})
}

// Listen starts or stops the audio feed for this client
func (c *Client) Listen(enabled bool) error {
	return c.sendCommand(Command{Type: CommandListen, Enabled: &enabled})
}

func (c *Client) sendCommand(cmd Command) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.ctx.Done():
		return fmt.Errorf("not connected")
	default:
	}
	return c.conn.WriteJSON(cmd)
}

// Done is closed once the connection has ended
func (c *Client) Done() <-chan struct{} {
	return c.done
}

// Close closes the connection
func (c *Client) Close() {
	c.cancel()
	c.conn.Close()
	<-c.done
}

// readMessages reads and routes incoming messages
func (c *Client) readMessages() {
	defer func() {
		c.cancel()
		c.conn.Close()
		close(c.Status)
		close(c.StreamStart)
		close(c.AudioChunks)
		close(c.Errors)
		close(c.done)
	}()

	for {
		messageType, data, err := c.conn.ReadMessage()
		if err != nil {
			select {
			case <-c.ctx.Done():
			default:
				log.Printf("Monitor connection read error: %v", err)
			}
			return
		}

		switch messageType {
		case websocket.BinaryMessage:
			c.handleBinaryMessage(data)
		case websocket.TextMessage:
			c.handleJSONMessage(data)
		}
	}
}

// handleBinaryMessage handles audio chunks
func (c *Client) handleBinaryMessage(data []byte) {
	chunk, err := unmarshalAudioChunk(data)
	if err != nil {
		log.Printf("Monitor: %v", err)
		return
	}

	select {
	case c.AudioChunks <- chunk:
	case <-c.ctx.Done():
	}
}

// handleJSONMessage routes JSON messages
func (c *Client) handleJSONMessage(data []byte) {
	var msg struct {
		Type    string          `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		log.Printf("Failed to parse monitor message: %v", err)
		return
	}

	switch msg.Type {
	case TypeStatus:
		// status is advisory; drop it if nobody keeps up
		select {
		case c.Status <- msg.Payload:
		default:
		}

	case TypeStreamStart:
		var start StreamStart
		if err := json.Unmarshal(msg.Payload, &start); err != nil {
			log.Printf("Failed to parse stream start: %v", err)
			return
		}
		select {
		case c.StreamStart <- start:
		case <-c.ctx.Done():
		}

	case TypeStreamEnd:
		log.Printf("Monitor audio feed ended")

	case TypeError:
		var text string
		json.Unmarshal(msg.Payload, &text)
		select {
		case c.Errors <- text:
		default:
		}

	default:
		log.Printf("Unknown monitor message type: %s", msg.Type)
	}
}
