// ABOUTME: Monitor wire messages exchanged over the WebSocket
// ABOUTME: JSON envelopes for status and control, binary frames for audio
package monitor

import (
	"encoding/binary"
	"fmt"

	"github.com/livepaper/livepaper-go/pkg/audio"
)

// Message types sent by the server
const (
	TypeStatus      = "status"
	TypeStreamStart = "stream/start"
	TypeStreamEnd   = "stream/end"
	TypeError       = "error"
)

// Command types sent by clients
const (
	CommandVolume = "volume"
	CommandMute   = "mute"
	CommandListen = "listen"
)

// audioFrameType tags binary audio frames
const audioFrameType byte = 0

// audioHeaderSize is the type byte plus a big-endian timestamp
const audioHeaderSize = 9

// Message is the envelope for everything sent over the socket as text
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Command is a client request
type Command struct {
	Type    string `json:"type"`
	Volume  *int   `json:"volume,omitempty"`
	Muted   *bool  `json:"muted,omitempty"`
	Enabled *bool  `json:"enabled,omitempty"`
}

// StreamStart announces the encoded mix that follows as binary frames
type StreamStart struct {
	audio.CodecParams
	FrameMs int `json:"frame_ms"`
}

// AudioChunk is one encoded block of the mix
type AudioChunk struct {
	Timestamp int64 // microseconds of mixed audio since the feed started
	Data      []byte
}

// marshalAudioChunk builds a binary frame: type byte, timestamp, payload
func marshalAudioChunk(c AudioChunk) []byte {
	frame := make([]byte, audioHeaderSize+len(c.Data))
	frame[0] = audioFrameType
	binary.BigEndian.PutUint64(frame[1:audioHeaderSize], uint64(c.Timestamp))
	copy(frame[audioHeaderSize:], c.Data)
	return frame
}

// unmarshalAudioChunk parses a binary frame
func unmarshalAudioChunk(frame []byte) (AudioChunk, error) {
	if len(frame) < audioHeaderSize {
		return AudioChunk{}, fmt.Errorf("audio frame too short: %d bytes", len(frame))
	}
	if frame[0] != audioFrameType {
		return AudioChunk{}, fmt.Errorf("unknown binary message type: %d", frame[0])
	}
	return AudioChunk{
		Timestamp: int64(binary.BigEndian.Uint64(frame[1:audioHeaderSize])),
		Data:      frame[audioHeaderSize:],
	}, nil
}
