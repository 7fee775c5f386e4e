// Package ws carries the frame protocol shared by the live endpoint and
// its client transport.
package ws

import "encoding/json"

const (
	// Client to server.
	FrameSubscribe = "subscribe"
	FramePublish   = "publish"

	// Server to client.
	FrameConnected   = "connected"
	FrameSubscribed  = "subscribed"
	FramePublication = "publication"
	FrameError       = "error"
	FrameDisconnect  = "disconnect"
)

// Frame is the single envelope exchanged on the socket. Which fields are
// set depends on Type.
type Frame struct {
	Type    string          `json:"type"`
	Channel string          `json:"channel,omitempty"`
	Text    string          `json:"text,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
	Reason  string          `json:"reason,omitempty"`
}
