package http

import "net/http"

// Action tells the client what to do with a response body after Start.
type Action int

const (
	// Read streams the body into Data.
	Read Action = iota
	// Skip discards the body.
	Skip
)

// Consumer decides what happens with one response. The client calls Start
// once the headers are in, Data for every body chunk when Start returned
// Read, Finish after the last chunk, and Close on every exit path.
type Consumer interface {
	Start(resp *http.Response) (Action, error)
	Data(p []byte) error
	Finish() error
	Close() error
}
