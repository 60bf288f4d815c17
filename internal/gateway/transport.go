package gateway

import (
	"context"
	"errors"
	"fmt"
)

// Transport is the wire session the client runs over: read the next frame,
// send a frame, or a "session closed" error from either. WriteFrame must be
// safe for concurrent use; the heartbeat loop and outbound sends share it.
type Transport interface {
	ReadFrame() (*Frame, error)
	WriteFrame(f *Frame) error
	Close() error
}

// Dialer opens a new transport session.
type Dialer interface {
	Dial(ctx context.Context, url string) (Transport, error)
}

// Gateway close codes.
const (
	CloseAuthenticationFailed = 4004
	CloseInvalidIntents       = 4013
)

// CloseError reports the gateway closing the session with a code.
type CloseError struct {
	Code int
	Text string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("gateway closed session: code %d %s", e.Code, e.Text)
}

// ErrHandshakeRejected means the gateway refused our identify, typically a
// bad credential. Retrying cannot succeed, so this is fatal to the process.
var ErrHandshakeRejected = errors.New("gateway rejected handshake")

// isFatalClose reports close codes that operator intervention is needed for.
func isFatalClose(err error) bool {
	var ce *CloseError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == CloseAuthenticationFailed || ce.Code == CloseInvalidIntents
}
