package channel

import (
	"context"
	stderrors "errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/sawtfeel/livesync/internal/errors"
)

// Close codes mirrored from RFC 6455. Normal and going-away closes are
// treated as intentional; anything else triggers reconnection.
const (
	CloseNormal    = websocket.CloseNormalClosure
	CloseGoingAway = websocket.CloseGoingAway
	closeAbnormal  = websocket.CloseAbnormalClosure
)

const (
	defaultHandshakeTimeout = 10 * time.Second
	writeTimeout            = 5 * time.Second
)

// CloseError reports that a connection's read side ended with a transport
// close, carrying the peer's close code.
type CloseError struct {
	Code   int
	Reason string
}

func (e *CloseError) Error() string {
	return fmt.Sprintf("connection closed with code %d: %s", e.Code, e.Reason)
}

// Intentional reports whether the close was a normal or going-away close.
func (e *CloseError) Intentional() bool {
	return e.Code == CloseNormal || e.Code == CloseGoingAway
}

// closeCodeOf extracts the close code from a read error. Errors without a
// transport close code count as abnormal.
func closeCodeOf(err error) int {
	var closeErr *CloseError
	if stderrors.As(err, &closeErr) {
		return closeErr.Code
	}
	return closeAbnormal
}

// Conn is a single bidirectional text-frame connection.
type Conn interface {
	// ReadMessage blocks until the next inbound frame. A terminal error
	// wrapping *CloseError carries the peer's close code.
	ReadMessage() ([]byte, error)
	WriteMessage(data []byte) error
	// Close performs a closing handshake with the given code, then tears
	// down the transport.
	Close(code int, reason string) error
}

// Dialer opens connections to a streaming endpoint.
type Dialer interface {
	Dial(ctx context.Context, address string) (Conn, error)
}

// WebsocketDialer dials real websocket endpoints.
type WebsocketDialer struct {
	HandshakeTimeout time.Duration
	Header           http.Header
}

func (d WebsocketDialer) Dial(ctx context.Context, address string) (Conn, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = defaultHandshakeTimeout
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	conn, resp, err := dialer.DialContext(ctx, address, d.Header)
	if err != nil {
		if resp != nil {
			return nil, errors.HTTPStatus(resp.StatusCode, "websocket handshake rejected")
		}
		return nil, errors.Connectivity("websocket dial failed", err)
	}
	return &wsConn{conn: conn}, nil
}

type wsConn struct {
	conn *websocket.Conn
}

func (w *wsConn) ReadMessage() ([]byte, error) {
	_, data, err := w.conn.ReadMessage()
	if err != nil {
		var closeErr *websocket.CloseError
		if stderrors.As(err, &closeErr) {
			return nil, &CloseError{Code: closeErr.Code, Reason: closeErr.Text}
		}
		return nil, err
	}
	return data, nil
}

func (w *wsConn) WriteMessage(data []byte) error {
	_ = w.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := w.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		return errors.Connectivity("websocket write failed", err)
	}
	return nil
}

func (w *wsConn) Close(code int, reason string) error {
	msg := websocket.FormatCloseMessage(code, reason)
	deadline := time.Now().Add(time.Second)
	_ = w.conn.WriteControl(websocket.CloseMessage, msg, deadline)
	return w.conn.Close()
}
