//go:build !js

package stream

import (
	"context"
	"net"
	"net/http"
	"sync"

	"github.com/coder/websocket"

	mandel "github.com/marben/hwmandel"
)

// WebsocketListener implements net.Listener on top of an http.Handler:
// every websocket upgraded by ServeHTTP is handed to Accept as a net.Conn
// carrying binary messages.
type WebsocketListener struct {
	ch        chan *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc
	addr      wsAddr
	origins   []string
}

// NewWebsocketListener returns a listener reporting addr. origins are the
// accepted cross-origin host patterns; without any only same-origin
// browsers may connect.
func NewWebsocketListener(ctx context.Context, addr string, origins ...string) *WebsocketListener {
	ctx, cancel := context.WithCancel(ctx)
	return &WebsocketListener{
		ch:      make(chan *websocket.Conn),
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
		addr:    wsAddr{addr: addr},
		origins: origins,
	}
}

// ServeHTTP upgrades the request and waits until Accept takes the
// connection.
func (l *WebsocketListener) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: l.origins,
	})
	if err != nil {
		mandel.Logger().Debug("websocket accept", "remote", r.RemoteAddr, "err", err)
		return
	}

	select {
	case l.ch <- c:
	case <-l.ctx.Done():
		c.Close(websocket.StatusGoingAway, "server shutting down")
	case <-l.done:
		c.Close(websocket.StatusGoingAway, "server shutting down")
	}
}

func (l *WebsocketListener) Accept() (net.Conn, error) {
	select {
	case c := <-l.ch:
		return websocket.NetConn(l.ctx, c, websocket.MessageBinary), nil
	case <-l.ctx.Done():
		return nil, context.Cause(l.ctx)
	case <-l.done:
		return nil, net.ErrClosed
	}
}

func (l *WebsocketListener) Addr() net.Addr {
	return l.addr
}

func (l *WebsocketListener) Close() error {
	l.closeOnce.Do(func() { close(l.done) })
	l.cancel()
	return nil
}

// wsAddr implements net.Addr
type wsAddr struct {
	addr string
}

func (a wsAddr) Network() string {
	return "ws"
}

func (a wsAddr) String() string {
	return a.addr
}
