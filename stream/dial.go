package stream

import (
	"context"
	"fmt"
	"net"

	"github.com/coder/websocket"
)

// DialWebsocket connects to a server's websocket endpoint, for example
// ws://localhost:8080/stream. ctx bounds the handshake only.
func DialWebsocket(ctx context.Context, url string) (net.Conn, error) {
	c, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("websocket.Dial %s: %w", url, err)
	}
	return websocket.NetConn(context.WithoutCancel(ctx), c, websocket.MessageBinary), nil
}
