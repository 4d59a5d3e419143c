package stream

import (
	"bufio"
	"context"
	"fmt"
	"image"
	"io"
	"net"
	"time"

	mandel "github.com/marben/hwmandel"
)

// Client sends requests over one connection. It is not safe for concurrent
// use; open one connection per goroutine.
type Client struct {
	conn net.Conn
	br   *bufio.Reader
}

func NewClient(conn net.Conn) *Client {
	return &Client{conn: conn, br: bufio.NewReader(conn)}
}

func (c *Client) Close() error {
	return c.conn.Close()
}

// Fetch sends req and reads the answer. Frame is nil for pixel requests.
// An error reported by the server wraps ErrRemote and leaves the client
// usable; any other error leaves the connection in an unknown state.
func (c *Client) Fetch(ctx context.Context, req Request) (Header, *mandel.Frame, error) {
	var f *mandel.Frame
	hdr, err := c.FetchRows(ctx, req, func(hdr Header, y int, row []uint8) error {
		if f == nil {
			f = mandel.NewFrame(image.Rect(0, 0, hdr.Width, hdr.Height), hdr.MaxIter)
		}
		copy(f.Row(y), row)
		return nil
	})
	if err != nil {
		return hdr, nil, err
	}
	return hdr, f, nil
}

// FetchRows sends req and hands every row of the answer to fn as soon as it
// arrives. row is only valid during the call.
func (c *Client) FetchRows(ctx context.Context, req Request, fn func(hdr Header, y int, row []uint8) error) (Header, error) {
	stop := context.AfterFunc(ctx, func() { c.conn.SetDeadline(time.Now()) })
	defer stop()

	hdr, err := c.fetchRows(req, fn)
	if err != nil && ctx.Err() != nil {
		return hdr, context.Cause(ctx)
	}
	return hdr, err
}

func (c *Client) fetchRows(req Request, fn func(hdr Header, y int, row []uint8) error) (Header, error) {
	if err := WriteRequest(c.conn, req); err != nil {
		return Header{}, err
	}
	hdr, err := ReadHeader(c.br)
	if err != nil {
		return Header{}, err
	}
	if hdr.Error != "" {
		return hdr, fmt.Errorf("%w: %s", ErrRemote, hdr.Error)
	}
	if !hdr.hasBody() {
		return hdr, nil
	}

	if err := mandel.CheckGeometry(hdr.Width, hdr.Height); err != nil {
		return hdr, fmt.Errorf("response header: %w", err)
	}
	if oversized(hdr.Width, hdr.Height) {
		return hdr, fmt.Errorf("response header: %w: %dx%d", mandel.ErrInvalidGeometry, hdr.Width, hdr.Height)
	}
	row := make([]uint8, hdr.Width)
	for y := 0; y < hdr.Height; y++ {
		if _, err := io.ReadFull(c.br, row); err != nil {
			return hdr, fmt.Errorf("read row %d: %w", y, err)
		}
		if err := fn(hdr, y, row); err != nil {
			return hdr, err
		}
	}
	return hdr, nil
}

// Fetch runs a single request on conn.
func Fetch(ctx context.Context, conn net.Conn, req Request) (Header, *mandel.Frame, error) {
	return NewClient(conn).Fetch(ctx, req)
}
