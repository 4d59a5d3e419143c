// Package stream serves rendered frames over any byte stream: a TCP
// connection, a websocket wrapped as a net.Conn, or an in-memory pipe.
//
// A client writes one JSON request per line. The server answers with a
// single JSON header line; for frame and tile requests Height rows of Width
// count bytes follow, one byte per pixel in raster order. A pixel request
// carries its count in the header. Several requests may share a connection.
package stream

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	mandel "github.com/marben/hwmandel"
)

// MaxPixels bounds the raster a single request may ask for.
const MaxPixels = 1 << 24

var (
	// ErrBadRequest marks requests the server refused to render.
	ErrBadRequest = errors.New("bad request")
	// ErrRemote wraps an error reported in a response header.
	ErrRemote = errors.New("remote error")
)

// Kind selects what the server renders.
type Kind string

const (
	// KindFrame streams the frame out of one controller in streaming mode.
	KindFrame Kind = "frame"
	// KindPixel answers one on-demand query at (X, Y).
	KindPixel Kind = "pixel"
	// KindTiles renders the frame on the server's tile workers.
	KindTiles Kind = "tiles"
)

type Request struct {
	Kind   Kind          `json:"kind"`
	Config mandel.Config `json:"config"`
	Width  int           `json:"width"`
	Height int           `json:"height"`
	X      int           `json:"x,omitempty"`
	Y      int           `json:"y,omitempty"`
}

func (r Request) validate() error {
	switch r.Kind {
	case KindFrame, KindPixel, KindTiles:
	default:
		return fmt.Errorf("%w: unknown kind %q", ErrBadRequest, r.Kind)
	}
	if err := r.Config.Validate(); err != nil {
		return err
	}
	if err := mandel.CheckGeometry(r.Width, r.Height); err != nil {
		return err
	}
	if oversized(r.Width, r.Height) {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", mandel.ErrInvalidGeometry, r.Width, r.Height, MaxPixels)
	}
	return nil
}

// oversized reports whether a positive width x height raster exceeds
// MaxPixels, without multiplying the two.
func oversized(width, height int) bool {
	return width > MaxPixels || height > MaxPixels/width
}

type Header struct {
	Kind    Kind   `json:"kind,omitempty"`
	Width   int    `json:"width,omitempty"`
	Height  int    `json:"height,omitempty"`
	MaxIter uint8  `json:"max_iter,omitempty"`
	X       int    `json:"x,omitempty"`
	Y       int    `json:"y,omitempty"`
	Count   uint8  `json:"count,omitempty"`
	Error   string `json:"error,omitempty"`
}

// hasBody reports whether pixel rows follow the header.
func (h Header) hasBody() bool {
	return h.Error == "" && (h.Kind == KindFrame || h.Kind == KindTiles)
}

func writeLine(w io.Writer, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

// readLine returns the next line without its terminator. io.EOF is returned
// only when the stream ends cleanly between lines.
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := br.ReadSlice('\n')
	switch {
	case err == nil:
		return line[:len(line)-1], nil
	case errors.Is(err, io.EOF) && len(line) > 0:
		return nil, io.ErrUnexpectedEOF
	}
	return nil, err
}

func WriteRequest(w io.Writer, r Request) error {
	if err := writeLine(w, r); err != nil {
		return fmt.Errorf("write request: %w", err)
	}
	return nil
}

// ReadRequest reads one request line. A line that is not a valid request
// yields an error wrapping ErrBadRequest; the stream stays usable after it.
func ReadRequest(br *bufio.Reader) (Request, error) {
	line, err := readLine(br)
	if err != nil {
		return Request{}, err
	}
	var r Request
	if err := json.Unmarshal(line, &r); err != nil {
		return Request{}, fmt.Errorf("%w: %v", ErrBadRequest, err)
	}
	return r, nil
}

func WriteHeader(w io.Writer, h Header) error {
	if err := writeLine(w, h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	return nil
}

func ReadHeader(br *bufio.Reader) (Header, error) {
	line, err := readLine(br)
	if err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	var h Header
	if err := json.Unmarshal(line, &h); err != nil {
		return Header{}, fmt.Errorf("read header: %w", err)
	}
	return h, nil
}
