package stream

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"runtime"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/render"
)

const (
	defaultQueueRows = 4
)

// Handler answers requests with an Engine. It is safe for concurrent use by
// any number of connections.
type Handler struct {
	engine    *render.Engine
	workers   int
	tileSize  int
	queueRows int
}

type HandlerOption func(*Handler)

// WithWorkers sets how many tile workers serve a tiles request.
func WithWorkers(n int) HandlerOption {
	return func(h *Handler) { h.workers = n }
}

func WithTileSize(n int) HandlerOption {
	return func(h *Handler) { h.tileSize = n }
}

// WithQueueRows sets how many finished rows may wait for the connection
// before the controller is stalled.
func WithQueueRows(n int) HandlerOption {
	return func(h *Handler) { h.queueRows = n }
}

func NewHandler(e *render.Engine, opts ...HandlerOption) *Handler {
	h := &Handler{
		engine:    e,
		workers:   runtime.GOMAXPROCS(0),
		tileSize:  render.DefaultTileSize,
		queueRows: defaultQueueRows,
	}
	for _, o := range opts {
		o(h)
	}
	h.workers = max(h.workers, 1)
	h.queueRows = max(h.queueRows, 1)
	if h.tileSize < 1 {
		h.tileSize = render.DefaultTileSize
	}
	return h
}

// Serve accepts connections on l until ctx is done or l fails.
func (h *Handler) Serve(ctx context.Context, l net.Listener) error {
	log := mandel.Logger()
	stop := context.AfterFunc(ctx, func() { l.Close() })
	defer stop()

	var wg sync.WaitGroup
	defer wg.Wait()

	log.Info("serving", "addr", l.Addr().String(), "network", l.Addr().Network())
	for {
		conn, err := l.Accept()
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return fmt.Errorf("accept on %s: %w", l.Addr(), err)
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := h.ServeConn(ctx, conn); err != nil && ctx.Err() == nil {
				log.Warn("connection failed", "remote", conn.RemoteAddr().String(), "err", err)
			}
		}()
	}
}

// ServeConn answers requests on conn until the peer closes it or ctx is done.
// conn is closed on return.
func (h *Handler) ServeConn(ctx context.Context, conn net.Conn) error {
	defer conn.Close()
	stop := context.AfterFunc(ctx, func() { conn.SetDeadline(time.Now()) })
	defer stop()

	log := mandel.Logger().With("remote", conn.RemoteAddr().String())
	log.Debug("connection opened")
	defer log.Debug("connection closed")

	br := bufio.NewReader(conn)
	for {
		req, err := ReadRequest(br)
		switch {
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, ErrBadRequest):
			if err := WriteHeader(conn, Header{Error: err.Error()}); err != nil {
				return err
			}
			continue
		case err != nil:
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return fmt.Errorf("read request: %w", err)
		}

		if err := h.serve(ctx, conn, req); err != nil {
			if ctx.Err() != nil {
				return context.Cause(ctx)
			}
			return err
		}
	}
}

// serve answers one request. Only failures that leave the stream unusable
// are returned; refused requests are reported in the header.
func (h *Handler) serve(ctx context.Context, w io.Writer, req Request) error {
	log := mandel.Logger()
	if err := req.validate(); err != nil {
		log.Debug("request refused", "kind", req.Kind, "err", err)
		return WriteHeader(w, Header{Kind: req.Kind, Error: err.Error()})
	}

	hdr := Header{Kind: req.Kind, Width: req.Width, Height: req.Height, MaxIter: req.Config.MaxIter}
	switch req.Kind {
	case KindPixel:
		ctr, err := h.engine.Pixel(ctx, req.Config, req.X, req.Y, req.Width, req.Height)
		if err != nil {
			if ctx.Err() != nil {
				return err
			}
			hdr.Error = err.Error()
			return WriteHeader(w, hdr)
		}
		hdr.X, hdr.Y, hdr.Count = req.X, req.Y, ctr
		return WriteHeader(w, hdr)

	case KindTiles:
		return h.serveTiles(ctx, w, req, hdr)
	}
	return h.serveFrame(ctx, w, req, hdr)
}

// rowSink gathers streamed pixels into rows for the connection writer. It
// reports ready only while the row queue has room, so a slow peer stalls the
// controller instead of buffering the frame. After stallSpins stalled clocks
// Ready parks until the writer takes a row.
type rowSink struct {
	ctx    context.Context
	width  int
	row    []uint8
	rows   chan []uint8
	space  chan struct{}
	stalls int
}

// stallSpins is how many clocks a stalled sink yields before parking.
const stallSpins = 64

func newRowSink(ctx context.Context, width, queueRows int) *rowSink {
	return &rowSink{
		ctx:   ctx,
		width: width,
		rows:  make(chan []uint8, queueRows),
		space: make(chan struct{}, 1),
	}
}

func (s *rowSink) Ready() bool {
	if len(s.rows) < cap(s.rows) {
		s.stalls = 0
		return true
	}
	s.stalls++
	if s.stalls < stallSpins {
		runtime.Gosched()
		return false
	}
	select {
	case <-s.space:
	case <-s.ctx.Done():
		return false
	}
	return len(s.rows) < cap(s.rows)
}

func (s *rowSink) Accept(x, y int, ctr uint8) error {
	if s.row == nil {
		s.row = make([]uint8, 0, s.width)
	}
	s.row = append(s.row, ctr)
	if len(s.row) == s.width {
		// never blocks: Ready was true on this clock and we are the only sender
		s.rows <- s.row
		s.row = nil
	}
	return nil
}

// writeRows copies queued rows to w until the queue is closed, waking a
// parked Ready after every row it takes.
func (s *rowSink) writeRows(w io.Writer) error {
	for row := range s.rows {
		select {
		case s.space <- struct{}{}:
		default:
		}
		if _, err := w.Write(row); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}

func (h *Handler) serveFrame(ctx context.Context, w io.Writer, req Request, hdr Header) error {
	if err := WriteHeader(w, hdr); err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	sink := newRowSink(gctx, req.Width, h.queueRows)
	g.Go(func() error {
		defer close(sink.rows)
		st, err := h.engine.Stream(gctx, req.Config, req.Width, req.Height, sink)
		if err != nil {
			return err
		}
		mandel.Logger().Info("frame streamed",
			"width", req.Width, "height", req.Height,
			"cycles", st.Cycles, "stalls", st.StallCycles, "steps", st.Steps)
		return nil
	})
	g.Go(func() error {
		return sink.writeRows(w)
	})
	return g.Wait()
}

func (h *Handler) serveTiles(ctx context.Context, w io.Writer, req Request, hdr Header) error {
	s, err := render.NewScheduler(req.Config, req.Width, req.Height, h.tileSize)
	if err != nil {
		hdr.Error = err.Error()
		return WriteHeader(w, hdr)
	}
	f, err := s.Run(ctx, h.engine, h.workers)
	if err != nil {
		if ctx.Err() != nil {
			return err
		}
		hdr.Error = err.Error()
		return WriteHeader(w, hdr)
	}
	mandel.Logger().Info("frame rendered", "width", req.Width, "height", req.Height,
		"tiles", s.TotalTiles(), "workers", h.workers)

	if err := WriteHeader(w, hdr); err != nil {
		return err
	}
	for y := 0; y < req.Height; y++ {
		if _, err := w.Write(f.Row(y)); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	return nil
}
