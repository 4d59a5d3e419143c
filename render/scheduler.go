package render

import (
	"context"
	"fmt"
	"image"
	"sync"

	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/hwmandel"
)

// DefaultTileSize is the edge of the square tiles handed to workers.
const DefaultTileSize = 64

// Scheduler splits one frame into tiles and lets any number of workers
// render them. Every worker owns its own controller, so tiles are rendered
// fully in parallel while each pixel stays strictly sequential.
type Scheduler struct {
	cfg           mandel.Config
	width, height int

	workers int
	frame   *mandel.Frame

	done     chan struct{}
	doneOnce sync.Once

	totalPixels    int
	finishedPixels int
	totalTiles     int

	unstarted []image.Rectangle
	inProcess map[image.Rectangle]struct{}
	finished  map[image.Rectangle]struct{}
	m         sync.Mutex
}

func NewScheduler(cfg mandel.Config, width, height, tileSize int) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	if err := mandel.CheckGeometry(width, height); err != nil {
		return nil, fmt.Errorf("scheduler: %w", err)
	}
	if tileSize <= 0 {
		return nil, fmt.Errorf("scheduler: %w: tile size %d", mandel.ErrInvalidGeometry, tileSize)
	}

	frame := mandel.NewFrame(image.Rect(0, 0, width, height), cfg.MaxIter)
	tiles := splitRectNoClip(frame.Rect, tileSize, tileSize)
	return &Scheduler{
		cfg:         cfg,
		width:       width,
		height:      height,
		frame:       frame,
		done:        make(chan struct{}),
		totalPixels: width * height,
		totalTiles:  len(tiles),
		unstarted:   tiles,
		inProcess:   make(map[image.Rectangle]struct{}),
		finished:    make(map[image.Rectangle]struct{}),
	}, nil
}

// popTile hands out tiles in raster order. Once none are left unstarted,
// tiles still in process are handed out again so a slow worker cannot hold
// the frame back.
func (s *Scheduler) popTile() (tile image.Rectangle, found bool) {
	s.m.Lock()
	defer s.m.Unlock()

	if len(s.unstarted) > 0 {
		tile = s.unstarted[0]
		s.unstarted = s.unstarted[1:]
		s.inProcess[tile] = struct{}{}
		return tile, true
	}

	if len(s.inProcess) > 0 {
		for tile = range s.inProcess {
			break
		}
		return tile, true
	}

	return image.Rectangle{}, false
}

// GetFrame implements mandel.FrameProvider. It blocks until every tile is in.
func (s *Scheduler) GetFrame(ctx context.Context) (*mandel.Frame, error) {
	select {
	case <-s.done:
		return s.frame, nil
	case <-ctx.Done():
		return nil, context.Cause(ctx)
	}
}

// Progress is the finished fraction of the frame.
func (s *Scheduler) Progress() float32 {
	s.m.Lock()
	defer s.m.Unlock()
	return float32(s.finishedPixels) / float32(s.totalPixels)
}

// FinishedTiles returns the tiles already merged into the frame.
func (s *Scheduler) FinishedTiles() []image.Rectangle {
	s.m.Lock()
	defer s.m.Unlock()

	tiles := make([]image.Rectangle, 0, len(s.finished))
	for t := range s.finished {
		tiles = append(tiles, t)
	}
	return tiles
}

func (s *Scheduler) TotalTiles() int { return s.totalTiles }

func (s *Scheduler) Workers() int {
	s.m.Lock()
	defer s.m.Unlock()
	return s.workers
}

func (s *Scheduler) tileFinished(tile *mandel.Frame) {
	s.m.Lock()
	defer s.m.Unlock()

	rect := tile.Rect
	if _, found := s.inProcess[rect]; !found {
		// a duplicate of a tile another worker already delivered
		return
	}
	s.frame.DrawTile(tile)
	s.finishedPixels += rect.Dx() * rect.Dy()
	delete(s.inProcess, rect)
	s.finished[rect] = struct{}{}

	mandel.Logger().Debug("tile finished", "tile", rect.String(),
		"progress", float32(s.finishedPixels)/float32(s.totalPixels))

	if len(s.unstarted) == 0 && len(s.inProcess) == 0 {
		s.doneOnce.Do(func() { close(s.done) })
	}
}

func (s *Scheduler) incActiveWorkers() {
	s.m.Lock()
	s.workers++
	w := s.workers
	s.m.Unlock()

	mandel.Logger().Debug("worker joined", "workers", w)
}

func (s *Scheduler) decActiveWorkers() {
	s.m.Lock()
	s.workers--
	w := s.workers
	s.m.Unlock()

	mandel.Logger().Debug("worker left", "workers", w)
}

// Render renders unfinished tiles on r until none are left.
// It can be called from multiple goroutines in parallel.
func (s *Scheduler) Render(ctx context.Context, r mandel.Renderer) error {
	s.incActiveWorkers()
	defer s.decActiveWorkers()

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		tile, found := s.popTile()
		if !found {
			return nil
		}
		tileFrame, err := r.RenderTile(ctx, s.cfg, tile, s.width, s.height)
		if err != nil {
			return fmt.Errorf("render of tile %s: %w", tile, err)
		}
		s.tileFinished(tileFrame)
	}
}

// Run renders the frame with n workers sharing r and returns it.
func (s *Scheduler) Run(ctx context.Context, r mandel.Renderer, n int) (*mandel.Frame, error) {
	if n < 1 {
		n = 1
	}

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			return s.Render(gctx, r)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return s.GetFrame(ctx)
}

// splitRectNoClip splits r into tiles of size tileW × tileH.
// Tiles at the right and bottom edges are smaller if r is not divisible.
func splitRectNoClip(r image.Rectangle, tileW, tileH int) []image.Rectangle {
	if tileW <= 0 || tileH <= 0 {
		panic("tile dimensions must be positive")
	}

	w := r.Dx()
	h := r.Dy()

	var tiles []image.Rectangle

	for oy := 0; oy < h; oy += tileH {
		th := min(tileH, h-oy)

		for ox := 0; ox < w; ox += tileW {
			tw := min(tileW, w-ox)

			tiles = append(tiles, image.Rect(
				r.Min.X+ox,
				r.Min.Y+oy,
				r.Min.X+ox+tw,
				r.Min.Y+oy+th,
			))
		}
	}

	return tiles
}
