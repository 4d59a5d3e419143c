package mandel

import (
	"context"
	"image"
)

//go:generate go run github.com/marben/irpc/cmd/irpc@v0.0.0-20260109104542-2d3fde99869b

// FrameProvider hands out a fully rendered frame.
type FrameProvider interface {
	GetFrame(ctx context.Context) (*Frame, error)
}

// Renderer renders one tile of a width x height raster.
type Renderer interface {
	RenderTile(ctx context.Context, cfg Config, tile image.Rectangle, width, height int) (*Frame, error)
}
