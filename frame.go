package mandel

import (
	"fmt"
	"image"
	"image/color"
)

// Frame holds iteration counts for a rectangle of the raster, row-major.
// Rect is in global raster coordinates, so tiles of one frame share a
// coordinate space.
//
// Frame implements image.Image as a grey image scaled to MaxIter.
type Frame struct {
	Rect    image.Rectangle
	MaxIter uint8
	Counts  []uint8
}

func NewFrame(r image.Rectangle, maxIter uint8) *Frame {
	return &Frame{
		Rect:    r,
		MaxIter: maxIter,
		Counts:  make([]uint8, r.Dx()*r.Dy()),
	}
}

// CheckGeometry validates a raster size.
func CheckGeometry(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidGeometry, width, height)
	}
	return nil
}

func (f *Frame) offset(x, y int) int {
	return (y-f.Rect.Min.Y)*f.Rect.Dx() + (x - f.Rect.Min.X)
}

// Count returns the count at global position (x, y), or 0 outside Rect.
func (f *Frame) Count(x, y int) uint8 {
	if !(image.Point{X: x, Y: y}).In(f.Rect) {
		return 0
	}
	return f.Counts[f.offset(x, y)]
}

func (f *Frame) SetCount(x, y int, ctr uint8) {
	if !(image.Point{X: x, Y: y}).In(f.Rect) {
		return
	}
	f.Counts[f.offset(x, y)] = ctr
}

// Row returns the counts of row y, aliasing the frame storage.
func (f *Frame) Row(y int) []uint8 {
	start := f.offset(f.Rect.Min.X, y)
	return f.Counts[start : start+f.Rect.Dx()]
}

// DrawTile copies the part of tile that overlaps f.
func (f *Frame) DrawTile(tile *Frame) {
	r := f.Rect.Intersect(tile.Rect)
	for y := r.Min.Y; y < r.Max.Y; y++ {
		copy(f.Counts[f.offset(r.Min.X, y):f.offset(r.Max.X, y)], tile.Counts[tile.offset(r.Min.X, y):tile.offset(r.Max.X, y)])
	}
}

func (f *Frame) ColorModel() color.Model { return color.GrayModel }

func (f *Frame) Bounds() image.Rectangle { return f.Rect }

func (f *Frame) At(x, y int) color.Color {
	if f.MaxIter == 0 {
		return color.Gray{}
	}
	return color.Gray{Y: uint8(int(f.Count(x, y)) * 255 / int(f.MaxIter))}
}

var _ image.Image = (*Frame)(nil)
