package render

import (
	"bufio"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"io"
	"math"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"

	mandel "github.com/marben/hwmandel"
)

// Format is an output file format.
type Format string

const (
	FormatPGM      Format = "pgm"
	FormatPGMASCII Format = "pgm-ascii"
	FormatPNG      Format = "png"
	FormatBMP      Format = "bmp"
)

// FormatFromPath picks the format from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pgm":
		return FormatPGM, nil
	case ".png":
		return FormatPNG, nil
	case ".bmp":
		return FormatBMP, nil
	}
	return "", fmt.Errorf("no image format for %q", path)
}

// ParseFormat checks a format name.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(s)); f {
	case FormatPGM, FormatPGMASCII, FormatPNG, FormatBMP:
		return f, nil
	}
	return "", fmt.Errorf("%w: unknown image format %q", mandel.ErrInvalidConfig, s)
}

// ContentType is the MIME type of images in format f.
func (f Format) ContentType() string {
	switch f {
	case FormatPGM, FormatPGMASCII:
		return "image/x-portable-graymap"
	case FormatBMP:
		return "image/bmp"
	}
	return "image/png"
}

type Palette uint8

const (
	PaletteGray Palette = iota
	PaletteHSV
)

func (p Palette) String() string {
	if p == PaletteHSV {
		return "hsv"
	}
	return "gray"
}

// Set implements pflag.Value.
func (p *Palette) Set(s string) error {
	switch strings.ToLower(s) {
	case "gray", "grey":
		*p = PaletteGray
	case "hsv", "color", "colour":
		*p = PaletteHSV
	default:
		return fmt.Errorf("%w: unknown palette %q", mandel.ErrInvalidConfig, s)
	}
	return nil
}

func (p *Palette) Type() string { return "palette" }

type EncodeOptions struct {
	Format  Format
	Palette Palette
	// Zoom scales the image by an integer factor with nearest-neighbour
	// sampling. PGM output is never zoomed.
	Zoom int
}

// EncodePGM writes the raw counts as a PGM with maxval MaxIter: binary P5,
// or ASCII P2 with CRLF line ends.
func EncodePGM(w io.Writer, f *mandel.Frame, ascii bool) error {
	bw := bufio.NewWriter(w)
	maxval := max(int(f.MaxIter), 1)
	width, height := f.Rect.Dx(), f.Rect.Dy()

	if !ascii {
		fmt.Fprintf(bw, "P5\n%d %d\n%d\n", width, height, maxval)
		if _, err := bw.Write(f.Counts); err != nil {
			return err
		}
		return bw.Flush()
	}

	fmt.Fprintf(bw, "P2\r\n%d %d\r\n%d\r\n", width, height, maxval)
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		for _, c := range f.Row(y) {
			fmt.Fprintf(bw, "%d ", c)
		}
		bw.WriteString("\r\n")
	}
	return bw.Flush()
}

// DecodePGM reads a P5 or P2 image written by EncodePGM. The frame starts
// at (0, 0) and MaxIter is the maxval.
func DecodePGM(r io.Reader) (*mandel.Frame, error) {
	br := bufio.NewReader(r)

	var magic string
	var width, height, maxval int
	if _, err := fmt.Fscan(br, &magic, &width, &height, &maxval); err != nil {
		return nil, fmt.Errorf("pgm header: %w", err)
	}
	if magic != "P5" && magic != "P2" {
		return nil, fmt.Errorf("pgm: unsupported magic %q", magic)
	}
	if err := mandel.CheckGeometry(width, height); err != nil {
		return nil, fmt.Errorf("pgm: %w", err)
	}
	if maxval < 1 || maxval > 255 {
		return nil, fmt.Errorf("pgm: unsupported maxval %d", maxval)
	}

	f := mandel.NewFrame(image.Rect(0, 0, width, height), uint8(maxval))
	if magic == "P2" {
		for i := range f.Counts {
			var v int
			if _, err := fmt.Fscan(br, &v); err != nil {
				return nil, fmt.Errorf("pgm sample %d: %w", i, err)
			}
			f.Counts[i] = uint8(v)
		}
		return f, nil
	}

	// exactly one whitespace byte separates the header from the samples
	if _, err := br.ReadByte(); err != nil {
		return nil, fmt.Errorf("pgm: %w", err)
	}
	if _, err := io.ReadFull(br, f.Counts); err != nil {
		return nil, fmt.Errorf("pgm samples: %w", err)
	}
	return f, nil
}

// ColorImage maps counts to colours. Pixels that reached MaxIter are
// treated as inside the set and drawn black by the HSV palette.
func ColorImage(f *mandel.Frame, pal Palette) image.Image {
	if pal == PaletteGray {
		return f
	}

	img := image.NewRGBA(f.Rect)
	maxIter := max(float64(f.MaxIter), 1)
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y++ {
		for x := f.Rect.Min.X; x < f.Rect.Max.X; x++ {
			ctr := f.Count(x, y)
			if ctr >= f.MaxIter {
				img.SetRGBA(x, y, color.RGBA{A: 255})
				continue
			}
			img.SetRGBA(x, y, hsv(float64(ctr)/maxIter*0.8, 1, 1))
		}
	}
	return img
}

// Encode writes f in the requested format.
func Encode(w io.Writer, f *mandel.Frame, o EncodeOptions) error {
	switch o.Format {
	case FormatPGM:
		return EncodePGM(w, f, false)
	case FormatPGMASCII:
		return EncodePGM(w, f, true)
	}

	img := zoom(ColorImage(f, o.Palette), o.Zoom)
	switch o.Format {
	case FormatPNG, "":
		return png.Encode(w, img)
	case FormatBMP:
		return bmp.Encode(w, img)
	}
	return fmt.Errorf("unknown image format %q", o.Format)
}

func zoom(src image.Image, factor int) image.Image {
	if factor <= 1 {
		return src
	}
	b := src.Bounds()
	dr := image.Rect(0, 0, b.Dx()*factor, b.Dy()*factor)

	// Scaling a Frame straight into an *image.Gray yields black; go through RGBA.
	dst := image.NewRGBA(dr)
	draw.NearestNeighbor.Scale(dst, dr, src, b, draw.Src, nil)
	return dst
}

// asciiRamp runs from outside the set to inside.
const asciiRamp = " .:-=+*#%@"

// WriteASCII draws a preview at most cols characters wide. Rows are sampled
// at twice the column step since terminal cells are about twice as tall as
// they are wide.
func WriteASCII(w io.Writer, f *mandel.Frame, cols int) error {
	if cols < 1 {
		cols = 1
	}
	step := max((f.Rect.Dx()+cols-1)/cols, 1)
	maxIter := max(int(f.MaxIter), 1)

	bw := bufio.NewWriter(w)
	for y := f.Rect.Min.Y; y < f.Rect.Max.Y; y += 2 * step {
		for x := f.Rect.Min.X; x < f.Rect.Max.X; x += step {
			i := int(f.Count(x, y)) * (len(asciiRamp) - 1) / maxIter
			bw.WriteByte(asciiRamp[i])
		}
		bw.WriteByte('\n')
	}
	return bw.Flush()
}

// hsv converts a hue, saturation and value in [0,1] to RGB.
func hsv(h, s, v float64) color.RGBA {
	h = math.Mod(h, 1)
	i := int(h * 6)
	f := h*6 - float64(i)
	p := v * (1 - s)
	q := v * (1 - f*s)
	t := v * (1 - (1-f)*s)

	var r, g, b float64
	switch i % 6 {
	case 0:
		r, g, b = v, t, p
	case 1:
		r, g, b = q, v, p
	case 2:
		r, g, b = p, v, t
	case 3:
		r, g, b = p, q, v
	case 4:
		r, g, b = t, p, v
	case 5:
		r, g, b = v, p, q
	}
	return color.RGBA{uint8(r * 255), uint8(g * 255), uint8(b * 255), 255}
}
