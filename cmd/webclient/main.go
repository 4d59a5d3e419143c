//go:build js && wasm

// Command webclient is a browser viewer. By default it joins the server's
// irpc farm on /ws: the page's own engine renders the tiles the server hands
// it and paints each one, then the page fetches and paints the whole frame.
//
// With kind=frame or kind=tiles it speaks the line protocol on /stream
// instead, asking for a streamed frame and painting every row the moment
// it arrives, so the page shows the controller walking the raster.
//
// The preset, palette and kind come from the page URL, e.g.
// index.html?preset=seahorse&palette=hsv&kind=tiles.
package main

import (
	"context"
	"fmt"
	"image"
	"log"
	"sync"
	"syscall/js"
	"time"

	"github.com/marben/irpc"
	"golang.org/x/image/draw"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/render"
	"github.com/marben/hwmandel/stream"
)

func main() {
	if err := run(); err != nil {
		logFatalf("%v", err)
	}
	// Block main goroutine to keep WASM running
	select {}
}

func run() error {
	logScreenf("starting web client")

	loc := js.Global().Get("window").Get("location")
	params := js.Global().Get("URLSearchParams").New(loc.Get("search"))
	param := func(name, def string) string {
		if v := params.Call("get", name); !v.IsNull() && v.String() != "" {
			return v.String()
		}
		return def
	}

	preset, err := mandel.LookupPreset(param("preset", "tt320"))
	if err != nil {
		return err
	}
	var palette render.Palette
	if err := palette.Set(param("palette", "hsv")); err != nil {
		return err
	}
	kind := param("kind", "join")

	proto := "ws"
	if loc.Get("protocol").String() == "https:" {
		proto = "wss"
	}
	base := proto + "://" + loc.Get("host").String()
	ctx := context.Background()

	if kind == "join" {
		return join(ctx, base+"/ws", palette)
	}

	req := stream.Request{
		Kind:   stream.Kind(kind),
		Config: preset.Config,
		Width:  preset.Width,
		Height: preset.Height,
	}

	websocketUrl := base + "/stream"

	logScreenf("connecting to %s", websocketUrl)
	conn, err := stream.DialWebsocket(ctx, websocketUrl)
	if err != nil {
		return err
	}
	c := stream.NewClient(conn)
	defer c.Close()

	initCanvas(req.Width, req.Height, "#3a3a6e")
	hudSetTotalRows(req.Height)

	start := time.Now()
	row := mandel.NewFrame(image.Rect(0, 0, req.Width, 1), req.Config.MaxIter)
	_, err = c.FetchRows(ctx, req, func(hdr stream.Header, y int, counts []uint8) error {
		row.Rect = image.Rect(0, y, hdr.Width, y+1)
		copy(row.Counts, counts)

		paint(row, palette)
		hudSetFinishedRows(y + 1)
		return nil
	})
	if err != nil {
		return fmt.Errorf("fetch: %w", err)
	}
	logScreenf("%s frame done in %s", req.Kind, time.Since(start))
	return nil
}

// canvasRenderer renders the tiles the server asks for and paints each one.
type canvasRenderer struct {
	engine  *render.Engine
	palette render.Palette

	once   sync.Once
	m      sync.Mutex
	pixels int
}

func (r *canvasRenderer) RenderTile(ctx context.Context, cfg mandel.Config, tile image.Rectangle, width, height int) (*mandel.Frame, error) {
	r.once.Do(func() {
		initCanvas(width, height, "#3a3a6e")
		hudSetUnit("pixels")
		hudSetTotalRows(width * height)
	})
	logScreenf("rendering tile: %s", tile)

	f, err := r.engine.RenderTile(ctx, cfg, tile, width, height)
	if err != nil {
		return nil, err
	}
	paint(f, r.palette)

	r.m.Lock()
	r.pixels += tile.Dx() * tile.Dy()
	hudSetFinishedRows(r.pixels)
	r.m.Unlock()
	return f, nil
}

// join lends the page's engine to the server and paints the frame the
// server assembles from every client's tiles.
func join(ctx context.Context, url string, palette render.Palette) error {
	e, err := render.NewEngine()
	if err != nil {
		return err
	}

	logScreenf("connecting to %s", url)
	conn, err := stream.DialWebsocket(ctx, url)
	if err != nil {
		return err
	}

	renderer := &canvasRenderer{engine: e, palette: palette}
	endpoint := irpc.NewEndpoint(conn, irpc.WithEndpointServices(mandel.NewRendererIrpcService(renderer)))
	defer endpoint.Close()

	provider, err := mandel.NewFrameProviderIrpcClient(endpoint)
	if err != nil {
		return fmt.Errorf("failed to create FrameProvider client: %w", err)
	}

	start := time.Now()
	f, err := provider.GetFrame(ctx)
	if err != nil {
		return fmt.Errorf("GetFrame: %w", err)
	}
	renderer.once.Do(func() { initCanvas(f.Rect.Dx(), f.Rect.Dy(), "#3a3a6e") })
	paint(f, palette)
	logScreenf("farmed frame done in %s", time.Since(start))
	return nil
}

// paint colors f and puts it on the canvas at its own position.
func paint(f *mandel.Frame, palette render.Palette) {
	img := image.NewRGBA(f.Rect)
	draw.Draw(img, img.Rect, render.ColorImage(f, palette), f.Rect.Min, draw.Src)
	drawToCanvas(img)
}

// logScreenf appends a formatted message to the log element in the DOM.
func logScreenf(format string, a ...any) {
	msg := fmt.Sprintf(format, a...)

	doc := js.Global().Get("document")
	logElem := doc.Call("getElementById", "log")
	logElem.Set("textContent", logElem.Get("textContent").String()+msg+"\n")
}

// logFatalf logs a fatal error to the log window and terminates the program.
func logFatalf(format string, a ...any) {
	logScreenf("FATAL: "+format, a...)
	log.Fatalf(format, a...)
}

func hudSetFinishedRows(finished int) {
	js.Global().Get("document").Call("getElementById", "rowsDone").Set("textContent", finished)
}

func hudSetUnit(unit string) {
	js.Global().Get("document").Call("getElementById", "unit").Set("textContent", unit)
}

func hudSetTotalRows(total int) {
	js.Global().Get("document").Call("getElementById", "rowsTotal").Set("textContent", total)
}
