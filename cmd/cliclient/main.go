// Command cliclient connects to a server over TCP or websocket, asks for a
// frame (or a single pixel) and saves the result. With --join it lends its
// own engine to the server's farmed frame instead and saves that frame once
// every tile is in.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"os"
	"strings"
	"time"

	"github.com/marben/irpc"
	"github.com/spf13/cobra"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/render"
	"github.com/marben/hwmandel/stream"
)

type options struct {
	config  mandel.ConfigFlags
	addr    string
	join    bool
	tiles   bool
	pixel   string
	timeout time.Duration

	output  string
	palette render.Palette
	zoom    int
	verbose bool
}

func mainCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "cliclient",
		Short: "Fetch a frame from a running server",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCmd(cmd, o)
		},
	}

	fs := cmd.Flags()
	o.config.Register(fs)
	fs.StringVar(&o.addr, "addr", "", "server address: host:port for TCP, or a ws:// URL (default localhost:8082, or localhost:8081 with --join)")
	fs.BoolVar(&o.join, "join", false, "render tiles of the server's farmed frame over irpc and save it")
	fs.BoolVar(&o.tiles, "tiles", false, "render on the server's tile workers instead of one streaming controller")
	fs.StringVar(&o.pixel, "pixel", "", "query the single pixel x,y and print its count")
	fs.DurationVar(&o.timeout, "timeout", time.Minute, "give up after this long")
	fs.StringVarP(&o.output, "output", "o", "mandel.png", "output file; the format follows the extension")
	fs.Var(&o.palette, "palette", "gray or hsv")
	fs.IntVar(&o.zoom, "zoom", 1, "integer upscale of png and bmp output")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	return cmd
}

func dial(ctx context.Context, addr string) (net.Conn, error) {
	if strings.HasPrefix(addr, "ws://") || strings.HasPrefix(addr, "wss://") {
		return stream.DialWebsocket(ctx, addr)
	}
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to server: %w", err)
	}
	return conn, nil
}

func runCmd(cmd *cobra.Command, o *options) error {
	// At this point usage information has already been printed if obviously incorrect.
	cmd.SilenceUsage = true

	level := slog.LevelInfo
	if o.verbose {
		level = slog.LevelDebug
	}
	mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	log := mandel.Logger()

	if o.join {
		return runJoin(cmd.Context(), o)
	}
	if o.addr == "" {
		o.addr = "localhost:8082"
	}

	cfg, width, height, err := o.config.Resolve()
	if err != nil {
		return err
	}
	req := stream.Request{Kind: stream.KindFrame, Config: cfg, Width: width, Height: height}
	if o.tiles {
		req.Kind = stream.KindTiles
	}
	if o.pixel != "" {
		req.Kind = stream.KindPixel
		if _, err := fmt.Sscanf(o.pixel, "%d,%d", &req.X, &req.Y); err != nil {
			return fmt.Errorf("--pixel %q: want x,y: %w", o.pixel, err)
		}
	}

	format, err := render.FormatFromPath(o.output)
	if err != nil && req.Kind != stream.KindPixel {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), o.timeout)
	defer cancel()

	log.Info("connecting", "addr", o.addr)
	conn, err := dial(ctx, o.addr)
	if err != nil {
		return err
	}
	c := stream.NewClient(conn)
	defer c.Close()

	log.Info("requesting", "kind", req.Kind, "width", width, "height", height)
	start := time.Now()
	hdr, f, err := c.Fetch(ctx, req)
	if err != nil {
		return err
	}
	log.Info("received", "elapsed", time.Since(start))

	if req.Kind == stream.KindPixel {
		fmt.Printf("%d,%d: %d\n", hdr.X, hdr.Y, hdr.Count)
		return nil
	}

	return save(o, format, f)
}

// runJoin offers the local engine to the server as a mandel.Renderer and
// waits for the frame the server assembles from every client's tiles.
func runJoin(ctx context.Context, o *options) error {
	log := mandel.Logger()
	if o.tiles || o.pixel != "" {
		return errors.New("--join renders the server's frame; drop --tiles and --pixel")
	}
	if o.addr == "" {
		o.addr = "localhost:8081"
	}
	format, err := render.FormatFromPath(o.output)
	if err != nil {
		return err
	}

	e, err := render.NewEngine()
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, o.timeout)
	defer cancel()

	log.Info("connecting", "addr", o.addr)
	conn, err := dial(ctx, o.addr)
	if err != nil {
		return err
	}

	// the server renders tiles on us through this service
	ep := irpc.NewEndpoint(conn, irpc.WithEndpointServices(mandel.NewRendererIrpcService(e)))
	defer ep.Close()

	provider, err := mandel.NewFrameProviderIrpcClient(ep)
	if err != nil {
		return fmt.Errorf("failed to create FrameProvider client: %w", err)
	}

	log.Info("rendering on request of the server")
	start := time.Now()
	f, err := provider.GetFrame(ctx)
	if err != nil {
		return fmt.Errorf("GetFrame: %w", err)
	}
	log.Info("received", "elapsed", time.Since(start), "width", f.Rect.Dx(), "height", f.Rect.Dy())

	return save(o, format, f)
}

func save(o *options, format render.Format, f *mandel.Frame) error {
	out, err := os.Create(o.output)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer out.Close()

	if err := render.Encode(out, f, render.EncodeOptions{Format: format, Palette: o.palette, Zoom: o.zoom}); err != nil {
		return fmt.Errorf("encode %s: %w", o.output, err)
	}
	if err := out.Close(); err != nil {
		return err
	}

	mandel.Logger().Info("fully rendered image saved", "file", o.output)
	return nil
}

func main() {
	ctx := context.Background()

	err := mainCmd().ExecuteContext(ctx)
	if err != nil {
		// At this point the error has already been printed; no need to print again.
		os.Exit(1)
	}
}
