// Command server farms one frame out to irpc clients over TCP and websocket,
// answers line-protocol requests on its own engine, and renders images at
// /frame over plain HTTP.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/alu"
	"github.com/marben/hwmandel/render"
	"github.com/marben/hwmandel/stream"
)

type options struct {
	config       mandel.ConfigFlags
	tcpAddr      string
	streamAddr   string
	httpAddr     string
	origins      []string
	static       string
	localWorkers int
	multiplier   render.Multiplier
	scaleBits    uint
	workers      int
	tileSize     int
	queueRows    int
	verbose      bool
}

func mainCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "server",
		Short: "Farm a frame out to irpc clients and serve rendered frames over TCP, websocket and HTTP",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCmd(cmd, o)
		},
	}

	fs := cmd.Flags()
	o.config.Register(fs)
	fs.StringVar(&o.tcpAddr, "tcp", ":8081", "irpc TCP listen address (empty to disable)")
	fs.StringVar(&o.streamAddr, "stream", ":8082", "line protocol TCP listen address (empty to disable)")
	fs.StringVar(&o.httpAddr, "http", ":8080", "HTTP listen address for /ws, /stream and /frame (empty to disable)")
	fs.StringVar(&o.static, "static", "", "directory served at / (the web client build)")
	fs.StringSliceVar(&o.origins, "origin", nil, "cross-origin host patterns accepted on /ws and /stream")
	fs.IntVar(&o.localWorkers, "local-workers", 0, "tile workers the server lends to its own farmed frame")
	fs.Var(&o.multiplier, "multiplier", "ALU multipliers: array, serial or shared")
	fs.UintVar(&o.scaleBits, "scale-bits", alu.DefaultScaleBits, "fractional bits of the ALU's Z format")
	fs.IntVar(&o.workers, "workers", runtime.NumCPU(), "tile workers per tiles request")
	fs.IntVar(&o.tileSize, "tile-size", render.DefaultTileSize, "tile edge for farmed frames and tiles requests")
	fs.IntVar(&o.queueRows, "queue-rows", 4, "rows buffered per streaming connection before the controller stalls")
	fs.BoolVarP(&o.verbose, "verbose", "v", false, "debug logging")

	return cmd
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

	if o.tcpAddr == "" && o.streamAddr == "" && o.httpAddr == "" {
		return errors.New("nothing to serve: --tcp, --stream and --http are all empty")
	}

	cfg, width, height, err := o.config.Resolve()
	if err != nil {
		return err
	}
	sched, err := render.NewScheduler(cfg, width, height, o.tileSize)
	if err != nil {
		return err
	}

	e, err := render.NewEngine(
		render.WithParams(alu.NewParams(o.scaleBits)),
		render.WithMultiplier(o.multiplier),
	)
	if err != nil {
		return err
	}
	h := stream.NewHandler(e,
		stream.WithWorkers(o.workers),
		stream.WithTileSize(o.tileSize),
		stream.WithQueueRows(o.queueRows),
	)

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// irpc server with onConnect hook to plug clients into rendering
	f := newFarm(sched)
	g.Go(func() error {
		<-ctx.Done()
		return f.Close()
	})
	log.Info("farming frame", "width", width, "height", height, "tiles", sched.TotalTiles())

	if o.localWorkers > 0 {
		g.Go(func() error {
			if _, err := sched.Run(ctx, e, o.localWorkers); err != nil && ctx.Err() == nil {
				return fmt.Errorf("local workers: %w", err)
			}
			return nil
		})
	}

	// TCP
	if o.tcpAddr != "" {
		tcpListener, err := net.Listen("tcp", o.tcpAddr)
		if err != nil {
			return fmt.Errorf("net.Listen: %w", err)
		}
		log.Info("irpc listening", "addr", tcpListener.Addr().String())
		g.Go(func() error {
			return f.Serve(ctx, tcpListener)
		})
	}
	if o.streamAddr != "" {
		streamListener, err := net.Listen("tcp", o.streamAddr)
		if err != nil {
			return fmt.Errorf("net.Listen: %w", err)
		}
		log.Info("stream listening", "addr", streamListener.Addr().String())
		g.Go(func() error {
			return h.Serve(ctx, streamListener)
		})
	}

	// WEBSOCKET
	if o.httpAddr != "" {
		rpcListener, streamListener, httpServer := webServer(ctx, o.httpAddr, h, o.origins, o.static)
		g.Go(func() error {
			if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("httpServer: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return httpServer.Shutdown(shutdownCtx)
		})
		// irpc server can serve multiple listeners, in this case both tcp and websocket
		g.Go(func() error {
			return f.Serve(ctx, rpcListener)
		})
		g.Go(func() error {
			return h.Serve(ctx, streamListener)
		})
	}

	log.Info("waiting for tcp and websocket connections")
	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
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
