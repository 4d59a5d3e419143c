// Command render runs the engine locally and writes the frame to a file,
// printing cycle statistics and optionally a terminal preview.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/alu"
	"github.com/marben/hwmandel/ctrl"
	"github.com/marben/hwmandel/render"
)

type options struct {
	config     mandel.ConfigFlags
	multiplier render.Multiplier
	scaleBits  uint
	workers    int
	tileSize   int

	output  string
	format  string
	palette render.Palette
	zoom    int
	preview bool
	verbose bool
}

func mainCmd() *cobra.Command {
	o := &options{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Render a frame on the cycle-level fixed-point engine",
		Args:  cobra.ExactArgs(0),
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCmd(cmd, o)
		},
	}

	fs := cmd.Flags()
	o.config.Register(fs)
	fs.Var(&o.multiplier, "multiplier", "ALU multipliers: array, serial or shared")
	fs.UintVar(&o.scaleBits, "scale-bits", alu.DefaultScaleBits, "fractional bits of the ALU's Z format")
	fs.IntVar(&o.workers, "workers", 0, "render tiles on this many parallel engines instead of one controller")
	fs.IntVar(&o.tileSize, "tile-size", render.DefaultTileSize, "tile edge for --workers")
	fs.StringVarP(&o.output, "output", "o", "mandel.png", "output file")
	fs.StringVar(&o.format, "format", "", "pgm, pgm-ascii, png or bmp (default: from the output extension)")
	fs.Var(&o.palette, "palette", "gray or hsv")
	fs.IntVar(&o.zoom, "zoom", 1, "integer upscale of png and bmp output")
	fs.BoolVar(&o.preview, "preview", false, "print an ASCII preview when stdout is a terminal")
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

	cfg, width, height, err := o.config.Resolve()
	if err != nil {
		return err
	}

	var format render.Format
	if o.format == "" {
		format, err = render.FormatFromPath(o.output)
	} else {
		format, err = render.ParseFormat(o.format)
	}
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

	log.Info("rendering",
		"width", width, "height", height, "mode", cfg.Mode, "multiplier", o.multiplier,
		"max_iter", cfg.MaxIter, "scale", cfg.Scale, "cr_offset", cfg.CrOffset, "ci_offset", cfg.CiOffset)

	start := time.Now()
	f, st, err := renderFrame(cmd.Context(), e, o, cfg, width, height)
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	if o.workers > 0 {
		log.Info("rendered", "elapsed", elapsed, "workers", o.workers)
	} else {
		log.Info("rendered", "elapsed", elapsed,
			"cycles", st.Cycles, "steps", st.Steps, "pixels", st.Pixels,
			"cycles_per_pixel", float64(st.Cycles)/float64(max(st.Pixels, 1)))
	}

	out, err := os.Create(o.output)
	if err != nil {
		return err
	}
	defer out.Close()

	if err := render.Encode(out, f, render.EncodeOptions{Format: format, Palette: o.palette, Zoom: o.zoom}); err != nil {
		return fmt.Errorf("encode %s: %w", o.output, err)
	}
	if err := out.Close(); err != nil {
		return err
	}
	log.Info("saved", "file", o.output, "format", format)

	if o.preview {
		fd := int(os.Stdout.Fd())
		if !term.IsTerminal(fd) {
			log.Debug("stdout is not a terminal, skipping preview")
			return nil
		}
		cols, _, err := term.GetSize(fd)
		if err != nil {
			return fmt.Errorf("terminal size: %w", err)
		}
		return render.WriteASCII(os.Stdout, f, cols)
	}
	return nil
}

// renderFrame picks the render path: tiles on parallel engines, one
// streaming controller, or one on-demand controller.
func renderFrame(ctx context.Context, e *render.Engine, o *options, cfg mandel.Config, width, height int) (*mandel.Frame, ctrl.Stats, error) {
	if o.workers > 0 {
		s, err := render.NewScheduler(cfg, width, height, o.tileSize)
		if err != nil {
			return nil, ctrl.Stats{}, err
		}
		f, err := s.Run(ctx, e, o.workers)
		return f, ctrl.Stats{}, err
	}
	if cfg.Mode == mandel.Streaming {
		return e.RenderFrame(ctx, cfg, width, height)
	}
	return e.RenderOnDemand(ctx, cfg, width, height)
}

func main() {
	ctx := context.Background()

	err := mainCmd().ExecuteContext(ctx)
	if err != nil {
		// At this point the error has already been printed; no need to print again.
		os.Exit(1)
	}
}
