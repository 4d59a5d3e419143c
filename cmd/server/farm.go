package main

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/marben/irpc"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/render"
)

// farm renders one frame on whoever connects. Every irpc client has to
// offer a mandel.Renderer and is put to work on the scheduler's tiles; any
// client can ask for the finished frame through mandel.FrameProvider.
type farm struct {
	sched *render.Scheduler
	srv   *irpc.Server
}

func newFarm(sched *render.Scheduler) *farm {
	f := &farm{sched: sched}
	f.srv = irpc.NewServer(
		irpc.WithOnConnect(f.onConnect),
		irpc.WithServices(mandel.NewFrameProviderIrpcService(sched)),
	)
	return f
}

// onConnect runs in the connection's own goroutine, so it may render for as
// long as the client stays.
func (f *farm) onConnect(ep *irpc.Endpoint) {
	log := mandel.Logger().With("remote", ep.RemoteAddr())
	log.Info("client connected")

	renderer, err := mandel.NewRendererIrpcClient(ep)
	if err != nil {
		log.Info("client renders no tiles", "err", err)
		return
	}

	if err := f.sched.Render(ep.Context(), renderer); err != nil {
		if ep.Context().Err() != nil {
			log.Info("client left", "workers", f.sched.Workers())
			return
		}
		log.Warn("render on client", "err", err)
		return
	}
	log.Info("client done", "progress", f.sched.Progress())
}

// Serve accepts irpc connections on l until Close. Listeners that stop with
// ctx are not an error either.
func (f *farm) Serve(ctx context.Context, l net.Listener) error {
	err := f.srv.Serve(l)
	if errors.Is(err, irpc.ErrServerClosed) || ctx.Err() != nil {
		return nil
	}
	return fmt.Errorf("irpc serve %s: %w", l.Addr(), err)
}

// Close drops every listener and client.
func (f *farm) Close() error {
	return f.srv.Close()
}
