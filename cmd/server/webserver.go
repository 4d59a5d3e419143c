package main

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"time"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/stream"
)

// webServer builds the HTTP server. /ws upgrades to a websocket carrying
// irpc and /stream to one carrying the line protocol; /frame renders an
// image. / serves the files in static (the web client) or, without a
// directory, lists the presets.
// The returned listeners yield the two kinds of websocket connections.
func webServer(ctx context.Context, addr string, h *stream.Handler, origins []string, static string) (rpc, lines net.Listener, srv *http.Server) {
	rpcL := stream.NewWebsocketListener(ctx, addr+"/ws", origins...)
	linesL := stream.NewWebsocketListener(ctx, addr+"/stream", origins...)
	mux := http.NewServeMux()
	mux.Handle("/ws", rpcL)
	mux.Handle("/stream", linesL)
	mux.Handle("/frame", h)
	if static != "" {
		mux.Handle("/", http.FileServer(http.Dir(static)))
	} else {
		mux.HandleFunc("/", index)
	}

	srv = &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	mandel.Logger().Info("http listening", "addr", addr)
	return rpcL, linesL, srv
}

func index(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, "<!doctype html><title>mandel</title><h1>presets</h1><ul>")
	for _, name := range mandel.PresetNames() {
		fmt.Fprintf(w, `<li><a href="/frame?palette=hsv&amp;zoom=2&amp;preset=%s">%s</a></li>`, name, name)
	}
	fmt.Fprint(w, "</ul>")
}
