package main

import (
	"context"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/marben/hwmandel/render"
	"github.com/marben/hwmandel/stream"
)

func TestWebServer(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	e, err := render.NewEngine()
	if err != nil {
		t.Fatal(err)
	}
	rpc, lines, srv := webServer(ctx, ":0", stream.NewHandler(e), nil, "")
	defer rpc.Close()
	defer lines.Close()
	ts := httptest.NewServer(srv.Handler)
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	if !strings.Contains(string(body), "preset=tt320") {
		t.Errorf("index does not list the presets: %s", body)
	}

	resp, err = http.Get(ts.URL + "/frame?width=16&height=8")
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("/frame status %d", resp.StatusCode)
	}
	img, err := png.Decode(resp.Body)
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 16 || b.Dy() != 8 {
		t.Errorf("bounds = %v", b)
	}

	resp, err = http.Get(ts.URL + "/missing")
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("/missing status %d", resp.StatusCode)
	}
}
