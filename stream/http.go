package stream

import (
	"bytes"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	mandel "github.com/marben/hwmandel"
	"github.com/marben/hwmandel/render"
)

// maxZoom bounds the zoom query parameter.
const maxZoom = 8

// frameQuery is the parsed query of an HTTP frame request.
type frameQuery struct {
	cfg           mandel.Config
	width, height int
	opts          render.EncodeOptions
}

// parseFrameQuery starts from the named preset (tt320 by default) and
// applies the remaining parameters on top of it.
func parseFrameQuery(q url.Values) (frameQuery, error) {
	name := q.Get("preset")
	if name == "" {
		name = "tt320"
	}
	p, err := mandel.LookupPreset(name)
	if err != nil {
		return frameQuery{}, err
	}
	fq := frameQuery{
		cfg:    p.Config,
		width:  p.Width,
		height: p.Height,
		opts:   render.EncodeOptions{Format: render.FormatPNG, Zoom: 1},
	}

	var maxIter int64
	ints := []struct {
		name string
		dst  *int64
	}{
		{"max_iter", &maxIter},
		{"scale", &fq.cfg.Scale},
		{"cr_offset", &fq.cfg.CrOffset},
		{"ci_offset", &fq.cfg.CiOffset},
	}
	maxIter = int64(fq.cfg.MaxIter)
	for _, f := range ints {
		if s := q.Get(f.name); s != "" {
			v, err := strconv.ParseInt(s, 10, 64)
			if err != nil {
				return frameQuery{}, fmt.Errorf("%w: %s: %v", mandel.ErrInvalidConfig, f.name, err)
			}
			*f.dst = v
		}
	}
	if maxIter < 0 || maxIter > mandel.MaxIterLimit {
		return frameQuery{}, fmt.Errorf("%w: max_iter %d", mandel.ErrInvalidConfig, maxIter)
	}
	fq.cfg.MaxIter = uint8(maxIter)

	for name, dst := range map[string]*int{"width": &fq.width, "height": &fq.height, "zoom": &fq.opts.Zoom} {
		if s := q.Get(name); s != "" {
			v, err := strconv.Atoi(s)
			if err != nil {
				return frameQuery{}, fmt.Errorf("%w: %s: %v", mandel.ErrInvalidGeometry, name, err)
			}
			*dst = v
		}
	}
	if fq.opts.Zoom < 1 || fq.opts.Zoom > maxZoom {
		return frameQuery{}, fmt.Errorf("%w: zoom %d not in 1..%d", mandel.ErrInvalidGeometry, fq.opts.Zoom, maxZoom)
	}

	if s := q.Get("format"); s != "" {
		if fq.opts.Format, err = render.ParseFormat(s); err != nil {
			return frameQuery{}, err
		}
	}
	if s := q.Get("palette"); s != "" {
		if err := fq.opts.Palette.Set(s); err != nil {
			return frameQuery{}, err
		}
	}

	req := Request{Kind: KindFrame, Config: fq.cfg, Width: fq.width, Height: fq.height}
	if err := req.validate(); err != nil {
		return frameQuery{}, err
	}
	return fq, nil
}

// ServeHTTP renders one frame in streaming mode and replies with an image.
// Query parameters: preset, max_iter, scale, cr_offset, ci_offset, width,
// height, format, palette and zoom.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	log := mandel.Logger()
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	fq, err := parseFrameQuery(r.URL.Query())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f, st, err := h.engine.RenderFrame(r.Context(), fq.cfg, fq.width, fq.height)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mandel.ErrInvalidConfig) || errors.Is(err, mandel.ErrInvalidGeometry) {
			status = http.StatusBadRequest
		}
		log.Warn("http frame", "err", err)
		http.Error(w, err.Error(), status)
		return
	}

	var buf bytes.Buffer
	if err := render.Encode(&buf, f, fq.opts); err != nil {
		log.Warn("http frame encode", "err", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", fq.opts.Format.ContentType())
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("X-Mandel-Cycles", strconv.FormatUint(st.Cycles, 10))
	if _, err := buf.WriteTo(w); err != nil {
		log.Debug("http frame write", "err", err)
	}
}
