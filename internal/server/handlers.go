package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gogpu/ogimage"
	"github.com/gogpu/ogimage/canvas"
	"github.com/gogpu/ogimage/fonts"
	"github.com/gogpu/ogimage/internal/cache"
	"github.com/gogpu/ogimage/node"
)

// renderRequest is the POST /render body.
type renderRequest struct {
	Tree    json.RawMessage `json:"tree"`
	Width   int             `json:"width"`
	Height  int             `json:"height"`
	Format  string          `json:"format"`
	Quality *int            `json:"quality"`
}

type errorResponse struct {
	Error     string `json:"error"`
	Stage     string `json:"stage,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// stageFetch tags failures to download remote images.
const stageFetch ogimage.Stage = "fetch"

var errBadRequest = errors.New("bad request")

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = w.Write([]byte("ok\n"))
}

type fontInfo struct {
	Name    string `json:"name"`
	Family  string `json:"family"`
	Weight  int    `json:"weight"`
	Generic string `json:"generic,omitempty"`
	Color   bool   `json:"color"`
}

func (s *Server) handleFonts(w http.ResponseWriter, _ *http.Request) {
	var out []fontInfo
	for _, r := range s.registry.Resources() {
		info := fontInfo{Name: r.Name(), Family: r.Family(), Weight: r.Weight(), Color: r.HasColor()}
		if r.Generic() != fonts.GenericNone {
			info.Generic = r.Generic().String()
		}
		out = append(out, info)
	}
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(out)
}

func (s *Server) handleRenderPost(w http.ResponseWriter, r *http.Request) {
	var req renderRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.cfg.MaxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		s.writeError(w, r, ogimage.StageInput, fmt.Errorf("%w: %v", errBadRequest, err))
		return
	}
	s.render(w, r, req)
}

func (s *Server) handleRenderGet(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := renderRequest{
		Tree:   json.RawMessage(q.Get("tree")),
		Format: q.Get("format"),
	}
	for _, f := range []struct {
		key string
		dst *int
	}{{"width", &req.Width}, {"height", &req.Height}} {
		if v := q.Get(f.key); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil {
				s.writeError(w, r, ogimage.StageInput, fmt.Errorf("%w: %s: %v", errBadRequest, f.key, err))
				return
			}
			*f.dst = n
		}
	}
	if v := q.Get("quality"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			s.writeError(w, r, ogimage.StageInput, fmt.Errorf("%w: quality: %v", errBadRequest, err))
			return
		}
		req.Quality = &n
	}
	s.render(w, r, req)
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, in renderRequest) {
	if in.Width == 0 {
		in.Width = s.cfg.Width
	}
	if in.Height == 0 {
		in.Height = s.cfg.Height
	}
	if in.Format == "" {
		in.Format = s.cfg.Format
	}
	quality := s.cfg.Quality
	if in.Quality != nil {
		quality = *in.Quality
	}
	if in.Width > s.cfg.MaxWidth || in.Height > s.cfg.MaxHeight {
		s.writeError(w, r, ogimage.StageInput, fmt.Errorf("%w: viewport %dx%d exceeds %dx%d",
			errBadRequest, in.Width, in.Height, s.cfg.MaxWidth, s.cfg.MaxHeight))
		return
	}

	root, err := node.Decode(in.Tree)
	if err != nil {
		s.writeError(w, r, ogimage.StageInput, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.cfg.Timeout)
	defer cancel()

	var resources map[string][]byte
	if s.fetcher != nil {
		resources, err = s.fetcher.Prefetch(ctx, root, nil)
		if err != nil {
			s.writeError(w, r, stageFetch, err)
			return
		}
	}

	req, err := ogimage.NewRequest(root, in.Width, in.Height,
		ogimage.WithFormat(in.Format),
		ogimage.WithQuality(quality),
		ogimage.WithRegistry(s.registry),
		ogimage.WithResources(resources),
	)
	if err != nil {
		s.writeError(w, r, ogimage.StageOf(err), err)
		return
	}

	// Quality does not change lossless output, so it stays out of the key.
	keyQuality := req.Quality
	if !req.Format.Lossy() {
		keyQuality = 0
	}
	key := cache.Key(string(in.Tree), req.Width, req.Height, req.Format.String(), keyQuality)
	if data, ok, err := s.cache.Get(ctx, key); err != nil {
		s.logger.Warn("cache get failed", "err", err)
	} else if ok {
		s.writeImage(w, req, data, "HIT")
		return
	}

	out, err := ogimage.RenderContext(ctx, req)
	if err != nil {
		s.writeError(w, r, ogimage.StageOf(err), err)
		return
	}
	if err := s.cache.Set(ctx, key, out, s.cfg.CacheTTL); err != nil {
		s.logger.Warn("cache set failed", "err", err)
	}
	s.writeImage(w, req, out, "MISS")
}

func (s *Server) writeImage(w http.ResponseWriter, req ogimage.Request, data []byte, cacheStatus string) {
	h := w.Header()
	h.Set("Content-Type", req.Format.MediaType())
	h.Set("Content-Length", strconv.Itoa(len(data)))
	h.Set("Cache-Control", "public, max-age=86400, immutable")
	h.Set("X-Cache", cacheStatus)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, stage ogimage.Stage, err error) {
	status := statusFor(stage, err)
	id := RequestIDFrom(r.Context())
	if status >= 500 {
		s.logger.Error("render failed", "id", id, "stage", stage, "err", err)
	} else {
		s.logger.Debug("render rejected", "id", id, "stage", stage, "err", err)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), Stage: string(stage), RequestID: id})
}

// statusFor maps a failure to an HTTP status.
func statusFor(stage ogimage.Stage, err error) int {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case stage == ogimage.StageInput, errors.Is(err, canvas.ErrTooLarge):
		return http.StatusBadRequest
	case stage == ogimage.StageRender, stage == stageFetch:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}
