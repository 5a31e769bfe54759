// Package server exposes a built tile table over HTTP.
//
// The server is read-only: it answers JSON queries about the tiles of one
// table, for use by layout viewers and debugging dashboards. Building
// tables stays in the CLI.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/calderan/mosaic/pkg/errors"
	"github.com/calderan/mosaic/pkg/place"
)

// Server serves one tile table.
type Server struct {
	table  *place.TileTable
	logger *log.Logger
}

// New creates a server for the given table. A nil logger uses the default.
func New(table *place.TileTable, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{table: table, logger: logger}
}

// Handler returns the HTTP handler with all routes registered.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/api/tiles", s.handleListTiles)
	r.Get("/api/tiles/{name}", s.handleGetTile)

	return r
}

// logRequests logs each request with method, path, status, and duration.
func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start).Round(time.Microsecond),
		)
	})
}

// tileSummary is the list view of one tile.
type tileSummary struct {
	Name     string `json:"name"`
	NumRows  int    `json:"num_rows"`
	Height   int    `json:"height"`
	Priority int    `json:"priority"`
}

// rowView is the placement of one row within a tile.
type rowView struct {
	Index   int    `json:"index"`
	RowType string `json:"row_type"`
	Flip    bool   `json:"flip"`
	Width   int    `json:"width"`
	YB      int    `json:"yb"`
	YT      int    `json:"yt"`
	YBBlk   int    `json:"yb_blk"`
	YTBlk   int    `json:"yt_blk"`
	YConn   [2]int `json:"y_conn"`
}

// tileDetail is the full view of one tile.
type tileDetail struct {
	tileSummary
	BotMirror bool      `json:"bot_mirror"`
	TopMirror bool      `json:"top_mirror"`
	Rows      []rowView `json:"rows"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListTiles(w http.ResponseWriter, r *http.Request) {
	names := s.table.Names()
	out := make([]tileSummary, 0, len(names))
	for _, name := range names {
		pinfo, err := s.table.Get(name)
		if err != nil {
			continue
		}
		out = append(out, summarize(name, pinfo))
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetTile(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	pinfo, err := s.table.Get(name)
	if err != nil {
		if errors.Is(err, errors.ErrCodeTileNotFound) {
			writeError(w, http.StatusNotFound, "tile %s not found", name)
			return
		}
		writeError(w, http.StatusInternalServerError, "%v", err)
		return
	}

	detail := tileDetail{
		tileSummary: summarize(name, pinfo),
		BotMirror:   pinfo.GetMirror(false),
		TopMirror:   pinfo.GetMirror(true),
		Rows:        make([]rowView, 0, pinfo.NumRows()),
	}
	for i := 0; i < pinfo.NumRows(); i++ {
		rp, err := pinfo.Row(i)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "%v", err)
			return
		}
		detail.Rows = append(detail.Rows, rowView{
			Index:   i,
			RowType: rp.RowInfo.RowType.String(),
			Flip:    rp.RowInfo.Flip,
			Width:   rp.RowInfo.Width,
			YB:      rp.YB,
			YT:      rp.YT,
			YBBlk:   rp.YBBlk,
			YTBlk:   rp.YTBlk,
			YConn:   rp.YConn,
		})
	}
	writeJSON(w, http.StatusOK, detail)
}

func summarize(name string, pinfo *place.PlaceInfo) tileSummary {
	return tileSummary{
		Name:     name,
		NumRows:  pinfo.NumRows(),
		Height:   pinfo.Height(),
		Priority: pinfo.Priority(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, format string, args ...any) {
	writeJSON(w, status, errorResponse{Error: fmt.Sprintf(format, args...)})
}
