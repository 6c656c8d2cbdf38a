// Package provenancehttp serves JSON describing where the running content
// and binary came from: bundle hash, signature state, source and build.
package provenancehttp

import (
	"context"
	"encoding/json"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/keithlinneman/linnemanlabs-sections/internal/content"
	"github.com/keithlinneman/linnemanlabs-sections/internal/log"
	"github.com/keithlinneman/linnemanlabs-sections/internal/version"
)

const (
	ContentPath        = "/api/provenance/content"
	ContentSummaryPath = "/api/provenance/content/summary"
	AppPath            = "/api/provenance/app"
)

// SnapshotProvider defines the interface for getting content snapshots
type SnapshotProvider interface {
	Get() (*content.Snapshot, bool)
}

// API implements the provenance API endpoints
type API struct {
	content SnapshotProvider
	build   version.Info
	logger  log.Logger
	now     func() time.Time
}

// NewAPI creates a new provenance API handler
func NewAPI(content SnapshotProvider, build version.Info, logger log.Logger) *API {
	if logger == nil {
		logger = log.Nop()
	}
	return &API{
		content: content,
		build:   build,
		logger:  logger,
		now:     time.Now,
	}
}

// RegisterRoutes attaches provenance endpoints to the router
func (api *API) RegisterRoutes(r chi.Router) {
	r.Get(ContentPath, api.HandleContentProvenance)
	r.Get(ContentSummaryPath, api.HandleContentSummary)
	r.Get(AppPath, api.HandleAppProvenance)
}

// ContentProvenanceResponse is the full provenance response
type ContentProvenanceResponse struct {
	// Bundle is the verification record captured when the snapshot loaded
	Bundle *content.Meta `json:"bundle,omitempty"`

	Runtime RuntimeInfo `json:"runtime"`
	Pages   []PageInfo  `json:"pages,omitempty"`

	// Error if provenance is unavailable
	Error string `json:"error,omitempty"`
}

// RuntimeInfo contains server-side runtime information
type RuntimeInfo struct {
	LoadedAt   time.Time      `json:"loaded_at"`
	ServerTime time.Time      `json:"server_time"`
	Source     content.Source `json:"source,omitempty"`
	Hash       string         `json:"hash,omitempty"`
	Version    string         `json:"version,omitempty"`
}

type PageInfo struct {
	Slug     string `json:"slug"`
	Title    string `json:"title,omitempty"`
	Sections int    `json:"sections"`
}

// ContentSummaryResponse is a lightweight summary for the UI
type ContentSummaryResponse struct {
	Version     string    `json:"version"`
	ContentHash string    `json:"content_hash"`
	Source      string    `json:"source"`
	Signed      bool      `json:"signed"`
	TotalPages  int       `json:"total_pages"`
	LoadedAt    time.Time `json:"loaded_at"`
}

// AppProvenanceResponse describes the running binary.
type AppProvenanceResponse struct {
	Build      version.Info `json:"build"`
	ServerTime time.Time    `json:"server_time"`
}

// HandleContentProvenance serves the full provenance data
func (api *API) HandleContentProvenance(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	serverTime := api.now().UTC().Truncate(time.Second)

	snap, ok := api.content.Get()
	if !ok {
		api.writeJSON(ctx, w, http.StatusServiceUnavailable, ContentProvenanceResponse{
			Runtime: RuntimeInfo{ServerTime: serverTime},
			Error:   "no content loaded",
		})
		return
	}

	meta := snap.Meta
	resp := ContentProvenanceResponse{
		Bundle: &meta,
		Runtime: RuntimeInfo{
			LoadedAt:   snap.LoadedAt.UTC().Truncate(time.Second),
			ServerTime: serverTime,
			Source:     snap.Meta.Source,
			Hash:       snap.Meta.SHA256,
			Version:    snap.Version(),
		},
		Pages: pageInfos(snap),
	}

	api.logger.Debug(ctx, "served content provenance",
		"version", resp.Runtime.Version,
		"hash", snap.Meta.SHA256,
	)

	api.writeJSON(ctx, w, http.StatusOK, resp)
}

// HandleContentSummary serves a lightweight summary for UI display
func (api *API) HandleContentSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	snap, ok := api.content.Get()
	if !ok {
		api.writeJSON(ctx, w, http.StatusServiceUnavailable, map[string]string{"error": "no content loaded"})
		return
	}

	resp := ContentSummaryResponse{
		Version:     snap.Version(),
		ContentHash: snap.Meta.SHA256,
		Source:      string(snap.Meta.Source),
		Signed:      snap.Meta.Signed,
		TotalPages:  len(snap.Pages),
		LoadedAt:    snap.LoadedAt.UTC().Truncate(time.Second),
	}

	api.logger.Debug(ctx, "served content summary",
		"version", resp.Version,
	)

	api.writeJSON(ctx, w, http.StatusOK, resp)
}

func (api *API) HandleAppProvenance(w http.ResponseWriter, r *http.Request) {
	api.writeJSON(r.Context(), w, http.StatusOK, AppProvenanceResponse{
		Build:      api.build,
		ServerTime: api.now().UTC().Truncate(time.Second),
	})
}

func pageInfos(snap *content.Snapshot) []PageInfo {
	out := make([]PageInfo, 0, len(snap.Pages))
	for slug, p := range snap.Pages {
		out = append(out, PageInfo{Slug: slug, Title: p.Title, Sections: len(p.Sections)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out
}

func (api *API) writeJSON(ctx context.Context, w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		api.logger.Warn(ctx, "failed to encode JSON response", "error", err)
	}
}
