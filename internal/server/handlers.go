package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/kinforge/kinchart/pkg/cache"
	"github.com/kinforge/kinchart/pkg/chart"
	"github.com/kinforge/kinchart/pkg/dataset"
	"github.com/kinforge/kinchart/pkg/datastore"
	"github.com/kinforge/kinchart/pkg/kin"
	kcerrors "github.com/kinforge/kinchart/pkg/errors"
	"github.com/kinforge/kinchart/pkg/pipeline"
)

// maxBodySize caps request bodies. Family datasets are small; anything
// above this is almost certainly not one.
const maxBodySize = 16 << 20

// =============================================================================
// Charts
// =============================================================================

// chartRequest is the body of POST /api/charts. Exactly one of URL or
// Dataset must be set; Dataset is the raw document, passed to the
// parser untouched.
type chartRequest struct {
	URL     string          `json:"url,omitempty"`
	Dataset json.RawMessage `json:"dataset,omitempty"`

	Refresh     bool    `json:"refresh,omitempty"`
	Filter      string  `json:"filter,omitempty"`
	Orientation string  `json:"orientation,omitempty"`
	NodeWidth   float64 `json:"node_width,omitempty"`
	NodeHeight  float64 `json:"node_height,omitempty"`
	GapX        float64 `json:"gap_x,omitempty"`
	GapY        float64 `json:"gap_y,omitempty"`
}

func (cr *chartRequest) options() pipeline.Options {
	return pipeline.Options{
		URL:         cr.URL,
		Refresh:     cr.Refresh,
		Filter:      cr.Filter,
		Orientation: cr.Orientation,
		NodeWidth:   cr.NodeWidth,
		NodeHeight:  cr.NodeHeight,
		GapX:        cr.GapX,
		GapY:        cr.GapY,
	}
}

// chartResponse is the body of every chart-producing endpoint.
type chartResponse struct {
	Chart       *chart.Chart   `json:"chart"`
	DatasetHash string         `json:"dataset_hash"`
	Stats       chartStats     `json:"stats"`
	Cache       chartCacheInfo `json:"cache"`
}

type chartStats struct {
	People     int   `json:"people"`
	Units      int   `json:"units"`
	Connectors int   `json:"connectors"`
	LoadMs     int64 `json:"load_ms"`
	ComputeMs  int64 `json:"compute_ms"`
}

type chartCacheInfo struct {
	Dataset bool `json:"dataset"`
	Chart   bool `json:"chart"`
}

func chartResponseFrom(res *pipeline.Result) chartResponse {
	return chartResponse{
		Chart:       res.Chart,
		DatasetHash: res.DatasetHash,
		Stats: chartStats{
			People:     res.Stats.PersonCount,
			Units:      res.Stats.UnitCount,
			Connectors: res.Stats.ConnectorCount,
			LoadMs:     res.Stats.LoadTime.Milliseconds(),
			ComputeMs:  res.Stats.ComputeTime.Milliseconds(),
		},
		Cache: chartCacheInfo{
			Dataset: res.CacheInfo.DatasetHit,
			Chart:   res.CacheInfo.ChartHit,
		},
	}
}

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	var req chartRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, kcerrors.ErrCodeInvalidInput, err.Error())
		return
	}
	if (req.URL == "") == (len(req.Dataset) == 0) {
		writeError(w, http.StatusBadRequest, kcerrors.ErrCodeInvalidOptions,
			"exactly one of url or dataset must be provided")
		return
	}

	opts := req.options()
	opts.Logger = s.logger

	if req.URL != "" {
		if err := kcerrors.ValidateURL(req.URL); err != nil {
			writeDomainError(w, err)
			return
		}
		res, err := s.runner.Execute(r.Context(), opts)
		if err != nil {
			writeDomainError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, chartResponseFrom(res))
		return
	}

	res, err := s.chartFromDocument(r, req.Dataset, opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chartResponseFrom(res))
}

// chartFromDocument runs the compute half of the pipeline on a raw
// document that never passed through the fetch path. The document's
// content hash still keys the chart cache, so identical uploads share
// cached charts.
func (s *Server) chartFromDocument(r *http.Request, doc []byte, opts pipeline.Options) (*pipeline.Result, error) {
	loadStart := time.Now()
	store, err := readDocument(doc)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(loadStart)

	opts.SetComputeDefaults()
	opts.Logger = s.logger

	computeStart := time.Now()
	out, hit, err := s.runner.ComputeWithCacheInfo(r.Context(), store, cache.Hash(doc), opts)
	if err != nil {
		return nil, err
	}

	res := &pipeline.Result{
		Store:       store,
		Chart:       out.Chart,
		DatasetHash: cache.Hash(doc),
	}
	res.Stats.PersonCount = store.Len()
	res.Stats.UnitCount = len(out.Chart.Nodes)
	res.Stats.ConnectorCount = len(out.Chart.Connectors)
	res.Stats.SpousePasses = out.SpousePasses
	res.Stats.LoadTime = loadTime
	res.Stats.ComputeTime = time.Since(computeStart)
	res.CacheInfo.ChartHit = hit
	if !hit {
		res.Store = out.Store
		res.Generations = out.Generations
	}
	return res, nil
}

// =============================================================================
// Datasets
// =============================================================================

// datasetUploadRequest is the body of POST /api/datasets.
type datasetUploadRequest struct {
	Name     string          `json:"name"`
	Document json.RawMessage `json:"document"`
}

func (s *Server) handleDatasetUpload(w http.ResponseWriter, r *http.Request) {
	var req datasetUploadRequest
	if err := decodeBody(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, kcerrors.ErrCodeInvalidInput, err.Error())
		return
	}
	if len(req.Document) == 0 {
		writeError(w, http.StatusBadRequest, kcerrors.ErrCodeInvalidInput, "document is required")
		return
	}

	// Reject documents the parser cannot make anything of before
	// persisting them.
	if _, err := readDocument(req.Document); err != nil {
		writeDomainError(w, err)
		return
	}

	now := time.Now().UTC()
	d := datastore.Dataset{
		ID:        datastore.NewID(),
		Name:      req.Name,
		Document:  req.Document,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.store.Put(r.Context(), d); err != nil {
		writeDomainError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, map[string]any{
		"id":         d.ID,
		"name":       d.Name,
		"created_at": d.CreatedAt,
	})
}

func (s *Server) handleDatasetList(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.List(r.Context())
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if list == nil {
		list = []datastore.Dataset{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"datasets": list})
}

func (s *Server) handleDatasetGet(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			writeError(w, http.StatusNotFound, kcerrors.ErrCodeDatasetNotFound, "dataset not found")
			return
		}
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleDatasetDelete(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			writeError(w, http.StatusNotFound, kcerrors.ErrCodeDatasetNotFound, "dataset not found")
			return
		}
		writeDomainError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleDatasetChart computes a chart for a stored dataset. Layout
// options come from query parameters so charts are a plain GET.
func (s *Server) handleDatasetChart(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, datastore.ErrNotFound) {
			writeError(w, http.StatusNotFound, kcerrors.ErrCodeDatasetNotFound, "dataset not found")
			return
		}
		writeDomainError(w, err)
		return
	}

	opts, err := optionsFromQuery(r)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	res, err := s.chartFromDocument(r, d.Document, opts)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, chartResponseFrom(res))
}

// optionsFromQuery reads layout options from the query string.
// Unknown parameters are ignored; malformed numbers are not.
func optionsFromQuery(r *http.Request) (pipeline.Options, error) {
	q := r.URL.Query()
	opts := pipeline.Options{
		Orientation: q.Get("orientation"),
		Filter:      q.Get("filter"),
		Refresh:     q.Get("refresh") == "true",
	}

	for _, p := range []struct {
		name string
		dst  *float64
	}{
		{"node_width", &opts.NodeWidth},
		{"node_height", &opts.NodeHeight},
		{"gap_x", &opts.GapX},
		{"gap_y", &opts.GapY},
	} {
		raw := q.Get(p.name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return opts, kcerrors.New(kcerrors.ErrCodeInvalidOptions, "%s must be a number", p.name)
		}
		*p.dst = v
	}
	return opts, nil
}

// =============================================================================
// Helpers
// =============================================================================

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize))
	return dec.Decode(v)
}

// readDocument parses a raw dataset document into a person store.
func readDocument(doc []byte) (*kin.Store, error) {
	s, err := dataset.Read(bytes.NewReader(doc))
	if err != nil {
		return nil, kcerrors.Wrap(kcerrors.ErrCodeInvalidDataset, err, "dataset could not be parsed")
	}
	return s, nil
}
