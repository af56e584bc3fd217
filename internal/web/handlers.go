package web

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/catalogimport/internal/core"
	"github.com/go-chi/chi/v5"
)

const defaultHistoryLimit = 50

// handleImport runs one bulk import from a multipart upload.
//
// The response carries the ImportResult. Status is 200 when at least one row
// was persisted and 400 otherwise.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "endpoint")
	if _, ok := s.service.Endpoint(key); !ok {
		s.respondError(w, r, fmt.Errorf("%w: %s", core.ErrUnknownEndpoint, key))
		return
	}

	maxSize := s.cfg.Import.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) || strings.Contains(err.Error(), "request body too large") {
			s.respondError(w, r, fmt.Errorf("%w: limit is %d bytes", core.ErrFileTooLarge, maxSize))
			return
		}
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, fmt.Errorf("%w: %v", core.ErrNoFile, err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, fmt.Errorf("read upload: %w", err))
		return
	}

	result, err := s.service.Import(r.Context(), key, header.Filename, data)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	status := http.StatusOK
	if result.ProcessedCount == 0 {
		status = http.StatusBadRequest
	}
	writeJSON(w, status, result)
}

// endpointInfo describes one import endpoint to clients building files.
type endpointInfo struct {
	Key        string      `json:"key"`
	Label      string      `json:"label"`
	Version    string      `json:"version"`
	Collection string      `json:"collection"`
	NaturalKey []string    `json:"naturalKey"`
	Headers    []string    `json:"headers"`
	Fields     []fieldInfo `json:"fields"`
}

type fieldInfo struct {
	Name      string   `json:"name"`
	Kind      string   `json:"kind"`
	Required  bool     `json:"required"`
	OnInvalid string   `json:"onInvalid"`
	Values    []int    `json:"values,omitempty"`
	Members   []string `json:"members,omitempty"`
}

func describeEndpoint(ep core.Endpoint) endpointInfo {
	headers := make([]string, 0, len(ep.Headers))
	for h := range ep.Headers {
		headers = append(headers, h)
	}
	sort.Strings(headers)

	fields := make([]fieldInfo, len(ep.Fields))
	for i, f := range ep.Fields {
		fields[i] = fieldInfo{
			Name:      f.Name,
			Kind:      f.Kind.String(),
			Required:  f.Required,
			OnInvalid: f.OnInvalid.String(),
			Values:    f.EnumValues,
			Members:   f.Members,
		}
	}

	return endpointInfo{
		Key:        ep.Key,
		Label:      ep.Label,
		Version:    ep.Version,
		Collection: ep.Collection,
		NaturalKey: ep.NaturalKey,
		Headers:    headers,
		Fields:     fields,
	}
}

func (s *Server) handleListEndpoints(w http.ResponseWriter, r *http.Request) {
	eps := s.service.Endpoints()
	out := make([]endpointInfo, len(eps))
	for i, ep := range eps {
		out[i] = describeEndpoint(ep)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "endpoint")

	limit := defaultHistoryLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{
				Message: "limit must be between 1 and 500",
				Error:   "invalid limit: " + v,
				Code:    "REQ001",
			})
			return
		}
		limit = n
	}

	runs, err := s.service.History(r.Context(), key, limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, runs)
}

type healthResponse struct {
	Status  string                   `json:"status"`
	Error   string                   `json:"error,omitempty"`
	Imports core.ImportLimiterStatus `json:"imports"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	resp := healthResponse{Status: "ok", Imports: s.service.LimiterStatus()}
	if err := s.service.Ping(ctx); err != nil {
		resp.Status = "unavailable"
		resp.Error = core.MapError(err).Message
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}
