package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/lf-pro/cro/internal/analysis"
	"github.com/lf-pro/cro/internal/experiment"
	"github.com/lf-pro/cro/internal/ingest"
)

type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptime_seconds"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:        "ok",
		UptimeSeconds: int64(time.Since(s.startTime).Seconds()),
	})
}

type errorResponse struct {
	Error string `json:"error"`
}

// requestError is a failure that maps to a specific HTTP status.
type requestError struct {
	status int
	err    error
}

func (e *requestError) Error() string {
	return e.err.Error()
}

func (e *requestError) Unwrap() error {
	return e.err
}

// handleAnalyze runs the requested methods on an uploaded file and returns
// the report. A report where every method failed is sent with 422.
func (s *Server) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	report, err := s.analyzeUpload(w, r, q.Get("method"), q.Get("seed"))
	if err != nil {
		var reqErr *requestError
		if errors.As(err, &reqErr) {
			writeJSON(w, reqErr.status, errorResponse{Error: reqErr.Error()})
			return
		}
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "analysis failed"})
		return
	}

	status := http.StatusOK
	if report.Failed() {
		status = http.StatusUnprocessableEntity
	}
	writeJSON(w, status, report)
}

// analyzeUpload reads the multipart "file" field, parses it and runs the
// analysis with the given method list and optional seed.
func (s *Server) analyzeUpload(w http.ResponseWriter, r *http.Request, methodParam, seedParam string) (*analysis.Report, error) {
	methods, err := analysis.ParseMethods(methodParam)
	if err != nil {
		return nil, &requestError{http.StatusBadRequest, err}
	}

	seed := s.seed
	if seedParam != "" {
		seed, err = strconv.ParseUint(seedParam, 10, 64)
		if err != nil {
			return nil, &requestError{http.StatusBadRequest, fmt.Errorf("invalid seed %q", seedParam)}
		}
	}

	table, err := s.readUpload(w, r)
	if err != nil {
		return nil, err
	}

	return s.runner.Run(r.Context(), table, analysis.Options{
		Methods: methods,
		Seed:    seed,
		Timeout: s.timeout,
	})
}

// parseUploadForm parses the multipart body once, bounded by the upload
// limit.
func (s *Server) parseUploadForm(w http.ResponseWriter, r *http.Request) error {
	if r.MultipartForm != nil {
		return nil
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.maxUpload)
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return &requestError{
				http.StatusRequestEntityTooLarge,
				fmt.Errorf("upload exceeds the %d byte limit", s.maxUpload),
			}
		}
		return &requestError{http.StatusBadRequest, fmt.Errorf("invalid multipart form: %w", err)}
	}
	return nil
}

func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (*experiment.Table, error) {
	if err := s.parseUploadForm(w, r); err != nil {
		return nil, err
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, &requestError{http.StatusBadRequest, errors.New("missing file field")}
	}
	defer file.Close()

	table, err := ingest.Read(file, header.Filename)
	if err != nil {
		return nil, &requestError{http.StatusBadRequest, err}
	}
	uploadBytes.Observe(float64(header.Size))

	s.log.Debug().
		Str("filename", header.Filename).
		Int("rows", len(table.Rows)).
		Str("variants", strings.Join(table.Variants(), ",")).
		Msg("upload parsed")

	return table, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
