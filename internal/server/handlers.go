package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/MeKo-Tech/printkit/internal/barcode"
	"github.com/MeKo-Tech/printkit/internal/batch"
	"github.com/MeKo-Tech/printkit/internal/numbering"
	"github.com/MeKo-Tech/printkit/internal/tone"
	"github.com/MeKo-Tech/printkit/internal/version"
)

// healthHandler returns server health status.
func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	s.writeJSON(w, http.StatusOK, HealthResponse{
		Status:  "healthy",
		Version: version.Version,
		Time:    time.Now().UTC().Format(time.RFC3339),
	})
}

// ean13Handler encodes a single code given as ?code= or a JSON body.
func (s *Server) ean13Handler(w http.ResponseWriter, r *http.Request) {
	var code string
	switch r.Method {
	case http.MethodGet:
		code = r.URL.Query().Get("code")
	case http.MethodPost:
		var req EAN13Request
		if err := s.decodeJSON(w, r, &req); err != nil {
			s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
			return
		}
		code = req.Code
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	res, err := encodeEAN13(code)
	recordEncode("http", err == nil)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	if res.Mismatch && s.batchConfig.WarnMismatch {
		slog.Warn("Supplied check digit differs from computed one", "input", code, "code", res.Code)
	}

	s.writeJSON(w, http.StatusOK, EAN13Response{Success: true, Result: res})
}

// batchHandler encodes a list of codes and renders them in the requested format.
func (s *Server) batchHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req BatchRequest
	if err := s.decodeJSON(w, r, &req); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	format := req.Format
	if format == "" {
		format = batch.FormatJSON
	}
	if err := batch.ValidateFormat(format); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	res, status, err := s.runBatch(r, req.Codes, "batch")
	if err != nil {
		s.writeErrorResponse(w, err.Error(), status)
		return
	}

	output, err := res.Format(format)
	if err != nil {
		s.writeErrorResponse(w, "Failed to format results", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentTypeFor(format))
	w.Header().Set("X-Batch-ID", res.ID)
	if _, err := io.WriteString(w, output); err != nil {
		slog.Error("Error writing batch response", "error", err)
	}
}

// runBatch validates the batch size and encodes codes with the server's batch settings.
// On failure it returns the HTTP status to report.
func (s *Server) runBatch(r *http.Request, codes []string, source string) (*batch.Result, int, error) {
	if len(codes) == 0 {
		return nil, http.StatusBadRequest, batch.ErrNoCodes
	}
	if len(codes) > s.maxBatchSize {
		return nil, http.StatusRequestEntityTooLarge,
			fmt.Errorf("batch of %d codes exceeds limit of %d", len(codes), s.maxBatchSize)
	}
	batchSize.Observe(float64(len(codes)))

	res, err := batch.Process(r.Context(), codes, s.batchConfig)
	if err != nil {
		recordEncode(source, false)
		if errors.Is(err, barcode.ErrInvalidInput) {
			return nil, http.StatusBadRequest, err
		}
		return nil, http.StatusInternalServerError, err
	}
	for _, it := range res.Items {
		recordEncode(source, it.OK())
	}
	return res, http.StatusOK, nil
}

// numberingHandler returns a numbering plan as CSV, or as JSON with ?format=json.
func (s *Server) numberingHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	cfg := numbering.DefaultConfig()
	if err := s.decodeJSON(w, r, &cfg); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, err := numbering.NewPlan(cfg)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	if r.URL.Query().Get("format") == batch.FormatJSON {
		resp := NumberingResponse{
			Sheets:   plan.Sheets,
			Final:    plan.Final,
			End:      plan.End,
			Blocks:   plan.Blocks,
			Adjusted: plan.Adjusted,
			Summary:  plan.Summary(),
			Rows:     plan.Rows(),
		}
		if cfg.Placeholders {
			resp.Header = plan.Header()
		}
		s.writeJSON(w, http.StatusOK, resp)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="numbering.csv"`)
	if err := plan.WriteCSV(w); err != nil {
		slog.Error("Error writing numbering CSV", "error", err)
	}
}

// toneHandler builds the ffmpeg command for the requested tone.
func (s *Server) toneHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	p := tone.DefaultParams()
	if err := s.decodeJSON(w, r, &p); err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	expr, err := tone.Expression(p)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	command, err := tone.Command(p)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}
	args, err := tone.Args(p)
	if err != nil {
		s.writeErrorResponse(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.writeJSON(w, http.StatusOK, ToneResponse{Expression: expr, Command: command, Args: args})
}

// encodeEAN13 inspects and encodes one code.
func encodeEAN13(code string) (*EAN13Result, error) {
	d, err := barcode.InspectEAN13(code)
	if err != nil {
		return nil, err
	}
	symbols, err := barcode.EncodeEAN13(code)
	if err != nil {
		return nil, err
	}
	return &EAN13Result{
		Input:    strings.TrimSpace(code),
		Payload:  d.Payload,
		Checksum: d.Checksum,
		Pattern:  d.Pattern,
		Code:     d.Code,
		Symbols:  symbols.String(),
		Mismatch: d.Mismatch,
	}, nil
}

// decodeJSON reads a size-limited JSON body into v.
func (s *Server) decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return fmt.Errorf("request body exceeds %d bytes", maxErr.Limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

func contentTypeFor(format string) string {
	switch format {
	case batch.FormatCSV:
		return "text/csv"
	case batch.FormatYAML:
		return "application/yaml"
	case batch.FormatText:
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// writeJSON writes v as a JSON response.
func (s *Server) writeJSON(w http.ResponseWriter, statusCode int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		// Log error, but can't send another response
		slog.Error("Error encoding response", "error", err)
	}
}

// writeErrorResponse writes a JSON error response.
func (s *Server) writeErrorResponse(w http.ResponseWriter, message string, statusCode int) {
	s.writeJSON(w, statusCode, ErrorResponse{Success: false, Error: message})
}
