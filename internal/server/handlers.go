package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	apperrors "github.com/astrohep/alpflux/internal/errors"
	"github.com/astrohep/alpflux/pkg/models"
)

// handleHealth responds to health check requests.
// It returns a 200 OK status with a JSON payload indicating the service
// is healthy.
//
// Parameters:
//   - w: The HTTP response writer.
//   - r: The HTTP request.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	response := map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().Unix(),
	}

	s.writeJSONResponse(w, http.StatusOK, response)
}

// handleScan processes scan requests. It decodes the JSON scan request
// from the body, runs the scan, and returns the per-energy results in
// JSON format.
//
// Parameters:
//   - w: The HTTP response writer.
//   - r: The HTTP request.
func (s *Server) handleScan(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := s.parseScanRequest(r)
	if err != nil {
		s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.timeouts.RequestTimeout)
	defer cancel()

	start := time.Now()
	resp, err := s.scanner.Scan(ctx, req)
	if err != nil {
		var cfgErr apperrors.ConfigError
		switch {
		case errors.As(err, &cfgErr):
			s.writeErrorResponse(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, context.DeadlineExceeded):
			s.writeErrorResponse(w, http.StatusGatewayTimeout, "scan exceeded the request timeout")
		default:
			s.logger.Error().Err(err).Msg("scan failed")
			s.writeErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	s.metrics.ObserveScanDuration(time.Since(start).Seconds())
	s.writeJSONResponse(w, http.StatusOK, resp)
}

// parseScanRequest decodes and bounds-checks the scan request body.
//
// Parameters:
//   - r: The HTTP request carrying the JSON body.
//
// Returns:
//   - models.ScanRequest: The decoded request.
//   - error: An error describing why the body was rejected.
func (s *Server) parseScanRequest(r *http.Request) (models.ScanRequest, error) {
	var req models.ScanRequest

	body := http.MaxBytesReader(nil, r.Body, s.limits.MaxBodyBytes)
	dec := json.NewDecoder(body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		return models.ScanRequest{}, fmt.Errorf("invalid scan request body: %w", err)
	}

	if len(req.EnergiesGeV) == 0 {
		return models.ScanRequest{}, errors.New("at least one energy is required")
	}
	if len(req.EnergiesGeV) > s.limits.MaxEnergies {
		return models.ScanRequest{}, fmt.Errorf(
			"energy grid exceeds the maximum of %d points. This limit prevents resource exhaustion",
			s.limits.MaxEnergies)
	}
	return req, nil
}

// writeJSONResponse helper function to write a JSON response with the
// correct content type.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - data: The data to be encoded as JSON.
func (s *Server) writeJSONResponse(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.logger.Error().Err(err).Msg("error encoding JSON response")
	}
}

// writeErrorResponse helper function to write a standardized error
// response.
//
// Parameters:
//   - w: The HTTP response writer.
//   - statusCode: The HTTP status code to write.
//   - message: The error message to be included in the response body.
func (s *Server) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	errResp := models.ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
	}
	s.writeJSONResponse(w, statusCode, errResp)
}
