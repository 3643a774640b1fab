package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/edgeviewer/frame-processing-service/models"
	"github.com/edgeviewer/frame-processing-service/processing"
)

var debugMode bool

var errProcessorUnavailable = errors.New("no processor available")

func logTimings(t *models.ProcessingTimings) {
	if debugMode {
		log.Printf("[DEBUG] RequestID: %s - Processing times:\n"+
			"\tValidate:  %v\n"+
			"\tWrap:      %v\n"+
			"\tTransform: %v\n"+
			"\tSerialize: %v\n"+
			"\tTotal:     %v",
			t.RequestID,
			t.Validate,
			t.Wrap,
			t.Transform,
			t.Serialize,
			t.Total)
	}
}

type AppState struct {
	Pool   *ProcessorPool
	Config Config

	// Last processing time across the whole pool, fed by handlers after
	// each successful call.
	lastProcessingMs atomic.Int64
}

type FrameResponse struct {
	Frame            string `json:"frame"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	EdgeDetection    bool   `json:"edge_detection"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
}

type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}

func main() {
	// Add basic logging
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	cfg := loadConfig()
	debugMode = cfg.Debug

	pool := NewProcessorPool(cfg.PoolSize, cfg.Debug, cfg.MaxPixels)
	defer pool.Close()

	state := &AppState{Pool: pool, Config: cfg}
	r := newRouter(state)

	srv := &http.Server{
		Handler:      r,
		Addr:         cfg.Addr,
		WriteTimeout: 60 * time.Second,
		ReadTimeout:  60 * time.Second,
	}

	log.Printf("Starting server on %s (engine %s %s)", srv.Addr, processing.EngineName, processing.EngineVersion)
	log.Fatal(srv.ListenAndServe())
}

func newRouter(state *AppState) *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/process-frame", handleProcessFrame(state)).Methods("POST")
	r.HandleFunc("/process-bitmap", handleProcessBitmap).Methods("POST")
	r.HandleFunc("/processing-time", state.handleProcessingTime).Methods("GET")
	r.HandleFunc("/version", handleVersion).Methods("GET")
	r.HandleFunc("/healthz", handleHealth).Methods("GET")
	state.addMonitoringRoutes(r)
	// The viewer's catch-all must come after the API routes.
	addViewerRoutes(r)
	return r
}

func handleProcessFrame(state *AppState) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		startTotal := time.Now()
		timings := &models.ProcessingTimings{RequestID: uuid.NewString()}

		contentType := r.Header.Get("Content-Type")
		switch {
		case strings.HasPrefix(contentType, "multipart/form-data"):
			handleEncodedFrame(state, w, r, timings, startTotal)
		case strings.HasPrefix(contentType, "application/json"):
			handleJSONFrame(state, w, r, timings, startTotal)
		default:
			handleRawFrame(state, w, r, timings, startTotal)
		}
	}
}

// handleRawFrame processes an application/octet-stream body of raw RGBA
// bytes, with dimensions and the edge flag taken from query parameters,
// and responds with raw RGBA bytes.
func handleRawFrame(state *AppState, w http.ResponseWriter, r *http.Request, timings *models.ProcessingTimings, startTotal time.Time) {
	data, err := io.ReadAll(r.Body)
	if err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}

	width, height, edges, err := frameParams(r.URL.Query().Get)
	if err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}

	out, ms, err := state.runFrame(r.Context(), data, width, height, edges, timings)
	if err != nil {
		sendProcessingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "application/octet-stream")
	w.Header().Set("X-Processing-Time-Ms", strconv.FormatInt(ms, 10))
	w.Write(out)

	timings.Total = time.Since(startTotal)
	logTimings(timings)
}

// handleJSONFrame processes a JSON request carrying a base64 raw RGBA
// frame and responds in kind.
func handleJSONFrame(state *AppState, w http.ResponseWriter, r *http.Request, timings *models.ProcessingTimings, startTotal time.Time) {
	var req struct {
		Frame         string `json:"frame"`
		Width         int    `json:"width"`
		Height        int    `json:"height"`
		EdgeDetection *bool  `json:"edge_detection"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}

	data, err := base64.StdEncoding.DecodeString(req.Frame)
	if err != nil {
		sendErrorResponse(w, "invalid_request", "frame is not valid base64", "", http.StatusBadRequest)
		return
	}

	edges := true
	if req.EdgeDetection != nil {
		edges = *req.EdgeDetection
	}

	out, ms, err := state.runFrame(r.Context(), data, req.Width, req.Height, edges, timings)
	if err != nil {
		sendProcessingError(w, err)
		return
	}

	response := FrameResponse{
		Frame:            base64.StdEncoding.EncodeToString(out),
		Width:            req.Width,
		Height:           req.Height,
		EdgeDetection:    edges,
		ProcessingTimeMs: ms,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)

	timings.Total = time.Since(startTotal)
	logTimings(timings)
}

// handleEncodedFrame processes a multipart upload of an encoded image
// (PNG/JPEG), optionally downscaled, and responds with a PNG.
func handleEncodedFrame(state *AppState, w http.ResponseWriter, r *http.Request, timings *models.ProcessingTimings, startTotal time.Time) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}
	defer file.Close()

	raw, err := io.ReadAll(file)
	if err != nil {
		sendErrorResponse(w, "invalid_request", err.Error(), "", http.StatusBadRequest)
		return
	}

	img, err := decodeImage(raw)
	if err != nil {
		sendErrorResponse(w, "invalid_image", "Failed to decode image", "", http.StatusBadRequest)
		return
	}

	if v := r.FormValue("max_width"); v != "" {
		maxWidth, err := strconv.Atoi(v)
		if err != nil || maxWidth <= 0 {
			sendErrorResponse(w, "invalid_request", "max_width must be a positive integer", "", http.StatusBadRequest)
			return
		}
		img = downscale(img, maxWidth)
	}

	edges := true
	if v := r.FormValue("edges"); v != "" {
		edges, err = strconv.ParseBool(v)
		if err != nil {
			sendErrorResponse(w, "invalid_request", "edges must be a boolean", "", http.StatusBadRequest)
			return
		}
	}

	data, width, height := rgbaBytes(img)
	out, ms, err := state.runFrame(r.Context(), data, width, height, edges, timings)
	if err != nil {
		sendProcessingError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("X-Processing-Time-Ms", strconv.FormatInt(ms, 10))
	if err := encodePNG(w, out, width, height); err != nil {
		log.Printf("encoding response image: %v", err)
	}

	timings.Total = time.Since(startTotal)
	logTimings(timings)
}

// runFrame acquires a processor, runs the gateway and publishes the
// call's processing time to the app-wide counter.
func (s *AppState) runFrame(ctx context.Context, data []byte, width, height int, edges bool, timings *models.ProcessingTimings) ([]byte, int64, error) {
	proc, err := s.Pool.Acquire(ctx)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %v", errProcessorUnavailable, err)
	}
	defer s.Pool.Release(proc)

	out, err := proc.ProcessFrameTimed(data, width, height, edges, timings)
	if err != nil {
		return nil, 0, err
	}

	ms := proc.LastProcessingTimeMs()
	s.lastProcessingMs.Store(ms)
	return out, ms, nil
}

func handleProcessBitmap(w http.ResponseWriter, _ *http.Request) {
	// Mirrors the legacy bitmap-object library entry point: documented,
	// never implemented.
	log.Printf("legacy /process-bitmap called")
	sendErrorResponse(w, "not_supported", processing.ErrNotSupported.Error(), MsgLegacyBitmap, http.StatusNotImplemented)
}

func (s *AppState) handleProcessingTime(w http.ResponseWriter, _ *http.Request) {
	response := map[string]interface{}{
		"last_processing_time_ms": s.lastProcessingMs.Load(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleVersion(w http.ResponseWriter, _ *http.Request) {
	var probe processing.Processor
	response := map[string]interface{}{
		"library":   processing.EngineName,
		"version":   probe.Version(),
		"available": probe.Available(),
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *AppState) addMonitoringRoutes(r *mux.Router) {
	r.HandleFunc("/metrics", s.handleMetrics).Methods("GET")
}

func (s *AppState) handleMetrics(w http.ResponseWriter, _ *http.Request) {
	metrics := s.Pool.Metrics()
	response := map[string]interface{}{
		"pool_size":         s.Pool.size,
		"processors_in_use": metrics.InUse,
		"total_acquired":    metrics.TotalAcquired,
		"total_released":    metrics.TotalReleased,
		"acquire_failures":  metrics.AcquireFailures,
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}

func frameParams(get func(string) string) (width, height int, edges bool, err error) {
	width, err = strconv.Atoi(get("width"))
	if err != nil {
		return 0, 0, false, fmt.Errorf("width: %w", err)
	}
	height, err = strconv.Atoi(get("height"))
	if err != nil {
		return 0, 0, false, fmt.Errorf("height: %w", err)
	}
	edges = true
	if v := get("edges"); v != "" {
		edges, err = strconv.ParseBool(v)
		if err != nil {
			return 0, 0, false, fmt.Errorf("edges: %w", err)
		}
	}
	return width, height, edges, nil
}

// sendProcessingError maps gateway failures to HTTP status codes. A
// rejected frame is a dropped frame from the viewer's perspective, never
// a crash.
func sendProcessingError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, processing.ErrSizeMismatch),
		errors.Is(err, processing.ErrInvalidDimensions),
		errors.Is(err, processing.ErrDimensionMismatch):
		sendErrorResponse(w, "dropped_frame", err.Error(), MsgFrameDropped, http.StatusBadRequest)
	case errors.Is(err, processing.ErrFrameTooLarge):
		sendErrorResponse(w, "frame_too_large", err.Error(), MsgFrameTooLarge, http.StatusRequestEntityTooLarge)
	case errors.Is(err, errProcessorUnavailable):
		sendErrorResponse(w, "processor_unavailable", err.Error(), "", http.StatusServiceUnavailable)
	default:
		sendErrorResponse(w, "processing_error", err.Error(), "", http.StatusInternalServerError)
	}
}

func sendErrorResponse(w http.ResponseWriter, code, message, details string, status int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(ErrorResponse{
		Code:    code,
		Message: message,
		Details: details,
	})
}
