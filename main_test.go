package main

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/edgeviewer/frame-processing-service/processing"
)

func newTestState(t *testing.T) *AppState {
	t.Helper()
	pool := NewProcessorPool(1, false, 1<<20)
	t.Cleanup(pool.Close)
	return &AppState{
		Pool:   pool,
		Config: Config{PoolSize: 1},
	}
}

func redFrame(width, height int) []byte {
	data := make([]byte, width*height*processing.Channels)
	for i := 0; i < len(data); i += processing.Channels {
		data[i] = 255
		data[i+3] = 255
	}
	return data
}

func TestRawFrameRoundTrip(t *testing.T) {
	state := newTestState(t)
	router := newRouter(state)

	in := []byte{
		1, 2, 3, 4, 5, 6, 7, 8,
		9, 10, 11, 12, 13, 14, 15, 16,
	}
	req := httptest.NewRequest("POST", "/process-frame?width=2&height=2&edges=false", bytes.NewReader(in))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if !bytes.Equal(rec.Body.Bytes(), in) {
		t.Errorf("passthrough body = %v, want input bytes unchanged", rec.Body.Bytes())
	}
	if rec.Header().Get("X-Processing-Time-Ms") == "" {
		t.Error("missing X-Processing-Time-Ms header")
	}
}

func TestRawFrameLengthMismatchIsDropped(t *testing.T) {
	state := newTestState(t)
	router := newRouter(state)

	req := httptest.NewRequest("POST", "/process-frame?width=4&height=4", bytes.NewReader(make([]byte, 10)))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Code != "dropped_frame" {
		t.Errorf("error code = %q, want dropped_frame", resp.Code)
	}

	// A rejected frame must not advance the processing-time counter.
	req = httptest.NewRequest("GET", "/processing-time", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var timing struct {
		LastProcessingTimeMs int64 `json:"last_processing_time_ms"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &timing); err != nil {
		t.Fatalf("decoding timing body: %v", err)
	}
	if timing.LastProcessingTimeMs != 0 {
		t.Errorf("last_processing_time_ms = %d after only rejected calls, want 0", timing.LastProcessingTimeMs)
	}
}

func TestJSONFrameEdgeDetection(t *testing.T) {
	state := newTestState(t)
	router := newRouter(state)

	body, err := json.Marshal(map[string]interface{}{
		"frame":          base64.StdEncoding.EncodeToString(redFrame(4, 4)),
		"width":          4,
		"height":         4,
		"edge_detection": true,
	})
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest("POST", "/process-frame", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	var resp FrameResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}

	out, err := base64.StdEncoding.DecodeString(resp.Frame)
	if err != nil {
		t.Fatalf("decoding frame: %v", err)
	}
	if len(out) != 64 {
		t.Fatalf("output length = %d, want 64", len(out))
	}
	// A flat-color frame has no gradients, so the edge map is empty.
	for i := 0; i < len(out); i += processing.Channels {
		if out[i] != 0 || out[i+1] != 0 || out[i+2] != 0 || out[i+3] != 255 {
			t.Fatalf("pixel %d = %v, want [0 0 0 255]", i/processing.Channels, out[i:i+4])
		}
	}
	if resp.ProcessingTimeMs < 0 {
		t.Errorf("processing_time_ms = %d, want >= 0", resp.ProcessingTimeMs)
	}
}

func TestLegacyBitmapRouteNotImplemented(t *testing.T) {
	state := newTestState(t)
	router := newRouter(state)

	req := httptest.NewRequest("POST", "/process-bitmap", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotImplemented {
		t.Fatalf("status = %d, want 501", rec.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding error body: %v", err)
	}
	if resp.Code != "not_supported" {
		t.Errorf("error code = %q, want not_supported", resp.Code)
	}
}

func TestVersionRoute(t *testing.T) {
	state := newTestState(t)
	router := newRouter(state)

	req := httptest.NewRequest("GET", "/version", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	var resp struct {
		Library   string `json:"library"`
		Version   string `json:"version"`
		Available bool   `json:"available"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.Library != processing.EngineName || resp.Version != processing.EngineVersion {
		t.Errorf("got %s %s, want %s %s", resp.Library, resp.Version, processing.EngineName, processing.EngineVersion)
	}
	if !resp.Available {
		t.Error("available = false, want true")
	}
}

func TestMetricsRouteBalances(t *testing.T) {
	state := newTestState(t)
	router := newRouter(state)

	in := redFrame(2, 2)
	req := httptest.NewRequest("POST", "/process-frame?width=2&height=2&edges=false", bytes.NewReader(in))
	req.Header.Set("Content-Type", "application/octet-stream")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("process-frame status = %d", rec.Code)
	}

	req = httptest.NewRequest("GET", "/metrics", nil)
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	var resp struct {
		PoolSize        int   `json:"pool_size"`
		ProcessorsInUse int   `json:"processors_in_use"`
		TotalAcquired   int64 `json:"total_acquired"`
		TotalReleased   int64 `json:"total_released"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if resp.PoolSize != 1 {
		t.Errorf("pool_size = %d, want 1", resp.PoolSize)
	}
	if resp.TotalAcquired != 1 || resp.TotalReleased != 1 || resp.ProcessorsInUse != 0 {
		t.Errorf("counters = %+v, want one balanced acquire/release", resp)
	}
}

func TestHealthRoute(t *testing.T) {
	state := newTestState(t)
	router := newRouter(state)

	req := httptest.NewRequest("GET", "/healthz", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
}
