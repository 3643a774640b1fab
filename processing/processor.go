package processing

import (
	"fmt"
	"image"
	"log"
	"time"

	"github.com/edgeviewer/frame-processing-service/models"
)

// Processor is the frame-processing gateway. It validates an incoming
// buffer against the caller-declared dimensions, wraps it as a zero-copy
// frame view, runs the transform engine (or a passthrough copy),
// serializes the result into a fresh buffer and records the elapsed
// wall-clock time of the call.
//
// A Processor assumes at most one in-flight ProcessFrame call; callers
// with multiple concurrent streams should use one Processor per stream,
// or a pool.
type Processor struct {
	// Debug enables per-step diagnostic logging.
	Debug bool

	// MaxPixels caps width*height per frame. Zero means no limit.
	MaxPixels int

	lastProcessingMs int64
}

func NewProcessor() *Processor {
	return &Processor{}
}

// ProcessFrame transforms one raw RGBA frame. data must be exactly
// width*height*4 bytes of row-major RGBA pixels; it is borrowed
// read-only for the duration of the call and never mutated. The returned
// buffer is freshly allocated and owned by the caller.
//
// A nil result with a non-nil error means the frame was rejected and
// should be dropped by the caller; no partial output is ever produced.
func (p *Processor) ProcessFrame(data []byte, width, height int, applyEdgeDetection bool) ([]byte, error) {
	return p.ProcessFrameTimed(data, width, height, applyEdgeDetection, nil)
}

// ProcessFrameTimed is ProcessFrame with per-stage timings recorded into
// timings, which may be nil.
func (p *Processor) ProcessFrameTimed(data []byte, width, height int, applyEdgeDetection bool, timings *models.ProcessingTimings) ([]byte, error) {
	if timings == nil {
		timings = &models.ProcessingTimings{}
	}

	// Length gate first: a rejected frame must not allocate anything and
	// must leave the last-processing-time state untouched.
	validateStart := time.Now()
	if width <= 0 || height <= 0 {
		log.Printf("rejecting frame: invalid dimensions %dx%d", width, height)
		return nil, ErrInvalidDimensions
	}
	if p.MaxPixels > 0 && width*height > p.MaxPixels {
		log.Printf("rejecting frame: %dx%d exceeds pixel limit %d", width, height, p.MaxPixels)
		return nil, fmt.Errorf("%w: %dx%d > %d pixels", ErrFrameTooLarge, width, height, p.MaxPixels)
	}
	expected := width * height * Channels
	if len(data) != expected {
		log.Printf("rejecting frame: length mismatch, got %d bytes, want %d", len(data), expected)
		return nil, fmt.Errorf("%w: got %d bytes, want %d", ErrSizeMismatch, len(data), expected)
	}
	timings.Validate = time.Since(validateStart)

	// The recorded processing time spans wrap through serialize.
	start := time.Now()

	// Zero-copy view over the caller's bytes.
	wrapStart := time.Now()
	view, err := NewFrameView(data, width, height)
	if err != nil {
		log.Printf("rejecting frame: %v", err)
		return nil, err
	}
	// Re-check the constructed view against the request. Structurally
	// impossible to fail after the length gate, but cheap.
	if view.Width != width || view.Height != height || len(view.Pix) != expected {
		log.Printf("rejecting frame: view reports %dx%d/%d bytes, want %dx%d/%d",
			view.Width, view.Height, len(view.Pix), width, height, expected)
		return nil, ErrDimensionMismatch
	}
	timings.Wrap = time.Since(wrapStart)

	transformStart := time.Now()
	var result *Frame
	if applyEdgeDetection {
		p.logf("applying edge detection to %dx%d frame", width, height)
		result, err = detectEdges(view)
		if err != nil {
			// A failed recipe degrades to a passthrough copy; the caller
			// still gets a valid same-size frame.
			log.Printf("edge detection failed, falling back to passthrough: %v", err)
			result = view.Clone()
		}
	} else {
		p.logf("passthrough mode: %dx%d frame", width, height)
		result = view.Clone()
	}
	timings.Transform = time.Since(transformStart)

	// Serialize into a fresh output buffer. The view over the input is
	// dropped here without ever having been written.
	serializeStart := time.Now()
	out := result.Bytes()
	timings.Serialize = time.Since(serializeStart)

	p.lastProcessingMs = time.Since(start).Milliseconds()
	p.logf("frame processed in %d ms", p.lastProcessingMs)

	return out, nil
}

// LastProcessingTimeMs reports the duration of the most recently
// completed ProcessFrame call in whole milliseconds, or zero before the
// first call. Rejected frames do not change it.
func (p *Processor) LastProcessingTimeMs() int64 {
	return p.lastProcessingMs
}

// Version reports the transform engine's version string.
func (p *Processor) Version() string {
	return EngineVersion
}

// Available reports whether the transform engine is usable. The engine
// is pure Go with no runtime dependencies, so this is always true; the
// method exists for callers that probe before streaming.
func (p *Processor) Available() bool {
	return true
}

// ProcessBitmaps is the legacy bitmap-object entry point. It has never
// been implemented: it logs the invocation and returns ErrNotSupported
// so callers cannot mistake it for working functionality. Use
// ProcessFrame with a raw RGBA buffer instead.
func (p *Processor) ProcessBitmaps(src, dst image.Image) error {
	log.Printf("legacy ProcessBitmaps called (%T -> %T): not supported", src, dst)
	return ErrNotSupported
}

func (p *Processor) logf(format string, args ...interface{}) {
	if p.Debug {
		log.Printf(format, args...)
	}
}
