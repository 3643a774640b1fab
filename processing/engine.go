package processing

import "fmt"

// detectEdges runs the fixed transform recipe on a 4-channel frame:
// grayscale conversion, 5x5 Gaussian blur, dual-threshold edge
// extraction, then recoloring back to RGBA. The result is a new frame of
// identical dimensions; src is never written. Deterministic for
// identical input bytes.
//
// Each stage's output dimensions are re-checked so a malformed
// intermediate surfaces as an error instead of an out-of-range panic in
// a later stage. The gateway degrades to a passthrough copy on error.
func detectEdges(src *Frame) (*Frame, error) {
	gray := rgbaToGray(src)
	if err := checkStage(gray, src); err != nil {
		return nil, fmt.Errorf("grayscale stage: %w", err)
	}

	blurred := gaussianBlur(gray)
	if err := checkStage(blurred, src); err != nil {
		return nil, fmt.Errorf("blur stage: %w", err)
	}

	edges := detectEdgeMap(blurred, LowThreshold, HighThreshold)
	if err := checkStage(edges, src); err != nil {
		return nil, fmt.Errorf("edge stage: %w", err)
	}

	return grayToRGBA(edges), nil
}

func checkStage(g *Gray, want *Frame) error {
	if g == nil || g.Width != want.Width || g.Height != want.Height || len(g.Pix) != g.Width*g.Height {
		return ErrDimensionMismatch
	}
	return nil
}

// grayToRGBA expands a single-channel image into a 4-channel frame by
// replicating the value into R, G and B. Alpha is forced fully opaque;
// the viewer composites edge frames directly over black.
func grayToRGBA(src *Gray) *Frame {
	dst := NewFrame(src.Width, src.Height)
	forEachRowChunk(src.Height, func(start, end int) {
		for y := start; y < end; y++ {
			si := y * src.Width
			di := si * Channels
			for x := 0; x < src.Width; x++ {
				v := src.Pix[si+x]
				dst.Pix[di] = v
				dst.Pix[di+1] = v
				dst.Pix[di+2] = v
				dst.Pix[di+3] = OpaqueAlpha
				di += Channels
			}
		}
	})
	return dst
}
