package processing

import "math"

var blurKernel = gaussianKernel(BlurKernelSize, BlurSigma)

// gaussianKernel builds a normalized 1-D Gaussian kernel of odd size.
func gaussianKernel(size int, sigma float64) []float64 {
	radius := size / 2
	kernel := make([]float64, size)
	sum := 0.0
	for i := -radius; i <= radius; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+radius] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// gaussianBlur applies the 5x5 blur as two separable 1-D passes with
// clamped borders. The input is not modified.
func gaussianBlur(src *Gray) *Gray {
	width, height := src.Width, src.Height
	radius := BlurKernelSize / 2
	tmp := newGray(width, height)
	dst := newGray(width, height)

	// Horizontal pass.
	forEachRowChunk(height, func(start, end int) {
		for y := start; y < end; y++ {
			row := src.Pix[y*width : (y+1)*width]
			out := tmp.Pix[y*width : (y+1)*width]
			for x := 0; x < width; x++ {
				acc := 0.0
				for k := -radius; k <= radius; k++ {
					acc += blurKernel[k+radius] * float64(row[clampInt(x+k, 0, width-1)])
				}
				out[x] = byte(acc + 0.5)
			}
		}
	})

	// Vertical pass.
	forEachRowChunk(height, func(start, end int) {
		for y := start; y < end; y++ {
			for x := 0; x < width; x++ {
				acc := 0.0
				for k := -radius; k <= radius; k++ {
					yy := clampInt(y+k, 0, height-1)
					acc += blurKernel[k+radius] * float64(tmp.Pix[yy*width+x])
				}
				dst.Pix[y*width+x] = byte(acc + 0.5)
			}
		}
	})

	return dst
}
