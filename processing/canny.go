package processing

import "math"

// Quantized gradient directions for non-maximum suppression.
const (
	dirHorizontal = iota // east-west
	dirDiagonalNE        // northeast-southwest
	dirVertical          // north-south
	dirDiagonalNW        // northwest-southeast
)

const (
	classNone = iota
	classWeak
	classStrong
)

// detectEdgeMap extracts a binary edge map from a smoothed intensity
// image: Sobel gradients, 4-direction non-maximum suppression, double
// thresholding and 8-connected hysteresis. Every output pixel is either
// NonEdgeValue or EdgeValue. The one-pixel border is always NonEdgeValue
// since no full gradient neighborhood exists there.
func detectEdgeMap(src *Gray, low, high float64) *Gray {
	width, height := src.Width, src.Height
	dst := newGray(width, height)
	if width < 3 || height < 3 {
		return dst
	}

	mag := make([]float64, width*height)
	dir := make([]uint8, width*height)

	// Sobel gradients.
	forEachRowChunk(height, func(start, end int) {
		for y := start; y < end; y++ {
			if y == 0 || y == height-1 {
				continue
			}
			up := (y - 1) * width
			mid := y * width
			down := (y + 1) * width
			for x := 1; x < width-1; x++ {
				p := src.Pix
				gx := -float64(p[up+x-1]) + float64(p[up+x+1]) +
					-2*float64(p[mid+x-1]) + 2*float64(p[mid+x+1]) +
					-float64(p[down+x-1]) + float64(p[down+x+1])
				gy := -float64(p[up+x-1]) - 2*float64(p[up+x]) - float64(p[up+x+1]) +
					float64(p[down+x-1]) + 2*float64(p[down+x]) + float64(p[down+x+1])
				mag[mid+x] = math.Hypot(gx, gy)
				dir[mid+x] = quantizeDirection(gx, gy)
			}
		}
	})

	// Non-maximum suppression and double threshold.
	class := make([]uint8, width*height)
	forEachRowChunk(height, func(start, end int) {
		for y := start; y < end; y++ {
			if y == 0 || y == height-1 {
				continue
			}
			for x := 1; x < width-1; x++ {
				i := y*width + x
				m := mag[i]
				if m < low {
					continue
				}
				var n1, n2 float64
				switch dir[i] {
				case dirHorizontal:
					n1, n2 = mag[i-1], mag[i+1]
				case dirDiagonalNE:
					n1, n2 = mag[i-width+1], mag[i+width-1]
				case dirVertical:
					n1, n2 = mag[i-width], mag[i+width]
				default: // dirDiagonalNW
					n1, n2 = mag[i-width-1], mag[i+width+1]
				}
				if m < n1 || m < n2 {
					continue
				}
				if m >= high {
					class[i] = classStrong
				} else {
					class[i] = classWeak
				}
			}
		}
	})

	// Hysteresis: weak pixels survive only when 8-connected to a strong
	// pixel, directly or through other surviving weak pixels.
	stack := make([]int, 0, width)
	for i, c := range class {
		if c == classStrong {
			dst.Pix[i] = EdgeValue
			stack = append(stack, i)
		}
	}
	for len(stack) > 0 {
		i := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		x := i % width
		y := i / width
		for dy := -1; dy <= 1; dy++ {
			ny := y + dy
			if ny < 0 || ny >= height {
				continue
			}
			for dx := -1; dx <= 1; dx++ {
				nx := x + dx
				if nx < 0 || nx >= width {
					continue
				}
				j := ny*width + nx
				if class[j] == classWeak && dst.Pix[j] == NonEdgeValue {
					dst.Pix[j] = EdgeValue
					stack = append(stack, j)
				}
			}
		}
	}

	return dst
}

func quantizeDirection(gx, gy float64) uint8 {
	angle := math.Atan2(gy, gx) * 180 / math.Pi
	if angle < 0 {
		angle += 180
	}
	switch {
	case angle < 22.5 || angle >= 157.5:
		return dirHorizontal
	case angle < 67.5:
		return dirDiagonalNE
	case angle < 112.5:
		return dirVertical
	default:
		return dirDiagonalNW
	}
}
