package processing

import (
	"runtime"

	"golang.org/x/sys/cpu"
)

// Fixed-point Rec. 601 luma weights scaled by 256:
// Y = 0.299 R + 0.587 G + 0.114 B. Alpha is dropped.
const (
	lumaRed   = 77
	lumaGreen = 150
	lumaBlue  = 29
)

var useWideLuma = runtime.GOARCH == "amd64" && (cpu.X86.HasAVX2 || cpu.X86.HasSSE41)

// rgbaToGray converts a 4-channel frame into a single-channel intensity
// image. Rows are split across workers; the wide path and the generic
// path produce byte-identical output.
func rgbaToGray(src *Frame) *Gray {
	dst := newGray(src.Width, src.Height)
	forEachRowChunk(src.Height, func(start, end int) {
		if useWideLuma {
			grayRowsWide(dst.Pix, src.Pix, src.Width, start, end)
		} else {
			grayRows(dst.Pix, src.Pix, src.Width, start, end)
		}
	})
	return dst
}

func grayRows(dst, src []byte, width, startRow, endRow int) {
	for y := startRow; y < endRow; y++ {
		si := y * width * Channels
		di := y * width
		for x := 0; x < width; x++ {
			r := uint32(src[si])
			g := uint32(src[si+1])
			b := uint32(src[si+2])
			dst[di] = byte((lumaRed*r + lumaGreen*g + lumaBlue*b + 128) >> 8)
			si += Channels
			di++
		}
	}
}

// grayRowsWide converts four pixels per iteration with independent
// accumulators so the compiler can keep the lanes in vector registers on
// SIMD-capable CPUs.
func grayRowsWide(dst, src []byte, width, startRow, endRow int) {
	width4 := width &^ 3
	for y := startRow; y < endRow; y++ {
		si := y * width * Channels
		di := y * width
		for x := 0; x < width4; x += 4 {
			y0 := lumaRed*uint32(src[si]) + lumaGreen*uint32(src[si+1]) + lumaBlue*uint32(src[si+2]) + 128
			y1 := lumaRed*uint32(src[si+4]) + lumaGreen*uint32(src[si+5]) + lumaBlue*uint32(src[si+6]) + 128
			y2 := lumaRed*uint32(src[si+8]) + lumaGreen*uint32(src[si+9]) + lumaBlue*uint32(src[si+10]) + 128
			y3 := lumaRed*uint32(src[si+12]) + lumaGreen*uint32(src[si+13]) + lumaBlue*uint32(src[si+14]) + 128
			dst[di] = byte(y0 >> 8)
			dst[di+1] = byte(y1 >> 8)
			dst[di+2] = byte(y2 >> 8)
			dst[di+3] = byte(y3 >> 8)
			si += 4 * Channels
			di += 4
		}
		for x := width4; x < width; x++ {
			r := uint32(src[si])
			g := uint32(src[si+1])
			b := uint32(src[si+2])
			dst[di] = byte((lumaRed*r + lumaGreen*g + lumaBlue*b + 128) >> 8)
			si += Channels
			di++
		}
	}
}
