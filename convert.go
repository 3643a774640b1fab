package main

import (
	"bytes"
	"image"
	"image/draw"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/disintegration/imaging"

	"github.com/edgeviewer/frame-processing-service/processing"
)

func decodeImage(data []byte) (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// downscale resizes img to at most maxWidth pixels wide, preserving the
// aspect ratio. Images already narrow enough pass through untouched.
func downscale(img image.Image, maxWidth int) image.Image {
	if img.Bounds().Dx() <= maxWidth {
		return img
	}
	return imaging.Resize(img, maxWidth, 0, imaging.Linear)
}

// rgbaBytes flattens an image into the gateway's wire layout: row-major
// RGBA, 4 bytes per pixel, no padding.
func rgbaBytes(img image.Image) ([]byte, int, int) {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	if rgba, ok := img.(*image.RGBA); ok &&
		rgba.Stride == width*processing.Channels &&
		rgba.Rect.Min == (image.Point{}) {
		return rgba.Pix, width, height
	}

	rgba := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba.Pix, width, height
}

// encodePNG wraps a processed buffer back into an image and encodes it.
func encodePNG(w io.Writer, pix []byte, width, height int) error {
	img := &image.RGBA{
		Pix:    pix,
		Stride: width * processing.Channels,
		Rect:   image.Rect(0, 0, width, height),
	}
	return imaging.Encode(w, img, imaging.PNG)
}
