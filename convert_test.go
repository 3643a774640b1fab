package main

import (
	"bytes"
	"image"
	"image/color"
	"testing"
)

func TestRGBABytesLayout(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{R: 40, G: 50, B: 60, A: 255})

	data, width, height := rgbaBytes(img)
	if width != 2 || height != 1 {
		t.Fatalf("dims = %dx%d, want 2x1", width, height)
	}
	want := []byte{10, 20, 30, 255, 40, 50, 60, 255}
	if !bytes.Equal(data, want) {
		t.Errorf("data = %v, want %v", data, want)
	}
}

func TestRGBABytesFastPathAvoidsCopy(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 3, 3))
	data, _, _ := rgbaBytes(img)
	if &data[0] != &img.Pix[0] {
		t.Error("canonical RGBA image was copied, want zero-copy")
	}
}

func TestDownscale(t *testing.T) {
	narrow := image.NewRGBA(image.Rect(0, 0, 10, 10))
	if got := downscale(narrow, 20); got != image.Image(narrow) {
		t.Error("downscale copied an image already within the limit")
	}

	wide := image.NewRGBA(image.Rect(0, 0, 40, 20))
	resized := downscale(wide, 20)
	b := resized.Bounds()
	if b.Dx() != 20 || b.Dy() != 10 {
		t.Errorf("resized to %dx%d, want 20x10 (aspect preserved)", b.Dx(), b.Dy())
	}
}

func TestEncodePNGRoundTrip(t *testing.T) {
	in := []byte{
		255, 0, 0, 255, 0, 255, 0, 255,
		0, 0, 255, 255, 255, 255, 255, 255,
	}

	var buf bytes.Buffer
	if err := encodePNG(&buf, in, 2, 2); err != nil {
		t.Fatalf("encodePNG() error = %v", err)
	}

	img, err := decodeImage(buf.Bytes())
	if err != nil {
		t.Fatalf("decodeImage() error = %v", err)
	}
	out, width, height := rgbaBytes(img)
	if width != 2 || height != 2 {
		t.Fatalf("decoded dims = %dx%d, want 2x2", width, height)
	}
	if !bytes.Equal(out, in) {
		t.Errorf("round trip = %v, want %v", out, in)
	}
}
