package model

import (
	"image"
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
)

func uniformImage(w, h int, c color.Color) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	return img
}

func TestPreprocessShape(t *testing.T) {
	img := uniformImage(64, 48, color.White)

	data := Preprocess(img, 8)
	assert.Len(t, data, 3*8*8)
}

func TestPreprocessNormalization(t *testing.T) {
	white := Preprocess(uniformImage(8, 8, color.White), 8)
	for _, v := range white {
		assert.InDelta(t, 1.0, v, 1e-3)
	}

	black := Preprocess(uniformImage(8, 8, color.Black), 8)
	for _, v := range black {
		assert.InDelta(t, 0.0, v, 1e-3)
	}
}

func TestPreprocessChannelLayout(t *testing.T) {
	// Pure red pixels: channel planes are R then G then B.
	data := Preprocess(uniformImage(4, 4, color.RGBA{R: 255, A: 255}), 4)

	plane := 4 * 4
	for i := 0; i < plane; i++ {
		assert.InDelta(t, 1.0, data[i], 1e-3, "red plane at %d", i)
	}
	for i := plane; i < 3*plane; i++ {
		assert.InDelta(t, 0.0, data[i], 1e-3, "green/blue plane at %d", i)
	}
}
