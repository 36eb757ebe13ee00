package devbackend

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"strings"

	// Registered so uploads in these formats decode.
	_ "image/gif"
	_ "image/jpeg"
)

// DefaultBlendAlpha is the weight of the style image in the output.
const DefaultBlendAlpha = 0.3

// maxBlendPixels bounds the decoded content image.
const maxBlendPixels = 4096 * 4096

// ErrImageTooLarge is returned when an input image exceeds maxBlendPixels.
var ErrImageTooLarge = errors.New("image dimensions are too large")

// ErrUnsupportedFormat is returned for images no registered decoder reads.
// The web app accepts any image/* upload; only PNG, JPEG and GIF decode here.
var ErrUnsupportedFormat = errors.New("unsupported image format: the dev backend reads PNG, JPEG and GIF")

// Blend stands in for neural style transfer: the style image is scaled to
// the content image's bounds with nearest-neighbour sampling and mixed in as
// content*(1-alpha) + style*alpha. The result is PNG encoded.
func Blend(content, style []byte, alpha float64) ([]byte, error) {
	if alpha < 0 || alpha > 1 {
		return nil, fmt.Errorf("alpha %v out of range [0,1]", alpha)
	}
	c, err := decodeBounded(content)
	if err != nil {
		return nil, fmt.Errorf("content image: %w", err)
	}
	s, err := decodeBounded(style)
	if err != nil {
		return nil, fmt.Errorf("style image: %w", err)
	}

	out := blendImages(c, resizeNearest(s, c.Bounds().Dx(), c.Bounds().Dy()), alpha)

	var buf bytes.Buffer
	if err := png.Encode(&buf, out); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}

func decodeBounded(data []byte) (image.Image, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if errors.Is(err, image.ErrFormat) && strings.HasPrefix(http.DetectContentType(data), "image/") {
		return nil, ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return nil, errors.New("image has no pixels")
	}
	if cfg.Width*cfg.Height > maxBlendPixels {
		return nil, ErrImageTooLarge
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	return img, err
}

// resizeNearest scales src to w×h.
func resizeNearest(src image.Image, w, h int) *image.RGBA {
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		sy := b.Min.Y + y*b.Dy()/h
		for x := range w {
			sx := b.Min.X + x*b.Dx()/w
			dst.Set(x, y, src.At(sx, sy))
		}
	}
	return dst
}

func blendImages(content image.Image, style *image.RGBA, alpha float64) *image.RGBA {
	b := content.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := range b.Dy() {
		for x := range b.Dx() {
			c := color.RGBAModel.Convert(content.At(b.Min.X+x, b.Min.Y+y)).(color.RGBA)
			s := style.RGBAAt(x, y)
			out.SetRGBA(x, y, color.RGBA{
				R: mix(c.R, s.R, alpha),
				G: mix(c.G, s.G, alpha),
				B: mix(c.B, s.B, alpha),
				A: 0xff,
			})
		}
	}
	return out
}

func mix(a, b uint8, alpha float64) uint8 {
	v := float64(a)*(1-alpha) + float64(b)*alpha
	return uint8(v + 0.5)
}
