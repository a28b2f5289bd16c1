package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"os"

	_ "image/gif"
	_ "image/png"

	"StonksBot/internal/model"
)

const (
	// DefaultMaxSizeKB stays under the 1,000,000 byte blob limit of Bluesky.
	DefaultMaxSizeKB = 970

	StartQuality = 85
	MinQuality   = 10
	QualityStep  = 5
)

// ErrDecode is returned when the source bytes are not a supported image.
var ErrDecode = errors.New("decode image")

// CompressFile reads the image at path and returns a compressed copy.
// The file itself is left untouched.
func CompressFile(path string, maxSizeKB float64) (*model.CompressedImage, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read image %s: %w", path, err)
	}
	return Compress(data, maxSizeKB)
}

// Compress re-encodes src as an opaque JPEG, lowering quality in steps of 5
// from 85 until the result fits in maxSizeKB or quality reaches 10.
func Compress(src []byte, maxSizeKB float64) (*model.CompressedImage, error) {
	img, _, err := image.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	rgb := dropAlpha(img)
	bounds := rgb.Bounds()

	var buf bytes.Buffer
	quality := StartQuality
	steps := 0
	for {
		buf.Reset()
		steps++
		if err := jpeg.Encode(&buf, rgb, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg at quality %d: %w", quality, err)
		}
		if float64(buf.Len())/1024 <= maxSizeKB || quality <= MinQuality {
			break
		}
		quality -= QualityStep
	}

	out := make([]byte, buf.Len())
	copy(out, buf.Bytes())
	return &model.CompressedImage{
		Data:    out,
		Quality: quality,
		Steps:   steps,
		Width:   bounds.Dx(),
		Height:  bounds.Dy(),
	}, nil
}

// dropAlpha copies img onto an opaque canvas keeping the straight RGB values,
// so fully transparent pixels keep their color instead of turning black.
func dropAlpha(img image.Image) *image.RGBA {
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			dst.SetRGBA(x-b.Min.X, y-b.Min.Y, color.RGBA{R: c.R, G: c.G, B: c.B, A: 0xff})
		}
	}
	return dst
}
