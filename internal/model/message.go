package model

// Direction is the sign bucket of a daily move.
type Direction string

const (
	Rising  Direction = "RISING"
	Falling Direction = "FALLING"
)

// MarketMessage is the composed post text plus the image bucket it goes with.
type MarketMessage struct {
	Text      string
	Direction Direction
}

// CompressedImage is a size-bounded JPEG encoding of a source asset.
type CompressedImage struct {
	Data    []byte
	Quality int
	Steps   int
	Width   int
	Height  int
}

// SizeKB returns the encoded size in kilobytes.
func (c CompressedImage) SizeKB() float64 {
	return float64(len(c.Data)) / 1024
}
