// Package encode validates raw clipboard pixel buffers and converts them
// into base64 data URLs carrying a PNG payload. Both steps are pure:
// identical input bytes always yield an identical encoded string.
package encode

import (
	"bytes"
	"encoding/base64"
	"errors"
	"fmt"
	"image"
	"image/png"

	"github.com/jo-hoe/clipscribe/internal/clipboard"
	"github.com/jo-hoe/clipscribe/internal/common"
)

// Validation failures. These must be reported before any image container
// is constructed; feeding a mismatched buffer into a decoder is undefined
// behavior in most image libraries.
var (
	ErrEmptyDimensions = errors.New("image has zero width or height")
	ErrLengthMismatch  = errors.New("pixel buffer length does not match dimensions")
)

// EncodingError wraps a failure constructing or serializing the PNG
// container. It should not occur after validation but must surface as a
// named condition, never a crash.
type EncodingError struct {
	Err error
}

func (e *EncodingError) Error() string { return fmt.Sprintf("encode image: %v", e.Err) }
func (e *EncodingError) Unwrap() error { return e.Err }

// Validate checks a raw clipboard image for shape errors. Zero dimensions
// are checked before the length invariant so that an empty snapshot is
// reported as such regardless of buffer length.
func Validate(img *clipboard.Image) error {
	if img.Width == 0 || img.Height == 0 {
		return fmt.Errorf("%w: %dx%d", ErrEmptyDimensions, img.Width, img.Height)
	}
	want := img.Width * img.Height * common.BytesPerPixel
	if len(img.Pix) != want {
		return fmt.Errorf("%w: have %d bytes, want %d", ErrLengthMismatch, len(img.Pix), want)
	}
	return nil
}

// DataURL encodes a validated image as PNG and returns it embedded in a
// data URL ("data:image/png;base64,..."). Buffers declared as BGRA are
// swizzled to RGBA first; the PNG container is always RGBA.
func DataURL(img *clipboard.Image) (string, error) {
	if err := Validate(img); err != nil {
		return "", err
	}

	pix := img.Pix
	if img.Order == clipboard.OrderBGRA {
		pix = swapBlueRed(pix)
	}

	nrgba := &image.NRGBA{
		Pix:    pix,
		Stride: img.Width * common.BytesPerPixel,
		Rect:   image.Rect(0, 0, img.Width, img.Height),
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, nrgba); err != nil {
		return "", &EncodingError{Err: err}
	}
	return common.DataURLPrefix + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

// swapBlueRed returns a copy of the buffer with the B and R channels of
// every pixel exchanged. The input is never mutated.
func swapBlueRed(pix []byte) []byte {
	out := make([]byte, len(pix))
	copy(out, pix)
	for i := 0; i+3 < len(out); i += common.BytesPerPixel {
		out[i], out[i+2] = out[i+2], out[i]
	}
	return out
}
