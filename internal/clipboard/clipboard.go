// Package clipboard reads the raster image currently held by the system
// clipboard. It is built on golang.design/x/clipboard, which hands images
// over as PNG bytes; this package decodes them into a raw RGBA8 buffer so
// the rest of the pipeline can validate and re-encode deterministically.
package clipboard

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log/slog"

	xclip "golang.design/x/clipboard"
)

// Order declares the channel layout of a pixel buffer. The clipboard
// backend announces the order it produced instead of the consumer assuming
// one; some platforms hand out BGRA.
type Order int

const (
	OrderRGBA Order = iota
	OrderBGRA
)

// Image is a raw clipboard snapshot: row-major 4-bytes-per-pixel data with
// the channel order the backend declared. It is produced once per
// invocation and never mutated.
type Image struct {
	Width  int
	Height int
	Pix    []byte
	Order  Order
}

// ErrNoImage indicates the clipboard holds no raster image. Callers treat
// this as an expected steady state, not a failure.
var ErrNoImage = errors.New("no image on clipboard")

// Reader provides access to the current clipboard image.
type Reader struct {
	log *slog.Logger
}

// NewReader initializes the clipboard backend. Initialization fails in
// headless environments without a clipboard provider; that is fatal and
// distinct from ErrNoImage.
func NewReader(log *slog.Logger) (*Reader, error) {
	if err := xclip.Init(); err != nil {
		return nil, fmt.Errorf("init clipboard: %w", err)
	}
	return &Reader{log: log}, nil
}

// ReadImage returns the clipboard's current image as a raw RGBA8 buffer,
// or ErrNoImage when no image is available.
func (r *Reader) ReadImage() (*Image, error) {
	data := xclip.Read(xclip.FmtImage)
	if len(data) == 0 {
		return nil, ErrNoImage
	}
	r.log.Debug("clipboard image read", "bytes", len(data))
	img, err := DecodePNG(data)
	if err != nil {
		return nil, fmt.Errorf("decode clipboard image: %w", err)
	}
	r.log.Info("image detected on clipboard", "width", img.Width, "height", img.Height)
	return img, nil
}

// DecodePNG converts PNG bytes into a raw RGBA8 Image. The result always
// declares OrderRGBA: the PNG decode normalizes whatever order the
// platform stored.
func DecodePNG(data []byte) (*Image, error) {
	src, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("png decode: %w", err)
	}
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()

	// Non-premultiplied RGBA keeps the byte values exactly as decoded, so a
	// later re-encode reproduces the same pixels. The decoder already yields
	// NRGBA for truecolor-with-alpha PNGs; take its buffer directly.
	if n, ok := src.(*image.NRGBA); ok && n.Stride == w*4 && b.Min == (image.Point{}) {
		return &Image{Width: w, Height: h, Pix: n.Pix, Order: OrderRGBA}, nil
	}

	pix := make([]byte, 0, w*h*4)
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(src.At(x, y)).(color.NRGBA)
			pix = append(pix, c.R, c.G, c.B, c.A)
		}
	}
	return &Image{Width: w, Height: h, Pix: pix, Order: OrderRGBA}, nil
}
