package clipboard

import (
	"bytes"
	"image"
	"image/png"
	"testing"
)

func TestDecodePNG(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	for i := range src.Pix {
		src.Pix[i] = byte(i * 7)
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, src); err != nil {
		t.Fatalf("encode fixture: %v", err)
	}

	img, err := DecodePNG(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodePNG: %v", err)
	}
	if img.Width != 3 || img.Height != 2 {
		t.Fatalf("dimensions = %dx%d", img.Width, img.Height)
	}
	if img.Order != OrderRGBA {
		t.Fatalf("decoded images must declare RGBA order")
	}
	if len(img.Pix) != 3*2*4 {
		t.Fatalf("pix length = %d", len(img.Pix))
	}
	if !bytes.Equal(img.Pix, src.Pix) {
		t.Fatalf("pixel data changed during decode")
	}
}

func TestDecodePNG_InvalidData(t *testing.T) {
	if _, err := DecodePNG([]byte("not a png")); err == nil {
		t.Fatalf("expected error for invalid PNG data")
	}
}
