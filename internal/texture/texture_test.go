package texture

import (
	"bytes"
	"testing"

	"github.com/e7canasta/media-preview/internal/surface"
)

func TestUpload_Validate(t *testing.T) {
	tests := []struct {
		name    string
		upload  Upload
		wantErr bool
	}{
		{name: "packed rgb", upload: Upload{Width: 2, Height: 2, Stride: 6, Format: surface.FormatRGB24, Data: make([]byte, 12)}},
		{name: "padded rows", upload: Upload{Width: 2, Height: 2, Stride: 8, Format: surface.FormatRGB24, Data: make([]byte, 14)}},
		{name: "short data", upload: Upload{Width: 2, Height: 2, Stride: 8, Format: surface.FormatRGB24, Data: make([]byte, 13)}, wantErr: true},
		{name: "stride too small", upload: Upload{Width: 4, Height: 1, Stride: 8, Format: surface.FormatRGB24, Data: make([]byte, 12)}, wantErr: true},
		{name: "zero size", upload: Upload{Format: surface.FormatRGB24}, wantErr: true},
		{name: "unknown format", upload: Upload{Width: 1, Height: 1, Stride: 4, Format: surface.PixelFormat(42), Data: make([]byte, 4)}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.upload.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestCopyRows_DropsRowPadding(t *testing.T) {
	// 2x2 RGB with 8-byte stride (2 padding bytes per row)
	src := []byte{
		1, 2, 3, 4, 5, 6, 0xee, 0xee,
		7, 8, 9, 10, 11, 12,
	}
	dst := make([]byte, 12)
	copyRows(dst, 6, Upload{Width: 2, Height: 2, Stride: 8, Format: surface.FormatRGB24, Data: src})

	want := []byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12}
	if !bytes.Equal(dst, want) {
		t.Errorf("copyRows = %v, want %v", dst, want)
	}
}

func TestCopyRows_SamePitchSingleCopy(t *testing.T) {
	src := []byte{1, 2, 3, 0, 4, 5, 6, 0}
	dst := make([]byte, 8)
	copyRows(dst, 4, Upload{Width: 1, Height: 2, Stride: 4, Format: surface.FormatRGB24, Data: src})

	if !bytes.Equal(dst[:7], src[:7]) {
		t.Errorf("copyRows = %v, want prefix of %v", dst, src)
	}
}

func TestSDLFormat(t *testing.T) {
	for _, f := range []surface.PixelFormat{surface.FormatRGB24, surface.FormatRGBA32, surface.FormatRGB565} {
		if _, err := sdlFormat(f); err != nil {
			t.Errorf("sdlFormat(%v) error = %v", f, err)
		}
	}
	if _, err := sdlFormat(surface.FormatGray8); err == nil {
		t.Error("sdlFormat(GRAY8) should fail")
	}
}

func TestNewSDLBinder_RequiresRenderer(t *testing.T) {
	if _, err := NewSDLBinder(nil); err == nil {
		t.Error("expected error for nil renderer")
	}
}
