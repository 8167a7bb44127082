package surface

import (
	"testing"
)

func TestPixelRoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		format PixelFormat
		value  uint32
	}{
		{"gray8", FormatGray8, 0xab},
		{"rgb565", FormatRGB565, 0xf81f},
		{"rgb24", FormatRGB24, 0x123456},
		{"rgba32", FormatRGBA32, 0xdeadbeef},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout, err := LayoutFor(tt.format)
			if err != nil {
				t.Fatalf("LayoutFor(%v) failed: %v", tt.format, err)
			}
			s, err := New(5, 3, layout)
			if err != nil {
				t.Fatalf("New() failed: %v", err)
			}

			s.SetPixel(4, 2, tt.value)
			if got := s.Pixel(4, 2); got != tt.value {
				t.Errorf("Pixel(4,2) = %#x, want %#x", got, tt.value)
			}
			// Neighbours untouched
			if got := s.Pixel(3, 2); got != 0 {
				t.Errorf("Pixel(3,2) = %#x, want 0", got)
			}
			if got := s.Pixel(4, 1); got != 0 {
				t.Errorf("Pixel(4,1) = %#x, want 0", got)
			}
		})
	}
}

func TestPixel_RGB24ByteLayout(t *testing.T) {
	layout, _ := LayoutFor(FormatRGB24)
	// One row, two pixels: R,G,B = 0x11,0x22,0x33 then 0x44,0x55,0x66
	pix := []byte{0x11, 0x22, 0x33, 0x44, 0x55, 0x66, 0, 0}

	s, err := FromBytes(pix, 2, 1, 8, layout)
	if err != nil {
		t.Fatalf("FromBytes() failed: %v", err)
	}

	if got := s.Pixel(0, 0); got != 0x332211 {
		t.Errorf("Pixel(0,0) = %#x, want 0x332211", got)
	}
	if got := s.Pixel(1, 0); got != 0x665544 {
		t.Errorf("Pixel(1,0) = %#x, want 0x665544", got)
	}

	s.SetPixel(1, 0, 0xccbbaa)
	want := []byte{0x11, 0x22, 0x33, 0xaa, 0xbb, 0xcc}
	for i, b := range want {
		if pix[i] != b {
			t.Fatalf("byte %d = %#x, want %#x (view must alias the buffer)", i, pix[i], b)
		}
	}
}

func TestPixel_UsesStride(t *testing.T) {
	layout, _ := LayoutFor(FormatRGB24)
	// 3 pixels wide = 9 bytes, padded to 12
	s, err := New(3, 2, layout)
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if s.Stride != 12 {
		t.Fatalf("Stride = %d, want 12", s.Stride)
	}

	s.SetPixel(0, 1, 0x010203)
	if s.Pix[12] != 0x03 || s.Pix[13] != 0x02 || s.Pix[14] != 0x01 {
		t.Errorf("row 1 starts at wrong offset: % x", s.Pix[12:15])
	}
}

func TestFromBytes_Validation(t *testing.T) {
	layout, _ := LayoutFor(FormatRGB24)

	tests := []struct {
		name   string
		pix    []byte
		w, h   int
		stride int
	}{
		{"zero width", make([]byte, 16), 0, 1, 4},
		{"stride too small", make([]byte, 16), 2, 1, 5},
		{"buffer too small", make([]byte, 10), 2, 2, 8},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromBytes(tt.pix, tt.w, tt.h, tt.stride, layout); err == nil {
				t.Errorf("FromBytes() expected error")
			}
		})
	}

	// Last row does not need padding
	if _, err := FromBytes(make([]byte, 14), 2, 2, 8, layout); err != nil {
		t.Errorf("FromBytes() with unpadded last row failed: %v", err)
	}
}

func TestRowStride(t *testing.T) {
	cases := map[[2]int]int{
		{350, 3}: 1052,
		{4, 3}:   12,
		{5, 3}:   16,
		{7, 1}:   8,
		{8, 4}:   32,
	}
	for in, want := range cases {
		if got := RowStride(in[0], in[1]); got != want {
			t.Errorf("RowStride(%d, %d) = %d, want %d", in[0], in[1], got, want)
		}
	}
}
