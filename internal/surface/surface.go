// Package surface implements raw pixel surfaces and the box-replication scaler
// used to turn decoded frames into square, power-of-two texture buffers.
//
// A Surface is a plain byte buffer plus geometry. Pixel access works on byte
// offsets only (y*Stride + x*BytesPerPixel) and performs no bounds checking:
// callers MUST guarantee x < Width and y < Height.
//
// Byte order: multi-byte pixels are stored little-endian. For 3-byte pixels the
// lowest byte of the raw value lives at the lowest address, so an RGB24 frame
// (R,G,B in memory) reads back as 0x00BBGGRR. Get and Set always agree.
package surface

import (
	"encoding/binary"
	"fmt"
)

// PixelFormat identifies the channel layout of a surface.
type PixelFormat int

const (
	// FormatRGB24 is packed 8-bit R,G,B (the layout negotiated with the decode engine)
	FormatRGB24 PixelFormat = iota
	// FormatRGBA32 is packed 8-bit R,G,B,A
	FormatRGBA32
	// FormatGray8 is a single 8-bit luminance channel
	FormatGray8
	// FormatRGB565 is 16-bit packed 5:6:5
	FormatRGB565
)

// String returns the engine-side name of the format
func (f PixelFormat) String() string {
	switch f {
	case FormatRGB24:
		return "RGB"
	case FormatRGBA32:
		return "RGBA"
	case FormatGray8:
		return "GRAY8"
	case FormatRGB565:
		return "RGB16"
	default:
		return fmt.Sprintf("PixelFormat(%d)", int(f))
	}
}

// Layout describes the per-pixel encoding of a surface: depth and channel masks.
type Layout struct {
	Format        PixelFormat
	BitsPerPixel  int
	BytesPerPixel int
	Rmask         uint32
	Gmask         uint32
	Bmask         uint32
	Amask         uint32
}

// LayoutFor returns the canonical layout of a pixel format.
func LayoutFor(f PixelFormat) (Layout, error) {
	switch f {
	case FormatRGB24:
		return Layout{Format: f, BitsPerPixel: 24, BytesPerPixel: 3,
			Rmask: 0x0000ff, Gmask: 0x00ff00, Bmask: 0xff0000}, nil
	case FormatRGBA32:
		return Layout{Format: f, BitsPerPixel: 32, BytesPerPixel: 4,
			Rmask: 0x000000ff, Gmask: 0x0000ff00, Bmask: 0x00ff0000, Amask: 0xff000000}, nil
	case FormatGray8:
		return Layout{Format: f, BitsPerPixel: 8, BytesPerPixel: 1}, nil
	case FormatRGB565:
		return Layout{Format: f, BitsPerPixel: 16, BytesPerPixel: 2,
			Rmask: 0xf800, Gmask: 0x07e0, Bmask: 0x001f}, nil
	default:
		return Layout{}, fmt.Errorf("surface: unsupported pixel format %v", f)
	}
}

// Surface is a raw pixel buffer.
type Surface struct {
	Pix    []byte
	Width  int
	Height int
	// Stride is the number of bytes between the start of two consecutive rows
	Stride int
	Layout Layout
}

// RowStride returns the row size in bytes rounded up to a multiple of 4,
// the alignment both GStreamer and SDL use for packed video rows.
func RowStride(width, bytesPerPixel int) int {
	return (width*bytesPerPixel + 3) &^ 3
}

// New allocates a zeroed surface with 4-byte aligned rows.
func New(width, height int, layout Layout) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: invalid dimensions %dx%d", width, height)
	}
	if layout.BytesPerPixel < 1 || layout.BytesPerPixel > 4 {
		return nil, fmt.Errorf("surface: invalid bytes per pixel %d", layout.BytesPerPixel)
	}

	stride := RowStride(width, layout.BytesPerPixel)
	return &Surface{
		Pix:    make([]byte, stride*height),
		Width:  width,
		Height: height,
		Stride: stride,
		Layout: layout,
	}, nil
}

// FromBytes builds a zero-copy view over pix. The view aliases pix: it is only
// valid as long as the backing memory is (e.g. while a frame buffer is mapped).
func FromBytes(pix []byte, width, height, stride int, layout Layout) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("surface: invalid dimensions %dx%d", width, height)
	}
	if layout.BytesPerPixel < 1 || layout.BytesPerPixel > 4 {
		return nil, fmt.Errorf("surface: invalid bytes per pixel %d", layout.BytesPerPixel)
	}
	if stride < width*layout.BytesPerPixel {
		return nil, fmt.Errorf("surface: stride %d too small for width %d", stride, width)
	}
	need := stride*(height-1) + width*layout.BytesPerPixel
	if len(pix) < need {
		return nil, fmt.Errorf("surface: buffer too small (%d bytes, need %d)", len(pix), need)
	}

	return &Surface{
		Pix:    pix,
		Width:  width,
		Height: height,
		Stride: stride,
		Layout: layout,
	}, nil
}

// Pixel returns the raw value of the pixel at (x, y).
func (s *Surface) Pixel(x, y int) uint32 {
	bpp := s.Layout.BytesPerPixel
	p := s.Pix[y*s.Stride+x*bpp:]

	switch bpp {
	case 1:
		return uint32(p[0])
	case 2:
		return uint32(binary.LittleEndian.Uint16(p))
	case 3:
		return uint32(p[0]) | uint32(p[1])<<8 | uint32(p[2])<<16
	case 4:
		return binary.LittleEndian.Uint32(p)
	default:
		return 0
	}
}

// SetPixel stores the raw value v at (x, y), truncated to the pixel width.
func (s *Surface) SetPixel(x, y int, v uint32) {
	bpp := s.Layout.BytesPerPixel
	p := s.Pix[y*s.Stride+x*bpp:]

	switch bpp {
	case 1:
		p[0] = byte(v)
	case 2:
		binary.LittleEndian.PutUint16(p, uint16(v))
	case 3:
		p[0] = byte(v)
		p[1] = byte(v >> 8)
		p[2] = byte(v >> 16)
	case 4:
		binary.LittleEndian.PutUint32(p, v)
	}
}
