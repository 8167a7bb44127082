// Package texture is the graphics binding port: it uploads finished pixel
// buffers into texture slots owned by the display layer.
package texture

import (
	"errors"
	"fmt"

	"github.com/e7canasta/media-preview/internal/surface"
)

// ID identifies a texture slot owned by the display layer.
type ID uint32

// ErrUnknownTexture is returned when an upload targets a slot the binder does not know.
var ErrUnknownTexture = errors.New("texture: unknown texture id")

// Upload is one 2D upload request. Data rows are Stride bytes apart; only the
// first Width*bpp bytes of each row are pixels.
type Upload struct {
	Width  int
	Height int
	Stride int
	Format surface.PixelFormat
	Data   []byte
}

// Validate checks that Data covers the declared geometry.
func (u Upload) Validate() error {
	layout, err := surface.LayoutFor(u.Format)
	if err != nil {
		return err
	}
	if u.Width <= 0 || u.Height <= 0 {
		return fmt.Errorf("texture: invalid upload size %dx%d", u.Width, u.Height)
	}
	row := u.Width * layout.BytesPerPixel
	if u.Stride < row {
		return fmt.Errorf("texture: stride %d shorter than row %d", u.Stride, row)
	}
	if need := u.Stride*(u.Height-1) + row; len(u.Data) < need {
		return fmt.Errorf("texture: upload has %d bytes, need %d", len(u.Data), need)
	}
	return nil
}

// Binder uploads pixels into a texture slot.
//
// Implementations are called from the display goroutine only.
type Binder interface {
	Upload(id ID, u Upload) error
}

// UploadSurface uploads a whole surface.
func UploadSurface(b Binder, id ID, s *surface.Surface) error {
	if s == nil {
		return fmt.Errorf("texture: nil surface")
	}
	return b.Upload(id, Upload{
		Width:  s.Width,
		Height: s.Height,
		Stride: s.Stride,
		Format: s.Layout.Format,
		Data:   s.Pix,
	})
}
