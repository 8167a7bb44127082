package texture

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/e7canasta/media-preview/internal/surface"
)

// SDLBinder keeps one streaming SDL texture per ID and recreates it when the
// upload geometry or format changes.
//
// SDL textures belong to the renderer's thread: every method must run on the
// goroutine that created the renderer (runtime.LockOSThread in main).
type SDLBinder struct {
	renderer *sdl.Renderer

	mu       sync.Mutex
	textures map[ID]*sdlSlot
	nextID   ID
}

type sdlSlot struct {
	tex    *sdl.Texture
	width  int
	height int
	format surface.PixelFormat
}

// NewSDLBinder returns a binder drawing with renderer.
func NewSDLBinder(renderer *sdl.Renderer) (*SDLBinder, error) {
	if renderer == nil {
		return nil, fmt.Errorf("texture: renderer is required")
	}
	return &SDLBinder{
		renderer: renderer,
		textures: make(map[ID]*sdlSlot),
		nextID:   1,
	}, nil
}

// Allocate reserves a new texture slot. The SDL texture is created on first upload.
func (b *SDLBinder) Allocate() ID {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	b.textures[id] = &sdlSlot{}
	return id
}

// Upload implements Binder.
func (b *SDLBinder) Upload(id ID, u Upload) error {
	if err := u.Validate(); err != nil {
		return err
	}

	pixelFormat, err := sdlFormat(u.Format)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	slot, ok := b.textures[id]
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTexture, id)
	}

	if slot.tex == nil || slot.width != u.Width || slot.height != u.Height || slot.format != u.Format {
		if slot.tex != nil {
			slot.tex.Destroy()
		}
		tex, err := b.renderer.CreateTexture(pixelFormat, sdl.TEXTUREACCESS_STREAMING, int32(u.Width), int32(u.Height))
		if err != nil {
			slot.tex = nil
			return fmt.Errorf("texture: failed to create texture: %w", err)
		}
		slot.tex, slot.width, slot.height, slot.format = tex, u.Width, u.Height, u.Format

		slog.Debug("texture: created streaming texture",
			"id", id,
			"width", u.Width,
			"height", u.Height,
			"format", u.Format,
		)
	}

	pixels, pitch, err := slot.tex.Lock(nil)
	if err != nil {
		return fmt.Errorf("texture: failed to lock texture: %w", err)
	}
	defer slot.tex.Unlock()

	copyRows(pixels, pitch, u)
	return nil
}

// Texture returns the SDL texture of id, nil before the first upload.
func (b *SDLBinder) Texture(id ID) *sdl.Texture {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot, ok := b.textures[id]; ok {
		return slot.tex
	}
	return nil
}

// Release destroys the texture of id and forgets the slot.
func (b *SDLBinder) Release(id ID) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if slot, ok := b.textures[id]; ok {
		if slot.tex != nil {
			slot.tex.Destroy()
		}
		delete(b.textures, id)
	}
}

// Close destroys every texture.
func (b *SDLBinder) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	for id, slot := range b.textures {
		if slot.tex != nil {
			slot.tex.Destroy()
		}
		delete(b.textures, id)
	}
}

func sdlFormat(f surface.PixelFormat) (uint32, error) {
	switch f {
	case surface.FormatRGB24:
		return uint32(sdl.PIXELFORMAT_RGB24), nil
	case surface.FormatRGBA32:
		return uint32(sdl.PIXELFORMAT_RGBA32), nil
	case surface.FormatRGB565:
		return uint32(sdl.PIXELFORMAT_RGB565), nil
	default:
		return 0, fmt.Errorf("texture: no SDL pixel format for %v", f)
	}
}

// copyRows copies u row by row into a locked texture whose rows are pitch bytes apart.
func copyRows(dst []byte, pitch int, u Upload) {
	layout, _ := surface.LayoutFor(u.Format)
	row := u.Width * layout.BytesPerPixel

	if pitch == u.Stride {
		copy(dst, u.Data[:u.Stride*(u.Height-1)+row])
		return
	}
	for y := 0; y < u.Height; y++ {
		copy(dst[y*pitch:y*pitch+row], u.Data[y*u.Stride:y*u.Stride+row])
	}
}
