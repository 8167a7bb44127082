package main

import (
	"fmt"
	"log/slog"
	"runtime"

	"github.com/veandco/go-sdl2/sdl"

	"github.com/e7canasta/media-preview/internal/surface"
	"github.com/e7canasta/media-preview/internal/texture"
)

func init() {
	// SDL must stay on the main OS thread
	runtime.LockOSThread()
}

// window is an SDL window with a renderer and a texture binder.
type window struct {
	win      *sdl.Window
	renderer *sdl.Renderer
	binder   *texture.SDLBinder
}

func openWindow(title string, width, height int) (*window, error) {
	if err := sdl.Init(sdl.INIT_VIDEO); err != nil {
		return nil, fmt.Errorf("failed to initialize SDL: %w", err)
	}

	win, err := sdl.CreateWindow(title, sdl.WINDOWPOS_CENTERED, sdl.WINDOWPOS_CENTERED,
		int32(width), int32(height), sdl.WINDOW_SHOWN|sdl.WINDOW_RESIZABLE)
	if err != nil {
		sdl.Quit()
		return nil, fmt.Errorf("failed to create window: %w", err)
	}

	renderer, err := sdl.CreateRenderer(win, -1, sdl.RENDERER_ACCELERATED|sdl.RENDERER_PRESENTVSYNC)
	if err != nil {
		slog.Warn("mediapreview: accelerated renderer unavailable, falling back to software", "error", err)
		renderer, err = sdl.CreateRenderer(win, -1, sdl.RENDERER_SOFTWARE)
		if err != nil {
			win.Destroy()
			sdl.Quit()
			return nil, fmt.Errorf("failed to create renderer: %w", err)
		}
	}

	binder, err := texture.NewSDLBinder(renderer)
	if err != nil {
		renderer.Destroy()
		win.Destroy()
		sdl.Quit()
		return nil, err
	}

	return &window{win: win, renderer: renderer, binder: binder}, nil
}

// draw renders texture id stretched over the window.
func (w *window) draw(id texture.ID) {
	w.renderer.SetDrawColor(0, 0, 0, 255)
	w.renderer.Clear()
	if tex := w.binder.Texture(id); tex != nil {
		w.renderer.Copy(tex, nil, nil)
	}
	w.renderer.Present()
}

func (w *window) close() {
	w.binder.Close()
	w.renderer.Destroy()
	w.win.Destroy()
	sdl.Quit()
}

// keyAction is what the event loop asks the caller to do.
type keyAction int

const (
	actionNone keyAction = iota
	actionQuit
	actionToggle
)

// pollEvents drains pending SDL events.
func pollEvents() keyAction {
	action := actionNone
	for event := sdl.PollEvent(); event != nil; event = sdl.PollEvent() {
		switch e := event.(type) {
		case *sdl.QuitEvent:
			return actionQuit
		case *sdl.KeyboardEvent:
			if e.Type != sdl.KEYDOWN || e.Repeat != 0 {
				continue
			}
			switch e.Keysym.Sym {
			case sdl.K_ESCAPE, sdl.K_q:
				return actionQuit
			case sdl.K_SPACE:
				action = actionToggle
			}
		}
	}
	return action
}

// showSurface uploads s once and shows it until the window is closed.
func showSurface(title string, s *surface.Surface) error {
	w, err := openWindow(title, s.Width, s.Height)
	if err != nil {
		return err
	}
	defer w.close()

	id := w.binder.Allocate()
	if err := texture.UploadSurface(w.binder, id, s); err != nil {
		return err
	}

	for pollEvents() != actionQuit {
		w.draw(id)
		sdl.Delay(16)
	}
	return nil
}
