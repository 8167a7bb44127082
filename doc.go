// Package mediapreview extracts preview frames from media sources and delivers
// live playback frames to a display texture.
//
// # Overview
//
// Two operations share one decode graph slot:
//
//   - GetPreview builds a pull graph, prerolls it, optionally seeks a little into
//     a video, pulls exactly one frame and scales it into a square,
//     power-of-two RGB surface ready for texture upload.
//   - StartPlayback builds a push graph whose sink is fixed to the requested
//     geometry. Every decoded frame replaces the latest-frame cell and bumps its
//     version; PollLatestFrame uploads only when the version changed.
//
// At most one graph exists at a time. Starting a preview or a playback tears
// down whatever occupies the slot before the next graph is built.
//
// # Usage
//
//	mgr, err := mediapreview.NewManager(mediapreview.DefaultConfig(), binder)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer mgr.Close()
//
//	src, _ := mediapreview.NewSourceDescriptor("clip.mp4", mediapreview.KindVideo)
//	tex, err := mgr.GetPreview(src, 1024, 5*time.Second)
//
// GetPreview blocks for up to the preroll timeout. Callers with a render loop
// should run it on a separate goroutine.
//
// # Threading
//
// Frames arrive on the decode engine's streaming threads. The latest frame and
// its version are published together under one lock, so PollLatestFrame never
// observes a version paired with another frame's pixels.
package mediapreview
