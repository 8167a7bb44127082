package gstengine

import (
	"fmt"

	"github.com/tinyzimmer/go-gst/gst"

	"github.com/e7canasta/media-preview/internal/engine"
)

// gstSample wraps a pulled preroll sample. The buffer stays mapped between Map
// and Unmap; the sample itself is released by the go-gst finalizer once Release
// drops our reference.
type gstSample struct {
	sample *gst.Sample
	buffer *gst.Buffer
	mapped bool
}

func (s *gstSample) Dimensions() (int, int, bool) {
	if s.sample == nil {
		return 0, 0, false
	}
	return sampleDimensions(s.sample)
}

func (s *gstSample) Map() (engine.RawFrame, error) {
	if s.sample == nil {
		return engine.RawFrame{}, fmt.Errorf("gstengine: sample released")
	}
	width, height, ok := sampleDimensions(s.sample)
	if !ok {
		return engine.RawFrame{}, fmt.Errorf("gstengine: sample has no video format")
	}

	buffer := s.sample.GetBuffer()
	if buffer == nil {
		return engine.RawFrame{}, fmt.Errorf("gstengine: sample has no buffer")
	}

	mapInfo := buffer.Map(gst.MapRead)
	data := mapInfo.Bytes()
	if len(data) == 0 {
		buffer.Unmap()
		return engine.RawFrame{}, fmt.Errorf("gstengine: could not map buffer")
	}
	s.buffer = buffer
	s.mapped = true

	return engine.RawFrame{
		Data:        data,
		Width:       width,
		Height:      height,
		Stride:      rgbStride(width),
		PixelFormat: "RGB",
	}, nil
}

func (s *gstSample) Unmap() {
	if s.mapped && s.buffer != nil {
		s.buffer.Unmap()
	}
	s.mapped = false
	s.buffer = nil
}

func (s *gstSample) Release() {
	s.Unmap()
	s.sample = nil
}

// sampleDimensions reads width and height from the sample caps. The sink caps
// fix the format to RGB; height depends on the source pixel-aspect-ratio, so
// both are read from the negotiated caps.
func sampleDimensions(sample *gst.Sample) (int, int, bool) {
	caps := sample.GetCaps()
	if caps == nil || caps.GetSize() == 0 {
		return 0, 0, false
	}
	structure := caps.GetStructureAt(0)
	if structure == nil || structure.Name() != "video/x-raw" {
		return 0, 0, false
	}

	width, okW := intField(structure, "width")
	height, okH := intField(structure, "height")
	if !okW || !okH || width <= 0 || height <= 0 {
		return 0, 0, false
	}
	return width, height, true
}

func intField(s *gst.Structure, key string) (int, bool) {
	v, err := s.GetValue(key)
	if err != nil {
		return 0, false
	}
	switch n := v.(type) {
	case int:
		return n, true
	case int32:
		return int(n), true
	case int64:
		return int(n), true
	case uint:
		return int(n), true
	case uint32:
		return int(n), true
	default:
		return 0, false
	}
}

// rgbStride is the row size of packed RGB video buffers: GStreamer rounds
// each row up to a multiple of 4 bytes.
func rgbStride(width int) int {
	return (width*3 + 3) &^ 3
}
