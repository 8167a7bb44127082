package surface

import (
	"errors"
	"log/slog"
	"math"
)

// minScaleDimension is the smallest target dimension Scale accepts.
const minScaleDimension = 1

// ErrInvalidScale is returned when Scale gets a nil source or a degenerate target.
var ErrInvalidScale = errors.New("surface: invalid scale request")

// Scale magnifies src into a new width x height surface by box replication.
//
// Every source pixel is copied into the ceil(stretch_x) x ceil(stretch_y) block
// of destination cells it maps to; no averaging or filtering happens. With a
// stretch factor below 1 source pixels simply overwrite each other, so the
// scaler is only meant for target >= source.
//
// The destination has the source layout and 4-byte aligned rows. Ownership of
// the returned surface passes to the caller.
func Scale(src *Surface, width, height int) (*Surface, error) {
	if src == nil || width < minScaleDimension || height < minScaleDimension {
		return nil, ErrInvalidScale
	}
	if src.Width <= 0 || src.Height <= 0 {
		return nil, ErrInvalidScale
	}

	dst, err := New(width, height, src.Layout)
	if err != nil {
		return nil, err
	}

	stretchX := float64(width) / float64(src.Width)
	stretchY := float64(height) / float64(src.Height)
	blockW := int(math.Ceil(stretchX))
	blockH := int(math.Ceil(stretchY))

	slog.Debug("surface: scaling",
		"from", [2]int{src.Width, src.Height},
		"to", [2]int{width, height},
		"stretch_x", stretchX,
		"stretch_y", stretchY,
	)

	for y := 0; y < src.Height; y++ {
		baseY := int(stretchY * float64(y))
		for x := 0; x < src.Width; x++ {
			baseX := int(stretchX * float64(x))
			v := src.Pixel(x, y)

			for oy := 0; oy < blockH; oy++ {
				dy := baseY + oy
				if dy >= height {
					break
				}
				for ox := 0; ox < blockW; ox++ {
					dx := baseX + ox
					if dx >= width {
						break
					}
					dst.SetPixel(dx, dy, v)
				}
			}
		}
	}

	return dst, nil
}
