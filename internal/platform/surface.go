package platform

import (
	"image"
	"image/color"
	"image/draw"
)

// Surface is a CPU pixel buffer used as the back or front buffer of a
// headless window. The interface is kept narrow so renderers can draw into it
// without knowing which driver produced it.
type Surface interface {
	ColorModel() color.Model
	Bounds() image.Rectangle
	At(x, y int) color.Color
	Set(x, y int, c color.Color)
	RGBA() *image.RGBA
}

// NewRGBASurface creates a Surface backed by image.RGBA.
func NewRGBASurface(width, height int) Surface {
	return &rgbaSurface{
		img: image.NewRGBA(image.Rect(0, 0, width, height)),
	}
}

// WrapRGBASurface exposes an existing *image.RGBA as a Surface.
func WrapRGBASurface(img *image.RGBA) Surface {
	if img == nil {
		return nil
	}
	return &rgbaSurface{img: img}
}

// CopySurface copies src over dst; sizes are clipped to dst.
func CopySurface(dst, src Surface) {
	if dst == nil || src == nil {
		return
	}
	draw.Draw(dst.RGBA(), dst.Bounds(), src.RGBA(), src.Bounds().Min, draw.Src)
}

type rgbaSurface struct {
	img *image.RGBA
}

func (s *rgbaSurface) ColorModel() color.Model     { return s.img.ColorModel() }
func (s *rgbaSurface) Bounds() image.Rectangle     { return s.img.Bounds() }
func (s *rgbaSurface) At(x, y int) color.Color     { return s.img.At(x, y) }
func (s *rgbaSurface) Set(x, y int, c color.Color) { s.img.Set(x, y, c) }
func (s *rgbaSurface) RGBA() *image.RGBA           { return s.img }
