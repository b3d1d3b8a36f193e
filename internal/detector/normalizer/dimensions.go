package normalizer

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// DimensionProbe определяет размеры исходной картинки по её байтам.
type DimensionProbe interface {
	Dimensions(src []byte) (width, height int, err error)
}

// ImageProbe читает только заголовок картинки (png, jpeg, gif, webp, bmp, tiff).
type ImageProbe struct{}

func (ImageProbe) Dimensions(src []byte) (int, int, error) {
	if len(src) == 0 {
		return 0, 0, errors.New("empty image")
	}
	cfg, format, err := image.DecodeConfig(bytes.NewReader(src))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("%s image has no size", format)
	}
	return cfg.Width, cfg.Height, nil
}
