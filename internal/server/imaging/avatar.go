// Package imaging shrinks uploaded user avatars.
package imaging

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif" // регистрация декодеров
	"image/jpeg"
	_ "image/png"
	"io"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	// AvatarSize сторона квадрата, в который вписывается аватар
	AvatarSize = 120
	// AvatarQuality качество JPEG для сохраненных аватаров
	AvatarQuality = 80
	// ContentType тип результата
	ContentType = "image/jpeg"
	// MaxUploadSize ограничение на размер исходного файла
	MaxUploadSize = 5 << 20
	// maxPixels ограничивает размер декодированного изображения
	maxPixels = 40_000_000
)

// ErrUnsupportedImage returned when the upload is not a decodable image
var ErrUnsupportedImage = errors.New("unsupported or corrupt image")

// Avatar decodes src, scales it to fit inside AvatarSize x AvatarSize keeping
// the aspect ratio and encodes the result as JPEG.
func Avatar(src io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(src, MaxUploadSize+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	if len(data) > MaxUploadSize {
		return nil, fmt.Errorf("%w: larger than %d bytes", ErrUnsupportedImage, MaxUploadSize)
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || cfg.Width*cfg.Height > maxPixels {
		return nil, fmt.Errorf("%w: %dx%d", ErrUnsupportedImage, cfg.Width, cfg.Height)
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnsupportedImage, err)
	}

	bounds := img.Bounds()
	w, h := Fit(bounds.Dx(), bounds.Dy(), AvatarSize)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	// JPEG не поддерживает прозрачность, подкладываем белый фон
	draw.Draw(dst, dst.Bounds(), image.White, image.Point{}, draw.Src)
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, dst, &jpeg.Options{Quality: AvatarQuality}); err != nil {
		return nil, fmt.Errorf("failed to encode jpeg: %w", err)
	}

	return buf.Bytes(), nil
}

// Fit returns the dimensions of a w x h image scaled to fit inside a
// box x box square. Images already inside the box are scaled up.
func Fit(w, h, box int) (int, int) {
	if w <= 0 || h <= 0 {
		return box, box
	}

	if w >= h {
		nh := h * box / w
		return box, max(nh, 1)
	}

	nw := w * box / h
	return max(nw, 1), box
}
