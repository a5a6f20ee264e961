package assemble

import (
	"fmt"
	"image"
	"image/jpeg"
	_ "image/png"
	"os"

	"github.com/nfnt/resize"
)

// PosterWidth is the maximum width of a clip poster.
const PosterWidth = 480

// Downscale re-encodes the image at src as a JPEG no wider or taller than
// maxSize, keeping aspect ratio. Smaller images are copied unscaled.
func Downscale(src, dst string, maxSize uint) error {
	f, err := os.Open(src)
	if err != nil {
		return err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode %s: %w", src, err)
	}

	thumb := resize.Thumbnail(maxSize, maxSize, img, resize.Lanczos3)

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if err := jpeg.Encode(out, thumb, &jpeg.Options{Quality: 85}); err != nil {
		out.Close()
		return fmt.Errorf("encode %s: %w", dst, err)
	}
	return out.Close()
}
