package assemble

import (
	"fmt"
	"image"
	"math"
	"os"
)

// posterCandidates are the fractions of the clip a poster frame may come from.
var posterCandidates = []float64{0.25, 0.5, 0.75}

// Appeal rates how good a frame looks as a poster, in [0,1]. It favors
// colorful, contrasty frames of moderate brightness, which rules out the
// black or washed out frames a fade tends to produce.
func Appeal(img image.Image) float64 {
	b := img.Bounds()
	pixels := float64(b.Dx() * b.Dy())
	if pixels == 0 {
		return 0
	}

	var rSum, gSum, bSum, lumSum, lumSq float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			r, g, bl, _ := img.At(x, y).RGBA()
			rf, gf, bf := float64(r>>8), float64(g>>8), float64(bl>>8)
			rSum += rf
			gSum += gf
			bSum += bf
			lum := 0.299*rf + 0.587*gf + 0.114*bf
			lumSum += lum
			lumSq += lum * lum
		}
	}

	rMean, gMean, bMean := rSum/pixels, gSum/pixels, bSum/pixels
	colorfulness := math.Min(1, (math.Abs(rMean-gMean)+math.Abs(gMean-bMean)+math.Abs(bMean-rMean))/255)

	mean := lumSum / pixels
	// typical stddev is 0-60
	contrast := math.Min(1, math.Sqrt(math.Max(0, lumSq/pixels-mean*mean))/60)

	// best around mid grey
	brightness := 1 - math.Min(1, math.Abs(mean-128)/128)

	score := 0.4*colorfulness + 0.3*contrast + 0.3*brightness
	return math.Max(0, math.Min(1, score))
}

func appealOf(path string) (float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return 0, fmt.Errorf("decode %s: %w", path, err)
	}
	return Appeal(img), nil
}
