package recognizer

import (
	"image"
	_ "image/jpeg"
	_ "image/png"

	_ "github.com/gen2brain/avif"
	_ "golang.org/x/image/webp"

	"github.com/disintegration/imaging"
)

const DefaultImageSize = 224

// ViT processors normalize every channel with mean 0.5 and std 0.5.
var (
	vitMean = [3]float32{0.5, 0.5, 0.5}
	vitStd  = [3]float32{0.5, 0.5, 0.5}
)

// Preprocess resizes img to size x size and returns normalized CHW float32
// data for the model input.
func Preprocess(img image.Image, size int) []float32 {
	if size <= 0 {
		size = DefaultImageSize
	}
	resized := imaging.Resize(img, size, size, imaging.Lanczos)

	out := make([]float32, 3*size*size)
	rBase := 0
	gBase := size * size
	bBase := 2 * size * size

	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			r, g, b, _ := resized.At(x, y).RGBA()
			fr := float32(r) / 65535.0
			fg := float32(g) / 65535.0
			fb := float32(b) / 65535.0

			out[rBase] = (fr - vitMean[0]) / vitStd[0]
			out[gBase] = (fg - vitMean[1]) / vitStd[1]
			out[bBase] = (fb - vitMean[2]) / vitStd[2]

			rBase++
			gBase++
			bBase++
		}
	}
	return out
}
