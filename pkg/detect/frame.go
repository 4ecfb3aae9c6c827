package detect

import (
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// PrepFrame downscales a JPEG frame so its longest side is at most maxDim
// and re-encodes it at the given quality. Verifier calls carry several
// frames per request, so shrinking them up front keeps payloads small.
// Frames already within bounds are still re-encoded at the target quality.
func PrepFrame(jpeg []byte, maxDim, quality int) ([]byte, error) {
	img, err := gocv.IMDecode(jpeg, gocv.IMReadColor)
	if err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	defer img.Close()

	if img.Empty() {
		return nil, fmt.Errorf("empty frame")
	}

	w, h := img.Cols(), img.Rows()
	if longest := max(w, h); longest > maxDim {
		scale := float64(maxDim) / float64(longest)
		dst := gocv.NewMat()
		defer dst.Close()
		gocv.Resize(img, &dst, image.Pt(int(float64(w)*scale), int(float64(h)*scale)), 0, 0, gocv.InterpolationArea)
		img, dst = dst, img
	}

	buf, err := gocv.IMEncodeWithParams(gocv.JPEGFileExt, img, []int{gocv.IMWriteJpegQuality, quality})
	if err != nil {
		return nil, fmt.Errorf("encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}
