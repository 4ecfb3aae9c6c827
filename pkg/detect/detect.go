// Package detect provides user presence detection for guided sessions using
// computer vision. A face in frame is the presence signal the session engine
// gates verification checks on.
package detect

// Detection is one detected face, normalized to the frame.
type Detection struct {
	X, Y       float64 // Top-left position (0-1 normalized)
	W, H       float64 // Width and height (0-1 normalized)
	Confidence float64 // Detection confidence (0-1)
}

// Center returns the center point of the detection.
func (d Detection) Center() (x, y float64) {
	return d.X + d.W/2, d.Y + d.H/2
}

// Area returns the area of the bounding box.
func (d Detection) Area() float64 {
	return d.W * d.H
}

// Detector is the interface for presence detection backends.
type Detector interface {
	// Detect finds faces in the JPEG image.
	Detect(jpeg []byte) ([]Detection, error)

	// Close releases resources.
	Close() error
}

// Config holds detector configuration.
type Config struct {
	ModelPath        string  // Path to ONNX model
	ConfidenceThresh float64 // Minimum confidence (default 0.5)
	InputWidth       int     // Model input width
	InputHeight      int     // Model input height
}

// DefaultConfig returns production defaults for YuNet.
func DefaultConfig() Config {
	return Config{
		ModelPath:        "models/face_detection_yunet.onnx",
		ConfidenceThresh: 0.5,
		InputWidth:       320,
		InputHeight:      320,
	}
}

// Present reports whether any detection clears the confidence threshold.
// The session engine feeds this into its presence tracker.
func Present(dets []Detection, threshold float64) bool {
	for _, d := range dets {
		if d.Confidence >= threshold {
			return true
		}
	}
	return false
}
