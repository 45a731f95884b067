package ocr

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
)

// preprocessImage improves recognition on noisy scans: grayscale, a mild
// contrast push, then sharpening. The result is written next to the input so
// the caller's temp-dir cleanup removes both.
func preprocessImage(path string) (string, error) {
	img, err := imaging.Open(path)
	if err != nil {
		return "", fmt.Errorf("open page image: %w", err)
	}

	img = imaging.Grayscale(img)
	img = imaging.AdjustContrast(img, 20)
	img = imaging.Sharpen(img, 1.2)

	out := strings.TrimSuffix(path, filepath.Ext(path)) + "-prep.png"
	if err := imaging.Save(img, out); err != nil {
		return "", fmt.Errorf("save preprocessed image: %w", err)
	}
	return out, nil
}
