// Package sliceio loads and saves volumes as directories of numbered 2-D
// slice images, which is how scanner exports commonly arrive on disk.
package sliceio

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	xdraw "golang.org/x/image/draw"

	"medreg/pkg/plotting"
	"medreg/pkg/volume"
)

// LoadVolume reads all PNG/JPEG images of a directory, sorted by the numeric
// part of their filenames to preserve the slice order, and stacks them into a
// 3-dimensional uint8 image with the given per-axis spacing. All slices must
// share the same dimensions.
func LoadVolume(dir string, spacing []float64) (*volume.Image, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read slice directory: %w", err)
	}

	var files []string
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if ext == ".png" || ext == ".jpg" || ext == ".jpeg" {
			files = append(files, e.Name())
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no slice images found in %s", dir)
	}

	// numeric sort keeps the anatomical slice order intact
	sort.Slice(files, func(i, j int) bool {
		return extractNumber(files[i]) < extractNumber(files[j])
	})

	var img *volume.Image
	var width, height int
	for z, name := range files {
		slice, err := loadGray(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("failed to load slice %s: %w", name, err)
		}
		b := slice.Bounds()
		if img == nil {
			width, height = b.Dx(), b.Dy()
			img = volume.New([]int{width, height, len(files)}, volume.UInt8)
			if spacing != nil {
				if err := img.SetSpacing(spacing); err != nil {
					return nil, err
				}
			}
		} else if b.Dx() != width || b.Dy() != height {
			return nil, fmt.Errorf("slice %s is %dx%d, expected %dx%d", name, b.Dx(), b.Dy(), width, height)
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				img.Set(float64(slice.GrayAt(x, y).Y), x, y, z)
			}
		}
	}
	return img, nil
}

// SaveVolume writes every axial slice of a 3-dimensional scalar image as a
// 3-digit-numbered PNG under dir, rescaled to the 8-bit range.
func SaveVolume(dir string, img *volume.Image) error {
	if img.Dimension() != 3 {
		return fmt.Errorf("saving requires a 3-dimensional image, got %d dimensions", img.Dimension())
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	rescaled := volume.Cast(volume.RescaleIntensity(img, 0, 255), volume.UInt8)
	for z := 0; z < img.Size()[2]; z++ {
		slice, err := volume.AxialSlice(rescaled, z)
		if err != nil {
			return err
		}
		if err := plotting.WritePNG(filepath.Join(dir, fmt.Sprintf("%03d.png", z)), slice); err != nil {
			return err
		}
	}
	return nil
}

// loadGray decodes an image file and converts it to 8-bit grayscale.
func loadGray(path string) (*image.Gray, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	src, _, err := image.Decode(f)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	gray := image.NewGray(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(gray, gray.Bounds(), src, b.Min, xdraw.Src)
	return gray, nil
}

// extractNumber extracts the numeric part from a filename
func extractNumber(filename string) int {
	numStr := ""
	for _, c := range filepath.Base(filename) {
		if c >= '0' && c <= '9' {
			numStr += string(c)
		}
	}
	if numStr != "" {
		if num, err := strconv.Atoi(numStr); err == nil {
			return num
		}
	}
	return 0
}
