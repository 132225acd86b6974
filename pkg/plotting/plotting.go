// Package plotting renders images and diagnostic plots to disk for
// presentation and documentation purposes. All rendering is off-screen: plots
// are drawn onto in-memory canvases and written as PNG files, so no display
// is ever required.
package plotting

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"

	xdraw "golang.org/x/image/draw"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"medreg/pkg/volume"
)

// ToImage converts a 2-dimensional volume image into a renderable image.
// Scalar images become grayscale, 3-component images become RGB; values are
// read as 8-bit samples, so callers rescale to [0, 255] first.
func ToImage(img *volume.Image) (image.Image, error) {
	if img.Dimension() != 2 {
		return nil, fmt.Errorf("only 2-dimensional images can be rendered, got %d dimensions", img.Dimension())
	}
	size := img.Size()
	switch img.Components() {
	case 1:
		out := image.NewGray(image.Rect(0, 0, size[0], size[1]))
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				out.SetGray(x, y, color.Gray{Y: clamp8(img.At(x, y))})
			}
		}
		return out, nil
	case 3:
		out := image.NewRGBA(image.Rect(0, 0, size[0], size[1]))
		for y := 0; y < size[1]; y++ {
			for x := 0; x < size[0]; x++ {
				out.SetRGBA(x, y, color.RGBA{
					R: clamp8(img.AtComponent(0, x, y)),
					G: clamp8(img.AtComponent(1, x, y)),
					B: clamp8(img.AtComponent(2, x, y)),
					A: 255,
				})
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("cannot render an image with %d components", img.Components())
	}
}

// FromImage converts a renderable image into a 2-dimensional 3-component
// uint8 volume image.
func FromImage(src image.Image) *volume.Image {
	bounds := src.Bounds()
	// normalize the color model up front so per-pixel reads are plain bytes
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), src, bounds.Min, xdraw.Src)

	out := volume.NewVector([]int{bounds.Dx(), bounds.Dy()}, volume.UInt8, 3)
	for y := 0; y < bounds.Dy(); y++ {
		for x := 0; x < bounds.Dx(); x++ {
			i := rgba.PixOffset(x, y)
			out.SetComponent(0, float64(rgba.Pix[i]), x, y)
			out.SetComponent(1, float64(rgba.Pix[i+1]), x, y)
			out.SetComponent(2, float64(rgba.Pix[i+2]), x, y)
		}
	}
	return out
}

// WritePNG renders a 2-dimensional volume image and writes it as PNG.
func WritePNG(path string, img *volume.Image) error {
	rendered, err := ToImage(img)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, rendered); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

func clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v)
}

// histogramData flattens the intensities of either one axial slice
// (sliceNo >= 0) or the whole image (sliceNo < 0).
func histogramData(img *volume.Image, sliceNo int) ([]float64, error) {
	if sliceNo >= 0 {
		slice, err := volume.AxialSlice(img, sliceNo)
		if err != nil {
			return nil, err
		}
		return slice.Data(), nil
	}
	return img.Data(), nil
}

// Histogram plots an intensity histogram of an image, or of one of its axial
// slices when sliceNo is non-negative, and writes it to path.
func Histogram(path string, img *volume.Image, bins, sliceNo int, title, xlabel, ylabel string) error {
	data, err := histogramData(img, sliceNo)
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	h, err := plotter.NewHist(plotter.Values(data), bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	p.Add(h)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// HistogramOverlay plots the intensity histograms of two images on shared
// axes with half-transparent fills, and writes the plot to path. Both images
// are sliced at sliceNo when it is non-negative.
func HistogramOverlay(path string, img1, img2 *volume.Image, bins, sliceNo int, title, xlabel, ylabel string) error {
	data1, err := histogramData(img1, sliceNo)
	if err != nil {
		return err
	}
	data2, err := histogramData(img2, sliceNo)
	if err != nil {
		return err
	}
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = xlabel
	p.Y.Label.Text = ylabel

	h1, err := plotter.NewHist(plotter.Values(data1), bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	h1.FillColor = color.NRGBA{R: 255, A: 128}
	h2, err := plotter.NewHist(plotter.Values(data2), bins)
	if err != nil {
		return fmt.Errorf("failed to build histogram: %w", err)
	}
	h2.FillColor = color.NRGBA{B: 255, A: 128}
	p.Add(h1, h2)

	return p.Save(6*vg.Inch, 4*vg.Inch, path)
}

// Slice writes one axial slice of a 3-dimensional image as a border-free
// grayscale PNG, rescaled to the full 8-bit range.
func Slice(path string, img *volume.Image, sliceNo int) error {
	slice, err := volume.AxialSlice(img, sliceNo)
	if err != nil {
		return err
	}
	gray := volume.Cast(volume.RescaleIntensity(slice, 0, 255), volume.UInt8)
	return WritePNG(path, gray)
}

// Segmentation2D writes a 2-dimensional image with an overlaid mask
// indicating segmentation quality against a ground truth: red marks
// under-segmentation, green correct segmentation, blue over-segmentation and
// the background stays transparent. The overlay is blended with the given
// alpha in [0, 1]; label selects the foreground value compared in both masks.
func Segmentation2D(path string, img, groundTruth, segmentation *mat.Dense, alpha float64, label float64) error {
	r, c := img.Dims()
	gr, gc := groundTruth.Dims()
	sr, sc := segmentation.Dims()
	if gr != r || gc != c || sr != r || sc != c {
		return fmt.Errorf("image, ground truth, and segmentation must have equal shape")
	}
	if r == 0 || c == 0 {
		return fmt.Errorf("only non-empty 2-dimensional images supported")
	}

	// grayscale base, rescaled to the 8-bit range
	min, max := mat.Min(img), mat.Max(img)
	scale := 0.0
	if max > min {
		scale = 255 / (max - min)
	}
	base := image.NewRGBA(image.Rect(0, 0, c, r))
	overlay := image.NewNRGBA(image.Rect(0, 0, c, r))
	a := clamp8(alpha * 255)
	for y := 0; y < r; y++ {
		for x := 0; x < c; x++ {
			g := clamp8((img.At(y, x) - min) * scale)
			base.SetRGBA(x, y, color.RGBA{R: g, G: g, B: g, A: 255})

			inTruth := groundTruth.At(y, x) == label
			inSeg := segmentation.At(y, x) == label
			switch {
			case inTruth && !inSeg:
				overlay.SetNRGBA(x, y, color.NRGBA{R: 255, A: a})
			case inTruth && inSeg:
				overlay.SetNRGBA(x, y, color.NRGBA{G: 255, A: a})
			case !inTruth && inSeg:
				overlay.SetNRGBA(x, y, color.NRGBA{B: 255, A: a})
			}
		}
	}
	xdraw.Draw(base, base.Bounds(), overlay, image.Point{}, xdraw.Over)

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create image file: %w", err)
	}
	defer f.Close()
	if err := png.Encode(f, base); err != nil {
		return fmt.Errorf("failed to encode image: %w", err)
	}
	return nil
}

// MetricPlot renders a metric-value-per-iteration curve into an in-memory
// image. Iterations listed in levelChanges are highlighted with markers; the
// registration progress plotter uses them to show resolution transitions.
func MetricPlot(values []float64, levelChanges []int) (image.Image, error) {
	p := plot.New()
	p.X.Label.Text = "Iteration"
	p.Y.Label.Text = "Metric Value"

	pts := make(plotter.XYs, len(values))
	for i, v := range values {
		pts[i].X = float64(i)
		pts[i].Y = v
	}
	line, err := plotter.NewLine(pts)
	if err != nil {
		return nil, fmt.Errorf("failed to build metric line: %w", err)
	}
	line.Color = color.RGBA{R: 255, A: 255}
	p.Add(line)

	marks := make(plotter.XYs, 0, len(levelChanges))
	for _, idx := range levelChanges {
		if idx >= 0 && idx < len(values) {
			marks = append(marks, plotter.XY{X: float64(idx), Y: values[idx]})
		}
	}
	if len(marks) > 0 {
		scatter, err := plotter.NewScatter(marks)
		if err != nil {
			return nil, fmt.Errorf("failed to build level markers: %w", err)
		}
		scatter.GlyphStyle.Color = color.RGBA{B: 255, A: 255}
		scatter.GlyphStyle.Shape = draw.PyramidGlyph{}
		scatter.GlyphStyle.Radius = vg.Points(4)
		p.Add(scatter)
	}

	canvas := vgimg.New(4*vg.Inch, 3*vg.Inch)
	p.Draw(draw.New(canvas))
	return canvas.Image(), nil
}
