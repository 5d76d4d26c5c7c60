//go:build cgo
// +build cgo

package controller

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/gen2brain/go-fitz"
)

// renderPDFToPNGs rasterizes up to maxPages pages of the PDF into outDir
// and returns the page sizes in points alongside the written file paths.
// Pages already rendered are overwritten.
func renderPDFToPNGs(pdfPath, outDir string, dpi, maxPages int) (sizes [][2]float64, pngPaths []string, err error) {
	doc, err := fitz.New(pdfPath)
	if err != nil {
		return nil, nil, fmt.Errorf("open pdf %q: %w", pdfPath, err)
	}
	defer doc.Close()

	if err := os.MkdirAll(outDir, 0755); err != nil {
		return nil, nil, err
	}

	n := doc.NumPage()
	if maxPages > 0 && n > maxPages {
		n = maxPages
	}

	for i := 0; i < n; i++ {
		img, err := doc.ImageDPI(i, float64(dpi))
		if err != nil {
			return nil, nil, fmt.Errorf("rasterize page %d: %w", i+1, err)
		}

		// pixel size back to points (image was rendered at dpi, points are 1/72in)
		b := img.Bounds()
		wPt := round2(float64(b.Dx()) * 72.0 / float64(dpi))
		hPt := round2(float64(b.Dy()) * 72.0 / float64(dpi))
		sizes = append(sizes, [2]float64{wPt, hPt})

		outPath := filepath.Join(outDir, fmt.Sprintf("page-%d.png", i+1))
		if err := savePNG(outPath, img); err != nil {
			return nil, nil, err
		}
		pngPaths = append(pngPaths, outPath)
	}
	return sizes, pngPaths, nil
}

func savePNG(path string, m image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	return png.Encode(f, m)
}

func round2(f float64) float64 {
	return float64(int(f*100+0.5)) / 100
}
