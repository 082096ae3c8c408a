// Package pdf builds a multi-page document from remote images, one image
// per A4 page.
package pdf

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/go-pdf/fpdf"
)

var ErrNoImages = errors.New("no images to assemble")

// Image is a fetched image ready for embedding. Type is "JPG" or "PNG".
type Image struct {
	Name string
	Type string
	Data []byte
}

// Assemble lays each image on its own A4 portrait page, scaled to the page
// width with the aspect ratio kept. Images taller than the page are scaled
// down to its height instead. Each image is centered vertically.
func Assemble(images []Image) ([]byte, int, error) {
	if len(images) == 0 {
		return nil, 0, ErrNoImages
	}

	doc := fpdf.New("P", "pt", "A4", "")
	doc.SetMargins(0, 0, 0)
	doc.SetAutoPageBreak(false, 0)
	pageW, pageH := doc.GetPageSize()

	for i, img := range images {
		opts := fpdf.ImageOptions{ImageType: img.Type}
		info := doc.RegisterImageOptionsReader(img.Name, opts, bytes.NewReader(img.Data))
		if !doc.Ok() {
			return nil, 0, fmt.Errorf("image %d: %w", i+1, doc.Error())
		}

		w, h := fit(info.Width(), info.Height(), pageW, pageH)
		doc.AddPage()
		doc.ImageOptions(img.Name, (pageW-w)/2, (pageH-h)/2, w, h, false, opts, 0, "")
	}

	var buf bytes.Buffer
	if err := doc.Output(&buf); err != nil {
		return nil, 0, fmt.Errorf("failed to write PDF: %w", err)
	}
	return buf.Bytes(), doc.PageCount(), nil
}

// fit scales (w, h) to the page width, or to the page height when the
// scaled image would overflow it.
func fit(w, h, pageW, pageH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return pageW, pageH
	}
	scaledH := h * pageW / w
	if scaledH <= pageH {
		return pageW, scaledH
	}
	return w * pageH / h, pageH
}
