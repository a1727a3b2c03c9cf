// Package inspect checks uploaded identity documents before they leave the service.
package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/ledongthuc/pdf"
)

// MaxFileSize is the per-file upload limit.
const MaxFileSize = 5 << 20

const (
	MimeJPEG = "image/jpeg"
	MimePNG  = "image/png"
	MimePDF  = "application/pdf"
)

// AllowedContentTypes are the declared types accepted for PAN and Aadhaar scans.
var AllowedContentTypes = []any{MimeJPEG, "image/jpg", MimePNG, MimePDF}

// Document is one uploaded file as received.
type Document struct {
	Name        string
	ContentType string
	Data        []byte
}

// Result describes what inspection found.
type Result struct {
	ContentType string
	Size        int
	Pages       int
}

// Check validates size and declared type, then confirms the bytes match the
// declared type. PDFs must parse and contain at least one page.
func Check(doc Document) (Result, error) {
	declared := normalizeContentType(doc.ContentType)

	if err := validation.Validate(declared,
		validation.Required.Error("content type is required"),
		validation.In(AllowedContentTypes...).Error("only JPEG, PNG, and PDF files are allowed"),
	); err != nil {
		return Result{}, err
	}
	if err := validation.Validate(doc.Data,
		validation.Required.Error("file is empty"),
		validation.Length(1, MaxFileSize).Error("file must be 5MB or smaller"),
	); err != nil {
		return Result{}, err
	}

	canonical := canonicalType(declared)
	detected := mimetype.Detect(doc.Data)
	if !detected.Is(canonical) {
		return Result{}, fmt.Errorf("file content is %s, not %s", detected.String(), canonical)
	}

	res := Result{ContentType: canonical, Size: len(doc.Data)}
	if canonical == MimePDF {
		pages, err := pdfPages(doc.Data)
		if err != nil {
			return Result{}, err
		}
		res.Pages = pages
	}
	return res, nil
}

func normalizeContentType(raw string) string {
	ct := strings.ToLower(strings.TrimSpace(raw))
	if i := strings.Index(ct, ";"); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	return ct
}

func canonicalType(ct string) string {
	if ct == "image/jpg" {
		return MimeJPEG
	}
	return ct
}

// pdfPages counts pages. Password-protected PDFs are accepted with a page
// count of zero since their page tree cannot be read.
func pdfPages(data []byte) (pages int, err error) {
	// the pdf reader panics on some malformed inputs
	defer func() {
		if rec := recover(); rec != nil {
			pages, err = 0, fmt.Errorf("PDF could not be read")
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		if encrypted(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("PDF could not be read: %w", err)
	}
	n := r.NumPage()
	if n < 1 {
		return 0, fmt.Errorf("PDF has no pages")
	}
	return n, nil
}

// encrypted reports whether err came from the security handler rather than
// from the document structure.
func encrypted(err error) bool {
	if errors.Is(err, pdf.ErrInvalidPassword) {
		return true
	}
	return strings.HasPrefix(err.Error(), "unsupported PDF: encryption")
}
