package extractor

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"
)

// maxPDFText caps how much text is read from a single document.
const maxPDFText = 10 << 20

// attachmentPath resolves an uploaded file name inside the per-submission
// attachments directory. Directory components in name are ignored.
func attachmentPath(dir string, userID, submissionID uuid.UUID, name string) string {
	return filepath.Join(dir, userID.String(), submissionID.String(), filepath.Base(name))
}

// ExtractPDF returns the plain text of every page of the PDF at path.
func ExtractPDF(path string) (text string, err error) {
	// The parser panics on some malformed documents.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse PDF %s: %v", filepath.Base(path), r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open PDF %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	plain, err := r.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read PDF %s: %w", filepath.Base(path), err)
	}

	b, err := io.ReadAll(io.LimitReader(plain, maxPDFText))
	if err != nil {
		return "", fmt.Errorf("failed to read PDF %s: %w", filepath.Base(path), err)
	}
	return string(b), nil
}
