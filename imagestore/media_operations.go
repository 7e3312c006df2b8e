package imagestore

import (
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// detectMimeType sniffs the MIME type from file content and returns it with
// the canonical extension for that type.
func detectMimeType(content []byte) (string, string) {
	mime := mimetype.Detect(content)
	return mime.String(), mime.Extension()
}

func isImageMimeType(mimeType string) bool {
	return strings.HasPrefix(mimeType, "image/")
}

// readUpload reads at most limit bytes and reports whether the content was larger.
func readUpload(r io.Reader, limit int64) ([]byte, bool, error) {
	data, err := io.ReadAll(io.LimitReader(r, limit+1))
	if err != nil {
		return nil, false, err
	}
	if int64(len(data)) > limit {
		return nil, true, nil
	}
	return data, false, nil
}
