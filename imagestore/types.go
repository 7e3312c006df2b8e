package imagestore

import "io"

// FileUpload is one uploaded file handed to the store. Size is the size the
// client declared, zero when unknown; Content is still read with a limit.
type FileUpload struct {
	OriginalName string
	Size         int64
	Content      io.Reader
}

// ImageDetails carries the optional descriptive fields of a new image.
type ImageDetails struct {
	Description string
	Type        string
}

// ImageUpdate lists the fields to overwrite; nil fields are left alone.
type ImageUpdate struct {
	Description *string `json:"description"`
	Order       *int    `json:"order"`
	Type        *string `json:"type"`
}

// ReorderRequest assigns new orders either by id map or by a complete
// ordered id list. OrderedIDs wins when both are set.
type ReorderRequest struct {
	OrderMap   map[string]int `json:"orderMap"`
	OrderedIDs []string       `json:"imageIds"`
}

// ImportResult summarizes an import merge.
type ImportResult struct {
	Imported int `json:"imported"`
	Skipped  int `json:"skipped"`
}
