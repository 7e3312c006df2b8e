package models

import "time"

// TimestampLayout is the ISO-8601 layout used for ImageRecord.Timestamp.
const TimestampLayout = "2006-01-02T15:04:05.000Z07:00"

// ImageRecord is one stored or linked image belonging to a property.
type ImageRecord struct {
	ID           string         `json:"id"`
	PropertyID   string         `json:"propertyId"`
	URL          string         `json:"url"`
	ThumbnailURL string         `json:"thumbnailUrl,omitempty"`
	Description  string         `json:"description"`
	Type         string         `json:"type"`
	Order        int            `json:"order"`
	Timestamp    string         `json:"timestamp"`
	Metadata     *ImageMetadata `json:"metadata,omitempty"`
}

// ImageMetadata describes where an image came from. Uploads carry the file
// fields, URL references only carry Source.
type ImageMetadata struct {
	Filename     string `json:"filename,omitempty"`
	OriginalName string `json:"originalName,omitempty"`
	Size         int64  `json:"size,omitempty"`
	MimeType     string `json:"mimetype,omitempty"`
	Source       string `json:"source,omitempty"`
}

// IsUpload reports whether the record owns files on a disk.
func (r *ImageRecord) IsUpload() bool {
	return r.Metadata != nil && r.Metadata.Filename != ""
}

// Touch refreshes the record timestamp.
func (r *ImageRecord) Touch(now time.Time) {
	r.Timestamp = FormatTimestamp(now)
}

// FormatTimestamp renders t the way the collection document stores it.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ImageCollection is the whole persisted document.
type ImageCollection struct {
	PropertyImages []ImageRecord `json:"property_images"`
}

// NewImageCollection returns an empty collection that encodes as an empty array.
func NewImageCollection() *ImageCollection {
	return &ImageCollection{PropertyImages: []ImageRecord{}}
}

// ForProperty returns copies of the records belonging to propertyID in stored order.
func (c *ImageCollection) ForProperty(propertyID string) []ImageRecord {
	out := []ImageRecord{}
	for _, img := range c.PropertyImages {
		if img.PropertyID == propertyID {
			out = append(out, img)
		}
	}
	return out
}

// CountForProperty returns how many records belong to propertyID.
func (c *ImageCollection) CountForProperty(propertyID string) int {
	n := 0
	for _, img := range c.PropertyImages {
		if img.PropertyID == propertyID {
			n++
		}
	}
	return n
}

// MaxOrderForProperty returns the highest order among propertyID's records, or 0.
func (c *ImageCollection) MaxOrderForProperty(propertyID string) int {
	max := 0
	for _, img := range c.PropertyImages {
		if img.PropertyID == propertyID && img.Order > max {
			max = img.Order
		}
	}
	return max
}

// IndexOf returns the position of the record matching both ids, or -1.
func (c *ImageCollection) IndexOf(propertyID, imageID string) int {
	for i, img := range c.PropertyImages {
		if img.ID == imageID && img.PropertyID == propertyID {
			return i
		}
	}
	return -1
}
