package imagestore

import (
	"path"
)

// DefaultPathGenerator lays files out as <prefix>/<propertyId>/original/<file>
// and <prefix>/<propertyId>/thumbnails/thumb-<file>.
type DefaultPathGenerator struct {
	prefix string
}

func (p *DefaultPathGenerator) getBasePath(propertyID string) string {
	return path.Join(p.prefix, propertyID)
}

func (p *DefaultPathGenerator) GetPath(propertyID, filename string) string {
	return path.Join(p.getBasePath(propertyID), "original", filename)
}

func (p *DefaultPathGenerator) GetThumbnailPath(propertyID, filename string) string {
	return path.Join(p.getBasePath(propertyID), "thumbnails", "thumb-"+filename)
}
