package server

import (
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"os"

	"github.com/gin-gonic/gin"
	"github.com/planetland/backend/imagestore"
)

type addImageURLRequest struct {
	URL         string `json:"url"`
	Description string `json:"description"`
	Type        string `json:"type"`
}

func (s *Server) listImages(c *gin.Context) {
	images, err := s.store.ListImages(c.Request.Context())
	if err != nil {
		s.respondError(c, "get images", err)
		return
	}
	c.JSON(http.StatusOK, images)
}

func (s *Server) listPropertyImages(c *gin.Context) {
	images, err := s.store.ListPropertyImages(c.Request.Context(), c.Param("propertyId"))
	if err != nil {
		s.respondError(c, "get property images", err)
		return
	}
	c.JSON(http.StatusOK, images)
}

// multipartForm parses the request and hands back a cleanup func that
// removes any spilled temp files.
func multipartForm(c *gin.Context) (*multipart.Form, func(), bool) {
	form, err := c.MultipartForm()
	if err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid multipart form")
		return nil, nil, false
	}
	return form, func() { form.RemoveAll() }, true
}

func formValue(form *multipart.Form, key string) string {
	if values := form.Value[key]; len(values) > 0 {
		return values[0]
	}
	return ""
}

func formValues(form *multipart.Form, key string) []string {
	if values, ok := form.Value[key]; ok {
		return values
	}
	return form.Value[key+"[]"]
}

func (s *Server) uploadImage(c *gin.Context) {
	form, cleanup, ok := multipartForm(c)
	if !ok {
		return
	}
	defer cleanup()

	files := form.File["image"]
	if len(files) == 0 {
		respondFail(c, http.StatusBadRequest, "No image file uploaded")
		return
	}

	header := files[0]
	file, err := header.Open()
	if err != nil {
		s.logger.Error("Failed to open uploaded file %s: %v", header.Filename, err)
		respondFail(c, http.StatusInternalServerError, "Failed to read uploaded file")
		return
	}
	defer file.Close()

	image, err := s.store.AddImage(c.Request.Context(), c.Param("propertyId"),
		&imagestore.FileUpload{
			OriginalName: header.Filename,
			Size:         header.Size,
			Content:      file,
		},
		imagestore.ImageDetails{
			Description: formValue(form, "description"),
			Type:        formValue(form, "type"),
		})
	if err != nil {
		s.respondError(c, "add image", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "image": image})
}

func (s *Server) addImageURL(c *gin.Context) {
	var req addImageURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	image, err := s.store.AddImageURL(c.Request.Context(), c.Param("propertyId"), req.URL,
		imagestore.ImageDetails{
			Description: req.Description,
			Type:        req.Type,
		})
	if err != nil {
		s.respondError(c, "add image URL", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "image": image})
}

func (s *Server) updateImage(c *gin.Context) {
	var update imagestore.ImageUpdate
	if err := c.ShouldBindJSON(&update); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	image, err := s.store.UpdateImage(c.Request.Context(), c.Param("propertyId"), c.Param("imageId"), update)
	if err != nil {
		s.respondError(c, "update image", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "image": image})
}

func (s *Server) deleteImage(c *gin.Context) {
	err := s.store.DeleteImage(c.Request.Context(), c.Param("propertyId"), c.Param("imageId"))
	if err != nil {
		s.respondError(c, "delete image", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Image deleted successfully"})
}

func (s *Server) bulkUpload(c *gin.Context) {
	form, cleanup, ok := multipartForm(c)
	if !ok {
		return
	}
	defer cleanup()

	headers := form.File["images"]
	if len(headers) == 0 {
		respondFail(c, http.StatusBadRequest, "No image files uploaded")
		return
	}

	uploads := make([]*imagestore.FileUpload, 0, len(headers))
	for _, header := range headers {
		file, err := header.Open()
		if err != nil {
			s.logger.Error("Failed to open uploaded file %s: %v", header.Filename, err)
			respondFail(c, http.StatusInternalServerError, "Failed to read uploaded file")
			return
		}
		defer file.Close()

		uploads = append(uploads, &imagestore.FileUpload{
			OriginalName: header.Filename,
			Size:         header.Size,
			Content:      file,
		})
	}

	images, err := s.store.BulkUpload(c.Request.Context(), c.Param("propertyId"), uploads,
		formValues(form, "descriptions"), formValues(form, "types"))
	if err != nil {
		s.respondError(c, "bulk upload images", err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "images": images})
}

// importImages spools the uploaded document into the store's temp dir and
// lets the store import and remove it.
func (s *Server) importImages(c *gin.Context) {
	form, cleanup, ok := multipartForm(c)
	if !ok {
		return
	}
	defer cleanup()

	files := form.File["jsonFile"]
	if len(files) == 0 {
		respondFail(c, http.StatusBadRequest, "No JSON file uploaded")
		return
	}

	path, err := s.spool(files[0])
	if err != nil {
		s.logger.Error("Failed to spool import file %s: %v", files[0].Filename, err)
		respondFail(c, http.StatusInternalServerError, "Failed to read import file")
		return
	}

	result, err := s.store.ImportFile(c.Request.Context(), path)
	if err != nil {
		s.respondError(c, "import images", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success":  true,
		"message":  "Images imported successfully",
		"count":    result.Imported,
		"imported": result.Imported,
		"skipped":  result.Skipped,
	})
}

func (s *Server) spool(header *multipart.FileHeader) (string, error) {
	src, err := header.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open upload: %w", err)
	}
	defer src.Close()

	dst, err := os.CreateTemp(s.store.TempDir(), "import-*.json")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to copy upload: %w", err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("failed to close temp file: %w", err)
	}
	return dst.Name(), nil
}

func (s *Server) exportImages(c *gin.Context) {
	propertyID := c.Query("propertyId")

	collection, err := s.store.Export(c.Request.Context(), propertyID)
	if err != nil {
		s.respondError(c, "export images", err)
		return
	}

	filename := "property_images.json"
	if propertyID != "" {
		filename = fmt.Sprintf("property_images_%s.json", propertyID)
	}
	disposition := mime.FormatMediaType("attachment", map[string]string{"filename": filename})
	if disposition == "" {
		disposition = "attachment; filename=property_images.json"
	}
	c.Header("Content-Disposition", disposition)
	c.JSON(http.StatusOK, collection)
}

func (s *Server) reorderImages(c *gin.Context) {
	var req imagestore.ReorderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondFail(c, http.StatusBadRequest, "Invalid order map")
		return
	}

	if err := s.store.Reorder(c.Request.Context(), c.Param("propertyId"), req); err != nil {
		s.respondError(c, "reorder images", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Images reordered successfully"})
}
