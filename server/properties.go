package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planetland/backend/properties"
)

func (s *Server) listProperties(c *gin.Context) {
	list, err := s.properties.List(c.Request.Context())
	if err != nil {
		s.logger.Error("Failed to list properties: %v", err)
		respondFail(c, http.StatusInternalServerError, "Failed to read property data")
		return
	}
	c.JSON(http.StatusOK, list)
}

func (s *Server) getProperty(c *gin.Context) {
	property, err := s.properties.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, properties.ErrNotFound) {
		respondFail(c, http.StatusNotFound, "Property not found")
		return
	}
	if err != nil {
		s.logger.Error("Failed to get property %s: %v", c.Param("id"), err)
		respondFail(c, http.StatusInternalServerError, "Failed to read property data")
		return
	}
	c.JSON(http.StatusOK, property)
}
