package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/memoryhaze/memoryhaze/internal/middleware"
	"github.com/memoryhaze/memoryhaze/internal/service"
)

// UploadMedia accepts one multipart file per call. Form fields: "file",
// "kind" (photo|audio, default photo) and "position" (photo index
// within the gift, default 1).
func (h HandlerSet) UploadMedia(c *gin.Context) {
	user, ok := middleware.CurrentUser(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
		return
	}

	kind := c.DefaultPostForm("kind", service.UploadKindPhoto)
	position, err := strconv.Atoi(c.DefaultPostForm("position", "1"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "position must be a number"})
		return
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "could not read file"})
		return
	}
	defer file.Close()

	ref, err := h.uploadService.Upload(c.Request.Context(), user, kind, position, file)
	if err != nil {
		writeServiceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ref)
}
