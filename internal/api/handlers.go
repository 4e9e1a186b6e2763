package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/glefebvre/mediacatalog/internal/database"
	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/models"
)

func (s *Server) healthCheck(c *gin.Context) {
	if err := database.HealthCheck(); err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "unhealthy",
			"error":  err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// respondError writes the error body matching err's status code
func (s *Server) respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)

	label := http.StatusText(status)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.WithFields(map[string]interface{}{
			"path": c.Request.URL.Path,
			"code": string(apperrors.GetErrorCode(err)),
		}).ErrorContext(c.Request.Context(), "request failed", err)
		message = "an unexpected error occurred"
	}

	c.AbortWithStatusJSON(status, ErrorResponse{Error: label, Message: message})
}

// kindParam reads :type; all is only accepted when allowAll is set
func kindParam(c *gin.Context, allowAll bool) (models.Kind, error) {
	raw := c.Param("type")
	kind, ok := models.ParseKind(raw)
	if !ok || (kind == models.KindAll && !allowAll) {
		return "", apperrors.InvalidInputError("type", "unsupported media type "+raw)
	}
	return kind, nil
}

func idParam(c *gin.Context) (int64, error) {
	raw := c.Param("id")
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, apperrors.InvalidInputError("id", "invalid id "+raw)
	}
	return id, nil
}

// pageQuery reads ?page, reading anything unparsable or below 1 as the first page
func pageQuery(c *gin.Context) int {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		return 1
	}
	return page
}

// mediaRef parses the :type and :id pair of the per-record routes
func mediaRef(c *gin.Context) (models.Kind, int64, error) {
	kind, err := kindParam(c, false)
	if err != nil {
		return "", 0, err
	}
	id, err := idParam(c)
	if err != nil {
		return "", 0, err
	}
	return kind, id, nil
}
