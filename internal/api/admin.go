package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

func (s *Server) collections(c *gin.Context) {
	infos, err := s.inspector.Collections(c.Request.Context())
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultsResponse{Results: infos})
}

func (s *Server) collectionRows(c *gin.Context) {
	rows, err := s.inspector.Rows(c.Request.Context(), c.Param("name"), pageQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultsResponse{Results: rows})
}
