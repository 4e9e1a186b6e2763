package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/glefebvre/mediacatalog/internal/catalog"
	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/models"
)

func (s *Server) search(c *gin.Context) {
	records, err := s.store.Search(c.Request.Context(), c.Query("query"), pageQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultsResponse{Results: toSummaries(records)})
}

func (s *Server) trending(c *gin.Context) {
	kind, err := kindParam(c, true)
	if err != nil {
		s.respondError(c, err)
		return
	}
	window, ok := models.ParseWindow(c.Query("window"))
	if !ok {
		s.respondError(c, apperrors.InvalidInputError("window", "expected day or week"))
		return
	}

	records, err := s.store.Trending(c.Request.Context(), kind, window)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultsResponse{Results: toSummaries(records)})
}

func (s *Server) group(c *gin.Context) {
	kind, err := kindParam(c, false)
	if err != nil {
		s.respondError(c, err)
		return
	}
	group, err := catalog.ParseGroup(kind, c.Param("group"))
	if err != nil {
		s.respondError(c, err)
		return
	}

	records, err := s.store.Group(c.Request.Context(), kind, group, pageQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ResultsResponse{Results: toSummaries(records)})
}

func (s *Server) spotlight(c *gin.Context) {
	kind, err := kindParam(c, true)
	if err != nil {
		s.respondError(c, err)
		return
	}

	record, err := s.store.Spotlight(c.Request.Context(), kind)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSummary(record))
}

func (s *Server) detail(c *gin.Context) {
	kind, id, err := mediaRef(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	record, err := s.store.Get(c.Request.Context(), kind, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDetail(record))
}

// videos answers null when the record has no official trailer or teaser
func (s *Server) videos(c *gin.Context) {
	kind, id, err := mediaRef(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	video, err := s.store.Video(c.Request.Context(), kind, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toVideo(video))
}

func (s *Server) images(c *gin.Context) {
	kind, id, err := mediaRef(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	logo, err := s.store.Logo(c.Request.Context(), kind, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, toLogo(logo))
}

func (s *Server) similar(c *gin.Context) {
	kind, id, err := mediaRef(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	page, err := s.store.Similar(c.Request.Context(), kind, id, pageQuery(c))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, SimilarResponse{
		Page:         page.Page,
		TotalResults: page.TotalResults,
		Results:      toSummaries(page.Results),
	})
}

func (s *Server) measure(c *gin.Context) {
	kind, id, err := mediaRef(c)
	if err != nil {
		s.respondError(c, err)
		return
	}

	measure, err := s.store.Measure(c.Request.Context(), kind, id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, MeasureResponse{Measure: measure})
}
