package catalog

import (
	"context"
	"math"

	"github.com/glefebvre/mediacatalog/internal/models"
)

const defaultLogoWidth = 500

// Logo is a logo image with both dimensions resolved
type Logo struct {
	FilePath    string
	AspectRatio float64
	Width       int
	Height      int
}

// Video returns the record's first official trailer or teaser, or nil when it has none
func (s *Store) Video(ctx context.Context, kind models.Kind, id int64) (*models.Video, error) {
	record, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return FeaturedVideo(videosOf(record)), nil
}

// FeaturedVideo picks the first official Trailer or Teaser
func FeaturedVideo(videos []models.Video) *models.Video {
	for i := range videos {
		v := videos[i]
		if (v.Type == "Trailer" || v.Type == "Teaser") && v.Official {
			return &v
		}
	}
	return nil
}

// Logo returns the record's English logo, else its first one, or nil when it has no logos
func (s *Store) Logo(ctx context.Context, kind models.Kind, id int64) (*Logo, error) {
	record, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}
	return PickLogo(imagesOf(record).Logos), nil
}

// PickLogo selects a logo and fills whichever dimension is missing from its aspect ratio
func PickLogo(logos []models.Image) *Logo {
	if len(logos) == 0 {
		return nil
	}

	chosen := logos[0]
	for _, l := range logos {
		if l.ISO6391 == "en" {
			chosen = l
			break
		}
	}

	ratio := chosen.AspectRatio
	if ratio <= 0 {
		ratio = 1
	}

	width, height := chosen.Width, chosen.Height
	switch {
	case width == 0 && height == 0:
		width = defaultLogoWidth
		height = int(math.Round(float64(width) / ratio))
	case height == 0:
		height = int(math.Round(float64(width) / ratio))
	case width == 0:
		width = int(math.Round(float64(height) * ratio))
	}

	return &Logo{
		FilePath:    chosen.FilePath,
		AspectRatio: ratio,
		Width:       width,
		Height:      height,
	}
}

// Measure is the runtime in minutes for movies and the season count for series
func (s *Store) Measure(ctx context.Context, kind models.Kind, id int64) (int, error) {
	record, err := s.Get(ctx, kind, id)
	if err != nil {
		return 0, err
	}
	switch r := record.(type) {
	case *models.Movie:
		return r.Runtime, nil
	case *models.Series:
		return r.NumberOfSeasons, nil
	}
	return 0, nil
}

func videosOf(record models.Record) []models.Video {
	switch r := record.(type) {
	case *models.Movie:
		return r.Videos
	case *models.Series:
		return r.Videos
	}
	return nil
}

func imagesOf(record models.Record) models.Images {
	switch r := record.(type) {
	case *models.Movie:
		return r.Images.Data()
	case *models.Series:
		return r.Images.Data()
	}
	return models.Images{}
}
