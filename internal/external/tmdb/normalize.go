package tmdb

import (
	"github.com/glefebvre/mediacatalog/internal/models"
	"gorm.io/datatypes"
)

// NormalizeMovie maps a raw movie payload to the catalog shape.
// Every list is non-nil so stored records never carry JSON nulls.
func NormalizeMovie(d *MovieDetails) *models.Movie {
	var collection models.Collection
	if d.BelongsToCollection != nil {
		collection = *d.BelongsToCollection
	}

	return &models.Movie{
		ID:               d.ID,
		Title:            d.Title,
		OriginalTitle:    d.OriginalTitle,
		Overview:         d.Overview,
		Tagline:          d.Tagline,
		ReleaseDate:      d.ReleaseDate,
		Status:           d.Status,
		OriginalLanguage: d.OriginalLanguage,
		Genres:           datatypes.JSONSlice[models.Genre](orEmpty(d.Genres)),
		Adult:            d.Adult,
		Homepage:         d.Homepage,
		IMDBID:           d.IMDBID,
		OriginCountry:    datatypes.JSONSlice[string](orEmpty(d.OriginCountry)),
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		Images:           datatypes.NewJSONType(normalizeImages(d.Images)),
		Popularity:       d.Popularity,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		Runtime:          d.Runtime,
		Budget:           d.Budget,
		Revenue:          d.Revenue,
		Collection:       datatypes.NewJSONType(collection),
		Similar:          datatypes.JSONSlice[int64](similarIDs(d.Similar)),
		Videos:           datatypes.JSONSlice[models.Video](videos(d.Videos)),
	}
}

// NormalizeSeries maps a raw tv payload to the catalog shape
func NormalizeSeries(d *SeriesDetails) *models.Series {
	return &models.Series{
		ID:               d.ID,
		Name:             d.Name,
		OriginalName:     d.OriginalName,
		Overview:         d.Overview,
		Tagline:          d.Tagline,
		FirstAirDate:     d.FirstAirDate,
		LastAirDate:      d.LastAirDate,
		Status:           d.Status,
		Type:             d.Type,
		InProduction:     d.InProduction,
		OriginalLanguage: d.OriginalLanguage,
		Languages:        datatypes.JSONSlice[string](orEmpty(d.Languages)),
		Genres:           datatypes.JSONSlice[models.Genre](orEmpty(d.Genres)),
		Adult:            d.Adult,
		Homepage:         d.Homepage,
		OriginCountry:    datatypes.JSONSlice[string](orEmpty(d.OriginCountry)),
		Networks:         datatypes.JSONSlice[models.Network](orEmpty(d.Networks)),
		EpisodeRunTime:   datatypes.JSONSlice[int](orEmpty(d.EpisodeRunTime)),
		PosterPath:       d.PosterPath,
		BackdropPath:     d.BackdropPath,
		Images:           datatypes.NewJSONType(normalizeImages(d.Images)),
		Popularity:       d.Popularity,
		VoteAverage:      d.VoteAverage,
		VoteCount:        d.VoteCount,
		NumberOfSeasons:  d.NumberOfSeasons,
		NumberOfEpisodes: d.NumberOfEpisodes,
		Seasons:          datatypes.JSONSlice[models.Season](orEmpty(d.Seasons)),
		Similar:          datatypes.JSONSlice[int64](similarIDs(d.Similar)),
		Videos:           datatypes.JSONSlice[models.Video](videos(d.Videos)),
	}
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func normalizeImages(set *imageSet) models.Images {
	if set == nil {
		return models.Images{Backdrops: []models.Image{}, Posters: []models.Image{}, Logos: []models.Image{}}
	}
	return models.Images{
		Backdrops: orEmpty(set.Backdrops),
		Posters:   orEmpty(set.Posters),
		Logos:     orEmpty(set.Logos),
	}
}

func similarIDs(refs *pagedRefs) []int64 {
	ids := []int64{}
	if refs == nil {
		return ids
	}
	for _, r := range refs.Results {
		ids = append(ids, r.ID)
	}
	return ids
}

func videos(list *videoList) []models.Video {
	if list == nil {
		return []models.Video{}
	}
	return orEmpty(list.Results)
}
