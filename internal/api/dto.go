package api

import (
	"github.com/glefebvre/mediacatalog/internal/catalog"
	"github.com/glefebvre/mediacatalog/internal/models"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// ResultsResponse wraps every list endpoint
type ResultsResponse struct {
	Results interface{} `json:"results"`
}

// SimilarResponse is one page of similar records
type SimilarResponse struct {
	Page         int            `json:"page"`
	TotalResults int            `json:"total_results"`
	Results      []MediaSummary `json:"results"`
}

// MeasureResponse carries the runtime of a movie or the season count of a series
type MeasureResponse struct {
	Measure int `json:"measure"`
}

// ImageSet holds the two artwork paths list views render
type ImageSet struct {
	Poster   string `json:"poster"`
	Backdrop string `json:"backdrop"`
}

// Language holds language codes of a record
type Language struct {
	Original string `json:"original"`
}

// MediaSummary is the list representation of a movie or a series
type MediaSummary struct {
	ID         int64    `json:"id"`
	Title      string   `json:"title"`
	IsForAdult bool     `json:"isForAdult"`
	Type       string   `json:"type"`
	Image      ImageSet `json:"image"`
	Overview   string   `json:"overview"`
	ReleasedAt string   `json:"releasedAt"`
	Language   Language `json:"language"`
}

// MediaDetail is the full representation of a movie or a series
type MediaDetail struct {
	MediaSummary
	OriginalTitle    string          `json:"originalTitle"`
	Tagline          string          `json:"tagline"`
	Status           string          `json:"status"`
	Genres           []string        `json:"genres"`
	Popularity       float64         `json:"popularity"`
	VoteAverage      float64         `json:"voteAverage"`
	VoteCount        int             `json:"voteCount"`
	Homepage         string          `json:"homepage"`
	Runtime          *int            `json:"runtime,omitempty"`
	NumberOfSeasons  *int            `json:"numberOfSeasons,omitempty"`
	NumberOfEpisodes *int            `json:"numberOfEpisodes,omitempty"`
	Seasons          []SeasonSummary `json:"seasons,omitempty"`
}

// SeasonSummary is one season of a series detail
type SeasonSummary struct {
	Number       int    `json:"number"`
	Name         string `json:"name"`
	EpisodeCount int    `json:"episodeCount"`
	AirDate      string `json:"airDate"`
	Poster       string `json:"poster"`
}

// VideoSummary is the featured trailer or teaser of a record
type VideoSummary struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	Key        string `json:"key"`
	Site       string `json:"site"`
	Size       int    `json:"size"`
	Type       string `json:"type"`
	IsOfficial bool   `json:"isOfficial"`
}

// LogoSummary is the logo of a record with both dimensions resolved
type LogoSummary struct {
	AspectRatio float64 `json:"aspectRatio"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	Image       string  `json:"image"`
}

// CreateSubscriptionRequest starts a subscription for a plan
type CreateSubscriptionRequest struct {
	PlanID string `json:"planId"`
}

// SubscriptionResponse is a stored subscription as the billing endpoints return it
type SubscriptionResponse struct {
	UserID          string  `json:"userId"`
	PlanID          string  `json:"planId"`
	PlanName        string  `json:"planName"`
	SubscriptionID  string  `json:"subscriptionId"`
	Status          string  `json:"status"`
	NextBillingTime *string `json:"nextBillingTime"`
	APIKey          *string `json:"apiKey"`
}

func toSummary(record models.Record) MediaSummary {
	switch r := record.(type) {
	case *models.Movie:
		return MediaSummary{
			ID:         r.ID,
			Title:      r.Title,
			IsForAdult: r.Adult,
			Type:       models.KindMovie.RouteName(),
			Image:      ImageSet{Poster: r.PosterPath, Backdrop: r.BackdropPath},
			Overview:   r.Overview,
			ReleasedAt: r.ReleaseDate,
			Language:   Language{Original: r.OriginalLanguage},
		}
	case *models.Series:
		return MediaSummary{
			ID:         r.ID,
			Title:      r.Name,
			IsForAdult: r.Adult,
			Type:       models.KindSeries.RouteName(),
			Image:      ImageSet{Poster: r.PosterPath, Backdrop: r.BackdropPath},
			Overview:   r.Overview,
			ReleasedAt: r.FirstAirDate,
			Language:   Language{Original: r.OriginalLanguage},
		}
	}
	return MediaSummary{ID: record.MediaID(), Title: record.DisplayTitle()}
}

func toSummaries(records []models.Record) []MediaSummary {
	out := make([]MediaSummary, len(records))
	for i, r := range records {
		out[i] = toSummary(r)
	}
	return out
}

func genreNames(genres []models.Genre) []string {
	names := make([]string, len(genres))
	for i, g := range genres {
		names[i] = g.Name
	}
	return names
}

func toDetail(record models.Record) MediaDetail {
	detail := MediaDetail{MediaSummary: toSummary(record)}

	switch r := record.(type) {
	case *models.Movie:
		runtime := r.Runtime
		detail.OriginalTitle = r.OriginalTitle
		detail.Tagline = r.Tagline
		detail.Status = r.Status
		detail.Genres = genreNames(r.Genres)
		detail.Popularity = r.Popularity
		detail.VoteAverage = r.VoteAverage
		detail.VoteCount = r.VoteCount
		detail.Homepage = r.Homepage
		detail.Runtime = &runtime
	case *models.Series:
		seasons, episodes := r.NumberOfSeasons, r.NumberOfEpisodes
		detail.OriginalTitle = r.OriginalName
		detail.Tagline = r.Tagline
		detail.Status = r.Status
		detail.Genres = genreNames(r.Genres)
		detail.Popularity = r.Popularity
		detail.VoteAverage = r.VoteAverage
		detail.VoteCount = r.VoteCount
		detail.Homepage = r.Homepage
		detail.NumberOfSeasons = &seasons
		detail.NumberOfEpisodes = &episodes
		detail.Seasons = make([]SeasonSummary, len(r.Seasons))
		for i, s := range r.Seasons {
			detail.Seasons[i] = SeasonSummary{
				Number:       s.SeasonNumber,
				Name:         s.Name,
				EpisodeCount: s.EpisodeCount,
				AirDate:      s.AirDate,
				Poster:       s.PosterPath,
			}
		}
	}
	return detail
}

func toVideo(v *models.Video) *VideoSummary {
	if v == nil {
		return nil
	}
	return &VideoSummary{
		ID:         v.ID,
		Name:       v.Name,
		Key:        v.Key,
		Site:       v.Site,
		Size:       v.Size,
		Type:       v.Type,
		IsOfficial: v.Official,
	}
}

func toLogo(l *catalog.Logo) *LogoSummary {
	if l == nil {
		return nil
	}
	return &LogoSummary{
		AspectRatio: l.AspectRatio,
		Width:       l.Width,
		Height:      l.Height,
		Image:       l.FilePath,
	}
}

func toSubscription(s *models.Subscription) SubscriptionResponse {
	resp := SubscriptionResponse{
		UserID:         s.UserID,
		PlanID:         s.PlanID,
		PlanName:       s.PlanName,
		SubscriptionID: s.SubscriptionID,
		Status:         s.Status,
		APIKey:         s.APIKey,
	}
	if s.NextBillingTime != nil {
		formatted := s.NextBillingTime.UTC().Format("2006-01-02T15:04:05Z")
		resp.NextBillingTime = &formatted
	}
	return resp
}
