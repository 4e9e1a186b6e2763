package models

import (
	"time"

	"gorm.io/datatypes"
)

// Kind is the upstream media kind
type Kind string

const (
	KindMovie  Kind = "movie"
	KindSeries Kind = "tv"
	KindAll    Kind = "all"
)

// Window is a trending time window
type Window string

const (
	WindowDay  Window = "day"
	WindowWeek Window = "week"
)

// ParseKind accepts the route spellings (movies, series) and the upstream ones (movie, tv)
func ParseKind(s string) (Kind, bool) {
	switch s {
	case "movie", "movies":
		return KindMovie, true
	case "tv", "series":
		return KindSeries, true
	case "all":
		return KindAll, true
	}
	return "", false
}

// ParseWindow validates a trending window, defaulting to day
func ParseWindow(s string) (Window, bool) {
	switch s {
	case "", "day":
		return WindowDay, true
	case "week":
		return WindowWeek, true
	}
	return "", false
}

// RouteName is the kind as exposed by the HTTP API
func (k Kind) RouteName() string {
	switch k {
	case KindMovie:
		return "movies"
	case KindSeries:
		return "series"
	default:
		return string(k)
	}
}

// Genre is a TMDB genre reference
type Genre struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
}

// Image is one entry of a TMDB image list
type Image struct {
	FilePath    string  `json:"file_path"`
	AspectRatio float64 `json:"aspect_ratio"`
	Width       int     `json:"width"`
	Height      int     `json:"height"`
	ISO6391     string  `json:"iso_639_1"`
}

// Images groups backdrops, posters and logos
type Images struct {
	Backdrops []Image `json:"backdrops"`
	Posters   []Image `json:"posters"`
	Logos     []Image `json:"logos"`
}

// Video is a trailer, teaser or clip hosted on a third-party site
type Video struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Key      string `json:"key"`
	Site     string `json:"site"`
	Size     int    `json:"size"`
	Type     string `json:"type"`
	Official bool   `json:"official"`
}

// Collection is the franchise a movie belongs to
type Collection struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	PosterPath   string `json:"poster_path"`
	BackdropPath string `json:"backdrop_path"`
}

// Season summarizes one season of a series
type Season struct {
	ID           int64   `json:"id"`
	Name         string  `json:"name"`
	Overview     string  `json:"overview"`
	PosterPath   string  `json:"poster_path"`
	SeasonNumber int     `json:"season_number"`
	VoteAverage  float64 `json:"vote_average"`
	EpisodeCount int     `json:"episode_count"`
	AirDate      string  `json:"air_date"`
}

// Network is a broadcaster or streaming service
type Network struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LogoPath      string `json:"logo_path"`
	OriginCountry string `json:"origin_country"`
}

// Movie is a normalized TMDB movie keyed by its upstream id
type Movie struct {
	ID               int64                          `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Title            string                         `gorm:"type:varchar(512);not null;default:''" json:"title"`
	OriginalTitle    string                         `gorm:"type:varchar(512);not null;default:''" json:"original_title"`
	Overview         string                         `gorm:"type:text;not null;default:''" json:"overview"`
	Tagline          string                         `gorm:"type:text;not null;default:''" json:"tagline"`
	ReleaseDate      string                         `gorm:"type:varchar(10);not null;default:'';index:idx_movies_release_date" json:"release_date"`
	Status           string                         `gorm:"type:varchar(50);not null;default:''" json:"status"`
	OriginalLanguage string                         `gorm:"type:varchar(10);not null;default:''" json:"original_language"`
	Genres           datatypes.JSONSlice[Genre]     `json:"genres"`
	Adult            bool                           `gorm:"not null;default:false" json:"adult"`
	Homepage         string                         `gorm:"type:text;not null;default:''" json:"homepage"`
	IMDBID           string                         `gorm:"column:imdb_id;type:varchar(20);not null;default:''" json:"imdb_id"`
	OriginCountry    datatypes.JSONSlice[string]    `json:"origin_country"`
	PosterPath       string                         `gorm:"type:varchar(255);not null;default:''" json:"poster_path"`
	BackdropPath     string                         `gorm:"type:varchar(255);not null;default:''" json:"backdrop_path"`
	Images           datatypes.JSONType[Images]     `json:"images"`
	Popularity       float64                        `gorm:"not null;default:0;index:idx_movies_popularity" json:"popularity"`
	VoteAverage      float64                        `gorm:"not null;default:0;index:idx_movies_vote_average" json:"vote_average"`
	VoteCount        int                            `gorm:"not null;default:0" json:"vote_count"`
	Runtime          int                            `gorm:"not null;default:0" json:"runtime"`
	Budget           int64                          `gorm:"not null;default:0" json:"budget"`
	Revenue          int64                          `gorm:"not null;default:0" json:"revenue"`
	Collection       datatypes.JSONType[Collection] `json:"belongs_to_collection"`
	Similar          datatypes.JSONSlice[int64]     `json:"similar"`
	Videos           datatypes.JSONSlice[Video]     `json:"videos"`
	CreatedAt        time.Time                      `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                      `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for Movie
func (Movie) TableName() string {
	return "movies"
}

// Series is a normalized TMDB tv show keyed by its upstream id
type Series struct {
	ID               int64                        `gorm:"primaryKey;autoIncrement:false" json:"id"`
	Name             string                       `gorm:"type:varchar(512);not null;default:''" json:"name"`
	OriginalName     string                       `gorm:"type:varchar(512);not null;default:''" json:"original_name"`
	Overview         string                       `gorm:"type:text;not null;default:''" json:"overview"`
	Tagline          string                       `gorm:"type:text;not null;default:''" json:"tagline"`
	FirstAirDate     string                       `gorm:"type:varchar(10);not null;default:'';index:idx_series_first_air_date" json:"first_air_date"`
	LastAirDate      string                       `gorm:"type:varchar(10);not null;default:''" json:"last_air_date"`
	Status           string                       `gorm:"type:varchar(50);not null;default:''" json:"status"`
	Type             string                       `gorm:"type:varchar(50);not null;default:''" json:"type"`
	InProduction     bool                         `gorm:"not null;default:false" json:"in_production"`
	OriginalLanguage string                       `gorm:"type:varchar(10);not null;default:''" json:"original_language"`
	Languages        datatypes.JSONSlice[string]  `json:"languages"`
	Genres           datatypes.JSONSlice[Genre]   `json:"genres"`
	Adult            bool                         `gorm:"not null;default:false" json:"adult"`
	Homepage         string                       `gorm:"type:text;not null;default:''" json:"homepage"`
	OriginCountry    datatypes.JSONSlice[string]  `json:"origin_country"`
	Networks         datatypes.JSONSlice[Network] `json:"networks"`
	EpisodeRunTime   datatypes.JSONSlice[int]     `json:"episode_run_time"`
	PosterPath       string                       `gorm:"type:varchar(255);not null;default:''" json:"poster_path"`
	BackdropPath     string                       `gorm:"type:varchar(255);not null;default:''" json:"backdrop_path"`
	Images           datatypes.JSONType[Images]   `json:"images"`
	Popularity       float64                      `gorm:"not null;default:0;index:idx_series_popularity" json:"popularity"`
	VoteAverage      float64                      `gorm:"not null;default:0;index:idx_series_vote_average" json:"vote_average"`
	VoteCount        int                          `gorm:"not null;default:0" json:"vote_count"`
	NumberOfSeasons  int                          `gorm:"not null;default:0" json:"number_of_seasons"`
	NumberOfEpisodes int                          `gorm:"not null;default:0" json:"number_of_episodes"`
	Seasons          datatypes.JSONSlice[Season]  `json:"seasons"`
	Similar          datatypes.JSONSlice[int64]   `json:"similar"`
	Videos           datatypes.JSONSlice[Video]   `json:"videos"`
	CreatedAt        time.Time                    `gorm:"not null" json:"created_at"`
	UpdatedAt        time.Time                    `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for Series
func (Series) TableName() string {
	return "series"
}

// Record is what list endpoints need from either kind
type Record interface {
	MediaID() int64
	MediaKind() Kind
	DisplayTitle() string
	IsDisplayFit() bool
}

// displayFit reports whether a record has the assets every list view renders
func displayFit(poster, backdrop, overview string) bool {
	return poster != "" && backdrop != "" && overview != ""
}

func (m *Movie) MediaID() int64       { return m.ID }
func (m *Movie) MediaKind() Kind      { return KindMovie }
func (m *Movie) DisplayTitle() string { return m.Title }
func (m *Movie) IsDisplayFit() bool   { return displayFit(m.PosterPath, m.BackdropPath, m.Overview) }

func (s *Series) MediaID() int64       { return s.ID }
func (s *Series) MediaKind() Kind      { return KindSeries }
func (s *Series) DisplayTitle() string { return s.Name }
func (s *Series) IsDisplayFit() bool   { return displayFit(s.PosterPath, s.BackdropPath, s.Overview) }
