package tmdb

import "github.com/glefebvre/mediacatalog/internal/models"

// TrendingItem is one summary entry of a trending listing
type TrendingItem struct {
	ID               int64   `json:"id"`
	MediaType        string  `json:"media_type"`
	Title            string  `json:"title"`
	Name             string  `json:"name"`
	OriginalLanguage string  `json:"original_language"`
	Adult            bool    `json:"adult"`
	Popularity       float64 `json:"popularity"`
}

// DisplayTitle returns the title for movies and the name for series
func (t TrendingItem) DisplayTitle() string {
	if t.Title != "" {
		return t.Title
	}
	return t.Name
}

// TrendingPage is one page of /trending/{kind}/{window}
type TrendingPage struct {
	Page         int            `json:"page"`
	Results      []TrendingItem `json:"results"`
	TotalPages   int            `json:"total_pages"`
	TotalResults int            `json:"total_results"`
}

// Listing is a full trending listing in upstream rank order
type Listing struct {
	Items []TrendingItem
	// Pages is the number of pages fetched, total_pages clamped to MaxTrendingPages
	Pages int
	// TotalPages is what the upstream reported
	TotalPages int
}

// IDs returns the listing ids in rank order
func (l *Listing) IDs() []int64 {
	ids := make([]int64, len(l.Items))
	for i, item := range l.Items {
		ids[i] = item.ID
	}
	return ids
}

// Kinds returns the media type of each listed item, parallel to IDs.
// Types other than movie and tv are kept as reported.
func (l *Listing) Kinds() []models.Kind {
	kinds := make([]models.Kind, len(l.Items))
	for i, item := range l.Items {
		kinds[i] = models.Kind(item.MediaType)
	}
	return kinds
}

type idRef struct {
	ID int64 `json:"id"`
}

type pagedRefs struct {
	Results []idRef `json:"results"`
}

type videoList struct {
	Results []models.Video `json:"results"`
}

type imageSet struct {
	Backdrops []models.Image `json:"backdrops"`
	Posters   []models.Image `json:"posters"`
	Logos     []models.Image `json:"logos"`
}

// MovieDetails is the raw /movie/{id} payload with videos, images and similar appended
type MovieDetails struct {
	ID                  int64              `json:"id"`
	Title               string             `json:"title"`
	OriginalTitle       string             `json:"original_title"`
	Overview            string             `json:"overview"`
	Tagline             string             `json:"tagline"`
	ReleaseDate         string             `json:"release_date"`
	Runtime             int                `json:"runtime"`
	Budget              int64              `json:"budget"`
	Revenue             int64              `json:"revenue"`
	Status              string             `json:"status"`
	Homepage            string             `json:"homepage"`
	IMDBID              string             `json:"imdb_id"`
	Adult               bool               `json:"adult"`
	OriginalLanguage    string             `json:"original_language"`
	OriginCountry       []string           `json:"origin_country"`
	Genres              []models.Genre     `json:"genres"`
	BelongsToCollection *models.Collection `json:"belongs_to_collection"`
	PosterPath          string             `json:"poster_path"`
	BackdropPath        string             `json:"backdrop_path"`
	Popularity          float64            `json:"popularity"`
	VoteAverage         float64            `json:"vote_average"`
	VoteCount           int                `json:"vote_count"`
	Similar             *pagedRefs         `json:"similar"`
	Videos              *videoList         `json:"videos"`
	Images              *imageSet          `json:"images"`
}

// SeriesDetails is the raw /tv/{id} payload with videos, images and similar appended
type SeriesDetails struct {
	ID               int64            `json:"id"`
	Name             string           `json:"name"`
	OriginalName     string           `json:"original_name"`
	Overview         string           `json:"overview"`
	Tagline          string           `json:"tagline"`
	FirstAirDate     string           `json:"first_air_date"`
	LastAirDate      string           `json:"last_air_date"`
	NumberOfSeasons  int              `json:"number_of_seasons"`
	NumberOfEpisodes int              `json:"number_of_episodes"`
	Status           string           `json:"status"`
	Type             string           `json:"type"`
	Homepage         string           `json:"homepage"`
	InProduction     bool             `json:"in_production"`
	EpisodeRunTime   []int            `json:"episode_run_time"`
	OriginalLanguage string           `json:"original_language"`
	OriginCountry    []string         `json:"origin_country"`
	Adult            bool             `json:"adult"`
	Languages        []string         `json:"languages"`
	Genres           []models.Genre   `json:"genres"`
	Networks         []models.Network `json:"networks"`
	Seasons          []models.Season  `json:"seasons"`
	PosterPath       string           `json:"poster_path"`
	BackdropPath     string           `json:"backdrop_path"`
	Popularity       float64          `json:"popularity"`
	VoteAverage      float64          `json:"vote_average"`
	VoteCount        int              `json:"vote_count"`
	Similar          *pagedRefs       `json:"similar"`
	Videos           *videoList       `json:"videos"`
	Images           *imageSet        `json:"images"`
}
