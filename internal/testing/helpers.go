package testing

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/glefebvre/mediacatalog/internal/database"
	"github.com/glefebvre/mediacatalog/internal/models"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// TestDB creates an in-memory SQLite database with every application table
func TestDB(t *testing.T) *gorm.DB {
	t.Helper()

	// a named shared-cache database keeps all pool connections on the same data
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("failed to get database instance: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)

	if err := database.Migrate(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() {
		sqlDB.Close()
	})

	return db
}

// NewMovie builds a display-fit movie without saving it
func NewMovie(id int64, overrides ...func(*models.Movie)) *models.Movie {
	movie := &models.Movie{
		ID:               id,
		Title:            fmt.Sprintf("Movie %d", id),
		OriginalTitle:    fmt.Sprintf("Movie %d", id),
		Overview:         "An overview.",
		ReleaseDate:      "2020-01-01",
		Status:           "Released",
		OriginalLanguage: "en",
		Genres:           datatypes.JSONSlice[models.Genre]{{ID: 28, Name: "Action"}},
		PosterPath:       "/poster.jpg",
		BackdropPath:     "/backdrop.jpg",
		Popularity:       10,
		VoteAverage:      7,
		VoteCount:        100,
		Runtime:          120,
		Similar:          datatypes.JSONSlice[int64]{},
		Videos:           datatypes.JSONSlice[models.Video]{},
	}

	for _, override := range overrides {
		override(movie)
	}
	return movie
}

// CreateMovie saves a display-fit test movie
func CreateMovie(t *testing.T, db *gorm.DB, id int64, overrides ...func(*models.Movie)) *models.Movie {
	t.Helper()
	movie := NewMovie(id, overrides...)
	if err := db.Create(movie).Error; err != nil {
		t.Fatalf("failed to create movie %d: %v", id, err)
	}
	return movie
}

// NewSeries builds a display-fit series without saving it
func NewSeries(id int64, overrides ...func(*models.Series)) *models.Series {
	series := &models.Series{
		ID:               id,
		Name:             fmt.Sprintf("Series %d", id),
		OriginalName:     fmt.Sprintf("Series %d", id),
		Overview:         "An overview.",
		FirstAirDate:     "2020-01-01",
		Status:           "Returning Series",
		OriginalLanguage: "en",
		Genres:           datatypes.JSONSlice[models.Genre]{{ID: 18, Name: "Drama"}},
		PosterPath:       "/poster.jpg",
		BackdropPath:     "/backdrop.jpg",
		Popularity:       10,
		VoteAverage:      7,
		VoteCount:        100,
		NumberOfSeasons:  2,
		NumberOfEpisodes: 20,
		Similar:          datatypes.JSONSlice[int64]{},
		Videos:           datatypes.JSONSlice[models.Video]{},
	}

	for _, override := range overrides {
		override(series)
	}
	return series
}

// CreateSeries saves a display-fit test series
func CreateSeries(t *testing.T, db *gorm.DB, id int64, overrides ...func(*models.Series)) *models.Series {
	t.Helper()
	series := NewSeries(id, overrides...)
	if err := db.Create(series).Error; err != nil {
		t.Fatalf("failed to create series %d: %v", id, err)
	}
	return series
}

// CreateTrending saves a trending entry for (kind, window)
func CreateTrending(t *testing.T, db *gorm.DB, kind models.Kind, window models.Window, ids ...int64) *models.TrendingEntry {
	t.Helper()
	entry := &models.TrendingEntry{
		MediaType:  kind,
		TimeWindow: window,
		Results:    datatypes.JSONSlice[int64](ids),
		FetchedAt:  time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create trending entry: %v", err)
	}
	return entry
}

// CreateMixedTrending saves an all-kind trending entry where kinds[i] is the media type of ids[i]
func CreateMixedTrending(t *testing.T, db *gorm.DB, window models.Window, ids []int64, kinds []models.Kind) *models.TrendingEntry {
	t.Helper()
	entry := &models.TrendingEntry{
		MediaType:  models.KindAll,
		TimeWindow: window,
		Results:    datatypes.JSONSlice[int64](ids),
		Kinds:      datatypes.JSONSlice[models.Kind](kinds),
		FetchedAt:  time.Now(),
	}
	if err := db.Create(entry).Error; err != nil {
		t.Fatalf("failed to create trending entry: %v", err)
	}
	return entry
}

// WithTitle sets the movie title
func WithTitle(title string) func(*models.Movie) {
	return func(m *models.Movie) {
		m.Title = title
	}
}

// WithPopularity sets the movie popularity
func WithPopularity(p float64) func(*models.Movie) {
	return func(m *models.Movie) {
		m.Popularity = p
	}
}

// WithVotes sets the movie vote average and count
func WithVotes(avg float64, count int) func(*models.Movie) {
	return func(m *models.Movie) {
		m.VoteAverage = avg
		m.VoteCount = count
	}
}

// WithReleaseDate sets the movie release date (YYYY-MM-DD)
func WithReleaseDate(date string) func(*models.Movie) {
	return func(m *models.Movie) {
		m.ReleaseDate = date
	}
}

// WithoutPoster makes the movie unfit for list display
func WithoutPoster() func(*models.Movie) {
	return func(m *models.Movie) {
		m.PosterPath = ""
	}
}

// WithSimilar sets the movie's similar id list
func WithSimilar(ids ...int64) func(*models.Movie) {
	return func(m *models.Movie) {
		m.Similar = datatypes.JSONSlice[int64](ids)
	}
}

// WithVideos sets the movie's videos
func WithVideos(videos ...models.Video) func(*models.Movie) {
	return func(m *models.Movie) {
		m.Videos = datatypes.JSONSlice[models.Video](videos)
	}
}

// WithLogos sets the movie's logo images
func WithLogos(logos ...models.Image) func(*models.Movie) {
	return func(m *models.Movie) {
		m.Images = datatypes.NewJSONType(models.Images{Logos: logos})
	}
}

// WithSeriesName sets the series name
func WithSeriesName(name string) func(*models.Series) {
	return func(s *models.Series) {
		s.Name = name
	}
}

// WithFirstAirDate sets the series first air date (YYYY-MM-DD)
func WithFirstAirDate(date string) func(*models.Series) {
	return func(s *models.Series) {
		s.FirstAirDate = date
	}
}

// AssertCount verifies the count of records in a table
func AssertCount(t *testing.T, db *gorm.DB, model interface{}, expected int64, message string) {
	t.Helper()
	var count int64
	db.Model(model).Count(&count)
	if count != expected {
		t.Fatalf("%s: expected count %d, got %d", message, expected, count)
	}
}
