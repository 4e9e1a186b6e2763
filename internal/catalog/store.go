package catalog

import (
	"context"
	"errors"
	"math/rand/v2"
	"strconv"
	"time"

	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/logger"
	"github.com/glefebvre/mediacatalog/internal/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// PageSize is the number of records per page on every paginated read
const PageSize = 20

// resolveChunk bounds the IN list of a single lookup query
const resolveChunk = 500

// Store reads and writes the movie and series collections and the trending index
type Store struct {
	db     *gorm.DB
	logger *logger.Logger
	now    func() time.Time
	randN  func(n int64) int64
}

// Option customizes a Store
type Option func(*Store)

// WithClock overrides the clock used for date-bounded groups
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		s.now = now
	}
}

// WithRandom overrides the source used by spotlight selection
func WithRandom(randN func(n int64) int64) Option {
	return func(s *Store) {
		s.randN = randN
	}
}

// NewStore creates a catalog store over db
func NewStore(db *gorm.DB, opts ...Option) *Store {
	s := &Store{
		db:     db,
		logger: logger.AppLogger(),
		now:    time.Now,
		randN:  rand.Int64N,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DB exposes the underlying connection
func (s *Store) DB() *gorm.DB {
	return s.db
}

// UpsertMovie inserts the movie or replaces every stored field of an existing one.
// Only created_at survives a replace.
func (s *Store) UpsertMovie(ctx context.Context, movie *models.Movie) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Movie
		err := tx.Select("id", "created_at").Where("id = ?", movie.ID).First(&existing).Error
		switch {
		case err == nil:
			movie.CreatedAt = existing.CreatedAt
			return tx.Save(movie).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(movie).Error
		default:
			return err
		}
	})
	if err != nil {
		return apperrors.DatabaseError("failed to upsert movie", err).WithContext("id", movie.ID)
	}
	return nil
}

// UpsertSeries inserts the series or replaces every stored field of an existing one
func (s *Store) UpsertSeries(ctx context.Context, series *models.Series) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Series
		err := tx.Select("id", "created_at").Where("id = ?", series.ID).First(&existing).Error
		switch {
		case err == nil:
			series.CreatedAt = existing.CreatedAt
			return tx.Save(series).Error
		case errors.Is(err, gorm.ErrRecordNotFound):
			return tx.Create(series).Error
		default:
			return err
		}
	})
	if err != nil {
		return apperrors.DatabaseError("failed to upsert series", err).WithContext("id", series.ID)
	}
	return nil
}

// SaveTrending replaces the ranked id list stored for (kind, window).
// kinds gives the media type of each id and must be parallel to ids when set.
func (s *Store) SaveTrending(ctx context.Context, kind models.Kind, window models.Window, ids []int64, kinds []models.Kind, fetchedAt time.Time) error {
	if ids == nil {
		ids = []int64{}
	}
	if kinds == nil {
		kinds = []models.Kind{}
	}
	if len(kinds) != 0 && len(kinds) != len(ids) {
		return apperrors.InvalidInputError("kinds", "must be parallel to ids")
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var entry models.TrendingEntry
		err := tx.Where("media_type = ? AND time_window = ?", kind, window).First(&entry).Error
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}

		entry.MediaType = kind
		entry.TimeWindow = window
		entry.Results = datatypes.JSONSlice[int64](ids)
		entry.Kinds = datatypes.JSONSlice[models.Kind](kinds)
		entry.FetchedAt = fetchedAt

		if entry.ID == 0 {
			return tx.Create(&entry).Error
		}
		return tx.Save(&entry).Error
	})
	if err != nil {
		return apperrors.DatabaseError("failed to save trending index", err).
			WithContext("kind", kind).
			WithContext("window", window)
	}
	return nil
}

// TrendingEntry loads the stored index for (kind, window)
func (s *Store) TrendingEntry(ctx context.Context, kind models.Kind, window models.Window) (*models.TrendingEntry, error) {
	var entry models.TrendingEntry
	err := s.db.WithContext(ctx).Where("media_type = ? AND time_window = ?", kind, window).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("trending", string(kind)+"/"+string(window))
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load trending index", err)
	}
	return &entry, nil
}

// GetMovie returns the stored movie or a not-found error
func (s *Store) GetMovie(ctx context.Context, id int64) (*models.Movie, error) {
	var movie models.Movie
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&movie).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("movie", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load movie", err)
	}
	return &movie, nil
}

// GetSeries returns the stored series or a not-found error
func (s *Store) GetSeries(ctx context.Context, id int64) (*models.Series, error) {
	var series models.Series
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&series).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("series", strconv.FormatInt(id, 10))
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to load series", err)
	}
	return &series, nil
}

// Get returns a record of a concrete kind
func (s *Store) Get(ctx context.Context, kind models.Kind, id int64) (models.Record, error) {
	switch kind {
	case models.KindMovie:
		return s.GetMovie(ctx, id)
	case models.KindSeries:
		return s.GetSeries(ctx, id)
	}
	return nil, apperrors.InvalidInputError("type", "expected movies or series")
}

// DeleteMovie removes a movie; deleting an absent id is not an error
func (s *Store) DeleteMovie(ctx context.Context, id int64) error {
	if err := s.db.WithContext(ctx).Delete(&models.Movie{}, id).Error; err != nil {
		return apperrors.DatabaseError("failed to delete movie", err)
	}
	return nil
}

// ResolveIDs loads records of one kind for ids, keeping the order of ids.
// Ids with no stored record are dropped.
func (s *Store) ResolveIDs(ctx context.Context, kind models.Kind, ids []int64) ([]models.Record, error) {
	found := make(map[int64]models.Record, len(ids))

	for start := 0; start < len(ids); start += resolveChunk {
		end := min(start+resolveChunk, len(ids))
		chunk := ids[start:end]

		switch kind {
		case models.KindMovie:
			var movies []*models.Movie
			if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&movies).Error; err != nil {
				return nil, apperrors.DatabaseError("failed to resolve movies", err)
			}
			for _, m := range movies {
				found[m.ID] = m
			}
		case models.KindSeries:
			var series []*models.Series
			if err := s.db.WithContext(ctx).Where("id IN ?", chunk).Find(&series).Error; err != nil {
				return nil, apperrors.DatabaseError("failed to resolve series", err)
			}
			for _, sr := range series {
				found[sr.ID] = sr
			}
		default:
			return nil, apperrors.InvalidInputError("type", "expected movies or series")
		}
	}

	records := make([]models.Record, 0, len(found))
	for _, id := range ids {
		if r, ok := found[id]; ok {
			records = append(records, r)
		}
	}
	return records, nil
}

// resolveMixed resolves each id against its own kind from the parallel kinds list.
// Ids without a movie or tv kind are dropped.
func (s *Store) resolveMixed(ctx context.Context, ids []int64, kinds []models.Kind) ([]models.Record, error) {
	byKind := map[models.Kind][]int64{}
	for i, id := range ids {
		if i >= len(kinds) {
			break
		}
		if k := kinds[i]; k == models.KindMovie || k == models.KindSeries {
			byKind[k] = append(byKind[k], id)
		}
	}

	type ref struct {
		kind models.Kind
		id   int64
	}
	found := make(map[ref]models.Record, len(ids))
	for k, kindIDs := range byKind {
		records, err := s.ResolveIDs(ctx, k, kindIDs)
		if err != nil {
			return nil, err
		}
		for _, r := range records {
			found[ref{k, r.MediaID()}] = r
		}
	}

	records := make([]models.Record, 0, len(found))
	for i, id := range ids {
		if i >= len(kinds) {
			break
		}
		if r, ok := found[ref{kinds[i], id}]; ok {
			records = append(records, r)
		}
	}
	return records, nil
}

func displayFitOnly(records []models.Record) []models.Record {
	fit := make([]models.Record, 0, len(records))
	for _, r := range records {
		if r.IsDisplayFit() {
			fit = append(fit, r)
		}
	}
	return fit
}

func displayFitScope(db *gorm.DB) *gorm.DB {
	return db.Where("poster_path <> '' AND backdrop_path <> '' AND overview <> ''")
}

func offset(page int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * PageSize
}
