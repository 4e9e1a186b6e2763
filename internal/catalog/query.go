package catalog

import (
	"context"
	"errors"
	"strings"

	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/models"
	"gorm.io/gorm"
)

// Group names a curated listing
type Group string

const (
	GroupPopular     Group = "popular"
	GroupTopRated    Group = "top-rated"
	GroupNowPlaying  Group = "now-playing"
	GroupAiringToday Group = "airing-today"
	GroupOnTheAir    Group = "on-the-air"
	GroupUpcoming    Group = "upcoming"
)

const dateLayout = "2006-01-02"

// ParseGroup validates a group name for a kind
func ParseGroup(kind models.Kind, name string) (Group, error) {
	g := Group(name)
	switch g {
	case GroupPopular, GroupTopRated, GroupUpcoming:
		return g, nil
	case GroupNowPlaying:
		if kind == models.KindMovie {
			return g, nil
		}
	case GroupAiringToday, GroupOnTheAir:
		if kind == models.KindSeries {
			return g, nil
		}
	}
	return "", apperrors.InvalidInputError("group", "unknown group "+name+" for "+kind.RouteName())
}

// Search matches query case-insensitively against movie titles and series names.
// Each kind contributes up to PageSize display-fit records per page, movies first.
func (s *Store) Search(ctx context.Context, query string, page int) ([]models.Record, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, apperrors.InvalidInputError("query", "query is required")
	}
	pattern := "%" + escapeLike(strings.ToLower(query)) + "%"

	var movies []*models.Movie
	err := s.db.WithContext(ctx).Scopes(displayFitScope).
		Where(`LOWER(title) LIKE ? ESCAPE '\'`, pattern).
		Order("id ASC").Offset(offset(page)).Limit(PageSize).
		Find(&movies).Error
	if err != nil {
		return nil, apperrors.DatabaseError("failed to search movies", err)
	}

	var series []*models.Series
	err = s.db.WithContext(ctx).Scopes(displayFitScope).
		Where(`LOWER(name) LIKE ? ESCAPE '\'`, pattern).
		Order("id ASC").Offset(offset(page)).Limit(PageSize).
		Find(&series).Error
	if err != nil {
		return nil, apperrors.DatabaseError("failed to search series", err)
	}

	records := make([]models.Record, 0, len(movies)+len(series))
	for _, m := range movies {
		records = append(records, m)
	}
	for _, sr := range series {
		records = append(records, sr)
	}
	return records, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// Group returns one page of a curated listing of display-fit records
func (s *Store) Group(ctx context.Context, kind models.Kind, group Group, page int) ([]models.Record, error) {
	var dateColumn string
	switch kind {
	case models.KindMovie:
		dateColumn = "release_date"
	case models.KindSeries:
		dateColumn = "first_air_date"
	default:
		return nil, apperrors.InvalidInputError("type", "expected movies or series")
	}

	today := s.now().Format(dateLayout)
	scope := func(db *gorm.DB) *gorm.DB {
		switch group {
		case GroupPopular:
			return db.Order("popularity DESC").Order("id ASC")
		case GroupTopRated:
			return db.Order("vote_average DESC").Order("vote_count DESC").Order("id ASC")
		case GroupNowPlaying, GroupAiringToday, GroupOnTheAir:
			return db.Where(dateColumn+" <> '' AND "+dateColumn+" <= ?", today).
				Order(dateColumn + " DESC").Order("id ASC")
		case GroupUpcoming:
			return db.Where(dateColumn+" > ?", today).
				Order(dateColumn + " ASC").Order("id ASC")
		}
		return db
	}

	query := s.db.WithContext(ctx).Scopes(displayFitScope, scope).Offset(offset(page)).Limit(PageSize)

	if kind == models.KindMovie {
		var movies []*models.Movie
		if err := query.Find(&movies).Error; err != nil {
			return nil, apperrors.DatabaseError("failed to list movie group", err)
		}
		records := make([]models.Record, len(movies))
		for i, m := range movies {
			records[i] = m
		}
		return records, nil
	}

	var series []*models.Series
	if err := query.Find(&series).Error; err != nil {
		return nil, apperrors.DatabaseError("failed to list series group", err)
	}
	records := make([]models.Record, len(series))
	for i, sr := range series {
		records[i] = sr
	}
	return records, nil
}

// Trending resolves the stored index for (kind, window) into display-fit records, in rank order.
// A missing index or an empty resolution is reported as not found.
func (s *Store) Trending(ctx context.Context, kind models.Kind, window models.Window) ([]models.Record, error) {
	entry, err := s.TrendingEntry(ctx, kind, window)
	if err != nil {
		return nil, err
	}

	var records []models.Record
	if kind == models.KindAll {
		records, err = s.resolveMixed(ctx, entry.Results, entry.Kinds)
	} else {
		records, err = s.ResolveIDs(ctx, kind, entry.Results)
	}
	if err != nil {
		return nil, err
	}

	records = displayFitOnly(records)
	if len(records) == 0 {
		return nil, apperrors.NotFoundError("trending", string(kind)+"/"+string(window))
	}
	return records, nil
}

// SimilarPage is one page of a record's resolved similar list
type SimilarPage struct {
	Page         int
	TotalResults int
	Results      []models.Record
}

// Similar resolves the stored similar ids of a record against its own kind
func (s *Store) Similar(ctx context.Context, kind models.Kind, id int64, page int) (*SimilarPage, error) {
	base, err := s.Get(ctx, kind, id)
	if err != nil {
		return nil, err
	}

	var ids []int64
	switch r := base.(type) {
	case *models.Movie:
		ids = r.Similar
	case *models.Series:
		ids = r.Similar
	}

	resolved, err := s.ResolveIDs(ctx, kind, ids)
	if err != nil {
		return nil, err
	}
	resolved = displayFitOnly(resolved)
	if len(resolved) == 0 {
		return nil, apperrors.NotFoundError("similar", base.DisplayTitle())
	}

	if page < 1 {
		page = 1
	}
	start := min(offset(page), len(resolved))
	end := min(start+PageSize, len(resolved))

	return &SimilarPage{
		Page:         page,
		TotalResults: len(resolved),
		Results:      resolved[start:end],
	}, nil
}

// Spotlight picks one display-fit record uniformly at random across the kind's collections
func (s *Store) Spotlight(ctx context.Context, kind models.Kind) (models.Record, error) {
	var movies, series int64

	if kind == models.KindMovie || kind == models.KindAll {
		if err := s.db.WithContext(ctx).Model(&models.Movie{}).Scopes(displayFitScope).Count(&movies).Error; err != nil {
			return nil, apperrors.DatabaseError("failed to count movies", err)
		}
	}
	if kind == models.KindSeries || kind == models.KindAll {
		if err := s.db.WithContext(ctx).Model(&models.Series{}).Scopes(displayFitScope).Count(&series).Error; err != nil {
			return nil, apperrors.DatabaseError("failed to count series", err)
		}
	}

	total := movies + series
	if total == 0 {
		return nil, apperrors.NotFoundError("spotlight", kind.RouteName())
	}

	pick := s.randN(total)
	if pick < movies {
		var movie models.Movie
		err := s.db.WithContext(ctx).Scopes(displayFitScope).Order("id ASC").Offset(int(pick)).First(&movie).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// rows removed between the count and the pick
			return nil, apperrors.NotFoundError("spotlight", kind.RouteName())
		}
		if err != nil {
			return nil, apperrors.DatabaseError("failed to pick movie", err)
		}
		return &movie, nil
	}

	var picked models.Series
	err := s.db.WithContext(ctx).Scopes(displayFitScope).Order("id ASC").Offset(int(pick - movies)).First(&picked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperrors.NotFoundError("spotlight", kind.RouteName())
	}
	if err != nil {
		return nil, apperrors.DatabaseError("failed to pick series", err)
	}
	return &picked, nil
}
