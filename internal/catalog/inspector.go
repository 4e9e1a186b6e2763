package catalog

import (
	"context"
	"sort"

	apperrors "github.com/glefebvre/mediacatalog/internal/errors"
	"github.com/glefebvre/mediacatalog/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/schema"
)

// CollectionInfo is a table name with its row count
type CollectionInfo struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

// Inspector gives the back-office read-only access to every migrated table
type Inspector struct {
	db     *gorm.DB
	tables map[string]struct{}
}

// NewInspector registers the tables of every application model
func NewInspector(db *gorm.DB) *Inspector {
	tables := make(map[string]struct{})
	for _, model := range models.AllModels() {
		if t, ok := model.(schema.Tabler); ok {
			tables[t.TableName()] = struct{}{}
		}
	}
	return &Inspector{db: db, tables: tables}
}

// Collections lists table names with row counts, sorted by name
func (i *Inspector) Collections(ctx context.Context) ([]CollectionInfo, error) {
	names := make([]string, 0, len(i.tables))
	for name := range i.tables {
		names = append(names, name)
	}
	sort.Strings(names)

	infos := make([]CollectionInfo, 0, len(names))
	for _, name := range names {
		var count int64
		if err := i.db.WithContext(ctx).Table(name).Count(&count).Error; err != nil {
			return nil, apperrors.DatabaseError("failed to count "+name, err)
		}
		infos = append(infos, CollectionInfo{Name: name, Count: count})
	}
	return infos, nil
}

// Rows returns one page of raw rows of a registered table
func (i *Inspector) Rows(ctx context.Context, name string, page int) ([]map[string]interface{}, error) {
	if _, ok := i.tables[name]; !ok {
		return nil, apperrors.NotFoundError("collection", name)
	}

	rows := []map[string]interface{}{}
	err := i.db.WithContext(ctx).Table(name).
		Order("id ASC").Offset(offset(page)).Limit(PageSize).
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.DatabaseError("failed to read "+name, err)
	}

	// drivers hand back text and JSON columns as raw bytes
	for _, row := range rows {
		for k, v := range row {
			if b, ok := v.([]byte); ok {
				row[k] = string(b)
			}
		}
	}
	return rows, nil
}
