package models

import (
	"time"

	"gorm.io/datatypes"
)

// TrendingEntry is the ranked id list for one (media type, time window) pair.
// It is replaced wholesale by every sync run. Kinds runs parallel to Results
// and carries each entry's media type, since movie and tv ids overlap.
type TrendingEntry struct {
	ID         uint                       `gorm:"primaryKey" json:"-"`
	MediaType  Kind                       `gorm:"type:varchar(10);not null;uniqueIndex:idx_trending_key" json:"media_type"`
	TimeWindow Window                     `gorm:"type:varchar(10);not null;uniqueIndex:idx_trending_key" json:"time_window"`
	Results    datatypes.JSONSlice[int64] `json:"results"`
	Kinds      datatypes.JSONSlice[Kind]  `json:"kinds"`
	FetchedAt  time.Time                  `gorm:"not null" json:"fetched_at"`
	CreatedAt  time.Time                  `gorm:"not null" json:"created_at"`
	UpdatedAt  time.Time                  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for TrendingEntry
func (TrendingEntry) TableName() string {
	return "trending"
}
