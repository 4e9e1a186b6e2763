package models

import "time"

// SyncStatus is the lifecycle state of a sync run
type SyncStatus string

const (
	SyncInProgress SyncStatus = "in_progress"
	SyncSuccess    SyncStatus = "success"
	SyncFailed     SyncStatus = "failed"
)

// SyncRun records one execution of the trending sync job
type SyncRun struct {
	ID           uint       `gorm:"primaryKey" json:"id"`
	Kind         Kind       `gorm:"type:varchar(10);not null;index:idx_sync_runs_kind" json:"kind"`
	TimeWindow   Window     `gorm:"type:varchar(10);not null" json:"time_window"`
	DryRun       bool       `gorm:"not null;default:false" json:"dry_run"`
	Status       SyncStatus `gorm:"type:varchar(20);not null" json:"status"`
	Pages        int        `gorm:"not null;default:0" json:"pages"`
	Listed       int        `gorm:"not null;default:0" json:"listed"`
	Upserted     int        `gorm:"not null;default:0" json:"upserted"`
	Failed       int        `gorm:"not null;default:0" json:"failed"`
	Filtered     int        `gorm:"not null;default:0" json:"filtered"`
	Skipped      int        `gorm:"not null;default:0" json:"skipped"`
	StartedAt    time.Time  `gorm:"not null;index:idx_sync_runs_started" json:"started_at"`
	CompletedAt  *time.Time `json:"completed_at,omitempty"`
	ErrorMessage *string    `gorm:"type:text" json:"error_message,omitempty"`
	CreatedAt    time.Time  `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"not null" json:"updated_at"`
}

// TableName specifies the table name for SyncRun
func (SyncRun) TableName() string {
	return "sync_runs"
}

// AllModels lists every table the application migrates
func AllModels() []interface{} {
	return []interface{}{
		&Movie{},
		&Series{},
		&TrendingEntry{},
		&PlanCatalog{},
		&Subscription{},
		&SyncRun{},
	}
}
