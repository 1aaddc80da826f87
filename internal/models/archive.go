package models

import (
	"time"
)

// PurifyEventRecord is the Postgres archive row for one purification.
// The archive is write-behind and advisory; the KV store remains the
// source of truth for game state.
type PurifyEventRecord struct {
	ID            string    `gorm:"primarykey;size:36" json:"id"`
	UserID        string    `gorm:"index;size:128" json:"user_id"`
	CityKey       string    `gorm:"index;size:64" json:"city_key"`
	CityName      string    `gorm:"size:128" json:"city_name"`
	Energy        float64   `json:"energy"`
	NewBrightness float64   `json:"new_brightness"`
	Relayed       bool      `json:"relayed"`
	CreatedAt     time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (PurifyEventRecord) TableName() string {
	return "purify_events"
}

// AnalyticsEventRecord is the Postgres archive row for one client event.
type AnalyticsEventRecord struct {
	ID        string    `gorm:"primarykey;size:36" json:"id"`
	SessionID string    `gorm:"index;size:128" json:"session_id"`
	Category  string    `gorm:"size:64" json:"category"`
	Action    string    `gorm:"size:64" json:"action"`
	Label     string    `gorm:"size:128" json:"label"`
	Value     float64   `json:"value"`
	Timestamp int64     `json:"timestamp"`
	CreatedAt time.Time `json:"created_at"`
}

// TableName specifies the table name for GORM
func (AnalyticsEventRecord) TableName() string {
	return "analytics_events"
}
