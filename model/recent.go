package model

import (
	"sort"
	"time"

	"gorm.io/gorm/clause"
)

type EntityType string

const (
	EntityClient  EntityType = "client"
	EntityInvoice EntityType = "invoice"
)

type RecentView struct {
	UserID     uint       `gorm:"not null;index:idx_user_view,priority:1"`
	EntityType EntityType `gorm:"type:text;not null;index:idx_user_view,priority:2"`
	EntityID   uint       `gorm:"not null;index:idx_user_view,priority:3"`
	ViewedAt   time.Time  `gorm:"not null;index:idx_user_viewed_at,priority:2"`
}

// Composite unique key
func (RecentView) TableName() string { return "recent_views" }

func (store *Store) TouchRecentView(userID uint, et EntityType, entityID uint) error {
	rv := RecentView{
		UserID: userID, EntityType: et, EntityID: entityID, ViewedAt: time.Now(),
	}
	return store.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "entity_type"}, {Name: "entity_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"viewed_at"}),
	}).Create(&rv).Error
}

// RecentItem is one dashboard entry: a recently opened client or invoice.
type RecentItem struct {
	EntityType EntityType
	EntityID   uint
	ViewedAt   time.Time
	Name       string // client name or invoice number
}

func (store *Store) GetRecentItems(userID uint, limit int) ([]RecentItem, error) {
	db := store.db
	items := []RecentItem{}

	var clients []RecentItem
	if err := db.Raw(`
        SELECT r.entity_type, r.entity_id, r.viewed_at, c.name
        FROM recent_views r
        JOIN clients c ON c.id = r.entity_id
        WHERE r.user_id = ? AND r.entity_type = 'client'
        ORDER BY r.viewed_at DESC
        LIMIT ?`, userID, limit).Scan(&clients).Error; err != nil {
		return nil, err
	}

	var invoices []RecentItem
	if err := db.Raw(`
        SELECT r.entity_type, r.entity_id, r.viewed_at, i.number AS name
        FROM recent_views r
        JOIN invoices i ON i.id = r.entity_id
        WHERE r.user_id = ? AND r.entity_type = 'invoice'
        ORDER BY r.viewed_at DESC
        LIMIT ?`, userID, limit).Scan(&invoices).Error; err != nil {
		return nil, err
	}

	// merge and sort by ViewedAt descending
	items = append(clients, invoices...)
	sort.Slice(items, func(i, j int) bool { return items[i].ViewedAt.After(items[j].ViewedAt) })
	if len(items) > limit {
		items = items[:limit]
	}
	return items, nil
}
