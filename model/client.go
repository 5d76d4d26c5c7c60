package model

import (
	"fmt"
	"strings"

	"gorm.io/gorm"
)

// Client is a billable customer. Invoices embed a snapshot of these
// fields at save time, so editing a client never rewrites history.
type Client struct {
	gorm.Model
	OwnerID uint   `gorm:"index;not null"`
	Name    string `gorm:"size:255;not null"`
	Email   string `gorm:"size:255"`
	Phone   string `gorm:"size:50"`
	Address string `gorm:"size:500"`
	City    string `gorm:"size:100"`
	Country string `gorm:"size:100"`
}

var ErrNotAllowed = fmt.Errorf("not allowed")

// Snapshot returns the copy of the client that gets embedded in an
// invoice.
func (c *Client) Snapshot() ClientSnapshot {
	return ClientSnapshot{
		ClientID: c.ID,
		Name:     c.Name,
		Email:    c.Email,
		Phone:    c.Phone,
		Address:  c.Address,
		City:     c.City,
		Country:  c.Country,
	}
}

// SaveClient stores a client for the given owner.
func (store *Store) SaveClient(c *Client, ownerID uint) error {
	if c.OwnerID != ownerID {
		return ErrNotAllowed
	}
	if strings.TrimSpace(c.Name) == "" {
		return ErrClientRequired
	}
	return store.db.Save(c).Error
}

// LoadClient loads one client, owner-scoped.
func (store *Store) LoadClient(id any, ownerID uint) (*Client, error) {
	c := &Client{}
	result := store.db.First(c, "owner_id = ? AND id = ?", ownerID, id)
	if result.Error != nil {
		return nil, result.Error
	}
	return c, nil
}

// LoadAllClients returns every client of the owner, name-ordered.
func (store *Store) LoadAllClients(ownerID uint) ([]*Client, error) {
	var clients = make([]*Client, 0)
	result := store.db.Where("owner_id = ?", ownerID).
		Order("name asc").
		Find(&clients)
	return clients, result.Error
}

// DeleteClient removes a client. Invoices keep their snapshot and stay
// untouched.
func (store *Store) DeleteClient(id any, ownerID uint) error {
	return store.db.Where("owner_id = ?", ownerID).Delete(&Client{}, id).Error
}

func likeEscape(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// FindClientsWithText searches clients by name or city, case-insensitive.
func (store *Store) FindClientsWithText(search string, ownerID uint) ([]*Client, error) {
	search = likeEscape(search)
	like := "%" + search + "%"
	var clients []*Client

	q := store.db.Model(&Client{})
	switch store.db.Dialector.Name() {
	case "postgres":
		q = q.Where("owner_id = ? AND (name ILIKE ? ESCAPE '\\' OR city ILIKE ? ESCAPE '\\')",
			ownerID, like, like)
	default: // sqlite
		q = q.Where("owner_id = ? AND (LOWER(name) LIKE LOWER(?) ESCAPE '\\' OR LOWER(city) LIKE LOWER(?) ESCAPE '\\')",
			ownerID, like, like)
	}

	err := q.Order("name asc").Find(&clients).Error
	return clients, err
}
