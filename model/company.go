package model

import "gorm.io/gorm"

// CompanyProfile holds the issuing company shown on every document.
// There is exactly one per owner; LoadCompanyProfile initializes an
// empty one on first access.
type CompanyProfile struct {
	gorm.Model
	OwnerID uint `gorm:"uniqueIndex;not null"`

	Name    string `gorm:"size:255"`
	Address string `gorm:"size:500"`
	City    string `gorm:"size:100"`
	Country string `gorm:"size:100"`
	Phone   string `gorm:"size:50"`
	Email   string `gorm:"size:255"`

	// Fiscal and bank identifiers printed in the document footer.
	IFU      string `gorm:"size:50"`
	RCCM     string `gorm:"size:50"`
	TVA      string `gorm:"size:50"`
	IBAN     string `gorm:"size:50"`
	BIC      string `gorm:"size:20"`
	BankName string `gorm:"size:255"`

	SignerTitle string `gorm:"size:100"`

	// Encoded images (base64 data URLs), same storage scheme as
	// invoice attachments.
	Logo        string `gorm:"type:text"`
	HeaderImage string `gorm:"type:text"`
	FooterImage string `gorm:"type:text"`

	// Document defaults applied to new invoices.
	Locale          string `gorm:"size:5;default:'fr'"`
	Currency        string `gorm:"size:10;default:'FCFA'"`
	DefaultTemplate string `gorm:"size:20;default:'corporate'"`
	AccentColor     string `gorm:"size:20"`
	PaperFormat     string `gorm:"size:10;default:'a4'"`
}

// LoadCompanyProfile loads the owner's profile, initializing an empty
// one when none exists yet.
func (store *Store) LoadCompanyProfile(ownerID uint) (*CompanyProfile, error) {
	c := &CompanyProfile{}
	result := store.db.FirstOrInit(c, CompanyProfile{OwnerID: ownerID})
	return c, result.Error
}

// SaveCompanyProfile stores the owner's profile.
func (store *Store) SaveCompanyProfile(c *CompanyProfile, ownerID uint) error {
	if c.OwnerID != ownerID {
		return ErrNotAllowed
	}
	return store.db.Save(c).Error
}
