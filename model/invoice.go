package model

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceStatusDraft     InvoiceStatus = "draft"
	InvoiceStatusPending   InvoiceStatus = "pending"
	InvoiceStatusPaid      InvoiceStatus = "paid"
	InvoiceStatusOverdue   InvoiceStatus = "overdue"
	InvoiceStatusCancelled InvoiceStatus = "cancelled"
)

// ValidInvoiceStatus reports whether s is one of the five known states.
// Status only changes by explicit user action; nothing derives "overdue"
// from the due date.
func ValidInvoiceStatus(s InvoiceStatus) bool {
	switch s {
	case InvoiceStatusDraft, InvoiceStatusPending, InvoiceStatusPaid,
		InvoiceStatusOverdue, InvoiceStatusCancelled:
		return true
	}
	return false
}

// ClientSnapshot is the copy of the client data embedded in every invoice.
// Later edits to the stored client never change invoices written earlier.
type ClientSnapshot struct {
	ClientID uint `gorm:"index"` // back-reference, 0 when entered free-form
	Name     string
	Email    string
	Phone    string
	Address  string
	City     string
	Country  string
}

// SignatureSettings controls the signature block of the rendered document.
type SignatureSettings struct {
	Mode                 string `gorm:"size:20;default:'manual'"` // none|manual|digital|both
	ShowCompanySignature bool
	ShowClientSignature  bool
	CompanySignerTitle   string `gorm:"size:100"`
	ClientSignerTitle    string `gorm:"size:100"`
}

type Invoice struct {
	gorm.Model
	OwnerID uint   `gorm:"index;not null"`
	Number  string `gorm:"size:50;index:idx_owner_number"`

	Date    time.Time
	DueDate time.Time
	Status  InvoiceStatus `gorm:"type:text;not null;default:draft;check:status IN ('draft','pending','paid','overdue','cancelled');index;index:idx_owner_status"`

	Client ClientSnapshot `gorm:"embedded;embeddedPrefix:client_"`

	Items  []InvoiceItem  `gorm:"foreignKey:InvoiceID"`
	Images []InvoiceImage `gorm:"foreignKey:InvoiceID"`

	TaxRate  decimal.Decimal `sql:"type:decimal(20,8);"`
	Discount decimal.Decimal `sql:"type:decimal(20,8);"`
	Notes    string          `gorm:"type:text"`

	Signature SignatureSettings `gorm:"embedded;embeddedPrefix:sig_"`

	// Cached results of the computation engine, refreshed before every
	// write and after every load. Never edited directly.
	Subtotal decimal.Decimal `sql:"type:decimal(20,8);"`
	Tax      decimal.Decimal `sql:"type:decimal(20,8);"`
	Total    decimal.Decimal `sql:"type:decimal(20,8);"`
}

// InvoiceItem contains one line in the invoice.
type InvoiceItem struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	OwnerID   uint `gorm:"index"`
	InvoiceID uint `gorm:"index"`
	Position  int

	Description string          `gorm:"size:500"`
	Quantity    decimal.Decimal `sql:"type:decimal(20,8);"`
	UnitPrice   decimal.Decimal `sql:"type:decimal(20,8);"`
}

func (InvoiceItem) TableName() string { return "invoiceitems" }

// LineTotal returns quantity × unit price for this line.
func (item *InvoiceItem) LineTotal() decimal.Decimal {
	return item.Quantity.Mul(item.UnitPrice)
}

// InvoiceImage is an attachment shown in the rendered document. Data holds
// a base64 data URL so both render targets can inline it without a second
// round trip.
type InvoiceImage struct {
	ID        uint `gorm:"primarykey"`
	CreatedAt time.Time
	OwnerID   uint `gorm:"index"`
	InvoiceID uint `gorm:"index"`
	Position  int

	Name string `gorm:"size:255"`
	Data string `gorm:"type:text"`
	Size int64
}

func (InvoiceImage) TableName() string { return "invoiceimages" }

var (
	ErrNoItems        = fmt.Errorf("invoice needs at least one item")
	ErrTooManyImages  = fmt.Errorf("too many images on invoice")
	ErrClientRequired = fmt.Errorf("client name is required")
)

// RecomputeTotals refreshes the cached subtotal, tax and total from the
// items and rates.
func (i *Invoice) RecomputeTotals() {
	i.Subtotal = ComputeSubtotal(i.Items)
	i.Tax = ComputeTax(i.Subtotal, i.TaxRate)
	i.Total = ComputeTotal(i.Subtotal, i.Tax, i.Discount)
}

func (i *Invoice) validate() error {
	if len(i.Items) == 0 {
		return ErrNoItems
	}
	if i.Client.Name == "" {
		return ErrClientRequired
	}
	if len(i.Images) > MaxInvoiceImages {
		return ErrTooManyImages
	}
	return nil
}

// SaveInvoice saves an invoice with all items and images. Existing items
// and images are replaced wholesale inside one transaction, and the cached
// totals are recomputed before the write.
func (store *Store) SaveInvoice(inv *Invoice, ownerID uint) error {
	if inv.OwnerID != ownerID {
		return fmt.Errorf("save invoice: ownerid mismatch")
	}
	if err := inv.validate(); err != nil {
		return err
	}
	inv.RecomputeTotals()

	return store.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Items", "Images").Save(inv).Error; err != nil {
			return err
		}

		if err := tx.Where("invoice_id = ? AND owner_id = ?", inv.ID, ownerID).
			Delete(&InvoiceItem{}).Error; err != nil {
			return err
		}
		for idx := range inv.Items {
			inv.Items[idx].ID = 0 // force insert
			inv.Items[idx].InvoiceID = inv.ID
			inv.Items[idx].OwnerID = ownerID
			inv.Items[idx].Position = idx + 1
		}
		if err := tx.Omit("ID").Create(&inv.Items).Error; err != nil {
			return err
		}

		if err := tx.Where("invoice_id = ? AND owner_id = ?", inv.ID, ownerID).
			Delete(&InvoiceImage{}).Error; err != nil {
			return err
		}
		if len(inv.Images) > 0 {
			for idx := range inv.Images {
				inv.Images[idx].ID = 0
				inv.Images[idx].InvoiceID = inv.ID
				inv.Images[idx].OwnerID = ownerID
				inv.Images[idx].Position = idx + 1
			}
			if err := tx.Omit("ID").Create(&inv.Images).Error; err != nil {
				return err
			}
		}
		return nil
	})
}

// LoadInvoice loads an invoice with its items and images. The invoice and
// all children must belong to the given owner.
func (store *Store) LoadInvoice(id any, ownerID uint) (*Invoice, error) {
	var i Invoice
	result := store.db.Where("owner_id = ?", ownerID).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Where("owner_id = ?", ownerID).Order("position asc")
		}).
		Preload("Images", func(db *gorm.DB) *gorm.DB {
			return db.Where("owner_id = ?", ownerID).Order("position asc")
		}).
		First(&i, id)
	if result.Error != nil {
		return nil, fmt.Errorf("load invoice %v: %w", id, result.Error)
	}
	i.RecomputeTotals()
	return &i, nil
}

// DeleteInvoice removes an invoice and all its items and images. Deletion
// is explicit and irreversible, there is no soft delete for invoices.
func (store *Store) DeleteInvoice(inv *Invoice, ownerID uint) error {
	return store.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("invoice_id = ? AND owner_id = ?", inv.ID, ownerID).
			Delete(&InvoiceItem{}).Error; err != nil {
			return err
		}
		if err := tx.Where("invoice_id = ? AND owner_id = ?", inv.ID, ownerID).
			Delete(&InvoiceImage{}).Error; err != nil {
			return err
		}
		return tx.Unscoped().Where("owner_id = ?", ownerID).Delete(inv).Error
	})
}

// SetInvoiceStatus sets the status by explicit user action. Any of the
// five states may be chosen from any other state.
func (store *Store) SetInvoiceStatus(id uint, ownerID uint, to InvoiceStatus) error {
	if !ValidInvoiceStatus(to) {
		return fmt.Errorf("unknown invoice status %q", to)
	}
	result := store.db.Model(&Invoice{}).
		Where("id = ? AND owner_id = ?", id, ownerID).
		Update("status", to)
	if result.Error != nil {
		return result.Error
	}
	// Update reports no error when nothing matched
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

// LastInvoiceNumber returns the highest number this owner issued in the
// given year, or the empty string when the year has no invoices yet.
// The counter is zero-padded to four digits but keeps growing past 9999,
// so longer numbers sort first and ties fall back to the lexicographic
// order.
func (store *Store) LastInvoiceNumber(ownerID uint, year int) (string, error) {
	var numbers []string
	prefix := fmt.Sprintf("FAC-%d-", year)
	err := store.db.Model(&Invoice{}).
		Where("owner_id = ? AND number LIKE ?", ownerID, prefix+"%").
		Order("LENGTH(number) DESC, number DESC").
		Limit(1).
		Pluck("number", &numbers).Error
	if err != nil {
		return "", err
	}
	if len(numbers) == 0 {
		return "", nil
	}
	return numbers[0], nil
}

// DuplicateInvoice copies an invoice into a new draft with the next free
// number for the current year. The copy keeps items, images, rates and
// signature settings but not the status history.
func (store *Store) DuplicateInvoice(id uint, ownerID uint, now time.Time) (*Invoice, error) {
	src, err := store.LoadInvoice(id, ownerID)
	if err != nil {
		return nil, err
	}
	last, err := store.LastInvoiceNumber(ownerID, now.Year())
	if err != nil {
		return nil, err
	}

	dup := *src
	dup.Model = gorm.Model{}
	dup.Number = NextInvoiceNumber(last, now.Year())
	dup.Date = now
	dup.DueDate = now.AddDate(0, 1, 0)
	dup.Status = InvoiceStatusDraft

	dup.Items = make([]InvoiceItem, len(src.Items))
	copy(dup.Items, src.Items)
	dup.Images = make([]InvoiceImage, len(src.Images))
	copy(dup.Images, src.Images)

	if err := store.SaveInvoice(&dup, ownerID); err != nil {
		return nil, err
	}
	return &dup, nil
}
