package model

import "strconv"

// InvoiceListQuery captures filter, paging, and sorting options for listing invoices.
type InvoiceListQuery struct {
	Status   InvoiceStatus // Optional: filter by status
	ClientID uint          // Optional: restrict to invoices referencing one stored client
	Limit    int           // Page size (1-200); defaults to 50 when out of range
	Cursor   string        // Simple offset cursor encoded as a string: "0", "50", ...
	Sort     string        // Sort mode: "date_desc" (default), "date_asc", "number_asc", "created_desc"
}

// ListInvoices returns a page of invoices for the given owner along with the next cursor.
// Owner-scoped and safe to call repeatedly for pagination.
//
// Paging model:
//   - Uses an offset-based cursor encoded as a string (q.Cursor).
//   - Fetches Limit+1 rows to determine if there is a next page; if so, trims to Limit and
//     returns nextCursor = offset + Limit (as string).
func (s *Store) ListInvoices(ownerID uint, q InvoiceListQuery) (items []Invoice, nextCursor string, err error) {
	if q.Limit <= 0 || q.Limit > 200 {
		q.Limit = 50
	}

	offset := 0
	if q.Cursor != "" {
		if n, e := strconv.Atoi(q.Cursor); e == nil && n >= 0 {
			offset = n
		}
	}

	db := s.db.Model(&Invoice{}).Where("owner_id = ?", ownerID)

	if q.Status != "" {
		db = db.Where("status = ?", q.Status)
	}
	if q.ClientID != 0 {
		db = db.Where("client_client_id = ?", q.ClientID)
	}

	switch q.Sort {
	case "date_asc":
		db = db.Order("date asc")
	case "number_asc":
		db = db.Order("number asc")
	case "created_desc":
		db = db.Order("created_at desc")
	default:
		db = db.Order("date desc")
	}

	var invs []Invoice
	if err = db.Offset(offset).Limit(q.Limit + 1).Find(&invs).Error; err != nil {
		return nil, "", err
	}

	if len(invs) > q.Limit {
		invs = invs[:q.Limit]
		nextCursor = strconv.Itoa(offset + q.Limit)
	}
	return invs, nextCursor, nil
}

// CountInvoicesByStatus returns the per-status invoice counts shown on the
// dashboard.
func (s *Store) CountInvoicesByStatus(ownerID uint) (map[InvoiceStatus]int64, error) {
	type row struct {
		Status InvoiceStatus
		N      int64
	}
	var rows []row
	if err := s.db.Model(&Invoice{}).
		Select("status, COUNT(*) as n").
		Where("owner_id = ?", ownerID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[InvoiceStatus]int64, len(rows))
	for _, r := range rows {
		out[r.Status] = r.N
	}
	return out, nil
}
