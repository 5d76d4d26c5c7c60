package controller

import "sync"

// exportGuard serializes document exports per invoice. A second export
// request for the same invoice while one is running is rejected instead
// of queued, so the PDF sink never renders the same document twice
// concurrently.
type exportGuard struct {
	mu   sync.Mutex
	busy map[uint]struct{}
}

func newExportGuard() *exportGuard {
	return &exportGuard{busy: make(map[uint]struct{})}
}

// tryAcquire reports whether the caller may start an export for the
// given invoice. On true the caller must release when done.
func (g *exportGuard) tryAcquire(invoiceID uint) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, running := g.busy[invoiceID]; running {
		return false
	}
	g.busy[invoiceID] = struct{}{}
	return true
}

func (g *exportGuard) release(invoiceID uint) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.busy, invoiceID)
}
