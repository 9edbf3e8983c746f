// internal/core/filter-query/sidebar.go
package filterquery

import (
	"context"
	"sync"

	"shopping-assistant/internal/models"
)

// Sidebar is the editable working copy of the filter criteria. Edits stay
// local until Apply commits them; Reset clears and commits at once.
type Sidebar struct {
	coordinator *Coordinator

	mu    sync.Mutex
	draft models.FilterCriteria
}

func newSidebar(c *Coordinator) *Sidebar {
	return &Sidebar{coordinator: c}
}

// load replaces the draft with committed criteria.
func (s *Sidebar) load(f models.FilterCriteria) {
	s.mu.Lock()
	s.draft = f.Clone()
	s.mu.Unlock()
}

// Draft returns a copy of the working criteria.
func (s *Sidebar) Draft() models.FilterCriteria {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.draft.Clone()
}

func (s *Sidebar) edit(fn func(f *models.FilterCriteria)) {
	s.mu.Lock()
	fn(&s.draft)
	s.mu.Unlock()
}

// SetMinPrice sets or, with nil, clears the lower price bound.
func (s *Sidebar) SetMinPrice(v *float64) {
	s.edit(func(f *models.FilterCriteria) { f.MinPrice = copyFloat(v) })
}

func (s *Sidebar) SetMaxPrice(v *float64) {
	s.edit(func(f *models.FilterCriteria) { f.MaxPrice = copyFloat(v) })
}

func (s *Sidebar) SetMinRating(v *float64) {
	s.edit(func(f *models.FilterCriteria) { f.MinRating = copyFloat(v) })
}

func (s *Sidebar) SetBattery(v *float64) {
	s.edit(func(f *models.FilterCriteria) { f.Battery = copyFloat(v) })
}

func (s *Sidebar) ToggleBrand(brand string) {
	s.edit(func(f *models.FilterCriteria) { f.Brand = toggle(f.Brand, brand) })
}

func (s *Sidebar) ToggleStorage(storage string) {
	s.edit(func(f *models.FilterCriteria) { f.Storage = toggle(f.Storage, storage) })
}

func (s *Sidebar) ToggleRAM(ram string) {
	s.edit(func(f *models.FilterCriteria) { f.RAM = toggle(f.RAM, ram) })
}

// Apply commits the draft to the coordinator.
func (s *Sidebar) Apply(ctx context.Context) (Snapshot, error) {
	return s.coordinator.ApplyFilters(ctx, s.Draft())
}

// Reset clears the draft and commits the empty criteria.
func (s *Sidebar) Reset(ctx context.Context) Snapshot {
	return s.coordinator.Reset(ctx)
}

func toggle(items []string, v string) []string {
	out := make([]string, 0, len(items)+1)
	found := false
	for _, item := range items {
		if item == v {
			found = true
			continue
		}
		out = append(out, item)
	}
	if !found {
		out = append(out, v)
	}
	return out
}

func copyFloat(v *float64) *float64 {
	if v == nil {
		return nil
	}
	c := *v
	return &c
}
