package doccollect

import (
	"sort"
	"strings"
	"sync"

	"github.com/relayhr/doccapture/pkg/docclassify"
	"github.com/relayhr/doccapture/pkg/errx"
	"github.com/relayhr/doccapture/pkg/kernel"
)

// SortKey selects the ordering of a collection view.
type SortKey string

const (
	// SortByName orders by filename, ascending.
	SortByName SortKey = "name"
	// SortByCategory orders by localized category label, ascending.
	SortByCategory SortKey = "category"
	// SortByQuality orders by quality score, best first.
	SortByQuality SortKey = "quality"
	// SortByCaptured orders by capture time, newest first.
	SortByCaptured SortKey = "captured"
)

// Query shapes one derived view over the collection. The zero value returns
// every record, newest first.
type Query struct {
	// Search matches case-insensitively against the filename and the
	// localized category label.
	Search string

	// Category keeps only records of one category when set.
	Category docclassify.Category

	// Sort defaults to SortByCaptured.
	Sort SortKey

	// Language localizes category labels for search and sorting.
	Language string
}

// Collection is the session's set of captured documents plus its multi-select
// state. Views are derived on demand, never cached: there is no projection
// that can go stale against the underlying set.
type Collection struct {
	mu       sync.Mutex
	records  []*DocumentRecord
	selected map[kernel.DocumentID]struct{}
}

// NewCollection returns an empty collection.
func NewCollection() *Collection {
	return &Collection{selected: make(map[kernel.DocumentID]struct{})}
}

// Add appends a record. Ids must be unique for the collection's lifetime.
func (c *Collection) Add(record *DocumentRecord) *errx.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.ID == record.ID {
			return collectErrors.New(ErrDuplicateID)
		}
	}
	c.records = append(c.records, record)
	return nil
}

// Get returns the record with the given id.
func (c *Collection) Get(id kernel.DocumentID) (*DocumentRecord, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.ID == id {
			return r, true
		}
	}
	return nil, false
}

// Update applies mutate to the record with the given id under the collection
// lock. Used for OCR state transitions.
func (c *Collection) Update(id kernel.DocumentID, mutate func(*DocumentRecord)) *errx.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		if r.ID == id {
			mutate(r)
			return nil
		}
	}
	return collectErrors.New(ErrNotFound)
}

// Len returns the number of records.
func (c *Collection) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}

// Records returns a snapshot of all records in insertion order.
func (c *Collection) Records() []*DocumentRecord {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*DocumentRecord, len(c.records))
	copy(out, c.records)
	return out
}

// Remove deletes one record, releasing its preview handle and dropping it
// from the selection.
func (c *Collection) Remove(id kernel.DocumentID) *errx.Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i, r := range c.records {
		if r.ID == id {
			c.records = append(c.records[:i], c.records[i+1:]...)
			delete(c.selected, id)
			r.releasePreview()
			return nil
		}
	}
	return collectErrors.New(ErrNotFound)
}

// ToggleSelect flips a record's membership in the multi-select set and
// reports the new state.
func (c *Collection) ToggleSelect(id kernel.DocumentID) (bool, *errx.Error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	found := false
	for _, r := range c.records {
		if r.ID == id {
			found = true
			break
		}
	}
	if !found {
		return false, collectErrors.New(ErrNotFound)
	}
	if _, on := c.selected[id]; on {
		delete(c.selected, id)
		return false, nil
	}
	c.selected[id] = struct{}{}
	return true, nil
}

// ClearSelection empties the multi-select set.
func (c *Collection) ClearSelection() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.selected = make(map[kernel.DocumentID]struct{})
}

// Selected returns the selected ids in insertion order.
func (c *Collection) Selected() []kernel.DocumentID {
	c.mu.Lock()
	defer c.mu.Unlock()
	var out []kernel.DocumentID
	for _, r := range c.records {
		if _, on := c.selected[r.ID]; on {
			out = append(out, r.ID)
		}
	}
	return out
}

// DeleteSelected removes every selected record, all or nothing: the
// selection is validated in full before anything is touched, so a stale id
// leaves the collection intact. Requires an explicit confirmation flag and a
// non-empty selection. Returns the number of records removed.
func (c *Collection) DeleteSelected(confirmed bool) (int, *errx.Error) {
	if !confirmed {
		return 0, collectErrors.New(ErrConfirmationRequired)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.selected) == 0 {
		return 0, collectErrors.New(ErrNoSelection)
	}
	for id := range c.selected {
		found := false
		for _, r := range c.records {
			if r.ID == id {
				found = true
				break
			}
		}
		if !found {
			return 0, collectErrors.NewWithMessage(ErrNotFound, "Selection refers to a missing document")
		}
	}

	kept := c.records[:0]
	removed := 0
	for _, r := range c.records {
		if _, on := c.selected[r.ID]; on {
			r.releasePreview()
			removed++
			continue
		}
		kept = append(kept, r)
	}
	c.records = kept
	c.selected = make(map[kernel.DocumentID]struct{})
	return removed, nil
}

// Clear removes every record, releasing all preview handles. Called when the
// owning session ends.
func (c *Collection) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, r := range c.records {
		r.releasePreview()
	}
	c.records = nil
	c.selected = make(map[kernel.DocumentID]struct{})
}

// View computes a filtered, sorted projection of the collection. The result
// is recomputed from current state on every call.
func (c *Collection) View(q Query) []*DocumentRecord {
	c.mu.Lock()
	records := make([]*DocumentRecord, len(c.records))
	copy(records, c.records)
	c.mu.Unlock()

	needle := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]*DocumentRecord, 0, len(records))
	for _, r := range records {
		if q.Category != "" && r.Category != q.Category {
			continue
		}
		if needle != "" {
			name := strings.ToLower(r.Source.Name)
			label := strings.ToLower(docclassify.Label(r.Category, q.Language))
			if !strings.Contains(name, needle) && !strings.Contains(label, needle) {
				continue
			}
		}
		out = append(out, r)
	}

	switch q.Sort {
	case SortByName:
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].Source.Name) < strings.ToLower(out[j].Source.Name)
		})
	case SortByCategory:
		sort.SliceStable(out, func(i, j int) bool {
			return docclassify.Label(out[i].Category, q.Language) < docclassify.Label(out[j].Category, q.Language)
		})
	case SortByQuality:
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].Quality.Score > out[j].Quality.Score
		})
	default: // SortByCaptured
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].CapturedAt.After(out[j].CapturedAt)
		})
	}
	return out
}
