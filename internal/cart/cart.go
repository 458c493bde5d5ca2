// Package cart holds the session-scoped raise list: an ordered collection of
// elephant snapshots taken at add-time. Entries are compared by content, so a
// price change after adding does not touch what is already in the list.
package cart

import "github.com/elefund/elephant-raiser/internal/models"

type Entry struct {
	ID      uint   `json:"id"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Price   int64  `json:"price"`
	PriceID string `json:"price_id"`
}

type List []Entry

func SnapshotOf(e *models.Elephant) Entry {
	return Entry{
		ID:      e.ID,
		Name:    e.Name,
		Image:   e.Image,
		Price:   e.Price,
		PriceID: e.PriceID,
	}
}

// Add appends the entry and deduplicates by exact content, keeping the first
// occurrence. Adding the same snapshot twice therefore yields one entry.
func (l List) Add(e Entry) List {
	return append(l, e).dedupe()
}

// Remove drops the first entry equal to e. Removing an entry that is not in
// the list is a no-op.
func (l List) Remove(e Entry) List {
	for i, have := range l {
		if have == e {
			out := make(List, 0, len(l)-1)
			out = append(out, l[:i]...)
			return append(out, l[i+1:]...)
		}
	}
	return l
}

func (l List) Contains(e Entry) bool {
	for _, have := range l {
		if have == e {
			return true
		}
	}
	return false
}

// Total reports the number of entries and the sum of their snapshot prices.
// An empty list totals to (0, 0).
func (l List) Total() (int, int64) {
	var sum int64
	for _, e := range l {
		sum += e.Price
	}
	return len(l), sum
}

func (l List) ElephantIDs() []uint {
	ids := make([]uint, 0, len(l))
	for _, e := range l {
		ids = append(ids, e.ID)
	}
	return ids
}

func (l List) dedupe() List {
	out := make(List, 0, len(l))
	for _, e := range l {
		if !out.Contains(e) {
			out = append(out, e)
		}
	}
	return out
}
