// Package evidence holds the append-only record of clinical findings gathered
// during an encounter.
package evidence

import (
	"fmt"

	"github.com/care-router-mcp-server/internal/domain"
)

// Ledger is an append-only sequence of evidence items. Entries are never edited or
// removed; when the same finding is recorded twice the later entry wins in Current.
// A Ledger is owned by a single session and is not safe for concurrent use.
type Ledger struct {
	items []domain.EvidenceItem
	index map[string]int // finding id -> position in the current view
}

// NewLedger creates an empty ledger
func NewLedger() *Ledger {
	return &Ledger{index: make(map[string]int)}
}

// Append validates and records one item
func (l *Ledger) Append(item domain.EvidenceItem) error {
	if err := item.Validate(); err != nil {
		return fmt.Errorf("append evidence: %w", err)
	}
	if l.index == nil {
		l.index = make(map[string]int)
	}
	if _, seen := l.index[item.ID]; !seen {
		l.index[item.ID] = len(l.index)
	}
	l.items = append(l.items, item)
	return nil
}

// AppendAll records items in order, stopping at the first invalid one
func (l *Ledger) AppendAll(items ...domain.EvidenceItem) error {
	for _, item := range items {
		if err := l.Append(item); err != nil {
			return err
		}
	}
	return nil
}

// Len returns the number of appended entries, duplicates included
func (l *Ledger) Len() int {
	return len(l.items)
}

// Distinct returns the number of distinct finding ids
func (l *Ledger) Distinct() int {
	return len(l.index)
}

// History returns a copy of every appended entry in append order
func (l *Ledger) History() []domain.EvidenceItem {
	out := make([]domain.EvidenceItem, len(l.items))
	copy(out, l.items)
	return out
}

// Current returns one item per finding id, ordered by first appearance, carrying
// the most recently appended presence and source.
func (l *Ledger) Current() []domain.EvidenceItem {
	out := make([]domain.EvidenceItem, len(l.index))
	for _, item := range l.items {
		out[l.index[item.ID]] = item
	}
	return out
}
