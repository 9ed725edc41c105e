// Package order computes sort keys for siblings on a kanban board:
// columns within a project and tasks within a column. Keys are sparse
// int64 values so that a move usually rewrites a single row; when two
// neighbors have no room left between them the whole group is respaced.
package order

import (
	"errors"

	"github.com/google/uuid"
)

// Step is the gap between keys assigned on append and after a respace.
const Step int64 = 1024

var ErrInvalidPosition = errors.New("invalid position")

// Sibling is one member of a sibling group, in ascending key order.
type Sibling struct {
	ID    uuid.UUID
	Order int64
}

// Placement is the outcome of a position request. Renumbered is nil in
// the common case; when set, every listed sibling must be rewritten in
// the same transaction as the placed item.
type Placement struct {
	Order      int64
	Renumbered []Sibling
}

// NextAppend returns a key greater than every key in the group.
func NextAppend(siblings []Sibling) int64 {
	if len(siblings) == 0 {
		return Step
	}
	max := siblings[0].Order
	for _, s := range siblings[1:] {
		if s.Order > max {
			max = s.Order
		}
	}
	return max + Step
}

// ForPosition returns a key that places an item at pos (0-based) within
// the group. The siblings slice must be sorted ascending by Order. If
// exclude is a non-nil id present in the group it is ignored, so a move
// within the same group is computed against the item's neighbors only.
// Positions past the end clamp to append; negative positions are
// rejected before anything is computed.
func ForPosition(siblings []Sibling, pos int, exclude uuid.UUID) (Placement, error) {
	if pos < 0 {
		return Placement{}, ErrInvalidPosition
	}

	rest := siblings
	if exclude != uuid.Nil {
		rest = make([]Sibling, 0, len(siblings))
		for _, s := range siblings {
			if s.ID == exclude {
				continue
			}
			rest = append(rest, s)
		}
	}

	if pos > len(rest) {
		pos = len(rest)
	}

	switch {
	case len(rest) == 0:
		return Placement{Order: Step}, nil
	case pos == 0:
		return Placement{Order: rest[0].Order - Step}, nil
	case pos == len(rest):
		return Placement{Order: rest[len(rest)-1].Order + Step}, nil
	}

	prev, next := rest[pos-1].Order, rest[pos].Order
	if next-prev >= 2 {
		return Placement{Order: prev + (next-prev)/2}, nil
	}

	// No key fits between the neighbors: respace the whole group and
	// drop the item into the middle of the freed slot.
	renumbered := make([]Sibling, len(rest))
	for i, s := range rest {
		renumbered[i] = Sibling{ID: s.ID, Order: int64(i+1) * Step}
	}
	return Placement{
		Order:      int64(pos)*Step + Step/2,
		Renumbered: renumbered,
	}, nil
}
