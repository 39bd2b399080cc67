package cellset

import (
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/apperr"
	"github.com/mohammed-shakir/h3-cellset-analytics/internal/core/model"
)

// Store is the slice of the cellset cache the resolver needs.
type Store interface {
	Put(members []string) string
	Get(handle string) ([]string, bool)
}

// Resolver turns references into canonical cellsets and persists derived sets.
type Resolver struct {
	store Store
}

func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// Resolve prefers inline cells; otherwise the handle must be live in the store.
func (r *Resolver) Resolve(ref model.CellsetRef) (Cellset, error) {
	if ref.Cells != nil {
		return New(ref.Cells), nil
	}
	if ref.Handle == "" {
		return Cellset{}, apperr.Invalid("%scellset_id is required when cells are not provided", labelPrefix(ref))
	}
	members, ok := r.store.Get(ref.Handle)
	if !ok {
		return Cellset{}, apperr.NotFound("%sunknown or expired cellset_id: %s", labelPrefix(ref), ref.Handle)
	}
	return fromCanonical(members), nil
}

// Save stores s and returns its handle.
func (r *Resolver) Save(s Cellset) string {
	return r.store.Put(s.members)
}

// SaveNonEmpty stores s unless it is empty, in which case it returns "".
func (r *Resolver) SaveNonEmpty(s Cellset) string {
	if s.IsEmpty() {
		return ""
	}
	return r.Save(s)
}

func labelPrefix(ref model.CellsetRef) string {
	if ref.Label == "" {
		return ""
	}
	return ref.Label + ": "
}
