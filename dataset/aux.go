package dataset

import "sort"

// AuxKey names an auxiliary dataset in a run context. Callers declare their
// keys as typed constants, so a lookup against an unregistered dataset is a
// compile-visible mistake rather than a stringly-typed one.
type AuxKey string

// AuxStore is the typed registry of auxiliary datasets (prior-period
// reference tables, closing notes, rate tables) loaded before
// classification steps run.
type AuxStore struct {
	m map[AuxKey]*Dataset
}

// NewAuxStore creates an empty auxiliary registry.
func NewAuxStore() *AuxStore {
	return &AuxStore{m: make(map[AuxKey]*Dataset)}
}

// Put registers or replaces an auxiliary dataset.
func (s *AuxStore) Put(key AuxKey, ds *Dataset) {
	s.m[key] = ds
}

// Get returns the auxiliary dataset for key.
func (s *AuxStore) Get(key AuxKey) (*Dataset, bool) {
	ds, ok := s.m[key]
	return ds, ok
}

// Delete removes an auxiliary dataset.
func (s *AuxStore) Delete(key AuxKey) {
	delete(s.m, key)
}

// Len returns the number of registered datasets.
func (s *AuxStore) Len() int {
	return len(s.m)
}

// Keys returns the registered keys in lexical order, so iteration is
// deterministic.
func (s *AuxStore) Keys() []AuxKey {
	keys := make([]AuxKey, 0, len(s.m))
	for k := range s.m {
		keys = append(keys, k)
	}

	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	return keys
}

// Clone deep-copies the registry and every dataset in it.
func (s *AuxStore) Clone() *AuxStore {
	if s == nil {
		return nil
	}

	out := NewAuxStore()
	for k, ds := range s.m {
		out.m[k] = ds.Clone()
	}

	return out
}
