package feature

// SensitivityList is a set of items to reconsider after a population change.
// Adding an item twice keeps one entry, so an item reachable from several
// changed species is visited once.  Iteration follows first insertion.
type SensitivityList[T comparable] struct {
	items []T
	index map[T]struct{}
}

// NewSensitivityList returns an empty list.
func NewSensitivityList[T comparable]() *SensitivityList[T] {
	return &SensitivityList[T]{index: make(map[T]struct{})}
}

// Add inserts item and reports whether it was absent.
func (s *SensitivityList[T]) Add(item T) bool {
	if s.index == nil {
		s.index = make(map[T]struct{})
	}
	if _, ok := s.index[item]; ok {
		return false
	}
	s.index[item] = struct{}{}
	s.items = append(s.items, item)
	return true
}

// Remove deletes item and reports whether it was present.  The remaining
// items keep their order.
func (s *SensitivityList[T]) Remove(item T) bool {
	if _, ok := s.index[item]; !ok {
		return false
	}
	delete(s.index, item)
	for i, it := range s.items {
		if it == item {
			s.items = append(s.items[:i], s.items[i+1:]...)
			break
		}
	}
	return true
}

// AddAll inserts every item of other.
func (s *SensitivityList[T]) AddAll(other *SensitivityList[T]) {
	if other == nil {
		return
	}
	for _, item := range other.items {
		s.Add(item)
	}
}

// Contains reports whether item is present.
func (s *SensitivityList[T]) Contains(item T) bool {
	_, ok := s.index[item]
	return ok
}

// Len returns the number of distinct items.
func (s *SensitivityList[T]) Len() int { return len(s.items) }

// Items returns the items in insertion order.
func (s *SensitivityList[T]) Items() []T {
	out := make([]T, len(s.items))
	copy(out, s.items)
	return out
}

// Each calls fn on every item in insertion order.
func (s *SensitivityList[T]) Each(fn func(T)) {
	for _, item := range s.items {
		fn(item)
	}
}
