package theme

// Dependencies is an insertion-ordered set of descriptors. It satisfies
// DependencySet.
type Dependencies struct {
	order []Descriptor
	seen  map[Descriptor]struct{}
}

// NewDependencies returns an empty set.
func NewDependencies() *Dependencies {
	return &Dependencies{seen: make(map[Descriptor]struct{})}
}

// Add records d once.
func (s *Dependencies) Add(d Descriptor) {
	if s.seen == nil {
		s.seen = make(map[Descriptor]struct{})
	}
	if _, ok := s.seen[d]; ok {
		return
	}
	s.seen[d] = struct{}{}
	s.order = append(s.order, d)
}

// Has reports whether d was added.
func (s *Dependencies) Has(d Descriptor) bool {
	_, ok := s.seen[d]
	return ok
}

func (s *Dependencies) Len() int { return len(s.order) }

// List returns the descriptors in the order they were first added.
func (s *Dependencies) List() []Descriptor {
	return append([]Descriptor(nil), s.order...)
}
