package addr

// Set is an insertion-ordered collection of unique IP values.
// The zero value is ready to use. A Set is not safe for concurrent use.
type Set struct {
	index map[IP]struct{}
	items []IP
}

// NewSet returns a set with room for n values.
func NewSet(n int) *Set {
	return &Set{
		index: make(map[IP]struct{}, n),
		items: make([]IP, 0, n),
	}
}

// SetOf builds a set from values, keeping the first occurrence of duplicates.
func SetOf(ips ...IP) *Set {
	s := NewSet(len(ips))
	for _, ip := range ips {
		s.Add(ip)
	}
	return s
}

// Add inserts ip and reports whether it was new.
func (s *Set) Add(ip IP) bool {
	if s.index == nil {
		s.index = make(map[IP]struct{})
	}
	if _, ok := s.index[ip]; ok {
		return false
	}
	s.index[ip] = struct{}{}
	s.items = append(s.items, ip)
	return true
}

// Has reports whether ip is in the set.
func (s *Set) Has(ip IP) bool {
	if s == nil {
		return false
	}
	_, ok := s.index[ip]
	return ok
}

// Len returns the number of values.
func (s *Set) Len() int {
	if s == nil {
		return 0
	}
	return len(s.items)
}

// Items returns the values in insertion order. The slice must not be modified.
func (s *Set) Items() []IP {
	if s == nil {
		return nil
	}
	return s.items
}

// Merge adds every value of other, preserving other's order for new values.
func (s *Set) Merge(other *Set) {
	for _, ip := range other.Items() {
		s.Add(ip)
	}
}

// Truncate keeps the first n values. It reports how many were dropped.
func (s *Set) Truncate(n int) int {
	if n < 0 || n >= s.Len() {
		return 0
	}
	dropped := s.items[n:]
	for _, ip := range dropped {
		delete(s.index, ip)
	}
	count := len(dropped)
	s.items = s.Compact(n)
	return count
}

// Compact returns a right-sized copy of the first n values.
func (s *Set) Compact(n int) []IP {
	if n > len(s.items) {
		n = len(s.items)
	}
	out := make([]IP, n)
	copy(out, s.items[:n])
	return out
}

// Filter returns a new set holding the values for which keep returns true.
func (s *Set) Filter(keep func(IP) bool) *Set {
	out := NewSet(0)
	for _, ip := range s.Items() {
		if keep(ip) {
			out.Add(ip)
		}
	}
	return out
}
