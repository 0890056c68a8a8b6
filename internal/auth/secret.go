package auth

// Secret holds credential bytes and guarantees they are overwritten once
// used. Every path that receives a *Secret must end in Wipe, directly or via
// Use.
type Secret struct {
	b []byte
}

// NewSecret takes ownership of b.
func NewSecret(b []byte) *Secret {
	return &Secret{b: b}
}

// Len returns the number of bytes held.
func (s *Secret) Len() int {
	if s == nil {
		return 0
	}
	return len(s.b)
}

// Use calls f with the bytes and wipes them afterwards, even if f panics.
func (s *Secret) Use(f func([]byte) error) error {
	defer s.Wipe()
	if s == nil {
		return f(nil)
	}
	return f(s.b)
}

// Wipe overwrites the bytes with zero. It is safe to call repeatedly and on
// a nil Secret.
func (s *Secret) Wipe() {
	if s == nil {
		return
	}
	for i := range s.b {
		s.b[i] = 0
	}
}

// IsZero reports whether every byte has been overwritten.
func (s *Secret) IsZero() bool {
	if s == nil {
		return true
	}
	for _, c := range s.b {
		if c != 0 {
			return false
		}
	}
	return true
}
