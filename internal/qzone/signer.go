package qzone

import "sync"

// Signer derives the g_tk token the service checks against the session
// cookie. Tokens are memoized per secret; a Signer is safe for concurrent use.
type Signer struct {
	mu     sync.Mutex
	tokens map[string]int64

	computed int // number of cache misses, for tests
}

// NewSigner returns an empty signer
func NewSigner() *Signer {
	return &Signer{tokens: make(map[string]int64)}
}

// Token returns the token for secret: starting from 5381, each code point c
// folds in as acc*33 + c, and the result is masked to 31 bits.
func (s *Signer) Token(secret string) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	if tk, ok := s.tokens[secret]; ok {
		return tk
	}

	// Only the low 31 bits survive, so wrapping at 32 bits is exact.
	var acc uint32 = 5381
	for _, c := range secret {
		acc += acc<<5 + uint32(c)
	}
	tk := int64(acc & 0x7fffffff)

	s.tokens[secret] = tk
	s.computed++
	return tk
}
