// Package handles implements the process-wide object handle table: a
// shared mapping from short opaque handles to remote record references,
// so full AT-URIs never have to travel through the constrained
// text-protocol address space.
package handles

import (
	"encoding/hex"
	"sync"

	"github.com/zeebo/blake3"

	"github.com/joverton/gemsky/internal/domain"
)

// HandleLen is the fixed length of a handle in hex characters.
const HandleLen = 16

// Derive computes the handle for a canonical URI: the leading bytes of
// its BLAKE3 digest, hex encoded. The same URI always derives the same
// handle; distinct URIs collide only with negligible probability at
// this width.
func Derive(uri string) string {
	sum := blake3.Sum256([]byte(uri))
	return hex.EncodeToString(sum[:HandleLen/2])
}

// Store is a mutex-guarded handle table. Entries are inserted on every
// feed or profile read and never evicted; handles stay valid for the
// process lifetime and become invalid on restart.
type Store struct {
	mu   sync.Mutex
	refs map[string]domain.RemoteRef
}

// NewStore creates an empty handle table.
func NewStore() *Store {
	return &Store{refs: make(map[string]domain.RemoteRef)}
}

// Put registers ref under its derived handle and returns the handle.
// The hash is computed outside the lock; insertion is idempotent per
// canonical URI, so the critical section is a single map write.
func (s *Store) Put(ref domain.RemoteRef) string {
	handle := Derive(ref.URI)

	s.mu.Lock()
	s.refs[handle] = ref
	s.mu.Unlock()

	return handle
}

// Get looks a handle up, reporting false when it was never observed in
// this process lifetime.
func (s *Store) Get(handle string) (domain.RemoteRef, bool) {
	s.mu.Lock()
	ref, ok := s.refs[handle]
	s.mu.Unlock()
	return ref, ok
}

// Len reports how many distinct records have been observed.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.refs)
}
