package handles

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joverton/gemsky/internal/domain"
)

func TestDeriveDeterministic(t *testing.T) {
	uri := "at://did:plc:abc/app.bsky.feed.post/3l3qo2vuowo2b"

	assert.Equal(t, Derive(uri), Derive(uri))
	assert.Len(t, Derive(uri), HandleLen)
}

func TestDeriveDistinctURIs(t *testing.T) {
	a := Derive("at://did:plc:abc/app.bsky.feed.post/aaa")
	b := Derive("at://did:plc:abc/app.bsky.feed.post/bbb")

	assert.NotEqual(t, a, b)
}

func TestPutGetRoundTrip(t *testing.T) {
	store := NewStore()
	ref := domain.RemoteRef{
		URI: "at://did:plc:abc/app.bsky.feed.post/xyz",
		CID: "bafyreib2rxk3rw6",
	}

	handle := store.Put(ref)

	got, ok := store.Get(handle)
	require.True(t, ok)
	assert.Equal(t, ref, got)
}

func TestPutIdempotent(t *testing.T) {
	store := NewStore()
	ref := domain.RemoteRef{URI: "at://did:plc:abc/app.bsky.feed.post/xyz", CID: "cid1"}

	first := store.Put(ref)
	second := store.Put(ref)

	assert.Equal(t, first, second)
	assert.Equal(t, 1, store.Len())
}

func TestGetUnknownHandle(t *testing.T) {
	store := NewStore()

	_, ok := store.Get("0000000000000000")
	assert.False(t, ok)
}

func TestConcurrentAccess(t *testing.T) {
	store := NewStore()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				uri := fmt.Sprintf("at://did:plc:abc/app.bsky.feed.post/%d", j)
				handle := store.Put(domain.RemoteRef{URI: uri, CID: "cid"})
				if _, ok := store.Get(handle); !ok {
					t.Error("handle missing immediately after put")
					return
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, store.Len())
}
