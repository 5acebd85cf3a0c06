package domain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joverton/gemsky/internal/atproto"
)

func TestRegistryIsolatesAuthFailures(t *testing.T) {
	clients := map[string]Client{
		"https://pds-good": &fakeClient{did: "did:plc:good"},
		"https://pds-bad":  &fakeClient{loginErr: errors.New("invalid credentials")},
	}
	accounts := []Account{
		{Fingerprint: "fp-bad", PDS: "https://pds-bad", Identifier: "bad.bsky.social", Password: "pw"},
		{Fingerprint: "fp-good", PDS: "https://pds-good", Identifier: "good.bsky.social", Password: "pw"},
	}

	registry := NewRegistry(context.Background(), accounts, func(pds string) Client {
		return clients[pds]
	}, newFakeStore(), testPageSize, testLogger())

	assert.Equal(t, 1, registry.Len())

	_, ok := registry.Resolve("fp-bad")
	assert.False(t, ok)

	session, ok := registry.Resolve("fp-good")
	require.True(t, ok)
	assert.Equal(t, "good.bsky.social", session.Identifier())
}

func TestResolveUnknownFingerprintIsAnonymous(t *testing.T) {
	registry := NewRegistry(context.Background(), nil, func(pds string) Client {
		return &fakeClient{}
	}, newFakeStore(), testPageSize, testLogger())

	session, ok := registry.Resolve("no-such-fingerprint")
	assert.False(t, ok)
	assert.Nil(t, session)
}

func TestRegistrySessionsShareHandleTable(t *testing.T) {
	uri := "at://did:plc:alice/app.bsky.feed.post/shared"
	readerClient := &fakeClient{
		did:      "did:plc:reader",
		timeline: []atproto.FeedViewPost{entryWith("shared", "alice", "seen by reader")},
	}
	writerClient := &fakeClient{
		did:   "did:plc:writer",
		posts: map[string]*atproto.PostView{uri: {URI: uri, CID: "cid-shared"}},
	}

	clients := map[string]Client{
		"https://pds-reader": readerClient,
		"https://pds-writer": writerClient,
	}
	accounts := []Account{
		{Fingerprint: "fp-reader", PDS: "https://pds-reader", Identifier: "reader.bsky.social", Password: "pw"},
		{Fingerprint: "fp-writer", PDS: "https://pds-writer", Identifier: "writer.bsky.social", Password: "pw"},
	}

	registry := NewRegistry(context.Background(), accounts, func(pds string) Client {
		return clients[pds]
	}, newFakeStore(), testPageSize, testLogger())

	reader, ok := registry.Resolve("fp-reader")
	require.True(t, ok)
	writer, ok := registry.Resolve("fp-writer")
	require.True(t, ok)

	// A handle observed through one session is addressable from another:
	// the table is process-wide, not partitioned per account.
	posts, err := reader.FetchFeed(context.Background())
	require.NoError(t, err)
	require.Len(t, posts, 1)

	require.NoError(t, writer.ToggleLike(context.Background(), posts[0].Handle))
	require.Len(t, writerClient.created, 1)
	assert.Equal(t, atproto.CollectionLike, writerClient.created[0].collection)
}
