package atproto

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePostRecord(t *testing.T) {
	raw := json.RawMessage(`{
		"$type": "app.bsky.feed.post",
		"text": "hello",
		"reply": {
			"root": {"uri": "at://did:plc:a/app.bsky.feed.post/r", "cid": "cr"},
			"parent": {"uri": "at://did:plc:b/app.bsky.feed.post/p", "cid": "cp"}
		},
		"createdAt": "2024-01-01T00:00:00Z"
	}`)

	rec, ok := DecodePostRecord(raw)
	require.True(t, ok)
	assert.Equal(t, "hello", rec.Text)
	require.NotNil(t, rec.Reply)
	assert.Equal(t, "at://did:plc:a/app.bsky.feed.post/r", rec.Reply.Root.URI)
}

func TestDecodePostRecordRejects(t *testing.T) {
	tests := []struct {
		name string
		raw  json.RawMessage
	}{
		{"empty", nil},
		{"malformed", json.RawMessage(`{"text":`)},
		{"no type tag", json.RawMessage(`{"text":"hi"}`)},
		{"other collection", json.RawMessage(`{"$type":"app.bsky.graph.follow","subject":"did:plc:x"}`)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := DecodePostRecord(tt.raw)
			assert.False(t, ok)
		})
	}
}

func TestRecordText(t *testing.T) {
	assert.Equal(t, "hi", RecordText(json.RawMessage(`{"$type":"app.bsky.feed.post","text":"hi"}`)))
	assert.Empty(t, RecordText(json.RawMessage(`{"weird": true}`)))
	assert.Empty(t, RecordText(nil))
}

func TestParseURI(t *testing.T) {
	repo, collection, rkey, err := ParseURI("at://did:plc:abc/app.bsky.feed.post/3l3qo2vuowo2b")
	require.NoError(t, err)
	assert.Equal(t, "did:plc:abc", repo)
	assert.Equal(t, "app.bsky.feed.post", collection)
	assert.Equal(t, "3l3qo2vuowo2b", rkey)
}

func TestParseURIRejects(t *testing.T) {
	for _, uri := range []string{
		"https://example.com/post/1",
		"at://did:plc:abc/app.bsky.feed.post",
		"at://did:plc:abc/app.bsky.feed.post/rkey/extra",
		"at:///app.bsky.feed.post/rkey",
		"",
	} {
		_, _, _, err := ParseURI(uri)
		assert.Error(t, err, "uri %q", uri)
	}
}
