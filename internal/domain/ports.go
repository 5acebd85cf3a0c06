package domain

import (
	"context"

	"github.com/joverton/gemsky/internal/atproto"
)

// Client is the remote API capability surface the session layer
// consumes. The concrete implementation lives in internal/atproto;
// tests substitute fakes.
type Client interface {
	// Login performs the remote authentication handshake and primes the
	// client with the resulting session token.
	Login(ctx context.Context, identifier, password string) error

	// DID returns the authenticated account's DID. Only valid after Login.
	DID() string

	// GetTimeline fetches the account's home timeline.
	GetTimeline(ctx context.Context, limit int) ([]atproto.FeedViewPost, error)

	// GetAuthorFeed fetches an account's own posts and reposts.
	GetAuthorFeed(ctx context.Context, actor string, limit int) ([]atproto.FeedViewPost, error)

	// GetProfile fetches profile metadata including viewer relationship.
	GetProfile(ctx context.Context, actor string) (*atproto.ProfileDetailed, error)

	// GetPost fetches a single hydrated post view with viewer state.
	GetPost(ctx context.Context, uri string) (*atproto.PostView, error)

	// GetRecord fetches the raw repo record behind an AT-URI.
	GetRecord(ctx context.Context, uri string) (*atproto.Record, error)

	// CreateRecord writes a new record into the account's repo.
	CreateRecord(ctx context.Context, collection string, record any) (*atproto.StrongRef, error)

	// DeleteRecord removes a record from the account's repo.
	DeleteRecord(ctx context.Context, collection, rkey string) error
}

// HandleStore is the process-wide table mapping short opaque handles to
// remote record references. It is shared by every session and every
// in-flight request, and must be safe for concurrent use.
type HandleStore interface {
	// Put registers ref under the deterministic handle derived from its
	// canonical URI and returns that handle. Re-inserting the same URI
	// is a no-op beyond overwriting with an equal value.
	Put(ref RemoteRef) string

	// Get looks a handle up. The second return is false when the handle
	// was never observed in this process lifetime.
	Get(handle string) (RemoteRef, bool)
}
