package domain

// RemoteRef identifies one remote record precisely enough to re-fetch
// or annotate it: the canonical AT-URI plus the content identifier of
// the revision that was observed. Immutable once created.
type RemoteRef struct {
	// URI is the canonical AT-URI of the record
	// (e.g. at://did:plc:abc/app.bsky.feed.post/3l3qo2vuowo2b).
	URI string

	// CID is the content identifier of the record.
	CID string
}

// Post is the canonical display record one feed entry normalizes into.
// It is ephemeral: built per request and discarded after rendering.
type Post struct {
	// Handle is the short opaque identifier registered for this post in
	// the handle table. Callers use it to address the post in follow-up
	// interactions.
	Handle string

	// Author is the posting account's handle (e.g. alice.bsky.social).
	Author string

	// Body is the post text after display substitutions.
	Body string

	// Media is the post's single attachment, nil when it has none.
	Media *Media

	Replies int64
	Reposts int64
	Likes   int64

	// Context explains why the entry appeared (repost, reply, or none).
	Context PostContext
}

// MediaKind discriminates the Media variants.
type MediaKind int

const (
	MediaImage MediaKind = iota + 1
	MediaExternal
	MediaQuote
	MediaVideo
)

// Media is a post's attachment. Exactly one of the variant fields
// matching Kind is populated; Video carries no payload.
type Media struct {
	Kind     MediaKind
	Image    *ImageMedia
	External *ExternalMedia
	Quote    *QuoteMedia
}

func (m *Media) IsImage() bool    { return m.Kind == MediaImage }
func (m *Media) IsExternal() bool { return m.Kind == MediaExternal }
func (m *Media) IsQuote() bool    { return m.Kind == MediaQuote }
func (m *Media) IsVideo() bool    { return m.Kind == MediaVideo }

// ImageMedia is a single image attachment. Galleries are collapsed to
// their first image.
type ImageMedia struct {
	URL string
	Alt string
}

// ExternalMedia is a link-card attachment.
type ExternalMedia struct {
	URL         string
	Description string
}

// QuoteMedia is a one-level summary of a quoted post.
type QuoteMedia struct {
	Author string
	Body   string
}

// ContextKind discriminates the PostContext variants.
type ContextKind int

const (
	ContextNone ContextKind = iota
	ContextRepost
	ContextReply
)

// PostContext says why a feed entry surfaced: because Actor reposted
// it, because it replies to a post by Actor, or neither.
type PostContext struct {
	Kind  ContextKind
	Actor string
}

func (c PostContext) IsRepost() bool { return c.Kind == ContextRepost }
func (c PostContext) IsReply() bool  { return c.Kind == ContextReply }

// Profile is the canonical view of a remote account, assembled from
// profile metadata plus the account's own recent posts.
type Profile struct {
	// Identifier is the account's handle.
	Identifier string

	// DisplayName falls back to the identifier when the account has not
	// set one.
	DisplayName string

	Bio       string
	Followers int64
	Follows   int64

	// IsFollowing reports whether the viewing account follows this one.
	IsFollowing bool

	Posts []Post
}
