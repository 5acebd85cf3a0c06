package atproto

import "encoding/json"

// Record collection NSIDs used by the gateway.
const (
	CollectionPost   = "app.bsky.feed.post"
	CollectionLike   = "app.bsky.feed.like"
	CollectionRepost = "app.bsky.feed.repost"
	CollectionFollow = "app.bsky.graph.follow"
)

// Embed view $type tags. Anything else is treated as "no media".
const (
	EmbedImagesView   = "app.bsky.embed.images#view"
	EmbedExternalView = "app.bsky.embed.external#view"
	EmbedRecordView   = "app.bsky.embed.record#view"
	EmbedVideoView    = "app.bsky.embed.video#view"

	// ViewRecord is the $type of a resolvable quoted record inside a
	// record embed. Blocked or deleted quotes carry a different tag.
	ViewRecord = "app.bsky.embed.record#viewRecord"

	// ReasonRepost marks a timeline entry that appears because someone
	// the viewer follows reposted it.
	ReasonRepost = "app.bsky.feed.defs#reasonRepost"
)

// StrongRef is a precise reference to a single record: its AT-URI plus
// the content identifier of the exact revision.
type StrongRef struct {
	URI string `json:"uri"`
	CID string `json:"cid"`
}

// FeedViewPost is one entry in a timeline or author feed response.
type FeedViewPost struct {
	Post   PostView   `json:"post"`
	Reply  *ReplyView `json:"reply,omitempty"`
	Reason *Reason    `json:"reason,omitempty"`
}

// ReplyView carries the surrounding thread context of a feed entry.
type ReplyView struct {
	Root   *PostView `json:"root,omitempty"`
	Parent *PostView `json:"parent,omitempty"`
}

// Reason explains why an entry is in the feed (currently only reposts).
type Reason struct {
	Type string        `json:"$type"`
	By   *ProfileBasic `json:"by,omitempty"`
}

// PostView is the appview's hydrated representation of a single post,
// including aggregate counts and the caller's own viewer state.
type PostView struct {
	URI         string          `json:"uri"`
	CID         string          `json:"cid"`
	Author      ProfileBasic    `json:"author"`
	Record      json.RawMessage `json:"record"`
	Embed       *EmbedView      `json:"embed,omitempty"`
	ReplyCount  int64           `json:"replyCount"`
	RepostCount int64           `json:"repostCount"`
	LikeCount   int64           `json:"likeCount"`
	Viewer      *ViewerState    `json:"viewer,omitempty"`
}

// ViewerState describes the authenticated account's own relationship to
// a post. Like and Repost hold the AT-URIs of this account's annotation
// records when set, which is what makes un-like and un-repost possible.
type ViewerState struct {
	Like   string `json:"like,omitempty"`
	Repost string `json:"repost,omitempty"`
}

// ProfileBasic is the compact author card attached to posts.
type ProfileBasic struct {
	DID         string `json:"did"`
	Handle      string `json:"handle"`
	DisplayName string `json:"displayName,omitempty"`
}

// ProfileDetailed is the full profile response from getProfile.
type ProfileDetailed struct {
	DID            string         `json:"did"`
	Handle         string         `json:"handle"`
	DisplayName    string         `json:"displayName,omitempty"`
	Description    string         `json:"description,omitempty"`
	FollowersCount int64          `json:"followersCount"`
	FollowsCount   int64          `json:"followsCount"`
	Viewer         *ProfileViewer `json:"viewer,omitempty"`
}

// ProfileViewer describes the authenticated account's relationship to a
// profile. Following holds the AT-URI of this account's follow record
// when set.
type ProfileViewer struct {
	Following string `json:"following,omitempty"`
}

// EmbedView is the tagged union of embed variants attached to a post
// view. Only the fields matching Type are populated; consumers switch
// on Type and must tolerate tags they do not recognize.
type EmbedView struct {
	Type     string        `json:"$type"`
	Images   []ImageView   `json:"images,omitempty"`
	External *ExternalView `json:"external,omitempty"`
	Record   *RecordView   `json:"record,omitempty"`
}

// ImageView is one image in an image embed.
type ImageView struct {
	Thumb    string `json:"thumb,omitempty"`
	Fullsize string `json:"fullsize,omitempty"`
	Alt      string `json:"alt,omitempty"`
}

// ExternalView is a link-card embed.
type ExternalView struct {
	URI         string `json:"uri"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
}

// RecordView is the quoted record inside a record embed. Value is the
// quoted post's untyped record payload; it is absent when the quote is
// blocked or deleted (Type is then not ViewRecord).
type RecordView struct {
	Type   string          `json:"$type"`
	URI    string          `json:"uri,omitempty"`
	CID    string          `json:"cid,omitempty"`
	Author ProfileBasic    `json:"author,omitempty"`
	Value  json.RawMessage `json:"value,omitempty"`
}

// Record is a raw repo record fetched via getRecord.
type Record struct {
	URI   string          `json:"uri"`
	CID   string          `json:"cid"`
	Value json.RawMessage `json:"value"`
}

// PostRecord is the app.bsky.feed.post lexicon record. It doubles as
// the write payload for new posts and replies.
type PostRecord struct {
	Type      string    `json:"$type"`
	Text      string    `json:"text"`
	Reply     *ReplyRef `json:"reply,omitempty"`
	CreatedAt string    `json:"createdAt"`
}

// ReplyRef names the parent a reply answers and the root of its thread.
type ReplyRef struct {
	Root   StrongRef `json:"root"`
	Parent StrongRef `json:"parent"`
}

// SubjectRecord is the shared shape of like and repost records: an
// annotation whose subject is another record. The $type distinguishes
// the two.
type SubjectRecord struct {
	Type      string    `json:"$type"`
	Subject   StrongRef `json:"subject"`
	CreatedAt string    `json:"createdAt"`
}

// FollowRecord is an app.bsky.graph.follow record; the subject is the
// followed account's DID.
type FollowRecord struct {
	Type      string `json:"$type"`
	Subject   string `json:"subject"`
	CreatedAt string `json:"createdAt"`
}

// DecodePostRecord decodes an untyped record payload as a post record.
// It reports false when the payload is empty, does not parse, or is not
// tagged as a post; callers fall back rather than failing the feed.
func DecodePostRecord(raw json.RawMessage) (PostRecord, bool) {
	if len(raw) == 0 {
		return PostRecord{}, false
	}
	var rec PostRecord
	if err := json.Unmarshal(raw, &rec); err != nil {
		return PostRecord{}, false
	}
	if rec.Type != CollectionPost {
		return PostRecord{}, false
	}
	return rec, true
}

// RecordText extracts the plain post text from an untyped record
// payload, returning the empty string when the payload does not decode
// as a post record.
func RecordText(raw json.RawMessage) string {
	rec, ok := DecodePostRecord(raw)
	if !ok {
		return ""
	}
	return rec.Text
}
