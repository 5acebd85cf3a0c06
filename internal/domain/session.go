package domain

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/joverton/gemsky/internal/atproto"
)

// Session owns one authenticated remote client for one configured
// account and shares (does not own) the process-wide handle table. It
// is created once at startup and lives for the process lifetime; all
// methods are safe for concurrent use across in-flight requests.
type Session struct {
	client     Client
	handles    HandleStore
	norm       *Normalizer
	identifier string
	pageSize   int
	logger     *slog.Logger
}

// Authenticate performs the remote login handshake for one account and
// returns a ready session. A rejected login surfaces as *AuthError.
func Authenticate(ctx context.Context, client Client, identifier, password string, handles HandleStore, pageSize int, logger *slog.Logger) (*Session, error) {
	if err := client.Login(ctx, identifier, password); err != nil {
		return nil, &AuthError{Identifier: identifier, Err: err}
	}

	return &Session{
		client:     client,
		handles:    handles,
		norm:       NewNormalizer(handles),
		identifier: identifier,
		pageSize:   pageSize,
		logger:     logger,
	}, nil
}

// Identifier returns the account handle this session acts as.
func (s *Session) Identifier() string {
	return s.identifier
}

// FetchFeed requests one page of the account's home timeline and
// normalizes every entry, registering their handles.
func (s *Session) FetchFeed(ctx context.Context) ([]Post, error) {
	entries, err := s.client.GetTimeline(ctx, s.pageSize)
	if err != nil {
		return nil, &RemoteError{Op: "get timeline", Err: err}
	}
	return s.norm.Feed(ctx, entries)
}

// FetchProfile assembles the canonical profile for an actor. Profile
// metadata and the actor's own feed are independent remote calls, so
// they are fetched concurrently.
func (s *Session) FetchProfile(ctx context.Context, actor string) (*Profile, error) {
	var (
		prof    *atproto.ProfileDetailed
		entries []atproto.FeedViewPost
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.client.GetProfile(gctx, actor)
		prof = p
		return err
	})
	g.Go(func() error {
		e, err := s.client.GetAuthorFeed(gctx, actor, s.pageSize)
		entries = e
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, &RemoteError{Op: "get profile", Err: err}
	}

	posts, err := s.norm.Feed(ctx, entries)
	if err != nil {
		return nil, err
	}

	displayName := prof.DisplayName
	if displayName == "" {
		displayName = prof.Handle
	}

	return &Profile{
		Identifier:  prof.Handle,
		DisplayName: displayName,
		Bio:         prof.Description,
		Followers:   prof.FollowersCount,
		Follows:     prof.FollowsCount,
		IsFollowing: prof.Viewer != nil && prof.Viewer.Following != "",
		Posts:       posts,
	}, nil
}

// ToggleFollow follows the target account if this account does not
// already follow it, and unfollows it otherwise. The current state is
// read fresh from the remote API; see the toggle note on toggleSubject
// for the race this implies.
func (s *Session) ToggleFollow(ctx context.Context, actor string) error {
	prof, err := s.client.GetProfile(ctx, actor)
	if err != nil {
		return &RemoteError{Op: "get profile", Err: err}
	}

	if prof.Viewer != nil && prof.Viewer.Following != "" {
		if err := s.client.DeleteRecord(ctx, atproto.CollectionFollow, recordKey(prof.Viewer.Following)); err != nil {
			return &RemoteError{Op: "delete follow", Err: err}
		}
		s.logger.Info("unfollowed", "account", s.identifier, "target", actor)
		return nil
	}

	record := atproto.FollowRecord{
		Type:      atproto.CollectionFollow,
		Subject:   prof.DID,
		CreatedAt: nowISO(),
	}
	if _, err := s.client.CreateRecord(ctx, atproto.CollectionFollow, record); err != nil {
		return &RemoteError{Op: "create follow", Err: err}
	}
	s.logger.Info("followed", "account", s.identifier, "target", actor)
	return nil
}

// ToggleLike likes the post behind handle, or removes this account's
// existing like of it.
func (s *Session) ToggleLike(ctx context.Context, handle string) error {
	return s.toggleSubject(ctx, handle, atproto.CollectionLike)
}

// ToggleRepost reposts the post behind handle, or retracts this
// account's existing repost of it.
func (s *Session) ToggleRepost(ctx context.Context, handle string) error {
	return s.toggleSubject(ctx, handle, atproto.CollectionRepost)
}

// toggleSubject implements the shared like/repost state machine: read
// the post's current viewer state, then either delete the existing
// annotation record or create a new one. The read and the write are two
// remote round trips with no compare-and-swap, so concurrent toggles of
// the same post can observe stale state and land on the wrong side; the
// remote API offers nothing stronger, and process-local locking would
// not cover the same account acting from elsewhere.
func (s *Session) toggleSubject(ctx context.Context, handle, collection string) error {
	ref, ok := s.handles.Get(handle)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}

	post, err := s.client.GetPost(ctx, ref.URI)
	if err != nil {
		return &RemoteError{Op: "get post", Err: err}
	}

	var existing string
	if post.Viewer != nil {
		switch collection {
		case atproto.CollectionLike:
			existing = post.Viewer.Like
		case atproto.CollectionRepost:
			existing = post.Viewer.Repost
		}
	}

	if existing != "" {
		if err := s.client.DeleteRecord(ctx, collection, recordKey(existing)); err != nil {
			return &RemoteError{Op: "delete " + collection, Err: err}
		}
		s.logger.Info("annotation removed", "account", s.identifier, "collection", collection, "subject", ref.URI)
		return nil
	}

	record := atproto.SubjectRecord{
		Type:      collection,
		Subject:   atproto.StrongRef{URI: ref.URI, CID: ref.CID},
		CreatedAt: nowISO(),
	}
	if _, err := s.client.CreateRecord(ctx, collection, record); err != nil {
		return &RemoteError{Op: "create " + collection, Err: err}
	}
	s.logger.Info("annotation created", "account", s.identifier, "collection", collection, "subject", ref.URI)
	return nil
}

// Reply creates a reply to the post behind handle. The thread root is
// taken from the parent's own reply relationship when it has one;
// otherwise the parent is the root.
func (s *Session) Reply(ctx context.Context, handle, text string) error {
	ref, ok := s.handles.Get(handle)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownHandle, handle)
	}

	parentRecord, err := s.client.GetRecord(ctx, ref.URI)
	if err != nil {
		return &RemoteError{Op: "get record", Err: err}
	}

	parentPost, ok := atproto.DecodePostRecord(parentRecord.Value)
	if !ok {
		return fmt.Errorf("%w: %s", ErrThreadResolution, ref.URI)
	}

	parent := atproto.StrongRef{URI: ref.URI, CID: ref.CID}
	root := parent
	if parentPost.Reply != nil {
		root = parentPost.Reply.Root
	}

	record := atproto.PostRecord{
		Type:      atproto.CollectionPost,
		Text:      text,
		Reply:     &atproto.ReplyRef{Root: root, Parent: parent},
		CreatedAt: nowISO(),
	}
	if _, err := s.client.CreateRecord(ctx, atproto.CollectionPost, record); err != nil {
		return &RemoteError{Op: "create reply", Err: err}
	}
	s.logger.Info("reply created", "account", s.identifier, "parent", ref.URI)
	return nil
}

// Post creates a new top-level post. Only the text is populated; rich
// content (media, facets, language tags) is out of scope.
func (s *Session) Post(ctx context.Context, text string) error {
	record := atproto.PostRecord{
		Type:      atproto.CollectionPost,
		Text:      text,
		CreatedAt: nowISO(),
	}
	if _, err := s.client.CreateRecord(ctx, atproto.CollectionPost, record); err != nil {
		return &RemoteError{Op: "create post", Err: err}
	}
	s.logger.Info("post created", "account", s.identifier)
	return nil
}

// recordKey extracts the record key from the trailing path segment of
// an AT-URI.
func recordKey(uri string) string {
	return uri[strings.LastIndexByte(uri, '/')+1:]
}

func nowISO() string {
	return time.Now().UTC().Format(time.RFC3339)
}
