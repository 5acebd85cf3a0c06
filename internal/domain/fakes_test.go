package domain

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"

	"github.com/joverton/gemsky/internal/atproto"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// fakeStore derives readable handles so assertions stay legible.
type fakeStore struct {
	mu   sync.Mutex
	refs map[string]RemoteRef
}

func newFakeStore() *fakeStore {
	return &fakeStore{refs: make(map[string]RemoteRef)}
}

func (s *fakeStore) Put(ref RemoteRef) string {
	handle := "h-" + ref.URI[strings.LastIndexByte(ref.URI, '/')+1:]
	s.mu.Lock()
	s.refs[handle] = ref
	s.mu.Unlock()
	return handle
}

func (s *fakeStore) Get(handle string) (RemoteRef, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.refs[handle]
	return ref, ok
}

type createdRecord struct {
	collection string
	record     any
}

type deletedRecord struct {
	collection string
	rkey       string
}

// fakeClient implements Client in memory. Create and delete calls for
// like, repost and follow records update the viewer state on the
// corresponding post or profile, so toggle sequences observe their own
// writes the way they would against the real service.
type fakeClient struct {
	loginErr    error
	did         string
	timeline    []atproto.FeedViewPost
	timelineErr error
	authorFeeds map[string][]atproto.FeedViewPost
	profiles    map[string]*atproto.ProfileDetailed
	posts       map[string]*atproto.PostView
	records     map[string]*atproto.Record

	created []createdRecord
	deleted []deletedRecord
	nextKey int
}

func (c *fakeClient) Login(ctx context.Context, identifier, password string) error {
	return c.loginErr
}

func (c *fakeClient) DID() string { return c.did }

func (c *fakeClient) GetTimeline(ctx context.Context, limit int) ([]atproto.FeedViewPost, error) {
	if c.timelineErr != nil {
		return nil, c.timelineErr
	}
	if limit < len(c.timeline) {
		return c.timeline[:limit], nil
	}
	return c.timeline, nil
}

func (c *fakeClient) GetAuthorFeed(ctx context.Context, actor string, limit int) ([]atproto.FeedViewPost, error) {
	return c.authorFeeds[actor], nil
}

func (c *fakeClient) GetProfile(ctx context.Context, actor string) (*atproto.ProfileDetailed, error) {
	profile, ok := c.profiles[actor]
	if !ok {
		return nil, fmt.Errorf("unknown actor %s", actor)
	}
	return profile, nil
}

func (c *fakeClient) GetPost(ctx context.Context, uri string) (*atproto.PostView, error) {
	post, ok := c.posts[uri]
	if !ok {
		return nil, fmt.Errorf("unknown post %s", uri)
	}
	return post, nil
}

func (c *fakeClient) GetRecord(ctx context.Context, uri string) (*atproto.Record, error) {
	record, ok := c.records[uri]
	if !ok {
		return nil, fmt.Errorf("unknown record %s", uri)
	}
	return record, nil
}

func (c *fakeClient) CreateRecord(ctx context.Context, collection string, record any) (*atproto.StrongRef, error) {
	c.created = append(c.created, createdRecord{collection: collection, record: record})
	c.nextKey++
	uri := fmt.Sprintf("at://%s/%s/k%d", c.did, collection, c.nextKey)

	switch rec := record.(type) {
	case atproto.SubjectRecord:
		if post, ok := c.posts[rec.Subject.URI]; ok {
			if post.Viewer == nil {
				post.Viewer = &atproto.ViewerState{}
			}
			switch collection {
			case atproto.CollectionLike:
				post.Viewer.Like = uri
			case atproto.CollectionRepost:
				post.Viewer.Repost = uri
			}
		}
	case atproto.FollowRecord:
		for _, profile := range c.profiles {
			if profile.DID == rec.Subject {
				if profile.Viewer == nil {
					profile.Viewer = &atproto.ProfileViewer{}
				}
				profile.Viewer.Following = uri
			}
		}
	}

	return &atproto.StrongRef{URI: uri, CID: "fakecid"}, nil
}

func (c *fakeClient) DeleteRecord(ctx context.Context, collection, rkey string) error {
	c.deleted = append(c.deleted, deletedRecord{collection: collection, rkey: rkey})
	suffix := "/" + collection + "/" + rkey

	for _, post := range c.posts {
		if post.Viewer == nil {
			continue
		}
		switch collection {
		case atproto.CollectionLike:
			if strings.HasSuffix(post.Viewer.Like, suffix) {
				post.Viewer.Like = ""
			}
		case atproto.CollectionRepost:
			if strings.HasSuffix(post.Viewer.Repost, suffix) {
				post.Viewer.Repost = ""
			}
		}
	}
	if collection == atproto.CollectionFollow {
		for _, profile := range c.profiles {
			if profile.Viewer != nil && strings.HasSuffix(profile.Viewer.Following, suffix) {
				profile.Viewer.Following = ""
			}
		}
	}
	return nil
}
