package domain

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/joverton/gemsky/internal/atproto"
)

// normalizeParallelism bounds the per-entry fan-out during feed
// normalization so a large page does not pile up on the handle table
// lock all at once.
const normalizeParallelism = 8

// Normalizer converts raw feed entries into canonical posts,
// registering each post's reference in the shared handle table as a
// side effect.
type Normalizer struct {
	handles HandleStore
}

// NewNormalizer creates a Normalizer backed by the given handle table.
func NewNormalizer(handles HandleStore) *Normalizer {
	return &Normalizer{handles: handles}
}

// Feed normalizes a page of feed entries. Entries are independent, so
// they are normalized concurrently; the result preserves the remote
// API's entry order regardless of completion order.
func (n *Normalizer) Feed(ctx context.Context, entries []atproto.FeedViewPost) ([]Post, error) {
	posts := make([]Post, len(entries))

	var g errgroup.Group
	g.SetLimit(normalizeParallelism)
	for i, entry := range entries {
		i, entry := i, entry
		g.Go(func() error {
			posts[i] = n.Entry(entry)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return posts, nil
}

// Entry normalizes one raw feed entry into a canonical Post.
func (n *Normalizer) Entry(entry atproto.FeedViewPost) Post {
	handle := n.handles.Put(RemoteRef{
		URI: entry.Post.URI,
		CID: entry.Post.CID,
	})

	return Post{
		Handle:  handle,
		Author:  entry.Post.Author.Handle,
		Body:    displayText(atproto.RecordText(entry.Post.Record)),
		Media:   mediaFromEmbed(entry.Post.Embed),
		Replies: entry.Post.ReplyCount,
		Reposts: entry.Post.RepostCount,
		Likes:   entry.Post.LikeCount,
		Context: contextOf(entry),
	}
}

// displayText applies the one display substitution the rendered format
// needs: a literal "#" would read as a heading line, so it becomes the
// musical sharp.
func displayText(s string) string {
	return strings.ReplaceAll(s, "#", "♯")
}

// contextOf derives the entry's context. A repost reason wins over
// reply context when both are present.
func contextOf(entry atproto.FeedViewPost) PostContext {
	if entry.Reason != nil && entry.Reason.Type == atproto.ReasonRepost && entry.Reason.By != nil {
		return PostContext{Kind: ContextRepost, Actor: entry.Reason.By.Handle}
	}
	if entry.Reply != nil && entry.Reply.Parent != nil {
		return PostContext{Kind: ContextReply, Actor: entry.Reply.Parent.Author.Handle}
	}
	return PostContext{}
}

// mediaFromEmbed maps an embed view onto the canonical Media variants.
// Unrecognized or partially-populated embeds yield no media rather than
// an error.
func mediaFromEmbed(embed *atproto.EmbedView) *Media {
	if embed == nil {
		return nil
	}

	switch embed.Type {
	case atproto.EmbedImagesView:
		if len(embed.Images) == 0 {
			return nil
		}
		img := embed.Images[0]
		return &Media{Kind: MediaImage, Image: &ImageMedia{
			URL: img.Fullsize,
			Alt: imageAlt(img.Alt),
		}}

	case atproto.EmbedExternalView:
		if embed.External == nil {
			return nil
		}
		desc := embed.External.Title
		if desc == "" {
			desc = embed.External.Description
		}
		return &Media{Kind: MediaExternal, External: &ExternalMedia{
			URL:         embed.External.URI,
			Description: desc,
		}}

	case atproto.EmbedRecordView:
		return quoteMedia(embed.Record)

	case atproto.EmbedVideoView:
		return &Media{Kind: MediaVideo}

	default:
		return nil
	}
}

// quoteMedia summarizes a quoted record one level deep, using the same
// defensive text extraction as top-level posts. Blocked or deleted
// quotes yield no media.
func quoteMedia(rec *atproto.RecordView) *Media {
	if rec == nil || rec.Type != atproto.ViewRecord {
		return nil
	}
	return &Media{Kind: MediaQuote, Quote: &QuoteMedia{
		Author: rec.Author.Handle,
		Body:   displayText(atproto.RecordText(rec.Value)),
	}}
}

// imageAlt normalizes image alt text for single-line rendering: empty
// alt text becomes "Photo", embedded newlines become spaces.
func imageAlt(alt string) string {
	if alt == "" {
		return "Photo"
	}
	return strings.ReplaceAll(alt, "\n", " ")
}
