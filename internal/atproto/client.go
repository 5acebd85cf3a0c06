package atproto

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultPDS = "https://bsky.social"

// Client is a minimal AT Protocol XRPC client covering the calls the
// gateway needs: session creation, feed and profile reads, and record
// create/delete for posts, likes, reposts and follows.
type Client struct {
	pds        string
	httpClient *http.Client

	// populated after Login
	accessJwt string
	did       string
}

// NewClient creates a new client for the given PDS. If pds is empty, it
// defaults to https://bsky.social.
func NewClient(pds string) *Client {
	if pds == "" {
		pds = defaultPDS
	}
	return &Client{
		pds: pds,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Login authenticates with the PDS and stores the session token. Use an
// App Password, not the account password.
func (c *Client) Login(ctx context.Context, identifier, password string) error {
	body := map[string]string{
		"identifier": identifier,
		"password":   password,
	}

	var resp createSessionResponse
	if err := c.post(ctx, "/xrpc/com.atproto.server.createSession", body, &resp); err != nil {
		return fmt.Errorf("create session: %w", err)
	}

	c.accessJwt = resp.AccessJwt
	c.did = resp.DID
	return nil
}

// DID returns the authenticated account's DID. Only valid after Login.
func (c *Client) DID() string {
	return c.did
}

// GetTimeline fetches the authenticated account's home timeline.
func (c *Client) GetTimeline(ctx context.Context, limit int) ([]FeedViewPost, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(limit))

	var resp feedResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getTimeline", params, &resp); err != nil {
		return nil, fmt.Errorf("get timeline: %w", err)
	}
	return resp.Feed, nil
}

// GetAuthorFeed fetches an account's own posts and reposts.
func (c *Client) GetAuthorFeed(ctx context.Context, actor string, limit int) ([]FeedViewPost, error) {
	params := url.Values{}
	params.Set("actor", actor)
	params.Set("limit", strconv.Itoa(limit))

	var resp feedResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getAuthorFeed", params, &resp); err != nil {
		return nil, fmt.Errorf("get author feed: %w", err)
	}
	return resp.Feed, nil
}

// GetProfile fetches profile metadata for an actor (handle or DID),
// including the authenticated account's viewer relationship.
func (c *Client) GetProfile(ctx context.Context, actor string) (*ProfileDetailed, error) {
	params := url.Values{}
	params.Set("actor", actor)

	var resp ProfileDetailed
	if err := c.get(ctx, "/xrpc/app.bsky.actor.getProfile", params, &resp); err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return &resp, nil
}

// GetPost fetches a single hydrated post view by AT-URI, including the
// authenticated account's viewer state for it.
func (c *Client) GetPost(ctx context.Context, uri string) (*PostView, error) {
	params := url.Values{}
	params.Set("uris", uri)

	var resp postsResponse
	if err := c.get(ctx, "/xrpc/app.bsky.feed.getPosts", params, &resp); err != nil {
		return nil, fmt.Errorf("get post: %w", err)
	}
	if len(resp.Posts) == 0 {
		return nil, fmt.Errorf("get post: %s not found", uri)
	}
	return &resp.Posts[0], nil
}

// GetRecord fetches the raw repo record behind an AT-URI, without
// appview hydration.
func (c *Client) GetRecord(ctx context.Context, uri string) (*Record, error) {
	repo, collection, rkey, err := ParseURI(uri)
	if err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}

	params := url.Values{}
	params.Set("repo", repo)
	params.Set("collection", collection)
	params.Set("rkey", rkey)

	var resp Record
	if err := c.get(ctx, "/xrpc/com.atproto.repo.getRecord", params, &resp); err != nil {
		return nil, fmt.Errorf("get record: %w", err)
	}
	return &resp, nil
}

// CreateRecord writes a new record into the authenticated account's
// repo and returns a reference to it.
func (c *Client) CreateRecord(ctx context.Context, collection string, record any) (*StrongRef, error) {
	if c.accessJwt == "" {
		return nil, fmt.Errorf("not authenticated: call Login first")
	}

	body := createRecordRequest{
		Repo:       c.did,
		Collection: collection,
		Record:     record,
	}

	var resp StrongRef
	if err := c.post(ctx, "/xrpc/com.atproto.repo.createRecord", body, &resp); err != nil {
		return nil, fmt.Errorf("create record: %w", err)
	}
	return &resp, nil
}

// DeleteRecord removes a record from the authenticated account's repo.
func (c *Client) DeleteRecord(ctx context.Context, collection, rkey string) error {
	if c.accessJwt == "" {
		return fmt.Errorf("not authenticated: call Login first")
	}

	body := deleteRecordRequest{
		Repo:       c.did,
		Collection: collection,
		RKey:       rkey,
	}

	var resp json.RawMessage
	if err := c.post(ctx, "/xrpc/com.atproto.repo.deleteRecord", body, &resp); err != nil {
		return fmt.Errorf("delete record: %w", err)
	}
	return nil
}

// ParseURI splits an AT-URI of the form at://repo/collection/rkey into
// its three components.
func ParseURI(uri string) (repo, collection, rkey string, err error) {
	rest, ok := strings.CutPrefix(uri, "at://")
	if !ok {
		return "", "", "", fmt.Errorf("not an at:// URI: %q", uri)
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", fmt.Errorf("malformed AT-URI: %q", uri)
	}
	return parts[0], parts[1], parts[2], nil
}

func (c *Client) get(ctx context.Context, path string, params url.Values, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.pds+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.pds+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.accessJwt != "" {
		req.Header.Set("Authorization", "Bearer "+c.accessJwt)
	}

	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("API error (status %d): %s", resp.StatusCode, string(respBody))
	}

	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}

	return nil
}

type createSessionResponse struct {
	AccessJwt string `json:"accessJwt"`
	DID       string `json:"did"`
	Handle    string `json:"handle"`
}

type feedResponse struct {
	Feed []FeedViewPost `json:"feed"`
}

type postsResponse struct {
	Posts []PostView `json:"posts"`
}

type createRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	Record     any    `json:"record"`
}

type deleteRecordRequest struct {
	Repo       string `json:"repo"`
	Collection string `json:"collection"`
	RKey       string `json:"rkey"`
}
