package gemini

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func request(rawURL string) *Request {
	u, _ := url.Parse(rawURL)
	return &Request{URL: u}
}

func TestMuxLongestPatternWins(t *testing.T) {
	mux := NewMux()
	mux.HandleFunc("/", func(ctx context.Context, req *Request) *Response {
		return Gemtext("root")
	})
	mux.HandleFunc("/p/", func(ctx context.Context, req *Request) *Response {
		return Gemtext("post")
	})
	mux.HandleFunc("/post", func(ctx context.Context, req *Request) *Response {
		return Gemtext("new post")
	})

	tests := []struct {
		path string
		body string
	}{
		{"gemini://host/", "root"},
		{"gemini://host/anything", "root"},
		{"gemini://host/p/abc123", "post"},
		{"gemini://host/p/abc123/like", "post"},
		{"gemini://host/post", "new post"},
	}

	for _, tt := range tests {
		resp := mux.ServeGemini(context.Background(), request(tt.path))
		require.Equal(t, StatusSuccess, resp.Status, tt.path)
		assert.Equal(t, tt.body, string(resp.Body), tt.path)
	}
}

func TestMuxNotFound(t *testing.T) {
	mux := NewMux()
	mux.HandleFunc("/p/", func(ctx context.Context, req *Request) *Response {
		return Gemtext("post")
	})

	resp := mux.ServeGemini(context.Background(), request("gemini://host/u/alice"))
	assert.Equal(t, StatusNotFound, resp.Status)
}

func TestParseRequestLine(t *testing.T) {
	u, err := ParseRequestLine("gemini://localhost/p/abc123?hello%20there")
	require.NoError(t, err)
	assert.Equal(t, "/p/abc123", u.Path)
	assert.Equal(t, "hello%20there", u.RawQuery)
}

func TestParseRequestLineRejectsOtherSchemes(t *testing.T) {
	_, err := ParseRequestLine("https://example.com/")
	assert.Error(t, err)
}

func TestRequestInputDecodes(t *testing.T) {
	req := request("gemini://host/post?Great%20%23news")
	assert.Equal(t, "Great #news", req.Input())
}

func TestRequestInputEmpty(t *testing.T) {
	req := request("gemini://host/post")
	assert.Empty(t, req.Input())
}
