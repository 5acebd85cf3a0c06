// Package views renders the gateway's gemtext pages and maps Gemini
// routes onto session operations.
package views

import (
	"bytes"
	"context"
	"embed"
	"errors"
	"log/slog"
	"strings"
	"text/template"

	"github.com/joverton/gemsky/internal/domain"
	"github.com/joverton/gemsky/internal/gemini"
)

//go:embed templates/*.gmi
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.gmi"))

// Views holds the route handlers. All state lives in the registry; the
// handlers themselves are stateless and safe for concurrent use.
type Views struct {
	registry *domain.Registry
	logger   *slog.Logger
}

// NewHandler builds the gateway's route table.
func NewHandler(registry *domain.Registry, logger *slog.Logger) gemini.Handler {
	v := &Views{registry: registry, logger: logger}

	mux := gemini.NewMux()
	mux.HandleFunc("/", v.feed)
	mux.HandleFunc("/post", v.newPost)
	mux.HandleFunc("/p/", v.postAction)
	mux.HandleFunc("/u/", v.profile)
	return mux
}

type feedData struct {
	Account string
	Posts   []domain.Post
}

type welcomeData struct {
	Fingerprint string
}

type menuData struct {
	Handle string
}

// feed renders the caller's home timeline, or the welcome page for
// anonymous callers. A remote failure degrades to an empty feed rather
// than failing the request.
func (v *Views) feed(ctx context.Context, req *gemini.Request) *gemini.Response {
	session, ok := v.registry.Resolve(req.Fingerprint)
	if !ok {
		return v.render("welcome.gmi", welcomeData{Fingerprint: req.Fingerprint})
	}

	posts, err := session.FetchFeed(ctx)
	if err != nil {
		v.logger.Error("feed fetch failed", "account", session.Identifier(), "error", err)
		posts = nil
	}

	return v.render("feed.gmi", feedData{Account: session.Identifier(), Posts: posts})
}

// newPost prompts for text and creates a top-level post.
func (v *Views) newPost(ctx context.Context, req *gemini.Request) *gemini.Response {
	session, resp := v.authenticated(req)
	if resp != nil {
		return resp
	}

	text := req.Input()
	if text == "" {
		return gemini.Input("New post text")
	}

	return v.actionResult("post", session.Post(ctx, text))
}

// postAction handles /p/{handle} and its like/repost/reply subpaths.
func (v *Views) postAction(ctx context.Context, req *gemini.Request) *gemini.Response {
	parts := strings.Split(strings.TrimPrefix(req.URL.Path, "/p/"), "/")
	handle := parts[0]
	if handle == "" {
		return gemini.NotFound("no such page")
	}

	if len(parts) == 1 {
		return v.render("menu.gmi", menuData{Handle: handle})
	}

	session, resp := v.authenticated(req)
	if resp != nil {
		return resp
	}

	switch parts[1] {
	case "like":
		return v.actionResult("like", session.ToggleLike(ctx, handle))
	case "repost":
		return v.actionResult("repost", session.ToggleRepost(ctx, handle))
	case "reply":
		text := req.Input()
		if text == "" {
			return gemini.Input("Reply text")
		}
		return v.actionResult("reply", session.Reply(ctx, handle, text))
	default:
		return gemini.NotFound("no such action")
	}
}

// profile handles /u/{actor} and /u/{actor}/follow.
func (v *Views) profile(ctx context.Context, req *gemini.Request) *gemini.Response {
	parts := strings.Split(strings.TrimPrefix(req.URL.Path, "/u/"), "/")
	actor := parts[0]
	if actor == "" {
		return gemini.NotFound("no such page")
	}

	session, resp := v.authenticated(req)
	if resp != nil {
		return resp
	}

	if len(parts) > 1 {
		if parts[1] != "follow" {
			return gemini.NotFound("no such action")
		}
		return v.actionResult("follow", session.ToggleFollow(ctx, actor))
	}

	profile, err := session.FetchProfile(ctx, actor)
	if err != nil {
		v.logger.Error("profile fetch failed", "actor", actor, "error", err)
		return gemini.Failure("profile unavailable")
	}
	return v.render("profile.gmi", profile)
}

// authenticated resolves the caller's session, or returns the response
// that turns them away: a certificate request when none was presented,
// the welcome page when the certificate maps to no configured account.
func (v *Views) authenticated(req *gemini.Request) (*domain.Session, *gemini.Response) {
	if req.Fingerprint == "" {
		return nil, gemini.CertRequired("a client certificate is required")
	}
	session, ok := v.registry.Resolve(req.Fingerprint)
	if !ok {
		return nil, v.render("welcome.gmi", welcomeData{Fingerprint: req.Fingerprint})
	}
	return session, nil
}

// actionResult maps a mutation outcome onto a response: success
// redirects back to the timeline, a stale handle reads as gone, and
// anything else reports a distinct failure.
func (v *Views) actionResult(action string, err error) *gemini.Response {
	if err == nil {
		return gemini.Redirect("/")
	}

	v.logger.Error("action failed", "action", action, "error", err)

	if errors.Is(err, domain.ErrUnknownHandle) {
		return gemini.NotFound("that post is no longer available")
	}
	return gemini.Failure(action + " failed")
}

func (v *Views) render(name string, data any) *gemini.Response {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		v.logger.Error("template render failed", "template", name, "error", err)
		return gemini.Failure("internal error")
	}
	return gemini.Gemtext(buf.String())
}
