package gws

import (
	"context"
	"fmt"
	"sync"
	"time"

	docs "google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/gwsynth/gwsynth/pkg/content"
	"github.com/gwsynth/gwsynth/pkg/engine"
)

// DocsViews implements engine.DocsProvider. One Docs service is built
// per impersonated user and cached.
type DocsViews struct {
	client *Client
	ctx    context.Context

	mu    sync.Mutex
	views map[string]*DocsView
}

// Docs builds the docs provider. ctx must outlive the provider.
func (c *Client) Docs(ctx context.Context) *DocsViews {
	return &DocsViews{client: c, ctx: ctx, views: make(map[string]*DocsView)}
}

// ForUser implements engine.DocsProvider.
func (p *DocsViews) ForUser(email string) engine.Docs {
	p.mu.Lock()
	defer p.mu.Unlock()
	if view, ok := p.views[email]; ok {
		return view
	}
	view := &DocsView{provider: p, subject: email}
	p.views[email] = view
	return view
}

// DocsView writes document bodies as one impersonated user.
type DocsView struct {
	provider *DocsViews
	subject  string

	once    sync.Once
	svc     *docs.Service
	initErr error
}

func (v *DocsView) service() (*docs.Service, error) {
	v.once.Do(func() {
		client := v.provider.client
		src, err := client.tokenSource(v.provider.ctx, v.subject, userScopes)
		if err != nil {
			v.initErr = err
			return
		}
		svc, err := docs.NewService(v.provider.ctx, option.WithTokenSource(src))
		if err != nil {
			v.initErr = fmt.Errorf("creating docs service for %s: %w", v.subject, err)
			return
		}
		v.svc = svc
	})
	return v.svc, v.initErr
}

// ApplyContent implements engine.Docs. The rendered text is inserted in
// one request, then named styles and bullet presets are applied to
// their ranges.
func (v *DocsView) ApplyContent(ctx context.Context, documentID string, rendered content.Rendered) error {
	svc, err := v.service()
	if err != nil {
		return err
	}
	start := time.Now()
	_, err = svc.Documents.BatchUpdate(documentID, &docs.BatchUpdateDocumentRequest{
		Requests: contentRequests(rendered),
	}).Context(ctx).Do()
	v.provider.client.observe("docs", "documents.batchUpdate", start, err)
	if err != nil {
		return fmt.Errorf("writing document %s: %w", documentID, err)
	}
	return nil
}

func contentRequests(rendered content.Rendered) []*docs.Request {
	requests := []*docs.Request{{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: 1},
			Text:     rendered.Text,
		},
	}}
	for _, r := range rendered.StyleRanges {
		requests = append(requests, &docs.Request{
			UpdateParagraphStyle: &docs.UpdateParagraphStyleRequest{
				Range:          &docs.Range{StartIndex: int64(r.Start), EndIndex: int64(r.End)},
				ParagraphStyle: &docs.ParagraphStyle{NamedStyleType: r.Style},
				Fields:         "namedStyleType",
			},
		})
	}
	for _, r := range rendered.BulletRanges {
		requests = append(requests, &docs.Request{
			CreateParagraphBullets: &docs.CreateParagraphBulletsRequest{
				Range:        &docs.Range{StartIndex: int64(r.Start), EndIndex: int64(r.End)},
				BulletPreset: "BULLET_DISC_CIRCLE_SQUARE",
			},
		})
	}
	return requests
}
