// Package content produces the reminder payload: a caption and a best-effort
// illustrative image reference.
package content

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// DefaultCaption is the text sent with every reminder.
const DefaultCaption = "💧 Hey hooman! Time to drink some water! Stay hydrated! 🐾"

// Notification is one ready-to-send reminder.
type Notification struct {
	ImageURL string
	Caption  string
}

// Options configures a Provider.
type Options struct {
	ImageURL    string        // upstream image endpoint
	FallbackURL string        // used when every attempt fails
	Attempts    int           // total fetch attempts, >= 1
	RetryDelay  time.Duration // fixed pause between attempts
	Timeout     time.Duration // per-attempt HTTP timeout
	Caption     string
}

// Provider fetches images from a flaky upstream with bounded retries.
type Provider struct {
	opts   Options
	client *http.Client
	log    *zap.Logger
	nonce  func() string
}

// New builds a Provider. A nil client gets a default one with opts.Timeout.
func New(opts Options, client *http.Client, log *zap.Logger) *Provider {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.Caption == "" {
		opts.Caption = DefaultCaption
	}
	if client == nil {
		client = &http.Client{Timeout: opts.Timeout}
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &Provider{
		opts:   opts,
		client: client,
		log:    log.Named("content"),
		nonce:  uuid.NewString,
	}
}

// Reminder pairs the caption with a freshly fetched image reference.
func (p *Provider) Reminder(ctx context.Context) Notification {
	return Notification{
		ImageURL: p.FetchImage(ctx),
		Caption:  p.opts.Caption,
	}
}

// FetchImage returns a verified, cache-busted image URL, or the fallback URL
// once all attempts are exhausted. It never returns an error.
func (p *Provider) FetchImage(ctx context.Context) string {
	for attempt := 1; attempt <= p.opts.Attempts; attempt++ {
		ref, err := p.buildURL()
		if err == nil {
			err = p.probe(ctx, ref)
		}
		if err == nil {
			return ref
		}

		p.log.Warn("image fetch failed",
			zap.Int("attempt", attempt),
			zap.Int("attempts", p.opts.Attempts),
			zap.Error(err),
		)
		if attempt == p.opts.Attempts {
			break
		}

		t := time.NewTimer(p.opts.RetryDelay)
		select {
		case <-ctx.Done():
			t.Stop()
			p.log.Debug("image fetch aborted", zap.Error(ctx.Err()))
			return p.opts.FallbackURL
		case <-t.C:
		}
	}
	p.log.Warn("using fallback image", zap.String("url", p.opts.FallbackURL))
	return p.opts.FallbackURL
}

// buildURL adds a distinct "v" query value so caches never serve the same image twice.
func (p *Provider) buildURL() (string, error) {
	u, err := url.Parse(p.opts.ImageURL)
	if err != nil {
		return "", fmt.Errorf("parse image url: %w", err)
	}
	q := u.Query()
	q.Set("v", p.nonce())
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (p *Provider) probe(ctx context.Context, ref string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ref, nil)
	if err != nil {
		return err
	}
	resp, err := p.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	// Drain a bounded amount so the connection can be reused.
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return nil
}
