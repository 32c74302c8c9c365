package httpx

import (
	"context"
	"regexp"
	"sync"

	"golang.org/x/sync/singleflight"

	"statarchive/internal/scrape"
)

// PageCache deduplicates index-page fetches within one run. Sources often ask
// for the same listing page once per year or per table; concurrent identical
// requests collapse into a single flight and later ones hit the cache.
type PageCache struct {
	client *Client
	cache  sync.Map
	group  singleflight.Group
}

func NewPageCache(client *Client) *PageCache {
	return &PageCache{client: client}
}

// Get returns the page body for url, fetching it at most once per run.
func (p *PageCache) Get(ctx context.Context, url string) (string, error) {
	if cached, ok := p.cache.Load(url); ok {
		return cached.(string), nil
	}

	val, err, _ := p.group.Do(url, func() (any, error) {
		return p.client.FetchText(ctx, url)
	})
	if err != nil {
		return "", err
	}

	body := val.(string)
	p.cache.Store(url, body)
	return body, nil
}

// Hyperlinks fetches url (through the cache) and extracts the anchor targets
// matching pattern. A nil pattern returns every link on the page.
func (p *PageCache) Hyperlinks(ctx context.Context, url string, pattern *regexp.Regexp) ([]string, error) {
	body, err := p.Get(ctx, url)
	if err != nil {
		return nil, err
	}
	return scrape.SortedHyperlinks(body, pattern), nil
}
