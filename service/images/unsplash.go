package images

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"

	"mango-chat-backend/config"
	"mango-chat-backend/model"
	"mango-chat-backend/utils"
)

const (
	cacheTTL        = time.Hour
	maxCacheEntries = 100

	providerAttempts = 2
)

type searchResponse struct {
	Results []model.Image `json:"results"`
}

type cacheEntry struct {
	images     []model.Image
	insertedAt time.Time
}

// Client fetches images from the Unsplash search API with a bounded
// in-memory cache and deterministic placeholder fallback. Constructed once
// and injected; the cache lives for the process lifetime.
type Client struct {
	baseURL    string
	accessKey  string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cacheEntry

	now func() time.Time
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		baseURL:    cfg.Unsplash.BaseURL,
		accessKey:  cfg.Unsplash.AccessKey,
		httpClient: utils.DefaultHTTPClient(),
		cache:      make(map[string]cacheEntry),
		now:        time.Now,
	}
}

// GetImages returns up to count images for the query. Provider failures and
// missing configuration degrade to exactly count placeholder entries; this
// method never fails.
func (c *Client) GetImages(ctx context.Context, query string, count int) []model.Image {
	cacheKey := query + "-" + strconv.Itoa(count)

	if images, ok := c.cachedFresh(cacheKey); ok {
		return images
	}

	if c.accessKey == "" {
		slog.Warn("Unsplash access key not configured, using placeholders")
		return placeholderImages(count)
	}

	images, err := c.search(ctx, query, count)
	if err != nil {
		slog.Error("Failed to fetch images from provider", "query", query, "err", err)
		return placeholderImages(count)
	}

	// Cache the raw result set; alt-text filtering is the caller's concern.
	c.put(cacheKey, images)

	return images
}

func (c *Client) search(ctx context.Context, query string, count int) ([]model.Image, error) {
	params := url.Values{}
	params.Set("query", query)
	params.Set("per_page", strconv.Itoa(count))
	params.Set("orientation", "landscape")

	endpoint := c.baseURL + "/search/photos?" + params.Encode()

	var images []model.Image
	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return err
			}
			req.Header.Set("Authorization", "Client-ID "+c.accessKey)

			resp, err := c.httpClient.Do(req)
			if err != nil {
				return err
			}
			defer resp.Body.Close()

			if resp.StatusCode != http.StatusOK {
				return fmt.Errorf("provider returned status %d", resp.StatusCode)
			}

			var parsed searchResponse
			if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
				return err
			}

			images = parsed.Results
			return nil
		},
		retry.Attempts(providerAttempts),
		retry.Context(ctx),
		retry.DelayType(retry.BackOffDelay),
		retry.OnRetry(func(n uint, err error) {
			slog.Warn("Retrying image provider request",
				"attempt", n+1,
				"query", query,
				"err", err)
		}),
	)
	if err != nil {
		return nil, err
	}

	return images, nil
}

func (c *Client) cachedFresh(key string) ([]model.Image, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.cache[key]
	if !ok || c.now().Sub(entry.insertedAt) >= cacheTTL {
		return nil, false
	}
	return entry.images, true
}

func (c *Client) put(key string, images []model.Image) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.cache[key] = cacheEntry{images: images, insertedAt: c.now()}
	c.prune()
}

// prune evicts oldest-inserted entries until the cache is back under the
// limit. Age-based, not LRU: reads do not refresh entries.
func (c *Client) prune() {
	if len(c.cache) <= maxCacheEntries {
		return
	}

	type keyed struct {
		key        string
		insertedAt time.Time
	}
	entries := make([]keyed, 0, len(c.cache))
	for k, v := range c.cache {
		entries = append(entries, keyed{key: k, insertedAt: v.insertedAt})
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].insertedAt.Before(entries[j].insertedAt)
	})

	for i := 0; len(c.cache) > maxCacheEntries && i < len(entries); i++ {
		delete(c.cache, entries[i].key)
	}
}

// placeholderImages builds a deterministic fallback set so the tool layer
// always has exactly count entries to show.
func placeholderImages(count int) []model.Image {
	images := make([]model.Image, 0, count)
	for i := 0; i < count; i++ {
		images = append(images, model.Image{
			ID: fmt.Sprintf("fallback-%d", i),
			URLs: model.ImageURLs{
				Raw:     "https://via.placeholder.com/1200x800/7C3AED/ffffff?text=Brazilian+Mango",
				Full:    "https://via.placeholder.com/1200x800/7C3AED/ffffff?text=Brazilian+Mango",
				Regular: "https://via.placeholder.com/800x600/7C3AED/ffffff?text=Brazilian+Mango",
				Small:   "https://via.placeholder.com/400x300/7C3AED/ffffff?text=Brazilian+Mango",
				Thumb:   "https://via.placeholder.com/200x150/7C3AED/ffffff?text=Mango",
			},
			AltDescription: "Brazilian mango",
			User: model.ImageUser{
				Name:  "Placeholder",
				Links: model.ImageUserLinks{HTML: "#"},
			},
		})
	}
	return images
}
