package mapbox

import (
	"container/list"
	"context"
	"sync"

	"github.com/mobinyousefi-cs/covid19-dashboard/internal/domain"
	"github.com/mobinyousefi-cs/covid19-dashboard/internal/observability"
)

// CachedGeocoder wraps a Geocoder with an in-memory LRU cache. Distinct
// (country, province) pairs in the dataset number in the hundreds, so a
// modest cache eliminates nearly all repeat API calls.
type CachedGeocoder struct {
	inner   domain.Geocoder
	metrics *observability.Metrics

	mu         sync.Mutex
	maxEntries int
	order      *list.List // front = most recently used
	entries    map[string]*list.Element
}

type cacheEntry struct {
	key    string
	coords domain.Coordinates
}

// NewCachedGeocoder creates a cache decorator around a geocoder.
func NewCachedGeocoder(inner domain.Geocoder, maxEntries int, metrics *observability.Metrics) *CachedGeocoder {
	return &CachedGeocoder{
		inner:      inner,
		metrics:    metrics,
		maxEntries: maxEntries,
		order:      list.New(),
		entries:    make(map[string]*list.Element),
	}
}

func (c *CachedGeocoder) Geocode(ctx context.Context, country, province string) (domain.Coordinates, error) {
	key := country + "|" + province
	if coords, ok := c.get(key); ok {
		c.metrics.GeocodeCache.WithLabelValues("hit").Inc()
		return coords, nil
	}
	c.metrics.GeocodeCache.WithLabelValues("miss").Inc()

	coords, err := c.inner.Geocode(ctx, country, province)
	if err != nil {
		return coords, err
	}
	// Only cache non-empty results so transient "not found" responses can
	// be retried.
	if coords.Lat != 0 || coords.Lon != 0 {
		c.put(key, coords)
	}
	return coords, nil
}

func (c *CachedGeocoder) get(key string) (domain.Coordinates, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.entries[key]
	if !ok {
		return domain.Coordinates{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cacheEntry).coords, true
}

func (c *CachedGeocoder) put(key string, coords domain.Coordinates) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.entries[key]; ok {
		el.Value.(*cacheEntry).coords = coords
		c.order.MoveToFront(el)
		return
	}

	c.entries[key] = c.order.PushFront(&cacheEntry{key: key, coords: coords})

	if c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.entries, oldest.Value.(*cacheEntry).key)
	}
}
