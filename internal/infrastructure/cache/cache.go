package cache

import (
	"time"

	"fxportal/internal/application"
	"fxportal/internal/domain"

	"github.com/dgraph-io/ristretto"
)

// Pages caches trade history pages. Each page costs one unit.
type Pages struct {
	c   *ristretto.Cache
	ttl time.Duration
}

var _ application.PageCache = (*Pages)(nil)

func New(maxCost int64, ttl time.Duration) (*Pages, error) {
	c, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e5,
		MaxCost:     maxCost,
		BufferItems: 64,
	})
	if err != nil {
		return nil, err
	}
	return &Pages{c: c, ttl: ttl}, nil
}

func (p *Pages) Get(key string) (domain.TradePage, bool) {
	v, ok := p.c.Get(key)
	if !ok {
		return domain.TradePage{}, false
	}
	page, ok := v.(domain.TradePage)
	return page, ok
}

// Set stores page and waits until it is visible to Get.
func (p *Pages) Set(key string, page domain.TradePage) {
	p.c.SetWithTTL(key, page, 1, p.ttl)
	p.c.Wait()
}

func (p *Pages) Del(key string) { p.c.Del(key) }

func (p *Pages) Clear() { p.c.Clear() }

func (p *Pages) Close() { p.c.Close() }
