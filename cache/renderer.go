package cache

import (
	"context"
	"log"
	"time"

	"github.com/ByLCY/placard/layout"
	"github.com/ByLCY/placard/renderer"
)

// Renderer 在 renderer.Renderer 外包一层缓存：命中时直接返回缓存的文件，未命中时渲染并写回。
// 缓存读写失败只记录警告，不影响渲染。
type Renderer struct {
	next   renderer.Renderer
	store  Store
	ttl    time.Duration
	logger *log.Logger
}

var _ renderer.Renderer = (*Renderer)(nil)

// NewRenderer 包装 next；logger 为 nil 时使用 log.Default()。
func NewRenderer(next renderer.Renderer, store Store, ttl time.Duration, logger *log.Logger) *Renderer {
	if logger == nil {
		logger = log.Default()
	}
	return &Renderer{next: next, store: store, ttl: ttl, logger: logger}
}

func (r *Renderer) Format() renderer.Format { return r.next.Format() }

func (r *Renderer) CacheKey() string { return r.next.CacheKey() }

func (r *Renderer) Render(ctx context.Context, req layout.Request) (*renderer.Output, error) {
	key, err := Key(req, r.next.CacheKey())
	if err != nil {
		r.logger.Printf("[WARN] render cache: %v", err)
		return r.next.Render(ctx, req)
	}

	data, ok, err := r.store.Get(ctx, key)
	switch {
	case err != nil:
		r.logger.Printf("[WARN] render cache get %s: %v", key, err)
	case ok:
		return &renderer.Output{Format: r.next.Format(), Data: data}, nil
	}

	out, err := r.next.Render(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := r.store.Set(ctx, key, out.Data, r.ttl); err != nil {
		r.logger.Printf("[WARN] render cache set %s: %v", key, err)
	}
	return out, nil
}
