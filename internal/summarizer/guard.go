package summarizer

import (
	"sync"

	"pagegist/internal/domain"
)

// runGuard allows one active run per target.
type runGuard struct {
	mu     sync.Mutex
	active map[domain.Target]struct{}
}

func newRunGuard() *runGuard {
	return &runGuard{active: make(map[domain.Target]struct{})}
}

// acquire marks target busy. The returned release must be called exactly
// once when ok is true.
func (g *runGuard) acquire(target domain.Target) (release func(), ok bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, busy := g.active[target]; busy {
		return nil, false
	}
	g.active[target] = struct{}{}

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.active, target)
			g.mu.Unlock()
		})
	}, true
}

func (g *runGuard) busy(target domain.Target) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.active[target]
	return ok
}
