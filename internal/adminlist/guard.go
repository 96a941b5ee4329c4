// Package adminlist drops stale admin list responses. When an admin changes
// a filter while the previous fetch is still running, the older fetch is
// canceled and its result is never shown.
package adminlist

import (
	"context"
	"errors"
	"sync"
)

// ErrSuperseded is returned to a fetch replaced by a newer one for the same key.
var ErrSuperseded = errors.New("superseded by a newer request")

type call struct {
	seq    uint64
	cancel context.CancelCauseFunc
}

// Guard tracks the latest fetch per key (session + resource).
type Guard struct {
	mu       sync.Mutex
	seq      uint64
	inflight map[string]call
}

func NewGuard() *Guard {
	return &Guard{inflight: make(map[string]call)}
}

// Key builds the guard key for a session's list of a resource.
func Key(sessionID, resource string) string {
	return sessionID + "|" + resource
}

// Do runs fn as the latest fetch for key. A later Do with the same key
// cancels fn's context; the earlier caller then gets ErrSuperseded even if
// fn managed to finish.
func Do[T any](g *Guard, ctx context.Context, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	ctx, cancel := context.WithCancelCause(ctx)
	seq := g.begin(key, cancel)
	defer g.end(key, seq, cancel)

	out, err := fn(ctx)
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		var zero T
		return zero, ErrSuperseded
	}
	return out, err
}

func (g *Guard) begin(key string, cancel context.CancelCauseFunc) uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	if prev, ok := g.inflight[key]; ok {
		prev.cancel(ErrSuperseded)
	}
	g.seq++
	g.inflight[key] = call{seq: g.seq, cancel: cancel}
	return g.seq
}

func (g *Guard) end(key string, seq uint64, cancel context.CancelCauseFunc) {
	g.mu.Lock()
	if cur, ok := g.inflight[key]; ok && cur.seq == seq {
		delete(g.inflight, key)
	}
	g.mu.Unlock()
	cancel(nil)
}
