package app

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/domain"
)

type connEntry struct {
	Room   domain.RoomID
	Conn   Conn
	Cancel context.CancelFunc
}

// Registry is the process-local table of live connections. It tracks
// which room each connection believes it is in; the directory remains
// the authority across processes.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.UserID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.UserID]*connEntry)}
}

func (r *Registry) Bind(uid domain.UserID, conn Conn, cancel context.CancelFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[uid] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Msg("bound connection")
}

func (r *Registry) Unbind(uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conns, uid)
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Msg("unbound connection")
}

func (r *Registry) Conn(uid domain.UserID) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[uid]; ok {
		return e.Conn, true
	}
	return nil, false
}

func (r *Registry) RoomOf(uid domain.UserID) (domain.RoomID, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.conns[uid]
	if !ok || e.Room == "" {
		return "", false
	}
	return e.Room, true
}

func (r *Registry) SetRoom(uid domain.UserID, room domain.RoomID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.conns[uid]
	if !ok {
		return false
	}
	e.Room = room
	return true
}

func (r *Registry) ClearRoom(uid domain.UserID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if e, ok := r.conns[uid]; ok {
		e.Room = ""
	}
}

// Send is best-effort: a closed or saturated connection is the
// receiver's problem, never the sender's.
func (r *Registry) Send(uid domain.UserID, f Frame) {
	conn, ok := r.Conn(uid)
	if !ok {
		log.Debug().Str("module", "app.registry").Str("user", string(uid)).Msg("send to unknown connection")
		return
	}
	if err := conn.TrySend(f); err != nil {
		log.Warn().Err(err).Str("module", "app.registry").Str("user", string(uid)).Msg("send failed")
	}
}

func (r *Registry) Cancel(uid domain.UserID) bool {
	r.mu.RLock()
	e, ok := r.conns[uid]
	r.mu.RUnlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	log.Info().Str("module", "app.registry").Str("user", string(uid)).Msg("canceled connection")
	return true
}
