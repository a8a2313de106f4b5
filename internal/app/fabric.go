package app

import (
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/Easel/internal/domain"
)

// Fabric is the in-process pub/sub fan-out: room topic → subscribed
// connections. Delivery is at most once per subscriber per publish;
// FIFO per origin follows from each subscriber's ordered send channel
// and the sequential processing of a single origin's messages. A
// publish racing an unsubscribe may or may not reach the leaver, which
// is fine.
type Fabric struct {
	mu     sync.RWMutex
	topics map[domain.RoomID]map[domain.UserID]Conn
}

func NewFabric() *Fabric {
	return &Fabric{topics: make(map[domain.RoomID]map[domain.UserID]Conn)}
}

func (f *Fabric) Subscribe(uid domain.UserID, room domain.RoomID, conn Conn) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, ok := f.topics[room]
	if !ok {
		subs = make(map[domain.UserID]Conn)
		f.topics[room] = subs
	}
	subs[uid] = conn
	log.Debug().Str("module", "app.fabric").Str("user", string(uid)).Str("room", string(room)).Msg("subscribed")
}

// Unsubscribe drops the topic itself once its last subscriber is gone,
// mirroring the directory's empty-room teardown.
func (f *Fabric) Unsubscribe(uid domain.UserID, room domain.RoomID) {
	f.mu.Lock()
	defer f.mu.Unlock()
	subs, ok := f.topics[room]
	if !ok {
		return
	}
	delete(subs, uid)
	if len(subs) == 0 {
		delete(f.topics, room)
	}
	log.Debug().Str("module", "app.fabric").Str("user", string(uid)).Str("room", string(room)).Msg("unsubscribed")
}

// Publish delivers f to every subscriber of room at the moment of the
// call, skipping exclude when non-empty. Saturated subscribers are
// reported, never waited on.
func (f *Fabric) Publish(room domain.RoomID, frame Frame, exclude domain.UserID) PublishResult {
	f.mu.RLock()
	defer f.mu.RUnlock()
	res := PublishResult{}
	for uid, conn := range f.topics[room] {
		if exclude != "" && uid == exclude {
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			res.Dropped = append(res.Dropped, string(uid))
			continue
		}
		res.SentTo++
	}
	log.Debug().Str("module", "app.fabric").Str("room", string(room)).Int("sent_to", res.SentTo).Int("dropped", len(res.Dropped)).Msg("publish result")
	return res
}
