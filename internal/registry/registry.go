// Package registry tracks which participants currently hold open
// bidirectional channels and fans payloads out to them.
//
// The registry is purely transient process-local state: it is rebuilt from
// nothing on restart as clients reconnect, and it never blocks on
// persistence or the push gateway.
package registry

import (
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/roomlink/messaging-platform/pkg/logger"
	"github.com/roomlink/messaging-platform/pkg/metrics"
)

// Channel is one open session belonging to a participant. Write must apply
// the given deadline; a timed-out or failed write marks the channel broken.
type Channel interface {
	Write(payload []byte, timeout time.Duration) error
	Close() error
}

// Registry is a thread-safe map from participant id to that participant's
// set of open channels. A participant may hold several channels at once
// (multi-device).
type Registry struct {
	mu       sync.RWMutex
	channels map[uint64]map[Channel]struct{}

	writeTimeout time.Duration
	logger       *logger.Logger
}

// New creates an empty registry. writeTimeout bounds each individual
// channel write during fan-out so one slow consumer cannot stall delivery
// to the rest.
func New(writeTimeout time.Duration, log *logger.Logger) *Registry {
	return &Registry{
		channels:     make(map[uint64]map[Channel]struct{}),
		writeTimeout: writeTimeout,
		logger:       log,
	}
}

// Register adds a channel to the participant's set. Registration always
// succeeds; the channel is eligible for fan-out immediately.
func (r *Registry) Register(participantID uint64, ch Channel) {
	r.mu.Lock()
	set, ok := r.channels[participantID]
	if !ok {
		set = make(map[Channel]struct{})
		r.channels[participantID] = set
	}
	set[ch] = struct{}{}
	r.mu.Unlock()

	metrics.IncrementWSConnections()
	r.logger.Debug("channel registered", zap.Uint64("participant_id", participantID))
}

// Unregister removes a channel from the participant's set, dropping the
// entry entirely once the set is empty. Removing an absent channel is a
// no-op, so the call is safe on every connection exit path.
func (r *Registry) Unregister(participantID uint64, ch Channel) {
	r.mu.Lock()
	removed := r.removeLocked(participantID, ch)
	r.mu.Unlock()

	if removed {
		metrics.DecrementWSConnections()
		r.logger.Debug("channel unregistered", zap.Uint64("participant_id", participantID))
	}
}

// IsOnline reports whether the participant has at least one open channel.
func (r *Registry) IsOnline(participantID uint64) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels[participantID]) > 0
}

// Send writes the payload to every one of the participant's channels and
// returns how many accepted it. Channels that fail or time out are evicted
// as a side effect. A zero return means the participant is effectively
// offline.
func (r *Registry) Send(participantID uint64, payload []byte) int {
	r.mu.RLock()
	snapshot := make([]Channel, 0, len(r.channels[participantID]))
	for ch := range r.channels[participantID] {
		snapshot = append(snapshot, ch)
	}
	r.mu.RUnlock()

	delivered := 0
	var broken []Channel
	for _, ch := range snapshot {
		if err := ch.Write(payload, r.writeTimeout); err != nil {
			broken = append(broken, ch)
			continue
		}
		delivered++
	}

	if len(broken) > 0 {
		r.mu.Lock()
		evicted := 0
		for _, ch := range broken {
			if r.removeLocked(participantID, ch) {
				evicted++
			}
		}
		r.mu.Unlock()

		for _, ch := range broken {
			_ = ch.Close()
		}
		for i := 0; i < evicted; i++ {
			metrics.DecrementWSConnections()
		}
		r.logger.Warn("evicted broken channels",
			zap.Uint64("participant_id", participantID),
			zap.Int("count", len(broken)),
		)
	}

	return delivered
}

// removeLocked deletes ch from the participant's set. Caller holds mu.
func (r *Registry) removeLocked(participantID uint64, ch Channel) bool {
	set, ok := r.channels[participantID]
	if !ok {
		return false
	}
	if _, ok := set[ch]; !ok {
		return false
	}
	delete(set, ch)
	if len(set) == 0 {
		delete(r.channels, participantID)
	}
	return true
}
