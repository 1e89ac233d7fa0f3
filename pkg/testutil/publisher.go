package testutil

import (
	"context"
	"sync"

	"github.com/questx-lab/reputation/pkg/pubsub"
)

// MockPublisher keeps every published pack in memory, grouped by topic. Err,
// if set, is returned by Publish and nothing is recorded.
type MockPublisher struct {
	Err error

	mu    sync.Mutex
	packs map[string][]pubsub.Pack
}

func (m *MockPublisher) Publish(_ context.Context, topic string, pack *pubsub.Pack) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.packs == nil {
		m.packs = map[string][]pubsub.Pack{}
	}
	m.packs[topic] = append(m.packs[topic], *pack)
	return nil
}

// Published returns a copy of the packs sent to topic, in publish order.
func (m *MockPublisher) Published(topic string) []pubsub.Pack {
	m.mu.Lock()
	defer m.mu.Unlock()

	return append([]pubsub.Pack(nil), m.packs[topic]...)
}
