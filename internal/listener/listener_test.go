package listener

import (
	"context"
	"testing"

	"github.com/fluxdns/fluxdns/internal/ingress"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStore struct {
	configs map[Protocol]Config
}

func newFakeStore(configs ...Config) *fakeStore {
	m := make(map[Protocol]Config, len(configs))
	for _, c := range configs {
		m[c.Protocol] = c
	}
	return &fakeStore{configs: m}
}

func (s *fakeStore) ListListeners(ctx context.Context) ([]Config, error) {
	out := make([]Config, 0, len(s.configs))
	for _, c := range s.configs {
		out = append(out, c)
	}
	return out, nil
}

func (s *fakeStore) GetListener(ctx context.Context, p Protocol) (Config, error) {
	c, ok := s.configs[p]
	if !ok {
		return Config{}, assert.AnError
	}
	return c, nil
}

func (s *fakeStore) SetListenerEnabled(ctx context.Context, p Protocol, enabled bool) error {
	c := s.configs[p]
	c.Enabled = enabled
	s.configs[p] = c
	return nil
}

func TestStartListenerBindsAndTracksHandle(t *testing.T) {
	store := newFakeStore(Config{Protocol: UDP, Enabled: true, BindAddress: "127.0.0.1", Port: 0})
	mgr := NewManager(store, &ingress.Handler{}, nil)

	err := mgr.StartListener(context.Background(), UDP)
	require.NoError(t, err)
	assert.True(t, mgr.IsRunning(UDP))

	mgr.StopListener(UDP)
	assert.False(t, mgr.IsRunning(UDP))
}

func TestStartListenerRevertsEnabledOnMissingTLSMaterial(t *testing.T) {
	store := newFakeStore(Config{Protocol: DoT, Enabled: true, BindAddress: "127.0.0.1", Port: 8853})
	mgr := NewManager(store, &ingress.Handler{}, nil)

	err := mgr.StartListener(context.Background(), DoT)
	require.ErrorIs(t, err, ErrConfigInvalid)

	cfg, _ := store.GetListener(context.Background(), DoT)
	assert.False(t, cfg.Enabled)
	assert.False(t, mgr.IsRunning(DoT))
}

func TestStartListenerRevertsEnabledOnUnknownProtocol(t *testing.T) {
	store := newFakeStore(Config{Protocol: "carrier-pigeon", Enabled: true, BindAddress: "127.0.0.1", Port: 9999})
	mgr := NewManager(store, &ingress.Handler{}, nil)

	err := mgr.StartListener(context.Background(), "carrier-pigeon")
	require.ErrorIs(t, err, ErrConfigInvalid)

	cfg, _ := store.GetListener(context.Background(), "carrier-pigeon")
	assert.False(t, cfg.Enabled)
}

func TestStartAllEnabledSkipsDisabledListeners(t *testing.T) {
	store := newFakeStore(
		Config{Protocol: UDP, Enabled: true, BindAddress: "127.0.0.1", Port: 0},
		Config{Protocol: DoH, Enabled: false, BindAddress: "127.0.0.1", Port: 0},
	)
	mgr := NewManager(store, &ingress.Handler{}, nil)

	err := mgr.StartAllEnabled(context.Background())
	require.NoError(t, err)
	assert.True(t, mgr.IsRunning(UDP))
	assert.False(t, mgr.IsRunning(DoH))

	mgr.StopAll()
}

func TestStartListenerRestartsAnAlreadyRunningListener(t *testing.T) {
	store := newFakeStore(Config{Protocol: UDP, Enabled: true, BindAddress: "127.0.0.1", Port: 0})
	mgr := NewManager(store, &ingress.Handler{}, nil)

	require.NoError(t, mgr.StartListener(context.Background(), UDP))
	require.NoError(t, mgr.StartListener(context.Background(), UDP))
	assert.True(t, mgr.IsRunning(UDP))

	mgr.StopAll()
}

func TestStopListenerOnUntrackedProtocolIsANoop(t *testing.T) {
	store := newFakeStore()
	mgr := NewManager(store, &ingress.Handler{}, nil)
	mgr.StopListener(UDP)
	assert.False(t, mgr.IsRunning(UDP))
}
