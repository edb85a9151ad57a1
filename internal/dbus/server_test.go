package dbus

import (
	"errors"
	"sync"
	"testing"

	"github.com/anilaras/lumos/internal/config"
	"github.com/godbus/dbus/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

// mockConfigStore implements ConfigStore for testing.
type mockConfigStore struct {
	mu         sync.Mutex
	values     map[string]string
	persisted  int
	setErr     error
	persistErr error
}

func newMockConfigStore() *mockConfigStore {
	return &mockConfigStore{values: map[string]string{
		config.KeyMode:             "auto",
		config.KeyManualBrightness: "50",
	}}
}

func (m *mockConfigStore) Get(key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	value, ok := m.values[key]
	if !ok {
		return "", config.ErrUnknownKey
	}
	return value, nil
}

func (m *mockConfigStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.setErr != nil {
		return m.setErr
	}
	m.values[key] = value
	return nil
}

func (m *mockConfigStore) Persist() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.persistErr != nil {
		return m.persistErr
	}
	m.persisted++
	return nil
}

func unlimited() ServerOption {
	return WithRateLimiter(rate.NewLimiter(rate.Inf, 0))
}

func TestNewServer(t *testing.T) {
	store := newMockConfigStore()
	server := NewServer(store)
	assert.NotNil(t, server)
	assert.Equal(t, store, server.store)
	assert.Equal(t, "system", server.busName)
	assert.NotNil(t, server.connect)
}

func TestNewServer_SessionBus(t *testing.T) {
	server := NewServer(newMockConfigStore(), WithSessionBus())
	assert.Equal(t, "session", server.busName)
}

func TestServer_Get(t *testing.T) {
	server := NewServer(newMockConfigStore())

	value, err := server.Get(config.KeyMode)
	require.Nil(t, err)
	assert.Equal(t, "auto", value)
}

func TestServer_Get_UnknownKey(t *testing.T) {
	server := NewServer(newMockConfigStore())

	value, err := server.Get("volume")
	require.NotNil(t, err)
	assert.Empty(t, value)
	assert.Equal(t, "org.freedesktop.DBus.Error.Failed", err.Name)
}

func TestServer_Set(t *testing.T) {
	store := newMockConfigStore()
	server := NewServer(store, unlimited())

	err := server.Set(config.KeyInterval, "30")
	require.Nil(t, err)
	assert.Equal(t, "30", store.values[config.KeyInterval])
}

func TestServer_Set_Rejected(t *testing.T) {
	store := newMockConfigStore()
	store.setErr = config.ErrInvalidValue
	server := NewServer(store, unlimited())

	err := server.Set(config.KeyInterval, "-1")
	assert.NotNil(t, err)
}

func TestServer_SetMode(t *testing.T) {
	store := newMockConfigStore()
	server := NewServer(store, unlimited())

	require.Nil(t, server.SetMode("manual"))
	assert.Equal(t, "manual", store.values[config.KeyMode])
}

func TestServer_SetManualBrightness(t *testing.T) {
	tests := []struct {
		name     string
		percent  uint32
		expected string
	}{
		{name: "in range", percent: 40, expected: "40"},
		{name: "zero", percent: 0, expected: "0"},
		{name: "clamped", percent: 250, expected: "100"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newMockConfigStore()
			server := NewServer(store, unlimited())

			require.Nil(t, server.SetManualBrightness(tt.percent))
			assert.Equal(t, tt.expected, store.values[config.KeyManualBrightness])
		})
	}
}

func TestServer_Persist(t *testing.T) {
	store := newMockConfigStore()
	server := NewServer(store, unlimited())

	require.Nil(t, server.Persist())
	assert.Equal(t, 1, store.persisted)
}

func TestServer_Persist_Failure(t *testing.T) {
	store := newMockConfigStore()
	store.persistErr = errors.New("read-only file system")
	server := NewServer(store, unlimited())

	err := server.Persist()
	require.NotNil(t, err)
	assert.Equal(t, 0, store.persisted)
}

func TestServer_RateLimit(t *testing.T) {
	store := newMockConfigStore()
	server := NewServer(store, WithRateLimiter(rate.NewLimiter(0, 2)))

	assert.Nil(t, server.Set(config.KeyInterval, "10"))
	assert.Nil(t, server.SetMode("manual"))
	assert.NotNil(t, server.SetManualBrightness(10))
	assert.NotNil(t, server.Persist())

	// Reads are never limited.
	_, err := server.Get(config.KeyMode)
	assert.Nil(t, err)
	assert.Equal(t, "50", store.values[config.KeyManualBrightness])
}

func TestServer_DefaultRateLimit(t *testing.T) {
	server := NewServer(newMockConfigStore())

	for i := 0; i < rateLimitBurst; i++ {
		assert.Nil(t, server.Set(config.KeyInterval, "10"))
	}
	assert.NotNil(t, server.Set(config.KeyInterval, "10"))
}

func TestServer_Start_ConnectFailure(t *testing.T) {
	server := NewServer(newMockConfigStore())
	server.connect = func() (*dbus.Conn, error) {
		return nil, errors.New("no bus")
	}

	err := server.Start()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "system bus")
	assert.NoError(t, server.Stop())
}

func TestServer_StopWithoutStart(t *testing.T) {
	server := NewServer(newMockConfigStore())
	assert.NoError(t, server.Stop())
}

func TestServer_EmitBrightnessChanged_NotStarted(t *testing.T) {
	server := NewServer(newMockConfigStore())

	assert.NotPanics(t, func() {
		server.EmitBrightnessChanged(128, 50)
	})
}

func TestIntrospectXML(t *testing.T) {
	for _, fragment := range []string{
		`<method name="Get">`,
		`<method name="Set">`,
		`<method name="Persist"/>`,
		`<method name="SetMode">`,
		`<method name="SetManualBrightness">`,
		`<signal name="BrightnessChanged">`,
		ObjectPath,
		InterfaceName,
	} {
		assert.Contains(t, IntrospectXML, fragment)
	}
}
