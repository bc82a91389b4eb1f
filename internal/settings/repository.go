package settings

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/valkey-io/valkey-go"

	"github.com/claimsense/claimsense/internal/config"
)

// MemoryRepository keeps settings in process memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{values: make(map[string]string)}
}

func (m *MemoryRepository) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryRepository) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

// RegistryRepository stores settings in the config file's settings map.
// Every Set saves the file.
type RegistryRepository struct {
	registry *config.Registry
}

// NewRegistryRepository wraps a loaded registry.
func NewRegistryRepository(registry *config.Registry) *RegistryRepository {
	return &RegistryRepository{registry: registry}
}

func (r *RegistryRepository) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := r.registry.GetSetting(key)
	return v, ok, nil
}

func (r *RegistryRepository) Set(_ context.Context, key, value string) error {
	r.registry.SetSetting(key, value)
	if err := r.registry.Save(); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// ValkeyKeyPrefix namespaces settings keys on a shared server.
const ValkeyKeyPrefix = "claimsense:settings:"

// ValkeyRepository stores settings as plain string keys in valkey or redis.
type ValkeyRepository struct {
	client valkey.Client
	prefix string
}

// NewValkeyRepository connects to addr (host:port).
func NewValkeyRepository(addr string) (*ValkeyRepository, error) {
	client, err := valkey.NewClient(valkey.ClientOption{
		InitAddress:      []string{addr},
		ConnWriteTimeout: 5 * time.Second,
		DisableCache:     true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to valkey at %s: %w", addr, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to ping valkey at %s: %w", addr, err)
	}

	return &ValkeyRepository{client: client, prefix: ValkeyKeyPrefix}, nil
}

func (v *ValkeyRepository) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := v.client.Do(ctx, v.client.B().Get().Key(v.prefix+key).Build()).ToString()
	if valkey.IsValkeyNil(err) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (v *ValkeyRepository) Set(ctx context.Context, key, value string) error {
	return v.client.Do(ctx, v.client.B().Set().Key(v.prefix+key).Value(value).Build()).Error()
}

// Close releases the connection pool.
func (v *ValkeyRepository) Close() {
	v.client.Close()
}

// Open selects the repository named by backend ("file", "valkey" or
// "memory"). The returned close function is never nil.
func Open(backend string, registry *config.Registry, valkeyAddr string) (Repository, func(), error) {
	noop := func() {}
	switch backend {
	case config.BackendMemory:
		return NewMemoryRepository(), noop, nil
	case config.BackendValkey:
		repo, err := NewValkeyRepository(valkeyAddr)
		if err != nil {
			return nil, noop, err
		}
		return repo, repo.Close, nil
	case config.BackendFile, "":
		if registry == nil {
			return nil, noop, fmt.Errorf("file settings backend needs a loaded config")
		}
		return NewRegistryRepository(registry), noop, nil
	default:
		return nil, noop, fmt.Errorf("unknown settings backend %q", backend)
	}
}
