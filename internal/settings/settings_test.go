package settings

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/google/uuid"

	"github.com/claimsense/claimsense/internal/config"
)

func backends(t *testing.T) map[string]Repository {
	t.Helper()

	registry, err := config.LoadRegistryFrom(filepath.Join(t.TempDir(), "config.yaml"))
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}

	repos := map[string]Repository{
		"memory":   NewMemoryRepository(),
		"registry": NewRegistryRepository(registry),
	}

	// CLAIMSENSE_TEST_VALKEY_ADDR opts into the valkey backend
	if addr := os.Getenv("CLAIMSENSE_TEST_VALKEY_ADDR"); addr != "" {
		repo, err := NewValkeyRepository(addr)
		if err != nil {
			t.Fatalf("NewValkeyRepository() error = %v", err)
		}
		repo.prefix = fmt.Sprintf("%stest:%s:", ValkeyKeyPrefix, uuid.NewString())
		t.Cleanup(repo.Close)
		repos["valkey"] = repo
	}

	return repos
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		raw      string
		dark     bool
		wantName string
	}{
		{"Dana", true, "Dana"},
		{"  Dana Scully  ", false, "Dana Scully"},
		{"  ", true, FallbackUsername},
		{"", false, FallbackUsername},
	}

	for name, repo := range backends(t) {
		t.Run(name, func(t *testing.T) {
			store := NewStore(repo)
			for _, tt := range tests {
				saved, err := store.Save(ctx, tt.raw, tt.dark)
				if err != nil {
					t.Fatalf("Save(%q) error = %v", tt.raw, err)
				}
				if saved.Username != tt.wantName || saved.DarkMode != tt.dark {
					t.Errorf("Save(%q, %v) = %+v", tt.raw, tt.dark, saved)
				}

				loaded, err := store.Load(ctx)
				if err != nil {
					t.Fatalf("Load() error = %v", err)
				}
				if loaded != saved {
					t.Errorf("Load() = %+v, want %+v", loaded, saved)
				}
			}
		})
	}
}

func TestStore_LoadDefaults(t *testing.T) {
	store := NewStore(NewMemoryRepository())

	got, err := store.Load(context.Background())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if got.Username != FallbackUsername || got.DarkMode {
		t.Errorf("Load() = %+v, want fallback name and light mode", got)
	}
}

func TestStore_DarkModeExactTrue(t *testing.T) {
	ctx := context.Background()

	for _, stored := range []string{"TRUE", "1", "yes", "True", " true"} {
		repo := NewMemoryRepository()
		_ = repo.Set(ctx, KeyDarkMode, stored)
		_ = repo.Set(ctx, KeyUsername, "   ")

		got, err := NewStore(repo).Load(ctx)
		if err != nil {
			t.Fatalf("Load() error = %v", err)
		}
		if got.DarkMode {
			t.Errorf("darkMode %q loaded as true", stored)
		}
		if got.Username != FallbackUsername {
			t.Errorf("blank stored name loaded as %q", got.Username)
		}
	}
}

func TestRegistryRepository_Persists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	registry, err := config.LoadRegistryFrom(path)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := NewStore(NewRegistryRepository(registry)).Save(context.Background(), "Fox", true); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	reloaded, err := config.LoadRegistryFrom(path)
	if err != nil {
		t.Fatalf("LoadRegistryFrom() error = %v", err)
	}
	got, err := NewStore(NewRegistryRepository(reloaded)).Load(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if got.Username != "Fox" || !got.DarkMode {
		t.Errorf("reloaded settings = %+v", got)
	}
}

type failingRepo struct{ err error }

func (f failingRepo) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingRepo) Set(context.Context, string, string) error         { return f.err }

func TestStore_Errors(t *testing.T) {
	boom := errors.New("disk full")
	store := NewStore(failingRepo{err: boom})

	if _, err := store.Load(context.Background()); !errors.Is(err, boom) {
		t.Errorf("Load() error = %v, want wrapped %v", err, boom)
	}
	if _, err := store.Save(context.Background(), "x", false); !errors.Is(err, boom) {
		t.Errorf("Save() error = %v, want wrapped %v", err, boom)
	}
}

func TestAvatar(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"dana", "D"},
		{"Analyst", "A"},
		{"élodie", "É"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := (Settings{Username: tt.name}).Avatar(); got != tt.want {
			t.Errorf("Avatar(%q) = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestOpen(t *testing.T) {
	registry := config.NewRegistry()

	tests := []struct {
		backend string
		wantErr bool
	}{
		{config.BackendMemory, false},
		{config.BackendFile, false},
		{"", false},
		{"etcd", true},
	}

	for _, tt := range tests {
		repo, closeFn, err := Open(tt.backend, registry, "")
		if (err != nil) != tt.wantErr {
			t.Errorf("Open(%q) error = %v, wantErr %v", tt.backend, err, tt.wantErr)
		}
		if closeFn == nil {
			t.Errorf("Open(%q) returned nil close func", tt.backend)
		}
		if !tt.wantErr && repo == nil {
			t.Errorf("Open(%q) returned nil repository", tt.backend)
		}
	}

	if _, _, err := Open(config.BackendFile, nil, ""); err == nil {
		t.Error("file backend without a registry should fail")
	}
}
