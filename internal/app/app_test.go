package app

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/and161185/userdir/internal/config"
	"github.com/and161185/userdir/internal/crypto"
	"github.com/and161185/userdir/internal/model"
	"github.com/and161185/userdir/internal/repository/file"
	"github.com/and161185/userdir/internal/service"
)

func TestOpenBlobStore_FileDefaultPath(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	cfg := &config.Config{Cache: config.CacheConfig{Backend: config.BackendFile}}

	store, closeFn, err := OpenBlobStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()
	require.Equal(t, file.DefaultPath(), store.(*file.Store).Path())
}

func TestOpenBlobStore_RedisUnreachable(t *testing.T) {
	cfg := &config.Config{
		Cache: config.CacheConfig{Backend: config.BackendRedis},
		Redis: config.RedisConfig{Addr: "127.0.0.1:1", Key: "users"},
	}
	_, _, err := OpenBlobStore(context.Background(), cfg, zap.NewNop())
	require.Error(t, err)
}

func TestNewDirectory_SealedFileCache(t *testing.T) {
	seed := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"id":1,"name":"Leanne Graham","email":"Sincere@april.biz"}]`))
	}))
	defer seed.Close()

	path := filepath.Join(t.TempDir(), "users.json")
	cfg := &config.Config{
		Remote: config.RemoteConfig{SeedURL: seed.URL},
		Store:  config.StoreConfig{IDPolicy: service.IDMaxPlusOne, MirrorMode: service.MirrorOff},
		Cache:  config.CacheConfig{Backend: config.BackendFile, Path: path, Passphrase: "hunter2"},
	}
	store, closeFn, err := OpenBlobStore(context.Background(), cfg, zap.NewNop())
	require.NoError(t, err)
	defer closeFn()

	dir := NewDirectory(store, cfg, zap.NewNop(), nil)
	require.NoError(t, dir.Init(context.Background()))
	_, err = dir.Add(context.Background(), model.User{FirstName: "Ann"})
	require.NoError(t, err)

	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	require.True(t, crypto.IsSealed(raw))
	require.NotContains(t, string(raw), "Leanne")

	// a second process with the same passphrase reads it back
	again := NewDirectory(file.New(path), cfg, zap.NewNop(), nil)
	require.NoError(t, again.Init(context.Background()))
	require.Len(t, again.Users(), 2)
}
