package out_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	adapter "bark/internal/modules/history/adapter/out"
	"bark/internal/modules/history/domain"
	historyout "bark/internal/modules/history/port/out"
	providerdomain "bark/internal/modules/provider/domain"
)

func openStore(t *testing.T) historyout.Store {
	t.Helper()
	store, err := adapter.NewSQLiteStore(filepath.Join(t.TempDir(), "history", "bark.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSaveStripsPassword(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	cfg := providerdomain.Config{
		Name: "prod-sftp",
		Values: map[string]string{
			"host":     "files.example.com",
			"username": "deploy",
			"password": "s3cret",
		},
	}
	require.NoError(t, store.Save(ctx, domain.SavedConnection{Plugin: "sftp", Config: cfg}))

	conns, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	got := conns[0]
	require.Equal(t, "prod-sftp", got.Config.Name)
	require.Equal(t, "files.example.com", got.Config.Values["host"])
	require.NotContains(t, got.Config.Values, "password")
	require.NotEmpty(t, got.ID)
}

func TestSaveUpsertsByPluginAndName(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	first := domain.SavedConnection{
		Plugin:   "sftp",
		Config:   providerdomain.Config{Name: "prod", Values: map[string]string{"host": "old.example.com"}},
		LastUsed: time.Unix(1700000000, 0),
	}
	require.NoError(t, store.Save(ctx, first))
	second := first
	second.Config = providerdomain.Config{Name: "prod", Values: map[string]string{"host": "new.example.com"}}
	second.LastUsed = time.Unix(1700000100, 0)
	require.NoError(t, store.Save(ctx, second))

	conns, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)
	require.Equal(t, "new.example.com", conns[0].Config.Values["host"])
}

func TestListOrdersByLastUsed(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	for i, name := range []string{"oldest", "middle", "newest"} {
		conn := domain.SavedConnection{
			Plugin:   "sftp",
			Config:   providerdomain.Config{Name: name, Values: map[string]string{}},
			LastUsed: time.Unix(int64(1700000000+i*60), 0),
		}
		require.NoError(t, store.Save(ctx, conn))
	}

	conns, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 3)
	require.Equal(t, "newest", conns[0].Config.Name)
	require.Equal(t, "oldest", conns[2].Config.Name)
}

func TestDelete(t *testing.T) {
	t.Parallel()
	store := openStore(t)
	ctx := context.Background()

	conn := domain.SavedConnection{
		Plugin: "webdav",
		Config: providerdomain.Config{Name: "nas", Values: map[string]string{"url": "https://nas.local"}},
	}
	require.NoError(t, store.Save(ctx, conn))
	conns, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, conns, 1)

	require.NoError(t, store.Delete(ctx, conns[0].ID))
	conns, err = store.List(ctx)
	require.NoError(t, err)
	require.Empty(t, conns)
}
