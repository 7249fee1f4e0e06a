package session

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var (
	_ Store = (*MemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*RedisStore)(nil)
)

func exchange(n int) Exchange {
	return Exchange{
		Query:     fmt.Sprintf("question %d", n),
		Answer:    fmt.Sprintf("answer %d", n),
		CreatedAt: time.Now(),
	}
}

// testStoreBound appends max+1 exchanges and checks the oldest one was
// evicted, leaving exactly max entries.
func testStoreBound(t *testing.T, store Store, max int) {
	t.Helper()
	ctx := context.Background()

	for i := 0; i <= max; i++ {
		require.NoError(t, store.Append(ctx, "bounded", exchange(i)))
	}

	history, err := store.Exchanges(ctx, "bounded")
	require.NoError(t, err)
	require.Len(t, history, max, "history must hold exactly max exchanges after max+1 appends")

	assert.Equal(t, "question 1", history[0].Query, "oldest exchange must be evicted first")
	assert.Equal(t, fmt.Sprintf("question %d", max), history[max-1].Query, "most recent exchange must be last")
}

func TestMemoryStoreBound(t *testing.T) {
	testStoreBound(t, NewMemoryStore(2), 2)
}

func TestMemoryStoreLazyCreation(t *testing.T) {
	store := NewMemoryStore(2)

	history, err := store.Exchanges(context.Background(), "never-seen")
	require.NoError(t, err)
	assert.Empty(t, history, "unknown sessions read as empty, not as errors")
}

func TestMemoryStoreSessionIsolation(t *testing.T) {
	store := NewMemoryStore(5)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "a", exchange(1)))
	require.NoError(t, store.Append(ctx, "b", exchange(2)))

	historyA, err := store.Exchanges(ctx, "a")
	require.NoError(t, err)
	historyB, err := store.Exchanges(ctx, "b")
	require.NoError(t, err)

	require.Len(t, historyA, 1)
	require.Len(t, historyB, 1)
	assert.Equal(t, "question 1", historyA[0].Query)
	assert.Equal(t, "question 2", historyB[0].Query)
}

func TestMemoryStoreClear(t *testing.T) {
	store := NewMemoryStore(5)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "gone", exchange(1)))
	require.NoError(t, store.Clear(ctx, "gone"))

	history, err := store.Exchanges(ctx, "gone")
	require.NoError(t, err)
	assert.Empty(t, history)
}

func TestMemoryStoreReturnsCopy(t *testing.T) {
	store := NewMemoryStore(5)
	ctx := context.Background()
	require.NoError(t, store.Append(ctx, "s", exchange(1)))

	history, err := store.Exchanges(ctx, "s")
	require.NoError(t, err)
	history[0].Answer = "mutated"

	again, err := store.Exchanges(ctx, "s")
	require.NoError(t, err)
	assert.Equal(t, "answer 1", again[0].Answer, "callers must not be able to mutate stored history")
}

func TestMemoryStoreConcurrentSessions(t *testing.T) {
	store := NewMemoryStore(3)
	ctx := context.Background()

	var wg sync.WaitGroup
	for s := 0; s < 8; s++ {
		wg.Add(1)
		go func(s int) {
			defer wg.Done()
			id := fmt.Sprintf("session-%d", s)
			for i := 0; i < 10; i++ {
				_ = store.Append(ctx, id, exchange(i))
			}
		}(s)
	}
	wg.Wait()

	for s := 0; s < 8; s++ {
		history, err := store.Exchanges(ctx, fmt.Sprintf("session-%d", s))
		require.NoError(t, err)
		assert.Len(t, history, 3)
	}
}

func newTestSQLiteStore(t *testing.T, max int) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "sessions.db"), max)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestSQLiteStoreRoundTrip(t *testing.T) {
	store := newTestSQLiteStore(t, 5)
	ctx := context.Background()

	ex := Exchange{Query: "what is MCP?", Answer: "a protocol", CreatedAt: time.Now()}
	require.NoError(t, store.Append(ctx, "s1", ex))

	history, err := store.Exchanges(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, ex.Query, history[0].Query)
	assert.Equal(t, ex.Answer, history[0].Answer)
	assert.WithinDuration(t, ex.CreatedAt, history[0].CreatedAt, time.Second)
}

func TestSQLiteStoreBound(t *testing.T) {
	testStoreBound(t, newTestSQLiteStore(t, 2), 2)
}

func TestSQLiteStoreClear(t *testing.T) {
	store := newTestSQLiteStore(t, 5)
	ctx := context.Background()

	require.NoError(t, store.Append(ctx, "s1", exchange(1)))
	require.NoError(t, store.Append(ctx, "s2", exchange(2)))
	require.NoError(t, store.Clear(ctx, "s1"))

	history, err := store.Exchanges(ctx, "s1")
	require.NoError(t, err)
	assert.Empty(t, history)

	// Other sessions are untouched.
	history, err = store.Exchanges(ctx, "s2")
	require.NoError(t, err)
	assert.Len(t, history, 1)
}

func TestSQLiteStoreSurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sessions.db")
	ctx := context.Background()

	store, err := NewSQLiteStore(path, 5)
	require.NoError(t, err)
	require.NoError(t, store.Append(ctx, "durable", exchange(1)))
	require.NoError(t, store.Close())

	reopened, err := NewSQLiteStore(path, 5)
	require.NoError(t, err)
	defer reopened.Close()

	history, err := reopened.Exchanges(ctx, "durable")
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "question 1", history[0].Query)
}

func TestNewSessionID(t *testing.T) {
	a := NewSessionID()
	b := NewSessionID()

	assert.Len(t, a, 26, "ULIDs are 26 characters")
	assert.NotEqual(t, a, b, "session IDs must be unique")
}
