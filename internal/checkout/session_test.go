package checkout

import (
	"context"
	"io"
	"sync"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/namprobe/nekovi-checkout/pkg/enums"
	pkgerrors "github.com/namprobe/nekovi-checkout/pkg/errors"
	"github.com/namprobe/nekovi-checkout/pkg/logger"
	"github.com/namprobe/nekovi-checkout/pkg/redis"
)

// fakeRedisStore is an in-memory stand-in for the redis command surface.
type fakeRedisStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newFakeRedisStore() *fakeRedisStore {
	return &fakeRedisStore{data: map[string]string{}}
}

func (f *fakeRedisStore) Ping(ctx context.Context) *goredis.StatusCmd {
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("PONG")
	return cmd
}

func (f *fakeRedisStore) Set(ctx context.Context, key string, value any, _ time.Duration) *goredis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = stringify(value)
	cmd := goredis.NewStatusCmd(ctx)
	cmd.SetVal("OK")
	return cmd
}

func (f *fakeRedisStore) Get(ctx context.Context, key string) *goredis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewStringCmd(ctx)
	if val, ok := f.data[key]; ok {
		cmd.SetVal(val)
	} else {
		cmd.SetErr(goredis.Nil)
	}
	return cmd
}

func (f *fakeRedisStore) SetNX(ctx context.Context, key string, value any, _ time.Duration) *goredis.BoolCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewBoolCmd(ctx)
	if _, exists := f.data[key]; exists {
		cmd.SetVal(false)
		return cmd
	}
	f.data[key] = stringify(value)
	cmd.SetVal(true)
	return cmd
}

func (f *fakeRedisStore) Del(ctx context.Context, keys ...string) *goredis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	cmd := goredis.NewIntCmd(ctx)
	var removed int64
	for _, key := range keys {
		if _, ok := f.data[key]; ok {
			delete(f.data, key)
			removed++
		}
	}
	cmd.SetVal(removed)
	return cmd
}

func stringify(value any) string {
	switch v := value.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	default:
		return ""
	}
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := NewStore(redis.NewFromCmdable(newFakeRedisStore()), 2*time.Hour)
	require.NoError(t, err)
	return store
}

func newTestLogger() *logger.Logger {
	return logger.New(logger.Options{
		ServiceName: "checkout-test",
		Output:      io.Discard,
	})
}

func TestStoreCreateAndGetRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	session, err := store.Create(ctx, enums.OrderOriginCart, nil)
	require.NoError(t, err)
	require.NotEmpty(t, session.Key)
	assert.Equal(t, enums.ShippingStateNoAddress, session.ShippingState)
	assert.Equal(t, enums.SubmissionStateIdle, session.SubmissionState)
	assert.Equal(t, 1, session.Page)

	loaded, err := store.Get(ctx, session.Key)
	require.NoError(t, err)
	assert.Equal(t, session.Key, loaded.Key)
	assert.Equal(t, enums.OrderOriginCart, loaded.Origin)
}

func TestStoreGetMissingSession(t *testing.T) {
	store := newTestStore(t)

	_, err := store.Get(context.Background(), "nope")
	require.Error(t, err)
	typed := pkgerrors.As(err)
	require.NotNil(t, typed)
	assert.Equal(t, pkgerrors.CodeNotFound, typed.Code())
}

func TestStoreSubmitLockSingleWinner(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	first, err := store.AcquireSubmitLock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, first)

	second, err := store.AcquireSubmitLock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.False(t, second)

	require.NoError(t, store.ReleaseSubmitLock(ctx, "sess-1"))
	third, err := store.AcquireSubmitLock(ctx, "sess-1", time.Minute)
	require.NoError(t, err)
	assert.True(t, third)
}
