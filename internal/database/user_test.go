package database_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jason-s-yu/bubugame/internal/common"
	"github.com/jason-s-yu/bubugame/internal/database"
	"github.com/jason-s-yu/bubugame/internal/database/testutil"
	"github.com/jason-s-yu/bubugame/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newUser(name string) *models.User {
	return &models.User{Username: name, Password: "$argon2id$placeholder"}
}

func TestUserStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	store := database.NewUserStore(testDB.DB)
	ctx := context.Background()

	u := newUser("alice")
	u.Email = "alice@example.com"
	require.NoError(t, store.CreateUser(ctx, u))
	assert.NotEqual(t, uuid.Nil, u.ID)
	assert.False(t, u.CreatedAt.IsZero())
	assert.Equal(t, 0, u.CurrentScore)
	assert.Equal(t, 1, u.CurrentLevel)

	t.Run("by username", func(t *testing.T) {
		got, err := store.GetUserByUsername(ctx, "alice")
		require.NoError(t, err)
		assert.Equal(t, u.ID, got.ID)
		assert.Equal(t, "alice@example.com", got.Email)
		assert.Equal(t, u.Password, got.Password)
		assert.Nil(t, got.ProgressUpdatedAt)
	})

	t.Run("by id", func(t *testing.T) {
		got, err := store.GetUserByID(ctx, u.ID)
		require.NoError(t, err)
		assert.Equal(t, "alice", got.Username)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := store.GetUserByUsername(ctx, "nobody")
		assert.ErrorIs(t, err, common.ErrNotFound)
		_, err = store.GetUserByID(ctx, uuid.New())
		assert.ErrorIs(t, err, common.ErrNotFound)
	})
}

func TestUserStore_DuplicateUsername(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	store := database.NewUserStore(testDB.DB)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, newUser("bob")))
	err := store.CreateUser(ctx, newUser("bob"))
	assert.ErrorIs(t, err, common.ErrUsernameTaken)

	// email is not unique
	a, b := newUser("carol"), newUser("dave")
	a.Email, b.Email = "shared@example.com", "shared@example.com"
	require.NoError(t, store.CreateUser(ctx, a))
	require.NoError(t, store.CreateUser(ctx, b))
}

func TestUserStore_ConcurrentRegistration(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	store := database.NewUserStore(testDB.DB)
	ctx := context.Background()

	const attempts = 8
	errs := make([]error, attempts)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			errs[i] = store.CreateUser(ctx, newUser("racer"))
		}(i)
	}
	close(start)
	wg.Wait()

	var ok, taken int
	for _, err := range errs {
		switch {
		case err == nil:
			ok++
		case assert.ErrorIs(t, err, common.ErrUsernameTaken):
			taken++
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, attempts-1, taken)
}

func TestUserStore_SaveProgress(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	store := database.NewUserStore(testDB.DB)
	ctx := context.Background()

	u := newUser("erin")
	require.NoError(t, store.CreateUser(ctx, u))

	require.NoError(t, store.SaveProgress(ctx, u.ID, 500, 7))
	require.NoError(t, store.SaveProgress(ctx, u.ID, 10, 2))

	got, err := store.GetUserByID(ctx, u.ID)
	require.NoError(t, err)
	assert.Equal(t, 10, got.CurrentScore)
	assert.Equal(t, 2, got.CurrentLevel)
	require.NotNil(t, got.ProgressUpdatedAt)
	assert.WithinDuration(t, time.Now(), *got.ProgressUpdatedAt, time.Minute)

	err = store.SaveProgress(ctx, uuid.New(), 1, 1)
	assert.ErrorIs(t, err, common.ErrInvalidIdentity)
}

func TestUserStore_PurgeMalformedUsers(t *testing.T) {
	t.Parallel()
	testDB := testutil.SetupTestDatabase(t)
	store := database.NewUserStore(testDB.DB)
	ctx := context.Background()

	require.NoError(t, store.CreateUser(ctx, newUser("frank")))
	require.NoError(t, store.CreateUser(ctx, newUser("")))
	require.NoError(t, store.CreateUser(ctx, newUser("   ")))

	n, err := store.PurgeMalformedUsers(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	_, err = store.GetUserByUsername(ctx, "frank")
	assert.NoError(t, err)
	_, err = store.GetUserByUsername(ctx, "")
	assert.ErrorIs(t, err, common.ErrNotFound)
}
