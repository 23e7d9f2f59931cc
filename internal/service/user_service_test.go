package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/contacts-api/internal/apperr"
	"github.com/iliyamo/contacts-api/internal/model"
	"github.com/iliyamo/contacts-api/internal/storage"
	"github.com/iliyamo/contacts-api/internal/testutil"
)

type mockUploader struct{ mock.Mock }

func (m *mockUploader) Upload(ctx context.Context, data []byte, contentType, owner string) (string, error) {
	args := m.Called(ctx, data, contentType, owner)
	return args.String(0), args.Error(1)
}

func newUserFixture() (*UserService, *testutil.Users, *testutil.Cache, *mockUploader) {
	users := testutil.NewUsers()
	cache := testutil.NewCache()
	up := &mockUploader{}
	return NewUserService(users, up, cache, testutil.DiscardLogger()), users, cache, up
}

func TestUpdateAvatar(t *testing.T) {
	svc, users, cache, up := newUserFixture()
	u := users.Add(model.User{Username: "alice", Email: "alice@example.com", Confirmed: true})
	cache.Set(context.Background(), u, time.Hour)

	data := []byte("png-bytes")
	up.On("Upload", mock.Anything, data, "image/png", "alice").Return("https://cdn/avatars/alice/x.png", nil).Once()

	got, err := svc.UpdateAvatar(context.Background(), u, data, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn/avatars/alice/x.png", got.Avatar)
	assert.False(t, cache.Has("alice"))
	up.AssertExpectations(t)
}

func TestUpdateAvatar_Unconfirmed(t *testing.T) {
	svc, users, _, up := newUserFixture()
	u := users.Add(model.User{Username: "alice", Email: "alice@example.com"})

	_, err := svc.UpdateAvatar(context.Background(), u, []byte("x"), "image/png")
	require.ErrorIs(t, err, apperr.ErrForbidden)
	up.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateAvatar_UploadFailureKeepsCache(t *testing.T) {
	svc, users, cache, up := newUserFixture()
	u := users.Add(model.User{Username: "alice", Email: "alice@example.com", Confirmed: true})
	cache.Set(context.Background(), u, time.Hour)
	up.On("Upload", mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return("", apperr.Upstream("avatar upload failed", assert.AnError))

	_, err := svc.UpdateAvatar(context.Background(), u, []byte("x"), "image/png")
	require.ErrorIs(t, err, apperr.ErrUpstream)
	assert.True(t, cache.Has("alice"))
}

func TestResetAvatar(t *testing.T) {
	svc, users, cache, _ := newUserFixture()
	u := users.Add(model.User{Username: "alice", Email: "alice@example.com", Avatar: "https://cdn/old.png"})
	cache.Set(context.Background(), u, time.Hour)

	got, err := svc.ResetAvatar(context.Background(), u)
	require.NoError(t, err)
	assert.Equal(t, storage.GravatarURL("alice@example.com"), got.Avatar)
	assert.False(t, cache.Has("alice"))
}

func TestUpdateRole(t *testing.T) {
	svc, users, cache, _ := newUserFixture()
	u := users.Add(model.User{Username: "bob", Email: "bob@example.com", Confirmed: true})
	cache.Set(context.Background(), u, time.Hour)

	got, err := svc.UpdateRole(context.Background(), "BOB@example.com", model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, got.Role)
	assert.False(t, cache.Has("bob"))

	_, err = svc.UpdateRole(context.Background(), "ghost@example.com", model.RoleAdmin)
	require.ErrorIs(t, err, apperr.ErrNotFound)

	_, err = svc.UpdateRole(context.Background(), "bob@example.com", model.Role("superuser"))
	require.ErrorIs(t, err, apperr.ErrBadRequest)
}
