package service

import (
	"context"
	"testing"
	"time"

	"bitwise74/bucket-panel/db"
	"bitwise74/bucket-panel/internal/model"
	"bitwise74/bucket-panel/pkg/permission"
	"bitwise74/bucket-panel/pkg/security"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	d, err := db.New("sqlite", ":memory:")
	require.NoError(t, err)

	return d
}

func fastHasher() *security.PasswordHasher {
	h := security.NewPasswordHasher()
	h.Memory = 8 * 1024
	h.Iterations = 1

	return h
}

func TestUsersCreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t), fastHasher())

	u, password, err := users.Create(ctx, CreateUserRequest{
		Name:        " Ana ",
		Email:       "Ana@Example.com",
		Permissions: []permission.Permission{permission.Upload, "root", permission.Upload},
	})
	require.NoError(t, err)

	assert.Equal(t, "Ana", u.Name)
	assert.Equal(t, "ana@example.com", u.Email)
	assert.Equal(t, permission.Editor, u.Role)
	assert.Equal(t, permission.Invited, u.Status)
	assert.Equal(t, model.StringSlice{"upload"}, u.Permissions)
	assert.NotContains(t, u.PasswordHash, password)
	assert.Len(t, password, security.TempPasswordLength)

	logged, err := users.Authenticate(ctx, "ANA@example.com ", password)
	require.NoError(t, err)
	assert.Equal(t, permission.Active, logged.Status)
	assert.NotNil(t, logged.LastAccessAt)

	_, err = users.Authenticate(ctx, "ana@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = users.Authenticate(ctx, "nobody@example.com", password)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, _, err = users.Create(ctx, CreateUserRequest{Name: "Other", Email: "ana@EXAMPLE.com"})
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUsersCreateValidation(t *testing.T) {
	users := NewUsers(newTestDB(t), fastHasher())

	for _, req := range []CreateUserRequest{
		{Name: "", Email: "a@example.com"},
		{Name: "A", Email: ""},
		{Name: "A", Email: "not-an-email"},
		{Name: "A", Email: "a@example.com", Role: "owner"},
	} {
		_, _, err := users.Create(context.Background(), req)
		assert.ErrorIs(t, err, ErrValidation, "%+v", req)
	}
}

func TestUsersUpdate(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t), fastHasher())

	a, _, err := users.Create(ctx, CreateUserRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)
	_, _, err = users.Create(ctx, CreateUserRequest{Name: "B", Email: "b@example.com"})
	require.NoError(t, err)

	t.Run("empty patch", func(t *testing.T) {
		_, _, err := users.Update(ctx, a.ID, UserPatch{})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("invalid role and status", func(t *testing.T) {
		bad := "owner"
		_, _, err := users.Update(ctx, a.ID, UserPatch{Role: &bad})
		assert.ErrorIs(t, err, ErrValidation)

		_, _, err = users.Update(ctx, a.ID, UserPatch{Status: &bad})
		assert.ErrorIs(t, err, ErrValidation)
	})

	t.Run("duplicate email", func(t *testing.T) {
		email := "B@example.com"
		_, _, err := users.Update(ctx, a.ID, UserPatch{Email: &email})
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("unknown id", func(t *testing.T) {
		name := "X"
		_, _, err := users.Update(ctx, "missing", UserPatch{Name: &name})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("fields and password", func(t *testing.T) {
		role, status := "viewer", "blocked"
		u, password, err := users.Update(ctx, a.ID, UserPatch{
			Role:               &role,
			Status:             &status,
			Permissions:        []permission.Permission{permission.View},
			SetPermissions:     true,
			RegeneratePassword: true,
		})
		require.NoError(t, err)

		assert.Equal(t, permission.Viewer, u.Role)
		assert.Equal(t, permission.Blocked, u.Status)
		assert.Equal(t, []permission.Permission{permission.View}, u.Granted())
		assert.NotEmpty(t, password)

		// Blocked users can't log in even with the right password
		_, err = users.Authenticate(ctx, "a@example.com", password)
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestUsersAcceptTerms(t *testing.T) {
	ctx := context.Background()
	users := NewUsers(newTestDB(t), fastHasher())

	u, _, err := users.Create(ctx, CreateUserRequest{Name: "A", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = users.AcceptTerms(ctx, u.ID, "ok")
	assert.ErrorIs(t, err, ErrValidation)

	accepted, err := users.AcceptTerms(ctx, u.ID, "  Entendido ")
	require.NoError(t, err)
	require.NotNil(t, accepted.TermsAcceptedAt)

	again, err := users.AcceptTerms(ctx, u.ID, "entendido")
	require.NoError(t, err)
	assert.True(t, accepted.TermsAcceptedAt.Equal(*again.TermsAcceptedAt))

	_, err = users.AcceptTerms(ctx, "missing", "entendido")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSettings(t *testing.T) {
	ctx := context.Background()
	s := NewSettings(newTestDB(t))

	_, err := s.Get(ctx)
	assert.ErrorIs(t, err, ErrSetupRequired)

	_, err = s.Upsert(ctx, SettingsInput{BucketName: "media"})
	assert.ErrorIs(t, err, ErrValidation)

	rec, err := s.Upsert(ctx, SettingsInput{BucketName: "media", Region: "us-east-1", AccessKey: "AK", SecretKey: "SK"})
	require.NoError(t, err)
	assert.True(t, rec.Complete())

	rec, err = s.Upsert(ctx, SettingsInput{BucketName: "media2", Region: "us-east-1", AccessKey: "AK2", CDNHost: "cdn.example.com"})
	require.NoError(t, err)
	assert.Equal(t, "SK", rec.SecretKey)

	got, err := s.Get(ctx)
	require.NoError(t, err)
	assert.Equal(t, "media2", got.BucketName)

	clean := Sanitize(got)
	assert.True(t, clean.HasSecretKey)
	assert.Equal(t, "AK2", clean.AccessKey)
	assert.Equal(t, "cdn.example.com", BucketCredentials(got).CDNHost)
}

func TestOnboarding(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	users := NewUsers(d, fastHasher())
	o := NewOnboarding(d, users, NewSettings(d), time.Hour)
	defer o.Close()

	done, err := o.Completed(ctx)
	require.NoError(t, err)
	assert.False(t, done)

	_, err = o.Complete(ctx, OnboardingRequest{AdminEmail: "a@example.com"})
	assert.ErrorIs(t, err, ErrValidation)

	req := OnboardingRequest{
		AppHost:       "https://panel.example.com",
		AdminName:     "Admin",
		AdminEmail:    "Admin@Example.com",
		AdminPassword: "correct horse",
		BucketName:    "media",
		Region:        "us-east-1",
		AccessKey:     "AK",
		SecretKey:     "SK",
	}

	res, err := o.Complete(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, permission.Admin, res.Admin.Role)
	assert.Equal(t, permission.Active, res.Admin.Status)
	assert.Equal(t, permission.All, res.Admin.Granted())
	assert.Equal(t, "https://panel.example.com", res.Settings.AppHost)

	// The negative answer was cached, Complete must have invalidated it
	done, err = o.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	_, err = users.Authenticate(ctx, "admin@example.com", "correct horse")
	assert.NoError(t, err)

	req.AdminPassword = "another secret"
	_, err = o.Complete(ctx, req)
	assert.ErrorIs(t, err, ErrSetupCompleted)

	// A stale negative cache entry must not let a second run through
	o.cache.Set(completedKey, false)
	_, err = o.Complete(ctx, req)
	assert.ErrorIs(t, err, ErrSetupCompleted)

	_, err = users.Authenticate(ctx, "admin@example.com", "another secret")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = users.Authenticate(ctx, "admin@example.com", "correct horse")
	assert.NoError(t, err)

	list, err := users.List(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestOnboardingCacheIsSticky(t *testing.T) {
	ctx := context.Background()
	d := newTestDB(t)
	o := NewOnboarding(d, NewUsers(d, fastHasher()), NewSettings(d), time.Hour)
	defer o.Close()

	now := time.Now()
	require.NoError(t, d.Create(&model.OnboardingState{ID: model.OnboardingID, CompletedAt: &now}).Error)

	done, err := o.Completed(ctx)
	require.NoError(t, err)
	assert.True(t, done)

	require.NoError(t, d.Where("id = ?", model.OnboardingID).Delete(&model.OnboardingState{}).Error)

	done, _ = o.Completed(ctx)
	assert.True(t, done)

	o.Invalidate()
	done, _ = o.Completed(ctx)
	assert.False(t, done)
}

func TestActivityLog(t *testing.T) {
	ctx := context.Background()
	l := NewActivityLog(newTestDB(t), 16)
	defer l.Close()

	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	i := 0
	l.now = func() time.Time {
		i++
		return base.Add(time.Duration(i) * time.Minute)
	}

	ana := Actor{ID: "1", Name: "Ana", Email: "ana@example.com"}
	bob := Actor{ID: "2", Name: "Bob", Email: "bob@example.com"}

	l.Record(ana, model.ActionUploadPrepared, "2024/clip.mp4", "")
	l.Record(bob, model.ActionFolderCreated, "2024/Reports/", "")
	l.Record(ana, model.ActionDeleted, "old.png", "100%_done")
	require.NoError(t, l.Flush(ctx))

	all, err := l.Query(ctx, "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, model.ActionDeleted, all[0].Action)
	assert.Nil(t, all[1].Details)

	byName, err := l.Query(ctx, "BOB", 0)
	require.NoError(t, err)
	require.Len(t, byName, 1)
	assert.Equal(t, "2024/Reports/", *byName[0].TargetKey)

	byAction, err := l.Query(ctx, "upload_prepared", 0)
	require.NoError(t, err)
	assert.Len(t, byAction, 1)

	wildcard, err := l.Query(ctx, "%_", 0)
	require.NoError(t, err)
	assert.Len(t, wildcard, 1)

	limited, err := l.Query(ctx, "", 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}

func TestActivityLogClosed(t *testing.T) {
	l := NewActivityLog(newTestDB(t), 1)
	l.Close()

	// Must neither panic nor block
	l.Record(Actor{ID: "1"}, model.ActionDeleted, "x", "")
	assert.ErrorIs(t, l.Flush(context.Background()), ErrActivityClosed)
}
