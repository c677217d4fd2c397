package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/aqi-advisor/pkg/errors"
)

func TestService_RegisterLoginAndRefresh(t *testing.T) {
	repo := newMemoryRepo()
	svc := newTestService(repo)

	view, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "User@Example.com",
		Password: "pass1234",
		Name:     " Priya   Sharma ",
		City:     "Delhi",
	})
	require.NoError(t, err)
	require.Equal(t, "user@example.com", view.Email)
	require.Equal(t, "Priya Sharma", view.Name)
	require.Equal(t, "Delhi", view.City)
	require.NotZero(t, view.ID)

	resp, err := svc.Login(context.Background(), LoginRequest{
		Email:    "user@example.com",
		Password: "pass1234",
	})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)
	require.NotEmpty(t, resp.RefreshToken)
	require.Equal(t, view.Email, resp.User.Email)

	claims, err := svc.ValidateToken(context.Background(), resp.Token)
	require.NoError(t, err)
	require.Equal(t, view.ID, claims.UserID)
	require.Equal(t, view.Email, claims.Email)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)

	_, err = svc.ValidateToken(context.Background(), resp.RefreshToken)
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))

	refreshed, err := svc.Refresh(context.Background(), resp.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, resp.Token, refreshed.Token)
	require.Equal(t, resp.User.Email, refreshed.User.Email)
	require.Equal(t, "Priya Sharma", refreshed.User.Name)
}

func TestService_DuplicateEmail(t *testing.T) {
	svc := newTestService(newMemoryRepo())

	_, err := svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass1234",
		Name:     "Nick One",
	})
	require.NoError(t, err)

	_, err = svc.Register(context.Background(), RegisterRequest{
		Email:    "user@example.com",
		Password: "pass12345",
		Name:     "Nick Two",
	})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, apperrors.CodeEmailExists))
}

func TestService_LoginRejectsBadCredentials(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	_, err := svc.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: "pass1234", Name: "Ann"})
	require.NoError(t, err)

	_, err = svc.Login(context.Background(), LoginRequest{Email: "a@example.com", Password: "wrong-pass"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))

	_, err = svc.Login(context.Background(), LoginRequest{Email: "b@example.com", Password: "pass1234"})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidCredentials))

	_, err = svc.ValidateToken(context.Background(), "not-a-token")
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidToken))
}

func TestService_RegisterValidation(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	tests := []RegisterRequest{
		{Email: "bad", Password: "pass1234", Name: "Ann"},
		{Email: "a@example.com", Password: "short", Name: "Ann"},
		{Email: "a@example.com", Password: "pass1234", Name: "  "},
		{Email: "a@example.com", Password: "pass1234", Name: "R2D2"},
	}
	for _, req := range tests {
		_, err := svc.Register(context.Background(), req)
		require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput), "request %+v", req)
	}
}

func TestService_UpdateProfile(t *testing.T) {
	svc := newTestService(newMemoryRepo())
	view, err := svc.Register(context.Background(), RegisterRequest{Email: "a@example.com", Password: "pass1234", Name: "Ann"})
	require.NoError(t, err)

	age := 67
	city := " New  Delhi "
	conditions := []string{"Asthma", "asthma", " COPD "}
	chat := int64(99)
	updated, err := svc.UpdateProfile(context.Background(), view.ID, ProfileUpdate{
		Age:              &age,
		City:             &city,
		HealthConditions: &conditions,
		TelegramChatID:   &chat,
	})
	require.NoError(t, err)
	require.Equal(t, 67, updated.Age)
	require.Equal(t, "New Delhi", updated.City)
	require.Equal(t, []string{"asthma", "copd"}, updated.HealthConditions)
	require.Equal(t, int64(99), updated.TelegramChatID)
	require.Equal(t, "Ann", updated.Name)

	profile, err := svc.Profile(context.Background(), view.ID)
	require.NoError(t, err)
	require.Equal(t, updated, profile)

	bad := 130
	_, err = svc.UpdateProfile(context.Background(), view.ID, ProfileUpdate{Age: &bad})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	mixed := []string{"none", "asthma"}
	_, err = svc.UpdateProfile(context.Background(), view.ID, ProfileUpdate{HealthConditions: &mixed})
	require.True(t, apperrors.IsCode(err, apperrors.CodeInvalidInput))

	_, err = svc.UpdateProfile(context.Background(), 404, ProfileUpdate{Age: &age})
	require.True(t, apperrors.IsCode(err, apperrors.CodeUserNotFound))
}

func newTestService(repo Repository) Service {
	return NewService(Config{
		Secret:          "test-secret",
		TokenTTL:        time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
	}, repo, newTestLogger())
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}

type memoryRepo struct {
	users map[int64]User
	seq   int64
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{users: make(map[int64]User)}
}

func (m *memoryRepo) Create(_ context.Context, user User) (User, error) {
	m.seq++
	user.ID = m.seq
	user.CreatedAt = time.Now()
	m.users[user.ID] = user
	return user, nil
}

func (m *memoryRepo) GetByEmail(_ context.Context, email string) (User, bool, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, true, nil
		}
	}
	return User{}, false, nil
}

func (m *memoryRepo) GetByID(_ context.Context, id int64) (User, bool, error) {
	user, ok := m.users[id]
	return user, ok, nil
}

func (m *memoryRepo) UpdateProfile(_ context.Context, user User) (User, error) {
	if _, ok := m.users[user.ID]; !ok {
		return User{}, ErrUserNotFound
	}
	m.users[user.ID] = user
	return user, nil
}
