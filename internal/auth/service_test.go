package auth

import (
	"testing"
	"time"

	"atendo/pkg/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubUserRepo struct {
	users map[uuid.UUID]*models.User
}

func newStubUserRepo(users ...*models.User) *stubUserRepo {
	r := &stubUserRepo{users: make(map[uuid.UUID]*models.User)}
	for _, u := range users {
		r.users[u.ID] = u
	}
	return r
}

func (r *stubUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, errNotFound
}

func (r *stubUserRepo) GetByID(id uuid.UUID) (*models.User, error) {
	u, ok := r.users[id]
	if !ok {
		return nil, errNotFound
	}
	return u, nil
}

func (r *stubUserRepo) Create(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

func (r *stubUserRepo) Update(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

var errNotFound = assert.AnError

func newActiveUser(t *testing.T, svc *Service, password string) *models.User {
	t.Helper()
	hash, err := svc.HashPassword(password)
	require.NoError(t, err)
	tenantID := uuid.New()
	return &models.User{
		BaseModel: models.BaseModel{ID: uuid.New(), CreatedAt: time.Now()},
		TenantID:  &tenantID,
		Email:     "agent@example.com",
		Password:  hash,
		Name:      "Agent",
		Role:      models.RoleAgent,
		IsActive:  true,
	}
}

func TestLoginAndValidateToken(t *testing.T) {
	svc := NewService(newStubUserRepo())
	user := newActiveUser(t, svc, "secret-password")
	svc.userRepo = newStubUserRepo(user)

	resp, err := svc.Login(LoginRequest{Email: user.Email, Password: "secret-password"})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, user.Email, resp.User.Email)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, user.TenantID, claims.TenantID)
	assert.Equal(t, models.RoleAgent, claims.Role)
	assert.Equal(t, "access", claims.Type)
}

func TestLoginRejectsWrongPassword(t *testing.T) {
	svc := NewService(newStubUserRepo())
	user := newActiveUser(t, svc, "secret-password")
	svc.userRepo = newStubUserRepo(user)

	_, err := svc.Login(LoginRequest{Email: user.Email, Password: "wrong"})
	assert.EqualError(t, err, "invalid credentials")
}

func TestLoginRejectsDisabledUser(t *testing.T) {
	svc := NewService(newStubUserRepo())
	user := newActiveUser(t, svc, "secret-password")
	user.IsActive = false
	svc.userRepo = newStubUserRepo(user)

	_, err := svc.Login(LoginRequest{Email: user.Email, Password: "secret-password"})
	assert.EqualError(t, err, "user account is disabled")
}

func TestRefreshTokenRejectsAccessToken(t *testing.T) {
	svc := NewService(newStubUserRepo())
	user := newActiveUser(t, svc, "secret-password")
	svc.userRepo = newStubUserRepo(user)

	resp, err := svc.Login(LoginRequest{Email: user.Email, Password: "secret-password"})
	require.NoError(t, err)

	_, err = svc.RefreshToken(resp.AccessToken)
	assert.EqualError(t, err, "invalid token type")

	refreshed, err := svc.RefreshToken(resp.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, refreshed.AccessToken)
}

func TestChangePassword(t *testing.T) {
	svc := NewService(newStubUserRepo())
	user := newActiveUser(t, svc, "secret-password")
	repo := newStubUserRepo(user)
	svc.userRepo = repo

	err := svc.ChangePassword(user.ID, "wrong", "new-password-1")
	assert.EqualError(t, err, "current password is incorrect")

	require.NoError(t, svc.ChangePassword(user.ID, "secret-password", "new-password-1"))

	_, err = svc.Login(LoginRequest{Email: user.Email, Password: "new-password-1"})
	assert.NoError(t, err)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewService(newStubUserRepo())

	_, err := svc.ValidateToken("not-a-token")
	assert.Error(t, err)
}
