package services

import (
	"testing"

	"github.com/Kariqs/eshop-api/models"
	"github.com/Kariqs/eshop-api/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSignupAndLogin(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	user, err := env.users.Signup(ctx, models.SignupData{
		Username: "alice",
		Email:    "Alice@Example.com",
		Password: "correct-horse",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.NotEqual(t, "correct-horse", user.Password)

	token, loggedIn, err := env.users.Login(ctx, "alice@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, user.ID, loggedIn.ID)

	claims, err := env.users.tokens.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "alice", claims.Username)

	_, _, err = env.users.Login(ctx, "alice", "wrong-password")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)

	_, _, err = env.users.Login(ctx, "nobody", "correct-horse")
	assert.ErrorIs(t, err, utils.ErrUnauthorized)
}

func TestSignup_Duplicate(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)
	data := models.SignupData{Username: "bob", Email: "bob@example.com", Password: "password1"}

	_, err := env.users.Signup(ctx, data)
	require.NoError(t, err)

	_, err = env.users.Signup(ctx, data)
	assert.ErrorIs(t, err, utils.ErrConflict)
}

func TestCreateAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := testContext(t)

	admin, err := env.users.CreateAdmin(ctx, models.SignupData{Username: "root", Email: "root@example.com", Password: "password1"})
	require.NoError(t, err)
	assert.True(t, admin.IsAdmin())

	stored, err := env.users.Get(ctx, admin.ID)
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, stored.Role)
}
