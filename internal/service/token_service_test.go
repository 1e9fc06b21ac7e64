package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/campus-schedule-api/internal/models"
	appErrors "github.com/noah-isme/campus-schedule-api/pkg/errors"
)

func TestTokenServiceRoundTrip(t *testing.T) {
	svc := NewTokenService("secret")

	token, err := svc.Issue(models.JWTClaims{UserID: "u-1", Role: models.RoleCoordinator}, time.Hour)
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", claims.UserID)
	assert.Equal(t, models.RoleCoordinator, claims.Role)
}

func TestTokenServiceRejectsForeignSecret(t *testing.T) {
	token, err := NewTokenService("other").Issue(models.JWTClaims{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService("secret").ValidateToken(token)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestTokenServiceRejectsExpired(t *testing.T) {
	svc := NewTokenService("secret")
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, err := svc.Issue(models.JWTClaims{UserID: "u-1"}, time.Hour)
	require.NoError(t, err)

	_, err = NewTokenService("secret").ValidateToken(token)
	require.Error(t, err)
}

func TestTokenServiceRejectsMissingUser(t *testing.T) {
	svc := NewTokenService("secret")
	token, err := svc.Issue(models.JWTClaims{Role: models.RoleAdmin}, time.Hour)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	require.Error(t, err)
}
