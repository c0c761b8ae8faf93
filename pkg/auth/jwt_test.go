package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

func newTestJWTService(t *testing.T) *JWTService {
	t.Helper()
	svc, err := NewJWTService(JWTConfig{
		Secret:     "test-secret-key-for-unit-tests",
		Issuer:     "heartcheck-test",
		Expiration: 15 * time.Minute,
	})
	require.NoError(t, err)
	return svc
}

func TestGenerateAndValidateToken(t *testing.T) {
	svc := newTestJWTService(t)

	token, err := svc.GenerateToken("clinician-1", []string{RoleOperator})
	require.NoError(t, err)

	claims, err := svc.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, "clinician-1", claims.Subject)
	assert.Equal(t, "heartcheck-test", claims.Issuer)
	assert.True(t, claims.HasRole(RoleOperator))
	assert.False(t, claims.HasRole(RoleAdmin))
}

func TestValidateToken_Expired(t *testing.T) {
	svc, err := NewJWTService(JWTConfig{Secret: "s"})
	require.NoError(t, err)
	svc.config.Expiration = -time.Minute

	token, err := svc.GenerateToken("u", nil)
	require.NoError(t, err)

	_, err = svc.ValidateToken(token)
	assert.Error(t, err)
}

func TestValidateToken_WrongIssuer(t *testing.T) {
	issuer := newTestJWTService(t)
	other, err := NewJWTService(JWTConfig{Secret: "test-secret-key-for-unit-tests", Issuer: "someone-else"})
	require.NoError(t, err)

	token, err := other.GenerateToken("u", nil)
	require.NoError(t, err)

	_, err = issuer.ValidateToken(token)
	assert.Error(t, err)
}

func TestNewJWTService_RequiresKeyMaterial(t *testing.T) {
	_, err := NewJWTService(JWTConfig{})
	assert.Error(t, err)
}

func TestRequireRoles(t *testing.T) {
	svc := newTestJWTService(t)
	admin, err := svc.GenerateToken("a", []string{RoleAdmin})
	require.NoError(t, err)
	viewer, err := svc.GenerateToken("v", []string{RoleViewer})
	require.NoError(t, err)

	var seen *Claims
	h := RequireRoles(svc, RoleAdmin, RoleOperator)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{name: "no token", header: "", want: http.StatusUnauthorized},
		{name: "garbage", header: "Bearer nope", want: http.StatusUnauthorized},
		{name: "wrong role", header: "Bearer " + viewer, want: http.StatusForbidden},
		{name: "admin", header: "Bearer " + admin, want: http.StatusNoContent},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/v1/retrain", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			assert.Equal(t, tt.want, rec.Code)
		})
	}
	require.NotNil(t, seen)
	assert.Equal(t, "a", seen.Subject)
}

func TestUnaryRoleInterceptor(t *testing.T) {
	svc := newTestJWTService(t)
	interceptor := UnaryRoleInterceptor(svc, map[string][]string{"/svc/Retrain": {RoleAdmin}})
	handler := func(ctx context.Context, req any) (any, error) { return "ok", nil }

	resp, err := interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Predict"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)

	_, err = interceptor(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Retrain"}, handler)
	assert.Equal(t, codes.Unauthenticated, status.Code(err))

	token, err := svc.GenerateToken("a", []string{RoleAdmin})
	require.NoError(t, err)
	ctx := metadata.NewIncomingContext(context.Background(), metadata.Pairs("authorization", "Bearer "+token))
	resp, err = interceptor(ctx, nil, &grpc.UnaryServerInfo{FullMethod: "/svc/Retrain"}, handler)
	require.NoError(t, err)
	assert.Equal(t, "ok", resp)
}
