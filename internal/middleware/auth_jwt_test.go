package middleware_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"app/internal/config"
	"app/internal/domain/model"
	"app/internal/middleware"
	"app/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

const testSecret = "test-secret"

func signToken(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	tok := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign failed: %v", err)
	}
	return signed
}

func validClaims(userID int64, tv int) jwt.MapClaims {
	now := time.Now()
	return jwt.MapClaims{
		"sub":  strconv.FormatInt(userID, 10),
		"role": string(model.RoleUser),
		"tv":   tv,
		"iat":  now.Unix(),
		"exp":  now.Add(15 * time.Minute).Unix(),
	}
}

func doRequest(mw echo.MiddlewareFunc, authz string) (*httptest.ResponseRecorder, echo.Context) {
	e := echo.New()

	var captured echo.Context
	handler := mw(func(c echo.Context) error {
		captured = c
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}
	rec := httptest.NewRecorder()

	c := e.NewContext(req, rec)
	_ = handler(c)

	if captured == nil {
		captured = c
	}
	return rec, captured
}

func TestAuthJWT_ValidToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, validClaims(7, 3))

	rec, c := doRequest(middleware.AuthJWT(cfg), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(middleware.CtxUserIDKey))
	assert.Equal(t, string(model.RoleUser), c.Get(middleware.CtxUserRoleKey))
	assert.Equal(t, 3, c.Get(middleware.CtxTokenVersionKey))
}

func TestAuthJWT_MissingHeader(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	rec, _ := doRequest(middleware.AuthJWT(cfg), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_WrongSecret(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, "other-secret", validClaims(7, 0))

	rec, _ := doRequest(middleware.AuthJWT(cfg), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthJWT_ExpiredToken(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	claims := validClaims(7, 0)
	claims["exp"] = time.Now().Add(-1 * time.Minute).Unix()
	token := signToken(t, testSecret, claims)

	rec, _ := doRequest(middleware.AuthJWT(cfg), "Bearer "+token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

// 任意認証版はトークンが無くても通すが、user_idは入らない
func TestAuthJWTOptional_NoTokenPassesThrough(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}

	rec, c := doRequest(middleware.AuthJWTOptional(cfg), "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Nil(t, c.Get(middleware.CtxUserIDKey))
}

func TestAuthJWTOptional_ValidTokenSetsUser(t *testing.T) {
	cfg := config.Config{JWTSecret: testSecret}
	token := signToken(t, testSecret, validClaims(7, 0))

	rec, c := doRequest(middleware.AuthJWTOptional(cfg), "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, int64(7), c.Get(middleware.CtxUserIDKey))
}

// =====================
// TokenVersionGuard
// =====================

type stubUserRepo struct {
	user *model.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *model.User) error { return nil }

func (r *stubUserRepo) FindByID(ctx context.Context, userID int64) (*model.User, error) {
	if r.user == nil || r.user.ID != userID {
		return nil, repository.ErrUserNotFound
	}
	return r.user, nil
}

func (r *stubUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return nil, repository.ErrUserNotFound
}

func (r *stubUserRepo) Update(ctx context.Context, user *model.User) error { return nil }

func doGuardedRequest(t *testing.T, userRepo repository.UserRepository, userID int64, tv int) *httptest.ResponseRecorder {
	t.Helper()

	e := echo.New()
	handler := middleware.TokenVersionGuard(userRepo)(func(c echo.Context) error {
		return c.NoContent(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	//AuthJWTが入れる値を直接セット
	c.Set(middleware.CtxUserIDKey, userID)
	c.Set(middleware.CtxTokenVersionKey, tv)

	_ = handler(c)
	return rec
}

func TestTokenVersionGuard_Match(t *testing.T) {
	repo := &stubUserRepo{user: &model.User{ID: 7, TokenVersion: 3, IsActive: true}}

	rec := doGuardedRequest(t, repo, 7, 3)
	assert.Equal(t, http.StatusOK, rec.Code)
}

// tv不一致＝強制ログアウト後の古いトークン
func TestTokenVersionGuard_Mismatch(t *testing.T) {
	repo := &stubUserRepo{user: &model.User{ID: 7, TokenVersion: 4, IsActive: true}}

	rec := doGuardedRequest(t, repo, 7, 3)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTokenVersionGuard_UnknownUser(t *testing.T) {
	repo := &stubUserRepo{}

	rec := doGuardedRequest(t, repo, 7, 0)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
