package middleware

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/cppla/blogapi/models"
	"github.com/cppla/blogapi/utils"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	utils.PasswordCost = bcrypt.MinCost
	os.Exit(m.Run())
}

type fixture struct {
	db     *gorm.DB
	tokens *utils.TokenManager
	router *gin.Engine
	alice  models.User
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&models.User{}))

	hash, err := utils.HashPassword("pw1")
	require.NoError(t, err)
	alice := models.User{Email: "alice@example.com", Username: "alice", PasswordHash: hash}
	require.NoError(t, db.Create(&alice).Error)

	tokens := utils.NewTokenManager("secret", time.Hour, nil)
	r := gin.New()
	r.GET("/whoami", AuthRequired(db, tokens), func(ctx *gin.Context) {
		actor, ok := CurrentActor(ctx)
		require.True(t, ok)
		_, bearer := CurrentClaims(ctx)
		ctx.JSON(http.StatusOK, gin.H{"id": actor.ID, "username": actor.Username, "bearer": bearer})
	})
	return &fixture{db: db, tokens: tokens, router: r, alice: alice}
}

func (f *fixture) call(header string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

func basic(user, password string) string {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.SetBasicAuth(user, password)
	return req.Header.Get("Authorization")
}

func TestBasicAuthentication(t *testing.T) {
	f := newFixture(t)

	w := f.call(basic("alice", "pw1"))
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, fmt.Sprintf(`{"id":%d,"username":"alice","bearer":false}`, f.alice.ID), w.Body.String())
}

func TestRejections(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name   string
		header string
		code   string
	}{
		{name: "missing header", header: "", code: "40101"},
		{name: "wrong password", header: basic("alice", "nope"), code: "40102"},
		{name: "unknown user", header: basic("mallory", "pw1"), code: "40102"},
		{name: "unsupported scheme", header: "Digest abc", code: "40101"},
		{name: "empty bearer", header: "Bearer ", code: "40101"},
		{name: "malformed bearer", header: "Bearer not-a-jwt", code: "40103"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := f.call(tt.header)
			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.Equal(t, `Basic realm="Authentication Required"`, w.Header().Get("WWW-Authenticate"))
			assert.Contains(t, w.Body.String(), tt.code)
		})
	}
}

func TestBearerAuthentication(t *testing.T) {
	f := newFixture(t)
	token, claims, err := f.tokens.Issue(f.alice.ID, f.alice.Username)
	require.NoError(t, err)

	w := f.call("Bearer " + token)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"bearer":true`)

	require.NoError(t, f.tokens.Revoke(context.Background(), claims))
	w = f.call("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "40104")
}

func TestBearerForDeletedUser(t *testing.T) {
	f := newFixture(t)
	token, _, err := f.tokens.Issue(f.alice.ID, f.alice.Username)
	require.NoError(t, err)
	require.NoError(t, f.db.Delete(&models.User{}, f.alice.ID).Error)

	w := f.call("Bearer " + token)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "40103")
}
