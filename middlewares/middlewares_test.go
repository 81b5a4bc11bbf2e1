package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/mmdatafocus/pos_backend/config"
	"github.com/mmdatafocus/pos_backend/models"
	"github.com/mmdatafocus/pos_backend/utils"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func setupRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	config.SetRedisClient(client)
	t.Cleanup(func() {
		config.SetRedisClient(nil)
		_ = client.Close()
	})
	return mr
}

// loginAs caches the user and registers a token for it, the same state Login leaves behind.
func loginAs(t *testing.T, user models.User) (string, string) {
	t.Helper()
	require.NoError(t, utils.StoreRedis[models.User](&user, user.ID))
	token, jti, err := utils.JwtGenerate(user.ID, string(user.Role), user.Email, user.FullName, time.Hour)
	require.NoError(t, err)
	require.NoError(t, config.SetRedisValue("Token:"+jti, strconv.Itoa(user.ID), time.Hour))
	require.NoError(t, config.AddRedisSet("Tokens:"+strconv.Itoa(user.ID), jti, time.Hour))
	return token, jti
}

func newRouter(roles ...models.UserRole) *gin.Engine {
	r := gin.New()
	r.Use(AuthMiddleware())
	r.GET("/private", RequireRoles(roles...), func(c *gin.Context) {
		id, _ := utils.GetUserIdFromContext(c.Request.Context())
		role, _ := utils.GetUserRoleFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"id": id, "role": role})
	})
	return r
}

func doGet(r http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestMissingTokenIsUnauthenticated(t *testing.T) {
	setupRedis(t)
	rec := doGet(newRouter(models.UserRoleAdmin), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"error":"not authenticated"}`, rec.Body.String())
}

func TestValidTokenWithAllowedRole(t *testing.T) {
	setupRedis(t)
	token, _ := loginAs(t, models.User{ID: 7, Email: "lead@pos.local", FullName: "Lead", Role: models.UserRoleShiftLead, IsActive: utils.NewTrue()})

	rec := doGet(newRouter(models.UserRoleAdmin, models.UserRoleShiftLead), token)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":7,"role":"SHIFT_LEAD"}`, rec.Body.String())
}

func TestWrongRoleIsForbidden(t *testing.T) {
	setupRedis(t)
	token, _ := loginAs(t, models.User{ID: 8, Email: "cashier@pos.local", FullName: "Cashier", Role: models.UserRoleCashier, IsActive: utils.NewTrue()})

	rec := doGet(newRouter(models.UserRoleAdmin), token)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.JSONEq(t, `{"error":"access denied"}`, rec.Body.String())
}

func TestRevokedTokenIsRejected(t *testing.T) {
	mr := setupRedis(t)
	token, jti := loginAs(t, models.User{ID: 9, Email: "a@pos.local", FullName: "A", Role: models.UserRoleAdmin, IsActive: utils.NewTrue()})
	mr.Del("Token:" + jti)

	rec := doGet(newRouter(models.UserRoleAdmin), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestInactiveUserLosesAllSessions(t *testing.T) {
	mr := setupRedis(t)
	user := models.User{ID: 10, Email: "gone@pos.local", FullName: "Gone", Role: models.UserRoleCashier, IsActive: utils.NewFalse()}
	token, jti := loginAs(t, user)

	rec := doGet(newRouter(models.UserRoleCashier), token)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.False(t, mr.Exists("Token:"+jti))
	assert.False(t, mr.Exists("Tokens:10"))
	assert.False(t, mr.Exists("User:10"))
}

func TestMalformedAuthorizationHeader(t *testing.T) {
	setupRedis(t)
	r := newRouter(models.UserRoleAdmin)
	req := httptest.NewRequest(http.MethodGet, "/private", nil)
	req.Header.Set("Authorization", "Token abc")
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLoginLimiterBlocksAfterBurst(t *testing.T) {
	limiter := NewLoginLimiter(5, 2)
	r := gin.New()
	r.POST("/auth/login", limiter.Middleware(), func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
		req.RemoteAddr = "10.0.0.1:5555"
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)

	// another client has its own bucket
	req := httptest.NewRequest(http.MethodPost, "/auth/login", nil)
	req.RemoteAddr = "10.0.0.2:5555"
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLoginLimiterCleanupDropsIdle(t *testing.T) {
	limiter := NewLoginLimiter(5, 1)
	limiter.getLimiter("10.0.0.1")
	limiter.limiters["10.0.0.1"].lastSeen = time.Now().Add(-time.Hour)
	limiter.getLimiter("10.0.0.2")

	limiter.Cleanup()
	assert.Len(t, limiter.limiters, 1)
	assert.Contains(t, limiter.limiters, "10.0.0.2")
}

func TestRedisRateLimiter(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	rl := NewRateLimiter(client, 2, time.Minute)
	r := gin.New()
	r.Use(rl.RateLimitMiddleware)
	r.GET("/x", func(c *gin.Context) { c.Status(http.StatusOK) })

	var last int
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodGet, "/x", nil)
		req.RemoteAddr = "10.1.1.1:1000"
		r.ServeHTTP(rec, req)
		last = rec.Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
	assert.True(t, mr.TTL("RateLimit:10.1.1.1") > 0)
}
