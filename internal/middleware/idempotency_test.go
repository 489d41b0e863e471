package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"leaveflow/internal/middleware"
	"leaveflow/internal/shared/contextutil"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
)

// withActor mimics the context middleware putting the authenticated
// employee id on the request context.
func withActor(actorID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := contextutil.WithActorID(c.Request.Context(), actorID)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func idempotencyRouter(rdb *redis.Client, actorID string, handled *bool, keys *map[string]string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/requests/:id/approve", withActor(actorID), middleware.Idempotency(rdb), func(c *gin.Context) {
		*handled = true
		if keys != nil {
			(*keys)["cache"] = c.GetString("idempotency_cache_key")
			(*keys)["lock"] = c.GetString("idempotency_lock_key")
		}
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return r
}

func TestIdempotency(t *testing.T) {
	actorID := "7f9f36f2-64a7-4a3e-9964-2f4b7a2a8a01"
	cacheKey := "idemp:/requests/:id/approve:" + actorID + ":once"
	lockKey := cacheKey + ":lock"

	t.Run("passes through without a key header", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		handled := false
		r := idempotencyRouter(rdb, actorID, &handled, nil)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/requests/1/approve", nil)
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, handled)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("replays a finished response", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		handled := false
		r := idempotencyRouter(rdb, actorID, &handled, nil)

		redisMock.ExpectGet(cacheKey).SetVal(`{"status":"approved"}`)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/requests/1/approve", nil)
		req.Header.Set("Idempotency-Key", "once")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.False(t, handled)
		assert.Contains(t, w.Body.String(), `"approved"`)
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("rejects an in-flight duplicate with 409", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		handled := false
		r := idempotencyRouter(rdb, actorID, &handled, nil)

		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(false)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/requests/1/approve", nil)
		req.Header.Set("Idempotency-Key", "once")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, handled)
		assert.Contains(t, w.Body.String(), "PROCESSING")
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})

	t.Run("first request takes the lock and exposes the keys", func(t *testing.T) {
		rdb, redisMock := redismock.NewClientMock()
		handled := false
		keys := map[string]string{}
		r := idempotencyRouter(rdb, actorID, &handled, &keys)

		redisMock.ExpectGet(cacheKey).RedisNil()
		redisMock.ExpectSetNX(lockKey, "locked", 30*time.Second).SetVal(true)

		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/requests/1/approve", nil)
		req.Header.Set("Idempotency-Key", "once")
		r.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, handled)
		assert.Equal(t, cacheKey, keys["cache"])
		assert.Equal(t, lockKey, keys["lock"])
		assert.NoError(t, redisMock.ExpectationsWereMet())
	})
}
