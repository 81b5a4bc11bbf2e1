package config

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFeatureFlags(t *testing.T) {
	t.Setenv("PUBLIC_REGISTRATION", "")
	assert.True(t, PublicRegistrationEnabled())
	t.Setenv("PUBLIC_REGISTRATION", "false")
	assert.False(t, PublicRegistrationEnabled())

	t.Setenv("DAILY_SUMMARY_CRON", "")
	assert.Equal(t, "5 0 * * *", DailySummaryCronSpec())
	t.Setenv("DAILY_SUMMARY_CRON", "OFF")
	assert.Equal(t, "", DailySummaryCronSpec())
	t.Setenv("DAILY_SUMMARY_CRON", "0 3 * * *")
	assert.Equal(t, "0 3 * * *", DailySummaryCronSpec())

	t.Setenv("TOKEN_HOUR_LIFESPAN", "abc")
	assert.Equal(t, 168*time.Hour, TokenLifespan())
	t.Setenv("TOKEN_HOUR_LIFESPAN", "12")
	assert.Equal(t, 12*time.Hour, TokenLifespan())

	t.Setenv("PHONE_REGION", "ar")
	assert.Equal(t, "AR", PhoneRegion())

	t.Setenv("GO_ENV", "Production")
	assert.True(t, IsProduction())
}

func TestNewLogger(t *testing.T) {
	l := NewLogger("debug", "text")
	assert.Equal(t, logrus.DebugLevel, l.GetLevel())
	assert.IsType(t, &logrus.TextFormatter{}, l.Formatter)

	l = NewLogger("nonsense", "")
	assert.Equal(t, logrus.InfoLevel, l.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, l.Formatter)
}

func TestRedisHelpersAreNoopsWithoutClient(t *testing.T) {
	SetRedisClient(nil)
	assert.Nil(t, GetRedisLock())
	require.NoError(t, SetRedisValue("k", "v", time.Minute))
	_, found, err := GetRedisValue("k")
	require.NoError(t, err)
	assert.False(t, found)
	require.NoError(t, RemoveRedisPattern("Report:*"))
}

func TestRedisHelpers(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	SetRedisClient(client)
	t.Cleanup(func() {
		SetRedisClient(nil)
		_ = client.Close()
	})
	require.NotNil(t, GetRedisLock())

	require.NoError(t, SetRedisObject("User:1", map[string]any{"id": 1, "email": "a@pos.local"}, time.Minute))
	var user struct {
		Id    int    `json:"id"`
		Email string `json:"email"`
	}
	found, err := GetRedisObject("User:1", &user)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "a@pos.local", user.Email)

	require.NoError(t, AddRedisSet("Tokens:1", "a", time.Hour))
	require.NoError(t, AddRedisSet("Tokens:1", "b", 2*time.Hour))
	assert.Equal(t, 2*time.Hour, mr.TTL("Tokens:1"))
	require.NoError(t, RemoveRedisSetMember("Tokens:1", "a"))
	members, err := GetRedisSetMembers("Tokens:1")
	require.NoError(t, err)
	assert.Equal(t, []string{"b"}, members)

	for _, key := range []string{"Report:top:1", "Report:top:2", "Report:hour:x"} {
		require.NoError(t, SetRedisValue(key, "[]", time.Minute))
	}
	require.NoError(t, RemoveRedisPattern("Report:*"))
	assert.False(t, mr.Exists("Report:top:1"))
	assert.False(t, mr.Exists("Report:hour:x"))
	assert.True(t, mr.Exists("User:1"))

	require.NoError(t, RemoveRedisKey("User:1"))
	found, err = GetRedisObject("User:1", &user)
	require.NoError(t, err)
	assert.False(t, found)
}
