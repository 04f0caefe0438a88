package config

import (
	"testing"
	"time"
)

func TestFromEnvDefaults(t *testing.T) {
	for _, k := range []string{"MODE", "HTTP_ADDR", "DB_DRIVER", "REDIS_ADDR", "REDIS_SNAPSHOT_TTL", "DEFAULT_QUESTION_COUNT", "CORS_ORIGINS_OFFLINE"} {
		t.Setenv(k, "")
	}
	c := FromEnv()
	if c.Mode != ModeOffline || c.HTTPAddr != ":8080" || c.DBDriver != "sqlite" {
		t.Fatalf("defaults = %+v", c)
	}
	if c.RedisAddr != "" || c.RedisSnapshotTTL != 24*time.Hour || c.DefaultQuestionCount != 20 {
		t.Fatalf("defaults = %+v", c)
	}
	if got := c.CORSOrigins(); len(got) != 2 || got[0] != "http://localhost:3000" {
		t.Fatalf("offline origins = %v", got)
	}
}

func TestFromEnvOverrides(t *testing.T) {
	t.Setenv("MODE", "online")
	t.Setenv("CORS_ORIGINS_ONLINE", " https://a.example , ,https://b.example")
	t.Setenv("REDIS_SNAPSHOT_TTL", "90m")
	t.Setenv("DEFAULT_QUESTION_COUNT", "40")
	t.Setenv("DEFAULT_TIME_LIMIT_MINUTES", "-3")
	t.Setenv("ENABLE_LOCAL_AUTH", "no")

	c := FromEnv()
	if c.Mode != ModeOnline || c.EnableLocalAuth {
		t.Fatalf("config = %+v", c)
	}
	if got := c.CORSOrigins(); len(got) != 2 || got[1] != "https://b.example" {
		t.Fatalf("online origins = %v", got)
	}
	if c.RedisSnapshotTTL != 90*time.Minute || c.DefaultQuestionCount != 40 || c.DefaultTimeLimitMinutes != 30 {
		t.Fatalf("config = %+v", c)
	}

	t.Setenv("REDIS_SNAPSHOT_TTL", "600")
	if got := FromEnv().RedisSnapshotTTL; got != 10*time.Minute {
		t.Fatalf("seconds ttl = %v", got)
	}
}
