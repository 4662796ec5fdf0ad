package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEnvHelpers(t *testing.T) {
	t.Setenv("X_STR", "value")
	t.Setenv("X_INT", "12")
	t.Setenv("X_BAD_INT", "twelve")
	t.Setenv("X_INT64_ZERO", "0")
	t.Setenv("X_BOOL", "true")
	t.Setenv("X_SECONDS", "7")
	t.Setenv("X_LIST", " http://a , ,http://b/")

	assert.Equal(t, "value", Env("X_STR", "def"))
	assert.Equal(t, "def", Env("X_MISSING", "def"))
	assert.Equal(t, 12, EnvInt("X_INT", 3))
	assert.Equal(t, 3, EnvInt("X_BAD_INT", 3))
	assert.Equal(t, int64(0), EnvInt64("X_INT64_ZERO", 10))
	assert.True(t, EnvBool("X_BOOL", false))
	assert.False(t, EnvBool("X_MISSING", false))
	assert.Equal(t, 7*time.Second, EnvSeconds("X_SECONDS", time.Second))
	assert.Equal(t, []string{"http://a", "http://b/"}, EnvList("X_LIST"))
	assert.Equal(t, []string{"d"}, EnvList("X_MISSING", "d"))
}

func TestDedup(t *testing.T) {
	got := Dedup([]string{"http://a/", "http://a", "http://b"})
	assert.Equal(t, []string{"http://a", "http://b"}, got)
}
