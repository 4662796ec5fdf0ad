package utils

import (
	"os"
	"strconv"
	"strings"
	"time"
)

func Env(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func EnvInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return def
}

// EnvInt64 accepts zero, unlike EnvInt, so callers can use 0 as "unlimited".
func EnvInt64(key string, def int64) int64 {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n >= 0 {
			return n
		}
	}
	return def
}

func EnvBool(key string, def bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return def
}

// EnvSeconds reads a whole number of seconds.
func EnvSeconds(key string, def time.Duration) time.Duration {
	if n := EnvInt(key, 0); n > 0 {
		return time.Duration(n) * time.Second
	}
	return def
}

// EnvList splits a comma separated variable, dropping blanks.
func EnvList(key string, def ...string) []string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return SplitList(v)
}

func SplitList(v string) []string {
	out := make([]string, 0)
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
