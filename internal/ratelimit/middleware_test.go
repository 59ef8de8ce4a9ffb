package ratelimit

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsExempt(t *testing.T) {
	assert.True(t, isExempt("/health/ready", []string{"/health"}))
	assert.False(t, isExempt("/submissions/", []string{"/health"}))
}

func TestIdentifyPrefersForwardedFor(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/submissions/", nil)
	r.Header.Set("X-Forwarded-For", "203.0.113.5, 10.0.0.1")
	r.RemoteAddr = "10.0.0.2:1234"
	assert.Equal(t, "203.0.113.5", identify(r))
}

func TestIdentifyFallsBackToRemoteAddr(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/submissions/", nil)
	r.RemoteAddr = "198.51.100.7:5555"
	assert.Equal(t, "198.51.100.7:5555", identify(r))
}

func TestIdentifyUnknownWhenNeitherSet(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/submissions/", nil)
	r.RemoteAddr = ""
	assert.Equal(t, "unknown", identify(r))
}

func TestMaxInt(t *testing.T) {
	assert.Equal(t, 5, maxInt(5, 2))
	assert.Equal(t, 2, maxInt(1, 2))
}
