package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceName(t *testing.T) {
	t.Run("empty user agent", func(t *testing.T) {
		assert.Equal(t, "Unknown Device", DeviceName(""))
		assert.Equal(t, "Unknown Device", DeviceName("   "))
	})

	t.Run("chrome on linux", func(t *testing.T) {
		got := DeviceName("Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
		assert.Contains(t, got, "Chrome")
		assert.Contains(t, got, " on ")
	})

	t.Run("firefox on windows", func(t *testing.T) {
		got := DeviceName("Mozilla/5.0 (Windows NT 10.0; Win64; x64; rv:121.0) Gecko/20100101 Firefox/121.0")
		assert.Contains(t, got, "Firefox")
		assert.Contains(t, got, " on ")
	})

	t.Run("gibberish still yields a name", func(t *testing.T) {
		got := DeviceName("not-a-real-user-agent")
		assert.Contains(t, got, " on ")
	})
}
