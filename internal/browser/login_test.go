package browser

import (
	"testing"

	"github.com/chromedp/cdproto/network"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromNetworkCookies(t *testing.T) {
	cookies := fromNetworkCookies([]*network.Cookie{
		{Name: "csrftoken", Value: "abc", Domain: ".shafa.ua", Path: "/", Secure: true, SameSite: network.CookieSameSiteLax},
		{Name: "sessionid", Value: "s", Domain: "shafa.ua", Path: "/", HTTPOnly: true, Expires: 1893456000},
		{Name: "_ga", Value: "x", Domain: ".google.com", Path: "/"},
		nil,
	})

	require.Len(t, cookies, 2)
	assert.Equal(t, storage.Cookie{
		Name: "csrftoken", Value: "abc", Domain: ".shafa.ua", Path: "/", Secure: true, SameSite: "Lax",
	}, cookies[0])
	assert.True(t, cookies[1].HTTPOnly)
	assert.Equal(t, float64(1893456000), cookies[1].Expires)
	assert.True(t, hasCSRFToken(cookies))
}

func TestHasCSRFToken(t *testing.T) {
	assert.False(t, hasCSRFToken(nil))
	assert.False(t, hasCSRFToken([]storage.Cookie{{Name: "csrftoken"}}))
	assert.False(t, hasCSRFToken([]storage.Cookie{{Name: "sessionid", Value: "x"}}))
}

func TestToCookieParams(t *testing.T) {
	params := toCookieParams([]storage.Cookie{{Name: "csrftoken", Value: "abc", Domain: "shafa.ua", Path: "/"}})
	require.Len(t, params, 1)
	assert.Equal(t, "csrftoken", params[0].Name)
	assert.Equal(t, "shafa.ua", params[0].Domain)
}

func TestAllocatorOptions(t *testing.T) {
	base := len(allocatorOptions(Options{}))
	assert.Equal(t, base+2, len(allocatorOptions(Options{ExecPath: "/usr/bin/chromium", UserDataDir: t.TempDir()})))
}
