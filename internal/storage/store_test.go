package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	key, err := DeriveKey("test passphrase")
	require.NoError(t, err)
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return store
}

func TestEncryptDecrypt(t *testing.T) {
	key, err := DeriveKey("correct horse battery")
	require.NoError(t, err)
	assert.Len(t, key, 32)

	encrypted, err := Encrypt([]byte("csrf-value"), key)
	require.NoError(t, err)
	assert.NotContains(t, encrypted, "csrf-value")

	plain, err := Decrypt(encrypted, key)
	require.NoError(t, err)
	assert.Equal(t, "csrf-value", string(plain))

	other, err := DeriveKey("another passphrase")
	require.NoError(t, err)
	_, err = Decrypt(encrypted, other)
	assert.Error(t, err)
}

func TestDeriveKey(t *testing.T) {
	a, err := DeriveKey("same passphrase")
	require.NoError(t, err)
	b, err := DeriveKey("same passphrase")
	require.NoError(t, err)
	assert.Equal(t, a, b)

	_, err = DeriveKey("short")
	assert.Error(t, err)
}

func TestChannels(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveChannels(ctx, []Channel{
		{ID: -1001, Name: "Sneakers", Alias: "snk"},
		{ID: -1002, Name: "Boots"},
	}))
	// re-saving without an alias keeps the old one
	require.NoError(t, store.SaveChannels(ctx, []Channel{{ID: -1001, Name: "Sneakers UA"}}))

	ch, err := store.GetChannel(ctx, -1001)
	require.NoError(t, err)
	require.NotNil(t, ch)
	assert.Equal(t, "Sneakers UA", ch.Name)
	assert.Equal(t, "snk", ch.Label())

	missing, err := store.GetChannel(ctx, 42)
	require.NoError(t, err)
	assert.Nil(t, missing)

	ok, err := store.SetChannelAlias(ctx, -1001, "")
	require.NoError(t, err)
	assert.True(t, ok)
	ch, err = store.GetChannel(ctx, -1001)
	require.NoError(t, err)
	assert.Equal(t, "Sneakers UA", ch.Label())

	ok, err = store.RenameChannel(ctx, 7, "nope")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = store.DeleteChannel(ctx, -1002)
	require.NoError(t, err)
	assert.True(t, ok)

	channels, err := store.ListChannels(ctx)
	require.NoError(t, err)
	require.Len(t, channels, 1)
	assert.Equal(t, int64(-1001), channels[0].ID)
}

func TestChangeChannelIDMovesProducts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveChannels(ctx, []Channel{{ID: -1, Name: "Old"}, {ID: -3, Name: "Taken"}}))
	saved, err := store.SaveTelegramProduct(ctx, &TelegramProduct{
		ChannelID: -1, MessageID: 10, RawMessage: "text",
		Parsed: extract.ExtractedListing{Name: "Nike", Size: "40", Price: "1500"},
	})
	require.NoError(t, err)
	require.True(t, saved)

	ok, err := store.ChangeChannelID(ctx, -1, -3)
	require.NoError(t, err)
	assert.False(t, ok, "new id already used")

	ok, err = store.ChangeChannelID(ctx, -1, -2)
	require.NoError(t, err)
	assert.True(t, ok)

	p, err := store.GetTelegramProduct(ctx, -2, 10)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, "Nike", p.Parsed.Name)
}

func TestTelegramProductQueue(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	listing := extract.ExtractedListing{Name: "Adidas Samba", Size: "38", AdditionalSizes: []string{"39"}, Price: "2100"}

	saved, err := store.SaveTelegramProduct(ctx, &TelegramProduct{ChannelID: -1, MessageID: 1, Parsed: listing})
	require.NoError(t, err)
	assert.True(t, saved)

	saved, err = store.SaveTelegramProduct(ctx, &TelegramProduct{ChannelID: -1, MessageID: 1, Parsed: listing})
	require.NoError(t, err)
	assert.False(t, saved, "duplicate")

	saved, err = store.SaveTelegramProduct(ctx, &TelegramProduct{ChannelID: -1, MessageID: 2, Parsed: extract.ExtractedListing{Name: "No size"}})
	require.NoError(t, err)
	assert.False(t, saved, "no size")

	_, err = store.SaveTelegramProduct(ctx, &TelegramProduct{ChannelID: -1, MessageID: 3, MediaGroupID: "g1", Parsed: listing})
	require.NoError(t, err)

	next, err := store.NextPendingProduct(ctx, -1)
	require.NoError(t, err)
	require.NotNil(t, next)
	assert.Equal(t, 3, next.MessageID)
	assert.Equal(t, "g1", next.MediaGroupID)
	assert.Equal(t, []string{"39"}, next.Parsed.AdditionalSizes)

	counts, err := store.PendingCounts(ctx)
	require.NoError(t, err)
	assert.Equal(t, map[int64]int{-1: 2}, counts)

	require.NoError(t, store.MarkProductCreated(ctx, -1, 3, "555"))
	require.NoError(t, store.MarkProductCreated(ctx, -1, 1, SkippedMissingData))

	next, err = store.NextPendingProduct(ctx, -1)
	require.NoError(t, err)
	assert.Nil(t, next)

	done, err := store.GetTelegramProduct(ctx, -1, 3)
	require.NoError(t, err)
	assert.True(t, done.Created)
	assert.Equal(t, "555", done.CreatedProductID)

	pending, err := store.ListPendingProducts(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestPhotosForProduct(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	for _, p := range []Photo{
		{ChannelID: -1, MessageID: 11, MediaGroupID: "album", FileID: "b"},
		{ChannelID: -1, MessageID: 10, MediaGroupID: "album", FileID: "a"},
		{ChannelID: -1, MessageID: 12, MediaGroupID: "other", FileID: "c"},
		{ChannelID: -1, MessageID: 20, FileID: "single"},
	} {
		require.NoError(t, store.SavePhoto(ctx, p))
	}

	photos, err := store.PhotosForProduct(ctx, -1, 10, "album")
	require.NoError(t, err)
	require.Len(t, photos, 2)
	assert.Equal(t, "a", photos[0].FileID)
	assert.Equal(t, "b", photos[1].FileID)

	photos, err = store.PhotosForProduct(ctx, -1, 20, "")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "single", photos[0].FileID)
}

func TestReferenceData(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveBrands(ctx, []Brand{{ID: 1, Name: "Nike"}, {ID: 2, Name: "New Balance"}, {ID: 3, Name: "  "}}))
	id, ok, err := store.BrandIDByName(ctx, "new balance")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 2, id)

	_, ok, err = store.BrandIDByName(ctx, "Reebok")
	require.NoError(t, err)
	assert.False(t, ok)

	names, err := store.ListBrandNames(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"New Balance", "Nike"}, names)

	require.NoError(t, store.SaveSizes(ctx, "obuv/krossovki", []Size{{ID: 100, Name: "40"}, {ID: 101, Name: "40.5"}}))
	require.NoError(t, store.SaveSizes(ctx, "zhenskaya-obuv/krossovki", []Size{{ID: 200, Name: "40"}}))

	id, ok, err = store.SizeIDByName(ctx, "zhenskaya-obuv/krossovki", "40")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 200, id)

	exists, err := store.SizeIDExists(ctx, "obuv/krossovki", 200)
	require.NoError(t, err)
	assert.False(t, exists)

	n, err := store.CountSizes(ctx, "obuv/krossovki")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestUploadedProducts(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	require.NoError(t, store.SaveUploadedProduct(ctx, &UploadedProduct{
		ProductID: "9001", ChannelID: -1, MessageID: 5, Name: "Vans Old Skool",
		BrandID: 7, SizeID: 100, Price: 1700, PhotoIDs: []string{"p1", "p2"},
	}))

	products, err := store.ListUploadedProducts(ctx, 5)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.Equal(t, []string{"p1", "p2"}, products[0].PhotoIDs)
	assert.False(t, products[0].Deactivated)

	require.NoError(t, store.MarkProductsDeactivated(ctx, []string{"9001"}))
	products, err = store.ListUploadedProducts(ctx, 5)
	require.NoError(t, err)
	assert.True(t, products[0].Deactivated)
}

func TestCookies(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	n, err := store.SaveCookies(ctx, []Cookie{
		{Name: "csrftoken", Value: "abc", Domain: ".shafa.ua", Path: "/"},
		{Name: "sessionid", Value: "s3cr3t", Domain: "shafa.ua", Expires: 1900000000, HTTPOnly: true, Secure: true, SameSite: "Lax"},
		{Name: "_ga", Value: "tracker", Domain: ".google.com"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	cookies, err := store.LoadCookies(ctx)
	require.NoError(t, err)
	require.Len(t, cookies, 2)
	byName := map[string]Cookie{}
	for _, c := range cookies {
		byName[c.Name] = c
	}
	assert.Equal(t, "abc", byName["csrftoken"].Value)
	assert.Equal(t, "s3cr3t", byName["sessionid"].Value)
	assert.True(t, byName["sessionid"].HTTPOnly)
	assert.Equal(t, int64(1900000000), byName["sessionid"].HTTPCookie().Expires.Unix())

	deleted, err := store.DeleteAllCookies(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, deleted)
}

func TestIsAllowedCookieDomain(t *testing.T) {
	tests := []struct {
		domain string
		want   bool
	}{
		{"shafa.ua", true},
		{".shafa.ua", true},
		{"www.shafa.ua", true},
		{"https://shafa.ua", true},
		{"notshafa.ua", false},
		{"shafa.ua.evil.com", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.domain, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAllowedCookieDomain(tt.domain))
		})
	}
}

func TestRefinementCache(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t)

	got, err := store.GetRefinementCache(ctx, "h1")
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, store.SetRefinementCache(ctx, "h1", &RefinementCacheEntry{Name: "Nike Air", Price: "1500"}))
	got, err = store.GetRefinementCache(ctx, "h1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Nike Air", got.Name)
	assert.Equal(t, "1500", got.Price)
}
