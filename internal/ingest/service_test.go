package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testChannelID = int64(-1001234567890)
	completePost  = "Назва: Nike Air Max\nБренд: Nike\nРозмір: 42\nЦіна: 1500 грн"
)

func newTestStore(t *testing.T) *storage.SQLiteStore {
	t.Helper()
	key, err := storage.DeriveKey("test passphrase")
	require.NoError(t, err)
	store, err := storage.NewSQLiteStore(filepath.Join(t.TempDir(), "test.db"), key)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	require.NoError(t, store.SaveChannels(context.Background(), []storage.Channel{{ID: testChannelID, Name: "Shoes"}}))
	return store
}

type fakeRefiner struct {
	fill  extract.ExtractedListing
	err   error
	calls int
}

func (f *fakeRefiner) Refine(ctx context.Context, text string, listing extract.ExtractedListing) (extract.ExtractedListing, error) {
	f.calls++
	if f.err != nil {
		return listing, f.err
	}
	if listing.Price == "" {
		listing.Price = f.fill.Price
	}
	if listing.Size == "" {
		listing.Size = f.fill.Size
	}
	return listing, nil
}

func channelPost(id int, caption string, photo bool) *tgbotapi.Message {
	msg := &tgbotapi.Message{
		MessageID: id,
		Chat:      &tgbotapi.Chat{ID: testChannelID, Type: "channel", Title: "Shoes"},
		Caption:   caption,
	}
	if photo {
		msg.Photo = []tgbotapi.PhotoSize{
			{FileID: "small", Width: 90, Height: 120, FileSize: 1000},
			{FileID: "large", Width: 960, Height: 1280, FileSize: 90000},
			{FileID: "medium", Width: 320, Height: 427, FileSize: 12000},
		}
	}
	return msg
}

func TestHandleChannelPost_QueuesCompletePost(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, Options{})
	ctx := context.Background()

	out := svc.HandleChannelPost(ctx, channelPost(10, completePost, true))
	require.True(t, out.Saved)
	assert.Equal(t, SkipNone, out.Skip)
	assert.Equal(t, "Nike Air Max", out.Listing.Name)

	queued, err := store.GetTelegramProduct(ctx, testChannelID, 10)
	require.NoError(t, err)
	require.NotNil(t, queued)
	assert.Equal(t, completePost, queued.RawMessage)
	assert.Equal(t, "42", queued.Parsed.Size)

	photos, err := store.PhotosForProduct(ctx, testChannelID, 10, "")
	require.NoError(t, err)
	require.Len(t, photos, 1)
	assert.Equal(t, "large", photos[0].FileID)
	assert.Equal(t, 90000, photos[0].FileSize)

	// The same post delivered again is a duplicate
	again := svc.HandleChannelPost(ctx, channelPost(10, completePost, true))
	assert.False(t, again.Saved)
	assert.Equal(t, SkipDuplicate, again.Skip)

	stats := svc.Stats()
	assert.Equal(t, 2, stats.Total)
	assert.Equal(t, 2, stats.ParsedOK)
	assert.Equal(t, 1, stats.Saved)
	assert.Equal(t, 1, stats.Duplicate)
}

func TestHandleChannelPost_SkipReasons(t *testing.T) {
	video := channelPost(5, completePost, false)
	video.Video = &tgbotapi.Video{FileID: "vid"}
	pdf := channelPost(6, completePost, false)
	pdf.Document = &tgbotapi.Document{FileID: "doc", MimeType: "application/pdf"}

	tests := []struct {
		name string
		msg  *tgbotapi.Message
		want SkipReason
	}{
		{"text only", channelPost(1, completePost, false), SkipNoMedia},
		{"video", video, SkipNonPhotoMedia},
		{"document", pdf, SkipNonPhotoMedia},
		{"photo without caption", channelPost(2, "", true), SkipNoText},
		{"no name", channelPost(3, "1500 грн", true), SkipMissingName},
		{"no price", channelPost(4, "Puma 180 Grey White\nPM035", true), SkipMissingPrice},
		{"no size", channelPost(7, "Кросівки Nike Air Max\nЦіна: 1500 грн", true), SkipMissingSize},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewService(newTestStore(t), nil, Options{Debug: true})
			out := svc.HandleChannelPost(context.Background(), tt.msg)
			assert.False(t, out.Saved)
			assert.Equal(t, tt.want, out.Skip)
		})
	}
}

func TestHandleChannelPost_UnknownChannel(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, Options{})

	msg := channelPost(1, completePost, true)
	msg.Chat.ID = -100999
	out := svc.HandleChannelPost(context.Background(), msg)

	assert.Equal(t, SkipUnknownChat, out.Skip)
	assert.Equal(t, 0, svc.Stats().Total)
}

func TestHandleChannelPost_ChannelAllowList(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, Options{ChannelIDs: []int64{-100999}})

	out := svc.HandleChannelPost(context.Background(), channelPost(1, completePost, true))
	assert.Equal(t, SkipUnknownChat, out.Skip)

	msg := channelPost(2, completePost, true)
	msg.Chat.ID = -100999
	out = svc.HandleChannelPost(context.Background(), msg)
	assert.True(t, out.Saved)
}

func TestHandleChannelPost_AlbumPhotosAreRecorded(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, Options{})
	ctx := context.Background()

	first := channelPost(20, completePost, true)
	first.MediaGroupID = "album-1"
	second := channelPost(21, "", true)
	second.MediaGroupID = "album-1"
	image := channelPost(22, "", false)
	image.MediaGroupID = "album-1"
	image.Document = &tgbotapi.Document{FileID: "raw-jpeg", MimeType: "image/jpeg", FileSize: 2048}

	assert.True(t, svc.HandleChannelPost(ctx, first).Saved)
	assert.Equal(t, SkipNoText, svc.HandleChannelPost(ctx, second).Skip)
	assert.Equal(t, SkipNoText, svc.HandleChannelPost(ctx, image).Skip)

	photos, err := store.PhotosForProduct(ctx, testChannelID, 20, "album-1")
	require.NoError(t, err)
	require.Len(t, photos, 3)
	assert.Equal(t, []int{20, 21, 22}, []int{photos[0].MessageID, photos[1].MessageID, photos[2].MessageID})
	assert.Equal(t, "raw-jpeg", photos[2].FileID)
}

func TestHandleChannelPost_Refiner(t *testing.T) {
	t.Run("only incomplete posts are refined", func(t *testing.T) {
		refiner := &fakeRefiner{fill: extract.ExtractedListing{Size: "41"}}
		svc := NewService(newTestStore(t), nil, Options{Refiner: refiner})
		ctx := context.Background()

		out := svc.HandleChannelPost(ctx, channelPost(1, completePost, true))
		assert.True(t, out.Saved)
		assert.Equal(t, 0, refiner.calls)

		out = svc.HandleChannelPost(ctx, channelPost(2, "Кросівки Nike Air Max\nЦіна: 1500 грн", true))
		assert.True(t, out.Saved)
		assert.Equal(t, "41", out.Listing.Size)
		assert.Equal(t, 1, refiner.calls)
	})

	t.Run("refiner errors keep the heuristic result", func(t *testing.T) {
		refiner := &fakeRefiner{err: errors.New("quota exceeded")}
		svc := NewService(newTestStore(t), nil, Options{Refiner: refiner})

		out := svc.HandleChannelPost(context.Background(), channelPost(1, "Кросівки Nike Air Max\nЦіна: 1500 грн", true))
		assert.Equal(t, SkipMissingSize, out.Skip)
		assert.Equal(t, 1, refiner.calls)
	})
}

func TestHandleMyChatMember(t *testing.T) {
	update := func(id int64, kind, status string) *tgbotapi.ChatMemberUpdated {
		return &tgbotapi.ChatMemberUpdated{
			Chat:          tgbotapi.Chat{ID: id, Type: kind, Title: "New shop"},
			NewChatMember: tgbotapi.ChatMember{Status: status},
		}
	}

	tests := []struct {
		name       string
		auto       bool
		upd        *tgbotapi.ChatMemberUpdated
		registered bool
	}{
		{"admin in channel", true, update(-1001, "channel", "administrator"), true},
		{"auto register off", false, update(-1001, "channel", "administrator"), false},
		{"plain member", true, update(-1001, "channel", "member"), false},
		{"group", true, update(-1001, "supergroup", "administrator"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store := newTestStore(t)
			svc := NewService(store, nil, Options{AutoRegister: tt.auto})
			svc.HandleMyChatMember(context.Background(), tt.upd)

			c, err := store.GetChannel(context.Background(), tt.upd.Chat.ID)
			require.NoError(t, err)
			if tt.registered {
				require.NotNil(t, c)
				assert.Equal(t, "New shop", c.Name)
			} else {
				assert.Nil(t, c)
			}
		})
	}
}

func TestHandleUpdate_Migration(t *testing.T) {
	store := newTestStore(t)
	svc := NewService(store, nil, Options{})
	ctx := context.Background()

	svc.HandleUpdate(ctx, tgbotapi.Update{Message: &tgbotapi.Message{
		Chat:            &tgbotapi.Chat{ID: testChannelID},
		MigrateToChatID: -1009999,
	}})

	old, err := store.GetChannel(ctx, testChannelID)
	require.NoError(t, err)
	assert.Nil(t, old)
	moved, err := store.GetChannel(ctx, -1009999)
	require.NoError(t, err)
	require.NotNil(t, moved)
	assert.Equal(t, "Shoes", moved.Name)
}
