// Package ingest turns channel posts delivered to the bot into queued
// products and recorded photos.
package ingest

import (
	"context"
	"strings"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/llm"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
)

// SkipReason explains why a post did not become a queued product.
type SkipReason string

const (
	SkipNone          SkipReason = ""
	SkipUnknownChat   SkipReason = "unknown_channel"
	SkipNoMedia       SkipReason = "no_media"
	SkipNonPhotoMedia SkipReason = "non_photo_media"
	SkipNoText        SkipReason = "no_text"
	SkipMissingName   SkipReason = "missing_name"
	SkipMissingPrice  SkipReason = "missing_price"
	SkipMissingSize   SkipReason = "missing_size"
	SkipDuplicate     SkipReason = "duplicate"
	SkipError         SkipReason = "error"
)

// maxSkipLogs caps how many skipped posts are logged in debug mode.
const maxSkipLogs = 5

// Store is the part of storage the ingester writes to.
type Store interface {
	GetChannel(ctx context.Context, channelID int64) (*storage.Channel, error)
	SaveChannels(ctx context.Context, channels []storage.Channel) error
	ChangeChannelID(ctx context.Context, oldID, newID int64) (bool, error)
	SavePhoto(ctx context.Context, photo storage.Photo) error
	SaveTelegramProduct(ctx context.Context, p *storage.TelegramProduct) (bool, error)
}

// Options tune the ingester.
type Options struct {
	// Refiner fills fields the heuristics missed. Optional.
	Refiner llm.Refiner
	// ChannelIDs restricts ingestion to these chats. When empty, every
	// channel stored in the database is accepted.
	ChannelIDs []int64
	// AutoRegister stores channels the bot is promoted to admin in.
	AutoRegister bool
	Debug        bool
}

// Outcome is what happened to one post.
type Outcome struct {
	ChannelID int64
	MessageID int
	Saved     bool
	Skip      SkipReason
	Listing   extract.ExtractedListing
}

// Stats counts outcomes since the service was created.
type Stats struct {
	Total         int
	NoMedia       int
	NonPhotoMedia int
	NoText        int
	MissingName   int
	MissingPrice  int
	MissingSize   int
	ParsedOK      int
	Saved         int
	Duplicate     int
	Errors        int
}

// Service ingests channel posts.
type Service struct {
	store     Store
	extractor *extract.Extractor
	opts      Options
	allowed   map[int64]bool

	mu        sync.Mutex
	stats     Stats
	skipLines int
}

// NewService creates an ingester that parses with extractor.
func NewService(store Store, extractor *extract.Extractor, opts Options) *Service {
	if extractor == nil {
		extractor = extract.NewExtractor(nil)
	}
	allowed := make(map[int64]bool, len(opts.ChannelIDs))
	for _, id := range opts.ChannelIDs {
		allowed[id] = true
	}
	return &Service{
		store:     store,
		extractor: extractor,
		opts:      opts,
		allowed:   allowed,
	}
}

// Stats returns a snapshot of the counters.
func (s *Service) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// LogStats writes the counters to the log.
func (s *Service) LogStats() {
	st := s.Stats()
	log.Info().
		Int("total", st.Total).
		Int("noMedia", st.NoMedia).
		Int("nonPhotoMedia", st.NonPhotoMedia).
		Int("noText", st.NoText).
		Int("missingName", st.MissingName).
		Int("missingPrice", st.MissingPrice).
		Int("missingSize", st.MissingSize).
		Int("parsedOK", st.ParsedOK).
		Int("saved", st.Saved).
		Int("duplicate", st.Duplicate).
		Int("errors", st.Errors).
		Msg("ingest stats")
}

// ReportStats logs the counters every interval until ctx is done.
func (s *Service) ReportStats(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.LogStats()
			return
		case <-ticker.C:
			s.LogStats()
		}
	}
}

// HandleUpdate routes an update to the matching handler. Updates that are
// not channel traffic are ignored.
func (s *Service) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.ChannelPost != nil:
		s.HandleChannelPost(ctx, update.ChannelPost)
	case update.EditedChannelPost != nil:
		s.HandleChannelPost(ctx, update.EditedChannelPost)
	case update.MyChatMember != nil:
		s.HandleMyChatMember(ctx, update.MyChatMember)
	case update.Message != nil && update.Message.MigrateToChatID != 0:
		s.handleMigration(ctx, update.Message.Chat.ID, update.Message.MigrateToChatID)
	}
}

// HandleChannelPost records the photo of a post and queues it as a product
// when the text yields a name, a price and a size.
func (s *Service) HandleChannelPost(ctx context.Context, msg *tgbotapi.Message) Outcome {
	out := Outcome{MessageID: msg.MessageID}
	if msg.Chat != nil {
		out.ChannelID = msg.Chat.ID
	}

	if ok, err := s.accepts(ctx, out.ChannelID); err != nil {
		log.Error().Err(err).Int64("channelID", out.ChannelID).Msg("failed to look up channel")
		out.Skip = SkipError
		return out
	} else if !ok {
		out.Skip = SkipUnknownChat
		return out
	}

	text := messageText(msg)
	s.count(func(st *Stats) { st.Total++ })

	photo, media := photoOf(msg)
	if photo == nil {
		if media {
			return s.skip(out, SkipNonPhotoMedia, text)
		}
		return s.skip(out, SkipNoMedia, text)
	}

	photo.ChannelID = out.ChannelID
	photo.MessageID = msg.MessageID
	photo.MediaGroupID = msg.MediaGroupID
	if err := s.store.SavePhoto(ctx, *photo); err != nil {
		log.Error().Err(err).Int64("channelID", out.ChannelID).Int("messageID", msg.MessageID).Msg("failed to save photo")
		return s.skip(out, SkipError, text)
	}

	if strings.TrimSpace(text) == "" {
		return s.skip(out, SkipNoText, text)
	}

	listing := s.extractor.Parse(text)
	if !listing.Complete() && s.opts.Refiner != nil {
		refined, err := s.opts.Refiner.Refine(ctx, text, listing)
		if err != nil {
			log.Warn().Err(err).Int("messageID", msg.MessageID).Msg("llm refinement failed, keeping heuristic result")
		} else {
			listing = refined
		}
	}
	out.Listing = listing

	switch listing.Missing() {
	case "name":
		return s.skip(out, SkipMissingName, text)
	case "price":
		return s.skip(out, SkipMissingPrice, text)
	case "size":
		return s.skip(out, SkipMissingSize, text)
	}
	s.count(func(st *Stats) { st.ParsedOK++ })

	saved, err := s.store.SaveTelegramProduct(ctx, &storage.TelegramProduct{
		ChannelID:    out.ChannelID,
		MessageID:    msg.MessageID,
		MediaGroupID: msg.MediaGroupID,
		RawMessage:   text,
		Parsed:       listing,
	})
	if err != nil {
		log.Error().Err(err).Int64("channelID", out.ChannelID).Int("messageID", msg.MessageID).Msg("failed to queue product")
		return s.skip(out, SkipError, text)
	}
	if !saved {
		return s.skip(out, SkipDuplicate, text)
	}

	s.count(func(st *Stats) { st.Saved++ })
	out.Saved = true
	log.Info().
		Int64("channelID", out.ChannelID).
		Int("messageID", msg.MessageID).
		Str("name", listing.Name).
		Str("size", listing.Size).
		Str("price", listing.Price).
		Float64("confidence", listing.Confidence).
		Msg("queued product")
	return out
}

// HandleMyChatMember registers a channel when the bot becomes its admin.
func (s *Service) HandleMyChatMember(ctx context.Context, upd *tgbotapi.ChatMemberUpdated) {
	chat := upd.Chat
	status := upd.NewChatMember.Status
	log.Info().Int64("chatID", chat.ID).Str("title", chat.Title).Str("status", status).Msg("bot membership changed")

	if !s.opts.AutoRegister || !chat.IsChannel() || status != "administrator" {
		return
	}
	if err := s.store.SaveChannels(ctx, []storage.Channel{{ID: chat.ID, Name: chat.Title}}); err != nil {
		log.Error().Err(err).Int64("chatID", chat.ID).Msg("failed to register channel")
		return
	}
	log.Info().Int64("chatID", chat.ID).Str("title", chat.Title).Msg("registered channel")
}

func (s *Service) handleMigration(ctx context.Context, oldID, newID int64) {
	moved, err := s.store.ChangeChannelID(ctx, oldID, newID)
	if err != nil {
		log.Error().Err(err).Int64("from", oldID).Int64("to", newID).Msg("failed to migrate chat id")
		return
	}
	if moved {
		log.Info().Int64("from", oldID).Int64("to", newID).Msg("migrated chat id")
	}
}

func (s *Service) accepts(ctx context.Context, chatID int64) (bool, error) {
	if len(s.allowed) > 0 {
		return s.allowed[chatID], nil
	}
	c, err := s.store.GetChannel(ctx, chatID)
	if err != nil {
		return false, err
	}
	return c != nil, nil
}

func (s *Service) skip(out Outcome, reason SkipReason, text string) Outcome {
	out.Skip = reason
	s.count(func(st *Stats) {
		switch reason {
		case SkipNoMedia:
			st.NoMedia++
		case SkipNonPhotoMedia:
			st.NonPhotoMedia++
		case SkipNoText:
			st.NoText++
		case SkipMissingName:
			st.MissingName++
		case SkipMissingPrice:
			st.MissingPrice++
		case SkipMissingSize:
			st.MissingSize++
		case SkipDuplicate:
			st.Duplicate++
		case SkipError:
			st.Errors++
		}
	})

	if s.opts.Debug {
		s.mu.Lock()
		show := s.skipLines < maxSkipLogs
		s.skipLines++
		s.mu.Unlock()
		if show {
			log.Debug().
				Str("reason", string(reason)).
				Int64("channelID", out.ChannelID).
				Int("messageID", out.MessageID).
				Str("preview", preview(text)).
				Msg("skipped post")
		}
	}
	return out
}

func (s *Service) count(f func(*Stats)) {
	s.mu.Lock()
	f(&s.stats)
	s.mu.Unlock()
}

func messageText(msg *tgbotapi.Message) string {
	if msg.Caption != "" {
		return msg.Caption
	}
	return msg.Text
}

// photoOf returns the largest photo of msg. media reports whether the post
// carries some other attachment instead.
func photoOf(msg *tgbotapi.Message) (photo *storage.Photo, media bool) {
	if len(msg.Photo) > 0 {
		largest := msg.Photo[0]
		for _, p := range msg.Photo[1:] {
			if p.Width*p.Height > largest.Width*largest.Height {
				largest = p
			}
		}
		return &storage.Photo{FileID: largest.FileID, FileSize: largest.FileSize}, true
	}
	if d := msg.Document; d != nil {
		if strings.HasPrefix(d.MimeType, "image/") {
			return &storage.Photo{FileID: d.FileID, FileSize: d.FileSize}, true
		}
		return nil, true
	}
	media = msg.Video != nil || msg.Animation != nil || msg.Audio != nil ||
		msg.Voice != nil || msg.VideoNote != nil || msg.Sticker != nil
	return nil, media
}

func preview(text string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(text), "\n")
	r := []rune(line)
	if len(r) > 60 {
		return string(r[:60]) + "…"
	}
	return line
}
