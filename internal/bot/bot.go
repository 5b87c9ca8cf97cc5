// Package bot is the Telegram front-end: it hands channel posts to the
// ingest service and answers the shop owner's commands.
package bot

import (
	"context"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/llm"
	"github.com/raine/telegram-shafa-bot/internal/publish"
	"github.com/raine/telegram-shafa-bot/internal/shafa"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
)

// BotAPI defines the interface for Telegram bot API operations.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Store is the storage the operator commands read and edit.
type Store interface {
	ListChannels(ctx context.Context) ([]storage.Channel, error)
	SaveChannels(ctx context.Context, channels []storage.Channel) error
	DeleteChannel(ctx context.Context, channelID int64) (bool, error)
	SetChannelAlias(ctx context.Context, channelID int64, alias string) (bool, error)
	PendingCounts(ctx context.Context) (map[int64]int, error)
	ListUploadedProducts(ctx context.Context, limit int) ([]storage.UploadedProduct, error)
	MarkProductsDeactivated(ctx context.Context, productIDs []string) error
}

// Publisher is implemented by publish.Publisher.
type Publisher interface {
	PublishNext(ctx context.Context) (*publish.Result, error)
	Next(ctx context.Context) (*publish.Candidate, error)
	Bootstrap(ctx context.Context) (*publish.BootstrapResult, error)
	Markup() int
}

// UpdateHandler takes channel traffic. Implemented by ingest.Service.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update)
}

// AutoPublisher is implemented by scheduler.Scheduler.
type AutoPublisher interface {
	Interval() time.Duration
	SetInterval(interval time.Duration) error
}

// Services are the components the bot drives. Shafa and Refiner may be nil:
// without a marketplace session the commands that need it reply with
// MsgMarketplaceUnavailable.
type Services struct {
	Store     Store
	Publisher Publisher
	Channels  UpdateHandler
	Extractor *extract.Extractor
	Refiner   llm.Refiner
	Shafa     shafa.Service
}

// Bot is the main Telegram bot handler.
type Bot struct {
	tg        BotAPI
	adminID   int64
	store     Store
	publisher Publisher
	channels  UpdateHandler
	extractor *extract.Extractor
	refiner   llm.Refiner
	shafa     shafa.Service
	auto      AutoPublisher
}

// NewBot creates a new Bot instance.
func NewBot(tg BotAPI, adminID int64, svc Services) *Bot {
	extractor := svc.Extractor
	if extractor == nil {
		extractor = extract.NewExtractor(nil)
	}
	return &Bot{
		tg:        tg,
		adminID:   adminID,
		store:     svc.Store,
		publisher: svc.Publisher,
		channels:  svc.Channels,
		extractor: extractor,
		refiner:   svc.Refiner,
		shafa:     svc.Shafa,
	}
}

// SetAutoPublisher enables the /auto command.
func (b *Bot) SetAutoPublisher(auto AutoPublisher) {
	b.auto = auto
}

// HandleUpdate is the main message router. Channel traffic goes to the
// ingest service; private messages from the admin are commands.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) {
	if isChannelTraffic(update) {
		if b.channels != nil {
			b.channels.HandleUpdate(ctx, update)
		}
		return
	}

	msg := update.Message
	if msg == nil || msg.Chat == nil || !msg.Chat.IsPrivate() {
		return
	}
	if msg.From == nil || msg.From.ID != b.adminID {
		var userID int64
		if msg.From != nil {
			userID = msg.From.ID
		}
		log.Warn().Int64("userId", userID).Msg("message from non-admin user")
		b.reply(msg.Chat.ID, MsgNotAllowed)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg)
}

func isChannelTraffic(update tgbotapi.Update) bool {
	switch {
	case update.ChannelPost != nil, update.EditedChannelPost != nil:
		return true
	case update.MyChatMember != nil:
		return update.MyChatMember.Chat.IsChannel()
	case update.Message != nil:
		return update.Message.MigrateToChatID != 0
	}
	return false
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	command, args := parseCommand(msg.Text)
	log.Info().Str("command", command).Strs("args", args).Msg("handling command")

	chatID := msg.Chat.ID
	switch command {
	case "start", "help":
		b.reply(chatID, formatReplyText(MsgStart, commandHelp()))
	case "parse":
		b.handleParse(ctx, msg)
	case "next":
		b.handleNext(ctx, chatID)
	case "publish":
		b.handlePublish(ctx, chatID)
	case "bootstrap":
		b.handleBootstrap(ctx, chatID)
	case "channels":
		b.handleChannels(ctx, chatID)
	case "addchannel":
		b.handleAddChannel(ctx, chatID, args)
	case "removechannel":
		b.handleRemoveChannel(ctx, chatID, args)
	case "alias":
		b.handleAlias(ctx, chatID, args)
	case "products":
		b.handleProducts(ctx, chatID)
	case "deactivate":
		b.handleDeactivate(ctx, chatID, args)
	case "auto":
		b.handleAuto(chatID, args)
	default:
		b.reply(chatID, MsgUnknownCmd)
	}
}

// handleText previews the parse of a pasted or forwarded post.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	text := msg.Text
	if text == "" {
		text = msg.Caption
	}
	if text == "" {
		return
	}
	b.reply(msg.Chat.ID, b.describeParse(ctx, text))
}

// NotifyPublishResult tells the admin about an automatic publish run.
func (b *Bot) NotifyPublishResult(res *publish.Result, err error) {
	if err != nil {
		b.reply(b.adminID, formatReplyText(MsgAutoFailed, err.Error()))
		return
	}
	b.reply(b.adminID, MsgAutoPublished+"\n"+describeResult(res))
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.DisableWebPagePreview = true
	if _, err := b.tg.Send(msg); err != nil {
		log.Error().Err(err).Int64("chatId", chatID).Msg("failed to send message")
	}
}
