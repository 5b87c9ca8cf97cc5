package bot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/publish"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
)

const productsShown = 10

func (b *Bot) handleParse(ctx context.Context, msg *tgbotapi.Message) {
	text := commandText(msg.Text)
	if text == "" && msg.ReplyToMessage != nil {
		text = msg.ReplyToMessage.Text
		if text == "" {
			text = msg.ReplyToMessage.Caption
		}
	}
	if text == "" {
		b.reply(msg.Chat.ID, MsgParseUsage)
		return
	}
	b.reply(msg.Chat.ID, b.describeParse(ctx, text))
}

func (b *Bot) describeParse(ctx context.Context, text string) string {
	listing := b.extractor.Parse(text)
	refined := false
	if !listing.Complete() && b.refiner != nil {
		better, err := b.refiner.Refine(ctx, text, listing)
		if err != nil {
			log.Warn().Err(err).Msg("refiner failed, showing heuristic result")
		} else {
			refined = changed(listing, better)
			listing = better
		}
	}

	out := describeListing(listing)
	if missing := listing.Missing(); missing != "" {
		out += "\n\n" + fmt.Sprintf(MsgParseMissing, missing)
	}
	if refined {
		out += "\n" + MsgParseRefined
	}
	return out
}

func changed(a, b extract.ExtractedListing) bool {
	return a.Name != b.Name || a.Brand != b.Brand || a.Size != b.Size || a.Color != b.Color || a.Price != b.Price
}

func describeListing(l extract.ExtractedListing) string {
	return formatReplyText(MsgParseResult,
		orEmpty(l.Name),
		orEmpty(l.Brand),
		orEmpty(l.Size),
		orEmpty(strings.Join(l.AdditionalSizes, ", ")),
		orEmpty(l.Color),
		orEmpty(l.Price),
		l.Confidence,
	)
}

func (b *Bot) handleNext(ctx context.Context, chatID int64) {
	c, err := b.publisher.Next(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	if c == nil {
		b.reply(chatID, MsgQueueEmpty)
		return
	}

	text := formatReplyText(MsgNextCandidate,
		b.channelLabel(ctx, c.Item.ChannelID), c.Item.MessageID, c.Photos, describeListing(c.Listing))
	if c.BuildErr != nil {
		text += "\n\n" + fmt.Sprintf(MsgNextBuildErr, c.BuildErr)
	} else {
		p := c.Product
		additional := ""
		if len(p.AdditionalSizeIDs) > 0 {
			additional = fmt.Sprintf("+%v", p.AdditionalSizeIDs)
		}
		text += "\n\n" + formatReplyText(MsgNextProduct,
			p.CatalogSlug, p.BrandID, p.SizeID, additional,
			strings.Join(p.Colors, ", "), p.Price+b.publisher.Markup(), b.publisher.Markup())
	}
	b.reply(chatID, text)
}

func (b *Bot) handlePublish(ctx context.Context, chatID int64) {
	if b.shafa == nil {
		b.reply(chatID, MsgMarketplaceUnavailable)
		return
	}
	b.reply(chatID, MsgPublishing)

	res, err := b.publisher.PublishNext(ctx)
	switch {
	case errors.Is(err, publish.ErrNothingToPublish):
		b.reply(chatID, MsgQueueEmpty)
	case err != nil:
		log.Error().Err(err).Msg("publish failed")
		b.reply(chatID, fmt.Sprintf(MsgPublishFailed, err))
	default:
		b.reply(chatID, describeResult(res))
	}
}

func describeResult(res *publish.Result) string {
	text := fmt.Sprintf(MsgPublished, res.Name, res.ProductID, res.Price, res.Photos)
	if res.Skipped > 0 {
		text += "\n" + fmt.Sprintf(MsgSkipped, pluralize("пост", "пости", "постів", res.Skipped))
	}
	return text
}

func (b *Bot) handleBootstrap(ctx context.Context, chatID int64) {
	if b.shafa == nil {
		b.reply(chatID, MsgMarketplaceUnavailable)
		return
	}
	b.reply(chatID, MsgBootstrapStarted)

	res, err := b.publisher.Bootstrap(ctx)
	if err != nil {
		log.Error().Err(err).Msg("bootstrap failed")
		b.reply(chatID, fmt.Sprintf(MsgBootstrapFailed, err))
		return
	}

	catalogs := make([]string, 0, len(res.Sizes))
	for catalog := range res.Sizes {
		catalogs = append(catalogs, catalog)
	}
	slices.Sort(catalogs)
	lines := make([]string, 0, len(catalogs))
	for _, catalog := range catalogs {
		lines = append(lines, fmt.Sprintf(MsgBootstrapSizes, catalog, res.Sizes[catalog]))
	}
	b.reply(chatID, fmt.Sprintf(MsgBootstrapDone, strings.Join(lines, "\n"), res.Brands))
}

func (b *Bot) handleChannels(ctx context.Context, chatID int64) {
	channels, err := b.store.ListChannels(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	if len(channels) == 0 {
		b.reply(chatID, MsgChannelsEmpty)
		return
	}
	counts, err := b.store.PendingCounts(ctx)
	if err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}

	lines := []string{MsgChannelsHeader}
	for _, c := range channels {
		lines = append(lines, fmt.Sprintf(MsgChannelLine, c.Label(), c.ID, pluralize("товар", "товари", "товарів", counts[c.ID])))
	}
	b.reply(chatID, strings.Join(lines, "\n"))
}

func (b *Bot) handleAddChannel(ctx context.Context, chatID int64, args []string) {
	if len(args) == 0 {
		b.reply(chatID, MsgAddChannelUsage)
		return
	}
	id, ok := parseChannelID(args[0])
	if !ok {
		b.reply(chatID, fmt.Sprintf(MsgInvalidChannelID, args[0]))
		return
	}
	name := strings.Join(args[1:], " ")
	if err := b.store.SaveChannels(ctx, []storage.Channel{{ID: id, Name: name}}); err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	log.Info().Int64("channelId", id).Str("name", name).Msg("channel added")
	b.reply(chatID, fmt.Sprintf(MsgChannelAdded, id))
}

func (b *Bot) handleRemoveChannel(ctx context.Context, chatID int64, args []string) {
	if len(args) != 1 {
		b.reply(chatID, MsgRemoveChannelUsage)
		return
	}
	id, ok := parseChannelID(args[0])
	if !ok {
		b.reply(chatID, fmt.Sprintf(MsgInvalidChannelID, args[0]))
		return
	}
	removed, err := b.store.DeleteChannel(ctx, id)
	if err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	if !removed {
		b.reply(chatID, fmt.Sprintf(MsgChannelNotFound, id))
		return
	}
	log.Info().Int64("channelId", id).Msg("channel removed")
	b.reply(chatID, fmt.Sprintf(MsgChannelRemoved, id))
}

func (b *Bot) handleAlias(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.reply(chatID, MsgAliasUsage)
		return
	}
	id, ok := parseChannelID(args[0])
	if !ok {
		b.reply(chatID, fmt.Sprintf(MsgInvalidChannelID, args[0]))
		return
	}
	alias := strings.Join(args[1:], " ")
	found, err := b.store.SetChannelAlias(ctx, id, alias)
	if err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	if !found {
		b.reply(chatID, fmt.Sprintf(MsgChannelNotFound, id))
		return
	}
	b.reply(chatID, fmt.Sprintf(MsgAliasSet, id, alias))
}

func (b *Bot) channelLabel(ctx context.Context, channelID int64) string {
	channels, err := b.store.ListChannels(ctx)
	if err == nil {
		for _, c := range channels {
			if c.ID == channelID {
				return c.Label()
			}
		}
	}
	return strconv.FormatInt(channelID, 10)
}

func (b *Bot) handleProducts(ctx context.Context, chatID int64) {
	products, err := b.store.ListUploadedProducts(ctx, productsShown)
	if err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	if len(products) == 0 {
		b.reply(chatID, MsgProductsEmpty)
		return
	}

	lines := []string{MsgProductsHeader}
	for _, p := range products {
		suffix := ""
		if p.Deactivated {
			suffix = MsgProductDeactivated
		}
		lines = append(lines, fmt.Sprintf(MsgProductLine, p.ProductID, p.Name, p.Price, suffix))
	}

	if b.shafa != nil {
		page, err := b.shafa.ProductsFeed(ctx, 1, "")
		if err != nil {
			log.Warn().Err(err).Msg("failed to fetch products feed")
		} else {
			lines = append(lines, "", fmt.Sprintf(MsgProductsActive, page.Total))
		}
	}
	b.reply(chatID, strings.Join(lines, "\n"))
}

func (b *Bot) handleDeactivate(ctx context.Context, chatID int64, args []string) {
	if b.shafa == nil {
		b.reply(chatID, MsgMarketplaceUnavailable)
		return
	}
	var ids []int
	var names []string
	for _, arg := range args {
		for _, field := range strings.Split(arg, ",") {
			if field == "" {
				continue
			}
			id, err := strconv.Atoi(field)
			if err != nil || id <= 0 {
				b.reply(chatID, fmt.Sprintf(MsgInvalidProductID, field))
				return
			}
			ids = append(ids, id)
			names = append(names, field)
		}
	}
	if len(ids) == 0 {
		b.reply(chatID, MsgDeactivateUsage)
		return
	}

	if err := b.shafa.DeactivateProducts(ctx, ids); err != nil {
		log.Error().Err(err).Ints("ids", ids).Msg("deactivation failed")
		b.reply(chatID, fmt.Sprintf(MsgDeactivateFailed, err))
		return
	}
	if err := b.store.MarkProductsDeactivated(ctx, names); err != nil {
		log.Error().Err(err).Msg("failed to record deactivation")
	}
	b.reply(chatID, fmt.Sprintf(MsgDeactivated, strings.Join(names, ", ")))
}

func (b *Bot) handleAuto(chatID int64, args []string) {
	if b.auto == nil {
		b.reply(chatID, MsgAutoNotReady)
		return
	}
	if len(args) == 0 {
		b.reply(chatID, describeInterval(b.auto.Interval()))
		return
	}
	minutes, err := strconv.Atoi(args[0])
	if err != nil || minutes < 0 {
		b.reply(chatID, MsgAutoInvalid)
		return
	}
	if err := b.auto.SetInterval(time.Duration(minutes) * time.Minute); err != nil {
		b.reply(chatID, fmt.Sprintf(MsgUnexpectedErr, err))
		return
	}
	b.reply(chatID, describeInterval(b.auto.Interval()))
}

func describeInterval(d time.Duration) string {
	if d <= 0 {
		return MsgAutoOff
	}
	return fmt.Sprintf(MsgAutoOn, pluralize("хвилину", "хвилини", "хвилин", int(d/time.Minute)))
}
