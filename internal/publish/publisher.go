// Package publish moves queued channel posts onto the marketplace.
package publish

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/raine/telegram-shafa-bot/internal/extract"
	"github.com/raine/telegram-shafa-bot/internal/resolve"
	"github.com/raine/telegram-shafa-bot/internal/shafa"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

const (
	DefaultMarkup    = 200
	DefaultMaxPhotos = 10
	// MaxUploadBytes is the largest photo the marketplace accepts.
	MaxUploadBytes = 10 * 1024 * 1024

	downloadWorkers = 3
)

var ErrNothingToPublish = errors.New("nothing to publish")

// Store is the storage the publisher reads the queue from and records
// results in.
type Store interface {
	resolve.ReferenceData
	extract.BrandSource
	ListChannels(ctx context.Context) ([]storage.Channel, error)
	NextPendingProduct(ctx context.Context, channelID int64) (*storage.TelegramProduct, error)
	PhotosForProduct(ctx context.Context, channelID int64, messageID int, mediaGroupID string) ([]storage.Photo, error)
	MarkProductCreated(ctx context.Context, channelID int64, messageID int, productID string) error
	SaveUploadedProduct(ctx context.Context, p *storage.UploadedProduct) error
	SaveSizes(ctx context.Context, catalogSlug string, sizes []storage.Size) error
	CountSizes(ctx context.Context, catalogSlug string) (int, error)
	SaveBrands(ctx context.Context, brands []storage.Brand) error
}

// Options configure a Publisher. Zero values fall back to defaults.
type Options struct {
	Markup         int
	MaxPhotos      int
	MaxUploadBytes int
	// ChannelIDs limits the queue to these channels instead of all stored ones.
	ChannelIDs []int64
	// FallbackBrands maps lowercase brand names to ids when the brand table
	// has no match.
	FallbackBrands map[string]int
	// LogDir receives one publish log per product. Empty disables them.
	LogDir string
}

// Result describes a created listing.
type Result struct {
	ChannelID int64
	MessageID int
	ProductID string
	Name      string
	Price     int
	Photos    int
	// Skipped counts queue entries dropped for missing data on the way.
	Skipped int
}

// Candidate is the next queued post with the product it would become.
type Candidate struct {
	Item     *storage.TelegramProduct
	Listing  extract.ExtractedListing
	Product  shafa.Product
	BuildErr error
	Photos   int
}

// Publisher creates marketplace listings from the queue, one at a time.
type Publisher struct {
	store      Store
	shafa      shafa.Service
	extractor  *extract.Extractor
	resolver   *resolve.Resolver
	downloader *Downloader
	opts       Options

	mu sync.Mutex
}

func NewPublisher(store Store, svc shafa.Service, files FileURLResolver, extractor *extract.Extractor, opts Options) *Publisher {
	if opts.Markup == 0 {
		opts.Markup = DefaultMarkup
	}
	if opts.MaxPhotos <= 0 {
		opts.MaxPhotos = DefaultMaxPhotos
	}
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = MaxUploadBytes
	}
	if extractor == nil {
		extractor = extract.NewExtractor(nil)
	}
	return &Publisher{
		store:      store,
		shafa:      svc,
		extractor:  extractor,
		resolver:   resolve.New(store, opts.FallbackBrands),
		downloader: NewDownloader(files),
		opts:       opts,
	}
}

// Markup is the amount added to every price.
func (p *Publisher) Markup() int {
	return p.opts.Markup
}

// PublishNext creates a listing for the newest queued post. Posts whose
// text no longer yields a price and a size, or whose fields cannot be
// resolved, are marked as skipped and the next one is tried. It returns
// ErrNothingToPublish when the queue is empty.
func (p *Publisher) PublishNext(ctx context.Context) (*Result, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	skipped := 0
	for {
		item, err := p.nextPending(ctx)
		if err != nil {
			return nil, err
		}
		if item == nil {
			if skipped > 0 {
				log.Info().Int("skipped", skipped).Msg("queue drained by skipped products")
			}
			return nil, ErrNothingToPublish
		}

		res, err := p.publish(ctx, item)
		if errors.Is(err, errSkip) {
			skipped++
			continue
		}
		if err != nil {
			return nil, err
		}
		res.Skipped = skipped
		return res, nil
	}
}

// Next previews the post PublishNext would pick, without side effects.
// It returns nil, nil when the queue is empty.
func (p *Publisher) Next(ctx context.Context) (*Candidate, error) {
	item, err := p.nextPending(ctx)
	if err != nil || item == nil {
		return nil, err
	}
	c := &Candidate{Item: item, Listing: p.listingFor(item)}
	c.Product, c.BuildErr = p.resolver.BuildProduct(ctx, c.Listing)

	photos, err := p.store.PhotosForProduct(ctx, item.ChannelID, item.MessageID, item.MediaGroupID)
	if err != nil {
		return nil, err
	}
	c.Photos = min(len(photos), p.opts.MaxPhotos)
	return c, nil
}

// nextPending returns the most recently queued pending post across channels.
func (p *Publisher) nextPending(ctx context.Context) (*storage.TelegramProduct, error) {
	ids := p.opts.ChannelIDs
	if len(ids) == 0 {
		channels, err := p.store.ListChannels(ctx)
		if err != nil {
			return nil, err
		}
		for _, c := range channels {
			ids = append(ids, c.ID)
		}
	}

	var best *storage.TelegramProduct
	for _, id := range ids {
		item, err := p.store.NextPendingProduct(ctx, id)
		if err != nil {
			return nil, err
		}
		if item != nil && (best == nil || item.CreatedAt.After(best.CreatedAt)) {
			best = item
		}
	}
	return best, nil
}

// listingFor prefers a fresh parse of the stored text, so vocabulary and
// brand updates apply to queued posts. The stored result is kept when the
// fresh parse lost the price or the size.
func (p *Publisher) listingFor(item *storage.TelegramProduct) extract.ExtractedListing {
	if item.RawMessage != "" {
		fresh := p.extractor.Parse(item.RawMessage)
		if fresh.Price != "" && fresh.Size != "" {
			if fresh.Name == "" {
				fresh.Name = item.Parsed.Name
			}
			return fresh
		}
	}
	return item.Parsed
}

var errSkip = errors.New("product skipped")

func (p *Publisher) skip(ctx context.Context, item *storage.TelegramProduct, rl *runLog, reason string) error {
	log.Warn().Int64("channelID", item.ChannelID).Int("messageID", item.MessageID).Str("reason", reason).Msg("skipping queued product")
	rl.Warn("skipped: %s", reason)
	if err := p.store.MarkProductCreated(ctx, item.ChannelID, item.MessageID, storage.SkippedMissingData); err != nil {
		return err
	}
	return errSkip
}

func (p *Publisher) publish(ctx context.Context, item *storage.TelegramProduct) (*Result, error) {
	rl := startRunLog(p.opts.LogDir, item.ChannelID, item.MessageID)
	logger := log.With().Int64("channelID", item.ChannelID).Int("messageID", item.MessageID).Logger()

	listing := p.listingFor(item)
	rl.Info("listing: name=%q brand=%q size=%q additional=%v color=%q price=%q",
		listing.Name, listing.Brand, listing.Size, listing.AdditionalSizes, listing.Color, listing.Price)
	if listing.Price == "" || listing.Size == "" {
		return nil, p.skip(ctx, item, rl, "missing "+listing.Missing())
	}

	product, err := p.build(ctx, listing, rl)
	if errors.Is(err, resolve.ErrUnresolvedSize) || errors.Is(err, resolve.ErrInvalidPrice) {
		return nil, p.skip(ctx, item, rl, err.Error())
	}
	if err != nil {
		rl.Error("%v", err)
		return nil, err
	}
	logger.Info().Str("name", product.Name).Int("price", product.Price+p.opts.Markup).Msg("publishing product")

	photos, err := p.downloadPhotos(ctx, item, rl)
	if err != nil {
		rl.Error("%v", err)
		return nil, err
	}

	photoIDs := make([]string, 0, len(photos))
	for i, data := range photos {
		id, err := p.shafa.UploadPhoto(ctx, uuid.NewString()+".jpg", data)
		if err != nil {
			rl.Error("upload photo %d/%d: %v", i+1, len(photos), err)
			return nil, fmt.Errorf("failed to upload photo: %w", err)
		}
		rl.API("uploaded photo %d/%d: %s", i+1, len(photos), id)
		photoIDs = append(photoIDs, id)
	}
	if len(photoIDs) == 0 {
		logger.Warn().Msg("publishing without photos")
		rl.Warn("no photos to upload")
	}

	created, err := p.shafa.CreateProduct(ctx, photoIDs, product, p.opts.Markup)
	if shafa.IsFieldError(err, "size") {
		logger.Warn().Err(err).Msg("marketplace rejected size, refreshing sizes")
		rl.Warn("size rejected, refreshing %s", product.CatalogSlug)
		if err := p.refreshSizes(ctx, product.CatalogSlug); err != nil {
			rl.Error("%v", err)
			return nil, err
		}
		product, err = p.resolver.BuildProduct(ctx, listing)
		if err != nil {
			return nil, p.skip(ctx, item, rl, err.Error())
		}
		created, err = p.shafa.CreateProduct(ctx, photoIDs, product, p.opts.Markup)
	}
	if err != nil {
		rl.Error("create product: %v", err)
		return nil, fmt.Errorf("failed to create product: %w", err)
	}
	rl.API("created product %s", created.ProductID)

	if err := p.store.SaveUploadedProduct(ctx, &storage.UploadedProduct{
		ProductID:  created.ProductID,
		ChannelID:  item.ChannelID,
		MessageID:  item.MessageID,
		Name:       product.Name,
		BrandID:    product.BrandID,
		SizeID:     product.SizeID,
		Price:      product.Price,
		PhotoIDs:   photoIDs,
		RawPayload: created.Variables,
	}); err != nil {
		return nil, err
	}
	if err := p.store.MarkProductCreated(ctx, item.ChannelID, item.MessageID, created.ProductID); err != nil {
		return nil, err
	}

	logger.Info().Str("productID", created.ProductID).Int("photos", len(photoIDs)).Msg("product created")
	rl.Info("done")
	return &Result{
		ChannelID: item.ChannelID,
		MessageID: item.MessageID,
		ProductID: created.ProductID,
		Name:      product.Name,
		Price:     product.Price + p.opts.Markup,
		Photos:    len(photoIDs),
	}, nil
}

// build resolves the listing, refreshing the catalog's sizes once when the
// main size is unknown locally.
func (p *Publisher) build(ctx context.Context, listing extract.ExtractedListing, rl *runLog) (shafa.Product, error) {
	product, err := p.resolver.BuildProduct(ctx, listing)
	if !errors.Is(err, resolve.ErrUnresolvedSize) {
		return product, err
	}
	rl.Warn("size %q unknown, refreshing %s", listing.Size, product.CatalogSlug)
	if err := p.refreshSizes(ctx, product.CatalogSlug); err != nil {
		return product, err
	}
	return p.resolver.BuildProduct(ctx, listing)
}

func (p *Publisher) refreshSizes(ctx context.Context, catalogSlug string) error {
	sizes, err := p.shafa.FetchSizes(ctx, catalogSlug)
	if err != nil {
		return fmt.Errorf("failed to fetch sizes for %s: %w", catalogSlug, err)
	}
	rows := make([]storage.Size, 0, len(sizes))
	for _, s := range sizes {
		rows = append(rows, storage.Size{ID: s.ID, CatalogSlug: catalogSlug, Name: s.Name})
	}
	if err := p.store.SaveSizes(ctx, catalogSlug, rows); err != nil {
		return err
	}
	log.Info().Str("catalog", catalogSlug).Int("sizes", len(rows)).Msg("refreshed sizes")
	return nil
}

// downloadPhotos fetches up to MaxPhotos photos of the post and its album.
// Photos that fail to download or cannot be brought under the upload limit
// are left out.
func (p *Publisher) downloadPhotos(ctx context.Context, item *storage.TelegramProduct, rl *runLog) ([][]byte, error) {
	photos, err := p.store.PhotosForProduct(ctx, item.ChannelID, item.MessageID, item.MediaGroupID)
	if err != nil {
		return nil, err
	}

	queue := make([]storage.Photo, 0, len(photos))
	for _, ph := range photos {
		if ph.FileSize > MaxDownloadBytes {
			rl.Warn("photo %d is %d bytes, over the download limit", ph.MessageID, ph.FileSize)
			continue
		}
		queue = append(queue, ph)
	}
	if len(queue) > p.opts.MaxPhotos {
		rl.Info("limiting photos to %d of %d", p.opts.MaxPhotos, len(queue))
		queue = queue[:p.opts.MaxPhotos]
	}

	results := make([][]byte, len(queue))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(downloadWorkers)
	for i, ph := range queue {
		g.Go(func() error {
			data, err := p.downloader.Download(gctx, ph.FileID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				log.Warn().Err(err).Int("messageID", ph.MessageID).Msg("failed to download photo")
				rl.Warn("photo %d: %v", ph.MessageID, err)
				return nil
			}
			data, err = fitUploadLimit(data, p.opts.MaxUploadBytes)
			if err != nil {
				rl.Warn("photo %d: %v", ph.MessageID, err)
				return nil
			}
			results[i] = data
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := results[:0]
	for _, data := range results {
		if data != nil {
			out = append(out, data)
		}
	}
	rl.Info("downloaded %d of %d photos", len(out), len(photos))
	return out, nil
}
