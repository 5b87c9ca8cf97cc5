package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
)

const (
	// DefaultDownloadTimeout bounds a single Telegram file download.
	DefaultDownloadTimeout = 30 * time.Second
	// MaxDownloadBytes is the largest file the Bot API lets bots download.
	MaxDownloadBytes = 20 * 1024 * 1024
)

var ErrFileTooLarge = errors.New("file too large")

// FileURLResolver turns a Telegram file id into a download URL.
// *tgbotapi.BotAPI satisfies it.
type FileURLResolver interface {
	GetFileDirectURL(fileID string) (string, error)
}

// Downloader fetches channel photos from Telegram.
type Downloader struct {
	client  *resty.Client
	files   FileURLResolver
	maxSize int64
}

func NewDownloader(files FileURLResolver) *Downloader {
	return &Downloader{
		client:  resty.New().SetTimeout(DefaultDownloadTimeout),
		files:   files,
		maxSize: MaxDownloadBytes,
	}
}

// WithMaxSize sets a custom maximum file size.
func (d *Downloader) WithMaxSize(maxSize int64) *Downloader {
	d.maxSize = maxSize
	return d
}

// Download returns the content of a Telegram file.
func (d *Downloader) Download(ctx context.Context, fileID string) ([]byte, error) {
	log.Debug().Str("fileID", fileID).Msg("downloading telegram file")

	url, err := d.files.GetFileDirectURL(fileID)
	if err != nil {
		return nil, fmt.Errorf("failed to get file URL: %w", err)
	}

	res, err := d.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return nil, fmt.Errorf("failed to download file: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("download failed: status %d", res.StatusCode())
	}

	data := res.Body()
	if int64(len(data)) > d.maxSize {
		return nil, fmt.Errorf("%w: %d bytes exceeds limit of %d bytes", ErrFileTooLarge, len(data), d.maxSize)
	}
	return data, nil
}
