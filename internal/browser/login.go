// Package browser drives a real Chrome window for the marketplace login,
// which has no API of its own.
package browser

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog/log"
)

const (
	DefaultLoginURL     = "https://shafa.ua/uk/my/clothes"
	DefaultLoginTimeout = 10 * time.Minute
	defaultPollInterval = 2 * time.Second

	csrfCookieName = "csrftoken"
)

var ErrLoginTimeout = errors.New("timed out waiting for login")

// Options configure Login.
type Options struct {
	URL      string
	Headless bool
	// ExecPath overrides the Chrome binary chromedp would find.
	ExecPath string
	// UserDataDir keeps the browser profile between runs.
	UserDataDir string
	// Cookies are loaded into the browser before the page opens, so an
	// earlier session can be resumed.
	Cookies []storage.Cookie
	// Ready blocks until the user says the login is done. When nil, Login
	// returns as soon as the session cookies contain a CSRF token.
	Ready        func(ctx context.Context) error
	PollInterval time.Duration
	Timeout      time.Duration
}

func allocatorOptions(opts Options) []chromedp.ExecAllocatorOption {
	execOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.Flag("enable-automation", false),
		chromedp.Flag("disable-infobars", true),
		chromedp.WindowSize(1280, 900),
	)
	if opts.ExecPath != "" {
		execOpts = append(execOpts, chromedp.ExecPath(opts.ExecPath))
	}
	if opts.UserDataDir != "" {
		execOpts = append(execOpts, chromedp.UserDataDir(opts.UserDataDir))
	}
	return execOpts
}

// Login opens the marketplace, waits for the user to sign in and returns
// the marketplace cookies of the session.
func Login(ctx context.Context, opts Options) ([]storage.Cookie, error) {
	if opts.URL == "" {
		opts.URL = DefaultLoginURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultLoginTimeout
	}
	if opts.PollInterval <= 0 {
		opts.PollInterval = defaultPollInterval
	}

	ctx, cancel := context.WithTimeout(ctx, opts.Timeout)
	defer cancel()

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, allocatorOptions(opts)...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	actions := []chromedp.Action{network.Enable()}
	if len(opts.Cookies) > 0 {
		actions = append(actions, network.SetCookies(toCookieParams(opts.Cookies)))
	}
	actions = append(actions, chromedp.Navigate(opts.URL))
	if err := chromedp.Run(browserCtx, actions...); err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", opts.URL, err)
	}
	log.Info().Str("url", opts.URL).Msg("browser opened, waiting for login")

	if opts.Ready != nil {
		if err := opts.Ready(ctx); err != nil {
			return nil, err
		}
		cookies, err := readCookies(browserCtx)
		if err != nil {
			return nil, err
		}
		if !hasCSRFToken(cookies) {
			return nil, fmt.Errorf("no %s cookie after login", csrfCookieName)
		}
		return cookies, nil
	}

	ticker := time.NewTicker(opts.PollInterval)
	defer ticker.Stop()
	for {
		cookies, err := readCookies(browserCtx)
		if err != nil {
			return nil, err
		}
		if hasCSRFToken(cookies) {
			log.Info().Int("cookies", len(cookies)).Msg("login detected")
			return cookies, nil
		}
		select {
		case <-ctx.Done():
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return nil, ErrLoginTimeout
			}
			return nil, ctx.Err()
		case <-ticker.C:
		}
	}
}

func readCookies(ctx context.Context) ([]storage.Cookie, error) {
	var raw []*network.Cookie
	err := chromedp.Run(ctx, chromedp.ActionFunc(func(ctx context.Context) error {
		var err error
		raw, err = network.GetCookies().Do(ctx)
		return err
	}))
	if err != nil {
		return nil, fmt.Errorf("failed to read browser cookies: %w", err)
	}
	return fromNetworkCookies(raw), nil
}

// fromNetworkCookies keeps the marketplace cookies only.
func fromNetworkCookies(raw []*network.Cookie) []storage.Cookie {
	var cookies []storage.Cookie
	for _, c := range raw {
		if c == nil || !storage.IsAllowedCookieDomain(c.Domain) {
			continue
		}
		cookies = append(cookies, storage.Cookie{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			Expires:  c.Expires,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
			SameSite: string(c.SameSite),
		})
	}
	return cookies
}

func toCookieParams(cookies []storage.Cookie) []*network.CookieParam {
	params := make([]*network.CookieParam, 0, len(cookies))
	for _, c := range cookies {
		params = append(params, &network.CookieParam{
			Name:     c.Name,
			Value:    c.Value,
			Domain:   c.Domain,
			Path:     c.Path,
			HTTPOnly: c.HTTPOnly,
			Secure:   c.Secure,
		})
	}
	return params
}

func hasCSRFToken(cookies []storage.Cookie) bool {
	for _, c := range cookies {
		if c.Name == csrfCookieName && c.Value != "" {
			return true
		}
	}
	return false
}
