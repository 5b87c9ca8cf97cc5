package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/raine/telegram-shafa-bot/config"
	"github.com/raine/telegram-shafa-bot/internal/browser"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	var (
		autoDetect bool
		fresh      bool
		execPath   string
		profileDir string
		timeout    time.Duration
	)
	flag.BoolVar(&autoDetect, "auto", false, "Finish as soon as a csrftoken cookie appears instead of waiting for Enter")
	flag.BoolVar(&fresh, "fresh", false, "Ignore the stored session and log in from scratch")
	flag.StringVar(&execPath, "chrome", "", "Path to the Chrome binary")
	flag.StringVar(&profileDir, "profile", "", "Browser profile directory to reuse")
	flag.DurationVar(&timeout, "timeout", browser.DefaultLoginTimeout, "How long to wait for the login")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	config.LoadEnvFile()
	cfg, err := config.Load(config.RequiredStore)
	if err != nil {
		config.FatalWithWait("%v", err)
	}

	key, err := storage.DeriveKey(cfg.TokenKey)
	if err != nil {
		config.FatalWithWait("failed to derive encryption key: %v", err)
	}
	store, err := storage.NewSQLiteStore(cfg.DBPath, key)
	if err != nil {
		config.FatalWithWait("failed to open database at %s: %v", cfg.DBPath, err)
	}
	defer store.Close()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	opts := browser.Options{
		ExecPath:    execPath,
		UserDataDir: profileDir,
		Timeout:     timeout,
	}
	if !fresh {
		if opts.Cookies, err = store.LoadCookies(ctx); err != nil {
			config.FatalWithWait("failed to load stored cookies: %v", err)
		}
	}
	if !autoDetect {
		opts.Ready = waitForEnterKey
	}

	fmt.Println("Log in to shafa.ua in the browser window that opens.")
	cookies, err := browser.Login(ctx, opts)
	if err != nil {
		config.FatalWithWait("login failed: %v", err)
	}

	n, err := store.SaveCookies(ctx, cookies)
	if err != nil {
		config.FatalWithWait("failed to save cookies: %v", err)
	}
	log.Info().Int("cookies", n).Msg("marketplace session saved")
	fmt.Println("Session saved. Restart the bot to use it.")
}

func waitForEnterKey(ctx context.Context) error {
	fmt.Println("Press Enter once you are logged in...")
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(os.Stdin).ReadString('\n')
		done <- err
	}()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
