package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/raine/telegram-shafa-bot/config"
	"github.com/raine/telegram-shafa-bot/internal/app"
	"github.com/raine/telegram-shafa-bot/internal/publish"
	"github.com/raine/telegram-shafa-bot/internal/storage"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const (
	actionParse      = "parse"
	actionNext       = "next"
	actionPublish    = "publish"
	actionPublishAll = "publish-all"
	actionBootstrap  = "bootstrap"
	actionChannels   = "channels"
	actionAddChannel = "add-channel"
	actionProducts   = "products"
	actionDeactivate = "deactivate"
	actionQuit       = "quit"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))
	okStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	errStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
)

type cli struct {
	app       *app.App
	publisher *publish.Publisher
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.WarnLevel)

	config.LoadEnvFile()
	cfg, err := config.Load(config.RequiredBot)
	if err != nil {
		config.FatalWithWait("%v", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Photos are downloaded through the Bot API, so the token is needed even
	// without polling for updates.
	tg, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		config.FatalWithWait("failed to initialize telegram bot: %v", err)
	}

	a, err := app.Open(ctx, cfg)
	if err != nil {
		config.FatalWithWait("failed to initialize: %v", err)
	}
	defer a.Close()

	c := &cli{app: a, publisher: a.NewPublisher(tg)}
	fmt.Println(titleStyle.Render("👟 Telegram Shafa Bot"))
	if a.Shafa == nil {
		fmt.Println(errStyle.Render("No marketplace session. Run shafa-login to publish."))
	}

	for ctx.Err() == nil {
		action, err := c.chooseAction()
		if err != nil {
			if !errors.Is(err, huh.ErrUserAborted) {
				fmt.Println(errStyle.Render(err.Error()))
			}
			return
		}
		if action == actionQuit {
			return
		}
		if err := c.run(ctx, action); err != nil {
			fmt.Println(errStyle.Render("Error: " + err.Error()))
		}
		fmt.Println()
	}
}

func (c *cli) chooseAction() (string, error) {
	var action string
	err := huh.NewSelect[string]().
		Title("What do you want to do?").
		Options(
			huh.NewOption("Parse a post", actionParse),
			huh.NewOption("Show next queued product", actionNext),
			huh.NewOption("Publish next product", actionPublish),
			huh.NewOption("Publish whole queue", actionPublishAll),
			huh.NewOption("Refresh sizes and brands", actionBootstrap),
			huh.NewOption("List channels", actionChannels),
			huh.NewOption("Add channel", actionAddChannel),
			huh.NewOption("Recent products", actionProducts),
			huh.NewOption("Deactivate products", actionDeactivate),
			huh.NewOption("Quit", actionQuit),
		).
		Value(&action).
		Run()
	return action, err
}

func (c *cli) run(ctx context.Context, action string) error {
	switch action {
	case actionParse:
		return c.parse()
	case actionNext:
		return c.next(ctx)
	case actionPublish:
		if err := c.requireSession(); err != nil {
			return err
		}
		if err := c.publishOne(ctx); err != nil && !errors.Is(err, publish.ErrNothingToPublish) {
			return err
		}
	case actionPublishAll:
		if err := c.requireSession(); err != nil {
			return err
		}
		for {
			if err := c.publishOne(ctx); err != nil {
				if errors.Is(err, publish.ErrNothingToPublish) {
					return nil
				}
				return err
			}
		}
	case actionBootstrap:
		if err := c.requireSession(); err != nil {
			return err
		}
		res, err := c.publisher.Bootstrap(ctx)
		if err != nil {
			return err
		}
		for catalog, n := range res.Sizes {
			fmt.Printf("%s: %d sizes\n", catalog, n)
		}
		fmt.Println(okStyle.Render(fmt.Sprintf("✓ %d brands stored", res.Brands)))
	case actionChannels:
		return c.channels(ctx)
	case actionAddChannel:
		return c.addChannel(ctx)
	case actionProducts:
		return c.products(ctx)
	case actionDeactivate:
		if err := c.requireSession(); err != nil {
			return err
		}
		return c.deactivate(ctx)
	}
	return nil
}

func (c *cli) requireSession() error {
	if c.app.Shafa == nil {
		return errors.New("no marketplace session, run shafa-login first")
	}
	return nil
}

func (c *cli) parse() error {
	var text string
	if err := huh.NewText().Title("Paste the post text").Value(&text).Run(); err != nil {
		return err
	}
	l := c.app.Extractor.Parse(text)
	fmt.Printf("Name:   %s\nBrand:  %s\nSize:   %s %s\nColor:  %s\nPrice:  %s\n",
		l.Name, l.Brand, l.Size, strings.Join(l.AdditionalSizes, " "), l.Color, l.Price)
	fmt.Println(dimStyle.Render(fmt.Sprintf("confidence %.2f", l.Confidence)))
	if missing := l.Missing(); missing != "" {
		fmt.Println(errStyle.Render("missing " + missing))
	}
	return nil
}

func (c *cli) next(ctx context.Context) error {
	cand, err := c.publisher.Next(ctx)
	if err != nil {
		return err
	}
	if cand == nil {
		fmt.Println("Queue is empty.")
		return nil
	}
	fmt.Printf("Channel %d, message %d, %d photos\n", cand.Item.ChannelID, cand.Item.MessageID, cand.Photos)
	fmt.Printf("%s | %s | size %s | %s UAH\n", cand.Listing.Name, cand.Listing.Brand, cand.Listing.Size, cand.Listing.Price)
	if cand.BuildErr != nil {
		fmt.Println(errStyle.Render("cannot publish: " + cand.BuildErr.Error()))
	}
	return nil
}

func (c *cli) publishOne(ctx context.Context) error {
	res, err := c.publisher.PublishNext(ctx)
	if err != nil {
		if errors.Is(err, publish.ErrNothingToPublish) {
			fmt.Println("Queue is empty.")
		}
		return err
	}
	fmt.Println(okStyle.Render(fmt.Sprintf("✓ %s → %s (%d UAH, %d photos)", res.Name, res.ProductID, res.Price, res.Photos)))
	if res.Skipped > 0 {
		fmt.Println(dimStyle.Render(fmt.Sprintf("skipped %d posts with missing data", res.Skipped)))
	}
	return nil
}

func (c *cli) channels(ctx context.Context) error {
	channels, err := c.app.Store.ListChannels(ctx)
	if err != nil {
		return err
	}
	counts, err := c.app.Store.PendingCounts(ctx)
	if err != nil {
		return err
	}
	if len(channels) == 0 {
		fmt.Println("No channels yet.")
	}
	for _, ch := range channels {
		fmt.Printf("%-14d %-30s %d pending\n", ch.ID, ch.Label(), counts[ch.ID])
	}
	return nil
}

func (c *cli) addChannel(ctx context.Context) error {
	var idText, name string
	err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("Channel ID").Description("e.g. -1001234567890").Value(&idText).
			Validate(func(s string) error {
				if _, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err != nil {
					return errors.New("must be a number")
				}
				return nil
			}),
		huh.NewInput().Title("Name").Value(&name),
	)).Run()
	if err != nil {
		return err
	}
	id, _ := strconv.ParseInt(strings.TrimSpace(idText), 10, 64)
	if err := c.app.Store.SaveChannels(ctx, []storage.Channel{{ID: id, Name: name}}); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("✓ channel saved"))
	return nil
}

func (c *cli) products(ctx context.Context) error {
	products, err := c.app.Store.ListUploadedProducts(ctx, 20)
	if err != nil {
		return err
	}
	if len(products) == 0 {
		fmt.Println("Nothing published yet.")
	}
	for _, p := range products {
		status := ""
		if p.Deactivated {
			status = dimStyle.Render(" (deactivated)")
		}
		fmt.Printf("%-10s %-40s %6d UAH  %s%s\n", p.ProductID, p.Name, p.Price, p.CreatedAt.Format("2006-01-02 15:04"), status)
	}
	return nil
}

func (c *cli) deactivate(ctx context.Context) error {
	var input string
	if err := huh.NewInput().Title("Product IDs").Description("Separated by spaces or commas").Value(&input).Run(); err != nil {
		return err
	}
	var ids []int
	var names []string
	for _, field := range strings.FieldsFunc(input, func(r rune) bool { return r == ',' || r == ' ' }) {
		id, err := strconv.Atoi(field)
		if err != nil {
			return fmt.Errorf("invalid product id %q", field)
		}
		ids = append(ids, id)
		names = append(names, field)
	}
	if len(ids) == 0 {
		return nil
	}
	if err := c.app.Shafa.DeactivateProducts(ctx, ids); err != nil {
		return err
	}
	if err := c.app.Store.MarkProductsDeactivated(ctx, names); err != nil {
		return err
	}
	fmt.Println(okStyle.Render("✓ deactivated " + strings.Join(names, ", ")))
	return nil
}
