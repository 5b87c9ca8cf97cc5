package bot

import (
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog/log"
)

// Command defines a bot command with its handler key and Telegram menu description.
type Command struct {
	Name        string // Command name without slash (e.g., "publish")
	Description string // Description shown in Telegram command menu
}

// botCommands defines all available bot commands.
var botCommands = []Command{
	{Name: "start", Description: "Довідка"},
	{Name: "parse", Description: "Перевірити розбір тексту поста"},
	{Name: "next", Description: "Показати наступний товар у черзі"},
	{Name: "publish", Description: "Опублікувати наступний товар"},
	{Name: "bootstrap", Description: "Оновити розміри та бренди з Shafa"},
	{Name: "channels", Description: "Канали та черга"},
	{Name: "addchannel", Description: "Додати канал"},
	{Name: "removechannel", Description: "Видалити канал"},
	{Name: "alias", Description: "Задати псевдонім каналу"},
	{Name: "products", Description: "Опубліковані товари"},
	{Name: "deactivate", Description: "Зняти товари з продажу"},
	{Name: "auto", Description: "Інтервал автопублікації"},
}

// RegisterCommands sets the bot's command menu in Telegram.
// This should be called once at startup.
func RegisterCommands(tg BotAPI) {
	commands := make([]tgbotapi.BotCommand, len(botCommands))
	for i, cmd := range botCommands {
		commands[i] = tgbotapi.BotCommand{
			Command:     cmd.Name,
			Description: cmd.Description,
		}
	}

	config := tgbotapi.NewSetMyCommands(commands...)
	if _, err := tg.Request(config); err != nil {
		log.Error().Err(err).Msg("failed to set bot commands")
	} else {
		log.Info().Int("count", len(commands)).Msg("registered bot commands")
	}
}

func commandHelp() string {
	var sb strings.Builder
	for i, cmd := range botCommands {
		if i > 0 {
			sb.WriteString("\n")
		}
		fmt.Fprintf(&sb, "/%s - %s", cmd.Name, cmd.Description)
	}
	return sb.String()
}
