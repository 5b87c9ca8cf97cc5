package bot

// =============================================================================
// General messages
// =============================================================================

const (
	MsgUnexpectedErr = `Неочікувана помилка: %s`
	MsgNotAllowed    = "Цей бот працює лише для власника магазину."
	MsgUnknownCmd    = "Невідома команда. Список команд: /start"
	MsgStart         = `
		Я переношу товари з Telegram-каналів на Shafa.

		Додайте мене адміністратором каналу, і нові пости з фото, назвою, ціною та розміром потраплять у чергу.
		Надішліть або перешліть мені текст поста, щоб перевірити розбір.

		Команди:
		%s`
	MsgMarketplaceUnavailable = "Немає сесії Shafa. Запустіть shafa-login і перезапустіть бота."
)

// =============================================================================
// Parsing messages
// =============================================================================

const (
	MsgParseUsage   = "Використання: /parse <текст поста> або відповідь на повідомлення з текстом"
	MsgParseResult = `
		Назва: %s
		Бренд: %s
		Розмір: %s
		Додаткові розміри: %s
		Колір: %s
		Ціна: %s
		Впевненість: %.2f`
	MsgParseMissing = "⚠️ Не вистачає: %s"
	MsgParseRefined = "✨ Доповнено за допомогою Gemini"
	MsgFieldEmpty   = "-"
)

// =============================================================================
// Queue and publishing messages
// =============================================================================

const (
	MsgQueueEmpty    = "Черга порожня."
	MsgNextCandidate = `
		Наступний товар: канал %s, пост %d
		Фото: %d

		%s`
	MsgNextProduct = `
		Каталог: %s
		Бренд ID: %d
		Розмір ID: %d %s
		Кольори: %s
		Ціна на Shafa: %d грн (націнка %d)`
	MsgNextBuildErr  = "❌ Не вдасться опублікувати: %s"
	MsgPublishing    = "Публікую..."
	MsgPublished     = "✅ Опубліковано: %s\nShafa ID: %s\nЦіна: %d грн, фото: %d"
	MsgPublishFailed = "❌ Публікація не вдалася: %s"
	MsgSkipped       = "Пропущено через брак даних: %s"
	MsgAutoPublished = "🤖 Автопублікація"
	MsgAutoFailed    = "🤖 Автопублікація не вдалася: %s"
)

// =============================================================================
// Bootstrap messages
// =============================================================================

const (
	MsgBootstrapStarted = "Завантажую розміри та бренди з Shafa..."
	MsgBootstrapDone    = "✅ Довідники оновлено.\n%s\nБрендів: %d"
	MsgBootstrapSizes   = "Розмірів у %s: %d"
	MsgBootstrapFailed  = "❌ Не вдалося оновити довідники: %s"
)

// =============================================================================
// Channel messages
// =============================================================================

const (
	MsgChannelsEmpty      = "Каналів ще немає. Додайте бота адміністратором каналу або скористайтеся /addchannel."
	MsgChannelsHeader     = "Канали:"
	MsgChannelLine        = "• %s (%d): %s у черзі"
	MsgAddChannelUsage    = "Використання: /addchannel <id> [назва]"
	MsgChannelAdded       = "✅ Канал %d додано."
	MsgRemoveChannelUsage = "Використання: /removechannel <id>"
	MsgChannelRemoved     = "✅ Канал %d видалено. Товари в черзі залишились."
	MsgChannelNotFound    = "Канал %d не знайдено."
	MsgAliasUsage         = "Використання: /alias <id> <псевдонім>"
	MsgAliasSet           = "✅ Псевдонім каналу %d: %s"
	MsgInvalidChannelID   = "Невірний ID каналу: %s"
)

// =============================================================================
// Marketplace product messages
// =============================================================================

const (
	MsgProductsEmpty      = "Ще нічого не опубліковано."
	MsgProductsHeader     = "Останні товари:"
	MsgProductLine        = "• %s: %s, %d грн%s"
	MsgProductDeactivated = " (знято)"
	MsgProductsActive     = "Активних на Shafa: %d"
	MsgDeactivateUsage    = "Використання: /deactivate <id> [id...]"
	MsgInvalidProductID   = "Невірний ID товару: %s"
	MsgDeactivated        = "✅ Знято з продажу: %s"
	MsgDeactivateFailed   = "❌ Не вдалося зняти з продажу: %s"
)

// =============================================================================
// Auto publish messages
// =============================================================================

const (
	MsgAutoUsage    = "Використання: /auto <хвилини>, 0 вимикає"
	MsgAutoOff      = "Автопублікація вимкнена."
	MsgAutoOn       = "Автопублікація кожні %s."
	MsgAutoInvalid  = "Кількість хвилин має бути цілим числом від 0."
	MsgAutoNotReady = "Автопублікація недоступна."
)
