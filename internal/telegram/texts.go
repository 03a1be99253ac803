package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/ykvlv/water-reminder-bot/internal/domain"
)

// UI texts in English
const (
	startFmt = "🐾 Hi! I will remind you to drink water and send a cute cat with every reminder.\n\n" +
		"How often would you like to receive water reminders? Every %s is a good start. 🐾"
	stopText             = "🚫 Water reminders stopped. Stay hydrated though! 🐾"
	customPromptText     = "🐾 Please enter the number of hours between reminders (e.g. 3 for every 3 hours). 🐾"
	invalidFrequencyText = "❌ Please enter a whole number of hours between 1 and 24. 🐾"
	frequencySetFmt      = "✅ You will receive water reminders every %s."
	unknownText          = "🤔 I did not get that. Pick a frequency below, or use /info, /status, /stop."
	notStartedText       = "You have no reminders yet. Send /start to set them up."
	storeErrorText       = "⚠️ Could not save your settings. Please try again later."

	statusTitle = "🧾 Your reminder settings:"
	statusFmt   = "• Reminders: %s\n• Frequency: %s\n• Next reminder: %s"
)

// Keyboard labels. Preset labels are parsed by domain.PresetFrequency.
const (
	labelCustom = "🐾 Custom"
)

// The first preset is the suggested default.
var presetHours = []int{domain.DefaultFrequency, 4, 6}

func startMessage() string {
	return fmt.Sprintf(startFmt, domain.FormatHours(domain.DefaultFrequency))
}

// frequencyKeyboard builds the reply keyboard with preset frequencies and a
// Custom button.
func frequencyKeyboard() tgbotapi.ReplyKeyboardMarkup {
	kb := tgbotapi.NewReplyKeyboard(
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(presetLabel(presetHours[0])),
			tgbotapi.NewKeyboardButton(presetLabel(presetHours[1])),
		),
		tgbotapi.NewKeyboardButtonRow(
			tgbotapi.NewKeyboardButton(presetLabel(presetHours[2])),
			tgbotapi.NewKeyboardButton(labelCustom),
		),
	)
	kb.ResizeKeyboard = true
	return kb
}

func presetLabel(h int) string {
	return "🐾 Every " + itoa(h) + " hours"
}
