package telegram

import (
	"strconv"
	"strings"

	"github.com/ykvlv/water-reminder-bot/internal/domain"
)

type intentKind int

const (
	intentUnknown intentKind = iota
	intentStart
	intentStop
	intentInfo
	intentStatus
	intentCustom
	intentFrequency
	intentInvalidFrequency
)

// intent is the classified meaning of one inbound text.
type intent struct {
	kind  intentKind
	hours int   // intentFrequency
	err   error // intentInvalidFrequency
}

// classify maps inbound text to an intent. awaitingCustom is true right after
// the user pressed Custom, so any text is read as a frequency.
func classify(text string, awaitingCustom bool) intent {
	text = strings.TrimSpace(text)

	switch {
	case isCommand(text, "/start"):
		return intent{kind: intentStart}
	case isCommand(text, "/stop"):
		return intent{kind: intentStop}
	case isCommand(text, "/info"), isCommand(text, "/help"):
		return intent{kind: intentInfo}
	case isCommand(text, "/status"):
		return intent{kind: intentStatus}
	case strings.EqualFold(strings.TrimSpace(strings.TrimPrefix(text, "🐾")), "custom"):
		return intent{kind: intentCustom}
	}

	if h, matched, err := domain.PresetFrequency(text); matched {
		if err != nil {
			return intent{kind: intentInvalidFrequency, err: err}
		}
		return intent{kind: intentFrequency, hours: h}
	}
	if awaitingCustom || looksNumeric(text) {
		h, err := domain.ParseFrequency(text)
		if err != nil {
			return intent{kind: intentInvalidFrequency, err: err}
		}
		return intent{kind: intentFrequency, hours: h}
	}
	return intent{kind: intentUnknown}
}

// isCommand matches "/cmd", "/cmd args" and "/cmd@botname".
func isCommand(text, cmd string) bool {
	if !strings.HasPrefix(text, cmd) {
		return false
	}
	rest := text[len(cmd):]
	return rest == "" || rest[0] == ' ' || rest[0] == '@'
}

func looksNumeric(s string) bool {
	s = strings.TrimPrefix(s, "-")
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func itoa(n int) string { return strconv.Itoa(n) }
