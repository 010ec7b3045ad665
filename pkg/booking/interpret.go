package booking

import "github.com/City-Bureau/agendachat/pkg/chat"

// ConfirmationIntent is how a customer answered a confirmation request
type ConfirmationIntent string

const (
	IntentConfirm      ConfirmationIntent = "confirm"
	IntentCancel       ConfirmationIntent = "cancel"
	IntentUnrecognized ConfirmationIntent = "unrecognized"
)

// Negations are checked first so "não vou" never reads as "vou"
var cancelPhrases = []string{"nao", "cancelar", "cancela", "cancelo", "desmarcar", "nao posso"}

var confirmPhrases = []string{"sim", "confirmo", "confirmar", "confirmado", "confirmada", "vou", "estarei", "ok", "yes"}

// Menu answers and bare English words only count as the whole reply, since
// "no" and digits show up inside ordinary Portuguese replies
var (
	cancelAnswers  = []string{"2", "no"}
	confirmAnswers = []string{"1"}
)

// InterpretConfirmation classifies a free-text reply to a confirmation request
func InterpretConfirmation(text string) ConfirmationIntent {
	for _, answer := range cancelAnswers {
		if chat.IsPhrase(text, answer) {
			return IntentCancel
		}
	}
	for _, answer := range confirmAnswers {
		if chat.IsPhrase(text, answer) {
			return IntentConfirm
		}
	}
	for _, phrase := range cancelPhrases {
		if chat.ContainsPhrase(text, phrase) {
			return IntentCancel
		}
	}
	for _, phrase := range confirmPhrases {
		if chat.ContainsPhrase(text, phrase) {
			return IntentConfirm
		}
	}
	return IntentUnrecognized
}
