package concierge

import (
	"net/mail"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/City-Bureau/agendachat/pkg/booking"
	"github.com/City-Bureau/agendachat/pkg/chat"
)

var (
	digitRunRe   = regexp.MustCompile(`\d+`)
	emailRe      = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}`)
	wholeEmailRe = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9\-]+(\.[A-Za-z0-9\-]+)*\.[A-Za-z]{2,}$`)
	listIndexRe  = regexp.MustCompile(`^\D*(\d{1,2})\D*$`)
)

// ExtractRating reads a 0-10 NPS score from a reply. The first run of digits is
// the score, so "nota 9" and "9/10" both read as 9.
func ExtractRating(text string) (int, bool) {
	run := digitRunRe.FindString(text)
	if run == "" {
		return 0, false
	}
	score, err := strconv.Atoi(run)
	if err != nil || score < 0 || score > 10 {
		return 0, false
	}
	return score, true
}

func isEmail(candidate string) bool {
	if !wholeEmailRe.MatchString(candidate) {
		return false
	}
	address, err := mail.ParseAddress(candidate)
	return err == nil && address.Address == candidate
}

// ExtractEmail accepts the whole reply when it is an email address, otherwise the
// first email-shaped substring
func ExtractEmail(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	if isEmail(trimmed) {
		return strings.ToLower(trimmed), true
	}
	found := emailRe.FindString(trimmed)
	if found != "" && isEmail(found) {
		return strings.ToLower(found), true
	}
	return "", false
}

// PaymentIntent is how a customer answered a payment reminder
type PaymentIntent string

const (
	PaymentUnrecognized PaymentIntent = ""
	PaymentConfirmed    PaymentIntent = "confirm_payment"
	PaymentCancelled    PaymentIntent = "cancel_payment"
)

var paymentConfirmKeywords = []string{"paguei", "pago", "pagamento feito", "pagamento realizado", "pix enviado", "comprovante", "transferi", "confirmo"}

var paymentCancelKeywords = []string{"cancelar", "cancela", "desisto", "desistir", "nao vou pagar", "nao quero"}

// MatchPaymentIntent substring-matches the normalized reply against the confirm
// keywords first and the cancel keywords second
func MatchPaymentIntent(text string) PaymentIntent {
	normalized := chat.Normalize(text)
	for _, keyword := range paymentConfirmKeywords {
		if strings.Contains(normalized, keyword) {
			return PaymentConfirmed
		}
	}
	for _, keyword := range paymentCancelKeywords {
		if strings.Contains(normalized, keyword) {
			return PaymentCancelled
		}
	}
	return PaymentUnrecognized
}

var cancelConfirmationPhrases = []string{
	"sim", "cancelar", "cancela", "pode cancelar", "quero cancelar", "confirmo", "confirmar",
}

// Too general to count as consent inside a longer reply
var cancelConfirmationAnswers = []string{
	"s", "ok", "ok pode", "pode", "isso", "isso mesmo", "confirma", "yes",
}

// MatchesCancelConfirmation reports whether a reply confirms a cancellation. Any
// reply holding a "não" is a refusal, whatever else it says.
func MatchesCancelConfirmation(text string) bool {
	if chat.ContainsPhrase(text, "nao") {
		return false
	}
	for _, answer := range cancelConfirmationAnswers {
		if chat.IsPhrase(text, answer) {
			return true
		}
	}
	return matchesAny(text, cancelConfirmationPhrases)
}

var entryCancelPhrases = []string{"cancelar", "cancelamento", "desmarcar"}

var entryHandoffPhrases = []string{"atendente", "humano", "falar com alguem", "falar com uma pessoa"}

func matchesAny(text string, phrases []string) bool {
	for _, phrase := range phrases {
		if chat.ContainsPhrase(text, phrase) {
			return true
		}
	}
	return false
}

// SnapshotSchedulings copies bookings into the form listed to the customer
func SnapshotSchedulings(schedulings []booking.Scheduling, loc *time.Location) []SchedulingSnapshot {
	snapshot := make([]SchedulingSnapshot, 0, len(schedulings))
	for _, scheduling := range schedulings {
		snapshot = append(snapshot, SchedulingSnapshot{
			ID:      scheduling.ID,
			Date:    scheduling.Date.In(loc).Format(SnapshotDateLayout),
			Service: scheduling.Service.Name,
		})
	}
	return snapshot
}

type replyLayout struct {
	layout  string
	date    bool
	year    bool
	clock   bool
	seconds bool
}

// Layouts a customer may use to name a listed booking
var replyLayouts = []replyLayout{
	{layout: "2/1/2006 15:04", date: true, year: true, clock: true},
	{layout: "2/1/2006", date: true, year: true},
	{layout: "2/1", date: true},
	{layout: "2-1-2006", date: true, year: true},
	{layout: "2-1", date: true},
	{layout: "15:04", clock: true},
	{layout: "15:04:05", clock: true, seconds: true},
}

func (l replyLayout) matches(reply string, date time.Time) bool {
	parsed, err := time.Parse(l.layout, reply)
	if err != nil {
		return false
	}
	if l.date && (parsed.Day() != date.Day() || parsed.Month() != date.Month()) {
		return false
	}
	if l.year && parsed.Year() != date.Year() {
		return false
	}
	if l.clock && (parsed.Hour() != date.Hour() || parsed.Minute() != date.Minute()) {
		return false
	}
	if l.seconds && parsed.Second() != date.Second() {
		return false
	}
	return true
}

func (s SchedulingSnapshot) matchesParsed(reply string) bool {
	date, err := time.Parse(SnapshotDateLayout, s.Date)
	if err != nil {
		return false
	}
	for _, layout := range replyLayouts {
		if layout.matches(reply, date) {
			return true
		}
	}
	return false
}

func (s SchedulingSnapshot) matchesText(reply string) bool {
	parts := strings.SplitN(s.Date, " ", 2)
	for _, part := range parts {
		if part != "" && strings.Contains(reply, part) {
			return true
		}
	}
	return false
}

// ResolveSnapshot picks the listed booking a reply refers to: a list number first,
// then a date or time parsed from the reply, then the listed date or time appearing
// anywhere in the reply
func ResolveSnapshot(text string, snapshot []SchedulingSnapshot) (uint, bool) {
	reply := strings.TrimSpace(text)
	if match := listIndexRe.FindStringSubmatch(reply); match != nil {
		index, err := strconv.Atoi(match[1])
		if err == nil && index >= 1 && index <= len(snapshot) {
			return snapshot[index-1].ID, true
		}
	}
	for _, entry := range snapshot {
		if entry.matchesParsed(reply) {
			return entry.ID, true
		}
	}
	for _, entry := range snapshot {
		if strings.Contains(reply, entry.Date) {
			return entry.ID, true
		}
	}
	for _, entry := range snapshot {
		if entry.matchesText(reply) {
			return entry.ID, true
		}
	}
	return 0, false
}

func findSnapshot(snapshot []SchedulingSnapshot, id uint) (SchedulingSnapshot, bool) {
	for _, entry := range snapshot {
		if entry.ID == id {
			return entry, true
		}
	}
	return SchedulingSnapshot{}, false
}
