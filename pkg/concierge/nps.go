package concierge

import (
	"context"
	"errors"
	"strconv"
	"strings"

	"github.com/City-Bureau/agendachat/pkg/booking"
)

type npsHandler struct {
	reviews  Reviews
	settings Settings
}

func (h *npsHandler) Handle(ctx context.Context, turn *Turn) (Step, error) {
	var payload npsPayload
	if err := turn.Conversation.DecodePayload(&payload); err != nil || payload.AppointmentID == 0 || payload.CustomerID == 0 {
		turn.Logger.Warn("nps conversation without appointment or customer", "error", err)
		return closeFlow(nil), nil
	}
	score, ok := ExtractRating(turn.Message.Body)
	if !ok {
		turn.Logger.Info("no nps rating in reply", "body", turn.Message.Body)
		return stay(nil), nil
	}

	review, err := h.reviews.CreateReview(ctx, booking.ReviewFields{
		TenantID:     turn.TenantID(),
		SchedulingID: payload.AppointmentID,
		CustomerID:   payload.CustomerID,
		Score:        &score,
	})
	if err != nil {
		return Step{}, err
	}
	turn.Logger.Info("nps review created", "review_id", review.ID, "score", score, "classification", review.Classification)

	if review.Classification != booking.Promoter {
		return advance(
			StateAwaitingNPSComment,
			npsCommentPayload{ReviewID: review.ID},
			npsCommentTTL,
			toCustomer(turn.Texts.Get("nps-ask-comment")),
		), nil
	}

	body := turn.Texts.Get("nps-thanks-promoter")
	link := h.setting(ctx, turn, SettingRedirectLink)
	if link != "" && score >= h.redirectThreshold(ctx, turn) {
		body += "\n\n" + turn.Texts.Get("nps-redirect-link", map[string]interface{}{"Link": link})
		sent := true
		if err := h.reviews.UpdateReview(ctx, review, booking.ReviewFields{SentToRedirect: &sent}); err != nil {
			turn.Logger.Error("failed to mark review as redirected", "review_id", review.ID, "error", err)
		}
	}
	return closeFlow(toCustomer(body)), nil
}

func (h *npsHandler) setting(ctx context.Context, turn *Turn, key string) string {
	value, err := h.settings.Setting(ctx, turn.TenantID(), key)
	if err != nil {
		turn.Logger.Error("failed to load setting", "key", key, "error", err)
		return ""
	}
	return value
}

func (h *npsHandler) redirectThreshold(ctx context.Context, turn *Turn) int {
	value := h.setting(ctx, turn, SettingRedirectThreshold)
	if value == "" {
		return defaultRedirectThreshold
	}
	threshold, err := strconv.Atoi(value)
	if err != nil {
		turn.Logger.Warn("invalid nps redirect threshold", "value", value)
		return defaultRedirectThreshold
	}
	return threshold
}

type npsCommentHandler struct {
	reviews  Reviews
	notifier Notifier
}

// Handle stores the first non-empty reply as the review comment and ends the survey
func (h *npsCommentHandler) Handle(ctx context.Context, turn *Turn) (Step, error) {
	var payload npsCommentPayload
	if err := turn.Conversation.DecodePayload(&payload); err != nil || payload.ReviewID == 0 {
		turn.Logger.Warn("nps comment conversation without review id", "error", err)
		return closeFlow(nil), nil
	}
	review, err := h.reviews.GetReview(ctx, payload.ReviewID)
	if errors.Is(err, booking.ErrNotFound) {
		turn.Logger.Warn("review not found", "review_id", payload.ReviewID)
		return closeFlow(nil), nil
	}
	if err != nil {
		return Step{}, err
	}

	comment := strings.TrimSpace(turn.Message.Body)
	if comment == "" {
		turn.Logger.Info("empty nps comment", "review_id", review.ID)
		return stay(nil), nil
	}
	if err := h.reviews.UpdateReview(ctx, review, booking.ReviewFields{Comment: &comment}); err != nil {
		return Step{}, err
	}
	review, err = h.reviews.GetReview(ctx, review.ID)
	if err != nil {
		return Step{}, err
	}

	if review.Classification == booking.Detractor {
		feedback := NegativeFeedback{
			TenantID:     turn.TenantID(),
			ReviewID:     review.ID,
			SchedulingID: review.SchedulingID,
			CustomerID:   review.CustomerID,
			Phone:        turn.Phone(),
			Score:        review.Score,
			Comment:      comment,
		}
		if err := h.notifier.NegativeFeedback(ctx, feedback); err != nil {
			turn.Logger.Error("failed to raise negative feedback", "review_id", review.ID, "error", err)
		}
	}
	return closeFlow(toCustomer(turn.Texts.Get("nps-comment-thanks-" + string(review.Classification)))), nil
}
