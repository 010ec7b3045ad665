package booking

import "time"

// Classification is the NPS sentiment derived from a review score
type Classification string

const (
	Promoter  Classification = "promoter"
	Passive   Classification = "passive"
	Detractor Classification = "detractor"
)

// Review is a post-visit NPS answer
type Review struct {
	ID             uint           `json:"id" gorm:"primary_key"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
	TenantID       uint           `json:"tenantId" gorm:"index"`
	SchedulingID   uint           `json:"schedulingId"`
	CustomerID     uint           `json:"customerId"`
	Score          int            `json:"score"`
	Comment        *string        `json:"comment"`
	Classification Classification `json:"classification"`
	SentToRedirect bool           `json:"sentToRedirect"`
}

// ReviewFields carries the columns to set when creating or updating a Review.
// Nil pointers are left untouched on update.
type ReviewFields struct {
	TenantID       uint
	SchedulingID   uint
	CustomerID     uint
	Score          *int
	Comment        *string
	SentToRedirect *bool
}

// Classify maps a 0-10 score to its NPS classification
func Classify(score int) Classification {
	switch {
	case score >= 9:
		return Promoter
	case score >= 7:
		return Passive
	default:
		return Detractor
	}
}

// BeforeSave keeps Classification in sync with Score
func (r *Review) BeforeSave() error {
	r.Classification = Classify(r.Score)
	return nil
}
