package admin

import (
	"strings"

	dErrors "bubble/pkg/domain-errors"
)

const maxCommentLength = 1000

// ReviewRequest is the body of an approve or reject call.
type ReviewRequest struct {
	Comment string `json:"comment"`
}

func (r *ReviewRequest) Validate() error {
	r.Comment = strings.TrimSpace(r.Comment)
	if len(r.Comment) > maxCommentLength {
		return dErrors.New(dErrors.CodeValidation, "comment is too long")
	}
	return nil
}

// RunRequest triggers a near-miss run for one calendar day.
type RunRequest struct {
	Date string `json:"date"`
}

func (r *RunRequest) Validate() error {
	r.Date = strings.TrimSpace(r.Date)
	if r.Date == "" {
		return dErrors.New(dErrors.CodeValidation, "date is required")
	}
	return nil
}
