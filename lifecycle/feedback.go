package lifecycle

import (
	"strings"

	"citycare-be/apperr"
	"citycare-be/models"
)

type Feedback struct {
	Rating int
	Text   string
}

// SubmitFeedback checks a one-shot rating on a resolved issue. An issue that
// already carries feedback rejects every caller with Conflict.
func SubmitFeedback(issue *models.Issue, fb Feedback, actor Actor) (Feedback, error) {
	if fb.Rating < 1 || fb.Rating > 5 {
		return Feedback{}, apperr.BadRequest("Rating must be a whole number between 1 and 5")
	}
	if issue.HasFeedback() {
		return Feedback{}, apperr.Conflict("Feedback has already been submitted for this issue")
	}
	if !issue.OwnedBy(actor.ID) {
		return Feedback{}, apperr.Forbidden("User not authorized")
	}
	if issue.Status != models.StatusResolved {
		return Feedback{}, apperr.Precondition("Feedback can only be added to resolved issues")
	}
	return Feedback{Rating: fb.Rating, Text: strings.TrimSpace(fb.Text)}, nil
}
