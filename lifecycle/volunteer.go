package lifecycle

import (
	"citycare-be/apperr"
	"citycare-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// VolunteerDecision is the outcome of an admin reviewing a pending request.
type VolunteerDecision struct {
	State     models.VolunteerState
	Volunteer *primitive.ObjectID
}

// RequestVolunteer lets the issue owner offer to fix the issue themselves.
func RequestVolunteer(issue *models.Issue, actor Actor) (models.VolunteerState, error) {
	if !issue.OwnedBy(actor.ID) {
		return "", apperr.Forbidden("Not authorized to volunteer for this issue")
	}
	if issue.VolunteerRequest != models.VolunteerNone {
		return "", apperr.Conflict("A volunteer request has already been made")
	}
	return models.VolunteerPending, nil
}

// ParseDecision accepts exactly Approved or Rejected.
func ParseDecision(raw string) (models.VolunteerState, error) {
	switch d := models.VolunteerState(raw); d {
	case models.VolunteerApproved, models.VolunteerRejected:
		return d, nil
	}
	return "", apperr.BadRequest("Invalid decision provided")
}

// DecideVolunteer resolves a pending request. Approval assigns the owner as volunteer.
func DecideVolunteer(issue *models.Issue, decision string, actor Actor) (VolunteerDecision, error) {
	if !actor.IsAdmin {
		return VolunteerDecision{}, apperr.Forbidden(msgNotAdmin)
	}
	state, err := ParseDecision(decision)
	if err != nil {
		return VolunteerDecision{}, err
	}
	if issue == nil || issue.VolunteerRequest != models.VolunteerPending {
		return VolunteerDecision{}, apperr.NotFound("No pending volunteer request")
	}

	out := VolunteerDecision{State: state}
	if state == models.VolunteerApproved {
		owner := issue.User
		out.Volunteer = &owner
	}
	return out, nil
}
