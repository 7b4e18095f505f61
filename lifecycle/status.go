package lifecycle

import (
	"fmt"
	"strings"

	"citycare-be/apperr"
	"citycare-be/models"
)

// StatusPolicy is an allow-list of (from, to) status moves. The zero value
// allows every move between valid statuses.
type StatusPolicy struct {
	allowed map[models.IssueStatus]map[models.IssueStatus]bool
}

func AllowAllStatuses() StatusPolicy { return StatusPolicy{} }

// NewStatusPolicy builds a restricted policy from explicit pairs.
func NewStatusPolicy(pairs ...[2]models.IssueStatus) StatusPolicy {
	p := StatusPolicy{allowed: map[models.IssueStatus]map[models.IssueStatus]bool{}}
	for _, pair := range pairs {
		if p.allowed[pair[0]] == nil {
			p.allowed[pair[0]] = map[models.IssueStatus]bool{}
		}
		p.allowed[pair[0]][pair[1]] = true
	}
	return p
}

// ParseStatusPolicy reads "From>To" pairs separated by commas, e.g.
// "Open>In Progress,In Progress>Resolved". An empty string allows everything.
func ParseStatusPolicy(raw string) (StatusPolicy, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return AllowAllStatuses(), nil
	}

	var pairs [][2]models.IssueStatus
	for _, item := range strings.Split(raw, ",") {
		from, to, ok := strings.Cut(item, ">")
		if !ok {
			return StatusPolicy{}, fmt.Errorf("status transition %q: expected From>To", item)
		}
		f := models.IssueStatus(strings.TrimSpace(from))
		t := models.IssueStatus(strings.TrimSpace(to))
		if !f.Valid() || !t.Valid() {
			return StatusPolicy{}, fmt.Errorf("status transition %q: unknown status", item)
		}
		pairs = append(pairs, [2]models.IssueStatus{f, t})
	}
	return NewStatusPolicy(pairs...), nil
}

// Allows reports whether from -> to is legal. Staying in place is always allowed.
func (p StatusPolicy) Allows(from, to models.IssueStatus) bool {
	if !from.Valid() || !to.Valid() {
		return false
	}
	if p.allowed == nil || from == to {
		return true
	}
	return p.allowed[from][to]
}

// Transition validates an admin's request to move issue to the given status.
func (p StatusPolicy) Transition(issue *models.Issue, to models.IssueStatus, actor Actor) (models.IssueStatus, error) {
	if !actor.IsAdmin {
		return "", apperr.Forbidden(msgNotAdmin)
	}
	if !to.Valid() {
		return "", apperr.BadRequest("Invalid status provided")
	}
	if !p.Allows(issue.Status, to) {
		return "", apperr.Precondition(fmt.Sprintf("Cannot change status from %s to %s", issue.Status, to))
	}
	return to, nil
}
