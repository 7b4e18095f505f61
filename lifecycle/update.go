package lifecycle

import (
	"strings"
	"time"

	"citycare-be/apperr"
	"citycare-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NewAuthorityUpdate builds the entry appended to an issue's update log.
func NewAuthorityUpdate(actor Actor, text, imageURL string, now time.Time) (models.AuthorityUpdate, error) {
	if !actor.IsAdmin {
		return models.AuthorityUpdate{}, apperr.Forbidden(msgNotAdmin)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return models.AuthorityUpdate{}, apperr.BadRequest("Update text is required")
	}
	return models.AuthorityUpdate{
		ID:        primitive.NewObjectID(),
		Text:      text,
		ImageURL:  imageURL,
		UpdatedBy: actor.ID,
		CreatedAt: now,
	}, nil
}
