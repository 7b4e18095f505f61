// Package lifecycle holds the state transitions of an issue. Every function
// takes the current issue, the requested change and the caller, and returns
// either the new state or an apperr describing the rejection. Nothing here
// touches storage.
package lifecycle

import (
	"citycare-be/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Actor is the authenticated caller a transition is evaluated for.
type Actor struct {
	ID      primitive.ObjectID
	IsAdmin bool
}

func ActorOf(u *models.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{ID: u.ID, IsAdmin: u.IsAdmin}
}

const msgNotAdmin = "Not authorized as an admin"
