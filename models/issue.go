package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// IssueStatus enum
type IssueStatus string

const (
	StatusOpen       IssueStatus = "Open"
	StatusInProgress IssueStatus = "In Progress"
	StatusResolved   IssueStatus = "Resolved"
)

var IssueStatuses = []IssueStatus{StatusOpen, StatusInProgress, StatusResolved}

func (s IssueStatus) Valid() bool {
	switch s {
	case StatusOpen, StatusInProgress, StatusResolved:
		return true
	}
	return false
}

// VolunteerState enum. The zero value means no request was ever made.
type VolunteerState string

const (
	VolunteerNone     VolunteerState = ""
	VolunteerPending  VolunteerState = "Pending"
	VolunteerApproved VolunteerState = "Approved"
	VolunteerRejected VolunteerState = "Rejected"
)

type Location struct {
	Latitude  float64 `bson:"latitude" json:"latitude"`
	Longitude float64 `bson:"longitude" json:"longitude"`
}

// AuthorityUpdate is a progress note appended to an issue by an admin.
type AuthorityUpdate struct {
	ID        primitive.ObjectID `bson:"_id" json:"_id"`
	Text      string             `bson:"text" json:"text"`
	ImageURL  string             `bson:"imageUrl,omitempty" json:"imageUrl,omitempty"`
	UpdatedBy primitive.ObjectID `bson:"updatedBy" json:"updatedBy"`
	CreatedAt time.Time          `bson:"createdAt" json:"createdAt"`
}

// Issue represents a civic issue reported by a user
type Issue struct {
	ID               primitive.ObjectID  `bson:"_id,omitempty" json:"_id"`
	User             primitive.ObjectID  `bson:"user" json:"user"`
	Title            string              `bson:"title" json:"title"`
	Description      string              `bson:"description" json:"description"`
	Category         string              `bson:"category" json:"category"`
	City             string              `bson:"city" json:"city"`
	State            string              `bson:"state" json:"state"`
	Location         Location            `bson:"location" json:"location"`
	ImageURL         string              `bson:"imageUrl" json:"imageUrl"`
	Status           IssueStatus         `bson:"status" json:"status"`
	AuthorityUpdates []AuthorityUpdate   `bson:"authorityUpdates" json:"authorityUpdates"`
	Rating           *int                `bson:"rating,omitempty" json:"rating,omitempty"`
	Feedback         string              `bson:"feedback,omitempty" json:"feedback,omitempty"`
	VolunteerRequest VolunteerState      `bson:"volunteerRequest,omitempty" json:"volunteerRequest,omitempty"`
	Volunteer        *primitive.ObjectID `bson:"volunteer,omitempty" json:"volunteer,omitempty"`
	CreatedAt        time.Time           `bson:"createdAt" json:"createdAt"`
	UpdatedAt        time.Time           `bson:"updatedAt" json:"updatedAt"`
}

func (i *Issue) OwnedBy(userID primitive.ObjectID) bool {
	return i.User == userID
}

// HasFeedback reports whether the one-shot rating was already recorded.
func (i *Issue) HasFeedback() bool {
	return i.Rating != nil
}
