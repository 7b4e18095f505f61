package controllers

import (
	"context"

	"citycare-be/models"
	"citycare-be/repository"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type userRef struct {
	ID    primitive.ObjectID `json:"_id"`
	Name  string             `json:"name"`
	Email string             `json:"email,omitempty"`
}

type updateView struct {
	models.AuthorityUpdate
	UpdatedBy *userRef `json:"updatedBy"`
}

// issueView is an issue with its user references replaced by profiles.
type issueView struct {
	models.Issue
	User             *userRef     `json:"user"`
	AuthorityUpdates []updateView `json:"authorityUpdates"`
}

type commentView struct {
	models.Comment
	User *userRef `json:"user"`
}

type directory map[primitive.ObjectID]models.User

func loadDirectory(ctx context.Context, users repository.UserStore, ids []primitive.ObjectID) (directory, error) {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	unique := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}

	found, err := users.FindByIDs(ctx, unique)
	if err != nil {
		return nil, err
	}
	dir := make(directory, len(found))
	for _, u := range found {
		dir[u.ID] = u
	}
	return dir, nil
}

// ref returns nil for users that no longer exist.
func (d directory) ref(id primitive.ObjectID, withEmail bool) *userRef {
	u, ok := d[id]
	if !ok {
		return nil
	}
	r := &userRef{ID: u.ID, Name: u.Name}
	if withEmail {
		r.Email = u.Email
	}
	return r
}

func (d directory) issue(issue models.Issue) issueView {
	updates := make([]updateView, 0, len(issue.AuthorityUpdates))
	for _, u := range issue.AuthorityUpdates {
		updates = append(updates, updateView{AuthorityUpdate: u, UpdatedBy: d.ref(u.UpdatedBy, false)})
	}
	return issueView{Issue: issue, User: d.ref(issue.User, true), AuthorityUpdates: updates}
}

func populateIssues(ctx context.Context, users repository.UserStore, issues []models.Issue) ([]issueView, error) {
	var ids []primitive.ObjectID
	for _, issue := range issues {
		ids = append(ids, issue.User)
		for _, u := range issue.AuthorityUpdates {
			ids = append(ids, u.UpdatedBy)
		}
	}
	dir, err := loadDirectory(ctx, users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]issueView, 0, len(issues))
	for _, issue := range issues {
		views = append(views, dir.issue(issue))
	}
	return views, nil
}

func populateIssue(ctx context.Context, users repository.UserStore, issue *models.Issue) (issueView, error) {
	views, err := populateIssues(ctx, users, []models.Issue{*issue})
	if err != nil {
		return issueView{}, err
	}
	return views[0], nil
}

func populateComments(ctx context.Context, users repository.UserStore, comments []models.Comment) ([]commentView, error) {
	ids := make([]primitive.ObjectID, 0, len(comments))
	for _, c := range comments {
		ids = append(ids, c.User)
	}
	dir, err := loadDirectory(ctx, users, ids)
	if err != nil {
		return nil, err
	}

	views := make([]commentView, 0, len(comments))
	for _, c := range comments {
		views = append(views, commentView{Comment: c, User: dir.ref(c.User, false)})
	}
	return views, nil
}
