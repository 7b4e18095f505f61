package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"citycare-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/integration/mtest"
)

func TestUserStore(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("create duplicate email", func(mt *mtest.T) {
		store := &MongoUserStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateWriteErrorsResponse(mtest.WriteError{
			Index:   0,
			Code:    11000,
			Message: "E11000 duplicate key error collection: citycare.users index: email_1",
		}))

		err := store.Create(context.Background(), &models.User{Email: "alice@example.com"})
		if !errors.Is(err, ErrDuplicateKey) {
			t.Fatalf("expected ErrDuplicateKey, got %v", err)
		}
	})

	mt.Run("create assigns id and timestamps", func(mt *mtest.T) {
		store := &MongoUserStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		u := &models.User{Email: "alice@example.com"}
		if err := store.Create(context.Background(), u); err != nil {
			t.Fatalf("create: %v", err)
		}
		if u.ID.IsZero() || u.CreatedAt.IsZero() || !u.CreatedAt.Equal(u.UpdatedAt) {
			t.Fatalf("unexpected user %+v", u)
		}
	})

	mt.Run("find by email", func(mt *mtest.T) {
		store := &MongoUserStore{collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "citycare.users", mtest.FirstBatch, bson.D{
			{Key: "_id", Value: id},
			{Key: "name", Value: "Alice"},
			{Key: "email", Value: "alice@example.com"},
			{Key: "isVerified", Value: true},
		}))

		u, err := store.FindByEmail(context.Background(), "alice@example.com")
		if err != nil {
			t.Fatalf("find: %v", err)
		}
		if u.ID != id || u.Name != "Alice" || !u.IsVerified {
			t.Fatalf("unexpected user %+v", u)
		}
	})

	mt.Run("find by id missing", func(mt *mtest.T) {
		store := &MongoUserStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(0, "citycare.users", mtest.FirstBatch))

		if _, err := store.FindByID(context.Background(), primitive.NewObjectID()); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("save unknown user", func(mt *mtest.T) {
		store := &MongoUserStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 0},
			bson.E{Key: "nModified", Value: 0},
		))

		err := store.Save(context.Background(), &models.User{ID: primitive.NewObjectID()})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("save existing user", func(mt *mtest.T) {
		store := &MongoUserStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(
			bson.E{Key: "n", Value: 1},
			bson.E{Key: "nModified", Value: 1},
		))

		if err := store.Save(context.Background(), &models.User{ID: primitive.NewObjectID()}); err != nil {
			t.Fatalf("save: %v", err)
		}
	})

	mt.Run("find by ids skips query when empty", func(mt *mtest.T) {
		store := &MongoUserStore{collection: mt.Coll}
		users, err := store.FindByIDs(context.Background(), nil)
		if err != nil || users != nil {
			t.Fatalf("expected no users and no error, got %v %v", users, err)
		}
	})
}

func TestIssueStoreConditionalUpdates(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("feedback already recorded", func(mt *mtest.T) {
		store := &MongoIssueStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := store.RecordFeedback(context.Background(), primitive.NewObjectID(), 5, "thanks")
		if !errors.Is(err, ErrConditionFailed) {
			t.Fatalf("expected ErrConditionFailed, got %v", err)
		}
	})

	mt.Run("volunteer request applied", func(mt *mtest.T) {
		store := &MongoIssueStore{collection: mt.Coll}
		id := primitive.NewObjectID()
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: bson.D{
			{Key: "_id", Value: id},
			{Key: "status", Value: "Open"},
			{Key: "volunteerRequest", Value: "Pending"},
		}}))

		issue, err := store.RequestVolunteer(context.Background(), id)
		if err != nil {
			t.Fatalf("request volunteer: %v", err)
		}
		if issue.ID != id || issue.VolunteerRequest != models.VolunteerPending {
			t.Fatalf("unexpected issue %+v", issue)
		}
	})

	mt.Run("append update to missing issue", func(mt *mtest.T) {
		store := &MongoIssueStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse(bson.E{Key: "value", Value: nil}))

		_, err := store.AppendUpdate(context.Background(), primitive.NewObjectID(), models.AuthorityUpdate{Text: "x"})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	mt.Run("create defaults", func(mt *mtest.T) {
		store := &MongoIssueStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateSuccessResponse())

		issue := &models.Issue{Title: "Pothole on 5th"}
		if err := store.Create(context.Background(), issue); err != nil {
			t.Fatalf("create: %v", err)
		}
		if issue.Status != models.StatusOpen || issue.AuthorityUpdates == nil || issue.ID.IsZero() {
			t.Fatalf("unexpected issue %+v", issue)
		}
	})

	mt.Run("count", func(mt *mtest.T) {
		store := &MongoIssueStore{collection: mt.Coll}
		mt.AddMockResponses(mtest.CreateCursorResponse(1, "citycare.issues", mtest.FirstBatch, bson.D{
			{Key: "n", Value: int32(3)},
		}))

		n, err := store.Count(context.Background(), IssueFilter{Status: models.StatusResolved})
		if err != nil {
			t.Fatalf("count: %v", err)
		}
		if n != 3 {
			t.Fatalf("expected 3, got %d", n)
		}
	})
}

func TestIssueFilter(t *testing.T) {
	owner := primitive.NewObjectID()
	since := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	f := IssueFilter{
		Owner:            &owner,
		Status:           models.StatusResolved,
		VolunteerRequest: models.VolunteerPending,
		Search:           "5th (ave)",
		UpdatedSince:     &since,
	}.bson()

	if f["user"] != owner {
		t.Fatalf("expected owner filter, got %v", f["user"])
	}
	if f["status"] != models.StatusResolved || f["volunteerRequest"] != models.VolunteerPending {
		t.Fatalf("unexpected filter %v", f)
	}
	if _, ok := f["category"]; ok {
		t.Fatal("empty category must not be filtered")
	}
	or, ok := f["$or"].([]bson.M)
	if !ok || len(or) != 2 {
		t.Fatalf("expected search clause, got %v", f["$or"])
	}
	title := or[0]["title"].(bson.M)
	if title["$regex"] != `5th \(ave\)` || title["$options"] != "i" {
		t.Fatalf("expected escaped case-insensitive regex, got %v", title)
	}

	if len(IssueFilter{}.bson()) != 0 {
		t.Fatal("expected empty filter to match everything")
	}
}

func TestEnsureIndexes(t *testing.T) {
	mt := mtest.New(t, mtest.NewOptions().ClientType(mtest.Mock))

	mt.Run("creates every collection's indexes", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse(), mtest.CreateSuccessResponse())
		if err := EnsureIndexes(context.Background(), mt.DB); err != nil {
			t.Fatalf("ensure indexes: %v", err)
		}
	})

	mt.Run("reports failure", func(mt *mtest.T) {
		mt.AddMockResponses(mtest.CreateCommandErrorResponse(mtest.CommandError{Code: 13, Message: "unauthorized"}))
		if err := EnsureIndexes(context.Background(), mt.DB); err == nil {
			t.Fatal("expected error")
		}
	})
}
