package repository

import (
	"context"
	"regexp"
	"time"

	"citycare-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// IssueFilter narrows issue queries. Zero fields are ignored.
type IssueFilter struct {
	Owner            *primitive.ObjectID
	Status           models.IssueStatus
	Category         string
	VolunteerRequest models.VolunteerState
	Search           string
	UpdatedSince     *time.Time
}

func (f IssueFilter) bson() bson.M {
	filter := bson.M{}
	if f.Owner != nil {
		filter["user"] = *f.Owner
	}
	if f.Status != "" {
		filter["status"] = f.Status
	}
	if f.Category != "" {
		filter["category"] = f.Category
	}
	if f.VolunteerRequest != models.VolunteerNone {
		filter["volunteerRequest"] = f.VolunteerRequest
	}
	if f.UpdatedSince != nil {
		filter["updatedAt"] = bson.M{"$gte": *f.UpdatedSince}
	}
	if f.Search != "" {
		pattern := regexp.QuoteMeta(f.Search)
		filter["$or"] = []bson.M{
			{"title": bson.M{"$regex": pattern, "$options": "i"}},
			{"description": bson.M{"$regex": pattern, "$options": "i"}},
		}
	}
	return filter
}

// IssueStore is the issue record store. The Set/Record/Append methods are
// single conditional updates that return the document after the change.
type IssueStore interface {
	Create(ctx context.Context, issue *models.Issue) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	Find(ctx context.Context, filter IssueFilter) ([]models.Issue, error)
	Count(ctx context.Context, filter IssueFilter) (int64, error)
	SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.IssueStatus) (*models.Issue, error)
	RecordFeedback(ctx context.Context, id primitive.ObjectID, rating int, feedback string) (*models.Issue, error)
	RequestVolunteer(ctx context.Context, id primitive.ObjectID) (*models.Issue, error)
	DecideVolunteer(ctx context.Context, id primitive.ObjectID, state models.VolunteerState, volunteer *primitive.ObjectID) (*models.Issue, error)
	AppendUpdate(ctx context.Context, id primitive.ObjectID, update models.AuthorityUpdate) (*models.Issue, error)
}

type MongoIssueStore struct {
	collection *mongo.Collection
}

func NewIssueStore(db *mongo.Database) *MongoIssueStore {
	return &MongoIssueStore{collection: db.Collection(IssuesCollection)}
}

func (r *MongoIssueStore) Create(ctx context.Context, issue *models.Issue) error {
	now := time.Now()
	if issue.ID.IsZero() {
		issue.ID = primitive.NewObjectID()
	}
	if issue.Status == "" {
		issue.Status = models.StatusOpen
	}
	if issue.AuthorityUpdates == nil {
		issue.AuthorityUpdates = []models.AuthorityUpdate{}
	}
	issue.CreatedAt = now
	issue.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, issue)
	return translate(err)
}

func (r *MongoIssueStore) FindByID(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	var issue models.Issue
	if err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&issue); err != nil {
		return nil, translate(err)
	}
	return &issue, nil
}

// Find returns matching issues, newest first.
func (r *MongoIssueStore) Find(ctx context.Context, filter IssueFilter) ([]models.Issue, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, filter.bson(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	issues := []models.Issue{}
	if err := cursor.All(ctx, &issues); err != nil {
		return nil, err
	}
	return issues, nil
}

func (r *MongoIssueStore) Count(ctx context.Context, filter IssueFilter) (int64, error) {
	return r.collection.CountDocuments(ctx, filter.bson())
}

// SetStatus moves the issue only if its status is still from.
func (r *MongoIssueStore) SetStatus(ctx context.Context, id primitive.ObjectID, from, to models.IssueStatus) (*models.Issue, error) {
	return r.updateWhere(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{"status": to, "updatedAt": time.Now()}},
	)
}

// RecordFeedback stores the rating only if none was recorded before.
func (r *MongoIssueStore) RecordFeedback(ctx context.Context, id primitive.ObjectID, rating int, feedback string) (*models.Issue, error) {
	return r.updateWhere(ctx,
		bson.M{"_id": id, "rating": nil, "status": models.StatusResolved},
		bson.M{"$set": bson.M{"rating": rating, "feedback": feedback, "updatedAt": time.Now()}},
	)
}

// RequestVolunteer opens a request only if none exists yet.
func (r *MongoIssueStore) RequestVolunteer(ctx context.Context, id primitive.ObjectID) (*models.Issue, error) {
	return r.updateWhere(ctx,
		bson.M{"_id": id, "volunteerRequest": nil},
		bson.M{"$set": bson.M{"volunteerRequest": models.VolunteerPending, "updatedAt": time.Now()}},
	)
}

// DecideVolunteer closes a request that is still pending.
func (r *MongoIssueStore) DecideVolunteer(ctx context.Context, id primitive.ObjectID, state models.VolunteerState, volunteer *primitive.ObjectID) (*models.Issue, error) {
	set := bson.M{"volunteerRequest": state, "updatedAt": time.Now()}
	if volunteer != nil {
		set["volunteer"] = *volunteer
	}
	return r.updateWhere(ctx,
		bson.M{"_id": id, "volunteerRequest": models.VolunteerPending},
		bson.M{"$set": set},
	)
}

func (r *MongoIssueStore) AppendUpdate(ctx context.Context, id primitive.ObjectID, update models.AuthorityUpdate) (*models.Issue, error) {
	issue, err := r.updateWhere(ctx,
		bson.M{"_id": id},
		bson.M{
			"$push": bson.M{"authorityUpdates": update},
			"$set":  bson.M{"updatedAt": time.Now()},
		},
	)
	if err == ErrConditionFailed {
		return nil, ErrNotFound
	}
	return issue, err
}

func (r *MongoIssueStore) updateWhere(ctx context.Context, filter, update bson.M) (*models.Issue, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var issue models.Issue
	if err := r.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&issue); err != nil {
		return nil, conditional(err)
	}
	return &issue, nil
}

var _ IssueStore = (*MongoIssueStore)(nil)
