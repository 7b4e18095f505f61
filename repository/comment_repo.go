package repository

import (
	"context"
	"time"

	"citycare-be/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type CommentStore interface {
	Create(ctx context.Context, comment *models.Comment) error
	FindByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error)
}

type MongoCommentStore struct {
	collection *mongo.Collection
}

func NewCommentStore(db *mongo.Database) *MongoCommentStore {
	return &MongoCommentStore{collection: db.Collection(CommentsCollection)}
}

func (r *MongoCommentStore) Create(ctx context.Context, comment *models.Comment) error {
	now := time.Now()
	if comment.ID.IsZero() {
		comment.ID = primitive.NewObjectID()
	}
	comment.CreatedAt = now
	comment.UpdatedAt = now
	_, err := r.collection.InsertOne(ctx, comment)
	return translate(err)
}

// FindByIssue returns the comments on an issue, newest first.
func (r *MongoCommentStore) FindByIssue(ctx context.Context, issueID primitive.ObjectID) ([]models.Comment, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := r.collection.Find(ctx, bson.M{"issue": issueID}, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	comments := []models.Comment{}
	if err := cursor.All(ctx, &comments); err != nil {
		return nil, err
	}
	return comments, nil
}

var _ CommentStore = (*MongoCommentStore)(nil)
