// Package repository persists users, issues and comments in MongoDB.
package repository

import (
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo"
)

var (
	ErrNotFound        = errors.New("document not found")
	ErrDuplicateKey    = errors.New("duplicate key")
	ErrConditionFailed = errors.New("conditional update matched no document")
)

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicateKey, err)
	default:
		return err
	}
}

// conditional maps a missed FindOneAndUpdate to ErrConditionFailed.
func conditional(err error) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return ErrConditionFailed
	}
	return translate(err)
}
