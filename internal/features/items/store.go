package items

import (
	"context"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Store is the item persistence used by the matcher and the service.
// Finders return nil, nil for a missing item. Lists are in insertion order.
type Store interface {
	Create(ctx context.Context, item *Item) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Item, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*Item, error)
	FindByStatus(ctx context.Context, status Status) ([]Item, error)
	FindByOwner(ctx context.Context, owner primitive.ObjectID, status Status) ([]Item, error)
	FindPendingByOwner(ctx context.Context, owner primitive.ObjectID) ([]Item, error)
	FindByMatchStatus(ctx context.Context, status MatchStatus) ([]Item, error)
	ListByStatus(ctx context.Context, status Status, skip, limit int64) ([]Item, int64, error)
	UpdateContent(ctx context.Context, item *Item) error
	Delete(ctx context.Context, id primitive.ObjectID) error

	// LinkPending links subject and candidate as pending. The candidate is claimed
	// only while its matchedWith is absent; false means another item got there first.
	// ErrSubjectLinked means the subject was claimed meanwhile; the candidate is released.
	LinkPending(ctx context.Context, subjectID, candidateID primitive.ObjectID) (bool, error)
	SetMatchStatus(ctx context.Context, id primitive.ObjectID, status MatchStatus) error
	// ClearMatch removes the link of id and sets its match status
	ClearMatch(ctx context.Context, id primitive.ObjectID, status MatchStatus) error
	// ReleaseCounterpart unlinks counterpartID if it still points at subjectID
	ReleaseCounterpart(ctx context.Context, counterpartID, subjectID primitive.ObjectID) error
}

// UserDirectory resolves reporter summaries
type UserDirectory interface {
	Reporters(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Reporter, error)
}
