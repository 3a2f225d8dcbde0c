package items

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/xyz-asif/lostfound/internal/database"
	"github.com/xyz-asif/lostfound/internal/pkg/logger"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

// insertion order
var naturalSort = bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}}

type Repository struct {
	collection   *mongo.Collection
	transactions bool
}

// NewRepository wraps the items collection. With transactions on, LinkPending
// runs inside a session transaction, which needs a replica set.
func NewRepository(db *mongo.Database, transactions bool) *Repository {
	return &Repository{
		collection:   db.Collection("items"),
		transactions: transactions,
	}
}

// EnsureIndexes creates the indexes the finders rely on
func (r *Repository) EnsureIndexes(ctx context.Context) error {
	_, err := r.collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "status", Value: 1}, {Key: "createdAt", Value: 1}}},
		{Keys: bson.D{{Key: "reportedBy", Value: 1}, {Key: "status", Value: 1}}},
		{Keys: bson.D{{Key: "matchStatus", Value: 1}}},
	})
	if err != nil {
		return fmt.Errorf("creating items indexes: %w", err)
	}
	return nil
}

func (r *Repository) Create(ctx context.Context, item *Item) error {
	now := time.Now().UTC()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	item.CreatedAt = now
	item.UpdatedAt = now

	if _, err := r.collection.InsertOne(ctx, item); err != nil {
		return fmt.Errorf("inserting item: %w", err)
	}
	return nil
}

func (r *Repository) FindByID(ctx context.Context, id primitive.ObjectID) (*Item, error) {
	var item Item
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&item)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding item: %w", err)
	}
	return &item, nil
}

func (r *Repository) FindByIDs(ctx context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*Item, error) {
	out := make(map[primitive.ObjectID]*Item, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	list, err := r.find(ctx, bson.M{"_id": bson.M{"$in": ids}}, options.Find())
	if err != nil {
		return nil, err
	}
	for i := range list {
		out[list[i].ID] = &list[i]
	}
	return out, nil
}

func (r *Repository) FindByStatus(ctx context.Context, status Status) ([]Item, error) {
	return r.find(ctx, bson.M{"status": status}, options.Find().SetSort(naturalSort))
}

func (r *Repository) FindByOwner(ctx context.Context, owner primitive.ObjectID, status Status) ([]Item, error) {
	return r.find(ctx, bson.M{"reportedBy": owner, "status": status}, options.Find().SetSort(naturalSort))
}

func (r *Repository) FindPendingByOwner(ctx context.Context, owner primitive.ObjectID) ([]Item, error) {
	filter := bson.M{
		"reportedBy":  owner,
		"matchedWith": bson.M{"$ne": nil},
		"matchStatus": MatchPending,
	}
	return r.find(ctx, filter, options.Find().SetSort(naturalSort))
}

func (r *Repository) FindByMatchStatus(ctx context.Context, status MatchStatus) ([]Item, error) {
	return r.find(ctx, bson.M{"matchStatus": status}, options.Find().SetSort(naturalSort))
}

func (r *Repository) ListByStatus(ctx context.Context, status Status, skip, limit int64) ([]Item, int64, error) {
	filter := bson.M{"status": status}

	total, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("counting items: %w", err)
	}

	opts := options.Find().SetSort(naturalSort).SetSkip(skip).SetLimit(limit)
	list, err := r.find(ctx, filter, opts)
	if err != nil {
		return nil, 0, err
	}
	return list, total, nil
}

func (r *Repository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]Item, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("finding items: %w", err)
	}
	defer cursor.Close(ctx)

	var list []Item
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	if list == nil {
		list = []Item{}
	}
	return list, nil
}

// UpdateContent saves the owner-editable fields
func (r *Repository) UpdateContent(ctx context.Context, item *Item) error {
	item.UpdatedAt = time.Now().UTC()

	set := bson.M{
		"name":        item.Name,
		"description": item.Description,
		"location":    item.Location,
		"image":       item.Image,
		"imageKey":    item.ImageKey,
		"updatedAt":   item.UpdatedAt,
	}
	if item.Date != nil {
		set["date"] = item.Date
	}

	result, err := r.collection.UpdateOne(ctx, bson.M{"_id": item.ID}, bson.M{"$set": set})
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("updating item %s: %w", item.ID.Hex(), mongo.ErrNoDocuments)
	}
	return nil
}

func (r *Repository) Delete(ctx context.Context, id primitive.ObjectID) error {
	if _, err := r.collection.DeleteOne(ctx, bson.M{"_id": id}); err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}

func (r *Repository) LinkPending(ctx context.Context, subjectID, candidateID primitive.ObjectID) (bool, error) {
	if !r.transactions {
		return r.linkPending(ctx, subjectID, candidateID)
	}

	var linked bool
	err := database.WithTransaction(ctx, r.collection.Database().Client(), func(sessCtx mongo.SessionContext) error {
		var err error
		linked, err = r.linkPending(sessCtx, subjectID, candidateID)
		return err
	})
	return linked, err
}

func (r *Repository) linkPending(ctx context.Context, subjectID, candidateID primitive.ObjectID) (bool, error) {
	now := time.Now().UTC()

	claimed, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": candidateID, "matchedWith": nil},
		bson.M{"$set": bson.M{"matchedWith": subjectID, "matchStatus": MatchPending, "updatedAt": now}},
	)
	if err != nil {
		return false, fmt.Errorf("claiming candidate: %w", err)
	}
	if claimed.MatchedCount == 0 {
		return false, nil
	}

	linked, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": subjectID, "matchedWith": nil},
		bson.M{"$set": bson.M{"matchedWith": candidateID, "matchStatus": MatchPending, "updatedAt": now}},
	)
	if err == nil && linked.MatchedCount > 0 {
		return true, nil
	}

	// best-effort rollback of the candidate claim
	if rbErr := r.ReleaseCounterpart(ctx, candidateID, subjectID); rbErr != nil {
		logger.Warn("candidate rollback failed",
			zap.String("candidateID", candidateID.Hex()),
			zap.String("subjectID", subjectID.Hex()),
			zap.Error(rbErr))
	}
	if err != nil {
		return false, fmt.Errorf("linking subject: %w", err)
	}
	return false, ErrSubjectLinked
}

func (r *Repository) SetMatchStatus(ctx context.Context, id primitive.ObjectID, status MatchStatus) error {
	update := bson.M{"$set": bson.M{"matchStatus": status, "updatedAt": time.Now().UTC()}}
	if status == MatchNone {
		update = bson.M{
			"$unset": bson.M{"matchStatus": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		}
	}
	if _, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, update); err != nil {
		return fmt.Errorf("setting match status: %w", err)
	}
	return nil
}

func (r *Repository) ClearMatch(ctx context.Context, id primitive.ObjectID, status MatchStatus) error {
	set := bson.M{"updatedAt": time.Now().UTC()}
	unset := bson.M{"matchedWith": ""}
	if status == MatchNone {
		unset["matchStatus"] = ""
	} else {
		set["matchStatus"] = status
	}

	_, err := r.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set, "$unset": unset})
	if err != nil {
		return fmt.Errorf("clearing match: %w", err)
	}
	return nil
}

func (r *Repository) ReleaseCounterpart(ctx context.Context, counterpartID, subjectID primitive.ObjectID) error {
	_, err := r.collection.UpdateOne(ctx,
		bson.M{"_id": counterpartID, "matchedWith": subjectID},
		bson.M{
			"$unset": bson.M{"matchedWith": "", "matchStatus": ""},
			"$set":   bson.M{"updatedAt": time.Now().UTC()},
		},
	)
	if err != nil {
		return fmt.Errorf("releasing counterpart: %w", err)
	}
	return nil
}
