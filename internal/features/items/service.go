package items

import (
	"context"
	"fmt"
	"io"

	"github.com/xyz-asif/lostfound/internal/pkg/imaging"
	"github.com/xyz-asif/lostfound/internal/pkg/logger"
	"github.com/xyz-asif/lostfound/internal/pkg/pagination"
	"github.com/xyz-asif/lostfound/internal/pkg/storage"
	appErrors "github.com/xyz-asif/lostfound/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// Service runs the item use cases on top of the store and the matcher
type Service struct {
	store   Store
	matcher *Matcher
	images  storage.Store
	users   UserDirectory
}

func NewService(store Store, matcher *Matcher, images storage.Store, users UserDirectory) *Service {
	return &Service{
		store:   store,
		matcher: matcher,
		images:  images,
		users:   users,
	}
}

// Report creates an item, stores its optional image and proposes a match
func (s *Service) Report(ctx context.Context, owner primitive.ObjectID, status Status, in ItemInput, image io.Reader) (*ReportResult, error) {
	item, err := NewItem(owner, status, in)
	if err != nil {
		return nil, err
	}

	if image != nil {
		obj, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		item.Image = obj.URL
		item.ImageKey = obj.Key
	}

	if err := s.store.Create(ctx, item); err != nil {
		s.deleteImage(ctx, item.ImageKey)
		return nil, err
	}

	matches, err := s.matcher.Propose(ctx, item)
	if err != nil {
		return nil, err
	}

	return &ReportResult{Item: item, Matches: matches}, nil
}

// Update edits an owned item of the given status. Verified items are frozen.
// An unlinked item is matched again after the edit.
func (s *Service) Update(ctx context.Context, owner primitive.ObjectID, status Status, id primitive.ObjectID, in ItemInput, image io.Reader) (*ReportResult, error) {
	item, err := s.owned(ctx, owner, status, id)
	if err != nil {
		return nil, err
	}
	if item.MatchStatus == MatchVerified {
		return nil, ErrMatchVerified
	}

	if err := item.Apply(in); err != nil {
		return nil, err
	}

	var oldKey string
	if image != nil {
		obj, err := s.saveImage(ctx, image)
		if err != nil {
			return nil, err
		}
		oldKey = item.ImageKey
		item.Image = obj.URL
		item.ImageKey = obj.Key
	}

	if err := s.store.UpdateContent(ctx, item); err != nil {
		if image != nil {
			s.deleteImage(ctx, item.ImageKey)
		}
		return nil, err
	}
	s.deleteImage(ctx, oldKey)

	matches := []Item{}
	if !item.IsLinked() {
		matches, err = s.matcher.Propose(ctx, item)
		if err != nil {
			return nil, err
		}
	}

	return &ReportResult{Item: item, Matches: matches}, nil
}

// Delete removes an owned item of the given status together with its image.
// A counterpart still pointing at it is released.
func (s *Service) Delete(ctx context.Context, owner primitive.ObjectID, status Status, id primitive.ObjectID) error {
	item, err := s.owned(ctx, owner, status, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, item.ID); err != nil {
		return err
	}

	if item.MatchedWith != nil {
		if err := s.store.ReleaseCounterpart(ctx, *item.MatchedWith, item.ID); err != nil {
			logger.Warn("releasing counterpart of deleted item failed",
				zap.String("itemID", item.ID.Hex()),
				zap.Error(err))
		}
	}
	s.deleteImage(ctx, item.ImageKey)

	return nil
}

// ListOwn returns the owner's items of one status with their matches
func (s *Service) ListOwn(ctx context.Context, owner primitive.ObjectID, status Status) ([]ItemView, error) {
	list, err := s.store.FindByOwner(ctx, owner, status)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, list, true)
}

// PendingMatches returns the owner's items with a pending link
func (s *Service) PendingMatches(ctx context.Context, owner primitive.ObjectID) ([]ItemView, error) {
	list, err := s.store.FindPendingByOwner(ctx, owner)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, list, true)
}

// Dashboard returns the owner's lost items with their matches
func (s *Service) Dashboard(ctx context.Context, owner primitive.ObjectID) ([]ItemView, error) {
	return s.ListOwn(ctx, owner, StatusLost)
}

// Verified returns every verified item with its counterpart
func (s *Service) Verified(ctx context.Context) ([]ItemView, error) {
	list, err := s.store.FindByMatchStatus(ctx, MatchVerified)
	if err != nil {
		return nil, err
	}
	return s.populate(ctx, list, true)
}

// ListAll returns one page of every user's items of one status
func (s *Service) ListAll(ctx context.Context, status Status, page pagination.Request) ([]ItemView, int64, error) {
	list, total, err := s.store.ListByStatus(ctx, status, page.Skip(), int64(page.Limit))
	if err != nil {
		return nil, 0, err
	}
	views, err := s.populate(ctx, list, false)
	if err != nil {
		return nil, 0, err
	}
	return views, total, nil
}

func (s *Service) Verify(ctx context.Context, id, requester primitive.ObjectID) error {
	return s.matcher.Verify(ctx, id, requester)
}

func (s *Service) Reject(ctx context.Context, id primitive.ObjectID) error {
	return s.matcher.Reject(ctx, id)
}

func (s *Service) owned(ctx context.Context, owner primitive.ObjectID, status Status, id primitive.ObjectID) (*Item, error) {
	item, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil || item.ReportedBy != owner || item.Status != status {
		return nil, appErrors.ErrNotFound
	}
	return item, nil
}

func (s *Service) saveImage(ctx context.Context, r io.Reader) (storage.Object, error) {
	if s.images == nil {
		return storage.Object{}, &InputError{Message: "image uploads are disabled"}
	}

	processed, err := imaging.Process(r)
	if err != nil {
		return storage.Object{}, err
	}

	obj, err := s.images.Save(ctx, processed.Data, processed.MIME, processed.Ext)
	if err != nil {
		return storage.Object{}, fmt.Errorf("storing image: %w", err)
	}
	return obj, nil
}

func (s *Service) deleteImage(ctx context.Context, key string) {
	if key == "" || s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, key); err != nil {
		logger.Warn("deleting image failed", zap.String("key", key), zap.Error(err))
	}
}

// populate attaches reporters and, when withMatch is set, the linked items
func (s *Service) populate(ctx context.Context, list []Item, withMatch bool) ([]ItemView, error) {
	views := make([]ItemView, len(list))
	if len(list) == 0 {
		return views, nil
	}

	matched := map[primitive.ObjectID]*Item{}
	if withMatch {
		var ids []primitive.ObjectID
		for _, it := range list {
			if it.MatchedWith != nil {
				ids = append(ids, *it.MatchedWith)
			}
		}
		var err error
		if matched, err = s.store.FindByIDs(ctx, ids); err != nil {
			return nil, err
		}
	}

	seen := map[primitive.ObjectID]bool{}
	var userIDs []primitive.ObjectID
	addUser := func(id primitive.ObjectID) {
		if !seen[id] {
			seen[id] = true
			userIDs = append(userIDs, id)
		}
	}
	for _, it := range list {
		addUser(it.ReportedBy)
	}
	for _, m := range matched {
		addUser(m.ReportedBy)
	}

	reporters := map[primitive.ObjectID]Reporter{}
	if s.users != nil {
		var err error
		if reporters, err = s.users.Reporters(ctx, userIDs); err != nil {
			return nil, err
		}
	}
	reporter := func(id primitive.ObjectID) *Reporter {
		if r, ok := reporters[id]; ok {
			return &r
		}
		return nil
	}

	for i, it := range list {
		views[i] = ItemView{Item: it, Reporter: reporter(it.ReportedBy)}
		if it.MatchedWith == nil {
			continue
		}
		if m, ok := matched[*it.MatchedWith]; ok {
			views[i].Match = &MatchedItem{
				ID:          m.ID,
				Name:        m.Name,
				Description: m.Description,
				Location:    m.Location,
				Date:        m.Date,
				Image:       m.Image,
				Status:      m.Status,
				MatchStatus: m.MatchStatus,
				Reporter:    reporter(m.ReportedBy),
			}
		}
	}
	return views, nil
}
