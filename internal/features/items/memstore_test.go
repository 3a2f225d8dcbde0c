package items

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xyz-asif/lostfound/internal/pkg/storage"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memStore is an in-memory Store that keeps insertion order
type memStore struct {
	mu    sync.Mutex
	order []primitive.ObjectID
	items map[primitive.ObjectID]*Item

	// beforeLink runs before LinkPending claims the candidate
	beforeLink func(subjectID, candidateID primitive.ObjectID)
	findErr    error
	linkCalls  int
}

func newMemStore() *memStore {
	return &memStore{items: map[primitive.ObjectID]*Item{}}
}

func clone(it *Item) Item {
	cp := *it
	if it.MatchedWith != nil {
		id := *it.MatchedWith
		cp.MatchedWith = &id
	}
	return cp
}

func (m *memStore) Create(_ context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if item.ID.IsZero() {
		item.ID = primitive.NewObjectID()
	}
	now := time.Now().UTC()
	item.CreatedAt, item.UpdatedAt = now, now
	cp := clone(item)
	m.items[item.ID] = &cp
	m.order = append(m.order, item.ID)
	return nil
}

// put stores an item as-is, for arranging fixtures
func (m *memStore) put(item Item) *Item {
	_ = m.Create(context.Background(), &item)
	return &item
}

func (m *memStore) get(id primitive.ObjectID) *Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[id]; ok {
		cp := clone(it)
		return &cp
	}
	return nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*Item, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.get(id), nil
}

func (m *memStore) FindByIDs(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]*Item, error) {
	out := map[primitive.ObjectID]*Item{}
	for _, id := range ids {
		if it := m.get(id); it != nil {
			out[id] = it
		}
	}
	return out, nil
}

func (m *memStore) filter(keep func(*Item) bool) []Item {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []Item{}
	for _, id := range m.order {
		if it, ok := m.items[id]; ok && keep(it) {
			out = append(out, clone(it))
		}
	}
	return out
}

func (m *memStore) FindByStatus(_ context.Context, status Status) ([]Item, error) {
	if m.findErr != nil {
		return nil, m.findErr
	}
	return m.filter(func(it *Item) bool { return it.Status == status }), nil
}

func (m *memStore) FindByOwner(_ context.Context, owner primitive.ObjectID, status Status) ([]Item, error) {
	return m.filter(func(it *Item) bool { return it.ReportedBy == owner && it.Status == status }), nil
}

func (m *memStore) FindPendingByOwner(_ context.Context, owner primitive.ObjectID) ([]Item, error) {
	return m.filter(func(it *Item) bool {
		return it.ReportedBy == owner && it.MatchedWith != nil && it.MatchStatus == MatchPending
	}), nil
}

func (m *memStore) FindByMatchStatus(_ context.Context, status MatchStatus) ([]Item, error) {
	return m.filter(func(it *Item) bool { return it.MatchStatus == status }), nil
}

func (m *memStore) ListByStatus(_ context.Context, status Status, skip, limit int64) ([]Item, int64, error) {
	all := m.filter(func(it *Item) bool { return it.Status == status })
	total := int64(len(all))
	if skip >= total {
		return []Item{}, total, nil
	}
	end := skip + limit
	if end > total {
		end = total
	}
	return all[skip:end], total, nil
}

func (m *memStore) UpdateContent(_ context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	it, ok := m.items[item.ID]
	if !ok {
		return errNoItem
	}
	it.Name, it.Description, it.Location = item.Name, item.Description, item.Location
	it.Image, it.ImageKey = item.Image, item.ImageKey
	if item.Date != nil {
		it.Date = item.Date
	}
	return nil
}

func (m *memStore) Delete(_ context.Context, id primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, id)
	return nil
}

func (m *memStore) LinkPending(_ context.Context, subjectID, candidateID primitive.ObjectID) (bool, error) {
	if m.beforeLink != nil {
		m.beforeLink(subjectID, candidateID)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.linkCalls++

	c, ok := m.items[candidateID]
	if !ok || c.MatchedWith != nil {
		return false, nil
	}
	s, ok := m.items[subjectID]
	if !ok || s.MatchedWith != nil {
		return false, ErrSubjectLinked
	}

	sid, cid := subjectID, candidateID
	c.MatchedWith, c.MatchStatus = &sid, MatchPending
	s.MatchedWith, s.MatchStatus = &cid, MatchPending
	return true, nil
}

func (m *memStore) SetMatchStatus(_ context.Context, id primitive.ObjectID, status MatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[id]; ok {
		it.MatchStatus = status
	}
	return nil
}

func (m *memStore) ClearMatch(_ context.Context, id primitive.ObjectID, status MatchStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[id]; ok {
		it.MatchedWith = nil
		it.MatchStatus = status
	}
	return nil
}

func (m *memStore) ReleaseCounterpart(_ context.Context, counterpartID, subjectID primitive.ObjectID) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if it, ok := m.items[counterpartID]; ok && it.MatchedWith != nil && *it.MatchedWith == subjectID {
		it.MatchedWith = nil
		it.MatchStatus = MatchNone
	}
	return nil
}

type memUsers map[primitive.ObjectID]string

func (u memUsers) Reporters(_ context.Context, ids []primitive.ObjectID) (map[primitive.ObjectID]Reporter, error) {
	out := map[primitive.ObjectID]Reporter{}
	for _, id := range ids {
		if name, ok := u[id]; ok {
			out[id] = Reporter{ID: id, Username: name}
		}
	}
	return out, nil
}

// memImages is an in-memory storage.Store
type memImages struct {
	mu      sync.Mutex
	saved   map[string][]byte
	deleted []string
}

func newMemImages() *memImages {
	return &memImages{saved: map[string][]byte{}}
}

var errNoItem = errors.New("no such item")

func (m *memImages) Save(_ context.Context, data []byte, _ string, ext string) (storage.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := primitive.NewObjectID().Hex() + ext
	m.saved[key] = data
	return storage.Object{URL: "/uploads/" + key, Key: key}, nil
}

func (m *memImages) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.saved, key)
	m.deleted = append(m.deleted, key)
	return nil
}

// forceLink links a and b directly, bypassing the compare-and-set
func (m *memStore) forceLink(a, b primitive.ObjectID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	aid, bid := a, b
	if it, ok := m.items[a]; ok {
		it.MatchedWith, it.MatchStatus = &bid, MatchPending
	}
	if it, ok := m.items[b]; ok {
		it.MatchedWith, it.MatchStatus = &aid, MatchPending
	}
}
