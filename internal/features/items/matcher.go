// ================== internal/features/items/matcher.go ==================
package items

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xyz-asif/lostfound/internal/pkg/logger"
	"github.com/xyz-asif/lostfound/internal/pkg/similarity"
	appErrors "github.com/xyz-asif/lostfound/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

// DefaultThreshold is the name similarity a candidate must exceed
const DefaultThreshold = 0.6

// Matcher proposes and records links between lost and found items
type Matcher struct {
	store           Store
	threshold       float64
	symmetricReject bool
}

type MatcherOption func(*Matcher)

// WithThreshold overrides DefaultThreshold. Values outside (0, 1) are ignored.
func WithThreshold(t float64) MatcherOption {
	return func(m *Matcher) {
		if t > 0 && t < 1 {
			m.threshold = t
		}
	}
}

// WithSymmetricReject makes Reject also release the counterpart
func WithSymmetricReject(on bool) MatcherOption {
	return func(m *Matcher) {
		m.symmetricReject = on
	}
}

func NewMatcher(store Store, opts ...MatcherOption) *Matcher {
	m := &Matcher{store: store, threshold: DefaultThreshold}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// FindCandidates returns every item of statusToMatch whose name is similar enough
// to the subject's and whose location is equal ignoring case, in insertion order.
func (m *Matcher) FindCandidates(ctx context.Context, subject *Item, statusToMatch Status) ([]Item, error) {
	pool, err := m.store.FindByStatus(ctx, statusToMatch)
	if err != nil {
		return nil, fmt.Errorf("loading %s items: %w", statusToMatch, err)
	}

	name := strings.ToLower(subject.Name)
	location := strings.ToLower(subject.Location)

	candidates := make([]Item, 0)
	for _, c := range pool {
		if c.ID == subject.ID {
			continue
		}
		if strings.ToLower(c.Location) != location {
			continue
		}
		if similarity.Dice(name, strings.ToLower(c.Name)) > m.threshold {
			candidates = append(candidates, c)
		}
	}

	logger.Debug("match candidates",
		zap.String("itemID", subject.ID.Hex()),
		zap.String("against", string(statusToMatch)),
		zap.Int("scanned", len(pool)),
		zap.Int("candidates", len(candidates)))
	return candidates, nil
}

// AttachMatch links the subject to the first unclaimed candidate. It returns the
// full candidate list. Finding nothing is not an error; a linked subject is left alone.
func (m *Matcher) AttachMatch(ctx context.Context, subject *Item, statusToMatch Status) ([]Item, error) {
	candidates, err := m.FindCandidates(ctx, subject, statusToMatch)
	if err != nil {
		return nil, err
	}
	if subject.IsLinked() {
		return candidates, nil
	}

	for i := range candidates {
		c := &candidates[i]
		if c.IsLinked() {
			continue
		}

		linked, err := m.store.LinkPending(ctx, subject.ID, c.ID)
		if errors.Is(err, ErrSubjectLinked) {
			logger.Info("subject linked concurrently", zap.String("itemID", subject.ID.Hex()))
			return candidates, m.reload(ctx, subject)
		}
		if err != nil {
			return candidates, fmt.Errorf("linking %s to %s: %w", subject.ID.Hex(), c.ID.Hex(), err)
		}
		if !linked {
			continue
		}

		subjectID, candidateID := subject.ID, c.ID
		subject.MatchedWith = &candidateID
		subject.MatchStatus = MatchPending
		c.MatchedWith = &subjectID
		c.MatchStatus = MatchPending

		logger.Info("match proposed",
			zap.String("itemID", subject.ID.Hex()),
			zap.String("matchedWith", c.ID.Hex()),
			zap.String("status", string(subject.Status)))
		break
	}

	return candidates, nil
}

func (m *Matcher) reload(ctx context.Context, subject *Item) error {
	fresh, err := m.store.FindByID(ctx, subject.ID)
	if err != nil {
		return fmt.Errorf("reloading %s: %w", subject.ID.Hex(), err)
	}
	if fresh != nil {
		*subject = *fresh
	}
	return nil
}

// ProposeForLost matches a lost item against found items
func (m *Matcher) ProposeForLost(ctx context.Context, item *Item) ([]Item, error) {
	return m.AttachMatch(ctx, item, StatusFound)
}

// ProposeForFound matches a found item against lost items
func (m *Matcher) ProposeForFound(ctx context.Context, item *Item) ([]Item, error) {
	return m.AttachMatch(ctx, item, StatusLost)
}

// Propose dispatches on the item's own status
func (m *Matcher) Propose(ctx context.Context, item *Item) ([]Item, error) {
	if item.Status == StatusLost {
		return m.ProposeForLost(ctx, item)
	}
	return m.ProposeForFound(ctx, item)
}

// Verify marks the requester's item and its counterpart verified. Missing and
// not-owned items both yield ErrNotFound. Repeated calls change nothing.
func (m *Matcher) Verify(ctx context.Context, itemID, requester primitive.ObjectID) error {
	item, err := m.store.FindByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("finding item: %w", err)
	}
	if item == nil || item.ReportedBy != requester {
		return appErrors.ErrNotFound
	}

	if item.MatchStatus != MatchVerified {
		if err := m.store.SetMatchStatus(ctx, item.ID, MatchVerified); err != nil {
			return fmt.Errorf("verifying item: %w", err)
		}
	}

	if item.MatchedWith != nil {
		other, err := m.store.FindByID(ctx, *item.MatchedWith)
		if err != nil {
			return fmt.Errorf("finding counterpart: %w", err)
		}
		if other != nil && other.MatchStatus != MatchVerified {
			if err := m.store.SetMatchStatus(ctx, other.ID, MatchVerified); err != nil {
				return fmt.Errorf("verifying counterpart: %w", err)
			}
		}
	}

	logger.Info("match verified", zap.String("itemID", itemID.Hex()), zap.String("userID", requester.Hex()))
	return nil
}

// Reject drops the item's link and leaves it pending. Ownership is not checked.
// The counterpart keeps pointing at the item unless symmetric reject is enabled.
func (m *Matcher) Reject(ctx context.Context, itemID primitive.ObjectID) error {
	item, err := m.store.FindByID(ctx, itemID)
	if err != nil {
		return fmt.Errorf("finding item: %w", err)
	}
	if item == nil {
		return appErrors.ErrNotFound
	}

	if err := m.store.ClearMatch(ctx, item.ID, MatchPending); err != nil {
		return fmt.Errorf("rejecting match: %w", err)
	}

	if m.symmetricReject && item.MatchedWith != nil {
		if err := m.store.ReleaseCounterpart(ctx, *item.MatchedWith, item.ID); err != nil {
			return fmt.Errorf("releasing counterpart: %w", err)
		}
	}

	logger.Info("match rejected", zap.String("itemID", itemID.Hex()), zap.Bool("symmetric", m.symmetricReject))
	return nil
}
