package items

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/xyz-asif/lostfound/internal/pkg/logger"
	appErrors "github.com/xyz-asif/lostfound/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

var (
	alice = primitive.NewObjectID()
	bob   = primitive.NewObjectID()
	carol = primitive.NewObjectID()
)

func lostItem(name, location string) Item {
	return Item{Name: name, Location: location, Status: StatusLost, ReportedBy: alice}
}

func foundItem(name, location string) Item {
	return Item{Name: name, Location: location, Status: StatusFound, ReportedBy: bob}
}

func requireLinked(t *testing.T, store *memStore, a, b primitive.ObjectID) {
	t.Helper()
	ia, ib := store.get(a), store.get(b)
	require.NotNil(t, ia.MatchedWith)
	require.NotNil(t, ib.MatchedWith)
	require.Equal(t, b, *ia.MatchedWith)
	require.Equal(t, a, *ib.MatchedWith)
	require.Equal(t, MatchPending, ia.MatchStatus)
	require.Equal(t, MatchPending, ib.MatchStatus)
}

func TestAttachMatch_BlueBackpackScenario(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	a := store.put(lostItem("Blue Backpack", "Library"))
	b := store.put(foundItem("Blue Backpack", "Library"))

	candidates, err := m.ProposeForFound(ctx, b)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, a.ID, candidates[0].ID)

	requireLinked(t, store, a.ID, b.ID)
	require.Equal(t, a.ID, *b.MatchedWith)
	require.Equal(t, MatchPending, b.MatchStatus)
	require.Equal(t, b.ID, *candidates[0].MatchedWith)
}

func TestAttachMatch_RedUmbrellaScenario(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	a := store.put(lostItem("Blue Backpack", "Library"))
	c := store.put(foundItem("Red Umbrella", "Library"))

	candidates, err := m.ProposeForFound(ctx, c)
	require.NoError(t, err)
	require.Empty(t, candidates)
	require.Nil(t, store.get(a.ID).MatchedWith)
	require.Nil(t, store.get(c.ID).MatchedWith)
	require.Equal(t, MatchNone, store.get(c.ID).MatchStatus)
	require.Zero(t, store.linkCalls)
}

func TestFindCandidates_ThresholdIsStrict(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	boundary := store.put(foundItem("abcdxy", "Gym"))
	above := store.put(foundItem("abcdex", "Gym"))
	subject := lostItem("abcdef", "Gym")

	candidates, err := m.FindCandidates(ctx, &subject, StatusFound)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, above.ID, candidates[0].ID)
	require.NotEqual(t, boundary.ID, candidates[0].ID)
}

func TestFindCandidates_CaseFoldingAndLocation(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	same := store.put(foundItem("BLUE backpack", "LIBRARY"))
	store.put(foundItem("Blue Backpack", "Cafeteria"))
	store.put(foundItem("Blue Backpack", "Library 2"))

	subject := lostItem("Blue Backpack", "library")
	candidates, err := m.FindCandidates(ctx, &subject, StatusFound)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Equal(t, same.ID, candidates[0].ID)
}

func TestFindCandidates_Symmetric(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	lost := store.put(lostItem("Black Leather Wallet", "Station"))
	found := store.put(foundItem("black leather wallet", "station"))

	fromLost, err := m.FindCandidates(ctx, lost, StatusFound)
	require.NoError(t, err)
	fromFound, err := m.FindCandidates(ctx, found, StatusLost)
	require.NoError(t, err)

	require.Len(t, fromLost, 1)
	require.Len(t, fromFound, 1)
	require.Equal(t, found.ID, fromLost[0].ID)
	require.Equal(t, lost.ID, fromFound[0].ID)
}

func TestFindCandidates_InsertionOrder(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	first := store.put(foundItem("Blue Backpack", "Library"))
	second := store.put(foundItem("Blue Backpacks", "Library"))
	third := store.put(foundItem("blue backpack", "Library"))

	subject := lostItem("Blue Backpack", "Library")
	candidates, err := m.FindCandidates(ctx, &subject, StatusFound)
	require.NoError(t, err)
	require.Len(t, candidates, 3)
	require.Equal(t, []primitive.ObjectID{first.ID, second.ID, third.ID},
		[]primitive.ObjectID{candidates[0].ID, candidates[1].ID, candidates[2].ID})
}

func TestAttachMatch_SkipsLinkedCandidates(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	other := store.put(lostItem("Blue Backpack", "Library"))
	taken := store.put(foundItem("Blue Backpack", "Library"))
	store.forceLink(other.ID, taken.ID)
	free := store.put(foundItem("Blue Backpack", "Library"))

	subject := store.put(Item{Name: "Blue Backpack", Location: "Library", Status: StatusLost, ReportedBy: carol})
	candidates, err := m.ProposeForLost(ctx, subject)
	require.NoError(t, err)
	require.Len(t, candidates, 2)

	requireLinked(t, store, subject.ID, free.ID)
	require.Equal(t, other.ID, *store.get(taken.ID).MatchedWith)
}

func TestAttachMatch_NoUnclaimedCandidate(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	other := store.put(lostItem("Blue Backpack", "Library"))
	taken := store.put(foundItem("Blue Backpack", "Library"))
	store.forceLink(other.ID, taken.ID)

	subject := store.put(Item{Name: "Blue Backpack", Location: "Library", Status: StatusLost, ReportedBy: carol})
	candidates, err := m.ProposeForLost(ctx, subject)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Nil(t, store.get(subject.ID).MatchedWith)
	require.False(t, subject.IsLinked())
}

func TestAttachMatch_CandidateClaimedConcurrently(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	rival := store.put(lostItem("Blue Backpack", "Library"))
	first := store.put(foundItem("Blue Backpack", "Library"))
	second := store.put(foundItem("Blue Backpack", "Library"))
	subject := store.put(Item{Name: "Blue Backpack", Location: "Library", Status: StatusLost, ReportedBy: carol})

	// the rival claims the first candidate between the scan and the link write
	claimed := false
	store.beforeLink = func(_, candidateID primitive.ObjectID) {
		if !claimed && candidateID == first.ID {
			claimed = true
			store.forceLink(rival.ID, first.ID)
		}
	}

	_, err := m.ProposeForLost(ctx, subject)
	require.NoError(t, err)
	require.Equal(t, 2, store.linkCalls)

	requireLinked(t, store, subject.ID, second.ID)
	requireLinked(t, store, rival.ID, first.ID)
}

func TestAttachMatch_SubjectLinkedConcurrently(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	candidate := store.put(foundItem("Blue Backpack", "Library"))
	rival := store.put(foundItem("Something Else", "Elsewhere"))
	subject := store.put(lostItem("Blue Backpack", "Library"))

	store.beforeLink = func(subjectID, _ primitive.ObjectID) {
		store.forceLink(subjectID, rival.ID)
	}

	_, err := m.ProposeForLost(ctx, subject)
	require.NoError(t, err)

	require.Nil(t, store.get(candidate.ID).MatchedWith)
	require.Equal(t, rival.ID, *subject.MatchedWith)
}

func TestAttachMatch_LinkedSubjectIsNotRematched(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	partner := store.put(foundItem("Keys", "Gym"))
	subject := store.put(lostItem("Blue Backpack", "Library"))
	store.forceLink(subject.ID, partner.ID)
	store.put(foundItem("Blue Backpack", "Library"))

	linked := store.get(subject.ID)
	candidates, err := m.ProposeForLost(ctx, linked)
	require.NoError(t, err)
	require.Len(t, candidates, 1)
	require.Zero(t, store.linkCalls)
	require.Equal(t, partner.ID, *store.get(subject.ID).MatchedWith)
}

func TestAttachMatch_StoreFailure(t *testing.T) {
	store := newMemStore()
	store.findErr = errors.New("connection reset")
	m := NewMatcher(store)

	subject := lostItem("Blue Backpack", "Library")
	_, err := m.ProposeForLost(context.Background(), &subject)
	require.Error(t, err)
	require.ErrorIs(t, err, store.findErr)
}

func TestWithThreshold(t *testing.T) {
	store := newMemStore()
	ctx := context.Background()
	store.put(foundItem("abcdxy", "Gym"))
	subject := lostItem("abcdef", "Gym")

	strict, err := NewMatcher(store).FindCandidates(ctx, &subject, StatusFound)
	require.NoError(t, err)
	require.Empty(t, strict)

	loose, err := NewMatcher(store, WithThreshold(0.5)).FindCandidates(ctx, &subject, StatusFound)
	require.NoError(t, err)
	require.Len(t, loose, 1)

	ignored := NewMatcher(store, WithThreshold(1.5))
	require.Equal(t, DefaultThreshold, ignored.threshold)
}

func TestVerify(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	a := store.put(lostItem("Blue Backpack", "Library"))
	b := store.put(foundItem("Blue Backpack", "Library"))
	_, err := m.ProposeForFound(ctx, b)
	require.NoError(t, err)

	require.NoError(t, m.Verify(ctx, a.ID, alice))
	require.Equal(t, MatchVerified, store.get(a.ID).MatchStatus)
	require.Equal(t, MatchVerified, store.get(b.ID).MatchStatus)

	// idempotent
	before := *store.get(a.ID)
	require.NoError(t, m.Verify(ctx, a.ID, alice))
	after := *store.get(a.ID)
	require.Equal(t, before.MatchStatus, after.MatchStatus)
	require.Equal(t, *before.MatchedWith, *after.MatchedWith)
	require.Equal(t, MatchVerified, store.get(b.ID).MatchStatus)
}

func TestVerify_NotOwnerOrMissing(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	a := store.put(lostItem("Blue Backpack", "Library"))
	b := store.put(foundItem("Blue Backpack", "Library"))
	_, err := m.ProposeForFound(ctx, b)
	require.NoError(t, err)

	err = m.Verify(ctx, a.ID, bob)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
	require.Equal(t, MatchPending, store.get(a.ID).MatchStatus)
	require.Equal(t, MatchPending, store.get(b.ID).MatchStatus)

	err = m.Verify(ctx, primitive.NewObjectID(), alice)
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestReject_LeavesCounterpartByDefault(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store)
	ctx := context.Background()

	a := store.put(lostItem("Blue Backpack", "Library"))
	b := store.put(foundItem("Blue Backpack", "Library"))
	_, err := m.ProposeForFound(ctx, b)
	require.NoError(t, err)

	require.NoError(t, m.Reject(ctx, a.ID))

	ra := store.get(a.ID)
	require.Nil(t, ra.MatchedWith)
	require.Equal(t, MatchPending, ra.MatchStatus)

	rb := store.get(b.ID)
	require.NotNil(t, rb.MatchedWith)
	require.Equal(t, a.ID, *rb.MatchedWith)
	require.Equal(t, MatchPending, rb.MatchStatus)
}

func TestReject_Symmetric(t *testing.T) {
	store := newMemStore()
	m := NewMatcher(store, WithSymmetricReject(true))
	ctx := context.Background()

	a := store.put(lostItem("Blue Backpack", "Library"))
	b := store.put(foundItem("Blue Backpack", "Library"))
	_, err := m.ProposeForFound(ctx, b)
	require.NoError(t, err)

	require.NoError(t, m.Reject(ctx, a.ID))

	require.Nil(t, store.get(a.ID).MatchedWith)
	require.Equal(t, MatchPending, store.get(a.ID).MatchStatus)
	require.Nil(t, store.get(b.ID).MatchedWith)
	require.Equal(t, MatchNone, store.get(b.ID).MatchStatus)
}

func TestReject_Missing(t *testing.T) {
	m := NewMatcher(newMemStore())
	err := m.Reject(context.Background(), primitive.NewObjectID())
	require.ErrorIs(t, err, appErrors.ErrNotFound)
}

func TestFindCandidates_LogsScan(t *testing.T) {
	core, logs := observer.New(zap.DebugLevel)
	logger.SetDefault(zap.New(core))
	defer logger.SetDefault(nil)

	store := newMemStore()
	store.put(foundItem("Blue Backpack", "Library"))
	store.put(foundItem("Red Umbrella", "Library"))
	subject := store.put(lostItem("Blue Backpack", "Library"))

	candidates, err := NewMatcher(store).FindCandidates(context.Background(), subject, StatusFound)
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	entries := logs.FilterMessage("match candidates").All()
	require.Len(t, entries, 1)
	fields := entries[0].ContextMap()
	require.Equal(t, int64(2), fields["scanned"])
	require.Equal(t, int64(1), fields["candidates"])
	require.Equal(t, "found", fields["against"])
}
