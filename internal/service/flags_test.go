package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/syncqueue"
)

var flagTime = time.Date(2026, 5, 4, 12, 0, 0, 0, time.UTC)

func newTestFlagStore(repo *fakeFlaggedRepo) (*FlagStore, *syncqueue.Queue) {
	q := newTestQueue()
	s := NewFlagStore("learner-1", repo, q, zap.NewNop())
	s.SetClock(func() time.Time { return flagTime })
	return s, q
}

func TestFlagStoreFlagAndRemove(t *testing.T) {
	repo := newFakeFlaggedRepo()
	store, q := newTestFlagStore(repo)

	flagged := store.ToggleFlag("AZ-900", "1", "q1", "What is IaaS?", []string{"A", "B"}, "A")
	assert.True(t, flagged)

	list := store.GetFlaggedByCert("AZ-900")
	require.Len(t, list, 1)
	assert.Equal(t, entities.FlaggedQuestion{
		QuestionID:        "q1",
		CertificationCode: "AZ-900",
		QuizID:            "1",
		QuestionText:      "What is IaaS?",
		Options:           []string{"A", "B"},
		CorrectAnswerText: "A",
		FlaggedAt:         flagTime,
	}, list[0])

	drain(t, q)
	assert.Len(t, repo.doc("learner-1"), 1)

	assert.True(t, store.RemoveFlagged("q1"))
	assert.Empty(t, store.GetFlaggedByCert("AZ-900"))
	assert.False(t, store.RemoveFlagged("q1"))

	drain(t, q)
	assert.Empty(t, repo.doc("learner-1"))
}

func TestFlagStoreToggleRoundTrip(t *testing.T) {
	repo := newFakeFlaggedRepo()
	store, q := newTestFlagStore(repo)
	store.ToggleFlag("AZ-900", "2", "q0", "keep", []string{"A", "B"}, "B")
	before := store.All()

	q1 := question("q1", 2, "Security")
	assert.True(t, store.ToggleQuestion("AZ-900", "1", q1))
	assert.True(t, store.IsFlagged("q1"))
	assert.Equal(t, "C", store.All()[1].CorrectAnswerText)

	assert.False(t, store.ToggleQuestion("AZ-900", "1", q1))
	assert.False(t, store.IsFlagged("q1"))
	assert.Equal(t, before, store.All())

	drain(t, q)
	assert.Equal(t, before, repo.doc("learner-1"))
}

func TestFlagStoreFilterByCert(t *testing.T) {
	store, _ := newTestFlagStore(newFakeFlaggedRepo())

	store.ToggleFlag("AZ-900", "1", "a", "", []string{"A", "B"}, "A")
	store.ToggleFlag("CISSP", "4", "b", "", []string{"A", "B"}, "A")
	store.ToggleFlag("AZ-900", "7", "c", "", []string{"A", "B"}, "A")

	az := store.GetFlaggedByCert("AZ-900")
	require.Len(t, az, 2)
	assert.Equal(t, "a", az[0].QuestionID)
	assert.Equal(t, "c", az[1].QuestionID)

	none := store.GetFlaggedByCert("AWS-SAA")
	assert.NotNil(t, none)
	assert.Empty(t, none)
}

func TestFlagStoreHydrate(t *testing.T) {
	repo := newFakeFlaggedRepo()
	repo.docs["learner-1"] = []entities.FlaggedQuestion{
		{QuestionID: "q1", CertificationCode: "AZ-900", QuestionText: "first"},
		{QuestionID: "q2", CertificationCode: "AZ-900"},
		{QuestionID: "q1", CertificationCode: "AZ-900", QuestionText: "duplicate"},
	}
	store, _ := newTestFlagStore(repo)

	require.NoError(t, store.Hydrate(context.Background()))
	all := store.All()
	require.Len(t, all, 2)
	assert.Equal(t, "first", all[0].QuestionText)

	repo.loadErr = errRemoteDown
	var readErr *SyncReadError
	require.ErrorAs(t, store.Hydrate(context.Background()), &readErr)
	assert.Equal(t, "flagged", readErr.Document)
}

func TestFlagStoreSyncFailureKeepsLocalState(t *testing.T) {
	repo := newFakeFlaggedRepo()
	repo.saveErr = errRemoteDown
	store, q := newTestFlagStore(repo)

	store.ToggleFlag("AZ-900", "1", "q1", "", []string{"A", "B"}, "A")
	drain(t, q)

	assert.True(t, store.IsFlagged("q1"))
	assert.Empty(t, repo.doc("learner-1"))

	repo.mu.Lock()
	repo.saveErr = nil
	repo.mu.Unlock()

	assert.True(t, store.Resync())
	drain(t, q)
	assert.Len(t, repo.doc("learner-1"), 1)
	assert.False(t, store.Resync())
}
