package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/domain/entities"
)

type examFixture struct {
	svc      *ExamService
	source   *fakeQuestions
	recorder *recorder
	tickers  *tickers
}

func newExamFixture(t *testing.T) *examFixture {
	t.Helper()

	f := &examFixture{
		source:   newFakeQuestions(),
		recorder: &recorder{},
		tickers:  &tickers{},
	}
	f.source.set("AZ-900", "1",
		question("q1", 1, "Cloud Concepts"),
		question("q2", 2, "Security"),
	)
	f.source.set("AZ-900", "2", question("q3", 0, "Pricing"))

	f.svc = NewExamService(f.source, f.recorder, zap.NewNop())
	f.svc.SetTickerFactory(f.tickers.factory)
	t.Cleanup(f.svc.Exit)
	return f
}

func TestExamStart(t *testing.T) {
	f := newExamFixture(t)

	es, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)

	assert.Equal(t, entities.ExamInProgress, es.Status)
	assert.Len(t, es.Answers, len(es.Questions))
	assert.Equal(t, []int{entities.Unanswered, entities.Unanswered}, es.Answers)
	assert.Equal(t, 30*60, es.RemainingSeconds)
	assert.Equal(t, entities.ExamInProgress, f.svc.Status())
}

func TestExamStartLoadErrors(t *testing.T) {
	tests := []struct {
		name   string
		quizID string
		err    error
	}{
		{"transport failure", "1", errRemoteDown},
		{"empty quiz", "9", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExamFixture(t)
			f.source.err = tt.err

			es, err := f.svc.Start(context.Background(), "AZ-900", tt.quizID, 30)
			assert.Nil(t, es)

			var loadErr *QuestionLoadError
			require.ErrorAs(t, err, &loadErr)
			assert.Equal(t, "AZ-900", loadErr.CertificationCode)
			assert.Equal(t, tt.quizID, loadErr.QuizID)
			if tt.err != nil {
				assert.ErrorIs(t, err, tt.err)
			}

			assert.Equal(t, entities.ExamNotStarted, f.svc.Status())
			assert.Nil(t, f.svc.Snapshot())
		})
	}
}

func TestExamStartInvalidDuration(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 0)
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestExamStartSkipsMalformedQuestions(t *testing.T) {
	f := newExamFixture(t)
	f.source.set("AZ-900", "3",
		question("ok", 0, ""),
		entities.Question{ID: "bad", Options: []string{"only"}},
	)

	es, err := f.svc.Start(context.Background(), "AZ-900", "3", 30)
	require.NoError(t, err)
	require.Len(t, es.Questions, 1)
	assert.Equal(t, "ok", es.Questions[0].ID)
}

func TestExamSelectAnswerContract(t *testing.T) {
	f := newExamFixture(t)

	assert.ErrorIs(t, f.svc.SelectAnswer(0), ErrNoActiveSession)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)

	assert.ErrorIs(t, f.svc.SelectAnswer(4), entities.ErrOptionOutOfRange)
	require.NoError(t, f.svc.SelectAnswer(3))
	require.NoError(t, f.svc.SelectAnswer(1))

	es := f.svc.Snapshot()
	assert.Equal(t, []int{1, entities.Unanswered}, es.Answers)
	assert.Equal(t, 0, es.CurrentIndex)

	_, _, err = f.svc.Submit()
	require.NoError(t, err)
	assert.ErrorIs(t, f.svc.SelectAnswer(0), entities.ErrSessionNotInProgress)
}

func TestExamScoreScenario(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)

	require.NoError(t, f.svc.SelectAnswer(1))
	f.svc.Next()
	require.NoError(t, f.svc.SelectAnswer(0))

	rec, submitted, err := f.svc.Submit()
	require.NoError(t, err)
	assert.True(t, submitted)
	assert.Equal(t, 50, rec.Score)
	assert.True(t, rec.Completed)
	assert.Equal(t, entities.ExamCompleted, f.svc.Status())
}

func TestExamScoreExtremes(t *testing.T) {
	tests := []struct {
		name    string
		answers []int
		want    int
	}{
		{"all correct", []int{1, 2}, 100},
		{"all wrong", []int{0, 0}, 0},
		{"unanswered", []int{entities.Unanswered, entities.Unanswered}, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newExamFixture(t)
			_, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
			require.NoError(t, err)

			for i, a := range tt.answers {
				f.svc.GoTo(i)
				if a != entities.Unanswered {
					require.NoError(t, f.svc.SelectAnswer(a))
				}
			}

			rec, _, err := f.svc.Submit()
			require.NoError(t, err)
			assert.Equal(t, tt.want, rec.Score)
		})
	}
}

func TestExamSubmitIsIdempotent(t *testing.T) {
	f := newExamFixture(t)

	_, _, err := f.svc.Submit()
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)
	require.NoError(t, f.svc.SelectAnswer(1))

	first, submitted, err := f.svc.Submit()
	require.NoError(t, err)
	assert.True(t, submitted)

	second, submitted, err := f.svc.Submit()
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Equal(t, first, second)

	assert.Len(t, f.recorder.all(), 1)
	assert.True(t, f.tickers.get(0).isStopped())
}

func TestExamTimerBoundary(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 1)
	require.NoError(t, err)
	require.NoError(t, f.svc.SelectAnswer(1))

	for range 59 {
		f.svc.tick("")
	}
	assert.Equal(t, entities.ExamInProgress, f.svc.Status())
	assert.Equal(t, 1, f.svc.Snapshot().RemainingSeconds)
	assert.Empty(t, f.recorder.all())

	f.svc.tick("")
	assert.Equal(t, entities.ExamCompleted, f.svc.Status())

	// Late ticks after expiry do nothing.
	f.svc.tick("")
	f.svc.tick("")

	records := f.recorder.all()
	require.Len(t, records, 1)
	assert.Equal(t, 50, records[0].Score, "unanswered questions count as incorrect")
}

func TestExamTimerGoroutineSubmitsOnce(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "2", 1)
	require.NoError(t, err)

	ticker := f.tickers.get(0)
	for range 60 {
		ticker.c <- time.Now()
	}

	require.Eventually(t, func() bool {
		return f.svc.Status() == entities.ExamCompleted
	}, time.Second, 5*time.Millisecond)
	assert.True(t, ticker.isStopped())
	assert.Len(t, f.recorder.all(), 1)

	_, submitted, err := f.svc.Submit()
	require.NoError(t, err)
	assert.False(t, submitted)
	assert.Len(t, f.recorder.all(), 1)
}

func TestExamTimerCountsEachTickOnce(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 1)
	require.NoError(t, err)

	ticker := f.tickers.get(0)
	for range 5 {
		ticker.c <- time.Now()
	}

	require.Eventually(t, func() bool {
		return f.svc.Snapshot().RemainingSeconds == 55
	}, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool {
		return f.svc.Snapshot().RemainingSeconds != 55
	}, 50*time.Millisecond, 5*time.Millisecond)
	assert.Equal(t, entities.ExamInProgress, f.svc.Status())
}

func TestExamStartDiscardsPriorSession(t *testing.T) {
	f := newExamFixture(t)

	first, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)
	require.NoError(t, f.svc.SelectAnswer(1))

	second, err := f.svc.Start(context.Background(), "AZ-900", "2", 30)
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, "2", f.svc.Snapshot().QuizID)
	assert.True(t, f.tickers.get(0).isStopped())
	assert.False(t, f.tickers.get(1).isStopped())
	assert.Empty(t, f.recorder.all())

	// A tick addressed to the discarded session is ignored.
	before := f.svc.Snapshot().RemainingSeconds
	f.svc.tick(first.ID)
	assert.Equal(t, before, f.svc.Snapshot().RemainingSeconds)
}

func TestExamFailedStartKeepsRunningSession(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)

	_, err = f.svc.Start(context.Background(), "AZ-900", "9", 30)
	var loadErr *QuestionLoadError
	require.True(t, errors.As(err, &loadErr))

	assert.Equal(t, "1", f.svc.Snapshot().QuizID)
	assert.False(t, f.tickers.get(0).isStopped())
}

func TestExamExitAndReset(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)
	f.svc.Exit()

	assert.Equal(t, entities.ExamNotStarted, f.svc.Status())
	assert.True(t, f.tickers.get(0).isStopped())
	assert.Empty(t, f.recorder.all())

	_, err = f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)
	_, _, err = f.svc.Submit()
	require.NoError(t, err)

	f.svc.Reset()
	assert.Equal(t, entities.ExamNotStarted, f.svc.Status())
	assert.Nil(t, f.svc.Snapshot())
}

func TestExamTogglesAndNavigation(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.ToggleFlag()
	assert.ErrorIs(t, err, ErrNoActiveSession)

	_, err = f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)

	f.svc.Previous()
	flagged, err := f.svc.ToggleFlag()
	require.NoError(t, err)
	assert.True(t, flagged)

	f.svc.Next()
	f.svc.Next()
	bookmarked, err := f.svc.ToggleBookmark()
	require.NoError(t, err)
	assert.True(t, bookmarked)

	es := f.svc.Snapshot()
	assert.Equal(t, 1, es.CurrentIndex)
	assert.Equal(t, []int{0}, entities.SortedIndices(es.Flagged))
	assert.Equal(t, []int{1}, entities.SortedIndices(es.Bookmarked))

	flagged, err = f.svc.ToggleFlag()
	require.NoError(t, err)
	assert.True(t, flagged)
	flagged, err = f.svc.ToggleFlag()
	require.NoError(t, err)
	assert.False(t, flagged)

	_, _, err = f.svc.Submit()
	require.NoError(t, err)
	_, err = f.svc.ToggleBookmark()
	assert.ErrorIs(t, err, entities.ErrSessionNotInProgress)
}

func TestExamSnapshotIsACopy(t *testing.T) {
	f := newExamFixture(t)

	_, err := f.svc.Start(context.Background(), "AZ-900", "1", 30)
	require.NoError(t, err)

	snap := f.svc.Snapshot()
	snap.Answers[0] = 3
	snap.CurrentIndex = 1

	es := f.svc.Snapshot()
	assert.Equal(t, entities.Unanswered, es.Answers[0])
	assert.Equal(t, 0, es.CurrentIndex)
}
