package service

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/aliskhannn/certprep/internal/domain/entities"
	"github.com/aliskhannn/certprep/internal/syncqueue"
)

var errRemoteDown = errors.New("remote store unavailable")

// fakeQuestions is an in-memory question source keyed by "cert/quiz".
type fakeQuestions struct {
	mu        sync.Mutex
	byQuiz    map[string][]entities.Question
	err       error
	countErrs map[string]error
}

func newFakeQuestions() *fakeQuestions {
	return &fakeQuestions{
		byQuiz:    make(map[string][]entities.Question),
		countErrs: make(map[string]error),
	}
}

func (f *fakeQuestions) set(certCode, quizID string, qs ...entities.Question) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.byQuiz[certCode+"/"+quizID] = qs
}

func (f *fakeQuestions) GetQuestions(_ context.Context, certCode, quizID string) ([]entities.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return f.byQuiz[certCode+"/"+quizID], nil
}

func (f *fakeQuestions) CountQuestions(_ context.Context, certCode, quizID string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.countErrs[certCode+"/"+quizID]; err != nil {
		return 0, err
	}
	return len(f.byQuiz[certCode+"/"+quizID]), nil
}

// fakeCompletionRepo stores one completion document per learner.
type fakeCompletionRepo struct {
	mu      sync.Mutex
	docs    map[string]entities.Completions
	loadErr error
	saveErr error
	saves   int
}

func newFakeCompletionRepo() *fakeCompletionRepo {
	return &fakeCompletionRepo{docs: make(map[string]entities.Completions)}
}

func (f *fakeCompletionRepo) LoadCompletions(_ context.Context, learnerID string) (entities.Completions, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return f.docs[learnerID].Clone(), nil
}

func (f *fakeCompletionRepo) SaveCompletions(_ context.Context, learnerID string, c entities.Completions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saves++
	if f.saveErr != nil {
		return f.saveErr
	}
	f.docs[learnerID] = c.Clone()
	return nil
}

func (f *fakeCompletionRepo) doc(learnerID string) entities.Completions {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.docs[learnerID].Clone()
}

func (f *fakeCompletionRepo) has(learnerID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[learnerID]
	return ok
}

func (f *fakeCompletionRepo) setSaveErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.saveErr = err
}

// fakeFlaggedRepo stores one flag list per learner.
type fakeFlaggedRepo struct {
	mu      sync.Mutex
	docs    map[string][]entities.FlaggedQuestion
	loadErr error
	saveErr error
}

func newFakeFlaggedRepo() *fakeFlaggedRepo {
	return &fakeFlaggedRepo{docs: make(map[string][]entities.FlaggedQuestion)}
}

func (f *fakeFlaggedRepo) LoadFlagged(_ context.Context, learnerID string) ([]entities.FlaggedQuestion, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	return append([]entities.FlaggedQuestion{}, f.docs[learnerID]...), nil
}

func (f *fakeFlaggedRepo) SaveFlagged(_ context.Context, learnerID string, flagged []entities.FlaggedQuestion) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveErr != nil {
		return f.saveErr
	}
	f.docs[learnerID] = append([]entities.FlaggedQuestion{}, flagged...)
	return nil
}

func (f *fakeFlaggedRepo) doc(learnerID string) []entities.FlaggedQuestion {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]entities.FlaggedQuestion{}, f.docs[learnerID]...)
}

func (f *fakeFlaggedRepo) has(learnerID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.docs[learnerID]
	return ok
}

// fakeAccounts deletes from the two fake document stores. onDelete runs
// after the documents are gone, standing in for activity that races the
// delete.
type fakeAccounts struct {
	completions *fakeCompletionRepo
	flagged     *fakeFlaggedRepo
	err         error
	onDelete    func()
}

func (f *fakeAccounts) DeleteLearner(_ context.Context, learnerID string) error {
	if f.err != nil {
		return f.err
	}
	f.completions.mu.Lock()
	delete(f.completions.docs, learnerID)
	f.completions.mu.Unlock()

	f.flagged.mu.Lock()
	delete(f.flagged.docs, learnerID)
	f.flagged.mu.Unlock()

	if f.onDelete != nil {
		f.onDelete()
	}
	return nil
}

// fakeCerts is a fixed certification registry.
type fakeCerts struct {
	certs []*entities.Certification
}

func newFakeCerts(certs ...*entities.Certification) *fakeCerts {
	return &fakeCerts{certs: certs}
}

func (f *fakeCerts) GetByCode(code string) (*entities.Certification, error) {
	for _, c := range f.certs {
		if strings.EqualFold(c.Code, code) {
			return c, nil
		}
	}
	return nil, errors.New("certification not found")
}

func (f *fakeCerts) GetAll() []*entities.Certification {
	return f.certs
}

func testCert(code string, finalMinutes int) *entities.Certification {
	return &entities.Certification{
		Code:             code,
		Name:             code + " certification",
		FinalExamMinutes: finalMinutes,
		PracticeQuizzes:  entities.PracticeQuizCount,
		FinalExams:       entities.FinalExamCount,
	}
}

// recorder collects completion records handed over by the exam service.
type recorder struct {
	mu      sync.Mutex
	records []entities.CompletionRecord
}

func (r *recorder) RecordCompletion(certCode, quizID string, score int) entities.CompletionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec := entities.NewCompletionRecord(certCode, quizID, score)
	r.records = append(r.records, rec)
	return rec
}

func (r *recorder) all() []entities.CompletionRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]entities.CompletionRecord{}, r.records...)
}

// fakeTicker is driven by the test through c.
type fakeTicker struct {
	c       chan time.Time
	mu      sync.Mutex
	stopped bool
}

func (f *fakeTicker) C() <-chan time.Time { return f.c }

func (f *fakeTicker) Stop() {
	f.mu.Lock()
	f.stopped = true
	f.mu.Unlock()
}

func (f *fakeTicker) isStopped() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.stopped
}

// tickers hands out fake tickers and remembers them in creation order.
type tickers struct {
	mu  sync.Mutex
	all []*fakeTicker
}

func (ts *tickers) factory(time.Duration) Ticker {
	t := &fakeTicker{c: make(chan time.Time)}
	ts.mu.Lock()
	ts.all = append(ts.all, t)
	ts.mu.Unlock()
	return t
}

func (ts *tickers) get(i int) *fakeTicker {
	ts.mu.Lock()
	defer ts.mu.Unlock()
	return ts.all[i]
}

// newTestQueue returns a stopped queue that tests drain explicitly.
func newTestQueue() *syncqueue.Queue {
	return syncqueue.New(syncqueue.RetryConfig{MaxAttempts: 1}, zap.NewNop())
}

func drain(t *testing.T, q *syncqueue.Queue) {
	t.Helper()
	if err := q.Drain(context.Background()); err != nil {
		t.Fatalf("drain: %v", err)
	}
}

func question(id string, correct int, domain string) entities.Question {
	return entities.Question{
		ID:           id,
		Prompt:       "Question " + id,
		Options:      []string{"A", "B", "C", "D"},
		CorrectIndex: correct,
		Explanation:  "Because " + id,
		Domain:       domain,
	}
}
