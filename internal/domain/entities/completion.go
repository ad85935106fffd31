package entities

// CompletionRecord is the persisted fact that a learner finished a quiz.
type CompletionRecord struct {
	CertificationCode string `json:"certification_code"`
	QuizID            string `json:"quiz_id"`
	Completed         bool   `json:"completed"`
	Score             int    `json:"score"` // integer percentage 0-100
}

// NewCompletionRecord creates a completed record with the given score.
func NewCompletionRecord(certCode, quizID string, score int) CompletionRecord {
	return CompletionRecord{
		CertificationCode: certCode,
		QuizID:            quizID,
		Completed:         true,
		Score:             score,
	}
}

// Completions maps certification code -> quiz ID -> record.
type Completions map[string]map[string]CompletionRecord

// Clone returns a deep copy of c. A nil map clones to an empty one.
func (c Completions) Clone() Completions {
	out := make(Completions, len(c))
	for cert, quizzes := range c {
		inner := make(map[string]CompletionRecord, len(quizzes))
		for id, rec := range quizzes {
			inner[id] = rec
		}
		out[cert] = inner
	}
	return out
}

// Put stores rec under its certification and quiz, replacing any previous
// record for the same pair.
func (c Completions) Put(rec CompletionRecord) {
	quizzes, ok := c[rec.CertificationCode]
	if !ok {
		quizzes = make(map[string]CompletionRecord)
		c[rec.CertificationCode] = quizzes
	}
	quizzes[rec.QuizID] = rec
}

// Get returns the record for (certCode, quizID) if present.
func (c Completions) Get(certCode, quizID string) (CompletionRecord, bool) {
	rec, ok := c[certCode][quizID]
	return rec, ok
}

// CountCompleted returns the number of completed records for certCode.
func (c Completions) CountCompleted(certCode string) int {
	n := 0
	for _, rec := range c[certCode] {
		if rec.Completed {
			n++
		}
	}
	return n
}

// Progress summarises completion of one certification's catalog.
type Progress struct {
	Completed  int // number of completed quizzes
	Total      int // catalog size used as denominator
	Percentage int // rounded half up
}
