package entities

// QuizKind separates short daily practice quizzes from full-length finals.
type QuizKind string

const (
	QuizPractice QuizKind = "practice"
	QuizFinal    QuizKind = "final"
)

const (
	PracticeQuizCount       = 30
	FinalExamCount          = 2
	QuizzesPerCertification = PracticeQuizCount + FinalExamCount

	PracticeQuizMinutes = 30
	MinFinalExamMinutes = 90
	MaxFinalExamMinutes = 180
)

// UnlockPolicy decides which catalog entries the learner may open.
type UnlockPolicy string

const (
	UnlockOpen       UnlockPolicy = "open"       // every quiz is open
	UnlockSequential UnlockPolicy = "sequential" // quiz N+1 needs quiz N completed
)

// Certification is the static metadata of one certification exam.
type Certification struct {
	Code             string `yaml:"code"`
	Name             string `yaml:"name"`
	Vendor           string `yaml:"vendor"`
	FinalExamMinutes int    `yaml:"final_exam_minutes"` // 90-180
	PracticeQuizzes  int    `yaml:"practice_quizzes"`   // defaults to PracticeQuizCount
	FinalExams       int    `yaml:"final_exams"`        // defaults to FinalExamCount
}

// TotalQuizzes returns the size of the certification's catalog.
func (c Certification) TotalQuizzes() int {
	return c.PracticeQuizzes + c.FinalExams
}

// QuizCatalogEntry is one derived row of a certification's quiz list.
// It is never persisted.
type QuizCatalogEntry struct {
	QuizID          string
	Title           string
	Kind            QuizKind
	QuestionCount   int
	DurationMinutes int
	IsCompleted     bool
	Score           *int // nil until completed
	IsFinalExam     bool
	IsLocked        bool
}
