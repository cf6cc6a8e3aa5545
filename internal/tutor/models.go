package tutor

// Hint is one prompt shown to a learner who misses an expectation.
type Hint struct {
	Text string `json:"text"`
}

type LessonExpectation struct {
	Expectation string `json:"expectation"`
	Hints       []Hint `json:"hints,omitempty"`
}

// Lesson is authored content. Sessions carry their own snapshot of the
// question, so editing a lesson never rewrites past sessions.
type Lesson struct {
	LessonID      string              `json:"lessonId"`
	Name          string              `json:"name"`
	Intro         string              `json:"intro,omitempty"`
	Question      string              `json:"question"`
	Expectations  []LessonExpectation `json:"expectations,omitempty"`
	Conclusion    []string            `json:"conclusion,omitempty"`
	CreatedBy     string              `json:"createdBy,omitempty"`
	LastTrainedAt int64               `json:"lastTrainedAt,omitempty"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}

// QuestionExpectation is one gradable criterion of a session's question
// snapshot. Index-aligned with every response's expectationScores.
type QuestionExpectation struct {
	Text string `json:"text"`
}

// Question is the point-in-time copy of the prompt a session was run
// against, decoupled from the live lesson content.
type Question struct {
	Text         string                `json:"text"`
	Expectations []QuestionExpectation `json:"expectations"`
}

// UserResponse is one learner answer. ExpectationScores is index-aligned
// with the question's expectations; a response graded only partially may
// carry fewer entries than the question has expectations.
type UserResponse struct {
	ResponseID        string             `json:"responseId,omitempty"`
	Text              string             `json:"text"`
	ExpectationScores []ExpectationScore `json:"expectationScores"`
}

// Session is one end-to-end tutoring interaction. GraderGrade and
// ClassifierGrade are derived caches recomputed from the ledger on every
// mutation; nil means not yet scorable. They are never accepted as input.
type Session struct {
	SessionID       string         `json:"sessionId"`
	LessonID        string         `json:"lessonId,omitempty"`
	Username        string         `json:"username"`
	Question        Question       `json:"question"`
	UserResponses   []UserResponse `json:"userResponses"`
	GraderGrade     *float64       `json:"graderGrade"`
	ClassifierGrade *float64       `json:"classifierGrade"`

	CreatedAt int64 `json:"createdAt,omitempty"`
	UpdatedAt int64 `json:"updatedAt,omitempty"`
}
