package tutor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func resp(grades ...Grade) UserResponse {
	scores := make([]ExpectationScore, len(grades))
	for i, g := range grades {
		scores[i] = ExpectationScore{GraderGrade: g}
	}
	return UserResponse{Text: "answer", ExpectationScores: scores}
}

func sessionWith(responses ...UserResponse) Session {
	return Session{SessionID: "s1", UserResponses: responses}
}

func TestCalculateScore(t *testing.T) {
	ptr := func(v float64) *float64 { return &v }

	tests := []struct {
		name string
		s    Session
		want *float64
	}{
		{
			name: "no responses",
			s:    sessionWith(),
			want: nil,
		},
		{
			name: "single good",
			s:    sessionWith(resp(GradeGood)),
			want: ptr(1),
		},
		{
			name: "single bad",
			s:    sessionWith(resp(GradeBad)),
			want: ptr(0),
		},
		{
			name: "single neutral",
			s:    sessionWith(resp(GradeNeutral)),
			want: ptr(0.5),
		},
		{
			name: "partial credit averages within one expectation",
			s:    sessionWith(resp(GradeGood), resp(GradeNeutral)),
			want: ptr(0.75),
		},
		{
			name: "equal weight per expectation",
			// expectation 0: Good,Good -> 1.0; expectation 1: Good,Neutral -> 0.75
			s:    sessionWith(resp(GradeGood, GradeGood), resp(GradeGood, GradeNeutral)),
			want: ptr(0.875),
		},
		{
			name: "bad drags one expectation",
			// expectation 0: Good,Good -> 1.0; expectation 1: Bad,Good -> 0.5
			s:    sessionWith(resp(GradeGood, GradeBad), resp(GradeGood, GradeGood)),
			want: ptr(0.75),
		},
		{
			name: "response with no grades makes session unscorable",
			s:    sessionWith(resp(GradeGood), resp(GradeNone)),
			want: nil,
		},
		{
			name: "ungraded entry excluded from its expectation mean",
			// expectation 0: Good only (second response ungraded there but
			// graded at index 1) -> 1.0; expectation 1: Neutral -> 0.5
			s:    sessionWith(resp(GradeGood, GradeNone), resp(GradeNone, GradeNeutral)),
			want: ptr(0.75),
		},
		{
			name: "structurally absent index equals empty entry",
			// second response only covers expectation 0
			s:    sessionWith(resp(GradeGood, GradeNone), resp(GradeGood)),
			want: ptr(1),
		},
		{
			name: "expectation graded nowhere contributes no term",
			s:    sessionWith(resp(GradeGood, GradeNone), resp(GradeGood, GradeNone)),
			want: ptr(1),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := CalculateScore(tt.s, FieldGraderGrade)
			if tt.want == nil {
				assert.Nil(t, got)
				return
			}
			require.NotNil(t, got)
			assert.Equal(t, *tt.want, *got)
		})
	}
}

func TestCalculateScoreIdempotent(t *testing.T) {
	s := sessionWith(resp(GradeGood, GradeBad), resp(GradeNeutral, GradeGood))
	first := CalculateScore(s, FieldGraderGrade)
	second := CalculateScore(s, FieldGraderGrade)
	require.NotNil(t, first)
	require.NotNil(t, second)
	assert.Equal(t, *first, *second)
}

func TestCalculateScoreFieldsIndependent(t *testing.T) {
	s := sessionWith(
		UserResponse{ExpectationScores: []ExpectationScore{
			{ClassifierGrade: GradeGood, GraderGrade: GradeBad},
		}},
		UserResponse{ExpectationScores: []ExpectationScore{
			{ClassifierGrade: GradeBad, GraderGrade: GradeNone},
		}},
	)
	classifier := CalculateScore(s, FieldClassifierGrade)
	require.NotNil(t, classifier)
	assert.Equal(t, 0.5, *classifier)
	// second response has no grader grade, so that source is unscorable
	assert.Nil(t, CalculateScore(s, FieldGraderGrade))
}

func TestCalculateScoreInvalidatedEntries(t *testing.T) {
	s := sessionWith(UserResponse{ExpectationScores: []ExpectationScore{
		{GraderGrade: GradeGood, Invalidated: true},
		{GraderGrade: GradeNeutral},
	}})
	got := CalculateScore(s, FieldGraderGrade)
	require.NotNil(t, got)
	assert.Equal(t, 0.5, *got)

	// invalidating the only graded entry makes the response ungraded
	s = sessionWith(UserResponse{ExpectationScores: []ExpectationScore{
		{GraderGrade: GradeGood, Invalidated: true},
	}})
	assert.Nil(t, CalculateScore(s, FieldGraderGrade))
}

func TestSetGradeClosedSet(t *testing.T) {
	var es ExpectationScore
	require.NoError(t, es.SetGrade(FieldGraderGrade, GradeGood))
	assert.Equal(t, GradeGood, es.GraderGrade)
	assert.Equal(t, GradeNone, es.ClassifierGrade)

	require.NoError(t, es.SetGrade(FieldGraderGrade, GradeNone))
	assert.Equal(t, GradeNone, es.GraderGrade)

	err := es.SetGrade(FieldGraderGrade, Grade("Excellent"))
	assert.ErrorIs(t, err, ErrInvalidGradeValue)
}
