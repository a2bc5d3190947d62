package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// answerCurrent fills the current question with a sensible value.
func answerCurrent(t *testing.T, q *QuizEngine) {
	t.Helper()
	cur := q.Current()
	switch cur.Type {
	case QuestionSingle:
		require.NoError(t, q.AnswerSingle(cur.Options[0]))
	case QuestionMultiple:
		require.NoError(t, q.ToggleOption(cur.Options[0]))
		require.NoError(t, q.ToggleOption(cur.Options[1]))
	case QuestionScale:
		require.NoError(t, q.SetScale(7))
	case QuestionRank:
		for _, opt := range cur.Options {
			require.NoError(t, q.PickOption(opt))
		}
	}
}

func TestQuizFullRunProducesCompleteProfile(t *testing.T) {
	q := NewQuizEngine()
	var profile *LovePrintProfile
	for {
		answerCurrent(t, q)
		p, err := q.Next()
		require.NoError(t, err)
		if p != nil {
			profile = p
			break
		}
	}
	require.NotNil(t, profile)
	assert.True(t, q.Finished())
	assert.Len(t, profile.Answers, len(DefaultQuestions))
	for _, question := range DefaultQuestions {
		assert.Contains(t, profile.Answers, question.ID)
	}
	assert.False(t, profile.CompletedAt.IsZero())
	assert.Equal(t, "words", profile.DerivedProfile["top_love_language"])
}

func TestQuizNextRequiresCompleteness(t *testing.T) {
	q := NewQuizEngine()
	_, err := q.Next()
	assert.ErrorIs(t, err, ErrQuizIncomplete)

	require.NoError(t, q.AnswerSingle(q.Current().Options[1]))
	_, err = q.Next()
	assert.NoError(t, err)
}

func TestQuizScaleDefaultsToMidpoint(t *testing.T) {
	q := NewQuizEngineWith([]Question{
		{ID: "warmth", Type: QuestionScale, Min: 1, Max: 10},
	})
	profile, err := q.Next()
	require.NoError(t, err)
	require.NotNil(t, profile)
	assert.Equal(t, 5, profile.Answers["warmth"])
}

func TestQuizRankIsAlwaysAPermutation(t *testing.T) {
	opts := []string{"words", "quality time", "touch", "acts of service", "gifts"}
	q := NewQuizEngineWith([]Question{
		{ID: "love_languages", Type: QuestionRank, Options: opts},
	})
	// Rank only two options, then advance early: the rest must be appended
	// in their original display order.
	require.NoError(t, q.PickOption("touch"))
	require.NoError(t, q.PickOption("words"))
	profile, err := q.Next()
	require.NoError(t, err)
	require.NotNil(t, profile)

	ranked, ok := profile.Answers["love_languages"].([]string)
	require.True(t, ok)
	assert.Equal(t, []string{"touch", "words", "quality time", "acts of service", "gifts"}, ranked)

	seen := make(map[string]bool)
	for _, v := range ranked {
		assert.False(t, seen[v], "no duplicates in a ranking")
		seen[v] = true
	}
	assert.Len(t, ranked, len(opts))
}

func TestQuizPickMovesRankedOptionToEnd(t *testing.T) {
	q := NewQuizEngineWith([]Question{
		{ID: "r", Type: QuestionRank, Options: []string{"a", "b", "c"}},
	})
	require.NoError(t, q.PickOption("a"))
	require.NoError(t, q.PickOption("b"))
	require.NoError(t, q.PickOption("a"))
	profile, err := q.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, profile.Answers["r"])
}

func TestQuizToggleSemantics(t *testing.T) {
	q := NewQuizEngineWith([]Question{
		{ID: "m", Type: QuestionMultiple, Options: []string{"x", "y"}},
	})
	require.NoError(t, q.ToggleOption("x"))
	require.NoError(t, q.ToggleOption("y"))
	require.NoError(t, q.ToggleOption("x")) // removed again
	profile, err := q.Next()
	require.NoError(t, err)
	assert.Equal(t, []string{"y"}, profile.Answers["m"])
}

func TestQuizBackRestoresAnswer(t *testing.T) {
	q := NewQuizEngineWith([]Question{
		{ID: "s1", Type: QuestionSingle, Options: []string{"a", "b"}},
		{ID: "s2", Type: QuestionSingle, Options: []string{"c", "d"}},
	})
	require.NoError(t, q.AnswerSingle("b"))
	_, err := q.Next()
	require.NoError(t, err)
	require.NoError(t, q.Back())
	assert.Equal(t, "s1", q.Current().ID)

	// The stored answer is back in the editing state, so Next is allowed
	// without re-answering.
	_, err = q.Next()
	require.NoError(t, err)
	assert.Equal(t, "s2", q.Current().ID)
}

func TestQuizBackAtFirstQuestion(t *testing.T) {
	q := NewQuizEngine()
	assert.ErrorIs(t, q.Back(), ErrFirstQuestion)
}

func TestQuizSkipAborts(t *testing.T) {
	q := NewQuizEngine()
	require.NoError(t, q.AnswerSingle(q.Current().Options[0]))
	q.Skip()
	assert.True(t, q.Skipped())
	_, err := q.Next()
	assert.ErrorIs(t, err, ErrQuizFinished)
	assert.ErrorIs(t, q.AnswerSingle("x"), ErrQuizFinished)
}

func TestQuizWrongAnswerKind(t *testing.T) {
	q := NewQuizEngine() // first question is single-choice
	assert.ErrorIs(t, q.ToggleOption("x"), ErrWrongAnswerKind)
	assert.ErrorIs(t, q.SetScale(3), ErrWrongAnswerKind)
	assert.ErrorIs(t, q.PickOption("x"), ErrWrongAnswerKind)
}

func TestAnalyzeDefaults(t *testing.T) {
	profile := Analyze(map[string]interface{}{})
	assert.Equal(t, "quality time", profile["top_love_language"])
	assert.Equal(t, 5, profile["affection_level"])
	assert.Equal(t, "take it slow", profile["future_pace"])
}
