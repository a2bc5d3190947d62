package client

import (
	"context"
	"errors"
	"time"

	"github.com/abeme/go_bm_api/entity"
)

// Question types.
const (
	QuestionSingle   = "single"
	QuestionMultiple = "multiple"
	QuestionScale    = "scale"
	QuestionRank     = "rank"
)

const LovePrintVersion = 1

type Question struct {
	ID      string
	Prompt  string
	Type    string
	Options []string
	// Scale bounds; only meaningful for QuestionScale.
	Min, Max int
}

// DefaultQuestions is the fixed, ordered love-print questionnaire.
var DefaultQuestions = []Question{
	{ID: "attachment_style", Prompt: "When someone I care about pulls away, I usually...", Type: QuestionSingle,
		Options: []string{"give them space", "reach out more", "talk it through", "wait and see"}},
	{ID: "communication_style", Prompt: "My communication style is best described as...", Type: QuestionSingle,
		Options: []string{"direct", "playful", "thoughtful", "reserved"}},
	{ID: "love_languages", Prompt: "Rank how you most feel loved.", Type: QuestionRank,
		Options: []string{"words", "quality time", "touch", "acts of service", "gifts"}},
	{ID: "core_values", Prompt: "Which of these matter most to you?", Type: QuestionMultiple,
		Options: []string{"honesty", "ambition", "kindness", "adventure", "stability", "humor"}},
	{ID: "conflict_style", Prompt: "In a disagreement I tend to...", Type: QuestionSingle,
		Options: []string{"address it immediately", "cool off first", "look for compromise", "avoid it"}},
	{ID: "affection_level", Prompt: "How affectionate are you day to day?", Type: QuestionScale, Min: 1, Max: 10},
	{ID: "independence_level", Prompt: "How much alone time do you need?", Type: QuestionScale, Min: 1, Max: 10},
	{ID: "life_priorities", Prompt: "Rank what you're building your life around.", Type: QuestionRank,
		Options: []string{"career", "family", "friends", "growth", "fun"}},
	{ID: "dealbreakers", Prompt: "Which of these are dealbreakers?", Type: QuestionMultiple,
		Options: []string{"smoking", "no ambition", "poor communication", "dishonesty", "different life goals"}},
	{ID: "social_energy", Prompt: "Big party or quiet night in?", Type: QuestionScale, Min: 1, Max: 10},
	{ID: "future_pace", Prompt: "When it comes to commitment I prefer to...", Type: QuestionSingle,
		Options: []string{"take it slow", "follow the feeling", "define things early"}},
	{ID: "humor_style", Prompt: "My sense of humor is...", Type: QuestionSingle,
		Options: []string{"dry", "silly", "dark", "wholesome"}},
	{ID: "weekend_style", Prompt: "A good weekend includes...", Type: QuestionMultiple,
		Options: []string{"outdoors", "cooking", "live music", "sports", "reading", "travel"}},
	{ID: "openness", Prompt: "How readily do you open up to someone new?", Type: QuestionScale, Min: 1, Max: 10},
}

var (
	ErrQuizFinished    = errors.New("quiz already finished")
	ErrQuizIncomplete  = errors.New("current question is incomplete")
	ErrWrongAnswerKind = errors.New("answer does not match question type")
	ErrFirstQuestion   = errors.New("already at the first question")
)

// LovePrintProfile is the finalized quiz output.
type LovePrintProfile struct {
	Answers        map[string]interface{}
	DerivedProfile map[string]interface{}
	CompletedAt    time.Time
}

// workingAnswer is the active editing state for the current question.
type workingAnswer struct {
	single   string
	multiple []string
	scale    int
	scaleSet bool
	rank     []string
}

// QuizEngine walks the fixed question list, collecting one answer per
// question. Next only advances when the current question's completeness
// predicate holds; Back restores the previous answer for editing; Skip
// aborts without producing a profile.
type QuizEngine struct {
	questions []Question
	idx       int
	answers   map[string]interface{}
	working   workingAnswer
	finished  bool
	skipped   bool
}

func NewQuizEngine() *QuizEngine {
	return NewQuizEngineWith(DefaultQuestions)
}

func NewQuizEngineWith(questions []Question) *QuizEngine {
	return &QuizEngine{questions: questions, answers: make(map[string]interface{})}
}

func (q *QuizEngine) Current() Question { return q.questions[q.idx] }
func (q *QuizEngine) Index() int        { return q.idx }
func (q *QuizEngine) Finished() bool    { return q.finished }
func (q *QuizEngine) Skipped() bool     { return q.skipped }

// AnswerSingle selects the value for a single-choice question.
func (q *QuizEngine) AnswerSingle(value string) error {
	if q.finished || q.skipped {
		return ErrQuizFinished
	}
	if q.Current().Type != QuestionSingle {
		return ErrWrongAnswerKind
	}
	q.working.single = value
	return nil
}

// ToggleOption flips set membership for a multiple-choice question: absent
// options are added, present ones removed.
func (q *QuizEngine) ToggleOption(option string) error {
	if q.finished || q.skipped {
		return ErrQuizFinished
	}
	if q.Current().Type != QuestionMultiple {
		return ErrWrongAnswerKind
	}
	for i, v := range q.working.multiple {
		if v == option {
			q.working.multiple = append(q.working.multiple[:i], q.working.multiple[i+1:]...)
			return nil
		}
	}
	q.working.multiple = append(q.working.multiple, option)
	return nil
}

// SetScale sets the value of a scale question, clamped to its bounds.
func (q *QuizEngine) SetScale(value int) error {
	if q.finished || q.skipped {
		return ErrQuizFinished
	}
	cur := q.Current()
	if cur.Type != QuestionScale {
		return ErrWrongAnswerKind
	}
	if value < cur.Min {
		value = cur.Min
	}
	if value > cur.Max {
		value = cur.Max
	}
	q.working.scale = value
	q.working.scaleSet = true
	return nil
}

// PickOption appends an option to the working ranking; picking an already
// ranked option moves it to the end.
func (q *QuizEngine) PickOption(option string) error {
	if q.finished || q.skipped {
		return ErrQuizFinished
	}
	if q.Current().Type != QuestionRank {
		return ErrWrongAnswerKind
	}
	for i, v := range q.working.rank {
		if v == option {
			q.working.rank = append(q.working.rank[:i], q.working.rank[i+1:]...)
			break
		}
	}
	q.working.rank = append(q.working.rank, option)
	return nil
}

// complete is the per-type completeness predicate: single needs a choice,
// multiple at least one selection, scale is always valid (defaults to the
// midpoint), rank needs at least one positioned option.
func (q *QuizEngine) complete() bool {
	switch q.Current().Type {
	case QuestionSingle:
		return q.working.single != ""
	case QuestionMultiple:
		return len(q.working.multiple) > 0
	case QuestionScale:
		return true
	case QuestionRank:
		return len(q.working.rank) > 0
	}
	return false
}

// commit stores the working answer under the current question id. Partially
// ranked questions get their unranked options appended in display order, so
// a committed ranking is always a full permutation of the option set.
func (q *QuizEngine) commit() {
	cur := q.Current()
	switch cur.Type {
	case QuestionSingle:
		q.answers[cur.ID] = q.working.single
	case QuestionMultiple:
		q.answers[cur.ID] = append([]string(nil), q.working.multiple...)
	case QuestionScale:
		v := q.working.scale
		if !q.working.scaleSet {
			v = (cur.Min + cur.Max) / 2
		}
		q.answers[cur.ID] = v
	case QuestionRank:
		ranked := append([]string(nil), q.working.rank...)
		seen := make(map[string]bool, len(ranked))
		for _, v := range ranked {
			seen[v] = true
		}
		for _, opt := range cur.Options {
			if !seen[opt] {
				ranked = append(ranked, opt)
			}
		}
		q.answers[cur.ID] = ranked
	}
}

// restore loads a previously committed answer back into the working state.
func (q *QuizEngine) restore() {
	q.working = workingAnswer{}
	cur := q.Current()
	stored, ok := q.answers[cur.ID]
	if !ok {
		return
	}
	switch cur.Type {
	case QuestionSingle:
		q.working.single, _ = stored.(string)
	case QuestionMultiple:
		if vs, ok := stored.([]string); ok {
			q.working.multiple = append([]string(nil), vs...)
		}
	case QuestionScale:
		if v, ok := stored.(int); ok {
			q.working.scale = v
			q.working.scaleSet = true
		}
	case QuestionRank:
		if vs, ok := stored.([]string); ok {
			q.working.rank = append([]string(nil), vs...)
		}
	}
}

// Next commits the current answer and advances. On the last question it
// finalizes and returns the profile; otherwise the returned profile is nil.
func (q *QuizEngine) Next() (*LovePrintProfile, error) {
	if q.finished || q.skipped {
		return nil, ErrQuizFinished
	}
	if !q.complete() {
		return nil, ErrQuizIncomplete
	}
	q.commit()
	if q.idx == len(q.questions)-1 {
		q.finished = true
		return q.finalize(), nil
	}
	q.idx++
	q.restore()
	return nil, nil
}

// Back returns to the previous question with its stored answer loaded for
// editing. The current working state is committed first if valid so it is
// not lost.
func (q *QuizEngine) Back() error {
	if q.finished || q.skipped {
		return ErrQuizFinished
	}
	if q.idx == 0 {
		return ErrFirstQuestion
	}
	if q.complete() {
		q.commit()
	}
	q.idx--
	q.restore()
	return nil
}

// Skip aborts the quiz without producing a profile. Matching proceeds
// without a love print; this is a degraded state, not an error.
func (q *QuizEngine) Skip() {
	if !q.finished {
		q.skipped = true
	}
}

func (q *QuizEngine) finalize() *LovePrintProfile {
	answers := make(map[string]interface{}, len(q.answers))
	for k, v := range q.answers {
		answers[k] = v
	}
	return &LovePrintProfile{
		Answers:        answers,
		DerivedProfile: Analyze(answers),
		CompletedAt:    time.Now(),
	}
}

// Submit posts a finalized profile to the backend.
func (q *QuizEngine) Submit(ctx context.Context, api *Client, profile *LovePrintProfile) error {
	return api.SubmitLovePrint(ctx, entity.SubmitLovePrintRequest{
		Version:        LovePrintVersion,
		Answers:        profile.Answers,
		DerivedProfile: profile.DerivedProfile,
	})
}

func answerString(answers map[string]interface{}, id, def string) string {
	if v, ok := answers[id].(string); ok && v != "" {
		return v
	}
	return def
}

func answerInt(answers map[string]interface{}, id string, def int) int {
	if v, ok := answers[id].(int); ok {
		return v
	}
	return def
}

func answerList(answers map[string]interface{}, id string) []string {
	if v, ok := answers[id].([]string); ok {
		return append([]string(nil), v...)
	}
	return nil
}

// Analyze flattens raw answers into the preference profile consumed by
// matching. Pure field copy with defaults for anything unanswered; no
// weighting happens on this side.
func Analyze(answers map[string]interface{}) map[string]interface{} {
	profile := map[string]interface{}{
		"attachment_style":    answerString(answers, "attachment_style", "give them space"),
		"communication_style": answerString(answers, "communication_style", "thoughtful"),
		"conflict_style":      answerString(answers, "conflict_style", "look for compromise"),
		"future_pace":         answerString(answers, "future_pace", "take it slow"),
		"humor_style":         answerString(answers, "humor_style", "wholesome"),
		"affection_level":     answerInt(answers, "affection_level", 5),
		"independence_level":  answerInt(answers, "independence_level", 5),
		"social_energy":       answerInt(answers, "social_energy", 5),
		"openness":            answerInt(answers, "openness", 5),
		"core_values":         answerList(answers, "core_values"),
		"dealbreakers":        answerList(answers, "dealbreakers"),
		"weekend_style":       answerList(answers, "weekend_style"),
		"life_priorities":     answerList(answers, "life_priorities"),
		"love_languages":      answerList(answers, "love_languages"),
	}
	if langs := answerList(answers, "love_languages"); len(langs) > 0 {
		profile["top_love_language"] = langs[0]
	} else {
		profile["top_love_language"] = "quality time"
	}
	return profile
}
