package client

import (
	"context"
	"errors"
	"math"
	"sync"

	"github.com/abeme/go_bm_api/entity"
)

var (
	ErrQueueExhausted  = errors.New("no more candidates in this session")
	ErrSubmitPending   = errors.New("a rating submission is already in flight")
	ErrQueueClosed     = errors.New("rating queue closed")
	ErrValueOutOfRange = errors.New("rating must be between 1 and 10")
)

// Drag-to-rate gesture constants: drags shorter than dragMinDistance are a
// no-op; dragFullScale pixels map onto the full half of the rating range.
const (
	dragMinDistance = 30.0
	dragFullScale   = 240.0
)

// RatingFromDrag maps a horizontal drag distance (pixels, rightward
// positive) onto the 1-10 rating domain. Returns ok=false below the minimum
// distance, in which case the card returns to rest.
func RatingFromDrag(dx float64) (int, bool) {
	if math.Abs(dx) < dragMinDistance {
		return 0, false
	}
	ratio := math.Min(math.Abs(dx)/dragFullScale, 1)
	steps := int(math.Ceil(ratio * 5))
	if dx > 0 {
		v := 5 + steps
		if v > 10 {
			v = 10
		}
		return v, true
	}
	v := 6 - steps
	if v < 1 {
		v = 1
	}
	return v, true
}

// RatingQueue serves one candidate at a time from a fetched list and records
// the user's rating. The cursor advances past a candidate exactly once,
// whether rated or skipped; exhaustion is a terminal state, not a failure.
type RatingQueue struct {
	api *Client

	mu       sync.Mutex
	cards    []entity.CandidateCard
	cursor   int
	loaded   bool
	inFlight bool
	closed   bool
	session  int
}

func NewRatingQueue(api *Client) *RatingQueue {
	return &RatingQueue{api: api}
}

// LoadCandidates fetches the candidate list once per queue session; further
// calls in the same session are no-ops so the cursor keeps its place. An
// empty list is a valid terminal state.
func (q *RatingQueue) LoadCandidates(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	if q.loaded {
		q.mu.Unlock()
		return nil
	}
	session := q.session
	q.mu.Unlock()

	cards, err := q.api.Candidates(ctx)
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed || q.session != session {
		// Result arrived after the queue was closed or restarted.
		return ErrQueueClosed
	}
	if err != nil {
		return err
	}
	q.cards = cards
	q.cursor = 0
	q.loaded = true
	return nil
}

// Current returns the candidate under the cursor; ok=false once exhausted.
func (q *RatingQueue) Current() (entity.CandidateCard, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.loaded || q.cursor >= len(q.cards) {
		return entity.CandidateCard{}, false
	}
	return q.cards[q.cursor], true
}

// Done reports whether the queue session is exhausted.
func (q *RatingQueue) Done() bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.loaded && q.cursor >= len(q.cards)
}

// SubmitRating rates the current candidate and advances the cursor on
// success. Submission is rejected while a prior submit is in flight, and a
// failed submit leaves the cursor in place so the user can retry. Reports
// whether the rating produced a match.
func (q *RatingQueue) SubmitRating(ctx context.Context, value int) (bool, string, error) {
	if value < 1 || value > 10 {
		return false, "", ErrValueOutOfRange
	}
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return false, "", ErrQueueClosed
	}
	if q.inFlight {
		q.mu.Unlock()
		return false, "", ErrSubmitPending
	}
	if !q.loaded || q.cursor >= len(q.cards) {
		q.mu.Unlock()
		return false, "", ErrQueueExhausted
	}
	candidate := q.cards[q.cursor]
	session := q.session
	q.inFlight = true
	q.mu.Unlock()

	matched, relID, err := q.api.SubmitRating(ctx, candidate.ID, value)

	q.mu.Lock()
	defer q.mu.Unlock()
	q.inFlight = false
	if q.closed || q.session != session {
		// Stale response; the session it belonged to is gone.
		return false, "", ErrQueueClosed
	}
	if err != nil {
		return false, "", err
	}
	q.cursor++
	return matched, relID, nil
}

// Skip advances past the current candidate without emitting a rating.
func (q *RatingQueue) Skip() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.loaded && q.cursor < len(q.cards) && !q.inFlight {
		q.cursor++
	}
}

// Close ends the queue session; any response still in flight is discarded.
func (q *RatingQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.session++
}
