package client

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/abeme/go_bm_api/entity"
	"github.com/abeme/go_bm_api/logger"
)

var (
	ErrSendPending   = errors.New("a send is already in flight")
	ErrChannelClosed = errors.New("chat channel closed")
)

const (
	DefaultPollInterval = 3 * time.Second
	noticeDisplayFor    = 6 * time.Second
)

// Message render lanes.
type Lane int

const (
	// LaneSystem renders centered and unattributed (system and AI messages).
	LaneSystem Lane = iota
	// LaneSelf renders right-aligned.
	LaneSelf
	// LaneCounterpart renders left-aligned under the alias pre-reveal and
	// the real name post-reveal.
	LaneCounterpart
)

// ChatChannel synchronizes the conversation of exactly one relationship by
// polling on a fixed interval while open. The latest successful poll is the
// authoritative message list; a locally echoed send is only provisional
// until the next poll confirms it. Closing the channel stops the poll timer
// deterministically and bars late responses from mutating any visible state.
type ChatChannel struct {
	api      *Client
	store    *RelationshipStore
	log      *logger.Logger
	relID    string
	interval time.Duration
	now      func() time.Time

	mu         sync.Mutex
	messages   []entity.Message
	draft      string
	sending    bool
	closed     bool
	generation int
	lastStage  int
	notices    []Notice

	cancel context.CancelFunc
	done   chan struct{}
}

// OpenChannel starts the poll loop for one relationship view. Each open view
// owns at most one channel; call Close when the view goes away.
func OpenChannel(api *Client, store *RelationshipStore, log *logger.Logger, relID string, interval time.Duration) *ChatChannel {
	if interval <= 0 {
		interval = DefaultPollInterval
	}
	if log == nil {
		log = logger.NewNop()
	}
	ctx, cancel := context.WithCancel(context.Background())
	ch := &ChatChannel{
		api:      api,
		store:    store,
		log:      log,
		relID:    relID,
		interval: interval,
		now:      time.Now,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
	go ch.pollLoop(ctx)
	return ch
}

func (ch *ChatChannel) pollLoop(ctx context.Context) {
	defer close(ch.done)
	ch.pollOnce(ctx)
	ticker := time.NewTicker(ch.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			// One fetch per tick; the next tick's response supersedes this
			// one, so the latest response always wins.
			ch.pollOnce(ctx)
		}
	}
}

// pollOnce fetches the message list with its embedded relationship snapshot
// and applies both, unless the channel was closed while the fetch was in
// flight.
func (ch *ChatChannel) pollOnce(ctx context.Context) {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	gen := ch.generation
	ch.mu.Unlock()

	resp, err := ch.api.Messages(ctx, ch.relID)
	if err != nil {
		// Background poll failure: state stays as-is, the next tick retries.
		ch.log.Warn("message poll failed", "relationship", ch.relID, "err", err)
		return
	}

	ch.mu.Lock()
	if ch.closed || ch.generation != gen {
		ch.mu.Unlock()
		return
	}
	ch.mu.Unlock()

	merged := ch.store.Apply(resp.Relationship)

	// Close may have raced in while the snapshot was being merged; re-check
	// before touching channel state.
	ch.mu.Lock()
	if ch.closed || ch.generation != gen {
		ch.mu.Unlock()
		return
	}
	ch.messages = resp.Messages
	ch.noteStageLocked(merged)
	ch.mu.Unlock()

	if merged.Revealed {
		if err := ch.store.ResolveCounterpart(ctx, ch.relID); err != nil {
			ch.log.Warn("counterpart resolve failed", "relationship", ch.relID, "err", err)
		}
	}
}

// noteStageLocked diffs the merged snapshot against the previously known
// stage and pushes a one-shot unlock notice on increase. Caller holds ch.mu.
func (ch *ChatChannel) noteStageLocked(v entity.RelationshipView) {
	if ch.lastStage != 0 && v.Stage > ch.lastStage {
		ch.pushNoticeLocked(NoticeUnlock, unlockText(v.Stage))
	}
	ch.lastStage = v.Stage
}

func unlockText(stage int) string {
	switch stage {
	case entity.StageVoiceExchange:
		return "Stage 2 unlocked: you can exchange voice notes now."
	case entity.StageReveal:
		return "Stage 3 unlocked: reveal is on the table."
	case entity.StageBondedDate:
		return "Stage 4 unlocked: you're ready to meet in person."
	}
	return "A new stage unlocked."
}

func (ch *ChatChannel) pushNoticeLocked(kind, text string) {
	ch.notices = append(ch.notices, Notice{
		Kind:      kind,
		Text:      text,
		ExpiresAt: ch.now().Add(noticeDisplayFor),
	})
}

// SetDraft stores the composer text.
func (ch *ChatChannel) SetDraft(text string) {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	ch.draft = text
}

// Draft returns the composer text.
func (ch *ChatChannel) Draft() string {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.draft
}

// Sending reports whether a send is in flight; the send control is disabled
// while true.
func (ch *ChatChannel) Sending() bool {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return ch.sending
}

// Send posts a message. Only one send may be in flight; the draft is cleared
// optimistically and restored if the send fails, alongside a retryable error
// notice. The sent message is echoed locally but the server's list from the
// next poll remains authoritative.
func (ch *ChatChannel) Send(ctx context.Context, content string) error {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return ErrChannelClosed
	}
	if ch.sending {
		ch.mu.Unlock()
		return ErrSendPending
	}
	ch.sending = true
	ch.draft = ""
	gen := ch.generation
	ch.mu.Unlock()

	resp, err := ch.api.SendMessage(ctx, ch.relID, content)

	ch.mu.Lock()
	ch.sending = false
	if ch.closed || ch.generation != gen {
		ch.mu.Unlock()
		return ErrChannelClosed
	}
	if err != nil {
		ch.draft = content
		ch.pushNoticeLocked(NoticeError, "Message didn't send. Tap to retry.")
		ch.mu.Unlock()
		return err
	}
	ch.messages = append(ch.messages, resp.Message)
	ch.mu.Unlock()

	merged := ch.store.Apply(resp.Relationship)

	ch.mu.Lock()
	if !ch.closed && ch.generation == gen {
		ch.noteStageLocked(merged)
		if resp.CoachingTip != "" {
			ch.pushNoticeLocked(NoticeCoaching, resp.CoachingTip)
		}
	}
	ch.mu.Unlock()
	return nil
}

// Messages returns a copy of the current message list, oldest first.
func (ch *ChatChannel) Messages() []entity.Message {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	return append([]entity.Message(nil), ch.messages...)
}

// ActiveNotices returns notices still within their display duration and
// prunes expired ones.
func (ch *ChatChannel) ActiveNotices() []Notice {
	ch.mu.Lock()
	defer ch.mu.Unlock()
	now := ch.now()
	active := ch.notices[:0]
	for _, n := range ch.notices {
		if !n.Expired(now) {
			active = append(active, n)
		}
	}
	ch.notices = active
	return append([]Notice(nil), active...)
}

// LaneFor assigns a message to its render lane.
func (ch *ChatChannel) LaneFor(m entity.Message) Lane {
	if m.Kind == entity.MessageSystem || m.Kind == entity.MessageAI {
		return LaneSystem
	}
	if m.SenderID == ch.api.UserID {
		return LaneSelf
	}
	return LaneCounterpart
}

// SenderLabel returns the name rendered above a message: nothing for the
// system lane, the alias or revealed name for the counterpart.
func (ch *ChatChannel) SenderLabel(m entity.Message) string {
	switch ch.LaneFor(m) {
	case LaneSystem:
		return ""
	case LaneSelf:
		return "You"
	default:
		return ch.store.CounterpartName(ch.relID)
	}
}

// Close stops the poll loop and discards any in-flight responses. Idempotent.
func (ch *ChatChannel) Close() {
	ch.mu.Lock()
	if ch.closed {
		ch.mu.Unlock()
		return
	}
	ch.closed = true
	ch.generation++
	ch.mu.Unlock()
	ch.cancel()
	<-ch.done
}
