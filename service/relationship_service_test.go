package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeme/go_bm_api/entity"
)

// exchange sends n text messages from each side.
func exchange(t *testing.T, env *testEnv, relID, a, b string, n int) {
	t.Helper()
	ctx := context.Background()
	for i := 0; i < n; i++ {
		_, err := env.msgs.Send(ctx, relID, a, fmt.Sprintf("from a %d", i))
		require.NoError(t, err)
		_, err = env.msgs.Send(ctx, relID, b, fmt.Sprintf("from b %d", i))
		require.NoError(t, err)
	}
}

func TestBondAndStageProgression(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StageAnonymousChat, rel.Stage)

	// Three mutual rounds: bond 10 + 3*5 = 25 -> voice stage.
	exchange(t, env, rel.ID, a.ID, b.ID, 3)
	got, err := env.rels.GetForUser(rel.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.BondScore)
	assert.Equal(t, entity.StageVoiceExchange, got.Stage)

	// One-sided chatter adds nothing.
	_, err = env.msgs.Send(ctx, rel.ID, a.ID, "hello?")
	require.NoError(t, err)
	_, err = env.msgs.Send(ctx, rel.ID, a.ID, "you there?")
	require.NoError(t, err)
	got, err = env.rels.GetForUser(rel.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 25, got.BondScore)

	// Eight rounds total reaches the reveal stage threshold.
	exchange(t, env, rel.ID, a.ID, b.ID, 5)
	got, err = env.rels.GetForUser(rel.ID, a.ID)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, got.BondScore, entity.BondForReveal)
	assert.Equal(t, entity.StageReveal, got.Stage)
}

func TestStageNeverRegresses(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	// Force a stage above what the message history would produce.
	require.NoError(t, env.db.Model(&entity.Relationship{}).Where("id = ?", rel.ID).
		Updates(map[string]interface{}{"stage": entity.StageReveal, "bond_score": 50}).Error)

	got, err := env.rels.RecalcProgress(ctx, rel.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.StageReveal, got.Stage)
	assert.Equal(t, 50, got.BondScore)
}

func TestRequestRevealTooEarly(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.rels.RequestReveal(ctx, rel.ID, a.ID)
	assert.ErrorIs(t, err, ErrRevealTooEarly)
}

func TestRevealConsentProtocol(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	exchange(t, env, rel.ID, a.ID, b.ID, 8) // bond 50, stage 3

	// First consent waits; repeating it is idempotent.
	status, err := env.rels.RequestReveal(ctx, rel.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RevealWaiting, status)
	status, err = env.rels.RequestReveal(ctx, rel.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RevealWaiting, status)

	// Second party's consent completes the reveal.
	status, err = env.rels.RequestReveal(ctx, rel.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RevealRevealed, status)

	got, err := env.rels.GetForUser(rel.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Revealed())
	assert.GreaterOrEqual(t, got.Stage, entity.StageReveal)

	// The report exists once revealed.
	report, err := env.rels.GetReport(rel.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, rel.ID, report.RelationshipID)
	assert.GreaterOrEqual(t, report.Overall, report.Attachment)
}

func TestConsentBeforeStageThreeRevealsOnAdvance(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	exchange(t, env, rel.ID, a.ID, b.ID, 3) // stage 2

	status, err := env.rels.RequestReveal(ctx, rel.ID, a.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RevealWaiting, status)
	status, err = env.rels.RequestReveal(ctx, rel.ID, b.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.RevealWaiting, status, "both consented but stage 2 cannot reveal")

	got, err := env.rels.GetForUser(rel.ID, a.ID)
	require.NoError(t, err)
	assert.False(t, got.Revealed())

	// Reaching stage 3 flips the reveal retroactively.
	exchange(t, env, rel.ID, a.ID, b.ID, 5)
	got, err = env.rels.GetForUser(rel.ID, a.ID)
	require.NoError(t, err)
	assert.True(t, got.Revealed())
}

func TestConsentInsertToleratesDuplicateRow(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	// The second insert hits the unique index the way a racing request would;
	// it must still count as success.
	require.NoError(t, env.rels.recordConsent(rel.ID, a.ID))
	require.NoError(t, env.rels.recordConsent(rel.ID, a.ID))

	var cnt int64
	require.NoError(t, env.db.Model(&entity.RevealConsent{}).
		Where("relationship_id = ? AND user_id = ?", rel.ID, a.ID).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestStoreReportToleratesDuplicateRow(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	rel.BondScore = 60

	require.NoError(t, env.rels.storeReport(rel))
	require.NoError(t, env.rels.storeReport(rel))

	var cnt int64
	require.NoError(t, env.db.Model(&entity.CompatibilityReport{}).
		Where("relationship_id = ?", rel.ID).Count(&cnt).Error)
	assert.Equal(t, int64(1), cnt)
}

func TestViewHidesIdentityBeforeReveal(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	view, err := env.rels.View(rel, a.ID)
	require.NoError(t, err)
	assert.Empty(t, view.CounterpartUserID)
	assert.Equal(t, rel.AliasB, view.TheirAlias)
	assert.False(t, view.Revealed)

	ok, err := env.rels.CanViewProfile(a.ID, b.ID)
	require.NoError(t, err)
	assert.False(t, ok, "profile must stay locked before reveal")
}

func TestRevealUnlocksCounterpartProfile(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)
	exchange(t, env, rel.ID, a.ID, b.ID, 8)
	_, err = env.rels.RequestReveal(ctx, rel.ID, a.ID)
	require.NoError(t, err)
	_, err = env.rels.RequestReveal(ctx, rel.ID, b.ID)
	require.NoError(t, err)

	got, err := env.rels.GetForUser(rel.ID, a.ID)
	require.NoError(t, err)
	view, err := env.rels.View(got, a.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, view.CounterpartUserID)

	ok, err := env.rels.CanViewProfile(a.ID, b.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestNonParticipantIsRejected(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	c := env.addUser(t, "c@example.com", "Cat")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.rels.GetForUser(rel.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = env.rels.RequestReveal(ctx, rel.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotParticipant)
}
