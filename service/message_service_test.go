package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeme/go_bm_api/entity"
)

func TestSendAndListMessages(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	resp, err := env.msgs.Send(ctx, rel.ID, a.ID, "hi there")
	require.NoError(t, err)
	assert.Equal(t, entity.MessageText, resp.Message.Kind)
	assert.Equal(t, a.ID, resp.Message.SenderID)
	assert.Equal(t, rel.ID, resp.Relationship.ID)
	assert.Equal(t, "hi there", resp.Relationship.LastMessage)

	list, err := env.msgs.List(rel.ID, b.ID)
	require.NoError(t, err)
	// Welcome system message first, then the text, oldest first.
	require.Len(t, list.Messages, 2)
	assert.Equal(t, entity.MessageSystem, list.Messages[0].Kind)
	assert.Equal(t, "hi there", list.Messages[1].Body)
}

func TestSendValidation(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	c := env.addUser(t, "c@example.com", "Cat")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	_, err = env.msgs.Send(ctx, rel.ID, a.ID, "")
	assert.ErrorIs(t, err, ErrEmptyMessage)
	_, err = env.msgs.Send(ctx, rel.ID, c.ID, "let me in")
	assert.ErrorIs(t, err, ErrNotParticipant)
	_, err = env.msgs.List("no-such-rel", a.ID)
	assert.ErrorIs(t, err, ErrRelationshipNotFound)
}

func TestCoachingTipEveryFifthMessage(t *testing.T) {
	env := newTestEnv(t)
	a := env.addUser(t, "a@example.com", "Ana")
	b := env.addUser(t, "b@example.com", "Ben")
	ctx := context.Background()
	rel, err := env.rels.Create(ctx, a.ID, b.ID)
	require.NoError(t, err)

	var tips int
	for i := 0; i < 10; i++ {
		resp, err := env.msgs.Send(ctx, rel.ID, a.ID, "msg")
		require.NoError(t, err)
		if resp.CoachingTip != "" {
			tips++
		}
	}
	assert.Equal(t, 2, tips, "a tip rides on every fifth sent message")

	// Tips are advisory only; the stored conversation has no tip entries.
	list, err := env.msgs.List(rel.ID, a.ID)
	require.NoError(t, err)
	for _, m := range list.Messages {
		if m.Kind == entity.MessageText {
			assert.Equal(t, "msg", m.Body)
		}
	}
}
