package client

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/abeme/go_bm_api/entity"
)

func TestFallbackReportOffsets(t *testing.T) {
	r := FallbackReport(50)
	assert.True(t, r.Fallback)
	assert.Equal(t, 50, r.Overall)
	assert.Equal(t, 55, r.Emotional)
	assert.Equal(t, 47, r.Communication)
	assert.Equal(t, 54, r.Values)
	assert.Equal(t, 44, r.Attachment)

	// Offsets clamp at the domain edges.
	low := FallbackReport(2)
	assert.Equal(t, 0, low.Attachment)
	high := FallbackReport(99)
	assert.Equal(t, 100, high.Emotional)
}

func TestFetchReportRequiresReveal(t *testing.T) {
	store := NewRelationshipStore(nil, nil)
	store.Apply(entity.RelationshipView{ID: "r1", Stage: 2})
	_, err := store.FetchReport(context.Background(), "r1")
	assert.ErrorIs(t, err, ErrNotRevealed)
}

func TestFetchReportFallsBackWhenUnavailable(t *testing.T) {
	s := newStubBackend() // no report route: the call fails
	s.rel = entity.RelationshipView{ID: "r1", Stage: 3}
	store := NewRelationshipStore(newStubClient(t, s), nil)
	store.Apply(entity.RelationshipView{ID: "r1", Stage: 3, Revealed: true, BondScore: 60})

	view, err := store.FetchReport(context.Background(), "r1")
	require.NoError(t, err)
	assert.True(t, view.Fallback, "approximation is clearly flagged")
	assert.Equal(t, 60, view.Overall)
}
