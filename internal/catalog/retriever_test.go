package catalog

import (
	"context"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go-toolrouter/pkg/models"
	"testing"
)

func TestRetriever(t *testing.T) {
	ctx := context.Background()
	s := openStore(t)
	_, err := s.IndexTools(ctx, sampleTools)
	require.NoError(t, err)
	r := NewRetriever(s)

	got, err := r.Retrieve(ctx, "create a new invoice for a customer", models.Invoicing, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "create_invoice", got[0].ID)
	assert.GreaterOrEqual(t, got[0].RelevanceScore, got[1].RelevanceScore)
	assert.LessOrEqual(t, got[0].RelevanceScore, 1.0+1e-6)
	for _, c := range got {
		assert.Equal(t, models.Invoicing, c.Domain)
	}

	got, err = r.Retrieve(ctx, "invoice", models.Invoicing, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)

	got, err = r.Retrieve(ctx, "refund", models.Disputes, 0)
	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestHashingEmbedder(t *testing.T) {
	e := HashingEmbedder{Dims: 64}
	a, err := e.EmbedQuery(context.Background(), "Refund payment")
	require.NoError(t, err)
	b, err := e.EmbedQuery(context.Background(), "refund, PAYMENT!")
	require.NoError(t, err)
	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 0, cosineDistance(a, b), 1e-6)

	empty, err := e.EmbedQuery(context.Background(), "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, cosineDistance(a, empty))
}
