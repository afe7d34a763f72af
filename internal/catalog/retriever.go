package catalog

import (
	"context"
	"fmt"
	"go-toolrouter/pkg/models"
	"math"
	"sort"
)

const DefaultTopK = 10

// Retriever ranks the tools of one domain by cosine similarity to the query.
type Retriever struct {
	store *Store
}

func NewRetriever(store *Store) *Retriever {
	return &Retriever{store: store}
}

// Retrieve returns at most topK candidates of domain, most relevant first. Relevance is
// 1 minus the cosine distance.
func (r *Retriever) Retrieve(ctx context.Context, query string, domain models.Domain, topK int) ([]models.ToolCandidate, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}
	entries, err := r.store.entries(ctx, domain)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return []models.ToolCandidate{}, nil
	}

	qv, err := r.store.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}

	candidates := make([]models.ToolCandidate, len(entries))
	for i, e := range entries {
		candidates[i] = models.ToolCandidate{
			ToolDefinition: e.tool,
			RelevanceScore: 1 - cosineDistance(qv, e.vector),
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		return candidates[i].RelevanceScore > candidates[j].RelevanceScore
	})
	if len(candidates) > topK {
		candidates = candidates[:topK]
	}
	return candidates, nil
}

func cosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		dot += float64(a[i]) * float64(b[i])
	}
	for _, f := range a {
		na += float64(f) * float64(f)
	}
	for _, f := range b {
		nb += float64(f) * float64(f)
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
