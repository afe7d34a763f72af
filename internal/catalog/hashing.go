package catalog

import (
	"context"
	"github.com/tmc/langchaingo/embeddings"
	"hash/fnv"
	"math"
	"strings"
	"unicode"
)

const DefaultHashingDims = 512

// HashingEmbedder maps text to a bag-of-words vector with the hashing trick. It needs no
// network access and is deterministic.
type HashingEmbedder struct {
	Dims int
}

var _ embeddings.Embedder = HashingEmbedder{}

func (h HashingEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, err := h.EmbedQuery(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}

func (h HashingEmbedder) EmbedQuery(_ context.Context, text string) ([]float32, error) {
	dims := h.Dims
	if dims <= 0 {
		dims = DefaultHashingDims
	}
	v := make([]float32, dims)
	for _, tok := range tokenize(text) {
		f := fnv.New32a()
		f.Write([]byte(tok))
		v[f.Sum32()%uint32(dims)]++
	}
	normalize(v)
	return v, nil
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

func normalize(v []float32) {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	if sum == 0 {
		return
	}
	n := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= n
	}
}
