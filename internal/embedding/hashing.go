package embedding

import (
	"context"
	"hash/fnv"
	"strings"
	"unicode"
)

// DefaultDimensions for HashingEmbedder
const DefaultDimensions = 384

// HashingEmbedder is a deterministic bag-of-words embedder using signed feature hashing
// over unigrams and bigrams. It needs no network access, so it backs tests and
// deployments without embedding credentials.
type HashingEmbedder struct {
	dims int
}

// NewHashingEmbedder returns an embedder producing vectors of length dims
func NewHashingEmbedder(dims int) *HashingEmbedder {
	if dims <= 0 {
		dims = DefaultDimensions
	}
	return &HashingEmbedder{dims: dims}
}

// Dimensions returns the vector length
func (h *HashingEmbedder) Dimensions() int { return h.dims }

// Embed hashes every token and adjacent token pair into the vector
func (h *HashingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	vec := make([]float32, h.dims)
	tokens := tokenize(text)
	for i, tok := range tokens {
		h.add(vec, tok, 1)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok, 0.5)
		}
	}
	return vec, nil
}

func (h *HashingEmbedder) add(vec []float32, feature string, weight float32) {
	hasher := fnv.New64a()
	_, _ = hasher.Write([]byte(feature))
	sum := hasher.Sum64()

	idx := int(sum % uint64(h.dims))
	if sum>>63 == 1 {
		weight = -weight
	}
	vec[idx] += weight
}

// tokenize lowercases and splits on anything that cannot appear in a skill name
func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '+' && r != '#' && r != '.'
	})
}
