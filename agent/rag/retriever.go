package rag

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"

	"github.com/cloudwego/eino/components/embedding"
	contractx "github.com/tanpawarit/link-companion-assistant/agent/contract"
)

const DefaultTopK = 3

// Source provides the indexed rows. IndexLoader is the production source.
type Source interface {
	Load() ([]Record, error)
}

type Retriever struct {
	embedder embedding.Embedder
	source   Source
}

var _ contractx.Retriever = (*Retriever)(nil)

func NewRetriever(embedder embedding.Embedder, source Source) (*Retriever, error) {
	if embedder == nil {
		return nil, errors.New("embedder is required")
	}
	if source == nil {
		return nil, errors.New("index source is required")
	}
	return &Retriever{embedder: embedder, source: source}, nil
}

// Search scores every chunk against the query embedding and returns the top k.
// When collections is non-empty only chunks in those collections are scored.
func (r *Retriever) Search(ctx context.Context, query string, k int, collections ...string) (contractx.RAGResult, error) {
	if k <= 0 {
		k = DefaultTopK
	}

	rows, err := r.source.Load()
	if err != nil {
		return contractx.RAGResult{}, err
	}

	vectors, err := r.embedder.EmbedStrings(ctx, []string{query})
	if err != nil {
		return contractx.RAGResult{}, fmt.Errorf("embed query: %w", err)
	}
	if len(vectors) == 0 {
		return contractx.RAGResult{}, errors.New("embed query: empty response")
	}

	return contractx.RAGResult{
		Query: query,
		TopK:  k,
		Hits:  Rank(vectors[0], filterCollections(rows, collections), k),
	}, nil
}

// Rank orders rows by descending cosine score. Ties keep index order.
func Rank(query []float64, rows []Record, k int) []contractx.Hit {
	type scored struct {
		score float64
		row   *Record
	}

	all := make([]scored, 0, len(rows))
	for i := range rows {
		all = append(all, scored{score: Cosine(query, rows[i].Embedding), row: &rows[i]})
	}
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].score > all[j].score
	})
	if k >= 0 && len(all) > k {
		all = all[:k]
	}

	hits := make([]contractx.Hit, 0, len(all))
	for _, s := range all {
		hits = append(hits, contractx.Hit{
			Score:      s.score,
			DocID:      s.row.DocID,
			Path:       s.row.Path,
			ChunkID:    s.row.ChunkID,
			StartChar:  s.row.StartChar,
			EndChar:    s.row.EndChar,
			Text:       s.row.Text,
			Collection: s.row.Collection,
		})
	}
	return hits
}

// Cosine is 0 when either vector has zero norm. Extra trailing dimensions of
// the longer vector are ignored.
func Cosine(a, b []float64) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

func filterCollections(rows []Record, collections []string) []Record {
	if len(collections) == 0 {
		return rows
	}
	allowed := make(map[string]struct{}, len(collections))
	for _, c := range collections {
		allowed[c] = struct{}{}
	}
	out := make([]Record, 0, len(rows))
	for _, row := range rows {
		if _, ok := allowed[row.Collection]; ok {
			out = append(out, row)
		}
	}
	return out
}
