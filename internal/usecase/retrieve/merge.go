package retrieve

import (
	"sort"

	"github.com/sashaklochko/statista-context/internal/domain"
	"github.com/sashaklochko/statista-context/internal/domain/search/result"
)

// weightedHits is one sub-search's raw output plus its contribution weight.
type weightedHits struct {
	hits   []result.Hit
	weight float64
	source result.Source
}

// merge normalizes each source's scores to [0,1], combines them by weight,
// deduplicates by document id, sorts by combined score descending, and
// truncates to limit.
//
// Ties are broken by first appearance in the highest-weighted source list,
// then by id ascending. Sources are expected in weight order, heaviest first.
func merge(sources []weightedHits, limit int) []result.Result {
	type entry struct {
		doc     domain.Document
		score   float64
		sources []result.Source
		rank    int // appearance position in the heaviest source listing the doc
	}

	const unranked = int(^uint(0) >> 1)

	byID := make(map[string]*entry)
	var order []string

	for srcIdx, src := range sources {
		norm := normalize(src.hits)
		for i, h := range src.hits {
			doc := h.Document()
			e, ok := byID[doc.ID]
			if !ok {
				e = &entry{doc: doc, rank: unranked}
				byID[doc.ID] = e
				order = append(order, doc.ID)
			}
			e.score += src.weight * norm[i]
			e.sources = append(e.sources, src.source)
			// Only the heaviest source assigns a tie-break rank; documents
			// absent from it sort after ranked ones, then by id.
			if srcIdx == 0 {
				e.rank = i
			}
		}
	}

	if len(order) == 0 {
		return nil
	}

	merged := make([]*entry, 0, len(order))
	for _, id := range order {
		merged = append(merged, byID[id])
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].score != merged[j].score {
			return merged[i].score > merged[j].score
		}
		if merged[i].rank != merged[j].rank {
			return merged[i].rank < merged[j].rank
		}
		return merged[i].doc.ID < merged[j].doc.ID
	})

	if limit > 0 && len(merged) > limit {
		merged = merged[:limit]
	}

	results := make([]result.Result, 0, len(merged))
	for _, e := range merged {
		results = append(results, result.New(e.doc, e.score, e.sources))
	}
	return results
}

// normalize min-max scales raw scores to [0,1] per source.
// A single hit, or a source where every score is equal, normalizes to 1.0:
// within that source the document is as relevant as it gets.
func normalize(hits []result.Hit) []float64 {
	if len(hits) == 0 {
		return nil
	}

	lo, hi := hits[0].Score(), hits[0].Score()
	for i := 1; i < len(hits); i++ {
		s := hits[i].Score()
		if s < lo {
			lo = s
		}
		if s > hi {
			hi = s
		}
	}

	norm := make([]float64, len(hits))
	if hi == lo {
		for i := range norm {
			norm[i] = 1.0
		}
		return norm
	}

	span := hi - lo
	for i, h := range hits {
		norm[i] = (h.Score() - lo) / span
	}
	return norm
}
