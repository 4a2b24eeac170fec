// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package retriever

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// GapQuery is one query that surfaced too little content.
type GapQuery struct {
	Query       string
	ResultCount int
	BestScore   float64
}

// GapAnalysis summarizes coverage gaps across a set of recent queries.
type GapAnalysis struct {
	PotentialGaps        []GapQuery
	GapCount             int
	TotalQueriesAnalyzed int
	Recommendations      []string
}

// gapProbeTopK is how many results each query is probed with; a query
// returning fewer than gapResultFloor of them is flagged.
const (
	gapProbeTopK   = 3
	gapResultFloor = 2
)

// IdentifyContentGaps probes each query against the collection and flags
// the ones that return too few results, along with recommendations built
// from the terms those queries have in common.
func (r *Retriever) IdentifyContentGaps(ctx context.Context, recentQueries []string) GapAnalysis {
	var gaps []GapQuery

	for _, query := range recentQueries {
		results := r.Retrieve(ctx, query, gapProbeTopK, -1)
		if len(results) >= gapResultFloor {
			continue
		}

		gap := GapQuery{Query: query, ResultCount: len(results)}
		if len(results) > 0 {
			gap.BestScore = results[0].Score
		}
		gaps = append(gaps, gap)
	}

	return GapAnalysis{
		PotentialGaps:        gaps,
		GapCount:             len(gaps),
		TotalQueriesAnalyzed: len(recentQueries),
		Recommendations:      gapRecommendations(gaps),
	}
}

// gapRecommendations extracts the most frequent meaningful terms from the
// flagged queries, most mentioned first, ties broken alphabetically.
func gapRecommendations(gaps []GapQuery) []string {
	if len(gaps) == 0 {
		return []string{"No significant content gaps identified"}
	}

	counts := make(map[string]int)
	for _, gap := range gaps {
		for _, word := range strings.Fields(strings.ToLower(gap.Query)) {
			if len(word) > 3 {
				counts[word]++
			}
		}
	}

	terms := make([]string, 0, len(counts))
	for term := range counts {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})

	if len(terms) > 5 {
		terms = terms[:5]
	}

	recommendations := make([]string, 0, len(terms))
	for _, term := range terms {
		recommendations = append(recommendations,
			fmt.Sprintf("Consider adding training content about %q (mentioned in %d low-result queries)", term, counts[term]))
	}
	return recommendations
}
