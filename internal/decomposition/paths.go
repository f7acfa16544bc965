package decomposition

import (
	"context"
	"fmt"

	"github.com/bits-and-blooms/bitset"

	"github.com/Iron-Ham/archmetrics/internal/errors"
)

// PathSearch computes longest simple paths in the partition adjacency graph
// of one document.
//
// The search is exponential in the worst case. Each search root gets its own
// memo keyed by (partition, exact visited set); the memo is dropped when the
// root's search ends. A budget bounds the total number of expansions across
// all roots of the document, and the context is checked on every expansion.
type PathSearch struct {
	ctx        context.Context
	pg         *PartitionGraph
	budget     int
	expansions int
	results    map[int]int // root -> finished longest path length
}

// NewPathSearch creates a search over pg. A budget of 0 means unlimited.
func NewPathSearch(ctx context.Context, pg *PartitionGraph, budget int) *PathSearch {
	if ctx == nil {
		ctx = context.Background()
	}
	return &PathSearch{
		ctx:     ctx,
		pg:      pg,
		budget:  budget,
		results: make(map[int]int),
	}
}

// Expansions returns the number of DFS expansions performed so far.
func (s *PathSearch) Expansions() int {
	return s.expansions
}

// Longest returns the number of hops of the longest simple directed path
// starting at partition root. It fails with ErrSearchBudgetExceeded or
// ErrCanceled when the search cannot finish.
func (s *PathSearch) Longest(root int) (int, error) {
	if root < 0 || root >= s.pg.Len() {
		return 0, fmt.Errorf("partition %d out of range: %w", root, errors.ErrInvalidInput)
	}
	if depth, ok := s.results[root]; ok {
		return depth, nil
	}

	memo := newPathMemo(s.pg.Len())
	visited := bitset.New(uint(s.pg.Len()))
	visited.Set(uint(root))

	depth, err := s.dfs(memo, root, visited)
	if err != nil {
		return 0, err
	}
	s.results[root] = depth
	return depth, nil
}

// dfs returns the longest path from node that avoids every partition in
// visited. visited is restored before returning.
func (s *PathSearch) dfs(memo *pathMemo, node int, visited *bitset.BitSet) (int, error) {
	key := memo.key(node, visited)
	if depth, ok := memo.entries[key]; ok {
		return depth, nil
	}
	if err := s.expand(); err != nil {
		return 0, err
	}

	best := 0
	for _, next := range s.pg.Successors(node) {
		if visited.Test(uint(next)) {
			continue
		}
		visited.Set(uint(next))
		depth, err := s.dfs(memo, next, visited)
		visited.Clear(uint(next))
		if err != nil {
			return 0, err
		}
		best = max(best, depth+1)
	}

	memo.entries[key] = best
	return best, nil
}

// expand accounts for one expansion against the budget and the context.
func (s *PathSearch) expand() error {
	if err := s.ctx.Err(); err != nil {
		return fmt.Errorf("%w: %w", errors.ErrCanceled, err)
	}
	s.expansions++
	if s.budget > 0 && s.expansions > s.budget {
		return fmt.Errorf("%w after %d expansions", errors.ErrSearchBudgetExceeded, s.budget)
	}
	return nil
}

// pathMemo caches sub-search results for one search root.
type pathMemo struct {
	entries map[memoKey]int
	words   int
}

// memoKey identifies a sub-search: the current partition and the exact set of
// partitions already on the path, encoded as the bitset's words.
type memoKey struct {
	node    int
	visited string
}

func newPathMemo(partitions int) *pathMemo {
	return &pathMemo{
		entries: make(map[memoKey]int),
		words:   (partitions + 63) / 64,
	}
}

func (m *pathMemo) key(node int, visited *bitset.BitSet) memoKey {
	buf := make([]byte, 0, m.words*8)
	for _, w := range visited.Words() {
		for shift := 0; shift < 64; shift += 8 {
			buf = append(buf, byte(w>>shift))
		}
	}
	return memoKey{node: node, visited: string(buf)}
}
