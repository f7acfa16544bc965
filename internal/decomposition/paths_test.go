package decomposition

import (
	"context"
	"fmt"
	"testing"

	"github.com/bits-and-blooms/bitset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Iron-Ham/archmetrics/internal/errors"
)

func searchFor(t *testing.T, budget int, partitions []string, links ...string) *PathSearch {
	t.Helper()
	pg := NewPartitionGraph(mustParse(t, serviceDocument(partitions, links...)))
	return NewPathSearch(context.Background(), pg, budget)
}

// completeLinks returns a link between every ordered pair of distinct names.
func completeLinks(names []string) []string {
	var links []string
	for _, a := range names {
		for _, b := range names {
			if a != b {
				links = append(links, a+">"+b)
			}
		}
	}
	return links
}

func TestPathSearch_Longest(t *testing.T) {
	tests := []struct {
		name       string
		partitions []string
		links      []string
		want       []int // per partition
	}{
		{
			name:       "chain",
			partitions: []string{"A", "B", "C"},
			links:      []string{"A>B", "B>C"},
			want:       []int{2, 1, 0},
		},
		{
			name:       "two cycle",
			partitions: []string{"A", "B"},
			links:      []string{"A>B", "B>A"},
			want:       []int{1, 1},
		},
		{
			name:       "triangle cycle",
			partitions: []string{"A", "B", "C"},
			links:      []string{"A>B", "B>C", "C>A"},
			want:       []int{2, 2, 2},
		},
		{
			name:       "diamond with tail",
			partitions: []string{"A", "B", "C", "D", "E"},
			links:      []string{"A>B", "A>C", "B>D", "C>D", "D>E"},
			want:       []int{3, 2, 2, 1, 0},
		},
		{
			name:       "revisit would be longer",
			partitions: []string{"A", "B", "C", "D"},
			links:      []string{"A>B", "B>C", "C>B", "C>D"},
			want:       []int{3, 2, 1, 0},
		},
		{
			name:       "isolated",
			partitions: []string{"A", "B"},
			want:       []int{0, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			search := searchFor(t, 0, tt.partitions, tt.links...)
			for p, want := range tt.want {
				got, err := search.Longest(p)
				require.NoError(t, err)
				assert.Equal(t, want, got, "longest path from %s", tt.partitions[p])
			}
		})
	}
}

func TestPathSearch_CompleteGraph(t *testing.T) {
	names := []string{"A", "B", "C", "D", "E", "F"}
	search := searchFor(t, 0, names, completeLinks(names)...)

	got, err := search.Longest(0)
	require.NoError(t, err)
	assert.Equal(t, len(names)-1, got, "a Hamiltonian path exists")
}

func TestPathSearch_ReusesFinishedRoots(t *testing.T) {
	names := []string{"A", "B", "C", "D"}
	search := searchFor(t, 0, names, completeLinks(names)...)

	_, err := search.Longest(0)
	require.NoError(t, err)
	spent := search.Expansions()
	require.Positive(t, spent)

	_, err = search.Longest(0)
	require.NoError(t, err)
	assert.Equal(t, spent, search.Expansions())
}

func TestPathSearch_Budget(t *testing.T) {
	names := make([]string, 8)
	for i := range names {
		names[i] = fmt.Sprintf("S%d", i)
	}

	search := searchFor(t, 10, names, completeLinks(names)...)
	_, err := search.Longest(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrSearchBudgetExceeded)

	unlimited := searchFor(t, 0, []string{"A", "B"}, "A>B")
	depth, err := unlimited.Longest(0)
	require.NoError(t, err)
	assert.Equal(t, 1, depth)
}

func TestPathSearch_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	pg := NewPartitionGraph(mustParse(t, serviceDocument([]string{"A", "B"}, "A>B")))
	search := NewPathSearch(ctx, pg, 0)

	_, err := search.Longest(0)
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCanceled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestPathSearch_OutOfRange(t *testing.T) {
	search := searchFor(t, 0, []string{"A"})

	_, err := search.Longest(1)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = search.Longest(-1)
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func TestPathMemo_KeyDistinguishesVisitedSets(t *testing.T) {
	search := searchFor(t, 0, []string{"A", "B", "C"})
	memo := newPathMemo(search.pg.Len())

	first := memo.key(0, bitsetOf(3, 0, 1))
	second := memo.key(0, bitsetOf(3, 0, 2))
	again := memo.key(0, bitsetOf(3, 0, 1))

	assert.NotEqual(t, first, second)
	assert.Equal(t, first, again)
	assert.NotEqual(t, first, memo.key(1, bitsetOf(3, 0, 1)))
}

func bitsetOf(length uint, bits ...uint) *bitset.BitSet {
	b := bitset.New(length)
	for _, i := range bits {
		b.Set(i)
	}
	return b
}
