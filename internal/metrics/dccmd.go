package metrics

import (
	"context"

	"github.com/Iron-Ham/archmetrics/internal/decomposition"
	"github.com/Iron-Ham/archmetrics/internal/errors"
	"github.com/Iron-Ham/archmetrics/internal/stats"
)

// DepthDispersion describes how evenly use-case stories spread over call
// chains of different lengths.
type DepthDispersion struct {
	Value       float64
	MAD         float64
	MedianDepth float64
	Services    int
	Depths      []StoryDepth

	// Expansions is the number of path search expansions spent.
	Expansions int
}

// ComputeDepthDispersion computes, for every use-case story, the longest
// simple path in the partition adjacency graph starting at any partition the
// story touches, then returns 1 - MAD/(MAD+k) over those depths.
//
// It fails with ErrNoStories when no story touches a known node, and with
// ErrSearchBudgetExceeded or ErrCanceled when the path search cannot finish.
func ComputeDepthDispersion(ctx context.Context, pg *decomposition.PartitionGraph, k float64, budget int) (DepthDispersion, error) {
	res := DepthDispersion{Services: pg.Len()}

	stories := pg.Graph().Stories()
	if len(stories) == 0 {
		return res, errors.NewMetricError(NameDCCMD, errors.ErrNoStories)
	}

	search := decomposition.NewPathSearch(ctx, pg, budget)
	res.Depths = make([]StoryDepth, 0, len(stories))
	for _, story := range stories {
		best := 0
		for _, p := range story.Partitions {
			depth, err := search.Longest(p)
			if err != nil {
				res.Expansions = search.Expansions()
				res.Depths = nil
				return res, errors.NewMetricError(NameDCCMD, err).WithSeverity(errors.SeverityWarning)
			}
			best = max(best, depth)
		}
		res.Depths = append(res.Depths, StoryDepth{Story: story.Label, Depth: best})
	}
	res.Expansions = search.Expansions()

	depths := make([]int, len(res.Depths))
	for i, d := range res.Depths {
		depths[i] = d.Depth
	}
	mad, median, err := stats.MAD(stats.Floats(depths))
	if err != nil {
		return res, errors.NewMetricError(NameDCCMD, errors.ErrNoStories)
	}

	res.MAD = mad
	res.MedianDepth = median
	res.Value = stats.DispersionScore(mad, k)
	return res, nil
}
