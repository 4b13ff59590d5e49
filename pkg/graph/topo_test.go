package graph_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/historymodel"
)

func TestOrderedCommitGroups_GroupsByCommitAndRespectsTemporalOrder(t *testing.T) {
	commits := []historymodel.CommitInfo{
		dummyCommit(t, "1", "2012-12-12T00:00:00Z"),
		dummyCommit(t, "2", "2012-12-13T00:00:00Z"),
		dummyCommit(t, "3", "2012-12-14T00:00:00Z"),
	}

	metrics := []collectorkey.MetricConfig{
		{Name: "loc", Collector: collectorkey.New(collectorkey.KindTotalLoc), Frequency: collectorkey.FrequencyPerCommit},
	}

	g := graph.Build(commits, metrics, false)

	groups, err := graph.OrderedCommitGroups(g)
	require.NoError(t, err)
	require.Len(t, groups, 3)

	order := make([]string, 0, len(groups))
	for _, grp := range groups {
		order = append(order, string(grp.Commit))

		for _, idx := range grp.Tasks {
			assert.Equal(t, grp.Commit, g.Task(idx).Commit)
		}
	}

	assert.Equal(t, []string{"1", "2", "3"}, order)

	// Each commit group has both Loc and TotalLoc tasks.
	for _, grp := range groups {
		assert.Len(t, grp.Tasks, 2)
	}
}
