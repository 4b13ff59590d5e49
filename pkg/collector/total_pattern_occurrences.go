package collector

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
	"github.com/Sumatoshi-tech/gitmetrics/pkg/graph"
)

// TotalPatternOccurrences counts the matches its same-pattern, same-files
// PatternOccurrences sibling found at this commit. Grounded on
// original_source/lib/src/collectors/total_pattern_occurences.rs.
type TotalPatternOccurrences struct {
	pattern string
	files   []string
}

// NewTotalPatternOccurrences constructs the derived counter for a given
// pattern and glob filter, matching the PatternOccurrences instance it
// depends on.
func NewTotalPatternOccurrences(pattern string, files []string) TotalPatternOccurrences {
	return TotalPatternOccurrences{pattern: pattern, files: files}
}

// Key implements DerivedCollector.
func (t TotalPatternOccurrences) Key() collectorkey.CollectorKey {
	return collectorkey.NewPattern(collectorkey.KindTotalPatternOccurrences, t.pattern, t.files)
}

// Collect implements DerivedCollector.
func (t TotalPatternOccurrences) Collect(_ context.Context, cctx Context) (json.RawMessage, error) {
	want := collectorkey.NewPattern(collectorkey.KindPatternOccurrences, t.pattern, t.files)

	var dep PatternOccurrencesValue

	found, err := sameCommitValue(cctx, func(tk graph.Task) bool { return tk.Key == want }, &dep)
	if err != nil {
		return nil, err
	}

	if !found {
		return nil, nil
	}

	if len(dep.Matches) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: match count %d exceeds uint32", ErrValueOverflow, len(dep.Matches))
	}

	data, err := json.Marshal(TotalPatternOccurrencesValue{TotalOccurrences: uint32(len(dep.Matches))})
	if err != nil {
		return nil, fmt.Errorf("total-pattern-occurences: encode value: %w", err)
	}

	return data, nil
}
