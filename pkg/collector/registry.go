package collector

import (
	"fmt"

	"github.com/Sumatoshi-tech/gitmetrics/pkg/collectorkey"
)

// Factory maps a CollectorKey to the Dispatch that runs it, mirroring
// original_source/lib/src/collectors/mod.rs's factory match over
// CollectorConfig. Every canonical Kind must appear here; an unrecognized
// Kind is a configuration error, not a panic, since keys may originate from
// a user-authored config file.
func Factory(key collectorkey.CollectorKey) (Dispatch, error) {
	switch key.Kind {
	case collectorkey.KindLoc:
		return Dispatch{Base: Loc{}}, nil
	case collectorkey.KindTotalLoc:
		return Dispatch{Derived: TotalLoc{}}, nil
	case collectorkey.KindChangedFiles:
		return Dispatch{Base: ChangedFiles{}}, nil
	case collectorkey.KindChangedFilesLoc:
		return Dispatch{Base: ChangedFilesLoc{}}, nil
	case collectorkey.KindFileList:
		return Dispatch{Base: FileList{}}, nil
	case collectorkey.KindTotalFileCount:
		return Dispatch{Derived: TotalFileCount{}}, nil
	case collectorkey.KindTotalDiffStat:
		return Dispatch{Base: TotalDiffStat{}}, nil
	case collectorkey.KindTotalCargoDeps:
		return Dispatch{Base: TotalCargoDeps{}}, nil
	case collectorkey.KindPatternOccurrences:
		return Dispatch{Base: NewPatternOccurrences(collectorkey.KindPatternOccurrences, key.Pattern, key.Files())}, nil
	case collectorkey.KindGritQLPatternOccurrences:
		return Dispatch{Base: NewPatternOccurrences(collectorkey.KindGritQLPatternOccurrences, key.Pattern, key.Files())}, nil
	case collectorkey.KindTotalPatternOccurrences:
		return Dispatch{Derived: NewTotalPatternOccurrences(key.Pattern, key.Files())}, nil
	default:
		return Dispatch{}, fmt.Errorf("%w: %q", ErrUnknownCollectorKind, key.Kind)
	}
}
