package aggregate

import "github.com/traceworks/traceback/internal/classify"

// Resolve suppresses aggregates that double-count records already represented
// by a repository activity. Suppression is all-or-nothing at the aggregate
// level: one member referencing a covered repository path drops the whole
// aggregate for that day. Members whose payloads carry no path (including
// payloads that failed to parse at ingestion) neither trigger suppression nor
// are dropped themselves.
func Resolve(repositoryAggregates, otherAggregates []Activity) []Activity {
	type pathDay struct {
		path string
		day  string
	}
	covered := make(map[pathDay]bool)
	for _, a := range repositoryAggregates {
		if a.RepositoryPath != "" {
			covered[pathDay{a.RepositoryPath, a.Day}] = true
		}
	}

	out := make([]Activity, 0, len(otherAggregates))
	for _, a := range otherAggregates {
		suppressed := false
		for _, m := range a.Members {
			if path := m.RepositoryPath(); path != "" && covered[pathDay{path, a.Day}] {
				suppressed = true
				break
			}
		}
		if !suppressed {
			out = append(out, a)
		}
	}
	return out
}

// Split partitions activities into repository aggregates and everything else,
// preserving order. Input to Resolve.
func Split(activities []Activity) (repository, other []Activity) {
	for _, a := range activities {
		if a.Bucket == classify.BucketRepository {
			repository = append(repository, a)
		} else {
			other = append(other, a)
		}
	}
	return repository, other
}
