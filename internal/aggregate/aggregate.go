package aggregate

import (
	"sort"
	"strings"
	"time"

	"github.com/traceworks/traceback/internal/classify"
	"github.com/traceworks/traceback/internal/event"
)

// groupKey clusters records per source kind, entity identity and local
// calendar day.
type groupKey struct {
	source   event.SourceKind
	identity string
	day      string
}

type group struct {
	bucket  classify.Bucket
	path    string
	members []event.Record
}

// Build clusters version-control and browsing records into aggregate
// activities. Calendar records bypass aggregation entirely (they are already
// atomic) and records of unknown kinds are dropped. The trusted-org allowlist
// is read-only input supplied by the caller on every invocation.
//
// Aggregation is per source kind first; afterwards, aggregates from both
// sources that cover the same canonical repository path on the same day are
// unified into one repository activity, so a coding session shows as a single
// block no matter how it was observed.
func Build(records []event.Record, classifier *classify.Classifier, trustedOrgs []string, loc *time.Location) []Activity {
	groups := make(map[groupKey]*group)

	add := func(key groupKey, bucket classify.Bucket, path string, r event.Record) {
		g, ok := groups[key]
		if !ok {
			g = &group{bucket: bucket, path: path}
			groups[key] = g
		}
		g.members = append(g.members, r)
	}

	for _, r := range records {
		switch r.Kind {
		case event.SourceVersionControl:
			day := dayKey(r.StartAt, loc)
			identity, path := versionControlIdentity(r)
			add(groupKey{event.SourceVersionControl, identity, day}, classify.BucketRepository, path, r)

		case event.SourceBrowsing:
			p := r.Browsing()
			if p == nil {
				// Payload failed to parse at ingestion; nothing to
				// classify or group by.
				continue
			}
			day := dayKey(r.StartAt, loc)
			title := p.PageTitle
			if title == "" {
				title = r.Title
			}
			cls, outcome := classifier.Classify(p.Domain, p.URL, title, trustedOrgs)
			if outcome == classify.OutcomeMatched {
				// An org/repo grouping key is itself the canonical
				// path; the platform-generic key covers nothing.
				path := ""
				if cls.Bucket == classify.BucketRepository && strings.Contains(cls.GroupingKey, "/") {
					path = cls.GroupingKey
				}
				add(groupKey{event.SourceBrowsing, string(cls.Bucket) + ":" + cls.GroupingKey, day}, cls.Bucket, path, r)
				continue
			}
			// No classification, but a detected repository path still
			// routes the visit into repository aggregation.
			if p.RepositoryPath != "" {
				add(groupKey{event.SourceBrowsing, "repository:" + p.RepositoryPath, day}, classify.BucketRepository, p.RepositoryPath, r)
			}

		default:
			// Calendar records are atomic; unknown kinds are dropped.
		}
	}

	activities := make([]Activity, 0, len(groups))
	for key, g := range groups {
		a := Activity{
			Bucket:         g.bucket,
			GroupingKey:    groupingKey(key, g),
			RepositoryPath: g.path,
			Day:            key.day,
			Members:        g.members,
		}
		a.finalize()
		activities = append(activities, a)
	}

	activities = unifyRepositories(activities)

	sort.Slice(activities, func(i, j int) bool {
		if activities[i].Day != activities[j].Day {
			return activities[i].Day < activities[j].Day
		}
		if activities[i].Bucket != activities[j].Bucket {
			return activities[i].Bucket < activities[j].Bucket
		}
		return activities[i].GroupingKey < activities[j].GroupingKey
	})
	return activities
}

// versionControlIdentity returns the grouping identity and canonical path for
// a version-control record. A record whose payload failed to parse degrades
// to grouping by title so it still reaches the timeline.
func versionControlIdentity(r event.Record) (identity, path string) {
	if p := r.VersionControl(); p != nil {
		return p.RepositoryID, p.RepositoryPath
	}
	return r.Title, ""
}

func groupingKey(key groupKey, g *group) string {
	if key.source == event.SourceVersionControl {
		return key.identity
	}
	// Browsing identities are prefixed with the bucket; strip it back off.
	return key.identity[len(g.bucket)+1:]
}

// unifyRepositories merges repository activities from different sources that
// cover the same canonical path on the same day. The unified activity takes
// the path as its grouping key, so its ID is stable regardless of which
// sources contributed.
func unifyRepositories(activities []Activity) []Activity {
	type pathDay struct {
		path string
		day  string
	}
	byPath := make(map[pathDay][]int)
	for i, a := range activities {
		if a.Bucket == classify.BucketRepository && a.RepositoryPath != "" {
			byPath[pathDay{a.RepositoryPath, a.Day}] = append(byPath[pathDay{a.RepositoryPath, a.Day}], i)
		}
	}

	merged := make(map[int]bool)
	var out []Activity
	for i, a := range activities {
		if merged[i] {
			continue
		}
		if a.Bucket == classify.BucketRepository && a.RepositoryPath != "" {
			peers := byPath[pathDay{a.RepositoryPath, a.Day}]
			if len(peers) > 1 {
				unified := Activity{
					Bucket:         classify.BucketRepository,
					GroupingKey:    a.RepositoryPath,
					RepositoryPath: a.RepositoryPath,
					Day:            a.Day,
				}
				for _, j := range peers {
					unified.Members = append(unified.Members, activities[j].Members...)
					merged[j] = true
				}
				unified.finalize()
				out = append(out, unified)
				continue
			}
			// Single-source repository activity: key it by canonical
			// path as well so a future second source lands on the same
			// aggregate identity.
			a.GroupingKey = a.RepositoryPath
			a.finalize()
		}
		out = append(out, a)
	}
	return out
}
