package classify

import (
	"net/url"
	"regexp"
)

// Bucket is the semantic category assigned to a browsing record.
type Bucket string

const (
	BucketRepository       Bucket = "repository"
	BucketCollaborativeDoc Bucket = "collaborative_doc"
	BucketProjectTool      Bucket = "project_tool"
	BucketResearch         Bucket = "research"
)

// Outcome reports why a classification did or did not produce a result.
// Filtered means a rule matched the domain but rejected the page (root,
// search, folder listing); NoRule means no rule matched at all. Both exclude
// the record from aggregation, but the distinction matters when tuning rules.
type Outcome int

const (
	OutcomeNoRule Outcome = iota
	OutcomeFiltered
	OutcomeMatched
)

// Classification is the result of matching a browsing record against the
// rule table.
type Classification struct {
	Bucket      Bucket
	GroupingKey string
}

// rule pairs a domain pattern with an extraction function. The function
// returns ok=false to filter out non-content pages under a matched domain.
type rule struct {
	domain  *regexp.Regexp
	extract func(u *url.URL, title string, trustedOrgs []string) (Classification, bool)
}

// Classifier evaluates an ordered rule table. The first rule whose domain
// pattern matches is authoritative; later rules are never consulted.
type Classifier struct {
	rules []rule
}

// New returns a classifier with the built-in rule table.
func New() *Classifier {
	return &Classifier{rules: builtinRules()}
}

// Classify maps a browsing record's domain, URL and title to a bucket and
// grouping key. The trusted-org allowlist is supplied per call; the
// classifier holds no settings state of its own. Malformed URLs classify as
// OutcomeNoRule rather than failing.
func (c *Classifier) Classify(domain, rawURL, title string, trustedOrgs []string) (Classification, Outcome) {
	for _, r := range c.rules {
		if !r.domain.MatchString(domain) {
			continue
		}
		u, err := url.Parse(rawURL)
		if err != nil {
			return Classification{}, OutcomeNoRule
		}
		cls, ok := r.extract(u, title, trustedOrgs)
		if !ok {
			return Classification{}, OutcomeFiltered
		}
		return cls, OutcomeMatched
	}
	return Classification{}, OutcomeNoRule
}
