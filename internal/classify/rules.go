package classify

import (
	"net/url"
	"regexp"
	"strings"
)

// builtinRules returns the ordered rule table. Order is significant: the
// first domain match wins, so the code-hosting rules sit ahead of everything
// else.
func builtinRules() []rule {
	return []rule{
		{regexp.MustCompile(`(^|\.)github\.com$`), codeHosting("github.com")},
		{regexp.MustCompile(`(^|\.)gitlab\.com$`), codeHosting("gitlab.com")},
		{regexp.MustCompile(`(^|\.)bitbucket\.org$`), codeHosting("bitbucket.org")},
		{regexp.MustCompile(`^docs\.google\.com$`), extractGoogleDocs},
		{regexp.MustCompile(`(^|\.)notion\.(so|site)$`), titleRule(BucketCollaborativeDoc, " | Notion", " - Notion")},
		{regexp.MustCompile(`(^|\.)figma\.com$`), extractFigma},
		{regexp.MustCompile(`(^|\.)linear\.app$`), titleRule(BucketProjectTool, " | Linear", " - Linear")},
		{regexp.MustCompile(`\.atlassian\.net$`), extractJira},
		{regexp.MustCompile(`(^|\.)stackoverflow\.com$`), extractStackOverflow},
		{regexp.MustCompile(`(^|\.)wikipedia\.org$`), extractWikipedia},
		{regexp.MustCompile(`^developer\.mozilla\.org$`), extractMDN},
		{regexp.MustCompile(`(^|\.)arxiv\.org$`), extractArxiv},
	}
}

// structuralSegments are path segments that mark the boundary between a
// repository path and the page within it.
var structuralSegments = map[string]bool{
	"issues":         true,
	"pull":           true,
	"pulls":          true,
	"pull-requests":  true,
	"merge_requests": true,
	"tree":           true,
	"blob":           true,
	"commit":         true,
	"commits":        true,
	"releases":       true,
	"actions":        true,
	"wiki":           true,
}

// RepositoryPath extracts the canonical org/repo path from a code-hosting
// URL, e.g. https://github.com/facebook/react/issues/123 -> "facebook/react".
// Returns "" for URLs that are not under a known platform or do not reach a
// repository.
func RepositoryPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	host := u.Hostname()
	if !strings.Contains(host, "github.com") &&
		!strings.Contains(host, "gitlab.com") &&
		!strings.Contains(host, "bitbucket.org") {
		return ""
	}
	segments := pathSegments(u)
	var repo []string
	for _, seg := range segments {
		if structuralSegments[seg] {
			break
		}
		repo = append(repo, seg)
	}
	if len(repo) < 2 {
		return ""
	}
	return strings.Join(repo, "/")
}

// codeHosting builds the extraction function for one hosting platform. A URL
// whose organization segment is on the trusted-org allowlist classifies as a
// per-repository activity; everything else on the platform collapses into one
// generic key so unrelated repositories don't fragment the timeline.
func codeHosting(platform string) func(*url.URL, string, []string) (Classification, bool) {
	return func(u *url.URL, title string, trustedOrgs []string) (Classification, bool) {
		segments := pathSegments(u)
		if len(segments) >= 2 {
			org := segments[0]
			for _, trusted := range trustedOrgs {
				if org == trusted {
					return Classification{
						Bucket:      BucketRepository,
						GroupingKey: org + "/" + segments[1],
					}, true
				}
			}
		}
		if len(segments) == 0 {
			return Classification{}, false
		}
		return Classification{Bucket: BucketRepository, GroupingKey: platform}, true
	}
}

func extractGoogleDocs(u *url.URL, title string, _ []string) (Classification, bool) {
	// Only concrete documents have a /d/<id> segment; listings and the
	// editor home page do not.
	if !strings.Contains(u.Path, "/d/") {
		return Classification{}, false
	}
	key := stripSuffixes(title, " - Google Docs", " - Google Sheets", " - Google Slides", " - Google Drive")
	if key == "" {
		return Classification{}, false
	}
	return Classification{Bucket: BucketCollaborativeDoc, GroupingKey: key}, true
}

func extractFigma(u *url.URL, title string, _ []string) (Classification, bool) {
	segments := pathSegments(u)
	if len(segments) < 2 || (segments[0] != "file" && segments[0] != "design" && segments[0] != "board") {
		return Classification{}, false
	}
	key := stripSuffixes(title, " – Figma", " - Figma")
	if key == "" {
		return Classification{}, false
	}
	return Classification{Bucket: BucketCollaborativeDoc, GroupingKey: key}, true
}

func extractJira(u *url.URL, title string, _ []string) (Classification, bool) {
	segments := pathSegments(u)
	if len(segments) == 0 || segments[0] == "secure" || segments[0] == "login" {
		return Classification{}, false
	}
	key := stripSuffixes(title, " - Jira", " - Jira Service Management")
	if key == "" {
		return Classification{}, false
	}
	return Classification{Bucket: BucketProjectTool, GroupingKey: key}, true
}

func extractStackOverflow(u *url.URL, title string, _ []string) (Classification, bool) {
	segments := pathSegments(u)
	if len(segments) < 2 || segments[0] != "questions" {
		return Classification{}, false
	}
	key := stripSuffixes(title, " - Stack Overflow")
	if key == "" {
		return Classification{}, false
	}
	return Classification{Bucket: BucketResearch, GroupingKey: key}, true
}

func extractWikipedia(u *url.URL, title string, _ []string) (Classification, bool) {
	segments := pathSegments(u)
	if len(segments) < 2 || segments[0] != "wiki" || segments[1] == "Main_Page" {
		return Classification{}, false
	}
	key := stripSuffixes(title, " - Wikipedia")
	if key == "" {
		return Classification{}, false
	}
	return Classification{Bucket: BucketResearch, GroupingKey: key}, true
}

func extractMDN(u *url.URL, title string, _ []string) (Classification, bool) {
	if !strings.Contains(u.Path, "/docs/") {
		return Classification{}, false
	}
	key := stripSuffixes(title, " | MDN", " - MDN")
	if key == "" {
		return Classification{}, false
	}
	return Classification{Bucket: BucketResearch, GroupingKey: key}, true
}

func extractArxiv(u *url.URL, title string, _ []string) (Classification, bool) {
	segments := pathSegments(u)
	if len(segments) < 2 || (segments[0] != "abs" && segments[0] != "pdf") {
		return Classification{}, false
	}
	key := strings.TrimSpace(title)
	if key == "" {
		return Classification{}, false
	}
	return Classification{Bucket: BucketResearch, GroupingKey: key}, true
}

// titleRule builds an extraction function for platforms where any non-root
// page is content and the grouping key is the suffix-stripped title.
func titleRule(bucket Bucket, suffixes ...string) func(*url.URL, string, []string) (Classification, bool) {
	return func(u *url.URL, title string, _ []string) (Classification, bool) {
		if len(pathSegments(u)) == 0 {
			return Classification{}, false
		}
		key := stripSuffixes(title, suffixes...)
		if key == "" {
			return Classification{}, false
		}
		return Classification{Bucket: bucket, GroupingKey: key}, true
	}
}

func pathSegments(u *url.URL) []string {
	var segments []string
	for _, seg := range strings.Split(u.Path, "/") {
		if seg != "" {
			segments = append(segments, seg)
		}
	}
	return segments
}

// stripSuffixes removes the first matching known suffix and trims whitespace.
func stripSuffixes(title string, suffixes ...string) string {
	title = strings.TrimSpace(title)
	for _, s := range suffixes {
		if strings.HasSuffix(title, s) {
			return strings.TrimSpace(strings.TrimSuffix(title, s))
		}
	}
	return title
}
