package event

import "testing"

func TestDecodePayload_PerKind(t *testing.T) {
	cal := DecodePayload(SourceCalendar, []byte(`{"is_all_day":true,"location":"HQ"}`))
	p, ok := cal.(*CalendarPayload)
	if !ok {
		t.Fatalf("expected calendar payload, got %T", cal)
	}
	if !p.IsAllDay || p.Location != "HQ" {
		t.Errorf("calendar fields not decoded: %+v", p)
	}

	vc := DecodePayload(SourceVersionControl, []byte(`{"repository_id":"r1","activity_type":"commit"}`))
	if v, ok := vc.(*VersionControlPayload); !ok || v.ActivityType != "commit" {
		t.Errorf("version-control payload not decoded: %#v", vc)
	}

	br := DecodePayload(SourceBrowsing, []byte(`{"url":"https://a","domain":"a","visit_count":3}`))
	if b, ok := br.(*BrowsingPayload); !ok || b.VisitCount != 3 {
		t.Errorf("browsing payload not decoded: %#v", br)
	}
}

func TestDecodePayload_MalformedIsNil(t *testing.T) {
	if p := DecodePayload(SourceCalendar, []byte(`{not json`)); p != nil {
		t.Errorf("malformed payload must decode to nil, got %#v", p)
	}
	if p := DecodePayload(SourceCalendar, nil); p != nil {
		t.Errorf("empty payload must decode to nil, got %#v", p)
	}
	if p := DecodePayload(SourceKind("other"), []byte(`{}`)); p != nil {
		t.Errorf("unknown kind must decode to nil, got %#v", p)
	}
}

func TestRecord_RepositoryPath(t *testing.T) {
	vc := Record{Kind: SourceVersionControl, Payload: &VersionControlPayload{RepositoryPath: "a/b"}}
	if vc.RepositoryPath() != "a/b" {
		t.Errorf("expected a/b, got %q", vc.RepositoryPath())
	}
	br := Record{Kind: SourceBrowsing, Payload: &BrowsingPayload{RepositoryPath: "c/d"}}
	if br.RepositoryPath() != "c/d" {
		t.Errorf("expected c/d, got %q", br.RepositoryPath())
	}
	cal := Record{Kind: SourceCalendar, Payload: &CalendarPayload{}}
	if cal.RepositoryPath() != "" {
		t.Errorf("calendar records carry no repository path")
	}
	none := Record{Kind: SourceBrowsing}
	if none.RepositoryPath() != "" {
		t.Errorf("missing payload carries no repository path")
	}
}

func TestSourceKind_Known(t *testing.T) {
	for _, k := range []SourceKind{SourceCalendar, SourceVersionControl, SourceBrowsing} {
		if !k.Known() {
			t.Errorf("%s should be known", k)
		}
	}
	if SourceKind("telemetry").Known() {
		t.Errorf("unexpected kind should not be known")
	}
}
