package event

import "encoding/json"

// Payload is the decoded, source-specific portion of a record. Exactly one
// concrete type exists per source kind.
type Payload interface {
	isPayload()
}

func (*CalendarPayload) isPayload()       {}
func (*VersionControlPayload) isPayload() {}
func (*BrowsingPayload) isPayload()       {}

// DecodePayload parses the serialized per-kind payload stored alongside a
// record. Malformed or empty data yields a nil payload rather than an error:
// the record still participates in the pipeline using its top-level fields
// only.
func DecodePayload(kind SourceKind, raw []byte) Payload {
	if len(raw) == 0 {
		return nil
	}
	switch kind {
	case SourceCalendar:
		var p CalendarPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil
		}
		return &p
	case SourceVersionControl:
		var p VersionControlPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil
		}
		return &p
	case SourceBrowsing:
		var p BrowsingPayload
		if err := json.Unmarshal(raw, &p); err != nil {
			return nil
		}
		return &p
	}
	return nil
}

// EncodePayload serializes a payload for storage. A nil payload encodes to
// nil.
func EncodePayload(p Payload) []byte {
	if p == nil {
		return nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil
	}
	return data
}
