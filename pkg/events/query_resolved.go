package events

import "time"

const QueryResolvedType = "ASSISTANT_QUERY_RESOLVED"

// QueryResolved is the audit record of one assistant answer. It carries what
// was decided, never the user's free text.
type QueryResolved struct {
	EventId            string    `json:"eventId"`
	SessionId          string    `json:"sessionId,omitempty"`
	Intent             string    `json:"intent"`
	DrugName           string    `json:"drugName,omitempty"`
	MappedName         string    `json:"mappedName,omitempty"`
	IdentityConfidence float64   `json:"identityConfidence,omitempty"`
	Provenance         []string  `json:"provenance,omitempty"`
	Classification     string    `json:"classification,omitempty"`
	Outcome            string    `json:"outcome"`
	Sources            []string  `json:"sources"`
	Rules              []string  `json:"rules,omitempty"`
	LatencyMs          int64     `json:"latencyMs"`
	OccurredAt         time.Time `json:"occurredAt"`
}

func (e QueryResolved) EventType() string {
	return QueryResolvedType
}

func (e QueryResolved) Payload() map[string]interface{} {
	return map[string]interface{}{
		"eventId":            e.EventId,
		"sessionId":          e.SessionId,
		"intent":             e.Intent,
		"drugName":           e.DrugName,
		"mappedName":         e.MappedName,
		"identityConfidence": e.IdentityConfidence,
		"provenance":         e.Provenance,
		"classification":     e.Classification,
		"outcome":            e.Outcome,
		"sources":            e.Sources,
		"rules":              e.Rules,
		"latencyMs":          e.LatencyMs,
		"occurredAt":         e.OccurredAt.Format(time.RFC3339Nano),
	}
}

func (e QueryResolved) Timestamp() time.Time {
	return e.OccurredAt
}
