package scenario

import (
	"encoding/json"
	"strings"

	"github.com/PaesslerAG/jsonpath"

	"contendq/internal/workflow"
)

// ConflictReason says why the service rejected a write with a 4xx.
type ConflictReason int

const (
	ReasonNone ConflictReason = iota
	ReasonTeamAllocated
	ReasonQuestionAllotted
	ReasonTeamHasQuestion
	ReasonQuestionExists
	ReasonNotEnoughPoints
	ReasonMysteryHeld
	ReasonUnknown
)

func (r ConflictReason) String() string {
	switch r {
	case ReasonNone:
		return "none"
	case ReasonTeamAllocated:
		return "team already allocated"
	case ReasonQuestionAllotted:
		return "question already allotted"
	case ReasonTeamHasQuestion:
		return "team already has question"
	case ReasonQuestionExists:
		return "question already exists"
	case ReasonNotEnoughPoints:
		return "not enough points"
	case ReasonMysteryHeld:
		return "mystery already held"
	default:
		return "unknown"
	}
}

// The service only reports the reason as free text in "detail". The markers
// are matched case-insensitively; "alloted" is the service's own spelling.
// TODO: switch to a structured error code once the service exposes one.
var conflictMarkers = []struct {
	marker string
	reason ConflictReason
}{
	{"already allocated with a question", ReasonTeamAllocated},
	{"alloted already", ReasonQuestionAllotted},
	{"allotted already", ReasonQuestionAllotted},
	{"already has this question", ReasonTeamHasQuestion},
	{"already exists", ReasonQuestionExists},
	{"not enough points", ReasonNotEnoughPoints},
	{"already has an allocated mystery", ReasonMysteryHeld},
	{"already allocated", ReasonTeamAllocated},
}

// Classify maps a 400/409 response onto a ConflictReason. Other statuses
// give ReasonNone.
func Classify(resp workflow.Response) ConflictReason {
	if resp.StatusCode != 400 && resp.StatusCode != 409 {
		return ReasonNone
	}
	text := strings.ToLower(Detail(resp.Body))
	for _, m := range conflictMarkers {
		if strings.Contains(text, m.marker) {
			return m.reason
		}
	}
	return ReasonUnknown
}

// Detail extracts the error detail from a JSON body, falling back to the raw
// body when it is not JSON or has no string detail.
func Detail(body string) string {
	var v any
	if err := json.Unmarshal([]byte(body), &v); err != nil {
		return body
	}
	d, err := jsonpath.Get("$.detail", v)
	if err != nil {
		return body
	}
	if s, ok := d.(string); ok {
		return s
	}
	return body
}
