package scenario

// Counters
const (
	MetricTotalOperations       = "total_operations"
	MetricSuccessfulOperations  = "successful_operations"
	MetricConflictOperations    = "conflict_operations"
	MetricNotFoundOperations    = "not_found_operations"
	MetricUnexpectedOperations  = "unexpected_operations"
	MetricStepsSkipped          = "steps_skipped"
	MetricHTTPReqs              = "http_reqs"
	MetricServerErrors          = "server_errors"
	MetricTransportErrors       = "transport_errors"
	MetricTeamCreated           = "team_created_success"
	MetricTeamAlreadyExists     = "team_already_exists"
	MetricQuestionAllotted      = "question_already_allotted"
	MetricTeamHasQuestion       = "team_has_question"
	MetricConflictUnclassified  = "conflict_unclassified"
	MetricQuestionNotFound      = "question_not_found"
	MetricQuestionCreated       = "question_created"
	MetricQuestionExists        = "question_exists"
	MetricMysteryAssigned       = "mystery_assigned"
	MetricMysteryQuit           = "mystery_quit"
	MetricAdminOperationSuccess = "admin_operations_success"
	MetricDataRetrieved         = "data_retrieved"
)

// Rates
const (
	RateSystemHealthy  = "system_healthy"
	RateFastOperations = "fast_operations"
	RateHTTPReqFailed  = "http_req_failed"
)

// Trends
const (
	TrendHTTPReqDuration = "http_req_duration"
)

// StepTrend names the latency trend of one step kind, e.g. "step:assign team".
func StepTrend(step string) string {
	return "step:" + step
}

// Counters lists every counter a run reports, written or not.
var Counters = []string{
	MetricTotalOperations,
	MetricSuccessfulOperations,
	MetricConflictOperations,
	MetricNotFoundOperations,
	MetricUnexpectedOperations,
	MetricStepsSkipped,
	MetricHTTPReqs,
	MetricServerErrors,
	MetricTransportErrors,
}

var Rates = []string{
	RateSystemHealthy,
	RateFastOperations,
	RateHTTPReqFailed,
}
