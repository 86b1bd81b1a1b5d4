package scenario

import (
	"context"
	"fmt"
	"time"

	"contendq/internal/check"
	"contendq/internal/workflow"
)

var assignExpect = []int{200, 400, 404}

func assignChecks() []check.Definition {
	return []check.Definition{
		check.Responded("assign team responded"),
		sla("assign team", 10*time.Second),
		sla("assign team", 5*time.Second),
		sla("assign team", 2*time.Second),
	}
}

// TeamQuestionScenario creates a question and assigns a brand new team to
// it. The assignment is the primary signal.
type TeamQuestionScenario struct {
	base
}

func NewTeamQuestion() Scenario {
	return TeamQuestionScenario{base: named("team-question")}
}

func (s TeamQuestionScenario) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	team := "LoadTeam_" + env.ID
	question := "Q_" + env.ID

	q := t.do(ctx, "create question",
		CreateQuestion(question, "Load test question for "+team),
		[]int{200, 400},
		sla("create question", 4*time.Second),
	)
	if !recordQuestion(env, q) {
		t.skip(1)
		return t.done(OutcomeUnexpected)
	}

	a := t.do(ctx, "assign team", AssignTeam(team, question), assignExpect, assignChecks()...)
	return t.done(recordAssignment(env, a))
}

// ContentionScenario points every iteration at the same fixture question, so
// concurrent virtual users race for a single allocation.
type ContentionScenario struct {
	base
}

func NewContention() Scenario {
	return ContentionScenario{base: named("contention")}
}

func (s ContentionScenario) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	a := t.do(ctx, "assign team",
		AssignTeam("ConcurrentTeam_"+env.ID, env.Params.FixtureQuestion),
		assignExpect,
		assignChecks()...,
	)
	return t.done(recordAssignment(env, a))
}

// ProvisionFixture makes sure the contention fixture question exists. 200 and
// 400 (already there) are both fine.
func ProvisionFixture(ctx context.Context, exec workflow.Executor, p Params) error {
	resp := exec.Execute(ctx, CreateQuestion(p.FixtureQuestion, "Contention fixture "+p.FixtureQuestion))
	switch resp.StatusCode {
	case 200, 400:
		return nil
	case workflow.StatusTransportError:
		return &FixtureError{Question: p.FixtureQuestion, Status: resp.StatusCode, Detail: errText(resp.Err)}
	default:
		return &FixtureError{Question: p.FixtureQuestion, Status: resp.StatusCode, Detail: Detail(resp.Body)}
	}
}

type FixtureError struct {
	Question string
	Status   int
	Detail   string
}

func (e *FixtureError) Error() string {
	return fmt.Sprintf("provision fixture question %s: status %d: %s", e.Question, e.Status, e.Detail)
}

func errText(err error) string {
	if err == nil {
		return "no response"
	}
	return err.Error()
}

// recordAssignment tallies a team-question assignment and returns its
// outcome. 400s are split by conflict reason.
func recordAssignment(env *Env, resp workflow.Response) Outcome {
	m := env.Metrics
	switch resp.StatusCode {
	case 200:
		m.Increment(MetricTeamCreated)
	case 400:
		switch Classify(resp) {
		case ReasonTeamAllocated:
			m.Increment(MetricTeamAlreadyExists)
		case ReasonQuestionAllotted:
			m.Increment(MetricQuestionAllotted)
		case ReasonTeamHasQuestion:
			m.Increment(MetricTeamHasQuestion)
		default:
			m.Increment(MetricConflictUnclassified)
		}
	case 404:
		m.Increment(MetricQuestionNotFound)
	}
	return outcomeOf(resp.StatusCode, assignExpect)
}
