package scenario

import (
	"context"
	"time"

	"contendq/internal/workflow"
)

// AdminRead is a single list call; success iff 200.
type AdminRead struct {
	base
	step string
	req  workflow.Request
}

func NewListTeams() Scenario {
	return AdminRead{base: named("admin-list-teams"), step: "list teams", req: ListTeams()}
}

func NewListQuestions() Scenario {
	return AdminRead{base: named("admin-list-questions"), step: "list questions", req: ListQuestions()}
}

func NewListMysteries() Scenario {
	return AdminRead{base: named("admin-list-mysteries"), step: "list mysteries", req: ListMysteryQuestions()}
}

func (s AdminRead) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	resp := t.do(ctx, s.step, s.req, []int{200}, sla(s.step, 2*time.Second))
	if resp.StatusCode != 200 {
		return t.done(OutcomeUnexpected)
	}
	env.Metrics.Increment(MetricAdminOperationSuccess)
	env.Metrics.Increment(MetricDataRetrieved)
	return t.done(OutcomeSuccess)
}

// CreateQuestionScenario posts a fresh question. 400 means the id already
// exists; that is an idempotent conflict and still counts as success.
type CreateQuestionScenario struct {
	base
}

func NewCreateQuestion() Scenario {
	return CreateQuestionScenario{base: named("admin-create-question")}
}

func (s CreateQuestionScenario) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	resp := t.do(ctx, "create question",
		CreateQuestion("ADMIN_Q_"+env.ID, "Admin test question "+env.ID),
		[]int{200, 400},
		sla("create question", 4*time.Second),
	)
	if !recordQuestion(env, resp) {
		return t.done(OutcomeUnexpected)
	}
	env.Metrics.Increment(MetricAdminOperationSuccess)
	return t.done(OutcomeSuccess)
}

type CreateMysteryScenario struct {
	base
}

func NewCreateMystery() Scenario {
	return CreateMysteryScenario{base: named("admin-create-mystery")}
}

func (s CreateMysteryScenario) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	resp := t.do(ctx, "create mystery",
		CreateMysteryQuestion(pick(env, env.Params.Difficulties), "Admin mystery "+env.ID),
		[]int{200},
		sla("create mystery", 4*time.Second),
	)
	if resp.StatusCode != 200 {
		return t.done(OutcomeUnexpected)
	}
	env.Metrics.Increment(MetricAdminOperationSuccess)
	return t.done(OutcomeSuccess)
}

// UpdateTeamScenario creates its own team (question + assignment) and then
// updates the team's points. The update only runs after a 200 assignment.
type UpdateTeamScenario struct {
	base
}

func NewUpdateTeam() Scenario {
	return UpdateTeamScenario{base: named("admin-update-team")}
}

func (s UpdateTeamScenario) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	team := "AdminTestTeam_" + env.ID
	question := "ADMIN_UPD_Q_" + env.ID

	q := t.do(ctx, "create question", CreateQuestion(question, "Update test "+env.ID), []int{200, 400})
	if !recordQuestion(env, q) {
		t.skip(2)
		return t.done(OutcomeUnexpected)
	}

	a := t.do(ctx, "assign team", AssignTeam(team, question), assignExpect)
	if o := recordAssignment(env, a); o != OutcomeSuccess {
		t.skip(1)
		return t.done(o)
	}

	u := t.do(ctx, "update team", UpdateTeam(team, 100+env.Rand.Intn(500)), []int{200},
		sla("update team", 4*time.Second),
	)
	if u.StatusCode != 200 {
		return t.done(OutcomeUnexpected)
	}
	env.Metrics.Increment(MetricAdminOperationSuccess)
	return t.done(OutcomeSuccess)
}

// recordQuestion tallies a create-question response and reports whether the
// status was one of the sane ones (200 created, 400 exists).
func recordQuestion(env *Env, resp workflow.Response) bool {
	switch resp.StatusCode {
	case 200:
		env.Metrics.Increment(MetricQuestionCreated)
		return true
	case 400:
		env.Metrics.Increment(MetricQuestionExists)
		return true
	}
	return false
}

func pick(env *Env, choices []string) string {
	if len(choices) == 0 {
		return ""
	}
	return choices[env.Rand.Intn(len(choices))]
}
