package scenario

import (
	"context"
	"time"

	"contendq/internal/workflow"
)

// MixedScenario is background traffic: one uniformly chosen read or write
// that is unrelated to any particular team.
type MixedScenario struct {
	base
}

func NewMixed() Scenario {
	return MixedScenario{base: named("mixed")}
}

type mixedOp struct {
	step string
	req  func(env *Env) workflow.Request
}

var mixedOps = []mixedOp{
	{"list questions", func(*Env) workflow.Request { return ListQuestions() }},
	{"list mysteries", func(*Env) workflow.Request { return ListMysteryQuestions() }},
	{"create mystery", func(env *Env) workflow.Request {
		return CreateMysteryQuestion("medium", "Mixed test "+env.ID)
	}},
}

func (s MixedScenario) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	op := mixedOps[env.Rand.Intn(len(mixedOps))]

	resp := t.do(ctx, op.step, op.req(env), []int{200}, sla(op.step, 3*time.Second))
	if resp.StatusCode != 200 {
		return t.done(OutcomeUnexpected)
	}
	return t.done(OutcomeSuccess)
}
