package scenario

import (
	"context"
	"time"

	"contendq/internal/check"
)

var mysteryExpect = []int{200, 400, 404}

// MysteryScenario sets up a fresh team, buys it a mystery question and, with
// Params.QuitProbability, quits the mystery again.
type MysteryScenario struct {
	base
}

func NewMystery() Scenario {
	return MysteryScenario{base: named("mystery")}
}

func (s MysteryScenario) Run(ctx context.Context, env *Env) Result {
	t := newTrace(env, s.Name())
	team := "MysteryTeam_" + env.ID
	question := "MQ_" + env.ID

	// decided up front so skipped accounting covers the quit step too
	quit := env.Rand.Float64() < env.Params.QuitProbability
	pending := 1
	if quit {
		pending++
	}

	q := t.do(ctx, "create question", CreateQuestion(question, "Mystery test "+env.ID), []int{200, 400})
	if !recordQuestion(env, q) {
		t.skip(pending + 1)
		return t.done(OutcomeUnexpected)
	}

	a := t.do(ctx, "assign team", AssignTeam(team, question), assignExpect)
	if o := recordAssignment(env, a); o != OutcomeSuccess {
		t.skip(pending)
		return t.done(o)
	}

	difficulty := pick(env, env.Params.Difficulties)
	cost := 25 + env.Rand.Intn(50)
	m := t.do(ctx, "assign mystery", AssignMystery(team, difficulty, cost), mysteryExpect,
		check.Responded("assign mystery responded"),
		sla("assign mystery", 3*time.Second),
		sla("assign mystery", 6*time.Second),
	)
	outcome := outcomeOf(m.StatusCode, mysteryExpect)
	if m.StatusCode == 200 {
		env.Metrics.Increment(MetricMysteryAssigned)
	}

	if !quit {
		return t.done(outcome)
	}
	if outcome == OutcomeUnexpected {
		t.skip(1)
		return t.done(outcome)
	}

	// 404 means there was nothing to quit, which is sane after a 400/404 buy
	r := t.do(ctx, "quit mystery", QuitMystery(team), []int{200, 404})
	if r.StatusCode == 200 {
		env.Metrics.Increment(MetricMysteryQuit)
	}
	return t.done(outcome)
}
