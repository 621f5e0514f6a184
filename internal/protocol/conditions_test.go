package protocol

import (
	"testing"
	"time"

	"github.com/oldmangrizzz/looktony/pkg/models"
)

func TestEvaluateTacticalGreater(t *testing.T) {
	cond := models.Condition{
		Kind:     models.ConditionTactical,
		Key:      "threat",
		Operator: models.OpGreater,
		Value:    5,
	}

	low := &models.Context{Tactical: map[string]any{"threat": 3}}
	if Evaluate(cond, low) {
		t.Error("expected threat 3 > 5 to be false")
	}

	high := &models.Context{Tactical: map[string]any{"threat": 9}}
	if !Evaluate(cond, high) {
		t.Error("expected threat 9 > 5 to be true")
	}

	// Missing key must evaluate false without raising.
	if Evaluate(cond, &models.Context{}) {
		t.Error("expected missing key to evaluate false")
	}
}

func TestEvaluateEnvironmentalEquals(t *testing.T) {
	cond := models.Condition{
		Kind:     models.ConditionEnvironmental,
		Key:      "visibility",
		Operator: models.OpEquals,
		Value:    "low",
	}

	ctx := &models.Context{Environmental: map[string]any{"visibility": "low"}}
	if !Evaluate(cond, ctx) {
		t.Error("expected equal strings to match")
	}

	ctx.Environmental["visibility"] = "high"
	if Evaluate(cond, ctx) {
		t.Error("expected unequal strings not to match")
	}
}

func TestEvaluateEqualsNumericNormalization(t *testing.T) {
	cond := models.Condition{
		Kind:     models.ConditionTactical,
		Key:      "contacts",
		Operator: models.OpEquals,
		Value:    float64(4),
	}

	// YAML decodes small numbers as int; comparison values may be float64.
	ctx := &models.Context{Tactical: map[string]any{"contacts": 4}}
	if !Evaluate(cond, ctx) {
		t.Error("expected int 4 to equal float64 4")
	}
}

func TestEvaluateLess(t *testing.T) {
	cond := models.Condition{
		Kind:     models.ConditionTactical,
		Key:      "threat",
		Operator: models.OpLess,
		Value:    5,
	}

	ctx := &models.Context{Tactical: map[string]any{"threat": 2}}
	if !Evaluate(cond, ctx) {
		t.Error("expected 2 < 5 to be true")
	}

	ctx.Tactical["threat"] = 7
	if Evaluate(cond, ctx) {
		t.Error("expected 7 < 5 to be false")
	}
}

func TestEvaluateNumericMismatchIsFalse(t *testing.T) {
	cond := models.Condition{
		Kind:     models.ConditionTactical,
		Key:      "threat",
		Operator: models.OpGreater,
		Value:    5,
	}

	ctx := &models.Context{Tactical: map[string]any{"threat": "severe"}}
	if Evaluate(cond, ctx) {
		t.Error("expected non-numeric operand to evaluate false, not throw")
	}
}

func TestEvaluateContains(t *testing.T) {
	cond := models.Condition{
		Kind:     models.ConditionTactical,
		Key:      "callsigns",
		Operator: models.OpContains,
		Value:    "iron-2",
	}

	ctx := &models.Context{Tactical: map[string]any{
		"callsigns": []any{"iron-1", "iron-2"},
	}}
	if !Evaluate(cond, ctx) {
		t.Error("expected membership to be detected")
	}

	ctx.Tactical["callsigns"] = []any{"iron-1"}
	if Evaluate(cond, ctx) {
		t.Error("expected absent member to evaluate false")
	}

	// Non-sequence resolved value is a type mismatch, not a panic.
	ctx.Tactical["callsigns"] = "iron-2"
	if Evaluate(cond, ctx) {
		t.Error("expected non-sequence operand to evaluate false")
	}
}

func TestEvaluateTemporal(t *testing.T) {
	fixed := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	restore := now
	now = func() time.Time { return fixed }
	defer func() { now = restore }()

	cond := models.Condition{
		Kind:     models.ConditionTemporal,
		Operator: models.OpGreater,
		Value:    float64(fixed.UnixMilli() - 1000),
	}
	// Temporal conditions ignore the context entirely.
	if !Evaluate(cond, nil) {
		t.Error("expected now > now-1s to be true")
	}

	cond.Operator = models.OpLess
	if Evaluate(cond, nil) {
		t.Error("expected now < now-1s to be false")
	}
}

func TestEvaluateUnknownKindOrOperator(t *testing.T) {
	ctx := &models.Context{Tactical: map[string]any{"threat": 1}}

	bad := models.Condition{Kind: "spatial", Operator: models.OpEquals, Value: 1}
	if Evaluate(bad, ctx) {
		t.Error("expected unknown kind to evaluate false")
	}

	bad = models.Condition{Kind: models.ConditionTactical, Key: "threat", Operator: ">=", Value: 1}
	if Evaluate(bad, ctx) {
		t.Error("expected unknown operator to evaluate false")
	}
}

func TestAllSatisfied(t *testing.T) {
	conds := []models.Condition{
		{Kind: models.ConditionTactical, Key: "threat", Operator: models.OpGreater, Value: 2},
		{Kind: models.ConditionEnvironmental, Key: "visibility", Operator: models.OpEquals, Value: "low"},
	}
	ctx := &models.Context{
		Tactical:      map[string]any{"threat": 4},
		Environmental: map[string]any{"visibility": "low"},
	}

	if !AllSatisfied(conds, ctx) {
		t.Error("expected all conditions to hold")
	}

	ctx.Tactical["threat"] = 1
	if AllSatisfied(conds, ctx) {
		t.Error("expected one failing condition to fail the set")
	}

	if !AllSatisfied(nil, ctx) {
		t.Error("expected empty condition set to be vacuously satisfied")
	}
}
