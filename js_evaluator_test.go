//go:build js_eval

package migrate

import (
	"strings"
	"testing"
	"time"
)

func TestJSEvaluatorInterruptsLongScripts(t *testing.T) {
	evaluator := NewJSEvaluator(JSWithTimeout(20 * time.Millisecond))
	_, err := evaluator.Evaluate(RuleContext{Label: "loop"}, "(function(){ while (true) {} })()")
	if err == nil || !strings.Contains(err.Error(), "exceeded") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestJSEvaluatorSeesTreeObjects(t *testing.T) {
	state := map[string]any{"main": map[string]any{"networks": map[string]any{"ethereum": map[string]any{"137": map[string]any{"symbol": "MATIC"}}}}}
	got, err := NewJSEvaluator().Evaluate(RuleContext{Snapshot: state}, `Object.keys(main.networks.ethereum).length === 1 && main.networks.ethereum["137"].symbol === "MATIC"`)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if got != true {
		t.Fatalf("expected true, got %v", got)
	}
}
