package core

import (
	"reflect"
	"testing"
)

func TestContext_GlobalVar_DottedPath(t *testing.T) {
	x := NewContext()

	x.SetGlobalVar("user.name", "ada")
	x.SetGlobalVar("user.age", 30)

	if got := x.GetGlobalVar("user.name", nil); got != "ada" {
		t.Errorf("GetGlobalVar(user.name) = %v, expected ada", got)
	}
	if got := x.GetGlobalVar("user.age", nil); got != 30 {
		t.Errorf("GetGlobalVar(user.age) = %v, expected 30", got)
	}
	if got := x.GetGlobalVar("user.missing", "fallback"); got != "fallback" {
		t.Errorf("GetGlobalVar(user.missing) = %v, expected fallback", got)
	}
	if got := x.GetGlobalVar("does.not.exist", "fallback"); got != "fallback" {
		t.Errorf("GetGlobalVar(does.not.exist) = %v, expected fallback", got)
	}
}

func TestContext_Globals_ReturnsIndependentCopy(t *testing.T) {
	x := NewContext()
	x.SetGlobalVar("a.b", 1)

	snapshot := x.Globals()
	snapshot["a"].(map[string]any)["b"] = 999

	if got := x.GetGlobalVar("a.b", nil); got != 1 {
		t.Errorf("mutating a Globals() snapshot leaked into the context: got %v, expected 1", got)
	}
}

func TestContext_Output(t *testing.T) {
	x := NewContext()
	if _, ok := x.GetOutput("n1", "out"); ok {
		t.Fatal("expected no output before it is set")
	}
	x.SetOutput("n1", "out", map[string]any{"data": 1})
	v, ok := x.GetOutput("n1", "out")
	if !ok {
		t.Fatal("expected output to be present after SetOutput")
	}
	if !reflect.DeepEqual(v, map[string]any{"data": 1}) {
		t.Errorf("GetOutput() = %v, expected map[data:1]", v)
	}
}

func TestContext_Events_AppendOnly(t *testing.T) {
	x := NewContext()
	x.LogEvent("info", "n1", "started")
	x.LogEvent("error", "n1", "failed")

	events := x.Events()
	if len(events) != 2 {
		t.Fatalf("expected 2 events, got %d", len(events))
	}
	if events[0].Message != "started" || events[1].Message != "failed" {
		t.Errorf("events out of order: %+v", events)
	}
}
