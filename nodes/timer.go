package nodes

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/alt-coder/dataflow-engine/core"
)

// TimerNode is a purely-streaming source: for every entry in its config it
// repeatedly emits a trigger chunk on the interval named by that entry,
// until the run context is cancelled. Each configured target gets its own
// dedicated output port, named after it, so a workflow description wires
// timer.<target> straight into that target node's own input port instead
// of broadcasting every target's ticks onto one shared port. Cron
// expressions are out of scope — there is no croniter equivalent grounded
// in this stack — so only the simple "<number><s|m|h>" interval form is
// supported.
type TimerNode struct {
	*core.BaseNode
}

type timerTarget struct {
	port     string
	interval time.Duration
	data     map[string]any
}

var intervalPattern = regexp.MustCompile(`^(\d+(?:\.\d+)?)([smh])$`)

func parseInterval(s string) (time.Duration, error) {
	m := intervalPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, fmt.Errorf("unsupported timer interval %q", s)
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, err
	}
	switch m[2] {
	case "s":
		return time.Duration(n * float64(time.Second)), nil
	case "m":
		return time.Duration(n * float64(time.Minute)), nil
	case "h":
		return time.Duration(n * float64(time.Hour)), nil
	}
	return 0, fmt.Errorf("unsupported timer unit in %q", s)
}

func timerTriggerSchema() core.Schema {
	return core.Struct(core.KindStreaming, map[string]core.Tag{
		"timestamp": core.TagString,
		"timer_id":  core.TagString,
		"data":      core.TagDict,
	})
}

// newTimerNode builds one streaming output port per configured target,
// discovered from the raw config's top-level keys that carry an "interval"
// field. The port is named after the target so the workflow description
// connects it directly: {from: "<timer_id>.<target>", to: "<target>.<port>"}.
func newTimerNode(id string, rawConfig map[string]any) (core.Node, error) {
	outputs := map[string]*core.Port{}
	for name, raw := range rawConfig {
		entry := asMap(raw)
		if _, ok := entry["interval"]; !ok {
			continue
		}
		intervalStr, _ := entry["interval"].(string)
		if _, err := parseInterval(intervalStr); err != nil {
			return nil, &core.ConfigurationError{NodeID: id, Port: name, Message: err.Error(), Cause: err}
		}
		outputs[name] = core.NewPort(name, core.DirOut, timerTriggerSchema())
	}
	return &TimerNode{BaseNode: core.NewBaseNode(id, "timer_node", core.ModeStreaming, rawConfig, nil, outputs)}, nil
}

// targets reads straight off RawConfig rather than the resolved config: a
// ModeStreaming node's Run is launched immediately by the scheduler and
// never receives a rendered config, since template rendering only happens
// in the task-driven walk.
func (n *TimerNode) targets() []timerTarget {
	var out []timerTarget
	for name, raw := range n.RawConfig() {
		entry := asMap(raw)
		intervalStr, ok := entry["interval"].(string)
		if !ok {
			continue
		}
		d, err := parseInterval(intervalStr)
		if err != nil {
			continue
		}
		out = append(out, timerTarget{port: name, interval: d, data: asMap(entry["data"])})
	}
	return out
}

func (n *TimerNode) Run(ctx context.Context, x *core.Context) (any, error) {
	targets := n.targets()
	if len(targets) == 0 {
		return nil, nil
	}

	done := make(chan struct{}, len(targets))
	for _, tgt := range targets {
		tgt := tgt
		go func() {
			defer func() { done <- struct{}{} }()
			ticker := time.NewTicker(tgt.interval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case tick := <-ticker.C:
					payload := map[string]any{
						"timestamp": tick.Format(time.RFC3339Nano),
						"timer_id":  n.ID(),
						"data":      tgt.data,
					}
					if err := n.Emit(ctx, tgt.port, payload); err != nil {
						x.LogEvent("ERROR", n.ID(), fmt.Sprintf("timer target %s emit failed: %v", tgt.port, err))
						return
					}
				}
			}
		}()
	}

	for range targets {
		<-done
	}
	for _, tgt := range targets {
		n.CloseOutput(ctx, tgt.port)
	}
	return nil, nil
}

func init() {
	core.RegisterType("timer_node", newTimerNode)
}
