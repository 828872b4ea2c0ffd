package scripting

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"deployer/internal/component"
)

type scriptedComponent struct {
	component.Component
	invoked []string
	args    [][]any
	props   map[string]any
	failOp  string
}

func (c *scriptedComponent) Name() string { return "arm" }

func (c *scriptedComponent) Invoke(_ context.Context, op string, args ...any) (any, error) {
	if op == c.failOp {
		return nil, errors.New("operation failed")
	}
	c.invoked = append(c.invoked, op)
	c.args = append(c.args, args)
	return nil, nil
}

func (c *scriptedComponent) SetProperty(name string, value any) error {
	if _, ok := c.props[name]; !ok {
		return component.ErrUnknownProperty
	}
	c.props[name] = value
	return nil
}

func writeScript(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const homing = `
- set: {speed: 2, mode: slow}
- invoke: home
- invoke: move
  args: [1, 2.5, left]
`

func TestRunScript(t *testing.T) {
	c := &scriptedComponent{props: map[string]any{"speed": 0, "mode": ""}}
	require.NoError(t, NewOpScript().RunScript(context.Background(), c, writeScript(t, "home.ops", homing)))

	assert.Equal(t, []string{"home", "move"}, c.invoked)
	assert.Equal(t, []any{1, 2.5, "left"}, c.args[1])
	assert.Equal(t, map[string]any{"speed": 2, "mode": "slow"}, c.props)
}

func TestRunScriptFailures(t *testing.T) {
	tests := []struct {
		name    string
		script  string
		failOp  string
		message string
	}{
		{name: "step with both actions", script: "- invoke: a\n  set: {x: 1}\n", message: "exactly one"},
		{name: "empty step", script: "- {}\n", message: "exactly one"},
		{name: "not a list", script: "invoke: a\n", message: "failed to parse"},
		{name: "operation error", script: "- invoke: home\n", failOp: "home", message: "operation failed"},
		{name: "unknown property", script: "- set: {torque: 1}\n", message: "unknown property"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &scriptedComponent{props: map[string]any{}, failOp: tt.failOp}
			err := NewOpScript().RunScript(context.Background(), c, writeScript(t, "s.ops", tt.script))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.message)
		})
	}

	err := NewOpScript().RunScript(context.Background(), &scriptedComponent{}, filepath.Join(t.TempDir(), "none.ops"))
	assert.Error(t, err)
}

func TestRunScriptCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	c := &scriptedComponent{props: map[string]any{}}
	err := NewOpScript().RunScript(ctx, c, writeScript(t, "s.ops", "- invoke: home\n"))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, c.invoked)
}

func TestProgramsAndStateMachines(t *testing.T) {
	r := NewOpScript()
	c := &scriptedComponent{props: map[string]any{"speed": 0, "mode": ""}}
	ctx := context.Background()

	require.NoError(t, r.LoadProgram(ctx, c, writeScript(t, "home.ops", homing)))
	require.NoError(t, r.LoadStateMachine(ctx, c, writeScript(t, "fsm.ops", "- invoke: enter\n")))
	assert.Equal(t, []string{"home"}, r.Programs("arm"))
	assert.Equal(t, []string{"fsm"}, r.StateMachines("arm"))
	assert.Empty(t, c.invoked, "loading does not run")

	require.NoError(t, r.RunProgram(ctx, c, "home"))
	assert.Equal(t, []string{"home", "move"}, c.invoked)
	assert.Error(t, r.RunProgram(ctx, c, "other"))

	r.Forget("arm")
	assert.Empty(t, r.Programs("arm"))
	assert.Empty(t, r.StateMachines("arm"))
}
