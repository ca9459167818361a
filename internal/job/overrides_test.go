package job

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOverridesNilIsNoOp(t *testing.T) {
	var o *Overrides
	fn := LocalFunction{Name: "fn", Args: []any{1}}
	out, err := o.ApplyTo(fn)
	require.NoError(t, err)
	assert.Equal(t, fn, out)
}

func TestOverridesApplyFunctionArgsToLocalFunction(t *testing.T) {
	o := &Overrides{FunctionArgs: []any{"x"}, FunctionKwargs: map[string]any{"k": "v"}}
	out, err := o.ApplyTo(LocalFunction{Name: "fn"})
	require.NoError(t, err)

	lf := out.(LocalFunction)
	assert.Equal(t, []any{"x"}, lf.Args)
	assert.Equal(t, map[string]any{"k": "v"}, lf.Kwargs)
}

func TestOverridesFunctionArgsFailOnRemoteDeployedCommand(t *testing.T) {
	o := &Overrides{FunctionArgs: []any{"x"}}
	_, err := o.ApplyTo(RemoteDeployedCommand{EndpointKey: "e", Command: "c"})
	require.ErrorIs(t, err, ErrOverrideNotApplicable)
}

func TestOverridesContextVariablesApplyOnlyToCommand(t *testing.T) {
	o := &Overrides{ContextVariables: map[string]string{"k": "v"}}

	out, err := o.ApplyTo(RemoteDeployedCommand{EndpointKey: "e", Command: "c"})
	require.NoError(t, err)
	rc := out.(RemoteDeployedCommand)
	assert.Equal(t, "v", rc.ContextVariables["k"])

	_, err = o.ApplyTo(RemoteDeployedFunction{EndpointKey: "e", FunctionName: "f"})
	require.ErrorIs(t, err, ErrOverrideNotApplicable)

	_, err = o.ApplyTo(LocalFunction{Name: "fn"})
	require.ErrorIs(t, err, ErrOverrideNotApplicable)
}

func TestOverridesDatabaseUserspaceMergesIntoRemoteEnv(t *testing.T) {
	userspace := "tenant-42"
	o := &Overrides{DatabaseUserspace: &userspace}

	out, err := o.ApplyTo(RemoteDeployedFunction{
		EndpointKey:  "e",
		FunctionName: "f",
		Env:          map[string]string{"EXISTING": "1"},
	})
	require.NoError(t, err)
	rf := out.(RemoteDeployedFunction)
	assert.Equal(t, "tenant-42", rf.Env["DB_DEFAULT_USERSPACE"])
	assert.Equal(t, "1", rf.Env["EXISTING"])
}

func TestOverridesDatabaseUserspaceFailsOnLocalFunction(t *testing.T) {
	userspace := "tenant-42"
	o := &Overrides{DatabaseUserspace: &userspace}

	_, err := o.ApplyTo(LocalFunction{Name: "fn"})
	require.ErrorIs(t, err, ErrOverrideNotApplicable)
}
