package job

// RunnerFunction names the callable a Run action should invoke, expressed
// as a closed set of variants. Go has no sum types, so
// the variants are distinguished by a type switch on the concrete struct
// rather than a tag field; RunnerFunction is a marker interface with an
// unexported method so only this package's variants can implement it.
type RunnerFunction interface {
	isRunnerFunction()
	// resolveJobFunction lets every RunnerFunction also serve directly as a
	// Job.job_function value: resolving a plain variant is the identity.
	resolveJobFunction() (RunnerFunction, error)
}

// JobFunction is what a Job's job_function field actually holds: either a
// RunnerFunction variant directly, or a VersionedRunnerFunction that
// resolves to one lazily, at run time.
type JobFunction interface {
	resolveJobFunction() (RunnerFunction, error)
}

// Resolve resolves a JobFunction to a concrete RunnerFunction, as step 4 of
// Run.Execute requires.
func Resolve(jf JobFunction) (RunnerFunction, error) {
	return jf.resolveJobFunction()
}

// LocalFunction names a function registered directly in the scheduler
// process.
type LocalFunction struct {
	Name    string
	Fn      func(args map[string]any) (result any, err error)
	Args    []any
	Kwargs  map[string]any
}

func (LocalFunction) isRunnerFunction() {}
func (f LocalFunction) resolveJobFunction() (RunnerFunction, error) { return f, nil }

// RemoteDeployedCommand names a shell command on a remote-deployed
// endpoint, identified by the deployment's endpoint key and a command path.
type RemoteDeployedCommand struct {
	EndpointKey      string
	Command          string
	ContextVariables map[string]string
	Env              map[string]string
}

func (RemoteDeployedCommand) isRunnerFunction() {}
func (f RemoteDeployedCommand) resolveJobFunction() (RunnerFunction, error) { return f, nil }

// RemoteDeployedFunction names a specific function exposed by a
// remote-deployed endpoint.
type RemoteDeployedFunction struct {
	EndpointKey  string
	FunctionName string
	Args         []any
	Kwargs       map[string]any
	Env          map[string]string
}

func (RemoteDeployedFunction) isRunnerFunction() {}
func (f RemoteDeployedFunction) resolveJobFunction() (RunnerFunction, error) { return f, nil }

// VersionedRunnerFunction is a job_function descriptor that resolves,
// lazily and at run time, to one of the three RunnerFunction variants —
// e.g. by looking up the currently active deployment of an endpoint. It is
// deliberately not itself a RunnerFunction: it only ever appears as a
// Job's job_function, never as the result of resolution.
type VersionedRunnerFunction struct {
	Resolve func() (RunnerFunction, error)
}

func (v VersionedRunnerFunction) resolveJobFunction() (RunnerFunction, error) {
	return v.Resolve()
}
