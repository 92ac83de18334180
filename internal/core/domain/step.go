package domain

// StepName identifies one stage of the build pipeline.
type StepName string

// Pipeline steps in execution order.
const (
	StepBase         StepName = "base"
	StepTooling      StepName = "tooling"
	StepIdentity     StepName = "identity"
	StepEnvConfig    StepName = "envconfig"
	StepDependencies StepName = "deps"
	StepSource       StepName = "source"
	StepFinalize     StepName = "finalize"
	StepOwnership    StepName = "ownership"
	StepUser         StepName = "user"
	StepEntrypoint   StepName = "entrypoint"
)

// StepStatus represents the lifecycle state of a pipeline step.
type StepStatus string

const (
	// StepStatusPending indicates the step has not started yet.
	StepStatusPending StepStatus = "pending"
	// StepStatusRunning indicates the step is currently executing.
	StepStatusRunning StepStatus = "running"
	// StepStatusCompleted indicates the step executed successfully.
	StepStatusCompleted StepStatus = "completed"
	// StepStatusFailed indicates the step execution failed, aborting the build.
	StepStatusFailed StepStatus = "failed"
	// StepStatusCached indicates the step's layer was reused from the store.
	StepStatusCached StepStatus = "cached"
)

// IsTerminal reports whether the status marks finished work.
func (s StepStatus) IsTerminal() bool {
	switch s {
	case StepStatusCompleted, StepStatusFailed, StepStatusCached:
		return true
	default:
		return false
	}
}
