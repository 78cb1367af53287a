package core

const (
	BotName    = "MentorBot"
	BotVersion = "0.1.0"
)

// Role decides how a broadcast destination gets its daily content.
type Role string

const (
	// RoleAI destinations receive an assistant-generated lesson.
	RoleAI Role = "ai"
	// RoleDeterministic destinations receive a lesson composed from
	// the static content table.
	RoleDeterministic Role = "deterministic"
)

// Destination is one configured broadcast target.
type Destination struct {
	ChatID int64
	Role   Role
}

// RunStatus is the lifecycle state of a single assistant run.
type RunStatus string

const (
	RunQueued     RunStatus = "queued"
	RunInProgress RunStatus = "in_progress"
	RunCompleted  RunStatus = "completed"
	RunFailed     RunStatus = "failed"
	RunCancelled  RunStatus = "cancelled"
	RunExpired    RunStatus = "expired"
)

// Terminal reports whether the run will not change state anymore.
func (s RunStatus) Terminal() bool {
	switch s {
	case RunQueued, RunInProgress:
		return false
	}
	return true
}
