// Package dialogue implements the phased coaching conversation: prompt
// construction, response cleanup, theme parsing and the phase controller
// that ties them to an inference backend.
package dialogue

// Role identifies who authored a turn.
type Role string

const (
	RoleUser  Role = "user"
	RoleCoach Role = "coach"
)

// Label is the transcript label rendered into prompts.
func (r Role) Label() string {
	if r == RoleUser {
		return "ユーザー"
	}
	return "コーチ"
}

// Turn is one message in the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Phase is the stage of the guided dialogue. Phases only move forward;
// Reset is the single way back to PhaseExploration.
type Phase string

const (
	PhaseExploration     Phase = "exploration"
	PhaseThemeGeneration Phase = "theme_generation"
	PhaseSimulation      Phase = "simulation"
)

// ContextWindow is the number of most recent turns included in a prompt.
const ContextWindow = 6

// ThemeCount is the fixed size of a theme set.
const ThemeCount = 8

// SessionState is a snapshot of everything the controller owns.
type SessionState struct {
	Phase            Phase    `json:"phase"`
	History          []Turn   `json:"history"`
	CentralTheme     string   `json:"central_theme"`
	Themes           []string `json:"themes,omitempty"`
	TurnCount        int      `json:"turn_count"`
	ExplorationTurns int      `json:"exploration_turns"`
}

func newSessionState() SessionState {
	return SessionState{Phase: PhaseExploration}
}

func (s SessionState) clone() SessionState {
	c := s
	c.History = append([]Turn(nil), s.History...)
	if s.Themes != nil {
		c.Themes = append([]string(nil), s.Themes...)
	}
	return c
}
