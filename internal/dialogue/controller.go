package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/MikeSquared-Agency/coach/internal/inference"
	"github.com/google/uuid"
)

// DefaultExplorationTurns is the number of accepted exploration turns after
// which the controller moves on to theme generation.
const DefaultExplorationTurns = 3

// DefaultTransitionDelay is the pause between announcing the central theme
// and requesting the theme set, leaving the display layer time to show it.
const DefaultTransitionDelay = 2 * time.Second

// ErrSessionReset is returned when Reset is called while a turn is in flight.
// The in-flight turn's results are discarded.
var ErrSessionReset = errors.New("session was reset during the turn")

// Completer is the inference backend the controller talks to.
type Completer interface {
	Complete(ctx context.Context, prompt, credential string) (string, error)
}

// Option configures a Controller.
type Option func(*Controller)

// WithSessionID overrides the generated session identifier.
func WithSessionID(id string) Option {
	return func(c *Controller) { c.id = id }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Controller) { c.logger = l }
}

// WithSink sets where session events are delivered.
func WithSink(s EventSink) Option {
	return func(c *Controller) { c.sink = s }
}

// WithInstructions overrides the phase instruction templates.
func WithInstructions(in Instructions) Option {
	return func(c *Controller) { c.instructions = in }
}

// WithExplorationTurns sets the exploration threshold. Values below 1 are ignored.
func WithExplorationTurns(n int) Option {
	return func(c *Controller) {
		if n > 0 {
			c.explorationTurns = n
		}
	}
}

// WithTransitionDelay sets the pause after the central theme is announced.
func WithTransitionDelay(d time.Duration) Option {
	return func(c *Controller) { c.transitionDelay = d }
}

// Controller owns one session's state and drives it through the dialogue
// phases. It accepts one turn at a time.
type Controller struct {
	id               string
	client           Completer
	sink             EventSink
	logger           *slog.Logger
	instructions     Instructions
	explorationTurns int
	transitionDelay  time.Duration

	inflight sync.Mutex // held for the whole of SubmitTurn
	emitMu   sync.Mutex // orders event delivery against Reset

	mu         sync.RWMutex
	state      SessionState
	generation uint64 // bumped by Reset
}

func New(client Completer, opts ...Option) *Controller {
	c := &Controller{
		id:               uuid.Must(uuid.NewV7()).String(),
		client:           client,
		sink:             noopSink{},
		logger:           slog.Default(),
		instructions:     DefaultInstructions(),
		explorationTurns: DefaultExplorationTurns,
		transitionDelay:  DefaultTransitionDelay,
		state:            newSessionState(),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.sink == nil {
		c.sink = noopSink{}
	}
	return c
}

// ID returns the session identifier.
func (c *Controller) ID() string {
	return c.id
}

// State returns a copy of the current session state.
func (c *Controller) State() SessionState {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state.clone()
}

// SubmitTurn accepts one user message, obtains the coach's reply and advances
// the phase when due. Validation failures leave the state untouched. Any
// failure after the message was appended restores the state from before the
// call and emits EventTurnRolledBack.
func (c *Controller) SubmitTurn(ctx context.Context, text, credential string) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return ErrEmptyInput
	}
	if strings.TrimSpace(credential) == "" {
		return ErrMissingCredential
	}
	if !c.inflight.TryLock() {
		return ErrBusy
	}
	defer c.inflight.Unlock()

	c.mu.RLock()
	snapshot := c.state.clone()
	gen := c.generation
	c.mu.RUnlock()

	err := c.runTurn(ctx, gen, text, credential)
	if err == nil {
		st := c.State()
		c.logger.Info("turn accepted",
			"session_id", c.id,
			"phase", st.Phase,
			"turn_count", st.TurnCount,
		)
		return nil
	}
	if errors.Is(err, ErrSessionReset) {
		c.logger.Info("turn discarded after reset", "session_id", c.id)
		return err
	}

	removed, ok := c.restore(gen, snapshot)
	if !ok {
		return ErrSessionReset
	}
	c.logger.Warn("turn rolled back",
		"session_id", c.id,
		"phase", snapshot.Phase,
		"removed", removed,
		"error", err,
	)
	if c.emit(ctx, gen, Event{
		Type:    EventTurnRolledBack,
		Phase:   snapshot.Phase,
		Seq:     len(snapshot.History),
		Removed: removed,
	}) != nil {
		return ErrSessionReset
	}
	return err
}

// Reset discards the whole session and returns it to exploration. A turn in
// flight at the time finishes with ErrSessionReset.
func (c *Controller) Reset() {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.Lock()
	c.state = newSessionState()
	c.generation++
	c.mu.Unlock()

	c.logger.Info("session reset", "session_id", c.id)
	c.deliver(context.Background(), Event{Type: EventSessionReset, Phase: PhaseExploration})
}

func (c *Controller) runTurn(ctx context.Context, gen uint64, text, credential string) error {
	var phase Phase
	err := c.mutate(gen, func(s *SessionState) {
		s.TurnCount++
		phase = s.Phase
	})
	if err != nil {
		return err
	}
	if err := c.appendTurn(ctx, gen, RoleUser, text); err != nil {
		return err
	}

	switch phase {
	case PhaseExploration:
		return c.explore(ctx, gen, text, credential)
	case PhaseSimulation:
		return c.followUp(ctx, gen, text, credential)
	default:
		return fmt.Errorf("unexpected phase %q at turn start", phase)
	}
}

func (c *Controller) explore(ctx context.Context, gen uint64, text, credential string) error {
	prompt := BuildPrompt(c.instructions.Coach, c.history(), text)
	raw, err := c.complete(ctx, PhaseExploration, prompt, credential)
	if err != nil {
		return err
	}
	if err := c.appendTurn(ctx, gen, RoleCoach, ExtractResponse(raw)); err != nil {
		return err
	}

	var reached bool
	err = c.mutate(gen, func(s *SessionState) {
		s.ExplorationTurns++
		reached = s.ExplorationTurns >= c.explorationTurns
	})
	if err != nil || !reached {
		return err
	}
	return c.elaborate(ctx, gen, text, credential)
}

// elaborate runs the theme-generation and simulation phases back to back.
func (c *Controller) elaborate(ctx context.Context, gen uint64, trigger, credential string) error {
	theme := ExtractCentralTheme(trigger, c.history())
	if err := c.setPhase(ctx, gen, PhaseThemeGeneration, func(s *SessionState) {
		s.CentralTheme = theme
	}); err != nil {
		return err
	}

	if err := c.appendTurn(ctx, gen, RoleCoach, fmt.Sprintf(transitionAnnouncement, theme)); err != nil {
		return err
	}
	if err := c.emit(ctx, gen, Event{Type: EventThemeProposed, Phase: PhaseThemeGeneration, CentralTheme: theme}); err != nil {
		return err
	}

	if err := c.wait(ctx); err != nil {
		return err
	}

	themes, err := c.generateThemes(ctx, theme, credential)
	if err != nil {
		return err
	}
	if err := c.mutate(gen, func(s *SessionState) { s.Themes = themes }); err != nil {
		return err
	}
	if err := c.appendTurn(ctx, gen, RoleCoach, fmt.Sprintf(themesAnnouncement, theme, FormatThemes(themes))); err != nil {
		return err
	}
	if err := c.emit(ctx, gen, Event{
		Type:         EventThemesFinal,
		Phase:        PhaseThemeGeneration,
		CentralTheme: theme,
		Themes:       append([]string(nil), themes...),
	}); err != nil {
		return err
	}

	if err := c.setPhase(ctx, gen, PhaseSimulation, nil); err != nil {
		return err
	}

	instructions := RenderInstructions(c.instructions.Simulation, theme, themes)
	prompt := BuildPrompt(instructions, c.history(), fmt.Sprintf(simulationRequestMessage, theme))
	raw, err := c.complete(ctx, PhaseSimulation, prompt, credential)
	if err != nil {
		return err
	}
	story := Turn{Role: RoleCoach, Content: ExtractResponse(raw)}
	if err := c.appendTurn(ctx, gen, story.Role, story.Content); err != nil {
		return err
	}
	return c.emit(ctx, gen, Event{Type: EventSimulation, Phase: PhaseSimulation, CentralTheme: theme, Turn: &story})
}

// generateThemes requests the theme set. A malformed response degrades to
// placeholder labels instead of failing the turn.
func (c *Controller) generateThemes(ctx context.Context, theme, credential string) ([]string, error) {
	instructions := RenderInstructions(c.instructions.Theme, theme, nil)
	prompt := BuildPrompt(instructions, c.history(), fmt.Sprintf(themeRequestMessage, theme))

	raw, err := c.complete(ctx, PhaseThemeGeneration, prompt, credential)
	if errors.Is(err, inference.ErrMalformedResponse) {
		c.logger.Warn("theme response malformed, using placeholders", "session_id", c.id, "error", err)
		raw, err = "", nil
	}
	if err != nil {
		return nil, err
	}
	return ParseThemes(raw), nil
}

func (c *Controller) followUp(ctx context.Context, gen uint64, text, credential string) error {
	st := c.State()
	instructions := RenderInstructions(c.instructions.FollowUp, st.CentralTheme, st.Themes)
	raw, err := c.complete(ctx, PhaseSimulation, BuildPrompt(instructions, st.History, text), credential)
	if err != nil {
		return err
	}
	return c.appendTurn(ctx, gen, RoleCoach, ExtractResponse(raw))
}

func (c *Controller) complete(ctx context.Context, phase Phase, prompt, credential string) (string, error) {
	c.logger.Debug("requesting completion", "session_id", c.id, "phase", phase, "prompt_len", len(prompt))

	raw, err := c.client.Complete(ctx, prompt, credential)
	if err != nil {
		return "", &InferenceError{Phase: phase, Err: err}
	}
	return raw, nil
}

func (c *Controller) wait(ctx context.Context) error {
	if c.transitionDelay <= 0 {
		return nil
	}
	timer := time.NewTimer(c.transitionDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Controller) history() []Turn {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]Turn(nil), c.state.History...)
}

// mutate applies fn to the state unless the session was reset since gen.
func (c *Controller) mutate(gen uint64, fn func(s *SessionState)) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return ErrSessionReset
	}
	fn(&c.state)
	return nil
}

func (c *Controller) appendTurn(ctx context.Context, gen uint64, role Role, content string) error {
	turn := Turn{Role: role, Content: content}
	var seq int
	var phase Phase
	err := c.mutate(gen, func(s *SessionState) {
		s.History = append(s.History, turn)
		seq = len(s.History) - 1
		phase = s.Phase
	})
	if err != nil {
		return err
	}
	return c.emit(ctx, gen, Event{Type: EventTurn, Phase: phase, Seq: seq, Turn: &turn})
}

func (c *Controller) setPhase(ctx context.Context, gen uint64, phase Phase, fn func(s *SessionState)) error {
	var from Phase
	err := c.mutate(gen, func(s *SessionState) {
		from = s.Phase
		s.Phase = phase
		if fn != nil {
			fn(s)
		}
	})
	if err != nil {
		return err
	}
	c.logger.Info("phase changed", "session_id", c.id, "from", from, "to", phase)
	st := c.State()
	return c.emit(ctx, gen, Event{Type: EventPhaseChanged, Phase: phase, CentralTheme: st.CentralTheme})
}

// restore puts snapshot back and reports how many turns were removed.
func (c *Controller) restore(gen uint64, snapshot SessionState) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return 0, false
	}
	removed := len(c.state.History) - len(snapshot.History)
	c.state = snapshot
	return removed, true
}

// emit delivers event unless the session was reset since gen. Holding emitMu
// across the check and the delivery keeps every event of a discarded turn
// ahead of the session.reset event.
func (c *Controller) emit(ctx context.Context, gen uint64, event Event) error {
	c.emitMu.Lock()
	defer c.emitMu.Unlock()

	c.mu.RLock()
	stale := c.generation != gen
	c.mu.RUnlock()
	if stale {
		return ErrSessionReset
	}
	c.deliver(ctx, event)
	return nil
}

func (c *Controller) deliver(ctx context.Context, event Event) {
	event.SessionID = c.id
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}
	c.sink.OnEvent(context.WithoutCancel(ctx), event)
}
