package exchange

import (
	"fmt"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/google/logger"
	"github.com/google/uuid"

	"giftexchange/internal/models"
)

// Snapshot is the durable image of a session: the three independently
// persisted entries.
type Snapshot struct {
	Roster      []models.Participant
	Assignments []models.Assignment
	Step        models.Step
}

// Store persists session snapshots. Saves are best-effort: the service
// reports a failed write but never rolls back the in-memory change.
type Store interface {
	Save(snap Snapshot) error
	Load() (Snapshot, error)
	Clear() error
}

// Service owns the single exchange session: the roster, the generated
// assignments, and the lifecycle step. All mutations are serialized behind
// one mutex and mirrored to the store before the call returns.
type Service struct {
	mu    sync.Mutex
	store Store
	rng   Rand
	dwell time.Duration

	roster      []models.Participant
	assignments []models.Assignment
	step        models.Step
}

// NewService creates a Service in the empty SETUP state. dwell is how long
// the session lingers in GENERATING before advancing to REVEAL; zero or
// negative advances synchronously. A nil rng falls back to a time-seeded
// math/rand source.
func NewService(store Store, dwell time.Duration, rng Rand) *Service {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		store:       store,
		rng:         rng,
		dwell:       dwell,
		roster:      make([]models.Participant, 0),
		assignments: make([]models.Assignment, 0),
		step:        models.StepSetup,
	}
}

// Restore applies a previously loaded snapshot. Called once at startup,
// before the service is shared.
func (s *Service) Restore(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snap.Roster != nil {
		s.roster = snap.Roster
	}
	if snap.Assignments != nil {
		s.assignments = snap.Assignments
	}
	if snap.Step.Valid() {
		s.step = snap.Step
	}
	// A restart mid-dwell resumes straight into REVEAL; the timer is not
	// worth reconstructing for a cosmetic pause.
	if s.step == models.StepGenerating {
		s.step = models.StepReveal
	}
}

// Session returns copies of the current roster, assignments, and step.
func (s *Service) Session() ([]models.Participant, []models.Assignment, models.Step) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := make([]models.Participant, len(s.roster))
	copy(roster, s.roster)
	assignments := make([]models.Assignment, len(s.assignments))
	copy(assignments, s.assignments)
	return roster, assignments, s.step
}

// AddParticipant validates and appends a new participant to the roster.
// Only legal during SETUP. The returned bool is true when the snapshot
// write failed and the change is in memory only.
func (s *Service) AddParticipant(name, wishlist, preferredReceiver string) (models.Participant, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != models.StepSetup {
		return models.Participant{}, false, fmt.Errorf("%w: roster is frozen once generation begins", ErrInvalidState)
	}

	name = strings.TrimSpace(name)
	wishlist = strings.TrimSpace(wishlist)
	if name == "" {
		return models.Participant{}, false, fmt.Errorf("%w: name must not be empty", ErrValidation)
	}
	if wishlist == "" {
		return models.Participant{}, false, fmt.Errorf("%w: wishlist must not be empty", ErrValidation)
	}

	p := models.Participant{
		ID:                uuid.NewString(),
		Name:              name,
		Wishlist:          wishlist,
		PreferredReceiver: strings.TrimSpace(preferredReceiver),
	}
	s.roster = append(s.roster, p)
	return p, s.persist(), nil
}

// RemoveParticipant deletes the participant with the given id. Removing an
// absent id is a no-op, not an error. Only legal during SETUP.
func (s *Service) RemoveParticipant(id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != models.StepSetup {
		return false, fmt.Errorf("%w: roster is frozen once generation begins", ErrInvalidState)
	}

	for i, p := range s.roster {
		if p.ID == id {
			s.roster = append(s.roster[:i], s.roster[i+1:]...)
			return s.persist(), nil
		}
	}
	return false, nil
}

// Generate runs the gated SETUP -> GENERATING transition. gateOpen is the
// externally evaluated event condition; override skips it when the caller
// has confirmed an early draw. After the dwell the step advances to REVEAL
// on its own.
func (s *Service) Generate(gateOpen, override bool) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != models.StepSetup {
		return false, fmt.Errorf("%w: assignments already generated, reset first", ErrInvalidState)
	}
	return s.generateLocked(gateOpen, override)
}

// ForceReshuffle is the administrative path: regenerate from any non-SETUP
// step, discarding the current assignment set and bypassing the gate.
func (s *Service) ForceReshuffle() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step == models.StepSetup {
		return false, fmt.Errorf("%w: nothing to reshuffle before the first generation", ErrInvalidState)
	}
	logger.Infof("Admin reshuffle requested, discarding %d assignments", len(s.assignments))
	return s.generateLocked(true, true)
}

// generateLocked holds the mutex. All-or-nothing: on any error the session
// is untouched.
func (s *Service) generateLocked(gateOpen, override bool) (bool, error) {
	if n := len(s.roster); n < 2 {
		return false, fmt.Errorf("%w: need at least 2 participants to exchange gifts, have %d", ErrValidation, n)
	}
	if !gateOpen && !override {
		return false, fmt.Errorf("%w: the event has not started yet", ErrValidation)
	}

	assignments, err := Generate(s.roster, s.rng)
	if err != nil {
		return false, err
	}

	s.assignments = assignments
	s.step = models.StepGenerating
	degraded := s.persist()

	if s.dwell <= 0 {
		s.step = models.StepReveal
		if s.persist() {
			degraded = true
		}
		return degraded, nil
	}

	time.AfterFunc(s.dwell, s.finishGenerating)
	return degraded, nil
}

// finishGenerating completes the automatic GENERATING -> REVEAL transition
// when the dwell timer fires.
func (s *Service) finishGenerating() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != models.StepGenerating {
		return
	}
	s.step = models.StepReveal
	s.persist()
}

// Reset clears the assignments and returns to SETUP with the roster intact.
func (s *Service) Reset() (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != models.StepReveal {
		return false, fmt.Errorf("%w: reset is only available from the reveal step", ErrInvalidState)
	}
	s.assignments = make([]models.Assignment, 0)
	s.step = models.StepSetup
	return s.persist(), nil
}

// ToggleRevealed flips the revealed flag of one assignment and returns the
// updated record. Only meaningful during REVEAL.
func (s *Service) ToggleRevealed(index int) (models.Assignment, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.step != models.StepReveal {
		return models.Assignment{}, false, fmt.Errorf("%w: assignments can only be revealed during the reveal step", ErrInvalidState)
	}
	if index < 0 || index >= len(s.assignments) {
		return models.Assignment{}, false, fmt.Errorf("%w: no assignment at index %d", ErrValidation, index)
	}
	s.assignments[index].Revealed = !s.assignments[index].Revealed
	return s.assignments[index], s.persist(), nil
}

// Assignment returns a copy of the assignment at index.
func (s *Service) Assignment(index int) (models.Assignment, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if index < 0 || index >= len(s.assignments) {
		return models.Assignment{}, fmt.Errorf("%w: no assignment at index %d", ErrValidation, index)
	}
	return s.assignments[index], nil
}

// ExportText renders the assignment set as one line per match, in
// generation order.
func (s *Service) ExportText() string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var b strings.Builder
	for _, a := range s.assignments {
		fmt.Fprintf(&b, "%s -> %s (wishlist: %s)\n", a.Giver.Name, a.Receiver.Name, a.Receiver.Wishlist)
	}
	return b.String()
}

// ClearAll drops the persisted snapshot and resets the in-memory session to
// an empty SETUP. Administrative; there is no undo.
func (s *Service) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.roster = make([]models.Participant, 0)
	s.assignments = make([]models.Assignment, 0)
	s.step = models.StepSetup
	if err := s.store.Clear(); err != nil {
		logger.Warningf("Failed to clear persisted session: %v", err)
		return err
	}
	logger.Info("Cleared persisted session")
	return nil
}

// persist writes the current snapshot. Returns true when the write failed;
// durability is best-effort, so the caller's state change stands either way.
func (s *Service) persist() bool {
	snap := Snapshot{
		Roster:      s.roster,
		Assignments: s.assignments,
		Step:        s.step,
	}
	if err := s.store.Save(snap); err != nil {
		logger.Warningf("Snapshot write failed, session is running non-durable: %v", err)
		return true
	}
	return false
}
