package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/mechanicapp/tracking-system/internal/core/domain"
	"github.com/mechanicapp/tracking-system/internal/core/ports"
	"github.com/mechanicapp/tracking-system/internal/metrics"
)

const (
	defaultInitialFixTimeout   = 15 * time.Second
	defaultArrivalRadiusMeters = 100.0
)

// DedupChecker abstracts the fix idempotency store (Redis).
type DedupChecker interface {
	IsDuplicate(ctx context.Context, sessionID, role string, capturedAt time.Time) (bool, error)
	Mark(ctx context.Context, sessionID, role string, capturedAt time.Time) error
}

// FixQueue accepts location events for ordered, asynchronous processing.
type FixQueue interface {
	Enqueue(ev ports.LocationEvent)
}

// TrackerConfig tunes the tracker.
type TrackerConfig struct {
	// InitialFixTimeout bounds the single fix requested by Start. Defaults to 15s.
	InitialFixTimeout time.Duration
	// AssumedSpeedKmh is the flat speed used for arrival estimates. Defaults to 30.
	AssumedSpeedKmh float64
	// ArrivalRadiusMeters is how close the mechanic must be to the customer for the
	// session to report arrived. Defaults to 100.
	ArrivalRadiusMeters float64
}

// TrackerDeps are the collaborators of a Tracker. Provider and Gate are required;
// everything else may be nil.
type TrackerDeps struct {
	Registry   *Registry
	Gate       *PermissionGate
	Provider   ports.GeolocationProvider
	Geocoder   ports.ReverseGeocoder
	Jobs       ports.JobDirectory
	Store      ports.SessionStore
	Publishers []ports.UpdatePublisher
	Dedup      DedupChecker
}

// Tracker implements ports.TrackingService.
type Tracker struct {
	registry   *Registry
	gate       *PermissionGate
	provider   ports.GeolocationProvider
	geocoder   ports.ReverseGeocoder
	jobs       ports.JobDirectory
	store      ports.SessionStore
	publishers []ports.UpdatePublisher
	dedup      DedupChecker
	queue      FixQueue
	cfg        TrackerConfig
	log        zerolog.Logger

	now   func() time.Time
	newID func() string

	// pending maps a job id to the session id of the Start call allowed to commit.
	// superseded holds session ids whose pending entry was taken by a newer Start.
	mu         sync.Mutex
	pending    map[string]string
	superseded map[string]struct{}
}

var _ ports.TrackingService = (*Tracker)(nil)

// NewTracker returns a Tracker. A nil Registry in deps is replaced by a fresh one.
func NewTracker(deps TrackerDeps, cfg TrackerConfig, log zerolog.Logger) *Tracker {
	if cfg.InitialFixTimeout <= 0 {
		cfg.InitialFixTimeout = defaultInitialFixTimeout
	}
	if cfg.AssumedSpeedKmh <= 0 {
		cfg.AssumedSpeedKmh = domain.DefaultAssumedSpeedKmh
	}
	if cfg.ArrivalRadiusMeters <= 0 {
		cfg.ArrivalRadiusMeters = defaultArrivalRadiusMeters
	}
	registry := deps.Registry
	if registry == nil {
		registry = NewRegistry()
	}
	return &Tracker{
		registry:   registry,
		gate:       deps.Gate,
		provider:   deps.Provider,
		geocoder:   deps.Geocoder,
		jobs:       deps.Jobs,
		store:      deps.Store,
		publishers: deps.Publishers,
		dedup:      deps.Dedup,
		cfg:        cfg,
		log:        log,
		now:        func() time.Time { return time.Now().UTC() },
		newID:      uuid.NewString,
		pending:    make(map[string]string),
		superseded: make(map[string]struct{}),
	}
}

// AttachQueue routes streamed events through q instead of applying them inline.
// It must be called before the first Start.
func (t *Tracker) AttachQueue(q FixQueue) {
	t.queue = q
}

// RequestPermission asks the process-wide permission gate.
func (t *Tracker) RequestPermission(ctx context.Context) (bool, error) {
	return t.gate.RequestPermission(ctx)
}

// PermissionGranted reports the cached grant without prompting.
func (t *Tracker) PermissionGranted(context.Context) bool {
	return t.gate.Granted()
}

// RevokePermission drops the cached grant so the next Start prompts again.
// Sessions already running keep their watches.
func (t *Tracker) RevokePermission(context.Context) {
	t.gate.Revoke()
}

// Start begins tracking jobID from the device of the given role.
//
// It requests one immediate fix, resolves its address best-effort and subscribes to
// the continuous stream. An existing session for the job is replaced and its watch
// cancelled. If Stop runs for the job before Start commits, the new session is
// discarded and ErrTrackingCancelled is returned; if another Start for the job
// begins meanwhile, the older call returns ErrTrackingSuperseded.
//
// Watch callbacks that fire before the session is committed are held back and
// replayed, in order, right after the commit.
func (t *Tracker) Start(ctx context.Context, in ports.StartInput) (*domain.TrackingSession, error) {
	jobID := strings.TrimSpace(in.JobID)
	if jobID == "" {
		metrics.StartFailuresTotal.WithLabelValues("invalid_input").Inc()
		return nil, fmt.Errorf("start tracking: %w", domain.ErrInvalidJobID)
	}
	role, err := domain.ParseRole(in.Role)
	if err != nil {
		metrics.StartFailuresTotal.WithLabelValues("invalid_input").Inc()
		return nil, fmt.Errorf("start tracking: %w", err)
	}
	log := t.log.With().Str("job_id", jobID).Str("role", string(role)).Logger()

	// 1. The job must exist and still be open.
	if err := t.checkJob(ctx, jobID); err != nil {
		metrics.StartFailuresTotal.WithLabelValues("job_lookup").Inc()
		return nil, fmt.Errorf("start tracking: %w", err)
	}

	// 2. Permission gate.
	granted, err := t.gate.RequestPermission(ctx)
	if err != nil || !granted {
		metrics.StartFailuresTotal.WithLabelValues("permission_denied").Inc()
		log.Warn().Err(err).Msg("tracking refused: permission not granted")
		return nil, fmt.Errorf("start tracking: %w", domain.ErrPermissionDenied)
	}

	sessionID := t.newID()
	t.setPending(jobID, sessionID)

	// 3. Immediate fix.
	src := ports.FixSource{JobID: jobID, Role: role}
	fix, err := t.initialFix(ctx, src)
	if err != nil {
		t.clearPending(jobID, sessionID)
		metrics.StartFailuresTotal.WithLabelValues(startFailureLabel(err)).Inc()
		log.Warn().Err(err).Msg("initial fix failed")
		return nil, fmt.Errorf("start tracking: %w", err)
	}

	// 4. Address, best-effort.
	address := t.resolveAddress(ctx, fix.Coordinate, log)

	if err := t.checkPending(jobID, sessionID); err != nil {
		metrics.StartFailuresTotal.WithLabelValues(startFailureLabel(err)).Inc()
		log.Info().Err(err).Msg("start abandoned, initial fix discarded")
		return nil, fmt.Errorf("start tracking: %w", err)
	}

	// 5. Continuous stream. Events are held until the session is committed.
	held := &watchBuffer{deliver: t.deliver}
	handle, err := t.provider.Watch(src,
		func(f domain.LocationFix) {
			held.push(ports.LocationEvent{
				JobID:     jobID,
				SessionID: sessionID,
				Role:      string(role),
				Fix:       toFixInput(f),
				Source:    ports.SourceWatch,
			})
		},
		func(err error) {
			held.push(ports.LocationEvent{
				JobID:     jobID,
				SessionID: sessionID,
				Role:      string(role),
				Err:       err,
				Source:    ports.SourceWatch,
			})
		},
	)
	if err != nil {
		t.clearPending(jobID, sessionID)
		metrics.StartFailuresTotal.WithLabelValues("location_unavailable").Inc()
		return nil, fmt.Errorf("start tracking: %w: watch: %v", domain.ErrLocationUnavailable, err)
	}

	now := t.now()
	session := domain.NewTrackingSession(sessionID, jobID, role, now)
	session.ApplyFix(role, fix, address, now, t.cfg.AssumedSpeedKmh)
	session.Arrived = session.WithinArrivalRadius(t.cfg.ArrivalRadiusMeters)
	session.WatchHandle = handle
	snapshot := session.Clone()

	// 6. Commit unless Stop or a newer Start won the race.
	t.mu.Lock()
	if err := t.claimLocked(jobID, sessionID); err != nil {
		t.mu.Unlock()
		held.discard()
		t.provider.CancelWatch(handle)
		metrics.StartFailuresTotal.WithLabelValues(startFailureLabel(err)).Inc()
		log.Info().Err(err).Msg("start abandoned, watch cancelled")
		return nil, fmt.Errorf("start tracking: %w", err)
	}
	delete(t.pending, jobID)
	prev := t.registry.Add(session)
	t.mu.Unlock()

	if prev != nil && prev.WatchHandle != "" {
		t.provider.CancelWatch(prev.WatchHandle)
		log.Info().Str("replaced_session", prev.ID).Msg("previous session replaced, watch cancelled")
	}

	metrics.SessionsStartedTotal.WithLabelValues(string(role)).Inc()
	metrics.SessionsActive.Set(float64(t.registry.ActiveCount()))
	t.persist(ctx, snapshot, domain.UpdateSessionUpdated, "started")

	if n := held.open(); n > 0 {
		log.Debug().Int("events", n).Msg("replayed events received while starting")
	}

	log.Info().Str("session_id", sessionID).Bool("address_resolved", address != "").Msg("tracking started")
	return snapshot, nil
}

// Stop cancels tracking for jobID. Unknown jobs are ignored.
func (t *Tracker) Stop(ctx context.Context, jobID string) error {
	t.mu.Lock()
	delete(t.pending, jobID)
	prev := t.registry.Remove(jobID)
	t.mu.Unlock()

	if prev == nil {
		return nil
	}
	if prev.WatchHandle != "" {
		t.provider.CancelWatch(prev.WatchHandle)
	}

	snapshot := prev.Clone()
	snapshot.State = domain.SessionInactive
	snapshot.WatchHandle = ""
	snapshot.UpdatedAt = t.now()

	metrics.SessionsStoppedTotal.Inc()
	metrics.SessionsActive.Set(float64(t.registry.ActiveCount()))
	t.persist(ctx, snapshot, domain.UpdateSessionStopped, "stopped")

	t.log.Info().Str("job_id", jobID).Str("session_id", prev.ID).Msg("tracking stopped")
	return nil
}

// Get returns the session stored for jobID, active or failed. Jobs this process
// does not track are looked up in the session store when it can be read back.
func (t *Tracker) Get(ctx context.Context, jobID string) (*domain.TrackingSession, error) {
	if s, ok := t.registry.Get(jobID); ok {
		return s, nil
	}

	if reader, ok := t.store.(ports.SessionReader); ok {
		s, err := reader.FindByJob(ctx, jobID)
		if err == nil {
			return s, nil
		}
		if !errors.Is(err, domain.ErrSessionNotFound) {
			t.log.Warn().Err(err).Str("job_id", jobID).Msg("session store lookup failed")
		}
	}
	return nil, fmt.Errorf("get session %q: %w", jobID, domain.ErrSessionNotFound)
}

// ListActive returns every active session.
func (t *Tracker) ListActive(_ context.Context) []domain.TrackingSession {
	return t.registry.ListActive()
}

// Process applies a single location event. Events addressed to a session that is no
// longer current are dropped silently.
func (t *Tracker) Process(ctx context.Context, ev ports.LocationEvent) error {
	role, err := domain.ParseRole(ev.Role)
	if err != nil {
		return fmt.Errorf("process location: %w", err)
	}
	if ev.Err != nil {
		return t.handleStreamError(ctx, ev)
	}
	if ev.Fix == nil {
		return fmt.Errorf("process location: %w: missing fix", domain.ErrInvalidCoordinates)
	}

	fix := t.toDomainFix(*ev.Fix)
	if err := fix.Coordinate.Validate(); err != nil {
		return fmt.Errorf("process location: %w", err)
	}

	current, ok := t.registry.Get(ev.JobID)
	if ev.SessionID != "" && (!ok || current.ID != ev.SessionID || !current.IsActive()) {
		t.log.Debug().Str("job_id", ev.JobID).Str("session_id", ev.SessionID).Msg("stale fix dropped")
		return nil
	}
	if !ok || !current.IsActive() {
		return fmt.Errorf("process location: job %q: %w", ev.JobID, domain.ErrSessionNotFound)
	}

	// 1. Idempotency check. A dedup store failure never blocks the fix.
	if t.dedup != nil {
		isDup, err := t.dedup.IsDuplicate(ctx, current.ID, string(role), fix.CapturedAt)
		if err != nil {
			t.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("dedup check failed, processing anyway")
		} else if isDup {
			metrics.FixesDuplicateTotal.Inc()
			return nil
		}
	}

	// 2. Apply under the registry lock.
	var (
		changed, arrived, justArrived bool
		snapshot                      *domain.TrackingSession
	)
	now := t.now()
	t.registry.Update(ev.JobID, func(s *domain.TrackingSession) {
		if s.ID != current.ID || !s.IsActive() {
			return
		}
		changed = s.ApplyFix(role, fix, ev.Fix.Address, now, t.cfg.AssumedSpeedKmh)
		if changed {
			arrived = s.WithinArrivalRadius(t.cfg.ArrivalRadiusMeters)
			justArrived = arrived && !s.Arrived
			s.Arrived = arrived
			snapshot = s.Clone()
		}
	})
	if !changed {
		metrics.FixesDuplicateTotal.Inc()
		return nil
	}
	if justArrived {
		t.log.Info().Str("job_id", ev.JobID).Str("session_id", current.ID).Msg("mechanic within arrival radius")
	}

	if t.dedup != nil {
		if err := t.dedup.Mark(ctx, current.ID, string(role), fix.CapturedAt); err != nil {
			t.log.Warn().Err(err).Str("job_id", ev.JobID).Msg("failed to set dedup key")
		}
	}

	metrics.FixesProcessedTotal.WithLabelValues(string(role), ev.Source).Inc()
	if snapshot.DistanceMeters != nil {
		metrics.ParticipantDistanceMeters.Observe(*snapshot.DistanceMeters)
	}
	t.persist(ctx, snapshot, domain.UpdateSessionUpdated, "")
	return nil
}

// Shutdown stops every tracked session.
func (t *Tracker) Shutdown(ctx context.Context) {
	for _, id := range t.registry.jobIDs() {
		_ = t.Stop(ctx, id)
	}
}

func (t *Tracker) handleStreamError(ctx context.Context, ev ports.LocationEvent) error {
	var (
		handle   domain.WatchHandle
		snapshot *domain.TrackingSession
	)
	t.registry.Update(ev.JobID, func(s *domain.TrackingSession) {
		if (ev.SessionID != "" && s.ID != ev.SessionID) || !s.IsActive() {
			return
		}
		handle = s.WatchHandle
		s.Fail(ev.Err.Error(), t.now())
		snapshot = s.Clone()
	})
	if snapshot == nil {
		return nil
	}
	if handle != "" {
		t.provider.CancelWatch(handle)
	}

	metrics.StreamErrorsTotal.Inc()
	metrics.SessionsActive.Set(float64(t.registry.ActiveCount()))
	t.persist(ctx, snapshot, domain.UpdateSessionFailed, ev.Err.Error())

	return fmt.Errorf("process location: job %q: %w: %v", ev.JobID, domain.ErrStreamError, ev.Err)
}

func (t *Tracker) checkJob(ctx context.Context, jobID string) error {
	if t.jobs == nil {
		return nil
	}
	job, err := t.jobs.FindJob(ctx, jobID)
	if err != nil {
		return err
	}
	if !job.Trackable() {
		return fmt.Errorf("%w (status %s)", domain.ErrJobNotTrackable, job.Status)
	}
	return nil
}

func (t *Tracker) initialFix(ctx context.Context, src ports.FixSource) (domain.LocationFix, error) {
	fixCtx, cancel := context.WithTimeout(ctx, t.cfg.InitialFixTimeout)
	defer cancel()

	fix, err := t.provider.CurrentFix(fixCtx, src)
	if err != nil {
		if errors.Is(err, domain.ErrPermissionDenied) {
			return domain.LocationFix{}, err
		}
		return domain.LocationFix{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	if err := fix.Coordinate.Validate(); err != nil {
		return domain.LocationFix{}, fmt.Errorf("%w: %v", domain.ErrLocationUnavailable, err)
	}
	if fix.CapturedAt.IsZero() {
		fix.CapturedAt = t.now()
	}
	return fix, nil
}

func (t *Tracker) resolveAddress(ctx context.Context, c domain.Coordinate, log zerolog.Logger) string {
	if t.geocoder == nil {
		return ""
	}
	addr, err := t.geocoder.Resolve(ctx, c)
	if err != nil {
		metrics.GeocodeFailuresTotal.Inc()
		log.Warn().Err(err).Msg("reverse geocoding failed, address left empty")
		return ""
	}
	return addr
}

// deliver hands a streamed event to the queue, or applies it inline without one.
func (t *Tracker) deliver(ev ports.LocationEvent) {
	if t.queue != nil {
		t.queue.Enqueue(ev)
		return
	}
	if err := t.Process(context.Background(), ev); err != nil {
		t.log.Error().Err(err).Str("job_id", ev.JobID).Msg("location event failed")
	}
}

// persist stores and publishes a snapshot. Failures are logged, never returned.
func (t *Tracker) persist(ctx context.Context, s *domain.TrackingSession, kind domain.UpdateKind, detail string) {
	if t.store != nil {
		var err error
		if kind == domain.UpdateSessionStopped {
			err = t.store.Delete(ctx, s.JobID)
		} else {
			err = t.store.Save(ctx, s)
		}
		if err != nil {
			t.log.Warn().Err(err).Str("job_id", s.JobID).Msg("failed to persist session")
		}

		if detail != "" {
			ev := ports.SessionEvent{JobID: s.JobID, SessionID: s.ID, Kind: kind, Detail: detail, At: s.UpdatedAt}
			if err := t.store.InsertEvent(ctx, ev); err != nil {
				t.log.Warn().Err(err).Str("job_id", s.JobID).Msg("failed to insert session event")
			}
		}
	}

	update := domain.SessionUpdate{Kind: kind, Session: *s, At: s.UpdatedAt}
	for _, p := range t.publishers {
		if err := p.Publish(ctx, update); err != nil {
			t.log.Warn().Err(err).Str("job_id", s.JobID).Msg("failed to publish session update")
		}
	}
}

func (t *Tracker) setPending(jobID, sessionID string) {
	t.mu.Lock()
	if prev, ok := t.pending[jobID]; ok {
		t.superseded[prev] = struct{}{}
	}
	t.pending[jobID] = sessionID
	t.mu.Unlock()
}

// checkPending reports why sessionID may no longer commit, or nil if it still may.
func (t *Tracker) checkPending(jobID, sessionID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.claimLocked(jobID, sessionID)
}

// claimLocked must be called with t.mu held. A non-nil result means the Start for
// sessionID lost its pending entry, and its superseded mark is consumed.
func (t *Tracker) claimLocked(jobID, sessionID string) error {
	if t.pending[jobID] == sessionID {
		return nil
	}
	if _, ok := t.superseded[sessionID]; ok {
		delete(t.superseded, sessionID)
		return domain.ErrTrackingSuperseded
	}
	return domain.ErrTrackingCancelled
}

func (t *Tracker) clearPending(jobID, sessionID string) {
	t.mu.Lock()
	if t.pending[jobID] == sessionID {
		delete(t.pending, jobID)
	}
	delete(t.superseded, sessionID)
	t.mu.Unlock()
}

func startFailureLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrPermissionDenied):
		return "permission_denied"
	case errors.Is(err, domain.ErrTrackingSuperseded):
		return "superseded"
	case errors.Is(err, domain.ErrTrackingCancelled):
		return "cancelled"
	}
	return "location_unavailable"
}

// watchBuffer holds watch callbacks until the session they belong to is committed.
type watchBuffer struct {
	mu      sync.Mutex
	ready   bool
	dropped bool
	events  []ports.LocationEvent
	deliver func(ports.LocationEvent)
}

func (b *watchBuffer) push(ev ports.LocationEvent) {
	b.mu.Lock()
	if b.dropped {
		b.mu.Unlock()
		return
	}
	if !b.ready {
		b.events = append(b.events, ev)
		b.mu.Unlock()
		return
	}
	b.mu.Unlock()
	b.deliver(ev)
}

// open replays the held events in arrival order and lets later ones through.
func (b *watchBuffer) open() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := len(b.events)
	for _, ev := range b.events {
		b.deliver(ev)
	}
	b.events = nil
	b.ready = true
	return n
}

func (b *watchBuffer) discard() {
	b.mu.Lock()
	b.dropped = true
	b.events = nil
	b.mu.Unlock()
}

func (t *Tracker) toDomainFix(in ports.FixInput) domain.LocationFix {
	capturedAt := in.CapturedAt
	if capturedAt.IsZero() {
		capturedAt = t.now()
	}
	return domain.LocationFix{
		Coordinate:     domain.Coordinate{Lat: in.Lat, Lng: in.Lng},
		AccuracyMeters: in.AccuracyMeters,
		CapturedAt:     capturedAt.UTC(),
	}
}

func toFixInput(f domain.LocationFix) *ports.FixInput {
	return &ports.FixInput{
		Lat:            f.Coordinate.Lat,
		Lng:            f.Coordinate.Lng,
		AccuracyMeters: f.AccuracyMeters,
		CapturedAt:     f.CapturedAt,
	}
}
