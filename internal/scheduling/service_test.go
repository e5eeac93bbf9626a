package scheduling

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/hackgods/clinic-backend/internal/events"
)

// memRepo enforces the same invariant as the partial unique index: at most one
// scheduled appointment per practitioner and exact timestamp.
type memRepo struct {
	mu           sync.Mutex
	appointments map[uuid.UUID]*Appointment
}

func newMemRepo() *memRepo {
	return &memRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (r *memRepo) GetAppointment(_ context.Context, id uuid.UUID) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *memRepo) InsertAppointment(_ context.Context, a Appointment) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.slotTakenLocked(a.PractitionerID, a.ScheduledAt) {
		return nil, ErrDoubleBooking
	}

	a.ID = uuid.New()
	a.Status = StatusScheduled
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.appointments[a.ID] = &a

	cp := a
	return &cp, nil
}

func (r *memRepo) RescheduleAppointment(_ context.Context, id uuid.UUID, newAt time.Time) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != StatusScheduled {
		return nil, ErrAppointmentNotFound
	}

	for otherID, other := range r.appointments {
		if otherID != id && other.Status == StatusScheduled &&
			other.PractitionerID == a.PractitionerID && other.ScheduledAt.Equal(newAt) {
			return nil, ErrDoubleBooking
		}
	}

	a.ScheduledAt = newAt
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *memRepo) UpdateAppointmentStatus(_ context.Context, id uuid.UUID, from, to AppointmentStatus, reason *string) (*Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok || a.Status != from {
		return nil, ErrAppointmentNotFound
	}

	a.Status = to
	if reason != nil {
		a.Reason = *reason
	}
	a.UpdatedAt = time.Now()
	cp := *a
	return &cp, nil
}

func (r *memRepo) HasScheduledAt(_ context.Context, practitionerID uuid.UUID, at time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.slotTakenLocked(practitionerID, at), nil
}

func (r *memRepo) ListAppointmentsByPatient(_ context.Context, patientID uuid.UUID, limit, offset int) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			result = append(result, *a)
		}
	}
	return result, nil
}

func (r *memRepo) ListAppointmentsByPractitioner(_ context.Context, practitionerID uuid.UUID, from, to time.Time) ([]Appointment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var result []Appointment
	for _, a := range r.appointments {
		if a.PractitionerID == practitionerID && !a.ScheduledAt.Before(from) && a.ScheduledAt.Before(to) {
			result = append(result, *a)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].ScheduledAt.Before(result[j].ScheduledAt)
	})
	return result, nil
}

func (r *memRepo) slotTakenLocked(practitionerID uuid.UUID, at time.Time) bool {
	for _, a := range r.appointments {
		if a.Status == StatusScheduled && a.PractitionerID == practitionerID && a.ScheduledAt.Equal(at) {
			return true
		}
	}
	return false
}

// passLocker runs the critical section without locking; the repo's uniqueness
// check stands in for the database constraint.
type passLocker struct{}

func (passLocker) WithScheduleLock(ctx context.Context, _ uuid.UUID, _ time.Time, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

var fixedNow = time.Date(2025, 3, 3, 9, 0, 0, 0, time.UTC) // a Monday

func newTestScheduler(repo Repository) *Scheduler {
	s := NewScheduler(repo, passLocker{}, events.NopPublisher{})
	s.nowFn = func() time.Time { return fixedNow }
	return s
}

func scheduleOne(t *testing.T, s *Scheduler, practitionerID uuid.UUID, at time.Time) *Appointment {
	t.Helper()
	appt, err := s.Schedule(context.Background(), ScheduleParams{
		PatientID:      uuid.New(),
		PractitionerID: practitionerID,
		At:             at,
		ServiceType:    "consultation",
		Reason:         "annual checkup",
	})
	if err != nil {
		t.Fatalf("Schedule: %v", err)
	}
	return appt
}

func TestScheduleCreatesScheduledAppointment(t *testing.T) {
	s := newTestScheduler(newMemRepo())

	at := fixedNow.Add(72 * time.Hour)
	appt := scheduleOne(t, s, uuid.New(), at)

	if appt.Status != StatusScheduled {
		t.Errorf("status = %s, want %s", appt.Status, StatusScheduled)
	}
	if !appt.ScheduledAt.Equal(at) {
		t.Errorf("scheduled_at = %s, want %s", appt.ScheduledAt, at)
	}
	if appt.ID == uuid.Nil {
		t.Error("appointment got no id")
	}
}

func TestScheduleRejectsPastTime(t *testing.T) {
	s := newTestScheduler(newMemRepo())

	_, err := s.Schedule(context.Background(), ScheduleParams{
		PatientID:      uuid.New(),
		PractitionerID: uuid.New(),
		At:             fixedNow.Add(-time.Hour),
	})
	if !errors.Is(err, ErrPastDateTime) {
		t.Fatalf("error = %v, want ErrPastDateTime", err)
	}
}

func TestScheduleDetectsDoubleBooking(t *testing.T) {
	s := newTestScheduler(newMemRepo())
	practitioner := uuid.New()
	at := fixedNow.Add(72 * time.Hour)

	scheduleOne(t, s, practitioner, at)

	_, err := s.Schedule(context.Background(), ScheduleParams{
		PatientID:      uuid.New(),
		PractitionerID: practitioner,
		At:             at,
	})
	if !errors.Is(err, ErrDoubleBooking) {
		t.Fatalf("error = %v, want ErrDoubleBooking", err)
	}

	// Same time with another practitioner is fine.
	if _, err := s.Schedule(context.Background(), ScheduleParams{
		PatientID:      uuid.New(),
		PractitionerID: uuid.New(),
		At:             at,
	}); err != nil {
		t.Fatalf("other practitioner, same slot: %v", err)
	}

	// Same practitioner one minute later is fine: equality is exact.
	if _, err := s.Schedule(context.Background(), ScheduleParams{
		PatientID:      uuid.New(),
		PractitionerID: practitioner,
		At:             at.Add(time.Minute),
	}); err != nil {
		t.Fatalf("same practitioner, adjacent slot: %v", err)
	}
}

// Exactly one of N concurrent bookers for the same slot wins.
func TestScheduleConcurrentSameSlot(t *testing.T) {
	s := newTestScheduler(newMemRepo())
	practitioner := uuid.New()
	at := fixedNow.Add(72 * time.Hour)

	const bookers = 10

	var wg sync.WaitGroup
	var mu sync.Mutex
	var won, lost int

	for i := 0; i < bookers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := s.Schedule(context.Background(), ScheduleParams{
				PatientID:      uuid.New(),
				PractitionerID: practitioner,
				At:             at,
			})

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				won++
			case errors.Is(err, ErrDoubleBooking):
				lost++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if won != 1 || lost != bookers-1 {
		t.Fatalf("won=%d lost=%d, want 1 and %d", won, lost, bookers-1)
	}
}

func TestRescheduleMovesScheduledAppointment(t *testing.T) {
	repo := newMemRepo()
	s := newTestScheduler(repo)
	practitioner := uuid.New()

	appt := scheduleOne(t, s, practitioner, fixedNow.Add(72*time.Hour))

	newAt := fixedNow.Add(96 * time.Hour)
	moved, err := s.Reschedule(context.Background(), appt.ID, newAt)
	if err != nil {
		t.Fatalf("Reschedule: %v", err)
	}
	if !moved.ScheduledAt.Equal(newAt) {
		t.Errorf("scheduled_at = %s, want %s", moved.ScheduledAt, newAt)
	}

	// The old slot is free again.
	ok, err := s.IsAvailable(context.Background(), practitioner, fixedNow.Add(72*time.Hour))
	if err != nil || !ok {
		t.Errorf("old slot availability = %v, %v, want true", ok, err)
	}
}

func TestRescheduleRejections(t *testing.T) {
	s := newTestScheduler(newMemRepo())
	practitioner := uuid.New()

	appt := scheduleOne(t, s, practitioner, fixedNow.Add(72*time.Hour))
	other := scheduleOne(t, s, practitioner, fixedNow.Add(96*time.Hour))

	if _, err := s.Reschedule(context.Background(), appt.ID, fixedNow.Add(-time.Hour)); !errors.Is(err, ErrPastDateTime) {
		t.Errorf("past reschedule error = %v, want ErrPastDateTime", err)
	}

	if _, err := s.Reschedule(context.Background(), appt.ID, other.ScheduledAt); !errors.Is(err, ErrDoubleBooking) {
		t.Errorf("conflicting reschedule error = %v, want ErrDoubleBooking", err)
	}

	if _, err := s.Cancel(context.Background(), appt.ID, ""); err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if _, err := s.Reschedule(context.Background(), appt.ID, fixedNow.Add(120*time.Hour)); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("cancelled reschedule error = %v, want ErrInvalidStatusTransition", err)
	}

	if _, err := s.Reschedule(context.Background(), uuid.New(), fixedNow.Add(120*time.Hour)); !errors.Is(err, ErrAppointmentNotFound) {
		t.Errorf("unknown id reschedule error = %v, want ErrAppointmentNotFound", err)
	}
}

func TestCancelAppendsNoteAndIsIdempotent(t *testing.T) {
	s := newTestScheduler(newMemRepo())

	appt := scheduleOne(t, s, uuid.New(), fixedNow.Add(72*time.Hour))

	cancelled, err := s.Cancel(context.Background(), appt.ID, "owner travelling")
	if err != nil {
		t.Fatalf("Cancel: %v", err)
	}
	if cancelled.Status != StatusCancelled {
		t.Errorf("status = %s, want %s", cancelled.Status, StatusCancelled)
	}
	if !strings.Contains(cancelled.Reason, "annual checkup") || !strings.Contains(cancelled.Reason, "cancelled: owner travelling") {
		t.Errorf("reason = %q, want original motive plus cancellation note", cancelled.Reason)
	}

	// Cancelling again is a no-op, not an error.
	again, err := s.Cancel(context.Background(), appt.ID, "duplicate click")
	if err != nil {
		t.Fatalf("second Cancel: %v", err)
	}
	if again.Status != StatusCancelled {
		t.Errorf("status after second cancel = %s", again.Status)
	}
	if strings.Contains(again.Reason, "duplicate click") {
		t.Errorf("second cancel appended a note: %q", again.Reason)
	}
}

func TestCompleteAndTerminalStates(t *testing.T) {
	s := newTestScheduler(newMemRepo())

	appt := scheduleOne(t, s, uuid.New(), fixedNow.Add(72*time.Hour))

	done, err := s.Complete(context.Background(), appt.ID)
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if done.Status != StatusCompleted {
		t.Errorf("status = %s, want %s", done.Status, StatusCompleted)
	}

	if _, err := s.Complete(context.Background(), appt.ID); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("second Complete error = %v, want ErrInvalidStatusTransition", err)
	}
	if _, err := s.Cancel(context.Background(), appt.ID, ""); !errors.Is(err, ErrInvalidStatusTransition) {
		t.Errorf("Cancel after Complete error = %v, want ErrInvalidStatusTransition", err)
	}
}

func TestListAppointmentsByPractitionerWindow(t *testing.T) {
	s := newTestScheduler(newMemRepo())
	practitioner := uuid.New()

	early := scheduleOne(t, s, practitioner, fixedNow.Add(24*time.Hour))
	late := scheduleOne(t, s, practitioner, fixedNow.Add(48*time.Hour))
	scheduleOne(t, s, practitioner, fixedNow.Add(30*24*time.Hour)) // outside window
	scheduleOne(t, s, uuid.New(), fixedNow.Add(24*time.Hour))      // other practitioner

	agenda, err := s.ListAppointmentsByPractitioner(context.Background(), practitioner, fixedNow, fixedNow.AddDate(0, 0, 7))
	if err != nil {
		t.Fatalf("ListAppointmentsByPractitioner: %v", err)
	}

	if len(agenda) != 2 {
		t.Fatalf("agenda has %d appointments, want 2", len(agenda))
	}
	if agenda[0].ID != early.ID || agenda[1].ID != late.ID {
		t.Errorf("agenda order = [%s %s], want earliest first", agenda[0].ID, agenda[1].ID)
	}
}

func TestListAppointmentsByPractitionerDefaultsWindow(t *testing.T) {
	s := newTestScheduler(newMemRepo())
	practitioner := uuid.New()

	inWeek := scheduleOne(t, s, practitioner, fixedNow.Add(48*time.Hour))
	scheduleOne(t, s, practitioner, fixedNow.Add(10*24*time.Hour)) // past the default week

	agenda, err := s.ListAppointmentsByPractitioner(context.Background(), practitioner, time.Time{}, time.Time{})
	if err != nil {
		t.Fatalf("ListAppointmentsByPractitioner: %v", err)
	}
	if len(agenda) != 1 || agenda[0].ID != inWeek.ID {
		t.Fatalf("default window agenda = %+v, want just the appointment within a week", agenda)
	}

	if _, err := s.ListAppointmentsByPractitioner(context.Background(), practitioner, fixedNow, fixedNow.Add(-time.Hour)); !errors.Is(err, ErrInvalidWindow) {
		t.Errorf("inverted window error = %v, want ErrInvalidWindow", err)
	}
}

func TestCompletedSlotBecomesAvailable(t *testing.T) {
	s := newTestScheduler(newMemRepo())
	practitioner := uuid.New()
	at := fixedNow.Add(72 * time.Hour)

	appt := scheduleOne(t, s, practitioner, at)

	ok, _ := s.IsAvailable(context.Background(), practitioner, at)
	if ok {
		t.Error("slot available while appointment scheduled")
	}

	if _, err := s.Complete(context.Background(), appt.ID); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	// Only scheduled rows block the slot.
	ok, _ = s.IsAvailable(context.Background(), practitioner, at)
	if !ok {
		t.Error("slot still blocked by a completed appointment")
	}
}
