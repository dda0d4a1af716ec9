// internal/appointment/store.go
package appointment

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"care-chatbot/internal/common/errors"
	"care-chatbot/internal/models"
)

// Store persists appointments. Appointments are never hard-deleted;
// cancellations and edits are status transitions.
type Store interface {
	Create(ctx context.Context, appt *models.Appointment) error
	Update(ctx context.Context, id string, updates map[string]string) (*models.Appointment, error)
	GetByID(ctx context.Context, id string) (*models.Appointment, error)
	ListByUser(ctx context.Context, userID string) ([]models.Appointment, error)
}

// NewAppointmentID generates the external booking reference.
func NewAppointmentID(now time.Time) string {
	return "APT-" + now.Format("20060102") + "-" + strings.ToUpper(uuid.New().String()[:8])
}

// ==========================
// In-memory store
// ==========================

// MemoryStore keeps appointments in process memory. It backs tests and
// deployments without Postgres.
type MemoryStore struct {
	mu           sync.RWMutex
	appointments map[string]models.Appointment
	byUser       map[string][]string
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		appointments: make(map[string]models.Appointment),
		byUser:       make(map[string][]string),
	}
}

func (m *MemoryStore) Create(_ context.Context, appt *models.Appointment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appointments[appt.ID] = *appt
	m.byUser[appt.UserID] = append(m.byUser[appt.UserID], appt.ID)
	return nil
}

func (m *MemoryStore) Update(_ context.Context, id string, updates map[string]string) (*models.Appointment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	appt, ok := m.appointments[id]
	if !ok {
		return nil, errors.NewAppointmentNotFoundError(id)
	}

	applyUpdates(&appt, updates)
	appt.Status = models.AppointmentUpdated
	appt.UpdatedAt = time.Now().UTC()
	m.appointments[id] = appt
	return &appt, nil
}

func (m *MemoryStore) GetByID(_ context.Context, id string) (*models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	appt, ok := m.appointments[id]
	if !ok {
		return nil, errors.NewAppointmentNotFoundError(id)
	}
	return &appt, nil
}

func (m *MemoryStore) ListByUser(_ context.Context, userID string) ([]models.Appointment, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := m.byUser[userID]
	appointments := make([]models.Appointment, 0, len(ids))
	for _, id := range ids {
		appointments = append(appointments, m.appointments[id])
	}
	return appointments, nil
}

func applyUpdates(appt *models.Appointment, updates map[string]string) {
	for field, value := range updates {
		switch field {
		case models.SlotServiceType:
			appt.ServiceType = value
		case models.SlotDate:
			appt.Date = value
		case models.SlotTime:
			appt.Time = value
		case models.SlotCustomerName:
			appt.CustomerName = value
		case models.SlotEmail:
			appt.Email = value
		case "status":
			appt.Status = models.AppointmentStatus(value)
		}
	}
}
