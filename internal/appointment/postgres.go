// internal/appointment/postgres.go
package appointment

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/lib/pq"

	"care-chatbot/internal/common/errors"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

// PostgresStore persists appointments in the appointments table.
type PostgresStore struct {
	db  *sql.DB
	log logger.Logger
}

// NewPostgresStore wraps an open connection pool.
func NewPostgresStore(db *sql.DB, log logger.Logger) *PostgresStore {
	return &PostgresStore{db: db, log: log}
}

// EnsureSchema creates the appointments table when missing.
func (p *PostgresStore) EnsureSchema(ctx context.Context) error {
	const schema = `
		CREATE TABLE IF NOT EXISTS appointments (
			id            TEXT PRIMARY KEY,
			user_id       TEXT NOT NULL,
			service_type  TEXT NOT NULL,
			date          DATE NOT NULL,
			time          TEXT NOT NULL,
			customer_name TEXT NOT NULL,
			email         TEXT NOT NULL,
			status        TEXT NOT NULL,
			created_at    TIMESTAMPTZ NOT NULL,
			updated_at    TIMESTAMPTZ NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_appointments_user_id ON appointments (user_id);`

	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return errors.NewQueryExecutionFailedError("ensure_schema", err)
	}
	return nil
}

func (p *PostgresStore) Create(ctx context.Context, appt *models.Appointment) error {
	const query = `
		INSERT INTO appointments
			(id, user_id, service_type, date, time, customer_name, email, status, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := p.db.ExecContext(ctx, query,
		appt.ID, appt.UserID, appt.ServiceType, appt.Date, appt.Time,
		appt.CustomerName, appt.Email, string(appt.Status), appt.CreatedAt, appt.UpdatedAt,
	)
	if err != nil {
		return errors.NewAppointmentSaveFailedError(err)
	}

	p.log.Info("appointment persisted", map[string]interface{}{
		"appointment_id": appt.ID,
		"user_id":        appt.UserID,
	})
	return nil
}

// allowed update columns, keyed by slot name.
var updateColumns = map[string]string{
	models.SlotServiceType:  "service_type",
	models.SlotDate:         "date",
	models.SlotTime:         "time",
	models.SlotCustomerName: "customer_name",
	models.SlotEmail:        "email",
	"status":                "status",
}

func (p *PostgresStore) Update(ctx context.Context, id string, updates map[string]string) (*models.Appointment, error) {
	setClauses := []string{"status = 'updated'", "updated_at = $1"}
	args := []interface{}{time.Now().UTC()}

	for field, value := range updates {
		column, ok := updateColumns[field]
		if !ok {
			return nil, errors.NewInvalidRequestError("unknown appointment field: " + field)
		}
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}

	args = append(args, id)
	query := fmt.Sprintf("UPDATE appointments SET %s WHERE id = $%d",
		strings.Join(setClauses, ", "), len(args))

	result, err := p.db.ExecContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("update_appointment", err)
	}
	if rows, err := result.RowsAffected(); err == nil && rows == 0 {
		return nil, errors.NewAppointmentNotFoundError(id)
	}

	return p.GetByID(ctx, id)
}

const selectColumns = `id, user_id, service_type, to_char(date, 'YYYY-MM-DD'), time, customer_name, email, status, created_at, updated_at`

func (p *PostgresStore) GetByID(ctx context.Context, id string) (*models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE id = $1", selectColumns)

	appt, err := scanAppointment(p.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewAppointmentNotFoundError(id)
	}
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("get_appointment", err)
	}
	return appt, nil
}

func (p *PostgresStore) ListByUser(ctx context.Context, userID string) ([]models.Appointment, error) {
	query := fmt.Sprintf("SELECT %s FROM appointments WHERE user_id = $1 ORDER BY created_at", selectColumns)

	rows, err := p.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_appointments", err)
	}
	defer rows.Close()

	var appointments []models.Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, errors.NewQueryExecutionFailedError("scan_appointment", err)
		}
		appointments = append(appointments, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewQueryExecutionFailedError("list_appointments", err)
	}
	return appointments, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAppointment(row rowScanner) (*models.Appointment, error) {
	var appt models.Appointment
	var status string
	err := row.Scan(
		&appt.ID, &appt.UserID, &appt.ServiceType, &appt.Date, &appt.Time,
		&appt.CustomerName, &appt.Email, &status, &appt.CreatedAt, &appt.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	appt.Status = models.AppointmentStatus(status)
	return &appt, nil
}
