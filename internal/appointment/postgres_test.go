// internal/appointment/postgres_test.go
package appointment

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	stderrors "care-chatbot/internal/common/errors"
	"care-chatbot/internal/common/logger"
	"care-chatbot/internal/models"
)

func newMockStore(t *testing.T) (*PostgresStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresStore(db, logger.NewTestLogger(t)), mock
}

func sampleAppointment() *models.Appointment {
	now := time.Date(2026, time.June, 10, 12, 0, 0, 0, time.UTC)
	return &models.Appointment{
		ID:           "APT-20260610-ABCD1234",
		UserID:       "user-1",
		ServiceType:  "consultation",
		Date:         "2026-06-12",
		Time:         "3:00 PM",
		CustomerName: "Jane Doe",
		Email:        "jane@example.com",
		Status:       models.AppointmentConfirmed,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
}

func appointmentRows(appt *models.Appointment) *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "user_id", "service_type", "date", "time",
		"customer_name", "email", "status", "created_at", "updated_at",
	}).AddRow(
		appt.ID, appt.UserID, appt.ServiceType, appt.Date, appt.Time,
		appt.CustomerName, appt.Email, string(appt.Status), appt.CreatedAt, appt.UpdatedAt,
	)
}

func TestPostgresStore_Create(t *testing.T) {
	store, mock := newMockStore(t)
	appt := sampleAppointment()

	mock.ExpectExec("INSERT INTO appointments").
		WithArgs(appt.ID, appt.UserID, appt.ServiceType, appt.Date, appt.Time,
			appt.CustomerName, appt.Email, "confirmed", appt.CreatedAt, appt.UpdatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, store.Create(context.Background(), appt))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateFailure(t *testing.T) {
	store, mock := newMockStore(t)
	appt := sampleAppointment()

	mock.ExpectExec("INSERT INTO appointments").
		WillReturnError(sql.ErrConnDone)

	err := store.Create(context.Background(), appt)
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, stderrors.ErrCodeAppointmentSaveFailed, stdErr.Code)
}

func TestPostgresStore_GetByID(t *testing.T) {
	store, mock := newMockStore(t)
	appt := sampleAppointment()

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs(appt.ID).
		WillReturnRows(appointmentRows(appt))

	got, err := store.GetByID(context.Background(), appt.ID)
	require.NoError(t, err)
	assert.Equal(t, appt.CustomerName, got.CustomerName)
	assert.Equal(t, models.AppointmentConfirmed, got.Status)
}

func TestPostgresStore_GetByIDNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs("APT-MISSING").
		WillReturnError(sql.ErrNoRows)

	_, err := store.GetByID(context.Background(), "APT-MISSING")
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, stderrors.ErrCodeAppointmentNotFound, stdErr.Code)
}

func TestPostgresStore_Update(t *testing.T) {
	store, mock := newMockStore(t)
	appt := sampleAppointment()
	appt.Time = "4:00 PM"
	appt.Status = models.AppointmentUpdated

	mock.ExpectExec("UPDATE appointments SET").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT .+ FROM appointments WHERE id").
		WithArgs(appt.ID).
		WillReturnRows(appointmentRows(appt))

	got, err := store.Update(context.Background(), appt.ID, map[string]string{
		models.SlotTime: "4:00 PM",
	})
	require.NoError(t, err)
	assert.Equal(t, "4:00 PM", got.Time)
	assert.Equal(t, models.AppointmentUpdated, got.Status)
}

func TestPostgresStore_UpdateNotFound(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec("UPDATE appointments SET").
		WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := store.Update(context.Background(), "APT-MISSING", map[string]string{
		models.SlotTime: "4:00 PM",
	})
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, stderrors.ErrCodeAppointmentNotFound, stdErr.Code)
}

func TestPostgresStore_UpdateRejectsUnknownField(t *testing.T) {
	store, _ := newMockStore(t)

	_, err := store.Update(context.Background(), "APT-X", map[string]string{"owner": "x"})
	require.Error(t, err)

	var stdErr *stderrors.StandardError
	require.ErrorAs(t, err, &stdErr)
	assert.Equal(t, stderrors.ErrCodeInvalidRequest, stdErr.Code)
}

func TestPostgresStore_ListByUser(t *testing.T) {
	store, mock := newMockStore(t)
	appt := sampleAppointment()

	mock.ExpectQuery("SELECT .+ FROM appointments WHERE user_id").
		WithArgs("user-1").
		WillReturnRows(appointmentRows(appt))

	appointments, err := store.ListByUser(context.Background(), "user-1")
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Equal(t, appt.ID, appointments[0].ID)
}

func TestMemoryStore_RoundTrip(t *testing.T) {
	store := NewMemoryStore()
	ctx := context.Background()
	appt := sampleAppointment()

	require.NoError(t, store.Create(ctx, appt))

	got, err := store.GetByID(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Jane Doe", got.CustomerName)

	updated, err := store.Update(ctx, appt.ID, map[string]string{models.SlotEmail: "new@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "new@example.com", updated.Email)
	assert.Equal(t, models.AppointmentUpdated, updated.Status)

	list, err := store.ListByUser(ctx, "user-1")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = store.GetByID(ctx, "APT-NOPE")
	assert.Error(t, err)
}
