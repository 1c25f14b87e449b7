package database

import (
	"database/sql"
	"database/sql/driver"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roamtrails/travel-booking-backend/internal/models"
)

var bookingTestColumns = []string{
	"id", "booking_reference", "package_id", "user_id",
	"price", "total_amount", "additional_services",
	"start_date", "end_date", "adults", "children", "special_requests",
	"status", "payment_status", "payment_method", "payment_id",
	"created_at", "updated_at",
}

func bookingRow(id, reference, packageID, userID string, now time.Time) []driver.Value {
	return []driver.Value{
		id, reference, packageID, userID,
		1000.0, 2750.0, []byte(`[{"name":"Insurance","price":50}]`),
		now, now.AddDate(0, 0, 4), 2, 1, nil,
		"confirmed", "paid", "credit_card", "pi_123",
		now, now,
	}
}

func TestCreateBooking(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		now := time.Now()
		paymentID := "pi_123"
		booking := &models.Booking{
			PackageID:     uuid.New().String(),
			UserID:        uuid.New().String(),
			Price:         1000,
			TotalAmount:   2750,
			StartDate:     now,
			EndDate:       now.AddDate(0, 0, 4),
			Adults:        2,
			Children:      1,
			Status:        models.BookingStatusConfirmed,
			PaymentStatus: models.PaymentStatusPaid,
			PaymentMethod: models.PaymentMethodCreditCard,
			PaymentID:     &paymentID,
		}

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.Create(booking)
		require.NoError(t, err)
		assert.NotEmpty(t, booking.ID)
		assert.Len(t, booking.BookingReference, 8)
		assert.Equal(t, now, booking.CreatedAt)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Keeps Provided Reference", func(t *testing.T) {
		now := time.Now()
		booking := &models.Booking{
			BookingReference: "TRIPCODE",
			PackageID:        uuid.New().String(),
			UserID:           uuid.New().String(),
			Price:            500,
			TotalAmount:      500,
			StartDate:        now,
			EndDate:          now.AddDate(0, 0, 2),
			Adults:           1,
			Status:           models.BookingStatusConfirmed,
			PaymentStatus:    models.PaymentStatusPending,
			PaymentMethod:    models.PaymentMethodBankTransfer,
		}

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnRows(sqlmock.NewRows([]string{"created_at", "updated_at"}).AddRow(now, now))

		err := repo.Create(booking)
		require.NoError(t, err)
		assert.Equal(t, "TRIPCODE", booking.BookingReference)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Unique Violation", func(t *testing.T) {
		booking := &models.Booking{
			PackageID:     uuid.New().String(),
			UserID:        uuid.New().String(),
			Adults:        1,
			Status:        models.BookingStatusConfirmed,
			PaymentStatus: models.PaymentStatusPaid,
			PaymentMethod: models.PaymentMethodCreditCard,
		}

		mock.ExpectQuery(`INSERT INTO bookings`).
			WillReturnError(fmt.Errorf("duplicate key value violates unique constraint %q", "idx_bookings_payment_id"))

		err := repo.Create(booking)
		assert.Error(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookingByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnRows(sqlmock.NewRows(bookingTestColumns).
				AddRow(bookingRow(bookingID, "ABCD2345", uuid.New().String(), uuid.New().String(), now)...))

		booking, err := repo.GetByID(bookingID)
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)
		assert.Equal(t, "ABCD2345", booking.BookingReference)
		assert.Equal(t, models.BookingStatusConfirmed, booking.Status)
		assert.Len(t, booking.AdditionalServices, 1)
		assert.Equal(t, "Insurance", booking.AdditionalServices[0].Name)
		require.NotNil(t, booking.PaymentID)
		assert.Equal(t, "pi_123", *booking.PaymentID)
		assert.Nil(t, booking.SpecialRequests)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		bookingID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE id`).
			WithArgs(bookingID).
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.GetByID(bookingID)
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookingByPaymentID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE payment_id`).
			WithArgs("pi_123").
			WillReturnRows(sqlmock.NewRows(bookingTestColumns).
				AddRow(bookingRow(bookingID, "ABCD2345", uuid.New().String(), uuid.New().String(), now)...))

		booking, err := repo.GetByPaymentID("pi_123")
		require.NoError(t, err)
		assert.Equal(t, bookingID, booking.ID)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("No Booking For Payment", func(t *testing.T) {
		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE payment_id`).
			WithArgs("pi_unknown").
			WillReturnError(sql.ErrNoRows)

		booking, err := repo.GetByPaymentID("pi_unknown")
		assert.ErrorIs(t, err, sql.ErrNoRows)
		assert.Nil(t, booking)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetBookingsByUserID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		userID := uuid.New().String()
		now := time.Now()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE user_id (.+) ORDER BY created_at DESC`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(bookingTestColumns).
				AddRow(bookingRow(uuid.New().String(), "AAAA2222", uuid.New().String(), userID, now)...).
				AddRow(bookingRow(uuid.New().String(), "BBBB3333", uuid.New().String(), userID, now)...))

		bookings, err := repo.GetByUserID(userID)
		require.NoError(t, err)
		assert.Len(t, bookings, 2)
		assert.Equal(t, "AAAA2222", bookings[0].BookingReference)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Result", func(t *testing.T) {
		userID := uuid.New().String()

		mock.ExpectQuery(`SELECT (.+) FROM bookings WHERE user_id`).
			WithArgs(userID).
			WillReturnRows(sqlmock.NewRows(bookingTestColumns))

		bookings, err := repo.GetByUserID(userID)
		require.NoError(t, err)
		assert.Len(t, bookings, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBookingStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		bookingID := uuid.New().String()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, models.BookingStatusCancelled).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdateStatus(bookingID, models.BookingStatusCancelled)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking Not Found", func(t *testing.T) {
		bookingID := uuid.New().String()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, models.BookingStatusCancelled).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdateStatus(bookingID, models.BookingStatusCancelled)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "booking not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestUpdateBookingPaymentStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBookingRepository(mockDB)

	t.Run("Success With Payment ID", func(t *testing.T) {
		bookingID := uuid.New().String()
		paymentID := "pi_456"

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, models.PaymentStatusPaid, paymentID).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePaymentStatus(bookingID, models.PaymentStatusPaid, &paymentID)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Success Without Payment ID", func(t *testing.T) {
		bookingID := uuid.New().String()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, models.PaymentStatusFailed, nil).
			WillReturnResult(sqlmock.NewResult(0, 1))

		err := repo.UpdatePaymentStatus(bookingID, models.PaymentStatusFailed, nil)
		require.NoError(t, err)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Booking Not Found", func(t *testing.T) {
		bookingID := uuid.New().String()

		mock.ExpectExec(`UPDATE bookings`).
			WithArgs(bookingID, models.PaymentStatusPaid, nil).
			WillReturnResult(sqlmock.NewResult(0, 0))

		err := repo.UpdatePaymentStatus(bookingID, models.PaymentStatusPaid, nil)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "booking not found")

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGetMonthlyStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mockDB := &mockDatabase{db: db}
	repo := NewBookingRepository(mockDB)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXTRACT\(MONTH FROM start_date\)`).
			WillReturnRows(sqlmock.NewRows([]string{"month", "num_bookings", "total_revenue"}).
				AddRow(1, 3, 4500.0).
				AddRow(4, 1, 2750.0))

		stats, err := repo.GetMonthlyStats()
		require.NoError(t, err)
		require.Len(t, stats, 2)
		assert.Equal(t, 1, stats[0].Month)
		assert.Equal(t, 3, stats[0].NumBookings)
		assert.Equal(t, 4500.0, stats[0].TotalRevenue)
		assert.Equal(t, 4, stats[1].Month)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Empty Result", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXTRACT\(MONTH FROM start_date\)`).
			WillReturnRows(sqlmock.NewRows([]string{"month", "num_bookings", "total_revenue"}))

		stats, err := repo.GetMonthlyStats()
		require.NoError(t, err)
		assert.Len(t, stats, 0)

		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`SELECT EXTRACT\(MONTH FROM start_date\)`).
			WillReturnError(fmt.Errorf("database error"))

		stats, err := repo.GetMonthlyStats()
		assert.Error(t, err)
		assert.Nil(t, stats)

		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// Mock database implementation for testing
type mockDatabase struct {
	db *sql.DB
}

func (m *mockDatabase) Get(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Get not implemented in mock")
}

func (m *mockDatabase) Select(dest interface{}, query string, args ...interface{}) error {
	return fmt.Errorf("Select not implemented in mock")
}

func (m *mockDatabase) Query(query string, args ...interface{}) (*sql.Rows, error) {
	return m.db.Query(query, args...)
}

func (m *mockDatabase) QueryRow(query string, args ...interface{}) *sql.Row {
	return m.db.QueryRow(query, args...)
}

func (m *mockDatabase) Exec(query string, args ...interface{}) (sql.Result, error) {
	return m.db.Exec(query, args...)
}

func (m *mockDatabase) Close() error {
	return m.db.Close()
}

func (m *mockDatabase) Ping() error {
	return m.db.Ping()
}
