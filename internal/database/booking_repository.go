package database

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/roamtrails/travel-booking-backend/internal/models"
)

// bookingColumns is the column list shared by every booking SELECT
const bookingColumns = `id, booking_reference, package_id, user_id,
	   price, total_amount, additional_services,
	   start_date, end_date, adults, children, special_requests,
	   status, payment_status, payment_method, payment_id,
	   created_at, updated_at`

// BookingRepository handles database operations for the bookings ledger
type BookingRepository struct {
	db DB
}

// NewBookingRepository creates a new BookingRepository
func NewBookingRepository(db DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking
func (r *BookingRepository) Create(booking *models.Booking) error {
	query := `
		INSERT INTO bookings (
			id, booking_reference, package_id, user_id,
			price, total_amount, additional_services,
			start_date, end_date, adults, children, special_requests,
			status, payment_status, payment_method, payment_id
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		RETURNING created_at, updated_at
	`

	if booking.ID == "" {
		booking.ID = uuid.New().String()
	}
	if booking.BookingReference == "" {
		booking.BookingReference = models.NewBookingReference()
	}

	err := r.db.QueryRow(
		query,
		booking.ID, booking.BookingReference, booking.PackageID, booking.UserID,
		booking.Price, booking.TotalAmount, booking.AdditionalServices,
		booking.StartDate, booking.EndDate, booking.Adults, booking.Children, booking.SpecialRequests,
		booking.Status, booking.PaymentStatus, booking.PaymentMethod, booking.PaymentID,
	).Scan(&booking.CreatedAt, &booking.UpdatedAt)

	return err
}

// GetByID retrieves a booking by ID
func (r *BookingRepository) GetByID(bookingID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	return r.scanBooking(r.db.QueryRow(query, bookingID))
}

// GetByReference retrieves a booking by its human-readable reference
func (r *BookingRepository) GetByReference(reference string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_reference = $1`
	return r.scanBooking(r.db.QueryRow(query, reference))
}

// GetByPaymentID retrieves a booking by the gateway payment (transaction) ID.
// Used to deduplicate replayed payment events.
func (r *BookingRepository) GetByPaymentID(paymentID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE payment_id = $1`
	return r.scanBooking(r.db.QueryRow(query, paymentID))
}

// GetByUserID retrieves all bookings for a user, newest first
func (r *BookingRepository) GetByUserID(userID string) ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC`

	rows, err := r.db.Query(query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// GetAll retrieves every booking, newest first
func (r *BookingRepository) GetAll() ([]models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return r.scanBookings(rows)
}

// Update persists the mutable fields of a booking
func (r *BookingRepository) Update(booking *models.Booking) error {
	query := `
		UPDATE bookings
		SET start_date = $2, end_date = $3, adults = $4, children = $5,
			special_requests = $6, status = $7, payment_status = $8,
			payment_method = $9, payment_id = $10, total_amount = $11,
			updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`

	err := r.db.QueryRow(
		query,
		booking.ID, booking.StartDate, booking.EndDate, booking.Adults, booking.Children,
		booking.SpecialRequests, booking.Status, booking.PaymentStatus,
		booking.PaymentMethod, booking.PaymentID, booking.TotalAmount,
	).Scan(&booking.UpdatedAt)

	return err
}

// UpdateStatus updates the booking status only
func (r *BookingRepository) UpdateStatus(bookingID string, status models.BookingStatus) error {
	query := `
		UPDATE bookings
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, bookingID, status)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// UpdatePaymentStatus updates the payment status of a booking
func (r *BookingRepository) UpdatePaymentStatus(bookingID string, status models.PaymentStatus, paymentID *string) error {
	query := `
		UPDATE bookings
		SET payment_status = $2,
			payment_id = COALESCE($3, payment_id),
			updated_at = NOW()
		WHERE id = $1
	`

	result, err := r.db.Exec(query, bookingID, status, paymentID)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return fmt.Errorf("booking not found")
	}

	return nil
}

// GetMonthlyStats aggregates non-cancelled bookings by calendar month of the
// start date, ordered ascending by month
func (r *BookingRepository) GetMonthlyStats() ([]models.MonthlyBookingStat, error) {
	query := `
		SELECT EXTRACT(MONTH FROM start_date)::int AS month,
			   COUNT(*) AS num_bookings,
			   COALESCE(SUM(total_amount), 0) AS total_revenue
		FROM bookings
		WHERE status != 'cancelled'
		GROUP BY month
		ORDER BY month ASC
	`

	rows, err := r.db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := make([]models.MonthlyBookingStat, 0)
	for rows.Next() {
		var stat models.MonthlyBookingStat
		if err := rows.Scan(&stat.Month, &stat.NumBookings, &stat.TotalRevenue); err != nil {
			return nil, err
		}
		stats = append(stats, stat)
	}

	return stats, rows.Err()
}

// scanner abstracts *sql.Row and *sql.Rows for the scan helpers
type scanner interface {
	Scan(dest ...interface{}) error
}

// scanBooking scans a single booking
func (r *BookingRepository) scanBooking(row scanner) (*models.Booking, error) {
	booking := &models.Booking{}
	var specialRequests sql.NullString
	var paymentID sql.NullString

	err := row.Scan(
		&booking.ID, &booking.BookingReference, &booking.PackageID, &booking.UserID,
		&booking.Price, &booking.TotalAmount, &booking.AdditionalServices,
		&booking.StartDate, &booking.EndDate, &booking.Adults, &booking.Children, &specialRequests,
		&booking.Status, &booking.PaymentStatus, &booking.PaymentMethod, &paymentID,
		&booking.CreatedAt, &booking.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if specialRequests.Valid {
		booking.SpecialRequests = &specialRequests.String
	}
	if paymentID.Valid {
		booking.PaymentID = &paymentID.String
	}

	return booking, nil
}

// scanBookings scans multiple bookings
func (r *BookingRepository) scanBookings(rows *sql.Rows) ([]models.Booking, error) {
	bookings := make([]models.Booking, 0)
	for rows.Next() {
		booking, err := r.scanBooking(rows)
		if err != nil {
			return nil, err
		}
		bookings = append(bookings, *booking)
	}
	return bookings, rows.Err()
}
