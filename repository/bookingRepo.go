package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"booking-service/domain"

	"github.com/gocql/gocql"
	"github.com/sirupsen/logrus"
)

// BookingRepo encapsulates the Cassandra client for durable bookings.
// Status transitions are lightweight transactions (IF status = ?) so that a
// duplicate payment callback and a user-driven reload can never both apply
// the same transition.
type BookingRepo struct {
	session *gocql.Session
	logger  *logrus.Logger
}

// New reads the db configuration from the environment, creates the booking
// keyspace if it does not exist and connects to it.
func New(logger *logrus.Logger) (*BookingRepo, error) {
	db := os.Getenv("CASS_DB")

	cluster := gocql.NewCluster(db)
	cluster.Keyspace = "system"
	session, err := cluster.CreateSession()
	if err != nil {
		logger.Error(err)
		return nil, err
	}

	err = session.Query(
		fmt.Sprintf(`CREATE KEYSPACE IF NOT EXISTS %s
					WITH replication = {
						'class' : 'SimpleStrategy',
						'replication_factor' : %d
					}`, "booking", 1)).Exec()
	if err != nil {
		logger.Error(err)
	}
	session.Close()

	cluster.Keyspace = "booking"
	cluster.Consistency = gocql.Quorum
	session, err = cluster.CreateSession()
	if err != nil {
		logger.Error(err)
		return nil, err
	}

	return &BookingRepo{
		session: session,
		logger:  logger,
	}, nil
}

func (r *BookingRepo) CloseSession() {
	r.session.Close()
}

func (r *BookingRepo) CreateTable() {
	err := r.session.Query(
		`CREATE TABLE IF NOT EXISTS bookings (
        id text PRIMARY KEY,
        reference text,
        guest_name text,
        guest_email text,
        guest_phone text,
        check_in timestamp,
        check_out timestamp,
        room_items text,
        addon_items text,
        coupon text,
        currency text,
        room_total double,
        addons_total double,
        discount_amount double,
        total_amount double,
        status text,
        status_history list<text>,
        payment_method text,
        provider_reference text,
        failure_reason text,
        retry_count int,
        created_at timestamp,
        updated_at timestamp
    );`,
	).Exec()

	if err != nil {
		r.logger.Error(err)
	}

	err = r.session.Query(
		`CREATE INDEX IF NOT EXISTS idx_booking_reference ON bookings (reference);`,
	).Exec()

	if err != nil {
		r.logger.Error(err)
	}
}

func (r *BookingRepo) Insert(ctx context.Context, booking *domain.Booking) error {
	roomItems, err := json.Marshal(booking.RoomItems)
	if err != nil {
		return fmt.Errorf("marshal room items: %w", err)
	}

	addonItems, err := json.Marshal(booking.AddonItems)
	if err != nil {
		return fmt.Errorf("marshal addon items: %w", err)
	}

	coupon := ""
	if booking.Coupon != nil {
		raw, err := json.Marshal(booking.Coupon)
		if err != nil {
			return fmt.Errorf("marshal coupon: %w", err)
		}
		coupon = string(raw)
	}

	history, err := marshalHistory(booking.StatusHistory)
	if err != nil {
		return err
	}

	return r.session.Query(
		`INSERT INTO bookings
         (id, reference, guest_name, guest_email, guest_phone, check_in, check_out,
          room_items, addon_items, coupon, currency,
          room_total, addons_total, discount_amount, total_amount,
          status, status_history, payment_method, provider_reference, failure_reason,
          retry_count, created_at, updated_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		booking.ID,
		booking.Reference,
		booking.GuestName,
		booking.GuestEmail,
		booking.GuestPhone,
		booking.CheckIn,
		booking.CheckOut,
		string(roomItems),
		string(addonItems),
		coupon,
		booking.Currency,
		booking.RoomTotal,
		booking.AddonsTotal,
		booking.DiscountAmount,
		booking.TotalAmount,
		string(booking.Status),
		history,
		string(booking.PaymentMethod),
		booking.ProviderReference,
		booking.FailureReason,
		booking.RetryCount,
		booking.CreatedAt,
		booking.UpdatedAt,
	).WithContext(ctx).Exec()
}

func (r *BookingRepo) GetByID(ctx context.Context, id string) (*domain.Booking, error) {
	var (
		booking    domain.Booking
		roomItems  string
		addonItems string
		coupon     string
		status     string
		method     string
		history    []string
	)

	err := r.session.Query(
		`SELECT id, reference, guest_name, guest_email, guest_phone, check_in, check_out,
                room_items, addon_items, coupon, currency,
                room_total, addons_total, discount_amount, total_amount,
                status, status_history, payment_method, provider_reference, failure_reason,
                retry_count, created_at, updated_at
         FROM bookings WHERE id = ?`,
		id,
	).WithContext(ctx).Scan(
		&booking.ID,
		&booking.Reference,
		&booking.GuestName,
		&booking.GuestEmail,
		&booking.GuestPhone,
		&booking.CheckIn,
		&booking.CheckOut,
		&roomItems,
		&addonItems,
		&coupon,
		&booking.Currency,
		&booking.RoomTotal,
		&booking.AddonsTotal,
		&booking.DiscountAmount,
		&booking.TotalAmount,
		&status,
		&history,
		&method,
		&booking.ProviderReference,
		&booking.FailureReason,
		&booking.RetryCount,
		&booking.CreatedAt,
		&booking.UpdatedAt,
	)
	if err != nil {
		if err == gocql.ErrNotFound {
			return nil, domain.ErrBookingNotFound
		}

		return nil, err
	}

	booking.Status = domain.BookingStatus(status)
	booking.PaymentMethod = domain.PaymentMethod(method)

	if err := json.Unmarshal([]byte(roomItems), &booking.RoomItems); err != nil {
		return nil, fmt.Errorf("unmarshal room items: %w", err)
	}

	if addonItems != "" {
		if err := json.Unmarshal([]byte(addonItems), &booking.AddonItems); err != nil {
			return nil, fmt.Errorf("unmarshal addon items: %w", err)
		}
	}

	if coupon != "" {
		booking.Coupon = &domain.CouponSnapshot{}
		if err := json.Unmarshal([]byte(coupon), booking.Coupon); err != nil {
			return nil, fmt.Errorf("unmarshal coupon: %w", err)
		}
	}

	for _, entry := range history {
		var change domain.StatusChange
		if err := json.Unmarshal([]byte(entry), &change); err != nil {
			return nil, fmt.Errorf("unmarshal status history: %w", err)
		}

		booking.StatusHistory = append(booking.StatusHistory, change)
	}

	return &booking, nil
}

// CASStatus transitions id from one status to another only when the stored
// status still matches. It reports whether the update applied and the
// status actually found.
func (r *BookingRepo) CASStatus(ctx context.Context, id string, from, to domain.BookingStatus, reason string) (bool, domain.BookingStatus, error) {
	now := time.Now().UTC()

	entry, err := json.Marshal(domain.StatusChange{Status: to, At: now, Reason: reason})
	if err != nil {
		return false, "", fmt.Errorf("marshal status change: %w", err)
	}

	query := `UPDATE bookings
              SET status = ?, status_history = status_history + ?, updated_at = ?
              WHERE id = ? IF status = ?`
	args := []interface{}{string(to), []string{string(entry)}, now, id, string(from)}

	if to == domain.StatusPaymentFailed {
		query = `UPDATE bookings
                 SET status = ?, status_history = status_history + ?, updated_at = ?, failure_reason = ?
                 WHERE id = ? IF status = ?`
		args = []interface{}{string(to), []string{string(entry)}, now, reason, id, string(from)}
	}

	var current string

	applied, err := r.session.Query(query, args...).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, "", domain.ErrBookingNotFound
		}

		return false, "", err
	}

	if applied {
		return true, to, nil
	}

	return false, domain.BookingStatus(current), nil
}

func (r *BookingRepo) SetPaymentInitiated(ctx context.Context, id string, method domain.PaymentMethod, providerReference string, from, to domain.BookingStatus) (bool, domain.BookingStatus, error) {
	now := time.Now().UTC()

	var current string

	applied, err := r.session.Query(
		`UPDATE bookings
         SET payment_method = ?, provider_reference = ?, status = ?, updated_at = ?
         WHERE id = ? IF status = ?`,
		string(method),
		providerReference,
		string(to),
		now,
		id,
		string(from),
	).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, "", domain.ErrBookingNotFound
		}

		return false, "", err
	}

	if applied {
		return true, to, nil
	}

	return false, domain.BookingStatus(current), nil
}

// ResetForRetry replaces the frozen pricing snapshot with the re-priced one
// and moves the booking back to pending under the same id and reference.
func (r *BookingRepo) ResetForRetry(ctx context.Context, booking *domain.Booking, from domain.BookingStatus) (bool, domain.BookingStatus, error) {
	roomItems, err := json.Marshal(booking.RoomItems)
	if err != nil {
		return false, "", fmt.Errorf("marshal room items: %w", err)
	}

	addonItems, err := json.Marshal(booking.AddonItems)
	if err != nil {
		return false, "", fmt.Errorf("marshal addon items: %w", err)
	}

	coupon := ""
	if booking.Coupon != nil {
		raw, err := json.Marshal(booking.Coupon)
		if err != nil {
			return false, "", fmt.Errorf("marshal coupon: %w", err)
		}
		coupon = string(raw)
	}

	history, err := marshalHistory(booking.StatusHistory)
	if err != nil {
		return false, "", err
	}

	var current string

	applied, err := r.session.Query(
		`UPDATE bookings
         SET room_items = ?, addon_items = ?, coupon = ?,
             room_total = ?, addons_total = ?, discount_amount = ?, total_amount = ?,
             status = ?, status_history = ?, failure_reason = ?, retry_count = ?, updated_at = ?
         WHERE id = ? IF status = ?`,
		string(roomItems),
		string(addonItems),
		coupon,
		booking.RoomTotal,
		booking.AddonsTotal,
		booking.DiscountAmount,
		booking.TotalAmount,
		string(domain.StatusPending),
		history,
		"",
		booking.RetryCount,
		time.Now().UTC(),
		booking.ID,
		string(from),
	).WithContext(ctx).ScanCAS(&current)
	if err != nil {
		if err == gocql.ErrNotFound {
			return false, "", domain.ErrBookingNotFound
		}

		return false, "", err
	}

	if applied {
		return true, domain.StatusPending, nil
	}

	return false, domain.BookingStatus(current), nil
}

func marshalHistory(history []domain.StatusChange) ([]string, error) {
	entries := make([]string, 0, len(history))

	for _, change := range history {
		raw, err := json.Marshal(change)
		if err != nil {
			return nil, fmt.Errorf("marshal status history: %w", err)
		}

		entries = append(entries, string(raw))
	}

	return entries, nil
}
