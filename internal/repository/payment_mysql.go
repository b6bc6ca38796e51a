package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"terrabid-api/internal/model"
)

// MySQLPaymentRepository implements PaymentRepository against the upstream
// payment processor's MySQL database. Strictly read-only: the payment flow
// itself (order creation, capture) lives upstream.
type MySQLPaymentRepository struct {
	db *sql.DB
}

// NewMySQLPaymentRepository creates a new MySQL payment repository.
func NewMySQLPaymentRepository(db *sql.DB) *MySQLPaymentRepository {
	return &MySQLPaymentRepository{db: db}
}

// GetPayment returns the payment confirmation record by id, or nil if the
// upstream system has no such payment.
func (r *MySQLPaymentRepository) GetPayment(ctx context.Context, paymentID string) (*model.Payment, error) {
	query := `SELECT id, user_id, amount, status, created_at FROM payments WHERE id = ? LIMIT 1`

	var p model.Payment
	err := r.db.QueryRowContext(ctx, query, paymentID).Scan(&p.ID, &p.UserID, &p.Amount, &p.Status, &p.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get payment %s: %w", paymentID, err)
	}
	return &p, nil
}

var _ PaymentRepository = (*MySQLPaymentRepository)(nil)
