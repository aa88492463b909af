package db

import (
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

func TestIsUniqueViolationTypedErrors(t *testing.T) {
	pgxDup := &pgconn.PgError{Code: "23505", ConstraintName: "uq_users_phone"}
	pqDup := &pq.Error{Code: "23505", Constraint: "uq_coupons_code"}
	pgxFK := &pgconn.PgError{Code: "23503", ConstraintName: "fk_bookings_pet"}

	if !IsUniqueViolation(pgxDup, "") {
		t.Fatal("pgx duplicate key not detected")
	}
	if !IsUniqueViolation(pgxDup, "uq_users_phone") {
		t.Fatal("pgx constraint scope not matched")
	}
	if IsUniqueViolation(pgxDup, "uq_coupons_code") {
		t.Fatal("pgx matched the wrong constraint")
	}
	if !IsUniqueViolation(pqDup, "uq_coupons_code") {
		t.Fatal("pq duplicate key not detected")
	}
	if IsUniqueViolation(pgxFK, "") {
		t.Fatal("foreign key violation misread as unique violation")
	}
}

func TestIsUniqueViolationWrappedAndFallback(t *testing.T) {
	wrapped := fmt.Errorf("create coupon: %w", &pgconn.PgError{Code: "23505", ConstraintName: "uq_coupons_code"})
	if !IsUniqueViolation(wrapped, "uq_coupons_code") {
		t.Fatal("wrapped pgx error not detected")
	}

	sqliteDup := errors.New("UNIQUE constraint failed: users.phone")
	if !IsUniqueViolation(sqliteDup, "") {
		t.Fatal("sqlite duplicate not detected by fallback")
	}

	if IsUniqueViolation(nil, "") {
		t.Fatal("nil error reported as violation")
	}
	if IsUniqueViolation(errors.New("connection reset"), "") {
		t.Fatal("unrelated error reported as violation")
	}
}
