package database

import (
	"errors"
	"fmt"
	"testing"

	"github.com/lib/pq"
)

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want ErrorClass
	}{
		{"nil", nil, ErrorClassPermanent},
		{"plain", errors.New("boom"), ErrorClassPermanent},
		{"serialization", &pq.Error{Code: "40001"}, ErrorClassSerialization},
		{"deadlock", &pq.Error{Code: "40P01"}, ErrorClassDeadlock},
		{"lock not available", &pq.Error{Code: "55P03"}, ErrorClassTransient},
		{"wrapped deadlock", fmt.Errorf("update stock: %w", &pq.Error{Code: "40P01"}), ErrorClassDeadlock},
		{"unique violation", &pq.Error{Code: "23505"}, ErrorClassPermanent},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ClassifyError(tt.err); got != tt.want {
				t.Errorf("ClassifyError() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !IsUniqueViolation(fmt.Errorf("insert: %w", &pq.Error{Code: "23505"})) {
		t.Error("Expected wrapped 23505 to be a unique violation")
	}
	if IsUniqueViolation(&pq.Error{Code: "40001"}) {
		t.Error("40001 is not a unique violation")
	}
}

func TestRetriesExceeded(t *testing.T) {
	lockErr := fmt.Errorf("lock product (nowait): %w", &pq.Error{Code: "55P03"})
	err := retriesExceeded(3, lockErr)
	if !errors.Is(err, ErrLockTimeout) {
		t.Errorf("Expected ErrLockTimeout, got %v", err)
	}
	if !IsLockNotAvailable(err) {
		t.Error("Expected the pq error to stay wrapped")
	}

	err = retriesExceeded(3, &pq.Error{Code: "40P01"})
	if errors.Is(err, ErrLockTimeout) {
		t.Errorf("Deadlock should not map to ErrLockTimeout: %v", err)
	}
	if ClassifyError(err) != ErrorClassDeadlock {
		t.Errorf("Expected deadlock class to survive wrapping, got %s", ClassifyError(err))
	}
}
