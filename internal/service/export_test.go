package service

import "time"

// SetNow overrides the loan service clock from tests in service_test.
func SetNow(s *LoanService, now func() time.Time) {
	s.now = now
}
