package auth

import "time"

// SetNowFunc lets the external auth_test package pin the service clock.
func SetNowFunc(s *Service, now func() time.Time) { s.nowFunc = now }
