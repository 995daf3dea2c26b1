/*
errors.go - Centralized error types for the engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages should wrap these errors with additional context.

ERROR CATEGORIES:
  1. Calendar errors - Impossible business-day lookups
  2. Validation errors - Bad year ranges, configurations, statuses
  3. Store errors - Missing records

SEVERITY:
  Only the conditions below fail a call. Everything the generator can work
  around (missing reference amount, unimplemented regime) is reported as a
  warning string on the result instead.

USAGE:
  if errors.Is(err, generic.ErrInvalidYearRange) {
      // 400
  }

SEE ALSO:
  - businessday.go: RankError
  - fiscal/generator.go: YearRangeError
  - api/handlers.go: maps these to HTTP statuses
*/
package generic

import (
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidRank is returned when a business-day rank is below 1.
	ErrInvalidRank = errors.New("invalid business day rank")

	// ErrRankOutOfMonth is returned when a month runs out of business days
	// before the requested rank is reached.
	ErrRankOutOfMonth = errors.New("business day rank exceeds month")

	// ErrInvalidYearRange is returned when a multi-year request starts after
	// it ends or spans too many years.
	ErrInvalidYearRange = errors.New("invalid year range")

	// ErrInvalidPeriod is returned when a period is malformed (end before start).
	ErrInvalidPeriod = errors.New("invalid period: end before start")

	// ErrInvalidConfig is returned when a configuration record breaks an invariant.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrInvalidStatus is returned for an unknown obligation status.
	ErrInvalidStatus = errors.New("invalid obligation status")

	// ErrConfigNotFound is returned when an entity has no configuration yet.
	ErrConfigNotFound = errors.New("configuration not found")

	// ErrObligationNotFound is returned when a key matches no generated obligation.
	ErrObligationNotFound = errors.New("obligation not found")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// RankError describes a failed NthBusinessDayOfMonth lookup.
type RankError struct {
	Year  int
	Month time.Month
	Rank  int
	Found int // business days seen before the month ended
	Err   error
}

func (e *RankError) Error() string {
	if errors.Is(e.Err, ErrRankOutOfMonth) {
		return fmt.Sprintf("%v: wanted business day %d of %s %d, month has %d",
			e.Err, e.Rank, e.Month, e.Year, e.Found)
	}
	return fmt.Sprintf("%v: %d (%s %d)", e.Err, e.Rank, e.Month, e.Year)
}

func (e *RankError) Unwrap() error { return e.Err }

// YearRangeError provides details about an inverted or oversized year range.
// MaxSpan is set when the range was rejected for its length.
type YearRangeError struct {
	From    int
	To      int
	MaxSpan int
}

func (e *YearRangeError) Error() string {
	if e.MaxSpan > 0 {
		return fmt.Sprintf("%v: %d..%d covers more than %d years", ErrInvalidYearRange, e.From, e.To, e.MaxSpan)
	}
	return fmt.Sprintf("%v: from after to (%d > %d)", ErrInvalidYearRange, e.From, e.To)
}

func (e *YearRangeError) Unwrap() error { return ErrInvalidYearRange }

// ConfigError names the configuration field that failed validation.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("%v: %s: %s", ErrInvalidConfig, e.Field, e.Reason)
}

func (e *ConfigError) Unwrap() error { return ErrInvalidConfig }

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidRank) ||
		errors.Is(err, ErrRankOutOfMonth) ||
		errors.Is(err, ErrInvalidYearRange) ||
		errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidConfig) ||
		errors.Is(err, ErrInvalidStatus)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrConfigNotFound) ||
		errors.Is(err, ErrObligationNotFound)
}
