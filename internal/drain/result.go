package drain

import (
	"errors"

	"editpdf/internal/docconv"
)

// Entry outcomes reported to observers and tallied in Summary.
const (
	EntryAbandoned   = "abandoned"
	EntryExhausted   = "exhausted"
	EntryCompleted   = "completed"
	EntryRetained    = "retained"
	EntrySkipped     = "skipped"
	EntryInterrupted = "interrupted"
)

// User outcomes reported to observers.
const (
	UserConverted = "converted"
	UserPolling   = "polling"
	UserFailed    = "failed"
)

// UnexpectedErrorCode tags converter failures that carry no service error code.
const UnexpectedErrorCode = "unexpected"

type userOutcome int

const (
	userConverted userOutcome = iota
	userPolling
	userFailed
)

func (o userOutcome) String() string {
	switch o {
	case userPolling:
		return UserPolling
	case userFailed:
		return UserFailed
	default:
		return UserConverted
	}
}

// userResult is the outcome of converting one affected user's attempt.
type userResult struct {
	userID  int64
	outcome userOutcome
	code    string
	domain  bool
	err     error
}

func convertedResult(userID int64) userResult {
	return userResult{userID: userID, outcome: userConverted}
}

func pollingResult(userID int64) userResult {
	return userResult{userID: userID, outcome: userPolling}
}

func failedResult(userID int64, err error) userResult {
	var convErr *docconv.ConversionError
	if errors.As(err, &convErr) {
		return userResult{userID: userID, outcome: userFailed, code: convErr.Code, domain: true, err: err}
	}
	return userResult{userID: userID, outcome: userFailed, code: UnexpectedErrorCode, err: err}
}

// Summary tallies what one Drain call did.
type Summary struct {
	RunID          string
	Fetched        int
	Abandoned      int
	Exhausted      int
	Completed      int
	Retained       int
	Skipped        int
	DeleteFailures int
	UsersConverted int
	UsersPolling   int
	UserFailures   int
}

// Processed returns the number of entries the drain reached a decision for.
func (s Summary) Processed() int {
	return s.Abandoned + s.Exhausted + s.Completed + s.Retained + s.Skipped
}

func (s *Summary) addEntry(outcome string) {
	switch outcome {
	case EntryAbandoned:
		s.Abandoned++
	case EntryExhausted:
		s.Exhausted++
	case EntryCompleted:
		s.Completed++
	case EntryRetained:
		s.Retained++
	case EntrySkipped:
		s.Skipped++
	}
}

func (s *Summary) addUser(result userResult) {
	switch result.outcome {
	case userConverted:
		s.UsersConverted++
	case userPolling:
		s.UsersPolling++
	case userFailed:
		s.UserFailures++
	}
}
