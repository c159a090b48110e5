package extract

import "fmt"

// AuthenticationError reports rejected or missing warehouse credentials.
type AuthenticationError struct {
	Source string
	Err    error
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("extract: authenticate with %s: %v", e.Source, e.Err)
}

func (e *AuthenticationError) Unwrap() error { return e.Err }

// QueryError reports a query the source failed to run or read back.
type QueryError struct {
	Table string
	Query string
	Err   error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("extract: query for table %q failed: %v", e.Table, e.Err)
}

func (e *QueryError) Unwrap() error { return e.Err }
