// Package selector wraps node queries with an explicit match-count policy.
//
// Every lookup in the extraction engine goes through RequireOne or RequireMany, so
// "missing" and "ambiguous" are reported the same way regardless of the query language.
package selector

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a required query matched nothing.
	ErrNotFound = errors.New("no matching element")
	// ErrAmbiguousMatch is returned when a single-element query matched more than once.
	ErrAmbiguousMatch = errors.New("more than one matching element")
)

// QueryError reports that the query itself could not be evaluated, as opposed to
// evaluating cleanly with zero results.
type QueryError struct {
	Err error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("query failed: %v", e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

// Query produces zero or more results.
type Query[T any] func() ([]T, error)

// RequireOne runs query and returns its only result.
//
// Zero results yield ErrNotFound when errorOnEmpty is set, or the zero value of T otherwise.
// More than one result is always ErrAmbiguousMatch.
func RequireOne[T any](query Query[T], errorOnEmpty bool) (T, error) {
	var zero T

	results, err := run(query)
	if err != nil {
		return zero, err
	}

	switch len(results) {
	case 0:
		if errorOnEmpty {
			return zero, ErrNotFound
		}
		return zero, nil
	case 1:
		return results[0], nil
	default:
		return zero, fmt.Errorf("%w: got %d", ErrAmbiguousMatch, len(results))
	}
}

// RequireMany runs query and returns every result.
// Zero results yield ErrNotFound when errorOnEmpty is set, or an empty slice otherwise.
func RequireMany[T any](query Query[T], errorOnEmpty bool) ([]T, error) {
	results, err := run(query)
	if err != nil {
		return nil, err
	}

	if len(results) == 0 {
		if errorOnEmpty {
			return nil, ErrNotFound
		}
		return []T{}, nil
	}
	return results, nil
}

func run[T any](query Query[T]) ([]T, error) {
	results, err := query()
	if err != nil {
		var qe *QueryError
		if errors.As(err, &qe) {
			return nil, err
		}
		return nil, &QueryError{Err: err}
	}
	return results, nil
}
