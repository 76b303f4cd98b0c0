package repositories

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
)

// Outcome reports which store accepted a write
type Outcome int

const (
	OutcomePrimary Outcome = iota + 1
	OutcomeFallback
)

func (o Outcome) String() string {
	switch o {
	case OutcomePrimary:
		return "primary"
	case OutcomeFallback:
		return "fallback"
	}
	return "none"
}

// WriteError is returned when neither the primary nor the fallback store accepted a write
type WriteError struct {
	Op       string
	Primary  error
	Fallback error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s failed on both stores: primary: %v; fallback: %v", e.Op, e.Primary, e.Fallback)
}

func (e *WriteError) Unwrap() []error {
	return []error{e.Primary, e.Fallback}
}

// writeThrough runs a write against the primary store and mirrors it into the fallback.
// A primary failure other than ErrNotFound is retried once against the fallback alone.
// Mirror failures are logged and do not fail the write.
func writeThrough(log *zap.Logger, op string, primary, fallback func() error) (Outcome, error) {
	perr := primary()
	if perr == nil {
		if err := fallback(); err != nil {
			log.Warn("Snapshot mirror failed", zap.String("op", op), zap.Error(err))
		}
		return OutcomePrimary, nil
	}
	if errors.Is(perr, ErrNotFound) {
		return 0, perr
	}

	log.Warn("Primary store write failed, using snapshot", zap.String("op", op), zap.Error(perr))
	if ferr := fallback(); ferr != nil {
		return 0, &WriteError{Op: op, Primary: perr, Fallback: ferr}
	}
	return OutcomeFallback, nil
}

// readThrough reads from the primary store and consults the fallback when the primary
// errors or does not know the record, since fallback-only writes are never replayed.
func readThrough[T any](log *zap.Logger, op string, primary, fallback func() (T, error)) (T, error) {
	v, perr := primary()
	if perr == nil {
		return v, nil
	}
	if !errors.Is(perr, ErrNotFound) {
		log.Warn("Primary store read failed, using snapshot", zap.String("op", op), zap.Error(perr))
	}
	fv, ferr := fallback()
	if ferr != nil {
		if errors.Is(perr, ErrNotFound) || errors.Is(ferr, ErrNotFound) {
			return fv, ErrNotFound
		}
		return fv, perr
	}
	return fv, nil
}

// mergeByID appends fallback records missing from primary, keeping primary order first
func mergeByID[T any](primary, fallback []T, id func(*T) string) []T {
	seen := make(map[string]bool, len(primary))
	for i := range primary {
		seen[id(&primary[i])] = true
	}
	out := primary
	for i := range fallback {
		if !seen[id(&fallback[i])] {
			out = append(out, fallback[i])
		}
	}
	return out
}

// listThrough lists from the primary store, merged with fallback-only records.
// When the primary errors, the fallback list is served alone.
func listThrough[T any](log *zap.Logger, op string, id func(*T) string, primary, fallback func() ([]T, error)) ([]T, error) {
	items, perr := primary()
	snap, ferr := fallback()
	if perr != nil {
		log.Warn("Primary store list failed, using snapshot", zap.String("op", op), zap.Error(perr))
		if ferr != nil {
			return nil, perr
		}
		return snap, nil
	}
	if ferr != nil {
		log.Warn("Snapshot list failed", zap.String("op", op), zap.Error(ferr))
		return items, nil
	}
	return mergeByID(items, snap, id), nil
}
