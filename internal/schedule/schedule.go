// Package schedule computes the bookable time grid of a room and the
// subset of it still available on a given date. Slots are never stored;
// they are recomputed from the room window and the non-cancelled
// reservations every time.
package schedule

import (
	"fmt"
	"time"
)

const (
	TimeLayout = "15:04"
	DateLayout = "2006-01-02"
)

// Grid returns the candidate slot start times for a room operating
// between start and end ("HH:MM") with the given block size in minutes.
// Times step from start by block and stop strictly before end, so a
// trailing partial block is left unused.
func Grid(start, end string, block int) ([]string, error) {
	const op = "schedule.Grid"

	if block <= 0 {
		return nil, fmt.Errorf("%s: time block must be positive, got %d", op, block)
	}

	startT, err := time.Parse(TimeLayout, start)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid start time: %w", op, err)
	}

	endT, err := time.Parse(TimeLayout, end)
	if err != nil {
		return nil, fmt.Errorf("%s: invalid end time: %w", op, err)
	}

	if !endT.After(startT) {
		return nil, fmt.Errorf("%s: end time %q is not after start time %q", op, end, start)
	}

	step := time.Duration(block) * time.Minute

	var grid []string
	for cur := startT; cur.Before(endT); cur = cur.Add(step) {
		grid = append(grid, cur.Format(TimeLayout))
	}

	return grid, nil
}

// Available removes from grid every time claimed by a reservation in
// pending or confirmed state. Order of grid is preserved.
func Available(grid []string, taken []string) []string {
	if len(taken) == 0 {
		free := make([]string, len(grid))
		copy(free, grid)
		return free
	}

	claimed := make(map[string]struct{}, len(taken))
	for _, t := range taken {
		claimed[t] = struct{}{}
	}

	free := make([]string, 0, len(grid))
	for _, t := range grid {
		if _, ok := claimed[t]; ok {
			continue
		}
		free = append(free, t)
	}

	return free
}

// OnGrid reports whether t is a valid slot start for the given window.
func OnGrid(grid []string, t string) bool {
	for _, g := range grid {
		if g == t {
			return true
		}
	}
	return false
}

// ParseDate validates a wire-format calendar date ("2006-01-02"). The
// date stays a plain string end to end; it is parsed for validation
// only and never converted to an instant.
func ParseDate(date string) error {
	const op = "schedule.ParseDate"

	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%s: invalid date %q: %w", op, date, err)
	}

	return nil
}
