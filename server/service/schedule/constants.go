package schedule

// Package-level constants for conflict checking.

const (
	// DefaultMaxConflictsListed is the number of conflicts spelled out in a
	// conflict message before the rest are summarised by count.
	DefaultMaxConflictsListed = 3

	// DefaultAlternatives is the number of free slots suggested on a conflict.
	DefaultAlternatives = 3

	// Free slots are only suggested within these hours.
	slotHourStart = 8
	slotHourEnd   = 22
)
