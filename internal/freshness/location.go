package freshness

import (
	"fmt"
	"time"

	// Containers ship without a zoneinfo database
	_ "time/tzdata"
)

// DefaultTimezone is the reference zone the upstream sources publish in
const DefaultTimezone = "America/New_York"

// LoadLocation resolves a timezone name, falling back to DefaultTimezone
func LoadLocation(name string) (*time.Location, error) {
	if name == "" {
		name = DefaultTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("failed to load timezone %q: %w", name, err)
	}
	return loc, nil
}
