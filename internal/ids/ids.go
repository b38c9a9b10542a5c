package ids

import (
	"fmt"

	"github.com/segmentio/ksuid"
)

// New returns a sortable unique identifier for database records.
func New() string {
	return ksuid.New().String()
}

// PublicUserID formats the sequential, human-readable user identifier
// used in storage folder paths and operator tooling.
func PublicUserID(seq int64) string {
	return fmt.Sprintf("usr-%05d", seq)
}
