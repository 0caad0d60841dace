package store

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ID prefixes per collection.
const (
	PrefixTask        = "task"
	PrefixFamily      = "family"
	PrefixMember      = "member"
	PrefixPreferences = "pref"
	PrefixUser        = "user"
)

// NewID returns an identifier of the form prefix_<unix-millis>_<9 chars>.
func NewID(prefix string) string {
	return newIDAt(prefix, time.Now())
}

func newIDAt(prefix string, now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:9]
	return fmt.Sprintf("%s_%d_%s", prefix, now.UnixMilli(), suffix)
}
