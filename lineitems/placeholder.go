package lineitems

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// PlaceholderPrefix marks ids generated locally for records that do not
// exist in the store yet. PocketBase ids are 15 lowercase alphanumerics, so
// the underscore never collides with a server id.
const PlaceholderPrefix = "tmp_"

// NewPlaceholderID returns a client-side id: prefix, random suffix, timestamp.
func NewPlaceholderID(now time.Time) string {
	return fmt.Sprintf("%s%s_%d", PlaceholderPrefix, uuid.NewString()[:8], now.UnixMilli())
}

// IsPlaceholder reports whether id was generated by NewPlaceholderID.
func IsPlaceholder(id string) bool {
	return strings.HasPrefix(id, PlaceholderPrefix)
}

// persisted reports whether the parent record exists in the store.
func persisted(parentID string) bool {
	return parentID != "" && !IsPlaceholder(parentID)
}
