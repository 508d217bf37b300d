// pocketbase.go validates PocketBase identifiers.

package validate

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	collectionName = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	recordID       = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)
)

// Collection validates a collection name or id.
//
// Validation rules:
//   - Empty names rejected
//   - Only letters, digits and underscores (PocketBase's own rule; system
//     collections such as _superusers start with an underscore)
func Collection(name string) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("%w: empty collection name", ErrInvalidCollection)
	}
	if !collectionName.MatchString(name) {
		return fmt.Errorf("%w: %q may only contain letters, digits and underscores", ErrInvalidCollection, name)
	}
	return nil
}

// RecordID validates a record id. PocketBase generates 15 character
// alphanumeric ids, but custom ids may be set on create, so only the
// character set and a sane length are enforced.
func RecordID(id string) error {
	if id == "" {
		return fmt.Errorf("%w: empty id", ErrInvalidRecordID)
	}
	if len(id) > 255 {
		return fmt.Errorf("%w: id longer than 255 characters", ErrInvalidRecordID)
	}
	if !recordID.MatchString(id) {
		return fmt.Errorf("%w: %q contains characters other than letters, digits, '_' and '-'", ErrInvalidRecordID, id)
	}
	return nil
}
