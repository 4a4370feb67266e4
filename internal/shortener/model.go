package shortener

import (
	"time"

	"github.com/google/uuid"
)

// Record is a shortened URL.
// ShortCode and OwnerID never change after creation. A record with DeletedAt set
// is invisible to resolution, listing and further mutation.
type Record struct {
	ID          uuid.UUID
	OriginalURL string
	ShortCode   string
	OwnerID     *uuid.UUID
	ClickCount  int64
	CreatedAt   time.Time
	UpdatedAt   time.Time
	DeletedAt   *time.Time
}

// IsDeleted reports whether the record has been soft-deleted.
func (r Record) IsDeleted() bool { return r.DeletedAt != nil }

// IsOwnedBy reports whether owner created the record. Anonymous records are owned by nobody.
func (r Record) IsOwnedBy(owner uuid.UUID) bool {
	return r.OwnerID != nil && owner != uuid.Nil && *r.OwnerID == owner
}

// Clone returns a copy that shares no pointers with r.
func (r Record) Clone() Record {
	out := r
	if r.OwnerID != nil {
		id := *r.OwnerID
		out.OwnerID = &id
	}
	if r.DeletedAt != nil {
		t := *r.DeletedAt
		out.DeletedAt = &t
	}
	return out
}

// OwnerRef converts a caller id into the optional owner field; uuid.Nil means anonymous.
func OwnerRef(caller uuid.UUID) *uuid.UUID {
	if caller == uuid.Nil {
		return nil
	}
	return &caller
}
