// Package models defines GORM database models for guidesync entities.
package models

import (
	"crypto/rand"
	"database/sql/driver"
	"fmt"
	"time"

	"github.com/oklog/ulid/v2"
	"gorm.io/gorm"
)

// BoolPtr returns a pointer to a bool value.
func BoolPtr(b bool) *bool {
	return &b
}

// BoolVal returns the value of a bool pointer, defaulting to true when
// nil. Matches GORM's default:true behavior for optional bool fields.
func BoolVal(b *bool) bool {
	return b == nil || *b
}

// ULID is a lexicographically sortable primary key, stored as its
// 26-character string form.
type ULID ulid.ULID

// NewULID generates a new ULID from the current time.
func NewULID() ULID {
	return ULID(ulid.MustNew(ulid.Timestamp(time.Now()), rand.Reader))
}

// ParseULID parses a ULID string.
func ParseULID(s string) (ULID, error) {
	id, err := ulid.Parse(s)
	if err != nil {
		return ULID{}, fmt.Errorf("invalid ULID: %w", err)
	}
	return ULID(id), nil
}

func (u ULID) String() string {
	return ulid.ULID(u).String()
}

// IsZero reports whether the ULID is unset.
func (u ULID) IsZero() bool {
	return u == ULID{}
}

// Value implements driver.Valuer; the zero ULID stores as NULL.
func (u ULID) Value() (driver.Value, error) {
	if u.IsZero() {
		return nil, nil
	}
	return u.String(), nil
}

// Scan implements sql.Scanner.
func (u *ULID) Scan(value any) error {
	var s string
	switch v := value.(type) {
	case nil:
		*u = ULID{}
		return nil
	case string:
		s = v
	case []byte:
		s = string(v)
	default:
		return fmt.Errorf("unsupported type for ULID: %T", value)
	}

	if s == "" {
		*u = ULID{}
		return nil
	}
	id, err := ulid.Parse(s)
	if err != nil {
		return fmt.Errorf("scanning ULID: %w", err)
	}
	*u = ULID(id)
	return nil
}

// MarshalJSON implements json.Marshaler; the zero ULID marshals as null.
func (u ULID) MarshalJSON() ([]byte, error) {
	if u.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + u.String() + `"`), nil
}

// UnmarshalJSON implements json.Unmarshaler.
func (u *ULID) UnmarshalJSON(data []byte) error {
	s := string(data)
	if s == "null" || s == `""` {
		*u = ULID{}
		return nil
	}
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("invalid ULID JSON: %s", s)
	}
	id, err := ulid.Parse(s[1 : len(s)-1])
	if err != nil {
		return fmt.Errorf("parsing ULID JSON: %w", err)
	}
	*u = ULID(id)
	return nil
}

// GormDataType returns the column type backing a ULID.
func (ULID) GormDataType() string {
	return "varchar(26)"
}

// BaseModel provides the common fields for persisted entities, with a
// ULID primary key.
type BaseModel struct {
	ID        ULID           `gorm:"primarykey;type:varchar(26)" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at"`
}

// BeforeCreate assigns a ULID when none is set.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID.IsZero() {
		b.ID = NewULID()
	}
	return nil
}

// Time is an alias for time.Time used in models.
type Time = time.Time

// Now returns the current time.
func Now() Time {
	return time.Now()
}
