// Package backend talks to the data service that owns users, streets and
// collection-date records.
package backend

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// Street is one entry of the data service's street register. The core treats
// it as opaque except for comparing Name against user-typed text.
type Street struct {
	ID   int64  `json:"id"`
	Name string `json:"street"`
}

// Date is a calendar day as the data service serializes it.
type Date struct {
	time.Time
}

const dateLayout = "2006-01-02"

// UnmarshalJSON parses Hasura's plain date encoding.
func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "null" || s == "" {
		d.Time = time.Time{}
		return nil
	}

	parsed, err := time.Parse(dateLayout, s)
	if err != nil {
		return fmt.Errorf("parse date %q: %w", s, err)
	}

	d.Time = parsed
	return nil
}

// MarshalJSON renders the plain date encoding.
func (d Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + d.Time.Format(dateLayout) + `"`), nil
}

// Pickup is one scheduled waste-collection event.
type Pickup struct {
	Date      Date
	TrashType string
}

// UserRecord is the address registration written by add_user.
type UserRecord struct {
	ChatID      int64
	FirstName   string
	LastName    string
	StreetID    int64
	HouseNumber string
}

// Service is the data service surface the dialogue engine and the
// notification job consume.
type Service interface {
	// SearchStreets returns up to limit streets ranked by similarity to query.
	SearchStreets(ctx context.Context, query string, limit int) ([]Street, error)
	// StreetID resolves an exact street name; found is false when unknown.
	StreetID(ctx context.Context, exactName string) (id int64, found bool, err error)
	// AddUser registers or updates the chat's address.
	AddUser(ctx context.Context, user UserRecord) error
	// NotificationStatus returns the chat's notification flag; found is false
	// when the chat has no registration yet.
	NotificationStatus(ctx context.Context, chatID int64) (enabled bool, found bool, err error)
	// SetNotification flips the notification flag and returns the new value.
	SetNotification(ctx context.Context, chatID int64, enabled bool) (bool, error)
	// RemoveUserData deletes everything stored for the chat and reports how
	// many records were affected.
	RemoveUserData(ctx context.Context, chatID int64) (int64, error)
	// TomorrowsPickups lists the chat's collection events for tomorrow.
	TomorrowsPickups(ctx context.Context, chatID int64) ([]Pickup, error)
	// UserData returns the stored registration fields for display.
	UserData(ctx context.Context, chatID int64) (map[string]string, error)
	// NotificationRecipients lists chats with notifications enabled.
	NotificationRecipients(ctx context.Context) ([]int64, error)
}
