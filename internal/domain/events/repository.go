package events

import (
	"context"
	"errors"
	"time"

	"github.com/mingle-social/server/internal/authz"
	"github.com/mingle-social/server/internal/domain/users"
)

var (
	ErrNotFound      = errors.New("event not found")
	ErrForbidden     = errors.New("not allowed to modify this event")
	ErrUserNotFound  = errors.New("user not found")
	ErrImmovableHost = errors.New("cannot remove this host")
)

// HostRole aliases the shared role vocabulary.
type HostRole = authz.Role

type Event struct {
	ID            int64
	CoverPhotoID  *int64
	Title         string
	Description   string
	StartTime     time.Time
	StreetAddress *string
	City          *string
	State         *string
	Zipcode       *string
	Country       *string
	CreatedAt     time.Time

	// Hosts and AttendeeIDs are populated on detail reads only.
	Hosts       []Host
	AttendeeIDs []int64
}

type Host struct {
	UserID   int64
	Username string
	Role     HostRole
}

// TimeRange selects events relative to now for hosting/RSVP listings.
type TimeRange string

const (
	RangeUpcoming TimeRange = "upcoming"
	RangePast     TimeRange = "past"
	RangeAll      TimeRange = "all"
)

func (r TimeRange) Valid() bool {
	return r == RangeUpcoming || r == RangePast || r == RangeAll
}

type CoverUpload struct {
	Filename    string
	ContentType string
	Data        []byte
}

type CreateParams struct {
	Title         string
	Description   string
	StartTime     time.Time
	StreetAddress *string
	City          *string
	State         *string
	Zipcode       *string
	Country       *string
	Cover         *CoverUpload
}

type UpdateParams struct {
	Title         *string
	Description   *string
	StartTime     *time.Time
	StreetAddress *string
	City          *string
	State         *string
	Zipcode       *string
	Country       *string
}

type SearchFilters struct {
	Query   string
	City    string
	State   string
	Country string
	Zipcode string
	From    time.Time
	To      *time.Time
}

type Repository interface {
	// Create inserts the event, its owner host row, and the optional cover
	// photo in one transaction.
	Create(ctx context.Context, params CreateParams, ownerID int64) (Event, error)
	GetByID(ctx context.Context, id int64) (Event, error)
	List(ctx context.Context) ([]Event, error)
	Update(ctx context.Context, id int64, params UpdateParams) (Event, error)
	// Delete removes host rows, RSVPs, the cover photo, and the event in
	// one transaction.
	Delete(ctx context.Context, id int64) error

	Hosts(ctx context.Context, eventID int64) (authz.HostSet, error)
	AddHost(ctx context.Context, eventID, userID int64, role HostRole) error
	RemoveHost(ctx context.Context, eventID, userID int64) error

	RSVP(ctx context.Context, userID, eventID int64) error
	UnRSVP(ctx context.Context, userID, eventID int64) error
	// Attendees lists RSVPed users, most recent RSVP first.
	Attendees(ctx context.Context, eventID int64, offset, limit int) ([]users.Summary, int64, error)

	Search(ctx context.Context, filters SearchFilters, offset, limit int) ([]Event, int64, error)
	Hosting(ctx context.Context, userID int64, timeRange TimeRange, offset, limit int) ([]Event, int64, error)
	RSVPd(ctx context.Context, userID int64, timeRange TimeRange, offset, limit int) ([]Event, int64, error)

	// SetCover stores the photo, points cover_photo_id at it, and deletes
	// the replaced photo when uploaderID owned it, in one transaction.
	SetCover(ctx context.Context, eventID, uploaderID int64, upload CoverUpload) (int64, error)
}
