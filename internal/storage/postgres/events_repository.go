package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/mingle-social/server/internal/authz"
	"github.com/mingle-social/server/internal/domain/events"
	"github.com/mingle-social/server/internal/domain/users"
)

var _ events.Repository = (*EventRepository)(nil)

type EventRepository struct {
	pool *pgxpool.Pool
}

func NewEventRepository(pool *pgxpool.Pool) *EventRepository {
	return &EventRepository{pool: pool}
}

const eventColumns = `id, cover_photo_id, title, description, start_time,
       street_address, city, state, zipcode, country, created_at`

func scanEvent(row pgx.Row) (events.Event, error) {
	var e events.Event
	var startTime, createdAt pgtype.Timestamptz
	err := row.Scan(&e.ID, &e.CoverPhotoID, &e.Title, &e.Description, &startTime,
		&e.StreetAddress, &e.City, &e.State, &e.Zipcode, &e.Country, &createdAt)
	if err != nil {
		return events.Event{}, err
	}
	e.StartTime = startTime.Time
	e.CreatedAt = createdAt.Time
	return e, nil
}

func (r *EventRepository) Create(ctx context.Context, params events.CreateParams, ownerID int64) (events.Event, error) {
	var created events.Event
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
INSERT INTO events (title, description, start_time, street_address, city, state, zipcode, country)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
RETURNING `+eventColumns,
			params.Title, params.Description, params.StartTime,
			params.StreetAddress, params.City, params.State, params.Zipcode, params.Country)

		event, err := scanEvent(row)
		if err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		_, err = tx.Exec(ctx, `
INSERT INTO event_hosts (user_id, event_id, role)
VALUES ($1, $2, $3)`,
			ownerID, event.ID, string(authz.RoleOwner))
		if err != nil {
			return fmt.Errorf("insert owner host: %w", err)
		}

		if params.Cover != nil {
			var photoID int64
			err := tx.QueryRow(ctx, `
INSERT INTO photos (user_id, filename, content_type, file_data)
VALUES ($1, $2, $3, $4)
RETURNING id`,
				ownerID, params.Cover.Filename, params.Cover.ContentType, params.Cover.Data).
				Scan(&photoID)
			if err != nil {
				return fmt.Errorf("insert cover photo: %w", err)
			}
			if _, err := tx.Exec(ctx,
				`UPDATE events SET cover_photo_id = $2 WHERE id = $1`, event.ID, photoID); err != nil {
				return fmt.Errorf("point cover: %w", err)
			}
			event.CoverPhotoID = &photoID
		}

		created = event
		return nil
	})
	if err != nil {
		return events.Event{}, err
	}
	return r.GetByID(ctx, created.ID)
}

func (r *EventRepository) GetByID(ctx context.Context, id int64) (events.Event, error) {
	event, err := scanEvent(r.pool.QueryRow(ctx,
		`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return events.Event{}, events.ErrNotFound
		}
		return events.Event{}, fmt.Errorf("get event: %w", err)
	}

	hostRows, err := r.pool.Query(ctx, `
SELECT eh.user_id, u.username, eh.role
  FROM event_hosts eh
  JOIN users u ON u.id = eh.user_id
 WHERE eh.event_id = $1
 ORDER BY eh.role = 'owner' DESC, eh.created_at ASC`, id)
	if err != nil {
		return events.Event{}, fmt.Errorf("list hosts: %w", err)
	}
	defer hostRows.Close()

	event.Hosts = []events.Host{}
	for hostRows.Next() {
		var host events.Host
		var role string
		if err := hostRows.Scan(&host.UserID, &host.Username, &role); err != nil {
			return events.Event{}, fmt.Errorf("scan host: %w", err)
		}
		host.Role = events.HostRole(role)
		event.Hosts = append(event.Hosts, host)
	}
	if err := hostRows.Err(); err != nil {
		return events.Event{}, fmt.Errorf("list hosts: %w", err)
	}

	attendeeRows, err := r.pool.Query(ctx, `
SELECT user_id
  FROM event_rsvps
 WHERE event_id = $1
 ORDER BY created_at DESC, user_id DESC`, id)
	if err != nil {
		return events.Event{}, fmt.Errorf("list attendee ids: %w", err)
	}
	defer attendeeRows.Close()

	event.AttendeeIDs = []int64{}
	for attendeeRows.Next() {
		var userID int64
		if err := attendeeRows.Scan(&userID); err != nil {
			return events.Event{}, fmt.Errorf("scan attendee id: %w", err)
		}
		event.AttendeeIDs = append(event.AttendeeIDs, userID)
	}
	if err := attendeeRows.Err(); err != nil {
		return events.Event{}, fmt.Errorf("list attendee ids: %w", err)
	}

	return event, nil
}

func (r *EventRepository) List(ctx context.Context) ([]events.Event, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events ORDER BY start_time ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()
	return collectEvents(rows)
}

func collectEvents(rows pgx.Rows) ([]events.Event, error) {
	result := []events.Event{}
	for rows.Next() {
		event, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		result = append(result, event)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate events: %w", err)
	}
	return result, nil
}

func (r *EventRepository) Update(ctx context.Context, id int64, params events.UpdateParams) (events.Event, error) {
	tag, err := r.pool.Exec(ctx, `
UPDATE events
   SET title          = COALESCE($2, title),
       description    = COALESCE($3, description),
       start_time     = COALESCE($4, start_time),
       street_address = COALESCE($5, street_address),
       city           = COALESCE($6, city),
       state          = COALESCE($7, state),
       zipcode        = COALESCE($8, zipcode),
       country        = COALESCE($9, country)
 WHERE id = $1`,
		id, params.Title, params.Description, params.StartTime,
		params.StreetAddress, params.City, params.State, params.Zipcode, params.Country)
	if err != nil {
		return events.Event{}, fmt.Errorf("update event: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return events.Event{}, events.ErrNotFound
	}
	return r.GetByID(ctx, id)
}

func (r *EventRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var coverID *int64
		err := tx.QueryRow(ctx,
			`SELECT cover_photo_id FROM events WHERE id = $1 FOR UPDATE`, id).Scan(&coverID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return events.ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		steps := []string{
			`DELETE FROM event_rsvps WHERE event_id = $1`,
			`DELETE FROM event_hosts WHERE event_id = $1`,
			`UPDATE events SET cover_photo_id = NULL WHERE id = $1`,
			`DELETE FROM events WHERE id = $1`,
		}
		for _, sql := range steps {
			if _, err := tx.Exec(ctx, sql, id); err != nil {
				return fmt.Errorf("cascade delete event %d: %w", id, err)
			}
		}

		if coverID != nil {
			if _, err := tx.Exec(ctx, `DELETE FROM photos WHERE id = $1`, *coverID); err != nil {
				return fmt.Errorf("delete cover photo: %w", err)
			}
		}
		return nil
	})
}

func (r *EventRepository) Hosts(ctx context.Context, eventID int64) (authz.HostSet, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, role FROM event_hosts WHERE event_id = $1`, eventID)
	if err != nil {
		return nil, fmt.Errorf("list host roles: %w", err)
	}
	defer rows.Close()

	hosts := authz.HostSet{}
	for rows.Next() {
		var userID int64
		var role string
		if err := rows.Scan(&userID, &role); err != nil {
			return nil, fmt.Errorf("scan host role: %w", err)
		}
		hosts[userID] = authz.Role(role)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list host roles: %w", err)
	}
	return hosts, nil
}

func (r *EventRepository) AddHost(ctx context.Context, eventID, userID int64, role events.HostRole) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return events.ErrUserNotFound
	}

	_, err = r.pool.Exec(ctx, `
INSERT INTO event_hosts (user_id, event_id, role)
VALUES ($1, $2, $3)
ON CONFLICT (user_id, event_id) DO NOTHING`,
		userID, eventID, string(role))
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil
		}
		return fmt.Errorf("insert host: %w", err)
	}
	return nil
}

func (r *EventRepository) RemoveHost(ctx context.Context, eventID, userID int64) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM event_hosts WHERE event_id = $1 AND user_id = $2`, eventID, userID)
	if err != nil {
		return fmt.Errorf("delete host: %w", err)
	}
	return nil
}

func (r *EventRepository) RSVP(ctx context.Context, userID, eventID int64) error {
	if err := r.ensureExists(ctx, eventID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO event_rsvps (user_id, event_id)
VALUES ($1, $2)
ON CONFLICT (user_id, event_id) DO NOTHING`,
		userID, eventID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil
		}
		return fmt.Errorf("insert rsvp: %w", err)
	}
	return nil
}

func (r *EventRepository) UnRSVP(ctx context.Context, userID, eventID int64) error {
	if err := r.ensureExists(ctx, eventID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM event_rsvps WHERE user_id = $1 AND event_id = $2`, userID, eventID)
	if err != nil {
		return fmt.Errorf("delete rsvp: %w", err)
	}
	return nil
}

func (r *EventRepository) Attendees(ctx context.Context, eventID int64, offset, limit int) ([]users.Summary, int64, error) {
	var total int64
	err := r.pool.QueryRow(ctx,
		`SELECT count(*) FROM event_rsvps WHERE event_id = $1`, eventID).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count attendees: %w", err)
	}

	rows, err := r.pool.Query(ctx, `
SELECT u.id, u.username, u.profile_photo_id
  FROM event_rsvps er
  JOIN users u ON u.id = er.user_id
 WHERE er.event_id = $1
 ORDER BY er.created_at DESC, u.id DESC
 LIMIT $2 OFFSET $3`,
		eventID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	defer rows.Close()

	attendees := []users.Summary{}
	for rows.Next() {
		var s users.Summary
		if err := rows.Scan(&s.ID, &s.Username, &s.ProfilePhotoID); err != nil {
			return nil, 0, fmt.Errorf("scan attendee: %w", err)
		}
		attendees = append(attendees, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list attendees: %w", err)
	}
	return attendees, total, nil
}

func (r *EventRepository) Search(ctx context.Context, filters events.SearchFilters, offset, limit int) ([]events.Event, int64, error) {
	where := `
 WHERE start_time >= $1
   AND ($2::timestamptz IS NULL OR start_time <= $2::timestamptz)
   AND ($3 = '' OR title ILIKE '%' || $3 || '%' OR description ILIKE '%' || $3 || '%')
   AND ($4 = '' OR city ILIKE '%' || $4 || '%')
   AND ($5 = '' OR state ILIKE '%' || $5 || '%')
   AND ($6 = '' OR country ILIKE '%' || $6 || '%')
   AND ($7 = '' OR zipcode ILIKE '%' || $7 || '%')`
	args := []any{filters.From, filters.To, filters.Query,
		filters.City, filters.State, filters.Country, filters.Zipcode}

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count events: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT `+eventColumns+` FROM events`+where+`
 ORDER BY start_time ASC, id ASC
 LIMIT $8 OFFSET $9`,
		append(args, limit, offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("search events: %w", err)
	}
	defer rows.Close()

	result, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *EventRepository) Hosting(ctx context.Context, userID int64, timeRange events.TimeRange, offset, limit int) ([]events.Event, int64, error) {
	return r.listForUser(ctx, "event_hosts", userID, timeRange, offset, limit)
}

func (r *EventRepository) RSVPd(ctx context.Context, userID int64, timeRange events.TimeRange, offset, limit int) ([]events.Event, int64, error) {
	return r.listForUser(ctx, "event_rsvps", userID, timeRange, offset, limit)
}

// listForUser pages a user's events through an edge table. Upcoming
// events sort soonest first, past events most recent first.
func (r *EventRepository) listForUser(ctx context.Context, edgeTable string, userID int64, timeRange events.TimeRange, offset, limit int) ([]events.Event, int64, error) {
	var timeFilter, order string
	switch timeRange {
	case events.RangePast:
		timeFilter = `AND e.start_time < now()`
		order = `ORDER BY e.start_time DESC, e.id DESC`
	case events.RangeAll:
		timeFilter = ``
		order = `ORDER BY e.start_time ASC, e.id ASC`
	default:
		timeFilter = `AND e.start_time >= now()`
		order = `ORDER BY e.start_time ASC, e.id ASC`
	}

	base := ` FROM events e JOIN ` + edgeTable + ` edge ON edge.event_id = e.id
 WHERE edge.user_id = $1 ` + timeFilter

	var total int64
	if err := r.pool.QueryRow(ctx, `SELECT count(*)`+base, userID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count user events: %w", err)
	}

	cols := `e.id, e.cover_photo_id, e.title, e.description, e.start_time,
       e.street_address, e.city, e.state, e.zipcode, e.country, e.created_at`
	rows, err := r.pool.Query(ctx,
		`SELECT `+cols+base+` `+order+` LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list user events: %w", err)
	}
	defer rows.Close()

	result, err := collectEvents(rows)
	if err != nil {
		return nil, 0, err
	}
	return result, total, nil
}

func (r *EventRepository) SetCover(ctx context.Context, eventID, uploaderID int64, upload events.CoverUpload) (int64, error) {
	var photoID int64
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var previous *int64
		err := tx.QueryRow(ctx,
			`SELECT cover_photo_id FROM events WHERE id = $1 FOR UPDATE`, eventID).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return events.ErrNotFound
			}
			return fmt.Errorf("lock event row: %w", err)
		}

		err = tx.QueryRow(ctx, `
INSERT INTO photos (user_id, filename, content_type, file_data)
VALUES ($1, $2, $3, $4)
RETURNING id`,
			uploaderID, upload.Filename, upload.ContentType, upload.Data).Scan(&photoID)
		if err != nil {
			return fmt.Errorf("insert cover photo: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE events SET cover_photo_id = $2 WHERE id = $1`, eventID, photoID); err != nil {
			return fmt.Errorf("point cover: %w", err)
		}

		// The replaced photo is orphan-cleaned only when the uploader owns it.
		if previous != nil {
			if _, err := tx.Exec(ctx,
				`DELETE FROM photos WHERE id = $1 AND user_id = $2`, *previous, uploaderID); err != nil {
				return fmt.Errorf("delete previous cover: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return photoID, nil
}

func (r *EventRepository) ensureExists(ctx context.Context, eventID int64) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM events WHERE id = $1)`, eventID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check event exists: %w", err)
	}
	if !exists {
		return events.ErrNotFound
	}
	return nil
}
