package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/mingle-social/server/internal/domain/users"
)

var _ users.Repository = (*UserRepository)(nil)

type UserRepository struct {
	pool *pgxpool.Pool
}

func NewUserRepository(pool *pgxpool.Pool) *UserRepository {
	return &UserRepository{pool: pool}
}

const userColumns = `id, first_name, last_name, email, username, password_hash,
       date_of_birth, bio, profile_photo_id, created_at`

func scanUser(row pgx.Row) (users.User, error) {
	var u users.User
	var dob pgtype.Date
	var createdAt pgtype.Timestamptz
	err := row.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Email, &u.Username,
		&u.PasswordHash, &dob, &u.Bio, &u.ProfilePhotoID, &createdAt)
	if err != nil {
		return users.User{}, err
	}
	u.DateOfBirth = dob.Time
	u.CreatedAt = createdAt.Time
	return u, nil
}

func (r *UserRepository) Create(ctx context.Context, params users.CreateParams) (users.User, error) {
	row := r.pool.QueryRow(ctx, `
INSERT INTO users (first_name, last_name, email, username, password_hash, date_of_birth)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING `+userColumns,
		params.FirstName, params.LastName, params.Email, params.Username,
		params.PasswordHash, params.DateOfBirth,
	)

	user, err := scanUser(row)
	if err != nil {
		if isUniqueViolation(err, "users_email_key") {
			return users.User{}, users.ErrEmailTaken
		}
		if isUniqueViolation(err, "users_username_key") {
			return users.User{}, users.ErrUsernameTaken
		}
		return users.User{}, fmt.Errorf("insert user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id int64) (users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return r.scanOne(row)
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
	return r.scanOne(row)
}

func (r *UserRepository) GetByUsername(ctx context.Context, username string) (users.User, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
	return r.scanOne(row)
}

func (r *UserRepository) scanOne(row pgx.Row) (users.User, error) {
	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		return users.User{}, fmt.Errorf("scan user: %w", err)
	}
	return user, nil
}

func (r *UserRepository) Update(ctx context.Context, id int64, params users.UpdateParams) (users.User, error) {
	row := r.pool.QueryRow(ctx, `
UPDATE users
   SET first_name    = COALESCE($2, first_name),
       last_name     = COALESCE($3, last_name),
       email         = COALESCE($4, email),
       username      = COALESCE($5, username),
       password_hash = COALESCE($6, password_hash),
       date_of_birth = COALESCE($7, date_of_birth),
       bio           = COALESCE($8, bio)
 WHERE id = $1
RETURNING `+userColumns,
		id, params.FirstName, params.LastName, params.Email, params.Username,
		params.PasswordHash, params.DateOfBirth, params.Bio,
	)

	user, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return users.User{}, users.ErrNotFound
		}
		if isUniqueViolation(err, "users_email_key") {
			return users.User{}, users.ErrEmailTaken
		}
		if isUniqueViolation(err, "users_username_key") {
			return users.User{}, users.ErrUsernameTaken
		}
		return users.User{}, fmt.Errorf("update user: %w", err)
	}
	return user, nil
}

// Delete removes the account and every row it reaches, respecting the
// foreign keys: edges and comments first, then the user's host rows,
// then any event left with no host at all, then photos, posts, follows,
// and finally the user row. Events that keep at least one host survive.
func (r *UserRepository) Delete(ctx context.Context, id int64) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		steps := []string{
			`DELETE FROM post_likes WHERE user_id = $1`,
			`DELETE FROM post_likes WHERE post_id IN (SELECT id FROM posts WHERE user_id = $1)`,
			`DELETE FROM comments WHERE post_id IN (SELECT id FROM posts WHERE user_id = $1)`,
			`DELETE FROM comments WHERE user_id = $1`,
			`DELETE FROM event_rsvps WHERE user_id = $1`,
		}
		for _, sql := range steps {
			if _, err := tx.Exec(ctx, sql, id); err != nil {
				return fmt.Errorf("cascade delete user %d: %w", id, err)
			}
		}

		hostedEvents, err := collectIDs(ctx, tx,
			`SELECT event_id FROM event_hosts WHERE user_id = $1`, id)
		if err != nil {
			return fmt.Errorf("list hosted events: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM event_hosts WHERE user_id = $1`, id); err != nil {
			return fmt.Errorf("remove host edges: %w", err)
		}

		orphanEvents, err := collectIDs(ctx, tx, `
SELECT e.id FROM events e
 WHERE e.id = ANY($1)
   AND NOT EXISTS (SELECT 1 FROM event_hosts h WHERE h.event_id = e.id)`,
			hostedEvents)
		if err != nil {
			return fmt.Errorf("list hostless events: %w", err)
		}

		coverIDs, err := collectIDs(ctx, tx,
			`SELECT cover_photo_id FROM events WHERE id = ANY($1) AND cover_photo_id IS NOT NULL`,
			orphanEvents)
		if err != nil {
			return fmt.Errorf("list event covers: %w", err)
		}

		eventSteps := []struct {
			sql  string
			args []any
		}{
			{`DELETE FROM event_rsvps WHERE event_id = ANY($1)`, []any{orphanEvents}},
			{`UPDATE users SET profile_photo_id = NULL WHERE id = $1`, []any{id}},
			{`UPDATE events SET cover_photo_id = NULL
			   WHERE cover_photo_id IN (SELECT id FROM photos WHERE user_id = $1)`, []any{id}},
			{`UPDATE events SET cover_photo_id = NULL WHERE id = ANY($1)`, []any{orphanEvents}},
			{`DELETE FROM events WHERE id = ANY($1)`, []any{orphanEvents}},
			{`DELETE FROM photos WHERE id = ANY($1)`, []any{coverIDs}},
			{`DELETE FROM photos WHERE user_id = $1`, []any{id}},
			{`DELETE FROM posts WHERE user_id = $1`, []any{id}},
			{`DELETE FROM follows WHERE follower_id = $1 OR followed_id = $1`, []any{id}},
		}
		for _, step := range eventSteps {
			if _, err := tx.Exec(ctx, step.sql, step.args...); err != nil {
				return fmt.Errorf("cascade delete user %d: %w", id, err)
			}
		}

		tag, err := tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return fmt.Errorf("delete user %d: %w", id, err)
		}
		if tag.RowsAffected() == 0 {
			return users.ErrNotFound
		}
		return nil
	})
}

// Counts runs the four aggregate queries concurrently.
func (r *UserRepository) Counts(ctx context.Context, id int64) (users.Counts, error) {
	var counts users.Counts

	g, ctx := errgroup.WithContext(ctx)
	count := func(dest *int64, sql string) func() error {
		return func() error {
			return r.pool.QueryRow(ctx, sql, id).Scan(dest)
		}
	}

	g.Go(count(&counts.Posts, `SELECT count(*) FROM posts WHERE user_id = $1`))
	g.Go(count(&counts.Events, `SELECT count(*) FROM event_hosts WHERE user_id = $1`))
	g.Go(count(&counts.Followers, `SELECT count(*) FROM follows WHERE followed_id = $1`))
	g.Go(count(&counts.Following, `SELECT count(*) FROM follows WHERE follower_id = $1`))

	if err := g.Wait(); err != nil {
		return users.Counts{}, fmt.Errorf("count user activity: %w", err)
	}
	return counts, nil
}

func (r *UserRepository) Follow(ctx context.Context, followerID, followedID int64) error {
	if err := r.ensureExists(ctx, followedID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx, `
INSERT INTO follows (follower_id, followed_id)
VALUES ($1, $2)
ON CONFLICT (follower_id, followed_id) DO NOTHING`,
		followerID, followedID)
	if err != nil {
		if isUniqueViolation(err, "") {
			return nil
		}
		return fmt.Errorf("insert follow: %w", err)
	}
	return nil
}

func (r *UserRepository) Unfollow(ctx context.Context, followerID, followedID int64) error {
	if err := r.ensureExists(ctx, followedID); err != nil {
		return err
	}
	_, err := r.pool.Exec(ctx,
		`DELETE FROM follows WHERE follower_id = $1 AND followed_id = $2`,
		followerID, followedID)
	if err != nil {
		return fmt.Errorf("delete follow: %w", err)
	}
	return nil
}

func (r *UserRepository) IsFollowing(ctx context.Context, followerID, followedID int64) (bool, error) {
	var following bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followed_id = $2)`,
		followerID, followedID).Scan(&following)
	if err != nil {
		return false, fmt.Errorf("check follow edge: %w", err)
	}
	return following, nil
}

func (r *UserRepository) Followers(ctx context.Context, userID int64, offset, limit int) ([]users.Summary, int64, error) {
	if err := r.ensureExists(ctx, userID); err != nil {
		return nil, 0, err
	}
	return r.summaries(ctx, `
SELECT u.id, u.username, u.profile_photo_id
  FROM follows f
  JOIN users u ON u.id = f.follower_id
 WHERE f.followed_id = $1
 ORDER BY u.username ASC
 LIMIT $2 OFFSET $3`,
		`SELECT count(*) FROM follows WHERE followed_id = $1`,
		userID, offset, limit)
}

func (r *UserRepository) Following(ctx context.Context, userID int64, offset, limit int) ([]users.Summary, int64, error) {
	if err := r.ensureExists(ctx, userID); err != nil {
		return nil, 0, err
	}
	return r.summaries(ctx, `
SELECT u.id, u.username, u.profile_photo_id
  FROM follows f
  JOIN users u ON u.id = f.followed_id
 WHERE f.follower_id = $1
 ORDER BY u.username ASC
 LIMIT $2 OFFSET $3`,
		`SELECT count(*) FROM follows WHERE follower_id = $1`,
		userID, offset, limit)
}

func (r *UserRepository) Search(ctx context.Context, query string, offset, limit int) ([]users.Summary, int64, error) {
	return r.summaries(ctx, `
SELECT id, username, profile_photo_id
  FROM users
 WHERE username ILIKE '%' || $1 || '%'
 ORDER BY username ASC
 LIMIT $2 OFFSET $3`,
		`SELECT count(*) FROM users WHERE username ILIKE '%' || $1 || '%'`,
		query, offset, limit)
}

func (r *UserRepository) summaries(ctx context.Context, listSQL, countSQL string, key any, offset, limit int) ([]users.Summary, int64, error) {
	var total int64
	if err := r.pool.QueryRow(ctx, countSQL, key).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count users: %w", err)
	}

	rows, err := r.pool.Query(ctx, listSQL, key, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	summaries := []users.Summary{}
	for rows.Next() {
		var s users.Summary
		if err := rows.Scan(&s.ID, &s.Username, &s.ProfilePhotoID); err != nil {
			return nil, 0, fmt.Errorf("scan user summary: %w", err)
		}
		summaries = append(summaries, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("list users: %w", err)
	}
	return summaries, total, nil
}

func (r *UserRepository) SetAvatar(ctx context.Context, userID int64, upload users.AvatarUpload) (int64, error) {
	var photoID int64
	err := withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var previous *int64
		err := tx.QueryRow(ctx,
			`SELECT profile_photo_id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return users.ErrNotFound
			}
			return fmt.Errorf("lock user row: %w", err)
		}

		err = tx.QueryRow(ctx, `
INSERT INTO photos (user_id, filename, content_type, file_data)
VALUES ($1, $2, $3, $4)
RETURNING id`,
			userID, upload.Filename, upload.ContentType, upload.Data).Scan(&photoID)
		if err != nil {
			return fmt.Errorf("insert avatar photo: %w", err)
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET profile_photo_id = $2 WHERE id = $1`, userID, photoID); err != nil {
			return fmt.Errorf("point avatar: %w", err)
		}

		// The replaced photo is orphan-cleaned only when this user owns it.
		if previous != nil {
			if _, err := tx.Exec(ctx,
				`DELETE FROM photos WHERE id = $1 AND user_id = $2`, *previous, userID); err != nil {
				return fmt.Errorf("delete previous avatar: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return photoID, nil
}

func (r *UserRepository) ClearAvatar(ctx context.Context, userID int64) error {
	return withTx(ctx, r.pool, func(tx pgx.Tx) error {
		var previous *int64
		err := tx.QueryRow(ctx,
			`SELECT profile_photo_id FROM users WHERE id = $1 FOR UPDATE`, userID).Scan(&previous)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return users.ErrNotFound
			}
			return fmt.Errorf("lock user row: %w", err)
		}
		if previous == nil {
			return users.ErrNoAvatar
		}

		if _, err := tx.Exec(ctx,
			`UPDATE users SET profile_photo_id = NULL WHERE id = $1`, userID); err != nil {
			return fmt.Errorf("clear avatar: %w", err)
		}
		if _, err := tx.Exec(ctx,
			`DELETE FROM photos WHERE id = $1 AND user_id = $2`, *previous, userID); err != nil {
			return fmt.Errorf("delete avatar photo: %w", err)
		}
		return nil
	})
}

func (r *UserRepository) ensureExists(ctx context.Context, userID int64) error {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM users WHERE id = $1)`, userID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check user exists: %w", err)
	}
	if !exists {
		return users.ErrNotFound
	}
	return nil
}
