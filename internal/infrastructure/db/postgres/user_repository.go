package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/datingapp/dating-api/internal/core/domain"
)

const uniqueViolation = "23505"

// UserRepository is the relational counterpart of the Mongo store. Photos
// live in their own table keyed by user_id.
type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *UserRepository) Exists(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM users WHERE username = $1)`, username,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return exists, nil
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	query := `INSERT INTO users (username, password_hash, password_salt, gender, known_as,
	              date_of_birth, city, country, created, last_active)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	          RETURNING id`

	created := *user
	created.Photos = []domain.Photo{}
	err := r.db.QueryRowContext(ctx, query,
		user.Username, user.PasswordHash, user.PasswordSalt, user.Gender, user.KnownAs,
		user.DateOfBirth, user.City, user.Country, user.Created, user.LastActive,
	).Scan(&created.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrUserExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &created, nil
}

const selectUser = `SELECT id, username, password_hash, password_salt, gender, known_as,
       date_of_birth, city, country, introduction, looking_for, interests, created, last_active
  FROM users`

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.findOne(ctx, selectUser+` WHERE username = $1`, username)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*domain.User, error) {
	return r.findOne(ctx, selectUser+` WHERE id = $1`, id)
}

func (r *UserRepository) findOne(ctx context.Context, query string, arg any) (*domain.User, error) {
	u := &domain.User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&u.ID, &u.Username, &u.PasswordHash, &u.PasswordSalt, &u.Gender, &u.KnownAs,
		&u.DateOfBirth, &u.City, &u.Country, &u.Introduction, &u.LookingFor, &u.Interests,
		&u.Created, &u.LastActive,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	photos, err := r.photosOf(ctx, u.ID)
	if err != nil {
		return nil, err
	}
	u.Photos = photos
	return u, nil
}

func (r *UserRepository) photosOf(ctx context.Context, userID int64) ([]domain.Photo, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, url, description, date_added, is_main, public_id
		   FROM photos WHERE user_id = $1 ORDER BY id`, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	photos := []domain.Photo{}
	for rows.Next() {
		p := domain.Photo{UserID: userID}
		if err := rows.Scan(&p.ID, &p.URL, &p.Description, &p.DateAdded, &p.IsMain, &p.PublicID); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		photos = append(photos, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return photos, nil
}

func (r *UserRepository) TouchLastActive(ctx context.Context, id int64, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_active = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// addPhotoQuery inserts the photo as main only when the user has none yet.
// Zero rows back means the user does not exist.
const addPhotoQuery = `INSERT INTO photos (user_id, url, description, date_added, is_main, public_id)
SELECT $1, $2, $3, $4,
       $6::boolean AND NOT EXISTS (SELECT 1 FROM photos WHERE user_id = $1 AND is_main),
       $5
 WHERE EXISTS (SELECT 1 FROM users WHERE id = $1)
RETURNING id, is_main`

func (r *UserRepository) AddPhoto(ctx context.Context, userID int64, photo *domain.Photo) (*domain.Photo, error) {
	saved := *photo
	saved.UserID = userID

	scan := func(allowMain bool) error {
		return r.db.QueryRowContext(ctx, addPhotoQuery,
			userID, photo.URL, photo.Description, photo.DateAdded, photo.PublicID, allowMain,
		).Scan(&saved.ID, &saved.IsMain)
	}

	err := scan(true)
	// A concurrent first upload won the partial unique index on is_main.
	if isUniqueViolation(err) {
		err = scan(false)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return &saved, nil
}

func (r *UserRepository) FindPhoto(ctx context.Context, userID, photoID int64) (*domain.Photo, error) {
	p := &domain.Photo{UserID: userID}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, url, description, date_added, is_main, public_id
		   FROM photos WHERE user_id = $1 AND id = $2`, userID, photoID,
	).Scan(&p.ID, &p.URL, &p.Description, &p.DateAdded, &p.IsMain, &p.PublicID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrPhotoNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return p, nil
}
