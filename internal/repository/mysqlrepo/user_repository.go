package mysqlrepo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/go-sql-driver/mysql"

	"github.com/digkill/AstroImages/internal/models"
	"github.com/digkill/AstroImages/internal/repository"
)

const mysqlDuplicateEntry = 1062

type UserRepository struct {
	db *sql.DB
}

func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

const userColumns = `id, user_id, name, gender, birth_date, knows_birth_time, birth_time, birth_place, interested_in,
sun_sign, moon_sign, rising_sign, credits, is_active, created_at, updated_at`

func (r *UserRepository) FindByUserID(ctx context.Context, userID string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE user_id = ?`
	row := r.db.QueryRowContext(ctx, query, userID)

	var u models.User
	var id int64
	if err := row.Scan(&id, &u.UserID, &u.Name, &u.Gender, &u.BirthDate, &u.KnowsBirthTime, &u.BirthTime, &u.BirthPlace, &u.InterestedIn,
		&u.SunSign, &u.MoonSign, &u.RisingSign, &u.Credits, &u.IsActive, &u.CreatedAt, &u.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan user: %w", err)
	}
	u.ID = strconv.FormatInt(id, 10)
	return &u, nil
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
INSERT INTO users (user_id, name, gender, birth_date, knows_birth_time, birth_time, birth_place, interested_in,
    sun_sign, moon_sign, rising_sign, credits, is_active, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC().Truncate(time.Millisecond)
	res, err := r.db.ExecContext(ctx, query, user.UserID, user.Name, user.Gender, user.BirthDate, user.KnowsBirthTime, user.BirthTime,
		user.BirthPlace, user.InterestedIn, user.SunSign, user.MoonSign, user.RisingSign, user.Credits, user.IsActive, now, now)
	if err != nil {
		if isDuplicate(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	created := *user
	created.ID = strconv.FormatInt(id, 10)
	created.CreatedAt = now
	created.UpdatedAt = now
	return &created, nil
}

// Replace overwrites the profile fields of an existing user. Credits, the
// active flag and the creation time are left untouched.
func (r *UserRepository) Replace(ctx context.Context, user *models.User) (*models.User, error) {
	const query = `
UPDATE users SET name = ?, gender = ?, birth_date = ?, knows_birth_time = ?, birth_time = ?, birth_place = ?,
    interested_in = ?, sun_sign = ?, moon_sign = ?, rising_sign = ?, updated_at = ?
WHERE user_id = ?`
	now := time.Now().UTC().Truncate(time.Millisecond)
	if _, err := r.db.ExecContext(ctx, query, user.Name, user.Gender, user.BirthDate, user.KnowsBirthTime, user.BirthTime, user.BirthPlace,
		user.InterestedIn, user.SunSign, user.MoonSign, user.RisingSign, now, user.UserID); err != nil {
		return nil, fmt.Errorf("replace user: %w", err)
	}

	updated, err := r.FindByUserID(ctx, user.UserID)
	if err != nil {
		return nil, err
	}
	if updated == nil {
		return nil, fmt.Errorf("replace user: %s vanished", user.UserID)
	}
	return updated, nil
}

func (r *UserRepository) DecrementCredits(ctx context.Context, userID string, amount int) error {
	const query = `UPDATE users SET credits = GREATEST(credits - ?, 0), updated_at = ? WHERE user_id = ?`
	if _, err := r.db.ExecContext(ctx, query, amount, time.Now().UTC().Truncate(time.Millisecond), userID); err != nil {
		return fmt.Errorf("decrement credits: %w", err)
	}
	return nil
}

func isDuplicate(err error) bool {
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlDuplicateEntry
}
