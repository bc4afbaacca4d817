package store

import (
	"context"

	"HelloChat/module/user/model"
	errs "HelloChat/tools/errs"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserStore reads user summaries and the friend graph from postgres. The
// socket core only consumes it read-only; account mutation belongs to the
// REST layer.
type UserStore struct {
	pool *pgxpool.Pool
}

func NewUserStore(pool *pgxpool.Pool) *UserStore {
	return &UserStore{pool: pool}
}

func Connect(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, errs.WrapMsg(err, "connect postgres")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, errs.WrapMsg(err, "ping postgres")
	}
	return pool, nil
}

func (s *UserStore) ByID(ctx context.Context, userID int64) (*model.UserSummary, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, uid, username, profile, email, first_name, last_name
		   FROM users WHERE id = $1`, userID)
	var u model.UserSummary
	if err := row.Scan(&u.ID, &u.UID, &u.Username, &u.Profile, &u.Email, &u.FirstName, &u.LastName); err != nil {
		if err == pgx.ErrNoRows {
			return nil, errs.ErrUserNotFound
		}
		return nil, errs.WrapMsg(err, "load user")
	}
	return &u, nil
}

// FriendIDs returns the ids of both directions of the friend relation.
func (s *UserStore) FriendIDs(ctx context.Context, userID int64) ([]int64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT friend_id FROM user_friends WHERE user_id = $1
		 UNION
		 SELECT user_id FROM user_friends WHERE friend_id = $1`, userID)
	if err != nil {
		return nil, errs.WrapMsg(err, "load friend graph")
	}
	defer rows.Close()

	var out []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, errs.WrapMsg(err, "scan friend id")
		}
		out = append(out, id)
	}
	return out, rows.Err()
}

// IsBlocked reports whether either user blocks the other.
func (s *UserStore) IsBlocked(ctx context.Context, a, b int64) (bool, error) {
	var blocked bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
		   SELECT 1 FROM user_blocks
		    WHERE (user_id = $1 AND blocked_id = $2)
		       OR (user_id = $2 AND blocked_id = $1))`, a, b).Scan(&blocked)
	if err != nil {
		return false, errs.WrapMsg(err, "check block relation")
	}
	return blocked, nil
}
