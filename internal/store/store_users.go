package store

import (
	"context"
	"fmt"
	"strings"
)

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *Store) CreateUser(ctx context.Context, email string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || !strings.Contains(email, "@") {
		return User{}, fmt.Errorf("%w: invalid email %q", ErrInvalidInput, email)
	}

	res, err := s.q.ExecContext(ctx, `INSERT OR IGNORE INTO users(email) VALUES (?)`, email)
	if err != nil {
		return User{}, err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return User{}, fmt.Errorf("%w: user %q already exists", ErrInvalidInput, email)
	}
	return s.GetUserByEmail(ctx, email)
}

func (s *Store) GetUser(ctx context.Context, id int64) (User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE id = ?`, id)
	user, err := scanUser(row)
	if err != nil {
		return User{}, wrapNotFound("user", err)
	}
	return user, nil
}

func (s *Store) GetUserByEmail(ctx context.Context, email string) (User, error) {
	row := s.q.QueryRowContext(ctx, `SELECT id, email, created_at FROM users WHERE email = ?`, normalizeEmail(email))
	user, err := scanUser(row)
	if err != nil {
		return User{}, wrapNotFound(fmt.Sprintf("user %q", normalizeEmail(email)), err)
	}
	return user, nil
}

func (s *Store) ListUsers(ctx context.Context) ([]User, error) {
	rows, err := s.q.QueryContext(ctx, `SELECT id, email, created_at FROM users ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

// DeleteUser unsubscribes the user from every feed, so orphaned feeds and
// emptied folders are collected, and then removes the user row.
func (s *Store) DeleteUser(ctx context.Context, userID int64) ([]UnsubscribeResult, error) {
	var results []UnsubscribeResult
	err := s.InTx(ctx, func(tx *Store) error {
		if _, err := tx.GetUser(ctx, userID); err != nil {
			return err
		}
		rows, err := tx.q.QueryContext(ctx, `SELECT feed_id FROM subscriptions WHERE user_id = ? ORDER BY feed_id`, userID)
		if err != nil {
			return err
		}
		feedIDs, err := collectIDs(rows)
		if err != nil {
			return err
		}
		for _, feedID := range feedIDs {
			res, err := tx.Unsubscribe(ctx, userID, feedID)
			if err != nil {
				return err
			}
			results = append(results, res)
		}
		_, err = tx.q.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, userID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}

func scanUser(scanner rowScanner) (User, error) {
	var u User
	var createdAt string
	if err := scanner.Scan(&u.ID, &u.Email, &createdAt); err != nil {
		return User{}, err
	}
	if t, err := parseDBTime(createdAt); err == nil {
		u.CreatedAt = t
	}
	return u, nil
}
