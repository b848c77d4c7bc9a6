package store

import (
	"context"

	"github.com/google/uuid"
)

const userColumns = "id, username, full_name, hashed_password, role, totp_secret, created_at"

func (s *Store) GetUserByUsername(ctx context.Context, username string) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE username = $1", username).
		Scan(&u.ID, &u.Username, &u.FullName, &u.HashedPassword, &u.Role, &u.TOTPSecret, &u.CreatedAt)
	return u, err
}

func (s *Store) GetUserByID(ctx context.Context, id uuid.UUID) (User, error) {
	var u User
	err := s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id).
		Scan(&u.ID, &u.Username, &u.FullName, &u.HashedPassword, &u.Role, &u.TOTPSecret, &u.CreatedAt)
	return u, err
}
