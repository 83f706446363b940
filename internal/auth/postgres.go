package auth

import (
	"context"
	"database/sql"

	"opsboard.dev/internal/ids"
)

var (
	_ UserStore = (*PGUserStore)(nil)
	_ RoleStore = (*PGRoleStore)(nil)
)

// PGUserStore reads user records from PostgreSQL.
type PGUserStore struct {
	db *sql.DB
}

func NewPGUserStore(db *sql.DB) *PGUserStore {
	return &PGUserStore{db: db}
}

const userColumns = `id, organization_id, coalesce(team_id, ''), username, password_hash, role, status, created_at, updated_at`

func (s *PGUserStore) FindByUsername(ctx context.Context, username string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where username=$1`, username)
	return scanUser(row)
}

func (s *PGUserStore) Find(ctx context.Context, id string) (*User, error) {
	row := s.db.QueryRowContext(ctx,
		`select `+userColumns+` from users where id=$1`, id)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*User, error) {
	var u User
	err := row.Scan(&u.ID, &u.OrganizationID, &u.TeamID, &u.Username, &u.PasswordHash,
		&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// ListByOrg returns the users of one organization, ordered by creation.
func (s *PGUserStore) ListByOrg(ctx context.Context, orgID string) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`select `+userColumns+` from users where organization_id=$1 order by created_at`, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		if err := rows.Scan(&u.ID, &u.OrganizationID, &u.TeamID, &u.Username, &u.PasswordHash,
			&u.Role, &u.Status, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

// PGRoleStore resolves roles into permission keys from PostgreSQL.
type PGRoleStore struct {
	db *sql.DB
}

func NewPGRoleStore(db *sql.DB) *PGRoleStore {
	return &PGRoleStore{db: db}
}

func (s *PGRoleStore) PermissionsForRole(ctx context.Context, role string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`select p.key from permissions p
		 join role_permissions rp on rp.permission_id=p.id
		 join roles r on r.id=rp.role_id
		 where r.name=$1 order by p.key`, role)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var key string
		if err := rows.Scan(&key); err != nil {
			return nil, err
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func (s *PGRoleStore) EnsurePermissions(ctx context.Context, perms []Permission) error {
	for _, p := range perms {
		if p.ID == "" {
			p.ID = ids.New()
		}
		_, err := s.db.ExecContext(ctx,
			`insert into permissions(id, key, description) values($1,$2,$3) on conflict (key) do nothing`,
			p.ID, p.Key, p.Description,
		)
		if err != nil {
			return err
		}
	}
	return nil
}
