package auth

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func userRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "organization_id", "team_id", "username", "password_hash",
		"role", "status", "created_at", "updated_at",
	}).AddRow("user-1", "org-1", "team-1", "alice", "$2a$10$hash", "manager", "active", now, now)
}

func TestPGUserStoreFindByUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where username=\\$1").
		WithArgs("alice").
		WillReturnRows(userRows())

	store := NewPGUserStore(db)
	user, err := store.FindByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("FindByUsername: %v", err)
	}
	if user.ID != "user-1" || user.Role != "manager" || user.OrganizationID != "org-1" {
		t.Fatalf("unexpected user: %+v", user)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestPGUserStoreFindMissTranslatesToNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where id=\\$1").
		WithArgs("ghost").
		WillReturnError(sql.ErrNoRows)

	store := NewPGUserStore(db)
	if _, err := store.Find(context.Background(), "ghost"); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestPGUserStoreListByOrg(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select .* from users where organization_id=\\$1").
		WithArgs("org-1").
		WillReturnRows(userRows())

	store := NewPGUserStore(db)
	users, err := store.ListByOrg(context.Background(), "org-1")
	if err != nil {
		t.Fatalf("ListByOrg: %v", err)
	}
	if len(users) != 1 || users[0].Username != "alice" {
		t.Fatalf("unexpected users: %+v", users)
	}
}

func TestPGRoleStorePermissionsForRole(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery("select p.key from permissions p").
		WithArgs("manager").
		WillReturnRows(sqlmock.NewRows([]string{"key"}).
			AddRow(PermManageUsers).
			AddRow(PermReadAudit))

	store := NewPGRoleStore(db)
	keys, err := store.PermissionsForRole(context.Background(), "manager")
	if err != nil {
		t.Fatalf("PermissionsForRole: %v", err)
	}
	if len(keys) != 2 || keys[0] != PermManageUsers {
		t.Fatalf("unexpected keys: %v", keys)
	}
}

func TestPGRoleStoreEnsurePermissions(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	for range BuiltinPermissions {
		mock.ExpectExec("insert into permissions").
			WithArgs(sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}

	store := NewPGRoleStore(db)
	if err := store.EnsurePermissions(context.Background(), BuiltinPermissions); err != nil {
		t.Fatalf("EnsurePermissions: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
