package accounts

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/lims-platform/identity/internal/permissions"
	"github.com/lims-platform/identity/internal/platform/db"
	"github.com/lims-platform/identity/internal/roles"
	"github.com/lims-platform/identity/internal/shared"
)

// Repository provides PostgreSQL backed persistence.
//
// Mutations of a single account serialize on a row lock and bump the version
// column, so a concurrent AddRole and RemoveRole on the same account never
// lose one another's update.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs a repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const accountColumns = `id, username, email, password_hash, first_name, last_name, enabled, version, created_at, updated_at`

func scanAccount(row pgx.Row) (Account, error) {
	var a Account
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.PasswordHash, &a.FirstName,
		&a.LastName, &a.Enabled, &a.Version, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// Create inserts an account together with its initial role associations.
// Username or email collisions return shared.ErrDuplicateIdentity.
func (r *Repository) Create(ctx context.Context, acct Account, roleIDs []int64) (Account, error) {
	var created Account
	err := db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		row := tx.QueryRow(ctx, `
			INSERT INTO accounts (username, email, password_hash, first_name, last_name, enabled)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING `+accountColumns,
			acct.Username, acct.Email, acct.PasswordHash, acct.FirstName, acct.LastName, acct.Enabled)
		var err error
		created, err = scanAccount(row)
		if err != nil {
			var pgErr *pgconn.PgError
			if errors.As(err, &pgErr) && pgErr.Code == "23505" {
				return shared.ErrDuplicateIdentity
			}
			return err
		}
		for _, roleID := range roleIDs {
			if _, err := tx.Exec(ctx, `
				INSERT INTO account_roles (account_id, role_id)
				VALUES ($1, $2) ON CONFLICT DO NOTHING`, created.ID, roleID); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return Account{}, err
	}
	return r.FindByID(ctx, created.ID)
}

// FindByID fetches an account with its role set (permissions loaded).
func (r *Repository) FindByID(ctx context.Context, id int64) (Account, error) {
	acct, err := scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return r.attachRoles(ctx, acct)
}

// FindByUsername fetches an account by its unique username.
func (r *Repository) FindByUsername(ctx context.Context, username string) (Account, error) {
	acct, err := scanAccount(r.pool.QueryRow(ctx, `
		SELECT `+accountColumns+` FROM accounts WHERE username = $1`, username))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		return Account{}, err
	}
	return r.attachRoles(ctx, acct)
}

// FindAll returns all accounts with role sets loaded.
func (r *Repository) FindAll(ctx context.Context) ([]Account, error) {
	return r.queryAccounts(ctx, `SELECT `+accountColumns+` FROM accounts ORDER BY username`)
}

// ListByRole returns accounts directly holding the role.
func (r *Repository) ListByRole(ctx context.Context, roleID int64) ([]Account, error) {
	return r.queryAccounts(ctx, `
		SELECT `+accountColumns+` FROM accounts
		WHERE id IN (SELECT account_id FROM account_roles WHERE role_id = $1)
		ORDER BY username`, roleID)
}

// ExistsByUsername reports whether an account with the username exists.
func (r *Repository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE username = $1)`, username).Scan(&exists)
	return exists, err
}

// ExistsByEmail reports whether an account with the email exists.
func (r *Repository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS (SELECT 1 FROM accounts WHERE email = $1)`, email).Scan(&exists)
	return exists, err
}

// UpdateProfile mutates email, names and the enabled flag only.
func (r *Repository) UpdateProfile(ctx context.Context, id int64, update ProfileUpdate) (Account, error) {
	acct, err := scanAccount(r.pool.QueryRow(ctx, `
		UPDATE accounts
		SET email = $2, first_name = $3, last_name = $4, enabled = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, update.Email, update.FirstName, update.LastName, update.Enabled))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Account{}, shared.ErrAccountNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return Account{}, shared.ErrDuplicateIdentity
		}
		return Account{}, err
	}
	return r.attachRoles(ctx, acct)
}

// UpdatePassword replaces the stored password hash.
func (r *Repository) UpdatePassword(ctx context.Context, id int64, hash string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE accounts
		SET password_hash = $2, version = version + 1, updated_at = NOW()
		WHERE id = $1`, id, hash)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return shared.ErrAccountNotFound
	}
	return nil
}

// Delete removes the account and its role associations. Referenced roles
// are left untouched.
func (r *Repository) Delete(ctx context.Context, id int64) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM account_roles WHERE account_id = $1`, id); err != nil {
			return err
		}
		tag, err := tx.Exec(ctx, `DELETE FROM accounts WHERE id = $1`, id)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return shared.ErrAccountNotFound
		}
		return nil
	})
}

// AddRole associates a role with an account. Adding an already held role is
// a no-op.
func (r *Repository) AddRole(ctx context.Context, accountID, roleID int64) error {
	return r.mutateRoles(ctx, accountID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			INSERT INTO account_roles (account_id, role_id)
			VALUES ($1, $2) ON CONFLICT DO NOTHING`, accountID, roleID)
		return err
	})
}

// RemoveRole dissociates a role from an account. Removing an absent role is
// a no-op; the role entity itself is never deleted.
func (r *Repository) RemoveRole(ctx context.Context, accountID, roleID int64) error {
	return r.mutateRoles(ctx, accountID, func(tx pgx.Tx) error {
		_, err := tx.Exec(ctx, `
			DELETE FROM account_roles WHERE account_id = $1 AND role_id = $2`, accountID, roleID)
		return err
	})
}

// mutateRoles serializes role-set writes on a per-account row lock.
func (r *Repository) mutateRoles(ctx context.Context, accountID int64, fn func(pgx.Tx) error) error {
	return db.WithTx(ctx, r.pool, func(tx pgx.Tx) error {
		var id int64
		err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id = $1 FOR UPDATE`, accountID).Scan(&id)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return shared.ErrAccountNotFound
			}
			return err
		}
		if err := fn(tx); err != nil {
			return err
		}
		_, err = tx.Exec(ctx, `
			UPDATE accounts SET version = version + 1, updated_at = NOW() WHERE id = $1`, accountID)
		return err
	})
}

func (r *Repository) queryAccounts(ctx context.Context, query string, args ...any) ([]Account, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Account
	for rows.Next() {
		acct, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, acct)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	for i := range out {
		out[i], err = r.attachRoles(ctx, out[i])
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (r *Repository) attachRoles(ctx context.Context, acct Account) (Account, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT r.id, r.name, r.description, r.created_at, r.updated_at
		FROM roles r
		JOIN account_roles ar ON ar.role_id = r.id
		WHERE ar.account_id = $1
		ORDER BY r.name`, acct.ID)
	if err != nil {
		return Account{}, err
	}
	defer rows.Close()
	var roleSet []roles.Role
	for rows.Next() {
		var role roles.Role
		if err := rows.Scan(&role.ID, &role.Name, &role.Description, &role.CreatedAt, &role.UpdatedAt); err != nil {
			return Account{}, err
		}
		roleSet = append(roleSet, role)
	}
	if err := rows.Err(); err != nil {
		return Account{}, err
	}
	for i := range roleSet {
		perms, err := r.rolePermissions(ctx, roleSet[i].ID)
		if err != nil {
			return Account{}, err
		}
		roleSet[i].Permissions = perms
	}
	acct.Roles = roleSet
	return acct, nil
}

func (r *Repository) rolePermissions(ctx context.Context, roleID int64) ([]permissions.Permission, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT p.id, p.name, p.description
		FROM permissions p
		JOIN role_permissions rp ON rp.permission_id = p.id
		WHERE rp.role_id = $1
		ORDER BY p.name`, roleID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var perms []permissions.Permission
	for rows.Next() {
		var perm permissions.Permission
		if err := rows.Scan(&perm.ID, &perm.Name, &perm.Description); err != nil {
			return nil, err
		}
		perms = append(perms, perm)
	}
	return perms, rows.Err()
}
