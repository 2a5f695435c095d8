package repository

import (
	"context"
	"database/sql"
	"errors"

	"salesdesk/internal/core"
	"salesdesk/internal/database/routing"
	"salesdesk/internal/database/sqldb"
	"salesdesk/internal/database/tenantdb/model"
)

type AccountRepository struct{}

func NewAccountRepository() *AccountRepository {
	return &AccountRepository{}
}

// EnsureRoles 不存在的角色才建立；回傳 name → id
func (repository *AccountRepository) EnsureRoles(contextValue context.Context, tx *sql.Tx, handle *routing.Handle, names []string) (_ map[string]string, returnedError error) {
	if returnedError = handle.Check(core.EntityRole); returnedError != nil {
		return nil, returnedError
	}
	ids := make(map[string]string, len(names))
	for _, name := range names {
		var id string
		err := tx.QueryRowContext(contextValue, handle.Rebind("SELECT id FROM roles WHERE name = ?"), name).Scan(&id)
		if err == nil {
			ids[name] = id
			continue
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		id = sqldb.NewID()
		if _, returnedError = tx.ExecContext(contextValue, handle.Rebind("INSERT INTO roles (id, name, created_at) VALUES (?, ?, ?)"),
			id, name, sqldb.Now()); returnedError != nil {
			return nil, returnedError
		}
		ids[name] = id
	}
	return ids, nil
}

// CreateUser 在交易內建立帳號
func (repository *AccountRepository) CreateUser(contextValue context.Context, tx *sql.Tx, handle *routing.Handle, user *model.User) (_ *model.User, returnedError error) {
	if returnedError = handle.Check(core.EntityUser); returnedError != nil {
		return nil, returnedError
	}
	now := sqldb.Now()
	if user.ID == "" {
		user.ID = sqldb.NewID()
	}
	user.CreatedAt, user.UpdatedAt = now, now
	_, returnedError = tx.ExecContext(contextValue, handle.Rebind("INSERT INTO users ("+model.UserColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)"),
		user.ID, user.Username, user.Email, user.PasswordHash, user.IsSuperuser, user.IsActive, user.MustChangePassword,
		user.CreatedAt, user.UpdatedAt)
	if returnedError != nil {
		return nil, returnedError
	}
	return user, nil
}

func (repository *AccountRepository) AssignRole(contextValue context.Context, tx *sql.Tx, handle *routing.Handle, userID, roleID string) (returnedError error) {
	if returnedError = handle.Check(core.EntityRole); returnedError != nil {
		return returnedError
	}
	var count int
	if returnedError = tx.QueryRowContext(contextValue, handle.Rebind("SELECT COUNT(*) FROM user_roles WHERE user_id = ? AND role_id = ?"),
		userID, roleID).Scan(&count); returnedError != nil {
		return returnedError
	}
	if count > 0 {
		return nil
	}
	_, returnedError = tx.ExecContext(contextValue, handle.Rebind("INSERT INTO user_roles (user_id, role_id) VALUES (?, ?)"), userID, roleID)
	return returnedError
}

// FindUserByUsername 可在交易內或直接使用連線池查詢（q 為 nil 時用 handle.DB）
func (repository *AccountRepository) FindUserByUsername(contextValue context.Context, q Querier, handle *routing.Handle, username string) (_ *model.User, returnedError error) {
	if returnedError = handle.Check(core.EntityUser); returnedError != nil {
		return nil, returnedError
	}
	if q == nil {
		q = handle.DB
	}
	row := q.QueryRowContext(contextValue, handle.Rebind("SELECT "+model.UserColumns+" FROM users WHERE username = ?"), username)
	return scanUser(row)
}

func (repository *AccountRepository) ListRoles(contextValue context.Context, handle *routing.Handle) (_ []*model.Role, returnedError error) {
	if returnedError = handle.Check(core.EntityRole); returnedError != nil {
		return nil, returnedError
	}
	rows, queryError := handle.DB.QueryContext(contextValue, "SELECT id, name, created_at FROM roles ORDER BY name")
	if queryError != nil {
		return nil, queryError
	}
	defer rows.Close()

	var roles []*model.Role
	for rows.Next() {
		var role model.Role
		if scanError := rows.Scan(&role.ID, &role.Name, &role.CreatedAt); scanError != nil {
			return nil, scanError
		}
		roles = append(roles, &role)
	}
	return roles, rows.Err()
}

func (repository *AccountRepository) CountUsers(contextValue context.Context, handle *routing.Handle) (count int, returnedError error) {
	if returnedError = handle.Check(core.EntityUser); returnedError != nil {
		return 0, returnedError
	}
	returnedError = handle.DB.QueryRowContext(contextValue, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, returnedError
}

func scanUser(row rowScanner) (*model.User, error) {
	var user model.User
	err := row.Scan(&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.IsSuperuser,
		&user.IsActive, &user.MustChangePassword, &user.CreatedAt, &user.UpdatedAt)
	if err != nil {
		return nil, notFound(err)
	}
	return &user, nil
}
