package repository

import (
	"context"
	"database/sql"
	"time"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

func (r *Repository) GetUserByID(id int64) (*domain.User, error) {
	query := `
		SELECT username, password_hash, full_name, email, created_at, version
		FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		ID: id,
	}

	dst := []any{&user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, id).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

func (r *Repository) GetUserByUsername(username string) (*domain.User, error) {
	query := `
		SELECT id, password_hash, full_name, email, created_at, version
		FROM users WHERE username = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	user := &domain.User{
		Username: username,
	}

	dst := []any{&user.ID, &user.PasswordHash, &user.FullName, &user.Email, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, username).Scan(dst...); err != nil {
		return nil, err
	}

	return user, nil
}

// UpdateUser 只允许修改密码和邮箱，版本号不一致时返回 sql.ErrNoRows
func (r *Repository) UpdateUser(user *domain.User) error {
	query := `
		UPDATE users 
		SET
		    password_hash = $1,
			email = $2,
			version = version + 1
		WHERE id = $3 AND version = $4
		RETURNING username, full_name, created_at, version
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{user.PasswordHash, user.Email, user.ID, user.Version}
	dst := []any{&user.Username, &user.FullName, &user.CreatedAt, &user.Version}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(dst...); err != nil {
		return err
	}

	return nil
}

func (r *Repository) GetAllUsersWithProfiles() ([]*domain.UserWithProfile, error) {
	query := `
		SELECT
			u.id, u.username, u.password_hash, u.full_name, u.email, u.created_at, u.version,
			p.id, p.role, p.department, p.batch, p.company, p.created_at
		FROM users u
		JOIN profiles p ON p.user_id = u.id
		ORDER BY u.id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	users := make([]*domain.UserWithProfile, 0)
	for rows.Next() {
		user := &domain.User{}
		profile := &domain.Profile{}
		dst := []any{
			&user.ID, &user.Username, &user.PasswordHash, &user.FullName, &user.Email, &user.CreatedAt, &user.Version,
			&profile.ID, &profile.Role, &profile.Department, &profile.Batch, &profile.Company, &profile.CreatedAt,
		}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		profile.UserID = user.ID
		users = append(users, &domain.UserWithProfile{User: user, Profile: profile})
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return users, nil
}

// DeleteUser 会级联删除该用户的资料和全部反馈，用户不存在时返回 sql.ErrNoRows
func (r *Repository) DeleteUser(id int64) error {
	query := `
		DELETE FROM users WHERE id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	result, err := r.dbpool.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return sql.ErrNoRows
	}

	return nil
}

// CreateUserWithProfile 在同一个事务中创建用户及其资料，保证每个用户恰好有一份资料
func (r *Repository) CreateUserWithProfile(user *domain.User, profile *domain.Profile) error {
	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	userQuery := `
		INSERT INTO users (username, password_hash, full_name, email)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at, version
	`
	userArgs := []any{user.Username, user.PasswordHash, user.FullName, user.Email}
	if err := tx.QueryRowContext(ctx, userQuery, userArgs...).Scan(&user.ID, &user.CreatedAt, &user.Version); err != nil {
		return err
	}

	profileQuery := `
		INSERT INTO profiles (user_id, role, department, batch, company)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`
	profile.UserID = user.ID
	profileArgs := []any{profile.UserID, string(profile.Role), profile.Department, profile.Batch, profile.Company}
	if err := tx.QueryRowContext(ctx, profileQuery, profileArgs...).Scan(&profile.ID, &profile.CreatedAt); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}
