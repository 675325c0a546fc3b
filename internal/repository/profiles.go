package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

func (r *Repository) GetProfileByUserID(userID int64) (*domain.Profile, error) {
	query := `
		SELECT id, role, department, batch, company, created_at
		FROM profiles WHERE user_id = $1
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	profile := &domain.Profile{
		UserID: userID,
	}

	dst := []any{&profile.ID, &profile.Role, &profile.Department, &profile.Batch, &profile.Company, &profile.CreatedAt}
	if err := r.dbpool.QueryRowContext(ctx, query, userID).Scan(dst...); err != nil {
		return nil, err
	}

	return profile, nil
}

func profileFilterToWhere(filter domain.ProfileFilter) sq.Eq {
	where := sq.Eq{}
	if filter.Role != nil {
		where["role"] = string(*filter.Role)
	}
	if filter.Department != nil {
		where["department"] = *filter.Department
	}
	return where
}

// ListProfiles 返回满足全部过滤条件的资料，未设置的条件不参与过滤
func (r *Repository) ListProfiles(filter domain.ProfileFilter) ([]*domain.Profile, error) {
	query, args, err := psql.
		Select("id", "user_id", "role", "department", "batch", "company", "created_at").
		From("profiles").
		Where(profileFilterToWhere(filter)).
		OrderBy("id").
		ToSql()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	profiles := make([]*domain.Profile, 0)
	for rows.Next() {
		profile := &domain.Profile{}
		dst := []any{&profile.ID, &profile.UserID, &profile.Role, &profile.Department, &profile.Batch, &profile.Company, &profile.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return profiles, nil
}
