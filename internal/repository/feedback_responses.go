package repository

import (
	"context"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

// CreateFeedbackResponses 在一个事务中插入一次提交的全部回复，created_at 由数据库生成
func (r *Repository) CreateFeedbackResponses(responses []*domain.FeedbackResponse) error {
	if len(responses) == 0 {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.TransactionTimeout)*time.Second)
	defer cancel()

	tx, err := r.dbpool.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO feedback_responses (user_id, question_id, rating, comment, department, batch)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at
	`
	stmt, err := tx.PrepareContext(ctx, query)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, resp := range responses {
		args := []any{resp.UserID, resp.QuestionID, resp.Rating, resp.Comment, resp.Department, resp.Batch}
		if err := stmt.QueryRowContext(ctx, args...).Scan(&resp.ID, &resp.CreatedAt); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}

	return nil
}

func feedbackResponseFilterToWhere(filter domain.FeedbackResponseFilter) sq.Eq {
	where := sq.Eq{}
	if filter.UserID != nil {
		where["user_id"] = *filter.UserID
	}
	if filter.QuestionID != nil {
		where["question_id"] = *filter.QuestionID
	}
	if filter.Department != nil {
		where["department"] = *filter.Department
	}
	return where
}

func (r *Repository) ListFeedbackResponses(filter domain.FeedbackResponseFilter) ([]*domain.FeedbackResponse, error) {
	query, args, err := psql.
		Select("id", "user_id", "question_id", "rating", "comment", "department", "batch", "created_at").
		From("feedback_responses").
		Where(feedbackResponseFilterToWhere(filter)).
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

	responses := make([]*domain.FeedbackResponse, 0)
	for rows.Next() {
		resp := &domain.FeedbackResponse{}
		dst := []any{&resp.ID, &resp.UserID, &resp.QuestionID, &resp.Rating, &resp.Comment, &resp.Department, &resp.Batch, &resp.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		responses = append(responses, resp)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return responses, nil
}

func (r *Repository) CountFeedbackResponses(filter domain.FeedbackResponseFilter) (int, error) {
	query, args, err := psql.
		Select("COUNT(*)").
		From("feedback_responses").
		Where(feedbackResponseFilterToWhere(filter)).
		ToSql()
	if err != nil {
		return 0, err
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	count := 0
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&count); err != nil {
		return 0, err
	}

	return count, nil
}
