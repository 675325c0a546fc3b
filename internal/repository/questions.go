package repository

import (
	"context"
	"time"

	"github.com/sysu-ecnc-dev/feedback-system/backend/internal/domain"
)

func (r *Repository) GetAllQuestions() ([]*domain.Question, error) {
	query := `
		SELECT id, text, category, stakeholder_type, created_at
		FROM questions ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (r *Repository) GetQuestionsByStakeholderType(stakeholderType domain.Role) ([]*domain.Question, error) {
	query := `
		SELECT id, text, category, stakeholder_type, created_at
		FROM questions WHERE stakeholder_type = $1 ORDER BY id
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	rows, err := r.dbpool.QueryContext(ctx, query, string(stakeholderType))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanQuestions(rows)
}

func (r *Repository) CreateQuestion(question *domain.Question) error {
	query := `
		INSERT INTO questions (text, category, stakeholder_type)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	ctx, cancel := context.WithTimeout(context.Background(), time.Duration(r.cfg.Database.QueryTimeout)*time.Second)
	defer cancel()

	args := []any{question.Text, question.Category, string(question.StakeholderType)}
	if err := r.dbpool.QueryRowContext(ctx, query, args...).Scan(&question.ID, &question.CreatedAt); err != nil {
		return err
	}

	return nil
}

type rowsScanner interface {
	Next() bool
	Scan(dest ...any) error
	Err() error
}

func scanQuestions(rows rowsScanner) ([]*domain.Question, error) {
	questions := make([]*domain.Question, 0)
	for rows.Next() {
		question := &domain.Question{}
		dst := []any{&question.ID, &question.Text, &question.Category, &question.StakeholderType, &question.CreatedAt}
		if err := rows.Scan(dst...); err != nil {
			return nil, err
		}
		questions = append(questions, question)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return questions, nil
}
