package db

import (
	"context"

	"github.com/google/uuid"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// SaveQuestions implements internal/secretstore.Repository.
func (s *Store) SaveQuestions(lostItemID string, questions []models.SecretQuestion) error {
	ctx := context.Background()
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if _, err := tx.Exec(ctx, `DELETE FROM secret_questions WHERE lost_item_id=$1`, lostItemID); err != nil {
		return err
	}
	for _, q := range questions {
		if _, err := tx.Exec(ctx, `
			INSERT INTO secret_questions (id, lost_item_id, question, salt, answer_hash, ordinal)
			VALUES ($1,$2,$3,$4,$5,$6)`,
			uuid.NewString(), lostItemID, q.Question, q.Salt, q.AnswerHash, q.Ordinal); err != nil {
			return err
		}
	}
	return tx.Commit(ctx)
}

// QuestionsFor implements internal/secretstore.Repository.
func (s *Store) QuestionsFor(lostItemID string) ([]models.SecretQuestion, error) {
	rows, err := s.pool.Query(context.Background(), `
		SELECT id, lost_item_id, question, salt, answer_hash, ordinal
		FROM secret_questions WHERE lost_item_id=$1 ORDER BY ordinal`, lostItemID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.SecretQuestion
	for rows.Next() {
		var q models.SecretQuestion
		if err := rows.Scan(&q.ID, &q.LostItemID, &q.Question, &q.Salt, &q.AnswerHash, &q.Ordinal); err != nil {
			return nil, err
		}
		out = append(out, q)
	}
	return out, rows.Err()
}
