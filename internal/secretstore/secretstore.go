// Package secretstore implements the Secret Store : per-item
// question sets with salted, adaptive-cost answer hashes.
package secretstore

import (
	"crypto/rand"

	"golang.org/x/crypto/bcrypt"

	"github.com/rwandatech/byaboneka-plus/internal/analyzer"
	"github.com/rwandatech/byaboneka-plus/internal/apperr"
	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

// saltSize is the fixed salt length ("Salt is 16 random
// bytes").
const saltSize = 16

// questionCount is the fixed number of questions per LostItem.
const questionCount = 3

// bcryptCost uses bcrypt's built-in default cost rather than hand-tuning,
// since this is a claims-verification path, not the high-throughput
// login path.
const bcryptCost = bcrypt.DefaultCost

// Store implements store/verify contract against a durable
// row-per-question backing store.
type Store struct {
	repo Repository
}

// Repository is the persistence boundary internal/db implements.
type Repository interface {
	SaveQuestions(lostItemID string, questions []models.SecretQuestion) error
	QuestionsFor(lostItemID string) ([]models.SecretQuestion, error)
}

func New(repo Repository) *Store {
	return &Store{repo: repo}
}

// QA is one (question, plaintext answer) pair supplied at store time.
type QA struct {
	Question string
	Answer   string
}

// Store generates fresh salts and adaptive-cost hashes for exactly three
// QA pairs and persists them against lostItemID.
func (s *Store) Store(lostItemID string, qas [3]QA) error {
	questions := make([]models.SecretQuestion, questionCount)
	for i, qa := range qas {
		salt := make([]byte, saltSize)
		if _, err := rand.Read(salt); err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to generate secret salt", err)
		}

		normalized := analyzer.Normalize(qa.Answer)
		hash, err := bcrypt.GenerateFromPassword(append([]byte(normalized), salt...), bcryptCost)
		if err != nil {
			return apperr.Wrap(apperr.KindInternal, "failed to hash secret answer", err)
		}

		questions[i] = models.SecretQuestion{
			LostItemID: lostItemID,
			Question:   qa.Question,
			Salt:       salt,
			AnswerHash: string(hash),
			Ordinal:    i,
		}
	}
	return s.repo.SaveQuestions(lostItemID, questions)
}

// Questions returns the question text only (never salts or hashes) for a
// LostItem, retrievable by its owner.
func (s *Store) Questions(lostItemID string) ([]string, error) {
	rows, err := s.repo.QuestionsFor(lostItemID)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(rows))
	for _, r := range rows {
		if r.Ordinal < 0 || r.Ordinal >= len(out) {
			continue
		}
		out[r.Ordinal] = r.Question
	}
	return out, nil
}

// Verify checks three submitted answers against the stored hashes and
// returns a three-bit correctness vector. Every comparison runs
// unconditionally, in ordinal order, regardless of earlier mismatches, so
// a caller cannot learn which answer failed from timing.
func (s *Store) Verify(lostItemID string, submitted [3]string) ([3]bool, error) {
	var result [3]bool

	rows, err := s.repo.QuestionsFor(lostItemID)
	if err != nil {
		return result, err
	}
	if len(rows) != questionCount {
		return result, apperr.New(apperr.KindInternal, "secret set is malformed")
	}

	byOrdinal := make(map[int]models.SecretQuestion, questionCount)
	for _, r := range rows {
		byOrdinal[r.Ordinal] = r
	}

	for i := 0; i < questionCount; i++ {
		row, ok := byOrdinal[i]
		if !ok {
			continue
		}
		normalized := analyzer.Normalize(submitted[i])
		err := bcrypt.CompareHashAndPassword([]byte(row.AnswerHash), append([]byte(normalized), row.Salt...))
		result[i] = err == nil
	}
	return result, nil
}
