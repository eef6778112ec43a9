package secretstore

import (
	"testing"

	"github.com/rwandatech/byaboneka-plus/pkg/models"
)

type fakeRepo struct {
	byItem map[string][]models.SecretQuestion
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{byItem: make(map[string][]models.SecretQuestion)}
}

func (f *fakeRepo) SaveQuestions(lostItemID string, qs []models.SecretQuestion) error {
	f.byItem[lostItemID] = qs
	return nil
}

func (f *fakeRepo) QuestionsFor(lostItemID string) ([]models.SecretQuestion, error) {
	return f.byItem[lostItemID], nil
}

func TestStoreAndVerify_AllCorrect(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo)

	qas := [3]QA{
		{Question: "wallpaper", Answer: "mountains"},
		{Question: "dock apps", Answer: "3"},
		{Question: "music app", Answer: "spotify"},
	}
	if err := s.Store("lost-1", qas); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	result, err := s.Verify("lost-1", [3]string{"Mountains", "3", "Spotify"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	for i, ok := range result {
		if !ok {
			t.Errorf("Expected answer %d to be correct", i)
		}
	}
}

func TestVerify_PartialCorrectness(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo)

	qas := [3]QA{
		{Question: "wallpaper", Answer: "mountains"},
		{Question: "dock apps", Answer: "3"},
		{Question: "music app", Answer: "spotify"},
	}
	if err := s.Store("lost-1", qas); err != nil {
		t.Fatalf("Store failed: %v", err)
	}

	result, err := s.Verify("lost-1", [3]string{"mountains", "4", "spotify"})
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	correct := 0
	for _, ok := range result {
		if ok {
			correct++
		}
	}
	if correct != 2 {
		t.Errorf("Expected 2 correct answers. Got: %d", correct)
	}
}

func TestVerify_NormalizationVariants(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo)

	qas := [3]QA{
		{Question: "q1", Answer: "Spotify"},
		{Question: "q2", Answer: "x"},
		{Question: "q3", Answer: "y"},
	}
	_ = s.Store("lost-1", qas)

	variants := []string{"spotify", "SPOTIFY", "  spotify  ", "spotify!", "Spotify."}
	for _, v := range variants {
		result, err := s.Verify("lost-1", [3]string{v, "wrong", "wrong"})
		if err != nil {
			t.Fatalf("Verify failed: %v", err)
		}
		if !result[0] {
			t.Errorf("Expected variant %q to verify correctly", v)
		}
	}
}

func TestQuestions_NeverReturnsAnswersOrSalts(t *testing.T) {
	repo := newFakeRepo()
	s := New(repo)
	qas := [3]QA{
		{Question: "q1", Answer: "a1"},
		{Question: "q2", Answer: "a2"},
		{Question: "q3", Answer: "a3"},
	}
	_ = s.Store("lost-1", qas)

	qs, err := s.Questions("lost-1")
	if err != nil {
		t.Fatalf("Questions failed: %v", err)
	}
	if len(qs) != 3 || qs[0] != "q1" || qs[1] != "q2" || qs[2] != "q3" {
		t.Errorf("Expected ordered question text only. Got: %v", qs)
	}
}
