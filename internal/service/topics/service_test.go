package topics

import (
	"context"
	"strings"
	"testing"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/pkg/logger"
)

// Mock repositories for testing

type mockTopicRepo struct {
	topics map[uint]*models.Topic
	nextID uint
}

func newMockTopicRepo() *mockTopicRepo {
	return &mockTopicRepo{topics: make(map[uint]*models.Topic), nextID: 1}
}

func (m *mockTopicRepo) Create(topic *models.Topic) error {
	topic.ID = m.nextID
	m.nextID++
	m.topics[topic.ID] = topic
	return nil
}

func (m *mockTopicRepo) GetByID(id uint) (*models.Topic, error) {
	topic, ok := m.topics[id]
	if !ok {
		return nil, apperr.NotFound("topic %d not found", id)
	}
	return topic, nil
}

func (m *mockTopicRepo) ListByStatus(status string, limit int) ([]models.Topic, error) {
	var out []models.Topic
	for _, topic := range m.topics {
		if topic.Status == status {
			out = append(out, *topic)
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (m *mockTopicRepo) UpdateStatus(id uint, from, to string) error {
	topic, ok := m.topics[id]
	if !ok {
		return apperr.NotFound("topic %d not found", id)
	}
	if topic.Status != from {
		return apperr.Conflict("topic %d is %s, not %s", id, topic.Status, from)
	}
	topic.Status = to
	return nil
}

// Test setup helper

func setupTestService() (*Service, *mockTopicRepo) {
	repo := newMockTopicRepo()
	log := logger.New("debug", "console", "stdout")
	return NewServiceWithInterfaces(repo, log), repo
}

func TestSubmit(t *testing.T) {
	svc, repo := setupTestService()

	topic, err := svc.Submit(context.Background(), SubmitInput{
		Title:       "  Should open models be mandatory for public research?  ",
		Domain:      "policy",
		Subdomain:   "ai-governance",
		SubmittedBy: "aaaaaaaaaaaaaaaa",
	})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}

	if topic.Title != "Should open models be mandatory for public research?" {
		t.Errorf("title not trimmed: %q", topic.Title)
	}
	if topic.Status != models.TopicStatusPending {
		t.Errorf("status = %s, want pending", topic.Status)
	}
	if topic.PublicID == "" {
		t.Error("public ID was not assigned")
	}
	if topic.SubmittedBy == nil || *topic.SubmittedBy != "aaaaaaaaaaaaaaaa" {
		t.Errorf("submitter = %v", topic.SubmittedBy)
	}
	if repo.topics[topic.ID] == nil {
		t.Error("topic was not persisted")
	}
}

func TestSubmit_AnonymousHasNoSubmitter(t *testing.T) {
	svc, _ := setupTestService()

	topic, err := svc.Submit(context.Background(), SubmitInput{Title: "Is remote work here to stay?"})
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if topic.SubmittedBy != nil {
		t.Errorf("anonymous submission should have nil submitter, got %v", *topic.SubmittedBy)
	}
}

func TestSubmit_TitleValidation(t *testing.T) {
	svc, _ := setupTestService()

	tests := []struct {
		name  string
		title string
	}{
		{"empty", ""},
		{"whitespace only", "   \t  "},
		{"too long", strings.Repeat("x", maxTitleLen+1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Submit(context.Background(), SubmitInput{Title: tt.title})
			if !apperr.IsValidation(err) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestModerate(t *testing.T) {
	svc, repo := setupTestService()
	repo.topics[1] = &models.Topic{ID: 1, Status: models.TopicStatusPending}
	repo.topics[2] = &models.Topic{ID: 2, Status: models.TopicStatusPending}

	approved, err := svc.Moderate(context.Background(), 1, true)
	if err != nil {
		t.Fatalf("Moderate failed: %v", err)
	}
	if approved.Status != models.TopicStatusApproved {
		t.Errorf("status = %s, want approved", approved.Status)
	}

	rejected, err := svc.Moderate(context.Background(), 2, false)
	if err != nil {
		t.Fatalf("Moderate failed: %v", err)
	}
	if rejected.Status != models.TopicStatusRejected {
		t.Errorf("status = %s, want rejected", rejected.Status)
	}
}

func TestModerate_RepeatDecisionConflicts(t *testing.T) {
	svc, repo := setupTestService()
	repo.topics[1] = &models.Topic{ID: 1, Status: models.TopicStatusPending}

	if _, err := svc.Moderate(context.Background(), 1, true); err != nil {
		t.Fatalf("first decision failed: %v", err)
	}
	if _, err := svc.Moderate(context.Background(), 1, false); !apperr.IsConflict(err) {
		t.Errorf("second decision should conflict, got %v", err)
	}
}

func TestModerate_UnknownTopic(t *testing.T) {
	svc, _ := setupTestService()

	if _, err := svc.Moderate(context.Background(), 99, true); !apperr.IsNotFound(err) {
		t.Errorf("unknown topic should be not-found, got %v", err)
	}
}

func TestGet(t *testing.T) {
	svc, repo := setupTestService()
	repo.topics[3] = &models.Topic{ID: 3, Title: "test topic", Status: models.TopicStatusApproved}

	topic, err := svc.Get(context.Background(), 3)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if topic.ID != 3 {
		t.Errorf("id = %d, want 3", topic.ID)
	}

	if _, err := svc.Get(context.Background(), 99); !apperr.IsNotFound(err) {
		t.Errorf("unknown topic should be not-found, got %v", err)
	}
}

func TestList_StatusValidation(t *testing.T) {
	svc, repo := setupTestService()
	repo.topics[1] = &models.Topic{ID: 1, Status: models.TopicStatusApproved}

	topics, err := svc.List(context.Background(), models.TopicStatusApproved, 0)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(topics) != 1 {
		t.Errorf("topics = %d, want 1", len(topics))
	}

	if _, err := svc.List(context.Background(), "archived", 0); !apperr.IsValidation(err) {
		t.Errorf("unknown status should fail validation, got %v", err)
	}
}
