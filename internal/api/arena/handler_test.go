//nolint:noctx // Test file uses http.NewRequest for simplicity
package arena

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/debatearena/arena/internal/apperr"
	"github.com/debatearena/arena/internal/fingerprint"
	"github.com/debatearena/arena/internal/models"
	"github.com/debatearena/arena/internal/service/debates"
	"github.com/debatearena/arena/internal/service/judging"
	"github.com/debatearena/arena/internal/service/ledger"
	"github.com/debatearena/arena/internal/service/standings"
	"github.com/debatearena/arena/internal/service/topics"
	"github.com/debatearena/arena/pkg/logger"
)

// Mock Topic Service
type mockTopicService struct {
	submitted []topics.SubmitInput
	topics    map[uint]*models.Topic
}

func newMockTopicService() *mockTopicService {
	return &mockTopicService{topics: make(map[uint]*models.Topic)}
}

func (m *mockTopicService) Submit(ctx context.Context, in topics.SubmitInput) (*models.Topic, error) {
	m.submitted = append(m.submitted, in)
	topic := &models.Topic{ID: uint(len(m.submitted)), PublicID: "pub-1", Title: in.Title, Status: models.TopicStatusPending}
	if in.SubmittedBy != "" {
		submitter := in.SubmittedBy
		topic.SubmittedBy = &submitter
	}
	m.topics[topic.ID] = topic
	return topic, nil
}

func (m *mockTopicService) Moderate(ctx context.Context, topicID uint, approve bool) (*models.Topic, error) {
	topic, ok := m.topics[topicID]
	if !ok {
		return nil, apperr.NotFound("topic %d not found", topicID)
	}
	if topic.Status != models.TopicStatusPending {
		return nil, apperr.Conflict("topic %d is not in status pending", topicID)
	}
	if approve {
		topic.Status = models.TopicStatusApproved
	} else {
		topic.Status = models.TopicStatusRejected
	}
	return topic, nil
}

func (m *mockTopicService) Get(ctx context.Context, topicID uint) (*models.Topic, error) {
	topic, ok := m.topics[topicID]
	if !ok {
		return nil, apperr.NotFound("topic %d not found", topicID)
	}
	return topic, nil
}

func (m *mockTopicService) List(ctx context.Context, status string, limit int) ([]models.Topic, error) {
	var out []models.Topic
	for _, topic := range m.topics {
		if topic.Status == status {
			out = append(out, *topic)
		}
	}
	return out, nil
}

// Mock Debate Service
type mockDebateService struct {
	debates map[uint]*models.Debate
	lastErr error
}

func newMockDebateService() *mockDebateService {
	return &mockDebateService{debates: make(map[uint]*models.Debate)}
}

func (m *mockDebateService) Schedule(ctx context.Context, in debates.ScheduleInput) (*models.Debate, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	d := &models.Debate{ID: 1, PublicID: "d-1", Status: "scheduled", ProModelID: in.ProModelID, ConModelID: in.ConModelID}
	m.debates[1] = d
	return d, nil
}

func (m *mockDebateService) Start(ctx context.Context, debateID uint) (*models.Debate, error) {
	return m.get(debateID)
}

func (m *mockDebateService) RecordTranscript(ctx context.Context, debateID uint, in debates.TranscriptInput) (*models.TranscriptEntry, error) {
	if _, err := m.get(debateID); err != nil {
		return nil, err
	}
	return &models.TranscriptEntry{DebateID: debateID, Phase: in.Phase, Content: in.Content, SequenceOrder: 1}, nil
}

func (m *mockDebateService) AdvancePhase(ctx context.Context, debateID uint) (*models.Debate, error) {
	return m.get(debateID)
}

func (m *mockDebateService) SubmitJudgment(ctx context.Context, debateID uint, in debates.JudgmentInput) (*models.Debate, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	return m.get(debateID)
}

func (m *mockDebateService) SubmitAudit(ctx context.Context, debateID uint, review judging.ReviewInput) (*debates.AuditOutcome, error) {
	d, err := m.get(debateID)
	if err != nil {
		return nil, err
	}
	return &debates.AuditOutcome{Debate: d}, nil
}

func (m *mockDebateService) Cancel(ctx context.Context, debateID uint) error {
	_, err := m.get(debateID)
	return err
}

func (m *mockDebateService) Get(ctx context.Context, debateID uint) (*models.Debate, error) {
	return m.get(debateID)
}

func (m *mockDebateService) Transcript(ctx context.Context, debateID uint) ([]models.TranscriptEntry, error) {
	if _, err := m.get(debateID); err != nil {
		return nil, err
	}
	return []models.TranscriptEntry{}, nil
}

func (m *mockDebateService) get(debateID uint) (*models.Debate, error) {
	if m.lastErr != nil {
		return nil, m.lastErr
	}
	d, ok := m.debates[debateID]
	if !ok {
		return nil, apperr.NotFound("debate %d not found", debateID)
	}
	return d, nil
}

// Mock Ledger Service
type mockLedgerService struct {
	casts   []string
	applied bool
	tally   *ledger.VoteTally
}

func (m *mockLedgerService) CastTopicVote(ctx context.Context, topicID uint, voterHash string) (bool, error) {
	if voterHash == "" {
		return false, apperr.Validation("voter fingerprint is required")
	}
	m.casts = append(m.casts, fmt.Sprintf("topic:%d:%s", topicID, voterHash))
	return m.applied, nil
}

func (m *mockLedgerService) CastDebateVote(ctx context.Context, debateID uint, side, voterHash string) (bool, error) {
	if side != models.VoteSidePro && side != models.VoteSideCon {
		return false, apperr.Validation("side must be pro or con")
	}
	m.casts = append(m.casts, fmt.Sprintf("debate:%d:%s:%s", debateID, side, voterHash))
	return m.applied, nil
}

func (m *mockLedgerService) Tally(ctx context.Context, debateID uint) (*ledger.VoteTally, error) {
	if m.tally == nil {
		return nil, apperr.NotFound("debate %d not found", debateID)
	}
	return m.tally, nil
}

// Mock Standings Service
type mockStandingsService struct {
	response *standings.StandingsResponse
	detail   *standings.ModelDetail
	history  []standings.HistoryPoint
}

func (m *mockStandingsService) Standings(ctx context.Context) (*standings.StandingsResponse, error) {
	return m.response, nil
}

func (m *mockStandingsService) ModelDetail(ctx context.Context, modelID uint) (*standings.ModelDetail, error) {
	if m.detail == nil || m.detail.ModelID != modelID {
		return nil, apperr.NotFound("model %d not found", modelID)
	}
	return m.detail, nil
}

func (m *mockStandingsService) EloHistory(ctx context.Context, modelID uint) ([]standings.HistoryPoint, error) {
	return m.history, nil
}

// Test Setup
func setupTestHandler() (*gin.Engine, *mockTopicService, *mockDebateService, *mockLedgerService, *mockStandingsService) {
	gin.SetMode(gin.TestMode)

	topicSvc := newMockTopicService()
	debateSvc := newMockDebateService()
	ledgerSvc := &mockLedgerService{applied: true}
	standingsSvc := &mockStandingsService{response: &standings.StandingsResponse{}}
	log := logger.New("debug", "console", "stdout")

	handler := NewHandlerWithInterfaces(topicSvc, debateSvc, ledgerSvc, standingsSvc, log)
	router := gin.New()
	handler.Register(router, nil)

	return router, topicSvc, debateSvc, ledgerSvc, standingsSvc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestGetStandings(t *testing.T) {
	router, _, _, _, standingsSvc := setupTestHandler()
	standingsSvc.response = &standings.StandingsResponse{
		DebaterStandings: []standings.DebaterRow{{ModelID: 3, Name: "alpha", Rank: 1, EloRating: 1600}},
	}

	w := doJSON(t, router, http.MethodGet, "/api/v1/standings", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp standings.StandingsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.DebaterStandings, 1)
	assert.Equal(t, uint(3), resp.DebaterStandings[0].ModelID)
}

func TestGetModelDetail(t *testing.T) {
	router, _, _, _, standingsSvc := setupTestHandler()
	standingsSvc.detail = &standings.ModelDetail{ModelID: 7, Name: "alpha", Slug: "alpha"}

	w := doJSON(t, router, http.MethodGet, "/api/v1/models/7", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/models/8", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/models/not-a-number", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSubmitTopic_DerivesFingerprint(t *testing.T) {
	router, topicSvc, _, _, _ := setupTestHandler()

	signals := fingerprint.Signals{UserAgent: "ua", Locale: "en-US", TimezoneOffset: -300, ScreenWidth: 1920, ScreenHeight: 1080}
	w := doJSON(t, router, http.MethodPost, "/api/v1/topics", map[string]interface{}{
		"title":    "Should debates be blinded?",
		"domain":   "technology",
		"category": "ai",
		"signals":  signals,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	require.Len(t, topicSvc.submitted, 1)
	assert.Equal(t, fingerprint.Derive(signals), topicSvc.submitted[0].SubmittedBy)
}

func TestSubmitTopic_AnonymousWithoutSignals(t *testing.T) {
	router, topicSvc, _, _, _ := setupTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/v1/topics", map[string]interface{}{
		"title": "Anonymous proposal",
	})
	assert.Equal(t, http.StatusCreated, w.Code)
	require.Len(t, topicSvc.submitted, 1)
	assert.Empty(t, topicSvc.submitted[0].SubmittedBy)
}

func TestModerateTopic(t *testing.T) {
	router, topicSvc, _, _, _ := setupTestHandler()
	topicSvc.topics[1] = &models.Topic{ID: 1, Status: models.TopicStatusPending}

	w := doJSON(t, router, http.MethodPost, "/api/v1/topics/1/moderate", map[string]string{"decision": "approve"})
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, models.TopicStatusApproved, topicSvc.topics[1].Status)

	// Repeat decision: the conflict surfaces as 409.
	w = doJSON(t, router, http.MethodPost, "/api/v1/topics/1/moderate", map[string]string{"decision": "reject"})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/topics/1/moderate", map[string]string{"decision": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetTopic(t *testing.T) {
	router, topicSvc, _, _, _ := setupTestHandler()
	topicSvc.topics[4] = &models.Topic{ID: 4, PublicID: "pub-4", Title: "test topic", Status: models.TopicStatusApproved}

	// The topic resource is addressed by numeric ID everywhere: read,
	// moderation and voting.
	w := doJSON(t, router, http.MethodGet, "/api/v1/topics/4", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var resp models.Topic
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, uint(4), resp.ID)

	w = doJSON(t, router, http.MethodGet, "/api/v1/topics/99", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = doJSON(t, router, http.MethodGet, "/api/v1/topics/pub-4", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCastDebateVote(t *testing.T) {
	router, _, _, ledgerSvc, _ := setupTestHandler()

	signals := fingerprint.Signals{UserAgent: "ua", Locale: "en-US"}
	w := doJSON(t, router, http.MethodPost, "/api/v1/debates/5/votes", map[string]interface{}{
		"side":    "pro",
		"signals": signals,
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["applied"])

	require.Len(t, ledgerSvc.casts, 1)
	assert.Contains(t, ledgerSvc.casts[0], fingerprint.Derive(signals))
}

func TestCastDebateVote_InvalidSide(t *testing.T) {
	router, _, _, _, _ := setupTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/v1/debates/5/votes", map[string]interface{}{
		"side": "abstain",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCastDebateVote_DuplicateStillOK(t *testing.T) {
	router, _, _, ledgerSvc, _ := setupTestHandler()
	ledgerSvc.applied = false

	w := doJSON(t, router, http.MethodPost, "/api/v1/debates/5/votes", map[string]interface{}{
		"side":    "con",
		"signals": fingerprint.Signals{UserAgent: "ua"},
	})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, false, resp["applied"])
}

func TestGetVoteTally(t *testing.T) {
	router, _, _, ledgerSvc, _ := setupTestHandler()
	agreement := 0.75
	ledgerSvc.tally = &ledger.VoteTally{DebateID: 5, TotalVotes: 4, ProVotes: 3, ConVotes: 1, ProPercentage: 75, ConPercentage: 25, AgreementWithJudge: &agreement}

	w := doJSON(t, router, http.MethodGet, "/api/v1/debates/5/votes", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	var tally ledger.VoteTally
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &tally))
	assert.Equal(t, int64(4), tally.TotalVotes)
	require.NotNil(t, tally.AgreementWithJudge)
	assert.Equal(t, 0.75, *tally.AgreementWithJudge)
}

func TestScheduleDebate(t *testing.T) {
	router, _, _, _, _ := setupTestHandler()

	w := doJSON(t, router, http.MethodPost, "/api/v1/debates", debates.ScheduleInput{
		TopicID: 1, ProModelID: 1, ConModelID: 2, JudgeModelID: 3, AuditorModelID: 4,
	})
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestErrorTaxonomyMapping(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"validation maps to 400", apperr.Validation("bad input"), http.StatusBadRequest},
		{"not found maps to 404", apperr.NotFound("missing"), http.StatusNotFound},
		{"conflict maps to 409", apperr.Conflict("already done"), http.StatusConflict},
		{"invariant maps to 422", apperr.Invariant("impossible state"), http.StatusUnprocessableEntity},
		{"unclassified maps to 500", fmt.Errorf("database exploded"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			router, _, debateSvc, _, _ := setupTestHandler()
			debateSvc.lastErr = tt.err

			w := doJSON(t, router, http.MethodPost, "/api/v1/debates/1/advance", nil)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestSubmitAudit(t *testing.T) {
	router, _, debateSvc, _, _ := setupTestHandler()
	debateSvc.debates[1] = &models.Debate{ID: 1, Status: "completed"}

	w := doJSON(t, router, http.MethodPost, "/api/v1/debates/1/audit", judging.ReviewInput{
		Accuracy: 8, Fairness: 8, Thoroughness: 8, ReasoningQuality: 8,
	})
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCancelDebate(t *testing.T) {
	router, _, debateSvc, _, _ := setupTestHandler()
	debateSvc.debates[2] = &models.Debate{ID: 2, Status: "scheduled"}

	w := doJSON(t, router, http.MethodPost, "/api/v1/debates/2/cancel", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodPost, "/api/v1/debates/99/cancel", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
