// Package arena provides the REST API handlers for the debate arena: topic
// intake, debate lifecycle, voting, and standings.
package arena

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

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

// TopicService interface for topic intake operations.
type TopicService interface {
	Submit(ctx context.Context, in topics.SubmitInput) (*models.Topic, error)
	Moderate(ctx context.Context, topicID uint, approve bool) (*models.Topic, error)
	List(ctx context.Context, status string, limit int) ([]models.Topic, error)
	Get(ctx context.Context, topicID uint) (*models.Topic, error)
}

// DebateService interface for debate lifecycle operations.
type DebateService interface {
	Schedule(ctx context.Context, in debates.ScheduleInput) (*models.Debate, error)
	Start(ctx context.Context, debateID uint) (*models.Debate, error)
	RecordTranscript(ctx context.Context, debateID uint, in debates.TranscriptInput) (*models.TranscriptEntry, error)
	AdvancePhase(ctx context.Context, debateID uint) (*models.Debate, error)
	SubmitJudgment(ctx context.Context, debateID uint, in debates.JudgmentInput) (*models.Debate, error)
	SubmitAudit(ctx context.Context, debateID uint, review judging.ReviewInput) (*debates.AuditOutcome, error)
	Cancel(ctx context.Context, debateID uint) error
	Get(ctx context.Context, debateID uint) (*models.Debate, error)
	Transcript(ctx context.Context, debateID uint) ([]models.TranscriptEntry, error)
}

// LedgerService interface for vote operations.
type LedgerService interface {
	CastTopicVote(ctx context.Context, topicID uint, voterHash string) (bool, error)
	CastDebateVote(ctx context.Context, debateID uint, side, voterHash string) (bool, error)
	Tally(ctx context.Context, debateID uint) (*ledger.VoteTally, error)
}

// StandingsService interface for ranking reads.
type StandingsService interface {
	Standings(ctx context.Context) (*standings.StandingsResponse, error)
	ModelDetail(ctx context.Context, modelID uint) (*standings.ModelDetail, error)
	EloHistory(ctx context.Context, modelID uint) ([]standings.HistoryPoint, error)
}

// Handler handles arena API requests.
type Handler struct {
	topicService    TopicService
	debateService   DebateService
	ledgerService   LedgerService
	standingService StandingsService
	log             *logger.Logger
}

// NewHandler creates a new arena handler.
func NewHandler(topicService *topics.Service, debateService *debates.Service, ledgerService *ledger.Service, standingService *standings.Service, log *logger.Logger) *Handler {
	return &Handler{
		topicService:    topicService,
		debateService:   debateService,
		ledgerService:   ledgerService,
		standingService: standingService,
		log:             log,
	}
}

// NewHandlerWithInterfaces creates a new arena handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(topicService TopicService, debateService DebateService, ledgerService LedgerService, standingService StandingsService, log *logger.Logger) *Handler {
	return &Handler{
		topicService:    topicService,
		debateService:   debateService,
		ledgerService:   ledgerService,
		standingService: standingService,
		log:             log,
	}
}

// Register mounts all arena routes under /api/v1. voteLimiter, when non-nil,
// guards the vote endpoints.
func (h *Handler) Register(r gin.IRouter, voteLimiter gin.HandlerFunc) {
	v1 := r.Group("/api/v1")

	v1.GET("/standings", h.GetStandings)
	v1.GET("/models/:id", h.GetModelDetail)
	v1.GET("/models/:id/history", h.GetEloHistory)

	v1.GET("/topics", h.ListTopics)
	v1.GET("/topics/:id", h.GetTopic)
	v1.POST("/topics", h.SubmitTopic)
	v1.POST("/topics/:id/moderate", h.ModerateTopic)

	v1.POST("/debates", h.ScheduleDebate)
	v1.GET("/debates/:id", h.GetDebate)
	v1.GET("/debates/:id/transcript", h.GetTranscript)
	v1.POST("/debates/:id/start", h.StartDebate)
	v1.POST("/debates/:id/transcript", h.RecordTranscript)
	v1.POST("/debates/:id/advance", h.AdvancePhase)
	v1.POST("/debates/:id/judgment", h.SubmitJudgment)
	v1.POST("/debates/:id/audit", h.SubmitAudit)
	v1.POST("/debates/:id/cancel", h.CancelDebate)

	v1.GET("/debates/:id/votes", h.GetVoteTally)

	votes := v1.Group("")
	if voteLimiter != nil {
		votes.Use(voteLimiter)
	}
	votes.POST("/topics/:id/votes", h.CastTopicVote)
	votes.POST("/debates/:id/votes", h.CastDebateVote)
}

// voteRequest carries the fingerprint signals every vote must include. The IP
// address is accepted for rate limiting but never enters the fingerprint.
type voteRequest struct {
	Side      string              `json:"side"`
	Signals   fingerprint.Signals `json:"signals"`
	IPAddress string              `json:"ip_address"`
}

// submitTopicRequest is the topic intake payload.
type submitTopicRequest struct {
	Title     string               `json:"title"`
	Domain    string               `json:"domain"`
	Subdomain string               `json:"category"`
	Source    string               `json:"source"`
	Signals   *fingerprint.Signals `json:"signals"`
}

// moderateRequest carries the moderation decision.
type moderateRequest struct {
	Decision string `json:"decision"`
}

// GetStandings returns both leaderboards.
// GET /api/v1/standings.
func (h *Handler) GetStandings(c *gin.Context) {
	resp, err := h.standingService.Standings(c.Request.Context())
	if err != nil {
		h.respondError(c, err, "Failed to compute standings")
		return
	}
	c.JSON(http.StatusOK, resp)
}

// GetModelDetail returns one model's full profile.
// GET /api/v1/models/:id.
func (h *Handler) GetModelDetail(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	detail, err := h.standingService.ModelDetail(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve model detail")
		return
	}
	c.JSON(http.StatusOK, detail)
}

// GetEloHistory returns a model's rating trajectory.
// GET /api/v1/models/:id/history.
func (h *Handler) GetEloHistory(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	history, err := h.standingService.EloHistory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve elo history")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"model_id":     id,
		"elo_history":  history,
		"total_points": len(history),
	})
}

// ListTopics returns topics in a moderation status.
// GET /api/v1/topics?status=pending&limit=50.
func (h *Handler) ListTopics(c *gin.Context) {
	status := c.DefaultQuery("status", models.TopicStatusApproved)
	limit, err := h.parseLimit(c, 50)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	list, err := h.topicService.List(c.Request.Context(), status, limit)
	if err != nil {
		h.respondError(c, err, "Failed to list topics")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"topics":       list,
		"status":       status,
		"total_topics": len(list),
	})
}

// GetTopic returns a topic.
// GET /api/v1/topics/:id.
func (h *Handler) GetTopic(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	topic, err := h.topicService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve topic")
		return
	}
	c.JSON(http.StatusOK, topic)
}

// SubmitTopic records a new topic proposal.
// POST /api/v1/topics.
func (h *Handler) SubmitTopic(c *gin.Context) {
	var req submitTopicRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	in := topics.SubmitInput{
		Title:     req.Title,
		Domain:    req.Domain,
		Subdomain: req.Subdomain,
		Source:    req.Source,
	}
	if req.Signals != nil {
		in.SubmittedBy = fingerprint.Derive(*req.Signals)
	}

	topic, err := h.topicService.Submit(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Failed to submit topic")
		return
	}
	c.JSON(http.StatusCreated, topic)
}

// ModerateTopic approves or rejects a pending topic.
// POST /api/v1/topics/:id/moderate.
func (h *Handler) ModerateTopic(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req moderateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Decision != "approve" && req.Decision != "reject" {
		h.errorResponse(c, http.StatusBadRequest, fmt.Sprintf("decision must be approve or reject, got %q", req.Decision))
		return
	}

	topic, err := h.topicService.Moderate(c.Request.Context(), id, req.Decision == "approve")
	if err != nil {
		h.respondError(c, err, "Failed to moderate topic")
		return
	}
	c.JSON(http.StatusOK, topic)
}

// ScheduleDebate creates a debate from an approved topic.
// POST /api/v1/debates.
func (h *Handler) ScheduleDebate(c *gin.Context) {
	var in debates.ScheduleInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	debate, err := h.debateService.Schedule(c.Request.Context(), in)
	if err != nil {
		h.respondError(c, err, "Failed to schedule debate")
		return
	}
	c.JSON(http.StatusCreated, debate)
}

// GetDebate returns a debate with its participants.
// GET /api/v1/debates/:id.
func (h *Handler) GetDebate(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	debate, err := h.debateService.Get(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve debate")
		return
	}
	c.JSON(http.StatusOK, debate)
}

// GetTranscript returns a debate's transcript in replay order.
// GET /api/v1/debates/:id/transcript.
func (h *Handler) GetTranscript(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.debateService.Transcript(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to retrieve transcript")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"debate_id":     id,
		"transcript":    entries,
		"total_entries": len(entries),
	})
}

// StartDebate moves a scheduled debate into the opening phase.
// POST /api/v1/debates/:id/start.
func (h *Handler) StartDebate(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	debate, err := h.debateService.Start(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to start debate")
		return
	}
	c.JSON(http.StatusOK, debate)
}

// RecordTranscript appends an utterance to an in-progress debate.
// POST /api/v1/debates/:id/transcript.
func (h *Handler) RecordTranscript(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var in debates.TranscriptInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	entry, err := h.debateService.RecordTranscript(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "Failed to record transcript entry")
		return
	}
	c.JSON(http.StatusCreated, entry)
}

// AdvancePhase steps a debate to its next sub-phase or into judgment.
// POST /api/v1/debates/:id/advance.
func (h *Handler) AdvancePhase(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	debate, err := h.debateService.AdvancePhase(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to advance debate phase")
		return
	}
	c.JSON(http.StatusOK, debate)
}

// SubmitJudgment records the judge's scores and moves the debate to audit.
// POST /api/v1/debates/:id/judgment.
func (h *Handler) SubmitJudgment(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var in debates.JudgmentInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	debate, err := h.debateService.SubmitJudgment(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "Failed to submit judgment")
		return
	}
	c.JSON(http.StatusOK, debate)
}

// SubmitAudit records the auditor's review, completes the debate and applies
// the rating update.
// POST /api/v1/debates/:id/audit.
func (h *Handler) SubmitAudit(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var in judging.ReviewInput
	if err := c.ShouldBindJSON(&in); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	outcome, err := h.debateService.SubmitAudit(c.Request.Context(), id, in)
	if err != nil {
		h.respondError(c, err, "Failed to submit audit")
		return
	}
	c.JSON(http.StatusOK, outcome)
}

// CancelDebate terminates a debate from any non-terminal state.
// POST /api/v1/debates/:id/cancel.
func (h *Handler) CancelDebate(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	if err := h.debateService.Cancel(c.Request.Context(), id); err != nil {
		h.respondError(c, err, "Failed to cancel debate")
		return
	}
	c.JSON(http.StatusOK, gin.H{"debate_id": id, "status": "cancelled"})
}

// CastTopicVote records one community vote for a topic.
// POST /api/v1/topics/:id/votes.
func (h *Handler) CastTopicVote(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	applied, err := h.ledgerService.CastTopicVote(c.Request.Context(), id, fingerprint.Derive(req.Signals))
	if err != nil {
		h.respondError(c, err, "Failed to cast topic vote")
		return
	}
	c.JSON(http.StatusOK, gin.H{"topic_id": id, "applied": applied})
}

// CastDebateVote records one community vote for a side of a debate.
// POST /api/v1/debates/:id/votes.
func (h *Handler) CastDebateVote(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	var req voteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "invalid request body")
		return
	}

	applied, err := h.ledgerService.CastDebateVote(c.Request.Context(), id, req.Side, fingerprint.Derive(req.Signals))
	if err != nil {
		h.respondError(c, err, "Failed to cast debate vote")
		return
	}
	c.JSON(http.StatusOK, gin.H{"debate_id": id, "side": req.Side, "applied": applied})
}

// GetVoteTally returns the aggregated community vote for a debate.
// GET /api/v1/debates/:id/votes.
func (h *Handler) GetVoteTally(c *gin.Context) {
	id, err := h.parseID(c)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	tally, err := h.ledgerService.Tally(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err, "Failed to compute vote tally")
		return
	}
	c.JSON(http.StatusOK, tally)
}

// Helper functions

// parseID extracts and validates the numeric ID from the URL parameter.
func (h *Handler) parseID(c *gin.Context) (uint, error) {
	idStr := c.Param("id")
	id, err := strconv.ParseUint(idStr, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid ID: %s", idStr)
	}
	return uint(id), nil
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}
	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}
	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}
	return limit, nil
}

// respondError maps the application error taxonomy onto HTTP status codes.
// Invariant violations and unclassified errors are logged; the rest are
// expected client outcomes.
func (h *Handler) respondError(c *gin.Context, err error, fallback string) {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		h.errorResponse(c, http.StatusBadRequest, err.Error())
	case apperr.KindNotFound:
		h.errorResponse(c, http.StatusNotFound, err.Error())
	case apperr.KindConflict:
		h.errorResponse(c, http.StatusConflict, err.Error())
	case apperr.KindInvariant:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("Invariant violation")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
	default:
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg(fallback)
		h.errorResponse(c, http.StatusInternalServerError, fallback)
	}
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
