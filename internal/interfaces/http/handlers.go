package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/djishijima/hellbuild-v3/internal/application/query"
	"github.com/djishijima/hellbuild-v3/internal/application/service"
	appwf "github.com/djishijima/hellbuild-v3/internal/application/workflow"
	"github.com/djishijima/hellbuild-v3/internal/domain/entity"
	"github.com/djishijima/hellbuild-v3/internal/domain/validation"
)

// Handlers contains HTTP handlers that delegate to application services
type Handlers struct {
	approvals      service.ApprovalService
	references     service.ReferenceService
	enrichment     service.EnrichmentService
	export         service.ExportService
	health         HealthFunc
	maxUploadBytes int64
	logger         Logger
}

// NewHandlers creates handlers over the given services
func NewHandlers(deps Dependencies, maxUploadBytes int64, logger Logger) *Handlers {
	if maxUploadBytes <= 0 {
		maxUploadBytes = DefaultServerConfig().MaxUploadBytes
	}
	return &Handlers{
		approvals:      deps.Approvals,
		references:     deps.References,
		enrichment:     deps.Enrichment,
		export:         deps.Export,
		health:         deps.Health,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	if h.health == nil {
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
		return
	}
	healthy, details := h.health(c.Request.Context())
	if !healthy {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "components": details})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "components": details})
}

// requireActor returns the acting user id or writes a 401
func requireActor(c *gin.Context) (string, bool) {
	id := actorID(c)
	if id == "" {
		abortUnauthorized(c, "user identity is required")
		return "", false
	}
	return id, true
}

// createApprovalRequest is the body of POST /api/approvals
type createApprovalRequest struct {
	ApplicationCodeID string                `json:"applicationCodeId"`
	FormData          validation.RawPayload `json:"formData"`
	Status            string                `json:"status"`
}

// remarksRequest is the body of approve, reject and return
type remarksRequest struct {
	Remarks string `json:"remarks"`
}

// submitRequest is the optional body of submit. A missing formData keeps the stored form.
type submitRequest struct {
	FormData validation.RawPayload `json:"formData"`
}

// transitionRequest is the body of the generic transition endpoint
type transitionRequest struct {
	Status     string                `json:"status"`
	ApproverID string                `json:"approverId"`
	Remarks    string                `json:"remarks"`
	FormData   validation.RawPayload `json:"formData"`
}

// ListApprovals handles GET /api/approvals
func (h *Handlers) ListApprovals(c *gin.Context) {
	page := service.PageRequest{
		Page:  queryInt(c, "page"),
		Limit: queryInt(c, "limit"),
	}

	result, err := h.approvals.List(c.Request.Context(), criteriaFrom(c), page)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, result)
}

// GetApproval handles GET /api/approvals/:id
func (h *Handlers) GetApproval(c *gin.Context) {
	record, err := h.approvals.GetRecord(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, record)
}

// GetApprovalHistory handles GET /api/approvals/:id/history
func (h *Handlers) GetApprovalHistory(c *gin.Context) {
	history, err := h.approvals.GetHistory(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, history)
}

// CreateApproval handles POST /api/approvals
func (h *Handlers) CreateApproval(c *gin.Context) {
	applicantID, ok := requireActor(c)
	if !ok {
		return
	}

	var req createApprovalRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	target := entity.StatusDraft
	if req.Status != "" {
		s, ok := entity.ParseLegacyStatus(req.Status)
		if !ok || (s != entity.StatusDraft && s != entity.StatusSubmitted) {
			respondBadRequest(c, "status must be draft or submitted")
			return
		}
		target = s
	}

	ctx := c.Request.Context()
	var (
		record *entity.ApprovalRecord
		err    error
	)
	if target == entity.StatusSubmitted {
		record, err = h.approvals.SubmitNew(ctx, applicantID, req.ApplicationCodeID, req.FormData)
	} else {
		record, err = h.approvals.CreateDraft(ctx, applicantID, req.ApplicationCodeID, req.FormData)
	}
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, Response{Success: true, Data: record})
}

// SubmitApproval handles POST /api/approvals/:id/submit
func (h *Handlers) SubmitApproval(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req submitRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	record, err := h.approvals.Submit(c.Request.Context(), c.Param("id"), actor, req.FormData)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, record)
}

// ApproveApproval handles POST /api/approvals/:id/approve
func (h *Handlers) ApproveApproval(c *gin.Context) {
	h.decide(c, h.approvals.Approve)
}

// RejectApproval handles POST /api/approvals/:id/reject
func (h *Handlers) RejectApproval(c *gin.Context) {
	h.decide(c, h.approvals.Reject)
}

// ReturnApproval handles POST /api/approvals/:id/return
func (h *Handlers) ReturnApproval(c *gin.Context) {
	h.decide(c, h.approvals.Return)
}

type decisionFunc func(ctx context.Context, recordID, actorID, remarks string) (*entity.ApprovalRecord, error)

func (h *Handlers) decide(c *gin.Context, fn decisionFunc) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req remarksRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondBadRequest(c, "invalid request body: "+err.Error())
			return
		}
	}

	record, err := fn(c.Request.Context(), c.Param("id"), actor, req.Remarks)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, record)
}

// TransitionApproval handles POST /api/approvals/:id/transition
func (h *Handlers) TransitionApproval(c *gin.Context) {
	actor, ok := requireActor(c)
	if !ok {
		return
	}

	var req transitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body: "+err.Error())
		return
	}

	target, ok := entity.ParseLegacyStatus(req.Status)
	if !ok {
		respondBadRequest(c, "unknown status: "+req.Status)
		return
	}

	approverID := req.ApproverID
	if approverID == "" {
		approverID = actor
	}
	tc := appwf.TransitionContext{
		ApproverID: approverID,
		Remarks:    req.Remarks,
		FormData:   req.FormData,
	}

	record, err := h.approvals.Transition(c.Request.Context(), c.Param("id"), actor, target, tc)
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, record)
}

// DashboardStats handles GET /api/dashboard/stats
func (h *Handlers) DashboardStats(c *gin.Context) {
	stats, err := h.approvals.DashboardStats(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	respondOK(c, stats)
}

// ExportApprovals handles GET /api/approvals/export
func (h *Handlers) ExportApprovals(c *gin.Context) {
	data, err := h.export.Export(c.Request.Context(), criteriaFrom(c))
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="approvals.xlsx"`)
	c.Data(http.StatusOK, ContentTypeXLSX, data)
}

// ContentTypeXLSX is the media type of exported workbooks
const ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

func criteriaFrom(c *gin.Context) query.Criteria {
	return query.Criteria{
		SearchTerm: c.Query("search"),
		Status:     c.Query("status"),
		Category:   c.Query("category"),
	}
}

// queryInt returns 0 for a missing or malformed parameter so paging defaults apply
func queryInt(c *gin.Context, key string) int {
	v, err := strconv.Atoi(c.Query(key))
	if err != nil {
		return 0
	}
	return v
}
