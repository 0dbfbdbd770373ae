package http

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/priyamtech/expense-approval/internal/application/service"
	"github.com/priyamtech/expense-approval/internal/policy"
)

// Handlers contains all HTTP request handlers
type Handlers struct {
	admissionService    service.AdmissionService
	approvalService     service.ApprovalService
	voucherService      service.VoucherService
	notificationService service.NotificationService
	logger              Logger
}

// NewHandlers creates a new Handlers instance
func NewHandlers(
	admissionService service.AdmissionService,
	approvalService service.ApprovalService,
	voucherService service.VoucherService,
	notificationService service.NotificationService,
	logger Logger,
) *Handlers {
	return &Handlers{
		admissionService:    admissionService,
		approvalService:     approvalService,
		voucherService:      voucherService,
		notificationService: notificationService,
		logger:              logger,
	}
}

// Response represents a standard JSON response
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version"`
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, Response{
		Success: true,
		Data: HealthResponse{
			Status:    "healthy",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   "1.0.0",
		},
	})
}

// SubmitClaim handles POST /api/claims (multipart, one bill file)
func (h *Handlers) SubmitClaim(c *gin.Context) {
	claimantID, ok := h.formInt64(c, "claimant_id")
	if !ok {
		return
	}
	amount, ok := h.formInt64(c, "amount_paise")
	if !ok {
		return
	}
	date, ok := h.formDate(c, "date")
	if !ok {
		return
	}

	fileBytes, fileName, err := readUpload(c, "bill")
	if err != nil {
		h.badRequest(c, "bill file is required")
		return
	}

	claim, err := h.admissionService.SubmitSingle(c.Request.Context(), service.SubmitBillInput{
		ClaimantID:  claimantID,
		Category:    c.PostForm("category"),
		AmountPaise: amount,
		Date:        date,
		Description: c.PostForm("description"),
		FileBytes:   fileBytes,
		FileName:    fileName,
		TravelMode:  c.PostForm("travel_mode"),
		TravelFrom:  c.PostForm("travel_from"),
		TravelTo:    c.PostForm("travel_to"),
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// SelfDeclarationRequest is the body for POST /api/claims/self-declaration
type SelfDeclarationRequest struct {
	ClaimantID  int64  `json:"claimant_id" binding:"required"`
	Category    string `json:"category" binding:"required"`
	AmountPaise int64  `json:"amount_paise" binding:"required"`
	Date        string `json:"date" binding:"required"`
	Description string `json:"description" binding:"required"`
	ReasonCode  string `json:"reason_code" binding:"required"`
}

// SubmitSelfDeclaration handles POST /api/claims/self-declaration
func (h *Handlers) SubmitSelfDeclaration(c *gin.Context) {
	var req SelfDeclarationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		h.badRequest(c, "date must be YYYY-MM-DD")
		return
	}

	claim, err := h.admissionService.SubmitSelfDeclaration(c.Request.Context(), service.SubmitSelfDeclInput{
		ClaimantID:  req.ClaimantID,
		Category:    req.Category,
		AmountPaise: req.AmountPaise,
		Date:        date,
		Description: req.Description,
		ReasonCode:  req.ReasonCode,
	})
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// SubmitTrip handles POST /api/claims/trip (multipart, parallel per-bill
// fields plus one file per bill)
func (h *Handlers) SubmitTrip(c *gin.Context) {
	claimantID, ok := h.formInt64(c, "claimant_id")
	if !ok {
		return
	}

	form, err := c.MultipartForm()
	if err != nil {
		h.badRequest(c, "multipart form required")
		return
	}

	categories := form.Value["categories"]
	amountStrs := form.Value["amounts_paise"]
	dateStrs := form.Value["dates"]
	descriptions := form.Value["descriptions"]
	files := form.File["bills"]

	amounts := make([]int64, 0, len(amountStrs))
	for _, s := range amountStrs {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			h.badRequest(c, "amounts_paise must be integers")
			return
		}
		amounts = append(amounts, v)
	}

	dates := make([]time.Time, 0, len(dateStrs))
	for _, s := range dateStrs {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.badRequest(c, "dates must be YYYY-MM-DD")
			return
		}
		dates = append(dates, d)
	}

	fileBytes := make([][]byte, 0, len(files))
	fileNames := make([]string, 0, len(files))
	for _, fh := range files {
		data, err := readFileHeader(fh)
		if err != nil {
			h.badRequest(c, "could not read uploaded bill")
			return
		}
		fileBytes = append(fileBytes, data)
		fileNames = append(fileNames, fh.Filename)
	}

	in := service.SubmitTripInput{
		ClaimantID:   claimantID,
		Categories:   categories,
		AmountsPaise: amounts,
		Dates:        dates,
		Descriptions: descriptions,
		Files:        fileBytes,
		FileNames:    fileNames,
		Purpose:      c.PostForm("purpose"),
	}
	if s := c.PostForm("trip_start"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.badRequest(c, "trip_start must be YYYY-MM-DD")
			return
		}
		in.TripStart = &d
	}
	if s := c.PostForm("trip_end"); s != "" {
		d, err := time.Parse("2006-01-02", s)
		if err != nil {
			h.badRequest(c, "trip_end must be YYYY-MM-DD")
			return
		}
		in.TripEnd = &d
	}

	claim, err := h.admissionService.SubmitTrip(c.Request.Context(), in)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusCreated, Response{Success: true, Data: claim})
}

// ListMyClaims handles GET /api/claims?claimant_id=N. With a number
// query it looks up that one claim instead.
func (h *Handlers) ListMyClaims(c *gin.Context) {
	claimantID, ok := h.queryInt64(c, "claimant_id")
	if !ok {
		return
	}
	if number := c.Query("number"); number != "" {
		claim, err := h.admissionService.GetClaimByNumber(c.Request.Context(), claimantID, number)
		if err != nil {
			h.serviceError(c, err)
			return
		}
		c.JSON(http.StatusOK, Response{Success: true, Data: []interface{}{claim}})
		return
	}
	limit, offset := pagination(c)

	claims, err := h.admissionService.ListMyClaims(c.Request.Context(), claimantID, limit, offset)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// GetClaimant handles GET /api/claimants/:employee_id
func (h *Handlers) GetClaimant(c *gin.Context) {
	claimant, err := h.admissionService.LookupClaimant(c.Request.Context(), c.Param("employee_id"))
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claimant})
}

// GetClaim handles GET /api/claims/:id
func (h *Handlers) GetClaim(c *gin.Context) {
	claimID, ok := h.paramID(c)
	if !ok {
		return
	}
	claimantID, ok := h.queryInt64(c, "claimant_id")
	if !ok {
		return
	}

	claim, err := h.admissionService.GetClaim(c.Request.Context(), claimantID, claimID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// UpdateClaimRequest is the body for PATCH /api/claims/:id
type UpdateClaimRequest struct {
	ClaimantID  int64   `json:"claimant_id" binding:"required"`
	Category    *string `json:"category"`
	AmountPaise *int64  `json:"amount_paise"`
	Description *string `json:"description"`
	Date        *string `json:"date"`
}

// UpdateClaim handles PATCH /api/claims/:id
func (h *Handlers) UpdateClaim(c *gin.Context) {
	claimID, ok := h.paramID(c)
	if !ok {
		return
	}
	var req UpdateClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}

	in := service.UpdateClaimInput{
		Category:    req.Category,
		AmountPaise: req.AmountPaise,
		Description: req.Description,
	}
	if req.Date != nil {
		d, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			h.badRequest(c, "date must be YYYY-MM-DD")
			return
		}
		in.Date = &d
	}

	claim, err := h.admissionService.Update(c.Request.Context(), req.ClaimantID, claimID, in)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// DeleteClaim handles DELETE /api/claims/:id?claimant_id=N
func (h *Handlers) DeleteClaim(c *gin.Context) {
	claimID, ok := h.paramID(c)
	if !ok {
		return
	}
	claimantID, ok := h.queryInt64(c, "claimant_id")
	if !ok {
		return
	}

	if err := h.admissionService.Delete(c.Request.Context(), claimantID, claimID); err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true})
}

// GetHistory handles GET /api/claims/:id/history
func (h *Handlers) GetHistory(c *gin.Context) {
	claimID, ok := h.paramID(c)
	if !ok {
		return
	}

	records, err := h.approvalService.History(c.Request.Context(), claimID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: records})
}

// GetAuditTrail handles GET /api/claims/:id/audit
func (h *Handlers) GetAuditTrail(c *gin.Context) {
	claimID, ok := h.paramID(c)
	if !ok {
		return
	}

	logs, err := h.approvalService.AuditTrail(c.Request.Context(), claimID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: logs})
}

// ListNotifications handles GET /api/notifications?recipient_id=N
func (h *Handlers) ListNotifications(c *gin.Context) {
	recipientID, ok := h.queryInt64(c, "recipient_id")
	if !ok {
		return
	}
	limit, offset := pagination(c)

	list, err := h.notificationService.List(c.Request.Context(), recipientID, limit, offset)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: list})
}

// DecisionRequest is the body for approve/reject calls
type DecisionRequest struct {
	ReviewerID int64  `json:"reviewer_id" binding:"required"`
	Comments   string `json:"comments"`
}

// ApproveClaim handles POST /api/claims/:id/approve
func (h *Handlers) ApproveClaim(c *gin.Context) {
	claimID, req, ok := h.bindDecision(c)
	if !ok {
		return
	}

	claim, err := h.approvalService.Approve(c.Request.Context(), claimID, req.ReviewerID, req.Comments)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

// RejectClaim handles POST /api/claims/:id/reject
func (h *Handlers) RejectClaim(c *gin.Context) {
	claimID, req, ok := h.bindDecision(c)
	if !ok {
		return
	}

	claim, err := h.approvalService.Reject(c.Request.Context(), claimID, req.ReviewerID, req.Comments)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claim})
}

func (h *Handlers) bindDecision(c *gin.Context) (int64, DecisionRequest, bool) {
	claimID, ok := h.paramID(c)
	if !ok {
		return 0, DecisionRequest{}, false
	}
	var req DecisionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.badRequest(c, "reviewer_id is required")
		return 0, DecisionRequest{}, false
	}
	return claimID, req, true
}

// ListPending handles GET /api/approvals/pending?reviewer_id=N
func (h *Handlers) ListPending(c *gin.Context) {
	reviewerID, ok := h.queryInt64(c, "reviewer_id")
	if !ok {
		return
	}
	limit, offset := pagination(c)

	claims, err := h.approvalService.ListPending(c.Request.Context(), reviewerID, limit, offset)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: claims})
}

// VoucherResponse carries the exported voucher location
type VoucherResponse struct {
	ClaimID int64  `json:"claim_id"`
	Path    string `json:"path"`
}

// ExportVoucher handles POST /api/claims/:id/voucher
func (h *Handlers) ExportVoucher(c *gin.Context) {
	claimID, ok := h.paramID(c)
	if !ok {
		return
	}

	path, err := h.voucherService.Export(c.Request.Context(), claimID)
	if err != nil {
		h.serviceError(c, err)
		return
	}

	c.JSON(http.StatusOK, Response{Success: true, Data: VoucherResponse{ClaimID: claimID, Path: path}})
}

// serviceError maps application errors onto HTTP status codes.
func (h *Handlers) serviceError(c *gin.Context, err error) {
	var inputErr *service.InputError
	var violation *policy.Violation
	var dupErr *service.DuplicateBlockedError

	switch {
	case errors.As(err, &inputErr), errors.As(err, &violation):
		c.JSON(http.StatusBadRequest, Response{Success: false, Error: err.Error()})
	case errors.As(err, &dupErr):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNotPermitted):
		c.JSON(http.StatusForbidden, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrClaimNotFound), errors.Is(err, service.ErrClaimantNotFound):
		c.JSON(http.StatusNotFound, Response{Success: false, Error: err.Error()})
	case errors.Is(err, service.ErrNoPendingApproval),
		errors.Is(err, service.ErrClaimFinalized),
		errors.Is(err, service.ErrClaimLocked):
		c.JSON(http.StatusConflict, Response{Success: false, Error: err.Error()})
	default:
		h.logger.Error("Request failed", "error", err)
		c.JSON(http.StatusInternalServerError, Response{Success: false, Error: "internal error"})
	}
}

func (h *Handlers) badRequest(c *gin.Context, msg string) {
	c.JSON(http.StatusBadRequest, Response{Success: false, Error: msg})
}

func (h *Handlers) paramID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		h.badRequest(c, "invalid claim id")
		return 0, false
	}
	return id, true
}

func (h *Handlers) queryInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.Query(name), 10, 64)
	if err != nil {
		h.badRequest(c, name+" is required")
		return 0, false
	}
	return v, true
}

func (h *Handlers) formInt64(c *gin.Context, name string) (int64, bool) {
	v, err := strconv.ParseInt(c.PostForm(name), 10, 64)
	if err != nil {
		h.badRequest(c, name+" is required")
		return 0, false
	}
	return v, true
}

func (h *Handlers) formDate(c *gin.Context, name string) (time.Time, bool) {
	d, err := time.Parse("2006-01-02", c.PostForm(name))
	if err != nil {
		h.badRequest(c, name+" must be YYYY-MM-DD")
		return time.Time{}, false
	}
	return d, true
}

func pagination(c *gin.Context) (limit, offset int) {
	limit, _ = strconv.Atoi(c.DefaultQuery("limit", "20"))
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	offset, _ = strconv.Atoi(c.DefaultQuery("offset", "0"))
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

func readUpload(c *gin.Context, field string) ([]byte, string, error) {
	fh, err := c.FormFile(field)
	if err != nil {
		return nil, "", err
	}
	data, err := readFileHeader(fh)
	if err != nil {
		return nil, "", err
	}
	return data, fh.Filename, nil
}

func readFileHeader(fh *multipart.FileHeader) ([]byte, error) {
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(f)
}
