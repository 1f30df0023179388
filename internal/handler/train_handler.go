package handler

import (
	"net/http"

	"github.com/fabtrain/console/internal/form"
	"github.com/fabtrain/console/internal/response"
	"github.com/fabtrain/console/internal/service"
	"github.com/gin-gonic/gin"
)

// TrainHandler serves the train feed and the one-shot create/change and
// ledger query endpoints.
type TrainHandler struct {
	formService   *service.FormService
	feedService   *service.FeedService
	ledgerService *service.LedgerService
}

// NewTrainHandler creates a new TrainHandler.
func NewTrainHandler(formService *service.FormService, feedService *service.FeedService, ledgerService *service.LedgerService) *TrainHandler {
	return &TrainHandler{
		formService:   formService,
		feedService:   feedService,
		ledgerService: ledgerService,
	}
}

// CreateTrainRequest is the full creation form. Presence and format are
// checked by the form rules, not by binding, so messages stay exact. An
// empty body is a form with nothing entered.
type CreateTrainRequest struct {
	ID     *string `json:"ID"`
	Fname  *string `json:"fname"`
	Gender *string `json:"gender"`
	Place  *string `json:"place"`
	Class  *string `json:"class"`
	Status *string `json:"status"`
}

// ChangeStatusRequest is the full status change form.
type ChangeStatusRequest struct {
	ID        *string `json:"ID"`
	NewStatus *string `json:"newStatus"`
}

// QueryTrainRequest is the path of a single train query.
type QueryTrainRequest struct {
	ID string `uri:"id" json:"id" binding:"required,notblank"`
}

// CreateTrain godoc
// POST /api/v1/trains
func (h *TrainHandler) CreateTrain(c *gin.Context) {
	var req CreateTrainRequest
	if !bindJSON(c, &req, true) {
		return
	}

	h.submit(c, form.KindCreate, map[string]*string{
		form.FieldID:     req.ID,
		form.FieldFname:  req.Fname,
		form.FieldGender: req.Gender,
		form.FieldPlace:  req.Place,
		form.FieldClass:  req.Class,
		form.FieldStatus: req.Status,
	})
}

// ChangeStatus godoc
// POST /api/v1/trains/status
func (h *TrainHandler) ChangeStatus(c *gin.Context) {
	var req ChangeStatusRequest
	if !bindJSON(c, &req, true) {
		return
	}

	h.submit(c, form.KindChange, map[string]*string{
		form.FieldID:        req.ID,
		form.FieldNewStatus: req.NewStatus,
	})
}

// ListTrains godoc
// GET /api/v1/trains
// Returns the rendered feed last received from the backend.
func (h *TrainHandler) ListTrains(c *gin.Context) {
	view, err := h.feedService.View(c.Request.Context())
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"feed": view})
}

// RefreshTrains godoc
// POST /api/v1/trains/refresh
func (h *TrainHandler) RefreshTrains(c *gin.Context) {
	req, err := h.ledgerService.Refresh()
	if err != nil {
		failWith(c, err)
		return
	}
	response.Accepted(c, gin.H{"request": req})
}

// QueryTrain godoc
// GET /api/v1/trains/:id
// Asks the backend for one train; the answer arrives on the feed.
func (h *TrainHandler) QueryTrain(c *gin.Context) {
	var uri QueryTrainRequest
	if !bindURI(c, &uri) {
		return
	}

	req, err := h.ledgerService.Query(uri.ID)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Accepted(c, gin.H{"request": req})
}

// InitLedger godoc
// POST /api/v1/ledger/init
func (h *TrainHandler) InitLedger(c *gin.Context) {
	req, err := h.ledgerService.InitLedger()
	if err != nil {
		failWith(c, err)
		return
	}
	response.Accepted(c, gin.H{"request": req})
}

func (h *TrainHandler) submit(c *gin.Context, kind form.Kind, values map[string]*string) {
	req, err := h.formService.SubmitOnce(kind, values)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Accepted(c, gin.H{"request": req, "mode": form.ModePending})
}
