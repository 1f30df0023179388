package handler

import (
	"net/http"

	"github.com/fabtrain/console/internal/form"
	"github.com/fabtrain/console/internal/response"
	"github.com/fabtrain/console/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// FormHandler exposes open forms: field by field editing and submission.
type FormHandler struct {
	formService *service.FormService
}

// NewFormHandler creates a new FormHandler.
func NewFormHandler(formService *service.FormService) *FormHandler {
	return &FormHandler{formService: formService}
}

// OpenFormRequest is the payload for opening a form.
type OpenFormRequest struct {
	Kind string `json:"kind" binding:"required,oneof=create change"`
}

// SetFieldRequest carries one field value. A null or missing value clears
// the field.
type SetFieldRequest struct {
	Value *string `json:"value"`
}

// OpenForm godoc
// POST /api/v1/forms
// Opens an empty create or change form.
func (h *FormHandler) OpenForm(c *gin.Context) {
	var req OpenFormRequest
	if !bindJSON(c, &req, false) {
		return
	}

	view, err := h.formService.Open(form.Kind(req.Kind))
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusCreated, gin.H{"form": view})
}

// GetForm godoc
// GET /api/v1/forms/:id
func (h *FormHandler) GetForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}

	view, err := h.formService.Get(id)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"form": view})
}

// SetField godoc
// PUT /api/v1/forms/:id/fields/:name
// Replaces one field value. Unknown field names are rejected.
func (h *FormHandler) SetField(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}

	var req SetFieldRequest
	if !bindJSON(c, &req, false) {
		return
	}

	view, err := h.formService.SetField(id, c.Param("name"), req.Value)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"form": view})
}

// SubmitForm godoc
// POST /api/v1/forms/:id/submit
// Validates the form and hands its request to the backend transport.
func (h *FormHandler) SubmitForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}

	req, err := h.formService.Submit(id)
	if err != nil {
		failWith(c, err)
		return
	}
	response.Accepted(c, gin.H{"request": req, "mode": form.ModePending})
}

// CloseForm godoc
// DELETE /api/v1/forms/:id
func (h *FormHandler) CloseForm(c *gin.Context) {
	id, ok := formID(c)
	if !ok {
		return
	}

	if err := h.formService.Close(id); err != nil {
		failWith(c, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"message": "form closed"})
}

func formID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
