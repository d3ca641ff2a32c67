package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/tms-allocation-api/internal/dto"
	"github.com/noah-isme/tms-allocation-api/internal/service"
	appErrors "github.com/noah-isme/tms-allocation-api/pkg/errors"
	"github.com/noah-isme/tms-allocation-api/pkg/response"
)

// AllocationHandler exposes the allocation editing session over HTTP.
type AllocationHandler struct {
	sessions    *service.AllocationService
	submissions *service.SubmissionService
}

// NewAllocationHandler constructs an AllocationHandler.
func NewAllocationHandler(sessions *service.AllocationService, submissions *service.SubmissionService) *AllocationHandler {
	return &AllocationHandler{sessions: sessions, submissions: submissions}
}

// Open godoc
// @Summary Open an allocation session
// @Tags Allocations
// @Accept json
// @Produce json
// @Param payload body dto.OpenSessionRequest true "Session payload"
// @Success 201 {object} response.Envelope
// @Router /allocations [post]
func (h *AllocationHandler) Open(c *gin.Context) {
	var req dto.OpenSessionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid session payload"))
		return
	}
	view, err := h.sessions.Open(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, view)
}

// Get godoc
// @Summary Get the session table and latest report
// @Tags Allocations
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id} [get]
func (h *AllocationHandler) Get(c *gin.Context) {
	view, err := h.sessions.Get(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}

// SelectDomain godoc
// @Summary Add a domain's courses to the table
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SelectDomainRequest true "Domain payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/domains/select [post]
func (h *AllocationHandler) SelectDomain(c *gin.Context) {
	var req dto.SelectDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid domain payload"))
		return
	}
	view, err := h.sessions.SelectDomain(c.Param("id"), req)
	h.respond(c, view, err)
}

// DeselectDomain godoc
// @Summary Park a domain's rows
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.DeselectDomainRequest true "Domain payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/domains/deselect [post]
func (h *AllocationHandler) DeselectDomain(c *gin.Context) {
	var req dto.DeselectDomainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid domain payload"))
		return
	}
	view, err := h.sessions.DeselectDomain(c.Param("id"), req)
	h.respond(c, view, err)
}

// AddBatch godoc
// @Summary Append a batch to a row
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.RowRequest true "Row payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/batches [post]
func (h *AllocationHandler) AddBatch(c *gin.Context) {
	var req dto.RowRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid row payload"))
		return
	}
	view, err := h.sessions.AddBatch(c.Param("id"), req)
	h.respond(c, view, err)
}

// RemoveBatch godoc
// @Summary Remove a batch from a row
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.BatchRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/batches/remove [post]
func (h *AllocationHandler) RemoveBatch(c *gin.Context) {
	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	view, err := h.sessions.RemoveBatch(c.Param("id"), req)
	h.respond(c, view, err)
}

// SetStudents godoc
// @Summary Set a batch's assigned student count
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetStudentsRequest true "Students payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/batches/students [patch]
func (h *AllocationHandler) SetStudents(c *gin.Context) {
	var req dto.SetStudentsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid students payload"))
		return
	}
	view, err := h.sessions.SetStudentsAssigned(c.Param("id"), req)
	h.respond(c, view, err)
}

// SetHoursBudget godoc
// @Summary Set a batch's hour budget
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetHoursBudgetRequest true "Hours payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/batches/hours [patch]
func (h *AllocationHandler) SetHoursBudget(c *gin.Context) {
	var req dto.SetHoursBudgetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hours payload"))
		return
	}
	view, err := h.sessions.SetHoursBudget(c.Param("id"), req)
	h.respond(c, view, err)
}

// AddTrainer godoc
// @Summary Append an empty trainer slot to a batch
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.BatchRequest true "Batch payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/trainers [post]
func (h *AllocationHandler) AddTrainer(c *gin.Context) {
	var req dto.BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid batch payload"))
		return
	}
	view, err := h.sessions.AddTrainer(c.Param("id"), req)
	h.respond(c, view, err)
}

// RemoveTrainer godoc
// @Summary Remove a trainer assignment
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.TrainerKeyRequest true "Assignment payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/trainers/remove [post]
func (h *AllocationHandler) RemoveTrainer(c *gin.Context) {
	var req dto.TrainerKeyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}
	view, err := h.sessions.RemoveTrainer(c.Param("id"), req)
	h.respond(c, view, err)
}

// SetTrainerField godoc
// @Summary Edit one assignment field
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.TrainerFieldRequest true "Field payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/trainers/field [patch]
func (h *AllocationHandler) SetTrainerField(c *gin.Context) {
	var req dto.TrainerFieldRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid field payload"))
		return
	}
	view, err := h.sessions.SetTrainerField(c.Request.Context(), c.Param("id"), req)
	h.respond(c, view, err)
}

// SetTrainerTotalHours godoc
// @Summary Redistribute a trainer's total hours
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetTotalHoursRequest true "Hours payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/trainers/total-hours [patch]
func (h *AllocationHandler) SetTrainerTotalHours(c *gin.Context) {
	var req dto.SetTotalHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hours payload"))
		return
	}
	view, err := h.sessions.SetTrainerTotalHours(c.Param("id"), req)
	h.respond(c, view, err)
}

// SetTrainerDailyHours godoc
// @Summary Edit one day's hours for a trainer
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SetDailyHoursRequest true "Hours payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/trainers/daily-hours [patch]
func (h *AllocationHandler) SetTrainerDailyHours(c *gin.Context) {
	var req dto.SetDailyHoursRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid hours payload"))
		return
	}
	view, err := h.sessions.SetTrainerDailyHours(c.Param("id"), req)
	h.respond(c, view, err)
}

// Merge godoc
// @Summary Merge two specialization rows
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.MergeRequest true "Merge payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/merge [post]
func (h *AllocationHandler) Merge(c *gin.Context) {
	var req dto.MergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid merge payload"))
		return
	}
	view, err := h.sessions.Merge(c.Param("id"), req)
	h.respond(c, view, err)
}

// UndoMerge godoc
// @Summary Undo the last merge on a row
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.UndoMergeRequest true "Undo payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/merge/undo [post]
func (h *AllocationHandler) UndoMerge(c *gin.Context) {
	var req dto.UndoMergeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid undo payload"))
		return
	}
	view, err := h.sessions.UndoMerge(c.Param("id"), req)
	h.respond(c, view, err)
}

// Swap godoc
// @Summary Exchange trainers across two batches
// @Tags Allocations
// @Accept json
// @Produce json
// @Param id path string true "Session ID"
// @Param payload body dto.SwapRequest true "Swap payload"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/swap [post]
func (h *AllocationHandler) Swap(c *gin.Context) {
	var req dto.SwapRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid swap payload"))
		return
	}
	view, err := h.sessions.Swap(c.Param("id"), req)
	h.respond(c, view, err)
}

// Validate godoc
// @Summary Re-run the conflict scan
// @Tags Allocations
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Router /allocations/{id}/validate [post]
func (h *AllocationHandler) Validate(c *gin.Context) {
	report, err := h.sessions.Validate(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Report godoc
// @Summary Fetch the last validation report
// @Tags Allocations
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /allocations/{id}/report [get]
func (h *AllocationHandler) Report(c *gin.Context) {
	report, err := h.sessions.CurrentReport(c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Submit godoc
// @Summary Finalize the session into the global feed
// @Tags Allocations
// @Produce json
// @Param id path string true "Session ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /allocations/{id}/submit [post]
func (h *AllocationHandler) Submit(c *gin.Context) {
	res, report, err := h.submissions.Submit(c.Request.Context(), dto.SubmitRequest{SessionID: c.Param("id")})
	if err != nil {
		if report != nil {
			appErr := appErrors.FromError(err)
			response.JSON(c, appErr.Status, report, nil)
			return
		}
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, res, nil)
}

func (h *AllocationHandler) respond(c *gin.Context, view *dto.SessionView, err error) {
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, view, nil)
}
