package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/services"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/utils"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
	validator   *utils.Validator
}

type StartExamRequest struct {
	Subject string `json:"matiere" validate:"required"`
}

type SubmitExamRequest struct {
	// Answers maps question id to the student's raw answer. Unanswered
	// questions may simply be absent.
	Answers map[string]string `json:"reponses"`
}

func NewExamHandler(
	examService services.ExamService,
	validator *utils.Validator,
	logger utils.Logger,
) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
		validator:   validator,
	}
}

// Subjects lists the caller's curriculum subjects with attempt status
// @Summary List subjects
// @Description Lists the authenticated student's subjects and whether each was already attempted
// @Tags exam
// @Produce json
// @Success 200 {array} services.SubjectStatus
// @Failure 401 {object} ErrorResponse
// @Router /subjects [get]
func (h *ExamHandler) Subjects(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	subjects, err := h.examService.AvailableSubjects(c.Request.Context(), identity)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, subjects)
}

// Structure returns the department/track/year programme table
// @Summary Academic structure
// @Description Returns the full department, track and year programme table
// @Tags exam
// @Produce json
// @Success 200 {object} questionbank.Curriculum
// @Router /structure [get]
func (h *ExamHandler) Structure(c *gin.Context) {
	c.JSON(http.StatusOK, h.examService.Structure())
}

// StartExam opens a timed session for one subject
// @Summary Start exam
// @Description Draws the question set and opens a timed session for the given subject
// @Tags exam
// @Accept json
// @Produce json
// @Param request body StartExamRequest true "Subject to start"
// @Success 200 {object} services.SessionView
// @Failure 400 {object} ErrorResponse
// @Failure 403 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Router /exam/start [post]
func (h *ExamHandler) StartExam(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	var req StartExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	if err := h.validator.Validate(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Validation failed",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Starting exam", "subject", req.Subject)

	view, err := h.examService.Start(c.Request.Context(), identity, req.Subject)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, view)
}

// SubmitExam closes the open session and returns the graded result
// @Summary Submit exam
// @Description Grades the open session, records the attempt and archives the result
// @Tags exam
// @Accept json
// @Produce json
// @Param request body SubmitExamRequest true "Submitted answers"
// @Success 200 {object} services.GradedResult
// @Failure 401 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /exam/submit [post]
func (h *ExamHandler) SubmitExam(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "Authentication required"})
		return
	}

	var req SubmitExamRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Invalid request payload",
			Details: err.Error(),
		})
		return
	}

	h.LogRequest(c, "Submitting exam", "answer_count", len(req.Answers))

	result, err := h.examService.Submit(c.Request.Context(), identity, req.Answers)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
