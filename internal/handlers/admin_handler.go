package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/services"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/utils"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// maxImportSize bounds the roster upload body.
const maxImportSize = 10 << 20

type AdminHandler struct {
	BaseHandler
	adminService  services.AdminService
	rosterService services.RosterService
}

func NewAdminHandler(
	adminService services.AdminService,
	rosterService services.RosterService,
	logger utils.Logger,
) *AdminHandler {
	return &AdminHandler{
		BaseHandler:   NewBaseHandler(logger),
		adminService:  adminService,
		rosterService: rosterService,
	}
}

// Dashboard returns the aggregate reporting view
// @Summary Admin dashboard
// @Description Returns totals, per-track and per-subject aggregates and per-student progression
// @Tags admin
// @Produce json
// @Success 200 {object} services.Dashboard
// @Failure 403 {object} ErrorResponse
// @Router /admin/dashboard [get]
func (h *AdminHandler) Dashboard(c *gin.Context) {
	dashboard, err := h.adminService.Dashboard(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, dashboard)
}

// StudentResults returns one student's archived results
// @Summary Student results
// @Description Returns the full archived results of one student
// @Tags admin
// @Produce json
// @Param login path string true "Student login"
// @Success 200 {object} services.StudentReport
// @Failure 404 {object} ErrorResponse
// @Router /admin/students/{login} [get]
func (h *AdminHandler) StudentResults(c *gin.Context) {
	login := requireParam(c, "login")
	if login == "" {
		return
	}

	report, err := h.adminService.StudentResults(c.Request.Context(), login)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, report)
}

// AllResults returns every archived result, newest first
// @Summary All results
// @Description Returns every archived exam result
// @Tags admin
// @Produce json
// @Success 200 {array} services.ResultRow
// @Failure 403 {object} ErrorResponse
// @Router /admin/results [get]
func (h *AdminHandler) AllResults(c *gin.Context) {
	rows, err := h.adminService.AllResults(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, rows)
}

// ExportResults streams the archive as an xlsx workbook
// @Summary Export results
// @Description Streams every archived result as an xlsx workbook
// @Tags admin
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Failure 500 {object} ErrorResponse
// @Router /admin/results/export [get]
func (h *AdminHandler) ExportResults(c *gin.Context) {
	h.LogRequest(c, "Exporting results workbook")

	workbook, err := h.adminService.ExportResults(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("resultats_examens_%s.xlsx", time.Now().Format("2006-01-02"))
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, workbook)
}

// Credentials lists the roster for the credential mailer
// @Summary Roster credentials
// @Description Lists roster entries without password hashes
// @Tags admin
// @Produce json
// @Success 200 {array} services.CredentialEntry
// @Failure 403 {object} ErrorResponse
// @Router /admin/credentials [get]
func (h *AdminHandler) Credentials(c *gin.Context) {
	entries, err := h.adminService.Credentials(c.Request.Context())
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, entries)
}

// ImportStudents bulk-loads roster rows from an uploaded csv or xlsx file
// @Summary Import students
// @Description Imports roster rows from a csv or xlsx upload
// @Tags admin
// @Accept multipart/form-data
// @Produce json
// @Param file formData file true "Roster file (csv or xlsx)"
// @Success 200 {object} services.ImportResult
// @Failure 400 {object} ErrorResponse
// @Router /admin/students/import [post]
func (h *AdminHandler) ImportStudents(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Missing roster file",
			Details: err.Error(),
		})
		return
	}
	if fileHeader.Size > maxImportSize {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Roster file too large",
		})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Message: "Unreadable roster file",
			Details: err.Error(),
		})
		return
	}
	defer file.Close()

	h.LogRequest(c, "Importing roster file",
		"filename", fileHeader.Filename,
		"size", fileHeader.Size,
	)

	result, err := h.rosterService.ImportStudents(c.Request.Context(), file, fileHeader.Filename)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}
