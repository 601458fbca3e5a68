package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ENNAJI/ExamCADProtoENSAM/internal/services"
	"github.com/ENNAJI/ExamCADProtoENSAM/internal/utils"
)

type AuthHandler struct {
	BaseHandler
	rosterService services.RosterService
	validator     *utils.Validator
}

type LoginRequest struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

func NewAuthHandler(
	rosterService services.RosterService,
	validator *utils.Validator,
	logger utils.Logger,
) *AuthHandler {
	return &AuthHandler{
		BaseHandler:   NewBaseHandler(logger),
		rosterService: rosterService,
		validator:     validator,
	}
}

// Login authenticates a roster entry and issues a session token
// @Summary Login
// @Description Authenticates a student or admin against the roster
// @Tags auth
// @Accept json
// @Produce json
// @Param credentials body LoginRequest true "Login credentials"
// @Success 200 {object} services.LoginResponse
// @Failure 400 {object} ErrorResponse
// @Failure 401 {object} ErrorResponse
// @Router /login [post]
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
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

	h.LogRequest(c, "Login attempt", "login", req.Login)

	response, err := h.rosterService.Login(c.Request.Context(), req.Login, req.Password)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, response)
}

// Session returns the identity behind the presented token
// @Summary Current session
// @Description Returns the authenticated identity
// @Tags auth
// @Produce json
// @Success 200 {object} models.Identity
// @Failure 401 {object} ErrorResponse
// @Router /session [get]
func (h *AuthHandler) Session(c *gin.Context) {
	identity, ok := IdentityFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Message: "Authentication required",
		})
		return
	}

	c.JSON(http.StatusOK, identity)
}
