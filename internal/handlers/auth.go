package handlers

import (
	"net/http"
	"strings"

	"telehealth-server/internal/config"
	"telehealth-server/internal/models"
	"telehealth-server/internal/services"
	"telehealth-server/internal/utils"

	"github.com/gin-gonic/gin"
)

const refreshCookie = "refresh_token"

// AuthHandler handles registration, login and token rotation.
type AuthHandler struct {
	Accounts AccountService
	Cfg      *config.Config
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts AccountService, cfg *config.Config) *AuthHandler {
	return &AuthHandler{Accounts: accounts, Cfg: cfg}
}

// RegisterPatientRequest represents the request body for patient registration.
type RegisterPatientRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=4"`
}

// RegisterPatient creates a patient account and signs it in.
func (h *AuthHandler) RegisterPatient(c *gin.Context) {
	var req RegisterPatientRequest
	if !utils.BindAndValidate(c, &req) {
		return // Error response handled by BindAndValidate
	}

	patient, tokens, err := h.Accounts.RegisterPatient(c.Request.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	utils.SuccessWith(c, http.StatusCreated, "Patient registered successfully", gin.H{
		"user":         patient.Sanitize(),
		"token":        tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// RegisterDoctor creates a doctor account from the multipart sign-up form.
// The account starts deactivated and does not sign in.
func (h *AuthHandler) RegisterDoctor(c *gin.Context) {
	if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
		utils.BadRequest(c, "Invalid multipart form: "+err.Error())
		return
	}

	reg := services.DoctorRegistration{
		FullName:        c.PostForm("fullName"),
		Email:           strings.ToLower(strings.TrimSpace(c.PostForm("email"))),
		Password:        c.PostForm("password"),
		PhoneNumber:     c.PostForm("phoneNumber"),
		Specializations: c.PostForm("specializations"),
		Bio:             c.PostForm("bio"),
		Address:         c.PostForm("address"),
		Education:       c.PostForm("education"),
		WorkExperience:  c.PostForm("workExperience"),
		LicenseNumber:   c.PostForm("licenseNumber"),
		AppointmentFee:  c.PostForm("appointmentFee"),
	}
	reg.Certificate, _ = c.FormFile("certificate")
	reg.ProfilePic, _ = c.FormFile("profilePic")

	doctor, err := h.Accounts.RegisterDoctor(c.Request.Context(), reg)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	utils.Created(c, "Doctor registered successfully", doctor.Profile())
}

// LoginRequest represents the request body for login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// PatientLogin handles patient login.
func (h *AuthHandler) PatientLogin(c *gin.Context) {
	h.login(c, models.RolePatient)
}

// DoctorLogin handles doctor login.
func (h *AuthHandler) DoctorLogin(c *gin.Context) {
	h.login(c, models.RoleDoctor)
}

func (h *AuthHandler) login(c *gin.Context, role models.Role) {
	var req LoginRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	account, tokens, err := h.Accounts.Login(c.Request.Context(), role, req.Email, req.Password)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	utils.SuccessWith(c, http.StatusOK, "Login successful", gin.H{
		"user":         accountView(account),
		"token":        tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// RefreshTokenRequest represents the request body for token refresh.
type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" binding:"required"`
}

// RefreshToken rotates the refresh token. The cookie wins over the body.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil || refreshToken == "" {
		var req RefreshTokenRequest
		if !utils.BindAndValidate(c, &req) {
			return
		}
		refreshToken = req.RefreshToken
	}

	tokens, err := h.Accounts.Refresh(c.Request.Context(), refreshToken)
	if err != nil {
		utils.HandleError(c, err)
		return
	}

	h.setRefreshCookie(c, tokens.RefreshToken)
	utils.SuccessWith(c, http.StatusOK, "Token refreshed successfully", gin.H{
		"token":        tokens.AccessToken,
		"refreshToken": tokens.RefreshToken,
	})
}

// Logout revokes the caller's refresh token and clears the cookie.
func (h *AuthHandler) Logout(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	refreshToken, err := c.Cookie(refreshCookie)
	if err != nil || refreshToken == "" {
		var req struct {
			RefreshToken string `json:"refreshToken"`
		}
		// The body is optional here.
		_ = c.ShouldBindJSON(&req)
		refreshToken = req.RefreshToken
	}

	if err := h.Accounts.Logout(c.Request.Context(), userID, refreshToken); err != nil {
		utils.HandleError(c, err)
		return
	}

	c.SetCookie(refreshCookie, "", -1, "/", "", h.Cfg.IsProduction(), true)
	utils.Success(c, "Logged out successfully", nil)
}

func (h *AuthHandler) setRefreshCookie(c *gin.Context, token string) {
	c.SetCookie(
		refreshCookie,
		token,
		h.Cfg.JWTRefreshExpirationHours*60*60,
		"/",
		"",
		h.Cfg.IsProduction(),
		true,
	)
}
