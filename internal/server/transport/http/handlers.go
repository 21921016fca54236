package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/amaravathi/tradeidentity/internal/server/models"
	"github.com/amaravathi/tradeidentity/internal/server/services"
)

type profileResponse struct {
	ID            int64    `json:"id"`
	Email         string   `json:"email"`
	FullName      string   `json:"full_name"`
	Phone         string   `json:"phone,omitempty"`
	Status        string   `json:"status"`
	EmailVerified bool     `json:"email_verified"`
	PhoneVerified bool     `json:"phone_verified"`
	Roles         []string `json:"roles"`
}

func toProfileResponse(p *services.Profile) profileResponse {
	return profileResponse{
		ID:            p.ID,
		Email:         p.Email,
		FullName:      p.FullName,
		Phone:         p.Phone,
		Status:        string(p.Status),
		EmailVerified: p.EmailVerified,
		PhoneVerified: p.PhoneVerified,
		Roles:         p.Roles,
	}
}

type tokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

func toTokenResponse(p *services.TokenPair) tokenResponse {
	return tokenResponse{
		AccessToken:  p.AccessToken,
		RefreshToken: p.RefreshToken,
		TokenType:    p.TokenType,
		ExpiresIn:    p.ExpiresIn,
	}
}

// AuthHandlers serves the authentication endpoints.
type AuthHandlers struct {
	auth *services.AuthService
}

// NewAuthHandlers creates the auth handler set.
func NewAuthHandlers(auth *services.AuthService) *AuthHandlers {
	return &AuthHandlers{auth: auth}
}

// SignUp handles POST /auth/sign-up.
func (h *AuthHandlers) SignUp(c *gin.Context) {
	var req struct {
		Email                   string `json:"email" binding:"required"`
		Password                string `json:"password" binding:"required"`
		FullName                string `json:"full_name"`
		Phone                   string `json:"phone"`
		ResidenceCountry        string `json:"residence_country"`
		City                    string `json:"city"`
		PreferredLanguage       string `json:"preferred_language"`
		Occupation              string `json:"occupation"`
		Interest                string `json:"interest"`
		PreviousTradingExposure string `json:"previous_trading_exposure"`
		TermsAccepted           bool   `json:"terms_accepted"`
		CommunicationConsent    bool   `json:"communication_consent"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	profile, err := h.auth.SignUp(c.Request.Context(), &services.SignUpRequest{
		Email:                   req.Email,
		Password:                req.Password,
		FullName:                req.FullName,
		Phone:                   req.Phone,
		ResidenceCountry:        req.ResidenceCountry,
		City:                    req.City,
		PreferredLanguage:       req.PreferredLanguage,
		Occupation:              req.Occupation,
		Interest:                req.Interest,
		PreviousTradingExposure: req.PreviousTradingExposure,
		TermsAccepted:           req.TermsAccepted,
		CommunicationConsent:    req.CommunicationConsent,
	})
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "Sign-up successful. Please verify your email.",
		"user":    toProfileResponse(profile),
	})
}

// SignIn handles POST /auth/sign-in.
func (h *AuthHandlers) SignIn(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	res, err := h.auth.SignIn(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"access_token":  res.Tokens.AccessToken,
		"refresh_token": res.Tokens.RefreshToken,
		"token_type":    res.Tokens.TokenType,
		"expires_in":    res.Tokens.ExpiresIn,
		"user":          toProfileResponse(&res.Profile),
	})
}

// Refresh handles POST /auth/refresh.
func (h *AuthHandlers) Refresh(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	pair, err := h.auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toTokenResponse(pair))
}

// Logout handles POST /auth/logout. With all_sessions set, every session of
// the token's owner is revoked.
func (h *AuthHandlers) Logout(c *gin.Context) {
	var req struct {
		RefreshToken string `json:"refresh_token" binding:"required"`
		AllSessions  bool   `json:"all_sessions"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.auth.Logout(c.Request.Context(), req.RefreshToken, req.AllSessions); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Logged out"})
}

// Me handles GET /auth/me.
func (h *AuthHandlers) Me(c *gin.Context) {
	userID, ok := callerID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
		return
	}

	profile, err := h.auth.Me(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, toProfileResponse(profile))
}

// VerificationHandlers serves the email-verification endpoints.
type VerificationHandlers struct {
	verification *services.VerificationService
}

// NewVerificationHandlers creates the verification handler set.
func NewVerificationHandlers(verification *services.VerificationService) *VerificationHandlers {
	return &VerificationHandlers{verification: verification}
}

// SendMagicLink handles POST /verify/email/send-magic-link. The response is
// identical whether or not an account exists for the email.
func (h *VerificationHandlers) SendMagicLink(c *gin.Context) {
	var req struct {
		Email       string `json:"email" binding:"required"`
		RedirectURL string `json:"redirect_url"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.verification.SendEmailVerifyLink(c.Request.Context(), req.Email, req.RedirectURL); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "If an account exists for this email, a verification link has been sent.",
	})
}

// Confirm handles GET /verify/email/confirm?token=...
func (h *VerificationHandlers) Confirm(c *gin.Context) {
	raw := c.Query("token")

	redirect, err := h.verification.ConfirmEmail(c.Request.Context(), raw)
	if err != nil {
		writeError(c, err)
		return
	}

	resp := gin.H{"message": "Email verified"}
	if redirect != "" {
		resp["redirect_url"] = redirect
	}
	c.JSON(http.StatusOK, resp)
}

// AdminHandlers serves the administrative user endpoints.
type AdminHandlers struct {
	users *services.UserAdminService
}

// NewAdminHandlers creates the admin handler set.
func NewAdminHandlers(users *services.UserAdminService) *AdminHandlers {
	return &AdminHandlers{users: users}
}

type adminUserResponse struct {
	ID            int64  `json:"id"`
	Email         string `json:"email"`
	FullName      string `json:"full_name"`
	Phone         string `json:"phone,omitempty"`
	Status        string `json:"status"`
	EmailVerified bool   `json:"email_verified"`
	PhoneVerified bool   `json:"phone_verified"`
}

func toAdminUserResponse(u *models.User) adminUserResponse {
	return adminUserResponse{
		ID:            u.ID,
		Email:         u.Email,
		FullName:      u.FullName,
		Phone:         u.Phone,
		Status:        string(u.Status),
		EmailVerified: u.EmailVerified,
		PhoneVerified: u.PhoneVerified,
	}
}

func pathID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return 0, false
	}
	return id, true
}

// ListUsers handles GET /admin/users.
func (h *AdminHandlers) ListUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	out := make([]adminUserResponse, 0, len(users))
	for i := range users {
		out = append(out, toAdminUserResponse(&users[i]))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

// ChangeStatus handles PUT /admin/users/:id/status.
func (h *AdminHandlers) ChangeStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	user, err := h.users.ChangeStatus(c.Request.Context(), id, models.UserStatus(req.Status))
	if err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": toAdminUserResponse(user)})
}

// SetRoles handles PUT /admin/users/:id/roles.
func (h *AdminHandlers) SetRoles(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	var req struct {
		Roles []string `json:"roles" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	if err := h.users.SetRoles(c.Request.Context(), id, req.Roles); err != nil {
		writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Roles updated"})
}

// ListRoles handles GET /admin/roles.
func (h *AdminHandlers) ListRoles(c *gin.Context) {
	roles, err := h.users.ListRoles(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	type roleResponse struct {
		ID          int64  `json:"id"`
		Code        string `json:"code"`
		Name        string `json:"name"`
		Type        string `json:"type,omitempty"`
		Description string `json:"description,omitempty"`
	}
	out := make([]roleResponse, 0, len(roles))
	for _, r := range roles {
		out = append(out, roleResponse{
			ID: r.ID, Code: r.Code, Name: r.Name, Type: r.Type, Description: r.Description,
		})
	}
	c.JSON(http.StatusOK, gin.H{"roles": out})
}
