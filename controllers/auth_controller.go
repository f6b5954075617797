package controllers

import (
	"smartorder/pkg/resp"
	"smartorder/services"
	"smartorder/utils"

	"github.com/gin-gonic/gin"
)

type AuthController struct {
	Svc *services.AuthService
}

func NewAuthController(s *services.AuthService) *AuthController {
	return &AuthController{Svc: s}
}

// POST /auth/register
func (h *AuthController) Register(c *gin.Context) {
	var req services.RegisterReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	user, err := h.Svc.Register(c.Request.Context(), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.Created(c, user)
}

// POST /auth/login
func (h *AuthController) Login(c *gin.Context) {
	var req services.LoginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	token, user, err := h.Svc.Login(c.Request.Context(), &req)
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"token": token, "user": user})
}

// GET /auth/me
func (h *AuthController) Me(c *gin.Context) {
	user, err := h.Svc.Profile(c.Request.Context(), utils.CurrentUserID(c))
	if err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, user)
}

type forgotReq struct {
	Email string `json:"email" binding:"required"`
}

const forgotMessage = "if that email is registered, a reset link has been sent"

// POST /auth/forgot-password answers the same way whether or not the email exists.
func (h *AuthController) ForgotPassword(c *gin.Context) {
	var req forgotReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	h.Svc.ForgotPassword(c.Request.Context(), req.Email)
	resp.OK(c, gin.H{"message": forgotMessage})
}

// POST /auth/reset-password
func (h *AuthController) ResetPassword(c *gin.Context) {
	var req services.ResetPasswordReq
	if err := c.ShouldBindJSON(&req); err != nil {
		resp.BadRequest(c, err.Error())
		return
	}
	if err := h.Svc.ResetPassword(c.Request.Context(), &req); err != nil {
		resp.Error(c, err)
		return
	}
	resp.OK(c, gin.H{"reset": true})
}
