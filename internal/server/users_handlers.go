package server

import (
	"errors"
	"net/http"

	"github.com/cjcjon/blog-backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type credentialsRequest struct {
	UserName string `json:"userName" binding:"required,min=3,max=16,alphanum"`
	Password string `json:"password" binding:"required,min=4,max=72"`
}

func (h *httpHandler) handleRegister(requestContext *gin.Context) {
	var request credentialsRequest
	if err := requestContext.ShouldBindJSON(&request); err != nil {
		requestContext.JSON(http.StatusBadRequest, gin.H{"error": "invalid credentials payload"})
		return
	}

	err := h.users.Register(requestContext.Request.Context(), request.UserName, request.Password)
	if errors.Is(err, users.ErrUserExists) {
		requestContext.JSON(http.StatusConflict, gin.H{"error": "user name already taken"})
		return
	}
	if err != nil {
		h.logger.Error("user registration failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "registration failed"})
		return
	}

	requestContext.JSON(http.StatusCreated, selfLink("/users/check"))
}

func (h *httpHandler) handleLogin(requestContext *gin.Context) {
	var request credentialsRequest
	if err := requestContext.ShouldBindJSON(&request); err != nil {
		requestContext.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	identity, err := h.users.Authenticate(requestContext.Request.Context(), request.UserName, request.Password)
	if errors.Is(err, users.ErrInvalidCredentials) {
		requestContext.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}
	if err != nil {
		h.logger.Error("login failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	token, err := h.tokens.Issue(identity, canonicalClientIP(requestContext))
	if err != nil {
		h.logger.Error("token issuance failed", zap.Error(err))
		requestContext.JSON(http.StatusInternalServerError, gin.H{"error": "login failed"})
		return
	}

	h.setSessionCookie(requestContext, token)
	requestContext.JSON(http.StatusOK, gin.H{
		"userName": identity.UserName,
		"auth":     identity.Auth,
	})
}

func (h *httpHandler) handleCheck(requestContext *gin.Context) {
	identity, found := currentIdentity(requestContext)
	if !found {
		requestContext.JSON(http.StatusUnauthorized, gin.H{"error": "no active session"})
		return
	}

	requestContext.JSON(http.StatusOK, gin.H{
		"userName": identity.UserName,
		"auth":     identity.Auth,
	})
}

func (h *httpHandler) handleLogout(requestContext *gin.Context) {
	h.clearSessionCookie(requestContext)
	requestContext.Status(http.StatusNoContent)
}
