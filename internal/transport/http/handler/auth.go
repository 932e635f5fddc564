package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"docforge/internal/pkg/jwtutil"
	"docforge/internal/transport/http/response"
)

// AuthHandler mints org-scoped tokens. There is no user directory; an org id
// is the whole identity, so this endpoint belongs behind a gateway in any
// real deployment.
type AuthHandler struct {
	jwtSecret string
	tokenTTL  time.Duration
}

func NewAuthHandler(jwtSecret string, tokenTTL time.Duration) *AuthHandler {
	return &AuthHandler{jwtSecret: jwtSecret, tokenTTL: tokenTTL}
}

type TokenRequest struct {
	OrgID string `json:"org_id" binding:"required,max=64"`
}

func (h *AuthHandler) Token(c *gin.Context) {
	var req TokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, response.CodeBadRequest, "invalid request payload")
		return
	}

	token, err := jwtutil.GenerateToken(h.jwtSecret, req.OrgID, h.tokenTTL)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.CodeInternalServer, "issue token failed")
		return
	}
	response.OK(c, gin.H{
		"token":      token,
		"org_id":     req.OrgID,
		"expires_in": int(h.tokenTTL.Seconds()),
	})
}
