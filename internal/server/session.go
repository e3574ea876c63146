package server

import (
	"net/http"
	"net/netip"

	"github.com/cjcjon/blog-backend/internal/auth"
	"github.com/cjcjon/blog-backend/internal/users"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const identityContextKey = "session_identity"

// resolveSession reads the session cookie and attaches the verified identity
// to the request context. Invalid tokens clear the cookie and the request
// continues anonymously. Tokens close to expiry are silently reissued.
func (h *httpHandler) resolveSession(requestContext *gin.Context) {
	tokenString, err := requestContext.Cookie(h.cookieName)
	if err != nil || tokenString == "" {
		requestContext.Next()
		return
	}

	clientIP := canonicalClientIP(requestContext)
	session, err := h.tokens.Verify(tokenString, clientIP)
	if err != nil {
		h.logger.Debug("session token rejected", zap.Error(err))
		h.clearSessionCookie(requestContext)
		requestContext.Next()
		return
	}

	requestContext.Set(identityContextKey, session.Identity)

	if session.RenewAdvised {
		refreshed, issueErr := h.tokens.Issue(session.Identity, clientIP)
		if issueErr != nil {
			h.logger.Warn("session token renewal failed", zap.Error(issueErr))
		} else {
			h.setSessionCookie(requestContext, refreshed)
		}
	}

	requestContext.Next()
}

// requireAuthorized aborts with 401 unless the session carries the
// authorized level.
func (h *httpHandler) requireAuthorized(requestContext *gin.Context) {
	identity, found := currentIdentity(requestContext)
	if !found || identity.Auth != users.AuthLevelAdmin {
		requestContext.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
		return
	}
	requestContext.Next()
}

func currentIdentity(requestContext *gin.Context) (auth.Identity, bool) {
	value, found := requestContext.Get(identityContextKey)
	if !found {
		return auth.Identity{}, false
	}
	identity, ok := value.(auth.Identity)
	return identity, ok
}

func (h *httpHandler) setSessionCookie(requestContext *gin.Context, token string) {
	maxAge := int(h.tokens.TokenTTL().Seconds())
	requestContext.SetCookie(h.cookieName, token, maxAge, "/", "", false, true)
}

func (h *httpHandler) clearSessionCookie(requestContext *gin.Context) {
	requestContext.SetCookie(h.cookieName, "", -1, "/", "", false, true)
}

// canonicalClientIP normalizes the caller address so that a v4 address and
// its v4-mapped v6 form bind tokens identically.
func canonicalClientIP(requestContext *gin.Context) string {
	raw := requestContext.ClientIP()
	addr, err := netip.ParseAddr(raw)
	if err != nil {
		return raw
	}
	if addr.Is4() || addr.Is4In6() {
		addr = netip.AddrFrom16(addr.As16())
	}
	return addr.String()
}
