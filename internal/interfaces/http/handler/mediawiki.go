package handler

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/gin-gonic/gin"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/identity"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/domain/shared"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mediawiki"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/interfaces/http/dto"
)

// WikiProxy forwards read-only queries to the wiki API
type WikiProxy interface {
	Proxy(ctx context.Context, method string, params url.Values, token string) ([]byte, error)
}

// ProfileFinder loads the tracker profile holding a user's wiki token
type ProfileFinder interface {
	FindProfile(ctx context.Context, userID int64) (*identity.TrackerProfile, error)
}

// MediawikiHandler proxies wiki queries for the browser
type MediawikiHandler struct {
	BaseHandler
	wiki     WikiProxy
	profiles ProfileFinder
}

// NewMediawikiHandler creates a new mediawiki proxy handler
func NewMediawikiHandler(wiki WikiProxy, profiles ProfileFinder) *MediawikiHandler {
	return &MediawikiHandler{
		wiki:     wiki,
		profiles: profiles,
	}
}

// Proxy godoc
// @ID           proxyMediawiki
// @Summary      Query the wiki API
// @Description  Forwards the query string (GET) or form (POST) to the wiki. Only action=query is allowed. Signed-in users query with their own wiki token.
// @Tags         mediawiki
// @Produce      json
// @Param        action query string true "Must be query"
// @Success      200 {object} object
// @Failure      403 {object} ErrorResponse
// @Failure      502 {object} ErrorResponse
// @Router       /mediawiki [get]
// @Router       /mediawiki [post]
func (h *MediawikiHandler) Proxy(c *gin.Context) {
	params := c.Request.URL.Query()
	if c.Request.Method == http.MethodPost {
		if err := c.Request.ParseForm(); err != nil {
			h.BadRequest(c, "Invalid form body")
			return
		}
		params = c.Request.PostForm
	}

	ctx := c.Request.Context()
	token := ""
	if user := currentUser(c); user.IsAuthenticated() {
		profile, err := h.profiles.FindProfile(ctx, user.ID)
		switch {
		case err == nil:
			token = profile.MediawikiToken
		case !shared.IsNotFound(err):
			h.HandleError(c, err)
			return
		}
	}

	body, err := h.wiki.Proxy(ctx, c.Request.Method, params, token)
	if err != nil {
		h.handleWikiError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

func (h *MediawikiHandler) handleWikiError(c *gin.Context, err error) {
	_ = c.Error(err)
	switch {
	case errors.Is(err, mediawiki.ErrActionNotAllowed):
		h.Forbidden(c, "Only the query action may be proxied")
	case errors.Is(err, mediawiki.ErrNotConfigured):
		h.Error(c, http.StatusServiceUnavailable, dto.ErrCodeInternal, "Wiki API is not configured")
	default:
		h.Error(c, http.StatusBadGateway, dto.ErrCodeInternal, "Wiki API request failed")
	}
}
