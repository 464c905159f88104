package handler

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wikimedia/wikimedia-cz-tracker/internal/infrastructure/mediawiki"
)

func TestMediawikiHandler_Proxy(t *testing.T) {
	s := newTestServer(t)
	ctx := context.Background()

	profile, err := s.f.Repos.Profiles.FindProfile(ctx, s.f.Requester.ID)
	require.NoError(t, err)
	profile.MediawikiToken = "wiki-token"
	require.NoError(t, s.f.Repos.Profiles.SaveProfile(ctx, profile))

	t.Run("anonymous get", func(t *testing.T) {
		w := s.do(t, nil, http.MethodGet, "/api/v1/mediawiki?action=query&titles=Praha", nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.JSONEq(t, `{"query":{"pages":{}}}`, w.Body.String())
		assert.Equal(t, http.MethodGet, s.wiki.method)
		assert.Equal(t, "Praha", s.wiki.params.Get("titles"))
		assert.Empty(t, s.wiki.token)
	})

	t.Run("signed in post uses the profile token", func(t *testing.T) {
		form := url.Values{"action": {"query"}, "list": {"allimages"}}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/mediawiki", strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		w := s.send(t, s.f.Requester, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, http.MethodPost, s.wiki.method)
		assert.Equal(t, "allimages", s.wiki.params.Get("list"))
		assert.Equal(t, "wiki-token", s.wiki.token)
	})

	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"action not allowed", mediawiki.ErrActionNotAllowed, http.StatusForbidden},
		{"not configured", mediawiki.ErrNotConfigured, http.StatusServiceUnavailable},
		{"upstream failure", errors.New("connection reset"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s.wiki.err = tt.err
			defer func() { s.wiki.err = nil }()
			w := s.do(t, nil, http.MethodGet, "/api/v1/mediawiki?action=edit", nil)
			assert.Equal(t, tt.wantStatus, w.Code, w.Body.String())
		})
	}
}
