package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogRejectsInvalidPathIDs(t *testing.T) {
	h := &CatalogHandler{}

	cases := []struct {
		name    string
		handler echo.HandlerFunc
		names   []string
		values  []string
	}{
		{"event id not a number", h.GetEvent, []string{"id"}, []string{"abc"}},
		{"event id zero", h.GetEvent, []string{"id"}, []string{"0"}},
		{"venue id negative", h.ListVenueSections, []string{"id"}, []string{"-1"}},
		{"event id bad on seat grid", h.GetSeatAvailability, []string{"id", "sectionID"}, []string{"x", "1"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			rec := httptest.NewRecorder()
			c := e.NewContext(req, rec)
			c.SetParamNames(tc.names...)
			c.SetParamValues(tc.values...)
			require.NoError(t, tc.handler(c))
			assert.Equal(t, http.StatusBadRequest, rec.Code)
		})
	}
}
