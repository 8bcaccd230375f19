package httputil

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIntParam(t *testing.T) {
	assert.Equal(t, 5, ParseIntParam("", 5))
	assert.Equal(t, 12, ParseIntParam("12", 5))
	assert.Equal(t, 5, ParseIntParam("twelve", 5))
	assert.Equal(t, -3, ParseIntParam("-3", 5))
}

func TestParsePagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit", "limit=10&offset=20", 10, 20},
		{"limit capped", "limit=5000", 1000, 0},
		{"negative offset clamped", "offset=-5", 50, 0},
		{"zero limit falls back", "limit=0", 50, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/cases?"+tt.query, nil)
			p := ParsePagination(r, 50, 1000)
			assert.Equal(t, tt.wantLimit, p.Limit)
			assert.Equal(t, tt.wantOffset, p.Offset)
		})
	}
}

func TestDecodeJSONRejectsUnknownFields(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	r := httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"a"}`))
	require.NoError(t, DecodeJSON(r, &dst))
	assert.Equal(t, "a", dst.Name)

	r = httptest.NewRequest("POST", "/", strings.NewReader(`{"name":"a","bogus":1}`))
	assert.Error(t, DecodeJSON(r, &dst))
}

func TestWriteError(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(w, 404, "Case not found")

	assert.Equal(t, 404, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.JSONEq(t, `{"error":"Case not found"}`, w.Body.String())
}
