package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Name string `json:"name"`
	}

	tests := []struct {
		name string
		body string
		ok   bool
		msg  string
	}{
		{name: "valid", body: `{"name":"dev_1"}`, ok: true},
		{name: "empty", body: "", msg: "Request body is required"},
		{name: "malformed", body: `{"name":`, msg: "Invalid JSON payload"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(tc.body))

			assert.Equal(t, tc.ok, DecodeJSON(rec, req, &dst))
			if tc.ok {
				assert.Equal(t, "dev_1", dst.Name)
				return
			}
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tc.msg)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRespondWithCSV(t *testing.T) {
	rec := httptest.NewRecorder()
	RespondWithCSV(rec, "readings.csv", []byte("a,b\n1,2\n"))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="readings.csv"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "a,b\n1,2\n", rec.Body.String())
}
