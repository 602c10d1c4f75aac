package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"boardcafe/backend/internal/service"

	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRespondErrorStatusCodes(t *testing.T) {
	cases := []struct {
		err  error
		code int
	}{
		{&service.ValidationError{Field: "end_time", Message: "must be after start_time"}, http.StatusBadRequest},
		{fmt.Errorf("reservation %w", service.ErrNotFound), http.StatusNotFound},
		{service.ErrForbidden, http.StatusForbidden},
		{service.ErrOutOfStock, http.StatusConflict},
		{service.ErrGroupFull, http.StatusConflict},
		{service.ErrTableTaken, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, tc.err)
		if w.Code != tc.code {
			t.Errorf("%v: expected %d, got %d", tc.err, tc.code, w.Code)
		}
		if !strings.Contains(w.Body.String(), `"error"`) {
			t.Errorf("%v: body has no error key: %s", tc.err, w.Body)
		}
	}
}

func TestRespondErrorNamesField(t *testing.T) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)

	respondError(c, &service.ValidationError{Field: "table_id", Message: "is required"})
	if !strings.Contains(w.Body.String(), `"field":"table_id"`) {
		t.Fatalf("expected field in body, got %s", w.Body)
	}
}

func TestNewPaginatedResponse(t *testing.T) {
	p := NewPaginatedResponse([]int(nil), 21, 2, 10)
	if p.Meta.TotalPages != 3 || p.Meta.CurrentPage != 2 || p.Meta.PageSize != 10 {
		t.Fatalf("unexpected meta: %+v", p.Meta)
	}
	if p.Data == nil {
		t.Fatal("data should serialize as an empty list, not null")
	}
}

func TestParamID(t *testing.T) {
	for _, raw := range []string{"abc", "0", "-1"} {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Params = gin.Params{{Key: "id", Value: raw}}
		if _, ok := paramID(c, "id"); ok || w.Code != http.StatusBadRequest {
			t.Errorf("%q: expected rejection with 400, got ok=%v code=%d", raw, ok, w.Code)
		}
	}

	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Params = gin.Params{{Key: "id", Value: "42"}}
	if id, ok := paramID(c, "id"); !ok || id != 42 {
		t.Fatalf("expected 42, got %d %v", id, ok)
	}
}
