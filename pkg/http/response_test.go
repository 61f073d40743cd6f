package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func respond(t *testing.T, err error) (int, APIResponse) {
	t.Helper()
	e := echo.New()
	rec := httptest.NewRecorder()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), rec)
	if werr := AppErrorResponse(c, err); werr != nil {
		t.Fatalf("write: %v", werr)
	}
	var env APIResponse
	if derr := json.Unmarshal(rec.Body.Bytes(), &env); derr != nil {
		t.Fatalf("decode: %v", derr)
	}
	return rec.Code, env
}

func TestAppErrorResponseKeepsStatus(t *testing.T) {
	code, env := respond(t, NotFoundError("no such security").WithParam("op", "security"))
	if code != http.StatusNotFound || env.Status != http.StatusNotFound {
		t.Fatalf("status = %d/%d, want 404", code, env.Status)
	}
	errs, ok := env.Data.([]interface{})
	if !ok || len(errs) != 1 {
		t.Fatalf("data = %#v", env.Data)
	}
	params := errs[0].(map[string]interface{})["params"].(map[string]interface{})
	if params["op"] != "security" {
		t.Fatalf("params = %v", params)
	}
}

func TestAppErrorResponseHidesPlainErrors(t *testing.T) {
	code, env := respond(t, errors.New("connection reset"))
	if code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", code)
	}
	if env.Data != "Something went wrong" {
		t.Fatalf("data = %v", env.Data)
	}
}
