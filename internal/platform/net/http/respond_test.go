package http_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	perr "ycintel/internal/platform/errors"
	pnet "ycintel/internal/platform/net"
	phttp "ycintel/internal/platform/net/http"

	"github.com/go-chi/chi/v5"
)

func reqWithReqID(method, path, id string) *http.Request {
	r := httptest.NewRequest(method, path, nil)
	return r.WithContext(pnet.WithRequest(context.Background(), id))
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) phttp.Envelope {
	t.Helper()
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("unmarshal: %v body=%s", err, rec.Body.String())
	}
	return env
}

func TestRespondOK_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.RespondOK(rec, reqWithReqID("GET", "/x", "rid-1"), map[string]any{"k": "v"})

	if rec.Code != http.StatusOK {
		t.Fatalf("code = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Fatalf("content-type = %q", ct)
	}
	env := decode(t, rec)
	if env.StatusCode != 200 || env.RequestID != "rid-1" {
		t.Fatalf("bad envelope: %+v", env)
	}
	if m, ok := env.Data.(map[string]any); !ok || m["k"] != "v" {
		t.Fatalf("data = %#v", env.Data)
	}
}

func TestRespondError_MapsCode(t *testing.T) {
	rec := httptest.NewRecorder()
	phttp.RespondError(rec, reqWithReqID("GET", "/x", "rid-2"), perr.NotFoundf("company %q", "acme"))

	if rec.Code != http.StatusNotFound {
		t.Fatalf("code = %d", rec.Code)
	}
	env := decode(t, rec)
	if env.Code != perr.ErrorCodeNotFound || env.Error == "" || env.RequestID != "rid-2" {
		t.Fatalf("bad envelope: %+v", env)
	}
	if env.Data != nil {
		t.Fatalf("error envelope should carry no data")
	}
}

func TestHandle_ReturnStyle(t *testing.T) {
	h := phttp.Handle(func(r *http.Request) phttp.Response {
		if r.URL.Query().Get("fail") != "" {
			return phttp.Error(perr.InvalidArgf("bad"))
		}
		return phttp.Response{Status: http.StatusAccepted, Body: "ok", Header: http.Header{"X-Test": {"1"}}}
	})

	rec := httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/x", nil))
	if rec.Code != http.StatusAccepted || rec.Header().Get("X-Test") != "1" {
		t.Fatalf("code=%d hdr=%q", rec.Code, rec.Header().Get("X-Test"))
	}

	rec = httptest.NewRecorder()
	h(rec, httptest.NewRequest("GET", "/x?fail=1", nil))
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("error code = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	phttp.Handle(func(*http.Request) phttp.Response { return phttp.OK(1) })(rec, httptest.NewRequest("GET", "/", nil))
	if rec.Code != http.StatusOK || decode(t, rec).Data != float64(1) {
		t.Fatalf("OK helper: %d %s", rec.Code, rec.Body.String())
	}
}

func TestGetJSON_Mounts(t *testing.T) {
	r := phttp.AdaptChi(chi.NewRouter())
	phttp.GetJSON(r, "/ok", func(*http.Request) (any, error) { return []int{1, 2}, nil })
	phttp.GetJSON(r, "/err", func(*http.Request) (any, error) { return nil, perr.DBf("boom") })

	rec := httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/ok", nil))
	if rec.Code != 200 {
		t.Fatalf("ok code = %d", rec.Code)
	}
	if d, ok := decode(t, rec).Data.([]any); !ok || len(d) != 2 {
		t.Fatalf("data = %#v", d)
	}

	rec = httptest.NewRecorder()
	r.Mux().ServeHTTP(rec, httptest.NewRequest("GET", "/err", nil))
	if rec.Code != http.StatusInternalServerError || decode(t, rec).Code != perr.ErrorCodeDB {
		t.Fatalf("err code = %d body=%s", rec.Code, rec.Body.String())
	}
}
