package http

import (
	stdhttp "net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
)

func TestAdaptChi_RootGroupRouteAndMux(t *testing.T) {
	t.Parallel()

	m := chi.NewRouter()
	r := AdaptChi(m)

	// root middleware
	r.Use(func(next stdhttp.Handler) stdhttp.Handler {
		return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
			w.Header().Set("X-Root", "1")
			next.ServeHTTP(w, req)
		})
	})

	// root route
	r.Get("/root", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		w.WriteHeader(200)
		_, _ = w.Write([]byte("root"))
	})

	// group route + group middleware
	r.Group(func(gr Router) {
		gr.Use(func(next stdhttp.Handler) stdhttp.Handler {
			return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				w.Header().Set("X-Group", "1")
				next.ServeHTTP(w, req)
			})
		})
		if gr.Mux() == nil {
			t.Fatalf("group Mux() returned nil")
		}
		gr.Get("/g/ping", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte("g"))
		})
	})

	// route (subrouter) + subrouter middleware
	r.Route("/api", func(sr Router) {
		sr.Use(func(next stdhttp.Handler) stdhttp.Handler {
			return stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				w.Header().Set("X-Route", "1")
				next.ServeHTTP(w, req)
			})
		})
		if sr.Mux() == nil {
			t.Fatalf("route Mux() returned nil")
		}
		sr.Get("/ping", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
			w.WriteHeader(200)
			_, _ = w.Write([]byte("pong"))
		})
	})

	get := func(path string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(stdhttp.MethodGet, path, nil)
		rr := httptest.NewRecorder()
		r.Mux().ServeHTTP(rr, req)
		return rr
	}

	// root route
	rr := get("/root")
	if rr.Code != 200 || rr.Body.String() != "root" {
		t.Fatalf("GET /root => code=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Root") != "1" {
		t.Fatalf("root middleware header missing")
	}

	// group route
	rr = get("/g/ping")
	if rr.Code != 200 || rr.Body.String() != "g" {
		t.Fatalf("GET /g/ping => code=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Root") != "1" {
		t.Fatalf("root middleware not applied to group route")
	}
	if rr.Header().Get("X-Group") != "1" {
		t.Fatalf("group middleware header missing")
	}

	// routed subrouter
	rr = get("/api/ping")
	if rr.Code != 200 || rr.Body.String() != "pong" {
		t.Fatalf("GET /api/ping => code=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Root") != "1" {
		t.Fatalf("root middleware not applied to /api route")
	}
	if rr.Header().Get("X-Route") != "1" {
		t.Fatalf("route middleware header missing")
	}
}

func TestAdaptChi_Handle_NestedRoute_URLParam(t *testing.T) {
	t.Parallel()

	r := AdaptChi(chi.NewRouter())

	r.Handle("/root/std", stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
		_, _ = w.Write([]byte("std"))
	}))
	r.Route("/v1", func(sr Router) {
		sr.Route("/companies", func(nr Router) {
			nr.Get("/{key}", func(w stdhttp.ResponseWriter, req *stdhttp.Request) {
				_, _ = w.Write([]byte(URLParam(req, "key")))
			})
		})
	})

	do := func(method, path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		r.Mux().ServeHTTP(rr, httptest.NewRequest(method, path, nil))
		return rr
	}

	if rr := do(stdhttp.MethodGet, "/root/std"); rr.Code != 200 || rr.Body.String() != "std" {
		t.Fatalf("GET /root/std => code=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr := do(stdhttp.MethodGet, "/v1/companies/stripe"); rr.Code != 200 || rr.Body.String() != "stripe" {
		t.Fatalf("GET /v1/companies/stripe => code=%d body=%q", rr.Code, rr.Body.String())
	}
	if rr := do(stdhttp.MethodPost, "/v1/companies/stripe"); rr.Code != stdhttp.StatusMethodNotAllowed {
		t.Fatalf("POST should be 405, got %d", rr.Code)
	}
}
