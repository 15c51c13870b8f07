package health

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestHTTPCheck_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	checkFn := HTTPCheck(server.URL, 5*time.Second)
	ok, msg := checkFn()

	if !ok {
		t.Errorf("Expected ok=true, got ok=false with message: %s", msg)
	}
	if msg != "ok" {
		t.Errorf("Expected msg='ok', got msg='%s'", msg)
	}
}

func TestHTTPCheck_UnauthenticatedIsHealthy(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	checkFn := HTTPCheck(server.URL, 5*time.Second)
	ok, _ := checkFn()

	if !ok {
		t.Error("Expected ok=true for 401 (reachable), got ok=false")
	}
}

func TestHTTPCheck_Unreachable(t *testing.T) {
	checkFn := HTTPCheck("http://localhost:1", 1*time.Second)
	ok, msg := checkFn()

	if ok {
		t.Error("Expected ok=false for unreachable server, got ok=true")
	}
	if !strings.Contains(msg, "unreachable") {
		t.Errorf("Expected message to contain 'unreachable', got: %s", msg)
	}
}

func TestHTTPCheck_ServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	checkFn := HTTPCheck(server.URL, 5*time.Second)
	ok, msg := checkFn()

	if ok {
		t.Error("Expected ok=false for 500 status, got ok=true")
	}
	if !strings.Contains(msg, "status 500") {
		t.Errorf("Expected message to contain 'status 500', got: %s", msg)
	}
}

func TestRunAll(t *testing.T) {
	checks := map[string]CheckFunc{
		"up":   func() (bool, string) { return true, "ok" },
		"down": func() (bool, string) { return false, "broken" },
	}

	healthy, results := RunAll(checks)

	if healthy {
		t.Error("Expected overall unhealthy when one check fails")
	}
	if results["up"] != "ok" || results["down"] != "broken" {
		t.Errorf("Unexpected results: %v", results)
	}

	healthy, _ = RunAll(map[string]CheckFunc{
		"up": func() (bool, string) { return true, "ok" },
	})
	if !healthy {
		t.Error("Expected healthy when all checks pass")
	}
}
