package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/tfkr-ae/deltav/domain"
)

const upcomingPayload = `{
  "count": 2,
  "next": null,
  "previous": null,
  "results": [
    {"id": "later", "name": "Later", "net": "2026-03-02T12:00:00Z"},
    {"id": "sooner", "name": "Sooner", "net": "2026-03-01T12:00:00Z"}
  ]
}`

func TestRunOnce(t *testing.T) {
	t.Run("should refresh and print the ordered launches", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(upcomingPayload))
		}))
		defer server.Close()

		t.Setenv("DELTAV_API_BASE_URL", server.URL)
		t.Setenv("DELTAV_LOG_LEVEL", "error")

		var out bytes.Buffer
		if err := run(t.TempDir(), true, &out); err != nil {
			t.Fatalf("\nwanted:\nnil\ngot:\n%v", err)
		}

		var launches []*domain.Launch
		if err := json.Unmarshal(out.Bytes(), &launches); err != nil {
			t.Fatalf("decoding output: %v", err)
		}
		if len(launches) != 2 || launches[0].ID != "sooner" || launches[1].ID != "later" {
			t.Fatalf("\nwanted:\n[sooner later]\ngot:\n%s", out.String())
		}
	})

	t.Run("should fail when the api is unavailable", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "not found", http.StatusNotFound)
		}))
		defer server.Close()

		t.Setenv("DELTAV_API_BASE_URL", server.URL)
		t.Setenv("DELTAV_LOG_LEVEL", "error")

		var out bytes.Buffer
		if err := run(t.TempDir(), true, &out); err == nil {
			t.Fatalf("\nwanted:\nerror\ngot:\nnil")
		}
	})
}
