package collector

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSendSessionPostsFormField(t *testing.T) {
	var gotField string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if err := r.ParseForm(); err != nil {
			t.Errorf("ParseForm: %v", err)
		}
		gotField = r.PostFormValue("session_json")
		_, _ = w.Write([]byte("saved"))
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.SendSession(context.Background(), `[{"id":1}]`)
	if err != nil {
		t.Fatalf("SendSession: %v", err)
	}
	if resp != "saved" {
		t.Fatalf("response = %q, want %q", resp, "saved")
	}
	if gotField != `[{"id":1}]` {
		t.Fatalf("session_json = %q, want the dump verbatim", gotField)
	}
}

func TestSendSessionNon2xxIsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "nope", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	if _, err := c.SendSession(context.Background(), "[]"); err == nil {
		t.Fatal("SendSession on 500 succeeded, want error")
	}
}

func TestEmptyEndpointFallsBackToDefault(t *testing.T) {
	c := NewClient("  ")
	if c.Endpoint() != DefaultURL {
		t.Fatalf("Endpoint = %q, want DefaultURL", c.Endpoint())
	}
}
