package userclient

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	client := NewHTTPClient("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})

	err := client.doJSON(context.Background(), http.MethodGet, "/healthz", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable wrapper, got %v", err)
	}
}

func TestDoJSONReturnsAPIErrorFromBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "Quota exceeded", Category: "rate_limited"})
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, server.Client())
	_, err := client.StartExam(context.Background(), "Algebra1")

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusTooManyRequests || apiErr.Category != "rate_limited" {
		t.Fatalf("unexpected api error: %+v", apiErr)
	}
	if apiErr.Message != "Quota exceeded" {
		t.Fatalf("message = %q, want %q", apiErr.Message, "Quota exceeded")
	}
}

func TestStartExamEscapesNameAndKeepsCookie(t *testing.T) {
	var sawCookie bool
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/exams/Algebra 1/start":
			if r.URL.RawPath != "" && r.URL.RawPath != "/exams/Algebra%201/start" {
				t.Errorf("raw path = %q", r.URL.RawPath)
			}
			http.SetCookie(w, &http.Cookie{Name: "exam_session", Value: "token", Path: "/"})
			_ = json.NewEncoder(w).Encode(cardResponse{Exam: "Algebra 1", Number: 1, Total: 3})
		case "/session/question":
			if cookie, err := r.Cookie("exam_session"); err == nil && cookie.Value == "token" {
				sawCookie = true
			}
			_ = json.NewEncoder(w).Encode(cardResponse{Exam: "Algebra 1", Number: 1, Total: 3})
		default:
			t.Errorf("unexpected path %q", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	defer server.Close()

	client := NewHTTPClient(server.URL, nil)
	card, err := client.StartExam(context.Background(), "Algebra 1")
	if err != nil {
		t.Fatalf("StartExam failed: %v", err)
	}
	if card.Exam != "Algebra 1" || card.Total != 3 {
		t.Fatalf("unexpected card: %+v", card)
	}
	if _, err := client.CurrentCard(context.Background()); err != nil {
		t.Fatalf("CurrentCard failed: %v", err)
	}
	if !sawCookie {
		t.Fatalf("session cookie was not sent back")
	}
}

func TestResetAcceptsNoContent(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodDelete || r.URL.Path != "/session" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	if err := NewHTTPClient(server.URL, nil).Reset(context.Background()); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
}
