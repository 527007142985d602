package mediacms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestWhoami(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/whoami" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Token tok-1" {
			t.Errorf("auth header = %q", got)
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"username": "alice"})
	}))
	defer srv.Close()

	username, err := NewClient(srv.URL, "tok-1").Whoami(context.Background())
	if err != nil {
		t.Fatalf("whoami failed: %v", err)
	}
	if username != "alice" {
		t.Fatalf("username = %q", username)
	}
}

func TestWhoamiRejectsNonOK(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad token", http.StatusUnauthorized)
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "bad").Whoami(context.Background()); err == nil {
		t.Fatal("expected error for 401")
	}
}

func TestLatestMedia(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("author") != "alice" || r.URL.Query().Get("show") != "latest" {
			t.Errorf("unexpected query: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"results": []map[string]string{
				{"friendly_token": "abc", "title": "Newest", "add_date": "2024-02-01T10:00:00Z"},
			},
		})
	}))
	defer srv.Close()

	summary, found, err := NewClient(srv.URL, "tok").LatestMedia(context.Background(), "alice")
	if err != nil {
		t.Fatalf("latest media failed: %v", err)
	}
	if !found {
		t.Fatal("expected a result")
	}
	if summary.Title != "Newest" {
		t.Fatalf("title = %q", summary.Title)
	}
}

func TestLatestMediaEmptyAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"results": []any{}})
	}))
	defer srv.Close()

	_, found, err := NewClient(srv.URL, "tok").LatestMedia(context.Background(), "alice")
	if err != nil {
		t.Fatalf("latest media failed: %v", err)
	}
	if found {
		t.Fatal("expected no result for empty account")
	}
}

func TestParseAddDate(t *testing.T) {
	for _, raw := range []string{
		"2024-02-01T10:00:00Z",
		"2024-02-01T10:00:00.123456+02:00",
		"2024-02-01T10:00:00.123456",
		"2024-02-01T10:00:00",
	} {
		if _, err := ParseAddDate(raw); err != nil {
			t.Errorf("ParseAddDate(%q) failed: %v", raw, err)
		}
	}
	if _, err := ParseAddDate("yesterday"); err == nil {
		t.Error("expected error for junk date")
	}
}

func TestUploadTimeout(t *testing.T) {
	if got := UploadTimeout(0); got != 30*time.Second {
		t.Errorf("zero-size timeout = %s", got)
	}
	if got := UploadTimeout(100 << 20); got != 130*time.Second {
		t.Errorf("100MB timeout = %s", got)
	}
	if got := UploadTimeout(1 << 40); got != time.Hour {
		t.Errorf("huge file timeout = %s, want cap at 1h", got)
	}
}

func TestUploadPostsMultipartAndReturnsToken(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "20240101-title-vid1.mp4")
	thumbPath := filepath.Join(dir, "20240101-title-vid1.jpg")
	if err := os.WriteFile(videoPath, []byte("fake video"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(thumbPath, []byte("fake jpeg"), 0o644); err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/v1/media/" {
			http.NotFound(w, r)
			return
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatalf("parse multipart: %v", err)
		}
		if got := r.FormValue("title"); got != "My Title" {
			t.Errorf("title = %q", got)
		}
		if got := r.FormValue("tags"); got != "go,video" {
			t.Errorf("tags = %q", got)
		}
		if got := r.FormValue("publication_date"); got != "2024-01-01" {
			t.Errorf("publication_date = %q", got)
		}
		if _, _, err := r.FormFile("media_file"); err != nil {
			t.Errorf("media_file missing: %v", err)
		}
		if _, _, err := r.FormFile("thumbnail"); err != nil {
			t.Errorf("thumbnail missing: %v", err)
		}
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]string{"friendly_token": "ft-123"})
	}))
	defer srv.Close()

	token, err := NewClient(srv.URL, "tok").Upload(
		context.Background(), videoPath, thumbPath,
		"My Title", "desc", []string{"go", "video"}, "2024-01-01")
	if err != nil {
		t.Fatalf("upload failed: %v", err)
	}
	if token != "ft-123" {
		t.Fatalf("friendly token = %q", token)
	}
}

func TestUploadDefaultsTitleFromFilename(t *testing.T) {
	dir := t.TempDir()
	videoPath := filepath.Join(dir, "20240101-fallback-vid1.mp4")
	if err := os.WriteFile(videoPath, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	var gotTitle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Fatal(err)
		}
		gotTitle = r.FormValue("title")
		_ = json.NewEncoder(w).Encode(map[string]string{"friendly_token": "ft"})
	}))
	defer srv.Close()

	if _, err := NewClient(srv.URL, "tok").Upload(
		context.Background(), videoPath, "", "", "", nil, ""); err != nil {
		t.Fatal(err)
	}
	if gotTitle != "20240101-fallback-vid1" {
		t.Fatalf("default title = %q", gotTitle)
	}
}

func TestFindTokenForUsername(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.Header.Get("Authorization") {
		case "Token tok-a":
			_ = json.NewEncoder(w).Encode(map[string]string{"username": "alice"})
		case "Token tok-b":
			_ = json.NewEncoder(w).Encode(map[string]string{"username": "bob"})
		default:
			http.Error(w, "bad token", http.StatusUnauthorized)
		}
	}))
	defer srv.Close()

	bindings := []TokenBinding{
		{ChannelName: "broken", Token: "tok-x"},
		{ChannelName: "a", Token: "tok-a"},
		{ChannelName: "b", Token: "tok-b"},
	}

	token, err := FindTokenForUsername(context.Background(), srv.URL, bindings, "Bob")
	if err != nil {
		t.Fatalf("find token failed: %v", err)
	}
	if token != "tok-b" {
		t.Fatalf("token = %q", token)
	}

	if _, err := FindTokenForUsername(context.Background(), srv.URL, bindings, "carol"); err == nil {
		t.Fatal("expected error for unknown user")
	}
}
