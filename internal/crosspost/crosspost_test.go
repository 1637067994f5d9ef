package crosspost

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"

	"github.com/starford/feedpost/internal/apperr"
)

func TestFormatterText(t *testing.T) {
	long := strings.Repeat("word ", 40)
	cases := []struct {
		name string
		f    Formatter
		want string
	}{
		{"title only", Formatter{Format: FormatTitleOnly}, "Ep 1"},
		{"with link", Formatter{Format: FormatTitleWithLink}, "Ep 1 https://x/1"},
		{"with summary", Formatter{Format: FormatTitleWithSummary}, "Ep 1\n\nshort\nhttps://x/1"},
		{"hashtags", Formatter{Format: FormatTitleOnly, IncludeHashtags: true, Hashtags: "#go, podcast , #feeds,#"}, "Ep 1 #go #feeds"},
		{"hashtags off", Formatter{Format: FormatTitleOnly, Hashtags: "#go"}, "Ep 1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.f.Text("Ep 1", "https://x/1", "short"); got != tc.want {
				t.Errorf("Text = %q, want %q", got, tc.want)
			}
		})
	}

	got := Formatter{Format: FormatTitleWithSummary}.Text("T", "", long)
	if !strings.Contains(got, "...") || len([]rune(got)) != len("T\n\n")+summaryLength {
		t.Errorf("summary not truncated: %q", got)
	}
}

func TestFormatterTruncatesPost(t *testing.T) {
	got := Formatter{Format: FormatTitleOnly}.Text(strings.Repeat("é", 400), "", "")
	if n := len([]rune(got)); n != MaxLength {
		t.Errorf("length = %d", n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Errorf("missing ellipsis: %q", got[len(got)-6:])
	}
}

func TestFormatterValidate(t *testing.T) {
	if err := (Formatter{Format: "thread"}).Validate(); err == nil {
		t.Error("expected error for unknown format")
	}
	if err := (Formatter{Format: FormatTitleWithLink}).Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}

type fakeTwitter struct {
	mu     sync.Mutex
	auth   []string
	texts  []string
	status int
}

func newFakeTwitter(t *testing.T) (*fakeTwitter, *httptest.Server) {
	t.Helper()
	f := &fakeTwitter{status: http.StatusCreated}
	r := chi.NewRouter()
	r.Post("/tweets", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Text string `json:"text"`
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		f.mu.Lock()
		f.auth = append(f.auth, r.Header.Get("Authorization"))
		f.texts = append(f.texts, body.Text)
		status := f.status
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status < 300 {
			_, _ = w.Write([]byte(`{"data":{"id":"42","text":"ok"}}`))
		} else {
			_, _ = w.Write([]byte(`{"title":"Forbidden"}`))
		}
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return f, srv
}

func TestClientPostText(t *testing.T) {
	fake, srv := newFakeTwitter(t)
	c, err := NewClient(srv.URL, "tok", 0)
	if err != nil {
		t.Fatal(err)
	}
	id, err := c.PostText(context.Background(), "hello")
	if err != nil {
		t.Fatalf("PostText: %v", err)
	}
	if id != "42" {
		t.Errorf("id = %q", id)
	}
	if fake.auth[0] != "Bearer tok" || fake.texts[0] != "hello" {
		t.Errorf("request = %v %v", fake.auth, fake.texts)
	}
}

func TestClientRemoteError(t *testing.T) {
	fake, srv := newFakeTwitter(t)
	fake.status = http.StatusForbidden
	c, _ := NewClient(srv.URL, "tok", 0)
	_, err := c.PostText(context.Background(), "x")
	var remote *apperr.RemoteServiceError
	if !errors.As(err, &remote) || remote.StatusCode != http.StatusForbidden {
		t.Fatalf("err = %v", err)
	}
}

func TestNewClientRequiresToken(t *testing.T) {
	if _, err := NewClient("", " ", 0); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("err = %v", err)
	}
}

func TestPosterAnnounce(t *testing.T) {
	fake, srv := newFakeTwitter(t)
	c, _ := NewClient(srv.URL, "tok", 0)
	p, err := NewPoster(Formatter{Format: FormatTitleWithLink}, c, slog.New(slog.NewJSONHandler(io.Discard, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Announce(context.Background(), "Ep", "https://feed/i/1", ""); err != nil {
		t.Fatal(err)
	}
	if fake.texts[0] != "Ep https://feed/i/1" {
		t.Errorf("text = %q", fake.texts[0])
	}

	if _, err := NewPoster(Formatter{Format: "bogus"}, c, nil); !errors.Is(err, apperr.ErrConfiguration) {
		t.Errorf("err = %v", err)
	}
}
