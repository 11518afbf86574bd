package web

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"news-digest/internal/domain"
	"news-digest/internal/usecase/routing"
)

const testSecret = "secret"

type prefRepoStub struct {
	prefs map[string]domain.Preference
	saved []domain.Preference
}

func (s *prefRepoStub) GetPreference(_ context.Context, email string) (domain.Preference, error) {
	pref, ok := s.prefs[email]
	if !ok {
		return domain.Preference{}, domain.ErrPreferenceNotFound
	}
	return pref, nil
}

func (s *prefRepoStub) UpsertPreference(_ context.Context, pref domain.Preference) error {
	s.saved = append(s.saved, pref)
	return nil
}

type summaryRepoStub struct {
	summaries map[string]domain.Summary
}

func (s *summaryRepoStub) UpsertSummary(context.Context, domain.Summary) (int64, error) {
	return 0, nil
}

func (s *summaryRepoStub) GetSummaryByDate(_ context.Context, date time.Time) (domain.Summary, error) {
	summary, ok := s.summaries[date.Format("2006-01-02")]
	if !ok {
		return domain.Summary{}, errors.New("summary not found")
	}
	return summary, nil
}

func newTestServer(prefs *prefRepoStub) *httptest.Server {
	return newTestServerWithSummaries(prefs, &summaryRepoStub{})
}

func newTestServerWithSummaries(prefs *prefRepoStub, summaries *summaryRepoStub) *httptest.Server {
	r := chi.NewRouter()
	NewHandler(prefs, summaries, testSecret, zerolog.Nop()).Register(r)
	return httptest.NewServer(r)
}

func signedQuery(email string) string {
	q := url.Values{}
	q.Set("email", email)
	q.Set("token", routing.Token(email, testSecret))
	return q.Encode()
}

func TestUnsubscribe(t *testing.T) {
	prefs := &prefRepoStub{prefs: map[string]domain.Preference{
		"ana@x.com": {Email: "ana@x.com", Subscribed: true, PreferredSlot: domain.SlotEvening},
	}}
	srv := newTestServer(prefs)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/unsubscribe?" + signedQuery("ana@x.com"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(prefs.saved) != 1 {
		t.Fatalf("saved %d prefs, want 1", len(prefs.saved))
	}
	got := prefs.saved[0]
	if got.Subscribed {
		t.Error("recipient still subscribed")
	}
	// Unsubscribing must not clobber the stored slot.
	if got.PreferredSlot != domain.SlotEvening {
		t.Errorf("slot = %v", got.PreferredSlot)
	}
}

func TestUnsubscribeWithoutStoredPreference(t *testing.T) {
	prefs := &prefRepoStub{prefs: map[string]domain.Preference{}}
	srv := newTestServer(prefs)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/unsubscribe?" + signedQuery("new@x.com"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(prefs.saved) != 1 || prefs.saved[0].Subscribed {
		t.Fatalf("saved = %+v", prefs.saved)
	}
}

func TestBadTokenRejected(t *testing.T) {
	prefs := &prefRepoStub{prefs: map[string]domain.Preference{}}
	srv := newTestServer(prefs)
	defer srv.Close()

	for _, path := range []string{
		"/unsubscribe?email=ana%40x.com&token=forged",
		"/preferences?email=ana%40x.com&token=forged",
		"/unsubscribe?email=ana%40x.com",
		"/unsubscribe",
	} {
		resp, err := http.Get(srv.URL + path)
		if err != nil {
			t.Fatalf("get %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusForbidden {
			t.Errorf("%s: status = %d, want 403", path, resp.StatusCode)
		}
	}
	if len(prefs.saved) != 0 {
		t.Errorf("state mutated by rejected requests: %+v", prefs.saved)
	}
}

func TestPreferencesFormShowsCurrentState(t *testing.T) {
	prefs := &prefRepoStub{prefs: map[string]domain.Preference{
		"ana@x.com": {Email: "ana@x.com", Subscribed: true, PreferredSlot: domain.SlotEvening},
	}}
	srv := newTestServer(prefs)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/preferences?" + signedQuery("ana@x.com"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	page := string(raw)

	if !strings.Contains(page, `value="evening" checked`) {
		t.Error("evening slot not preselected")
	}
	if !strings.Contains(page, `name="subscribed" checked`) {
		t.Error("subscribed checkbox not preselected")
	}
}

func TestPreferencesSave(t *testing.T) {
	prefs := &prefRepoStub{prefs: map[string]domain.Preference{}}
	srv := newTestServer(prefs)
	defer srv.Close()

	form := url.Values{}
	form.Set("email", "ana@x.com")
	form.Set("token", routing.Token("ana@x.com", testSecret))
	form.Set("subscribed", "on")
	form.Set("preferred_slot", "evening")

	resp, err := http.PostForm(srv.URL+"/preferences", form)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if len(prefs.saved) != 1 {
		t.Fatalf("saved %d prefs, want 1", len(prefs.saved))
	}
	got := prefs.saved[0]
	if !got.Subscribed || got.PreferredSlot != domain.SlotEvening {
		t.Errorf("saved = %+v", got)
	}
}

func TestDigestPage(t *testing.T) {
	summaries := &summaryRepoStub{summaries: map[string]domain.Summary{
		"2024-03-15": {
			Date:      time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Title:     "Mercado em Alta",
			Text:      "## Destaques\n- Selic mantida",
			NewsCount: 8,
			Theme:     "economia",
		},
	}}
	srv := newTestServerWithSummaries(&prefRepoStub{prefs: map[string]domain.Preference{}}, summaries)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/digest?date=2024-03-15&" + signedQuery("ana@x.com"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	page := string(raw)
	if !strings.Contains(page, "Mercado em Alta") || !strings.Contains(page, "Selic mantida") {
		t.Errorf("digest page incomplete: %q", page)
	}
}

func TestDigestPageUnknownDate(t *testing.T) {
	srv := newTestServer(&prefRepoStub{prefs: map[string]domain.Preference{}})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/digest?date=2024-01-01&" + signedQuery("ana@x.com"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", resp.StatusCode)
	}
}

func TestPreferencesSaveRejectsUnknownSlot(t *testing.T) {
	prefs := &prefRepoStub{prefs: map[string]domain.Preference{}}
	srv := newTestServer(prefs)
	defer srv.Close()

	form := url.Values{}
	form.Set("email", "ana@x.com")
	form.Set("token", routing.Token("ana@x.com", testSecret))
	form.Set("preferred_slot", "midnight")

	resp, err := http.PostForm(srv.URL+"/preferences", form)
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
	if len(prefs.saved) != 0 {
		t.Errorf("invalid slot persisted: %+v", prefs.saved)
	}
}
