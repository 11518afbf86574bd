package routing

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/rs/zerolog"

	"news-digest/internal/domain"
)

type prefRepoStub struct {
	prefs map[string]domain.Preference
	err   error
}

func (s *prefRepoStub) GetPreference(_ context.Context, email string) (domain.Preference, error) {
	if s.err != nil {
		return domain.Preference{}, s.err
	}
	pref, ok := s.prefs[email]
	if !ok {
		return domain.Preference{}, domain.ErrPreferenceNotFound
	}
	return pref, nil
}

func (s *prefRepoStub) UpsertPreference(context.Context, domain.Preference) error {
	return nil
}

func TestResolveSlot(t *testing.T) {
	if got := ResolveSlot(7, 7); got != domain.SlotMorning {
		t.Errorf("ResolveSlot(7, 7) = %v", got)
	}
	if got := ResolveSlot(18, 7); got != domain.SlotEvening {
		t.Errorf("ResolveSlot(18, 7) = %v", got)
	}
	// Any non-morning hour is an evening run.
	if got := ResolveSlot(12, 7); got != domain.SlotEvening {
		t.Errorf("ResolveSlot(12, 7) = %v", got)
	}
}

func TestResolveRecipients(t *testing.T) {
	prefs := map[string]domain.Preference{
		"morning@x.com": {Email: "morning@x.com", Subscribed: true, PreferredSlot: domain.SlotMorning},
		"evening@x.com": {Email: "evening@x.com", Subscribed: true, PreferredSlot: domain.SlotEvening},
		"off@x.com":     {Email: "off@x.com", Subscribed: false, PreferredSlot: domain.SlotMorning},
	}
	recipients := []string{"morning@x.com", "evening@x.com", "off@x.com", "nopref@x.com"}

	cases := []struct {
		name string
		slot domain.Slot
		want []string
	}{
		{"morning includes defaults", domain.SlotMorning, []string{"morning@x.com", "nopref@x.com"}},
		{"evening excludes defaults", domain.SlotEvening, []string{"evening@x.com"}},
	}

	router := NewRouter(&prefRepoStub{prefs: prefs}, zerolog.Nop())
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := router.Resolve(context.Background(), tc.slot, recipients)
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if !reflect.DeepEqual(got, tc.want) {
				t.Errorf("Resolve(%s) = %v, want %v", tc.slot, got, tc.want)
			}
		})
	}
}

func TestResolveEmptyResult(t *testing.T) {
	router := NewRouter(&prefRepoStub{prefs: map[string]domain.Preference{}}, zerolog.Nop())

	got, err := router.Resolve(context.Background(), domain.SlotEvening, []string{"nopref@x.com"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("got %v, want empty", got)
	}
}

func TestResolveRepoError(t *testing.T) {
	repoErr := errors.New("connection refused")
	router := NewRouter(&prefRepoStub{err: repoErr}, zerolog.Nop())

	_, err := router.Resolve(context.Background(), domain.SlotMorning, []string{"ana@x.com"})
	if !errors.Is(err, repoErr) {
		t.Fatalf("err = %v, want wrapped repo error", err)
	}
}
