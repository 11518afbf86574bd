package web

import (
	"errors"
	"fmt"
	"html"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"news-digest/internal/adapters/mail"
	"news-digest/internal/domain"
	"news-digest/internal/usecase/routing"
)

// Handler serves the token-gated subscriber pages.
type Handler struct {
	prefs     domain.PreferenceRepo
	summaries domain.SummaryRepo
	secret    string
	log       zerolog.Logger
}

func NewHandler(prefs domain.PreferenceRepo, summaries domain.SummaryRepo, secret string, log zerolog.Logger) *Handler {
	return &Handler{
		prefs:     prefs,
		summaries: summaries,
		secret:    secret,
		log:       log.With().Str("component", "web").Logger(),
	}
}

// Register mounts the subscriber routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Get("/unsubscribe", h.unsubscribe)
	r.Get("/preferences", h.preferencesForm)
	r.Post("/preferences", h.preferencesSave)
	r.Get("/digest", h.digest)
}

// authorize validates the email+token pair from the request. A failed check
// renders a 403 page and returns an empty email.
func (h *Handler) authorize(w http.ResponseWriter, r *http.Request) string {
	email := r.FormValue("email")
	token := r.FormValue("token")
	if email == "" || !routing.VerifyToken(email, h.secret, token) {
		h.log.Warn().Str("email", email).Msg("rejected preference request with bad token")
		h.renderMessage(w, http.StatusForbidden, "Link inválido", "O link utilizado é inválido ou expirou.")
		return ""
	}
	return email
}

func (h *Handler) unsubscribe(w http.ResponseWriter, r *http.Request) {
	email := h.authorize(w, r)
	if email == "" {
		return
	}

	pref, err := h.prefs.GetPreference(r.Context(), email)
	if errors.Is(err, domain.ErrPreferenceNotFound) {
		pref = domain.Preference{Email: email, PreferredSlot: domain.SlotMorning}
	} else if err != nil {
		h.log.Error().Err(err).Str("email", email).Msg("failed to load preference")
		h.renderMessage(w, http.StatusInternalServerError, "Erro", "Não foi possível processar o pedido. Tente novamente.")
		return
	}

	pref.Subscribed = false
	pref.UpdatedAt = time.Now()
	if err := h.prefs.UpsertPreference(r.Context(), pref); err != nil {
		h.log.Error().Err(err).Str("email", email).Msg("failed to unsubscribe")
		h.renderMessage(w, http.StatusInternalServerError, "Erro", "Não foi possível processar o pedido. Tente novamente.")
		return
	}

	h.log.Info().Str("email", email).Msg("recipient unsubscribed")
	h.renderMessage(w, http.StatusOK, "Assinatura cancelada",
		"Você não receberá mais o resumo diário de notícias.")
}

func (h *Handler) preferencesForm(w http.ResponseWriter, r *http.Request) {
	email := h.authorize(w, r)
	if email == "" {
		return
	}

	pref, err := h.prefs.GetPreference(r.Context(), email)
	if errors.Is(err, domain.ErrPreferenceNotFound) {
		pref = domain.Preference{Email: email, Subscribed: true, PreferredSlot: domain.SlotMorning}
	} else if err != nil {
		h.log.Error().Err(err).Str("email", email).Msg("failed to load preference")
		h.renderMessage(w, http.StatusInternalServerError, "Erro", "Não foi possível carregar as preferências.")
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, renderForm(email, r.FormValue("token"), pref))
}

func (h *Handler) preferencesSave(w http.ResponseWriter, r *http.Request) {
	email := h.authorize(w, r)
	if email == "" {
		return
	}

	slot := domain.Slot(r.FormValue("preferred_slot"))
	if slot != domain.SlotMorning && slot != domain.SlotEvening {
		h.renderMessage(w, http.StatusBadRequest, "Valor inválido", "Horário de envio desconhecido.")
		return
	}

	pref := domain.Preference{
		Email:         email,
		Subscribed:    r.FormValue("subscribed") == "on",
		PreferredSlot: slot,
		UpdatedAt:     time.Now(),
	}
	if err := h.prefs.UpsertPreference(r.Context(), pref); err != nil {
		h.log.Error().Err(err).Str("email", email).Msg("failed to save preference")
		h.renderMessage(w, http.StatusInternalServerError, "Erro", "Não foi possível salvar as preferências.")
		return
	}

	h.log.Info().
		Str("email", email).
		Str("slot", string(slot)).
		Bool("subscribed", pref.Subscribed).
		Msg("preference updated")
	h.renderMessage(w, http.StatusOK, "Preferências salvas", "Suas preferências foram atualizadas com sucesso.")
}

// digest renders the stored summary for a date as the in-browser version of
// the email. Defaults to today when no date is given.
func (h *Handler) digest(w http.ResponseWriter, r *http.Request) {
	email := h.authorize(w, r)
	if email == "" {
		return
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if raw := r.FormValue("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			h.renderMessage(w, http.StatusBadRequest, "Data inválida", "Use o formato AAAA-MM-DD.")
			return
		}
		date = parsed
	}

	summary, err := h.summaries.GetSummaryByDate(r.Context(), date)
	if err != nil {
		h.log.Warn().Err(err).Time("date", date).Msg("digest lookup failed")
		h.renderMessage(w, http.StatusNotFound, "Resumo não encontrado",
			"Não há resumo publicado para esta data.")
		return
	}

	token := routing.Token(email, h.secret)
	query := url.Values{}
	query.Set("email", email)
	query.Set("token", token)
	links := mail.RecipientLinks{
		Unsubscribe: "/unsubscribe?" + query.Encode(),
		Preferences: "/preferences?" + query.Encode(),
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	fmt.Fprint(w, mail.RenderDigestHTML(summary, links))
}

func (h *Handler) renderMessage(w http.ResponseWriter, status int, title, body string) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	fmt.Fprintf(w, pageShell,
		html.EscapeString(title),
		fmt.Sprintf("<h2>%s</h2><p>%s</p>", html.EscapeString(title), html.EscapeString(body)),
	)
}

const pageShell = `<!DOCTYPE html>
<html lang="pt-BR">
<head><meta charset="utf-8"><title>%s</title></head>
<body style="font-family: Arial, sans-serif; max-width: 480px; margin: 40px auto;">%s</body>
</html>`

func renderForm(email, token string, pref domain.Preference) string {
	checked := func(b bool) string {
		if b {
			return " checked"
		}
		return ""
	}
	form := fmt.Sprintf(`<h2>Preferências de entrega</h2>
<p>%s</p>
<form method="post" action="/preferences">
<input type="hidden" name="email" value="%s">
<input type="hidden" name="token" value="%s">
<p><label><input type="checkbox" name="subscribed"%s> Receber o resumo diário</label></p>
<p><label><input type="radio" name="preferred_slot" value="morning"%s> Manhã (07:00)</label><br>
<label><input type="radio" name="preferred_slot" value="evening"%s> Noite (18:00)</label></p>
<p><button type="submit">Salvar</button></p>
</form>`,
		html.EscapeString(email),
		html.EscapeString(email),
		html.EscapeString(token),
		checked(pref.Subscribed),
		checked(pref.PreferredSlot == domain.SlotMorning),
		checked(pref.PreferredSlot == domain.SlotEvening),
	)
	return fmt.Sprintf(pageShell, "Preferências", form)
}
