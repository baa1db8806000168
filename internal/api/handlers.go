package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/harrylevesque/revisitor/internal/auth"
	"github.com/harrylevesque/revisitor/internal/content"
	"github.com/harrylevesque/revisitor/internal/feedback"
	"github.com/harrylevesque/revisitor/internal/models"
	"github.com/harrylevesque/revisitor/internal/nostr"
	"github.com/harrylevesque/revisitor/internal/notes"
	"github.com/harrylevesque/revisitor/internal/relays"
	"github.com/harrylevesque/revisitor/internal/review"
	"github.com/harrylevesque/revisitor/internal/utils"
)

// NoteView is a note with what the UI shows next to it.
type NoteView struct {
	Note         *nostr.Event          `json:"note"`
	Author       string                `json:"author"`
	TimeAgo      string                `json:"time_ago"`
	Progress     models.ReviewProgress `json:"progress"`
	NextInterval string                `json:"next_interval"`
}

type NotesResponse struct {
	Relay        string             `json:"relay"`
	Range        models.TimeRange   `json:"range"`
	CustomRelay  bool               `json:"custom_relay"`
	Notes        []NoteView         `json:"notes"`
	Stats        models.ReviewStats `json:"stats"`
	EmptyMessage string             `json:"empty_message,omitempty"`
}

type QueueResponse struct {
	Notes   []NoteView `json:"notes"`
	Total   int        `json:"total"`
	Message string     `json:"message,omitempty"`
}

type ContentResponse struct {
	ID       string            `json:"id"`
	Segments []content.Segment `json:"segments"`
	HTML     string            `json:"html"`
}

type PublishResponse struct {
	Toast models.Toast `json:"toast"`
	Event *nostr.Event `json:"event,omitempty"`
}

type RelaysResponse struct {
	Default     string             `json:"default"`
	Effective   string             `json:"effective"`
	DisplayName string             `json:"display_name"`
	Custom      bool               `json:"custom"`
	Candidates  []relays.Candidate `json:"candidates"`
}

type MeResponse struct {
	LoggedIn bool   `json:"logged_in"`
	PubKey   string `json:"pubkey,omitempty"`
	NPub     string `json:"npub,omitempty"`
	CanSign  bool   `json:"can_sign"`
}

func (h *handlers) getTime(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"time": h.now().Format(time.RFC3339)})
}

func (h *handlers) getMe(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, MeResponse{
		LoggedIn: h.Identity.LoggedIn(),
		PubKey:   h.Identity.PubKey,
		NPub:     h.Identity.NPub(),
		CanSign:  h.Identity.CanSign(),
	})
}

// scope reads the time range and relay for a request.
func (h *handlers) scope(r *http.Request) (models.TimeRange, string, error) {
	rng, err := models.ParseTimeRange(r.URL.Query().Get("range"))
	if err != nil {
		return "", "", utils.BadRequest(err.Error())
	}
	relay := h.Relays.Effective()
	if q := r.URL.Query().Get("relay"); q != "" {
		if !relays.IsValidInput(q) {
			return "", "", utils.BadRequest("Invalid relay URL")
		}
		relay = relays.Normalize(q)
	}
	return rng, relay, nil
}

func (h *handlers) loadNotes(r *http.Request) ([]*nostr.Event, models.TimeRange, string, error) {
	rng, relay, err := h.scope(r)
	if err != nil {
		return nil, "", "", err
	}
	list, err := h.Fetcher.MyNotes(r.Context(), h.Identity.PubKey, rng, relay)
	return list, rng, relay, err
}

func (h *handlers) findNote(r *http.Request) (*nostr.Event, error) {
	rng, relay, err := h.scope(r)
	if err != nil {
		return nil, err
	}
	return h.Fetcher.Find(r.Context(), h.Identity.PubKey, rng, relay, mux.Vars(r)["id"])
}

func (h *handlers) views(r *http.Request, list []*nostr.Event) ([]NoteView, error) {
	progress, err := h.Tracker.ProgressAll(r.Context(), list)
	if err != nil {
		return nil, err
	}
	now := h.now()
	out := make([]NoteView, 0, len(list))
	for _, n := range list {
		p := progress[n.ID]
		out = append(out, NoteView{
			Note:         n,
			Author:       h.Profiles.DisplayName(n.PubKey),
			TimeAgo:      utils.TimeAgo(n.CreatedAt.Time(), now),
			Progress:     p,
			NextInterval: review.DescribeNextInterval(p.Level),
		})
	}
	return out, nil
}

func (h *handlers) listNotes(w http.ResponseWriter, r *http.Request) {
	list, rng, relay, err := h.loadNotes(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load notes.")
		return
	}
	views, err := h.views(r, list)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	stats, err := h.Tracker.Stats(r.Context(), list)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	custom := relay != h.Relays.Default()
	resp := NotesResponse{Relay: relay, Range: rng, CustomRelay: custom, Notes: views, Stats: stats}
	if len(list) == 0 {
		resp.EmptyMessage = notes.EmptyMessage(rng, custom)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) noteContent(w http.ResponseWriter, r *http.Request) {
	n, err := h.findNote(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load note.")
		return
	}
	segments := content.Parse(n.Content)
	var mentioned []string
	for _, s := range segments {
		if s.Kind == content.KindMention {
			mentioned = append(mentioned, s.PubKey)
		}
	}
	h.Profiles.Load(r.Context(), mentioned...)
	writeJSON(w, http.StatusOK, ContentResponse{
		ID:       n.ID,
		Segments: segments,
		HTML:     content.RenderHTML(segments, h.Profiles),
	})
}

func (h *handlers) noteNevent(w http.ResponseWriter, r *http.Request) {
	n, err := h.findNote(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to copy note reference.")
		return
	}
	ref, err := notes.Nevent(n)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to copy note reference.")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"nevent": ref,
		"toast":  models.Toast{Title: "Copied!", Description: "Note reference copied to clipboard."},
	})
}

// publishRelays is the default relay plus the one notes are read from.
func (h *handlers) publishRelays() []string {
	out := []string{h.Relays.Default()}
	if eff := h.Relays.Effective(); eff != out[0] {
		out = append(out, eff)
	}
	return out
}

func (h *handlers) boostNote(w http.ResponseWriter, r *http.Request) {
	n, err := h.findNote(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to boost note. Please try again.")
		return
	}
	ev, err := h.Publisher.Boost(r.Context(), h.publishRelays(), n)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to boost note. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, PublishResponse{
		Toast: models.Toast{Title: "Boosted!", Description: "Note has been boosted to your followers."},
		Event: ev,
	})
}

type quoteRequest struct {
	Comment string `json:"comment"`
}

func (h *handlers) quoteNote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, utils.BadRequest("invalid request body"), "Error", "")
		return
	}
	if strings.TrimSpace(req.Comment) == "" {
		h.fail(w, r, notes.ErrEmptyComment, "Error", "")
		return
	}
	n, err := h.findNote(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to publish quoted boost. Please try again.")
		return
	}
	ev, err := h.Publisher.QuoteBoost(r.Context(), h.publishRelays(), n, req.Comment)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to publish quoted boost. Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, PublishResponse{
		Toast: models.Toast{Title: "Quoted Boost Sent!", Description: "Your quoted boost has been published."},
		Event: ev,
	})
}

func (h *handlers) reviewQueue(w http.ResponseWriter, r *http.Request) {
	list, _, _, err := h.loadNotes(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load notes.")
		return
	}
	due, err := h.Tracker.DueNotes(r.Context(), list)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	views, err := h.views(r, due)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	resp := QueueResponse{Notes: views, Total: len(views)}
	if len(views) == 0 {
		resp.Message = notes.CaughtUpMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *handlers) reviewStats(w http.ResponseWriter, r *http.Request) {
	list, _, _, err := h.loadNotes(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load notes.")
		return
	}
	stats, err := h.Tracker.Stats(r.Context(), list)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (h *handlers) getProgress(w http.ResponseWriter, r *http.Request) {
	n, err := h.findNote(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load note.")
		return
	}
	p, err := h.Tracker.Progress(r.Context(), n)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) markReviewed(w http.ResponseWriter, r *http.Request) {
	n, err := h.findNote(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load note.")
		return
	}
	if _, err := h.Tracker.MarkReviewed(r.Context(), n.ID); err != nil {
		h.fail(w, r, err, "Error", "Failed to save review.")
		return
	}
	p, err := h.Tracker.Progress(r.Context(), n)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	h.logger.Info("note reviewed", zap.String("event_id", n.ID), zap.Int("level", p.Level))
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) resetProgress(w http.ResponseWriter, r *http.Request) {
	n, err := h.findNote(r)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load note.")
		return
	}
	if err := h.Tracker.Reset(r.Context(), n.ID); err != nil {
		h.fail(w, r, err, "Error", "Failed to reset progress.")
		return
	}
	p, err := h.Tracker.Progress(r.Context(), n)
	if err != nil {
		h.fail(w, r, err, "Error", "Failed to load review progress.")
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *handlers) exportNotes(w http.ResponseWriter, r *http.Request) {
	list, _, _, err := h.loadNotes(r)
	if err != nil {
		h.fail(w, r, err, "Export failed", "There was an error exporting your notes. Please try again.")
		return
	}
	var buf bytes.Buffer
	res, err := h.Exporter.WriteZip(&buf, list)
	if err != nil {
		h.fail(w, r, err, "Export failed", "There was an error exporting your notes. Please try again.")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+h.Exporter.ArchiveName()+`"`)
	w.Header().Set("X-Export-Summary", res.Message())
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(buf.Bytes()); err != nil {
		h.logger.Warn("export write failed", zap.Error(err))
	}
}

func (h *handlers) relaysState(query string) RelaysResponse {
	eff := h.Relays.Effective()
	return RelaysResponse{
		Default:     h.Relays.Default(),
		Effective:   eff,
		DisplayName: relays.DisplayName(h.Presets, eff),
		Custom:      h.Relays.IsCustom(),
		Candidates:  h.Relays.Search(h.Presets, query),
	}
}

func (h *handlers) searchRelays(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.relaysState(strings.TrimSpace(r.URL.Query().Get("q"))))
}

type selectRelayRequest struct {
	URL string `json:"url"`
}

func (h *handlers) selectRelay(w http.ResponseWriter, r *http.Request) {
	var req selectRelayRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, utils.BadRequest("invalid request body"), "Error", "")
		return
	}
	if !relays.IsValidInput(req.URL) {
		h.fail(w, r, utils.BadRequest("Invalid relay URL"), "Error", "")
		return
	}
	h.Relays.Select(req.URL)
	h.logger.Info("relay selected", zap.String("relay", h.Relays.Effective()))
	writeJSON(w, http.StatusOK, h.relaysState(""))
}

func (h *handlers) resetRelay(w http.ResponseWriter, r *http.Request) {
	h.Relays.Reset()
	writeJSON(w, http.StatusOK, h.relaysState(""))
}

func (h *handlers) feedbackState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Feedback.State())
}

func (h *handlers) submitFeedback(w http.ResponseWriter, r *http.Request) {
	var req feedback.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.fail(w, r, utils.BadRequest("invalid request body"), "Error", "")
		return
	}
	ev, err := h.Feedback.Submit(r.Context(), h.publishRelays(), req)
	switch {
	case err == nil:
	case errors.Is(err, auth.ErrNotLoggedIn), errors.Is(err, auth.ErrReadOnly):
		h.fail(w, r, utils.Wrap(http.StatusUnauthorized, "Login Required", "Please log in to submit feedback.", err), "", "")
		return
	case errors.Is(err, feedback.ErrInvalidRating):
		h.fail(w, r, utils.Wrap(http.StatusBadRequest, "Rating Required", err.Error(), err), "", "")
		return
	default:
		h.fail(w, r, err, "Failed to Send Feedback", "Please try again.")
		return
	}
	writeJSON(w, http.StatusOK, PublishResponse{
		Toast: models.Toast{Title: "Feedback Sent!", Description: "Thank you for your feedback. It has been sent securely."},
		Event: ev,
	})
}

func (h *handlers) dismissFeedback(w http.ResponseWriter, r *http.Request) {
	h.Feedback.Dismiss()
	writeJSON(w, http.StatusOK, h.Feedback.State())
}
