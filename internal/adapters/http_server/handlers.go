package httpserver

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"rentmatch/internal/app"
	"rentmatch/internal/domain"
)

type Handlers struct {
	Catalog      *app.CatalogService
	Engine       *app.FilterEngine
	Negotiations *app.NegotiationService
	Messaging    *app.MessagingSync
}

type problem struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

func (s *Server) MountHandlers(h *Handlers) {
	s.mux.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200); _, _ = w.Write([]byte("ok")) })
	s.mux.Get("/v1/properties", h.listProperties)
	s.mux.Get("/v1/properties/{id}", h.getProperty)
	s.mux.Get("/v1/properties/{id}/negotiation", h.candidateNegotiation)
	s.mux.Post("/v1/negotiations", h.createNegotiation)
	s.mux.Post("/v1/negotiations/{id}/transition", h.transitionNegotiation)
	s.mux.Get("/v1/negotiations/{id}/thread", h.getThread)
	s.mux.Post("/v1/negotiations/{id}/messages", h.sendMessage)
}

func writeProblem(w http.ResponseWriter, status int, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(problem{Type: "about:blank", Title: title, Status: status, Detail: detail}); err != nil {
		log.Error().Err(err).Msg("write JSON problem response failed")
	}
}

// writeDomainErr maps the error taxonomy onto HTTP statuses: caller mistakes
// are 4xx, collaborator failures are 502.
func writeDomainErr(w http.ResponseWriter, err error) {
	var ve *domain.ValidationError
	var te *domain.InvalidTransitionError
	var ce *domain.CollaboratorError
	switch {
	case errors.Is(err, domain.ErrNotFound):
		writeProblem(w, http.StatusNotFound, "Not Found", "")
	case errors.As(err, &ve):
		writeProblem(w, http.StatusUnprocessableEntity, "Validation Failed", ve.Error())
	case errors.As(err, &te):
		writeProblem(w, http.StatusConflict, "Invalid Transition", te.Error())
	case errors.As(err, &ce):
		writeProblem(w, http.StatusBadGateway, "Upstream Failure", ce.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}

// calcETagAndBody marshals once and hashes once, returning both ETag and body.
func calcETagAndBody(v any) (string, []byte) {
	body, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Msg("failed to marshal object for ETag/body")
		return "", nil
	}
	sum := sha1.Sum(body)
	etag := `W/"` + hex.EncodeToString(sum[:]) + `"`
	return etag, body
}

func writeCached(w http.ResponseWriter, r *http.Request, v any) {
	etag, body := calcETagAndBody(v)
	if inm := r.Header.Get("If-None-Match"); inm != "" && inm == etag {
		w.Header().Set("ETag", etag)
		w.WriteHeader(http.StatusNotModified)
		return
	}
	w.Header().Set("ETag", etag)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(body); err != nil {
		log.Error().Err(err).Msg("failed to write response body")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("failed to encode response")
	}
}

// ---- filter parsing ----

// specFromQuery builds a FilterSpec from URL parameters. Unparseable values
// are ignored; the engine's sanitization handles the rest.
func specFromQuery(q map[string][]string) domain.FilterSpec {
	get := func(k string) string {
		if vs := q[k]; len(vs) > 0 {
			return vs[0]
		}
		return ""
	}
	csv := func(k string) []string {
		raw := get(k)
		if raw == "" {
			return nil
		}
		return strings.Split(raw, ",")
	}
	num := func(k string) float64 {
		f, _ := strconv.ParseFloat(get(k), 64)
		return f
	}

	var spec domain.FilterSpec
	for _, s := range csv("bedrooms") {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			spec.Bedrooms = append(spec.Bedrooms, n)
		}
	}
	spec.MinBathrooms, _ = strconv.Atoi(get("minBathrooms"))
	switch get("livingRoom") {
	case "required":
		spec.LivingRoom = domain.TristateRequired
	case "excluded":
		spec.LivingRoom = domain.TristateExcluded
	}
	spec.MinSize = num("minSize")
	spec.MaxSize = num("maxSize")
	spec.MinPrice = num("minPrice")
	spec.MaxPrice = num("maxPrice")
	spec.PropertyType = get("type")
	spec.Renovation = get("renovation")
	spec.Amenities = csv("amenities")
	spec.Areas = csv("areas")
	spec.ExtraRooms = csv("extraRooms")
	for _, pair := range []struct {
		key string
		dst **time.Time
	}{{"availableFrom", &spec.AvailableFrom}, {"availableTo", &spec.AvailableTo}} {
		if raw := get(pair.key); raw != "" {
			if t, err := time.Parse("2006-01-02", raw); err == nil {
				*pair.dst = &t
			}
		}
	}
	return spec
}

func (h *Handlers) listProperties(w http.ResponseWriter, r *http.Request) {
	spec := h.Engine.Sanitize(specFromQuery(r.URL.Query()))
	query := r.URL.Query().Get("query")

	catalog, err := h.Catalog.Published(r.Context())
	if err != nil {
		res, derr := h.Engine.Degrade(err)
		if derr != nil {
			writeDomainErr(w, derr)
			return
		}
		writeCached(w, r, res)
		return
	}
	writeCached(w, r, h.Engine.Apply(catalog, query, spec))
}

func (h *Handlers) getProperty(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	p, err := h.Catalog.Get(r.Context(), id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeCached(w, r, p)
}

func (h *Handlers) candidateNegotiation(w http.ResponseWriter, r *http.Request) {
	propertyID, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	renterID, err := strconv.ParseInt(r.URL.Query().Get("renterId"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid renterId", "renterId must be a number")
		return
	}

	type resp struct {
		ButtonState app.ButtonState     `json:"buttonState"`
		Negotiation *domain.Negotiation `json:"negotiation,omitempty"`
	}

	n, err := h.Negotiations.FindByCandidate(r.Context(), renterID, propertyID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			writeJSON(w, http.StatusOK, resp{ButtonState: app.ButtonMakeRequest})
			return
		}
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp{ButtonState: app.DeriveButtonState(&n), Negotiation: &n})
}

func (h *Handlers) createNegotiation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		PropertyID int64  `json:"propertyId"`
		RenterID   int64  `json:"renterId"`
		From       string `json:"from"`
		To         string `json:"to"`
		Message    string `json:"message"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}

	prop, err := h.Catalog.Get(r.Context(), body.PropertyID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}

	d := app.RequestDetails{Message: body.Message}
	if body.From != "" {
		if t, err := time.Parse("2006-01-02", body.From); err == nil {
			d.From = t
		}
	}
	if body.To != "" {
		if t, err := time.Parse("2006-01-02", body.To); err == nil {
			d.To = t
		}
	}

	n, err := h.Negotiations.Create(r.Context(), body.RenterID, prop, d)
	if err != nil {
		var ve *domain.ValidationError
		if errors.As(err, &ve) && ve.Field == "propertyId" {
			// duplicate active negotiation
			writeProblem(w, http.StatusConflict, "Duplicate Negotiation", ve.Error())
			return
		}
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, n)
}

func (h *Handlers) transitionNegotiation(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var body struct {
		RenterID int64  `json:"renterId"`
		Status   string `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}

	n, err := h.Negotiations.Transition(r.Context(), body.RenterID, id, domain.Status(body.Status))
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, n)
}

func (h *Handlers) getThread(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	renterID, err := strconv.ParseInt(r.URL.Query().Get("renterId"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid renterId", "renterId must be a number")
		return
	}
	userID, err := strconv.ParseInt(r.URL.Query().Get("userId"), 10, 64)
	if err != nil {
		userID = renterID
	}

	n, err := h.Negotiations.Get(r.Context(), renterID, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	view, err := h.Messaging.Load(r.Context(), n, userID)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) sendMessage(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid ID", "id must be a number")
		return
	}
	var body struct {
		RenterID int64  `json:"renterId"`
		SenderID int64  `json:"senderId"`
		Body     string `json:"body"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		writeProblem(w, http.StatusBadRequest, "Invalid Body", err.Error())
		return
	}

	n, err := h.Negotiations.Get(r.Context(), body.RenterID, id)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	msg, err := h.Messaging.Send(r.Context(), n, body.SenderID, body.Body)
	if err != nil {
		writeDomainErr(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, msg)
}
