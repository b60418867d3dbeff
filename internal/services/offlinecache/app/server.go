// Package app hosts the offline cache worker as an HTTP reverse proxy with a
// small control API under /_worker/.
package app

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/louisbranch/offlinecache/internal/platform/requestctx"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/clients"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/domain"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/network"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/notify"
	"github.com/louisbranch/offlinecache/internal/services/offlinecache/storage"
)

// SourceHeader reports how a proxied response was produced.
const SourceHeader = "X-Offline-Cache"

const defaultMaxRequestBytes = 8 << 20

// Handler serves proxied traffic and the control API.
type Handler struct {
	worker          *domain.Worker
	network         domain.Network
	store           storage.Store
	clients         *clients.Registry
	notifications   *notify.Center
	maxRequestBytes int64
	logf            func(string, ...any)
	mux             *http.ServeMux
}

// HandlerDeps wires a Handler.
type HandlerDeps struct {
	Worker        *domain.Worker
	Network       domain.Network
	Store         storage.Store
	Clients       *clients.Registry
	Notifications *notify.Center
	Logf          func(string, ...any)
}

// NewHandler builds the HTTP surface around deps.
func NewHandler(deps HandlerDeps) (*Handler, error) {
	switch {
	case deps.Worker == nil:
		return nil, errors.New("worker is required")
	case deps.Network == nil:
		return nil, errors.New("network is required")
	case deps.Store == nil:
		return nil, errors.New("store is required")
	case deps.Clients == nil:
		return nil, errors.New("clients registry is required")
	case deps.Notifications == nil:
		return nil, errors.New("notification center is required")
	}
	logf := deps.Logf
	if logf == nil {
		logf = log.Printf
	}
	h := &Handler{
		worker:          deps.Worker,
		network:         deps.Network,
		store:           deps.Store,
		clients:         deps.Clients,
		notifications:   deps.Notifications,
		maxRequestBytes: defaultMaxRequestBytes,
		logf:            logf,
		mux:             http.NewServeMux(),
	}
	h.mux.HandleFunc("GET /_worker/status", h.handleStatus)
	h.mux.HandleFunc("GET /_worker/clients", h.handleListClients)
	h.mux.HandleFunc("POST /_worker/clients", h.handleRegisterClient)
	h.mux.HandleFunc("DELETE /_worker/clients/{id}", h.handleRemoveClient)
	h.mux.HandleFunc("GET /_worker/notifications", h.handleListNotifications)
	h.mux.HandleFunc("POST /_worker/notifications", h.handleShowNotification)
	h.mux.HandleFunc("POST /_worker/notifications/{tag}/click", h.handleNotificationClick)
	h.mux.HandleFunc("/", h.handleProxy)
	return h, nil
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if clientID := strings.TrimSpace(r.Header.Get(requestctx.ClientHeader)); clientID != "" {
		r = r.WithContext(requestctx.WithClientID(r.Context(), clientID))
	}
	h.mux.ServeHTTP(w, r)
}

func (h *Handler) handleProxy(w http.ResponseWriter, r *http.Request) {
	target, err := h.worker.Config().Resolve(r.URL.RequestURI())
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxRequestBytes))
	if err != nil {
		http.Error(w, "request body too large", http.StatusRequestEntityTooLarge)
		return
	}
	header := r.Header.Clone()
	network.StripHopHeaders(header)
	header.Del(requestctx.ClientHeader)
	request := domain.Request{Method: r.Method, URL: target, Header: header, Body: body}

	response, source, err := h.worker.Fetch(r.Context(), request)
	if errors.Is(err, domain.ErrNotActive) {
		// Uncontrolled: the page talks to the origin directly.
		response, err = h.network.Fetch(r.Context(), request)
		source = domain.SourceBypass
	}
	if err != nil {
		h.logf("proxy %s %s (client %q): %v", r.Method, target, requestctx.ClientIDFromContext(r.Context()), err)
		http.Error(w, err.Error(), http.StatusBadGateway)
		return
	}

	out := w.Header()
	for name, values := range response.Header {
		out[name] = append([]string(nil), values...)
	}
	out.Set(SourceHeader, source.String())
	w.WriteHeader(response.Status)
	if r.Method != http.MethodHead && len(response.Body) > 0 {
		if _, err := w.Write(response.Body); err != nil {
			h.logf("write proxied response %s: %v", target, err)
		}
	}
}

type statusResponse struct {
	State       string           `json:"state"`
	CacheName   string           `json:"cacheName"`
	Policy      string           `json:"policy"`
	Manifest    []string         `json:"manifest"`
	Generations []generationJSON `json:"generations"`
}

type generationJSON struct {
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

func (h *Handler) handleStatus(w http.ResponseWriter, r *http.Request) {
	records, err := h.store.ListGenerations(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	cfg := h.worker.Config()
	generations := make([]generationJSON, 0, len(records))
	for _, record := range records {
		generations = append(generations, generationJSON{Name: record.Name, CreatedAt: record.CreatedAt})
	}
	writeJSON(w, http.StatusOK, statusResponse{
		State:       h.worker.State().String(),
		CacheName:   cfg.CacheName(),
		Policy:      cfg.Policy().String(),
		Manifest:    cfg.Manifest(),
		Generations: generations,
	})
}

type clientJSON struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Type       string `json:"type"`
	Focused    bool   `json:"focused"`
	Controller string `json:"controller,omitempty"`
}

func toClientJSON(client domain.Client) clientJSON {
	return clientJSON{
		ID:         client.ID,
		URL:        client.URL,
		Type:       string(client.Type),
		Focused:    client.Focused,
		Controller: client.Controller,
	}
}

type registerClientRequest struct {
	URL  string `json:"url"`
	Type string `json:"type"`
}

func (h *Handler) handleRegisterClient(w http.ResponseWriter, r *http.Request) {
	var req registerClientRequest
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	client, err := h.clients.Register(r.Context(), req.URL, domain.ClientType(req.Type))
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, toClientJSON(client))
}

func (h *Handler) handleListClients(w http.ResponseWriter, r *http.Request) {
	opts := domain.MatchOptions{Type: domain.ClientAll, IncludeUncontrolled: true}
	if kind := strings.TrimSpace(r.URL.Query().Get("type")); kind != "" {
		opts.Type = domain.ClientType(kind)
	}
	if r.URL.Query().Get("controlled") == "true" {
		opts.IncludeUncontrolled = false
	}
	matched, err := h.clients.MatchAll(r.Context(), opts)
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]clientJSON, 0, len(matched))
	for _, client := range matched {
		out = append(out, toClientJSON(client))
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleRemoveClient(w http.ResponseWriter, r *http.Request) {
	if err := h.clients.Remove(r.Context(), r.PathValue("id")); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, clients.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSONError(w, status, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type notificationJSON struct {
	Tag     string            `json:"tag"`
	Title   string            `json:"title"`
	Body    string            `json:"body,omitempty"`
	Data    map[string]string `json:"data,omitempty"`
	ShownAt time.Time         `json:"shownAt,omitzero"`
}

func toNotificationJSON(displayed notify.Displayed) notificationJSON {
	return notificationJSON{
		Tag:     displayed.Tag,
		Title:   displayed.Title,
		Body:    displayed.Body,
		Data:    displayed.Data,
		ShownAt: displayed.ShownAt,
	}
}

func (h *Handler) handleShowNotification(w http.ResponseWriter, r *http.Request) {
	var req notificationJSON
	if err := decodeJSON(r, &req); err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	displayed, err := h.notifications.Show(r.Context(), domain.Notification{
		Tag:   req.Tag,
		Title: req.Title,
		Body:  req.Body,
		Data:  req.Data,
	})
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, toNotificationJSON(displayed))
}

func (h *Handler) handleListNotifications(w http.ResponseWriter, r *http.Request) {
	shown, err := h.notifications.List(r.Context())
	if err != nil {
		writeJSONError(w, http.StatusInternalServerError, err)
		return
	}
	out := make([]notificationJSON, 0, len(shown))
	for _, displayed := range shown {
		out = append(out, toNotificationJSON(displayed))
	}
	writeJSON(w, http.StatusOK, out)
}

type clickResponse struct {
	Action string     `json:"action"`
	Client clientJSON `json:"client"`
}

func (h *Handler) handleNotificationClick(w http.ResponseWriter, r *http.Request) {
	displayed, err := h.notifications.Get(r.Context(), r.PathValue("tag"))
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, notify.ErrNotFound) {
			status = http.StatusNotFound
		}
		writeJSONError(w, status, err)
		return
	}
	outcome, err := h.worker.NotificationClick(r.Context(), displayed.Notification)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrNotActive) {
			status = http.StatusServiceUnavailable
		}
		writeJSONError(w, status, err)
		return
	}
	writeJSON(w, http.StatusOK, clickResponse{Action: string(outcome.Action), Client: toClientJSON(outcome.Client)})
}

func decodeJSON(r *http.Request, target any) error {
	decoder := json.NewDecoder(io.LimitReader(r.Body, 1<<20))
	decoder.DisallowUnknownFields()
	return decoder.Decode(target)
}

// writeJSON writes JSON responses with a consistent content type.
func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeJSONError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
