package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"github.com/skip2/go-qrcode"
	"live-trivia-service/internal/app"
	"live-trivia-service/internal/domain"
)

const qrSize = 320

// RouterConfig carries what the HTTP surface needs besides the websocket handler.
type RouterConfig struct {
	PublicURL      string
	AllowedOrigins []string
	Gatherer       prometheus.Gatherer
}

// NewRouter mounts health, websocket, metrics and lobby endpoints behind CORS.
func NewRouter(service *app.LobbyService, ws *WSHandler, hub *Hub, cfg RouterConfig) http.Handler {
	router := httprouter.New()

	router.GET("/healthz", serveHealth(service, hub))
	router.GET("/ws", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		ws.ServeWS(w, r)
	})
	if cfg.Gatherer != nil {
		router.Handler(http.MethodGet, "/metrics", promhttp.HandlerFor(cfg.Gatherer, promhttp.HandlerOpts{}))
	}
	router.GET("/lobbies/:id", serveLobby(service))
	router.GET("/lobbies/:id/qr", serveLobbyQR(service, cfg.PublicURL))

	origins := cfg.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	c := cors.New(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet},
		AllowedHeaders: []string{"Authorization", "Content-Type"},
	})
	return c.Handler(router)
}

func serveHealth(service *app.LobbyService, hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		connections, rooms := hub.Stats()
		writeJSON(w, http.StatusOK, map[string]any{
			"status":      "ok",
			"lobbies":     service.ActiveLobbies(),
			"connections": connections,
			"rooms":       rooms,
		})
	}
}

func serveLobby(service *app.LobbyService) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		snapshot, err := service.Lobby(ps.ByName("id"))
		if errors.Is(err, domain.ErrLobbyNotFound) {
			writeJSON(w, http.StatusNotFound, domain.ErrorPayload{Message: err.Error()})
			return
		}
		if err != nil {
			writeJSON(w, http.StatusInternalServerError, domain.ErrorPayload{Message: err.Error()})
			return
		}
		writeJSON(w, http.StatusOK, snapshot)
	}
}

// serveLobbyQR renders a PNG QR code pointing viewers at the lobby's join page.
func serveLobbyQR(service *app.LobbyService, publicURL string) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		id := ps.ByName("id")
		if _, err := service.Lobby(id); err != nil {
			http.Error(w, err.Error(), http.StatusNotFound)
			return
		}

		base := strings.TrimSuffix(publicURL, "/")
		if base == "" {
			scheme := "http"
			if r.TLS != nil {
				scheme = "https"
			}
			if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
				scheme = proto
			}
			base = scheme + "://" + r.Host
		}

		png, err := qrcode.Encode(JoinURL(base, id), qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "image/png")
		_, _ = w.Write(png)
	}
}

// JoinURL is the link encoded in a lobby's QR code.
func JoinURL(base, lobbyID string) string {
	return strings.TrimSuffix(base, "/") + "/join/" + lobbyID
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warn().Err(err).Msg("failed to write response")
	}
}
