package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/example/payment-aggregator/internal/analytics"
	"github.com/example/payment-aggregator/internal/domain"
	"github.com/example/payment-aggregator/internal/registry"
	"github.com/example/payment-aggregator/internal/usecase"
)

// MaxWebhookBody — предельный размер тела вебхука.
const MaxWebhookBody = 1 << 20

type Ingester interface {
	Execute(id domain.ProcessorID, raw []byte, sig string) (domain.Transaction, bool, error)
}

type Server struct {
	Router   *mux.Router
	Registry *registry.Registry
	UCIngest Ingester
	UCStats  interface{ Execute() analytics.Statistics }
	UCStatus interface{ Execute() usecase.Status }
}

// NewServer; stream — обработчик WebSocket-подписки, доступен на /stream и на / при Upgrade.
func NewServer(reg *registry.Registry, ingest Ingester, stats interface{ Execute() analytics.Statistics },
	status interface{ Execute() usecase.Status }, stream http.Handler) *Server {
	s := &Server{Router: mux.NewRouter(), Registry: reg, UCIngest: ingest, UCStats: stats, UCStatus: status}
	s.Router.Use(cors)
	// preflight на любом пути
	s.Router.MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return r.Method == http.MethodOptions
	}).HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
	s.Router.HandleFunc("/webhooks/{route}", s.handleWebhook).Methods(http.MethodPost)
	s.Router.HandleFunc("/analytics/comparison", s.handleComparison).Methods(http.MethodGet)
	s.Router.HandleFunc("/system/status", s.handleStatus).Methods(http.MethodGet)
	s.Router.Handle("/stream", stream).Methods(http.MethodGet)
	s.Router.Handle("/", stream).Methods(http.MethodGet).MatcherFunc(func(r *http.Request, _ *mux.RouteMatch) bool {
		return websocket.IsWebSocketUpgrade(r)
	})
	return s
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	route := mux.Vars(r)["route"]
	p, ok := s.Registry.ByRoute(route)
	if !ok {
		writeError(w, http.StatusNotFound, "unknown processor: "+route)
		return
	}
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, MaxWebhookBody))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "payload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "read body: "+err.Error())
		return
	}

	tx, tracked, err := s.UCIngest.Execute(p.ID, body, r.Header.Get(p.Header))
	switch {
	case errors.Is(err, domain.ErrUnknownProcessor):
		writeError(w, http.StatusNotFound, err.Error())
		return
	case errors.Is(err, domain.ErrAuthentication), errors.Is(err, domain.ErrMalformedPayload):
		log.Printf("webhook %s rejected: %v", p.ID, err)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	case err != nil:
		log.Printf("webhook %s: %v", p.ID, err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if !tracked {
		writeJSON(w, http.StatusOK, map[string]any{"received": true, "message": "Event type not tracked"})
		return
	}
	log.Printf("webhook %s: processed %s", p.ID, tx.TxID)
	writeJSON(w, http.StatusOK, map[string]any{"received": true, "transactionId": tx.TxID})
}

func (s *Server) handleComparison(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.UCStats.Execute())
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.UCStatus.Execute())
}

func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h := w.Header()
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		h.Set("Access-Control-Allow-Headers", "Content-Type, Stripe-Signature, X-Bluefin-Signature, X-Worldpay-Signature, X-Gravity-Signature, X-Covetrus-Signature")
		next.ServeHTTP(w, r)
	})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, map[string]string{"error": msg})
}
