// internal/handler/http_handler.go
package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"wallet-sync-service/internal/domain"
	"wallet-sync-service/pkg/response"
	"wallet-sync-service/pkg/utils"
)

const wsWriteTimeout = 10 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HTTPHandler serves the read-only REST and websocket surface
type HTTPHandler struct {
	states  StateService
	wallets WalletService
	logger  *zap.Logger
}

func NewHTTPHandler(states StateService, wallets WalletService, logger *zap.Logger) *HTTPHandler {
	return &HTTPHandler{states: states, wallets: wallets, logger: logger}
}

// stateView is the JSON shape of a state result on the REST surface
type stateView struct {
	Kind    domain.StateResultKind      `json:"kind,omitempty"`
	Balance string                      `json:"balance,omitempty"`
	State   *domain.CombinedWalletState `json:"state"`
}

func newStateView(kind domain.StateResultKind, state *domain.CombinedWalletState) stateView {
	view := stateView{Kind: kind, State: state}
	if state != nil {
		view.Balance = utils.FormatBalance(state.WalletState.Balance)
	}
	return view
}

func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	response.JSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ListWallets handles GET /api/wallets
func (h *HTTPHandler) ListWallets(w http.ResponseWriter, r *http.Request) {
	records, err := h.wallets.AvailableWallets(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	response.JSON(w, http.StatusOK, recordsToSummaries(records))
}

// WalletState handles GET /api/wallets/{publicKey}/state. Cache only.
func (h *HTTPHandler) WalletState(w http.ResponseWriter, r *http.Request) {
	publicKey := domain.WalletPublicKey(chi.URLParam(r, "publicKey"))

	record, err := h.wallets.GetWallet(r.Context(), publicKey)
	if err != nil {
		h.writeError(w, err)
		return
	}

	state, err := h.states.ReadCached(r.Context(), domain.SubjectWallet(record.Info))
	if err != nil {
		h.writeError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, newStateView(domain.StateResultCached, state))
}

// AddressState handles GET /api/addresses/{address}/state: a full ledger
// inspection of an arbitrary address, never persisted
func (h *HTTPHandler) AddressState(w http.ResponseWriter, r *http.Request) {
	subject := domain.SubjectAddress(chi.URLParam(r, "address"))

	var latest domain.StateResult
	for result, err := range h.states.Refresh(r.Context(), subject, false) {
		if err != nil {
			h.writeError(w, err)
			return
		}
		latest = result
	}

	response.JSON(w, http.StatusOK, newStateView(latest.Kind, latest.State))
}

// WalletStateWS handles GET /api/ws/wallets/{publicKey}. Each refresh sends
// the cached result followed by the updated one; the client asks for another
// round with {"action":"refresh"}.
func (h *HTTPHandler) WalletStateWS(w http.ResponseWriter, r *http.Request) {
	publicKey := domain.WalletPublicKey(chi.URLParam(r, "publicKey"))

	record, err := h.wallets.GetWallet(r.Context(), publicKey)
	if err != nil {
		h.writeError(w, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("WebSocket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subject := domain.SubjectWallet(record.Info)
	refreshes := make(chan struct{}, 1)
	refreshes <- struct{}{}

	// Reader: turns client actions into refresh requests and notices disconnects
	go func() {
		defer cancel()
		for {
			mt, msg, err := conn.ReadMessage()
			if err != nil {
				h.logger.Debug("WebSocket client disconnected",
					zap.String("public_key", publicKey.String()),
					zap.Error(err),
				)
				return
			}
			if mt != websocket.TextMessage {
				continue
			}
			var req struct {
				Action string `json:"action"`
			}
			if err := json.Unmarshal(msg, &req); err == nil && req.Action == "refresh" {
				select {
				case refreshes <- struct{}{}:
				default:
				}
			}
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case <-refreshes:
		}

		for result, err := range h.states.Refresh(ctx, subject, false) {
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				h.logger.Warn("WebSocket refresh failed",
					zap.String("public_key", publicKey.String()),
					zap.Error(err),
				)
				if !h.writeWS(conn, map[string]string{
					"kind":  "error",
					"error": err.Error(),
					"code":  grpcCode(err).String(),
				}) {
					return
				}
				break
			}
			if !h.writeWS(conn, newStateView(result.Kind, result.State)) {
				return
			}
		}
	}
}

func (h *HTTPHandler) writeWS(conn *websocket.Conn, v interface{}) bool {
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	if err := conn.WriteJSON(v); err != nil {
		h.logger.Debug("WebSocket write failed", zap.Error(err))
		return false
	}
	return true
}

func (h *HTTPHandler) writeError(w http.ResponseWriter, err error) {
	code := httpStatus(err)
	if code >= http.StatusInternalServerError {
		h.logger.Error("Request failed", zap.Error(err))
	}
	response.Error(w, code, err.Error())
}
