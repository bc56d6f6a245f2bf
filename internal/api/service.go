// Package api exposes the game over HTTP: handlers that turn requests into
// intents and serve snapshots, plus a WebSocket hub that pushes every
// accepted state change.
//
// All monetary values use shopspring/decimal, never float64 for money.
package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/atmx/clicker-engine/internal/casino"
	"github.com/atmx/clicker-engine/internal/game"
	"github.com/atmx/clicker-engine/internal/journal"
	"github.com/atmx/clicker-engine/internal/market"
	"github.com/atmx/clicker-engine/internal/model"
	"github.com/atmx/clicker-engine/internal/shop"
)

const (
	defaultLedgerLimit = 50
	maxLedgerLimit     = 500
)

// Store is the part of game.Store the handlers need.
type Store interface {
	Dispatch(in game.Intent) error
	State() game.Snapshot
}

// Service holds the HTTP handlers. The store serializes all writes, so
// handlers need no locking of their own.
type Service struct {
	store   Store
	shop    *shop.Shop
	casino  *casino.Casino
	journal journal.Journal // optional; serves ?source=journal
	hub     *WSHub          // optional
}

// NewService creates the handlers. Pass nil for j or hub to disable the
// journal read path or the WebSocket endpoint.
func NewService(st Store, sh *shop.Shop, c *casino.Casino, j journal.Journal, hub *WSHub) *Service {
	return &Service{store: st, shop: sh, casino: c, journal: j, hub: hub}
}

// Routes returns the API router, to be mounted under /api/v1.
func (s *Service) Routes() chi.Router {
	r := chi.NewRouter()

	r.Get("/state", s.GetState)
	r.Get("/ledger", s.GetLedger)
	r.Get("/portfolio", s.GetPortfolio)
	r.Get("/instruments", s.ListInstruments)

	r.Post("/click", s.Click)
	r.Post("/upgrades/click", s.UpgradeClick)
	r.Post("/upgrades/auto", s.UpgradeAuto)
	r.Post("/special", s.PurchaseSpecial)
	r.Post("/reset", s.Reset)

	r.Post("/trade", s.ExecuteTrade)

	r.Route("/casino", func(r chi.Router) {
		r.Post("/slots", s.PlaySlots)
		r.Post("/rps", s.PlayRPS)
		r.Post("/blackjack", s.StartBlackjack)
		r.Get("/blackjack/{roundID}", s.GetBlackjack)
		r.Post("/blackjack/{roundID}/hit", s.HitBlackjack)
		r.Post("/blackjack/{roundID}/stand", s.StandBlackjack)
	})

	r.Route("/shop", func(r chi.Router) {
		r.Get("/products", s.ListProducts)
		r.Get("/categories", s.ListCategories)
		r.Get("/cart", s.GetCart)
		r.Post("/cart", s.AddToCart)
		r.Delete("/cart", s.ClearCart)
		r.Put("/cart/{productID}", s.UpdateCartItem)
		r.Delete("/cart/{productID}", s.RemoveCartItem)
		r.Post("/checkout", s.Checkout)
	})

	if s.hub != nil {
		r.Get("/ws", s.hub.HandleWS)
	}
	return r
}

// --- Request/Response types ---

// StateResponse is the snapshot returned by GET /state and every action.
type StateResponse struct {
	Version     uint64             `json:"version"`
	Balance     decimal.Decimal    `json:"balance"`
	ClickLevel  int64              `json:"click_level"`
	AutoLevel   int64              `json:"auto_level"`
	ClickCost   decimal.Decimal    `json:"click_upgrade_cost"`
	AutoCost    decimal.Decimal    `json:"auto_upgrade_cost"`
	Instruments []model.Instrument `json:"instruments"`
	Portfolio   model.Portfolio    `json:"portfolio"`
	Cart        model.Cart         `json:"cart"`
	CartTotal   decimal.Decimal    `json:"cart_total"`
	LedgerSize  int                `json:"ledger_size"`
}

// TradeRequest is the JSON body for POST /trade.
type TradeRequest struct {
	Symbol string          `json:"symbol"`
	Side   string          `json:"side"` // "buy" or "sell"
	Shares decimal.Decimal `json:"shares"`
}

// TradeResponse is the JSON body returned from POST /trade.
type TradeResponse struct {
	Symbol   string          `json:"symbol"`
	Side     string          `json:"side"`
	Shares   decimal.Decimal `json:"shares"`
	Price    decimal.Decimal `json:"price"`
	Amount   decimal.Decimal `json:"amount"`
	Balance  decimal.Decimal `json:"balance"`
	Position model.Position  `json:"position"`
}

// StakeRequest is the JSON body for slots and blackjack.
type StakeRequest struct {
	Stake decimal.Decimal `json:"stake"`
}

// RPSRequest is the JSON body for POST /casino/rps.
type RPSRequest struct {
	Hand  string          `json:"hand"`
	Stake decimal.Decimal `json:"stake"`
}

// CartRequest is the JSON body for cart additions and updates.
type CartRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

func newStateResponse(snap game.Snapshot) StateResponse {
	s := snap.State
	return StateResponse{
		Version:     snap.Version,
		Balance:     s.Account.Balance,
		ClickLevel:  s.Levels.Click,
		AutoLevel:   s.Levels.Auto,
		ClickCost:   model.ClickUpgradeCost(s.Levels.Click),
		AutoCost:    model.AutoUpgradeCost(s.Levels.Auto),
		Instruments: sortedInstruments(s.Instruments),
		Portfolio:   s.Portfolio,
		Cart:        s.Cart,
		CartTotal:   s.Cart.Total(),
		LedgerSize:  s.Ledger.Len(),
	}
}

func sortedInstruments(m map[string]model.Instrument) []model.Instrument {
	out := make([]model.Instrument, 0, len(m))
	for _, inst := range m {
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// --- HTTP Handlers ---

// GetState handles GET /api/v1/state
func (s *Service) GetState(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, newStateResponse(s.store.State()))
}

// GetLedger handles GET /api/v1/ledger?limit=N[&source=journal]
// Entries are newest first.
func (s *Service) GetLedger(w http.ResponseWriter, r *http.Request) {
	limit := defaultLedgerLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			writeError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxLedgerLimit)
	}

	var entries []model.Transaction
	if r.URL.Query().Get("source") == "journal" {
		if s.journal == nil {
			writeError(w, "journal is not configured", http.StatusNotFound)
			return
		}
		var err error
		entries, err = s.journal.Recent(r.Context(), limit)
		if err != nil {
			slog.Error("journal read failed", "error", err)
			writeError(w, "failed to read journal", http.StatusInternalServerError)
			return
		}
	} else {
		entries = s.store.State().State.Ledger.Entries(limit)
	}
	if entries == nil {
		entries = []model.Transaction{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// GetPortfolio handles GET /api/v1/portfolio
// Returns positions valued at the latest quotes.
func (s *Service) GetPortfolio(w http.ResponseWriter, r *http.Request) {
	st := s.store.State().State
	writeJSON(w, http.StatusOK, st.Portfolio.Value(st.Instruments))
}

// ListInstruments handles GET /api/v1/instruments
func (s *Service) ListInstruments(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, sortedInstruments(s.store.State().State.Instruments))
}

// Click handles POST /api/v1/click
func (s *Service) Click(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, game.EarnFromClick{})
}

// UpgradeClick handles POST /api/v1/upgrades/click
func (s *Service) UpgradeClick(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, game.UpgradeClick{})
}

// UpgradeAuto handles POST /api/v1/upgrades/auto
func (s *Service) UpgradeAuto(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, game.UpgradeAuto{})
}

// PurchaseSpecial handles POST /api/v1/special
func (s *Service) PurchaseSpecial(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, game.PurchaseSpecialItem{})
}

// Reset handles POST /api/v1/reset
func (s *Service) Reset(w http.ResponseWriter, r *http.Request) {
	s.dispatch(w, game.ResetGame{})
}

func (s *Service) dispatch(w http.ResponseWriter, in game.Intent) {
	if err := s.store.Dispatch(in); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, newStateResponse(s.store.State()))
}

// ExecuteTrade handles POST /api/v1/trade
// Fills at the latest quote for the symbol.
func (s *Service) ExecuteTrade(w http.ResponseWriter, r *http.Request) {
	var req TradeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}

	// --- Input validation ---
	if _, err := market.ParseSymbol(req.Symbol); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	if req.Side != "buy" && req.Side != "sell" {
		writeError(w, "side must be buy or sell", http.StatusBadRequest)
		return
	}
	if !req.Shares.IsPositive() {
		writeError(w, "shares must be positive", http.StatusBadRequest)
		return
	}

	quote, ok := s.store.State().State.Instruments[req.Symbol]
	if !ok {
		writeError(w, "no quote for symbol: "+req.Symbol, http.StatusConflict)
		return
	}

	var in game.Intent = game.BuyInstrument{InstrumentID: req.Symbol, Shares: req.Shares, Price: quote.Price}
	if req.Side == "sell" {
		in = game.SellInstrument{InstrumentID: req.Symbol, Shares: req.Shares, Price: quote.Price}
	}
	if err := s.store.Dispatch(in); err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}

	st := s.store.State().State
	resp := TradeResponse{
		Symbol:   req.Symbol,
		Side:     req.Side,
		Shares:   req.Shares,
		Price:    quote.Price,
		Amount:   req.Shares.Mul(quote.Price),
		Balance:  st.Account.Balance,
		Position: st.Portfolio[req.Symbol],
	}

	slog.Info("trade executed",
		"symbol", req.Symbol,
		"side", req.Side,
		"shares", req.Shares.String(),
		"price", quote.Price.String(),
	)
	writeJSON(w, http.StatusOK, resp)
}

// PlaySlots handles POST /api/v1/casino/slots
func (s *Service) PlaySlots(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	res, err := s.casino.PlaySlots(req.Stake)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// PlayRPS handles POST /api/v1/casino/rps
func (s *Service) PlayRPS(w http.ResponseWriter, r *http.Request) {
	var req RPSRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	hand, err := casino.ParseHand(req.Hand)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	res, err := s.casino.PlayRPS(hand, req.Stake)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// StartBlackjack handles POST /api/v1/casino/blackjack
func (s *Service) StartBlackjack(w http.ResponseWriter, r *http.Request) {
	var req StakeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	view, err := s.casino.StartBlackjack(req.Stake)
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

// GetBlackjack handles GET /api/v1/casino/blackjack/{roundID}
func (s *Service) GetBlackjack(w http.ResponseWriter, r *http.Request) {
	s.blackjackMove(w, r, s.casino.Round)
}

// HitBlackjack handles POST /api/v1/casino/blackjack/{roundID}/hit
func (s *Service) HitBlackjack(w http.ResponseWriter, r *http.Request) {
	s.blackjackMove(w, r, s.casino.Hit)
}

// StandBlackjack handles POST /api/v1/casino/blackjack/{roundID}/stand
func (s *Service) StandBlackjack(w http.ResponseWriter, r *http.Request) {
	s.blackjackMove(w, r, s.casino.Stand)
}

func (s *Service) blackjackMove(w http.ResponseWriter, r *http.Request, move func(string) (casino.RoundView, error)) {
	view, err := move(chi.URLParam(r, "roundID"))
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	writeJSON(w, http.StatusOK, view)
}

// ListProducts handles GET /api/v1/shop/products?category=<name>
func (s *Service) ListProducts(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.shop.Products(r.URL.Query().Get("category")))
}

// ListCategories handles GET /api/v1/shop/categories
func (s *Service) ListCategories(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.shop.Categories())
}

// GetCart handles GET /api/v1/shop/cart
func (s *Service) GetCart(w http.ResponseWriter, r *http.Request) {
	cart := s.store.State().State.Cart
	writeJSON(w, http.StatusOK, shop.Receipt{Items: cart, Quantity: cart.Quantity(), Total: cart.Total()})
}

// AddToCart handles POST /api/v1/shop/cart
func (s *Service) AddToCart(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	s.cartOp(w, s.shop.AddToCart(req.ProductID, req.Quantity))
}

// UpdateCartItem handles PUT /api/v1/shop/cart/{productID}
func (s *Service) UpdateCartItem(w http.ResponseWriter, r *http.Request) {
	var req CartRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	s.cartOp(w, s.shop.UpdateQuantity(chi.URLParam(r, "productID"), req.Quantity))
}

// RemoveCartItem handles DELETE /api/v1/shop/cart/{productID}
func (s *Service) RemoveCartItem(w http.ResponseWriter, r *http.Request) {
	s.cartOp(w, s.shop.Remove(chi.URLParam(r, "productID")))
}

// ClearCart handles DELETE /api/v1/shop/cart
func (s *Service) ClearCart(w http.ResponseWriter, r *http.Request) {
	s.cartOp(w, s.shop.Clear())
}

func (s *Service) cartOp(w http.ResponseWriter, err error) {
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	cart := s.store.State().State.Cart
	writeJSON(w, http.StatusOK, shop.Receipt{Items: cart, Quantity: cart.Quantity(), Total: cart.Total()})
}

// Checkout handles POST /api/v1/shop/checkout
func (s *Service) Checkout(w http.ResponseWriter, r *http.Request) {
	receipt, err := s.shop.Checkout()
	if err != nil {
		writeError(w, err.Error(), statusFor(err))
		return
	}
	slog.Info("order placed", "items", receipt.Quantity, "total", receipt.Total.String())
	writeJSON(w, http.StatusOK, receipt)
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, game.ErrInsufficientFunds),
		errors.Is(err, game.ErrInsufficientHoldings),
		errors.Is(err, game.ErrStaleOrder),
		errors.Is(err, casino.ErrStakeExceedsBalance),
		errors.Is(err, casino.ErrRoundFinished),
		errors.Is(err, casino.ErrTooManyRounds),
		errors.Is(err, shop.ErrEmptyCart):
		return http.StatusConflict
	case errors.Is(err, casino.ErrRoundNotFound),
		errors.Is(err, shop.ErrUnknownProduct),
		errors.Is(err, market.ErrUnknownSymbol):
		return http.StatusNotFound
	case errors.Is(err, game.ErrInvalidIntent),
		errors.Is(err, game.ErrUnknownIntent),
		errors.Is(err, market.ErrInvalidSymbol),
		errors.Is(err, casino.ErrInvalidHand),
		errors.Is(err, casino.ErrStakeBelowMinimum),
		errors.Is(err, casino.ErrStakeAboveMaximum):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}
