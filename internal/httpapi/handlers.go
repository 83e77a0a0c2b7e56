package httpapi

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/TejasShirsath/stocky-assignment/internal/apperr"
	"github.com/TejasShirsath/stocky-assignment/internal/domain"
)

type createUserRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type createRewardRequest struct {
	UserID      int64           `json:"userId"`
	StockSymbol string          `json:"stockSymbol"`
	Shares      decimal.Decimal `json:"shares"`
}

type todayStocksResponse struct {
	Stocks []domain.SymbolReward `json:"stocks"`
}

type historicalResponse struct {
	UserID            int64               `json:"userId"`
	HistoricalRewards []domain.DailyValue `json:"historicalRewards"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (s *server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if !decode(w, r, &req) {
		return
	}

	user, err := s.svc.CreateUser(r.Context(), req.Name, req.Email)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (s *server) handleCreateReward(w http.ResponseWriter, r *http.Request) {
	var req createRewardRequest
	if !decode(w, r, &req) {
		return
	}

	entry, err := s.svc.CreateReward(r.Context(), req.UserID, req.StockSymbol, req.Shares)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, entry)
}

func (s *server) handleTodayStocks(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	stocks, err := s.svc.TodaysRewards(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if stocks == nil {
		stocks = []domain.SymbolReward{}
	}
	writeJSON(w, http.StatusOK, todayStocksResponse{Stocks: stocks})
}

func (s *server) handleHistorical(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	days, err := s.svc.HistoricalValuation(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	if days == nil {
		days = []domain.DailyValue{}
	}
	writeJSON(w, http.StatusOK, historicalResponse{UserID: userID, HistoricalRewards: days})
}

func (s *server) handleStats(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	stats, err := s.svc.CurrentStats(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *server) handlePortfolio(w http.ResponseWriter, r *http.Request) {
	userID, ok := userIDParam(w, r)
	if !ok {
		return
	}

	portfolio, err := s.svc.PortfolioSnapshot(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, portfolio)
}

// userIDParam parses {userId}; the service rejects non-positive values.
func userIDParam(w http.ResponseWriter, r *http.Request) (int64, bool) {
	raw := chi.URLParam(r, "userId")
	if raw == "" {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userId is required"})
		return 0, false
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "userId must be a positive integer"})
		return 0, false
	}
	return id, true
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "invalid request body"})
		return false
	}
	return true
}

// statusFor maps the error taxonomy to an HTTP status code.
func statusFor(err error) int {
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), errorResponse{Error: apperr.Message(err)})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
