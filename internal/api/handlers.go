package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/banksecure/paysim/internal/models"
	"github.com/banksecure/paysim/internal/service"
	"github.com/banksecure/paysim/internal/store"
	"github.com/banksecure/paysim/internal/worker"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paysim_http_requests_total",
		Help: "Total HTTP requests processed, labeled by status code",
	}, []string{"method", "endpoint", "status"})

	httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "paysim_http_request_duration_seconds",
		Help:    "Latency distribution of HTTP requests",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
	}, []string{"method", "endpoint"})

	transfersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paysim_transfers_total",
		Help: "Transfer attempts by terminal status and error code",
	}, []string{"status", "error_code"})

	complaintsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "paysim_complaints_total",
		Help: "Complaints by lifecycle event",
	}, []string{"event"})

	depositsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "paysim_deposits_total",
		Help: "Completed deposits",
	})
)

type Handler struct {
	store      store.Ledger
	executor   *service.Executor
	complaints *service.ComplaintService
	pool       *worker.Pool
	log        *zap.Logger
}

func NewHandler(s store.Ledger, ex *service.Executor, cs *service.ComplaintService, pool *worker.Pool, log *zap.Logger) *Handler {
	return &Handler{store: s, executor: ex, complaints: cs, pool: pool, log: log}
}

func (h *Handler) HealthCheckHandler(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// CreateTransferHandler runs one transfer attempt. Simulator failures come
// back with HTTP 200 and a structured body: requires_complaint and
// money_debited tell the client what happened. Only malformed input or an
// unreachable store map to error statuses.
func (h *Handler) CreateTransferHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/transfers"))
	defer timer.ObserveDuration()

	var req models.TransferRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/transfers", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}

	if req.UserID <= 0 {
		httpRequestsTotal.WithLabelValues("POST", "/transfers", "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "user_id required")
		return
	}
	if !req.Amount.IsPositive() {
		httpRequestsTotal.WithLabelValues("POST", "/transfers", "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "Positive amount required")
		return
	}
	if req.ReceiverAccount == "" || req.ReceiverName == "" {
		httpRequestsTotal.WithLabelValues("POST", "/transfers", "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "Receiver account and name required")
		return
	}

	result, err := h.executor.Process(r.Context(), req)
	if err != nil {
		h.log.Error("transfer processing error", zap.Error(err))
		httpRequestsTotal.WithLabelValues("POST", "/transfers", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	transfersTotal.WithLabelValues(string(result.Status), result.ErrorCode.String()).Inc()
	httpRequestsTotal.WithLabelValues("POST", "/transfers", "200").Inc()
	respondWithJSON(w, http.StatusOK, result)
}

// CreateDepositHandler credits the caller's account.
func (h *Handler) CreateDepositHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		UserID int64           `json:"user_id"`
		Amount decimal.Decimal `json:"amount"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/deposits", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if req.UserID <= 0 || !req.Amount.IsPositive() {
		httpRequestsTotal.WithLabelValues("POST", "/deposits", "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "user_id and positive amount required")
		return
	}

	txn, err := h.executor.Deposit(r.Context(), req.UserID, req.Amount)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			httpRequestsTotal.WithLabelValues("POST", "/deposits", "404").Inc()
			respondWithError(w, http.StatusNotFound, "Account not found")
			return
		}
		h.log.Error("deposit error", zap.Error(err))
		httpRequestsTotal.WithLabelValues("POST", "/deposits", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	depositsTotal.Inc()
	httpRequestsTotal.WithLabelValues("POST", "/deposits", "200").Inc()
	respondWithJSON(w, http.StatusOK, txn)
}

// ListTransactionsHandler returns a user's transaction history, newest
// first.
func (h *Handler) ListTransactionsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/accounts/{userID}/transactions", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	account, err := h.store.GetAccountByUserID(r.Context(), userID)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/accounts/{userID}/transactions", "404").Inc()
		respondWithError(w, http.StatusNotFound, "Account not found")
		return
	}

	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}

	txns, err := h.store.ListTransactionsByAccount(r.Context(), account.ID, limit)
	if err != nil {
		h.log.Error("transaction list error", zap.Int64("user_id", userID), zap.Error(err))
		httpRequestsTotal.WithLabelValues("GET", "/accounts/{userID}/transactions", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if txns == nil {
		txns = []models.Transaction{}
	}

	httpRequestsTotal.WithLabelValues("GET", "/accounts/{userID}/transactions", "200").Inc()
	respondWithJSON(w, http.StatusOK, txns)
}

// ListComplaintsHandler is the manager surface: all complaints, optionally
// filtered by status.
func (h *Handler) ListComplaintsHandler(w http.ResponseWriter, r *http.Request) {
	status := models.ComplaintStatus(r.URL.Query().Get("status"))

	list, err := h.store.ListComplaints(r.Context(), status)
	if err != nil {
		h.log.Error("complaint list error", zap.Error(err))
		httpRequestsTotal.WithLabelValues("GET", "/manager/complaints", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}
	if list == nil {
		list = []models.Complaint{}
	}

	httpRequestsTotal.WithLabelValues("GET", "/manager/complaints", "200").Inc()
	respondWithJSON(w, http.StatusOK, list)
}

// CreateComplaintHandler files a dispute and queues it for asynchronous
// resolution.
func (h *Handler) CreateComplaintHandler(w http.ResponseWriter, r *http.Request) {
	timer := prometheus.NewTimer(httpRequestDuration.WithLabelValues("POST", "/complaints"))
	defer timer.ObserveDuration()

	var req models.ComplaintRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/complaints", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Malformed JSON body")
		return
	}
	if req.UserID <= 0 || req.TransactionRef == "" {
		httpRequestsTotal.WithLabelValues("POST", "/complaints", "422").Inc()
		respondWithError(w, http.StatusUnprocessableEntity, "user_id and transaction_id required")
		return
	}

	receipt, err := h.complaints.Submit(r.Context(), req)
	if err != nil {
		if errors.Is(err, store.ErrTransactionNotFound) || errors.Is(err, store.ErrAccountNotFound) {
			httpRequestsTotal.WithLabelValues("POST", "/complaints", "404").Inc()
			respondWithError(w, http.StatusNotFound, "Transaction not found")
			return
		}
		h.log.Error("complaint submission error", zap.Error(err))
		httpRequestsTotal.WithLabelValues("POST", "/complaints", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	complaintsTotal.WithLabelValues("filed").Inc()
	if !h.pool.Submit(receipt.ComplaintID) {
		// Queue full: the complaint is persisted as processing and can be
		// driven by the manager resolve endpoint.
		h.log.Warn("complaint queue full; resolution deferred",
			zap.String("complaint_id", receipt.ComplaintID))
		complaintsTotal.WithLabelValues("deferred").Inc()
	}

	httpRequestsTotal.WithLabelValues("POST", "/complaints", "202").Inc()
	respondWithJSON(w, http.StatusAccepted, receipt)
}

// ResolveComplaintHandler drives a complaint synchronously; used by the
// manager surface and as the retry path for deferred complaints.
func (h *Handler) ResolveComplaintHandler(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	result, err := h.complaints.Resolve(r.Context(), ref)
	if err != nil {
		if errors.Is(err, store.ErrComplaintNotFound) || errors.Is(err, store.ErrTransactionNotFound) {
			httpRequestsTotal.WithLabelValues("POST", "/complaints/{ref}/resolve", "404").Inc()
			respondWithError(w, http.StatusNotFound, "Complaint not found")
			return
		}
		h.log.Error("complaint resolution error", zap.String("complaint_id", ref), zap.Error(err))
		httpRequestsTotal.WithLabelValues("POST", "/complaints/{ref}/resolve", "500").Inc()
		respondWithError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	complaintsTotal.WithLabelValues(string(result.Status)).Inc()
	httpRequestsTotal.WithLabelValues("POST", "/complaints/{ref}/resolve", "200").Inc()
	respondWithJSON(w, http.StatusOK, result)
}

func (h *Handler) GetAccountHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(mux.Vars(r)["userID"], 10, 64)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/accounts/{userID}", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	account, err := h.store.GetAccountByUserID(r.Context(), userID)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/accounts/{userID}", "404").Inc()
		respondWithError(w, http.StatusNotFound, "Account not found")
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/accounts/{userID}", "200").Inc()
	respondWithJSON(w, http.StatusOK, account)
}

func (h *Handler) GetTransactionHandler(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	txn, err := h.store.GetTransactionByRef(r.Context(), ref)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/transactions/{ref}", "404").Inc()
		respondWithError(w, http.StatusNotFound, "Transaction not found")
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/transactions/{ref}", "200").Inc()
	respondWithJSON(w, http.StatusOK, txn)
}

func (h *Handler) GetComplaintHandler(w http.ResponseWriter, r *http.Request) {
	ref := mux.Vars(r)["ref"]

	c, err := h.store.GetComplaintByRef(r.Context(), ref)
	if err != nil {
		httpRequestsTotal.WithLabelValues("GET", "/complaints/{ref}", "404").Inc()
		respondWithError(w, http.StatusNotFound, "Complaint not found")
		return
	}

	httpRequestsTotal.WithLabelValues("GET", "/complaints/{ref}", "200").Inc()
	respondWithJSON(w, http.StatusOK, c)
}

// ValidateAccountHandler lets a client pre-check an external receiver before
// sending money.
func (h *Handler) ValidateAccountHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AccountNumber string `json:"account_number"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.AccountNumber == "" {
		httpRequestsTotal.WithLabelValues("POST", "/accounts/validate", "400").Inc()
		respondWithError(w, http.StatusBadRequest, "account_number required")
		return
	}

	ext, err := h.store.GetExternalAccount(r.Context(), req.AccountNumber)
	if err != nil {
		httpRequestsTotal.WithLabelValues("POST", "/accounts/validate", "404").Inc()
		respondWithError(w, http.StatusNotFound, "Account not found")
		return
	}

	httpRequestsTotal.WithLabelValues("POST", "/accounts/validate", "200").Inc()
	respondWithJSON(w, http.StatusOK, map[string]string{
		"account_holder_name": ext.HolderName,
		"bank_name":           ext.BankName,
		"status":              string(ext.Status),
	})
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if payload != nil {
		json.NewEncoder(w).Encode(payload)
	}
}
