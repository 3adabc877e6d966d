package main

import (
	"encoding/json"
	"flag"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/miradorstack/mirador-slo/internal/models"
	"github.com/miradorstack/mirador-slo/internal/utils"
)

type service struct {
	id   int64
	name string
}

var catalog = []service{
	{101, "GET https://wm-sandbox-1.watermelon.us:443/services/dashboard-stats-service/api/stats"},
	{102, "POST https://wm-sandbox-1.watermelon.us:443/services/checkout/api/orders"},
	{103, "GET https://wm-sandbox-1.watermelon.us:443/services/wmtest/api/test-runs"},
	{104, "GET https://wm-sandbox-1.watermelon.us:443/services/payments/api/refunds"},
}

func main() {
	addr := flag.String("addr", ":8085", "listen address")
	flag.Parse()

	logger := utils.NewLogger("info", false).With(slog.String("component", "mock-sources"))

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	mux.HandleFunc("/realms/watermelon/protocol/openid-connect/token", handleToken)
	mux.HandleFunc("/services/wmerrorbudgetstatisticsservice/api/transactions/distinct/top-5/ALL", handleTransactions)
	mux.HandleFunc("/", handleClickHouse)

	srv := &http.Server{
		Addr:              *addr,
		Handler:           logRequests(logger, mux),
		ReadHeaderTimeout: 5 * time.Second,
	}

	logger.Info("listening", slog.String("address", *addr))
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("server error", slog.Any("error", err))
		os.Exit(1)
	}
}

func handleToken(w http.ResponseWriter, r *http.Request) {
	if !enforceMethod(w, r, http.MethodPost) {
		return
	}
	if err := r.ParseForm(); err != nil || r.PostForm.Get("grant_type") != "password" {
		w.WriteHeader(http.StatusBadRequest)
		writeJSON(w, map[string]string{"error": "unsupported_grant_type"})
		return
	}
	writeJSON(w, map[string]any{
		"access_token": "mock-token",
		"token_type":   "Bearer",
		"expires_in":   300,
	})
}

func handleTransactions(w http.ResponseWriter, r *http.Request) {
	if !enforceMethod(w, r, http.MethodGet) {
		return
	}
	index := r.URL.Query().Get("index")
	txs := []models.Transaction{
		transaction(catalog[0], index, models.CategoryErrorBudget, models.HealthUnhealthy, 0.962, 1840, 70, 3.4),
		transaction(catalog[0], index, models.CategoryResponse, models.HealthAtRisk, 0.991, 1840, 0, 1.1),
		transaction(catalog[1], index, models.CategoryErrorBudget, models.HealthAtRisk, 0.987, 12400, 161, 1.6),
		transaction(catalog[2], index, models.CategoryErrorBudget, models.HealthHealthy, 0.999, 320, 0, 0.2),
		transaction(catalog[3], index, models.CategoryErrorBudget, models.HealthHealthy, 0.998, 5100, 10, 0.4),
	}
	writeJSON(w, txs)
}

func transaction(svc service, index, category, health string, success, total, errs, burn float64) models.Transaction {
	tx := models.Transaction{
		TransactionID:   svc.id,
		TransactionName: svc.name,
		ApplicationName: "WMPlatform",
		Index:           index,
		DataCategory:    category,
		SuccessRate:     success * 100,
		ShortTargetSLO:  99,
		EBBreached:      health == models.HealthUnhealthy,
		TotalCount:      total,
		ErrorCount:      errs,
		BurnRate:        burn,
	}
	if category == models.CategoryResponse {
		tx.ResponseHealth = health
		tx.ResponseSLO = 0.8
		tx.ResponseTargetPercent = 95
		tx.AvgPercentiles = map[string]float64{"95.0": 0.92}
	} else {
		tx.EBHealth = health
	}
	return tx
}

// handleClickHouse stands in for the ClickHouse HTTP interface. It answers the
// two query shapes the orchestrator sends: service discovery and pattern lookups.
func handleClickHouse(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	if !enforceMethod(w, r, http.MethodPost) {
		return
	}
	body, _ := io.ReadAll(r.Body)
	params := r.URL.Query()
	w.Header().Set("Content-Type", "application/x-ndjson")
	enc := json.NewEncoder(w)

	if strings.Contains(string(body), "SELECT DISTINCT service_id") {
		for _, svc := range catalog {
			_ = enc.Encode(map[string]any{"service_id": svc.id, "service": svc.name})
		}
		return
	}

	wanted := params.Get("param_pattern_types")
	now := time.Now().UTC()
	for i, p := range []struct {
		kind  string
		svc   service
		delta float64
	}{
		{"drift_down", catalog[0], -0.8},
		{"sudden_spike", catalog[1], 2.4},
		{"volume_driven", catalog[1], -0.5},
		{"weekly", catalog[3], -1.2},
		{"daily", catalog[0], -0.6},
	} {
		if wanted != "" && !strings.Contains(wanted, "'"+p.kind+"'") {
			continue
		}
		detected := now.Add(-time.Duration(i+1) * 20 * time.Minute)
		row := map[string]any{
			"application_id":    31854,
			"service_id":        p.svc.id,
			"service":           p.svc.name,
			"metric":            "success_rate",
			"baseline_state":    "normal",
			"baseline_value":    99.2,
			"pattern_type":      p.kind,
			"pattern_window":    "1h",
			"delta_success":     p.delta,
			"delta_latency_p90": 0.05,
			"support_days":      6,
			"confidence":        0.9 - float64(i)*0.1,
			"first_seen":        now.Add(-72 * time.Hour).Format(time.DateTime),
			"last_seen":         detected.Format(time.DateTime),
			"detected_at":       detected.Format(time.DateTime),
		}
		if strings.Contains(string(body), "AS day_of_week") {
			row["day_of_week"] = int(detected.Weekday()+6)%7 + 1
		}
		if strings.Contains(string(body), "AS hour_of_day") {
			row["hour_of_day"] = detected.Hour()
		}
		_ = enc.Encode(row)
	}
}

func enforceMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("encode error", slog.Any("error", err))
	}
}

func logRequests(logger *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rw := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rw, r)
		logger.Info("request",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rw.status),
			slog.Duration("elapsed", time.Since(start)),
		)
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}
