package main

import (
	"encoding/json"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartguard/internal/alertlog"
	"smartguard/internal/config"
	"smartguard/internal/correlation"
	"smartguard/internal/engine"
	"smartguard/internal/ensemble"
	"smartguard/internal/history"
	"smartguard/internal/models"
	"smartguard/pkg/logging"
	"smartguard/pkg/types"
)

// maxUploadSize caps multipart uploads on /api/scan.
const maxUploadSize = 20 << 20

// demoFeatureCount matches the reduced feature vector the ML layer builds.
const demoFeatureCount = 20

// demoTrainingRows is the per-class size of the synthetic training set.
const demoTrainingRows = 200

type server struct {
	cfg        *types.Config
	engine     *engine.Engine
	detector   *ensemble.HybridThreatDetector
	store      history.Store
	correlator *correlation.Correlator
	alerts     *alertlog.Logger

	// Serializes full scans so concurrent uploads do not interleave
	// history writes with correlation reads.
	scanLock sync.Mutex
}

func main() {
	cfg, err := config.LoadConfig("config.yaml")
	if err != nil {
		logging.ErrorLogger.Fatalf("Failed to load configuration: %v", err)
	}

	detector, err := buildDemoEnsemble(cfg.Ensemble)
	if err != nil {
		logging.ErrorLogger.Fatalf("Failed to build ensemble: %v", err)
	}

	scanEngine, err := engine.NewEngine(cfg, detector)
	if err != nil {
		logging.ErrorLogger.Fatalf("Failed to initialize engine: %v", err)
	}

	store, err := history.NewStore(cfg.History)
	if err != nil {
		logging.ErrorLogger.Fatalf("Failed to open history store: %v", err)
	}
	defer store.Close()

	alerts, err := alertlog.NewLogger(cfg.Server.AlertDir)
	if err != nil {
		logging.ErrorLogger.Fatalf("Failed to open alert log: %v", err)
	}
	defer alerts.Close()

	srv := &server{
		cfg:        cfg,
		engine:     scanEngine,
		detector:   detector,
		store:      store,
		correlator: correlation.NewCorrelator(store),
		alerts:     alerts,
	}

	http.HandleFunc("/api/scan", srv.scanHandler)
	http.HandleFunc("/api/predict", srv.predictHandler)
	http.HandleFunc("/api/history", srv.historyHandler)
	http.HandleFunc("/api/analytics", srv.analyticsHandler)
	http.HandleFunc("/api/alerts/recent", srv.recentAlertsHandler)
	http.HandleFunc("/api/similar", srv.similarHandler)
	http.HandleFunc("/api/health", srv.healthHandler)

	fmt.Printf("SmartGuard server listening on %s\n", cfg.Server.Listen)
	if err := http.ListenAndServe(cfg.Server.Listen, nil); err != nil {
		logging.ErrorLogger.Fatalf("Server failed: %v", err)
	}
}

// buildDemoEnsemble trains the three sub-models on a synthetic, seeded
// dataset. Normal rows cluster low, attack rows cluster high, which gives
// the ensemble a usable decision boundary out of the box. Deployments with
// real training data replace this at startup.
func buildDemoEnsemble(weights types.EnsembleWeights) (*ensemble.HybridThreatDetector, error) {
	rng := rand.New(rand.NewSource(42))

	X := make([][]float64, 0, 2*demoTrainingRows)
	y := make([]int, 0, 2*demoTrainingRows)
	normal := make([][]float64, 0, demoTrainingRows)

	for i := 0; i < demoTrainingRows; i++ {
		row := make([]float64, demoFeatureCount)
		for j := range row {
			row[j] = 0.1 + 0.2*rng.Float64()
		}
		X = append(X, row)
		y = append(y, 0)
		normal = append(normal, row)
	}
	for i := 0; i < demoTrainingRows; i++ {
		row := make([]float64, demoFeatureCount)
		for j := range row {
			row[j] = 0.6 + 0.35*rng.Float64()
		}
		X = append(X, row)
		y = append(y, 1)
	}

	bayes := models.NewBayesClassifier()
	if err := bayes.Train(X, y); err != nil {
		return nil, fmt.Errorf("training bayes model: %w", err)
	}

	logistic := models.NewLogisticClassifier(demoFeatureCount)
	if err := logistic.Train(X, y); err != nil {
		return nil, fmt.Errorf("training logistic model: %w", err)
	}

	anomaly := models.NewDistanceAnomalyScorer()
	if err := anomaly.Fit(normal); err != nil {
		return nil, fmt.Errorf("fitting anomaly scorer: %w", err)
	}

	return ensemble.NewHybridThreatDetector(bayes, logistic, anomaly, weights)
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// scanHandler accepts one or more uploaded files, runs the full pipeline
// on each and persists the records.
func (s *server) scanHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	s.scanLock.Lock()
	defer s.scanLock.Unlock()

	if err := r.ParseMultipartForm(maxUploadSize); err != nil {
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}

	files := r.MultipartForm.File["file"]
	if len(files) == 0 {
		writeError(w, http.StatusBadRequest, "no files uploaded")
		return
	}

	type scanResponse struct {
		*types.ScanRecord
		Correlations []string `json:"correlations,omitempty"`
	}
	var results []scanResponse

	for _, fh := range files {
		file, err := fh.Open()
		if err != nil {
			logging.WarnLogger.Printf("Skipping upload %s: %v", fh.Filename, err)
			continue
		}
		content, err := io.ReadAll(io.LimitReader(file, maxUploadSize))
		file.Close()
		if err != nil {
			logging.WarnLogger.Printf("Skipping upload %s: %v", fh.Filename, err)
			continue
		}

		verdict := s.engine.ScanFile(content, fh.Filename)
		record := &types.ScanRecord{
			ID:          uuid.NewString()[:8],
			IsMalicious: verdict.Detection != types.ClassClean,
			ScanVerdict: *verdict,
		}

		correlations := s.correlator.FindCorrelations(record)
		if err := s.store.AddRecord(record); err != nil {
			logging.ErrorLogger.Printf("Failed to persist record %s: %v", record.ID, err)
		}

		results = append(results, scanResponse{ScanRecord: record, Correlations: correlations})
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})
}

// predictRequest is the /api/predict payload: one feature row per entry.
type predictRequest struct {
	Features [][]float64 `json:"features"`
	SourceIP string      `json:"source_ip"`
}

// predictHandler scores raw feature rows through the ensemble and logs
// each prediction to the alert log.
func (s *server) predictHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "POST only")
		return
	}

	var req predictRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if len(req.Features) == 0 {
		writeError(w, http.StatusBadRequest, "features array is required")
		return
	}

	sourceIP := req.SourceIP
	if sourceIP == "" {
		sourceIP = r.RemoteAddr
	}

	start := time.Now()
	out, err := s.detector.Predict(req.Features)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	latency := time.Since(start)

	entries := make([]alertlog.Entry, 0, len(out.FinalPrediction))
	for i := range out.FinalPrediction {
		entry, logErr := s.alerts.LogPrediction(sourceIP, out.FinalPrediction[i], out.FinalScore[i], latency)
		if logErr != nil {
			logging.WarnLogger.Printf("Alert log write failed: %v", logErr)
		}
		entries = append(entries, entry)
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"prediction": out,
		"alerts":     entries,
	})
}

func (s *server) historyHandler(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = parsed
	}

	records, err := s.store.History(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []*types.ScanRecord{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"history": records})
}

func (s *server) analyticsHandler(w http.ResponseWriter, r *http.Request) {
	analytics, err := s.store.Analytics()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, analytics)
}

func (s *server) recentAlertsHandler(w http.ResponseWriter, r *http.Request) {
	count := 0
	if raw := r.URL.Query().Get("count"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeError(w, http.StatusBadRequest, "count must be a non-negative integer")
			return
		}
		count = parsed
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"alerts": s.alerts.Recent(count)})
}

func (s *server) similarHandler(w http.ResponseWriter, r *http.Request) {
	sha := r.URL.Query().Get("sha256")
	if sha == "" {
		writeError(w, http.StatusBadRequest, "sha256 parameter is required")
		return
	}
	risk := 0.0
	if raw := r.URL.Query().Get("risk"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "risk must be a number")
			return
		}
		risk = parsed
	}

	similar := s.correlator.FindSimilarThreats(sha, risk)
	if similar == nil {
		similar = []correlation.SimilarThreat{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"similar": similar})
}

func (s *server) healthHandler(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":           "ok",
		"ensemble_weights": s.detector.Weights(),
		"timestamp":        time.Now().Format(time.RFC3339),
	})
}
