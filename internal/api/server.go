package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"paperpipe/internal/activities"
	"paperpipe/internal/config"
	"paperpipe/internal/storage"
	"paperpipe/internal/workflows"

	"github.com/google/uuid"
	enumspb "go.temporal.io/api/enums/v1"
	tclient "go.temporal.io/sdk/client"
)

type Server struct {
	cfg       config.Config
	db        *storage.DB
	paperRepo *storage.PaperRepo
	temporal  tclient.Client
}

type requestStatus struct {
	RequestID string                         `json:"request_id"`
	Status    string                         `json:"status"`
	Output    *activities.PersistPaperOutput `json:"output,omitempty"`
	Error     string                         `json:"error,omitempty"`
}

func NewServer(cfg config.Config) *Server {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := storage.NewDB(ctx, cfg.PostgresURL)
	if err != nil {
		panic(err)
	}
	tc, err := tclient.Dial(tclient.Options{HostPort: cfg.TemporalAddress})
	if err != nil {
		panic(err)
	}
	return &Server{
		cfg:       cfg,
		db:        db,
		paperRepo: storage.NewPaperRepo(db),
		temporal:  tc,
	}
}

func (s *Server) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", s.handleHealthz)
	mux.HandleFunc("/papers", s.handlePapers)
	mux.HandleFunc("/papers/", s.handlePapersScoped)
	return withCORS(mux)
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"ok": true})
}

func (s *Server) handlePapers(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}
	var req struct {
		PDFURL string `json:"pdf_url"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid json: %w", err))
		return
	}
	req.PDFURL = strings.TrimSpace(req.PDFURL)
	if req.PDFURL == "" {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("pdf_url is required"))
		return
	}

	requestID := "paper-" + uuid.NewString()
	we, err := s.temporal.ExecuteWorkflow(r.Context(), tclient.StartWorkflowOptions{
		ID:        requestID,
		TaskQueue: s.cfg.TemporalTaskQueue,
	}, workflows.PaperOutlineWorkflow, workflows.PaperOutlineInput{PDFURL: req.PDFURL})
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]any{"request_id": we.GetID(), "run_id": we.GetRunID()})
}

func (s *Server) handlePapersScoped(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/papers/"), "/"), "/")
	if len(parts) < 1 || parts[0] == "" {
		writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
		return
	}
	if r.Method != http.MethodGet {
		writeErr(w, http.StatusMethodNotAllowed, fmt.Errorf("method not allowed"))
		return
	}

	if parts[0] == "records" && len(parts) == 2 {
		s.handlePaperRecord(w, r, parts[1])
		return
	}
	if len(parts) == 2 && parts[1] == "progress" {
		s.handleProgress(w, r, parts[0])
		return
	}
	if len(parts) == 1 {
		s.handleRequestStatus(w, r, parts[0])
		return
	}
	writeErr(w, http.StatusNotFound, fmt.Errorf("not found"))
}

func (s *Server) handleRequestStatus(w http.ResponseWriter, r *http.Request, requestID string) {
	desc, err := s.temporal.DescribeWorkflowExecution(r.Context(), requestID, "")
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	out := requestStatus{
		RequestID: requestID,
		Status:    statusLabel(desc.WorkflowExecutionInfo.Status),
	}
	switch out.Status {
	case "completed":
		var result activities.PersistPaperOutput
		if err := s.temporal.GetWorkflow(r.Context(), requestID, "").Get(r.Context(), &result); err != nil {
			writeErr(w, http.StatusInternalServerError, err)
			return
		}
		out.Output = &result
	case "failed":
		var result activities.PersistPaperOutput
		if err := s.temporal.GetWorkflow(r.Context(), requestID, "").Get(r.Context(), &result); err != nil {
			out.Error = err.Error()
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request, requestID string) {
	resp, err := s.temporal.QueryWorkflow(r.Context(), requestID, "", workflows.QueryGetRunProgress)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	var progress workflows.RunProgress
	if err := resp.Get(&progress); err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, progress)
}

func (s *Server) handlePaperRecord(w http.ResponseWriter, r *http.Request, rawID string) {
	paperID, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		writeErr(w, http.StatusBadRequest, fmt.Errorf("invalid paper id: %w", err))
		return
	}
	paper, err := s.paperRepo.GetPaper(r.Context(), paperID)
	if err != nil {
		writeErr(w, http.StatusNotFound, err)
		return
	}
	sections, err := s.paperRepo.ListSections(r.Context(), paperID)
	if err != nil {
		writeErr(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"paper": paper, "sections": sections})
}

// statusLabel collapses Temporal execution states onto the three states the
// polling contract exposes.
func statusLabel(st enumspb.WorkflowExecutionStatus) string {
	switch st {
	case enumspb.WORKFLOW_EXECUTION_STATUS_RUNNING, enumspb.WORKFLOW_EXECUTION_STATUS_CONTINUED_AS_NEW:
		return "pending"
	case enumspb.WORKFLOW_EXECUTION_STATUS_COMPLETED:
		return "completed"
	default:
		return "failed"
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeErr(w http.ResponseWriter, code int, err error) {
	writeJSON(w, code, map[string]any{"error": err.Error()})
}

func withCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
