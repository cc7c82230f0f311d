package stubapi

import (
	"encoding/json"
	"io"
	"mime"
	"net/http"
	"sync/atomic"

	"github.com/go-chi/chi/v5"
	"github.com/go-logr/logr"
	"github.com/google/uuid"
)

// DocumentsPath é a rota de criação de documentos.
const DocumentsPath = "/api/v3/lk/documents/create"

const maxBodyBytes = 8 << 20

type createRequest struct {
	Document json.RawMessage `json:"document"`
	Sign     string          `json:"sign"`
}

type createResponse struct {
	Value string `json:"value"`
}

// Server guarda o contador de documentos aceitos.
type Server struct {
	accepted atomic.Int64
	log      logr.Logger
}

func NewServer(log logr.Logger) *Server {
	if log.GetSink() == nil {
		log = logr.Discard()
	}
	return &Server{log: log}
}

func (s *Server) Accepted() int64 { return s.accepted.Load() }

// Router monta as rotas. Os middlewares (Throttle, InFlight.Middleware)
// valem só para a criação de documentos; nil é ignorado.
func (s *Server) Router(mws ...func(http.Handler) http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Group(func(r chi.Router) {
		for _, mw := range mws {
			if mw != nil {
				r.Use(mw)
			}
		}
		r.Post(DocumentsPath, s.createDocument)
	})
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok\n"))
	})
	return r
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request) {
	mediaType, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mediaType != "application/json" {
		http.Error(w, "content type must be application/json", http.StatusUnsupportedMediaType)
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "read body", http.StatusBadRequest)
		return
	}
	var req createRequest
	if err := json.Unmarshal(body, &req); err != nil {
		http.Error(w, "invalid json", http.StatusBadRequest)
		return
	}
	if len(req.Document) == 0 || string(req.Document) == "null" {
		http.Error(w, "document is required", http.StatusBadRequest)
		return
	}
	if req.Sign == "" {
		http.Error(w, "sign is required", http.StatusBadRequest)
		return
	}

	id := uuid.NewString()
	s.accepted.Add(1)
	s.log.V(1).Info("document accepted", "id", id, "requestID", r.Header.Get("X-Request-Id"))

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(createResponse{Value: id})
}
