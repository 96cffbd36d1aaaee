package httpadapter

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
	"github.com/cardcompass/credit-card-advisor/internal/core/ports"
	"github.com/cardcompass/credit-card-advisor/internal/observability/metrics"
)

const serviceName = "credit-card-advisor"

// Meta is the static catalog surface: the filter vocabulary the
// segmentation rules produce, exposed so clients can populate filter
// dropdowns without probing the index.
type Meta struct {
	Categories  []string `json:"categories"`
	Banks       []string `json:"banks"`
	RewardTypes []string `json:"reward_types"`
}

type Router struct {
	searcher ports.CardSearcher
	answerer ports.QuestionAnswerer
	meta     Meta
	metrics  *metrics.HTTPServerMetrics

	chatModel        string
	searchTopKMax    int
	streamChunkChars int
	rateLimitRPS     float64
	rateLimitBurst   int
	maxInFlight      int
	allowedOrigins   []string
}

type RouterOptions struct {
	Meta             Meta
	ChatModel        string
	SearchTopKMax    int
	StreamChunkChars int
	RateLimitRPS     float64
	RateLimitBurst   int
	MaxInFlight      int
	AllowedOrigins   []string
}

func NewRouter(searcher ports.CardSearcher, answerer ports.QuestionAnswerer, m *metrics.HTTPServerMetrics, opts RouterOptions) *Router {
	if opts.SearchTopKMax <= 0 {
		opts.SearchTopKMax = 20
	}
	if opts.StreamChunkChars <= 0 {
		opts.StreamChunkChars = 120
	}
	return &Router{
		searcher:         searcher,
		answerer:         answerer,
		meta:             opts.Meta,
		metrics:          m,
		chatModel:        opts.ChatModel,
		searchTopKMax:    opts.SearchTopKMax,
		streamChunkChars: opts.StreamChunkChars,
		rateLimitRPS:     opts.RateLimitRPS,
		rateLimitBurst:   opts.RateLimitBurst,
		maxInFlight:      opts.MaxInFlight,
		allowedOrigins:   opts.AllowedOrigins,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/ask", rt.ask)
	mux.HandleFunc("/v1/recommend", rt.recommend)
	mux.HandleFunc("/v1/compare", rt.compare)
	mux.HandleFunc("/v1/search", rt.search)
	mux.HandleFunc("/v1/meta/categories", rt.metaCategories)
	mux.HandleFunc("/v1/meta/banks", rt.metaBanks)
	mux.HandleFunc("/v1/meta/reward-types", rt.metaRewardTypes)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	if rt.metrics != nil {
		handler = rt.metrics.Middleware(serviceName, handler)
	}
	if rt.maxInFlight > 0 {
		handler = backpressureMiddleware(handler, rt.maxInFlight, time.Second)
	}
	if rt.rateLimitRPS > 0 {
		handler = rateLimitMiddleware(handler, rt.rateLimitRPS, rt.rateLimitBurst)
	}
	handler = corsMiddleware(handler, rt.allowedOrigins)
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

type askRequest struct {
	Question   string `json:"question"`
	Category   string `json:"category"`
	Bank       string `json:"bank"`
	RewardType string `json:"reward_type"`
	Stream     bool   `json:"stream"`
}

func (rt *Router) ask(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	var req askRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("question is required"))
		return
	}

	filter := domain.RetrievalFilter{
		Category:   req.Category,
		Bank:       req.Bank,
		RewardType: req.RewardType,
	}

	start := time.Now()
	answer, err := rt.answerer.Ask(r.Context(), req.Question, filter)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.observeAnswer("ask", answer, time.Since(start))

	if req.Stream {
		rt.streamAnswer(w, answer)
		return
	}
	writeJSON(w, http.StatusOK, answer)
}

type recommendRequest struct {
	UseCase     string   `json:"use_case"`
	Budget      string   `json:"budget"`
	Preferences []string `json:"preferences"`
}

func (rt *Router) recommend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	var req recommendRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Recommend(r.Context(), req.UseCase, req.Budget, req.Preferences)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.observeAnswer("recommend", answer, time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

type compareRequest struct {
	CardNames []string `json:"card_names"`
}

func (rt *Router) compare(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	var req compareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorBody("invalid json"))
		return
	}

	start := time.Now()
	answer, err := rt.answerer.Compare(r.Context(), req.CardNames)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	rt.observeAnswer("compare", answer, time.Since(start))
	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) search(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, errorBody("query parameter 'q' is required"))
		return
	}

	topK := 5
	if raw := r.URL.Query().Get("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > rt.searchTopKMax {
			writeJSON(w, http.StatusBadRequest,
				errorBody("top_k must be an integer between 1 and "+strconv.Itoa(rt.searchTopKMax)))
			return
		}
		topK = parsed
	}

	filter := domain.RetrievalFilter{
		Category:   r.URL.Query().Get("category"),
		Bank:       r.URL.Query().Get("bank"),
		RewardType: r.URL.Query().Get("reward_type"),
	}

	results, err := rt.searcher.Search(r.Context(), query, topK, filter)
	if err != nil {
		rt.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"query":   query,
		"results": results,
	})
}

func (rt *Router) metaCategories(w http.ResponseWriter, r *http.Request) {
	rt.writeMetaList(w, r, "categories", rt.meta.Categories)
}

func (rt *Router) metaBanks(w http.ResponseWriter, r *http.Request) {
	rt.writeMetaList(w, r, "banks", rt.meta.Banks)
}

func (rt *Router) metaRewardTypes(w http.ResponseWriter, r *http.Request) {
	rt.writeMetaList(w, r, "reward_types", rt.meta.RewardTypes)
}

func (rt *Router) writeMetaList(w http.ResponseWriter, r *http.Request, field string, values []string) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, errorBody("method not allowed"))
		return
	}
	if values == nil {
		values = []string{}
	}
	writeJSON(w, http.StatusOK, map[string][]string{field: values})
}

func (rt *Router) observeAnswer(endpoint string, answer *domain.Answer, duration time.Duration) {
	if rt.metrics == nil {
		return
	}
	rt.metrics.RecordRAGObservation(serviceName, endpoint, len(answer.Sources), duration)
	rt.metrics.RecordTokenUsage(serviceName, endpoint, rt.chatModel,
		estimateTokens(answer.Question), estimateTokens(answer.Answer))
}

func (rt *Router) writeError(w http.ResponseWriter, err error) {
	writeJSON(w, mapErrorToHTTPStatus(err), errorBody(err.Error()))
}

func errorBody(message string) map[string]string {
	return map[string]string{"error": message}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// estimateTokens approximates token usage as one token per four
// runes, good enough for capacity dashboards.
func estimateTokens(text string) int {
	return utf8.RuneCountInString(text) / 4
}
