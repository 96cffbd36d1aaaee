package httpadapter

import (
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

// streamAnswer writes the answer as incremental plain-text fragments.
// Fragments concatenate to exactly the full answer; the cited sources
// are sent first in a header so clients have them before any text.
func (rt *Router) streamAnswer(w http.ResponseWriter, answer *domain.Answer) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeJSON(w, http.StatusOK, answer)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("X-Sources", sourcesHeader(answer.Sources))
	w.WriteHeader(http.StatusOK)

	for _, part := range splitByRunes(answer.Answer, rt.streamChunkChars) {
		if _, err := io.WriteString(w, part); err != nil {
			return
		}
		flusher.Flush()
	}
}

func sourcesHeader(sources []domain.SourceRef) string {
	names := make([]string, 0, len(sources))
	for _, source := range sources {
		names = append(names, source.CardName)
	}
	return strings.Join(names, "; ")
}

func splitByRunes(text string, chunkChars int) []string {
	if text == "" {
		return []string{""}
	}
	if chunkChars <= 0 || utf8.RuneCountInString(text) <= chunkChars {
		return []string{text}
	}

	parts := make([]string, 0, utf8.RuneCountInString(text)/chunkChars+1)
	runes := []rune(text)
	for start := 0; start < len(runes); start += chunkChars {
		end := start + chunkChars
		if end > len(runes) {
			end = len(runes)
		}
		parts = append(parts, string(runes[start:end]))
	}
	return parts
}
