package segmenter

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cardcompass/credit-card-advisor/internal/core/domain"
)

// entryBoundary marks the start of a numbered product entry: a line
// beginning with an integer, a period, whitespace and an uppercase
// letter. The split is lookahead style, so the marker stays with the
// segment it opens.
var (
	entryBoundary = regexp.MustCompile(`(?m)^\d+\.\s+[A-Z]`)
	cardNameLine  = regexp.MustCompile(`(?m)^\d+\.\s*(.+?)(?:\n|$)`)
)

// Segmenter splits raw corpus documents into self-contained card
// documents, one per numbered entry, and extracts their metadata.
type Segmenter struct {
	rules Rules
}

func New(rules Rules) *Segmenter {
	return &Segmenter{rules: rules}
}

// Segment processes each raw document independently. The category is
// the source label stem; a document without any entry boundary yields
// a single segment covering the whole text.
func (s *Segmenter) Segment(raw []domain.RawDocument) []domain.CardDocument {
	out := make([]domain.CardDocument, 0, len(raw))
	for _, doc := range raw {
		category := labelStem(doc.SourceLabel)
		for _, segment := range splitEntries(doc.Text) {
			segment = strings.TrimSpace(segment)
			if segment == "" {
				continue
			}
			out = append(out, domain.CardDocument{
				Text:     segment,
				Metadata: s.extractMetadata(segment, category, doc.SourceLabel),
			})
		}
	}
	return out
}

func (s *Segmenter) extractMetadata(text, category, source string) domain.CardMetadata {
	meta := domain.CardMetadata{
		Category: category,
		UseCase:  category,
		Source:   source,
	}

	if m := cardNameLine.FindStringSubmatch(text); m != nil {
		meta.CardName = strings.TrimSpace(m[1])
	}

	if bank, ok := matchRule(s.rules.Banks, meta.CardName); ok {
		meta.Bank = bank
	}

	if reward, ok := matchRule(s.rules.RewardTypes, text); ok {
		meta.RewardType = reward
	} else {
		meta.RewardType = s.rules.RewardFallback
	}

	return meta
}

// splitEntries cuts text at every entry boundary, keeping the boundary
// marker in the following segment. Text before the first boundary
// becomes a leading segment that the caller drops when empty.
func splitEntries(text string) []string {
	starts := entryBoundary.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return []string{text}
	}

	segments := make([]string, 0, len(starts)+1)
	prev := 0
	for _, loc := range starts {
		segments = append(segments, text[prev:loc[0]])
		prev = loc[0]
	}
	segments = append(segments, text[prev:])
	return segments
}

// labelStem reduces a source label to its filename stem, e.g.
// "data/travel.md" -> "travel".
func labelStem(label string) string {
	base := filepath.Base(label)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}
