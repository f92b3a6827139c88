// Package extract infers candidate state changes from narrative text. It
// is a deterministic keyword and pattern matcher driven by the tables in
// patterns.go. Extraction never fails: a broken sub-extractor is logged and
// reports no signal.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"

	"github.com/mesh-intelligence/worldstate/pkg/types"
)

// CharacterReader looks up the current character state.
type CharacterReader interface {
	GetCharacterState(ctx context.Context, id string) (*types.Character, error)
}

// AffectionChange is an inferred affection update.
type AffectionChange struct {
	Current  int    `json:"current"`
	Delta    int    `json:"delta"`
	NewValue int    `json:"new_value"`
	Pattern  string `json:"pattern"`
	Matched  string `json:"matched"`
}

// EmotionSignal is the strongest emotion found in the text.
type EmotionSignal struct {
	Emotion    types.Emotion `json:"emotion"`
	Score      int           `json:"score"`
	Confidence float64       `json:"confidence"`
}

// LocationMove is a movement to a named place.
type LocationMove struct {
	Name    string `json:"name"`
	Keyword string `json:"keyword"`
}

// InventoryChange is an item gained or lost.
type InventoryChange struct {
	Action   string `json:"action"`
	ItemName string `json:"item_name"`
	Quantity int    `json:"quantity"`
	Pattern  string `json:"pattern"`
}

// Event is a candidate timeline event.
type Event struct {
	EventType    string   `json:"event_type"`
	Description  string   `json:"description"`
	Importance   int      `json:"importance"`
	Participants []string `json:"participants,omitempty"`
}

// Extraction holds every category found in one text. Nil or empty fields
// mean no signal.
type Extraction struct {
	Affection *AffectionChange  `json:"affection,omitempty"`
	Emotion   *EmotionSignal    `json:"emotion,omitempty"`
	Location  *LocationMove     `json:"location,omitempty"`
	Inventory []InventoryChange `json:"inventory,omitempty"`
	Event     *Event            `json:"event,omitempty"`
}

// Empty reports whether nothing was extracted.
func (e *Extraction) Empty() bool {
	return e.Affection == nil && e.Emotion == nil && e.Location == nil &&
		len(e.Inventory) == 0 && e.Event == nil
}

type keywordMatcher struct {
	keyword string
	re      *regexp.Regexp
}

// Extractor runs the pattern tables against text.
type Extractor struct {
	reader   CharacterReader
	log      *slog.Logger
	emotions map[types.Emotion]*regexp.Regexp
	moves    []keywordMatcher
	events   []*regexp.Regexp
}

// New creates an extractor. reader is used only for affection, which needs
// the current value.
func New(reader CharacterReader, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	x := &Extractor{
		reader:   reader,
		log:      logger.With("component", "extractor"),
		emotions: make(map[types.Emotion]*regexp.Regexp, len(EmotionKeywords)),
	}
	for emotion, keywords := range EmotionKeywords {
		x.emotions[emotion] = keywordsRegexp(keywords, false)
	}
	for _, kw := range MovementKeywords {
		x.moves = append(x.moves, keywordMatcher{keyword: kw, re: regexp.MustCompile(`(?i)` + regexp.QuoteMeta(kw))})
	}
	for _, ek := range EventKeywords {
		x.events = append(x.events, keywordsRegexp([]string{ek.Keyword}, true))
	}
	return x
}

// keywordsRegexp builds one case-insensitive alternation. ASCII keywords
// must start at a word boundary, and also end at one when whole is set.
func keywordsRegexp(keywords []string, whole bool) *regexp.Regexp {
	parts := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		q := regexp.QuoteMeta(kw)
		if isASCII(kw) {
			q = `\b` + q
			if whole {
				q += `\b`
			}
		}
		parts = append(parts, q)
	}
	return regexp.MustCompile(`(?i)(?:` + strings.Join(parts, "|") + `)`)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// Normalize folds full-width forms to their ASCII equivalents and trims the
// text.
func Normalize(text string) string {
	return strings.TrimSpace(width.Fold.String(text))
}

// Extract runs every sub-extractor on text for the given character.
func (x *Extractor) Extract(ctx context.Context, characterID, text string) *Extraction {
	text = Normalize(text)
	out := &Extraction{}
	if text == "" {
		return out
	}
	out.Affection = x.ExtractAffection(ctx, characterID, text)
	out.Emotion = x.ExtractEmotion(text)
	out.Location = x.ExtractLocation(text)
	out.Inventory = x.ExtractInventory(text)
	out.Event = x.ExtractEvent(text)
	return out
}

// guard runs fn and turns a panic into a logged no-signal result.
func (x *Extractor) guard(name string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			x.log.Error("extractor failed", "extractor", name, "panic", fmt.Sprint(r))
		}
	}()
	fn()
}

// ExtractAffection applies the first matching affection pattern. It returns
// nil when nothing matches or the character is unknown. The new value is
// not clamped.
func (x *Extractor) ExtractAffection(ctx context.Context, characterID, text string) (change *AffectionChange) {
	x.guard("affection", func() {
		text = Normalize(text)
		for _, p := range AffectionPatterns {
			m := p.Re.FindStringSubmatch(text)
			if m == nil {
				continue
			}
			value, err := strconv.Atoi(m[p.Value])
			if err != nil {
				continue
			}

			if x.reader == nil {
				return
			}
			c, err := x.reader.GetCharacterState(ctx, characterID)
			if err != nil {
				if !errors.Is(err, types.ErrNotFound) {
					x.log.Warn("affection lookup failed", "character", characterID, "error", err)
				}
				return
			}

			change = &AffectionChange{Current: c.Affection, Pattern: p.Name, Matched: m[0]}
			switch p.Kind {
			case Absolute:
				change.Delta = value - c.Affection
			default:
				change.Delta = p.Sign * value
			}
			change.NewValue = c.Affection + change.Delta
			return
		}
	})
	return change
}

// ExtractEmotion scores every emotion by keyword occurrences. The highest
// score wins; ties go to the earlier emotion in types.Emotions.
func (x *Extractor) ExtractEmotion(text string) (signal *EmotionSignal) {
	x.guard("emotion", func() {
		text = Normalize(text)
		best, bestScore := types.Emotion(""), 0
		for _, emotion := range types.Emotions {
			re, ok := x.emotions[emotion]
			if !ok {
				continue
			}
			score := len(re.FindAllStringIndex(text, -1))
			if score > bestScore {
				best, bestScore = emotion, score
			}
		}
		if bestScore == 0 {
			return
		}
		confidence := float64(bestScore) / 3
		if confidence > 1 {
			confidence = 1
		}
		signal = &EmotionSignal{Emotion: best, Score: bestScore, Confidence: confidence}
	})
	return signal
}

// ExtractLocation finds the first movement keyword and captures the place
// name after it.
func (x *Extractor) ExtractLocation(text string) (move *LocationMove) {
	x.guard("location", func() {
		text = Normalize(text)
		for _, m := range x.moves {
			loc := m.re.FindStringIndex(text)
			if loc == nil {
				continue
			}
			if name := captureSpan(text[loc[1]:]); name != "" {
				move = &LocationMove{Name: name, Keyword: m.keyword}
				return
			}
		}
	})
	return move
}

// captureSpan returns up to MaxLocationRunes runes of rest, cut at the next
// punctuation mark. CJK spans are also cut at whitespace. A Latin span that
// reaches the cap inside a word runs on to the end of that word, and one
// that reaches it between words stops there. A leading English article is
// dropped. Spans shorter than MinLocationRunes yield "".
func captureSpan(rest string) string {
	rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
	rest = stripArticle(rest)

	var b strings.Builder
	runes, cjk, prevSpace := 0, false, false
	for i, r := range rest {
		if i == 0 {
			cjk = r >= utf8.RuneSelf
		}
		space := unicode.IsSpace(r)
		if isBoundary(r) || (cjk && space) {
			break
		}
		if runes >= MaxLocationRunes && (cjk || space || prevSpace) {
			break
		}
		b.WriteRune(r)
		runes++
		prevSpace = space
	}

	span := strings.TrimSpace(b.String())
	if utf8.RuneCountInString(span) < MinLocationRunes {
		return ""
	}
	return span
}

func stripArticle(s string) string {
	lower := strings.ToLower(s)
	for _, a := range []string{"the ", "a ", "an "} {
		if strings.HasPrefix(lower, a) {
			return s[len(a):]
		}
	}
	return s
}

// isBoundary reports punctuation and symbols that end a captured span.
func isBoundary(r rune) bool {
	if r == '\n' || r == '\r' {
		return true
	}
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}

// ExtractInventory returns every add match followed by every remove match.
func (x *Extractor) ExtractInventory(text string) (changes []InventoryChange) {
	x.guard("inventory", func() {
		text = Normalize(text)
		changes = append(changes, matchInventory(text, ActionAdd, InventoryAddPatterns)...)
		changes = append(changes, matchInventory(text, ActionRemove, InventoryRemovePatterns)...)
	})
	return changes
}

func matchInventory(text, action string, patterns []InventoryPattern) []InventoryChange {
	var out []InventoryChange
	for _, p := range patterns {
		for _, m := range p.Re.FindAllStringSubmatch(text, -1) {
			item := strings.TrimSpace(m[p.Item])
			if item == "" {
				continue
			}
			out = append(out, InventoryChange{
				Action:   action,
				ItemName: item,
				Quantity: ParseQuantity(m[p.Quantity]),
				Pattern:  p.Name,
			})
		}
	}
	return out
}

// ParseQuantity reads digits or a one-to-ten numeral. Anything else is 1.
func ParseQuantity(s string) int {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 1
	}
	if n, err := strconv.Atoi(s); err == nil && n > 0 {
		return n
	}
	if n, ok := numerals[s]; ok {
		return n
	}
	return 1
}

// ExtractEvent classifies the text as a timeline event. It returns nil
// unless importance is at least 2 or a participant was named.
func (x *Extractor) ExtractEvent(text string) (event *Event) {
	x.guard("event", func() {
		text = Normalize(text)
		eventType, importance := DefaultEventType, types.MinImportance
		for i, ek := range EventKeywords {
			if ek.Importance > importance && x.events[i].MatchString(text) {
				eventType, importance = ek.Type, ek.Importance
			}
		}

		participants := ExtractParticipants(text)
		if importance < 2 && len(participants) == 0 {
			return
		}
		event = &Event{
			EventType:    eventType,
			Description:  truncateRunes(text, MaxDescriptionRunes),
			Importance:   importance,
			Participants: participants,
		}
	})
	return event
}

// ExtractParticipants returns name-shaped words in order of first
// appearance, without duplicates.
func ExtractParticipants(text string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(name string) {
		if name == "" || seen[name] || nameStopwords[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
	}
	for _, m := range pairedNamesRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
		add(m[2])
	}
	for _, m := range loneNameRe.FindAllStringSubmatch(text, -1) {
		add(m[1])
	}
	return out
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	r := []rune(s)
	return string(r[:n])
}
