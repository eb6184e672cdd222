package domain

import (
	"encoding/json"
	"sync"
	"time"
	"unicode"
	"unicode/utf8"
)

// CaptureTypeHighlight is the only capture type produced today.
const CaptureTypeHighlight = "highlight"

// MaxHistoryEntries is the capacity of the local history.
const MaxHistoryEntries = 1000

// TimestampLayout is the ISO-8601 layout used for capture timestamps (UTC, millisecond precision).
const TimestampLayout = "2006-01-02T15:04:05.000Z"

// Category classifies a capture.
type Category string

const (
	CategoryIdea     Category = "idea"
	CategoryQuote    Category = "quote"
	CategoryCode     Category = "code"
	CategoryInsight  Category = "insight"
	CategoryTodo     Category = "todo"
	CategoryBook     Category = "book"
	CategoryResearch Category = "research"
)

// DefaultCategory is applied when a request carries no category.
const DefaultCategory = CategoryIdea

// Categories lists the known categories in menu order.
var Categories = []Category{
	CategoryIdea,
	CategoryQuote,
	CategoryCode,
	CategoryInsight,
	CategoryTodo,
	CategoryBook,
	CategoryResearch,
}

// Valid reports whether c is one of the known categories.
func (c Category) Valid() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Capitalized returns the category with its first letter upper-cased and the rest unchanged.
func (c Category) Capitalized() string {
	s := string(c)
	if s == "" {
		return ""
	}
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToUpper(r)) + s[size:]
}

// Capture is a single normalized unit of saved content. It is immutable once built.
type Capture struct {
	ID          int64    `json:"id"`
	Type        string   `json:"type"`
	Content     string   `json:"content"`
	Category    Category `json:"category"`
	Source      string   `json:"source,omitempty"`
	SourceTitle string   `json:"sourceTitle,omitempty"`
	Tags        []string `json:"tags"`
	Timestamp   string   `json:"timestamp"`
}

// CapturedAt parses the capture timestamp.
func (c *Capture) CapturedAt() (time.Time, error) {
	return time.Parse(time.RFC3339Nano, c.Timestamp)
}

// RawInput is what a caller submits to create a capture.
type RawInput struct {
	Content     string   `json:"content"`
	Category    Category `json:"category,omitempty"`
	Source      string   `json:"source,omitempty"`
	SourceTitle string   `json:"sourceTitle,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// UnmarshalJSON accepts the page title as either "sourceTitle" or "title".
func (in *RawInput) UnmarshalJSON(data []byte) error {
	type rawInputAlias RawInput
	var aux struct {
		rawInputAlias
		Title string `json:"title"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*in = RawInput(aux.rawInputAlias)
	if in.SourceTitle == "" {
		in.SourceTitle = aux.Title
	}
	return nil
}

// Validate checks the only hard requirement on a raw input: non-empty content.
// Whitespace-only content is valid and stored as given.
func (in *RawInput) Validate() error {
	if in.Content == "" {
		return ErrEmptyContent
	}
	return nil
}

// IDGenerator hands out time-based millisecond ids that strictly increase within a process.
type IDGenerator struct {
	mu   sync.Mutex
	last int64
}

// Next returns the next id for the given instant.
func (g *IDGenerator) Next(now time.Time) int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	id := now.UnixMilli()
	if id <= g.last {
		id = g.last + 1
	}
	g.last = id
	return id
}

// NewCapture builds a Capture from a validated raw input.
// Category defaults only when missing; an unrecognized category is kept as given.
func NewCapture(in RawInput, id int64, now time.Time) *Capture {
	category := in.Category
	if category == "" {
		category = DefaultCategory
	}
	tags := make([]string, 0, len(in.Tags))
	tags = append(tags, in.Tags...)

	return &Capture{
		ID:          id,
		Type:        CaptureTypeHighlight,
		Content:     in.Content,
		Category:    category,
		Source:      in.Source,
		SourceTitle: in.SourceTitle,
		Tags:        tags,
		Timestamp:   FormatTimestamp(now),
	}
}

// FormatTimestamp renders t in the capture timestamp layout.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}
