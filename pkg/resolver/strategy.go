package resolver

import (
	"context"
	"encoding/json"
	"regexp"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/text/unicode/norm"

	"igfollowers/pkg/browser"
	"igfollowers/pkg/instagram"
)

// Source is the loaded profile page a strategy reads from. The serialized
// markup is fetched at most once per page load.
type Source struct {
	Page browser.Page

	once   sync.Once
	markup string
	err    error
}

// Markup returns the page's serialized document
func (s *Source) Markup(ctx context.Context) (string, error) {
	s.once.Do(func() {
		s.markup, s.err = s.Page.Markup(ctx)
	})
	return s.markup, s.err
}

// Strategy extracts a follower count from a loaded profile page.
// ok is false when the page does not carry the strategy's data shape.
type Strategy interface {
	Name() string
	Extract(ctx context.Context, src *Source) (count int64, ok bool)
}

// DefaultStrategies returns the extraction strategies in priority order
func DefaultStrategies() []Strategy {
	return []Strategy{
		MetaDescription{Label: "Followers"},
		EmbeddedData{},
		StructuredData{},
	}
}

var (
	metaCountPattern = regexp.MustCompile(`([\d,\.]+)\s+Followers`)
	edgeCountPattern = regexp.MustCompile(`"edge_followed_by":\s*{\s*"count":\s*([0-9]+)`)
)

// MetaDescription reads "<N> Followers" from the description meta tag
type MetaDescription struct {
	// Label is the word following the number; only the English UI is supported
	Label string
}

func (MetaDescription) Name() string {
	return "meta-description"
}

func (m MetaDescription) Extract(ctx context.Context, src *Source) (int64, bool) {
	meta, err := src.Page.Query(ctx, instagram.MetaDescriptionSelector)
	if err != nil {
		return 0, false
	}
	content, ok, err := meta.Attribute(ctx, "content")
	if err != nil || !ok {
		return 0, false
	}
	return ParseMetaCount(content, m.Label)
}

// ParseMetaCount extracts the number preceding label in a description such as
// "12,345 Followers, 200 Following, 31 Posts". Separators are stripped, so
// "1.234" reads as 1234.
func ParseMetaCount(content, label string) (int64, bool) {
	content = norm.NFKC.String(content)

	pattern := metaCountPattern
	if label != "" && label != "Followers" {
		pattern = regexp.MustCompile(`([\d,\.]+)\s+` + regexp.QuoteMeta(label))
	}

	m := pattern.FindStringSubmatch(content)
	if m == nil {
		return 0, false
	}
	digits := strings.NewReplacer(",", "", ".", "").Replace(m[1])
	return parseCount(digits)
}

// EmbeddedData scans the markup for the edge_followed_by count of the
// profile's embedded JSON
type EmbeddedData struct{}

func (EmbeddedData) Name() string {
	return "embedded-data"
}

func (EmbeddedData) Extract(ctx context.Context, src *Source) (int64, bool) {
	markup, err := src.Markup(ctx)
	if err != nil {
		return 0, false
	}
	return ParseEmbeddedCount(markup)
}

// ParseEmbeddedCount finds "edge_followed_by": {"count": N} in markup
func ParseEmbeddedCount(markup string) (int64, bool) {
	m := edgeCountPattern.FindStringSubmatch(markup)
	if m == nil {
		return 0, false
	}
	return parseCount(m[1])
}

// StructuredData reads the FollowAction interaction statistic of the page's
// JSON-LD blocks
type StructuredData struct{}

func (StructuredData) Name() string {
	return "json-ld"
}

func (StructuredData) Extract(ctx context.Context, src *Source) (int64, bool) {
	markup, err := src.Markup(ctx)
	if err != nil {
		return 0, false
	}
	return ParseStructuredCount(markup)
}

// ParseStructuredCount looks for
// {"interactionType": "...FollowAction", "userInteractionCount": N}
// in any application/ld+json script of markup
func ParseStructuredCount(markup string) (int64, bool) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(markup))
	if err != nil {
		return 0, false
	}

	var (
		count int64
		found bool
	)
	doc.Find(instagram.JSONLDSelector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var data interface{}
		if err := json.Unmarshal([]byte(s.Text()), &data); err != nil {
			return true
		}
		count, found = findFollowCount(data)
		return !found
	})
	return count, found
}

func findFollowCount(v interface{}) (int64, bool) {
	switch node := v.(type) {
	case []interface{}:
		for _, item := range node {
			if n, ok := findFollowCount(item); ok {
				return n, true
			}
		}
	case map[string]interface{}:
		if isFollowAction(node["interactionType"]) {
			if n, ok := jsonCount(node["userInteractionCount"]); ok {
				return n, true
			}
		}
		for _, child := range node {
			if n, ok := findFollowCount(child); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func isFollowAction(v interface{}) bool {
	switch t := v.(type) {
	case string:
		return strings.HasSuffix(t, "FollowAction")
	case map[string]interface{}:
		typ, _ := t["@type"].(string)
		return typ == "FollowAction"
	}
	return false
}

func jsonCount(v interface{}) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n < 0 {
			return 0, false
		}
		return int64(n), true
	case string:
		return parseCount(n)
	}
	return 0, false
}

func parseCount(digits string) (int64, bool) {
	if digits == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(digits, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
