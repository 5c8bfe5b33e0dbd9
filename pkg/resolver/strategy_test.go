package resolver

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

func TestParseMetaCount(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    int64
		wantOK  bool
	}{
		{"comma separators", "12,345 Followers, 200 Following, 31 Posts", 12345, true},
		{"dot separators", "1.234.567 Followers, 3 Following", 1234567, true},
		{"plain", "87 Followers, 3 Following", 87, true},
		{"zero", "0 Followers, 3 Following", 0, true},
		{"no-break space", "4\u00a0821 Followers", 821, true},
		{"full-width digits", "１２,３４５ Followers", 12345, true},
		{"abbreviated", "1.2M Followers", 0, false},
		{"missing label", "12,345 Following", 0, false},
		{"empty", "", 0, false},
		{"separators only", ", Followers", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseMetaCount(tt.content, "Followers")
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestParseMetaCountCustomLabel(t *testing.T) {
	got, ok := ParseMetaCount("9,001 seguidores", "seguidores")
	assert.True(t, ok)
	assert.Equal(t, int64(9001), got)
}

func groupThousands(n int64, sep string) string {
	s := strconv.FormatInt(n, 10)
	out := ""
	for i, r := range s {
		if i > 0 && (len(s)-i)%3 == 0 {
			out += sep
		}
		out += string(r)
	}
	return out
}

func TestParseMetaCountRoundTrip(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.Int64Range(0, 1_000_000_000_000).Draw(t, "n")
		sep := rapid.SampledFrom([]string{",", ".", ""}).Draw(t, "sep")

		content := groupThousands(n, sep) + " Followers, 12 Following"
		got, ok := ParseMetaCount(content, "Followers")
		if !ok || got != n {
			t.Fatalf("ParseMetaCount(%q) = %d, %v; want %d", content, got, ok, n)
		}
	})
}

func TestParseEmbeddedCount(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   int64
		wantOK bool
	}{
		{"compact", `{"edge_followed_by":{"count":4821}}`, 4821, true},
		{"spaced", `"edge_followed_by": {"count": 4821}`, 4821, true},
		{"newlines", "\"edge_followed_by\":\n {\n  \"count\": 77}", 77, true},
		{"other edge", `"edge_follow": {"count": 10}`, 0, false},
		{"absent", `<html></html>`, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseEmbeddedCount(tt.markup)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParseStructuredCount(t *testing.T) {
	tests := []struct {
		name   string
		markup string
		want   int64
		wantOK bool
	}{
		{
			name: "schema url interaction type",
			markup: `<html><head><script type="application/ld+json">
{"@type":"ProfilePage","mainEntity":{"@type":"Person","interactionStatistic":[
 {"@type":"InteractionCounter","interactionType":"https://schema.org/WriteAction","userInteractionCount":31},
 {"@type":"InteractionCounter","interactionType":"http://schema.org/FollowAction","userInteractionCount":2500}
]}}
</script></head></html>`,
			want:   2500,
			wantOK: true,
		},
		{
			name: "typed object and string count",
			markup: `<script type="application/ld+json">
[{"interactionStatistic":{"interactionType":{"@type":"FollowAction"},"userInteractionCount":"640"}}]
</script>`,
			want:   640,
			wantOK: true,
		},
		{
			name:   "broken block then valid block",
			markup: `<script type="application/ld+json">{oops</script><script type="application/ld+json">{"interactionType":"FollowAction","userInteractionCount":3}</script>`,
			want:   3,
			wantOK: true,
		},
		{
			name:   "no follow statistic",
			markup: `<script type="application/ld+json">{"@type":"Person","name":"x"}</script>`,
			wantOK: false,
		},
		{
			name:   "no json-ld",
			markup: `<html><body>nothing</body></html>`,
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := ParseStructuredCount(tt.markup)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}
