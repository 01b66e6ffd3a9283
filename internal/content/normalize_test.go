package content

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_CoercesLooseShapes(t *testing.T) {
	raw := map[string]any{
		"Title":             "  Golden Visa  ",
		"tags":              "real estate, golden visa, Real Estate",
		"draft":             "yes",
		"minimumInvestment": "€500,000",
		"timeline":          "2 years",
		"date":              "2024-01-15",
		"updated":           time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC),
		"currency":          "eur",
		"faq":               []any{map[any]any{"q": "Who qualifies?", "a": "Investors"}},
	}

	m := Normalize(raw)

	assert.Equal(t, "Golden Visa", m.Title)
	assert.Equal(t, []string{"real estate", "golden visa"}, m.Tags)
	assert.True(t, m.Draft)
	require.NotNil(t, m.MinInvestment)
	assert.Equal(t, 500000.0, *m.MinInvestment)
	require.NotNil(t, m.TimelineMonths)
	assert.Equal(t, 24.0, *m.TimelineMonths)
	require.NotNil(t, m.Created)
	assert.Equal(t, time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), *m.Created)
	require.NotNil(t, m.Updated)
	assert.Equal(t, 2024, m.Updated.Year())
	assert.Equal(t, "EUR", m.Currency)
	assert.JSONEq(t, `[{"q":"Who qualifies?","a":"Investors"}]`, string(m.FAQ))
	assert.Empty(t, m.Dropped)
}

func TestNormalize_DropsUncoercible(t *testing.T) {
	m := Normalize(map[string]any{
		"draft":          "perhaps",
		"min_investment": math.NaN(),
		"timeline":       "ask us",
		"date":           "sometime soon",
	})

	assert.False(t, m.Draft)
	assert.Nil(t, m.MinInvestment)
	assert.Nil(t, m.TimelineMonths)
	assert.Nil(t, m.Created)
	assert.ElementsMatch(t, []string{"draft", "min_investment", "timeline_months", "created"}, m.Dropped)
}

func TestNormalize_Amounts(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"250k", 250000},
		{"1.2m", 1200000},
		{"USD 2 million", 2000000},
		{"100 000", 100000},
		{350000, 350000},
		{int64(42), 42},
		{12.5, 12.5},
	}
	for _, tt := range tests {
		m := Normalize(map[string]any{"investment": tt.in})
		require.NotNil(t, m.MinInvestment, "input %v", tt.in)
		assert.InDelta(t, tt.want, *m.MinInvestment, 1e-6, "input %v", tt.in)
	}

	m := Normalize(map[string]any{"investment": math.Inf(1)})
	assert.Nil(t, m.MinInvestment)
}

func TestNormalize_Timelines(t *testing.T) {
	tests := []struct {
		in   any
		want float64
	}{
		{"6-12 months", 6},
		{"8 weeks", 2},
		{"1.5 years", 18},
		{"18 months (up to 2 years)", 18},
		{"6 months to 2 years", 6},
		{"1-2 years", 12},
		{"90 days", 3},
		{"4", 4},
		{9, 9},
	}
	for _, tt := range tests {
		m := Normalize(map[string]any{"processingTime": tt.in})
		require.NotNil(t, m.TimelineMonths, "input %v", tt.in)
		assert.InDelta(t, tt.want, *m.TimelineMonths, 1e-9, "input %v", tt.in)
	}
}

func TestNormalize_ListElements(t *testing.T) {
	m := Normalize(map[string]any{
		"countries": []any{
			map[string]any{"name": "Portugal"},
			map[any]any{"slug": "greece"},
			7,
			map[string]any{"code": "MT"},
			"",
		},
	})
	assert.Equal(t, []string{"Portugal", "greece", "7", `{"code":"MT"}`}, m.Countries)
}

func TestNormalize_BoolForms(t *testing.T) {
	for in, want := range map[any]bool{"On": true, "1": true, "no": false, 0: false, 3: true, true: true} {
		m := Normalize(map[string]any{"draft": in})
		assert.Equal(t, want, m.Draft, "input %v", in)
	}
}

func TestNormalize_TimeLayouts(t *testing.T) {
	for _, s := range []string{
		"2024-05-02T09:30:00Z",
		"2024-05-02",
		"2024-05-02 09:30:00",
		"2024/05/02",
		"May 2, 2024",
		"2 May 2024",
	} {
		m := Normalize(map[string]any{"published": s})
		require.NotNil(t, m.Created, "layout %q", s)
		assert.Equal(t, time.May, m.Created.Month())
		assert.Equal(t, 2, m.Created.Day())
	}
}

func TestNormalize_AliasPrecedence(t *testing.T) {
	m := Normalize(map[string]any{"name": "Fallback", "title": "Primary", "description": "Short"})
	assert.Equal(t, "Primary", m.Title)
	assert.Equal(t, "Short", m.Summary)
}
