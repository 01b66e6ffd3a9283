package content

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/hyperjump/almanac/pkg/utils"
)

// Meta is frontmatter after normalization. Every field has its canonical type;
// absent numeric facts are nil, never NaN.
type Meta struct {
	Title          string
	Subtitle       string
	Summary        string
	Slug           string
	Author         string
	Category       string
	Region         string
	Currency       string
	Tags           []string
	Countries      []string
	Programs       []string
	Draft          bool
	Created        *time.Time
	Updated        *time.Time
	MinInvestment  *float64
	TimelineMonths *float64
	Steps          json.RawMessage
	FAQ            json.RawMessage
	Prices         json.RawMessage

	// Dropped lists canonical fields whose raw value could not be coerced.
	Dropped []string
}

type fieldKind int

const (
	kindString fieldKind = iota
	kindStringList
	kindBool
	kindNumber
	kindMonths
	kindTime
	kindOpaque
)

// fieldRule describes one canonical field: the raw keys it may arrive under (first
// present wins), the expected kind, and the value used when coercion fails. A nil
// fallback drops the field.
type fieldRule struct {
	name     string
	keys     []string
	kind     fieldKind
	fallback any
	assign   func(m *Meta, v any)
}

var fieldTable = []fieldRule{
	{name: "title", keys: []string{"title", "name"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Title = v.(string) }},
	{name: "subtitle", keys: []string{"subtitle", "tagline"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Subtitle = v.(string) }},
	{name: "summary", keys: []string{"summary", "description", "excerpt"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Summary = v.(string) }},
	{name: "slug", keys: []string{"slug"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Slug = v.(string) }},
	{name: "author", keys: []string{"author", "by"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Author = v.(string) }},
	{name: "category", keys: []string{"category", "vertical"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Category = v.(string) }},
	{name: "region", keys: []string{"region"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Region = v.(string) }},
	{name: "currency", keys: []string{"currency"}, kind: kindString,
		assign: func(m *Meta, v any) { m.Currency = strings.ToUpper(v.(string)) }},
	{name: "tags", keys: []string{"tags", "keywords"}, kind: kindStringList,
		assign: func(m *Meta, v any) { m.Tags = v.([]string) }},
	{name: "countries", keys: []string{"countries", "country"}, kind: kindStringList,
		assign: func(m *Meta, v any) { m.Countries = v.([]string) }},
	{name: "programs", keys: []string{"programs", "program"}, kind: kindStringList,
		assign: func(m *Meta, v any) { m.Programs = v.([]string) }},
	{name: "draft", keys: []string{"draft"}, kind: kindBool, fallback: false,
		assign: func(m *Meta, v any) { m.Draft = v.(bool) }},
	{name: "created", keys: []string{"date", "published", "created"}, kind: kindTime,
		assign: func(m *Meta, v any) { t := v.(time.Time); m.Created = &t }},
	{name: "updated", keys: []string{"updated", "lastmod", "modified"}, kind: kindTime,
		assign: func(m *Meta, v any) { t := v.(time.Time); m.Updated = &t }},
	{name: "min_investment", keys: []string{"minimuminvestment", "min_investment", "mininvestment", "investment"}, kind: kindNumber,
		assign: func(m *Meta, v any) { f := v.(float64); m.MinInvestment = &f }},
	{name: "timeline_months", keys: []string{"timelinemonths", "timeline_months", "timeline", "processingtime", "processing_time"}, kind: kindMonths,
		assign: func(m *Meta, v any) { f := v.(float64); m.TimelineMonths = &f }},
	{name: "steps", keys: []string{"steps", "process", "processsteps"}, kind: kindOpaque,
		assign: func(m *Meta, v any) { m.Steps = v.(json.RawMessage) }},
	{name: "faq", keys: []string{"faq", "faqs"}, kind: kindOpaque,
		assign: func(m *Meta, v any) { m.FAQ = v.(json.RawMessage) }},
	{name: "prices", keys: []string{"prices", "pricing", "costs"}, kind: kindOpaque,
		assign: func(m *Meta, v any) { m.Prices = v.(json.RawMessage) }},
}

// Normalize converts untyped frontmatter into Meta using the field table. It never
// fails: values that cannot be coerced take the rule's fallback or are dropped.
func Normalize(raw map[string]any) Meta {
	lower := lowerKeys(raw)
	var m Meta
	for _, rule := range fieldTable {
		v, ok := lookup(lower, rule.keys)
		if !ok {
			continue
		}
		coerced, ok := coerce(rule.kind, v)
		if !ok {
			m.Dropped = append(m.Dropped, rule.name)
			if rule.fallback == nil {
				continue
			}
			coerced = rule.fallback
		}
		rule.assign(&m, coerced)
	}
	return m
}

// lowerKeys folds keys to lowercase; on a case collision the lexically first raw key wins.
func lowerKeys(raw map[string]any) map[string]any {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make(map[string]any, len(raw))
	for _, k := range keys {
		lk := strings.ToLower(strings.TrimSpace(k))
		if _, exists := out[lk]; !exists {
			out[lk] = raw[k]
		}
	}
	return out
}

func lookup(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

func coerce(kind fieldKind, v any) (any, bool) {
	switch kind {
	case kindString:
		return toString(v)
	case kindStringList:
		return toStringList(v)
	case kindBool:
		return toBool(v)
	case kindNumber:
		return toNumber(v)
	case kindMonths:
		return toMonths(v)
	case kindTime:
		return toTime(v)
	case kindOpaque:
		return toOpaque(v)
	}
	return nil, false
}

func toString(v any) (string, bool) {
	switch x := v.(type) {
	case string:
		s := strings.TrimSpace(x)
		return s, s != ""
	case bool:
		return strconv.FormatBool(x), true
	case int:
		return strconv.Itoa(x), true
	case int64:
		return strconv.FormatInt(x, 10), true
	case uint64:
		return strconv.FormatUint(x, 10), true
	case float64:
		if !utils.IsFinite(x) {
			return "", false
		}
		return strconv.FormatFloat(x, 'f', -1, 64), true
	case time.Time:
		return x.UTC().Format("2006-01-02"), true
	}
	return "", false
}

// labelKeys are tried, in order, to turn a stray object inside a list into a string.
var labelKeys = []string{"name", "title", "label", "slug", "value"}

func toStringList(v any) ([]string, bool) {
	var items []string
	switch x := v.(type) {
	case string:
		items = strings.Split(x, ",")
	case []string:
		items = append(items, x...)
	case []any:
		for _, el := range x {
			items = append(items, listElement(el))
		}
	default:
		items = append(items, listElement(x))
	}

	seen := make(map[string]bool, len(items))
	out := make([]string, 0, len(items))
	for _, s := range items {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out, len(out) > 0
}

// listElement coerces one list element: scalars are string-ified, objects yield a
// label field when they have one, anything else its JSON encoding.
func listElement(el any) string {
	if s, ok := el.(string); ok {
		return s
	}
	if s, ok := toString(el); ok {
		return s
	}
	if obj, ok := sanitize(el).(map[string]any); ok {
		for _, k := range labelKeys {
			if s, ok := toString(obj[k]); ok {
				return s
			}
		}
	}
	if el == nil {
		return ""
	}
	b, err := json.Marshal(sanitize(el))
	if err != nil {
		return fmt.Sprint(el)
	}
	return string(b)
}

var (
	truthy = map[string]bool{"true": true, "yes": true, "y": true, "1": true, "on": true}
	falsy  = map[string]bool{"false": true, "no": true, "n": true, "0": true, "off": true}
)

func toBool(v any) (bool, bool) {
	switch x := v.(type) {
	case bool:
		return x, true
	case string:
		s := strings.ToLower(strings.TrimSpace(x))
		if truthy[s] {
			return true, true
		}
		if falsy[s] {
			return false, true
		}
	case int:
		return x != 0, true
	case int64:
		return x != 0, true
	case float64:
		return x != 0 && !math.IsNaN(x), true
	}
	return false, false
}

// amountPattern captures the first number in free text, allowing thousands
// separators and a magnitude suffix ("€500,000", "250k", "1.2 million").
var amountPattern = regexp.MustCompile(`(?i)(\d+(?:[,\s]\d{3})*(?:\.\d+)?)\s*(k|thousand|m|mn|million|b|bn|billion)?\b`)

func toNumber(v any) (float64, bool) {
	var f float64
	switch x := v.(type) {
	case int:
		f = float64(x)
	case int64:
		f = float64(x)
	case uint64:
		f = float64(x)
	case float64:
		f = x
	case string:
		m := amountPattern.FindStringSubmatch(x)
		if m == nil {
			return 0, false
		}
		digits := strings.NewReplacer(",", "", " ", "", "\t", "", "\u00a0", "").Replace(m[1])
		n, err := strconv.ParseFloat(digits, 64)
		if err != nil {
			return 0, false
		}
		f = n * magnitude(m[2])
	default:
		return 0, false
	}
	if !utils.IsFinite(f) || f < 0 {
		return 0, false
	}
	return f, true
}

func magnitude(suffix string) float64 {
	switch strings.ToLower(suffix) {
	case "k", "thousand":
		return 1e3
	case "m", "mn", "million":
		return 1e6
	case "b", "bn", "billion":
		return 1e9
	}
	return 1
}

// monthsPattern captures the first amount, an optional range upper bound, and the
// unit written next to them.
var monthsPattern = regexp.MustCompile(`(?i)(\d+(?:\.\d+)?)\s*(?:(?:-|–|to)\s*\d+(?:\.\d+)?\s*)?(years?|yrs?|months?|mos?|weeks?|wks?|days?)?`)

// toMonths reads a duration in months. Strings may name years, weeks or days next to
// the amount; ranges ("6-12 months") resolve to their lower bound.
func toMonths(v any) (float64, bool) {
	s, isString := v.(string)
	if !isString {
		return toNumber(v)
	}
	m := monthsPattern.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	switch unit := strings.ToLower(m[2]); {
	case strings.HasPrefix(unit, "y"):
		n *= 12
	case strings.HasPrefix(unit, "w"):
		n /= 4
	case strings.HasPrefix(unit, "d"):
		n /= 30
	}
	if !utils.IsFinite(n) || n < 0 {
		return 0, false
	}
	return n, true
}

var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
}

func toTime(v any) (time.Time, bool) {
	switch x := v.(type) {
	case time.Time:
		return x.UTC(), true
	case string:
		s := strings.TrimSpace(x)
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t.UTC(), true
			}
		}
	}
	return time.Time{}, false
}

func toOpaque(v any) (json.RawMessage, bool) {
	b, err := json.Marshal(sanitize(v))
	if err != nil || string(b) == "null" {
		return nil, false
	}
	return json.RawMessage(b), true
}

// sanitize converts decoder output into JSON-encodable values: maps with
// interface keys become string-keyed maps, timestamps become RFC 3339 strings,
// and non-finite floats become nil.
func sanitize(v any) any {
	switch x := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[k] = sanitize(val)
		}
		return out
	case map[any]any:
		out := make(map[string]any, len(x))
		for k, val := range x {
			out[fmt.Sprint(k)] = sanitize(val)
		}
		return out
	case []any:
		out := make([]any, len(x))
		for i, val := range x {
			out[i] = sanitize(val)
		}
		return out
	case time.Time:
		return x.UTC().Format(time.RFC3339)
	case float64:
		if !utils.IsFinite(x) {
			return nil
		}
		return x
	}
	return v
}
