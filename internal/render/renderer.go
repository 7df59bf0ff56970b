package render

import (
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// DelimiterStyle is the placeholder syntax a template uses
type DelimiterStyle int

const (
	// DoubleBrace matches {{key}} with optional inner whitespace. Used by email bodies.
	DoubleBrace DelimiterStyle = iota
	// SingleBrace matches {key}. Used by document templates. A "$" written right
	// before a currency placeholder is absorbed so the symbol is not doubled.
	SingleBrace
)

var (
	doubleBraceRe = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_\-]+(?:\.[A-Za-z0-9_\-]+)*)\s*\}\}`)
	singleBraceRe = regexp.MustCompile(`(\$?)\{([A-Za-z0-9_\-]+(?:\.[A-Za-z0-9_\-]+)*)\}`)
)

// Option customizes a Renderer
type Option func(*Renderer)

// WithEscaper escapes every substituted value, e.g. for HTML or XML output.
// Template text outside placeholders is never touched.
func WithEscaper(escape func(string) string) Option {
	return func(r *Renderer) {
		r.escape = escape
	}
}

// Renderer merges field values into placeholder templates. It is stateless and
// safe for concurrent use.
type Renderer struct {
	style  DelimiterStyle
	escape func(string) string
}

func NewRenderer(style DelimiterStyle, opts ...Option) *Renderer {
	r := &Renderer{style: style}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render replaces every known placeholder. Unknown placeholders stay verbatim.
func Render(tmpl string, data map[string]any, style DelimiterStyle) string {
	return NewRenderer(style).Render(tmpl, data)
}

func (r *Renderer) Render(tmpl string, data map[string]any) string {
	if tmpl == "" {
		return ""
	}

	switch r.style {
	case SingleBrace:
		return singleBraceRe.ReplaceAllStringFunc(tmpl, func(match string) string {
			groups := singleBraceRe.FindStringSubmatch(match)
			dollar, key := groups[1], groups[2]

			value, ok := Lookup(data, key)
			if !ok {
				return match
			}
			out := r.format(value)
			if dollar != "" && !IsCurrency(value) {
				out = dollar + out
			}
			return out
		})
	default:
		return doubleBraceRe.ReplaceAllStringFunc(tmpl, func(match string) string {
			key := doubleBraceRe.FindStringSubmatch(match)[1]
			value, ok := Lookup(data, key)
			if !ok {
				return match
			}
			return r.format(value)
		})
	}
}

func (r *Renderer) format(value any) string {
	out := FormatValue(value)
	if r.escape != nil {
		out = r.escape(out)
	}
	return out
}

// Lookup resolves a dotted key. A flat entry with the full dotted key wins over
// a walk through nested maps.
func Lookup(data map[string]any, key string) (any, bool) {
	if data == nil {
		return nil, false
	}
	if v, ok := data[key]; ok {
		return v, true
	}

	parts := strings.Split(key, ".")
	var current any = data
	for _, part := range parts {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[part]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// IsCurrency reports whether FormatValue renders the value as a peso amount
func IsCurrency(value any) bool {
	switch v := value.(type) {
	case decimal.Decimal, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
		return true
	case *decimal.Decimal:
		return v != nil
	}
	return false
}

// FormatValue renders a field value: numbers as Colombian pesos, dates in the
// Spanish long form, nil as the empty string and everything else verbatim.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case *string:
		if v == nil {
			return ""
		}
		return *v
	case decimal.Decimal:
		return FormatCOP(v)
	case *decimal.Decimal:
		if v == nil {
			return ""
		}
		return FormatCOP(*v)
	case int:
		return FormatCOP(decimal.NewFromInt(int64(v)))
	case int8:
		return FormatCOP(decimal.NewFromInt(int64(v)))
	case int16:
		return FormatCOP(decimal.NewFromInt(int64(v)))
	case int32:
		return FormatCOP(decimal.NewFromInt32(v))
	case int64:
		return FormatCOP(decimal.NewFromInt(v))
	case uint:
		return FormatCOP(decimal.NewFromUint64(uint64(v)))
	case uint8:
		return FormatCOP(decimal.NewFromUint64(uint64(v)))
	case uint16:
		return FormatCOP(decimal.NewFromUint64(uint64(v)))
	case uint32:
		return FormatCOP(decimal.NewFromUint64(uint64(v)))
	case uint64:
		return FormatCOP(decimal.NewFromUint64(v))
	case float32:
		return FormatCOP(decimal.NewFromFloat32(v))
	case float64:
		return FormatCOP(decimal.NewFromFloat(v))
	case time.Time:
		return FormatLongDate(v)
	case *time.Time:
		if v == nil {
			return ""
		}
		return FormatLongDate(*v)
	case fmt.Stringer:
		if rv := reflect.ValueOf(v); rv.Kind() == reflect.Ptr && rv.IsNil() {
			return ""
		}
		return v.String()
	}
	return fmt.Sprint(value)
}
