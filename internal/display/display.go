// Package display renders money for people: locale matching from request
// hints and number formatting with golang.org/x/text.
package display

import (
	"fmt"

	"github.com/shopspring/decimal"
	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Supported lists the locales amounts are rendered in. The first entry is the fallback.
var Supported = []language.Tag{
	language.English,
	language.German,
	language.French,
	language.Spanish,
	language.Indonesian,
}

// Formatter matches request locales and formats amounts in one currency.
type Formatter struct {
	unit      currency.Unit
	supported []language.Tag
	matcher   language.Matcher
}

// NewFormatter builds a formatter for an ISO 4217 currency code. The
// fallback locale is moved to the front of the supported list.
func NewFormatter(code string, fallback string) (*Formatter, error) {
	unit, err := currency.ParseISO(code)
	if err != nil {
		return nil, fmt.Errorf("display: currency %q: %w", code, err)
	}
	supported := append([]language.Tag(nil), Supported...)
	if fallback != "" {
		tag, err := language.Parse(fallback)
		if err != nil {
			return nil, fmt.Errorf("display: fallback locale %q: %w", fallback, err)
		}
		ordered := []language.Tag{tag}
		for _, t := range supported {
			if t != tag {
				ordered = append(ordered, t)
			}
		}
		supported = ordered
	}
	return &Formatter{
		unit:      unit,
		supported: supported,
		matcher:   language.NewMatcher(supported),
	}, nil
}

// Currency returns the ISO code amounts are shown in.
func (f *Formatter) Currency() string {
	return f.unit.String()
}

// Match picks a supported locale from an Accept-Language style header,
// falling back to the ISO country hint and then the default.
func (f *Formatter) Match(accept, country string) language.Tag {
	prefs, _, err := language.ParseAcceptLanguage(accept)
	if err != nil {
		prefs = nil
	}
	if len(prefs) == 0 && country != "" {
		if region, err := language.ParseRegion(country); err == nil {
			if tag, err := language.Compose(language.Und, region); err == nil {
				prefs = append(prefs, tag)
			}
		}
	}
	if len(prefs) == 0 {
		return f.supported[0]
	}
	_, idx, conf := f.matcher.Match(prefs...)
	if conf == language.No {
		return f.supported[0]
	}
	return f.supported[idx]
}

// Format renders amount as "<ISO code> <grouped number>" with two fraction digits.
func (f *Formatter) Format(tag language.Tag, amount decimal.Decimal) string {
	p := message.NewPrinter(tag)
	value, _ := amount.Round(2).Float64()
	return f.unit.String() + " " + p.Sprint(number.Decimal(value,
		number.MinFractionDigits(2),
		number.MaxFractionDigits(2),
	))
}
