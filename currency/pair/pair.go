// Package pair parses and renders trading symbols used across the
// portfolio, debate, trading, and metrics stages — e.g. "BTCUSDT" or
// "BTC-USDT".
package pair

import "strings"

// CurrencyItem is a currency code or a rendered pair string.
type CurrencyItem string

// Upper returns the item upper-cased.
func (c CurrencyItem) Upper() CurrencyItem {
	return CurrencyItem(strings.ToUpper(string(c)))
}

// Lower returns the item lower-cased.
func (c CurrencyItem) Lower() CurrencyItem {
	return CurrencyItem(strings.ToLower(string(c)))
}

// String implements fmt.Stringer.
func (c CurrencyItem) String() string { return string(c) }

// CurrencyPair is a base/quote symbol pair with an optional delimiter.
type CurrencyPair struct {
	Delimiter      string
	FirstCurrency  CurrencyItem
	SecondCurrency CurrencyItem
}

// NewCurrencyPair builds a CurrencyPair with no delimiter, e.g. BTCUSD.
func NewCurrencyPair(base, quote string) CurrencyPair {
	return CurrencyPair{FirstCurrency: CurrencyItem(base), SecondCurrency: CurrencyItem(quote)}
}

// NewCurrencyPairDelimiter splits s on delimiter into a CurrencyPair.
func NewCurrencyPairDelimiter(s, delimiter string) CurrencyPair {
	parts := strings.SplitN(s, delimiter, 2)
	p := CurrencyPair{Delimiter: delimiter}
	if len(parts) > 0 {
		p.FirstCurrency = CurrencyItem(parts[0])
	}
	if len(parts) > 1 {
		p.SecondCurrency = CurrencyItem(parts[1])
	}
	return p
}

// NewCurrencyPairFromIndex splits currency into a CurrencyPair using
// index as the known prefix or suffix.
func NewCurrencyPairFromIndex(currency, index string) CurrencyPair {
	if strings.HasPrefix(currency, index) {
		return CurrencyPair{
			FirstCurrency:  CurrencyItem(index),
			SecondCurrency: CurrencyItem(currency[len(index):]),
		}
	}
	return CurrencyPair{
		FirstCurrency:  CurrencyItem(currency[:len(currency)-len(index)]),
		SecondCurrency: CurrencyItem(index),
	}
}

// NewCurrencyPairFromString splits s on the first of "-", "_" or "/"
// that it contains. Other separators are not recognised; when none of
// the three is present, all of s becomes FirstCurrency.
func NewCurrencyPairFromString(s string) CurrencyPair {
	for _, delim := range []string{"-", "_", "/"} {
		if strings.Contains(s, delim) {
			return NewCurrencyPairDelimiter(s, delim)
		}
	}
	return CurrencyPair{FirstCurrency: CurrencyItem(s)}
}

// Pair renders the pair using its delimiter (if any), in its stored case.
func (p CurrencyPair) Pair() CurrencyItem {
	return CurrencyItem(string(p.FirstCurrency) + p.Delimiter + string(p.SecondCurrency))
}

// Display renders the pair with an explicit delimiter override,
// upper-cased when uppercase is true and lower-cased otherwise.
func (p CurrencyPair) Display(delimiter string, uppercase bool) CurrencyItem {
	s := string(p.FirstCurrency) + delimiter + string(p.SecondCurrency)
	if uppercase {
		return CurrencyItem(s).Upper()
	}
	return CurrencyItem(s).Lower()
}

// GetFirstCurrency returns the base currency.
func (p CurrencyPair) GetFirstCurrency() CurrencyItem { return p.FirstCurrency }

// GetSecondCurrency returns the quote currency.
func (p CurrencyPair) GetSecondCurrency() CurrencyItem { return p.SecondCurrency }
