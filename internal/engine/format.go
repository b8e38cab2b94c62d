package engine

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var printer = message.NewPrinter(language.English)

// exactDigits is enough fractional digits to print any float64 exactly.
const exactDigits = 1074

// Round rounds the exact binary value of v to places decimals, ties to even.
// 2.675 is stored as 2.67499999... and so rounds to 2.67.
func Round(v float64, places int32) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return v
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(v, 'f', exactDigits, 64))
	if err != nil {
		return v
	}
	return d.RoundBank(places).InexactFloat64()
}

// Dollars formats v as a whole-dollar amount with thousands separators.
func Dollars(v float64) string {
	return "$" + printer.Sprintf("%.0f", v)
}

// Cents formats v with two decimals and thousands separators.
func Cents(v float64) string {
	return "$" + printer.Sprintf("%.2f", v)
}

// Percent formats a probability as a percentage with the given decimals.
func Percent(p float64, decimals int) string {
	return strconv.FormatFloat(p*100, 'f', decimals, 64) + "%"
}

// Number formats v in its shortest form, always keeping one decimal place
// so that 75 prints as "75.0".
func Number(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
