package utils

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// DefaultDateFormat is the dotted day-first format used across the product,
// matching the TCMB bulletin's Tarih attribute.
const DefaultDateFormat = "02.01.2006"

var turkishMonths = [...]string{
	"Ocak", "Şubat", "Mart", "Nisan", "Mayıs", "Haziran",
	"Temmuz", "Ağustos", "Eylül", "Ekim", "Kasım", "Aralık",
}

// ParseBulletinDate parses a DD.MM.YYYY bulletin date.
func ParseBulletinDate(dateStr string) (time.Time, error) {
	t, err := time.Parse(DefaultDateFormat, strings.TrimSpace(dateStr))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid bulletin date %q: %w", dateStr, err)
	}
	return t, nil
}

// FormatLongDate renders a date in the long Turkish form, e.g. "5 Kasım 2025".
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%d %s %d", t.Day(), turkishMonths[t.Month()-1], t.Year())
}

// FormatDate renders a date in the default dotted form, e.g. "05.11.2025".
func FormatDate(t time.Time) string {
	return t.Format(DefaultDateFormat)
}

// FormatTRY renders an amount the way the tr-TR currency formatter does:
// thousands separated with dots, two decimals after a comma, ₺ prefix.
// Formatting is display-only; computed values are never rounded at source.
func FormatTRY(value float64) string {
	negative := value < 0
	if negative {
		value = -value
	}

	whole := int64(value)
	frac := int64((value-float64(whole))*100 + 0.5)
	if frac >= 100 {
		whole++
		frac -= 100
	}

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	sign := ""
	if negative {
		sign = "-"
	}
	return fmt.Sprintf("%s₺%s,%02d", sign, b.String(), frac)
}
