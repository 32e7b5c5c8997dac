package activation

import (
	"strconv"
	"strings"
	"time"
)

var arabicMonths = [12]string{
	"يناير", "فبراير", "مارس", "أبريل", "مايو", "يونيو",
	"يوليو", "أغسطس", "سبتمبر", "أكتوبر", "نوفمبر", "ديسمبر",
}

var arabicDigits = strings.NewReplacer(
	"0", "٠", "1", "١", "2", "٢", "3", "٣", "4", "٤",
	"5", "٥", "6", "٦", "7", "٧", "8", "٨", "9", "٩",
)

// FormatArabicDate renders t as a long Egyptian-Arabic date, e.g. "١٥ يناير ٢٠٢٥".
// Dates are rendered in UTC.
func FormatArabicDate(t time.Time) string {
	t = t.UTC()
	day := arabicDigits.Replace(strconv.Itoa(t.Day()))
	year := arabicDigits.Replace(strconv.Itoa(t.Year()))
	return day + " " + arabicMonths[t.Month()-1] + " " + year
}
