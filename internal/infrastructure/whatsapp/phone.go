package whatsapp

import "strings"

// NormalizePhone deja solo dígitos y reemplaza el 0 inicial por el código de país.
// "0812-3456 789" con "62" → "628123456789". Vacío si no quedan dígitos.
func NormalizePhone(phone, countryCode string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if strings.HasPrefix(digits, "0") {
		digits = countryCode + digits[1:]
	}
	return digits
}
