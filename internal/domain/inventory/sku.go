package inventory

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	skuSuffix = regexp.MustCompile(`-(\d+)$`)
	upper     = cases.Upper(language.Und)
)

const skuPrefixLen = 3

// SKUPrefix prefijo de SKU de una categoría: el prefijo explícito o las 3 primeras letras del nombre en mayúsculas.
func SKUPrefix(categoryPrefix, categoryName string) string {
	if p := strings.TrimSpace(categoryPrefix); p != "" {
		return upper.String(p)
	}
	name := []rune(strings.TrimSpace(categoryName))
	if len(name) > skuPrefixLen {
		name = name[:skuPrefixLen]
	}
	return upper.String(string(name))
}

// NextSKU calcula el siguiente SKU a partir del mayor existente con ese prefijo (vacío = ninguno).
func NextSKU(prefix, lastSKU string) string {
	next := 1
	if m := skuSuffix.FindStringSubmatch(lastSKU); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			next = n + 1
		}
	}
	return FormatSKU(prefix, next)
}

// SKUNumber devuelve el número secuencial de sku si tiene la forma PREFIX-<dígitos>.
func SKUNumber(prefix, sku string) (int, bool) {
	rest, ok := strings.CutPrefix(sku, prefix+"-")
	if !ok || rest == "" {
		return 0, false
	}
	for _, r := range rest {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	n, err := strconv.Atoi(rest)
	if err != nil {
		return 0, false
	}
	return n, true
}

// FormatSKU da formato PREFIX-NNN (mínimo 3 dígitos).
func FormatSKU(prefix string, n int) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}
