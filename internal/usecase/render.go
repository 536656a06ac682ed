package usecase

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/vitalmed-app/clinica-automation/internal/entity"
)

var placeholderRe = regexp.MustCompile(`\{\{\s*([\w.]+)\s*\}\}`)

// RenderTemplate substitui placeholders {{campo}} por dados do lead e do
// contexto de execução. Chaves com ponto ({{calculator.results.x}}) navegam
// no contexto. Placeholder sem valor conhecido fica como está.
func RenderTemplate(content string, lead *entity.Lead, bag map[string]any) string {
	return placeholderRe.ReplaceAllStringFunc(content, func(match string) string {
		key := placeholderRe.FindStringSubmatch(match)[1]

		if v, ok := leadField(lead, key); ok {
			return v
		}
		if v, ok := LookupPath(bag, key); ok {
			return formatValue(v)
		}
		return match
	})
}

func leadField(lead *entity.Lead, key string) (string, bool) {
	if lead == nil {
		return "", false
	}
	switch key {
	case "name":
		return lead.Name, true
	case "email":
		return lead.Email, true
	case "phone":
		return lead.Phone, true
	case "clinic_name":
		return lead.ClinicName, true
	case "stage":
		return lead.Stage, true
	case "source":
		return lead.Source, true
	}
	return "", false
}

// LookupPath navega um caminho pontuado dentro do contexto de execução.
func LookupPath(bag map[string]any, path string) (any, bool) {
	if bag == nil {
		return nil, false
	}

	parts := strings.Split(path, ".")
	var current any = bag

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

// LookupNumber devolve o valor numérico de um caminho do contexto, aceitando
// os tipos que o decode de JSON produz.
func LookupNumber(bag map[string]any, path string) (float64, bool) {
	v, ok := LookupPath(bag, path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}

func formatValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		// JSON decodifica todo número como float64; inteiros saem sem ".0".
		if val == float64(int64(val)) {
			return strconv.FormatInt(int64(val), 10)
		}
		return strconv.FormatFloat(val, 'f', 2, 64)
	case bool:
		return strconv.FormatBool(val)
	}
	return fmt.Sprintf("%v", v)
}

// FormatBRL formata um valor como moeda brasileira: 50000 -> "R$ 50.000".
func FormatBRL(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}

	// Arredonda para centavos antes de separar as partes; o carry de
	// 99,5+ centavos sobe para a parte inteira.
	total := int64(math.Round(v * 100))
	whole := total / 100
	cents := total % 100

	digits := strconv.FormatInt(whole, 10)
	var b strings.Builder
	for i, d := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(d)
	}

	out := "R$ " + b.String()
	if cents > 0 {
		out += "," + fmt.Sprintf("%02d", cents)
	}
	if neg {
		out = "-" + out
	}
	return out
}
