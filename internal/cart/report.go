package cart

import (
	"fmt"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/osteele/liquid"
)

const reportTemplate = `Shopping list
Generated at: {{ generated_at }}

Recipes:
{% for recipe in recipes %}- {{ recipe }}
{% endfor %}
Ingredients:
{% for item in ingredients %}{{ forloop.index }}. {{ item.name | capfirst }}({{ item.unit }}) - {{ item.amount }}
{% endfor %}`

const timestampLayout = "2006-01-02 15:04:05 MST"

// Renderer turns aggregated lines into the plain text shopping list.
type Renderer struct {
	tpl *liquid.Template
}

func NewRenderer() (*Renderer, error) {
	engine := liquid.NewEngine()
	engine.RegisterFilter("capfirst", capFirst)
	tpl, err := engine.ParseString(reportTemplate)
	if err != nil {
		return nil, fmt.Errorf("parse shopping list template: %w", err)
	}
	return &Renderer{tpl: tpl}, nil
}

// Render produces the report. Lines are expected in output order.
func (r *Renderer) Render(generatedAt time.Time, recipes []string, lines []Line) (string, error) {
	items := make([]map[string]any, 0, len(lines))
	for _, line := range lines {
		items = append(items, map[string]any{
			"name":   line.Name,
			"unit":   line.Unit,
			"amount": line.Amount,
		})
	}
	if recipes == nil {
		recipes = []string{}
	}
	out, err := r.tpl.RenderString(map[string]any{
		"generated_at": generatedAt.Format(timestampLayout),
		"recipes":      recipes,
		"ingredients":  items,
	})
	if err != nil {
		return "", fmt.Errorf("render shopping list: %w", err)
	}
	return out, nil
}

func capFirst(value string) string {
	first, size := utf8.DecodeRuneInString(value)
	if first == utf8.RuneError {
		return value
	}
	return string(unicode.ToUpper(first)) + value[size:]
}
