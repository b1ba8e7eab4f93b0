// internal/reminder/template/engine.go
package template

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"membership-reminders/internal/models"
)

// DateUnavailable is rendered for members missing an expiry or join date.
const DateUnavailable = "No disponible"

// Default is the built-in reminder template used when the config store holds
// no valid override.
var Default = models.Template{
	Subject: "Recordatorio: tu membresía vence pronto",
	Content: "Hola {{memberName}},\n\n" +
		"Tu membresía {{membershipName}} vence el {{expiryDate}} " +
		"(en {{daysUntilExpiry}} días).\n\n" +
		"El costo de renovación es de ${{price}}.\n\n" +
		"Te esperamos pronto.",
}

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// Rendered is a subject/body pair ready for dispatch.
type Rendered struct {
	Subject string
	Body    string
}

// Engine renders subject and body from a template and a member's data.
type Engine struct {
	now func() time.Time
}

func NewEngine() *Engine {
	return &Engine{now: time.Now}
}

// NewEngineAt pins the engine's clock, for deterministic rendering in tests.
func NewEngineAt(now func() time.Time) *Engine {
	return &Engine{now: now}
}

// Render substitutes every {{key}} occurrence in subject and content with the
// member's values. Placeholders with no matching key are left untouched; an
// operator typo surfaces literally in the mail rather than failing the send.
func (e *Engine) Render(tmpl models.Template, member models.Member) Rendered {
	vars := e.variables(member)

	subject := tmpl.Subject
	body := tmpl.Content
	for key, value := range vars {
		placeholder := "{{" + key + "}}"
		subject = strings.ReplaceAll(subject, placeholder, value)
		body = strings.ReplaceAll(body, placeholder, value)
	}

	return Rendered{Subject: subject, Body: body}
}

func (e *Engine) variables(member models.Member) map[string]string {
	return map[string]string{
		"memberName":      member.Name,
		"membershipName":  member.MembershipName,
		"expiryDate":      formatLongDate(member.ExpiryDate),
		"joinDate":        formatLongDate(member.JoinDate),
		"price":           formatPrice(member.Price),
		"status":          string(member.Status),
		"daysUntilExpiry": strconv.Itoa(member.DaysUntilExpiry(e.now())),
	}
}

// formatLongDate renders a Spanish long-form date, e.g. "5 de marzo de 2026".
func formatLongDate(t *time.Time) string {
	if t == nil {
		return DateUnavailable
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

func formatPrice(price float64) string {
	if price == 0 {
		return "0"
	}
	return strconv.FormatFloat(price, 'f', -1, 64)
}
