package template

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"membership-reminders/internal/models"
)

func fixedNow() time.Time {
	return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
}

func testMember() models.Member {
	expiry := time.Date(2026, 3, 12, 12, 0, 0, 0, time.UTC)
	join := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	return models.Member{
		ID:             "member-001",
		Name:           "Ana",
		Email:          "ana@example.com",
		Status:         models.StatusActive,
		ExpiryDate:     &expiry,
		JoinDate:       &join,
		MembershipName: "Plan Mensual",
		Price:          25.5,
	}
}

func TestRender_Placeholders(t *testing.T) {
	engine := NewEngineAt(fixedNow)

	tests := []struct {
		name     string
		template models.Template
		member   models.Member
		want     Rendered
	}{
		{
			name: "member name and days until expiry",
			template: models.Template{
				Subject: "Recordatorio",
				Content: "Hola {{memberName}}, vence en {{daysUntilExpiry}} días",
			},
			member: testMember(),
			want: Rendered{
				Subject: "Recordatorio",
				Body:    "Hola Ana, vence en 2 días",
			},
		},
		{
			name: "long form dates",
			template: models.Template{
				Subject: "Vence el {{expiryDate}}",
				Content: "Socio desde {{joinDate}}",
			},
			member: testMember(),
			want: Rendered{
				Subject: "Vence el 12 de marzo de 2026",
				Body:    "Socio desde 5 de enero de 2024",
			},
		},
		{
			name: "membership name, price and status",
			template: models.Template{
				Subject: "{{membershipName}}",
				Content: "Renovación: ${{price}} ({{status}})",
			},
			member: testMember(),
			want: Rendered{
				Subject: "Plan Mensual",
				Body:    "Renovación: $25.5 (active)",
			},
		},
		{
			name: "repeated placeholder is replaced everywhere",
			template: models.Template{
				Subject: "{{memberName}}",
				Content: "{{memberName}} {{memberName}}",
			},
			member: testMember(),
			want: Rendered{
				Subject: "Ana",
				Body:    "Ana Ana",
			},
		},
		{
			name: "unknown placeholder is left untouched",
			template: models.Template{
				Subject: "Hola {{memberName}}",
				Content: "Saludos, {{unknownKey}}",
			},
			member: testMember(),
			want: Rendered{
				Subject: "Hola Ana",
				Body:    "Saludos, {{unknownKey}}",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Render(tt.template, tt.member)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_MissingDatesAndZeroPrice(t *testing.T) {
	engine := NewEngineAt(fixedNow)

	member := testMember()
	member.ExpiryDate = nil
	member.JoinDate = nil
	member.Price = 0

	got := engine.Render(models.Template{
		Subject: "{{expiryDate}}",
		Content: "{{joinDate}} / ${{price}} / {{daysUntilExpiry}}",
	}, member)

	assert.Equal(t, DateUnavailable, got.Subject)
	assert.Equal(t, "No disponible / $0 / 0", got.Body)
}

func TestDaysUntilExpiry(t *testing.T) {
	now := fixedNow()

	tests := []struct {
		name   string
		expiry time.Time
		want   int
	}{
		{"exactly two days", now.Add(48 * time.Hour), 2},
		{"partial day rounds up", now.Add(36 * time.Hour), 2},
		{"under a day rounds up to one", now.Add(6 * time.Hour), 1},
		{"already expired floors at zero", now.Add(-24 * time.Hour), 0},
		{"expiring right now", now, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			expiry := tt.expiry
			m := models.Member{ExpiryDate: &expiry}
			assert.Equal(t, tt.want, m.DaysUntilExpiry(now))
		})
	}
}

func TestDefaultTemplate_RendersCleanly(t *testing.T) {
	engine := NewEngineAt(fixedNow)

	got := engine.Render(Default, testMember())

	assert.NotContains(t, got.Body, "{{")
	assert.NotContains(t, got.Subject, "{{")
	assert.Contains(t, got.Body, "Ana")
}
