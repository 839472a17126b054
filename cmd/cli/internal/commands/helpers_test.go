package commands

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wolfeidau/sentiview/internal/models"
)

func TestValidateRegistration(t *testing.T) {
	tests := []struct {
		name     string
		fullName string
		email    string
		password string
		confirm  string
		fields   []string
	}{
		{name: "valid", fullName: "Alice", email: "alice@example.com", password: "longenough", confirm: "longenough"},
		{name: "missing name", email: "alice@example.com", password: "longenough", confirm: "longenough", fields: []string{"name"}},
		{name: "bad email", fullName: "Alice", email: "alice", password: "longenough", confirm: "longenough", fields: []string{"email"}},
		{name: "email without dot in domain", fullName: "Alice", email: "alice@localhost", password: "longenough", confirm: "longenough", fields: []string{"email"}},
		{name: "display name form rejected", fullName: "Alice", email: "Alice <alice@example.com>", password: "longenough", confirm: "longenough", fields: []string{"email"}},
		{name: "short password", fullName: "Alice", email: "alice@example.com", password: "short", confirm: "short", fields: []string{"password"}},
		{name: "mismatch", fullName: "Alice", email: "alice@example.com", password: "longenough", confirm: "different", fields: []string{"confirmPassword"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateRegistration(tt.fullName, tt.email, tt.password, tt.confirm)
			if len(tt.fields) == 0 {
				require.NoError(t, err)
				return
			}

			var verrs ValidationErrors
			require.ErrorAs(t, err, &verrs)
			var fields []string
			for _, e := range verrs {
				fields = append(fields, e.Field)
			}
			assert.Equal(t, tt.fields, fields)
		})
	}
}

func TestValidatePasswordChange(t *testing.T) {
	require.NoError(t, validatePasswordChange("oldsecret", "newsecret1", "newsecret1"))

	err := validatePasswordChange("samesecret", "samesecret", "samesecret")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "New password must be different from current password")

	err = validatePasswordChange("", "newsecret1", "other")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Len(t, verrs, 2)
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		in   string
		want time.Time
		ok   bool
	}{
		{in: "2024-03-01T10:00:00Z", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ok: true},
		{in: "2024-03-01T10:00:00.123456", want: time.Date(2024, 3, 1, 10, 0, 0, 123456000, time.UTC), ok: true},
		{in: "2024-03-01 10:00:00", want: time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC), ok: true},
		{in: "2024-03-01", want: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ok: true},
		{in: "yesterday"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := parseDate(tt.in)
			assert.Equal(t, tt.ok, ok)
			if tt.ok {
				assert.True(t, tt.want.Equal(got), "got %s", got)
			}
		})
	}

	assert.Equal(t, "Unknown date", formatDate(""))
	assert.Equal(t, "Invalid date", formatDate("soon"))
}

func TestPdfFileName(t *testing.T) {
	now := time.Date(2024, 5, 6, 12, 0, 0, 0, time.UTC)

	assert.Equal(t, "analysis-golang-2024-05-06.pdf", pdfFileName("golang", now))
	assert.Equal(t, "analysis-rust_lang-2024-05-06.pdf", pdfFileName("rust lang", now))
	assert.Equal(t, "analysis-a_b-2024-05-06.pdf", pdfFileName("../a/b", now))
	assert.Equal(t, "analysis-report-2024-05-06.pdf", pdfFileName("///", now))
}

func TestDashboardStats(t *testing.T) {
	now := time.Date(2024, 5, 20, 12, 0, 0, 0, time.UTC)
	reports := []models.AnalysisResult{
		{CreatedAt: "2024-05-19T08:00:00Z"},
		{CreatedAt: "2024-05-02T08:00:00Z"},
		{CreatedAt: "2024-04-30T08:00:00Z"},
		{CreatedAt: "2023-05-19T08:00:00Z"},
		{CreatedAt: ""},
	}

	s := dashboardStats(reports, now)
	assert.Equal(t, stats{Total: 5, ThisMonth: 2, Recent: 1}, s)
}

func TestPrompter(t *testing.T) {
	t.Run("line trims and accepts missing newline", func(t *testing.T) {
		out := &bytes.Buffer{}
		p := newPrompter(strings.NewReader("  alice@example.com  \nlast"), out)

		v, err := p.line("Email: ")
		require.NoError(t, err)
		assert.Equal(t, "alice@example.com", v)
		assert.Equal(t, "Email: ", out.String())

		v, err = p.line("")
		require.NoError(t, err)
		assert.Equal(t, "last", v)
	})

	t.Run("secret from a pipe reads a line", func(t *testing.T) {
		out := &bytes.Buffer{}
		p := newPrompter(strings.NewReader("hunter22\n"), out)

		v, err := p.secret("Password: ")
		require.NoError(t, err)
		assert.Equal(t, "hunter22", v)
		assert.Empty(t, out.String())
	})

	t.Run("secret from a terminal does not echo", func(t *testing.T) {
		origRead, origIsTerm := readPassword, isTerminal
		t.Cleanup(func() { readPassword, isTerminal = origRead, origIsTerm })

		isTerminal = func(int) bool { return true }
		readPassword = func(int) ([]byte, error) { return []byte("s3cret!!"), nil }

		out := &bytes.Buffer{}
		p := newPrompter(os.Stdin, out)

		v, err := p.secret("Password: ")
		require.NoError(t, err)
		assert.Equal(t, "s3cret!!", v)
		assert.Equal(t, "Password: \n", out.String())
	})

	t.Run("valueOr skips the prompt", func(t *testing.T) {
		p := newPrompter(strings.NewReader(""), &bytes.Buffer{})
		v, err := p.valueOr("given", "Email: ")
		require.NoError(t, err)
		assert.Equal(t, "given", v)
	})
}
