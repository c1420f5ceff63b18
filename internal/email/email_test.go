package email

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Legalistas/brixar-sub002/internal/config"
)

type recordingSender struct {
	subjects []string
	err      error
}

func (r *recordingSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	r.subjects = append(r.subjects, subject)
	return r.err
}

func TestRender_SaleCreated(t *testing.T) {
	subject, body, err := Render(TemplateSaleCreated, map[string]any{
		"appName":    "Brixar",
		"saleId":     7,
		"reference":  "0123456789",
		"propertyId": 3,
		"price":      "95000",
	})
	require.NoError(t, err)
	assert.Equal(t, "Brixar: venta #7 creada", subject)
	assert.Contains(t, body, "Propiedad: #3")
	assert.Contains(t, body, "referencia 0123456789")
}

func TestRender_Errors(t *testing.T) {
	_, _, err := Render("welcome", nil)
	assert.ErrorIs(t, err, ErrUnknownTemplate)

	_, _, err = Render(TemplateOfferAccepted, map[string]any{"appName": "Brixar"})
	assert.Error(t, err, "missing keys fail instead of rendering <no value>")
}

func TestBuildMessage(t *testing.T) {
	date := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	raw := string(BuildMessage("noreply@brixar.test", []string{"a@x.test", "b@x.test"}, "Hola", "línea 1\nlínea 2", date))

	assert.True(t, strings.HasPrefix(raw, "To: a@x.test, b@x.test\r\n"))
	assert.Contains(t, raw, "From: noreply@brixar.test\r\n")
	assert.Contains(t, raw, "Subject: Hola\r\n")
	assert.Contains(t, raw, "Date: Wed, 01 May 2024 10:00:00 +0000\r\n")
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nlínea 1\r\nlínea 2\r\n"))
}

func TestCompositeEmailSender(t *testing.T) {
	ok := &recordingSender{}
	failing := &recordingSender{err: errors.New("smtp down")}
	cs := NewCompositeEmailSender(ok, nil, failing)

	err := cs.Send(context.Background(), []string{"a@x.test"}, "s", []byte("m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "smtp down")
	assert.Equal(t, []string{"s"}, ok.subjects, "a failing sender does not stop the others")
	assert.Equal(t, []string{"s"}, failing.subjects)

	assert.Error(t, NewCompositeEmailSender().Send(context.Background(), nil, "s", nil))
}

func TestFileEmailSender(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mail", "archive.log")
	sender, err := NewFileEmailSender(path)
	require.NoError(t, err)

	require.NoError(t, sender.Send(context.Background(), []string{"a@x.test"}, "primero", []byte("cuerpo 1")))
	require.NoError(t, sender.Send(context.Background(), []string{"b@x.test"}, "segundo", []byte("cuerpo 2")))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), `subject="primero"`)
	assert.Contains(t, string(content), "cuerpo 2")
	assert.Equal(t, 2, strings.Count(string(content), "--- end ---"))

	_, err = NewFileEmailSender(" ")
	assert.Error(t, err)
}

func TestNewSender(t *testing.T) {
	sender, err := NewSender(&config.Config{SmtpFromAddress: "noreply@brixar.test"})
	require.NoError(t, err)
	assert.IsType(t, &LoggingSender{}, sender)
	assert.NoError(t, sender.Send(context.Background(), []string{"a@x.test"}, "s", []byte("m")))

	sender, err = NewSender(&config.Config{SmtpHost: "smtp.brixar.test", SmtpPort: 587, EmailArchivePath: filepath.Join(t.TempDir(), "a.log")})
	require.NoError(t, err)
	assert.IsType(t, &CompositeEmailSender{}, sender)
}
