package tasks_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/hibiken/asynq"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/email"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
	"github.com/Legalistas/brixar-sub002/internal/tasks"
	"github.com/Legalistas/brixar-sub002/internal/utils"
)

// --- Mocks ---

type MockEmailSender struct {
	mock.Mock
}

func (m *MockEmailSender) Send(ctx context.Context, to []string, subject string, rawMessage []byte) error {
	args := m.Called(ctx, to, subject, rawMessage)
	return args.Error(0)
}

type MockCurrencyService struct {
	mock.Mock
	services.ICurrencyService
}

func (m *MockCurrencyService) RefreshAllRates(ctx context.Context) (*services.RefreshSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RefreshSummary), args.Error(1)
}

func testConfig() *config.Config {
	return &config.Config{
		AppName:           "Brixar",
		SmtpFromAddress:   "noreply@brixar.test",
		NotifyAddress:     "ventas@brixar.test",
		FxRefreshInterval: 30 * time.Minute,
	}
}

// --- Tests ---

func TestHandleEmailDeliveryTask_SaleCreated(t *testing.T) {
	cfg := testConfig()
	sender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(cfg, sender, nil)

	sale := &models.Sale{
		Base:       models.Base{ID: 12},
		Reference:  utils.NewRefCode(),
		PropertyID: 4,
		Price:      decimal.NewFromInt(95000),
	}
	task, err := tasks.NewSaleCreatedEmailTask(cfg, sale)
	require.NoError(t, err)
	assert.Equal(t, tasks.TypeEmailDelivery, task.Type())

	sender.On("Send",
		mock.Anything,
		[]string{"ventas@brixar.test"},
		"Brixar: venta #12 creada",
		mock.MatchedBy(func(raw []byte) bool {
			msg := string(raw)
			return assert.Contains(t, msg, "From: noreply@brixar.test") &&
				assert.Contains(t, msg, "Propiedad: #4") &&
				assert.Contains(t, msg, "Precio: 95000.00") &&
				assert.Contains(t, msg, sale.Reference.String())
		}),
	).Return(nil)

	assert.NoError(t, p.HandleEmailDeliveryTask(context.Background(), task))
	sender.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_OfferAccepted(t *testing.T) {
	cfg := testConfig()
	sender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(cfg, sender, nil)

	price := decimal.NewFromInt(95000)
	inquiry := &models.Inquiry{Base: models.Base{ID: 3}, Title: "Oferta", NegotiatedPrice: &price}
	task, err := tasks.NewOfferAcceptedEmailTask(cfg, inquiry, false)
	require.NoError(t, err)

	sender.On("Send", mock.Anything, []string{"ventas@brixar.test"}, "Brixar: oferta aceptada en la consulta #3",
		mock.MatchedBy(func(raw []byte) bool {
			return assert.Contains(t, string(raw), "El cliente aceptó el precio negociado de 95000.00")
		}),
	).Return(nil)

	assert.NoError(t, p.HandleEmailDeliveryTask(context.Background(), task))
	sender.AssertExpectations(t)
}

func TestHandleEmailDeliveryTask_BadPayloadSkipsRetry(t *testing.T) {
	sender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(testConfig(), sender, nil)

	err := p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, []byte("{")))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	var syntaxErr *json.SyntaxError
	assert.ErrorAs(t, err, &syntaxErr)

	payload, _ := json.Marshal(tasks.EmailTaskPayload{To: []string{"a@x.test"}, TemplateID: "welcome"})
	err = p.HandleEmailDeliveryTask(context.Background(), asynq.NewTask(tasks.TypeEmailDelivery, payload))
	assert.ErrorIs(t, err, asynq.SkipRetry)
	assert.ErrorIs(t, err, email.ErrUnknownTemplate)

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestHandleEmailDeliveryTask_SendFailureIsRetried(t *testing.T) {
	cfg := testConfig()
	sender := new(MockEmailSender)
	p := tasks.NewTaskProcessor(cfg, sender, nil)
	task, err := tasks.NewSaleCreatedEmailTask(cfg, &models.Sale{Base: models.Base{ID: 1}, Price: decimal.NewFromInt(1)})
	require.NoError(t, err)

	sender.On("Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("smtp down"))

	err = p.HandleEmailDeliveryTask(context.Background(), task)
	require.Error(t, err)
	assert.NotErrorIs(t, err, asynq.SkipRetry)
}

func TestNewEmailDeliveryTask_RequiresRecipient(t *testing.T) {
	_, err := tasks.NewEmailDeliveryTask(tasks.EmailTaskPayload{TemplateID: email.TemplateSaleCreated})
	assert.Error(t, err)
}

func TestHandleCurrencyRefreshTask(t *testing.T) {
	currencies := new(MockCurrencyService)
	p := tasks.NewTaskProcessor(testConfig(), nil, currencies)
	task := tasks.NewCurrencyRefreshTask(30 * time.Minute)
	assert.Equal(t, tasks.TypeCurrencyRefresh, task.Type())

	currencies.On("RefreshAllRates", mock.Anything).Return(&services.RefreshSummary{Refreshed: 2, Skipped: 1}, nil).Once()
	assert.NoError(t, p.HandleCurrencyRefreshTask(context.Background(), task))

	currencies.On("RefreshAllRates", mock.Anything).Return(&services.RefreshSummary{Skipped: 3}, nil).Once()
	assert.Error(t, p.HandleCurrencyRefreshTask(context.Background(), task))

	currencies.AssertExpectations(t)
}
