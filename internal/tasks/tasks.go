package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/hibiken/asynq"

	"github.com/Legalistas/brixar-sub002/internal/config"
	"github.com/Legalistas/brixar-sub002/internal/email"
	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
)

// TaskType defines the type of a background task.
const (
	TypeEmailDelivery   = "email:deliver"
	TypeCurrencyRefresh = "currency:refresh"
)

const (
	QueueCritical = "critical"
	QueueDefault  = "default"
)

// RedisOpt is the asynq connection shared by the client, server and scheduler.
func RedisOpt(cfg *config.Config) asynq.RedisClientOpt {
	return asynq.RedisClientOpt{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
}

// --- Task Client (Enqueuing tasks) ---

func NewClient(cfg *config.Config) *asynq.Client {
	return asynq.NewClient(RedisOpt(cfg))
}

// EmailTaskPayload is rendered with one of the email package templates.
type EmailTaskPayload struct {
	To         []string          `json:"to"`
	TemplateID string            `json:"template_id"`
	Data       map[string]string `json:"data"`
}

func NewEmailDeliveryTask(payload EmailTaskPayload) (*asynq.Task, error) {
	if len(payload.To) == 0 {
		return nil, errors.New("email task needs at least one recipient")
	}
	b, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal email task payload: %w", err)
	}
	return asynq.NewTask(TypeEmailDelivery, b, asynq.Queue(QueueDefault), asynq.MaxRetry(5)), nil
}

// NewSaleCreatedEmailTask notifies the sales team of a new sale.
func NewSaleCreatedEmailTask(cfg *config.Config, sale *models.Sale) (*asynq.Task, error) {
	return NewEmailDeliveryTask(EmailTaskPayload{
		To:         []string{cfg.NotifyAddress},
		TemplateID: email.TemplateSaleCreated,
		Data: map[string]string{
			"appName":    cfg.AppName,
			"saleId":     strconv.FormatUint(uint64(sale.ID), 10),
			"reference":  sale.Reference.String(),
			"propertyId": strconv.FormatUint(uint64(sale.PropertyID), 10),
			"price":      sale.Price.StringFixed(2),
		},
	})
}

// NewOfferAcceptedEmailTask notifies the sales team that one side accepted the negotiated price.
func NewOfferAcceptedEmailTask(cfg *config.Config, inquiry *models.Inquiry, byAdmin bool) (*asynq.Task, error) {
	acceptedBy := "El cliente"
	if byAdmin {
		acceptedBy = "El administrador"
	}
	price := ""
	if inquiry.NegotiatedPrice != nil {
		price = inquiry.NegotiatedPrice.StringFixed(2)
	}
	return NewEmailDeliveryTask(EmailTaskPayload{
		To:         []string{cfg.NotifyAddress},
		TemplateID: email.TemplateOfferAccepted,
		Data: map[string]string{
			"appName":         cfg.AppName,
			"inquiryId":       strconv.FormatUint(uint64(inquiry.ID), 10),
			"inquiryTitle":    inquiry.Title,
			"acceptedBy":      acceptedBy,
			"negotiatedPrice": price,
		},
	})
}

// NewCurrencyRefreshTask refreshes every exchange rate. At most one is queued at a time.
func NewCurrencyRefreshTask(interval time.Duration) *asynq.Task {
	return asynq.NewTask(TypeCurrencyRefresh, nil,
		asynq.Queue(QueueCritical),
		asynq.MaxRetry(0),
		asynq.Timeout(2*time.Minute),
		asynq.Unique(interval),
	)
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies of the task handlers.
type TaskProcessor struct {
	cfg             *config.Config
	emailSender     email.Sender
	currencyService services.ICurrencyService
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, currencyService services.ICurrencyService) *TaskProcessor {
	return &TaskProcessor{
		cfg:             cfg,
		emailSender:     emailSender,
		currencyService: currencyService,
	}
}

// SetupServer builds the worker server and its handler mux. The caller runs it.
func SetupServer(cfg *config.Config, processor *TaskProcessor) (*asynq.Server, *asynq.ServeMux) {
	logger := config.GetLogger()
	srv := asynq.NewServer(
		RedisOpt(cfg),
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				QueueCritical: 6,
				QueueDefault:  3,
			},
			Logger:   logger,
			LogLevel: asynq.WarnLevel,
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				config.LogError(logger, "tasks", "ErrorHandler", task.Type(), string(task.Payload()), err)
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeEmailDelivery, processor.HandleEmailDeliveryTask)
	mux.HandleFunc(TypeCurrencyRefresh, processor.HandleCurrencyRefreshTask)
	return srv, mux
}

// SetupScheduler registers the periodic currency refresh.
func SetupScheduler(cfg *config.Config) (*asynq.Scheduler, error) {
	scheduler := asynq.NewScheduler(RedisOpt(cfg), &asynq.SchedulerOpts{
		Logger:   config.GetLogger(),
		LogLevel: asynq.WarnLevel,
		Location: time.UTC,
	})
	cronspec := fmt.Sprintf("@every %s", cfg.FxRefreshInterval)
	if _, err := scheduler.Register(cronspec, NewCurrencyRefreshTask(cfg.FxRefreshInterval)); err != nil {
		return nil, fmt.Errorf("failed to register %s: %w", TypeCurrencyRefresh, err)
	}
	return scheduler, nil
}

// --- Task Handlers ---

func (p *TaskProcessor) HandleEmailDeliveryTask(ctx context.Context, t *asynq.Task) error {
	var payload EmailTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal email task payload: %w: %w", err, asynq.SkipRetry)
	}
	if len(payload.To) == 0 {
		return fmt.Errorf("email task without recipients: %w", asynq.SkipRetry)
	}

	data := make(map[string]any, len(payload.Data))
	for k, v := range payload.Data {
		data[k] = v
	}
	subject, body, err := email.Render(payload.TemplateID, data)
	if err != nil {
		return fmt.Errorf("%w: %w", err, asynq.SkipRetry)
	}

	from := p.cfg.SmtpFromAddress
	if from == "" {
		from = "noreply@brixar.com.ar"
	}
	raw := email.BuildMessage(from, payload.To, subject, body, time.Now())
	if err := p.emailSender.Send(ctx, payload.To, subject, raw); err != nil {
		return err
	}

	config.GetLogger().WithFields(map[string]any{
		"to":       payload.To,
		"template": payload.TemplateID,
	}).Info("email task processed")
	return nil
}

func (p *TaskProcessor) HandleCurrencyRefreshTask(ctx context.Context, t *asynq.Task) error {
	summary, err := p.currencyService.RefreshAllRates(ctx)
	if err != nil {
		return err
	}
	if summary.Refreshed == 0 && summary.Skipped > 0 {
		return fmt.Errorf("no currency could be refreshed (%d skipped)", summary.Skipped)
	}
	return nil
}
