package handlers_test

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/stretchr/testify/mock"

	"github.com/Legalistas/brixar-sub002/internal/models"
	"github.com/Legalistas/brixar-sub002/internal/services"
	"github.com/Legalistas/brixar-sub002/internal/storage"
)

// --- Mocks ---

// MockUserService implements services.IUserService.
type MockUserService struct {
	mock.Mock
}

func (m *MockUserService) Register(ctx context.Context, name, email, password string) (*models.User, error) {
	args := m.Called(ctx, name, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByID(ctx context.Context, userID uint) (*models.User, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockUserService) EnsureUser(ctx context.Context, name, email, password string, role models.Role) (*models.User, error) {
	args := m.Called(ctx, name, email, password, role)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockInquiryService implements services.IInquiryService.
type MockInquiryService struct {
	mock.Mock
}

func (m *MockInquiryService) inquiry(args mock.Arguments) (*models.Inquiry, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) CreateInquiry(ctx context.Context, p services.Principal, in services.CreateInquiryInput) (*models.Inquiry, error) {
	return m.inquiry(m.Called(ctx, p, in))
}

func (m *MockInquiryService) PostMessage(ctx context.Context, p services.Principal, inquiryID uint, message string) (*models.InquiryMessage, error) {
	args := m.Called(ctx, p, inquiryID, message)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.InquiryMessage), args.Error(1)
}

func (m *MockInquiryService) UpdateInquiry(ctx context.Context, p services.Principal, inquiryID uint, patch services.InquiryPatch) (*models.Inquiry, error) {
	return m.inquiry(m.Called(ctx, p, inquiryID, patch))
}

func (m *MockInquiryService) ListInquiries(ctx context.Context, p services.Principal) ([]models.Inquiry, error) {
	args := m.Called(ctx, p)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) ListInquiriesByProperty(ctx context.Context, p services.Principal, propertyID uint) ([]models.Inquiry, error) {
	args := m.Called(ctx, p, propertyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Inquiry), args.Error(1)
}

func (m *MockInquiryService) GetInquiry(ctx context.Context, p services.Principal, inquiryID uint) (*models.Inquiry, error) {
	return m.inquiry(m.Called(ctx, p, inquiryID))
}

func (m *MockInquiryService) ListMessages(ctx context.Context, p services.Principal, inquiryID uint) ([]models.InquiryMessage, error) {
	args := m.Called(ctx, p, inquiryID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.InquiryMessage), args.Error(1)
}

func (m *MockInquiryService) DeleteInquiry(ctx context.Context, p services.Principal, inquiryID uint) error {
	return m.Called(ctx, p, inquiryID).Error(0)
}

func (m *MockInquiryService) AcceptAsAdmin(ctx context.Context, p services.Principal, inquiryID uint) (*models.Inquiry, bool, error) {
	args := m.Called(ctx, p, inquiryID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Inquiry), args.Bool(1), args.Error(2)
}

func (m *MockInquiryService) AcceptAsClient(ctx context.Context, p services.Principal, inquiryID uint) (*models.Inquiry, bool, error) {
	args := m.Called(ctx, p, inquiryID)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*models.Inquiry), args.Bool(1), args.Error(2)
}

func (m *MockInquiryService) CompleteTransaction(ctx context.Context, p services.Principal, inquiryID uint, in services.CompleteTransactionInput) (*models.Sale, error) {
	args := m.Called(ctx, p, inquiryID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Sale), args.Error(1)
}

// MockSaleService implements services.ISaleService.
type MockSaleService struct {
	mock.Mock
}

func (m *MockSaleService) sale(args mock.Arguments) (*models.Sale, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Sale), args.Error(1)
}

func (m *MockSaleService) sales(args mock.Arguments) ([]models.Sale, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Sale), args.Error(1)
}

func (m *MockSaleService) CreateSale(ctx context.Context, p services.Principal, in services.CreateSaleInput) (*models.Sale, error) {
	return m.sale(m.Called(ctx, p, in))
}

func (m *MockSaleService) ListSales(ctx context.Context, p services.Principal, status *models.SaleStatus) ([]models.Sale, error) {
	return m.sales(m.Called(ctx, p, status))
}

func (m *MockSaleService) ListSalesAdmin(ctx context.Context, p services.Principal) ([]models.Sale, error) {
	return m.sales(m.Called(ctx, p))
}

func (m *MockSaleService) ListSalesForBuyer(ctx context.Context, p services.Principal) ([]models.Sale, error) {
	return m.sales(m.Called(ctx, p))
}

func (m *MockSaleService) GetSale(ctx context.Context, p services.Principal, saleID uint) (*models.Sale, error) {
	return m.sale(m.Called(ctx, p, saleID))
}

func (m *MockSaleService) UpdateSale(ctx context.Context, p services.Principal, saleID uint, patch services.SalePatch) (*models.Sale, error) {
	return m.sale(m.Called(ctx, p, saleID, patch))
}

func (m *MockSaleService) AddDocument(ctx context.Context, p services.Principal, saleID uint, in services.AddDocumentInput) (*models.Sale, error) {
	return m.sale(m.Called(ctx, p, saleID, in))
}

func (m *MockSaleService) AddTransaction(ctx context.Context, p services.Principal, saleID uint, in services.AddTransactionInput) (*models.SaleTransaction, error) {
	args := m.Called(ctx, p, saleID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SaleTransaction), args.Error(1)
}

func (m *MockSaleService) ListTransactions(ctx context.Context, p services.Principal, saleID uint) ([]models.SaleTransaction, error) {
	args := m.Called(ctx, p, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.SaleTransaction), args.Error(1)
}

// MockCurrencyService implements services.ICurrencyService.
type MockCurrencyService struct {
	mock.Mock
}

func (m *MockCurrencyService) ListCurrencies(ctx context.Context) ([]models.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Currency), args.Error(1)
}

func (m *MockCurrencyService) GetCurrency(ctx context.Context, code string) (*models.Currency, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Currency), args.Error(1)
}

func (m *MockCurrencyService) CreateCurrency(ctx context.Context, p services.Principal, in services.CurrencyInput) (*models.Currency, error) {
	args := m.Called(ctx, p, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Currency), args.Error(1)
}

func (m *MockCurrencyService) UpdateCurrency(ctx context.Context, p services.Principal, code string, patch services.CurrencyPatch) (*models.Currency, error) {
	args := m.Called(ctx, p, code, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Currency), args.Error(1)
}

func (m *MockCurrencyService) UpdateDollarRate(ctx context.Context) (*models.Currency, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Currency), args.Error(1)
}

func (m *MockCurrencyService) RefreshAllRates(ctx context.Context) (*services.RefreshSummary, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RefreshSummary), args.Error(1)
}

func (m *MockCurrencyService) GetRate(ctx context.Context, code string) (*services.RateView, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RateView), args.Error(1)
}

// MockS3Storage implements storage.IS3Storage.
type MockS3Storage struct {
	mock.Mock
}

func (m *MockS3Storage) PresignSaleDocument(ctx context.Context, saleID uint, filename, contentType string) (*storage.Upload, error) {
	args := m.Called(ctx, saleID, filename, contentType)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*storage.Upload), args.Error(1)
}

// MockAsynqClient implements handlers.IAsynqClient
type MockAsynqClient struct {
	mock.Mock
}

func (m *MockAsynqClient) EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error) {
	mockArgs := []interface{}{ctx, task}
	for _, opt := range opts {
		mockArgs = append(mockArgs, opt)
	}
	args := m.Called(mockArgs...)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*asynq.TaskInfo), args.Error(1)
}
