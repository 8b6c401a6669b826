package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	installmentapp "github.com/bnpl/backend/internal/application/installment"
	"github.com/bnpl/backend/internal/domain/installment"
	"github.com/bnpl/backend/internal/domain/shared"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockPlanRepository implements installment.InstallmentPlanRepository for testing
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByID(ctx context.Context, id uuid.UUID) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByIDForTenant(ctx context.Context, tenantID, id uuid.UUID) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByPlanNumber(ctx context.Context, tenantID uuid.UUID, planNumber string) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, planNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindBySale(ctx context.Context, tenantID, saleID uuid.UUID) (*installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, saleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter installment.PlanFilter) ([]installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	return args.Get(0).([]installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) ([]installment.InstallmentPlan, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).([]installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) FindActiveWithDueBefore(ctx context.Context, now time.Time) ([]installment.InstallmentPlan, error) {
	args := m.Called(ctx, now)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]installment.InstallmentPlan), args.Error(1)
}

func (m *MockPlanRepository) Save(ctx context.Context, plan *installment.InstallmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) SaveWithLock(ctx context.Context, plan *installment.InstallmentPlan) error {
	args := m.Called(ctx, plan)
	return args.Error(0)
}

func (m *MockPlanRepository) CountForTenant(ctx context.Context, tenantID uuid.UUID, filter installment.PlanFilter) (int64, error) {
	args := m.Called(ctx, tenantID, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepository) CountByStatus(ctx context.Context, tenantID uuid.UUID, status installment.PlanStatus) (int64, error) {
	args := m.Called(ctx, tenantID, status)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockPlanRepository) TotalsForTenant(ctx context.Context, tenantID uuid.UUID) (installment.PlanTotals, error) {
	args := m.Called(ctx, tenantID)
	return args.Get(0).(installment.PlanTotals), args.Error(1)
}

func (m *MockPlanRepository) GeneratePlanNumber(ctx context.Context, tenantID uuid.UUID) (string, error) {
	args := m.Called(ctx, tenantID)
	return args.String(0), args.Error(1)
}

var _ installment.InstallmentPlanRepository = (*MockPlanRepository)(nil)

// Test helpers

var testTenantID = uuid.MustParse("00000000-0000-0000-0000-000000000001")

func setupPlanTestRouter() (*gin.Engine, *MockPlanRepository, *InstallmentPlanHandler) {
	gin.SetMode(gin.TestMode)

	mockRepo := new(MockPlanRepository)
	planService := installmentapp.NewPlanService(mockRepo, nil, zap.NewNop())
	sweepService := installmentapp.NewOverdueSweepService(mockRepo, nil, zap.NewNop())
	handler := NewInstallmentPlanHandler(planService, sweepService)

	return gin.New(), mockRepo, handler
}

func createTestPlan(t *testing.T, tenantID uuid.UUID, planNumber string) *installment.InstallmentPlan {
	t.Helper()

	products := installment.ProductLines{
		{ProductID: uuid.New(), Name: "Laptop", UnitPrice: decimal.NewFromInt(1200), Quantity: 1},
	}
	plan, err := installment.NewInstallmentPlan(
		tenantID,
		planNumber,
		uuid.New(),
		uuid.New(),
		products,
		decimal.NewFromInt(1200),
		decimal.NewFromInt(200),
		12,
		decimal.NewFromInt(10),
		time.Now(),
	)
	require.NoError(t, err)
	plan.ClearDomainEvents()
	return plan
}

func doRequest(router *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf *bytes.Buffer
	if body != nil {
		data, _ := json.Marshal(body)
		buf = bytes.NewBuffer(data)
	} else {
		buf = bytes.NewBuffer(nil)
	}

	req, _ := http.NewRequest(method, path, buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Tenant-ID", testTenantID.String())

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeResponse(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var response map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	return response
}

// Tests

func TestInstallmentPlanHandler_Create(t *testing.T) {
	validRequest := func() installmentapp.CreatePlanRequest {
		return installmentapp.CreatePlanRequest{
			SaleID:     uuid.New(),
			CustomerID: uuid.New(),
			Products: []installmentapp.ProductLineInput{
				{ProductID: uuid.New(), Name: "Laptop", UnitPrice: decimal.NewFromInt(1200), Quantity: 1},
			},
			TotalPrice:           decimal.NewFromInt(1200),
			DownPayment:          decimal.NewFromInt(200),
			NumberOfInstallments: 12,
			InterestRate:         decimal.NewFromInt(10),
		}
	}

	t.Run("should create plan successfully", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans", handler.Create)

		req := validRequest()
		mockRepo.On("FindBySale", mock.Anything, testTenantID, req.SaleID).
			Return(nil, shared.ErrNotFound)
		mockRepo.On("GeneratePlanNumber", mock.Anything, testTenantID).
			Return("INST-2026-00001", nil)
		mockRepo.On("Save", mock.Anything, mock.AnythingOfType("*installment.InstallmentPlan")).
			Return(nil)

		w := doRequest(router, http.MethodPost, "/plans", req)

		assert.Equal(t, http.StatusCreated, w.Code)
		response := decodeResponse(t, w)
		assert.True(t, response["success"].(bool))

		data := response["data"].(map[string]interface{})
		assert.Equal(t, "INST-2026-00001", data["plan_number"])
		assert.Equal(t, "ACTIVE", data["status"])
		assert.Len(t, data["schedule"].([]interface{}), 12)

		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 409 when sale is already financed", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans", handler.Create)

		req := validRequest()
		existing := createTestPlan(t, testTenantID, "INST-2026-00001")
		mockRepo.On("FindBySale", mock.Anything, testTenantID, req.SaleID).
			Return(existing, nil)

		w := doRequest(router, http.MethodPost, "/plans", req)

		assert.Equal(t, http.StatusConflict, w.Code)
		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 400 for missing products", func(t *testing.T) {
		router, _, handler := setupPlanTestRouter()
		router.POST("/plans", handler.Create)

		req := validRequest()
		req.Products = nil

		w := doRequest(router, http.MethodPost, "/plans", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return 400 when total price does not match product lines", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans", handler.Create)

		req := validRequest()
		req.TotalPrice = decimal.NewFromInt(999)
		mockRepo.On("FindBySale", mock.Anything, testTenantID, req.SaleID).
			Return(nil, shared.ErrNotFound)
		mockRepo.On("GeneratePlanNumber", mock.Anything, testTenantID).
			Return("INST-2026-00001", nil)

		w := doRequest(router, http.MethodPost, "/plans", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		response := decodeResponse(t, w)
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, "ERR_VALIDATION", errInfo["code"])
	})
}

func TestInstallmentPlanHandler_GetByID(t *testing.T) {
	t.Run("should get plan by ID", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.GET("/plans/:id", handler.GetByID)

		plan := createTestPlan(t, testTenantID, "INST-2026-00001")
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, plan.ID).
			Return(plan, nil)

		w := doRequest(router, http.MethodGet, "/plans/"+plan.ID.String(), nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeResponse(t, w)
		assert.True(t, response["success"].(bool))
		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 404 for non-existent plan", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.GET("/plans/:id", handler.GetByID)

		planID := uuid.New()
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, planID).
			Return(nil, shared.ErrNotFound)

		w := doRequest(router, http.MethodGet, "/plans/"+planID.String(), nil)

		assert.Equal(t, http.StatusNotFound, w.Code)
		response := decodeResponse(t, w)
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, "ERR_NOT_FOUND", errInfo["code"])
	})

	t.Run("should return 400 for invalid plan ID", func(t *testing.T) {
		router, _, handler := setupPlanTestRouter()
		router.GET("/plans/:id", handler.GetByID)

		w := doRequest(router, http.MethodGet, "/plans/not-a-uuid", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInstallmentPlanHandler_List(t *testing.T) {
	t.Run("should list plans with pagination meta", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.GET("/plans", handler.List)

		plan := createTestPlan(t, testTenantID, "INST-2026-00001")
		mockRepo.On("FindAllForTenant", mock.Anything, testTenantID, mock.AnythingOfType("installment.PlanFilter")).
			Return([]installment.InstallmentPlan{*plan}, nil)
		mockRepo.On("CountForTenant", mock.Anything, testTenantID, mock.AnythingOfType("installment.PlanFilter")).
			Return(int64(1), nil)

		w := doRequest(router, http.MethodGet, "/plans?page=1&page_size=20", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeResponse(t, w)
		assert.True(t, response["success"].(bool))
		assert.Len(t, response["data"].([]interface{}), 1)

		meta := response["meta"].(map[string]interface{})
		assert.Equal(t, float64(1), meta["total"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 400 for invalid page size", func(t *testing.T) {
		router, _, handler := setupPlanTestRouter()
		router.GET("/plans", handler.List)

		w := doRequest(router, http.MethodGet, "/plans?page_size=500", nil)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestInstallmentPlanHandler_RecordPayment(t *testing.T) {
	t.Run("should record payment", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans/:id/payments", handler.RecordPayment)

		plan := createTestPlan(t, testTenantID, "INST-2026-00001")
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, plan.ID).
			Return(plan, nil)
		mockRepo.On("SaveWithLock", mock.Anything, plan).
			Return(nil)

		req := installmentapp.RecordPaymentRequest{
			InstallmentIndex: 0,
			Amount:           decimal.NewFromInt(50),
		}
		w := doRequest(router, http.MethodPost, "/plans/"+plan.ID.String()+"/payments", req)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "50", data["total_paid"])
		mockRepo.AssertExpectations(t)
	})

	t.Run("should return 400 for installment index out of range", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans/:id/payments", handler.RecordPayment)

		plan := createTestPlan(t, testTenantID, "INST-2026-00001")
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, plan.ID).
			Return(plan, nil)

		req := installmentapp.RecordPaymentRequest{
			InstallmentIndex: 99,
			Amount:           decimal.NewFromInt(50),
		}
		w := doRequest(router, http.MethodPost, "/plans/"+plan.ID.String()+"/payments", req)

		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("should return 422 when plan is not active", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans/:id/payments", handler.RecordPayment)

		plan := createTestPlan(t, testTenantID, "INST-2026-00001")
		require.NoError(t, plan.Cancel())
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, plan.ID).
			Return(plan, nil)

		req := installmentapp.RecordPaymentRequest{
			InstallmentIndex: 0,
			Amount:           decimal.NewFromInt(50),
		}
		w := doRequest(router, http.MethodPost, "/plans/"+plan.ID.String()+"/payments", req)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		response := decodeResponse(t, w)
		errInfo := response["error"].(map[string]interface{})
		assert.Equal(t, "ERR_INVALID_STATE", errInfo["code"])
	})
}

func TestInstallmentPlanHandler_Cancel(t *testing.T) {
	t.Run("should cancel active plan", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans/:id/cancel", handler.Cancel)

		plan := createTestPlan(t, testTenantID, "INST-2026-00001")
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, plan.ID).
			Return(plan, nil)
		mockRepo.On("SaveWithLock", mock.Anything, plan).
			Return(nil)

		w := doRequest(router, http.MethodPost, "/plans/"+plan.ID.String()+"/cancel", nil)

		assert.Equal(t, http.StatusOK, w.Code)
		response := decodeResponse(t, w)
		data := response["data"].(map[string]interface{})
		assert.Equal(t, "CANCELLED", data["status"])
	})

	t.Run("should return 422 for terminal plan", func(t *testing.T) {
		router, mockRepo, handler := setupPlanTestRouter()
		router.POST("/plans/:id/cancel", handler.Cancel)

		plan := createTestPlan(t, testTenantID, "INST-2026-00001")
		require.NoError(t, plan.MarkDefaulted())
		mockRepo.On("FindByIDForTenant", mock.Anything, testTenantID, plan.ID).
			Return(plan, nil)

		w := doRequest(router, http.MethodPost, "/plans/"+plan.ID.String()+"/cancel", nil)

		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	})
}

func TestInstallmentPlanHandler_PortfolioSummary(t *testing.T) {
	router, mockRepo, handler := setupPlanTestRouter()
	router.GET("/plans/summary", handler.PortfolioSummary)

	mockRepo.On("CountByStatus", mock.Anything, testTenantID, installment.PlanStatusActive).
		Return(int64(3), nil)
	mockRepo.On("CountByStatus", mock.Anything, testTenantID, installment.PlanStatusCompleted).
		Return(int64(5), nil)
	mockRepo.On("CountByStatus", mock.Anything, testTenantID, installment.PlanStatusDefaulted).
		Return(int64(1), nil)
	mockRepo.On("CountByStatus", mock.Anything, testTenantID, installment.PlanStatusCancelled).
		Return(int64(2), nil)
	mockRepo.On("TotalsForTenant", mock.Anything, testTenantID).
		Return(installment.PlanTotals{
			TotalFinanced:    decimal.NewFromInt(10000),
			TotalCollected:   decimal.NewFromInt(6000),
			TotalOutstanding: decimal.NewFromInt(4000),
		}, nil)

	w := doRequest(router, http.MethodGet, "/plans/summary", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(3), data["active_plans"])
	assert.Equal(t, float64(5), data["completed_plans"])
	mockRepo.AssertExpectations(t)
}

func TestInstallmentPlanHandler_SweepOverdue(t *testing.T) {
	router, mockRepo, handler := setupPlanTestRouter()
	router.POST("/plans/sweep-overdue", handler.SweepOverdue)

	plan := createTestPlan(t, testTenantID, "INST-2026-00001")
	// Backdate the first line so the sweep has something to mark
	plan.Payments[0].DueDate = time.Now().AddDate(0, -1, 0)

	mockRepo.On("FindActiveWithDueBefore", mock.Anything, mock.AnythingOfType("time.Time")).
		Return([]installment.InstallmentPlan{*plan}, nil)
	mockRepo.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*installment.InstallmentPlan")).
		Return(nil)

	w := doRequest(router, http.MethodPost, "/plans/sweep-overdue", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	response := decodeResponse(t, w)
	data := response["data"].(map[string]interface{})
	assert.Equal(t, float64(1), data["plans_scanned"])
	assert.Equal(t, float64(1), data["plans_updated"])
	assert.Equal(t, float64(1), data["lines_marked"])
	mockRepo.AssertExpectations(t)
}
