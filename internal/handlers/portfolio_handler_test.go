package handlers

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "bondfolio/internal/errors"
	"bondfolio/internal/models"
	"bondfolio/internal/pagination"
	"bondfolio/internal/services"
)

// --- mock portfolio service ---

type mockPortfolioService struct {
	createPortfolioFn  func(name, description, currency string) (*models.Portfolio, error)
	listPortfoliosFn   func(page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error)
	getPortfolioByIDFn func(id string) (*models.Portfolio, error)
	deletePortfolioFn  func(id string) error
}

var _ services.PortfolioServicer = (*mockPortfolioService)(nil)

func (m *mockPortfolioService) CreatePortfolio(name, description, currency string) (*models.Portfolio, error) {
	if m.createPortfolioFn != nil {
		return m.createPortfolioFn(name, description, currency)
	}
	return &models.Portfolio{Name: name}, nil
}

func (m *mockPortfolioService) ListPortfolios(page pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error) {
	if m.listPortfoliosFn != nil {
		return m.listPortfoliosFn(page)
	}
	resp := pagination.NewPageResponse([]models.Portfolio{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockPortfolioService) GetPortfolioByID(id string) (*models.Portfolio, error) {
	if m.getPortfolioByIDFn != nil {
		return m.getPortfolioByIDFn(id)
	}
	return &models.Portfolio{}, nil
}

func (m *mockPortfolioService) DeletePortfolio(id string) error {
	if m.deletePortfolioFn != nil {
		return m.deletePortfolioFn(id)
	}
	return nil
}

// --- mock holding service ---

type mockHoldingService struct {
	addHoldingFn     func(portfolioID string, input services.AddHoldingInput) (*models.Holding, error)
	listHoldingsFn   func(portfolioID string, includeClosed bool, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error)
	getHoldingByIDFn func(id string) (*models.Holding, error)
	updateHoldingFn  func(id string, input services.UpdateHoldingInput) (*models.Holding, error)
	closeHoldingFn   func(id string) error
}

var _ services.HoldingServicer = (*mockHoldingService)(nil)

func (m *mockHoldingService) AddHolding(portfolioID string, input services.AddHoldingInput) (*models.Holding, error) {
	if m.addHoldingFn != nil {
		return m.addHoldingFn(portfolioID, input)
	}
	return &models.Holding{}, nil
}

func (m *mockHoldingService) ListHoldings(portfolioID string, includeClosed bool, page pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
	if m.listHoldingsFn != nil {
		return m.listHoldingsFn(portfolioID, includeClosed, page)
	}
	resp := pagination.NewPageResponse([]models.Holding{}, 1, 20, 0)
	return &resp, nil
}

func (m *mockHoldingService) GetHoldingByID(id string) (*models.Holding, error) {
	if m.getHoldingByIDFn != nil {
		return m.getHoldingByIDFn(id)
	}
	return &models.Holding{}, nil
}

func (m *mockHoldingService) UpdateHolding(id string, input services.UpdateHoldingInput) (*models.Holding, error) {
	if m.updateHoldingFn != nil {
		return m.updateHoldingFn(id, input)
	}
	return &models.Holding{}, nil
}

func (m *mockHoldingService) CloseHolding(id string) error {
	if m.closeHoldingFn != nil {
		return m.closeHoldingFn(id)
	}
	return nil
}

// --- router setup ---

func setupPortfolioRouter(handler *PortfolioHandler) *gin.Engine {
	r := gin.New()
	r.POST("/portfolios", handler.CreatePortfolio)
	r.GET("/portfolios", handler.ListPortfolios)
	r.GET("/portfolios/:id", handler.GetPortfolio)
	r.DELETE("/portfolios/:id", handler.DeletePortfolio)
	r.POST("/portfolios/:id/holdings", handler.AddHolding)
	r.GET("/portfolios/:id/holdings", handler.ListHoldings)
	r.GET("/holdings/:id", handler.GetHolding)
	r.PUT("/holdings/:id", handler.UpdateHolding)
	r.DELETE("/holdings/:id", handler.CloseHolding)
	return r
}

// --- tests ---

func TestPortfolioHandler_CreatePortfolio(t *testing.T) {
	t.Run("returns_201_on_success", func(t *testing.T) {
		svc := &mockPortfolioService{
			createPortfolioFn: func(name, _, currency string) (*models.Portfolio, error) {
				return &models.Portfolio{Base: models.Base{ID: testPortfolioID}, Name: name, Currency: currency}, nil
			},
		}
		audit := &mockAuditService{}
		handler := NewPortfolioHandler(svc, &mockHoldingService{}, audit)
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "POST", "/portfolios", `{"name":"Core bonds","currency":"USD"}`)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		p := parseJSON(t, rec)["portfolio"].(map[string]interface{})
		if p["name"] != "Core bonds" {
			t.Errorf("expected name=Core bonds, got %v", p["name"])
		}
		if len(audit.actions) != 1 || audit.actions[0] != "CREATE_PORTFOLIO" {
			t.Errorf("expected CREATE_PORTFOLIO audit entry, got %v", audit.actions)
		}
	})

	t.Run("returns_400_missing_name", func(t *testing.T) {
		handler := NewPortfolioHandler(&mockPortfolioService{}, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "POST", "/portfolios", `{"description":"no name"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_invalid_currency", func(t *testing.T) {
		handler := NewPortfolioHandler(&mockPortfolioService{}, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "POST", "/portfolios", `{"name":"P","currency":"XXX"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestPortfolioHandler_ListPortfolios(t *testing.T) {
	t.Run("returns_200_with_data", func(t *testing.T) {
		svc := &mockPortfolioService{
			listPortfoliosFn: func(_ pagination.PageRequest) (*pagination.PageResponse[models.Portfolio], error) {
				resp := pagination.NewPageResponse([]models.Portfolio{{Name: "A"}, {Name: "B"}}, 1, 20, 2)
				return &resp, nil
			},
		}
		handler := NewPortfolioHandler(svc, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "GET", "/portfolios", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if len(parseJSON(t, rec)["data"].([]interface{})) != 2 {
			t.Errorf("expected 2 portfolios, got %s", rec.Body.String())
		}
	})

	t.Run("returns_400_page_size_too_large", func(t *testing.T) {
		handler := NewPortfolioHandler(&mockPortfolioService{}, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "GET", "/portfolios?page_size=1000", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestPortfolioHandler_GetPortfolio(t *testing.T) {
	t.Run("returns_200_with_current_value", func(t *testing.T) {
		svc := &mockPortfolioService{
			getPortfolioByIDFn: func(id string) (*models.Portfolio, error) {
				return &models.Portfolio{
					Base:          models.Base{ID: id},
					HoldingsCount: 2,
					CurrentValue:  decimal.NewFromInt(12000),
				}, nil
			},
		}
		handler := NewPortfolioHandler(svc, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "GET", "/portfolios/"+testPortfolioID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		p := parseJSON(t, rec)["portfolio"].(map[string]interface{})
		if p["current_value"] != "12000" {
			t.Errorf("expected current_value=\"12000\", got %v", p["current_value"])
		}
		if p["holdings_count"].(float64) != 2 {
			t.Errorf("expected holdings_count=2, got %v", p["holdings_count"])
		}
	})

	t.Run("returns_404_not_found", func(t *testing.T) {
		svc := &mockPortfolioService{
			getPortfolioByIDFn: func(_ string) (*models.Portfolio, error) {
				return nil, apperrors.ErrPortfolioNotFound
			},
		}
		handler := NewPortfolioHandler(svc, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "GET", "/portfolios/"+testPortfolioID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "PORTFOLIO_NOT_FOUND")
	})
}

func TestPortfolioHandler_DeletePortfolio(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		var deleted string
		svc := &mockPortfolioService{
			deletePortfolioFn: func(id string) error {
				deleted = id
				return nil
			},
		}
		audit := &mockAuditService{}
		handler := NewPortfolioHandler(svc, &mockHoldingService{}, audit)
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "DELETE", "/portfolios/"+testPortfolioID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if deleted != testPortfolioID {
			t.Errorf("expected %s deleted, got %s", testPortfolioID, deleted)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "DELETE_PORTFOLIO" {
			t.Errorf("expected DELETE_PORTFOLIO audit entry, got %v", audit.actions)
		}
	})

	t.Run("returns_400_invalid_id", func(t *testing.T) {
		handler := NewPortfolioHandler(&mockPortfolioService{}, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "DELETE", "/portfolios/42", "")

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}

func TestPortfolioHandler_AddHolding(t *testing.T) {
	body := `{"security_id":"` + testSecurityID + `","purchase_date":"2025-03-01",` +
		`"purchase_price":"98.5","quantity":"10","accrued_interest_paid":"5.25"}`

	t.Run("returns_201_on_success", func(t *testing.T) {
		var capturedPortfolio string
		var captured services.AddHoldingInput
		svc := &mockHoldingService{
			addHoldingFn: func(portfolioID string, input services.AddHoldingInput) (*models.Holding, error) {
				capturedPortfolio = portfolioID
				captured = input
				return &models.Holding{Base: models.Base{ID: testHoldingID}, PortfolioID: portfolioID}, nil
			},
		}
		audit := &mockAuditService{}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, audit)
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "POST", "/portfolios/"+testPortfolioID+"/holdings", body)

		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if capturedPortfolio != testPortfolioID {
			t.Errorf("expected portfolio %s, got %s", testPortfolioID, capturedPortfolio)
		}
		if !captured.PurchasePrice.Equal(decimal.RequireFromString("98.5")) {
			t.Errorf("expected purchase price 98.5, got %s", captured.PurchasePrice)
		}
		if captured.PurchaseDate.Month() != 3 || captured.PurchaseDate.Day() != 1 {
			t.Errorf("expected purchase date 2025-03-01, got %v", captured.PurchaseDate)
		}
		if len(audit.actions) != 1 || audit.actions[0] != "ADD_HOLDING" {
			t.Errorf("expected ADD_HOLDING audit entry, got %v", audit.actions)
		}
	})

	t.Run("returns_400_missing_security", func(t *testing.T) {
		handler := NewPortfolioHandler(&mockPortfolioService{}, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "POST", "/portfolios/"+testPortfolioID+"/holdings",
			`{"purchase_date":"2025-03-01","purchase_price":"98.5","quantity":"10"}`)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("returns_400_invalid_price", func(t *testing.T) {
		svc := &mockHoldingService{
			addHoldingFn: func(_ string, _ services.AddHoldingInput) (*models.Holding, error) {
				return nil, apperrors.ErrInvalidPrice
			},
		}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "POST", "/portfolios/"+testPortfolioID+"/holdings", body)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PRICE")
	})

	t.Run("returns_404_security_not_found", func(t *testing.T) {
		svc := &mockHoldingService{
			addHoldingFn: func(_ string, _ services.AddHoldingInput) (*models.Holding, error) {
				return nil, apperrors.ErrSecurityNotFound
			},
		}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "POST", "/portfolios/"+testPortfolioID+"/holdings", body)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "SECURITY_NOT_FOUND")
	})
}

func TestPortfolioHandler_ListHoldings(t *testing.T) {
	t.Run("defaults_to_current_only", func(t *testing.T) {
		includeClosed := true
		svc := &mockHoldingService{
			listHoldingsFn: func(_ string, inc bool, _ pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
				includeClosed = inc
				resp := pagination.NewPageResponse([]models.Holding{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "GET", "/portfolios/"+testPortfolioID+"/holdings", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if includeClosed {
			t.Error("expected include_closed=false by default")
		}
	})

	t.Run("passes_include_closed", func(t *testing.T) {
		includeClosed := false
		svc := &mockHoldingService{
			listHoldingsFn: func(_ string, inc bool, _ pagination.PageRequest) (*pagination.PageResponse[models.Holding], error) {
				includeClosed = inc
				resp := pagination.NewPageResponse([]models.Holding{}, 1, 20, 0)
				return &resp, nil
			},
		}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "GET", "/portfolios/"+testPortfolioID+"/holdings?include_closed=true", "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !includeClosed {
			t.Error("expected include_closed=true")
		}
	})
}

func TestPortfolioHandler_GetHolding(t *testing.T) {
	t.Run("returns_404_not_found", func(t *testing.T) {
		svc := &mockHoldingService{
			getHoldingByIDFn: func(_ string) (*models.Holding, error) {
				return nil, apperrors.ErrHoldingNotFound
			},
		}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "GET", "/holdings/"+testHoldingID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
		assertErrorCode(t, parseJSON(t, rec), "HOLDING_NOT_FOUND")
	})
}

func TestPortfolioHandler_UpdateHolding(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		var captured services.UpdateHoldingInput
		svc := &mockHoldingService{
			updateHoldingFn: func(id string, input services.UpdateHoldingInput) (*models.Holding, error) {
				captured = input
				return &models.Holding{Base: models.Base{ID: id}, Quantity: *input.Quantity}, nil
			},
		}
		audit := &mockAuditService{}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, audit)
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "PUT", "/holdings/"+testHoldingID, `{"quantity":"15"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if captured.IsCurrent != nil {
			t.Error("expected is_current to be left unset")
		}
		if len(audit.actions) != 1 || audit.actions[0] != "UPDATE_HOLDING" {
			t.Errorf("expected UPDATE_HOLDING audit entry, got %v", audit.actions)
		}
	})
}

func TestPortfolioHandler_CloseHolding(t *testing.T) {
	t.Run("returns_200_on_success", func(t *testing.T) {
		handler := NewPortfolioHandler(&mockPortfolioService{}, &mockHoldingService{}, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "DELETE", "/holdings/"+testHoldingID, "")

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
	})

	t.Run("returns_404_not_found", func(t *testing.T) {
		svc := &mockHoldingService{
			closeHoldingFn: func(_ string) error { return apperrors.ErrHoldingNotFound },
		}
		handler := NewPortfolioHandler(&mockPortfolioService{}, svc, &mockAuditService{})
		r := setupPortfolioRouter(handler)

		rec := doRequest(r, "DELETE", "/holdings/"+testHoldingID, "")

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d: %s", rec.Code, rec.Body.String())
		}
	})
}
