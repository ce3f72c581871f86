package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Isaaja/wimas-app-sub000/config"
	"github.com/Isaaja/wimas-app-sub000/internal/dto"
	"github.com/Isaaja/wimas-app-sub000/internal/service"
	"github.com/Isaaja/wimas-app-sub000/pkg/response"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ═══════════════════════════════════════════════════════════
// Mock Services
// ═══════════════════════════════════════════════════════════

// ── Mock AuthService ──

type mockAuthService struct {
	loginResult      *dto.TokenResponse
	loginErr         error
	registerResult   *dto.RegisterResponse
	registerErr      error
	refreshResult    *dto.TokenResponse
	refreshErr       error
	logoutErr        error
	changePassErr    error
	getCurrentResult *dto.UserResponse
	getCurrentErr    error
}

func (m *mockAuthService) Login(_ context.Context, _ *dto.LoginRequest) (*dto.TokenResponse, error) {
	return m.loginResult, m.loginErr
}
func (m *mockAuthService) Register(_ context.Context, _ *dto.RegisterRequest) (*dto.RegisterResponse, error) {
	return m.registerResult, m.registerErr
}
func (m *mockAuthService) Refresh(_ context.Context, _ *dto.RefreshTokenRequest) (*dto.TokenResponse, error) {
	return m.refreshResult, m.refreshErr
}
func (m *mockAuthService) Logout(_ context.Context, _ string, _ time.Time) error {
	return m.logoutErr
}
func (m *mockAuthService) ChangePassword(_ context.Context, _ string, _ *dto.ChangePasswordRequest) error {
	return m.changePassErr
}
func (m *mockAuthService) GetCurrentUser(_ context.Context, _ string) (*dto.UserResponse, error) {
	return m.getCurrentResult, m.getCurrentErr
}

// ── Mock LoanService ──

type mockLoanService struct {
	createResult   *dto.LoanDetailResponse
	createErr      error
	createGotFile  bool
	updateResult   *dto.LoanDetailResponse
	updateErr      error
	approveResult  *dto.LoanDetailResponse
	approveErr     error
	rejectResult   *dto.LoanDetailResponse
	rejectErr      error
	returnResult   *dto.LoanDetailResponse
	returnErr      error
	completeResult *dto.LoanDetailResponse
	completeErr    error
	listResult     []dto.LoanResponse
	listTotal      int64
	listErr        error
	getResult      *dto.LoanDetailResponse
	getErr         error
}

func (m *mockLoanService) Create(_ context.Context, _ *dto.CreateLoanRequest, file *service.SPTFile, _ string) (*dto.LoanDetailResponse, error) {
	m.createGotFile = file != nil
	return m.createResult, m.createErr
}
func (m *mockLoanService) UpdateRequestItems(_ context.Context, _ string, _ *dto.UpdateLoanItemsRequest, _ string) (*dto.LoanDetailResponse, error) {
	return m.updateResult, m.updateErr
}
func (m *mockLoanService) Approve(_ context.Context, _ string, _ *dto.ApproveLoanRequest, _ string) (*dto.LoanDetailResponse, error) {
	return m.approveResult, m.approveErr
}
func (m *mockLoanService) Reject(_ context.Context, _, _ string) (*dto.LoanDetailResponse, error) {
	return m.rejectResult, m.rejectErr
}
func (m *mockLoanService) Return(_ context.Context, _, _ string) (*dto.LoanDetailResponse, error) {
	return m.returnResult, m.returnErr
}
func (m *mockLoanService) Complete(_ context.Context, _ string, _ *dto.CompleteLoanRequest, _ string) (*dto.LoanDetailResponse, error) {
	return m.completeResult, m.completeErr
}
func (m *mockLoanService) List(_ context.Context, _ *dto.LoanListRequest, _, _ string) ([]dto.LoanResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockLoanService) GetByID(_ context.Context, _, _, _ string) (*dto.LoanDetailResponse, error) {
	return m.getResult, m.getErr
}

// ── Mock ProductService ──

type mockProductService struct {
	listResult      []dto.ProductResponse
	listTotal       int64
	listErr         error
	getResult       *dto.ProductResponse
	getErr          error
	unitsResult     []dto.UnitResponse
	unitsErr        error
	repairResult    *dto.UnitResponse
	repairErr       error
	stockCheckValue *dto.StockCheckResponse
	stockCheckErr   error
}

func (m *mockProductService) List(_ context.Context, _ *dto.ProductListRequest) ([]dto.ProductResponse, int64, error) {
	return m.listResult, m.listTotal, m.listErr
}
func (m *mockProductService) GetByID(_ context.Context, _ string) (*dto.ProductResponse, error) {
	return m.getResult, m.getErr
}
func (m *mockProductService) ListUnits(_ context.Context, _ string, _ *dto.UnitListRequest) ([]dto.UnitResponse, error) {
	return m.unitsResult, m.unitsErr
}
func (m *mockProductService) RepairUnit(_ context.Context, _ *dto.RepairUnitRequest, _ string) (*dto.UnitResponse, error) {
	return m.repairResult, m.repairErr
}
func (m *mockProductService) StockCheck(_ context.Context) (*dto.StockCheckResponse, error) {
	return m.stockCheckValue, m.stockCheckErr
}

// ── Mock ExportService ──

type mockExportService struct {
	buf      *bytes.Buffer
	filename string
	err      error
}

func (m *mockExportService) ExportLoans(_ context.Context) (*bytes.Buffer, string, error) {
	return m.buf, m.filename, m.err
}

// ═══════════════════════════════════════════════════════════
// Test Helpers
// ═══════════════════════════════════════════════════════════

func testConfig() *config.Config {
	return &config.Config{
		Upload: config.UploadConfig{
			MaxFileSize:  5 << 20,
			AllowedMIMEs: []string{"application/pdf"},
		},
	}
}

func setAuth(userID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Set("role", role)
		c.Set("jti", "test-jti")
		c.Set("token_exp", time.Now().Add(15*time.Minute))
	}
}

func jsonBody(v interface{}) io.Reader {
	b, _ := json.Marshal(v)
	return bytes.NewReader(b)
}

func parseResponse(w *httptest.ResponseRecorder) response.Response {
	var resp response.Response
	json.Unmarshal(w.Body.Bytes(), &resp)
	return resp
}

// multipartBody 构造借用申请的 multipart 请求体
func multipartBody(t *testing.T, payload interface{}, fileField, fileName, contentType string, fileContent []byte) (io.Reader, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	b, _ := json.Marshal(payload)
	if err := w.WriteField("payload", string(b)); err != nil {
		t.Fatalf("write payload field: %v", err)
	}

	if fileField != "" {
		header := textproto.MIMEHeader{}
		header.Set("Content-Disposition", `form-data; name="`+fileField+`"; filename="`+fileName+`"`)
		header.Set("Content-Type", contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("create file part: %v", err)
		}
		if _, err := part.Write(fileContent); err != nil {
			t.Fatalf("write file part: %v", err)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("close multipart writer: %v", err)
	}
	return &buf, w.FormDataContentType()
}

func validCreatePayload() dto.CreateLoanRequest {
	return dto.CreateLoanRequest{
		Items:          []dto.LoanItemRequest{{ProductID: "2a3c9f9e-0000-4000-8000-000000000001", Quantity: 1}},
		SPTNumber:      "SPT/2025/001",
		Destination:    "测区 A",
		ExecutionPlace: "某某山区",
		StartDate:      "2025-06-01",
		EndDate:        "2025-06-05",
	}
}

// ═══════════════════════════════════════════════════════════
// AuthHandler Tests
// ═══════════════════════════════════════════════════════════

func TestAuthHandler_Login_Success(t *testing.T) {
	mock := &mockAuthService{
		loginResult: &dto.TokenResponse{
			AccessToken:  "test-access-token",
			RefreshToken: "test-refresh-token",
			ExpiresIn:    900,
		},
	}
	h := NewAuthHandler(mock)

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		EmployeeID: "E001",
		Password:   "secret123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 0 {
		t.Errorf("expected code 0, got %d", resp.Code)
	}
}

func TestAuthHandler_Login_BadJSON(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", bytes.NewReader([]byte("invalid json")))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestAuthHandler_Login_InvalidCredentials(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{loginErr: service.ErrInvalidCredentials})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/login", jsonBody(dto.LoginRequest{
		EmployeeID: "E001",
		Password:   "wrong",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/login", h.Login)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("expected 401, got %d", w.Code)
	}
	if resp := parseResponse(w); resp.Code != 11001 {
		t.Errorf("expected error code 11001, got %d", resp.Code)
	}
}

func TestAuthHandler_Register_Conflict(t *testing.T) {
	h := NewAuthHandler(&mockAuthService{registerErr: service.ErrEmployeeIDTaken})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/auth/register", jsonBody(dto.RegisterRequest{
		Name:       "张三",
		EmployeeID: "E001",
		Email:      "z@test.local",
		Password:   "secret123",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/auth/register", h.Register)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// LoanHandler Tests
// ═══════════════════════════════════════════════════════════

func TestLoanHandler_Create_Multipart(t *testing.T) {
	mock := &mockLoanService{createResult: &dto.LoanDetailResponse{
		LoanResponse: dto.LoanResponse{ID: "loan-1", Status: "REQUESTED"},
	}}
	h := NewLoanHandler(testConfig(), mock)

	body, contentType := multipartBody(t, validCreatePayload(), "spt_file", "spt.pdf", "application/pdf", []byte("%PDF-1.4 fake"))

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/loans", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/loans", setAuth("u-1", "BORROWER"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d (body=%s)", w.Code, w.Body.String())
	}
	if !mock.createGotFile {
		t.Error("expected file forwarded to service")
	}
}

func TestLoanHandler_Create_MissingPayload(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{})

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	mw.Close()

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/loans", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	r := gin.New()
	r.POST("/loans", setAuth("u-1", "BORROWER"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLoanHandler_Create_WrongMIME(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{})

	body, contentType := multipartBody(t, validCreatePayload(), "spt_file", "spt.exe", "application/octet-stream", []byte{0x4D, 0x5A})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/loans", body)
	req.Header.Set("Content-Type", contentType)

	r := gin.New()
	r.POST("/loans", setAuth("u-1", "BORROWER"), h.Create)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLoanHandler_Approve_Conflict(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{approveErr: service.ErrLoanAlreadyDecided})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/loans/loan-1/approve", jsonBody(dto.ApproveLoanRequest{
		Assignments: []dto.ProductAssignment{{
			ProductID: "2a3c9f9e-0000-4000-8000-000000000001",
			UnitIDs:   []string{"2a3c9f9e-0000-4000-8000-000000000002"},
		}},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/loans/:id/approve", setAuth("u-admin", "ADMIN"), h.Approve)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestLoanHandler_Approve_QuantityMismatch(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{approveErr: service.ErrQuantityMismatch})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/loans/loan-1/approve", jsonBody(dto.ApproveLoanRequest{
		Assignments: []dto.ProductAssignment{{
			ProductID: "2a3c9f9e-0000-4000-8000-000000000001",
			UnitIDs:   []string{"2a3c9f9e-0000-4000-8000-000000000002"},
		}},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/loans/:id/approve", setAuth("u-admin", "ADMIN"), h.Approve)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLoanHandler_Return_Forbidden(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{returnErr: service.ErrNotLoanOwner})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/loans/loan-1/return", nil)

	r := gin.New()
	r.POST("/loans/:id/return", setAuth("u-2", "BORROWER"), h.Return)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Errorf("expected 403, got %d", w.Code)
	}
}

func TestLoanHandler_Done_Incomplete(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{completeErr: service.ErrConditionIncomplete})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/loans/loan-1/done", jsonBody(dto.CompleteLoanRequest{
		Conditions: []dto.UnitConditionRequest{{
			UnitID:    "2a3c9f9e-0000-4000-8000-000000000002",
			Condition: "GOOD",
		}},
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.POST("/loans/:id/done", setAuth("u-admin", "ADMIN"), h.Done)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", w.Code)
	}
}

func TestLoanHandler_Get_NotFound(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{getErr: service.ErrLoanNotFound})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/loans/loan-ghost", nil)

	r := gin.New()
	r.GET("/loans/:id", setAuth("u-admin", "ADMIN"), h.Get)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}

func TestLoanHandler_List_Paged(t *testing.T) {
	h := NewLoanHandler(testConfig(), &mockLoanService{
		listResult: []dto.LoanResponse{{ID: "loan-1"}},
		listTotal:  1,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/loans?status=REQUESTED&page=1&page_size=10", nil)

	r := gin.New()
	r.GET("/loans", setAuth("u-admin", "ADMIN"), h.List)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

// ═══════════════════════════════════════════════════════════
// ProductHandler / ExportHandler Tests
// ═══════════════════════════════════════════════════════════

func TestProductHandler_RepairUnit_Conflict(t *testing.T) {
	h := NewProductHandler(&mockProductService{repairErr: service.ErrUnitNotDamaged})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("PUT", "/products/p-1/units/repair", jsonBody(dto.RepairUnitRequest{
		UnitID:    "2a3c9f9e-0000-4000-8000-000000000002",
		Condition: "GOOD",
	}))
	req.Header.Set("Content-Type", "application/json")

	r := gin.New()
	r.PUT("/products/:id/units/repair", setAuth("u-admin", "ADMIN"), h.RepairUnit)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("expected 409, got %d", w.Code)
	}
}

func TestProductHandler_StockCheck(t *testing.T) {
	h := NewProductHandler(&mockProductService{stockCheckValue: &dto.StockCheckResponse{Healthy: true}})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/products/stock-check", nil)

	r := gin.New()
	r.GET("/products/stock-check", setAuth("u-admin", "ADMIN"), h.StockCheck)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
}

func TestExportHandler_ExportLoans(t *testing.T) {
	h := NewExportHandler(&mockExportService{
		buf:      bytes.NewBufferString("xlsx-bytes"),
		filename: "借用台账_20250601.xlsx",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/loans", nil)

	r := gin.New()
	r.GET("/export/loans", setAuth("u-admin", "ADMIN"), h.ExportLoans)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", w.Code)
	}
	if cd := w.Header().Get("Content-Disposition"); cd == "" {
		t.Error("expected Content-Disposition header")
	}
}

func TestExportHandler_ExportLoans_Empty(t *testing.T) {
	h := NewExportHandler(&mockExportService{err: service.ErrExportNoLoans})

	w := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/export/loans", nil)

	r := gin.New()
	r.GET("/export/loans", setAuth("u-admin", "ADMIN"), h.ExportLoans)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected 404, got %d", w.Code)
	}
}
