package service

import (
	"context"
	"fmt"
	"io"
	"sort"
	"sync"
	"time"

	"gorm.io/gorm"

	"github.com/Isaaja/wimas-app-sub000/internal/model"
	"github.com/Isaaja/wimas-app-sub000/internal/repository"
	pkgerrors "github.com/Isaaja/wimas-app-sub000/pkg/errors"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // key: user_id
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "user-" + user.EmployeeID
	}
	m.users[user.UserID] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	if u, ok := m.users[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmployeeID(_ context.Context, employeeID string) (*model.User, error) {
	for _, u := range m.users {
		if u.EmployeeID == employeeID {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	for _, u := range m.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) ListByIDs(_ context.Context, ids []string) ([]model.User, error) {
	var result []model.User
	for _, id := range ids {
		if u, ok := m.users[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) ListAdmins(_ context.Context) ([]model.User, error) {
	var result []model.User
	for _, u := range m.users {
		if u.Role == model.RoleAdmin {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.UserID] = user
	return nil
}

// ── Mock ProductRepository ──

type mockProductRepo struct {
	products map[string]*model.Product
	order    []string
}

func newMockProductRepo() *mockProductRepo {
	return &mockProductRepo{products: make(map[string]*model.Product)}
}

func (m *mockProductRepo) add(p *model.Product) {
	m.products[p.ProductID] = p
	m.order = append(m.order, p.ProductID)
}

func (m *mockProductRepo) GetByID(_ context.Context, id string) (*model.Product, error) {
	if p, ok := m.products[id]; ok {
		return p, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockProductRepo) ListByIDs(_ context.Context, ids []string) ([]model.Product, error) {
	var result []model.Product
	for _, id := range ids {
		if p, ok := m.products[id]; ok {
			result = append(result, *p)
		}
	}
	return result, nil
}

func (m *mockProductRepo) List(_ context.Context, categoryID, keyword string, offset, limit int) ([]model.Product, int64, error) {
	var all []model.Product
	for _, id := range m.order {
		p := m.products[id]
		if categoryID != "" && p.CategoryID != categoryID {
			continue
		}
		all = append(all, *p)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockProductRepo) ListAll(_ context.Context) ([]model.Product, error) {
	var all []model.Product
	for _, id := range m.order {
		all = append(all, *m.products[id])
	}
	return all, nil
}

func (m *mockProductRepo) AddAvailable(_ context.Context, productID string, delta int) error {
	p, ok := m.products[productID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	p.Available += delta
	return nil
}

// ── Mock ProductUnitRepository ──

type mockUnitRepo struct {
	units map[string]*model.ProductUnit
	order []string
	loans *mockLoanRepo // DoubleBoundUnitIDs 需要读绑定表
}

func newMockUnitRepo(loans *mockLoanRepo) *mockUnitRepo {
	return &mockUnitRepo{units: make(map[string]*model.ProductUnit), loans: loans}
}

func (m *mockUnitRepo) add(u *model.ProductUnit) {
	m.units[u.UnitID] = u
	m.order = append(m.order, u.UnitID)
}

func (m *mockUnitRepo) GetByID(_ context.Context, id string) (*model.ProductUnit, error) {
	if u, ok := m.units[id]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUnitRepo) ListByProduct(_ context.Context, productID, status string) ([]model.ProductUnit, error) {
	var result []model.ProductUnit
	for _, id := range m.order {
		u := m.units[id]
		if u.ProductID != productID {
			continue
		}
		if status != "" && u.Status != status {
			continue
		}
		result = append(result, *u)
	}
	return result, nil
}

func (m *mockUnitRepo) ListByIDsForUpdate(_ context.Context, ids []string) ([]model.ProductUnit, error) {
	sorted := append([]string(nil), ids...)
	sort.Strings(sorted)
	var result []model.ProductUnit
	for _, id := range sorted {
		if u, ok := m.units[id]; ok {
			result = append(result, *u)
		}
	}
	return result, nil
}

func (m *mockUnitRepo) CountAssignable(_ context.Context, productID string) (int64, error) {
	var n int64
	for _, u := range m.units {
		if u.ProductID == productID && u.Assignable() {
			n++
		}
	}
	return n, nil
}

func (m *mockUnitRepo) AssignableCounts(_ context.Context) ([]repository.AssignableCount, error) {
	byProduct := make(map[string]int64)
	for _, u := range m.units {
		if u.Assignable() {
			byProduct[u.ProductID]++
		}
	}
	var result []repository.AssignableCount
	for pid, n := range byProduct {
		result = append(result, repository.AssignableCount{ProductID: pid, Count: n})
	}
	return result, nil
}

func (m *mockUnitRepo) MarkLoaned(_ context.Context, ids []string) error {
	// 与真实实现一致：仅 AVAILABLE+GOOD 的行生效，数目不符即失败
	var affected int
	for _, id := range ids {
		if u, ok := m.units[id]; ok && u.Assignable() {
			affected++
		}
	}
	if affected != len(ids) {
		return pkgerrors.ErrOptimisticLock
	}
	for _, id := range ids {
		m.units[id].Status = model.UnitStatusLoaned
		m.units[id].Version++
	}
	return nil
}

func (m *mockUnitRepo) SetCondition(_ context.Context, unitID, status, condition, note string) error {
	u, ok := m.units[unitID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	u.Status = status
	u.Condition = condition
	if note != "" {
		u.Note = note
	}
	u.Version++
	return nil
}

func (m *mockUnitRepo) DoubleBoundUnitIDs(_ context.Context) ([]string, error) {
	if m.loans == nil {
		return nil, nil
	}
	count := make(map[string]int)
	for i := range m.loans.items {
		if m.loans.items[i].ReleasedAt == nil {
			count[m.loans.items[i].UnitID]++
		}
	}
	var ids []string
	for id, n := range count {
		if n > 1 {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

// ── Mock LoanRepository ──

type mockLoanRepo struct {
	loans        map[string]*model.Loan
	order        []string
	requestItems map[string][]model.LoanRequestItem
	items        []model.LoanItem
	participants map[string][]model.LoanParticipant
	reports      map[string]*model.Report
	seq          int
}

func newMockLoanRepo() *mockLoanRepo {
	return &mockLoanRepo{
		loans:        make(map[string]*model.Loan),
		requestItems: make(map[string][]model.LoanRequestItem),
		participants: make(map[string][]model.LoanParticipant),
		reports:      make(map[string]*model.Report),
	}
}

func (m *mockLoanRepo) Create(_ context.Context, loan *model.Loan) error {
	if loan.LoanID == "" {
		m.seq++
		loan.LoanID = fmt.Sprintf("loan-%d", m.seq)
	}
	if loan.Status == "" {
		loan.Status = model.LoanStatusRequested
	}
	loan.CreatedAt = time.Now()
	loan.UpdatedAt = time.Now()
	m.loans[loan.LoanID] = loan
	m.order = append(m.order, loan.LoanID)
	return nil
}

func (m *mockLoanRepo) GetByID(_ context.Context, id string) (*model.Loan, error) {
	loan, ok := m.loans[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	out := *loan
	out.RequestItems = append([]model.LoanRequestItem(nil), m.requestItems[id]...)
	for i := range m.items {
		if m.items[i].LoanID == id {
			out.Items = append(out.Items, m.items[i])
		}
	}
	out.Participants = append([]model.LoanParticipant(nil), m.participants[id]...)
	if r, ok := m.reports[id]; ok {
		report := *r
		out.Report = &report
	}
	return &out, nil
}

func (m *mockLoanRepo) GetForUpdate(_ context.Context, id string) (*model.Loan, error) {
	if loan, ok := m.loans[id]; ok {
		out := *loan
		return &out, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockLoanRepo) List(_ context.Context, borrowerID, status string, offset, limit int) ([]model.Loan, int64, error) {
	var all []model.Loan
	for _, id := range m.order {
		loan := m.loans[id]
		if borrowerID != "" && loan.BorrowerID != borrowerID {
			continue
		}
		if status != "" && loan.Status != status {
			continue
		}
		all = append(all, *loan)
	}
	total := int64(len(all))
	if offset >= len(all) {
		return nil, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (m *mockLoanRepo) ListAllForExport(ctx context.Context) ([]model.Loan, error) {
	var all []model.Loan
	for _, id := range m.order {
		loan, _ := m.GetByID(ctx, id)
		all = append(all, *loan)
	}
	return all, nil
}

func (m *mockLoanRepo) TransitionStatus(_ context.Context, loanID, from, to, actorID string) error {
	loan, ok := m.loans[loanID]
	if !ok || loan.Status != from {
		return pkgerrors.ErrStatusConflict
	}
	loan.Status = to
	loan.UpdatedBy = &actorID
	loan.UpdatedAt = time.Now()
	loan.Version++
	return nil
}

func (m *mockLoanRepo) CreateRequestItems(_ context.Context, items []model.LoanRequestItem) error {
	for i := range items {
		if items[i].RequestItemID == "" {
			m.seq++
			items[i].RequestItemID = fmt.Sprintf("ri-%d", m.seq)
		}
		m.requestItems[items[i].LoanID] = append(m.requestItems[items[i].LoanID], items[i])
	}
	return nil
}

func (m *mockLoanRepo) ReplaceRequestItems(ctx context.Context, loanID string, items []model.LoanRequestItem) error {
	delete(m.requestItems, loanID)
	return m.CreateRequestItems(ctx, items)
}

func (m *mockLoanRepo) DeleteRequestItems(_ context.Context, loanID string) error {
	delete(m.requestItems, loanID)
	return nil
}

func (m *mockLoanRepo) ListRequestItems(_ context.Context, loanID string) ([]model.LoanRequestItem, error) {
	return append([]model.LoanRequestItem(nil), m.requestItems[loanID]...), nil
}

func (m *mockLoanRepo) CreateItems(_ context.Context, items []model.LoanItem) error {
	for i := range items {
		if items[i].LoanItemID == "" {
			m.seq++
			items[i].LoanItemID = fmt.Sprintf("li-%d", m.seq)
		}
		items[i].CreatedAt = time.Now()
		m.items = append(m.items, items[i])
	}
	return nil
}

func (m *mockLoanRepo) ListBoundUnitIDs(_ context.Context, loanID string) ([]string, error) {
	seen := make(map[string]bool)
	var ids []string
	for i := range m.items {
		it := &m.items[i]
		if it.LoanID == loanID && it.ReleasedAt == nil && !seen[it.UnitID] {
			seen[it.UnitID] = true
			ids = append(ids, it.UnitID)
		}
	}
	return ids, nil
}

func (m *mockLoanRepo) ReleaseItems(_ context.Context, loanID string, at time.Time) error {
	for i := range m.items {
		if m.items[i].LoanID == loanID && m.items[i].ReleasedAt == nil {
			t := at
			m.items[i].ReleasedAt = &t
		}
	}
	return nil
}

func (m *mockLoanRepo) CreateParticipants(_ context.Context, participants []model.LoanParticipant) error {
	for i := range participants {
		m.participants[participants[i].LoanID] = append(m.participants[participants[i].LoanID], participants[i])
	}
	return nil
}

func (m *mockLoanRepo) CreateReport(_ context.Context, report *model.Report) error {
	m.reports[report.LoanID] = report
	return nil
}

// ── Mock FileStorage / Notifier ──

type mockStorage struct {
	url     string
	err     error
	uploads int
}

func (m *mockStorage) Upload(_ context.Context, _ io.Reader, _ string, _ int64, _ string) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	m.uploads++
	return m.url, nil
}

type mockNotifier struct {
	mu    sync.Mutex
	sent  [][]string
	fired chan struct{}
}

func newMockNotifier() *mockNotifier {
	return &mockNotifier{fired: make(chan struct{}, 8)}
}

func (m *mockNotifier) Send(to []string, _, _ string) error {
	m.mu.Lock()
	m.sent = append(m.sent, to)
	m.mu.Unlock()
	m.fired <- struct{}{}
	return nil
}

func (m *mockNotifier) sentCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sent)
}
