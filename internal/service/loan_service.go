package service

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/Isaaja/wimas-app-sub000/internal/dto"
	"github.com/Isaaja/wimas-app-sub000/internal/model"
	"github.com/Isaaja/wimas-app-sub000/internal/repository"
	pkgerrors "github.com/Isaaja/wimas-app-sub000/pkg/errors"
)

// ── 借用模块业务错误 ──

var (
	ErrLoanNotFound        = errors.New("借用单不存在")
	ErrProductNotFound     = errors.New("物资不存在")
	ErrUnitNotFound        = errors.New("单元不存在")
	ErrInvitedUserNotFound = errors.New("受邀用户不存在")
	ErrInvalidDate         = errors.New("日期格式无效，应为 YYYY-MM-DD")
	ErrInvalidDateRange    = errors.New("结束日期不能早于开始日期")
	ErrDuplicateProduct    = errors.New("申请行中存在重复物资")
	ErrLoanAlreadyDecided  = errors.New("借用单已被裁决")
	ErrLoanNotReturnable   = errors.New("仅已批准的借用单可归还")
	ErrLoanNotCompletable  = errors.New("仅已批准或已归还的借用单可验收")
	ErrNotLoanOwner        = errors.New("仅借用发起人可执行该操作")
	ErrNoRequestItems      = errors.New("借用单没有申请行")
	ErrQuantityMismatch    = errors.New("选定单元数量与申请数量不一致")
	ErrProductNotRequested = errors.New("分配了未申请的物资")
	ErrDuplicateUnit       = errors.New("同一单元被重复选定")
	ErrUnitNotAssignable   = errors.New("单元当前不可分配")
	ErrUnitProductMismatch = errors.New("单元不属于对应物资")
	ErrInsufficientStock   = errors.New("可分配单元不足")
	ErrConditionIncomplete = errors.New("验收判定未覆盖全部借出单元")
	ErrUnitNotInLoan       = errors.New("单元不属于该借用单")
	ErrUploadFailed        = errors.New("附件上传失败")
)

const dateLayout = "2006-01-02"

// SPTFile 上传的 SPT 附件（MIME 与大小已在 Handler 层校验）
type SPTFile struct {
	Reader      io.Reader
	FileName    string
	Size        int64
	ContentType string
}

// LoanService 借用业务接口
//
// 状态机约定（除列出的边外一律冲突）：
//
//	REQUESTED → APPROVED | REJECTED
//	APPROVED  → RETURNED | DONE
//	RETURNED  → DONE
//
// 所有写操作显式接收操作者 ID，不读取任何隐式请求上下文
type LoanService interface {
	Create(ctx context.Context, req *dto.CreateLoanRequest, file *SPTFile, borrowerID string) (*dto.LoanDetailResponse, error)
	UpdateRequestItems(ctx context.Context, loanID string, req *dto.UpdateLoanItemsRequest, actorID string) (*dto.LoanDetailResponse, error)
	Approve(ctx context.Context, loanID string, req *dto.ApproveLoanRequest, actorID string) (*dto.LoanDetailResponse, error)
	Reject(ctx context.Context, loanID, actorID string) (*dto.LoanDetailResponse, error)
	Return(ctx context.Context, loanID, actorID string) (*dto.LoanDetailResponse, error)
	Complete(ctx context.Context, loanID string, req *dto.CompleteLoanRequest, actorID string) (*dto.LoanDetailResponse, error)
	List(ctx context.Context, req *dto.LoanListRequest, actorID, actorRole string) ([]dto.LoanResponse, int64, error)
	GetByID(ctx context.Context, loanID, actorID, actorRole string) (*dto.LoanDetailResponse, error)
}

type loanService struct {
	repo     *repository.Repository
	storage  FileStorage
	notifier Notifier
	logger   *zap.Logger
}

// NewLoanService 创建 LoanService 实例
func NewLoanService(repo *repository.Repository, storage FileStorage, notifier Notifier, logger *zap.Logger) LoanService {
	return &loanService{repo: repo, storage: storage, notifier: notifier, logger: logger}
}

// ────────────────────── Create（提交申请） ──────────────────────

func (s *loanService) Create(ctx context.Context, req *dto.CreateLoanRequest, file *SPTFile, borrowerID string) (*dto.LoanDetailResponse, error) {
	// 1. 日期校验
	startDate, err := time.Parse(dateLayout, req.StartDate)
	if err != nil {
		return nil, fmt.Errorf("%w: start_date", ErrInvalidDate)
	}
	endDate, err := time.Parse(dateLayout, req.EndDate)
	if err != nil {
		return nil, fmt.Errorf("%w: end_date", ErrInvalidDate)
	}
	if endDate.Before(startDate) {
		return nil, fmt.Errorf("%w: start_date=%s end_date=%s", ErrInvalidDateRange, req.StartDate, req.EndDate)
	}

	// 2. 申请行去重校验
	productIDs := make([]string, 0, len(req.Items))
	seen := make(map[string]bool, len(req.Items))
	for _, item := range req.Items {
		if seen[item.ProductID] {
			return nil, fmt.Errorf("%w: product=%s", ErrDuplicateProduct, item.ProductID)
		}
		seen[item.ProductID] = true
		productIDs = append(productIDs, item.ProductID)
	}

	// 3. 物资存在性校验
	products, err := s.repo.Product.ListByIDs(ctx, productIDs)
	if err != nil {
		s.logger.Error("查询物资失败", zap.Error(err))
		return nil, err
	}
	if len(products) != len(productIDs) {
		found := make(map[string]bool, len(products))
		for i := range products {
			found[products[i].ProductID] = true
		}
		for _, id := range productIDs {
			if !found[id] {
				return nil, fmt.Errorf("%w: product=%s", ErrProductNotFound, id)
			}
		}
	}

	// 4. 受邀人校验（发起人不计入受邀列表）
	invited := make([]string, 0, len(req.InvitedUserIDs))
	for _, id := range req.InvitedUserIDs {
		if id != borrowerID {
			invited = append(invited, id)
		}
	}
	if len(invited) > 0 {
		users, err := s.repo.User.ListByIDs(ctx, invited)
		if err != nil {
			s.logger.Error("查询受邀用户失败", zap.Error(err))
			return nil, err
		}
		if len(users) != len(invited) {
			found := make(map[string]bool, len(users))
			for i := range users {
				found[users[i].UserID] = true
			}
			for _, id := range invited {
				if !found[id] {
					return nil, fmt.Errorf("%w: user=%s", ErrInvitedUserNotFound, id)
				}
			}
		}
	}

	// 5. 上传附件（失败则中止申请：附件是必要材料的一部分）
	var fileURL string
	if file != nil {
		fileURL, err = s.storage.Upload(ctx, file.Reader, file.FileName, file.Size, file.ContentType)
		if err != nil {
			s.logger.Error("SPT 附件上传失败", zap.Error(err))
			return nil, fmt.Errorf("%w: %v", ErrUploadFailed, err)
		}
	}

	// 6. 事务写入：借用单 + 参与人 + 申请行 + 报告
	loan := &model.Loan{
		BorrowerID: borrowerID,
		Status:     model.LoanStatusRequested,
	}
	loan.CreatedBy = &borrowerID

	err = s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		if err := tx.Loan.Create(ctx, loan); err != nil {
			return err
		}

		participants := make([]model.LoanParticipant, 0, len(invited)+1)
		participants = append(participants, model.LoanParticipant{
			LoanID: loan.LoanID,
			UserID: borrowerID,
			Role:   model.ParticipantOwner,
		})
		for _, id := range invited {
			participants = append(participants, model.LoanParticipant{
				LoanID: loan.LoanID,
				UserID: id,
				Role:   model.ParticipantInvited,
			})
		}
		if err := tx.Loan.CreateParticipants(ctx, participants); err != nil {
			return err
		}

		items := make([]model.LoanRequestItem, 0, len(req.Items))
		for _, item := range req.Items {
			items = append(items, model.LoanRequestItem{
				LoanID:    loan.LoanID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}
		if err := tx.Loan.CreateRequestItems(ctx, items); err != nil {
			return err
		}

		return tx.Loan.CreateReport(ctx, &model.Report{
			LoanID:         loan.LoanID,
			SPTNumber:      req.SPTNumber,
			Destination:    req.Destination,
			ExecutionPlace: req.ExecutionPlace,
			StartDate:      startDate,
			EndDate:        endDate,
			SPTFile:        fileURL,
		})
	})
	if err != nil {
		s.logger.Error("创建借用单失败", zap.Error(err))
		return nil, err
	}

	// 7. 异步提醒管理员（发送失败不影响申请结果）
	go s.notifyAdmins(loan.LoanID, req.SPTNumber)

	return s.loadDetail(ctx, loan.LoanID)
}

// ────────────────────── UpdateRequestItems（批准前改量） ──────────────────────

func (s *loanService) UpdateRequestItems(ctx context.Context, loanID string, req *dto.UpdateLoanItemsRequest, actorID string) (*dto.LoanDetailResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		loan, err := tx.Loan.GetForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.Decided() {
			return fmt.Errorf("%w: status=%s", ErrLoanAlreadyDecided, loan.Status)
		}

		// 逐行校验：物资存在且可分配单元数足够（仅改申请行，不动单元状态）
		seen := make(map[string]bool, len(req.Items))
		items := make([]model.LoanRequestItem, 0, len(req.Items))
		for _, item := range req.Items {
			if seen[item.ProductID] {
				return fmt.Errorf("%w: product=%s", ErrDuplicateProduct, item.ProductID)
			}
			seen[item.ProductID] = true

			if _, err := tx.Product.GetByID(ctx, item.ProductID); err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return fmt.Errorf("%w: product=%s", ErrProductNotFound, item.ProductID)
				}
				return err
			}
			n, err := tx.Unit.CountAssignable(ctx, item.ProductID)
			if err != nil {
				return err
			}
			if n < int64(item.Quantity) {
				return fmt.Errorf("%w: product=%s 需要=%d 可用=%d",
					ErrInsufficientStock, item.ProductID, item.Quantity, n)
			}
			items = append(items, model.LoanRequestItem{
				LoanID:    loanID,
				ProductID: item.ProductID,
				Quantity:  item.Quantity,
			})
		}

		return tx.Loan.ReplaceRequestItems(ctx, loanID, items)
	})
	if err != nil {
		return nil, err
	}

	return s.loadDetail(ctx, loanID)
}

// ────────────────────── Approve（批准并绑定单元） ──────────────────────
//
// 全部校验与写入在单个事务内完成；任何一步失败整体回滚，
// 借用单与单元状态保持原样，允许修正后重试。

func (s *loanService) Approve(ctx context.Context, loanID string, req *dto.ApproveLoanRequest, actorID string) (*dto.LoanDetailResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		// 1. 锁定借用单并复核状态（并发裁决防护）
		loan, err := tx.Loan.GetForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if loan.Decided() {
			return fmt.Errorf("%w: status=%s", ErrLoanAlreadyDecided, loan.Status)
		}

		requestItems, err := tx.Loan.ListRequestItems(ctx, loanID)
		if err != nil {
			return err
		}
		if len(requestItems) == 0 {
			return ErrNoRequestItems
		}

		// 2. 分配校验：数量精确匹配 + 跨物资去重
		wanted := make(map[string]int, len(requestItems))
		for i := range requestItems {
			wanted[requestItems[i].ProductID] = requestItems[i].Quantity
		}

		unitProduct := make(map[string]string) // unit_id → 所属分配的 product_id
		allUnitIDs := make([]string, 0)
		assigned := make(map[string]bool, len(req.Assignments))
		for _, a := range req.Assignments {
			qty, ok := wanted[a.ProductID]
			if !ok {
				return fmt.Errorf("%w: product=%s", ErrProductNotRequested, a.ProductID)
			}
			if assigned[a.ProductID] {
				return fmt.Errorf("%w: product=%s", ErrDuplicateProduct, a.ProductID)
			}
			assigned[a.ProductID] = true

			if len(a.UnitIDs) != qty {
				return fmt.Errorf("%w: product=%s 申请=%d 选定=%d",
					ErrQuantityMismatch, a.ProductID, qty, len(a.UnitIDs))
			}
			for _, unitID := range a.UnitIDs {
				if _, dup := unitProduct[unitID]; dup {
					return fmt.Errorf("%w: unit=%s", ErrDuplicateUnit, unitID)
				}
				unitProduct[unitID] = a.ProductID
				allUnitIDs = append(allUnitIDs, unitID)
			}
		}
		for productID, qty := range wanted {
			if !assigned[productID] {
				return fmt.Errorf("%w: product=%s 申请=%d 选定=0",
					ErrQuantityMismatch, productID, qty)
			}
		}

		// 3. 锁定选定单元并逐一复核可分配性
		units, err := tx.Unit.ListByIDsForUpdate(ctx, allUnitIDs)
		if err != nil {
			return err
		}
		if len(units) != len(allUnitIDs) {
			found := make(map[string]bool, len(units))
			for i := range units {
				found[units[i].UnitID] = true
			}
			for _, id := range allUnitIDs {
				if !found[id] {
					return fmt.Errorf("%w: unit=%s", ErrUnitNotFound, id)
				}
			}
		}
		for i := range units {
			u := &units[i]
			if unitProduct[u.UnitID] != u.ProductID {
				return fmt.Errorf("%w: unit=%s product=%s", ErrUnitProductMismatch, u.SerialNumber, u.ProductID)
			}
			if !u.Assignable() {
				return fmt.Errorf("%w: unit=%s status=%s condition=%s",
					ErrUnitNotAssignable, u.SerialNumber, u.Status, u.Condition)
			}
		}

		// 4. 写入：绑定 → 占用单元 → 清理申请行 → 扣减展示计数 → 状态流转
		loanItems := make([]model.LoanItem, 0, len(allUnitIDs))
		for _, unitID := range allUnitIDs {
			loanItems = append(loanItems, model.LoanItem{LoanID: loanID, UnitID: unitID})
		}
		if err := tx.Loan.CreateItems(ctx, loanItems); err != nil {
			return err
		}
		if err := tx.Unit.MarkLoaned(ctx, allUnitIDs); err != nil {
			return err
		}
		if err := tx.Loan.DeleteRequestItems(ctx, loanID); err != nil {
			return err
		}
		for _, a := range req.Assignments {
			if err := tx.Product.AddAvailable(ctx, a.ProductID, -len(a.UnitIDs)); err != nil {
				return err
			}
		}
		if err := tx.Loan.TransitionStatus(ctx, loanID, model.LoanStatusRequested, model.LoanStatusApproved, actorID); err != nil {
			if errors.Is(err, pkgerrors.ErrStatusConflict) {
				return fmt.Errorf("%w: 并发操作已裁决该借用单", ErrLoanAlreadyDecided)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("借用单已批准", zap.String("loan_id", loanID), zap.String("actor", actorID))
	return s.loadDetail(ctx, loanID)
}

// ────────────────────── Reject（驳回） ──────────────────────

func (s *loanService) Reject(ctx context.Context, loanID, actorID string) (*dto.LoanDetailResponse, error) {
	if _, err := s.repo.Loan.GetByID(ctx, loanID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}

	// 驳回不动任何单元/库存状态，仅 CAS 状态列
	err := s.repo.Loan.TransitionStatus(ctx, loanID, model.LoanStatusRequested, model.LoanStatusRejected, actorID)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrStatusConflict) {
			return nil, ErrLoanAlreadyDecided
		}
		s.logger.Error("驳回借用单失败", zap.String("loan_id", loanID), zap.Error(err))
		return nil, err
	}

	s.logger.Info("借用单已驳回", zap.String("loan_id", loanID), zap.String("actor", actorID))
	return s.loadDetail(ctx, loanID)
}

// ────────────────────── Return（借用人归还） ──────────────────────
//
// 归还仅流转状态，单元保持 LOANED 等待管理员验收
// （物理归还但尚未检查的中间态）。

func (s *loanService) Return(ctx context.Context, loanID, actorID string) (*dto.LoanDetailResponse, error) {
	loan, err := s.repo.Loan.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		return nil, err
	}
	if loan.BorrowerID != actorID {
		return nil, ErrNotLoanOwner
	}

	if err := s.repo.Loan.TransitionStatus(ctx, loanID, model.LoanStatusApproved, model.LoanStatusReturned, actorID); err != nil {
		if errors.Is(err, pkgerrors.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: status=%s", ErrLoanNotReturnable, loan.Status)
		}
		s.logger.Error("归还借用单失败", zap.String("loan_id", loanID), zap.Error(err))
		return nil, err
	}

	return s.loadDetail(ctx, loanID)
}

// ────────────────────── Complete（管理员验收完成） ──────────────────────
//
// 判定表必须恰好覆盖借用单绑定的全部去重单元：
// 缺一驳回、多一驳回，不做任何默认判定。

func (s *loanService) Complete(ctx context.Context, loanID string, req *dto.CompleteLoanRequest, actorID string) (*dto.LoanDetailResponse, error) {
	err := s.repo.Transaction(ctx, func(tx *repository.Repository) error {
		loan, err := tx.Loan.GetForUpdate(ctx, loanID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrLoanNotFound
			}
			return err
		}
		if !loan.Active() {
			return fmt.Errorf("%w: status=%s", ErrLoanNotCompletable, loan.Status)
		}

		boundIDs, err := tx.Loan.ListBoundUnitIDs(ctx, loanID)
		if err != nil {
			return err
		}

		// 判定表完整性校验
		judged := make(map[string]dto.UnitConditionRequest, len(req.Conditions))
		for _, c := range req.Conditions {
			if _, dup := judged[c.UnitID]; dup {
				return fmt.Errorf("%w: unit=%s", ErrDuplicateUnit, c.UnitID)
			}
			judged[c.UnitID] = c
		}
		bound := make(map[string]bool, len(boundIDs))
		for _, id := range boundIDs {
			bound[id] = true
			if _, ok := judged[id]; !ok {
				return fmt.Errorf("%w: unit=%s", ErrConditionIncomplete, id)
			}
		}
		for id := range judged {
			if !bound[id] {
				return fmt.Errorf("%w: unit=%s", ErrUnitNotInLoan, id)
			}
		}

		// 锁定单元，按判定写回状态
		units, err := tx.Unit.ListByIDsForUpdate(ctx, boundIDs)
		if err != nil {
			return err
		}
		for i := range units {
			u := &units[i]
			c := judged[u.UnitID]
			if c.Condition == model.UnitConditionGood {
				if err := tx.Unit.SetCondition(ctx, u.UnitID, model.UnitStatusAvailable, model.UnitConditionGood, c.Note); err != nil {
					return err
				}
				if err := tx.Product.AddAvailable(ctx, u.ProductID, 1); err != nil {
					return err
				}
			} else {
				// 受损单元退出可借池，等待修复操作
				if err := tx.Unit.SetCondition(ctx, u.UnitID, model.UnitStatusDamaged, model.UnitConditionDamaged, c.Note); err != nil {
					return err
				}
			}
		}

		if err := tx.Loan.ReleaseItems(ctx, loanID, time.Now()); err != nil {
			return err
		}
		if err := tx.Loan.TransitionStatus(ctx, loanID, loan.Status, model.LoanStatusDone, actorID); err != nil {
			if errors.Is(err, pkgerrors.ErrStatusConflict) {
				return fmt.Errorf("%w: 并发操作已流转该借用单", ErrLoanNotCompletable)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("借用单验收完成", zap.String("loan_id", loanID), zap.String("actor", actorID))
	return s.loadDetail(ctx, loanID)
}

// ────────────────────── List / GetByID（读模型） ──────────────────────

func (s *loanService) List(ctx context.Context, req *dto.LoanListRequest, actorID, actorRole string) ([]dto.LoanResponse, int64, error) {
	req.Normalize()

	// 借用人仅能看到自己的借用单
	borrowerID := ""
	if actorRole != model.RoleAdmin {
		borrowerID = actorID
	}

	loans, total, err := s.repo.Loan.List(ctx, borrowerID, req.Status, (req.Page-1)*req.PageSize, req.PageSize)
	if err != nil {
		s.logger.Error("查询借用单列表失败", zap.Error(err))
		return nil, 0, err
	}

	result := make([]dto.LoanResponse, 0, len(loans))
	for i := range loans {
		result = append(result, *toLoanResponse(&loans[i]))
	}
	return result, total, nil
}

func (s *loanService) GetByID(ctx context.Context, loanID, actorID, actorRole string) (*dto.LoanDetailResponse, error) {
	loan, err := s.repo.Loan.GetByID(ctx, loanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLoanNotFound
		}
		s.logger.Error("查询借用单失败", zap.String("loan_id", loanID), zap.Error(err))
		return nil, err
	}

	// 借用人仅能查看自己参与的借用单
	if actorRole != model.RoleAdmin {
		allowed := false
		for i := range loan.Participants {
			if loan.Participants[i].UserID == actorID {
				allowed = true
				break
			}
		}
		if !allowed {
			return nil, ErrNotLoanOwner
		}
	}

	return toLoanDetailResponse(loan), nil
}

// ── 内部辅助方法 ──

func (s *loanService) loadDetail(ctx context.Context, loanID string) (*dto.LoanDetailResponse, error) {
	loan, err := s.repo.Loan.GetByID(ctx, loanID)
	if err != nil {
		s.logger.Error("回读借用单失败", zap.String("loan_id", loanID), zap.Error(err))
		return nil, err
	}
	return toLoanDetailResponse(loan), nil
}

func (s *loanService) notifyAdmins(loanID, sptNumber string) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	admins, err := s.repo.User.ListAdmins(ctx)
	if err != nil {
		s.logger.Warn("查询管理员列表失败，跳过提醒", zap.Error(err))
		return
	}
	if len(admins) == 0 {
		return
	}

	to := make([]string, 0, len(admins))
	for i := range admins {
		to = append(to, admins[i].Email)
	}

	subject := fmt.Sprintf("新的借用申请待审批（SPT %s）", sptNumber)
	body := fmt.Sprintf("借用单 %s 已提交，请登录系统审批。", loanID)
	if err := s.notifier.Send(to, subject, body); err != nil {
		s.logger.Warn("审批提醒邮件发送失败",
			zap.String("loan_id", loanID),
			zap.Error(err),
		)
	}
}

func toLoanResponse(loan *model.Loan) *dto.LoanResponse {
	resp := &dto.LoanResponse{
		ID:         loan.LoanID,
		BorrowerID: loan.BorrowerID,
		Status:     loan.Status,
		CreatedAt:  loan.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  loan.UpdatedAt.Format(time.RFC3339),
	}
	if loan.Borrower != nil {
		resp.BorrowerName = loan.Borrower.Name
	}
	if loan.Report != nil {
		resp.SPTNumber = loan.Report.SPTNumber
		resp.Destination = loan.Report.Destination
	}
	return resp
}

func toLoanDetailResponse(loan *model.Loan) *dto.LoanDetailResponse {
	detail := &dto.LoanDetailResponse{LoanResponse: *toLoanResponse(loan)}

	for i := range loan.RequestItems {
		item := &loan.RequestItems[i]
		r := dto.RequestItemResponse{
			ID:        item.RequestItemID,
			ProductID: item.ProductID,
			Quantity:  item.Quantity,
		}
		if item.Product != nil {
			r.ProductName = item.Product.Name
		}
		detail.RequestItems = append(detail.RequestItems, r)
	}

	for i := range loan.Items {
		item := &loan.Items[i]
		r := dto.LoanItemResponse{
			ID:     item.LoanItemID,
			UnitID: item.UnitID,
		}
		if item.ReleasedAt != nil {
			r.ReleasedAt = item.ReleasedAt.Format(time.RFC3339)
		}
		if item.Unit != nil {
			r.SerialNumber = item.Unit.SerialNumber
			r.ProductID = item.Unit.ProductID
		}
		detail.Items = append(detail.Items, r)
	}

	for i := range loan.Participants {
		p := &loan.Participants[i]
		r := dto.ParticipantResponse{UserID: p.UserID, Role: p.Role}
		if p.User != nil {
			r.Name = p.User.Name
		}
		detail.Participants = append(detail.Participants, r)
	}

	if loan.Report != nil {
		detail.Report = &dto.ReportResponse{
			SPTNumber:      loan.Report.SPTNumber,
			Destination:    loan.Report.Destination,
			ExecutionPlace: loan.Report.ExecutionPlace,
			StartDate:      loan.Report.StartDate.Format(dateLayout),
			EndDate:        loan.Report.EndDate.Format(dateLayout),
			SPTFile:        loan.Report.SPTFile,
		}
	}

	return detail
}
