package errors

import "errors"

// ErrOptimisticLock 乐观锁冲突：记录已被其他操作修改
var ErrOptimisticLock = errors.New("数据已被其他操作修改，请刷新后重试")

// ErrStatusConflict 状态前置条件不满足：借用单已被其他操作流转
var ErrStatusConflict = errors.New("借用单状态已变更，请刷新后重试")
