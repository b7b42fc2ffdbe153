package errors

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"gorm.io/gorm"
)

// region 错误处理工具函数

// WrapGormError 将底层数据库错误转变为业务可识别错误
// 参数说明：
//   - rawErr: 原始GORM错误
//   - notFound: 记录不存在时返回的业务错误，为 nil 时保留 gorm.ErrRecordNotFound
//
// 返回值：
//   - error: 标准化错误类型
func WrapGormError(rawErr error, notFound error) error {
	if rawErr == nil {
		return nil
	}

	// 处理预定义的GORM错误
	switch {
	case errors.Is(rawErr, gorm.ErrRecordNotFound):
		if notFound != nil {
			return notFound
		}
		return rawErr
	case errors.Is(rawErr, gorm.ErrDuplicatedKey):
		return ErrDuplicateEntry
	case errors.Is(rawErr, context.Canceled), errors.Is(rawErr, context.DeadlineExceeded):
		return rawErr
	}

	// 处理MySQL驱动错误
	var mysqlErr *mysql.MySQLError
	if errors.As(rawErr, &mysqlErr) {
		switch mysqlErr.Number {
		case 1062: // 唯一性约束冲突
			return ErrDuplicateEntry
		case 1044, 1045, 1048, 1049, 1146: // 权限、连接、表不存在等错误
			return fmt.Errorf("%w: %s", ErrDatabaseInternal, mysqlErr.Message)
		}
	}

	if errors.Is(rawErr, gorm.ErrInvalidDB) ||
		errors.Is(rawErr, gorm.ErrInvalidTransaction) ||
		errors.Is(rawErr, gorm.ErrUnsupportedRelation) {
		return fmt.Errorf("%w: %v", ErrDatabaseInternal, rawErr)
	}

	// 兜底处理：附加原始错误信息
	return fmt.Errorf("%w: %v", ErrDatabaseInternal, rawErr)
}

// IsDuplicateError 判断是否为重复记录错误
func IsDuplicateError(err error) bool {
	if errors.Is(err, ErrDuplicateEntry) || errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var mysqlErr *mysql.MySQLError
	return errors.As(err, &mysqlErr) && mysqlErr.Number == 1062
}
