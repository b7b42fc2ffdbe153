// pkg/common/errors/errors.go

/*
  - 使用实例
    if errors.Is(err, errs.ErrChangePending) {
    // 409
    }

    // 需要 Meta 时:
    if hzteErr, ok := err.(*hzte.Error); ok {
    // 安全访问 Meta
    }
*/
package errors

import (
	"errors"

	hzte "github.com/cloudwego/hertz/pkg/common/errors"
)

// 定义原始错误
var (
	rawErrUserNotFound       = errors.New("user not found")
	rawErrDuplicateEntry     = errors.New("username/email already exists")
	rawErrInvalidCredentials = errors.New("invalid username or password")
	rawErrWeakPassword       = errors.New("password must be at least 8 characters and mix letters, digits and symbols")
	rawErrStaleVersion       = errors.New("record was modified concurrently")

	rawErrSelfFollow = errors.New("cannot follow yourself")

	rawErrUnknownRole            = errors.New("unknown account role")
	rawErrNoVerificationRequired = errors.New("role requires no verification")
	rawErrChangePending          = errors.New("an account change is already pending")
	rawErrNoPendingChange        = errors.New("no pending account change")
	rawErrRequestMismatch        = errors.New("request does not match the pending account change")
	rawErrChangeLocked           = errors.New("account change is submitted and can no longer be modified")
	rawErrUnknownStep            = errors.New("unknown verification step")
	rawErrDocumentNotAccepted    = errors.New("step does not accept documents")
	rawErrDocumentType           = errors.New("document type not accepted")
	rawErrDocumentTooLarge       = errors.New("document exceeds maximum size")
	rawErrNotSubmittable         = errors.New("required fields are missing")
	rawErrNotSubmitted           = errors.New("account change is not awaiting review")
	rawErrInvalidDecision        = errors.New("decision must be approved or rejected")
)

// ErrDatabaseInternal 兜底的数据库错误，不对外暴露细节
var ErrDatabaseInternal = hzte.New(errors.New("database internal error"), hzte.ErrorTypePrivate, nil)

// 包装成 Hertz 错误类型
var (
	ErrUserNotFound       = hzte.New(rawErrUserNotFound, hzte.ErrorTypePublic, nil)
	ErrDuplicateEntry     = hzte.New(rawErrDuplicateEntry, hzte.ErrorTypePublic, nil)
	ErrInvalidCredentials = hzte.New(rawErrInvalidCredentials, hzte.ErrorTypePublic, nil)
	ErrWeakPassword       = hzte.New(rawErrWeakPassword, hzte.ErrorTypePublic, nil)
	ErrStaleVersion       = hzte.New(rawErrStaleVersion, hzte.ErrorTypePublic, nil)

	ErrSelfFollow = hzte.New(rawErrSelfFollow, hzte.ErrorTypePublic, nil)

	ErrUnknownRole            = hzte.New(rawErrUnknownRole, hzte.ErrorTypePublic, nil)
	ErrNoVerificationRequired = hzte.New(rawErrNoVerificationRequired, hzte.ErrorTypePublic, nil)
	ErrChangePending          = hzte.New(rawErrChangePending, hzte.ErrorTypePublic, nil)
	ErrNoPendingChange        = hzte.New(rawErrNoPendingChange, hzte.ErrorTypePublic, nil)
	ErrRequestMismatch        = hzte.New(rawErrRequestMismatch, hzte.ErrorTypePublic, nil)
	ErrChangeLocked           = hzte.New(rawErrChangeLocked, hzte.ErrorTypePublic, nil)
	ErrUnknownStep            = hzte.New(rawErrUnknownStep, hzte.ErrorTypePublic, nil)
	ErrDocumentNotAccepted    = hzte.New(rawErrDocumentNotAccepted, hzte.ErrorTypePublic, nil)
	ErrDocumentType           = hzte.New(rawErrDocumentType, hzte.ErrorTypePublic, nil)
	ErrDocumentTooLarge       = hzte.New(rawErrDocumentTooLarge, hzte.ErrorTypePublic, nil)
	ErrNotSubmittable         = hzte.New(rawErrNotSubmittable, hzte.ErrorTypePublic, nil)
	ErrNotSubmitted           = hzte.New(rawErrNotSubmitted, hzte.ErrorTypePublic, nil)
	ErrInvalidDecision        = hzte.New(rawErrInvalidDecision, hzte.ErrorTypePublic, nil)
)

// IsPublic 判断错误是否可以原样返回给客户端
func IsPublic(err error) bool {
	var hzteErr *hzte.Error
	if errors.As(err, &hzteErr) {
		return hzteErr.IsType(hzte.ErrorTypePublic)
	}
	return false
}
