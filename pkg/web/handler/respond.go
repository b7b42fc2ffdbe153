package handler

import (
	"context"
	"errors"
	"strings"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/cloudwego/hertz/pkg/common/utils"
	"github.com/microcosm-cc/bluemonday"

	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/web/middleware"
)

// 业务错误到 HTTP 状态码的映射，未列出的错误一律 500
var errorStatus = []struct {
	err    error
	status int
}{
	{errs.ErrUserNotFound, 404},
	{errs.ErrNoPendingChange, 404},
	{errs.ErrInvalidCredentials, 401},
	{errs.ErrDuplicateEntry, 409},
	{errs.ErrStaleVersion, 409},
	{errs.ErrChangePending, 409},
	{errs.ErrChangeLocked, 409},
	{errs.ErrRequestMismatch, 409},
	{errs.ErrNotSubmitted, 409},
	{errs.ErrWeakPassword, 400},
	{errs.ErrSelfFollow, 400},
	{errs.ErrUnknownRole, 400},
	{errs.ErrNoVerificationRequired, 400},
	{errs.ErrUnknownStep, 400},
	{errs.ErrDocumentNotAccepted, 400},
	{errs.ErrInvalidDecision, 400},
	{errs.ErrDocumentType, 415},
	{errs.ErrDocumentTooLarge, 413},
	{errs.ErrNotSubmittable, 422},
}

func statusOf(err error) int {
	for _, e := range errorStatus {
		if errors.Is(err, e.err) {
			return e.status
		}
	}
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return 503
	}
	return 500
}

// respondError 统一错误响应方法
func respondError(ctx context.Context, c *app.RequestContext, err error) {
	status := statusOf(err)
	msg := err.Error()
	switch {
	case status == 503:
		msg = "service unavailable"
	case status >= 500 || !errs.IsPublic(err):
		hlog.CtxErrorf(ctx, "%s %s failed rid=%s: %v", c.Method(), c.Path(), middleware.RequestID(c), err)
		status, msg = 500, "internal server error"
	}
	c.AbortWithStatusJSON(status, utils.H{
		"error":   msg,
		"code":    status,
		"success": false,
	})
}

// badRequest 参数绑定/校验失败
func badRequest(c *app.RequestContext, msg string) {
	c.AbortWithStatusJSON(400, utils.H{
		"error":   msg,
		"code":    400,
		"success": false,
	})
}

func respondOK(c *app.RequestContext, status int, data interface{}) {
	c.JSON(status, utils.H{
		"data":    data,
		"success": true,
	})
}

// 用户提交的自由文本只保留纯文本
var plainText = bluemonday.StrictPolicy()

func cleanText(s string) string {
	return strings.TrimSpace(plainText.Sanitize(s))
}

// caller 取出认证身份，缺失时直接返回 401
func caller(c *app.RequestContext) (*middleware.Identity, bool) {
	id, ok := middleware.CurrentUser(c)
	if !ok {
		c.AbortWithStatusJSON(401, utils.H{
			"error":   "unauthorized",
			"code":    401,
			"success": false,
		})
	}
	return id, ok
}
