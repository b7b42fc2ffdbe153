package handler

import (
	"context"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/app"
	"github.com/cloudwego/hertz/pkg/common/utils"

	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/core/storage"
	usermodel "sanchari/pkg/core/user/model"
	vmodel "sanchari/pkg/core/verification/model"
	vsvc "sanchari/pkg/core/verification/service"
	"sanchari/pkg/web/model"
)

// MaxWait 长轮询的最长等待时间
const MaxWait = 30 * time.Second

type VerificationHandler struct {
	gate  *vsvc.StepGate
	files *storage.LocalStore
}

func NewVerificationHandler(gate *vsvc.StepGate, files *storage.LocalStore) *VerificationHandler {
	return &VerificationHandler{gate: gate, files: files}
}

func (h *VerificationHandler) Steps(ctx context.Context, c *app.RequestContext) {
	role := c.Param("role")
	steps, err := h.gate.StepsForRole(role)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.StepsRes{Role: role, Steps: steps})
}

func (h *VerificationHandler) Start(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req model.StartChangeReq
	if err := c.BindAndValidate(&req); err != nil {
		badRequest(c, "参数错误")
		return
	}

	change, err := h.gate.StartChange(ctx, id.UID, strings.TrimSpace(req.Role))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 201, model.ChangeRes{Change: change})
}

// Current 返回进行中的变更。带 wait 参数时为长轮询：
// 有新快照立即返回，否则等到超时后返回当前快照。
// since 为客户端已知的 updatedAt，服务端更新过则不再等待。
func (h *VerificationHandler) Current(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}

	var wait time.Duration
	if raw := c.Query("wait"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil || d < 0 {
			badRequest(c, "wait must be a duration such as 30s")
			return
		}
		wait = min(d, MaxWait)
	}

	if wait == 0 {
		change, err := h.gate.GetPendingChange(ctx, id.UID)
		if err != nil {
			respondError(ctx, c, err)
			return
		}
		respondOK(c, 200, model.ChangeRes{Change: change})
		return
	}

	sub, err := h.gate.Subscribe(ctx, id.UID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	defer sub.Unsubscribe()

	if since, err := time.Parse(time.RFC3339Nano, c.Query("since")); err == nil {
		if cur := sub.Current(); cur != nil && cur.UpdatedAt.After(since) {
			respondOK(c, 200, model.ChangeRes{Change: cur})
			return
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()

	var change *vmodel.PendingChange
	select {
	case change = <-sub.Updates():
	case <-timer.C:
		change = sub.Current()
	case <-ctx.Done():
		change = sub.Current()
	}
	respondOK(c, 200, model.ChangeRes{Change: change})
}

func (h *VerificationHandler) SaveStep(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req model.SaveStepReq
	if err := c.BindAndValidate(&req); err != nil {
		badRequest(c, "参数错误")
		return
	}

	form := make(map[string]string, len(req.Form))
	for k, v := range req.Form {
		form[k] = cleanText(v)
	}

	change, err := h.gate.SaveStep(ctx, id.UID, c.Param("step"), form)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.ChangeRes{Change: change})
}

func (h *VerificationHandler) Advance(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	res, err := h.gate.Advance(ctx, id.UID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}

	status := 200
	if !res.Errors.OK() {
		status = 422
	}
	respondOK(c, status, model.AdvanceRes{Change: res.Change, Errors: res.Errors, Completed: res.Completed})
}

func (h *VerificationHandler) Abort(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	if err := h.gate.Abort(ctx, id.UID); err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.ChangeRes{})
}

// UploadDocument 接收 multipart 字段 "file"
func (h *VerificationHandler) UploadDocument(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	fh, err := c.FormFile("file")
	if err != nil {
		badRequest(c, "missing multipart field: file")
		return
	}
	f, err := fh.Open()
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	defer f.Close()

	change, err := h.gate.UploadStepDocument(ctx, id.UID, c.Param("request"), c.Param("step"), vsvc.Document{
		Name:        fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
		Size:        fh.Size,
		Body:        f,
	})
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.ChangeRes{Change: change})
}

func (h *VerificationHandler) Submittable(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	requestID := c.Param("request")

	// 普通用户只能查询自己进行中的变更
	if id.Role != usermodel.RoleAdmin {
		change, err := h.gate.GetPendingChange(ctx, id.UID)
		if err != nil {
			respondError(ctx, c, err)
			return
		}
		if change == nil {
			respondError(ctx, c, errs.ErrNoPendingChange)
			return
		}
		if change.RequestID != requestID {
			respondError(ctx, c, errs.ErrRequestMismatch)
			return
		}
	}

	submittable, err := h.gate.CanSubmit(ctx, requestID)
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.SubmittableRes{RequestID: requestID, Submittable: submittable})
}

func (h *VerificationHandler) Submit(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	change, err := h.gate.Submit(ctx, id.UID, c.Param("request"))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.ChangeRes{Change: change})
}

// Review 管理员审核，通过时同时授予目标角色
func (h *VerificationHandler) Review(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}
	var req model.ReviewReq
	if err := c.BindAndValidate(&req); err != nil {
		badRequest(c, "decision must be approved or rejected")
		return
	}

	change, err := h.gate.Review(ctx, c.Param("request"), vmodel.Status(req.Decision), id.UID, cleanText(req.Notes))
	if err != nil {
		respondError(ctx, c, err)
		return
	}
	respondOK(c, 200, model.ChangeRes{Change: change})
}

// Document 下载已上传的证件，仅限本人或管理员
func (h *VerificationHandler) Document(ctx context.Context, c *app.RequestContext) {
	id, ok := caller(c)
	if !ok {
		return
	}

	file, clean, err := h.files.Resolve(c.Param("path"))
	if err != nil {
		badRequest(c, "invalid path")
		return
	}
	// verification/{uid}/...
	parts := strings.SplitN(clean, "/", 3)
	if id.Role != usermodel.RoleAdmin && (len(parts) < 3 || parts[0] != "verification" || parts[1] != id.UID) {
		c.AbortWithStatusJSON(404, utils.H{"error": "not found", "code": 404, "success": false})
		return
	}
	c.File(file)
}
