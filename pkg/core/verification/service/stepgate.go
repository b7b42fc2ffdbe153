// Package service drives a user's account change through the verification
// steps of the requested role.
package service

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/cloudwego/hertz/pkg/common/hlog"
	"github.com/google/uuid"

	errs "sanchari/pkg/common/errors"
	"sanchari/pkg/core/storage"
	"sanchari/pkg/core/verification/catalog"
	"sanchari/pkg/core/verification/model"
	"sanchari/pkg/core/verification/repository/dao"
	"sanchari/pkg/core/verification/validate"
)

// sniffLen is how many bytes http.DetectContentType looks at.
const sniffLen = 512

type Options struct {
	// MaxUploadBytes caps every document on top of the step's own limit. 0 disables it.
	MaxUploadBytes int64
}

type StepGate struct {
	catalog *catalog.Catalog
	changes dao.ChangeRepository
	blobs   storage.BlobStore
	hub     *Hub
	opts    Options
	now     func() time.Time
}

func NewStepGate(cat *catalog.Catalog, changes dao.ChangeRepository, blobs storage.BlobStore, hub *Hub, opts Options) *StepGate {
	if hub == nil {
		hub = NewHub()
	}
	return &StepGate{
		catalog: cat,
		changes: changes,
		blobs:   blobs,
		hub:     hub,
		opts:    opts,
		now:     time.Now,
	}
}

// Document is an uploaded file as received from the client.
type Document struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// AdvanceResult reports the outcome of Advance. Errors is non-empty when the
// current step failed validation; the pointer did not move in that case.
type AdvanceResult struct {
	Change    *model.PendingChange
	Errors    validate.Errors
	Completed bool
}

// StepsForRole returns the ordered steps for role; empty when none are needed.
func (g *StepGate) StepsForRole(role string) ([]model.Step, error) {
	steps, ok := g.catalog.StepsForRole(role)
	if !ok {
		return nil, fmt.Errorf("role %q: %w", role, errs.ErrUnknownRole)
	}
	return steps, nil
}

// StartChange opens an account change towards role at step 1.
func (g *StepGate) StartChange(ctx context.Context, userUID, role string) (*model.PendingChange, error) {
	steps, err := g.StepsForRole(role)
	if err != nil {
		return nil, err
	}
	if len(steps) == 0 {
		return nil, errs.ErrNoVerificationRequired
	}

	keys := make([]string, 0, len(steps))
	for _, s := range steps {
		keys = append(keys, s.Key)
	}

	change := &model.PendingChange{
		RequestID:   uuid.NewString(),
		UserUID:     userUID,
		TargetRole:  role,
		Steps:       keys,
		CurrentStep: 1,
		Data:        map[string]model.StepData{},
		Status:      model.StatusInProgress,
	}
	if err := g.changes.Create(ctx, change); err != nil {
		return nil, err
	}

	hlog.CtxInfof(ctx, "account change %s started: user=%s role=%s steps=%d", change.RequestID, userUID, role, len(keys))
	g.hub.Publish(userUID, change)
	return change, nil
}

// SaveStep merges form into the captured data of stepKey. Keys the step does
// not declare are dropped. The step pointer never moves.
func (g *StepGate) SaveStep(ctx context.Context, userUID, stepKey string, form map[string]string) (*model.PendingChange, error) {
	change, err := g.editable(ctx, userUID)
	if err != nil {
		return nil, err
	}
	step, err := g.stepOf(change, stepKey)
	if err != nil {
		return nil, err
	}

	data := change.Data[stepKey]
	if data.Form == nil {
		data.Form = make(map[string]string, len(step.Fields))
	}
	for _, f := range step.Fields {
		if v, ok := form[f.Key]; ok {
			data.Form[f.Key] = strings.TrimSpace(v)
		}
	}
	data.UpdatedAt = g.now()
	g.putStep(change, stepKey, data)

	if err := g.changes.Save(ctx, change); err != nil {
		return nil, err
	}
	g.hub.Publish(userUID, change)
	return change, nil
}

// UploadStepDocument checks the document against the step's constraints,
// stores it and records its URL on the step. Nothing is uploaded when a
// check fails.
func (g *StepGate) UploadStepDocument(ctx context.Context, userUID, requestID, stepKey string, doc Document) (*model.PendingChange, error) {
	change, err := g.editable(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if change.RequestID != requestID {
		return nil, errs.ErrRequestMismatch
	}
	step, err := g.stepOf(change, stepKey)
	if err != nil {
		return nil, err
	}
	if !step.AcceptsFile() {
		return nil, errs.ErrDocumentNotAccepted
	}

	body := bufio.NewReaderSize(doc.Body, sniffLen)
	contentType, err := contentTypeOf(doc.ContentType, body)
	if err != nil {
		return nil, err
	}
	if !step.File.Accepts(contentType) {
		return nil, fmt.Errorf("%s: %w", contentType, errs.ErrDocumentType)
	}

	limit := g.sizeLimit(step)
	if limit > 0 && doc.Size > limit {
		return nil, errs.ErrDocumentTooLarge
	}

	objectPath := fmt.Sprintf("verification/%s/%s/%s/%s%s",
		userUID, requestID, stepKey, uuid.NewString(), extensionOf(doc.Name, contentType))

	var reader io.Reader = body
	if limit > 0 {
		// the declared size can lie
		reader = &cappedReader{r: body, left: limit}
	}
	url, err := g.blobs.Upload(ctx, objectPath, contentType, reader)
	if err != nil {
		if errors.Is(err, errs.ErrDocumentTooLarge) {
			return nil, errs.ErrDocumentTooLarge
		}
		hlog.CtxErrorf(ctx, "upload %s for %s failed: %v", stepKey, requestID, err)
		return nil, fmt.Errorf("upload document: %w", err)
	}

	// the upload may have taken a while, pick up edits made meanwhile
	change, err = g.changes.FindOpenByUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if change.RequestID != requestID {
		return nil, errs.ErrRequestMismatch
	}
	if change.Status != model.StatusInProgress {
		return nil, errs.ErrChangeLocked
	}

	data := change.Data[stepKey]
	data.DocumentURL = url
	data.UpdatedAt = g.now()
	g.putStep(change, stepKey, data)

	if err := g.changes.Save(ctx, change); err != nil {
		return nil, err
	}
	g.hub.Publish(userUID, change)
	return change, nil
}

// Advance validates the current step and moves to the next one. On the last
// step it reports Completed and leaves the pointer where it is.
func (g *StepGate) Advance(ctx context.Context, userUID string) (AdvanceResult, error) {
	change, err := g.editable(ctx, userUID)
	if err != nil {
		return AdvanceResult{}, err
	}
	step, err := g.stepOf(change, change.CurrentStepKey())
	if err != nil {
		return AdvanceResult{}, err
	}

	data := change.Data[step.Key]
	verrs := validate.Step(step, data.Form)
	if step.FileRequired() && data.DocumentURL == "" {
		verrs[validate.DocumentKey] = "a document is required for this step"
	}
	if !verrs.OK() {
		return AdvanceResult{Change: change, Errors: verrs}, nil
	}

	if change.CurrentStep >= len(change.Steps) {
		return AdvanceResult{Change: change, Errors: verrs, Completed: true}, nil
	}

	change.CurrentStep++
	if err := g.changes.Save(ctx, change); err != nil {
		return AdvanceResult{}, err
	}
	g.hub.Publish(userUID, change)
	return AdvanceResult{Change: change, Errors: verrs}, nil
}

// CanSubmit reports whether every required field of every step has a value,
// plus a document for steps that require one. Formats are not re-checked.
func (g *StepGate) CanSubmit(ctx context.Context, requestID string) (bool, error) {
	change, err := g.changes.FindByRequestID(ctx, requestID)
	if err != nil {
		return false, err
	}
	missing, err := g.missing(change)
	if err != nil {
		return false, err
	}
	return len(missing) == 0, nil
}

// Submit hands the change over for review. It is read-only afterwards.
func (g *StepGate) Submit(ctx context.Context, userUID, requestID string) (*model.PendingChange, error) {
	change, err := g.editable(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if change.RequestID != requestID {
		return nil, errs.ErrRequestMismatch
	}

	missing, err := g.missing(change)
	if err != nil {
		return nil, err
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", errs.ErrNotSubmittable, strings.Join(missing, ", "))
	}

	now := g.now()
	change.Status = model.StatusSubmitted
	change.SubmittedAt = &now
	if err := g.changes.Save(ctx, change); err != nil {
		return nil, err
	}

	hlog.CtxInfof(ctx, "account change %s submitted for review: user=%s role=%s", requestID, userUID, change.TargetRole)
	g.hub.Publish(userUID, change)
	return change, nil
}

// Abort discards the in-progress change. Documents already uploaded stay in storage.
func (g *StepGate) Abort(ctx context.Context, userUID string) error {
	change, err := g.editable(ctx, userUID)
	if err != nil {
		return err
	}
	if err := g.changes.Delete(ctx, change); err != nil {
		return err
	}

	hlog.CtxInfof(ctx, "account change %s aborted by %s", change.RequestID, userUID)
	g.hub.Publish(userUID, nil)
	return nil
}

// GetPendingChange returns the user's open change, or nil when there is none.
func (g *StepGate) GetPendingChange(ctx context.Context, userUID string) (*model.PendingChange, error) {
	change, err := g.changes.FindOpenByUser(ctx, userUID)
	if errors.Is(err, errs.ErrNoPendingChange) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return change, nil
}

// Review records an admin decision on a submitted change. Approval grants the
// target role in the same transaction.
func (g *StepGate) Review(ctx context.Context, requestID string, decision model.Status, reviewerUID, notes string) (*model.PendingChange, error) {
	change, err := g.changes.Decide(ctx, requestID, decision, reviewerUID, strings.TrimSpace(notes), g.now())
	if err != nil {
		return nil, err
	}

	hlog.CtxInfof(ctx, "account change %s %s by %s", requestID, decision, reviewerUID)
	g.hub.Publish(change.UserUID, change)
	return change, nil
}

// ExpireStale marks in-progress changes untouched for olderThan as incomplete.
func (g *StepGate) ExpireStale(ctx context.Context, olderThan time.Duration) (int64, error) {
	if olderThan <= 0 {
		return 0, fmt.Errorf("stale window must be positive, got %s", olderThan)
	}
	n, err := g.changes.MarkStale(ctx, g.now().Add(-olderThan))
	if err != nil {
		return 0, err
	}
	if n > 0 {
		hlog.CtxInfof(ctx, "marked %d stale account changes incomplete", n)
	}
	return n, nil
}

// Subscribe watches userUID's account change. Callers must Unsubscribe.
func (g *StepGate) Subscribe(ctx context.Context, userUID string) (*Subscription, error) {
	current, err := g.GetPendingChange(ctx, userUID)
	if err != nil {
		return nil, err
	}
	return g.hub.Subscribe(userUID, current), nil
}

// editable loads the open change and refuses submitted ones.
func (g *StepGate) editable(ctx context.Context, userUID string) (*model.PendingChange, error) {
	change, err := g.changes.FindOpenByUser(ctx, userUID)
	if err != nil {
		return nil, err
	}
	if change.Status != model.StatusInProgress {
		return nil, errs.ErrChangeLocked
	}
	return change, nil
}

func (g *StepGate) stepOf(change *model.PendingChange, key string) (model.Step, error) {
	if !change.HasStep(key) {
		return model.Step{}, fmt.Errorf("step %q: %w", key, errs.ErrUnknownStep)
	}
	step, ok := g.catalog.Step(key)
	if !ok {
		return model.Step{}, fmt.Errorf("step %q: %w", key, errs.ErrUnknownStep)
	}
	return step, nil
}

func (g *StepGate) putStep(change *model.PendingChange, key string, data model.StepData) {
	if change.Data == nil {
		change.Data = map[string]model.StepData{}
	}
	change.Data[key] = data
}

// missing lists "step.field" entries that block submission.
func (g *StepGate) missing(change *model.PendingChange) ([]string, error) {
	var out []string
	for _, key := range change.Steps {
		step, ok := g.catalog.Step(key)
		if !ok {
			return nil, fmt.Errorf("step %q: %w", key, errs.ErrUnknownStep)
		}
		data := change.Data[key]
		for _, field := range validate.MissingRequired(step, data.Form) {
			out = append(out, key+"."+field)
		}
		if step.FileRequired() && data.DocumentURL == "" {
			out = append(out, key+"."+validate.DocumentKey)
		}
	}
	return out, nil
}

func (g *StepGate) sizeLimit(step model.Step) int64 {
	limit := g.opts.MaxUploadBytes
	if step.File != nil && step.File.MaxSizeBytes > 0 && (limit <= 0 || step.File.MaxSizeBytes < limit) {
		limit = step.File.MaxSizeBytes
	}
	return limit
}

// contentTypeOf trusts the declared type unless it is missing or generic, in
// which case the first bytes of body decide.
func contentTypeOf(declared string, body *bufio.Reader) (string, error) {
	declared = strings.TrimSpace(declared)
	if declared == "" || strings.HasPrefix(declared, "application/octet-stream") {
		head, err := body.Peek(sniffLen)
		if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
			return "", fmt.Errorf("read document: %w", err)
		}
		declared = http.DetectContentType(head)
	}
	mediaType, _, err := mime.ParseMediaType(declared)
	if err != nil {
		return "", fmt.Errorf("%s: %w", declared, errs.ErrDocumentType)
	}
	return mediaType, nil
}

func extensionOf(name, contentType string) string {
	if ext := strings.ToLower(filepath.Ext(name)); ext != "" && len(ext) <= 8 {
		return ext
	}
	if exts, err := mime.ExtensionsByType(contentType); err == nil && len(exts) > 0 {
		return exts[0]
	}
	return ""
}

// cappedReader fails with ErrDocumentTooLarge once more than left bytes are read.
type cappedReader struct {
	r    io.Reader
	left int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.left < 0 {
		return 0, errs.ErrDocumentTooLarge
	}
	if int64(len(p)) > c.left+1 {
		p = p[:c.left+1]
	}
	n, err := c.r.Read(p)
	c.left -= int64(n)
	if c.left < 0 {
		return n, errs.ErrDocumentTooLarge
	}
	return n, err
}
