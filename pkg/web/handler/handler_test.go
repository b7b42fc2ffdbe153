package handler

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	errs "sanchari/pkg/common/errors"
)

type fakePinger struct{ err error }

func (f fakePinger) PingContext(context.Context) error { return f.err }

func TestStatusOf(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{errs.ErrChangePending, 409},
		{fmt.Errorf("%w: kyc.fullName", errs.ErrNotSubmittable), 422},
		{fmt.Errorf("step %q: %w", "x", errs.ErrUnknownStep), 400},
		{errs.ErrDocumentTooLarge, 413},
		{errs.ErrInvalidCredentials, 401},
		{context.DeadlineExceeded, 503},
		{fmt.Errorf("%w: boom", errs.ErrDatabaseInternal), 500},
		{errors.New("anything else"), 500},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusOf(tc.err), tc.err.Error())
	}
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "hi there", cleanText(" <b>hi</b> there<script>x()</script> "))
	// 实体保持转义，不能还原成可执行标签
	assert.Equal(t, "Rao &amp; Sons", cleanText("Rao & Sons"))
	escaped := cleanText("&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.Equal(t, "&lt;script&gt;alert(1)&lt;/script&gt;", escaped)
	assert.NotContains(t, escaped, "<script")
}

func TestHasCriticalErrors(t *testing.T) {
	assert.False(t, hasCriticalErrors(nil))
	assert.True(t, hasCriticalErrors([]ComponentStatus{checkDatabase(context.Background(), fakePinger{err: errors.New("refused")})}))
	assert.False(t, hasCriticalErrors([]ComponentStatus{checkDatabase(context.Background(), fakePinger{})}))
}
