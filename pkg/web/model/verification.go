package model

import (
	vmodel "sanchari/pkg/core/verification/model"
	"sanchari/pkg/core/verification/validate"
)

type (
	StartChangeReq struct {
		Role string `json:"role" vd:"len($)>0"`
	}

	SaveStepReq struct {
		Form map[string]string `json:"form"`
	}

	ReviewReq struct {
		Decision string `json:"decision" vd:"$=='approved' || $=='rejected'"`
		Notes    string `json:"notes" vd:"len($)<=2000"`
	}

	// ChangeRes 账户变更快照；Change 为 nil 表示没有进行中的变更
	ChangeRes struct {
		Change *vmodel.PendingChange `json:"change"`
	}

	AdvanceRes struct {
		Change    *vmodel.PendingChange `json:"change"`
		Errors    validate.Errors       `json:"errors,omitempty"`
		Completed bool                  `json:"completed"`
	}

	StepsRes struct {
		Role  string        `json:"role"`
		Steps []vmodel.Step `json:"steps"`
	}

	SubmittableRes struct {
		RequestID   string `json:"requestId"`
		Submittable bool   `json:"submittable"`
	}
)
