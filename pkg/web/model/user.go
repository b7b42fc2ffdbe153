package model

import (
	"time"

	usermodel "sanchari/pkg/core/user/model"
)

// 请求/响应数据结构
type (
	RegisterReq struct {
		Username string `json:"username" vd:"len($)>=4 && len($)<=20"`
		Email    string `json:"email" vd:"email($)"`
		Password string `json:"password" vd:"len($)>0"`
	}

	LoginReq struct {
		Username string `json:"username" vd:"len($)>0"`
		Password string `json:"password" vd:"len($)>0"`
	}

	ChangePwdReq struct {
		OldPassword string `json:"oldPassword" vd:"len($)>0"`
		NewPassword string `json:"newPassword" vd:"len($)>0"`
	}

	LoginRes struct {
		Token     string            `json:"token"`
		ExpiresAt time.Time         `json:"expiresAt"`
		User      usermodel.Profile `json:"user"`
	}

	// MeRes Token 仅在库中角色与当前 token 不一致时返回
	MeRes struct {
		User      usermodel.Profile `json:"user"`
		Token     string            `json:"token,omitempty"`
		ExpiresAt *time.Time        `json:"expiresAt,omitempty"`
	}
)
