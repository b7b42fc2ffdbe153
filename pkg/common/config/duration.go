package config

import (
	"encoding/json"
	"fmt"
	"time"
)

// duration 配置文件中的时长：字符串按 time.ParseDuration 解析（"720h"、"500ms"），数字按纳秒
type duration time.Duration

func (d *duration) UnmarshalJSON(b []byte) error {
	var v interface{}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	switch val := v.(type) {
	case string:
		parsed, err := time.ParseDuration(val)
		if err != nil {
			return fmt.Errorf("invalid duration %q: %w", val, err)
		}
		*d = duration(parsed)
	case float64:
		*d = duration(time.Duration(val))
	default:
		return fmt.Errorf("invalid duration %s", string(b))
	}
	return nil
}

// 以下 UnmarshalJSON 只接管时长字段，其余字段照常解码到已有的默认值上

func (c *CORSConfig) UnmarshalJSON(b []byte) error {
	type alias CORSConfig
	aux := struct {
		*alias
		MaxAge *duration `json:"maxAge"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.MaxAge != nil {
		c.MaxAge = time.Duration(*aux.MaxAge)
	}
	return nil
}

func (c *JWTAuthConfig) UnmarshalJSON(b []byte) error {
	type alias JWTAuthConfig
	aux := struct {
		*alias
		ExpireDuration *duration `json:"expireDuration"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.ExpireDuration != nil {
		c.ExpireDuration = time.Duration(*aux.ExpireDuration)
	}
	return nil
}

func (c *RateLimitConfig) UnmarshalJSON(b []byte) error {
	type alias RateLimitConfig
	aux := struct {
		*alias
		Interval *duration `json:"interval"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.Interval != nil {
		c.Interval = time.Duration(*aux.Interval)
	}
	return nil
}

func (c *VerificationConfig) UnmarshalJSON(b []byte) error {
	type alias VerificationConfig
	aux := struct {
		*alias
		StaleAfter *duration `json:"staleAfter"`
	}{alias: (*alias)(c)}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	if aux.StaleAfter != nil {
		c.StaleAfter = time.Duration(*aux.StaleAfter)
	}
	return nil
}
