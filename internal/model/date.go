package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

const DateLayout = "2006-01-02"

// 上游返回的日期格式并不统一
var dateLayouts = []string{
	DateLayout,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05.000000Z",
}

// Date 日历日期，时间部分恒为 UTC 零点
type Date struct {
	time.Time
}

// NewDate 构造日历日期
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf 截断到日期，按 t 自身时区取年月日
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

// ParseDate 解析上游或表单提交的日期字符串
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return DateOf(t), nil
		}
	}
	return Date{}, fmt.Errorf("invalid date %q", s)
}

// DatePtr 方便构造可选日期
func DatePtr(year int, month time.Month, day int) *Date {
	d := NewDate(year, month, day)
	return &d
}

func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) Before(o Date) bool { return d.Time.Before(o.Time) }
func (d Date) After(o Date) bool  { return d.Time.After(o.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.String())
}

// UnmarshalJSON 空字符串与 null 由 *Date 处理；这里只接受有效日期
func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	if s == "" {
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// IsZero 未设置的日期
func (d Date) IsZero() bool {
	return d.Time.IsZero()
}

// Present 可选日期是否有值
func Present(d *Date) bool {
	return d != nil && !d.IsZero()
}
