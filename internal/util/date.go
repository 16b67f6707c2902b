package util

import (
	"math"
	"time"
)

// StartOfDay 当天零点（本地时区）
func StartOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// ParseDate 按 DateFormat 解析，结果位于 loc 时区的零点
func ParseDate(s string, loc *time.Location) (time.Time, error) {
	if loc == nil {
		loc = time.Local
	}
	return time.ParseInLocation(DateFormat, s, loc)
}

// FormatDate 格式化为 DateFormat
func FormatDate(t time.Time) string {
	return t.Format(DateFormat)
}

// DaysUntil 返回 ceil((target - 今天零点) / 1天)，可能为负
func DaysUntil(now time.Time, target time.Time) int {
	diff := target.Sub(StartOfDay(now))
	return int(math.Ceil(diff.Hours() / 24))
}
