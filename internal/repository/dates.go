package repository

import (
	"fmt"

	"resops/internal/schedule"
)

// parseStoredDate 解析数据库里的日期文本。库内数据写入前都经过严格校验，
// 解析失败说明数据被绕过引擎改过，按错误上报而不是猜测格式。
func parseStoredDate(s string) (schedule.CalendarDate, error) {
	d, err := schedule.ParseDate(s)
	if err != nil {
		return schedule.CalendarDate{}, fmt.Errorf("corrupt stored date %q: %w", s, err)
	}
	return d, nil
}
