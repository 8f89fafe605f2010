package validation

import "projecthub/internal/model"

const (
	MsgProjectStartAfterDeadline = "Start date cannot be later than the deadline."
	MsgTaskStartBeforeProject    = "Task start date cannot be earlier than project start date"
	MsgTaskDeadlineAfterProject  = "Task deadline cannot be later than project deadline"
	MsgTaskDeadlineBeforeStart   = "Task deadline cannot be earlier than task start date"
)

// normalize 截断到日历日期；缺失日期返回 nil，表示不约束
func normalize(d *model.Date) *model.Date {
	if !model.Present(d) {
		return nil
	}
	n := model.DateOf(d.Time)
	return &n
}

// ValidateProjectDates 项目开始日期不能晚于截止日期
func ValidateProjectDates(start, deadline *model.Date) Result {
	var r Result
	s, d := normalize(start), normalize(deadline)
	if s != nil && d != nil && s.After(*d) {
		r.addError(MsgProjectStartAfterDeadline)
	}
	return r
}

// ValidateProject 对已有项目实体做日期校验
func ValidateProject(p model.Project) Result {
	return ValidateProjectDates(p.StartDate, p.Deadline)
}

// ValidateTaskDates 任务日期必须落在项目区间内且自身有序，三项检查互相独立
func ValidateTaskDates(taskStart, taskDeadline, projectStart, projectDeadline *model.Date) Result {
	var r Result
	ts, td := normalize(taskStart), normalize(taskDeadline)
	ps, pd := normalize(projectStart), normalize(projectDeadline)

	if ts != nil && ps != nil && ts.Before(*ps) {
		r.addError(MsgTaskStartBeforeProject)
	}
	if td != nil && pd != nil && td.After(*pd) {
		r.addError(MsgTaskDeadlineAfterProject)
	}
	if ts != nil && td != nil && td.Before(*ts) {
		r.addError(MsgTaskDeadlineBeforeStart)
	}
	return r
}

// ValidateTask 以所属项目为约束校验任务
func ValidateTask(t model.TaskInput, project model.Project) Result {
	return ValidateTaskDates(t.StartDate, t.Deadline, project.StartDate, project.Deadline)
}

// TaskStartDateValid 表单逐字段提示：开始日期是否在项目开始之后
func TaskStartDateValid(taskStart, projectStart *model.Date) bool {
	ts, ps := normalize(taskStart), normalize(projectStart)
	if ts == nil || ps == nil {
		return true
	}
	return !ts.Before(*ps)
}

// TaskDeadlineValid 表单逐字段提示：截止日期是否在项目截止之前且不早于开始日期
func TaskDeadlineValid(taskStart, taskDeadline, projectDeadline *model.Date) bool {
	td := normalize(taskDeadline)
	if td == nil {
		return true
	}
	if pd := normalize(projectDeadline); pd != nil && td.After(*pd) {
		return false
	}
	if ts := normalize(taskStart); ts != nil && td.Before(*ts) {
		return false
	}
	return true
}
