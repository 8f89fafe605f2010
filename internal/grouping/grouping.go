// Package grouping 合并成员视图中同一项目的多条分配记录
package grouping

import (
	"fmt"

	"projecthub/internal/model"
)

// Mode 分组键
type Mode string

const (
	ByTitle Mode = "title"
	ByID    Mode = "id"
)

// ParseMode 空值按标题分组
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ByTitle:
		return ByTitle, nil
	case ByID:
		return ByID, nil
	}
	return "", fmt.Errorf("unknown group mode %q", s)
}

// GroupByProject 按标题合并；保留首次出现的 id，组与任务都保持出现顺序。
// 不同项目同名时会被合并成一组。
func GroupByProject(records []model.ProjectAssignment) []model.ProjectGroup {
	return group(records, func(r model.ProjectAssignment) any { return r.Title })
}

// GroupByProjectID 按项目 id 合并，标题取首次出现的值
func GroupByProjectID(records []model.ProjectAssignment) []model.ProjectGroup {
	return group(records, func(r model.ProjectAssignment) any { return r.ID })
}

// Group 按配置的模式分组
func Group(mode Mode, records []model.ProjectAssignment) []model.ProjectGroup {
	if mode == ByID {
		return GroupByProjectID(records)
	}
	return GroupByProject(records)
}

func group(records []model.ProjectAssignment, key func(model.ProjectAssignment) any) []model.ProjectGroup {
	index := make(map[any]int)
	groups := make([]model.ProjectGroup, 0, len(records))
	for _, r := range records {
		k := key(r)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, model.ProjectGroup{ID: r.ID, Title: r.Title, Tasks: []model.Task{}})
		}
		groups[i].Tasks = append(groups[i].Tasks, r.Tasks...)
	}
	return groups
}
