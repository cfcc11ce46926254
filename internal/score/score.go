// Package score derives a day's completion score from its items.
package score

import (
	"studylog/internal/catalog"
	"studylog/pkg/domain"
)

// Calculate counts the complete top-level tasks. A task with sub-tasks is
// complete iff any sub-task has at least one file; a task without
// sub-tasks is complete iff its own id has at least one file. Sub-task
// granularity never adds extra points.
//
// Pure over items; must be re-invoked after every mutation.
func Calculate(cat *catalog.Catalog, items map[string][]domain.FileRecord) int {
	total := 0
	for _, task := range cat.TopLevel() {
		if len(task.SubTasks) == 0 {
			if len(items[task.ID]) > 0 {
				total++
			}
			continue
		}
		for _, sub := range task.SubTasks {
			if len(items[sub.ID]) > 0 {
				total++
				break
			}
		}
	}
	return total
}
