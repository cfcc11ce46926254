package score

import (
	"testing"

	"studylog/internal/catalog"
	"studylog/pkg/domain"
)

func file(name string) domain.FileRecord {
	return domain.FileRecord{Path: "/uploads/2026-08-29/" + name, Name: name, Type: "image/png"}
}

func TestCalculate(t *testing.T) {
	cat := catalog.Default()

	cases := []struct {
		name  string
		items map[string][]domain.FileRecord
		want  int
	}{
		{"empty record", map[string][]domain.FileRecord{}, 0},
		{"one standalone task", map[string][]domain.FileRecord{
			"morning-video": {file("a.mp4")},
		}, 1},
		{"sub-task completes parent", map[string][]domain.FileRecord{
			"english-task-doc": {file("hw.pdf")},
		}, 1},
		{"both sub-tasks count parent once", map[string][]domain.FileRecord{
			"english-task-doc":   {file("hw.pdf")},
			"english-task-video": {file("hw.mp4")},
		}, 1},
		{"multiple files one task", map[string][]domain.FileRecord{
			"math-task-doc": {file("p1.png"), file("p2.png"), file("p3.png")},
		}, 1},
		{"all tasks complete", map[string][]domain.FileRecord{
			"morning-video":      {file("m.mp4")},
			"evening-video":      {file("e.mp4")},
			"english-task-doc":   {file("en.pdf")},
			"math-task-doc":      {file("ma.pdf")},
			"physics-task-video": {file("ph.mp4")},
			"physics-task-doc":   {file("ph.pdf")},
		}, 5},
		{"unknown task id ignored", map[string][]domain.FileRecord{
			"chemistry-task": {file("x.pdf")},
		}, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := Calculate(cat, tc.items); got != tc.want {
				t.Fatalf("Calculate = %d, want %d", got, tc.want)
			}
		})
	}
}

func TestCalculateNilItems(t *testing.T) {
	if got := Calculate(catalog.Default(), nil); got != 0 {
		t.Fatalf("Calculate(nil) = %d, want 0", got)
	}
}
