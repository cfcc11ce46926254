package domain

// TaskDefinition describes one required daily activity. A task either
// accepts files directly or delegates to exactly one level of sub-tasks.
type TaskDefinition struct {
	ID            string           `json:"id" yaml:"id"`
	Label         string           `json:"label" yaml:"label"`
	AcceptedTypes []string         `json:"acceptedTypes,omitempty" yaml:"acceptedTypes,omitempty"`
	MaxFileSize   int64            `json:"maxFileSize,omitempty" yaml:"maxFileSize,omitempty"`
	SubTasks      []TaskDefinition `json:"subTasks,omitempty" yaml:"subTasks,omitempty"`
}

// FileRecord is the stored metadata for one uploaded file. Immutable once
// created; removed only through the deletion coordinator.
type FileRecord struct {
	Path          string `json:"path"`
	Name          string `json:"name"`
	Type          string `json:"type"`
	ThumbnailPath string `json:"thumbnailPath,omitempty"`
}

// IsVideo reports whether the record holds a video upload.
func (f FileRecord) IsVideo() bool {
	return len(f.Type) >= 6 && f.Type[:6] == "video/"
}

// DailyRecord aggregates everything submitted for one calendar date.
// Score is derived from Items and is never set independently.
type DailyRecord struct {
	Date  string                  `json:"date"`
	Score int                     `json:"score"`
	Items map[string][]FileRecord `json:"items"`
}

// NewDailyRecord returns the implicit empty record for a date.
func NewDailyRecord(date string) *DailyRecord {
	return &DailyRecord{Date: date, Score: 0, Items: map[string][]FileRecord{}}
}

// FileCount returns the number of files recorded under taskID.
func (r *DailyRecord) FileCount(taskID string) int {
	if r == nil || r.Items == nil {
		return 0
	}
	return len(r.Items[taskID])
}

// FindFile returns the FileRecord stored under taskID with the given
// storage-relative path.
func (r *DailyRecord) FindFile(taskID, path string) (FileRecord, bool) {
	for _, f := range r.Items[taskID] {
		if f.Path == path {
			return f, true
		}
	}
	return FileRecord{}, false
}
