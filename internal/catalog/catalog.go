// Package catalog holds the immutable task catalog: the fixed set of
// daily activities, their accepted media types and size limits, and the
// doc/video sub-task relationships.
package catalog

import (
	"fmt"
	"strings"

	"studylog/pkg/domain"
)

const (
	gigabyte = int64(1) << 30
	megabyte = int64(1) << 20
)

// Catalog is an explicitly constructed, immutable view over the task
// definitions. It is passed to every coordinator at construction time;
// there is no ambient global lookup.
type Catalog struct {
	topLevel []domain.TaskDefinition
	byID     map[string]entry
}

type entry struct {
	def    domain.TaskDefinition
	parent string // parent task id, empty for top-level tasks
}

// New validates defs and builds a Catalog. Task ids must be unique across
// tasks and sub-tasks; a task either accepts files itself or delegates to
// sub-tasks, never both.
func New(defs []domain.TaskDefinition) (*Catalog, error) {
	defs = cloneDefs(defs)
	c := &Catalog{topLevel: defs, byID: make(map[string]entry)}
	for _, def := range defs {
		if def.ID == "" {
			return nil, fmt.Errorf("catalog: task with empty id")
		}
		if _, dup := c.byID[def.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate task id %q", def.ID)
		}
		if len(def.SubTasks) > 0 && len(def.AcceptedTypes) > 0 {
			return nil, fmt.Errorf("catalog: task %q has both sub-tasks and accepted types", def.ID)
		}
		c.byID[def.ID] = entry{def: def}
		for _, sub := range def.SubTasks {
			if sub.ID == "" {
				return nil, fmt.Errorf("catalog: sub-task of %q with empty id", def.ID)
			}
			if _, dup := c.byID[sub.ID]; dup {
				return nil, fmt.Errorf("catalog: duplicate task id %q", sub.ID)
			}
			if len(sub.SubTasks) > 0 {
				return nil, fmt.Errorf("catalog: sub-task %q nests further sub-tasks", sub.ID)
			}
			c.byID[sub.ID] = entry{def: sub, parent: def.ID}
		}
	}
	return c, nil
}

// MustNew is New for static catalogs known to be well-formed.
func MustNew(defs []domain.TaskDefinition) *Catalog {
	c, err := New(defs)
	if err != nil {
		panic(err)
	}
	return c
}

// TopLevel returns the top-level task definitions in catalog order.
// The result is a copy; mutating it does not touch the catalog.
func (c *Catalog) TopLevel() []domain.TaskDefinition { return cloneDefs(c.topLevel) }

// cloneDefs deep-copies definitions so the catalog never shares slices
// with its callers.
func cloneDefs(defs []domain.TaskDefinition) []domain.TaskDefinition {
	if defs == nil {
		return nil
	}
	out := make([]domain.TaskDefinition, len(defs))
	for i, def := range defs {
		def.AcceptedTypes = append([]string(nil), def.AcceptedTypes...)
		def.SubTasks = cloneDefs(def.SubTasks)
		out[i] = def
	}
	return out
}

// Resolve looks up taskID either as a top-level task or as a sub-task.
// parentID is empty for top-level tasks.
func (c *Catalog) Resolve(taskID string) (def domain.TaskDefinition, parentID string, ok bool) {
	e, ok := c.byID[taskID]
	if !ok {
		return domain.TaskDefinition{}, "", false
	}
	return e.def, e.parent, true
}

// SiblingDocID returns the "-doc" sibling of a "-video" sub-task. The
// second return is false when taskID is not a video sub-task or its
// parent has no doc sub-task.
func (c *Catalog) SiblingDocID(taskID string) (string, bool) {
	e, ok := c.byID[taskID]
	if !ok || e.parent == "" || !strings.HasSuffix(taskID, "-video") {
		return "", false
	}
	for _, sub := range c.byID[e.parent].def.SubTasks {
		if strings.HasSuffix(sub.ID, "-doc") {
			return sub.ID, true
		}
	}
	return "", false
}

// SiblingVideoID is the inverse lookup: the "-video" sibling of a "-doc"
// sub-task, used by the deletion coordinator.
func (c *Catalog) SiblingVideoID(taskID string) (string, bool) {
	e, ok := c.byID[taskID]
	if !ok || e.parent == "" || !strings.HasSuffix(taskID, "-doc") {
		return "", false
	}
	for _, sub := range c.byID[e.parent].def.SubTasks {
		if strings.HasSuffix(sub.ID, "-video") {
			return sub.ID, true
		}
	}
	return "", false
}

// Accepts reports whether mediaType matches one of the task's accepted
// type patterns ("video/*" wildcard or exact MIME).
func Accepts(def domain.TaskDefinition, mediaType string) bool {
	mediaType = strings.ToLower(strings.TrimSpace(mediaType))
	for _, pat := range def.AcceptedTypes {
		pat = strings.ToLower(strings.TrimSpace(pat))
		if prefix, ok := strings.CutSuffix(pat, "/*"); ok {
			if strings.HasPrefix(mediaType, prefix+"/") {
				return true
			}
			continue
		}
		if mediaType == pat {
			return true
		}
	}
	return false
}

// Default returns the built-in study-day catalog: two standalone
// recording tasks plus three subjects, each split into a problem-sheet
// doc and an explanation video.
func Default() *Catalog {
	subject := func(id, label string) domain.TaskDefinition {
		return domain.TaskDefinition{
			ID:    id,
			Label: label,
			SubTasks: []domain.TaskDefinition{
				{ID: id + "-doc", Label: label + " problems", AcceptedTypes: []string{"image/*", "application/pdf"}, MaxFileSize: 100 * megabyte},
				{ID: id + "-video", Label: label + " walkthrough", AcceptedTypes: []string{"video/*"}, MaxFileSize: 2 * gigabyte},
			},
		}
	}
	return MustNew([]domain.TaskDefinition{
		{ID: "morning-video", Label: "morning recitation recording", AcceptedTypes: []string{"video/*"}, MaxFileSize: 2 * gigabyte},
		{ID: "evening-video", Label: "evening recitation recording", AcceptedTypes: []string{"video/*"}, MaxFileSize: 2 * gigabyte},
		subject("english-task", "english"),
		subject("math-task", "math"),
		subject("physics-task", "physics"),
	})
}
