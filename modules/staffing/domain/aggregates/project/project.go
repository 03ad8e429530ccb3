// Package project is the client project aggregate with its activities.
package project

import (
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/staffing/modules/staffing/domain/taxonomy"
	"github.com/iota-uz/staffing/pkg/versioned"
)

type Project struct {
	ID      uuid.UUID       `json:"id"`
	Version versioned.Token `json:"version"`

	Title       string     `json:"title"`
	Client      string     `json:"client"`
	Description string     `json:"description"`
	Start       *time.Time `json:"start,omitempty"`
	End         *time.Time `json:"end,omitempty"`

	Fields     []taxonomy.Ref `json:"fields"`
	HardSkills []taxonomy.Ref `json:"hard_skills"`
	// Activities is the complete list; activities missing from it are deleted
	// on upsert.
	Activities []Activity `json:"activities"`
}

// Activity is a unit of work inside a project and the employees who did it.
type Activity struct {
	ID          uuid.UUID       `json:"id"`
	Version     versioned.Token `json:"version"`
	Description string          `json:"description"`
	Employees   []uuid.UUID     `json:"employees"`
}

func New(title string) *Project {
	return &Project{ID: uuid.New(), Title: title}
}

func (p *Project) AddActivity(description string, employees ...uuid.UUID) Activity {
	a := Activity{ID: uuid.New(), Description: description, Employees: employees}
	p.Activities = append(p.Activities, a)
	return a
}

func (p *Project) RemoveActivity(id uuid.UUID) bool {
	for i, a := range p.Activities {
		if a.ID == id {
			p.Activities = append(p.Activities[:i], p.Activities[i+1:]...)
			return true
		}
	}
	return false
}

// Members returns every employee named in any activity, in first-seen order.
func (p *Project) Members() []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var out []uuid.UUID
	for _, a := range p.Activities {
		for _, id := range a.Employees {
			if _, ok := seen[id]; ok {
				continue
			}
			seen[id] = struct{}{}
			out = append(out, id)
		}
	}
	return out
}
