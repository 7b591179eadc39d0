package catalog

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Program is embedded in its University. A rolling program has no fixed
// deadline; a non-rolling program without one is not tracked.
type Program struct {
	ID             primitive.ObjectID `bson:"_id" json:"id"`
	Name           string             `bson:"name" json:"name"`
	DegreeLevel    string             `bson:"degree_level" json:"degreeLevel"`
	Field          string             `bson:"field" json:"field"`
	Deadline       *time.Time         `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Rolling        bool               `bson:"rolling" json:"rolling"`
	TuitionFee     float64            `bson:"tuition_fee" json:"tuitionFee"`
	Currency       string             `bson:"currency" json:"currency"`
	DurationMonths int                `bson:"duration_months" json:"durationMonths"`
}

type University struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name      string             `bson:"name" json:"name"`
	Country   string             `bson:"country" json:"country"`
	City      string             `bson:"city" json:"city"`
	Ranking   int                `bson:"ranking" json:"ranking"`
	Website   string             `bson:"website" json:"website"`
	Programs  []Program          `bson:"programs" json:"programs"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

// Program returns the embedded program with id, if any.
func (u *University) Program(id primitive.ObjectID) (*Program, bool) {
	for i := range u.Programs {
		if u.Programs[i].ID == id {
			return &u.Programs[i], true
		}
	}
	return nil, false
}

type Scholarship struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	Name         string              `bson:"name" json:"name"`
	Provider     string              `bson:"provider" json:"provider"`
	Amount       float64             `bson:"amount" json:"amount"`
	Currency     string              `bson:"currency" json:"currency"`
	Deadline     *time.Time          `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Countries    []string            `bson:"countries" json:"countries"`
	DegreeLevels []string            `bson:"degree_levels" json:"degreeLevels"`
	UniversityID *primitive.ObjectID `bson:"university_id,omitempty" json:"universityId,omitempty"`
	CreatedAt    time.Time           `bson:"created_at" json:"createdAt"`
}

type Resource struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Title     string             `bson:"title" json:"title"`
	Slug      string             `bson:"slug" json:"slug"`
	Category  string             `bson:"category" json:"category"`
	URL       string             `bson:"url,omitempty" json:"url,omitempty"`
	Content   string             `bson:"content" json:"content"`
	CreatedAt time.Time          `bson:"created_at" json:"createdAt"`
}

type ProgramRequest struct {
	Name           string     `json:"name" validate:"required,max=200"`
	DegreeLevel    string     `json:"degreeLevel" validate:"required,oneof=bachelor master phd diploma"`
	Field          string     `json:"field" validate:"max=120"`
	Deadline       *time.Time `json:"deadline"`
	Rolling        bool       `json:"rolling"`
	TuitionFee     float64    `json:"tuitionFee" validate:"gte=0"`
	Currency       string     `json:"currency" validate:"omitempty,len=3"`
	DurationMonths int        `json:"durationMonths" validate:"gte=0,lte=120"`
}

type UniversityRequest struct {
	Name     string           `json:"name" validate:"required,max=200"`
	Country  string           `json:"country" validate:"required,max=80"`
	City     string           `json:"city" validate:"max=80"`
	Ranking  int              `json:"ranking" validate:"gte=0"`
	Website  string           `json:"website" validate:"omitempty,url"`
	Programs []ProgramRequest `json:"programs" validate:"dive"`
}

type ScholarshipRequest struct {
	Name         string     `json:"name" validate:"required,max=200"`
	Provider     string     `json:"provider" validate:"required,max=200"`
	Amount       float64    `json:"amount" validate:"gte=0"`
	Currency     string     `json:"currency" validate:"omitempty,len=3"`
	Deadline     *time.Time `json:"deadline"`
	Countries    []string   `json:"countries"`
	DegreeLevels []string   `json:"degreeLevels" validate:"dive,oneof=bachelor master phd diploma"`
	UniversityID string     `json:"universityId" validate:"omitempty,objectid"`
}

type ResourceRequest struct {
	Title    string `json:"title" validate:"required,max=200"`
	Slug     string `json:"slug" validate:"required,max=120"`
	Category string `json:"category" validate:"required,max=60"`
	URL      string `json:"url" validate:"omitempty,url"`
	Content  string `json:"content"`
}

// ListFilter narrows catalog listings. Empty fields do not filter.
type ListFilter struct {
	Page        int
	Limit       int
	Country     string
	DegreeLevel string
	Search      string
	Category    string
}

func (f ListFilter) normalize() ListFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		f.Limit = 100
	}
	return f
}
