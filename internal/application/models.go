package application

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Status string

const (
	StatusPending            Status = "pending"
	StatusUnderReview        Status = "under_review"
	StatusInterviewScheduled Status = "interview_scheduled"
	StatusFinalReview        Status = "final_review"
	StatusAccepted           Status = "accepted"
	StatusDeclined           Status = "declined"
	StatusWaitlisted         Status = "waitlisted"
)

type HistoryEntry struct {
	Status    Status              `bson:"status" json:"status"`
	ChangedAt time.Time           `bson:"changed_at" json:"changedAt"`
	Note      string              `bson:"note,omitempty" json:"note,omitempty"`
	ChangedBy *primitive.ObjectID `bson:"changed_by,omitempty" json:"changedBy,omitempty"`
}

type Metadata struct {
	TestScores map[string]float64 `bson:"test_scores,omitempty" json:"testScores,omitempty"`
	GPA        *float64           `bson:"gpa,omitempty" json:"gpa,omitempty"`
	Documents  []string           `bson:"documents,omitempty" json:"documents,omitempty"`
}

// Application is a student's application to one university. Active is true
// until the status becomes terminal; at most one active application exists
// per (user, university).
type Application struct {
	ID                primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	UserID            primitive.ObjectID  `bson:"user_id" json:"userId"`
	UniversityID      primitive.ObjectID  `bson:"university_id" json:"universityId"`
	ProgramID         *primitive.ObjectID `bson:"program_id,omitempty" json:"programId,omitempty"`
	Semester          string              `bson:"semester" json:"semester"`
	Year              int                 `bson:"year" json:"year"`
	Subject           string              `bson:"subject" json:"subject"`
	PersonalStatement string              `bson:"personal_statement" json:"personalStatement"`
	Status            Status              `bson:"status" json:"status"`
	StatusHistory     []HistoryEntry      `bson:"status_history" json:"statusHistory"`
	Metadata          Metadata            `bson:"metadata" json:"metadata"`
	Active            bool                `bson:"active" json:"active"`
	CreatedAt         time.Time           `bson:"created_at" json:"createdAt"`
	UpdatedAt         time.Time           `bson:"updated_at" json:"updatedAt"`
}

type CreateRequest struct {
	UniversityID      string   `json:"universityId" validate:"required,objectid"`
	ProgramID         string   `json:"programId" validate:"omitempty,objectid"`
	Semester          string   `json:"semester" validate:"required,oneof=spring summer fall winter"`
	Year              int      `json:"year" validate:"required,gte=2000,lte=2100"`
	Subject           string   `json:"subject" validate:"required,max=200"`
	PersonalStatement string   `json:"personalStatement" validate:"max=10000"`
	Metadata          Metadata `json:"metadata"`
}

// UpdateRequest edits content fields; nil fields are left unchanged.
type UpdateRequest struct {
	Semester          *string   `json:"semester" validate:"omitempty,oneof=spring summer fall winter"`
	Year              *int      `json:"year" validate:"omitempty,gte=2000,lte=2100"`
	Subject           *string   `json:"subject" validate:"omitempty,max=200"`
	PersonalStatement *string   `json:"personalStatement" validate:"omitempty,max=10000"`
	Metadata          *Metadata `json:"metadata"`
}

type StatusRequest struct {
	Status string `json:"status" validate:"required"`
	Note   string `json:"note" validate:"max=1000"`
}

type ListQuery struct {
	Page   int
	Limit  int
	Status Status
}
