package notification

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Category says which backing store holds a notification.
type Category string

const (
	CategoryStatus   Category = "status"
	CategoryDeadline Category = "deadline"
)

type Type string

const (
	TypeApplicationUpdate Type = "application_update"
	TypeAcceptance        Type = "acceptance"
	TypeRejection         Type = "rejection"
	TypeInterview         Type = "interview"
	TypeWaitlist          Type = "waitlist"
	TypeDeadlineAlert     Type = "deadline_alert"
	TypeDeadlineOverdue   Type = "deadline_overdue"
	TypeSystem            Type = "system"
)

var validTypes = map[Type]bool{
	TypeApplicationUpdate: true,
	TypeAcceptance:        true,
	TypeRejection:         true,
	TypeInterview:         true,
	TypeWaitlist:          true,
	TypeDeadlineAlert:     true,
	TypeDeadlineOverdue:   true,
	TypeSystem:            true,
}

func (t Type) Valid() bool { return validTypes[t] }

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// DeadlinePayload is carried by deadline entries only. Exactly one of
// DaysLeft and DaysOverdue is set.
type DeadlinePayload struct {
	UniversityID primitive.ObjectID `bson:"university_id" json:"universityId"`
	ProgramID    primitive.ObjectID `bson:"program_id" json:"programId"`
	Deadline     time.Time          `bson:"deadline" json:"deadline"`
	DaysLeft     *int               `bson:"days_left,omitempty" json:"daysLeft,omitempty"`
	DaysOverdue  *int               `bson:"days_overdue,omitempty" json:"daysOverdue,omitempty"`
}

// Notification is a user-facing message. Status entries live in their own
// collection; deadline entries are embedded in the owner's profile.
type Notification struct {
	ID            primitive.ObjectID     `bson:"_id" json:"id"`
	UserID        primitive.ObjectID     `bson:"user_id" json:"userId"`
	Category      Category               `bson:"category" json:"category"`
	Type          Type                   `bson:"type" json:"type"`
	Title         string                 `bson:"title" json:"title"`
	Message       string                 `bson:"message" json:"message"`
	Read          bool                   `bson:"read" json:"read"`
	ReadAt        *time.Time             `bson:"read_at,omitempty" json:"readAt,omitempty"`
	ApplicationID *primitive.ObjectID    `bson:"application_id,omitempty" json:"applicationId,omitempty"`
	UniversityID  *primitive.ObjectID    `bson:"university_id,omitempty" json:"universityId,omitempty"`
	Data          map[string]interface{} `bson:"data,omitempty" json:"data,omitempty"`
	Deadline      *DeadlinePayload       `bson:"deadline,omitempty" json:"deadline,omitempty"`
	Priority      Priority               `bson:"priority" json:"priority"`
	SendEmail     bool                   `bson:"send_email" json:"sendEmail"`
	DedupKey      string                 `bson:"dedup_key,omitempty" json:"-"`
	ExpiresAt     *time.Time             `bson:"expires_at,omitempty" json:"expiresAt,omitempty"`
	CreatedAt     time.Time              `bson:"created_at" json:"createdAt"`
}

// Expired reports whether n is past its expiry at now.
func (n Notification) Expired(now time.Time) bool {
	return n.ExpiresAt != nil && !n.ExpiresAt.After(now)
}

const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Query filters a paginated listing. Zero values mean "no filter".
type Query struct {
	Page  int
	Limit int
	Type  Type
	Read  *bool
}

// Normalize clamps page and limit into their valid ranges.
func (q Query) Normalize() Query {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.Limit < 1 {
		q.Limit = DefaultLimit
	}
	if q.Limit > MaxLimit {
		q.Limit = MaxLimit
	}
	return q
}

func (q Query) skip() int {
	return (q.Page - 1) * q.Limit
}

type Page struct {
	Items      []Notification `json:"notifications"`
	Total      int64          `json:"total"`
	Page       int            `json:"currentPage"`
	Limit      int            `json:"limit"`
	TotalPages int            `json:"totalPages"`
}

func newPage(items []Notification, total int64, q Query) *Page {
	if items == nil {
		items = []Notification{}
	}
	return &Page{
		Items:      items,
		Total:      total,
		Page:       q.Page,
		Limit:      q.Limit,
		TotalPages: int((total + int64(q.Limit) - 1) / int64(q.Limit)),
	}
}

type MarkReadRequest struct {
	NotificationIDs []string `json:"notificationIds" validate:"required,min=1,dive,objectid"`
}

type DeleteRequest struct {
	NotificationIDs []string `json:"notificationIds" validate:"required,min=1,dive,objectid"`
}
