package profile

import (
	"time"

	"UniPath/internal/notification"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type SavedProgram struct {
	ID           primitive.ObjectID `bson:"_id" json:"id"`
	UniversityID primitive.ObjectID `bson:"university_id" json:"universityId"`
	ProgramID    primitive.ObjectID `bson:"program_id" json:"programId"`
	SavedAt      time.Time          `bson:"saved_at" json:"savedAt"`
}

// AlertPreferences controls deadline alerts. TriggerOffsets are the
// days-before-deadline at which an alert fires; nil means the configured
// defaults and an empty list means none.
type AlertPreferences struct {
	EmailAlerts    bool  `bson:"email_alerts" json:"emailAlerts"`
	OnsiteAlerts   bool  `bson:"onsite_alerts" json:"onsiteAlerts"`
	TriggerOffsets []int `bson:"trigger_offsets" json:"triggerOffsets" validate:"unique,dive,gte=0,lte=365"`
}

func DefaultPreferences(offsets []int) AlertPreferences {
	return AlertPreferences{
		EmailAlerts:    true,
		OnsiteAlerts:   true,
		TriggerOffsets: append([]int(nil), offsets...),
	}
}

type Profile struct {
	ID                    primitive.ObjectID          `bson:"_id,omitempty" json:"id"`
	UserID                primitive.ObjectID          `bson:"user_id" json:"userId"`
	Nationality           string                      `bson:"nationality,omitempty" json:"nationality,omitempty"`
	TargetCountries       []string                    `bson:"target_countries" json:"targetCountries"`
	TargetDegreeLevel     string                      `bson:"target_degree_level,omitempty" json:"targetDegreeLevel,omitempty"`
	GPA                   *float64                    `bson:"gpa,omitempty" json:"gpa,omitempty"`
	SavedPrograms         []SavedProgram              `bson:"saved_programs" json:"savedPrograms"`
	DeadlineNotifications []notification.Notification `bson:"deadline_notifications" json:"-"`
	DeadlineDedupKeys     []string                    `bson:"deadline_dedup_keys,omitempty" json:"-"`
	AlertPreferences      AlertPreferences            `bson:"alert_preferences" json:"alertPreferences"`
	CreatedAt             time.Time                   `bson:"created_at" json:"createdAt"`
	UpdatedAt             time.Time                   `bson:"updated_at" json:"updatedAt"`
}

// HasDedupKey reports whether a deadline notification with key was ever
// created for this profile, even if it has since been deleted or purged.
func (p *Profile) HasDedupKey(key string) bool {
	for _, k := range p.DeadlineDedupKeys {
		if k == key {
			return true
		}
	}
	for _, n := range p.DeadlineNotifications {
		if n.DedupKey == key {
			return true
		}
	}
	return false
}

func (p *Profile) SavedProgram(id primitive.ObjectID) (*SavedProgram, bool) {
	for i := range p.SavedPrograms {
		if p.SavedPrograms[i].ID == id {
			return &p.SavedPrograms[i], true
		}
	}
	return nil, false
}

type UpdateRequest struct {
	Nationality       *string  `json:"nationality" validate:"omitempty,max=80"`
	TargetCountries   []string `json:"targetCountries" validate:"omitempty,max=20,dive,max=80"`
	TargetDegreeLevel *string  `json:"targetDegreeLevel" validate:"omitempty,oneof=bachelor master phd diploma"`
	GPA               *float64 `json:"gpa" validate:"omitempty,gte=0,lte=4"`
}
