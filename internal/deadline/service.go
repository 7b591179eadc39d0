package deadline

import (
	"context"
	"sort"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/catalog"
	"UniPath/internal/notification"
	"UniPath/internal/profile"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// UrgencyUnknown marks a tracked program that has neither a deadline nor
// rolling admission.
const UrgencyUnknown Urgency = "unknown"

type View struct {
	SavedProgramID primitive.ObjectID `json:"savedProgramId"`
	UniversityID   primitive.ObjectID `json:"universityId"`
	UniversityName string             `json:"universityName"`
	Country        string             `json:"country"`
	ProgramID      primitive.ObjectID `json:"programId"`
	ProgramName    string             `json:"programName"`
	DegreeLevel    string             `json:"degreeLevel"`
	Deadline       *time.Time         `json:"deadline,omitempty"`
	Rolling        bool               `json:"rolling"`
	DaysLeft       *int               `json:"daysLeft"`
	Urgency        Urgency            `json:"urgency"`
	SavedAt        time.Time          `json:"savedAt"`
}

// Filter narrows the deadline listing. WithinDays keeps deadlines between
// today and N days out, which drops rolling and expired ones.
type Filter struct {
	WithinDays  *int
	Country     string
	DegreeLevel string
}

type SaveRequest struct {
	UniversityID string `json:"universityId" validate:"required,objectid"`
	ProgramID    string `json:"programId" validate:"required,objectid"`
}

type PreferencesRequest struct {
	EmailAlerts    *bool `json:"emailAlerts"`
	OnsiteAlerts   *bool `json:"onsiteAlerts"`
	TriggerOffsets []int `json:"triggerOffsets" validate:"omitempty,max=10,unique,dive,gte=0,lte=365"`
}

type universityLookup interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*catalog.University, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]catalog.University, error)
}

type DeadlineService struct {
	profiles     *profile.ProfileService
	universities universityLookup
	ledger       *notification.Ledger
	now          func() time.Time
}

func NewDeadlineService(profiles *profile.ProfileService, universities *catalog.UniversityRepository, ledger *notification.Ledger) *DeadlineService {
	return newDeadlineService(profiles, universities, ledger)
}

func newDeadlineService(profiles *profile.ProfileService, universities universityLookup, ledger *notification.Ledger) *DeadlineService {
	return &DeadlineService{profiles: profiles, universities: universities, ledger: ledger, now: time.Now}
}

func (s *DeadlineService) List(ctx context.Context, userID primitive.ObjectID, f Filter) ([]View, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	ids := make([]primitive.ObjectID, 0, len(p.SavedPrograms))
	for _, sp := range p.SavedPrograms {
		ids = append(ids, sp.UniversityID)
	}
	unis, err := s.universities.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[primitive.ObjectID]*catalog.University, len(unis))
	for i := range unis {
		byID[unis[i].ID] = &unis[i]
	}

	now := s.now()
	views := make([]View, 0, len(p.SavedPrograms))
	for _, sp := range p.SavedPrograms {
		uni, ok := byID[sp.UniversityID]
		if !ok {
			continue
		}
		prog, ok := uni.Program(sp.ProgramID)
		if !ok {
			continue
		}
		if f.Country != "" && uni.Country != f.Country {
			continue
		}
		if f.DegreeLevel != "" && prog.DegreeLevel != f.DegreeLevel {
			continue
		}

		v := View{
			SavedProgramID: sp.ID,
			UniversityID:   uni.ID,
			UniversityName: uni.Name,
			Country:        uni.Country,
			ProgramID:      prog.ID,
			ProgramName:    prog.Name,
			DegreeLevel:    prog.DegreeLevel,
			Rolling:        prog.Rolling,
			SavedAt:        sp.SavedAt,
			Urgency:        UrgencyUnknown,
		}
		if prog.Rolling {
			v.Urgency = UrgencyRolling
		} else if prog.Deadline != nil {
			ev := Evaluate(now, *prog.Deadline, false, nil)
			v.Deadline = prog.Deadline
			v.DaysLeft = ev.DaysLeft
			v.Urgency = ev.Urgency
		}

		if f.WithinDays != nil {
			if v.DaysLeft == nil || *v.DaysLeft < 0 || *v.DaysLeft > *f.WithinDays {
				continue
			}
		}
		views = append(views, v)
	}

	sort.SliceStable(views, func(i, j int) bool {
		a, b := views[i].DaysLeft, views[j].DaysLeft
		switch {
		case a == nil:
			return false
		case b == nil:
			return true
		default:
			return *a < *b
		}
	})
	return views, nil
}

func (s *DeadlineService) SaveProgram(ctx context.Context, userID primitive.ObjectID, universityID, programID primitive.ObjectID) (*profile.SavedProgram, error) {
	uni, err := s.universities.FindByID(ctx, universityID)
	if err != nil {
		return nil, err
	}
	if uni == nil {
		return nil, apperr.NotFound("university")
	}
	if _, ok := uni.Program(programID); !ok {
		return nil, apperr.NotFound("program")
	}
	if _, err := s.profiles.Get(ctx, userID); err != nil {
		return nil, err
	}

	sp := profile.SavedProgram{
		ID:           primitive.NewObjectID(),
		UniversityID: universityID,
		ProgramID:    programID,
		SavedAt:      s.now(),
	}
	if err := s.profiles.Repo().SaveProgram(ctx, userID, sp); err != nil {
		return nil, err
	}
	return &sp, nil
}

func (s *DeadlineService) RemoveProgram(ctx context.Context, userID, savedID primitive.ObjectID) error {
	return s.profiles.Repo().RemoveProgram(ctx, userID, savedID)
}

func (s *DeadlineService) Preferences(ctx context.Context, userID primitive.ObjectID) (profile.AlertPreferences, error) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		return profile.AlertPreferences{}, err
	}
	return p.AlertPreferences, nil
}

// UpdatePreferences merges the set fields of req into the stored preferences.
func (s *DeadlineService) UpdatePreferences(ctx context.Context, userID primitive.ObjectID, req PreferencesRequest) (profile.AlertPreferences, error) {
	prefs, err := s.Preferences(ctx, userID)
	if err != nil {
		return prefs, err
	}
	if req.EmailAlerts != nil {
		prefs.EmailAlerts = *req.EmailAlerts
	}
	if req.OnsiteAlerts != nil {
		prefs.OnsiteAlerts = *req.OnsiteAlerts
	}
	if req.TriggerOffsets != nil {
		// an empty list is kept as is and turns countdown alerts off
		prefs.TriggerOffsets = make([]int, len(req.TriggerOffsets))
		copy(prefs.TriggerOffsets, req.TriggerOffsets)
		sort.Sort(sort.Reverse(sort.IntSlice(prefs.TriggerOffsets)))
	}
	if err := s.profiles.Repo().UpdatePreferences(ctx, userID, prefs); err != nil {
		return prefs, err
	}
	return prefs, nil
}

func (s *DeadlineService) Notifications(ctx context.Context, userID primitive.ObjectID, q notification.Query) (*notification.Page, error) {
	return s.ledger.List(ctx, notification.CategoryDeadline, userID, q)
}

func (s *DeadlineService) MarkNotificationRead(ctx context.Context, userID, id primitive.ObjectID) error {
	return s.ledger.MarkOneRead(ctx, notification.CategoryDeadline, userID, id)
}
