package application

import (
	"context"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/catalog"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	defaultPage  = 1
	defaultLimit = 20
	maxLimit     = 100
)

type Store interface {
	Create(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id primitive.ObjectID) (*Application, error)
	ListByUser(ctx context.Context, userID primitive.ObjectID, q ListQuery) ([]Application, int64, error)
	UpdateContent(ctx context.Context, id, userID primitive.ObjectID, set bson.M) error
	UpdateStatus(ctx context.Context, id primitive.ObjectID, from Status, entry HistoryEntry) error
	Delete(ctx context.Context, id, userID primitive.ObjectID) error
}

type UniversityFinder interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*catalog.University, error)
}

type Notifier interface {
	Notify(ctx context.Context, app *Application, universityName string, old Status, note string)
}

type ApplicationService struct {
	store        Store
	universities UniversityFinder
	notifier     Notifier
	now          func() time.Time
}

func NewApplicationService(repo *ApplicationRepository, universities *catalog.UniversityRepository, notifier *StatusNotifier) *ApplicationService {
	return newService(repo, universities, notifier)
}

func newService(store Store, universities UniversityFinder, notifier Notifier) *ApplicationService {
	return &ApplicationService{store: store, universities: universities, notifier: notifier, now: time.Now}
}

func invalidField(field, msg string) error {
	return apperr.NewValidationError(errors.New(field+" "+msg), apperr.FieldError{Field: field, Error: msg})
}

func (s *ApplicationService) university(ctx context.Context, id primitive.ObjectID) (*catalog.University, error) {
	u, err := s.universities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("university")
	}
	return u, nil
}

// Create submits a new pending application.
func (s *ApplicationService) Create(ctx context.Context, userID primitive.ObjectID, req CreateRequest) (*Application, error) {
	uniID, err := primitive.ObjectIDFromHex(req.UniversityID)
	if err != nil {
		return nil, invalidField("universityId", "must be a valid id")
	}
	u, err := s.university(ctx, uniID)
	if err != nil {
		return nil, err
	}
	var programID *primitive.ObjectID
	if req.ProgramID != "" {
		pid, err := primitive.ObjectIDFromHex(req.ProgramID)
		if err != nil {
			return nil, invalidField("programId", "must be a valid id")
		}
		if _, ok := u.Program(pid); !ok {
			return nil, apperr.NotFound("program")
		}
		programID = &pid
	}

	now := s.now()
	app := &Application{
		ID:                primitive.NewObjectID(),
		UserID:            userID,
		UniversityID:      uniID,
		ProgramID:         programID,
		Semester:          req.Semester,
		Year:              req.Year,
		Subject:           req.Subject,
		PersonalStatement: req.PersonalStatement,
		Status:            StatusPending,
		StatusHistory:     []HistoryEntry{{Status: StatusPending, ChangedAt: now}},
		Metadata:          req.Metadata,
		Active:            true,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	if err := s.store.Create(ctx, app); err != nil {
		return nil, err
	}
	return app, nil
}

// Get returns an application visible to the caller: its owner or staff.
func (s *ApplicationService) Get(ctx context.Context, id, userID primitive.ObjectID, staff bool) (*Application, error) {
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !staff && app.UserID != userID {
		return nil, apperr.Forbidden("application belongs to another user")
	}
	return app, nil
}

func (s *ApplicationService) List(ctx context.Context, userID primitive.ObjectID, q ListQuery) ([]Application, int64, ListQuery, error) {
	if q.Status != "" && !q.Status.Valid() {
		return nil, 0, q, invalidField("status", "unknown application status")
	}
	if q.Page < 1 {
		q.Page = defaultPage
	}
	if q.Limit < 1 {
		q.Limit = defaultLimit
	}
	if q.Limit > maxLimit {
		q.Limit = maxLimit
	}
	items, total, err := s.store.ListByUser(ctx, userID, q)
	return items, total, q, err
}

func (s *ApplicationService) owned(ctx context.Context, id, userID primitive.ObjectID) (*Application, error) {
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if app.UserID != userID {
		return nil, apperr.Forbidden("application belongs to another user")
	}
	if app.Status.Terminal() {
		return nil, apperr.Conflict("application has a final decision")
	}
	return app, nil
}

// Update edits the content of the caller's own undecided application.
func (s *ApplicationService) Update(ctx context.Context, id, userID primitive.ObjectID, req UpdateRequest) (*Application, error) {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return nil, err
	}
	if err := s.store.UpdateContent(ctx, id, userID, contentUpdate(req, s.now())); err != nil {
		return nil, err
	}
	return s.store.FindByID(ctx, id)
}

// UpdateStatus applies a state machine transition and notifies the owner.
// Setting the current status again is a no-op.
func (s *ApplicationService) UpdateStatus(ctx context.Context, id, actorID primitive.ObjectID, req StatusRequest) (*Application, error) {
	next := Status(req.Status)
	if !next.Valid() {
		return nil, invalidField("status", "unknown application status")
	}
	app, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	old := app.Status
	if next == old {
		return app, nil
	}
	if old.Terminal() {
		return nil, apperr.Conflict("application has a final decision")
	}
	if !CanTransition(old, next) {
		return nil, invalidField("status", "cannot move from "+string(old)+" to "+string(next))
	}

	actor := actorID
	entry := HistoryEntry{Status: next, ChangedAt: s.now(), Note: req.Note, ChangedBy: &actor}
	if err := s.store.UpdateStatus(ctx, id, old, entry); err != nil {
		return nil, err
	}
	app.Status = next
	app.Active = !next.Terminal()
	app.UpdatedAt = entry.ChangedAt
	app.StatusHistory = append(app.StatusHistory, entry)

	name := "your chosen university"
	if u, err := s.universities.FindByID(ctx, app.UniversityID); err == nil && u != nil {
		name = u.Name
	}
	s.notifier.Notify(ctx, app, name, old, req.Note)
	return app, nil
}

// Withdraw deletes the caller's own undecided application.
func (s *ApplicationService) Withdraw(ctx context.Context, id, userID primitive.ObjectID) error {
	if _, err := s.owned(ctx, id, userID); err != nil {
		return err
	}
	return s.store.Delete(ctx, id, userID)
}
