package application

import (
	"context"

	"UniPath/internal/apperr"
	"UniPath/internal/catalog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type memStore struct {
	items map[primitive.ObjectID]*Application
}

func newMemStore() *memStore {
	return &memStore{items: map[primitive.ObjectID]*Application{}}
}

func (m *memStore) Create(_ context.Context, app *Application) error {
	for _, existing := range m.items {
		if existing.Active && existing.UserID == app.UserID && existing.UniversityID == app.UniversityID {
			return apperr.Conflict("an active application for this university already exists")
		}
	}
	cp := *app
	m.items[app.ID] = &cp
	return nil
}

func (m *memStore) FindByID(_ context.Context, id primitive.ObjectID) (*Application, error) {
	app, ok := m.items[id]
	if !ok {
		return nil, apperr.NotFound("application")
	}
	cp := *app
	return &cp, nil
}

func (m *memStore) ListByUser(_ context.Context, userID primitive.ObjectID, q ListQuery) ([]Application, int64, error) {
	var out []Application
	for _, app := range m.items {
		if app.UserID == userID && (q.Status == "" || app.Status == q.Status) {
			out = append(out, *app)
		}
	}
	return out, int64(len(out)), nil
}

func (m *memStore) UpdateContent(_ context.Context, id, userID primitive.ObjectID, set bson.M) error {
	app, ok := m.items[id]
	if !ok || app.UserID != userID || !app.Active {
		return apperr.Conflict("application can no longer be edited")
	}
	if v, ok := set["subject"].(string); ok {
		app.Subject = v
	}
	if v, ok := set["year"].(int); ok {
		app.Year = v
	}
	return nil
}

func (m *memStore) UpdateStatus(_ context.Context, id primitive.ObjectID, from Status, entry HistoryEntry) error {
	app, ok := m.items[id]
	if !ok || app.Status != from {
		return apperr.Conflict("application status changed concurrently")
	}
	app.Status = entry.Status
	app.Active = !entry.Status.Terminal()
	app.StatusHistory = append(app.StatusHistory, entry)
	return nil
}

func (m *memStore) Delete(_ context.Context, id, userID primitive.ObjectID) error {
	app, ok := m.items[id]
	if !ok || app.UserID != userID || !app.Active {
		return apperr.Conflict("application can no longer be withdrawn")
	}
	delete(m.items, id)
	return nil
}

type memUniversities map[primitive.ObjectID]*catalog.University

func (m memUniversities) FindByID(_ context.Context, id primitive.ObjectID) (*catalog.University, error) {
	return m[id], nil
}

type recordingNotifier struct {
	calls []Status
}

func (r *recordingNotifier) Notify(_ context.Context, app *Application, _ string, _ Status, _ string) {
	r.calls = append(r.calls, app.Status)
}
