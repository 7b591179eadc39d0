package deadline

import (
	"context"
	"time"

	"UniPath/internal/apperr"
	"UniPath/internal/catalog"
	"UniPath/internal/notification"
	"UniPath/internal/profile"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memProfiles implements profile.Profiles and ProfileSource over a slice.
type memProfiles struct {
	items []*profile.Profile
}

func (m *memProfiles) find(userID primitive.ObjectID) *profile.Profile {
	for _, p := range m.items {
		if p.UserID == userID {
			return p
		}
	}
	return nil
}

func (m *memProfiles) GetOrCreate(_ context.Context, userID primitive.ObjectID, prefs profile.AlertPreferences) (*profile.Profile, error) {
	if p := m.find(userID); p != nil {
		return p, nil
	}
	p := &profile.Profile{ID: primitive.NewObjectID(), UserID: userID, AlertPreferences: prefs}
	m.items = append(m.items, p)
	return p, nil
}

func (m *memProfiles) Update(context.Context, primitive.ObjectID, profile.UpdateRequest) error {
	return nil
}

func (m *memProfiles) SaveProgram(_ context.Context, userID primitive.ObjectID, sp profile.SavedProgram) error {
	p := m.find(userID)
	if p == nil {
		return apperr.NotFound("profile")
	}
	for _, existing := range p.SavedPrograms {
		if existing.UniversityID == sp.UniversityID && existing.ProgramID == sp.ProgramID {
			return apperr.Conflict("program already saved")
		}
	}
	p.SavedPrograms = append(p.SavedPrograms, sp)
	return nil
}

func (m *memProfiles) RemoveProgram(_ context.Context, userID, savedID primitive.ObjectID) error {
	p := m.find(userID)
	if p == nil {
		return apperr.NotFound("saved program")
	}
	for i, sp := range p.SavedPrograms {
		if sp.ID == savedID {
			p.SavedPrograms = append(p.SavedPrograms[:i], p.SavedPrograms[i+1:]...)
			return nil
		}
	}
	return apperr.NotFound("saved program")
}

func (m *memProfiles) UpdatePreferences(_ context.Context, userID primitive.ObjectID, prefs profile.AlertPreferences) error {
	p := m.find(userID)
	if p == nil {
		return apperr.NotFound("profile")
	}
	p.AlertPreferences = prefs
	return nil
}

func (m *memProfiles) ForEachWithSavedPrograms(_ context.Context, fn func(*profile.Profile) error) error {
	for _, p := range m.items {
		if len(p.SavedPrograms) == 0 {
			continue
		}
		// hand out a copy, as a cursor would
		cp := *p
		cp.DeadlineNotifications = append([]notification.Notification(nil), p.DeadlineNotifications...)
		cp.DeadlineDedupKeys = append([]string(nil), p.DeadlineDedupKeys...)
		if err := fn(&cp); err != nil {
			return err
		}
	}
	return nil
}

// PurgeRead drops read entries older than cutoff and keeps dedup keys, like
// the $pull in the deadline repository.
func (m *memProfiles) PurgeRead(_ context.Context, cutoff time.Time) (int64, error) {
	var touched int64
	for _, p := range m.items {
		kept := p.DeadlineNotifications[:0]
		for _, n := range p.DeadlineNotifications {
			if !notification.ReadBefore(n, cutoff) {
				kept = append(kept, n)
			}
		}
		if len(kept) != len(p.DeadlineNotifications) {
			touched++
		}
		p.DeadlineNotifications = kept
	}
	return touched, nil
}

func (m *memProfiles) markRead(userID primitive.ObjectID, at time.Time) {
	p := m.find(userID)
	for i := range p.DeadlineNotifications {
		p.DeadlineNotifications[i].Read = true
		p.DeadlineNotifications[i].ReadAt = &at
	}
}

type memUniversities struct {
	byID map[primitive.ObjectID]catalog.University
	err  error
}

func (m *memUniversities) FindByID(_ context.Context, id primitive.ObjectID) (*catalog.University, error) {
	u, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &u, nil
}

func (m *memUniversities) FindByIDs(_ context.Context, ids []primitive.ObjectID) ([]catalog.University, error) {
	if m.err != nil {
		return nil, m.err
	}
	var out []catalog.University
	seen := map[primitive.ObjectID]bool{}
	for _, id := range ids {
		if u, ok := m.byID[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, u)
		}
	}
	return out, nil
}

// memWriter appends into the stored profiles, enforcing dedup keys the way
// the conditional database write does.
type memWriter struct {
	profiles *memProfiles
	failures map[primitive.ObjectID]int
	calls    map[primitive.ObjectID]int
}

func newMemWriter(p *memProfiles) *memWriter {
	return &memWriter{profiles: p, failures: map[primitive.ObjectID]int{}, calls: map[primitive.ObjectID]int{}}
}

func (w *memWriter) AppendUnique(_ context.Context, userID primitive.ObjectID, entries []notification.Notification) (int, error) {
	w.calls[userID]++
	if w.failures[userID] > 0 {
		w.failures[userID]--
		return 0, errors.New("write conflict")
	}
	p := w.profiles.find(userID)
	if p == nil {
		return 0, apperr.NotFound("profile")
	}
	var n int
	for _, e := range entries {
		if p.HasDedupKey(e.DedupKey) {
			continue
		}
		p.DeadlineNotifications = append(p.DeadlineNotifications, e)
		p.DeadlineDedupKeys = append(p.DeadlineDedupKeys, e.DedupKey)
		n++
	}
	return n, nil
}
