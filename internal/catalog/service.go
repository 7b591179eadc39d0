package catalog

import (
	"context"
	"strings"
	"time"

	"UniPath/internal/apperr"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Universities interface {
	FindByID(ctx context.Context, id primitive.ObjectID) (*University, error)
	FindByIDs(ctx context.Context, ids []primitive.ObjectID) ([]University, error)
	Create(ctx context.Context, u *University) error
	List(ctx context.Context, f ListFilter) ([]University, int64, error)
}

type Scholarships interface {
	Create(ctx context.Context, s *Scholarship) error
	List(ctx context.Context, f ListFilter) ([]Scholarship, int64, error)
}

type Resources interface {
	Create(ctx context.Context, r *Resource) error
	List(ctx context.Context, f ListFilter) ([]Resource, int64, error)
}

type CatalogService struct {
	universities Universities
	scholarships Scholarships
	resources    Resources
	now          func() time.Time
}

func NewCatalogService(u *UniversityRepository, s *ScholarshipRepository, r *ResourceRepository) *CatalogService {
	return &CatalogService{universities: u, scholarships: s, resources: r, now: time.Now}
}

func (s *CatalogService) CreateUniversity(ctx context.Context, req UniversityRequest) (*University, error) {
	u := &University{
		ID:        primitive.NewObjectID(),
		Name:      strings.TrimSpace(req.Name),
		Country:   req.Country,
		City:      req.City,
		Ranking:   req.Ranking,
		Website:   req.Website,
		Programs:  make([]Program, 0, len(req.Programs)),
		CreatedAt: s.now(),
	}
	for _, p := range req.Programs {
		deadline := p.Deadline
		if p.Rolling {
			deadline = nil
		}
		u.Programs = append(u.Programs, Program{
			ID:             primitive.NewObjectID(),
			Name:           p.Name,
			DegreeLevel:    p.DegreeLevel,
			Field:          p.Field,
			Deadline:       deadline,
			Rolling:        p.Rolling,
			TuitionFee:     p.TuitionFee,
			Currency:       strings.ToUpper(p.Currency),
			DurationMonths: p.DurationMonths,
		})
	}
	if err := s.universities.Create(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

func (s *CatalogService) GetUniversity(ctx context.Context, id primitive.ObjectID) (*University, error) {
	u, err := s.universities.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, apperr.NotFound("university")
	}
	return u, nil
}

func (s *CatalogService) ListUniversities(ctx context.Context, f ListFilter) ([]University, int64, error) {
	return s.universities.List(ctx, f)
}

func (s *CatalogService) CreateScholarship(ctx context.Context, req ScholarshipRequest) (*Scholarship, error) {
	sch := &Scholarship{
		ID:           primitive.NewObjectID(),
		Name:         strings.TrimSpace(req.Name),
		Provider:     strings.TrimSpace(req.Provider),
		Amount:       req.Amount,
		Currency:     strings.ToUpper(req.Currency),
		Deadline:     req.Deadline,
		Countries:    req.Countries,
		DegreeLevels: req.DegreeLevels,
		CreatedAt:    s.now(),
	}
	if req.UniversityID != "" {
		id, err := primitive.ObjectIDFromHex(req.UniversityID)
		if err != nil {
			return nil, apperr.NewValidationError(err, apperr.FieldError{Field: "universityId", Error: "must be a valid id"})
		}
		if _, err := s.GetUniversity(ctx, id); err != nil {
			return nil, err
		}
		sch.UniversityID = &id
	}
	if err := s.scholarships.Create(ctx, sch); err != nil {
		return nil, err
	}
	return sch, nil
}

func (s *CatalogService) ListScholarships(ctx context.Context, f ListFilter) ([]Scholarship, int64, error) {
	return s.scholarships.List(ctx, f)
}

func (s *CatalogService) CreateResource(ctx context.Context, req ResourceRequest) (*Resource, error) {
	res := &Resource{
		ID:        primitive.NewObjectID(),
		Title:     strings.TrimSpace(req.Title),
		Slug:      strings.ToLower(strings.TrimSpace(req.Slug)),
		Category:  req.Category,
		URL:       req.URL,
		Content:   req.Content,
		CreatedAt: s.now(),
	}
	if err := s.resources.Create(ctx, res); err != nil {
		return nil, err
	}
	return res, nil
}

func (s *CatalogService) ListResources(ctx context.Context, f ListFilter) ([]Resource, int64, error) {
	return s.resources.List(ctx, f)
}
