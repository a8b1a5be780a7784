// Package services implements the directory operations on top of the graph
// database: listing and finding companies, and keeping the Company, Location
// and Tag nodes and their relationships in sync with edits.
package services

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/sdstartups/startupmap-backend/cache"
	"github.com/sdstartups/startupmap-backend/database"
	e "github.com/sdstartups/startupmap-backend/errors"
	"github.com/sdstartups/startupmap-backend/events/modules/companies"
	"github.com/sdstartups/startupmap-backend/model"
	"github.com/sdstartups/startupmap-backend/util"
	"go.uber.org/zap"
)

// Geocoder resolves an address tuple to coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, address, city, state, zip string) (float64, float64, error)
}

// EventProducer publishes directory changes. Publish must not block.
type EventProducer interface {
	Publish(eventType companies.EventType, company model.Company)
}

// Options tunes a CompanyService.
type Options struct {
	// Transactional runs every write in one native transaction when the
	// executor supports it.
	Transactional bool
	TagsTTL       time.Duration
	CompaniesTTL  time.Duration
}

// DefaultOptions matches the read caching of the map page.
var DefaultOptions = Options{
	Transactional: true,
	TagsTTL:       15 * time.Second,
	CompaniesTTL:  15 * time.Second,
}

// CompanyService is the entity synchronizer of the directory.
type CompanyService struct {
	db       database.Executor
	queries  database.QuerySet
	geocoder Geocoder
	cache    cache.Cache
	producer EventProducer
	opts     Options
	logger   *zap.Logger
}

// NewCompanyService wires the synchronizer. cache and producer may be nil.
func NewCompanyService(db database.Executor, queries database.QuerySet, geocoder Geocoder,
	c cache.Cache, producer EventProducer, opts Options, logger *zap.Logger) *CompanyService {
	return &CompanyService{
		db:       db,
		queries:  queries,
		geocoder: geocoder,
		cache:    c,
		producer: producer,
		opts:     opts,
		logger:   logger.Named("company_service"),
	}
}

// ListTags returns the names of tags attached to at least one company,
// deduplicated and sorted.
func (s *CompanyService) ListTags(ctx context.Context) ([]string, error) {
	return cache.Remember(ctx, s.cache, "tags", s.opts.TagsTTL, func() ([]string, error) {
		res, err := s.db.Execute(ctx, s.queries.ListTags, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to list tags: %w", err)
		}

		names := make([]string, 0, len(res.Records))
		for _, rec := range res.Records {
			tag, err := model.TagFromRecord(rec)
			if err != nil {
				s.logger.Warn("skipping malformed tag row", zap.Error(err))
				continue
			}
			names = append(names, tag.Name)
		}
		return util.NormalizeTags(names), nil
	})
}

// ListCompanies returns every company with a current office when tags is
// empty, and otherwise the companies carrying at least one of tags. Results
// are unique by UUID and ordered by name.
func (s *CompanyService) ListCompanies(ctx context.Context, tags []string) ([]model.Company, error) {
	tags = util.NormalizeTags(tags)
	key := cache.Key("companies", tags...)

	return cache.Remember(ctx, s.cache, key, s.opts.CompaniesTTL, func() ([]model.Company, error) {
		res, err := s.db.Execute(ctx, s.queries.ListCompanies, map[string]interface{}{"tags": tags})
		if err != nil {
			return nil, fmt.Errorf("failed to list companies: %w", err)
		}

		seen := make(map[uuid.UUID]bool, len(res.Records))
		out := make([]model.Company, 0, len(res.Records))
		for _, rec := range res.Records {
			c, err := model.CompanyFromRecord(rec)
			if err != nil {
				s.logger.Warn("skipping malformed company row", zap.Error(err))
				continue
			}
			if seen[c.UUID] {
				continue
			}
			seen[c.UUID] = true
			out = append(out, c)
		}

		sort.SliceStable(out, func(i, j int) bool {
			if out[i].Name != out[j].Name {
				return out[i].Name < out[j].Name
			}
			return out[i].UUID.String() < out[j].UUID.String()
		})
		return out, nil
	})
}

// FindCompany returns the company with exactly this name. When several share
// it, the one with the lowest UUID wins.
func (s *CompanyService) FindCompany(ctx context.Context, name string) (model.Company, error) {
	if name == "" {
		return model.Company{}, fmt.Errorf("%w: name is required", e.ErrInvalidInput)
	}

	res, err := s.db.Execute(ctx, s.queries.FindCompanyByName, map[string]interface{}{"name": name})
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to find company: %w", err)
	}
	if len(res.Records) == 0 {
		return model.Company{}, fmt.Errorf("company %q: %w", name, e.ErrNotFound)
	}
	return model.CompanyFromRecord(res.Records[0])
}

// GetCompany returns the company with the given UUID.
func (s *CompanyService) GetCompany(ctx context.Context, id uuid.UUID) (model.Company, error) {
	return s.getCompany(ctx, s.db, id.String())
}

// OfficeHistory lists the current and former offices of a company.
func (s *CompanyService) OfficeHistory(ctx context.Context, id uuid.UUID) (model.OfficeHistory, error) {
	if _, err := s.getCompany(ctx, s.db, id.String()); err != nil {
		return model.OfficeHistory{}, err
	}

	res, err := s.db.Execute(ctx, s.queries.Offices, map[string]interface{}{"uuid": id.String()})
	if err != nil {
		return model.OfficeHistory{}, fmt.Errorf("failed to list offices: %w", err)
	}

	history := model.OfficeHistory{Current: []model.Location{}, Former: []model.Location{}}
	for _, rec := range res.Records {
		loc, err := model.LocationFromRecord(rec)
		if err != nil {
			s.logger.Warn("skipping malformed office row", zap.Error(err))
			continue
		}
		switch rec["Relationship"] {
		case database.RelHasOffice:
			history.Current = append(history.Current, loc)
		case database.RelHadOffice:
			history.Former = append(history.Former, loc)
		}
	}
	return history, nil
}

// CreateCompany stores a new company with its office and tags. A company
// whose Url is already stored is not overwritten; the existing node gains the
// tags, and the submitted office replaces its current one, which moves to the
// history. Coordinates are looked up only for new addresses.
func (s *CompanyService) CreateCompany(ctx context.Context, input model.Company) (model.Company, error) {
	input.Normalize()
	if err := input.Validate(); err != nil {
		return model.Company{}, err
	}
	if input.UUID == uuid.Nil {
		input.UUID = uuid.New()
	}

	var created model.Company
	err := s.write(ctx, func(ctx context.Context, x database.Executor) error {
		office := input.Office()
		if err := s.resolveLocation(ctx, x, office); err != nil {
			return err
		}

		id, err := s.mergeCompany(ctx, x, input)
		if err != nil {
			return err
		}

		// A Url hit may already have a current office somewhere else; it
		// becomes history so the company keeps exactly one.
		stored, err := s.getCompany(ctx, x, id)
		if err != nil {
			return err
		}
		if current := stored.Office(); !current.Empty() && !current.SameAddress(office) {
			if _, err := x.Execute(ctx, s.queries.SupersedeOffices, map[string]interface{}{"uuid": id}); err != nil {
				return fmt.Errorf("failed to supersede offices: %w", err)
			}
		}

		if err := s.attachOffice(ctx, x, id, office); err != nil {
			return err
		}

		if err := s.attachTags(ctx, x, id, input.Tags); err != nil {
			return err
		}

		created, err = s.getCompany(ctx, x, id)
		return err
	})
	if err != nil {
		return model.Company{}, err
	}

	s.logger.Info("company created", zap.String("company_id", created.UUID.String()), zap.String("name", created.Name))
	s.publish(companies.CompanyCreated, created)
	return created, nil
}

// UpdateCompany applies updated to the company identified by original.UUID.
// An address change moves the current office to the history and attaches the
// new one; the scalar fields are overwritten and the tag set replaced.
func (s *CompanyService) UpdateCompany(ctx context.Context, original, updated model.Company) (model.Company, error) {
	if original.UUID == uuid.Nil {
		return model.Company{}, fmt.Errorf("%w: company UUID is required", e.ErrInvalidInput)
	}
	updated.UUID = original.UUID
	updated.Normalize()
	if err := updated.Validate(); err != nil {
		return model.Company{}, err
	}

	id := original.UUID.String()
	var result model.Company
	err := s.write(ctx, func(ctx context.Context, x database.Executor) error {
		if _, err := s.getCompany(ctx, x, id); err != nil {
			return err
		}

		if office := updated.Office(); !original.Office().SameAddress(office) {
			if err := s.resolveLocation(ctx, x, office); err != nil {
				return err
			}
			if _, err := x.Execute(ctx, s.queries.SupersedeOffices, map[string]interface{}{"uuid": id}); err != nil {
				return fmt.Errorf("failed to supersede offices: %w", err)
			}
			if err := s.attachOffice(ctx, x, id, office); err != nil {
				return err
			}
		}

		res, err := x.Execute(ctx, s.queries.UpdateCompany, companyParams(updated))
		if err != nil {
			return fmt.Errorf("failed to update company: %w", err)
		}
		if len(res.Records) == 0 {
			return fmt.Errorf("company %s: %w", id, e.ErrNotFound)
		}

		if _, err := x.Execute(ctx, s.queries.ClearTags, map[string]interface{}{"uuid": id}); err != nil {
			return fmt.Errorf("failed to clear tags: %w", err)
		}
		if err := s.attachTags(ctx, x, id, updated.Tags); err != nil {
			return err
		}

		result, err = s.getCompany(ctx, x, id)
		return err
	})
	if err != nil {
		return model.Company{}, err
	}

	s.logger.Info("company updated", zap.String("company_id", id))
	s.publish(companies.CompanyUpdated, result)
	return result, nil
}

// DeleteCompany removes the company and all of its relationships. Locations
// and tags stay.
func (s *CompanyService) DeleteCompany(ctx context.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return fmt.Errorf("%w: company UUID is required", e.ErrInvalidInput)
	}

	res, err := s.db.Execute(ctx, s.queries.DeleteCompany, map[string]interface{}{"uuid": id.String()})
	if err != nil {
		return fmt.Errorf("failed to delete company: %w", err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("company %s: %w", id, e.ErrNotFound)
	}

	s.logger.Info("company deleted", zap.String("company_id", id.String()))
	s.publish(companies.CompanyDeleted, model.Company{UUID: id, Tags: []string{}})
	return nil
}

func (s *CompanyService) write(ctx context.Context, fn func(ctx context.Context, x database.Executor) error) error {
	if s.opts.Transactional {
		if tx, ok := s.db.(database.Transactor); ok {
			return tx.InTransaction(ctx, fn)
		}
	}
	return fn(ctx, s.db)
}

// resolveLocation makes sure a Location node exists for the tuple. The
// geocoder is asked only when the tuple is not stored yet.
func (s *CompanyService) resolveLocation(ctx context.Context, x database.Executor, office model.Location) error {
	params := office.Params()

	res, err := x.Execute(ctx, s.queries.FindLocation, params)
	if err != nil {
		return fmt.Errorf("failed to find location: %w", err)
	}
	if len(res.Records) > 0 {
		return nil
	}

	lat, lon, err := s.geocoder.Resolve(ctx, office.Address, office.City, office.State, office.ZipCode)
	if err != nil {
		if errors.Is(err, e.ErrAddressUnresolvable) {
			return err
		}
		return fmt.Errorf("%w: %v", e.ErrAddressUnresolvable, err)
	}

	params["lat"] = lat
	params["lon"] = lon
	if _, err := x.Execute(ctx, s.queries.MergeLocation, params); err != nil {
		return fmt.Errorf("failed to merge location: %w", err)
	}
	return nil
}

// mergeCompany matches on Url, or on UUID when Url is empty, and returns the
// UUID of the stored node.
func (s *CompanyService) mergeCompany(ctx context.Context, x database.Executor, c model.Company) (string, error) {
	q := s.queries.MergeCompanyByURL
	if c.URL == "" {
		q = s.queries.MergeCompanyByUUID
	}

	res, err := x.Execute(ctx, q, companyParams(c))
	if err != nil {
		return "", fmt.Errorf("failed to merge company: %w", err)
	}
	if len(res.Records) == 0 {
		return "", fmt.Errorf("failed to merge company: no row returned")
	}

	id, ok := res.Records[0]["UUID"].(string)
	if !ok || id == "" {
		return "", fmt.Errorf("failed to merge company: %w: UUID", e.ErrInvalidRecord)
	}
	return id, nil
}

func (s *CompanyService) attachOffice(ctx context.Context, x database.Executor, id string, office model.Location) error {
	params := office.Params()
	params["uuid"] = id

	res, err := x.Execute(ctx, s.queries.AttachOffice, params)
	if err != nil {
		return fmt.Errorf("failed to attach office: %w", err)
	}
	if len(res.Records) == 0 {
		return fmt.Errorf("failed to attach office to company %s: company or location missing", id)
	}
	return nil
}

func (s *CompanyService) attachTags(ctx context.Context, x database.Executor, id string, tags []string) error {
	if len(tags) == 0 {
		return nil
	}

	if _, err := x.Execute(ctx, s.queries.MergeTags, map[string]interface{}{"tags": tags}); err != nil {
		return fmt.Errorf("failed to merge tags: %w", err)
	}
	if _, err := x.Execute(ctx, s.queries.AttachTags, map[string]interface{}{"uuid": id, "tags": tags}); err != nil {
		return fmt.Errorf("failed to attach tags: %w", err)
	}
	return nil
}

func (s *CompanyService) getCompany(ctx context.Context, x database.Executor, id string) (model.Company, error) {
	res, err := x.Execute(ctx, s.queries.FindCompanyByUUID, map[string]interface{}{"uuid": id})
	if err != nil {
		return model.Company{}, fmt.Errorf("failed to get company: %w", err)
	}
	if len(res.Records) == 0 {
		return model.Company{}, fmt.Errorf("company %s: %w", id, e.ErrNotFound)
	}
	return model.CompanyFromRecord(res.Records[0])
}

func (s *CompanyService) publish(eventType companies.EventType, c model.Company) {
	if s.producer == nil {
		return
	}
	s.producer.Publish(eventType, c)
}

func companyParams(c model.Company) map[string]interface{} {
	return map[string]interface{}{
		"uuid":        c.UUID.String(),
		"name":        c.Name,
		"description": c.Description,
		"startupYear": int64(c.StartupYear),
		"url":         c.URL,
		"linkedInUrl": c.LinkedInURL,
		"logo":        c.Logo,
	}
}
