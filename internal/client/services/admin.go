package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/usermanager/internal/client/client"
	"github.com/dmitrijs2005/usermanager/internal/client/models"
	"github.com/dmitrijs2005/usermanager/internal/logging"
	"golang.org/x/sync/errgroup"
)

// Dashboard is the admin landing page: one page of users plus the aggregate
// statistics.
type Dashboard struct {
	Users      *models.UserPage
	Statistics *models.Statistics
}

// AdminService backs the admin console. The backend enforces the ADMIN role;
// a 403 surfaces as client.ErrForbidden.
type AdminService struct {
	client client.Client
	log    logging.Logger
}

func NewAdminService(c client.Client, log logging.Logger) *AdminService {
	if log == nil {
		log = logging.Nop()
	}
	return &AdminService{client: c, log: log}
}

// ListUsers returns page (1-based) of the user listing.
func (s *AdminService) ListUsers(ctx context.Context, page int) (*models.UserPage, error) {
	if page < 1 {
		page = 1
	}
	p, err := s.client.ListUsers(ctx, page)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return p, nil
}

func (s *AdminService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.client.GetUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get user %d: %w", id, err)
	}
	return u, nil
}

func (s *AdminService) Activate(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.client.ActivateUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("activate user %d: %w", id, err)
	}
	s.log.Info(ctx, "user activated", "id", id, "email", u.Email)
	return u, nil
}

// Deactivate switches a user to INACTIVE. The backend refuses admins with a
// 400.
func (s *AdminService) Deactivate(ctx context.Context, id int64) (*models.User, error) {
	u, err := s.client.DeactivateUser(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("deactivate user %d: %w", id, err)
	}
	s.log.Info(ctx, "user deactivated", "id", id, "email", u.Email)
	return u, nil
}

func (s *AdminService) Statistics(ctx context.Context) (*models.Statistics, error) {
	st, err := s.client.Statistics(ctx)
	if err != nil {
		return nil, fmt.Errorf("statistics: %w", err)
	}
	return st, nil
}

// Dashboard fetches the user page and the statistics concurrently. The first
// failure cancels the other request.
func (s *AdminService) Dashboard(ctx context.Context, page int) (*Dashboard, error) {
	var d Dashboard
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		p, err := s.ListUsers(gctx, page)
		d.Users = p
		return err
	})
	g.Go(func() error {
		st, err := s.Statistics(gctx)
		d.Statistics = st
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &d, nil
}
