package users

import "context"

// Service handles user business logic.
type Service struct {
	repo Repository
}

// NewService builds Service instance.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// List returns all users.
func (s *Service) List(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

// GetByID fetches one user.
func (s *Service) GetByID(ctx context.Context, id int64) (User, error) {
	return s.repo.GetByID(ctx, id)
}

// AssignRole reassigns the user's single role. No event is emitted; the
// next server-side resolution reads the new role directly.
func (s *Service) AssignRole(ctx context.Context, userID, roleID int64) (User, error) {
	return s.repo.AssignRole(ctx, userID, roleID)
}
