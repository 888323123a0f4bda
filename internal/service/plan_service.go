package service

import (
	"context"

	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/domain"
	"github.com/BassettoFelipe/monorepo-basylab-sub004/internal/repository"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

type PlanService struct {
	planRepo repository.PlanRepository
}

func NewPlanService(planRepo repository.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

type PlanDTO struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  *string   `json:"description"`
	Price        int64     `json:"price"`
	DurationDays int       `json:"durationDays"`
	MaxUsers     *int      `json:"maxUsers"`
	MaxManagers  *int      `json:"maxManagers"`
	Features     []string  `json:"features"`
}

func toPlanDTO(p *domain.Plan) *PlanDTO {
	return &PlanDTO{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Description:  p.Description,
		Price:        p.Price,
		DurationDays: p.DurationDays,
		MaxUsers:     p.MaxUsers,
		MaxManagers:  p.MaxManagers,
		Features:     []string(p.Features),
	}
}

// List returns the plans offered on the pricing page, cheapest first
func (s *PlanService) List(ctx context.Context) ([]*PlanDTO, error) {
	plans, err := s.planRepo.ListActive(ctx)
	if err != nil {
		return nil, internalError(err, "Erro ao listar planos. Tente novamente.", log.Fields{})
	}
	out := make([]*PlanDTO, len(plans))
	for i, p := range plans {
		out[i] = toPlanDTO(p)
	}
	return out, nil
}

func (s *PlanService) Get(ctx context.Context, id uuid.UUID) (*PlanDTO, error) {
	p, err := s.planRepo.GetByID(ctx, id)
	if err != nil {
		if isNotFound(err) {
			return nil, domain.NewError(domain.CodePlanNotFound, "")
		}
		return nil, internalError(err, "Erro ao buscar plano. Tente novamente.", log.Fields{"plan_id": id})
	}
	if !p.IsActive {
		return nil, domain.NewError(domain.CodePlanNotFound, "")
	}
	return toPlanDTO(p), nil
}
