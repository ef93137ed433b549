package service

import (
	"context"
	"strings"

	"subshare-be/internal/dto"
	"subshare-be/internal/entity"
	"subshare-be/internal/pkg/logger"
	"subshare-be/internal/repository/specification"
	"subshare-be/internal/repository/unitofwork"
	"subshare-be/pkg/proration"

	"github.com/google/uuid"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type IServiceInstanceService interface {
	Create(ctx context.Context, accountId uuid.UUID, req *dto.CreateServiceInstanceRequest) (*dto.ServiceInstanceResponse, error)
	Get(ctx context.Context, accountId uuid.UUID, id uuid.UUID) (*dto.ServiceInstanceResponse, error)
	List(ctx context.Context, accountId uuid.UUID) ([]*dto.ServiceInstanceResponse, error)
}

type serviceInstanceService struct {
	uowFactory unitofwork.RepositoryFactory
	logger     logger.ILogger
}

func NewServiceInstanceService(uowFactory unitofwork.RepositoryFactory, logger logger.ILogger) IServiceInstanceService {
	return &serviceInstanceService{
		uowFactory: uowFactory,
		logger:     logger,
	}
}

func (s *serviceInstanceService) Create(ctx context.Context, accountId uuid.UUID, req *dto.CreateServiceInstanceRequest) (*dto.ServiceInstanceResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, invalidInput("name is required")
	}

	var price decimal.Decimal
	switch {
	case req.MonthlyUnitPrice != nil:
		price = req.MonthlyUnitPrice.Round(proration.MoneyPlaces)
	case req.PlanTotal != nil:
		split, err := proration.SplitPrice(*req.PlanTotal, req.Slots)
		if err != nil {
			return nil, invalidInput(err.Error())
		}
		price = split
	default:
		return nil, invalidInput("either monthly_unit_price or plan_total with slots is required")
	}
	if !price.IsPositive() {
		return nil, invalidInput("monthly price must be positive")
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = "BRL"
	}

	instance := &entity.ServiceInstance{
		Id:               uuid.New(),
		AccountId:        accountId,
		Name:             name,
		MonthlyUnitPrice: price,
		Currency:         currency,
		ContactEmail:     strings.TrimSpace(req.ContactEmail),
	}
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.ServiceInstanceRepository().Create(ctx, instance); err != nil {
		return nil, err
	}

	s.logger.Info("SERVICE_INSTANCE", "Service instance created", map[string]interface{}{
		"service_instance_id": instance.Id.String(),
		"monthly_unit_price":  price.StringFixed(2),
	})
	return dto.NewServiceInstanceResponse(instance), nil
}

func (s *serviceInstanceService) Get(ctx context.Context, accountId uuid.UUID, id uuid.UUID) (*dto.ServiceInstanceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	instance, err := findServiceInstance(ctx, uow, accountId, id, false)
	if err != nil {
		return nil, err
	}
	return dto.NewServiceInstanceResponse(instance), nil
}

func (s *serviceInstanceService) List(ctx context.Context, accountId uuid.UUID) ([]*dto.ServiceInstanceResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	instances, err := uow.ServiceInstanceRepository().FindAll(ctx,
		specification.ByAccountID{AccountID: accountId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}
	return lo.Map(instances, func(instance *entity.ServiceInstance, _ int) *dto.ServiceInstanceResponse {
		return dto.NewServiceInstanceResponse(instance)
	}), nil
}
