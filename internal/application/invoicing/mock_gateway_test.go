package invoicing_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
)

// mockGateway records and scripts every remote call, so tests can pin
// down exactly which ERP traffic an operation generates.
type mockGateway struct {
	mock.Mock
}

func (m *mockGateway) Search(ctx context.Context, model string, conds []entity.Condition) ([]int64, error) {
	args := m.Called(ctx, model, conds)
	ids, _ := args.Get(0).([]int64)
	return ids, args.Error(1)
}

func (m *mockGateway) Read(ctx context.Context, model string, ids []int64, fields []string) ([]entity.FieldMap, error) {
	args := m.Called(ctx, model, ids, fields)
	recs, _ := args.Get(0).([]entity.FieldMap)
	return recs, args.Error(1)
}

func (m *mockGateway) Create(ctx context.Context, model string, fields entity.FieldMap) (int64, error) {
	args := m.Called(ctx, model, fields)
	id, _ := args.Get(0).(int64)
	return id, args.Error(1)
}

func (m *mockGateway) Write(ctx context.Context, model string, ids []int64, fields entity.FieldMap) error {
	return m.Called(ctx, model, ids, fields).Error(0)
}

func (m *mockGateway) Execute(ctx context.Context, model, method string, execArgs ...any) (any, error) {
	args := m.Called(ctx, model, method, execArgs)
	return args.Get(0), args.Error(1)
}

func (m *mockGateway) ExecWorkflow(ctx context.Context, model, signal string, id int64) error {
	return m.Called(ctx, model, signal, id).Error(0)
}
