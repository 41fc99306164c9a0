package invoicing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/alkivi-sas/go-odoo-client/internal/application/invoicing"
	"github.com/alkivi-sas/go-odoo-client/internal/domain"
	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
	"github.com/alkivi-sas/go-odoo-client/pkg/logger"
)

func newResolver(gw *mockGateway) *invoicing.Resolver {
	return invoicing.NewResolver(gw, logger.Nop())
}

func TestResolveTaxByDescription(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", []entity.Condition{
		entity.Eq("description", "ACH-20"),
	}).Return([]int64{7}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{7}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(7), "amount": 0.2}}, nil).Once()

	r := newResolver(gw)
	ref, err := r.ResolveTax(context.Background(), "20")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, int64(7), ref.ID)
	assert.Equal(t, "account.tax", ref.Model)
	gw.AssertExpectations(t)
}

func TestResolveTaxIsCached(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", mock.Anything).
		Return([]int64{7}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{7}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(7), "amount": 0.2}}, nil).Once()

	r := newResolver(gw)
	first, err := r.ResolveTax(context.Background(), "20")
	require.NoError(t, err)
	second, err := r.ResolveTax(context.Background(), "20")
	require.NoError(t, err)

	assert.Same(t, first, second)
	gw.AssertNumberOfCalls(t, "Search", 1)
	gw.AssertNumberOfCalls(t, "Read", 1)
}

func TestResolveTaxZeroMeansNoTax(t *testing.T) {
	gw := new(mockGateway)
	r := newResolver(gw)

	for _, index := range []string{"0", "0.0"} {
		ref, err := r.ResolveTax(context.Background(), index)
		require.NoError(t, err)
		assert.Nil(t, ref)
	}
	// Still nothing remote on a repeat: zero never hits the ERP, cached
	// or not.
	_, err := r.ResolveTax(context.Background(), "0")
	require.NoError(t, err)
	assert.Empty(t, gw.Calls)
}

func TestResolveTaxDefault(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Execute", mock.Anything, "ir.values", "get_default",
		[]any{"product.product", "supplier_taxes_id", true, 1, false}).
		Return([]any{int64(42)}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{42}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(42), "amount": 0.2}}, nil).Once()

	r := newResolver(gw)
	ref, err := r.ResolveTax(context.Background(), invoicing.TaxIndexDefault)
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, int64(42), ref.ID)

	// Second resolution comes from the cache.
	_, err = r.ResolveTax(context.Background(), invoicing.TaxIndexDefault)
	require.NoError(t, err)
	gw.AssertNumberOfCalls(t, "Execute", 1)
}

func TestResolveTaxNotFound(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", mock.Anything).
		Return([]int64{}, nil).Once()

	r := newResolver(gw)
	_, err := r.ResolveTax(context.Background(), "5.5")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	gw.AssertNumberOfCalls(t, "Read", 0)
}

func TestResolveTaxAmbiguous(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", mock.Anything).
		Return([]int64{7, 8}, nil).Once()

	r := newResolver(gw)
	_, err := r.ResolveTax(context.Background(), "20")
	assert.ErrorIs(t, err, domain.ErrAmbiguous)
	gw.AssertNumberOfCalls(t, "Read", 0)

	// Ambiguity is not cached: the next call searches again.
	gw.On("Search", mock.Anything, "account.tax", mock.Anything).
		Return([]int64{7, 8}, nil).Once()
	_, err = r.ResolveTax(context.Background(), "20")
	assert.ErrorIs(t, err, domain.ErrAmbiguous)
	gw.AssertNumberOfCalls(t, "Search", 2)
}

func TestResolveProductIntegerPercentage(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", []entity.Condition{
		entity.Eq("description", "ACH-20"),
	}).Return([]int64{7}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{7}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(7), "amount": 0.2}}, nil).Once()
	gw.On("Search", mock.Anything, "product.product", []entity.Condition{
		entity.ILike("name_template", "Produits et Services 20"),
	}).Return([]int64{31}, nil).Once()
	gw.On("Read", mock.Anything, "product.product", []int64{31}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(31), "name_template": "Produits et Services 20"}}, nil).Once()

	r := newResolver(gw)
	ref, err := r.ResolveProduct(context.Background(), "20")
	require.NoError(t, err)
	require.NotNil(t, ref)
	assert.Equal(t, int64(31), ref.ID)
	gw.AssertExpectations(t)
}

func TestResolveProductFractionalPercentageUsesComma(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", []entity.Condition{
		entity.Eq("description", "ACH-19.6"),
	}).Return([]int64{9}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{9}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(9), "amount": 0.196}}, nil).Once()
	gw.On("Search", mock.Anything, "product.product", []entity.Condition{
		entity.ILike("name_template", "Produits et Services 19,6"),
	}).Return([]int64{32}, nil).Once()
	gw.On("Read", mock.Anything, "product.product", []int64{32}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(32)}}, nil).Once()

	r := newResolver(gw)
	ref, err := r.ResolveProduct(context.Background(), "19.6")
	require.NoError(t, err)
	assert.Equal(t, int64(32), ref.ID)
	gw.AssertExpectations(t)
}

func TestResolveProductZeroBucket(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "product.product", []entity.Condition{
		entity.ILike("name_template", "Produits et Services 0"),
	}).Return([]int64{30}, nil).Once()
	gw.On("Read", mock.Anything, "product.product", []int64{30}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(30)}}, nil).Once()

	r := newResolver(gw)
	ref, err := r.ResolveProduct(context.Background(), "0")
	require.NoError(t, err)
	assert.Equal(t, int64(30), ref.ID)
	// The zero bucket never consults account.tax.
	gw.AssertExpectations(t)
}

func TestResolveProductIsCached(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", mock.Anything).
		Return([]int64{7}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{7}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(7), "amount": 0.2}}, nil).Once()
	gw.On("Search", mock.Anything, "product.product", mock.Anything).
		Return([]int64{31}, nil).Once()
	gw.On("Read", mock.Anything, "product.product", []int64{31}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(31)}}, nil).Once()

	r := newResolver(gw)
	first, err := r.ResolveProduct(context.Background(), "20")
	require.NoError(t, err)
	second, err := r.ResolveProduct(context.Background(), "20")
	require.NoError(t, err)

	assert.Same(t, first, second)
	gw.AssertNumberOfCalls(t, "Search", 2)
}

func TestResolveProductAmbiguous(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", mock.Anything).
		Return([]int64{7}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{7}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(7), "amount": 0.2}}, nil).Once()
	gw.On("Search", mock.Anything, "product.product", mock.Anything).
		Return([]int64{31, 33}, nil).Once()

	r := newResolver(gw)
	_, err := r.ResolveProduct(context.Background(), "20")
	assert.ErrorIs(t, err, domain.ErrAmbiguous)
	gw.AssertNumberOfCalls(t, "Read", 1) // only the tax was read
}

func TestResolveAccountIsNotCached(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.account", []entity.Condition{
		entity.Eq("code", "604100"),
	}).Return([]int64{501}, nil).Twice()
	gw.On("Read", mock.Anything, "account.account", []int64{501}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(501), "code": "604100"}}, nil).Twice()

	r := newResolver(gw)
	for i := 0; i < 2; i++ {
		ref, err := r.ResolveAccount(context.Background(), "604100")
		require.NoError(t, err)
		assert.Equal(t, int64(501), ref.ID)
	}
	gw.AssertNumberOfCalls(t, "Search", 2)
}

func TestResolveAccountAmbiguous(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.account", mock.Anything).
		Return([]int64{501, 502}, nil).Once()

	r := newResolver(gw)
	_, err := r.ResolveAccount(context.Background(), "604100")
	assert.ErrorIs(t, err, domain.ErrAmbiguous)
}

func TestResolvePartnerExactMatchWithRole(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "res.partner", []entity.Condition{
		entity.Eq("name", "OVH"),
		entity.Eq("supplier", 1),
	}).Return([]int64{5}, nil).Once()
	gw.On("Read", mock.Anything, "res.partner", []int64{5}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(5), "name": "OVH"}}, nil).Once()

	r := newResolver(gw)
	ref, err := r.ResolveSupplier(context.Background(), "OVH")
	require.NoError(t, err)
	assert.Equal(t, int64(5), ref.ID)
	gw.AssertNumberOfCalls(t, "Search", 1)
}

func TestResolvePartnerFallsBackToPartialMatch(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "res.partner", []entity.Condition{
		entity.Eq("name", "ovh"),
		entity.Eq("customer", 1),
	}).Return([]int64{}, nil).Once()
	gw.On("Search", mock.Anything, "res.partner", []entity.Condition{
		entity.ILike("name", "ovh"),
	}).Return([]int64{5}, nil).Once()
	gw.On("Read", mock.Anything, "res.partner", []int64{5}, mock.Anything).
		Return([]entity.FieldMap{{"id": int64(5), "name": "OVH"}}, nil).Once()

	r := newResolver(gw)
	ref, err := r.ResolveCustomer(context.Background(), "ovh")
	require.NoError(t, err)
	assert.Equal(t, int64(5), ref.ID)
	gw.AssertExpectations(t)
}

func TestResolvePartnerAmbiguousOnExactMatch(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "res.partner", mock.Anything).
		Return([]int64{5, 6}, nil).Once()

	r := newResolver(gw)
	_, err := r.ResolvePartner(context.Background(), "OVH", invoicing.RoleAny)
	assert.ErrorIs(t, err, domain.ErrAmbiguous)
	// An ambiguous exact match never broadens the search.
	gw.AssertNumberOfCalls(t, "Search", 1)
}

func TestResolvePartnerNotFoundAfterFallback(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "res.partner", mock.Anything).
		Return([]int64{}, nil).Twice()

	r := newResolver(gw)
	_, err := r.ResolvePartner(context.Background(), "nobody", invoicing.RoleAny)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	gw.AssertNumberOfCalls(t, "Search", 2)
}

func TestResolverSurfacesVanishedRecord(t *testing.T) {
	gw := new(mockGateway)
	gw.On("Search", mock.Anything, "account.tax", mock.Anything).
		Return([]int64{7}, nil).Once()
	gw.On("Read", mock.Anything, "account.tax", []int64{7}, mock.Anything).
		Return([]entity.FieldMap{}, nil).Once()

	r := newResolver(gw)
	_, err := r.ResolveTax(context.Background(), "20")
	assert.ErrorIs(t, err, domain.ErrRemoteInvariant)
}
