package invoicing

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"

	goCache "github.com/patrickmn/go-cache"

	"github.com/alkivi-sas/go-odoo-client/internal/domain"
	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
	"github.com/alkivi-sas/go-odoo-client/pkg/logger"
)

// TaxIndexDefault asks the resolver for the supplier tax configured as
// the instance default instead of an ACH-<index> description lookup.
const TaxIndexDefault = "default"

// PartnerRole filters partner resolution.
type PartnerRole string

const (
	RoleAny      PartnerRole = "any"
	RoleCustomer PartnerRole = "customer"
	RoleSupplier PartnerRole = "supplier"
)

// Resolver maps business keys (tax index, VAT bucket, account code,
// partner name) to remote records, enforcing that each key matches
// exactly one record. Tax and product resolutions are memoized for the
// resolver's lifetime: the catalog is assumed static within a session,
// so entries are never invalidated.
type Resolver struct {
	gw  Gateway
	log *logger.Logger

	taxes    *goCache.Cache
	products *goCache.Cache
}

// NewResolver builds a resolver with empty caches.
func NewResolver(gw Gateway, log *logger.Logger) *Resolver {
	return &Resolver{
		gw:       gw,
		log:      log,
		taxes:    goCache.New(goCache.NoExpiration, 0),
		products: goCache.New(goCache.NoExpiration, 0),
	}
}

// ResolveTax returns the account.tax record for a tax index such as
// "default", "20" or "19.6". A nil ref means no tax applies, which is
// what a numeric-zero index yields without touching the ERP (and
// without caching). "default" reads the supplier tax configured on
// product.product; anything else matches description "ACH-<index>".
func (r *Resolver) ResolveTax(ctx context.Context, taxIndex string) (*entity.RecordRef, error) {
	if v, ok := r.taxes.Get(taxIndex); ok {
		ref, _ := v.(*entity.RecordRef)
		return ref, nil
	}

	var taxID int64
	switch {
	case taxIndex == TaxIndexDefault:
		res, err := r.gw.Execute(ctx, modelValues, "get_default",
			"product.product", "supplier_taxes_id", true, 1, false)
		if err != nil {
			return nil, fmt.Errorf("default supplier tax lookup: %w", err)
		}
		ids := entity.AsIDs(res)
		if len(ids) == 0 {
			return nil, fmt.Errorf("no default supplier tax configured: %w", domain.ErrRemoteInvariant)
		}
		taxID = ids[0]

	case isZeroIndex(taxIndex):
		// Zero means no tax. Short-circuit, uncached.
		return nil, nil

	default:
		description := "ACH-" + taxIndex
		ids, err := r.gw.Search(ctx, modelTax, []entity.Condition{
			entity.Eq("description", description),
		})
		if err != nil {
			return nil, err
		}
		if len(ids) == 0 {
			return nil, fmt.Errorf("tax %s: %w", description, domain.ErrNotFound)
		}
		if len(ids) > 1 {
			r.log.Warn().Str("description", description).Ints64("ids", ids).
				Msg("several taxes share one description")
			return nil, fmt.Errorf("tax %s: %w", description, domain.ErrAmbiguous)
		}
		taxID = ids[0]
	}

	ref, err := r.readOne(ctx, modelTax, taxID)
	if err != nil {
		return nil, err
	}
	r.taxes.Set(taxIndex, ref, goCache.NoExpiration)
	return ref, nil
}

// ResolveProduct returns the product.product record whose name matches
// the "Produits et Services <percentage>" convention for the given VAT
// bucket. The percentage comes from the tax the bucket resolves to,
// with the decimal point written as a comma per the remote catalog.
func (r *Resolver) ResolveProduct(ctx context.Context, vatIndex string) (*entity.RecordRef, error) {
	if v, ok := r.products.Get(vatIndex); ok {
		ref, _ := v.(*entity.RecordRef)
		return ref, nil
	}

	tax, err := r.ResolveTax(ctx, vatIndex)
	if err != nil {
		return nil, err
	}

	text := "0"
	if tax != nil {
		pct := tax.Float("amount") * 100
		if pct == math.Trunc(pct) {
			text = fmt.Sprintf("%2d", int64(pct))
		} else {
			text = fmt.Sprintf("%2.1f", pct)
		}
	}
	description := strings.ReplaceAll("Produits et Services "+text, ".", ",")

	ids, err := r.gw.Search(ctx, modelProduct, []entity.Condition{
		entity.ILike("name_template", description),
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("product %q: %w", description, domain.ErrNotFound)
	}
	if len(ids) > 1 {
		r.log.Warn().Str("description", description).Ints64("ids", ids).
			Msg("several products share one description")
		return nil, fmt.Errorf("product %q: %w", description, domain.ErrAmbiguous)
	}

	ref, err := r.readOne(ctx, modelProduct, ids[0])
	if err != nil {
		return nil, err
	}
	r.products.Set(vatIndex, ref, goCache.NoExpiration)
	return ref, nil
}

// ResolveAccount returns the account.account record with the exact
// code. Accounts are looked up rarely, so resolutions are not cached.
func (r *Resolver) ResolveAccount(ctx context.Context, code string) (*entity.RecordRef, error) {
	ids, err := r.gw.Search(ctx, modelAccount, []entity.Condition{
		entity.Eq("code", code),
	})
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("account %s: %w", code, domain.ErrNotFound)
	}
	if len(ids) > 1 {
		return nil, fmt.Errorf("account %s: %w", code, domain.ErrAmbiguous)
	}
	return r.readOne(ctx, modelAccount, ids[0])
}

// ResolvePartner returns the res.partner with the given name, filtered
// by role. The exact-name search runs first; when it matches nothing
// the lookup broadens to a case-insensitive partial match with the role
// filter dropped.
func (r *Resolver) ResolvePartner(ctx context.Context, name string, role PartnerRole) (*entity.RecordRef, error) {
	conds := []entity.Condition{entity.Eq("name", name)}
	switch role {
	case RoleCustomer:
		conds = append(conds, entity.Eq("customer", 1))
	case RoleSupplier:
		conds = append(conds, entity.Eq("supplier", 1))
	}

	ids, err := r.gw.Search(ctx, modelPartner, conds)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		ids, err = r.gw.Search(ctx, modelPartner, []entity.Condition{
			entity.ILike("name", name),
		})
		if err != nil {
			return nil, err
		}
	}

	if len(ids) == 0 {
		return nil, fmt.Errorf("partner %q: %w", name, domain.ErrNotFound)
	}
	if len(ids) > 1 {
		r.log.Warn().Str("name", name).Ints64("ids", ids).
			Msg("several partners share one name")
		return nil, fmt.Errorf("partner %q: %w", name, domain.ErrAmbiguous)
	}
	return r.readOne(ctx, modelPartner, ids[0])
}

// ResolveCustomer resolves a partner flagged as customer.
func (r *Resolver) ResolveCustomer(ctx context.Context, name string) (*entity.RecordRef, error) {
	return r.ResolvePartner(ctx, name, RoleCustomer)
}

// ResolveSupplier resolves a partner flagged as supplier.
func (r *Resolver) ResolveSupplier(ctx context.Context, name string) (*entity.RecordRef, error) {
	return r.ResolvePartner(ctx, name, RoleSupplier)
}

func (r *Resolver) readOne(ctx context.Context, model string, id int64) (*entity.RecordRef, error) {
	recs, err := r.gw.Read(ctx, model, []int64{id}, nil)
	if err != nil {
		return nil, err
	}
	if len(recs) == 0 {
		return nil, fmt.Errorf("%s id %d vanished between search and read: %w",
			model, id, domain.ErrRemoteInvariant)
	}
	return &entity.RecordRef{Model: model, ID: id, Fields: recs[0]}, nil
}

// isZeroIndex reports whether the tax index is the numeric zero in any
// spelling ("0", "0.0"). Non-numeric indexes fall through to the
// description lookup.
func isZeroIndex(taxIndex string) bool {
	f, err := strconv.ParseFloat(taxIndex, 64)
	return err == nil && f == 0
}
