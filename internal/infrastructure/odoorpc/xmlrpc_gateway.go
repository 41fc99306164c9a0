package odoorpc

import (
	"context"
	"fmt"

	"github.com/kolo/xmlrpc"

	"github.com/alkivi-sas/go-odoo-client/internal/domain"
	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
	"github.com/alkivi-sas/go-odoo-client/pkg/logger"
)

// XMLRPCGateway implements invoicing.Gateway over the classic
// /xmlrpc/common and /xmlrpc/object endpoints.
//
// XML-RPC has no session token: the object endpoint authenticates every
// call with (db, uid, password), so unlike the JSON-RPC adapter this
// one has to retain the password for the lifetime of the gateway.
type XMLRPCGateway struct {
	common *xmlrpc.Client
	object *xmlrpc.Client
	log    *logger.Logger

	db       string
	user     string
	password string
	uid      int64
}

// NewXMLRPCGateway dials nothing yet; the first call logs in.
func NewXMLRPCGateway(cfg Config, log *logger.Logger) (*XMLRPCGateway, error) {
	base := cfg.BaseURL()
	common, err := xmlrpc.NewClient(base+"/xmlrpc/common", nil)
	if err != nil {
		return nil, fmt.Errorf("xmlrpc common client: %w", err)
	}
	object, err := xmlrpc.NewClient(base+"/xmlrpc/object", nil)
	if err != nil {
		return nil, fmt.Errorf("xmlrpc object client: %w", err)
	}
	return &XMLRPCGateway{
		common:   common,
		object:   object,
		log:      log,
		db:       cfg.DB,
		user:     cfg.User,
		password: cfg.Password,
	}, nil
}

// Login authenticates eagerly. Calling it is optional; every gateway
// operation ensures a session first.
func (g *XMLRPCGateway) Login(ctx context.Context) error {
	return g.ensureSession(ctx)
}

func (g *XMLRPCGateway) ensureSession(_ context.Context) error {
	if g.uid != 0 {
		return nil
	}
	var reply any
	if err := g.common.Call("login", []any{g.db, g.user, g.password}, &reply); err != nil {
		return transportErr("login", err)
	}
	// A rejected login comes back as boolean false, not a fault.
	uid, ok := entity.AsID(reply)
	if !ok || uid == 0 {
		return fmt.Errorf("login rejected for %s@%s: %w", g.user, g.db, domain.ErrTransport)
	}
	g.uid = uid
	g.log.Debug().Str("db", g.db).Int64("uid", uid).Msg("xmlrpc session opened")
	return nil
}

// call runs model.method through the object endpoint's generic execute.
func (g *XMLRPCGateway) call(ctx context.Context, model, method string, args []any, reply any) error {
	if err := g.ensureSession(ctx); err != nil {
		return err
	}
	params := append([]any{g.db, g.uid, g.password, model, method}, args...)
	if err := g.object.Call("execute", params, reply); err != nil {
		return transportErr(model+"."+method, err)
	}
	return nil
}

func (g *XMLRPCGateway) Search(ctx context.Context, model string, conds []entity.Condition) ([]int64, error) {
	var reply any
	if err := g.call(ctx, model, "search", []any{entity.Domain(conds)}, &reply); err != nil {
		return nil, err
	}
	return entity.AsIDs(reply), nil
}

func (g *XMLRPCGateway) Read(ctx context.Context, model string, ids []int64, fields []string) ([]entity.FieldMap, error) {
	if fields == nil {
		fields = []string{}
	}
	var reply []any
	if err := g.call(ctx, model, "read", []any{ids, fields}, &reply); err != nil {
		return nil, err
	}
	out := make([]entity.FieldMap, 0, len(reply))
	for _, rec := range reply {
		if m, ok := rec.(map[string]any); ok {
			out = append(out, entity.FieldMap(m))
		}
	}
	return out, nil
}

func (g *XMLRPCGateway) Create(ctx context.Context, model string, fields entity.FieldMap) (int64, error) {
	var reply any
	if err := g.call(ctx, model, "create", []any{map[string]any(fields)}, &reply); err != nil {
		return 0, err
	}
	id, ok := entity.AsID(reply)
	if !ok {
		return 0, fmt.Errorf("create %s returned no id: %w", model, domain.ErrRemoteInvariant)
	}
	return id, nil
}

func (g *XMLRPCGateway) Write(ctx context.Context, model string, ids []int64, fields entity.FieldMap) error {
	var reply any
	return g.call(ctx, model, "write", []any{ids, map[string]any(fields)}, &reply)
}

func (g *XMLRPCGateway) Execute(ctx context.Context, model, method string, args ...any) (any, error) {
	var reply any
	if err := g.call(ctx, model, method, args, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (g *XMLRPCGateway) ExecWorkflow(ctx context.Context, model, signal string, id int64) error {
	if err := g.ensureSession(ctx); err != nil {
		return err
	}
	var reply any
	params := []any{g.db, g.uid, g.password, model, signal, id}
	if err := g.object.Call("exec_workflow", params, &reply); err != nil {
		return transportErr(model+" workflow "+signal, err)
	}
	return nil
}
