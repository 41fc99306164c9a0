package odoorpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"

	"github.com/google/uuid"

	"github.com/alkivi-sas/go-odoo-client/internal/domain"
	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
	"github.com/alkivi-sas/go-odoo-client/pkg/logger"
)

// JSONRPCGateway implements invoicing.Gateway over the /web JSON-RPC
// API. Authentication yields a session cookie, after which the stored
// password copy is dropped.
//
// The HTTP client carries no timeout of its own: deadlines and
// cancellation come from the caller's context, and absent one the
// transport's defaults apply unchanged.
type JSONRPCGateway struct {
	base string
	hc   *http.Client
	log  *logger.Logger

	db            string
	user          string
	password      string
	authenticated bool
	uid           int64
}

// NewJSONRPCGateway builds the gateway. Nothing is dialed yet; the
// first call authenticates.
func NewJSONRPCGateway(cfg Config, log *logger.Logger) (*JSONRPCGateway, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &JSONRPCGateway{
		base:     cfg.BaseURL(),
		hc:       &http.Client{Jar: jar},
		log:      log,
		db:       cfg.DB,
		user:     cfg.User,
		password: cfg.Password,
	}, nil
}

type jsonrpcRequest struct {
	Version string `json:"jsonrpc"`
	Method  string `json:"method"`
	Params  any    `json:"params"`
	ID      string `json:"id"`
}

type jsonrpcError struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type jsonrpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *jsonrpcError   `json:"error"`
}

// rpc posts one JSON-RPC envelope. The request id doubles as the log
// correlation key.
func (g *JSONRPCGateway) rpc(ctx context.Context, path string, params any, out any) error {
	reqID := uuid.NewString()
	payload, err := json.Marshal(jsonrpcRequest{
		Version: "2.0",
		Method:  "call",
		Params:  params,
		ID:      reqID,
	})
	if err != nil {
		return fmt.Errorf("marshal %s request: %w", path, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.base+path, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	g.log.Debug().Str("request_id", reqID).Str("path", path).Msg("jsonrpc call")

	resp, err := g.hc.Do(req)
	if err != nil {
		return transportErr(path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return transportErr(path+" response", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s: HTTP %d: %w", path, resp.StatusCode, domain.ErrTransport)
	}

	var rpcResp jsonrpcResponse
	if err := json.Unmarshal(body, &rpcResp); err != nil {
		return transportErr(path+" decode", err)
	}
	if rpcResp.Error != nil {
		return fmt.Errorf("%s: %s (code %d): %w",
			path, rpcResp.Error.Message, rpcResp.Error.Code, domain.ErrTransport)
	}

	if out != nil && len(rpcResp.Result) > 0 {
		if err := json.Unmarshal(rpcResp.Result, out); err != nil {
			return transportErr(path+" result decode", err)
		}
	}
	return nil
}

// Login authenticates eagerly. Calling it is optional; every gateway
// operation ensures a session first.
func (g *JSONRPCGateway) Login(ctx context.Context) error {
	return g.ensureSession(ctx)
}

func (g *JSONRPCGateway) ensureSession(ctx context.Context) error {
	if g.authenticated {
		return nil
	}
	var result struct {
		UID any `json:"uid"` // number on success, false on rejection
	}
	err := g.rpc(ctx, "/web/session/authenticate", map[string]any{
		"db":       g.db,
		"login":    g.user,
		"password": g.password,
	}, &result)
	if err != nil {
		return err
	}
	uid, ok := entity.AsID(result.UID)
	if !ok || uid == 0 {
		return fmt.Errorf("login rejected for %s@%s: %w", g.user, g.db, domain.ErrTransport)
	}
	g.uid = uid
	g.password = "" // the session cookie carries auth from here on
	g.authenticated = true
	g.log.Debug().Str("db", g.db).Int64("uid", uid).Msg("jsonrpc session opened")
	return nil
}

// callKW runs model.method through /web/dataset/call_kw.
func (g *JSONRPCGateway) callKW(ctx context.Context, model, method string, args []any, out any) error {
	if err := g.ensureSession(ctx); err != nil {
		return err
	}
	if args == nil {
		args = []any{}
	}
	return g.rpc(ctx, "/web/dataset/call_kw", map[string]any{
		"model":  model,
		"method": method,
		"args":   args,
		"kwargs": map[string]any{},
	}, out)
}

func (g *JSONRPCGateway) Search(ctx context.Context, model string, conds []entity.Condition) ([]int64, error) {
	var ids []int64
	if err := g.callKW(ctx, model, "search", []any{entity.Domain(conds)}, &ids); err != nil {
		return nil, err
	}
	return ids, nil
}

func (g *JSONRPCGateway) Read(ctx context.Context, model string, ids []int64, fields []string) ([]entity.FieldMap, error) {
	if fields == nil {
		fields = []string{}
	}
	var recs []entity.FieldMap
	if err := g.callKW(ctx, model, "read", []any{ids, fields}, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

func (g *JSONRPCGateway) Create(ctx context.Context, model string, fields entity.FieldMap) (int64, error) {
	var reply any
	if err := g.callKW(ctx, model, "create", []any{fields}, &reply); err != nil {
		return 0, err
	}
	id, ok := entity.AsID(reply)
	if !ok {
		return 0, fmt.Errorf("create %s returned no id: %w", model, domain.ErrRemoteInvariant)
	}
	return id, nil
}

func (g *JSONRPCGateway) Write(ctx context.Context, model string, ids []int64, fields entity.FieldMap) error {
	var reply any
	return g.callKW(ctx, model, "write", []any{ids, fields}, &reply)
}

func (g *JSONRPCGateway) Execute(ctx context.Context, model, method string, args ...any) (any, error) {
	var reply any
	if err := g.callKW(ctx, model, method, args, &reply); err != nil {
		return nil, err
	}
	return reply, nil
}

func (g *JSONRPCGateway) ExecWorkflow(ctx context.Context, model, signal string, id int64) error {
	if err := g.ensureSession(ctx); err != nil {
		return err
	}
	return g.rpc(ctx, "/web/dataset/exec_workflow", map[string]any{
		"model":  model,
		"id":     id,
		"signal": signal,
	}, nil)
}
