// odoo-invoice creates one invoice in a remote Odoo instance from a
// JSON document and prints the created id.
//
// Usage: odoo-invoice [-config file] [-state draft|open] invoice.json
//
// The JSON document shape:
//
//	{
//	  "invoice":    { ...account.invoice fields... },
//	  "lines":      [ { ...account.invoice.line fields... }, ... ],
//	  "attachment": { ...ir.attachment fields... },
//	  "state":      "open",
//	  "tax_amount": 10.0
//	}
//
// Connection settings come from ODOO_* environment variables or
// ~/.odoo.cfg / /etc/odoo.cfg endpoint profiles.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/alkivi-sas/go-odoo-client/internal/application/invoicing"
	"github.com/alkivi-sas/go-odoo-client/internal/domain/entity"
	"github.com/alkivi-sas/go-odoo-client/internal/infrastructure/odoorpc"
	"github.com/alkivi-sas/go-odoo-client/pkg/config"
	"github.com/alkivi-sas/go-odoo-client/pkg/logger"
)

type invoiceDocument struct {
	Invoice    entity.FieldMap   `json:"invoice"`
	Lines      []entity.FieldMap `json:"lines"`
	Attachment entity.FieldMap   `json:"attachment,omitempty"`
	State      string            `json:"state,omitempty"`
	TaxAmount  *float64          `json:"tax_amount,omitempty"`
}

func main() {
	configFile := flag.String("config", "", "configuration file (default ~/.odoo.cfg, /etc/odoo.cfg)")
	state := flag.String("state", "", "override the state requested in the document")
	level := flag.String("log-level", "info", "log level (trace, debug, info, warn, error)")
	flag.Parse()

	if flag.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: odoo-invoice [flags] invoice.json")
		os.Exit(2)
	}

	log := logger.New(logger.Config{Env: "development", Level: *level})

	cfg, err := config.Load(*configFile)
	if err != nil {
		log.Fatal().Err(err).Msg("load configuration")
	}

	raw, err := os.ReadFile(flag.Arg(0))
	if err != nil {
		log.Fatal().Err(err).Msg("read invoice document")
	}
	var doc invoiceDocument
	if err := json.Unmarshal(raw, &doc); err != nil {
		log.Fatal().Err(err).Msg("parse invoice document")
	}
	if *state != "" {
		doc.State = *state
	}

	gw, err := newGateway(cfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("build gateway")
	}

	in := invoicing.CreateInvoiceInput{
		Invoice:    doc.Invoice,
		Lines:      doc.Lines,
		Attachment: doc.Attachment,
		State:      doc.State,
	}
	if doc.TaxAmount != nil {
		expected := decimal.NewFromFloat(*doc.TaxAmount)
		in.ExpectedTax = &expected
	}

	orchestrator := invoicing.NewOrchestrator(gw, log)
	invoiceID, err := orchestrator.CreateInvoice(context.Background(), in)
	if err != nil {
		log.Fatal().Err(err).Msg("create invoice")
	}

	fmt.Println(invoiceID)
}

func newGateway(cfg *config.Config, log *logger.Logger) (invoicing.Gateway, error) {
	rpcCfg := odoorpc.Config{
		URL:      cfg.URL,
		Port:     cfg.Port,
		Protocol: cfg.Protocol,
		DB:       cfg.DB,
		User:     cfg.User,
		Password: cfg.Password,
	}
	if strings.HasPrefix(cfg.Protocol, "xmlrpc") {
		return odoorpc.NewXMLRPCGateway(rpcCfg, log)
	}
	return odoorpc.NewJSONRPCGateway(rpcCfg, log)
}
