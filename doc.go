// Package fundflow provides an invoice-financing funding ledger for Go
// applications.
//
// Funders deposit a single fungible balance, finance invoices out of it and
// receive the escrowed amount back when the invoice is repaid. A flat
// origination fee is deducted at funding time. fundflow is a library, not a
// service: import it into your application and back it with the store of
// your choice. It provides:
//
//   - Funder balances that can never go negative
//   - Per-invoice funding records with the fee frozen at funding time
//   - Exactly-once repayment back to the original funder
//   - An administrator-controlled fee percentage (0 to 20)
//   - An optional eligibility gate over business verification, invoice
//     certification and risk assessment registries
//   - An append-only journal of every balance movement
//   - Plugins for audit trails and metrics
//
// # Quick Start
//
//	import (
//	    "github.com/xraph/fundflow"
//	    "github.com/xraph/fundflow/store/memory"
//	)
//
//	engine, err := fundflow.New(memory.New(), fundflow.WithAdmin("ops"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.Start(ctx); err != nil {
//	    log.Fatal(err)
//	}
//	defer engine.Stop()
//
//	_ = engine.AddFunds(ctx, "funder-1", 1_000_000)
//	rec, err := engine.FundInvoice(ctx, fundflow.FundRequest{
//	    Funder:      "funder-1",
//	    InvoiceID:   "INV-2023-001",
//	    Business:    "acme",
//	    GrossAmount: 1_000_000,
//	    DueDate:     200,
//	})
//	// rec.FundedAmount == 950_000 at the default 5% fee
//
//	_, err = engine.RepayInvoice(ctx, "INV-2023-001", "acme")
//	// funder-1 balance is now 950_000
//
// # Amounts and fees
//
// Amounts are integers in the asset's smallest unit. The fee is
// floor(gross * percentage / 100); the remainder of the division stays with
// the funder.
//
// # Errors
//
// Engine errors match their sentinels with errors.Is and carry a numeric
// result code readable with Code:
//
//	400 insufficient funds       404 admin transfer unauthorized
//	401 record missing or repaid 405 invoice already funded
//	402 fee change unauthorized  406 invoice not eligible
//	403 fee out of range         407 invalid amount or input
//
// # TypeID
//
// Records use TypeID identifiers:
//
//	fund_01h2xcejqtf2nbrexx3vqjhp41  // Funding record
//	jrn_01h455vb4pex5vsknk084sn02q   // Journal entry
package fundflow
