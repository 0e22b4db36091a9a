package fundflow_test

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xraph/fundflow"
	"github.com/xraph/fundflow/eligibility"
	"github.com/xraph/fundflow/registry/certification"
	"github.com/xraph/fundflow/registry/risk"
	"github.com/xraph/fundflow/registry/verification"
	"github.com/xraph/fundflow/store/memory"
)

func Example() {
	ctx := context.Background()

	engine, err := fundflow.New(memory.New(),
		fundflow.WithLogger(slog.New(slog.DiscardHandler)),
		fundflow.WithAdmin("ops"),
	)
	if err != nil {
		panic(err)
	}
	if err := engine.Start(ctx); err != nil {
		panic(err)
	}
	defer engine.Stop()

	_ = engine.AddFunds(ctx, "funder-1", 1_000_000)

	rec, err := engine.FundInvoice(ctx, fundflow.FundRequest{
		Funder:      "funder-1",
		InvoiceID:   "INV-2023-001",
		Business:    "acme",
		GrossAmount: 1_000_000,
		DueDate:     200,
	})
	if err != nil {
		panic(err)
	}
	fmt.Println("escrowed:", rec.FundedAmount, "fee:", rec.FeeAmount)

	if _, err := engine.RepayInvoice(ctx, "INV-2023-001", "acme"); err != nil {
		panic(err)
	}
	bal, _ := engine.Balance(ctx, "funder-1")
	fmt.Println("balance after repayment:", bal)

	// Output:
	// escrowed: 950000 fee: 50000
	// balance after repayment: 950000
}

func ExampleCode() {
	ctx := context.Background()
	engine, _ := fundflow.New(memory.New(),
		fundflow.WithLogger(slog.New(slog.DiscardHandler)),
		fundflow.WithAdmin("ops"),
	)

	err := engine.SetFeePercentage(ctx, "ops", 21)
	fmt.Println(fundflow.Code(err), err)

	err = engine.SetFeePercentage(ctx, "someone-else", 10)
	fmt.Println(fundflow.Code(err), err)

	// Output:
	// 403 fundflow: fee percentage out of range
	// 402 fundflow: unauthorized
}

func ExampleWithEligibility() {
	ctx := context.Background()

	verifier := verification.New("registrar")
	certifier := certification.New("registrar")
	assessor := risk.New("registrar")

	engine, _ := fundflow.New(memory.New(),
		fundflow.WithLogger(slog.New(slog.DiscardHandler)),
		fundflow.WithEligibility(eligibility.NewChecker(verifier, certifier, assessor)),
	)
	_ = engine.AddFunds(ctx, "funder-1", 500)

	req := fundflow.FundRequest{Funder: "funder-1", InvoiceID: "INV-7", Business: "acme", GrossAmount: 500}
	_, err := engine.FundInvoice(ctx, req)
	fmt.Println(fundflow.Code(err))

	_ = verifier.Verify("registrar", "acme", "Acme Corp", "REG-1")
	_ = certifier.Certify("registrar", "INV-7", "acme", 500, 300, "payer")
	_ = assessor.Assess("registrar", "INV-7", "acme", 2)

	rec, err := engine.FundInvoice(ctx, req)
	fmt.Println(rec.FundedAmount, err)

	// Output:
	// 406
	// 475 <nil>
}
