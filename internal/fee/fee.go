package fee

import (
	"fmt"

	sdk "github.com/cosmos/cosmos-sdk/types"
)

// Fee is what a transaction pays. GasLimit is never below the simulated gas in auto mode.
type Fee struct {
	GasLimit uint64
	Amount   sdk.Coins
	Granter  string
	Payer    string
}

func (f Fee) String() string {
	return fmt.Sprintf("%d gas / %s", f.GasLimit, f.Amount)
}

// Choice is either Auto or Fixed.
type Choice interface {
	isChoice()
}

// Auto asks the estimator to simulate and price the transaction.
type Auto struct {
	Granter string
	Payer   string
}

// Fixed uses the given fee as is.
type Fixed struct {
	Fee Fee
}

func (Auto) isChoice()  {}
func (Fixed) isChoice() {}
