package main

import (
	"github.com/lpt-tools/delegator-ledger/cmd"
)

func main() {
	cmd.Execute()
}
