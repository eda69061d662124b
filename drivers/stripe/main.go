package main

import (
	"os"

	driver "github.com/singer-io/tap-stripe/drivers/stripe/internal"
	"github.com/singer-io/tap-stripe/logger"
	"github.com/singer-io/tap-stripe/protocol"
)

func main() {
	if err := protocol.CreateRootCommand(&driver.Stripe{}).Execute(); err != nil {
		logger.Fatal(err)
	}

	os.Exit(0)
}
