package commands

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/wolfeidau/c2pa-signer/internal/logger"
	"github.com/wolfeidau/c2pa-signer/internal/store"
	"github.com/wolfeidau/c2pa-signer/internal/util"
)

type CertsCmd struct {
	List CertsListCmd `cmd:"" help:"List issued certificates from the ledger"`
	Get  CertsGetCmd  `cmd:"" help:"Show an issued certificate by serial number"`
}

type CertsFlags struct {
	AWS    AWSFlags    `embed:"" prefix:"aws-"`
	Ledger LedgerFlags `embed:""`
	Output string      `help:"output format" default:"json" enum:"json,yaml" short:"o"`
}

// openLedger opens the ledger for reading, the memory and none ledgers hold nothing
// outside a running server
func (c *CertsFlags) openLedger(ctx context.Context) (store.CertificateStore, func(), error) {
	if c.Ledger.Ledger == ledgerNone || c.Ledger.Ledger == ledgerMemory {
		return nil, nil, fmt.Errorf("ledger %q cannot be read outside the server, use dynamodb or postgres", c.Ledger.Ledger)
	}

	awsCfg, err := c.AWS.load(ctx, false)
	if err != nil {
		return nil, nil, err
	}

	return c.Ledger.open(ctx, &c.AWS, awsCfg)
}

type CertsListCmd struct {
	CertsFlags `embed:""`

	IssuerMode string `help:"only list certificates issued in this mode" default:""`
	Limit      int    `help:"maximum number of certificates to list, 0 lists all" default:"50"`
}

func (c *CertsListCmd) Run(ctx context.Context, globals *Globals) error {
	ctx = logger.Setup(globals.Dev).WithContext(ctx)

	ledger, closeLedger, err := c.openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	certs, err := ledger.List(ctx, store.ListCertificatesOptions{
		IssuerMode: c.IssuerMode,
		Limit:      c.Limit,
	})
	if err != nil {
		return fmt.Errorf("failed to list certificates: %w", err)
	}

	if certs == nil {
		certs = []*store.CertRecord{}
	}

	return util.WriteOutput(os.Stdout, c.Output, certs)
}

type CertsGetCmd struct {
	CertsFlags `embed:""`

	SerialNumber string `arg:"" help:"certificate serial number (uppercase hex)"`
}

func (c *CertsGetCmd) Run(ctx context.Context, globals *Globals) error {
	ctx = logger.Setup(globals.Dev).WithContext(ctx)

	ledger, closeLedger, err := c.openLedger(ctx)
	if err != nil {
		return err
	}
	defer closeLedger()

	cert, err := ledger.Get(ctx, c.SerialNumber)
	if err != nil {
		if errors.Is(err, store.ErrCertNotFound) {
			return fmt.Errorf("certificate %s not found", c.SerialNumber)
		}
		return fmt.Errorf("failed to get certificate: %w", err)
	}

	return util.WriteOutput(os.Stdout, c.Output, cert)
}
