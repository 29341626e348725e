// Package mock stands in for a remote vault: it waits a while and hands back a made-up
// transaction id. Records are only logged.
package mock

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"chainboy/persist"
)

const (
	driverName   = "mock"
	DefaultDelay = 2 * time.Second
)

type Driver struct{}

func (d *Driver) DisplayName() string { return "Mock vault" }

func (d *Driver) DisplayDescription() string {
	return "Accepts every save after a fixed delay and invents a transaction id"
}

func (d *Driver) Open(cfg persist.Config) (persist.Persister, error) {
	delay := cfg.Delay
	if delay < 0 {
		delay = 0
	}
	return &Vault{Delay: delay, log: log.Default().WithPrefix("persist/mock")}, nil
}

func init() {
	persist.Register(driverName, &Driver{})
}

type Vault struct {
	Delay time.Duration

	log *log.Logger
}

func (v *Vault) Upload(ctx context.Context, record persist.Record) (persist.TransactionID, error) {
	select {
	case <-time.After(v.Delay):
	case <-ctx.Done():
		return "", ctx.Err()
	}

	tx := persist.TransactionID("mock-tx-" + uuid.NewString())
	if v.log != nil {
		v.log.Info("upload: accepted",
			"tx", tx,
			"title", record.Title,
			"platform", record.Platform,
			"capturedAt", record.CapturedAt,
			"bytes", len(record.State),
		)
	}
	return tx, nil
}
