package persist

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"chainboy/emulator"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRecord_CopiesState(t *testing.T) {
	state := emulator.SaveBlob{1, 2, 3}
	at := time.Date(2024, 5, 1, 12, 0, 0, 0, time.FixedZone("CEST", 2*3600))

	r := NewRecord("Zelda", state, at, "GameBoy Advance")
	state[0] = 9

	assert.Equal(t, emulator.SaveBlob{1, 2, 3}, r.State)
	assert.Equal(t, time.UTC, r.CapturedAt.Location())
	assert.True(t, r.CapturedAt.Equal(at))
}

func TestRecord_JSON(t *testing.T) {
	r := NewRecord("Zelda", emulator.SaveBlob{0xDE, 0xAD}, time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC), "GameBoy Advance")

	b, err := json.Marshal(r)
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"gameTitle": "Zelda",
		"saveState": "3q0=",
		"timestamp": "2024-05-01T10:00:00Z",
		"platform": "GameBoy Advance"
	}`, string(b))
}

type persisterFunc func(ctx context.Context, record Record) (TransactionID, error)

func (f persisterFunc) Upload(ctx context.Context, record Record) (TransactionID, error) {
	return f(ctx, record)
}

type funcDriver struct{ p Persister }

func (d funcDriver) Open(Config) (Persister, error) { return d.p, nil }

func TestRegistry(t *testing.T) {
	unregisterAllDrivers()
	defer unregisterAllDrivers()

	Register("x", funcDriver{persisterFunc(func(context.Context, Record) (TransactionID, error) {
		return "tx-1", nil
	})})
	assert.Equal(t, []string{"x"}, Drivers())

	p, err := Open("x", Config{})
	require.NoError(t, err)
	tx, err := p.Upload(context.Background(), Record{})
	require.NoError(t, err)
	assert.Equal(t, TransactionID("tx-1"), tx)

	_, err = Open("y", Config{})
	assert.ErrorIs(t, err, ErrUnknownDriver)
}
