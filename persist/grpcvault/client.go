package grpcvault

import (
	"context"
	"errors"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"chainboy/persist"
)

const driverName = "grpc"

type Driver struct{}

func (d *Driver) DisplayName() string { return "gRPC vault" }

func (d *Driver) DisplayDescription() string {
	return "Unary " + serviceName + "/Upload over an insecure channel"
}

func (d *Driver) Open(cfg persist.Config) (persist.Persister, error) {
	if cfg.Endpoint == "" {
		return nil, errors.New("grpcvault: endpoint is required")
	}
	return Dial(cfg.Endpoint, cfg.DeviceID, cfg.Timeout)
}

func init() {
	persist.Register(driverName, &Driver{})
}

type Client struct {
	cc       *grpc.ClientConn
	deviceID string
	timeout  time.Duration
}

// Dial does not wait for the connection; failures show up on the first Upload.
func Dial(target, deviceID string, timeout time.Duration, opts ...grpc.DialOption) (*Client, error) {
	opts = append([]grpc.DialOption{grpc.WithTransportCredentials(insecure.NewCredentials())}, opts...)
	cc, err := grpc.Dial(target, opts...)
	if err != nil {
		return nil, err
	}

	return &Client{cc: cc, deviceID: deviceID, timeout: timeout}, nil
}

func (c *Client) Upload(ctx context.Context, record persist.Record) (persist.TransactionID, error) {
	req, err := encodeRecord(c.deviceID, record)
	if err != nil {
		return "", err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	rsp := new(structpb.Struct)
	if err = c.cc.Invoke(ctx, uploadMethod, req, rsp); err != nil {
		// keep only the human readable part of the status:
		return "", errors.New(status.Convert(err).Message())
	}

	tx := rsp.GetFields()[fieldTransactionID].GetStringValue()
	if tx == "" {
		return "", errors.New("vault response carried no transaction id")
	}
	return persist.TransactionID(tx), nil
}

func (c *Client) Close() error {
	return c.cc.Close()
}
