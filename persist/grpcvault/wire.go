// Package grpcvault talks to a save vault over gRPC. Messages are google.protobuf.Struct values so
// no generated stubs are needed on either side.
package grpcvault

import (
	"encoding/base64"
	"fmt"
	"time"

	"google.golang.org/protobuf/types/known/structpb"

	"chainboy/persist"
)

const (
	serviceName  = "chainboy.vault.v1.SaveVault"
	uploadMethod = "/" + serviceName + "/Upload"

	fieldTitle         = "title"
	fieldPlatform      = "platform"
	fieldCapturedAt    = "capturedAt"
	fieldState         = "state"
	fieldDeviceID      = "deviceId"
	fieldTransactionID = "transactionId"
)

func encodeRecord(deviceID string, record persist.Record) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]interface{}{
		fieldTitle:      record.Title,
		fieldPlatform:   record.Platform,
		fieldCapturedAt: record.CapturedAt.Format(time.RFC3339Nano),
		fieldState:      base64.StdEncoding.EncodeToString(record.State),
		fieldDeviceID:   deviceID,
	})
}

func decodeRecord(in *structpb.Struct) (deviceID string, record persist.Record, err error) {
	fields := in.GetFields()
	str := func(name string) string { return fields[name].GetStringValue() }

	capturedAt, err := time.Parse(time.RFC3339Nano, str(fieldCapturedAt))
	if err != nil {
		return "", persist.Record{}, fmt.Errorf("invalid %s: %w", fieldCapturedAt, err)
	}
	state, err := base64.StdEncoding.DecodeString(str(fieldState))
	if err != nil {
		return "", persist.Record{}, fmt.Errorf("invalid %s: %w", fieldState, err)
	}

	record = persist.NewRecord(str(fieldTitle), state, capturedAt, str(fieldPlatform))
	return str(fieldDeviceID), record, nil
}
