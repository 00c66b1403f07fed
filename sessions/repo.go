package sessions

import (
	"context"
	"encoding/json"

	"github.com/jrsteele09/go-storefront/apierr"
)

// Record is the persisted session: the credential and the JSON-serialized
// principal it was issued for.
type Record struct {
	Token    string `json:"token"`
	Identity string `json:"identity"`
}

// Repo persists the single session record. It is a cache of server-issued
// state shared by every context on the same storage; the last writer wins.
type Repo interface {
	// Load returns the stored record, or nil when none is stored. An unreadable
	// record is reported as apierr.ErrCorruptState.
	Load(ctx context.Context) (*Record, error)

	// Save replaces the stored record
	Save(ctx context.Context, record Record) error

	// Clear removes the stored record; clearing an absent record is not an error
	Clear(ctx context.Context) error
}

// EncodeRecord serializes a record for storage.
func EncodeRecord(record Record) ([]byte, error) {
	return json.Marshal(record)
}

// DecodeRecord parses a stored record.
func DecodeRecord(data []byte) (*Record, error) {
	var record Record
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, apierr.Wrap(apierr.ErrCorruptState, err, "unreadable session record")
	}
	return &record, nil
}
