// Package idgen provides ledger entry id generators.
package idgen

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/sony/sonyflake"
)

var (
	ErrUnsupportedKind  = errors.New("idgen: unsupported generator kind")
	ErrInvalidMachineID = errors.New("idgen: machine id must be between 0 and 1023 for snowflake, 65535 for sonyflake")
)

// Generator kinds accepted by New.
const (
	KindSonyflake = "sonyflake"
	KindSnowflake = "snowflake"
	KindUUID      = "uuid"
)

// DefaultEpoch is the start time used by the time-ordered generators.
var DefaultEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

const maxRetries = 3

// Sonyflake produces decimal ids ordered by time. Ids from one process are
// strictly increasing.
type Sonyflake struct {
	sf       *sonyflake.Sonyflake
	fallback UUID
}

// NewSonyflake creates a generator for machineID.
func NewSonyflake(machineID int64, epoch time.Time) (*Sonyflake, error) {
	if machineID < 0 || machineID > 0xFFFF {
		return nil, ErrInvalidMachineID
	}
	sf, err := sonyflake.New(sonyflake.Settings{
		StartTime: epoch,
		MachineID: func() (uint16, error) { return uint16(machineID), nil },
	})
	if err != nil {
		return nil, fmt.Errorf("idgen: create sonyflake: %w", err)
	}
	return &Sonyflake{sf: sf}, nil
}

// NextID returns the next id. If the sonyflake clock is exhausted after a
// few retries it falls back to a random UUID so a ledger write never fails.
func (g *Sonyflake) NextID() string {
	for i := range maxRetries {
		id, err := g.sf.NextID()
		if err == nil {
			return strconv.FormatUint(id, 10)
		}
		slog.Warn("sonyflake failed, retrying", "retry", i+1, "error", err)
		time.Sleep(10 * time.Millisecond)
	}
	return g.fallback.NextID()
}

// Snowflake produces Twitter-style snowflake ids.
type Snowflake struct {
	node *snowflake.Node
}

// NewSnowflake creates a generator for machineID. The package-level
// snowflake epoch is global, so epoch applies to every Snowflake in the
// process.
func NewSnowflake(machineID int64, epoch time.Time) (*Snowflake, error) {
	if machineID < 0 || machineID > 1023 {
		return nil, ErrInvalidMachineID
	}
	snowflake.Epoch = epoch.UnixMilli()
	node, err := snowflake.NewNode(machineID)
	if err != nil {
		return nil, fmt.Errorf("idgen: create snowflake node: %w", err)
	}
	return &Snowflake{node: node}, nil
}

func (g *Snowflake) NextID() string {
	return g.node.Generate().String()
}

// UUID produces random version 4 UUIDs.
type UUID struct{}

func (UUID) NextID() string {
	return uuid.NewString()
}

// IDGenerator is satisfied by every generator in this package.
type IDGenerator interface {
	NextID() string
}

// New returns the generator named by kind. An empty kind selects sonyflake.
func New(kind string, machineID int64) (IDGenerator, error) {
	switch kind {
	case KindSonyflake, "":
		return NewSonyflake(machineID, DefaultEpoch)
	case KindSnowflake:
		return NewSnowflake(machineID, DefaultEpoch)
	case KindUUID:
		return UUID{}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedKind, kind)
	}
}
