package task

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// ID identifies a task. It is a tagged union: either a local id minted by
// this replica before the remote store has seen the task, or the id the
// remote store assigned on first successful create. A task's id transitions
// local to remote exactly once, never the other way.
type ID struct {
	value string
	local bool
}

// NewLocalID mints a process-unique local id from a timestamp and a random
// suffix. Local ids are never sent to the remote store.
func NewLocalID(now func() time.Time) ID {
	if now == nil {
		now = time.Now
	}
	suffix := make([]byte, 5)
	_, _ = rand.Read(suffix)
	return ID{
		value: fmt.Sprintf("%d-%s", now().UnixMilli(), hex.EncodeToString(suffix)),
		local: true,
	}
}

// RemoteID wraps an identifier assigned by the remote store.
func RemoteID(value string) ID {
	return ID{value: value}
}

// IsLocal reports whether the id was minted locally and is still awaiting a
// remote assignment.
func (id ID) IsLocal() bool { return id.local }

// IsZero reports whether the id is unset.
func (id ID) IsZero() bool { return id.value == "" }

func (id ID) String() string { return id.value }

// Equal reports whether two ids name the same record.
func (id ID) Equal(other ID) bool {
	return id.value == other.value && id.local == other.local
}

type idJSON struct {
	Value string `json:"value"`
	Local bool   `json:"local,omitempty"`
}

func (id ID) MarshalJSON() ([]byte, error) {
	return json.Marshal(idJSON{Value: id.value, Local: id.local})
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var v idJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	id.value = v.Value
	id.local = v.Local
	return nil
}
