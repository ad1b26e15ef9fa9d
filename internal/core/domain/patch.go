package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Field is a tri-state JSON value. A field that is absent from the payload
// means "leave unchanged", an explicit null means "clear", and a value means
// "set". A plain pointer cannot distinguish the first two, so every optional
// update field is wrapped in one of these.
type Field[T any] struct {
	Defined bool // key was present in the payload
	Valid   bool // value was not an explicit null
	Value   T
}

var jsonNull = []byte("null")

// UnmarshalJSON is only invoked for keys present in the payload, which is
// what makes Defined trustworthy.
func (f *Field[T]) UnmarshalJSON(b []byte) error {
	f.Defined = true
	if bytes.Equal(b, jsonNull) {
		return nil
	}
	if err := json.Unmarshal(b, &f.Value); err != nil {
		return err
	}
	f.Valid = true
	return nil
}

// Set returns a defined field holding v.
func Set[T any](v T) Field[T] {
	return Field[T]{Defined: true, Valid: true, Value: v}
}

// Null returns a defined field holding an explicit null.
func Null[T any]() Field[T] {
	return Field[T]{Defined: true}
}

// KeyUpdate is the partial-update request for a key. Every optional field is
// tri-state; the rate-limit group is treated as a single unit.
type KeyUpdate struct {
	KeyID     string                `json:"keyId"`
	Name      Field[string]         `json:"name"`
	OwnerID   Field[string]         `json:"ownerId"`
	Meta      Field[map[string]any] `json:"meta"`
	Expires   Field[int64]          `json:"expires"` // epoch milliseconds
	Ratelimit Field[RateLimit]      `json:"ratelimit"`
	Remaining Field[int32]          `json:"remaining"`
}

// KeyPatch is a fully resolved column-level patch. A Set* flag without a
// value writes NULL to the column; an unset flag leaves the column alone.
// The rate-limit group resolves to one flag covering all four columns.
type KeyPatch struct {
	SetName bool
	Name    *string

	SetOwnerID bool
	OwnerID    *string

	SetMeta bool
	Meta    *string // serialized JSON object, never nil when SetMeta is true

	SetExpires bool
	Expires    *time.Time

	SetRemaining bool
	Remaining    *int32

	SetRatelimit bool
	Ratelimit    *RateLimit // nil clears all four columns
}

// Empty reports whether the patch writes no columns. An empty patch still
// produces an audit entry when applied.
func (p KeyPatch) Empty() bool {
	return !p.SetName && !p.SetOwnerID && !p.SetMeta && !p.SetExpires &&
		!p.SetRemaining && !p.SetRatelimit
}

// Resolve maps the tri-state request onto concrete column writes. It is a
// pure transformation; an error here means the caller handed it an
// unvalidated payload and is a programming error, not a user-facing one.
//
// The one asymmetric rule: an explicit null for meta does not clear the
// column, it resets the metadata to an empty object. Omitting meta leaves
// the stored metadata untouched.
func (u KeyUpdate) Resolve() (KeyPatch, error) {
	var p KeyPatch

	if u.Name.Defined {
		p.SetName = true
		if u.Name.Valid {
			v := u.Name.Value
			p.Name = &v
		}
	}

	if u.OwnerID.Defined {
		p.SetOwnerID = true
		if u.OwnerID.Valid {
			v := u.OwnerID.Value
			p.OwnerID = &v
		}
	}

	if u.Meta.Defined {
		p.SetMeta = true
		m := u.Meta.Value
		if !u.Meta.Valid || m == nil {
			m = map[string]any{}
		}
		raw, err := json.Marshal(m)
		if err != nil {
			return KeyPatch{}, fmt.Errorf("marshal meta: %w", err)
		}
		s := string(raw)
		p.Meta = &s
	}

	if u.Expires.Defined {
		p.SetExpires = true
		if u.Expires.Valid {
			t := time.UnixMilli(u.Expires.Value).UTC()
			p.Expires = &t
		}
	}

	if u.Remaining.Defined {
		p.SetRemaining = true
		if u.Remaining.Valid {
			v := u.Remaining.Value
			p.Remaining = &v
		}
	}

	if u.Ratelimit.Defined {
		p.SetRatelimit = true
		if u.Ratelimit.Valid {
			v := u.Ratelimit.Value
			p.Ratelimit = &v
		}
	}

	return p, nil
}
