package domain

import (
	"encoding/json"
	"testing"
	"time"
)

func mustDecode(t *testing.T, body string) KeyUpdate {
	t.Helper()
	var u KeyUpdate
	if err := json.Unmarshal([]byte(body), &u); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	return u
}

func TestFieldTriState(t *testing.T) {
	u := mustDecode(t, `{"keyId":"key_1","name":"prod","ownerId":null}`)

	if !u.Name.Defined || !u.Name.Valid || u.Name.Value != "prod" {
		t.Errorf("expected name set to 'prod', got %+v", u.Name)
	}
	if !u.OwnerID.Defined || u.OwnerID.Valid {
		t.Errorf("expected ownerId explicit null, got %+v", u.OwnerID)
	}
	if u.Meta.Defined {
		t.Errorf("expected meta absent, got %+v", u.Meta)
	}
}

func TestResolveOmittedFieldsWriteNothing(t *testing.T) {
	u := mustDecode(t, `{"keyId":"key_1"}`)

	p, err := u.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !p.Empty() {
		t.Errorf("expected empty patch, got %+v", p)
	}
}

func TestResolveMetaNullResetsToEmptyObject(t *testing.T) {
	// Explicit null for meta does not clear the column, it resets the
	// metadata to an empty object. Omission leaves it untouched.
	u := mustDecode(t, `{"keyId":"key_1","meta":null}`)

	p, err := u.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !p.SetMeta {
		t.Fatal("expected meta column write")
	}
	if p.Meta == nil || *p.Meta != "{}" {
		t.Errorf("expected meta '{}', got %v", p.Meta)
	}

	u2 := mustDecode(t, `{"keyId":"key_1","name":"x"}`)
	p2, _ := u2.Resolve()
	if p2.SetMeta {
		t.Error("omitted meta must not be written")
	}
}

func TestResolveMetaValue(t *testing.T) {
	u := mustDecode(t, `{"keyId":"key_1","meta":{"tier":"gold"}}`)

	p, err := u.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if p.Meta == nil {
		t.Fatal("expected serialized meta")
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(*p.Meta), &m); err != nil {
		t.Fatalf("meta is not valid JSON: %v", err)
	}
	if m["tier"] != "gold" {
		t.Errorf("expected tier=gold, got %v", m)
	}
}

func TestResolveRemainingNullMeansUnlimited(t *testing.T) {
	u := mustDecode(t, `{"keyId":"key_1","remaining":null}`)

	p, err := u.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !p.SetRemaining || p.Remaining != nil {
		t.Errorf("expected remaining cleared, got %+v", p)
	}
}

func TestResolveExpiresEpochMillis(t *testing.T) {
	u := mustDecode(t, `{"keyId":"key_1","expires":1735689600000}`)

	p, err := u.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	want := time.UnixMilli(1735689600000).UTC()
	if p.Expires == nil || !p.Expires.Equal(want) {
		t.Errorf("expected expires %v, got %v", want, p.Expires)
	}
}

func TestResolveRatelimitGroup(t *testing.T) {
	u := mustDecode(t, `{"keyId":"key_1","ratelimit":{"type":"fast","limit":10,"refillRate":1,"refillInterval":60}}`)

	p, err := u.Resolve()
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	if !p.SetRatelimit || p.Ratelimit == nil {
		t.Fatalf("expected ratelimit group set, got %+v", p)
	}
	rl := p.Ratelimit
	if rl.Type != RatelimitFast || rl.Limit != 10 || rl.RefillRate != 1 || rl.RefillInterval != 60 {
		t.Errorf("unexpected group: %+v", rl)
	}

	u2 := mustDecode(t, `{"keyId":"key_1","ratelimit":null}`)
	p2, _ := u2.Resolve()
	if !p2.SetRatelimit || p2.Ratelimit != nil {
		t.Errorf("expected ratelimit group cleared, got %+v", p2)
	}

	u3 := mustDecode(t, `{"keyId":"key_1","name":"x"}`)
	p3, _ := u3.Resolve()
	if p3.SetRatelimit {
		t.Error("omitted ratelimit must not be written")
	}
}
