package security

import (
	"testing"
	"time"
)

func TestKeyedLimiter_Allow(t *testing.T) {
	kl := NewKeyedLimiter(1, 2, nil)
	defer kl.Stop()

	if !kl.Allow("1.2.3.4") || !kl.Allow("1.2.3.4") {
		t.Fatal("burst requests should be allowed")
	}
	if kl.Allow("1.2.3.4") {
		t.Error("request over burst should be denied")
	}
}

func TestKeyedLimiter_KeysAreIndependent(t *testing.T) {
	kl := NewKeyedLimiter(1, 1, nil)
	defer kl.Stop()

	if !kl.Allow("1.2.3.4") {
		t.Fatal("first request for key should be allowed")
	}
	if kl.Allow("1.2.3.4") {
		t.Error("second request for same key should be denied")
	}
	if !kl.Allow("5.6.7.8") {
		t.Error("other keys must not share the bucket")
	}
}

func TestKeyedLimiter_EvictIdle(t *testing.T) {
	kl := NewKeyedLimiter(1, 1, nil)
	defer kl.Stop()

	kl.Allow("old")
	kl.Allow("fresh")

	kl.mu.Lock()
	kl.entries["old"].lastSeen = time.Now().Add(-time.Hour)
	kl.mu.Unlock()

	kl.evictIdle()

	kl.mu.Lock()
	defer kl.mu.Unlock()
	if _, ok := kl.entries["old"]; ok {
		t.Error("idle entry survived eviction")
	}
	if _, ok := kl.entries["fresh"]; !ok {
		t.Error("fresh entry was evicted")
	}
}
