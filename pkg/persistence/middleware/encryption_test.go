package middleware_test

import (
	"context"
	"crypto/rand"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/persistence/middleware"
	"github.com/aretw0/stepflow/pkg/ports"
)

var at = time.Date(2024, 2, 2, 10, 0, 0, 0, time.UTC)

func generateKey(t *testing.T) []byte {
	k := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, k); err != nil {
		t.Fatal(err)
	}
	return k
}

func mustEncrypt(t *testing.T, cfg middleware.EncryptionConfig) middleware.Middleware {
	t.Helper()
	mw, err := middleware.NewEncryptionMiddleware(cfg)
	if err != nil {
		t.Fatal(err)
	}
	return mw
}

func answered(field string, answer any) *domain.TaskResult {
	tr := domain.NewTaskResult("survey")
	tr.AddStepHistory(domain.NewCollectionResult("q1", at, at).
		AppendInputResult(domain.NewAnswerResult(field, "string", answer, at, at)))
	return tr
}

func TestEncryptionMiddleware_Contract(t *testing.T) {
	store := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(NewMockStore())
	ports.RunTaskResultStoreContract(t, store)
}

func TestEncryptionMiddleware_Roundtrip(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	original := answered("diagnosis", "my-secret-sauce")

	if err := secureStore.Save(ctx, original.RunID, original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	stored, err := underlyingStore.Load(ctx, original.RunID)
	if err != nil {
		t.Fatalf("Underlying load failed: %v", err)
	}
	if len(stored.StepHistory) != 0 {
		t.Fatalf("Expected step history to be hidden, found %d entries", len(stored.StepHistory))
	}
	if _, ok := stored.FindAnswer("diagnosis"); ok {
		t.Fatal("Expected answer to be hidden")
	}
	env, ok := stored.AsyncResult(middleware.EnvelopeIdentifier)
	if !ok {
		t.Fatal("Expected envelope async result")
	}
	if strings.Contains(env.(domain.AnswerResult).Answer.(string), "my-secret-sauce") {
		t.Fatal("Envelope leaks plaintext")
	}
	if stored.RunID != original.RunID || stored.ID != "survey" {
		t.Errorf("Envelope should keep identity, got %q/%q", stored.ID, stored.RunID)
	}

	loaded, err := secureStore.Load(ctx, original.RunID)
	if err != nil {
		t.Fatalf("Load via middleware failed: %v", err)
	}
	ans, ok := loaded.FindAnswer("diagnosis")
	if !ok || ans.Answer != "my-secret-sauce" {
		t.Errorf("Expected 'my-secret-sauce', got %v", ans.Answer)
	}
}

func TestEncryptionMiddleware_KeyRotation(t *testing.T) {
	underlyingStore := NewMockStore()
	oldKey := generateKey(t)
	newKey := generateKey(t)

	secureStoreOld := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: oldKey})(underlyingStore)

	ctx := context.Background()
	original := answered("data", "encrypted-with-old-key")

	if err := secureStoreOld.Save(ctx, "rotation", original); err != nil {
		t.Fatalf("Save failed: %v", err)
	}

	secureStoreNew := mustEncrypt(t, middleware.EncryptionConfig{
		ActiveKey:    newKey,
		FallbackKeys: [][]byte{oldKey},
	})(underlyingStore)

	loaded, err := secureStoreNew.Load(ctx, "rotation")
	if err != nil {
		t.Fatalf("Load with rotated key failed: %v", err)
	}
	if ans, _ := loaded.FindAnswer("data"); ans.Answer != "encrypted-with-old-key" {
		t.Errorf("Decryption with fallback key failed")
	}

	if err := secureStoreNew.Save(ctx, "rotation", answered("data", "encrypted-with-new-key")); err != nil {
		t.Fatalf("Save with new key failed: %v", err)
	}

	if _, err := secureStoreOld.Load(ctx, "rotation"); err == nil {
		t.Error("Expected failure when loading new-key encryption with old-key middleware")
	}
}

func TestEncryptionMiddleware_PlainResultRejected(t *testing.T) {
	underlyingStore := NewMockStore()
	secureStore := mustEncrypt(t, middleware.EncryptionConfig{ActiveKey: generateKey(t)})(underlyingStore)

	ctx := context.Background()
	_ = underlyingStore.Save(ctx, "plain", answered("name", "jdoe"))

	if _, err := secureStore.Load(ctx, "plain"); !errors.Is(err, middleware.ErrNotEncrypted) {
		t.Errorf("Expected ErrNotEncrypted, got %v", err)
	}
}

func TestEncryptionMiddleware_InvalidKey(t *testing.T) {
	if _, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: []byte("short-key")}); err == nil {
		t.Error("Expected error for invalid key size")
	}
	_, err := middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{
		ActiveKey:    generateKey(t),
		FallbackKeys: [][]byte{[]byte("short")},
	})
	if err == nil {
		t.Error("Expected error for invalid fallback key size")
	}
}
