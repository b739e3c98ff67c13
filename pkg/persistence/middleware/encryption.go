package middleware

import (
	"context"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/aretw0/stepflow/pkg/domain"
	"github.com/aretw0/stepflow/pkg/ports"
)

// EnvelopeIdentifier is the async result holding the ciphertext of an
// encrypted task result.
const EnvelopeIdentifier = "__encrypted__"

const envelopeAnswerType = "ciphertext"

// ErrNotEncrypted is returned when a stored run carries no envelope.
var ErrNotEncrypted = errors.New("task result is missing encrypted data envelope")

// EncryptionConfig holds the keys for encryption and decryption.
type EncryptionConfig struct {
	// ActiveKey encrypts new data. Must be 32 bytes for AES-256.
	ActiveKey []byte

	// FallbackKeys are tried in order when the active key cannot decrypt,
	// allowing key rotation without rewriting stored runs.
	FallbackKeys [][]byte
}

type encryptionMiddleware struct {
	next   ports.TaskResultStore
	config EncryptionConfig
}

// NewEncryptionMiddleware encrypts whole task results with AES-GCM. The
// stored envelope only exposes task identifier, run ID and timing.
func NewEncryptionMiddleware(config EncryptionConfig) (Middleware, error) {
	if len(config.ActiveKey) != 32 {
		return nil, fmt.Errorf("active key must be 32 bytes (AES-256), got %d", len(config.ActiveKey))
	}
	for i, k := range config.FallbackKeys {
		if len(k) != 32 {
			return nil, fmt.Errorf("fallback key %d must be 32 bytes (AES-256), got %d", i, len(k))
		}
	}
	return func(next ports.TaskResultStore) ports.TaskResultStore {
		return &encryptionMiddleware{next: next, config: config}
	}, nil
}

func (m *encryptionMiddleware) Save(ctx context.Context, runID string, result *domain.TaskResult) error {
	plainText, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal task result: %w", err)
	}

	ciphertext, err := encrypt(plainText, m.config.ActiveKey)
	if err != nil {
		return fmt.Errorf("failed to encrypt task result: %w", err)
	}

	envelope := &domain.TaskResult{
		ID:          result.ID,
		RunID:       result.RunID,
		Start:       result.Start,
		End:         result.End,
		StepHistory: []domain.Result{},
	}
	envelope.AddAsyncResult(domain.NewAnswerResult(
		EnvelopeIdentifier,
		envelopeAnswerType,
		base64.StdEncoding.EncodeToString(ciphertext),
		result.Start,
		result.End,
	))
	return m.next.Save(ctx, runID, envelope)
}

func (m *encryptionMiddleware) Load(ctx context.Context, runID string) (*domain.TaskResult, error) {
	envelope, err := m.next.Load(ctx, runID)
	if err != nil {
		return nil, err
	}

	res, ok := envelope.AsyncResult(EnvelopeIdentifier)
	if !ok {
		return nil, ErrNotEncrypted
	}
	ar, ok := res.(domain.AnswerResult)
	encoded, isString := ar.Answer.(string)
	if !ok || !isString || ar.AnswerType != envelopeAnswerType {
		return nil, ErrNotEncrypted
	}

	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode ciphertext base64: %w", err)
	}

	plainText, err := decryptWithRotation(ciphertext, m.config.ActiveKey, m.config.FallbackKeys)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt task result: %w", err)
	}

	var tr domain.TaskResult
	if err := json.Unmarshal(plainText, &tr); err != nil {
		return nil, fmt.Errorf("failed to unmarshal decrypted task result: %w", err)
	}
	return &tr, nil
}

func (m *encryptionMiddleware) Delete(ctx context.Context, runID string) error {
	return m.next.Delete(ctx, runID)
}

func (m *encryptionMiddleware) List(ctx context.Context) ([]string, error) {
	return m.next.List(ctx)
}

func encrypt(plaintext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}

	nonce := make([]byte, gcm.NonceSize())
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return nil, err
	}
	return gcm.Seal(nonce, nonce, plaintext, nil), nil
}

func decryptWithRotation(ciphertext, activeKey []byte, fallbackKeys [][]byte) ([]byte, error) {
	if plain, err := decrypt(ciphertext, activeKey); err == nil {
		return plain, nil
	}
	for _, key := range fallbackKeys {
		if plain, err := decrypt(ciphertext, key); err == nil {
			return plain, nil
		}
	}
	return nil, errors.New("decryption failed with all available keys")
}

func decrypt(ciphertext, key []byte) ([]byte, error) {
	gcm, err := newGCM(key)
	if err != nil {
		return nil, err
	}
	if len(ciphertext) < gcm.NonceSize() {
		return nil, errors.New("ciphertext too short")
	}
	nonce, body := ciphertext[:gcm.NonceSize()], ciphertext[gcm.NonceSize():]
	return gcm.Open(nil, nonce, body, nil)
}

func newGCM(key []byte) (cipher.AEAD, error) {
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
