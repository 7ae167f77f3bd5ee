package auth_test

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/tapin14/tapin/internal/auth"
)

// Low cost keeps the bcrypt work factor out of the test runtime.
const testBcryptCost = bcrypt.MinCost

type mockOperatorRepo struct {
	createFunc       func(ctx context.Context, op *auth.Operator) error
	findByPrefixFunc func(ctx context.Context, prefix string) ([]auth.Operator, error)
	countAllFunc     func(ctx context.Context) (int, error)
}

func (m *mockOperatorRepo) Create(ctx context.Context, op *auth.Operator) error {
	return m.createFunc(ctx, op)
}

func (m *mockOperatorRepo) GetByID(ctx context.Context, id uuid.UUID) (*auth.Operator, error) {
	return nil, auth.ErrOperatorNotFound
}

func (m *mockOperatorRepo) FindByPrefix(ctx context.Context, prefix string) ([]auth.Operator, error) {
	return m.findByPrefixFunc(ctx, prefix)
}

func (m *mockOperatorRepo) List(ctx context.Context) ([]auth.Operator, error) {
	return nil, nil
}

func (m *mockOperatorRepo) Revoke(ctx context.Context, id uuid.UUID) error {
	return nil
}

func (m *mockOperatorRepo) CountAll(ctx context.Context) (int, error) {
	return m.countAllFunc(ctx)
}

// --- GenerateKey Tests ---

func TestGenerateKey_Format(t *testing.T) {
	service := auth.NewService(&mockOperatorRepo{}, testBcryptCost)

	rawKey, prefix, hash, err := service.GenerateKey()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "tapin_"))
	assert.Equal(t, rawKey[:8], prefix)
	assert.Len(t, prefix, 8)

	// The hash must verify against the raw key.
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(hash), []byte(rawKey)))
}

func TestGenerateKey_Unique(t *testing.T) {
	service := auth.NewService(&mockOperatorRepo{}, testBcryptCost)

	key1, _, _, err := service.GenerateKey()
	require.NoError(t, err)
	key2, _, _, err := service.GenerateKey()
	require.NoError(t, err)

	assert.NotEqual(t, key1, key2)
}

// --- Authenticate Tests ---

func TestAuthenticate_Success(t *testing.T) {
	service := auth.NewService(&mockOperatorRepo{}, testBcryptCost)
	rawKey, prefix, hash, err := service.GenerateKey()
	require.NoError(t, err)

	opID := uuid.New()
	repo := &mockOperatorRepo{
		findByPrefixFunc: func(ctx context.Context, p string) ([]auth.Operator, error) {
			assert.Equal(t, prefix, p)
			return []auth.Operator{{
				ID:           opID,
				Name:         "gate-desk",
				IsSuperuser:  false,
				ApiKeyPrefix: prefix,
				ApiKeyHash:   hash,
			}}, nil
		},
	}
	service = auth.NewService(repo, testBcryptCost)

	identity, err := service.Authenticate(context.Background(), rawKey)
	require.NoError(t, err)

	assert.Equal(t, opID, identity.OperatorID)
	assert.Equal(t, "gate-desk", identity.OperatorName)
	assert.False(t, identity.IsSuperuser)
}

func TestAuthenticate_WrongKey(t *testing.T) {
	service := auth.NewService(&mockOperatorRepo{}, testBcryptCost)
	_, prefix, hash, err := service.GenerateKey()
	require.NoError(t, err)

	repo := &mockOperatorRepo{
		findByPrefixFunc: func(ctx context.Context, p string) ([]auth.Operator, error) {
			return []auth.Operator{{ID: uuid.New(), ApiKeyPrefix: prefix, ApiKeyHash: hash}}, nil
		},
	}
	service = auth.NewService(repo, testBcryptCost)

	_, err = service.Authenticate(context.Background(), "tapin_completely-wrong-key")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestAuthenticate_UnknownPrefix(t *testing.T) {
	repo := &mockOperatorRepo{
		findByPrefixFunc: func(ctx context.Context, p string) ([]auth.Operator, error) {
			return nil, nil
		},
	}
	service := auth.NewService(repo, testBcryptCost)

	_, err := service.Authenticate(context.Background(), "tapin_no-such-operator")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

func TestAuthenticate_TooShort(t *testing.T) {
	service := auth.NewService(&mockOperatorRepo{}, testBcryptCost)

	_, err := service.Authenticate(context.Background(), "short")
	assert.ErrorIs(t, err, auth.ErrInvalidKey)
}

// --- BootstrapSuperuser Tests ---

func TestBootstrapSuperuser_CreatesWhenEmpty(t *testing.T) {
	var created *auth.Operator
	repo := &mockOperatorRepo{
		countAllFunc: func(ctx context.Context) (int, error) { return 0, nil },
		createFunc: func(ctx context.Context, op *auth.Operator) error {
			created = op
			return nil
		},
	}
	service := auth.NewService(repo, testBcryptCost)

	rawKey, err := service.BootstrapSuperuser(context.Background())
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(rawKey, "tapin_"))
	require.NotNil(t, created)
	assert.Equal(t, "superuser", created.Name)
	assert.True(t, created.IsSuperuser)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(created.ApiKeyHash), []byte(rawKey)))
}

func TestBootstrapSuperuser_NoopWhenOperatorsExist(t *testing.T) {
	repo := &mockOperatorRepo{
		countAllFunc: func(ctx context.Context) (int, error) { return 3, nil },
		createFunc: func(ctx context.Context, op *auth.Operator) error {
			t.Fatal("no operator should be created")
			return nil
		},
	}
	service := auth.NewService(repo, testBcryptCost)

	rawKey, err := service.BootstrapSuperuser(context.Background())
	require.NoError(t, err)
	assert.Empty(t, rawKey)
}
