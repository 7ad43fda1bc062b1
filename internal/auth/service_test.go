package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockRepository is a mock implementation of the Repository interface
type MockRepository struct {
	mock.Mock
}

func (m *MockRepository) Create(ctx context.Context, user *User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindByID(ctx context.Context, id primitive.ObjectID) (*User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*User), args.Error(1)
}

func (m *MockRepository) FindAll(ctx context.Context) ([]*User, error) {
	args := m.Called(ctx)
	return args.Get(0).([]*User), args.Error(1)
}

func newTestService(repo Repository) *Service {
	return NewService(repo, "test-secret", time.Hour, zap.NewNop())
}

func TestRegisterHashesPasswordAndDefaultsRole(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByEmail", ctx, "asha@example.com").Return(nil, ErrUserNotFound)
	mockRepo.On("Create", ctx, mock.AnythingOfType("*auth.User")).Return(nil)

	user, token, err := service.Register(ctx, RegisterInput{
		Name:     "Asha",
		Email:    "Asha@Example.com",
		Password: "seagrass42",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "asha@example.com", user.Email)
	assert.Equal(t, RoleCommunity, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEqual(t, "seagrass42", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("seagrass42")))

	mockRepo.AssertExpectations(t)
}

func TestRegisterRejectsDuplicateEmail(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByEmail", ctx, "taken@example.com").Return(&User{Email: "taken@example.com"}, nil)

	_, _, err := service.Register(ctx, RegisterInput{
		Name:     "Dup",
		Email:    "taken@example.com",
		Password: "password",
	})

	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestRegisterValidation(t *testing.T) {
	service := newTestService(new(MockRepository))
	ctx := context.Background()

	cases := []RegisterInput{
		{Name: "A", Email: "a@example.com", Password: "password"},
		{Name: "Asha", Email: "not-an-email", Password: "password"},
		{Name: "Asha", Email: "a@example.com", Password: "short"},
		{Name: "Asha", Email: "a@example.com", Password: "password", Phone: "123"},
		{Name: "Asha", Email: "a@example.com", Password: "password", Role: "admin"},
	}
	for _, in := range cases {
		_, _, err := service.Register(ctx, in)
		assert.ErrorIs(t, err, ErrValidation, "input %+v", in)
	}
}

func TestLoginSuccessAndTokenRoundTrip(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("mangrove1"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := &User{
		ID:       primitive.NewObjectID(),
		Email:    "ravi@example.com",
		Password: string(hash),
		Role:     RoleAdmin,
		IsActive: true,
	}
	mockRepo.On("FindByEmail", ctx, "ravi@example.com").Return(stored, nil)

	user, token, err := service.Login(ctx, "Ravi@example.com ", "mangrove1")
	require.NoError(t, err)
	assert.Equal(t, stored.ID, user.ID)

	claims, err := service.VerifyToken(token)
	require.NoError(t, err)
	assert.Equal(t, stored.ID.Hex(), claims.UserID)
	assert.Equal(t, RoleAdmin, claims.Role)
}

func TestLoginWrongPassword(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("correct"), bcrypt.MinCost)
	mockRepo.On("FindByEmail", ctx, "ravi@example.com").Return(&User{
		Password: string(hash),
		IsActive: true,
	}, nil)

	_, _, err := service.Login(ctx, "ravi@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginUnknownEmail(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	mockRepo.On("FindByEmail", ctx, "ghost@example.com").Return(nil, ErrUserNotFound)

	_, _, err := service.Login(ctx, "ghost@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestLoginDisabledAccount(t *testing.T) {
	mockRepo := new(MockRepository)
	service := newTestService(mockRepo)
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("pw123456"), bcrypt.MinCost)
	mockRepo.On("FindByEmail", ctx, "off@example.com").Return(&User{
		Password: string(hash),
		IsActive: false,
	}, nil)

	_, _, err := service.Login(ctx, "off@example.com", "pw123456")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestVerifyTokenRejectsTampering(t *testing.T) {
	service := newTestService(new(MockRepository))
	other := NewService(new(MockRepository), "other-secret", time.Hour, zap.NewNop())

	user := &User{ID: primitive.NewObjectID(), Role: RoleCommunity}
	token, err := other.issueToken(user)
	require.NoError(t, err)

	_, err = service.VerifyToken(token)
	assert.Error(t, err)
}
