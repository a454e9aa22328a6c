package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"elearning_go/internal/domain"
	"elearning_go/internal/security"
	"elearning_go/internal/service"
)

type MockUserRepo struct {
	mock.Mock
}

func (m *MockUserRepo) Create(ctx context.Context, u *domain.User) error {
	args := m.Called(ctx, u)
	return args.Error(0)
}

func (m *MockUserRepo) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *MockUserRepo) Search(ctx context.Context, query string, role domain.Role, limit int) ([]*domain.User, error) {
	args := m.Called(ctx, query, role, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.User), args.Error(1)
}

func (m *MockUserRepo) SetOnlineStatus(ctx context.Context, userID int64, isOnline bool) error {
	args := m.Called(ctx, userID, isOnline)
	return args.Error(0)
}

func newAuth(repo domain.UserRepository) (*service.AuthService, *security.TokenService, *security.PasswordHasher) {
	tokens := security.NewTokenService("secret", time.Hour)
	hasher := security.NewPasswordHasher(4)
	return service.NewAuthService(repo, tokens, hasher), tokens, hasher
}

func TestRegister(t *testing.T) {
	mockRepo := new(MockUserRepo)
	svc, _, _ := newAuth(mockRepo)

	t.Run("Success", func(t *testing.T) {
		mockRepo.On("GetByUsername", mock.Anything, "newuser").Return(nil, nil).Once()
		mockRepo.On("Create", mock.Anything, mock.MatchedBy(func(u *domain.User) bool {
			return u.Username == "newuser" && u.Role == domain.RoleStudent && u.HashedPassword != "Password1!"
		})).Return(nil).Once()

		user, err := svc.Register(context.Background(), service.RegisterInput{Username: " newuser ", Password: "Password1!"})
		require.NoError(t, err)
		assert.Equal(t, "newuser", user.Username)
	})

	t.Run("UsernameTaken", func(t *testing.T) {
		mockRepo.On("GetByUsername", mock.Anything, "existing").Return(&domain.User{Username: "existing"}, nil).Once()

		user, err := svc.Register(context.Background(), service.RegisterInput{Username: "existing", Password: "Password1!"})
		assert.ErrorIs(t, err, domain.ErrConflict)
		assert.Nil(t, user)
	})

	t.Run("MissingPassword", func(t *testing.T) {
		_, err := svc.Register(context.Background(), service.RegisterInput{Username: "x"})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	mockRepo.AssertExpectations(t)
}

func TestLogin(t *testing.T) {
	mockRepo := new(MockUserRepo)
	svc, tokens, hasher := newAuth(mockRepo)

	hashed, err := hasher.Hash("Password1!")
	require.NoError(t, err)
	user := &domain.User{ID: 7, Username: "prof", FullName: "Grace Hopper", Role: domain.RoleTeacher, HashedPassword: hashed, IsActive: true}

	t.Run("Success", func(t *testing.T) {
		mockRepo.On("GetByUsername", mock.Anything, "prof").Return(user, nil).Once()
		mockRepo.On("SetOnlineStatus", mock.Anything, int64(7), true).Return(nil).Once()

		tok, err := svc.Login(context.Background(), service.LoginInput{Username: "prof", Password: "Password1!"})
		require.NoError(t, err)
		assert.Equal(t, "bearer", tok.TokenType)
		assert.Equal(t, domain.ID(7), tok.User.ID)
		assert.Equal(t, "Teacher", tok.User.Role)

		claims, err := tokens.Parse(tok.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, "prof", claims.Username)
		assert.Equal(t, int64(7), claims.UserID)
	})

	t.Run("WrongPassword", func(t *testing.T) {
		mockRepo.On("GetByUsername", mock.Anything, "prof").Return(user, nil).Once()

		_, err := svc.Login(context.Background(), service.LoginInput{Username: "prof", Password: "nope"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	t.Run("UnknownUser", func(t *testing.T) {
		mockRepo.On("GetByUsername", mock.Anything, "ghost").Return(nil, nil).Once()

		_, err := svc.Login(context.Background(), service.LoginInput{Username: "ghost", Password: "x"})
		assert.ErrorIs(t, err, domain.ErrUnauthorized)
	})

	mockRepo.AssertExpectations(t)
}

func TestAuthenticate(t *testing.T) {
	mockRepo := new(MockUserRepo)
	svc, tokens, _ := newAuth(mockRepo)

	tok, err := tokens.Issue("ali", 3)
	require.NoError(t, err)
	mockRepo.On("GetByUsername", mock.Anything, "ali").Return(&domain.User{ID: 3, Username: "ali", IsActive: true}, nil).Once()

	u, err := svc.Authenticate(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, int64(3), u.ID)

	_, err = svc.Authenticate(context.Background(), "garbage")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	_, err = svc.Authenticate(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrUnauthorized)

	mockRepo.AssertExpectations(t)
}
