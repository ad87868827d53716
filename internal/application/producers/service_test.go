package producers

import (
	"context"
	"testing"

	"cafe-backend/internal/domain"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupProducersTest(t *testing.T) *Service {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&domain.Producer{}))
	return &Service{DB: db}
}

func validRegisterInput() RegisterInput {
	return RegisterInput{
		Name:          "Maria Lopez",
		Email:         "maria@finca.example",
		Password:      "Secur3!pass",
		WalletAddress: "0x1111111111111111111111111111111111111111",
		FarmName:      "Finca La Esperanza",
		FarmLocation:  "Huila, Colombia",
	}
}

func TestRegister_Success(t *testing.T) {
	s := setupProducersTest(t)
	p, err := s.Register(context.Background(), validRegisterInput())
	require.NoError(t, err)
	assert.Equal(t, "maria@finca.example", p.Email)
	assert.Equal(t, "0x1111111111111111111111111111111111111111", p.WalletAddress)
	assert.NotEmpty(t, p.PasswordHash)
	assert.NotEqual(t, "Secur3!pass", p.PasswordHash)
	assert.False(t, p.Verified)
}

func TestRegister_NormalizesEmailAndWallet(t *testing.T) {
	s := setupProducersTest(t)
	in := validRegisterInput()
	in.Email = "  MARIA@Finca.Example "
	in.WalletAddress = "0x1111111111111111111111111111111111111111"
	p, err := s.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "maria@finca.example", p.Email)
}

func TestRegister_Validation(t *testing.T) {
	s := setupProducersTest(t)
	ctx := context.Background()

	in := validRegisterInput()
	in.Name = "  "
	_, err := s.Register(ctx, in)
	assert.Error(t, err)

	in = validRegisterInput()
	in.Email = "not-an-email"
	_, err = s.Register(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidEmail)

	in = validRegisterInput()
	in.Password = "short"
	_, err = s.Register(ctx, in)
	assert.ErrorIs(t, err, ErrWeakPassword)

	in = validRegisterInput()
	in.WalletAddress = "0x123"
	_, err = s.Register(ctx, in)
	assert.ErrorIs(t, err, ErrInvalidWallet)
}

func TestRegister_Duplicates(t *testing.T) {
	s := setupProducersTest(t)
	ctx := context.Background()
	_, err := s.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	in := validRegisterInput()
	in.WalletAddress = "0x2222222222222222222222222222222222222222"
	_, err = s.Register(ctx, in)
	assert.ErrorIs(t, err, ErrEmailTaken)

	in = validRegisterInput()
	in.Email = "other@finca.example"
	_, err = s.Register(ctx, in)
	assert.ErrorIs(t, err, ErrWalletTaken)
}

func TestLogin(t *testing.T) {
	s := setupProducersTest(t)
	ctx := context.Background()
	_, err := s.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	p, err := s.Login(ctx, LoginInput{Email: "maria@finca.example", Password: "Secur3!pass"})
	require.NoError(t, err)
	assert.Equal(t, "Maria Lopez", p.Name)

	_, err = s.Login(ctx, LoginInput{Email: "maria@finca.example", Password: "wrongpass1!"})
	assert.ErrorIs(t, err, ErrIncorrectPassword)

	_, err = s.Login(ctx, LoginInput{Email: "nobody@finca.example", Password: "Secur3!pass"})
	assert.ErrorIs(t, err, ErrInvalidEmail)

	_, err = s.Login(ctx, LoginInput{})
	assert.ErrorIs(t, err, ErrEmailPasswordRequired)
}

func TestUpdateProfile(t *testing.T) {
	s := setupProducersTest(t)
	ctx := context.Background()
	p, err := s.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	updated, err := s.UpdateProfile(ctx, p.ID.String(), map[string]interface{}{
		"farm_name": "Finca Nueva",
		"email":     "ignored@nope.example",
	})
	require.NoError(t, err)
	assert.Equal(t, "Finca Nueva", updated.FarmName)
	assert.Equal(t, "maria@finca.example", updated.Email)

	// Password change must go through validation and be hashed.
	_, err = s.UpdateProfile(ctx, p.ID.String(), map[string]interface{}{"password": "weak"})
	assert.ErrorIs(t, err, ErrWeakPassword)

	_, err = s.UpdateProfile(ctx, p.ID.String(), map[string]interface{}{"password": "N3w!secret"})
	require.NoError(t, err)
	_, err = s.Login(ctx, LoginInput{Email: "maria@finca.example", Password: "N3w!secret"})
	assert.NoError(t, err)
}

func TestSetVerified(t *testing.T) {
	s := setupProducersTest(t)
	ctx := context.Background()
	p, err := s.Register(ctx, validRegisterInput())
	require.NoError(t, err)

	require.NoError(t, s.SetVerified(ctx, p.WalletAddress, true))
	got, err := s.GetByWallet(ctx, p.WalletAddress)
	require.NoError(t, err)
	assert.True(t, got.Verified)

	// Unknown wallet is a no-op, not an error.
	assert.NoError(t, s.SetVerified(ctx, "0x9999999999999999999999999999999999999999", true))
}
