package producers

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"cafe-backend/internal/domain"
	"cafe-backend/internal/pkg/validation"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Service holds DB for producer account operations.
type Service struct {
	DB *gorm.DB
}

// RegisterInput is the producer signup request body.
type RegisterInput struct {
	Name           string   `json:"name"`
	Email          string   `json:"email"`
	Password       string   `json:"password"`
	WalletAddress  string   `json:"wallet_address"`
	Phone          string   `json:"phone"`
	FarmName       string   `json:"farm_name"`
	FarmLocation   string   `json:"farm_location"`
	FarmAltitude   *int     `json:"farm_altitude"`
	Certifications []string `json:"certifications"`
}

// LoginInput for producer login request body.
type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register creates a producer account. Returns the created model (caller never
// serializes PasswordHash, the field is tagged json:"-").
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.Producer, error) {
	if strings.TrimSpace(in.Name) == "" {
		return nil, errors.New("Name is required and must be a non-empty string")
	}
	if strings.TrimSpace(in.FarmName) == "" {
		return nil, errors.New("Farm name is required and must be a non-empty string")
	}
	if in.Email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	if !validation.IsValidEmail(in.Email) {
		return nil, ErrInvalidEmail
	}
	if !validation.IsValidPassword(in.Password) {
		return nil, ErrWeakPassword
	}
	if !validation.IsValidAddress(in.WalletAddress) {
		return nil, ErrInvalidWallet
	}

	email := strings.TrimSpace(strings.ToLower(in.Email))
	wallet := validation.NormalizeAddress(in.WalletAddress)

	var existing domain.Producer
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error; err == nil {
		return nil, ErrEmailTaken
	}
	if err := s.DB.WithContext(ctx).Where("wallet_address = ?", wallet).First(&existing).Error; err == nil {
		return nil, ErrWalletTaken
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, err
	}

	certs, err := json.Marshal(in.Certifications)
	if err != nil {
		return nil, err
	}

	p := &domain.Producer{
		WalletAddress:  wallet,
		Name:           strings.TrimSpace(in.Name),
		Email:          email,
		PasswordHash:   string(hash),
		Phone:          optString(in.Phone),
		FarmName:       strings.TrimSpace(in.FarmName),
		FarmLocation:   optString(in.FarmLocation),
		FarmAltitude:   in.FarmAltitude,
		Certifications: datatypes.JSON(certs),
	}
	if err := s.DB.WithContext(ctx).Create(p).Error; err != nil {
		return nil, err
	}
	return p, nil
}

// Login finds a producer by email and verifies the password.
func (s *Service) Login(ctx context.Context, in LoginInput) (*domain.Producer, error) {
	if in.Email == "" || in.Password == "" {
		return nil, ErrEmailPasswordRequired
	}
	email := strings.TrimSpace(strings.ToLower(in.Email))
	var p domain.Producer
	if err := s.DB.WithContext(ctx).Where("email = ?", email).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidEmail
		}
		return nil, err
	}
	if p.PasswordHash == "" {
		return nil, ErrInvalidEmail
	}
	if err := bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(in.Password)); err != nil {
		return nil, ErrIncorrectPassword
	}
	return &p, nil
}

// GetByID fetches a producer profile by its UUID.
func (s *Service) GetByID(ctx context.Context, id string) (*domain.Producer, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrProducerNotFound
	}
	var p domain.Producer
	if err := s.DB.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProducerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// GetByWallet fetches a producer profile by wallet address.
func (s *Service) GetByWallet(ctx context.Context, address string) (*domain.Producer, error) {
	var p domain.Producer
	wallet := validation.NormalizeAddress(address)
	if err := s.DB.WithContext(ctx).Where("wallet_address = ?", wallet).First(&p).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProducerNotFound
		}
		return nil, err
	}
	return &p, nil
}

// UpdateProfile updates allowed profile fields. Allowed: name, phone,
// farm_name, farm_location, farm_altitude, certifications, password.
func (s *Service) UpdateProfile(ctx context.Context, id string, fields map[string]interface{}) (*domain.Producer, error) {
	if len(fields) == 0 {
		return nil, errors.New("Missing update fields")
	}
	allowed := map[string]bool{
		"name": true, "phone": true, "farm_name": true, "farm_location": true,
		"farm_altitude": true, "certifications": true, "password": true,
	}
	upd := make(map[string]interface{})
	for k, v := range fields {
		if !allowed[k] {
			continue
		}
		upd[k] = v
	}
	if len(upd) == 0 {
		return nil, errors.New("No valid update fields provided")
	}
	if p, ok := upd["password"].(string); ok {
		if !validation.IsValidPassword(p) {
			return nil, ErrWeakPassword
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(p), 10)
		if err != nil {
			return nil, err
		}
		upd["password_hash"] = string(hash)
		delete(upd, "password")
	}
	if c, ok := upd["certifications"]; ok {
		raw, err := json.Marshal(c)
		if err != nil {
			return nil, errors.New("Invalid certifications format")
		}
		upd["certifications"] = datatypes.JSON(raw)
	}

	prod, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.DB.WithContext(ctx).Model(prod).Updates(upd).Error; err != nil {
		return nil, err
	}
	return s.GetByID(ctx, id)
}

func optString(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// SetVerified mirrors the on-ledger producer verification flag onto the
// producer profile, when one exists for the address.
func (s *Service) SetVerified(ctx context.Context, address string, verified bool) error {
	wallet := validation.NormalizeAddress(address)
	return s.DB.WithContext(ctx).Model(&domain.Producer{}).
		Where("wallet_address = ?", wallet).
		Update("verified", verified).Error
}
