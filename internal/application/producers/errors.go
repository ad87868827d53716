package producers

import "errors"

var (
	ErrEmailPasswordRequired = errors.New("Email and password are required")
	ErrInvalidEmail          = errors.New("Invalid email")
	ErrWeakPassword          = errors.New("Password must be at least 8 characters with a letter, number and special character")
	ErrInvalidWallet         = errors.New("Invalid wallet address")
	ErrIncorrectPassword     = errors.New("Incorrect password")
	ErrEmailTaken            = errors.New("Email already registered")
	ErrWalletTaken           = errors.New("Wallet address already registered")
	ErrProducerNotFound      = errors.New("Producer not found")
)
