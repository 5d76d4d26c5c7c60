package model

import (
	"crypto/hmac"
	"crypto/sha256"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// NormalizeEmail lowercases and trims the email string
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

var (
	ErrInvalidPassword     = fmt.Errorf("invalid password")
	ErrTokenExpired        = fmt.Errorf("token expired")
	ErrTokenInvalid        = fmt.Errorf("token invalid")
	ErrSignupTokenUsed     = fmt.Errorf("signup token already used")
	ErrSignupTokenNotFound = fmt.Errorf("signup token not found")
	ErrTokenNotFound       = fmt.Errorf("token not found")
	ErrTokenDisabled       = fmt.Errorf("token disabled")
	ErrUnauthorized        = fmt.Errorf("unauthorized")
)

// User represents an application user
type User struct {
	gorm.Model
	Email               string `gorm:"uniqueIndex;not null"` // always stored lowercase
	FullName            string
	Password            string
	PasswordResetToken  []byte
	PasswordResetExpiry time.Time
	Verified            bool `gorm:"not null;default:false"`
	LastLoginAt         *time.Time
}

// Normalize email before saving
func (u *User) BeforeSave(tx *gorm.DB) error {
	u.Email = NormalizeEmail(u.Email)
	return nil
}

func (store *Store) TouchLastLogin(u *User) error {
	now := time.Now().UTC()
	u.LastLoginAt = &now
	return store.db.Model(u).Update("last_login_at", now).Error
}

// SignupToken holds a pending signup until the email is confirmed. The
// password hash is stored at signup time so verification completes the
// account in one step.
type SignupToken struct {
	ID        uint `gorm:"primaryKey"`
	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`

	Email      string    `gorm:"index;not null"`       // lowercase
	TokenHash  []byte    `gorm:"not null;uniqueIndex"` // sha256(token)
	ExpiresAt  time.Time `gorm:"not null"`
	ConsumedAt sql.NullTime

	PasswordHash string `gorm:"not null"`
}

// Normalize email before saving
func (t *SignupToken) BeforeSave(tx *gorm.DB) error {
	t.Email = NormalizeEmail(t.Email)
	return nil
}

// ---- Authentication / Password ----

func (store *Store) AuthenticateUser(email, password string) (*User, error) {
	email = NormalizeEmail(email)
	user, err := store.GetUserByEMail(email)
	if err != nil {
		return nil, err
	}
	if !store.CheckPassword(user, password) {
		return nil, ErrInvalidPassword
	}
	return user, nil
}

func (store *Store) GetUserByID(id any) (*User, error) {
	var user User
	if id == nil {
		return nil, fmt.Errorf("user ID cannot be nil")
	}
	if err := store.db.First(&user, id).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (store *Store) SetPassword(u *User, password string) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashedPassword)
	return nil
}

func (store *Store) CheckPassword(u *User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) == nil
}

func (store *Store) GetUserByEMail(email string) (*User, error) {
	email = NormalizeEmail(email)
	var user User
	if err := store.db.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (store *Store) CreateUser(u *User) error {
	// Email normalized by hook
	return store.db.Create(u).Error
}

func (store *Store) UpdateUser(u *User) error {
	return store.db.Save(u).Error
}

// ---- Password Reset ----

// SetPasswordResetToken stores the hash of the plaintext token + expiry.
func (store *Store) SetPasswordResetToken(u *User, token string, expiry time.Time) error {
	sum := sha256.Sum256([]byte(token))
	u.PasswordResetToken = sum[:]
	u.PasswordResetExpiry = expiry
	return store.db.Save(u).Error
}

// GetUserByResetToken finds a user by plaintext token, validating expiry
// with a constant-time compare.
func (store *Store) GetUserByResetToken(token string) (*User, error) {
	sum := sha256.Sum256([]byte(token))
	var u User

	if err := store.db.
		Where("password_reset_token = ?", sum[:]).
		First(&u).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}

	if time.Now().After(u.PasswordResetExpiry) {
		return nil, ErrTokenExpired
	}
	if !hmac.Equal(u.PasswordResetToken, sum[:]) {
		return nil, ErrTokenInvalid
	}
	return &u, nil
}

func (store *Store) ClearPasswordResetToken(u *User) error {
	u.PasswordResetToken = nil
	u.PasswordResetExpiry = time.Time{}
	return store.db.Save(u).Error
}

// ---- Signup (email verification) ----

// CreateSignupToken stores a pending signup with token hash and password hash.
func (store *Store) CreateSignupToken(email, password string, ttl time.Duration, tokenPlain string) (*SignupToken, error) {
	email = NormalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email empty")
	}
	var pwHash []byte
	var err error
	if password != "" {
		pwHash, err = bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}
	}
	sum := sha256.Sum256([]byte(tokenPlain))
	st := &SignupToken{
		Email:        email,
		TokenHash:    sum[:],
		ExpiresAt:    time.Now().Add(ttl),
		PasswordHash: string(pwHash),
	}
	if err := store.db.Create(st).Error; err != nil {
		return nil, err
	}
	return st, nil
}

// ConsumeSignupToken validates the token and creates the user afterwards
// (if not existing).
func (store *Store) ConsumeSignupToken(tokenPlain string) (*User, error) {
	sum := sha256.Sum256([]byte(tokenPlain))

	var st SignupToken
	if err := store.db.Where("token_hash = ?", sum[:]).First(&st).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSignupTokenNotFound
		}
		return nil, err
	}
	if st.ConsumedAt.Valid {
		return nil, ErrSignupTokenUsed
	}
	if time.Now().After(st.ExpiresAt) {
		return nil, ErrTokenExpired
	}
	if err := store.db.Model(&st).Update("consumed_at", time.Now()).Error; err != nil {
		return nil, err
	}

	u, err := store.GetUserByEMail(st.Email)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	if u == nil {
		u = &User{
			Email:    st.Email,
			Verified: true,
		}
		if st.PasswordHash != "" {
			u.Password = st.PasswordHash
		} else {
			// placeholder; forces a password set via reset flow
			u.Password = string([]byte("$2a$10$notsetnotsetnotsetnotsetnotsetno4r3lG2vB4V"))
		}
		if err := store.CreateUser(u); err != nil {
			return nil, err
		}
	} else {
		if !u.Verified {
			u.Verified = true
			if err := store.UpdateUser(u); err != nil {
				return nil, err
			}
		}
	}

	return u, nil
}
