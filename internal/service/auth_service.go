package service

import (
	"crypto/subtle"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/scoreme/internal/models"
	appErrors "github.com/noah-isme/scoreme/pkg/errors"
)

// CredentialVerifier compares a stored password with the one supplied at login.
type CredentialVerifier interface {
	Verify(stored, supplied string) bool
}

// PlainTextVerifier compares cleartext passwords.
type PlainTextVerifier struct{}

// Verify reports whether both values are equal.
func (PlainTextVerifier) Verify(stored, supplied string) bool {
	return subtle.ConstantTimeCompare([]byte(stored), []byte(supplied)) == 1
}

// BcryptVerifier checks bcrypt hashes and produces new ones for stored
// passwords. Stored values that are not bcrypt hashes are compared as
// cleartext so rows written before hashing was enabled keep working.
type BcryptVerifier struct {
	Cost int
}

// Verify reports whether supplied matches the stored hash.
func (v BcryptVerifier) Verify(stored, supplied string) bool {
	if !isBcryptHash(stored) {
		return PlainTextVerifier{}.Verify(stored, supplied)
	}
	return bcrypt.CompareHashAndPassword([]byte(stored), []byte(supplied)) == nil
}

// Hash returns the bcrypt hash of password.
func (v BcryptVerifier) Hash(password string) (string, error) {
	cost := v.Cost
	if cost == 0 {
		cost = bcrypt.DefaultCost
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), cost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

func isBcryptHash(value string) bool {
	return strings.HasPrefix(value, "$2a$") || strings.HasPrefix(value, "$2b$") || strings.HasPrefix(value, "$2y$")
}

// AdminAccount is the built-in administrator login.
type AdminAccount struct {
	Username string
	Password string
	Name     string
}

// AuthService authenticates the administrator and students and opens the
// matching session.
type AuthService struct {
	records   *RecordService
	exports   *ExportService
	admin     AdminAccount
	verifier  CredentialVerifier
	validator *validator.Validate
	logger    *zap.Logger
}

// NewAuthService constructs an AuthService. verifier defaults to
// PlainTextVerifier.
func NewAuthService(records *RecordService, exports *ExportService, admin AdminAccount, verifier CredentialVerifier, validate *validator.Validate, logger *zap.Logger) *AuthService {
	if verifier == nil {
		verifier = PlainTextVerifier{}
	}
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		records:   records,
		exports:   exports,
		admin:     admin,
		verifier:  verifier,
		validator: validate,
		logger:    logger,
	}
}

// LoginAdmin checks the administrator account and opens an AdminSession.
func (s *AuthService) LoginAdmin(req models.LoginRequest) (*AdminSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "username and password are required")
	}
	if req.Username != s.admin.Username || !s.verifier.Verify(s.admin.Password, req.Password) {
		s.logger.Info("administrator login failed", zap.String("username", req.Username))
		return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
	}

	identity := models.Identity{
		Username:    s.admin.Username,
		DisplayName: s.admin.Name,
		Role:        models.RoleAdministrator,
	}
	session := newAdminSession(uuid.NewString(), identity, s.records, s.exports, s.logger)
	s.logger.Info("administrator logged in", zap.String("session_id", session.ID()))
	return session, nil
}

// LoginStudent opens a StudentSession for the first student whose stored
// pair matches the supplied one. Students without credentials cannot log in.
func (s *AuthService) LoginStudent(req models.LoginRequest) (*StudentSession, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, "username and password are required")
	}
	for _, st := range s.records.students {
		if st.Username() != req.Username || !s.verifier.Verify(st.Password(), req.Password) {
			continue
		}
		session := newStudentSession(uuid.NewString(), st.StudentID(), s.records, s.logger)
		s.logger.Info("student logged in", zap.String("session_id", session.ID()), zap.String("student_id", st.StudentID()))
		return session, nil
	}
	s.logger.Info("student login failed", zap.String("username", req.Username))
	return nil, appErrors.Clone(appErrors.ErrInvalidCredentials, "")
}
