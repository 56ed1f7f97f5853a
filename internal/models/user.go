package models

// Role determines which operation set an identity may use.
type Role string

const (
	RoleAdministrator Role = "Administrator"
	RoleStudent       Role = "Student"
)

// Identity is the login-capable part shared by administrators and students.
type Identity struct {
	Username    string
	Password    string
	DisplayName string
	Role        Role
}

// HasCredentials reports whether a username has been assigned.
func (i Identity) HasCredentials() bool {
	return i.Username != ""
}

// MaskedPassword hides the password for display.
func (i Identity) MaskedPassword() string {
	masked := make([]byte, len(i.Password))
	for idx := range masked {
		masked[idx] = '*'
	}
	return string(masked)
}
