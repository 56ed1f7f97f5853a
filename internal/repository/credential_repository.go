package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/pkg/spreadsheet"
)

const credentialSheetName = "Credentials"

// CredentialHeaders returns the credentials workbook columns in order.
func CredentialHeaders() []string {
	return []string{"Student ID", "Name", "Username", "Password", "Email", "Created Date"}
}

// CredentialSheet lays credentials out in the credentials workbook schema.
func CredentialSheet(credentials []models.Credential) spreadsheet.Sheet {
	rows := make([][]any, 0, len(credentials))
	for _, c := range credentials {
		rows = append(rows, []any{
			c.StudentID,
			c.Name,
			c.Username,
			c.Password,
			c.Email,
			c.CreatedAt.Format(models.TimestampLayout),
		})
	}
	return spreadsheet.Sheet{
		Name:    credentialSheetName,
		Headers: CredentialHeaders(),
		Rows:    rows,
		Widths:  map[int]float64{2: 22, 3: 18, 5: 30, 6: 20},
	}
}

// CredentialRepository persists login pairs keyed by student id, apart from
// the academic workbook.
type CredentialRepository struct {
	path string
}

// NewCredentialRepository constructs a CredentialRepository bound to path.
func NewCredentialRepository(path string) *CredentialRepository {
	return &CredentialRepository{path: path}
}

// Path returns the workbook location.
func (r *CredentialRepository) Path() string {
	return r.path
}

// Load returns credentials keyed by student id. A missing file is an empty
// mapping, not an error.
func (r *CredentialRepository) Load(ctx context.Context) (map[string]models.Credential, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make(map[string]models.Credential)
	rows, err := spreadsheet.ReadRows(r.path)
	if err != nil {
		if errors.Is(err, spreadsheet.ErrNotExist) {
			return result, nil
		}
		return nil, fmt.Errorf("load credentials from %s: %w", r.path, err)
	}
	if len(rows) <= 1 {
		return result, nil
	}
	for _, row := range rows[1:] {
		id := strings.TrimSpace(spreadsheet.Cell(row, 0))
		if id == "" {
			continue
		}
		cred := models.Credential{
			StudentID: id,
			Name:      spreadsheet.Cell(row, 1),
			Username:  spreadsheet.Cell(row, 2),
			Password:  spreadsheet.Cell(row, 3),
			Email:     spreadsheet.Cell(row, 4),
		}
		if ts, err := time.ParseInLocation(models.TimestampLayout, spreadsheet.Cell(row, 5), time.Local); err == nil {
			cred.CreatedAt = ts
		}
		result[id] = cred
	}
	return result, nil
}

// Save overwrites the whole credentials workbook.
func (r *CredentialRepository) Save(ctx context.Context, credentials []models.Credential) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := spreadsheet.Write(r.path, CredentialSheet(credentials)); err != nil {
		return fmt.Errorf("save credentials to %s: %w", r.path, err)
	}
	return nil
}
