package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/grading"
	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/internal/repository"
	appErrors "github.com/noah-isme/scoreme/pkg/errors"
)

// studentIDPrefix and studentIDWidth define the STU### identifier format.
const (
	studentIDPrefix = "STU"
	studentIDWidth  = 3
)

type studentStore interface {
	Load(ctx context.Context) ([]*models.Student, error)
	Save(ctx context.Context, students []*models.Student) error
}

type credentialStore interface {
	Load(ctx context.Context) (map[string]models.Credential, error)
	Save(ctx context.Context, credentials []models.Credential) error
}

// PasswordHasher turns a plaintext password into its stored form.
type PasswordHasher interface {
	Hash(password string) (string, error)
}

// AddStudentRequest holds the fields entered for a new student. An empty
// StudentID is replaced by NextID.
type AddStudentRequest struct {
	StudentID   string    `validate:"omitempty,max=32"`
	Name        string    `validate:"required"`
	Username    string    `validate:"required_with=Password"`
	Password    string    `validate:"required_with=Username"`
	Age         int       `validate:"min=18,max=25"`
	Gender      string    `validate:"oneof=Male Female Other"`
	DateOfBirth string    `validate:"datetime=2006-01-02"`
	Email       string    `validate:"contains=gmail.com"`
	Scores      []float64 `validate:"len=7,dive,min=0,max=100"`
}

// StudentUpdate addresses the fields to change; nil fields are left alone.
type StudentUpdate struct {
	Name        *string   `validate:"omitnil,min=1"`
	Age         *int      `validate:"omitnil,min=18,max=25"`
	Gender      *string   `validate:"omitnil,oneof=Male Female Other"`
	DateOfBirth *string   `validate:"omitnil,datetime=2006-01-02"`
	Email       *string   `validate:"omitnil,contains=gmail.com"`
	Username    *string   `validate:"omitnil,min=1"`
	Password    *string   `validate:"omitnil,min=1"`
	Scores      []float64 `validate:"omitempty,len=7,dive,min=0,max=100"`
}

func (u StudentUpdate) empty() bool {
	return u.Name == nil && u.Age == nil && u.Gender == nil && u.DateOfBirth == nil &&
		u.Email == nil && u.Username == nil && u.Password == nil && u.Scores == nil
}

// Field rules shared with interactive entry so prompts can re-ask per field.
const (
	RuleAge         = "min=18,max=25"
	RuleGender      = "oneof=Male Female Other"
	RuleDateOfBirth = "datetime=2006-01-02"
	RuleEmail       = "contains=gmail.com"
	RuleScore       = "min=0,max=100"
)

// RecordService owns the ordered in-memory student collection and keeps the
// academic and credential workbooks in step with it.
type RecordService struct {
	students    []*models.Student
	createdAt   map[*models.Student]time.Time
	records     studentStore
	credentials credentialStore
	hasher      PasswordHasher
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewRecordService constructs the record service. hasher may be nil, in which
// case passwords are stored as entered.
func NewRecordService(records studentStore, credentials credentialStore, hasher PasswordHasher, validate *validator.Validate, logger *zap.Logger) *RecordService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RecordService{
		createdAt:   make(map[*models.Student]time.Time),
		records:     records,
		credentials: credentials,
		hasher:      hasher,
		validator:   validate,
		logger:      logger,
	}
}

// ValidateField checks one interactive value against a Rule* tag.
func (s *RecordService) ValidateField(value any, rule string) error {
	if err := s.validator.Var(value, rule); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid value")
	}
	return nil
}

// Load reads both workbooks and joins credentials onto students by id. A
// missing or empty main workbook is replaced with sample data, which is then
// written back. An unreadable one leaves sample data in memory only.
func (s *RecordService) Load(ctx context.Context) error {
	students, err := s.records.Load(ctx)
	switch {
	case errors.Is(err, repository.ErrSourceMissing), errors.Is(err, repository.ErrSourceEmpty):
		s.logger.Info("student workbook missing or empty, creating sample data", zap.Error(err))
		s.replace(SampleStudents())
		return s.persist(ctx)
	case err != nil:
		s.logger.Warn("failed to read student workbook, using sample data", zap.Error(err))
		s.replace(SampleStudents())
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, "student data could not be read; sample data loaded")
	}

	creds, err := s.credentials.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to read credentials workbook", zap.Error(err))
		s.replace(students)
		return appErrors.Wrap(err, appErrors.ErrPersistence.Code, "credentials could not be read")
	}
	s.replace(students)
	s.join(creds)
	s.logger.Debug("records loaded", zap.Int("students", len(students)), zap.Int("credentials", len(creds)))
	return nil
}

// List returns copies of every student in display order.
func (s *RecordService) List() []*models.Student {
	return cloneAll(s.students)
}

// Count returns the number of students.
func (s *RecordService) Count() int {
	return len(s.students)
}

// NextID returns STU### for count+1. It does not check for collisions.
func (s *RecordService) NextID() string {
	return formatStudentID(len(s.students) + 1)
}

// Add validates and appends a new student, then rewrites both workbooks.
func (s *RecordService) Add(ctx context.Context, req AddStudentRequest) (string, error) {
	if err := s.validator.Struct(req); err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid student payload")
	}
	id := req.StudentID
	if id == "" {
		id = s.NextID()
	}
	if s.indexByID(id) >= 0 {
		return "", appErrors.Clone(appErrors.ErrDuplicateID, fmt.Sprintf("student id %s already exists", id))
	}
	if s.indexByName(req.Name) >= 0 {
		return "", appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("student %q already exists", req.Name))
	}
	password, err := s.hashPassword(req.Password)
	if err != nil {
		return "", err
	}
	student, err := models.NewStudent(models.StudentProfile{
		StudentID:   id,
		Name:        req.Name,
		Username:    req.Username,
		Password:    password,
		Age:         req.Age,
		Gender:      req.Gender,
		DateOfBirth: req.DateOfBirth,
		Email:       req.Email,
		Scores:      req.Scores,
	})
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid student payload")
	}
	s.students = append(s.students, student)
	s.createdAt[student] = time.Now()
	s.logger.Info("student added", zap.String("student_id", id))
	return id, s.persist(ctx)
}

// FindByID returns a copy of the student with the given id.
func (s *RecordService) FindByID(id string) (*models.Student, error) {
	idx := s.indexByID(id)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return s.students[idx].Clone(), nil
}

// FindByName returns a copy of the first student whose name matches exactly.
func (s *RecordService) FindByName(name string) (*models.Student, error) {
	idx := s.indexByName(name)
	if idx < 0 {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	return s.students[idx].Clone(), nil
}

// Search returns the first student whose id or name equals term.
func (s *RecordService) Search(term string) (*models.Student, error) {
	for _, st := range s.students {
		if st.StudentID() == term || st.Name() == term {
			return st.Clone(), nil
		}
	}
	return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
}

// Edit applies the addressed fields to one student and rewrites both workbooks.
func (s *RecordService) Edit(ctx context.Context, id string, update StudentUpdate) error {
	idx := s.indexByID(id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	if update.empty() {
		return appErrors.Clone(appErrors.ErrValidation, "no field to update")
	}
	if err := s.validator.Struct(update); err != nil {
		return appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid student update")
	}
	student := s.students[idx]
	if update.Name != nil && *update.Name != student.Name() {
		if other := s.indexByName(*update.Name); other >= 0 && other != idx {
			return appErrors.Clone(appErrors.ErrDuplicateName, fmt.Sprintf("student %q already exists", *update.Name))
		}
	}
	password := student.Password()
	if update.Password != nil {
		hashed, err := s.hashPassword(*update.Password)
		if err != nil {
			return err
		}
		password = hashed
	}

	// Everything is validated; from here on nothing can fail halfway.
	if update.Name != nil {
		student.SetName(*update.Name)
	}
	if update.Age != nil {
		student.SetAge(*update.Age)
	}
	if update.Gender != nil {
		student.SetGender(*update.Gender)
	}
	if update.DateOfBirth != nil {
		student.SetDateOfBirth(*update.DateOfBirth)
	}
	if update.Email != nil {
		student.SetEmail(*update.Email)
	}
	if update.Username != nil || update.Password != nil {
		username := student.Username()
		if update.Username != nil {
			username = *update.Username
		}
		student.SetCredentials(username, password)
		if _, ok := s.createdAt[student]; !ok {
			s.createdAt[student] = time.Now()
		}
	}
	if update.Scores != nil {
		if err := student.SetScores(update.Scores); err != nil {
			return appErrors.Wrap(err, appErrors.ErrValidation.Code, "invalid scores")
		}
	}
	s.logger.Info("student updated", zap.String("student_id", id))
	return s.persist(ctx)
}

// Delete removes a student, renumbers the rest and rewrites both workbooks.
func (s *RecordService) Delete(ctx context.Context, id string) error {
	idx := s.indexByID(id)
	if idx < 0 {
		return appErrors.Clone(appErrors.ErrNotFound, "student not found")
	}
	removed := s.students[idx]
	s.students = append(s.students[:idx], s.students[idx+1:]...)
	delete(s.createdAt, removed)
	s.Renumber()
	s.logger.Info("student deleted", zap.String("student_id", id), zap.Int("remaining", len(s.students)))
	return s.persist(ctx)
}

// Sort orders the collection by average score. The sort is stable and
// neither renumbers nor persists; SaveOrder does that when confirmed.
func (s *RecordService) Sort(order models.SortOrder) {
	sort.SliceStable(s.students, func(i, j int) bool {
		if order == models.SortDescending {
			return s.students[i].Average() > s.students[j].Average()
		}
		return s.students[i].Average() < s.students[j].Average()
	})
}

// SaveOrder runs the renumbering pass and rewrites both workbooks.
func (s *RecordService) SaveOrder(ctx context.Context) error {
	s.Renumber()
	return s.persist(ctx)
}

// Renumber reassigns STU001.. in ascending order of each student's current
// numeric id suffix. Non-numeric suffixes count as 0 and ties keep collection
// order. The collection order itself is unchanged.
func (s *RecordService) Renumber() {
	order := make([]int, len(s.students))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return numericSuffix(s.students[order[a]].StudentID()) < numericSuffix(s.students[order[b]].StudentID())
	})
	for rank, idx := range order {
		id := formatStudentID(rank + 1)
		if s.students[idx].StudentID() != id {
			s.students[idx].SetStudentID(id)
		}
	}
}

// BulkImport replaces the whole collection with imported students, joins
// stored credentials by their source ids, recomputes grades, renumbers and
// rewrites both workbooks.
func (s *RecordService) BulkImport(ctx context.Context, imported []*models.Student) (int, error) {
	if len(imported) == 0 {
		return 0, appErrors.Clone(appErrors.ErrValidation, "no valid student data found")
	}
	creds, err := s.credentials.Load(ctx)
	if err != nil {
		s.logger.Warn("failed to read credentials during import", zap.Error(err))
		creds = nil
	}
	s.replace(imported)
	s.join(creds)
	for _, st := range s.students {
		st.Recalculate()
	}
	s.Renumber()
	s.logger.Info("students imported", zap.Int("count", len(s.students)))
	return len(s.students), s.persist(ctx)
}

// FilterFailing returns copies of failing students in collection order.
func (s *RecordService) FilterFailing() []*models.Student {
	failing := make([]*models.Student, 0)
	for _, st := range s.students {
		if !st.HasPassingGrade() {
			failing = append(failing, st.Clone())
		}
	}
	return failing
}

// Summary returns class-wide grade statistics.
func (s *RecordService) Summary() grading.Summary {
	averages := make([]float64, len(s.students))
	for i, st := range s.students {
		averages[i] = st.Average()
	}
	return grading.Summarize(averages)
}

// Credentials returns the credential rows of every student with a username.
func (s *RecordService) Credentials() []models.Credential {
	creds := make([]models.Credential, 0, len(s.students))
	for _, st := range s.students {
		if !st.Identity().HasCredentials() {
			continue
		}
		created, ok := s.createdAt[st]
		if !ok {
			created = time.Now()
			s.createdAt[st] = created
		}
		creds = append(creds, st.Credential(created))
	}
	return creds
}

// Save rewrites both workbooks from the current collection.
func (s *RecordService) Save(ctx context.Context) error {
	return s.persist(ctx)
}

// persist writes both workbooks every time, so they never diverge through a
// partial write path. Failures leave memory as is and surface as
// PERSISTENCE_FAILURE.
func (s *RecordService) persist(ctx context.Context) error {
	var errs []error
	if err := s.records.Save(ctx, s.students); err != nil {
		errs = append(errs, err)
	}
	if err := s.credentials.Save(ctx, s.Credentials()); err != nil {
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return nil
	}
	joined := errors.Join(errs...)
	s.logger.Warn("failed to persist records", zap.Error(joined))
	return appErrors.Wrap(joined, appErrors.ErrPersistence.Code, appErrors.ErrPersistence.Message)
}

func (s *RecordService) replace(students []*models.Student) {
	s.students = students
	s.createdAt = make(map[*models.Student]time.Time, len(students))
}

func (s *RecordService) join(creds map[string]models.Credential) {
	for _, st := range s.students {
		cred, ok := creds[st.StudentID()]
		if !ok {
			continue
		}
		st.SetCredentials(cred.Username, cred.Password)
		if !cred.CreatedAt.IsZero() {
			s.createdAt[st] = cred.CreatedAt
		}
	}
}

func (s *RecordService) hashPassword(password string) (string, error) {
	if s.hasher == nil || password == "" {
		return password, nil
	}
	hashed, err := s.hasher.Hash(password)
	if err != nil {
		return "", appErrors.Wrap(err, appErrors.ErrInternal.Code, "failed to hash password")
	}
	return hashed, nil
}

func (s *RecordService) indexByID(id string) int {
	for i, st := range s.students {
		if st.StudentID() == id {
			return i
		}
	}
	return -1
}

func (s *RecordService) indexByName(name string) int {
	for i, st := range s.students {
		if st.Name() == name {
			return i
		}
	}
	return -1
}

func formatStudentID(n int) string {
	return fmt.Sprintf("%s%0*d", studentIDPrefix, studentIDWidth, n)
}

// numericSuffix returns the trailing run of digits in id, or 0 if none.
func numericSuffix(id string) int {
	end := len(id)
	start := end
	for start > 0 && id[start-1] >= '0' && id[start-1] <= '9' {
		start--
	}
	if start == end {
		return 0
	}
	n, err := strconv.Atoi(id[start:end])
	if err != nil {
		return 0
	}
	return n
}

func cloneAll(students []*models.Student) []*models.Student {
	out := make([]*models.Student, len(students))
	for i, st := range students {
		out[i] = st.Clone()
	}
	return out
}
