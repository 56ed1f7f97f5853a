package models

import (
	"fmt"
	"time"

	"github.com/noah-isme/scoreme/internal/grading"
)

// TimestampLayout is the on-disk and on-screen format of LastUpdated.
const TimestampLayout = "2006-01-02 15:04:05"

// StudentProfile carries the raw fields a Student is built from.
type StudentProfile struct {
	StudentID   string
	Name        string
	Username    string
	Password    string
	Age         int
	Gender      string
	DateOfBirth string
	Email       string
	Scores      []float64
}

// Student is an academic record. Fields are only reachable through methods so
// the derived grade fields can never drift from the scores.
type Student struct {
	identity    Identity
	studentID   string
	age         int
	gender      string
	dateOfBirth string
	email       string
	scores      [grading.SubjectCount]float64
	derived     grading.Result
	lastUpdated time.Time
}

// NewStudent builds a fully derived Student.
func NewStudent(p StudentProfile) (*Student, error) {
	if len(p.Scores) != grading.SubjectCount {
		return nil, fmt.Errorf("expected %d scores, got %d", grading.SubjectCount, len(p.Scores))
	}
	s := &Student{
		identity: Identity{
			Username:    p.Username,
			Password:    p.Password,
			DisplayName: p.Name,
			Role:        RoleStudent,
		},
		studentID:   p.StudentID,
		age:         p.Age,
		gender:      p.Gender,
		dateOfBirth: p.DateOfBirth,
		email:       p.Email,
	}
	copy(s.scores[:], p.Scores)
	s.Recalculate()
	s.touch()
	return s, nil
}

// Accessors for the profile, login identity and derived grade fields.
func (s *Student) StudentID() string                { return s.studentID }
func (s *Student) Name() string                     { return s.identity.DisplayName }
func (s *Student) Username() string                 { return s.identity.Username }
func (s *Student) Password() string                 { return s.identity.Password }
func (s *Student) Identity() Identity               { return s.identity }
func (s *Student) Age() int                         { return s.age }
func (s *Student) Gender() string                   { return s.gender }
func (s *Student) DateOfBirth() string              { return s.dateOfBirth }
func (s *Student) Email() string                    { return s.email }
func (s *Student) Average() float64                 { return s.derived.Average }
func (s *Student) LetterGrade() grading.LetterGrade { return s.derived.LetterGrade }
func (s *Student) GPA() float64                     { return s.derived.GPA }
func (s *Student) Remark() grading.Remark           { return s.derived.Remark }
func (s *Student) LastUpdated() time.Time           { return s.lastUpdated }

// Scores returns a copy of the subject scores in SubjectNames order.
func (s *Student) Scores() []float64 {
	out := make([]float64, grading.SubjectCount)
	copy(out, s.scores[:])
	return out
}

// FormattedTimestamp renders LastUpdated in TimestampLayout.
func (s *Student) FormattedTimestamp() string {
	return s.lastUpdated.Format(TimestampLayout)
}

// HasPassingGrade defers to the grading package for the threshold.
func (s *Student) HasPassingGrade() bool {
	return grading.IsPassing(s.derived.Average)
}

// SetStudentID replaces the record id.
func (s *Student) SetStudentID(id string) {
	s.studentID = id
	s.touch()
}

// SetName replaces the display name.
func (s *Student) SetName(name string) {
	s.identity.DisplayName = name
	s.touch()
}

// SetAge replaces the age.
func (s *Student) SetAge(age int) {
	s.age = age
	s.touch()
}

// SetGender replaces the gender.
func (s *Student) SetGender(gender string) {
	s.gender = gender
	s.touch()
}

// SetDateOfBirth replaces the date of birth (YYYY-MM-DD).
func (s *Student) SetDateOfBirth(dob string) {
	s.dateOfBirth = dob
	s.touch()
}

// SetEmail replaces the email address.
func (s *Student) SetEmail(email string) {
	s.email = email
	s.touch()
}

// SetCredentials replaces the login pair.
func (s *Student) SetCredentials(username, password string) {
	s.identity.Username = username
	s.identity.Password = password
	s.touch()
}

// SetScores replaces all scores and re-derives every grade field.
func (s *Student) SetScores(scores []float64) error {
	if len(scores) != grading.SubjectCount {
		return fmt.Errorf("expected %d scores, got %d", grading.SubjectCount, len(scores))
	}
	copy(s.scores[:], scores)
	s.Recalculate()
	s.touch()
	return nil
}

// Recalculate re-runs the derivation pipeline. Safe to call repeatedly.
func (s *Student) Recalculate() {
	s.derived = grading.Derive(s.scores[:])
}

// RestoreTimestamp sets LastUpdated from persisted data without touching it.
func (s *Student) RestoreTimestamp(t time.Time) {
	s.lastUpdated = t
}

// Credential projects the login fields into a credentials row.
func (s *Student) Credential(createdAt time.Time) Credential {
	return Credential{
		StudentID: s.studentID,
		Name:      s.identity.DisplayName,
		Username:  s.identity.Username,
		Password:  s.identity.Password,
		Email:     s.email,
		CreatedAt: createdAt,
	}
}

// Clone returns an independent copy.
func (s *Student) Clone() *Student {
	c := *s
	return &c
}

func (s *Student) touch() {
	s.lastUpdated = time.Now()
}
