package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/models"
)

var sampleProfiles = []models.StudentProfile{
	{StudentID: "STU001", Name: "John Smith", Username: "john.smith", Password: "pass123", Age: 20, Gender: "Male", DateOfBirth: "2003-05-15", Email: "john.smith@gmail.com",
		Scores: []float64{85.5, 78.0, 92.3, 88.7, 76.5, 90.1, 82.8}},
	{StudentID: "STU002", Name: "Emily Johnson", Username: "emily.johnson", Password: "pass456", Age: 19, Gender: "Female", DateOfBirth: "2004-08-22", Email: "emily.johnson@gmail.com",
		Scores: []float64{92.1, 89.5, 87.3, 91.2, 88.9, 85.7, 90.4}},
	{StudentID: "STU003", Name: "Michael Brown", Username: "michael.brown", Password: "pass789", Age: 21, Gender: "Male", DateOfBirth: "2002-12-10", Email: "michael.brown@gmail.com",
		Scores: []float64{76.8, 82.3, 79.5, 85.2, 81.7, 78.9, 80.1}},
	{StudentID: "STU004", Name: "Sarah Davis", Age: 20, Gender: "Female", DateOfBirth: "2003-03-18", Email: "sarah.davis@gmail.com",
		Scores: []float64{88.9, 91.2, 86.5, 89.8, 87.3, 90.7, 88.1}},
	{StudentID: "STU005", Name: "David Wilson", Age: 19, Gender: "Male", DateOfBirth: "2004-07-25", Email: "david.wilson@gmail.com",
		Scores: []float64{65.2, 58.9, 62.1, 59.8, 61.5, 63.7, 60.3}},
	{StudentID: "STU006", Name: "Lisa Miller", Age: 20, Gender: "Female", DateOfBirth: "2003-11-30", Email: "lisa.miller@gmail.com",
		Scores: []float64{94.5, 96.2, 93.8, 95.1, 97.3, 92.9, 94.7}},
	{StudentID: "STU007", Name: "James Taylor", Age: 21, Gender: "Male", DateOfBirth: "2002-09-14", Email: "james.taylor@gmail.com",
		Scores: []float64{78.3, 81.5, 77.9, 82.1, 79.7, 80.4, 78.8}},
	{StudentID: "STU008", Name: "Jennifer Anderson", Age: 19, Gender: "Female", DateOfBirth: "2004-04-08", Email: "jennifer.anderson@gmail.com",
		Scores: []float64{91.7, 88.3, 90.5, 87.9, 89.1, 92.4, 90.8}},
	{StudentID: "STU009", Name: "Robert Thomas", Age: 20, Gender: "Male", DateOfBirth: "2003-01-20", Email: "robert.thomas@gmail.com",
		Scores: []float64{55.8, 52.3, 58.1, 54.9, 56.7, 53.5, 55.2}},
	{StudentID: "STU010", Name: "Jessica Martinez", Age: 19, Gender: "Female", DateOfBirth: "2004-06-12", Email: "jessica.martinez@gmail.com",
		Scores: []float64{87.4, 85.9, 89.2, 86.7, 88.5, 87.1, 86.8}},
}

// SampleStudents returns the fixed synthetic dataset. The first three students
// have login credentials.
func SampleStudents() []*models.Student {
	students := make([]*models.Student, 0, len(sampleProfiles))
	for _, p := range sampleProfiles {
		s, err := models.NewStudent(p)
		if err != nil {
			// profiles above always carry seven scores
			panic(err)
		}
		students = append(students, s)
	}
	return students
}

// ResetToSample replaces every record with the sample dataset and writes both
// workbooks.
func (s *RecordService) ResetToSample(ctx context.Context) error {
	s.replace(SampleStudents())
	s.logger.Info("sample data written", zap.Int("students", len(s.students)))
	return s.persist(ctx)
}
