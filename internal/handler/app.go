package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/noah-isme/scoreme/internal/grading"
	"github.com/noah-isme/scoreme/internal/models"
	"github.com/noah-isme/scoreme/internal/service"
	appErrors "github.com/noah-isme/scoreme/pkg/errors"
)

const recentBackupsShown = 5

// App drives the text menus for both roles.
type App struct {
	console    *Console
	auth       *service.AuthService
	picker     FilePicker
	importPath string
	logger     *zap.Logger
}

// NewApp constructs the menu driver. importPath is offered as the default
// answer when importing.
func NewApp(console *Console, auth *service.AuthService, picker FilePicker, importPath string, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	if picker == nil {
		picker = NewPromptFilePicker(console)
	}
	return &App{console: console, auth: auth, picker: picker, importPath: importPath, logger: logger}
}

// Run shows the main menu until the user exits or input ends.
func (a *App) Run(ctx context.Context) error {
	for {
		a.console.Header("SCOREME MAIN MENU")
		a.console.Menu([]string{"Admin Login", "Student Login", "Exit"})
		choice, err := a.console.Choice(3)
		if err != nil {
			return closed(err)
		}
		switch choice {
		case 1:
			err = a.adminLogin(ctx)
		case 2:
			err = a.studentLogin(ctx)
		case 3:
			a.console.Info("Thank you for using ScoreME! Goodbye!")
			return nil
		}
		if err != nil {
			return closed(err)
		}
	}
}

func closed(err error) error {
	if errors.Is(err, ErrInputClosed) {
		return nil
	}
	return err
}

// report prints the outcome of a mutation. A persistence failure means the
// change happened in memory, so it is shown as a warning, not an error.
func (a *App) report(err error, success string) {
	switch {
	case err == nil:
		a.console.Success(success)
	case appErrors.IsCode(err, appErrors.ErrPersistence.Code):
		a.console.Warning(success + " But saving failed: " + err.Error())
	default:
		a.console.Error(err.Error())
	}
}

func (a *App) readLogin(title string) (models.LoginRequest, error) {
	a.console.Header(title)
	username, err := a.console.Prompt("Username: ")
	if err != nil {
		return models.LoginRequest{}, err
	}
	password, err := a.console.PromptPassword("Password: ")
	if err != nil {
		return models.LoginRequest{}, err
	}
	return models.LoginRequest{Username: username, Password: password}, nil
}

func (a *App) adminLogin(ctx context.Context) error {
	req, err := a.readLogin("ADMIN LOGIN")
	if err != nil {
		return err
	}
	session, err := a.auth.LoginAdmin(req)
	if err != nil {
		a.console.Error("Invalid admin credentials!")
		return nil
	}
	a.console.Success("Login successful! Welcome, " + session.Identity().DisplayName + "!")
	return a.adminMenu(ctx, session)
}

func (a *App) studentLogin(ctx context.Context) error {
	req, err := a.readLogin("STUDENT LOGIN")
	if err != nil {
		return err
	}
	session, err := a.auth.LoginStudent(req)
	if err != nil {
		a.console.Error("Invalid student credentials!")
		return nil
	}
	profile, err := session.Profile()
	if err != nil {
		a.console.Error(err.Error())
		return nil
	}
	a.console.Success("Login successful! Welcome, " + profile.Name() + "!")
	return a.studentMenu(session)
}

func (a *App) studentMenu(session *service.StudentSession) error {
	for {
		a.console.Header("STUDENT DASHBOARD")
		a.console.Menu([]string{"Search Your Data", "View My Profile", "Sign Out"})
		choice, err := a.console.Choice(3)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			term, err := a.console.PromptRequired("Enter your Student ID or name: ")
			if err != nil {
				return err
			}
			st, err := session.Lookup(term)
			if err != nil {
				a.console.Error("You can only view your own data.")
				continue
			}
			if err := WriteStudentDetails(a.console.out, st); err != nil {
				return err
			}
		case 2:
			st, err := session.Profile()
			if err != nil {
				a.console.Error(err.Error())
				continue
			}
			if err := WriteStudentDetails(a.console.out, st); err != nil {
				return err
			}
		case 3:
			a.console.Info("Signing out...")
			return nil
		}
	}
}

func (a *App) adminMenu(ctx context.Context, session *service.AdminSession) error {
	for {
		a.console.Header("ADMIN DASHBOARD")
		a.console.Menu([]string{
			"Manage Students",
			"Import Excel Data",
			"Export Grade Report",
			"Backup Data",
			"Class Summary",
			"Create Import Template",
			"Sign Out",
		})
		choice, err := a.console.Choice(7)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			err = a.manageStudents(ctx, session)
		case 2:
			err = a.importData(ctx, session)
		case 3:
			err = a.exportReport(ctx, session)
		case 4:
			err = a.backup(ctx, session)
		case 5:
			a.console.Header("CLASS SUMMARY")
			err = WriteSummary(a.console.out, session.Summary())
		case 6:
			path, terr := session.CreateImportTemplate(ctx)
			a.report(terr, "Import template created at "+path+".")
		case 7:
			a.console.Info("Signing out from admin dashboard...")
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) manageStudents(ctx context.Context, session *service.AdminSession) error {
	for {
		a.console.Header("STUDENT MANAGEMENT")
		a.console.Menu([]string{
			"View All Students",
			"Add New Student",
			"Edit Student Info",
			"Delete Student",
			"Search Student",
			"Show Failing Students",
			"Sort Students by Score",
			"Back to Admin Dashboard",
		})
		choice, err := a.console.Choice(8)
		if err != nil {
			return err
		}
		switch choice {
		case 1:
			err = a.viewAll(session)
		case 2:
			err = a.addStudent(ctx, session)
		case 3:
			err = a.editStudent(ctx, session)
		case 4:
			err = a.deleteStudent(ctx, session)
		case 5:
			err = a.searchStudent(session)
		case 6:
			err = a.showFailing(session)
		case 7:
			err = a.sortStudents(ctx, session)
		case 8:
			return nil
		}
		if err != nil {
			return err
		}
	}
}

func (a *App) viewAll(session *service.AdminSession) error {
	a.console.Header("ALL STUDENTS")
	students := session.List()
	if len(students) == 0 {
		a.console.Warning("No students found!")
		return nil
	}
	return WriteStudentTable(a.console.out, students)
}

func (a *App) addStudent(ctx context.Context, session *service.AdminSession) error {
	a.console.Header("ADD NEW STUDENT")
	next := session.NextID()
	id, err := a.console.Prompt(fmt.Sprintf("Student ID [%s]: ", next))
	if err != nil {
		return err
	}
	if id == "" {
		id = next
	}
	if _, err := session.FindByID(id); err == nil {
		a.console.Error("Student ID already exists!")
		return nil
	}
	name, err := a.console.PromptRequired("Student Name: ")
	if err != nil {
		return err
	}
	if _, err := session.FindByName(name); err == nil {
		a.console.Error("Student with this name already exists!")
		return nil
	}
	username, err := a.console.Prompt("Username for login (blank for none): ")
	if err != nil {
		return err
	}
	var password string
	if username != "" {
		if password, err = a.console.PromptRequired("Password for login: "); err != nil {
			return err
		}
	}
	profile, err := a.promptProfile(session)
	if err != nil {
		return err
	}
	scores, err := a.promptScores(session)
	if err != nil {
		return err
	}

	_, err = session.Add(ctx, service.AddStudentRequest{
		StudentID:   id,
		Name:        name,
		Username:    username,
		Password:    password,
		Age:         profile.Age,
		Gender:      profile.Gender,
		DateOfBirth: profile.DateOfBirth,
		Email:       profile.Email,
		Scores:      scores,
	})
	a.report(err, "Student "+id+" added successfully!")
	if (err == nil || appErrors.IsCode(err, appErrors.ErrPersistence.Code)) && username != "" {
		a.console.Info("Login credentials - Username: " + username)
	}
	return nil
}

func (a *App) promptProfile(session *service.AdminSession) (models.StudentProfile, error) {
	var p models.StudentProfile
	var err error
	if p.Age, err = a.promptAge(session, "Age (18-25): "); err != nil {
		return p, err
	}
	if p.Gender, err = a.promptGender(session, "Gender (Male/Female/Other): "); err != nil {
		return p, err
	}
	if p.DateOfBirth, err = a.promptField(session, "Date of Birth (YYYY-MM-DD): ", service.RuleDateOfBirth, "date must be in YYYY-MM-DD format"); err != nil {
		return p, err
	}
	if p.Email, err = a.promptField(session, "Email (gmail.com): ", service.RuleEmail, "email must be a gmail.com address"); err != nil {
		return p, err
	}
	return p, nil
}

func (a *App) promptAge(session *service.AdminSession, label string) (int, error) {
	return a.console.PromptInt(label, func(n int) error {
		if session.ValidateField(n, service.RuleAge) != nil {
			return errors.New("age must be between 18 and 25")
		}
		return nil
	})
}

func (a *App) promptGender(session *service.AdminSession, label string) (string, error) {
	var gender string
	_, err := a.console.PromptString(label, func(v string) error {
		gender = capitalize(v)
		if session.ValidateField(gender, service.RuleGender) != nil {
			return errors.New("gender must be Male, Female or Other")
		}
		return nil
	})
	return gender, err
}

func (a *App) promptField(session *service.AdminSession, label, rule, hint string) (string, error) {
	return a.console.PromptString(label, func(v string) error {
		if session.ValidateField(v, rule) != nil {
			return errors.New(hint)
		}
		return nil
	})
}

func (a *App) promptScores(session *service.AdminSession) ([]float64, error) {
	a.console.Info("Enter scores for all subjects:")
	subjects := grading.SubjectNames()
	scores := make([]float64, len(subjects))
	for i, subject := range subjects {
		score, err := a.console.PromptFloat(subject+" score: ", func(f float64) error {
			if session.ValidateField(f, service.RuleScore) != nil {
				return errors.New("score must be between 0 and 100")
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		scores[i] = score
	}
	return scores, nil
}

func (a *App) editStudent(ctx context.Context, session *service.AdminSession) error {
	a.console.Header("EDIT STUDENT INFO")
	id, err := a.console.PromptRequired("Enter Student ID to edit: ")
	if err != nil {
		return err
	}
	st, err := session.FindByID(id)
	if err != nil {
		a.console.Error("Student not found!")
		return nil
	}
	a.console.Info("Current student info:")
	if err := WriteStudentDetails(a.console.out, st); err != nil {
		return err
	}

	a.console.Menu([]string{"Name", "Age", "Gender", "Date of Birth", "Email", "All Scores", "Login Credentials", "Cancel"})
	choice, err := a.console.Choice(8)
	if err != nil {
		return err
	}

	var update service.StudentUpdate
	switch choice {
	case 1:
		name, err := a.console.PromptRequired("New name: ")
		if err != nil {
			return err
		}
		update.Name = &name
	case 2:
		age, err := a.promptAge(session, "New age (18-25): ")
		if err != nil {
			return err
		}
		update.Age = &age
	case 3:
		gender, err := a.promptGender(session, "New gender (Male/Female/Other): ")
		if err != nil {
			return err
		}
		update.Gender = &gender
	case 4:
		dob, err := a.promptField(session, "New date of birth (YYYY-MM-DD): ", service.RuleDateOfBirth, "date must be in YYYY-MM-DD format")
		if err != nil {
			return err
		}
		update.DateOfBirth = &dob
	case 5:
		email, err := a.promptField(session, "New email (gmail.com): ", service.RuleEmail, "email must be a gmail.com address")
		if err != nil {
			return err
		}
		update.Email = &email
	case 6:
		scores, err := a.promptScores(session)
		if err != nil {
			return err
		}
		update.Scores = scores
	case 7:
		username, err := a.console.PromptRequired("New username: ")
		if err != nil {
			return err
		}
		password, err := a.console.PromptRequired("New password: ")
		if err != nil {
			return err
		}
		update.Username, update.Password = &username, &password
	case 8:
		a.console.Info("Edit cancelled.")
		return nil
	}

	a.report(session.Edit(ctx, id, update), "Student information updated successfully!")
	return nil
}

func (a *App) deleteStudent(ctx context.Context, session *service.AdminSession) error {
	a.console.Header("DELETE STUDENT")
	id, err := a.console.PromptRequired("Enter Student ID to delete: ")
	if err != nil {
		return err
	}
	st, err := session.FindByID(id)
	if err != nil {
		a.console.Error("Student not found!")
		return nil
	}
	if err := WriteStudentDetails(a.console.out, st); err != nil {
		return err
	}
	ok, err := a.console.Confirm("Are you sure you want to delete " + st.Name() + "?")
	if err != nil {
		return err
	}
	if !ok {
		a.console.Info("Deletion cancelled.")
		return nil
	}
	a.report(session.Delete(ctx, id), "Student deleted successfully! Remaining IDs were renumbered.")
	return nil
}

func (a *App) searchStudent(session *service.AdminSession) error {
	a.console.Header("SEARCH STUDENT")
	term, err := a.console.PromptRequired("Enter Student ID or name: ")
	if err != nil {
		return err
	}
	st, err := session.Search(term)
	if err != nil {
		a.console.Error("Student not found!")
		return nil
	}
	return WriteStudentDetails(a.console.out, st)
}

func (a *App) showFailing(session *service.AdminSession) error {
	a.console.Header("FAILING STUDENTS")
	failing := session.FilterFailing()
	if len(failing) == 0 {
		a.console.Success("No failing students!")
		return nil
	}
	return WriteStudentTable(a.console.out, failing)
}

func (a *App) sortStudents(ctx context.Context, session *service.AdminSession) error {
	a.console.Header("SORT STUDENTS BY SCORE")
	raw, err := a.console.Prompt("Sort order (asc/desc): ")
	if err != nil {
		return err
	}
	order := models.SortDescending
	if strings.EqualFold(raw, string(models.SortAscending)) {
		order = models.SortAscending
	}
	session.Sort(order)
	a.console.Success("Students sorted successfully!")
	if err := WriteStudentTable(a.console.out, session.List()); err != nil {
		return err
	}
	save, err := a.console.Confirm("Save this order? Student IDs will be compacted to STU001..")
	if err != nil {
		return err
	}
	if save {
		a.report(session.SaveOrder(ctx), "Order saved.")
	}
	return nil
}

func (a *App) importData(ctx context.Context, session *service.AdminSession) error {
	a.console.Header("IMPORT EXCEL DATA")
	path, err := a.picker.PickFile(ctx, "Path to Excel file", a.importPath)
	if err != nil {
		return err
	}
	ok, err := a.console.Confirm(fmt.Sprintf("Importing replaces all %d current records. Continue?", session.Count()))
	if err != nil {
		return err
	}
	if !ok {
		a.console.Info("Import cancelled.")
		return nil
	}
	count, err := session.ImportFile(ctx, path)
	a.report(err, fmt.Sprintf("Imported %d students from %s.", count, path))
	return nil
}

func (a *App) exportReport(ctx context.Context, session *service.AdminSession) error {
	a.console.Header("EXPORT GRADE REPORT")
	raw, err := a.console.Prompt("Format (xlsx/csv/pdf) [xlsx]: ")
	if err != nil {
		return err
	}
	format, err := models.ParseReportFormat(raw)
	if err != nil {
		a.console.Error(err.Error())
		return nil
	}
	result, err := session.ExportReport(ctx, format)
	if err != nil {
		a.console.Error(err.Error())
		return nil
	}
	a.console.Success(fmt.Sprintf("Grade report with %d students written to %s.", result.Rows, result.Path))
	return nil
}

func (a *App) backup(ctx context.Context, session *service.AdminSession) error {
	a.console.Header("BACKUP DATA")
	result, err := session.Backup(ctx)
	if err != nil {
		a.console.Error(err.Error())
		return nil
	}
	a.console.Success("Backup created: " + result.StudentsPath)
	a.console.Success("Credentials backup created: " + result.CredentialsPath)
	if len(result.Removed) > 0 {
		a.console.Info(fmt.Sprintf("Removed %d expired backups.", len(result.Removed)))
	}
	files, err := session.RecentBackups()
	if err != nil {
		a.logger.Warn("failed to list backups", zap.Error(err))
		return nil
	}
	if len(files) > recentBackupsShown {
		files = files[:recentBackupsShown]
	}
	return WriteBackupList(a.console.out, files)
}

func capitalize(v string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return v
	}
	return strings.ToUpper(v[:1]) + strings.ToLower(v[1:])
}
