package main

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"testing"

	"github.com/walimuhq/walimu/core/performance"
	"github.com/walimuhq/walimu/core/tutoring"
	"github.com/walimuhq/walimu/core/user"
	emailsvc "github.com/walimuhq/walimu/services/email"
	dummydb "github.com/walimuhq/walimu/storage/database/dummy"
	testutil "github.com/walimuhq/walimu/tests"
)

var (
	usrRepo   user.Repository
	tutorRepo tutoring.TutorRepository
)

func setup(t *testing.T) *commandLine {
	t.Helper()

	db, err := dummydb.Open()
	if err != nil {
		t.Fatalf("dummydb.Open() failed: %v", err)
	}
	usrRepo = dummydb.NewUserRepository(db)
	tutorRepo = dummydb.NewTutorRepository(db)

	conf := testutil.NewConfig()

	return &commandLine{
		conf:    conf,
		usrRepo: usrRepo,
		perfSvc: performance.NewService(
			performance.Repositories{
				Tutors:      tutorRepo,
				Pairings:    dummydb.NewPairingRepository(db),
				Sessions:    dummydb.NewSessionRepository(db),
				Assignments: dummydb.NewAssignmentRepository(db),
				Exams:       dummydb.NewExamRepository(db),
				Reviews:     dummydb.NewReviewRepository(db),
			},
			emailsvc.NewConsoleServiceMock(conf), testutil.NewLogger(), conf,
		),
	}
}

type cliTest struct {
	name       string
	args       []string // without program name
	wantErr    error
	wantErrStr string
	extra      interface{}
}

func Test_commandLine_migrate(t *testing.T) {
	cli := setup(t)

	gooseRunFunc = func(command string, db *sql.DB, dir string, args ...string) error {
		switch command {
		case "up", "up-by-one", "down", "fix", "redo", "reset", "status", "version": // pass
		case "up-to", "down-to":
			if len(args) == 0 {
				return fmt.Errorf("%s requires a VERSION argument", command)
			}
			if _, err := strconv.ParseInt(args[0], 10, 64); err != nil {
				return fmt.Errorf("version must be a number (got '%s')", args[0])
			}
		case "create":
			if len(args) == 0 {
				return fmt.Errorf("create requires a NAME argument")
			}
		default:
			return fmt.Errorf("%q: no such command", command)
		}
		return nil
	}

	tests := []cliTest{
		{name: "no subcommand", args: []string{"migrate"}, wantErr: errHelp},
		{name: "unknown subcommand", args: []string{"migrate", "lol"}, wantErrStr: "\"lol\": no such command"},
		{name: "up-to: no args", args: []string{"migrate", "up-to"}, wantErrStr: "up-to requires a VERSION argument"},
		{name: "up-to: non-int arg", args: []string{"migrate", "up-to", "lol"}, wantErrStr: "version must be a number (got 'lol')"},
		{name: "down-to: no args", args: []string{"migrate", "down-to"}, wantErrStr: "down-to requires a VERSION argument"},
		{name: "up", args: []string{"migrate", "up"}},
		{name: "down", args: []string{"migrate", "down"}},
		{name: "redo", args: []string{"migrate", "redo"}},
		{name: "reset", args: []string{"migrate", "reset"}},
		{name: "status", args: []string{"migrate", "status"}},
		{name: "version", args: []string{"migrate", "version"}},
		{name: "create", args: []string{"migrate", "create", "course_table"}},
		{name: "fix", args: []string{"migrate", "fix"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		t.Run(tt.name, func(t *testing.T) {
			if err := cli.run(args); err != nil {
				if tt.wantErr != nil {
					if err != tt.wantErr {
						t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
					}
				} else if tt.wantErrStr != "" {
					if err.Error() != tt.wantErrStr {
						t.Errorf("cli.run() error.Error() = %s, wantErrStr %s", err.Error(), tt.wantErrStr)
					}
				} else {
					t.Errorf("cli.run() unexpected error = %v", err)
				}
			}
		})
	}
}

func Test_commandLine_resetPassword(t *testing.T) {
	cli := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "User", "awe", "awe@test.cd", "mdr", nil, true)

	type extra struct {
		pwd string
	}
	tests := []cliTest{
		{name: "no command", wantErr: errHelp},
		{name: "unknown command", args: []string{"lol"}, wantErr: errHelp},
		{name: "no args", args: []string{"resetpassword"}, wantErr: errHelp},
		{name: "username but no password", args: []string{"resetpassword", "-username", "lol"}, wantErr: errHelp},
		{name: "user not found", args: []string{"resetpassword", "-username", "lol"}, extra: extra{pwd: "lol"}, wantErr: user.ErrNotFound},
		{name: "reset with username", args: []string{"resetpassword", "-username", usr.Username}, extra: extra{pwd: "lol"}},
		{name: "reset with email", args: []string{"resetpassword", "-username", usr.Email}, extra: extra{pwd: "lmao"}},
	}
	for _, tt := range tests {
		args := append([]string{"admin"}, tt.args...)

		readPasswordFunc = func(fd int) ([]byte, error) {
			if extra, ok := tt.extra.(extra); ok {
				return []byte(extra.pwd), nil
			}
			return nil, nil
		}

		t.Run(tt.name, func(t *testing.T) {
			err := cli.run(args)
			if err == nil {
				refreshedUsr, err := usrRepo.GetUser(context.Background(), user.GetFilter{ID: usr.ID})
				if err != nil {
					t.Fatalf("GetUser() failed, %v", err)
				}
				if bytes.Equal(refreshedUsr.PasswordHash, usr.PasswordHash) {
					t.Error("failed to update new password")
				}
			} else if err != tt.wantErr {
				t.Errorf("cli.run() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func Test_commandLine_addUser(t *testing.T) {
	cli := setup(t)

	readPasswordFunc = func(fd int) ([]byte, error) { return []byte("s3cr3t!pass"), nil }

	if err := cli.run([]string{"admin", "adduser", "-username", "kali", "-email", "kali@test.cd", "-admin"}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	usr, err := usrRepo.GetUser(context.Background(), user.GetFilter{Username: "kali"})
	if err != nil {
		t.Fatalf("GetUser() failed: %v", err)
	}
	if !usr.IsAdmin() {
		t.Error("expected an admin user")
	}
	if err = usr.CheckPassword("s3cr3t!pass"); err != nil {
		t.Errorf("CheckPassword() failed: %v", err)
	}
}

func Test_commandLine_recompute(t *testing.T) {
	cli := setup(t)

	tut := testutil.CreateTutor(t, tutorRepo, "Awe Tutor", "tutor@test.cd")

	if err := cli.run([]string{"admin", "recompute", "-tutor", tut.ID}); err != nil {
		t.Fatalf("cli.run() failed: %v", err)
	}

	refreshed, err := tutorRepo.GetTutor(context.Background(), tutoring.TutorGetFilter{ID: tut.ID})
	if err != nil {
		t.Fatalf("GetTutor() failed: %v", err)
	}
	if refreshed.Version != tut.Version+1 {
		t.Errorf("expected a snapshot write; version = %d, want %d", refreshed.Version, tut.Version+1)
	}
	if refreshed.CapacityTier != tutoring.Tier1 {
		t.Errorf("CapacityTier = %d, want %d", refreshed.CapacityTier, tutoring.Tier1)
	}

	// unknown tutor
	if err := cli.run([]string{"admin", "recompute", "-tutor", "nope"}); err != tutoring.ErrTutorNotFound {
		t.Errorf("cli.run() error = %v, want %v", err, tutoring.ErrTutorNotFound)
	}
}
