// Package testutil holds helpers shared by tests across packages.
package testutil

import (
	"context"
	"log"
	"os"
	"testing"
	"time"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/tutoring"
	"github.com/walimuhq/walimu/core/user"
)

// NewConfig returns a Config suitable for tests. No env files are consulted.
func NewConfig() *core.Config {
	conf := &core.Config{
		Debug:           true,
		TestMode:        true,
		Env:             "test",
		AppName:         "Walimu",
		SecretKey:       "secret",
		FrontendBaseURL: "http://localhost:8080",
		DefaultFromName: "Walimu",
		DefaultFromAddr: "noreply@walimu.test",
	}
	conf.Server.JWTExpirationDelta = 10 * time.Minute
	conf.Performance.Scheme = "tutor"
	conf.Performance.MinSessions = 3
	conf.Performance.MinGradedAssignments = 1
	conf.Performance.ReadRetries = 1
	return conf
}

// Logger logs to stderr and skips process exit on Fatal.
type Logger struct {
	std *log.Logger
}

var _ core.Logger = (*Logger)(nil)

func NewLogger() *Logger {
	return &Logger{std: log.New(os.Stderr, "TEST : ", log.LstdFlags)}
}

func (l Logger) log(level, msg string, args []interface{}) {
	l.std.Printf("[%s] %s %v", level, msg, args)
}

func (l Logger) Debug(msg string, args ...interface{}) { l.log("DEBUG", msg, args) }
func (l Logger) Info(msg string, args ...interface{})  { l.log("INFO", msg, args) }
func (l Logger) Warn(msg string, args ...interface{})  { l.log("WARN", msg, args) }
func (l Logger) Error(msg string, args ...interface{}) { l.log("ERROR", msg, args) }
func (l Logger) Fatal(msg string, args ...interface{}) { l.log("FATAL", msg, args) }

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()

	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	usr.SetActive(isActive)
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateTutor(t *testing.T, repo tutoring.TutorRepository, name, email string) tutoring.Tutor {
	t.Helper()

	tut, err := repo.CreateTutor(context.Background(), tutoring.Tutor{Name: name, Email: email})
	if err != nil {
		t.Fatalf("CreateTutor() failed: %v", err)
	}
	return tut
}
