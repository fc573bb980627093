// The admin CLI performs operational chores: bootstrapping users, minting
// admin tokens, running migrations and recomputing tutor scores.
package main

import (
	"log"
	"os"

	"github.com/jmoiron/sqlx"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/performance"
	appfs "github.com/walimuhq/walimu/fs"
	emailsvc "github.com/walimuhq/walimu/services/email"
	logsvc "github.com/walimuhq/walimu/services/logger"
	"github.com/walimuhq/walimu/storage/database"
	sqlxrepos "github.com/walimuhq/walimu/storage/database/sqlx"
)

func main() {
	defer os.Exit(0)

	std := log.New(os.Stdout, "ADMIN : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)

	conf := core.NewConfig()
	logger := logsvc.NewRollbarLogger(std, conf)
	logger.Enable(!conf.Debug)

	// set up DB
	db, err := database.Open(conf)
	if err != nil {
		std.Fatal(err)
	}
	defer db.Close()
	if err = db.Ping(); err != nil {
		std.Fatal(err)
	}
	dbx := sqlx.NewDb(db, conf.Database.Engine)

	core.ParseEmailTemplates(appfs.FS, conf, logger)

	// start CLI
	cli := commandLine{
		conf:    conf,
		db:      db,
		usrRepo: sqlxrepos.NewUserRepository(dbx),
		perfSvc: performance.NewService(
			performance.Repositories{
				Tutors:      sqlxrepos.NewTutorRepository(dbx),
				Pairings:    sqlxrepos.NewPairingRepository(dbx),
				Sessions:    sqlxrepos.NewSessionRepository(dbx),
				Assignments: sqlxrepos.NewAssignmentRepository(dbx),
				Exams:       sqlxrepos.NewExamRepository(dbx),
				Reviews:     sqlxrepos.NewReviewRepository(dbx),
			},
			emailsvc.NewConsoleService(conf), logger, conf,
		),
	}
	if err := cli.run(os.Args); err != nil {
		if err != errHelp {
			std.Printf("\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
