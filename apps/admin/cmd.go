package main

import (
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"syscall"

	"golang.org/x/term"

	"github.com/walimuhq/walimu/core"
	"github.com/walimuhq/walimu/core/performance"
	"github.com/walimuhq/walimu/core/user"
)

var (
	readPasswordFunc = term.ReadPassword // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	conf    *core.Config
	db      *sql.DB
	usrRepo user.Repository
	perfSvc performance.ServiceInterface
}

func (cli *commandLine) printUsage() {
	fmt.Println("Usage:")
	fmt.Println("  adduser -username USERNAME -email EMAIL [-admin] - create or update a user; the password is prompted")
	fmt.Println("  resetpassword -username USERNAME|EMAIL - reset user's password")
	fmt.Println("  mktoken -username USERNAME|EMAIL - print a signed API token for the user")
	fmt.Println("  migrate COMMAND [ARGS] - run database migrations (up, down, status, ...)")
	fmt.Println("  recompute -tutor ID|EMAIL - recompute a tutor's performance score & tier")
}

func (cli *commandLine) run(args []string) error {
	if len(args) < 2 {
		cli.printUsage()
		return errHelp
	}

	addUserCmd := flag.NewFlagSet("adduser", flag.ExitOnError)
	addUserUname := addUserCmd.String("username", "", "The new user's username.")
	addUserEmail := addUserCmd.String("email", "", "The new user's email.")
	addUserAdmin := addUserCmd.Bool("admin", false, "Grant all roles to the user.")

	resetPasswordCmd := flag.NewFlagSet("resetpassword", flag.ExitOnError)
	resetPasswordUname := resetPasswordCmd.String("username", "", "The user's username or email. The password will be prompted next.")

	mkTokenCmd := flag.NewFlagSet("mktoken", flag.ExitOnError)
	mkTokenUname := mkTokenCmd.String("username", "", "The user's username or email.")

	recomputeCmd := flag.NewFlagSet("recompute", flag.ExitOnError)
	recomputeTutor := recomputeCmd.String("tutor", "", "The tutor's ID or email.")

	switch args[1] {
	case "adduser":
		if err := addUserCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *addUserUname == "" || *addUserEmail == "" {
			addUserCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			addUserCmd.Usage()
			return errHelp
		}
		return cli.addUser(*addUserUname, *addUserEmail, pwd, *addUserAdmin)
	case "resetpassword":
		if err := resetPasswordCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *resetPasswordUname == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		pwd, err := cli.promptPassword()
		if err != nil {
			return err
		}
		if pwd == "" {
			resetPasswordCmd.Usage()
			return errHelp
		}
		return cli.resetPassword(*resetPasswordUname, pwd)
	case "mktoken":
		if err := mkTokenCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *mkTokenUname == "" {
			mkTokenCmd.Usage()
			return errHelp
		}
		return cli.makeToken(*mkTokenUname)
	case "migrate":
		return cli.migrate(args[2:])
	case "recompute":
		if err := recomputeCmd.Parse(args[2:]); err != nil {
			return err
		}
		if *recomputeTutor == "" {
			recomputeCmd.Usage()
			return errHelp
		}
		return cli.recompute(*recomputeTutor)
	default:
		cli.printUsage()
		return errHelp
	}
}

func (cli *commandLine) promptPassword() (string, error) {
	fmt.Print("Enter password:")
	pwd, err := readPasswordFunc(syscall.Stdin)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(pwd), nil
}
