package main

import (
	"context"
	"fmt"

	echoapi "github.com/walimuhq/walimu/apps/api/echo"
	"github.com/walimuhq/walimu/core/user"
)

// makeToken prints a signed API token for the user, handy for curl sessions.
func (cli *commandLine) makeToken(uname string) error {
	usr, err := cli.usrRepo.GetUser(context.Background(), user.GetFilter{UsernameOrEmail: []string{uname}})
	if err != nil {
		return err
	}
	token, err := echoapi.GenerateUserToken(cli.conf, usr)
	if err != nil {
		return err
	}
	fmt.Println(token)
	return nil
}
