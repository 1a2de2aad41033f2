package main

import (
	"context"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
)

// addUser creates a user.User, or updates the name, role & password of the one using that email.
func (cli *commandLine) addUser(name, email, pwd string, role user.Role) error {
	ctx := context.Background()
	nu := user.NewUser{Name: name, Email: email, Password: pwd, Role: &role}

	usr, err := cli.usrSvc.GetByEmail(ctx, email)
	if err != nil {
		if err != user.ErrNotFound {
			return err
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return err
		}
		_, err = cli.usrSvc.Create(ctx, nu)
		return err
	}

	// the email is taken by the user being updated
	if err = cli.validate.Struct(nu); err != nil {
		return err
	}
	if err = usr.SetPassword(nu.Password); err != nil {
		return err
	}
	_, err = cli.usrSvc.Update(ctx, usr.ID, core.Changes{
		"name":     core.CleanString(name),
		"role":     role,
		"password": usr.PasswordHash,
	})
	return err
}
