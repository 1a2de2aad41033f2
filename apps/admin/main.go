package main

import (
	"context"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/coursehub/core"
	"github.com/trezcool/coursehub/core/user"
	logsvc "github.com/trezcool/coursehub/services/logger"
	"github.com/trezcool/coursehub/storage/database"
	sqlxrepos "github.com/trezcool/coursehub/storage/database/sqlx"
)

func main() {
	conf := core.NewConfig()

	logger := logsvc.NewRollbarLogger(log.New(os.Stdout, logsvc.PrefixAdmin, log.LstdFlags|log.Lmicroseconds|log.Lshortfile), conf)
	logger.Enable(!conf.Debug)

	// set up DB
	errAndDie(logger, database.CreateIfNotExist(context.Background(), conf))
	db, err := database.Open(conf)
	errAndDie(logger, err)
	errAndDie(logger, database.Ping(context.Background(), db))

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// start CLI
	cli := commandLine{
		db:       db,
		usrSvc:   user.NewService(sqlxrepos.NewUserRepository(db)),
		validate: validate,
	}
	err = cli.run(os.Args)
	_ = db.Close()
	if err != nil {
		if err != errHelp {
			logger.Error("command failed: "+err.Error(), err)
		}
		os.Exit(1)
	}
}

func errAndDie(logger core.Logger, err error) {
	if err != nil {
		logger.Fatal(err.Error(), err)
	}
}
