package main

import (
	"time"

	"github.com/cppla/blogapi/config"
	"github.com/cppla/blogapi/routes"
	"github.com/cppla/blogapi/utils"
)

func main() {
	cfg := config.Load()

	// Initialize logger early
	if err := utils.InitLogger(cfg); err != nil {
		panic(err)
	}
	defer utils.Logger.Sync() //nolint:errcheck

	utils.SetPasswordCost(cfg.BcryptCost)

	db := config.InitDatabase()

	blacklist := utils.NewTokenBlacklist(utils.NewRedis(cfg))
	tokens := utils.NewTokenManager(cfg.JWTSecret, time.Duration(cfg.TokenTTLMinutes)*time.Minute, blacklist)

	r := routes.SetupRouter(cfg, db, tokens)

	utils.Sugar.Infof("Starting server on port %s (graceful)", cfg.AppPort)
	if err := utils.GraceServer(":"+cfg.AppPort, r); err != nil {
		utils.Sugar.Fatalf("server stopped with error: %v", err)
	}
}
