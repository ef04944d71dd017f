package main

import (
	"github.com/saiset-co/sai-service-crud-plus/logger"
	"github.com/saiset-co/saiService"

	"github.com/saiset-co/saiCosmosTx/internal"
)

func main() {
	svc := saiService.NewService("saiCosmosTx")
	is := internal.InternalService{Context: svc.Context}

	svc.RegisterConfig("config.yml")

	logger.Logger = svc.Logger

	svc.RegisterInitTask(is.Init)

	svc.RegisterHandlers(
		is.NewHandler(),
	)

	svc.Start()
}
