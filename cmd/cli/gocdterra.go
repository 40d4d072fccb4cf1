package main

import (
	"context"
	"errors"
	"flag"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/args"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/entry"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/logger"
	"github.com/OctopusSolutionsEngineering/GoCDTerraformExport/cmd/internal/output"
	"go.uber.org/zap"
	"os"
	"os/signal"
)

var Version = "development"

func main() {
	logger.BuildLogger("info")

	parseArgs, argsErrors, err := args.ParseArgs(os.Args[1:])

	if errors.Is(err, flag.ErrHelp) {
		zap.L().Error(argsErrors)
		os.Exit(2)
	} else if err != nil {
		zap.L().Error("got error: " + err.Error())
		if argsErrors != "" {
			zap.L().Error("argsErrors:\n" + argsErrors)
		}
		os.Exit(1)
	}

	logger.BuildLogger(parseArgs.LogLevel)

	if parseArgs.Version {
		zap.L().Info("Version: " + Version)
		os.Exit(0)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	files, err := entry.Entry(ctx, parseArgs)

	if err != nil {
		errorExit(err.Error())
	}

	if len(files) == 0 {
		return
	}

	err = output.WriteFiles(files, parseArgs.Destination, parseArgs.Console)

	if err != nil {
		errorExit(err.Error())
	}
}

func errorExit(message string) {
	if len(message) == 0 {
		message = "No error message provided"
	}
	zap.L().Error(message)
	os.Exit(1)
}
