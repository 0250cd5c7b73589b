package main

import (
	"flag"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/StagehandTeam/Stagehand-Daemon/internal"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	lumberjack "gopkg.in/natefinch/lumberjack.v2"
)

func main() {
	_ = godotenv.Load()

	configurationLocation := flag.String("configuration", os.Getenv("STAGEHAND_CONFIGURATION_LOCATION"), "path of configuration file")
	httpHost := flag.String("httpHost", os.Getenv("STAGEHAND_HTTP_HOST"), "host to serve the status api and metrics on")
	restProxyURL := flag.String("restProxyURL", os.Getenv("STAGEHAND_REST_PROXY_URL"), "url of a twilight http-proxy to route rest calls through")

	loggingLevel := flag.String("level", os.Getenv("STAGEHAND_LOGGING_LEVEL"), "logging level")
	loggingFileEnabled := flag.Bool("fileLogging", os.Getenv("STAGEHAND_LOGGING_FILE_ENABLED") == "true", "when enabled, will also log to file")
	loggingDirectory := flag.String("loggingDirectory", os.Getenv("STAGEHAND_LOGGING_DIRECTORY"), "directory to log to")

	flag.Parse()

	level, err := zerolog.ParseLevel(*loggingLevel)
	if err != nil || level == zerolog.NoLevel {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)

	consoleWriter := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.Stamp,
	}

	var logger io.Writer = consoleWriter

	if *loggingFileEnabled {
		directory := *loggingDirectory
		if directory == "" {
			directory = "logs"
		}

		logger = zerolog.MultiLevelWriter(consoleWriter, &lumberjack.Logger{
			Filename:   filepath.Join(directory, "stagehand.log"),
			MaxSize:    25,
			MaxBackups: 5,
			MaxAge:     7,
		})
	}

	sg, err := internal.NewStagehand(logger, internal.StagehandOptions{
		ConfigurationLocation: *configurationLocation,
		HTTPHost:              *httpHost,
		RestProxyURL:          *restProxyURL,
	})
	if err != nil {
		println("Failed to create stagehand:", err.Error())
		os.Exit(1)
	}

	err = sg.Open()
	if err != nil {
		sg.Logger.Error().Err(err).Msg("Failed to open stagehand")
		os.Exit(1)
	}

	sc := make(chan os.Signal, 1)
	signal.Notify(sc, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)
	<-sc

	err = sg.Close()
	if err != nil {
		sg.Logger.Warn().Err(err).Msg("Exception whilst closing stagehand")
	}
}
