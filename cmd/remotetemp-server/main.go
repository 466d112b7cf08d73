// The remotetemp-server command listens for temperature readings
// reported by remotetemp-client instances and appends them to a
// database file.
package main

import (
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/juju/loggo"

	"github.com/rogpeppe/remotetemp/internal/config"
	"github.com/rogpeppe/remotetemp/internal/daemonize"
	"github.com/rogpeppe/remotetemp/internal/logging"
	"github.com/rogpeppe/remotetemp/tempapi"
	"github.com/rogpeppe/remotetemp/tempserver"
	"github.com/rogpeppe/remotetemp/tempstore"
)

var logger = loggo.GetLogger("remotetemp.cmd.server")

var (
	addressFlag    = flag.String("address", "localhost", "hostname or IP address to listen on")
	portFlag       = flag.Int("port", 8080, "port to listen on")
	databaseFlag   = flag.String("database", "/var/temperatures", "path of the database file to record temperatures in")
	storeFlag      = flag.String("store", "flat", `database format, either "flat" (one record per line) or "bolt"`)
	sanityLowFlag  = flag.Float64("sanity-check-low", tempapi.DefaultSanityCheckLow, "temperature in degrees C below which submitted readings are rejected")
	sanityHighFlag = flag.Float64("sanity-check-high", tempapi.DefaultSanityCheckHigh, "temperature in degrees C above which submitted readings are rejected")
	daemonizeFlag  = flag.Bool("daemonize", false, "run as a daemon")
	pidFileFlag    = flag.String("pid-file", "", "path to write a PID file to (implies -daemonize)")
	logFileFlag    = flag.String("log-file", "", "file to log messages to")
	logLevelFlag   = flag.String("log-level", "INFO", "severity threshold for events to be logged")
	configFlag     = flag.String("config", "", "path of an optional YAML configuration file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: remotetemp-server [flags]\n")
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() > 0 {
		flag.Usage()
	}
	if *configFlag != "" {
		if err := applyConfig(*configFlag); err != nil {
			fatalf("%v", err)
		}
	}
	release, parent, err := daemonize.Daemonize(daemonize.Params{
		Daemonize: *daemonizeFlag,
		PIDFile:   *pidFileFlag,
	})
	if err != nil {
		fatalf("%v", err)
	}
	if parent {
		return
	}
	defer release()
	if err := logging.Setup(logging.Params{
		LogFile:    *logFileFlag,
		Level:      *logLevelFlag,
		Daemonized: *daemonizeFlag || *pidFileFlag != "",
	}); err != nil {
		fatalf("%v", err)
	}
	logger.Infof("remotetemp-server starting")
	store, err := openStore(*storeFlag, *databaseFlag)
	if err != nil {
		fatalf("cannot open database: %v", err)
	}
	handler, err := tempserver.New(tempserver.Params{
		Store:           store,
		SanityCheckLow:  *sanityLowFlag,
		SanityCheckHigh: *sanityHighFlag,
	})
	if err != nil {
		fatalf("cannot create server: %v", err)
	}
	lis, err := net.Listen("tcp", net.JoinHostPort(*addressFlag, strconv.Itoa(*portFlag)))
	if err != nil {
		fatalf("cannot listen: %v", err)
	}
	logger.Infof("listening on %v", lis.Addr())
	srv := &http.Server{
		Handler: handler,
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-sigc
		logger.Infof("quitting")
		srv.Close()
	}()
	if err := srv.Serve(lis); err != nil && err != http.ErrServerClosed {
		logger.Errorf("server stopped: %v", err)
	}
	if err := store.Close(); err != nil {
		logger.Errorf("cannot close store: %v", err)
	}
}

func openStore(kind, path string) (tempstore.Store, error) {
	switch kind {
	case "flat":
		return tempstore.NewFlatStore(path)
	case "bolt":
		return tempstore.NewBoltStore(path)
	}
	return nil, fmt.Errorf("unknown store format %q", kind)
}

// applyConfig fills in flags that weren't given on the command
// line from the configuration file.
func applyConfig(path string) error {
	var cfg config.Server
	if err := config.Load(path, &cfg); err != nil {
		return err
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["address"] && cfg.Address != "" {
		*addressFlag = cfg.Address
	}
	if !set["port"] && cfg.Port != 0 {
		*portFlag = cfg.Port
	}
	if !set["database"] && cfg.Database != "" {
		*databaseFlag = cfg.Database
	}
	if !set["store"] && cfg.Store != "" {
		*storeFlag = cfg.Store
	}
	if !set["sanity-check-low"] && cfg.SanityCheckLow != nil {
		*sanityLowFlag = *cfg.SanityCheckLow
	}
	if !set["sanity-check-high"] && cfg.SanityCheckHigh != nil {
		*sanityHighFlag = *cfg.SanityCheckHigh
	}
	if !set["daemonize"] && cfg.Daemonize {
		*daemonizeFlag = true
	}
	if !set["pid-file"] && cfg.PIDFile != "" {
		*pidFileFlag = cfg.PIDFile
	}
	if !set["log-file"] && cfg.LogFile != "" {
		*logFileFlag = cfg.LogFile
	}
	if !set["log-level"] && cfg.LogLevel != "" {
		*logLevelFlag = cfg.LogLevel
	}
	return nil
}

// fatalf logs through loggo rather than printing directly so that
// fatal errors still end up in the log file when daemonized.
func fatalf(format string, args ...interface{}) {
	logger.Criticalf(format, args...)
	os.Exit(1)
}
