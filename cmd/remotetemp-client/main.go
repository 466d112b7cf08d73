// The remotetemp-client command periodically reads the local 1-wire
// temperature sensors and reports their readings to a remotetemp-server.
package main

import (
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/juju/loggo"

	"github.com/rogpeppe/remotetemp/internal/config"
	"github.com/rogpeppe/remotetemp/internal/daemonize"
	"github.com/rogpeppe/remotetemp/internal/logging"
	"github.com/rogpeppe/remotetemp/pollworker"
	"github.com/rogpeppe/remotetemp/tempapi"
	"github.com/rogpeppe/remotetemp/w1sensor"
)

var logger = loggo.GetLogger("remotetemp.cmd.client")

var (
	serverFlag     = flag.String("server", "", "URL of the remote server to send temperatures to (required)")
	deviceIDFlag   = flag.String("device-id", "unknown", "string sent to the remote server to identify this device")
	periodFlag     = flag.Float64("period", 60, "time between sensor reads, in seconds")
	sanityLowFlag  = flag.Float64("sanity-check-low", tempapi.DefaultSanityCheckLow, "temperature in degrees C below which readings are considered invalid")
	sanityHighFlag = flag.Float64("sanity-check-high", tempapi.DefaultSanityCheckHigh, "temperature in degrees C above which readings are considered invalid")
	sensorDirFlag  = flag.String("sensor-dir", w1sensor.DefaultDir, "directory to look for 1-wire sensors in")
	daemonizeFlag  = flag.Bool("daemonize", false, "run as a daemon")
	pidFileFlag    = flag.String("pid-file", "", "path to write a PID file to (implies -daemonize)")
	logFileFlag    = flag.String("log-file", "", "file to log messages to")
	logLevelFlag   = flag.String("log-level", "INFO", "severity threshold for events to be logged")
	configFlag     = flag.String("config", "", "path of an optional YAML configuration file")
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: remotetemp-client [flags]\n")
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
	if *serverFlag == "" {
		fmt.Fprintf(os.Stderr, "remotetemp-client: no server URL set\n")
		flag.Usage()
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
	logger.Infof("remotetemp-client starting")
	// Check the sensor interface up front so a machine without the
	// kernel w1 modules fails at startup rather than every period.
	if _, err := w1sensor.Sensors(*sensorDirFlag); err != nil {
		fatalf("%v", err)
	}
	w, err := pollworker.New(pollworker.Params{
		ServerURL:       *serverFlag,
		DeviceID:        *deviceIDFlag,
		SensorDir:       *sensorDirFlag,
		Interval:        time.Duration(*periodFlag * float64(time.Second)),
		SanityCheckLow:  *sanityLowFlag,
		SanityCheckHigh: *sanityHighFlag,
	})
	if err != nil {
		fatalf("cannot start poll worker: %v", err)
	}
	sigc := make(chan os.Signal, 1)
	signal.Notify(sigc, os.Interrupt, syscall.SIGTERM)
	<-sigc
	logger.Infof("quitting")
	w.Close()
}

// applyConfig fills in flags that weren't given on the command
// line from the configuration file.
func applyConfig(path string) error {
	var cfg config.Client
	if err := config.Load(path, &cfg); err != nil {
		return err
	}
	set := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) {
		set[f.Name] = true
	})
	if !set["server"] && cfg.Server != "" {
		*serverFlag = cfg.Server
	}
	if !set["device-id"] && cfg.DeviceID != "" {
		*deviceIDFlag = cfg.DeviceID
	}
	if !set["period"] && cfg.Period != 0 {
		*periodFlag = cfg.Period
	}
	if !set["sanity-check-low"] && cfg.SanityCheckLow != nil {
		*sanityLowFlag = *cfg.SanityCheckLow
	}
	if !set["sanity-check-high"] && cfg.SanityCheckHigh != nil {
		*sanityHighFlag = *cfg.SanityCheckHigh
	}
	if !set["sensor-dir"] && cfg.SensorDir != "" {
		*sensorDirFlag = cfg.SensorDir
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
