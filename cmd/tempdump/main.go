// The tempdump command prints the readings recorded in a
// remotetemp-server database file.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/rogpeppe/remotetemp/tempstore"
)

var storeFlag = flag.String("store", "flat", `database format, either "flat" or "bolt"`)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: tempdump [-store flat|bolt] <database-file>\n")
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}
	readings, err := readAll(*storeFlag, flag.Arg(0))
	if err != nil {
		log.Fatal(err)
	}
	for _, r := range readings {
		fmt.Printf("%s %s %s %gC\n", r.Time.UTC().Format(time.RFC3339Nano), r.DeviceID, r.SensorID, r.TempC)
	}
}

func readAll(kind, path string) ([]tempstore.Reading, error) {
	switch kind {
	case "flat":
		return tempstore.ReadFlatFile(path)
	case "bolt":
		store, err := tempstore.NewBoltStore(path)
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.Readings()
	}
	return nil, fmt.Errorf("unknown store format %q", kind)
}
