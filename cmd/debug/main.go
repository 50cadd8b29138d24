package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/thatsimonsguy/sprinkler-controller/db"
	"github.com/thatsimonsguy/sprinkler-controller/internal/command"
	"github.com/thatsimonsguy/sprinkler-controller/internal/config"
	"github.com/thatsimonsguy/sprinkler-controller/internal/decode"
	"github.com/thatsimonsguy/sprinkler-controller/internal/model"
	"github.com/thatsimonsguy/sprinkler-controller/internal/opensprinkler"
	"github.com/thatsimonsguy/sprinkler-controller/internal/report"
)

func main() {
	DebugCLI()
}

type staticSource struct {
	c *model.Controller
}

func (s staticSource) Controller() (*model.Controller, bool) { return s.c, s.c != nil }

func DebugCLI() {
	var configFile, dbPath, cmd, station, program string
	var minutes, keep int
	var noWeather bool
	flag.StringVar(&configFile, "config-file", "config.json", "Path to controller config file")
	flag.StringVar(&dbPath, "db", "data/sprinkler.db", "Path to the SQLite database file")
	flag.StringVar(&cmd, "cmd", "", "Command to run (see -help)")
	flag.StringVar(&station, "station", "", "Station index or name")
	flag.StringVar(&program, "program", "", "Program index or name")
	flag.IntVar(&minutes, "minutes", 0, "Run time for start-station")
	flag.BoolVar(&noWeather, "no-weather", false, "Start a program without weather adjustment")
	flag.IntVar(&keep, "keep", 100, "Snapshots to keep for prune")
	help := flag.Bool("help", false, "Show help")
	flag.Parse()

	if *help || cmd == "" {
		fmt.Println("\nUsage of sprinkler-debug:")
		fmt.Println("  -config-file string\tPath to controller config file (default 'config.json')")
		fmt.Println("  -db string\tPath to the SQLite database file (default 'data/sprinkler.db')")
		fmt.Println("  -cmd string\tCommand to run:")
		fmt.Println("\t\tshow, properties, stations, programs")
		fmt.Println("\t\tstart-station, stop-station, start-program")
		fmt.Println("\t\tlatest-snapshot, prune")
		fmt.Println("  -station string\tStation index or name")
		fmt.Println("  -program string\tProgram index or name")
		fmt.Println("  -minutes int\tRun time for start-station")
		fmt.Println("  -no-weather\tStart a program without weather adjustment")
		fmt.Println("  -keep int\tSnapshots to keep for prune (default 100)")
		fmt.Println("  -help\tShow this help message")
		os.Exit(0)
	}

	var err error
	switch cmd {
	case "latest-snapshot":
		var rec db.SnapshotRecord
		rec, err = db.LatestSnapshotCLI(dbPath)
		if err == nil {
			fmt.Printf("Snapshot %d fetched at %s\n%s\n", rec.ID, rec.FetchedAt.Format(time.RFC3339), rec.Raw)
		}
	case "prune":
		err = db.PruneSnapshotsCLI(dbPath, keep)
	default:
		err = deviceCommand(cmd, configFile, station, program, minutes, !noWeather)
	}

	if err != nil {
		fmt.Printf("Command %s failed: %v\n", cmd, err)
		os.Exit(1)
	}
	fmt.Printf("Command %s completed successfully\n", cmd)
}

func deviceCommand(cmd, configFile, station, program string, minutes int, useWeather bool) error {
	cfg := config.LoadFile(configFile)
	client := opensprinkler.New(cfg.Device.BaseURL(), cfg.Device.Password,
		time.Duration(cfg.Device.RequestTimeoutSeconds)*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	snap, _, err := client.FetchSnapshot(ctx)
	if err != nil {
		return err
	}
	c, err := decode.Assemble(snap)
	if err != nil {
		return err
	}
	dispatcher := command.NewDispatcher(client, staticSource{c: c})

	switch cmd {
	case "show":
		report.Controller(os.Stdout, c)
	case "properties":
		report.Properties(os.Stdout, c)
	case "stations":
		for _, st := range c.Stations() {
			report.Station(os.Stdout, st)
		}
	case "programs":
		for _, p := range c.Programs() {
			report.Program(os.Stdout, p)
		}
	case "start-station":
		st, err := dispatcher.StartStation(ctx, station, minutes)
		if err != nil {
			return err
		}
		fmt.Printf("Started station %d (%s) for %d minutes\n", st.Index, st.Name, minutes)
	case "stop-station":
		st, err := dispatcher.StopStation(ctx, station)
		if err != nil {
			return err
		}
		fmt.Printf("Stopped station %d (%s)\n", st.Index, st.Name)
	case "start-program":
		p, err := dispatcher.StartProgram(ctx, program, useWeather)
		if err != nil {
			return err
		}
		fmt.Printf("Started program %d (%s)\n", p.Index, p.Name)
	default:
		return fmt.Errorf("invalid command %q", cmd)
	}
	return nil
}
