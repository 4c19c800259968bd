package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/urfave/cli/v2"

	gtfsrtrelay "github.com/theoremus-urban-solutions/gtfsrt-relay"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/config"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/departure"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/distance"
	"github.com/theoremus-urban-solutions/gtfsrt-relay/filter"
)

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newService(c *cli.Context, cfg config.AppConfig) *gtfsrtrelay.Service {
	var opts []gtfsrtrelay.ServiceOption
	if path := c.String("feed-file"); path != "" {
		opts = append(opts, gtfsrtrelay.WithFeedSource(fileFeed{path: path}))
	}
	svc := gtfsrtrelay.NewService(cfg, opts...)
	svc.Index.Load(svc.Downloads.DataDir())
	return svc
}

var feedFileFlag = &cli.StringFlag{Name: "feed-file", Usage: "read the feed from a saved .pb file instead of the API"}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "run the HTTP relay",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "port", Usage: "listen port (overrides config)"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			if p := c.Int("port"); p > 0 {
				cfg.Server.Port = p
			}
			svc := gtfsrtrelay.NewService(cfg)
			svc.Bootstrap(c.Context)
			return gtfsrtrelay.NewServer(svc).ListenAndServe(c.Context)
		},
	}
}

func trainsCommand() *cli.Command {
	return &cli.Command{
		Name:  "trains",
		Usage: "print current trains as JSON",
		Flags: []cli.Flag{
			feedFileFlag,
			&cli.StringFlag{Name: "route"},
			&cli.StringFlag{Name: "origin", Usage: "origin station id"},
			&cli.StringFlag{Name: "destination", Usage: "destination station id"},
			&cli.StringFlag{Name: "from", Usage: "earliest ETA, HH:MM"},
			&cli.StringFlag{Name: "to", Usage: "latest ETA, HH:MM"},
			&cli.IntFlag{Name: "limit"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			svc := newService(c, cfg)

			q := url.Values{}
			q.Set("route", c.String("route"))
			q.Set("origin_station", c.String("origin"))
			q.Set("destination_station", c.String("destination"))
			q.Set("time_from", c.String("from"))
			q.Set("time_to", c.String("to"))
			if c.IsSet("limit") {
				q.Set("limit", strconv.Itoa(c.Int("limit")))
			}
			crit, err := filter.ParseCriteria(q, svc.Limits())
			if err != nil {
				return err
			}

			res, err := svc.Trains(c.Context, crit)
			if err != nil {
				return err
			}
			return printJSON(res)
		},
	}
}

func downloadCommand() *cli.Command {
	return &cli.Command{
		Name:  "download",
		Usage: "refresh the static GTFS dataset",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "force", Usage: "ignore the download cool-down"},
			&cli.BoolFlag{Name: "status", Usage: "only print the dataset status"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			svc := gtfsrtrelay.NewService(cfg)
			if !c.Bool("status") {
				if err := svc.RefreshSchedule(c.Context, c.Bool("force")); err != nil {
					return err
				}
			}
			return printJSON(svc.Downloads.Info())
		},
	}
}

func departuresCommand() *cli.Command {
	return &cli.Command{
		Name:  "departures",
		Usage: "suggest when to leave for a train",
		Flags: []cli.Flag{
			feedFileFlag,
			&cli.StringFlag{Name: "station", Required: true, Usage: "origin station id"},
			&cli.StringFlag{Name: "destination"},
			&cli.StringFlag{Name: "route"},
			&cli.Float64Flag{Name: "walking-minutes"},
			&cli.Float64Flag{Name: "lat"},
			&cli.Float64Flag{Name: "lon"},
			&cli.BoolFlag{Name: "locate", Usage: "estimate walking time from the network location"},
			&cli.StringFlag{Name: "preference", Value: string(departure.Earliest), Usage: "earliest|most_time"},
			&cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			svc := newService(c, cfg)

			q := gtfsrtrelay.DepartureQuery{
				Station:     c.String("station"),
				Destination: c.String("destination"),
				Route:       c.String("route"),
				Locate:      c.Bool("locate"),
				Preference:  departure.ParsePreference(c.String("preference")),
			}
			if c.IsSet("walking-minutes") {
				d := time.Duration(c.Float64("walking-minutes") * float64(time.Minute))
				q.Walking = &d
			}
			if c.IsSet("lat") && c.IsSet("lon") {
				q.From = &distance.Point{Lat: c.Float64("lat"), Lon: c.Float64("lon")}
			}

			res, err := svc.Departures(c.Context, q)
			if err != nil {
				return err
			}
			if c.Bool("json") {
				return printJSON(res)
			}
			if res.Suggestion == nil {
				fmt.Println("No catchable train found.")
				return nil
			}
			if res.Walk.Display != "" {
				fmt.Println("Walk:", res.Walk.Display)
			}
			fmt.Println(res.Summary)
			if res.Notification != "" {
				fmt.Println(res.Notification)
			}
			return nil
		},
	}
}

func locateCommand() *cli.Command {
	return &cli.Command{
		Name:  "locate",
		Usage: "print the network location of this host",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "no-cache", Usage: "skip the cached location"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := setup(c)
			if err != nil {
				return err
			}
			svc := gtfsrtrelay.NewService(cfg)
			loc, err := svc.Locator.Locate(c.Context, !c.Bool("no-cache"))
			if err != nil {
				return err
			}
			return printJSON(loc)
		},
	}
}
