package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"runtime/debug"
	"strconv"

	"github.com/common-nighthawk/go-figure"
	"github.com/goccy/go-json"

	tourcat "github.com/tourcat/tourcat-go"
	"github.com/tourcat/tourcat-go/catalog"
	"github.com/tourcat/tourcat-go/internal/config"
	"github.com/tourcat/tourcat-go/internal/logging"
	"github.com/tourcat/tourcat-go/session"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("Error: %s\n", err)
	}
}

func run(args []string) (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Recovered from panic: %v\n", r)
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	if len(args) == 0 {
		usage()
		return nil
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger := logging.New(cfg.Log.Level, cfg.Log.Console)
	client, err := tourcat.New(tourcat.Options{
		BaseURL:    cfg.API.BaseURL,
		Timeout:    cfg.API.Timeout,
		StorageDir: cfg.Storage.Dir,
		Logger:     &logger,
	})
	if err != nil {
		return err
	}
	defer client.Close()

	ctx := context.Background()
	client.Session.Start(ctx)
	client.Session.OnSignedOut(func() {
		fmt.Fprintln(os.Stderr, "session expired, please log in again")
	})

	return dispatch(ctx, client, args)
}

func dispatch(ctx context.Context, client *tourcat.Client, args []string) error {
	switch args[0] {
	case "login":
		if len(args) != 3 {
			return errors.New("usage: tourcat login <email> <password>")
		}
		user, err := client.Session.Login(ctx, args[1], args[2])
		if err != nil {
			return err
		}
		fmt.Printf("logged in as %s\n", user.Email)
		return nil

	case "register":
		if len(args) != 5 {
			return errors.New("usage: tourcat register <email> <username> <phone> <password>")
		}
		user, err := client.Session.Register(ctx, session.RegisterParams{
			Email:    args[1],
			Username: args[2],
			Phone:    args[3],
			Password: args[4],
		})
		if err != nil {
			return err
		}
		fmt.Printf("registered and logged in as %s\n", user.Email)
		return nil

	case "logout":
		client.Session.Logout()
		fmt.Println("logged out")
		return nil

	case "profile":
		user, err := client.Session.Profile(ctx)
		if err != nil {
			return err
		}
		return printJSON(user)

	case "places":
		page, err := client.Catalog.Places(ctx, listParams(args[1:]))
		if err != nil {
			return err
		}
		return printJSON(page)

	case "place":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		place, err := client.Catalog.Place(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(place)

	case "events":
		page, err := client.Catalog.Events(ctx, listParams(args[1:]))
		if err != nil {
			return err
		}
		return printJSON(page)

	case "event":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		event, err := client.Catalog.Event(ctx, id)
		if err != nil {
			return err
		}
		return printJSON(event)

	case "calendar":
		return dispatchCalendar(ctx, client, args[1:])

	case "souvenirs":
		items, err := client.Catalog.Souvenirs(ctx)
		if err != nil {
			return err
		}
		return printJSON(items)

	case "apps":
		items, err := client.Catalog.Apps(ctx)
		if err != nil {
			return err
		}
		return printJSON(items)

	case "ads":
		items, err := client.Catalog.Advertisements(ctx)
		if err != nil {
			return err
		}
		return printJSON(items)

	default:
		usage()
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func dispatchCalendar(ctx context.Context, client *tourcat.Client, args []string) error {
	if len(args) == 0 {
		entries, err := client.Catalog.CalendarEvents(ctx)
		if err != nil {
			return err
		}
		return printJSON(entries)
	}

	switch args[0] {
	case "add":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		entry, err := client.Catalog.AddCalendarEvent(ctx, id, 0)
		if err != nil {
			return err
		}
		return printJSON(entry)

	case "rm":
		id, err := parseID(args[1:])
		if err != nil {
			return err
		}
		return client.Catalog.RemoveCalendarEvent(ctx, id)

	default:
		return fmt.Errorf("unknown calendar command %q", args[0])
	}
}

func listParams(args []string) catalog.ListParams {
	params := catalog.ListParams{}
	if len(args) > 0 {
		if page, err := strconv.Atoi(args[0]); err == nil {
			params.Page = page
		}
	}
	return params
}

func parseID(args []string) (int64, error) {
	if len(args) != 1 {
		return 0, errors.New("an id argument is required")
	}
	id, err := strconv.ParseInt(args[0], 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid id %q", args[0])
	}
	return id, nil
}

func printJSON(v any) error {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(out))
	return nil
}

func usage() {
	displayAppname("TourCat")
	fmt.Println(`Commands:
  login <email> <password>
  register <email> <username> <phone> <password>
  logout
  profile
  places [page]        place <id>
  events [page]        event <id>
  calendar             calendar add <event-id> | calendar rm <id>
  souvenirs  apps  ads`)
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
