package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dilg/votedesk/internal/api"
	"github.com/dilg/votedesk/internal/cache"
	"github.com/dilg/votedesk/internal/config"
	"github.com/dilg/votedesk/internal/refresher"
	"github.com/dilg/votedesk/internal/session"
	"github.com/dilg/votedesk/internal/ui"

	tea "github.com/charmbracelet/bubbletea"
)

func main() {
	cfg := config.Default()

	flag.StringVar(&cfg.APIBaseURL, "api", cfg.APIBaseURL, "voting API base URL")
	flag.StringVar(&cfg.Profile, "profile", cfg.Profile, "session profile name; each profile keeps its own sign-in")
	ephemeral := flag.Bool("ephemeral", false, "keep the session in memory only")
	fileMirror := flag.Bool("file-mirror", false, "store the session in a JSON file instead of the database")
	listProfiles := flag.Bool("list-profiles", false, "list profiles with a stored session and exit")
	flag.Parse()

	if err := os.MkdirAll(cfg.ConfigDir, 0o755); err != nil {
		log.Fatalf("creating config dir: %v", err)
	}

	// The terminal belongs to the UI; send logs to a file.
	logFile, err := os.OpenFile(cfg.LogPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		log.Fatalf("opening log file: %v", err)
	}
	defer logFile.Close()

	db, err := cache.Open(cfg.DBPath)
	if err != nil {
		log.Fatalf("opening database: %v", err)
	}
	defer db.Close()

	if *listProfiles {
		printProfiles(db)
		return
	}

	log.SetOutput(logFile)

	client, err := api.NewClient(cfg.APIBaseURL, cfg.RequestTimeout)
	if err != nil {
		log.Fatalf("creating API client: %v", err)
	}

	var mirror session.Persistence
	switch {
	case *ephemeral:
		mirror = session.NewMemoryPersistence()
	case *fileMirror:
		mirror = session.NewFilePersistence(cfg.SessionPath)
	default:
		mirror = db.SessionMirror(cfg.Profile)
	}

	store := session.New(client, mirror)
	store.InitFromStorage()
	log.Printf("starting: api=%s profile=%s signed_in=%t", cfg.APIBaseURL, cfg.Profile, store.IsAuthenticated())

	ref := refresher.New(store, cfg.ProfileRefresh, cfg.RequestTimeout)
	defer ref.Stop()

	app := ui.NewApp(cfg, store, ref)
	p := tea.NewProgram(app, tea.WithAltScreen())
	app.SetProgram(p)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printProfiles(db *cache.DB) {
	profiles, err := db.Profiles()
	if err != nil {
		log.Fatalf("listing profiles: %v", err)
	}
	if len(profiles) == 0 {
		fmt.Println("no stored sessions")
		return
	}
	for _, p := range profiles {
		fmt.Printf("%-20s %d keys, updated %s\n", p.Name, p.Keys, p.UpdatedAt.Format("2006-01-02 15:04"))
	}
}
