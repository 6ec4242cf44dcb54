package main

import (
	"flag"
	"fmt"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"docqa/internal/apiclient"
	"docqa/internal/tui"
)

func main() {
	var apiURL string
	var uploadPath string
	flag.StringVar(&apiURL, "api", "http://127.0.0.1:8000", "Base URL of the docqa server")
	flag.StringVar(&uploadPath, "upload", "", "Document to upload before starting the chat")
	flag.Parse()

	client := apiclient.New(apiURL)

	status := "Ready."
	if uploadPath != "" {
		res, err := client.Upload(uploadPath)
		if err != nil {
			log.Fatalf("upload failed: %v", err)
		}
		fmt.Printf("Uploaded: %s (%d passages)\n", uploadPath, res.PassagesCreated)
		if res.Summary != "" {
			status = "Summary: " + res.Summary
		}
	} else {
		ready, err := client.Health()
		if err != nil {
			log.Fatalf("server unreachable at %s: %v", apiURL, err)
		}
		if !ready {
			status = "No document uploaded yet. Run with -upload or POST /upload first."
		}
	}

	m := tui.New(client, status)
	if _, err := tea.NewProgram(m).Run(); err != nil {
		log.Fatal(err)
	}
}
