package main

import (
	"log"

	"github.com/alecthomas/kong"

	"github.com/df07/go-muscat/web/server"
)

var CLI struct {
	Port int `name:"port" default:"8080" help:"Port to serve on"`
}

func main() {
	kong.Parse(&CLI,
		kong.Name("muscat-web"),
		kong.Description("HTTP front end streaming multiple scattering simulations."),
	)

	// Create and start web server
	webServer := server.NewServer(CLI.Port)

	log.Printf("Multiple Scattering Simulation Web Server")
	log.Printf("POST experiments to http://localhost:%d/api/simulate", CLI.Port)

	if err := webServer.Start(); err != nil {
		log.Fatalf("Error starting server: %v", err)
	}
}
