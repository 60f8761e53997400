package main

import (
	"fmt"
	"os"
)

// @title FocusHub API
// @version 1.0
// @description Friendships, study groups and group meetings for the FocusHub study app.

// @host localhost:3001
// @BasePath /api

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description JWT token. Format: "Bearer {token}". The token cookie is accepted as well.

// buildVersion is set with -ldflags "-X main.buildVersion=..."
var buildVersion = "dev"

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
