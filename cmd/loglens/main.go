package main

import "github.com/loglens/backend/internal/cmd"

func main() {
	cmd.Execute()
}
