package main

import "github.com/turbolytics/pgadmin-init/internal/cmd"

func main() {
	cmd.Execute()
}
