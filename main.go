package main

import (
	"log"

	"rule-board/app"
)

func main() {
	server := app.NewServer()
	log.Fatal(server.Start(""))
}
