package main

import (
	"log"

	"github.com/takaflow/dispatch/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
