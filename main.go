package main

import (
	"log"

	"github.com/miraijuku/kanri/cmd"
)

func main() {
	if err := cmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
