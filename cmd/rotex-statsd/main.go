package main

import (
	"log"

	statsd "rotexchain/services/statsd"
)

func main() {
	if err := statsd.Main(); err != nil {
		log.Fatalf("rotex-statsd: %v", err)
	}
}
