package main

import (
	"os"
	"time"

	"martpub/ctl"
	"martpub/log"
)

func main() {
	start := time.Now()
	err := ctl.NewRootCommand().Execute()
	log.Infof("time-consuming %dms", time.Since(start).Milliseconds())
	if err != nil {
		log.Error(err)
		os.Exit(1)
	}
}
