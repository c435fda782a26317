package main

import (
	"github.com/loopmarket/media-service/cmd"
)

func main() {
	cmd.Execute()
}
