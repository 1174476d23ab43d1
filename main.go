package main

import (
	_ "github.com/tanpawarit/link-companion-assistant/pkg/logger/autoload"

	"github.com/tanpawarit/link-companion-assistant/cmd"
)

func main() {
	cmd.Execute()
}
