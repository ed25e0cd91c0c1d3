// Package main is the entry point for peyitv.
package main

import (
	"github.com/peyitv/peyitv/cmd"
	"github.com/peyitv/peyitv/config"
	"github.com/peyitv/peyitv/log"
	"github.com/samber/lo"
)

func main() {
	lo.Must0(config.Setup())
	lo.Must0(log.Setup())

	cmd.Execute()
}
