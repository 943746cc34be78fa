package main

import (
	"github.com/lunixbochs/doscorn/go/cmd"

	_ "github.com/lunixbochs/doscorn/go/cmd/dos"
)

func main() { cmd.Main() }
