package cmd

import (
	"github.com/lunixbochs/doscorn/go/models"
)

var MapsCmd = cmd(&Command{
	Name: "maps",
	Desc: "Display memory mappings.",
	Run: func(c *Context) error {
		for _, m := range c.Task.Mappings() {
			c.Printf("  %v\n", m.String())
		}
		return nil
	},
})

var MemCmd = cmd(&Command{
	Name: "mem",
	Desc: "Dump memory: mem <addr> <size>",
	Run: func(c *Context, addr, size uint64) error {
		mem, err := c.Task.MemRead(addr, size)
		if err != nil {
			return err
		}
		for _, line := range models.HexDump(addr, mem, int(c.Task.Bits())) {
			c.Printf("  %s\n", line)
		}
		return nil
	},
})
