package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
)

// pc is the linear address of cs:ip.
func pc(c *Context) (uint64, error) {
	cs, err := c.Task.RegRead(x86_16.CS)
	if err != nil {
		return 0, err
	}
	ip, err := c.Task.RegRead(x86_16.IP)
	if err != nil {
		return 0, err
	}
	return x86_16.Linear(uint16(cs), uint16(ip)), nil
}

var DisCmd = cmd(&Command{
	Name: "dis",
	Desc: "Disassemble: dis [addr [size]], from cs:ip by default",
	Raw:  true,
	Run: func(c *Context, args []string) error {
		if len(args) > 2 {
			return fmt.Errorf("usage: dis [addr [size]]")
		}
		addr, err := pc(c)
		if err != nil {
			return err
		}
		size := uint64(16)
		for i, arg := range args {
			n, err := strconv.ParseUint(arg, 0, 64)
			if err != nil {
				return err
			}
			if i == 0 {
				addr = n
			} else {
				size = n
			}
		}
		dis, err := c.Task.Dis(addr, size, true)
		if err != nil {
			return err
		}
		c.Printf("%s\n", dis)
		return nil
	},
})

var AsmCmd = cmd(&Command{
	Name: "asm",
	Desc: "Assemble at cs:ip and write to memory: asm <instructions>",
	Raw:  true,
	Run: func(c *Context, args []string) error {
		addr, err := pc(c)
		if err != nil {
			return err
		}
		code, err := c.Task.Asm(strings.Join(args, " "), addr)
		if err != nil {
			return err
		}
		if err := c.Task.MemWrite(addr, code); err != nil {
			return err
		}
		c.Printf("wrote %d bytes at %#x\n", len(code), addr)
		return nil
	},
})

var PredictCmd = cmd(&Command{
	Name: "predict",
	Desc: "Predict whether the branch at cs:ip is taken.",
	Run: func(c *Context) error {
		if c.Predictor == nil {
			return fmt.Errorf("no branch predictor")
		}
		p, err := c.Predictor.Predict(c.Task)
		if err != nil {
			return err
		}
		c.Printf("%s\n", p)
		return nil
	},
})
