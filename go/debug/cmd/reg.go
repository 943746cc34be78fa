package cmd

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
)

var strEqNumRe = regexp.MustCompile(`^([a-zA-Z]+)=((-|0|0x|0b)?[0-9a-fA-F]+)$`)

var RegCmd = cmd(&Command{
	Name: "reg",
	Desc: "Read/write regs: reg [name[=value] ...]",
	Raw:  true,
	Run: func(c *Context, args []string) error {
		if len(args) == 0 {
			regs, err := c.Task.RegDump()
			if err != nil {
				return err
			}
			for _, reg := range regs {
				c.Printf("%s 0x%x\n", reg.Name, reg.Val)
			}
			return nil
		}
		bits := int(c.Task.Bits())
		for _, v := range args {
			reg := strings.ToLower(v)
			match := strEqNumRe.FindStringSubmatch(v)
			if len(match) == 0 {
				val, err := c.Task.RegReadName(reg)
				if err != nil {
					c.Printf("%s: %v\n", v, err)
					continue
				}
				c.Printf("%s 0x%x\n", reg, val)
				continue
			}
			reg = strings.ToLower(match[1])
			var value uint64
			var err error
			if match[2][0] == '-' {
				var n int64
				n, err = strconv.ParseInt(match[2], 0, bits)
				value = uint64(n) & (1<<uint(bits) - 1)
			} else {
				value, err = strconv.ParseUint(match[2], 0, bits)
			}
			if err != nil {
				c.Printf("error parsing %s value: %v\n", reg, err)
				continue
			}
			if err := c.Task.RegWriteName(reg, value); err != nil {
				c.Printf("%s: %v\n", v, err)
			}
		}
		return nil
	},
})

var FlagsCmd = cmd(&Command{
	Name: "flags",
	Desc: "Show flags, or change them: flags [+cf] [-zf] [iopl=3]",
	Raw:  true,
	Run: func(c *Context, args []string) error {
		flags := x86_16.NewFlags(c.Task)
		for _, arg := range args {
			var err error
			switch {
			case strings.Contains(arg, "="):
				parts := strings.SplitN(arg, "=", 2)
				fl, ok := x86_16.ParseFlag(parts[0])
				if !ok {
					c.Printf("unknown flag: %s\n", parts[0])
					continue
				}
				var val uint64
				if val, err = strconv.ParseUint(parts[1], 0, 8); err == nil {
					err = flags.SetValue(fl, val)
				}
			case len(arg) > 1 && (arg[0] == '+' || arg[0] == '-'):
				fl, ok := x86_16.ParseFlag(arg[1:])
				if !ok {
					c.Printf("unknown flag: %s\n", arg[1:])
					continue
				}
				if arg[0] == '+' {
					err = flags.Set(fl)
				} else {
					err = flags.Clear(fl)
				}
			default:
				c.Printf("bad flag argument: %s\n", arg)
				continue
			}
			if err != nil {
				return err
			}
		}
		var out []string
		for _, fl := range x86_16.AllFlags() {
			val, err := flags.Value(fl)
			if err != nil {
				return err
			}
			out = append(out, fl.String()+"="+strconv.FormatUint(val, 10))
		}
		c.Printf("%s\n", strings.Join(out, " "))
		return nil
	},
})
