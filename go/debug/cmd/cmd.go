package cmd

import (
	"fmt"
	"reflect"
	"sort"
	"strconv"

	"github.com/lunixbochs/argjoy"
	"github.com/mattn/go-shellwords"
)

type Command struct {
	Name string
	Desc string
	// Run is a func taking *Context first. Raw commands get the remaining
	// words as a []string, others have each word converted by argjoy.
	Run interface{}
	Raw bool
}

var Commands = make(map[string]*Command)

func cmd(c *Command) *Command {
	fn := reflect.ValueOf(c.Run)
	if !fn.IsValid() || fn.Kind() != reflect.Func {
		panic(fmt.Sprintf("Command.Run must be a func: got (%T) %#v\n", c.Run, c.Run))
	}
	Commands[c.Name] = c
	return c
}

// strToUint accepts the prefixes strconv understands, so 0x100 works.
func strToUint(arg interface{}, vals []interface{}) error {
	s, ok := vals[0].(string)
	if !ok {
		return argjoy.NoMatch
	}
	switch v := arg.(type) {
	case *uint64:
		n, err := strconv.ParseUint(s, 0, 64)
		*v = n
		return err
	case *int:
		n, err := strconv.ParseInt(s, 0, 64)
		*v = int(n)
		return err
	}
	return argjoy.NoMatch
}

var aj = argjoy.NewArgjoy(strToUint)

// ErrQuit ends a debugger session.
var ErrQuit = fmt.Errorf("quit")

// Run executes one command line. Command errors are printed, only ErrQuit
// is returned.
func Run(c *Context, line string) error {
	args, err := shellwords.Parse(line)
	if err != nil {
		c.Printf("parse error: %v\n", err)
		return nil
	}
	if len(args) == 0 {
		return nil
	}
	name, args := args[0], args[1:]
	cmd, ok := Commands[name]
	if !ok {
		c.Printf("command not found.\n")
		return nil
	}
	var out []interface{}
	if cmd.Raw {
		fn := cmd.Run.(func(*Context, []string) error)
		out = []interface{}{fn(c, args)}
	} else {
		vals := []interface{}{c}
		for _, a := range args {
			vals = append(vals, a)
		}
		out, err = aj.Call(cmd.Run, vals...)
		if err != nil {
			c.Printf("error: %v\n", err)
			return nil
		}
	}
	if len(out) > 0 {
		if err, ok := out[0].(error); ok && err != nil {
			if err == ErrQuit {
				return err
			}
			c.Printf("error: %v\n", err)
		}
	}
	return nil
}

var HelpCmd = cmd(&Command{
	Name: "help",
	Desc: "List commands.",
	Run: func(c *Context) error {
		names := make([]string, 0, len(Commands))
		for name := range Commands {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			c.Printf("  %-8s %s\n", name, Commands[name].Desc)
		}
		return nil
	},
})

var ContinueCmd = cmd(&Command{
	Name: "continue",
	Desc: "Leave the debugger and let the program run.",
	Run: func(c *Context) error {
		return ErrQuit
	},
})
