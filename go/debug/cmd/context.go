package cmd

import (
	"fmt"
	"io"

	"github.com/lunixbochs/doscorn/go/debug/predict"
	"github.com/lunixbochs/doscorn/go/models"
)

type Context struct {
	io.ReadWriter
	Task      models.Task
	Predictor predict.Predictor
}

func (c *Context) Printf(format string, a ...interface{}) (n int, err error) {
	return fmt.Fprintf(c, format, a...)
}
