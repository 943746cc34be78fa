// Package predict guesses the outcome of the branch at the current
// instruction so a stepping debugger can pick where to stop.
package predict

import (
	"fmt"

	"github.com/pkg/errors"
)

// Prophecy is the result of one prediction. Where is only meaningful when
// Going is true.
type Prophecy struct {
	Going bool
	Where uint64
}

func (p Prophecy) String() string {
	if p.Going {
		return fmt.Sprintf("taken -> %#x", p.Where)
	}
	return "not taken"
}

type RegReader interface {
	RegReadName(name string) (uint64, error)
}

type MemReader interface {
	MemRead(addr, size uint64) ([]byte, error)
}

// Predictor must not change register or memory state, and returns a new
// Prophecy on each call.
type Predictor interface {
	Predict(regs RegReader) (Prophecy, error)
}

// ReadReg is the register accessor shared by predictors.
func ReadReg(regs RegReader, name string) (uint64, error) {
	val, err := regs.RegReadName(name)
	return val, errors.Wrapf(err, "predict: reading %s", name)
}

// NotTaken predicts every branch falls through.
type NotTaken struct{}

func (NotTaken) Predict(regs RegReader) (Prophecy, error) {
	return Prophecy{}, nil
}
