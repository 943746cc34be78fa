package dos

import (
	"fmt"
	"io"
	"strings"

	"github.com/lunixbochs/doscorn/go/arch/x86_16"
	"github.com/lunixbochs/doscorn/go/models"
)

// crashDump prints registers and the code at cs:ip before passing err on.
func crashDump(task models.Task, w io.Writer) models.Interposer {
	return func(prev models.Reporter) models.Reporter {
		return models.ReporterFunc(func(err error) {
			fmt.Fprintln(w, "[registers]")
			if regs, rerr := task.RegDump(); rerr == nil {
				var line []string
				for i, r := range regs {
					line = append(line, fmt.Sprintf("%5s %#06x", r.Name, r.Val))
					if len(line) == 4 || i == len(regs)-1 {
						fmt.Fprintln(w, strings.Join(line, "  "))
						line = nil
					}
				}
			} else {
				fmt.Fprintf(w, "  unavailable: %v\n", rerr)
			}
			cs, _ := task.RegRead(x86_16.CS)
			ip, _ := task.RegRead(x86_16.IP)
			pc := x86_16.Linear(uint16(cs), uint16(ip))
			fmt.Fprintf(w, "[code at %04x:%04x]\n", cs, ip)
			if dis, derr := task.Dis(pc, 16, true); derr == nil {
				fmt.Fprintln(w, dis)
			} else {
				fmt.Fprintf(w, "  unavailable: %v\n", derr)
			}
			prev.Report(err)
		})
	}
}
