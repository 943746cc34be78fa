package models

import (
	"errors"
	"fmt"
	"testing"
)

func TestReportChain(t *testing.T) {
	var seen []string
	chain := NewReportChain(ReporterFunc(func(err error) {
		seen = append(seen, "base:"+err.Error())
	}))
	interposer := func(name string) Interposer {
		return func(prev Reporter) Reporter {
			return ReporterFunc(func(err error) {
				seen = append(seen, name+":"+err.Error())
				prev.Report(err)
			})
		}
	}
	outer := chain.Install(interposer("outer"))
	inner := chain.Install(interposer("inner"))
	chain.Report(errors.New("boom"))
	if fmt.Sprint(seen) != "[inner:boom outer:boom base:boom]" {
		t.Fatalf("bad chain order: %v", seen)
	}

	seen = nil
	inner()
	inner()
	chain.Report(errors.New("x"))
	if fmt.Sprint(seen) != "[outer:x base:x]" {
		t.Fatalf("uninstall did not restore previous reporter: %v", seen)
	}

	seen = nil
	outer()
	chain.Report(errors.New("y"))
	if fmt.Sprint(seen) != "[base:y]" {
		t.Fatalf("got %v", seen)
	}
}

func TestReportChainEmpty(t *testing.T) {
	chain := NewReportChain(nil)
	chain.Report(errors.New("dropped"))
}
