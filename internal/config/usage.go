package config

import (
	"flag"
	"fmt"
	"os"

	"github.com/agbru/casbridge/internal/ui"
)

// setCustomUsage installs a themed usage printer on the flag set.
func setCustomUsage(fs *flag.FlagSet) {
	fs.Usage = func() {
		t := ui.GetCurrentTheme()
		if _, ok := os.LookupEnv("NO_COLOR"); ok {
			t = ui.NoColorTheme
		}
		out := fs.Output()

		fmt.Fprintf(out, "\n%sCAS Calculator%s\n", t.Bold, t.Reset)
		fmt.Fprintf(out, "Exact integer, rational and symbolic evaluation.\n\n")
		fmt.Fprintf(out, "%sUsage:%s\n  %s [flags] [expr ...]\n\n", t.Warning, t.Reset, fs.Name())
		fmt.Fprintf(out, "%sExamples:%s\n  %s -e 'factor(x^2-1)' -e 'ifactor(2^64+1)'\n  %s -interactive\n\n", t.Warning, t.Reset, fs.Name(), fs.Name())
		fmt.Fprintf(out, "%sFlags:%s\n", t.Warning, t.Reset)

		fs.VisitAll(func(f *flag.Flag) {
			name, usage := flag.UnquoteUsage(f)
			sig := "-" + f.Name
			if name != "" {
				sig += " " + name
			}
			fmt.Fprintf(out, "  %s%-22s%s %s", t.Primary, sig, t.Reset, usage)
			if f.DefValue != "" && f.DefValue != "0" && f.DefValue != "false" {
				fmt.Fprintf(out, " %s(default %s)%s", t.Secondary, f.DefValue, t.Reset)
			}
			fmt.Fprintln(out)
		})
		fmt.Fprintln(out)
	}
}
