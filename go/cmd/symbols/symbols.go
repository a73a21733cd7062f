package symbols

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/lunixbochs/wincorn/go/api"
	"github.com/lunixbochs/wincorn/go/cmd"
)

// Main lists the implemented exports and the COM interface catalog.
func Main(args []string) {
	c := cmd.NewCmd("[module...]")
	c.RunSession = func(ctx context.Context, args []string) error {
		s := c.Session
		modules := args
		if len(modules) == 0 {
			modules = s.Registry.Modules()
		}
		for _, module := range modules {
			c.Header(api.NormalizeModule(module))
			for _, sym := range s.Registry.Symbols(module) {
				if d, ok := s.Registry.Lookup(module, sym); ok {
					fmt.Fprintf(c.Out, "  %s\n", d)
				}
			}
		}
		if len(args) == 0 {
			c.Header("interfaces")
			for _, name := range s.Catalog.Names() {
				iface, _ := s.Catalog.Get(name)
				fmt.Fprintf(c.Out, "  %s (%d slots): %s\n", name, len(iface.Slots), strings.Join(iface.SlotNames(), " "))
			}
		}
		return nil
	}
	os.Exit(c.Run(args))
}

func init() { cmd.Register("symbols", "list implemented symbols and COM interfaces", Main) }
