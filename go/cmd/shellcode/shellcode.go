package shellcode

import (
	"context"
	"encoding/hex"
	"fmt"
	"io/ioutil"
	"os"
	"strings"

	"github.com/pkg/errors"

	"github.com/lunixbochs/wincorn/go/cmd"
	"github.com/lunixbochs/wincorn/go/models"
)

// imports is a comma-separated module!symbol list resolved before the run.
type imports []string

func (i *imports) String() string {
	return strings.Join(*i, ",")
}

func (i *imports) Set(value string) error {
	*i = append(*i, strings.Split(value, ",")...)
	return nil
}

func readShellcode(arg string) ([]byte, error) {
	if arg == "-" {
		code, err := ioutil.ReadAll(os.Stdin)
		return code, errors.Wrap(err, "failed to read shellcode")
	}
	code, err := hex.DecodeString(strings.TrimPrefix(arg, "0x"))
	return code, errors.Wrap(err, "failed to decode shellcode")
}

func Main(args []string) {
	c := cmd.NewCmd("<hex shellcode | ->")
	var imps imports
	var table *uint64
	c.SetupFlags = func() error {
		c.Flags.Var(&imps, "import", "write the stub address for module!symbol into the import table (repeatable)")
		table = c.Flags.Uint64("iat", 0, "import table address; defaults to the page after the code")
		return nil
	}
	c.RunSession = func(ctx context.Context, args []string) error {
		if len(args) != 1 {
			c.Flags.Usage()
			os.Exit(1)
		}
		code, err := readShellcode(args[0])
		if err != nil {
			return err
		}
		s := c.Session
		entry, err := s.LoadCode(code)
		if err != nil {
			return err
		}
		if len(imps) > 0 {
			iat := *table
			if iat == 0 {
				if iat, err = s.Emu.Alloc(uint64(len(imps)*s.Emu.PtrSize()), "iat"); err != nil {
					return err
				}
			}
			for i, imp := range imps {
				module, symbol, ok := strings.Cut(imp, "!")
				if !ok {
					return errors.Errorf("bad import %q, want module!symbol", imp)
				}
				stub, err := s.ResolveImport(module, symbol)
				if err != nil {
					return err
				}
				slot := iat + uint64(i*s.Emu.PtrSize())
				if err := s.Emu.WritePtr(slot, stub); err != nil {
					return errors.Wrapf(err, "failed to write import %s", imp)
				}
				fmt.Fprintf(c.Out, "%#x: %s -> %#x\n", slot, imp, stub)
			}
		}
		// never executed; the guest's final ret lands here and ends the run
		exit, err := s.Emu.Alloc(1, "exit")
		if err != nil {
			return err
		}
		c.Header(fmt.Sprintf("running %d bytes at %#x", len(code), entry))
		err = s.Run(ctx, entry, exit)
		if errors.Cause(err) == context.DeadlineExceeded {
			fmt.Fprintf(c.Out, "timed out after %s\n", c.Timeout)
			err = nil
		}
		if err != nil {
			return err
		}
		if s.Env.Exited {
			fmt.Fprintf(c.Out, "ExitProcess(%d)\n", s.Env.ExitCode)
			return models.ExitStatus(s.Env.ExitCode)
		}
		return nil
	}
	os.Exit(c.Run(args))
}

func init() { cmd.Register("shellcode", "run raw x86 shellcode with Windows API stubs", Main) }
