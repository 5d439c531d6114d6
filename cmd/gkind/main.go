// gkind applies encoded statements and blocks to a fresh state store and
// reports the outcomes. It is the offline half of a node: everything after
// the point where a block's bytes are already in hand.
package main

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/inconshreveable/log15"
	"github.com/urfave/cli/v2"

	"github.com/kindelia-network/gkind/core"
	"github.com/kindelia-network/gkind/core/state"
	"github.com/kindelia-network/gkind/core/types"
	"github.com/kindelia-network/gkind/params"
)

var app = &cli.App{
	Name:  "gkind",
	Usage: "statement execution engine",
	Flags: []cli.Flag{
		verbosityFlag,
	},
	Commands: []*cli.Command{
		commandApply,
		commandRun,
	},
	Before: func(ctx *cli.Context) error {
		handler := log15.LvlFilterHandler(
			log15.Lvl(ctx.Int(verbosityFlag.Name)),
			log15.StreamHandler(os.Stderr, log15.TerminalFormat()))
		log15.Root().SetHandler(handler)
		return nil
	},
}

var (
	verbosityFlag = &cli.IntFlag{
		Name:  "verbosity",
		Usage: "logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug",
		Value: int(log15.LvlInfo),
	}
	jsonFlag = &cli.BoolFlag{
		Name:  "json",
		Usage: "output JSON instead of human-readable format",
	}
)

var commandApply = &cli.Command{
	Name:      "apply",
	Usage:     "apply an encoded block to a fresh state",
	ArgsUsage: "<blockfile>",
	Description: `
Read a hex-encoded block, apply it to an empty state store and print the
per-statement outcomes and the resulting counters.`,
	Flags: []cli.Flag{jsonFlag},
	Action: func(ctx *cli.Context) error {
		raw, err := readHexFile(ctx.Args().First())
		if err != nil {
			return err
		}
		blk, err := types.DecodeBlock(raw)
		if err != nil {
			return fmt.Errorf("decoding block: %w", err)
		}
		return report(ctx, blk)
	},
}

var commandRun = &cli.Command{
	Name:      "run",
	Usage:     "apply a file of encoded statements to a fresh state",
	ArgsUsage: "<statementfile>",
	Description: `
Read hex-encoded statements, one per line, fold them into a block and
apply it to an empty state store.`,
	Flags: []cli.Flag{jsonFlag},
	Action: func(ctx *cli.Context) error {
		data, err := os.ReadFile(ctx.Args().First())
		if err != nil {
			return err
		}
		blk := new(types.Block)
		for i, line := range strings.Split(string(data), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "//") {
				continue
			}
			raw, err := hex.DecodeString(strings.TrimPrefix(line, "0x"))
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			stmt, err := types.DecodeStatement(raw)
			if err != nil {
				return fmt.Errorf("line %d: %w", i+1, err)
			}
			blk.Statements = append(blk.Statements, stmt)
		}
		return report(ctx, blk)
	},
}

type outcomeReport struct {
	Index  int    `json:"index"`
	Kind   string `json:"kind"`
	Status string `json:"status"`
	Mana   uint64 `json:"mana"`
	Space  uint64 `json:"space"`
	Error  string `json:"error,omitempty"`
	Result string `json:"result,omitempty"`
}

type applyReport struct {
	Block      string          `json:"block"`
	Statements []outcomeReport `json:"statements"`
	Stats      state.Stats     `json:"stats"`
}

func report(ctx *cli.Context, blk *types.Block) error {
	statedb := state.New()
	outcomes, stats := core.NewProcessor(params.MainnetChainConfig).Process(statedb, blk)

	rep := applyReport{
		Block: types.BlockHash(blk).Hex(),
		Stats: stats,
	}
	for i, out := range outcomes {
		r := outcomeReport{
			Index:  i,
			Kind:   blk.Statements[i].Kind.String(),
			Status: out.Status.String(),
			Mana:   out.UsedMana,
			Space:  out.UsedSpace,
		}
		if out.Err != nil {
			r.Error = out.Err.Error()
		}
		if out.Result != nil {
			r.Result = out.Result.String()
		}
		rep.Statements = append(rep.Statements, r)
	}

	if ctx.Bool(jsonFlag.Name) {
		enc, err := json.MarshalIndent(rep, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	}
	for _, r := range rep.Statements {
		fmt.Printf("[%d] %-3s %-8s mana=%d space=%d", r.Index, r.Kind, r.Status, r.Mana, r.Space)
		if r.Error != "" {
			fmt.Printf(" err=%q", r.Error)
		}
		if r.Result != "" {
			fmt.Printf(" result=%s", r.Result)
		}
		fmt.Println()
	}
	fmt.Printf("block %s: ctrs=%d funs=%d regs=%d mana=%d space=%d tick=%d\n",
		rep.Block, stats.CtrCount, stats.FunCount, stats.RegCount,
		stats.Mana, stats.Space, stats.Tick)
	return nil
}

func readHexFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	s := strings.TrimSpace(string(data))
	return hex.DecodeString(strings.TrimPrefix(s, "0x"))
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
